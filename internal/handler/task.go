package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/kaku-api/internal/model"
	"github.com/iliyamo/kaku-api/internal/service"
)

type TaskHandler struct {
	Tasks *service.TaskService
}

func NewTaskHandler(s *service.TaskService) *TaskHandler {
	return &TaskHandler{Tasks: s}
}

type taskReq struct {
	Title       string  `json:"title" validate:"required"`
	Description string  `json:"description"`
	DueDate     string  `json:"dueDate" validate:"required"`
	Priority    string  `json:"priority" validate:"omitempty,oneof=low medium high"`
	AssignedTo  *string `json:"assignedTo"`
	EventID     *string `json:"eventId"`
}

type taskPatchReq struct {
	Title       model.Field[string]             `json:"title"`
	Description model.Field[string]             `json:"description"`
	DueDate     model.Field[string]             `json:"dueDate"`
	Priority    model.Field[model.TaskPriority] `json:"priority"`
	Status      model.Field[model.TaskStatus]   `json:"status"`
	AssignedTo  model.Field[string]             `json:"assignedTo"`
	EventID     model.Field[string]             `json:"eventId"`
}

type statusReq struct {
	Status string `json:"status" validate:"required,oneof=pending in_progress completed"`
}

// List supports ?status=&priority=&assignedTo=&eventId=&dueDate=&search=.
// dueDate selects tasks due between now and that instant.
func (h *TaskHandler) List(c echo.Context) error {
	var f model.TaskFilter
	if s := model.TaskStatus(c.QueryParam("status")); s.Valid() {
		f.Status = s
	}
	if p := model.TaskPriority(c.QueryParam("priority")); p.Valid() {
		f.Priority = p
	}
	f.AssignedTo = strings.TrimSpace(c.QueryParam("assignedTo"))
	f.EventID = strings.TrimSpace(c.QueryParam("eventId"))
	f.DueBefore = optionalDate(c.QueryParam("dueDate"))
	f.Search = strings.TrimSpace(c.QueryParam("search"))
	return h.list(c, f)
}

func (h *TaskHandler) ListAll(c echo.Context) error {
	return h.list(c, model.TaskFilter{})
}

func (h *TaskHandler) list(c echo.Context, f model.TaskFilter) error {
	ctx, cancel := requestCtx(c)
	defer cancel()

	tasks, err := h.Tasks.GetAllTasks(ctx, f)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, tasks)
}

func (h *TaskHandler) Get(c echo.Context) error {
	ctx, cancel := requestCtx(c)
	defer cancel()

	t, err := h.Tasks.GetTaskByID(ctx, c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, t)
}

func (h *TaskHandler) Create(c echo.Context) error {
	p, err := caller(c)
	if err != nil {
		return respondError(c, err)
	}
	var req taskReq
	if err := bindJSON(c, &req); err != nil {
		return respondError(c, err)
	}
	due, err := parseDate(req.DueDate)
	if err != nil {
		return respondError(c, err)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	t, err := h.Tasks.CreateTask(ctx, service.TaskInput{
		Title:       req.Title,
		Description: req.Description,
		DueDate:     due,
		Priority:    model.TaskPriority(req.Priority),
		AssignedTo:  req.AssignedTo,
		EventID:     req.EventID,
	}, p.UserID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, t)
}

func (h *TaskHandler) Update(c echo.Context) error {
	var req taskPatchReq
	if err := bindJSON(c, &req); err != nil {
		return respondError(c, err)
	}
	due, err := dateField(req.DueDate)
	if err != nil {
		return respondError(c, err)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	t, err := h.Tasks.UpdateTask(ctx, c.Param("id"), service.TaskPatch{
		Title:       req.Title,
		Description: req.Description,
		DueDate:     due,
		Priority:    req.Priority,
		Status:      req.Status,
		AssignedTo:  req.AssignedTo,
		EventID:     req.EventID,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, t)
}

func (h *TaskHandler) Delete(c echo.Context) error {
	ctx, cancel := requestCtx(c)
	defer cancel()

	if err := h.Tasks.DeleteTask(ctx, c.Param("id")); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Task deleted successfully"})
}

func (h *TaskHandler) Assign(c echo.Context) error {
	var req userIDBody
	if err := bindJSON(c, &req); err != nil {
		return respondError(c, err)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	t, err := h.Tasks.AssignTask(ctx, c.Param("id"), req.UserID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, t)
}

func (h *TaskHandler) UpdateStatus(c echo.Context) error {
	var req statusReq
	if err := bindJSON(c, &req); err != nil {
		return respondError(c, err)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	t, err := h.Tasks.UpdateTaskStatus(ctx, c.Param("id"), model.TaskStatus(req.Status))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, t)
}
