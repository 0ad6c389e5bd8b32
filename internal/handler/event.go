package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/kaku-api/internal/apperr"
	"github.com/iliyamo/kaku-api/internal/model"
	"github.com/iliyamo/kaku-api/internal/service"
)

type EventHandler struct {
	Events *service.EventService
}

func NewEventHandler(s *service.EventService) *EventHandler {
	return &EventHandler{Events: s}
}

type eventReq struct {
	Title       string  `json:"title" validate:"required"`
	Description string  `json:"description"`
	StartDate   string  `json:"startDate" validate:"required"`
	EndDate     string  `json:"endDate" validate:"required"`
	Location    *string `json:"location"`
}

// eventPatchReq distinguishes absent keys from explicit nulls.
type eventPatchReq struct {
	Title       model.Field[string]            `json:"title"`
	Description model.Field[string]            `json:"description"`
	StartDate   model.Field[string]            `json:"startDate"`
	EndDate     model.Field[string]            `json:"endDate"`
	Status      model.Field[model.EventStatus] `json:"status"`
	Location    model.Field[string]            `json:"location"`
}

func (r eventPatchReq) patch() (service.EventPatch, error) {
	start, err := dateField(r.StartDate)
	if err != nil {
		return service.EventPatch{}, err
	}
	end, err := dateField(r.EndDate)
	if err != nil {
		return service.EventPatch{}, err
	}
	return service.EventPatch{
		Title:       r.Title,
		Description: r.Description,
		StartDate:   start,
		EndDate:     end,
		Status:      r.Status,
		Location:    r.Location,
	}, nil
}

// List supports ?status=&startDate=&endDate=&search=. Unknown statuses and
// malformed dates are ignored.
func (h *EventHandler) List(c echo.Context) error {
	var f model.EventFilter
	if s := model.EventStatus(c.QueryParam("status")); s.Valid() {
		f.Status = s
	}
	f.StartFrom = optionalDate(c.QueryParam("startDate"))
	f.StartTo = optionalDate(c.QueryParam("endDate"))
	f.Search = strings.TrimSpace(c.QueryParam("search"))
	return h.list(c, f)
}

// ListAll returns every event for administrators.
func (h *EventHandler) ListAll(c echo.Context) error {
	return h.list(c, model.EventFilter{})
}

func (h *EventHandler) list(c echo.Context, f model.EventFilter) error {
	ctx, cancel := requestCtx(c)
	defer cancel()

	events, err := h.Events.GetAllEvents(ctx, f)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, events)
}

func (h *EventHandler) Get(c echo.Context) error {
	ctx, cancel := requestCtx(c)
	defer cancel()

	e, err := h.Events.GetEventByID(ctx, c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, e)
}

func (h *EventHandler) Create(c echo.Context) error {
	p, err := caller(c)
	if err != nil {
		return respondError(c, err)
	}
	var req eventReq
	if err := bindJSON(c, &req); err != nil {
		return respondError(c, err)
	}
	start, err := parseDate(req.StartDate)
	if err != nil {
		return respondError(c, err)
	}
	end, err := parseDate(req.EndDate)
	if err != nil {
		return respondError(c, err)
	}
	if !start.Before(end) {
		return respondError(c, apperr.Validation("startDate must be before endDate"))
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	e, err := h.Events.CreateEvent(ctx, service.EventInput{
		Title:       req.Title,
		Description: req.Description,
		StartDate:   start,
		EndDate:     end,
		Location:    req.Location,
	}, p.UserID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, e)
}

func (h *EventHandler) Update(c echo.Context) error {
	var req eventPatchReq
	if err := bindJSON(c, &req); err != nil {
		return respondError(c, err)
	}
	patch, err := req.patch()
	if err != nil {
		return respondError(c, err)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	e, err := h.Events.UpdateEvent(ctx, c.Param("id"), patch)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, e)
}

func (h *EventHandler) Delete(c echo.Context) error {
	ctx, cancel := requestCtx(c)
	defer cancel()

	msg, err := h.Events.DeleteEvent(ctx, c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": msg})
}

func (h *EventHandler) AddParticipant(c echo.Context) error {
	var req userIDBody
	if err := bindJSON(c, &req); err != nil {
		return respondError(c, err)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	e, err := h.Events.AddParticipant(ctx, c.Param("id"), req.UserID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, e)
}

func (h *EventHandler) RemoveParticipant(c echo.Context) error {
	var req userIDBody
	if err := bindJSON(c, &req); err != nil {
		return respondError(c, err)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	e, err := h.Events.RemoveParticipant(ctx, c.Param("id"), req.UserID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, e)
}
