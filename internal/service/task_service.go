package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/kaku-api/internal/apperr"
	"github.com/iliyamo/kaku-api/internal/model"
)

const (
	msgTaskNotFound     = "Task not found"
	msgAssigneeNotFound = "Assigned user not found"
	msgInvalidPriority  = "Invalid priority"
)

// TaskService owns task lifecycle and assignment. A write that moves the
// assignee to a new user emits TaskAssigned.
type TaskService struct {
	tasks  TaskStore
	users  UserStore
	events EventStore
	notify Notifier
	now    func() time.Time
}

func NewTaskService(tasks TaskStore, users UserStore, events EventStore, n Notifier) *TaskService {
	if n == nil {
		n = NopNotifier{}
	}
	return &TaskService{tasks: tasks, users: users, events: events, notify: n, now: utcNow}
}

// TaskInput is a validated create request. An empty Priority means medium.
type TaskInput struct {
	Title       string
	Description string
	DueDate     time.Time
	Priority    model.TaskPriority
	AssignedTo  *string
	EventID     *string
}

// TaskPatch is a partial update. Null on AssignedTo or EventID detaches the
// task; null on Description clears it.
type TaskPatch struct {
	Title       model.Field[string]
	Description model.Field[string]
	DueDate     model.Field[time.Time]
	Priority    model.Field[model.TaskPriority]
	Status      model.Field[model.TaskStatus]
	AssignedTo  model.Field[string]
	EventID     model.Field[string]
}

func (s *TaskService) CreateTask(ctx context.Context, in TaskInput, creatorID string) (*model.Task, error) {
	priority := in.Priority
	if priority == "" {
		priority = model.PriorityMedium
	}
	if !priority.Valid() {
		return nil, apperr.Validation(msgInvalidPriority)
	}
	assignee := nonEmpty(in.AssignedTo)
	eventID := nonEmpty(in.EventID)
	if err := s.checkRefs(ctx, assignee, eventID); err != nil {
		return nil, err
	}
	t := &model.Task{
		ID:           uuid.NewString(),
		Title:        strings.TrimSpace(in.Title),
		Description:  in.Description,
		DueDate:      in.DueDate.UTC(),
		Priority:     priority,
		Status:       model.TaskPending,
		AssignedToID: assignee,
		EventID:      eventID,
		CreatedBy:    creatorID,
	}
	if err := s.tasks.Create(ctx, t); err != nil {
		return nil, storeErr(err, msgTaskNotFound)
	}
	return s.reloadAndNotify(ctx, t.ID, nil)
}

func (s *TaskService) GetTaskByID(ctx context.Context, id string) (*model.Task, error) {
	t, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, msgTaskNotFound)
	}
	return t, nil
}

// GetAllTasks lists tasks matching f. A DueBefore bound selects tasks due
// from now until that instant.
func (s *TaskService) GetAllTasks(ctx context.Context, f model.TaskFilter) ([]model.Task, error) {
	if f.Now.IsZero() {
		f.Now = s.now()
	}
	tasks, err := s.tasks.Find(ctx, f)
	if err != nil {
		return nil, apperr.Internal("storage failure", err)
	}
	return tasks, nil
}

func (s *TaskService) UpdateTask(ctx context.Context, id string, p TaskPatch) (*model.Task, error) {
	t, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, msgTaskNotFound)
	}
	prev := t.AssignedToID

	if p.Title.Set {
		if p.Title.Null || strings.TrimSpace(p.Title.Value) == "" {
			return nil, apperr.Validation(msgTitleRequired)
		}
		t.Title = strings.TrimSpace(p.Title.Value)
	}
	if p.Description.Set {
		t.Description = p.Description.Value
	}
	if p.DueDate.Set {
		if p.DueDate.Null {
			return nil, apperr.Validation("dueDate is required")
		}
		t.DueDate = p.DueDate.Value.UTC()
	}
	if p.Priority.Set {
		if p.Priority.Null || !p.Priority.Value.Valid() {
			return nil, apperr.Validation(msgInvalidPriority)
		}
		t.Priority = p.Priority.Value
	}
	if p.Status.Set {
		if p.Status.Null || !p.Status.Value.Valid() {
			return nil, apperr.Validation(msgInvalidStatus)
		}
		t.Status = p.Status.Value
	}
	// Only references named in the patch are checked, so a task whose event
	// was deleted stays editable.
	var assignee, eventID *string
	if p.AssignedTo.Set {
		if assignee, err = patchRef(p.AssignedTo, "assignedTo"); err != nil {
			return nil, err
		}
		t.AssignedToID = assignee
	}
	if p.EventID.Set {
		if eventID, err = patchRef(p.EventID, "eventId"); err != nil {
			return nil, err
		}
		t.EventID = eventID
	}
	if err := s.checkRefs(ctx, assignee, eventID); err != nil {
		return nil, err
	}
	if err := s.tasks.Save(ctx, t); err != nil {
		return nil, storeErr(err, msgTaskNotFound)
	}
	return s.reloadAndNotify(ctx, t.ID, prev)
}

// DeleteTask removes the task with id.
func (s *TaskService) DeleteTask(ctx context.Context, id string) error {
	return storeErr(s.tasks.Delete(ctx, id), msgTaskNotFound)
}

// AssignTask sets the assignee. The task is unchanged when either side is
// missing.
func (s *TaskService) AssignTask(ctx context.Context, taskID, userID string) (*model.Task, error) {
	t, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, storeErr(err, msgTaskNotFound)
	}
	if err := mustExist(ctx, s.users.Exists, userID, msgUserNotFound); err != nil {
		return nil, err
	}
	prev := t.AssignedToID
	t.AssignedToID = &userID
	if err := s.tasks.Save(ctx, t); err != nil {
		return nil, storeErr(err, msgTaskNotFound)
	}
	return s.reloadAndNotify(ctx, t.ID, prev)
}

// UpdateTaskStatus sets any of the three statuses; no transition order is
// enforced.
func (s *TaskService) UpdateTaskStatus(ctx context.Context, taskID string, status model.TaskStatus) (*model.Task, error) {
	if !status.Valid() {
		return nil, apperr.Validation(msgInvalidStatus)
	}
	t, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, storeErr(err, msgTaskNotFound)
	}
	t.Status = status
	if err := s.tasks.Save(ctx, t); err != nil {
		return nil, storeErr(err, msgTaskNotFound)
	}
	return s.GetTaskByID(ctx, taskID)
}

func (s *TaskService) checkRefs(ctx context.Context, assignee, eventID *string) error {
	if assignee != nil {
		if err := mustExist(ctx, s.users.Exists, *assignee, msgAssigneeNotFound); err != nil {
			return err
		}
	}
	if eventID != nil {
		if err := mustExist(ctx, s.events.Exists, *eventID, msgEventNotFound); err != nil {
			return err
		}
	}
	return nil
}

// reloadAndNotify reads the task back with relations and emits
// TaskAssigned when the assignee differs from prev.
func (s *TaskService) reloadAndNotify(ctx context.Context, id string, prev *string) (*model.Task, error) {
	t, err := s.GetTaskByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.AssignedToID != nil && (prev == nil || *prev != *t.AssignedToID) {
		s.notify.TaskAssigned(*t)
	}
	return t, nil
}

func nonEmpty(p *string) *string {
	if p == nil {
		return nil
	}
	v := strings.TrimSpace(*p)
	if v == "" {
		return nil
	}
	return &v
}

// patchRef returns the id a patch sets. Null detaches; an empty string is
// rejected so a blank form field cannot silently clear the link.
func patchRef(f model.Field[string], name string) (*string, error) {
	if f.Null {
		return nil, nil
	}
	ref := nonEmpty(&f.Value)
	if ref == nil {
		return nil, apperr.Validation(name + " must not be empty, send null to clear it")
	}
	return ref, nil
}
