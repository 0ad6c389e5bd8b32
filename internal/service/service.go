// Package service holds the business rules for users, events and tasks.
// Services take their stores at construction and return *apperr.Error
// values the HTTP layer maps to status codes.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/iliyamo/kaku-api/internal/apperr"
	"github.com/iliyamo/kaku-api/internal/model"
	"github.com/iliyamo/kaku-api/internal/repository"
)

// Notifier receives domain events. Implementations must not block the
// caller and never report failures back.
type Notifier interface {
	EventCreated(e model.Event)
	TaskAssigned(t model.Task)
}

// NopNotifier drops every event.
type NopNotifier struct{}

func (NopNotifier) EventCreated(model.Event) {}
func (NopNotifier) TaskAssigned(model.Task)  {}

type UserStore interface {
	Create(ctx context.Context, u *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	Exists(ctx context.Context, id string) (bool, error)
	List(ctx context.Context) ([]model.User, error)
	Save(ctx context.Context, u *model.User) error
}

type EventStore interface {
	Create(ctx context.Context, e *model.Event) error
	GetByID(ctx context.Context, id string) (*model.Event, error)
	Exists(ctx context.Context, id string) (bool, error)
	Find(ctx context.Context, f model.EventFilter) ([]model.Event, error)
	Save(ctx context.Context, e *model.Event) error
	Delete(ctx context.Context, id string) error
	AddParticipant(ctx context.Context, e *model.Event, userID string) error
	RemoveParticipant(ctx context.Context, e *model.Event, userID string) error
}

type TaskStore interface {
	Create(ctx context.Context, t *model.Task) error
	GetByID(ctx context.Context, id string) (*model.Task, error)
	Find(ctx context.Context, f model.TaskFilter) ([]model.Task, error)
	Save(ctx context.Context, t *model.Task) error
	Delete(ctx context.Context, id string) error
}

const msgConcurrent = "resource was modified concurrently"

// storeErr translates repository sentinels. notFound is the message used
// when the row is missing.
func storeErr(err error, notFound string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return apperr.NotFound(notFound)
	case errors.Is(err, repository.ErrConflict):
		return apperr.Conflict(msgConcurrent)
	case errors.Is(err, repository.ErrDuplicate):
		return apperr.Conflict("resource already exists")
	}
	return apperr.Internal("storage failure", err)
}

// mustExist reports NotFound(msg) unless exists returns true for id.
func mustExist(ctx context.Context, exists func(context.Context, string) (bool, error), id, msg string) error {
	ok, err := exists(ctx, id)
	if err != nil {
		return apperr.Internal("storage failure", err)
	}
	if !ok {
		return apperr.NotFound(msg)
	}
	return nil
}

func utcNow() time.Time { return time.Now().UTC() }
