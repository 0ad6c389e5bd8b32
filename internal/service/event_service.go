package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/kaku-api/internal/apperr"
	"github.com/iliyamo/kaku-api/internal/model"
	"github.com/iliyamo/kaku-api/internal/repository"
)

const (
	msgEventNotFound = "Event not found"
	msgUserNotFound  = "User not found"
	msgAlreadyJoined = "User is already a participant"
	msgDateOrder     = "startDate must be before endDate"
	msgEventDeleted  = "Event deleted successfully"
	msgTitleRequired = "title is required"
	msgInvalidStatus = "Invalid status"
)

// EventService owns event lifecycle and participant management.
type EventService struct {
	events EventStore
	users  UserStore
	notify Notifier
}

func NewEventService(events EventStore, users UserStore, n Notifier) *EventService {
	if n == nil {
		n = NopNotifier{}
	}
	return &EventService{events: events, users: users, notify: n}
}

// EventInput is a validated create request. StartDate < EndDate is checked
// by the caller.
type EventInput struct {
	Title       string
	Description string
	StartDate   time.Time
	EndDate     time.Time
	Location    *string
}

// EventPatch is a partial update. Unset fields keep their stored value;
// null on Description or Location clears them.
type EventPatch struct {
	Title       model.Field[string]
	Description model.Field[string]
	StartDate   model.Field[time.Time]
	EndDate     model.Field[time.Time]
	Status      model.Field[model.EventStatus]
	Location    model.Field[string]
}

// CreateEvent persists a new upcoming event and announces it.
func (s *EventService) CreateEvent(ctx context.Context, in EventInput, creatorID string) (*model.Event, error) {
	e := &model.Event{
		ID:          uuid.NewString(),
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		StartDate:   in.StartDate.UTC(),
		EndDate:     in.EndDate.UTC(),
		Status:      model.EventUpcoming,
		Location:    in.Location,
		CreatedBy:   creatorID,
	}
	if err := s.events.Create(ctx, e); err != nil {
		return nil, storeErr(err, msgEventNotFound)
	}
	s.notify.EventCreated(*e)
	return e, nil
}

func (s *EventService) GetEventByID(ctx context.Context, id string) (*model.Event, error) {
	e, err := s.events.GetByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, msgEventNotFound)
	}
	return e, nil
}

func (s *EventService) GetAllEvents(ctx context.Context, f model.EventFilter) ([]model.Event, error) {
	events, err := s.events.Find(ctx, f)
	if err != nil {
		return nil, apperr.Internal("storage failure", err)
	}
	return events, nil
}

// UpdateEvent merges p over the stored event. The merged dates must still
// be ordered.
func (s *EventService) UpdateEvent(ctx context.Context, id string, p EventPatch) (*model.Event, error) {
	e, err := s.events.GetByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, msgEventNotFound)
	}
	if p.Title.Set {
		if p.Title.Null || strings.TrimSpace(p.Title.Value) == "" {
			return nil, apperr.Validation(msgTitleRequired)
		}
		e.Title = strings.TrimSpace(p.Title.Value)
	}
	if p.Description.Set {
		e.Description = p.Description.Value
	}
	if p.StartDate.Set {
		if p.StartDate.Null {
			return nil, apperr.Validation("startDate is required")
		}
		e.StartDate = p.StartDate.Value.UTC()
	}
	if p.EndDate.Set {
		if p.EndDate.Null {
			return nil, apperr.Validation("endDate is required")
		}
		e.EndDate = p.EndDate.Value.UTC()
	}
	if p.Status.Set {
		if p.Status.Null || !p.Status.Value.Valid() {
			return nil, apperr.Validation(msgInvalidStatus)
		}
		e.Status = p.Status.Value
	}
	if p.Location.Set {
		if p.Location.Null {
			e.Location = nil
		} else {
			loc := p.Location.Value
			e.Location = &loc
		}
	}
	if !e.StartDate.Before(e.EndDate) {
		return nil, apperr.Validation(msgDateOrder)
	}
	if err := s.events.Save(ctx, e); err != nil {
		return nil, storeErr(err, msgEventNotFound)
	}
	return e, nil
}

// DeleteEvent removes the event and returns the confirmation message.
func (s *EventService) DeleteEvent(ctx context.Context, id string) (string, error) {
	if err := s.events.Delete(ctx, id); err != nil {
		return "", storeErr(err, msgEventNotFound)
	}
	return msgEventDeleted, nil
}

// AddParticipant links an existing user to an existing event.
func (s *EventService) AddParticipant(ctx context.Context, eventID, userID string) (*model.Event, error) {
	e, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, storeErr(err, msgEventNotFound)
	}
	if err := mustExist(ctx, s.users.Exists, userID, msgUserNotFound); err != nil {
		return nil, err
	}
	if e.HasParticipant(userID) {
		return nil, apperr.Conflict(msgAlreadyJoined)
	}
	if err := s.events.AddParticipant(ctx, e, userID); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperr.Conflict(msgAlreadyJoined)
		}
		return nil, storeErr(err, msgEventNotFound)
	}
	return s.GetEventByID(ctx, eventID)
}

// RemoveParticipant unlinks userID. Non-members are ignored.
func (s *EventService) RemoveParticipant(ctx context.Context, eventID, userID string) (*model.Event, error) {
	e, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, storeErr(err, msgEventNotFound)
	}
	if !e.HasParticipant(userID) {
		return e, nil
	}
	if err := s.events.RemoveParticipant(ctx, e, userID); err != nil {
		return nil, storeErr(err, msgEventNotFound)
	}
	return s.GetEventByID(ctx, eventID)
}
