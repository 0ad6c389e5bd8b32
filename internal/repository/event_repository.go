package repository

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/iliyamo/kaku-api/internal/model"
)

// EventRepo persists events and their participant sets. Participants live
// in the event_participants join table; adding or removing one also bumps
// the event version.
type EventRepo struct{ DB *gorm.DB }

func NewEventRepo(db *gorm.DB) *EventRepo { return &EventRepo{DB: db} }

func preloadParticipants(db *gorm.DB) *gorm.DB {
	return db.Order("email ASC")
}

// Create inserts e without participants. The caller assigns the id.
func (r *EventRepo) Create(ctx context.Context, e *model.Event) error {
	e.Version = 1
	if e.Participants == nil {
		e.Participants = []model.User{}
	}
	return translate(r.DB.WithContext(ctx).Omit("Participants").Create(e).Error)
}

// GetByID fetches an event with its participants loaded.
func (r *EventRepo) GetByID(ctx context.Context, id string) (*model.Event, error) {
	var e model.Event
	err := r.DB.WithContext(ctx).
		Preload("Participants", preloadParticipants).
		Where("id = ?", id).
		Take(&e).Error
	if err != nil {
		return nil, translate(err)
	}
	if e.Participants == nil {
		e.Participants = []model.User{}
	}
	return &e, nil
}

// Exists reports whether an event with id is stored.
func (r *EventRepo) Exists(ctx context.Context, id string) (bool, error) {
	var n int64
	if err := r.DB.WithContext(ctx).Model(&model.Event{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

// Find lists events matching f ordered by start date ascending.
func (r *EventRepo) Find(ctx context.Context, f model.EventFilter) ([]model.Event, error) {
	q := r.DB.WithContext(ctx).Model(&model.Event{}).Preload("Participants", preloadParticipants)
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.StartFrom != nil && f.StartTo != nil {
		q = q.Where("start_date BETWEEN ? AND ?", f.StartFrom.UTC(), f.StartTo.UTC())
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		q = q.Where("LOWER(title) LIKE ?", containsPattern(s))
	}
	events := []model.Event{}
	if err := q.Order("start_date ASC").Find(&events).Error; err != nil {
		return nil, err
	}
	for i := range events {
		if events[i].Participants == nil {
			events[i].Participants = []model.User{}
		}
	}
	return events, nil
}

// Save writes the scalar fields of e under the version check.
func (r *EventRepo) Save(ctx context.Context, e *model.Event) error {
	return saveVersioned(r.DB.WithContext(ctx), e, &e.Version)
}

// Delete removes the event and its participant rows. Tasks that reference
// the event are left untouched.
func (r *EventRepo) Delete(ctx context.Context, id string) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("event_id = ?", id).Delete(&model.EventParticipant{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&model.Event{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// AddParticipant links userID to e. e must carry the version the caller
// read; on success e.Version is advanced. An existing link yields
// ErrDuplicate.
func (r *EventRepo) AddParticipant(ctx context.Context, e *model.Event, userID string) error {
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		link := model.EventParticipant{EventID: e.ID, UserID: userID, CreatedAt: time.Now().UTC()}
		if err := tx.Create(&link).Error; err != nil {
			return translate(err)
		}
		return bumpVersion(tx, "events", e.ID, e.Version)
	})
	if err != nil {
		return err
	}
	e.Version++
	return nil
}

// RemoveParticipant unlinks userID from e. Removing a user that is not a
// participant is a no-op and leaves the version unchanged.
func (r *EventRepo) RemoveParticipant(ctx context.Context, e *model.Event, userID string) error {
	removed := false
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("event_id = ? AND user_id = ?", e.ID, userID).Delete(&model.EventParticipant{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		removed = true
		return bumpVersion(tx, "events", e.ID, e.Version)
	})
	if err != nil {
		return err
	}
	if removed {
		e.Version++
	}
	return nil
}
