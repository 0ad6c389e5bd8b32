package model

import "time"

// EventStatus is the lifecycle state of an event. Status is never advanced
// by the clock; only explicit updates change it.
type EventStatus string

const (
	EventUpcoming  EventStatus = "upcoming"
	EventOngoing   EventStatus = "ongoing"
	EventCompleted EventStatus = "completed"
	EventCancelled EventStatus = "cancelled"
)

// Valid reports whether s is a known event status.
func (s EventStatus) Valid() bool {
	switch s {
	case EventUpcoming, EventOngoing, EventCompleted, EventCancelled:
		return true
	}
	return false
}

// Event is a scheduled happening with a participant set. StartDate must be
// before EndDate; the request boundary enforces it.
type Event struct {
	ID           string      `gorm:"primaryKey;size:36" json:"id"`
	Title        string      `gorm:"size:255;not null" json:"title"`
	Description  string      `gorm:"type:text" json:"description"`
	StartDate    time.Time   `gorm:"not null;index" json:"startDate"`
	EndDate      time.Time   `gorm:"not null" json:"endDate"`
	Status       EventStatus `gorm:"size:16;not null;index" json:"status"`
	Location     *string     `gorm:"size:255" json:"location"`
	CreatedBy    string      `gorm:"size:128" json:"createdBy,omitempty"`
	Participants []User      `gorm:"many2many:event_participants;" json:"participants"`
	Version      int64       `gorm:"not null" json:"version"`
	CreatedAt    time.Time   `json:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt"`
}

// HasParticipant reports whether userID is in the participant set.
func (e *Event) HasParticipant(userID string) bool {
	for _, p := range e.Participants {
		if p.ID == userID {
			return true
		}
	}
	return false
}

// EventParticipant is a row of the event_participants join table. The
// composite primary key keeps the participant set unique per event.
type EventParticipant struct {
	EventID   string    `gorm:"primaryKey;size:36"`
	UserID    string    `gorm:"primaryKey;size:128"`
	CreatedAt time.Time
}

// EventFilter narrows an event listing. Zero-valued fields are ignored and
// the remaining predicates are combined with AND. The start date range only
// applies when both bounds are set.
type EventFilter struct {
	Status    EventStatus
	StartFrom *time.Time
	StartTo   *time.Time
	Search    string
}
