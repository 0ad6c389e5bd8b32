// Package queue defines the notification messages and their RabbitMQ
// transport.
package queue

import (
	"time"

	"github.com/iliyamo/kaku-api/internal/model"
)

// Kind names the domain event a Message carries.
type Kind string

const (
	KindEventCreated Kind = "event.created"
	KindTaskAssigned Kind = "task.assigned"
)

// Message is the JSON envelope published to the notification queue. Exactly
// one payload is set, matching Kind.
type Message struct {
	Kind       Kind          `json:"kind"`
	Event      *EventPayload `json:"event,omitempty"`
	Task       *TaskPayload  `json:"task,omitempty"`
	OccurredAt time.Time     `json:"occurred_at"`
}

// EventPayload carries enough of the event to render the email without a
// database read.
type EventPayload struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"`
	Location    string    `json:"location,omitempty"`
}

// TaskPayload identifies the assignee by id; the consumer loads the user so
// a recent opt-out is honored.
type TaskPayload struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	DueDate     time.Time `json:"due_date"`
	AssignedTo  string    `json:"assigned_to"`
}

func NewEventCreated(e model.Event) Message {
	p := &EventPayload{
		ID:          e.ID,
		Title:       e.Title,
		Description: e.Description,
		StartDate:   e.StartDate,
		EndDate:     e.EndDate,
	}
	if e.Location != nil {
		p.Location = *e.Location
	}
	return Message{Kind: KindEventCreated, Event: p, OccurredAt: time.Now().UTC()}
}

func NewTaskAssigned(t model.Task) Message {
	p := &TaskPayload{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		DueDate:     t.DueDate,
	}
	if t.AssignedToID != nil {
		p.AssignedTo = *t.AssignedToID
	}
	return Message{Kind: KindTaskAssigned, Task: p, OccurredAt: time.Now().UTC()}
}
