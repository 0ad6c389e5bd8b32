package model

import "time"

// TaskPriority defines how urgent a task is.
type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
)

func (p TaskPriority) Valid() bool {
	return p == PriorityLow || p == PriorityMedium || p == PriorityHigh
}

// TaskStatus defines the possible statuses for a task. Any status may
// follow any other.
type TaskStatus string

const (
	TaskPending    TaskStatus = "pending"
	TaskInProgress TaskStatus = "in_progress"
	TaskCompleted  TaskStatus = "completed"
)

func (s TaskStatus) Valid() bool {
	return s == TaskPending || s == TaskInProgress || s == TaskCompleted
}

// Task is a unit of work, optionally assigned to a user and attached to an
// event. AssignedToID and EventID must reference stored rows when written;
// the services check this before saving.
type Task struct {
	ID           string       `gorm:"primaryKey;size:36" json:"id"`
	Title        string       `gorm:"size:255;not null" json:"title"`
	Description  string       `gorm:"type:text" json:"description"`
	DueDate      time.Time    `gorm:"not null;index" json:"dueDate"`
	Priority     TaskPriority `gorm:"size:16;not null;index" json:"priority"`
	Status       TaskStatus   `gorm:"size:16;not null;index" json:"status"`
	AssignedToID *string      `gorm:"size:128;index" json:"assignedToId"`
	AssignedTo   *User        `gorm:"foreignKey:AssignedToID" json:"assignedTo,omitempty"`
	EventID      *string      `gorm:"size:36;index" json:"eventId"`
	Event        *Event       `gorm:"foreignKey:EventID" json:"event,omitempty"`
	CreatedBy    string       `gorm:"size:128" json:"createdBy,omitempty"`
	Version      int64        `gorm:"not null" json:"version"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`
}

// TaskFilter defines the available parameters for filtering tasks. DueBefore
// selects tasks due between Now and DueBefore inclusive.
type TaskFilter struct {
	Status     TaskStatus
	Priority   TaskPriority
	AssignedTo string
	EventID    string
	DueBefore  *time.Time
	Now        time.Time
	Search     string
}
