package task

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Priority is the user-assigned importance of a task.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// TimerStatus is the lifecycle stage of a task's optional countdown.
type TimerStatus string

const (
	TimerNotStarted TimerStatus = "not_started"
	TimerRunning    TimerStatus = "running"
	TimerPaused     TimerStatus = "paused"
	TimerCompleted  TimerStatus = "completed" // terminal
	TimerFailed     TimerStatus = "failed"    // terminal
)

// PlaceholderPrefix marks locally generated ids for tasks the remote
// store has not assigned a permanent id yet.
const PlaceholderPrefix = "temp-"

// Task is the central entity: a todo item with an optional countdown timer.
type Task struct {
	ID             string      `json:"id"`
	Title          string      `json:"title"`
	Description    string      `json:"description"`
	Category       string      `json:"category"`
	Priority       Priority    `json:"priority"`
	DueDate        *time.Time  `json:"due_date,omitempty"`
	Completed      bool        `json:"completed"`
	TimerDuration  int         `json:"timer_duration,omitempty"` // minutes; 0 = no timer
	TimerStartedAt *time.Time  `json:"timer_started_at,omitempty"`
	TimerStatus    TimerStatus `json:"timer_status,omitempty"`
	CreatedAt      time.Time   `json:"created_at"`
	UserID         string      `json:"user_id,omitempty"`
}

// HasTimer reports whether a countdown is attached.
func (t Task) HasTimer() bool { return t.TimerDuration > 0 }

// Equal reports whether two tasks carry the same data, comparing time
// fields by instant rather than by pointer.
func (t Task) Equal(o Task) bool {
	return t.ID == o.ID &&
		t.Title == o.Title &&
		t.Description == o.Description &&
		t.Category == o.Category &&
		t.Priority == o.Priority &&
		t.Completed == o.Completed &&
		t.TimerDuration == o.TimerDuration &&
		t.TimerStatus == o.TimerStatus &&
		t.UserID == o.UserID &&
		t.CreatedAt.Equal(o.CreatedAt) &&
		timePtrEqual(t.DueDate, o.DueDate) &&
		timePtrEqual(t.TimerStartedAt, o.TimerStartedAt)
}

func timePtrEqual(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

// TimerTerminal reports whether the timer accepts no further transitions.
func (t Task) TimerTerminal() bool {
	return t.TimerStatus == TimerCompleted || t.TimerStatus == TimerFailed
}

// IsPlaceholder reports whether the id is a local placeholder.
func (t Task) IsPlaceholder() bool {
	return strings.HasPrefix(t.ID, PlaceholderPrefix)
}

// NewPlaceholderID generates a local placeholder id.
func NewPlaceholderID() string {
	return PlaceholderPrefix + uuid.Must(uuid.NewV7()).String()
}

// Remote is the contract for the persistent task table.
type Remote interface {
	Insert(ctx context.Context, t Task) (Task, error)
	Update(ctx context.Context, t Task) (Task, error)
	Delete(ctx context.Context, id string) error
	SelectAll(ctx context.Context, userID string) ([]Task, error)
	EnsureTable(ctx context.Context) error
}

// Notification is one change observed on the remote task table.
type Notification struct {
	Op   string `json:"op"` // insert, update, delete
	Task Task   `json:"task"`
}

// Feed is an optional change-notification stream a Remote may support.
type Feed interface {
	Listen(ctx context.Context) (<-chan Notification, error)
}
