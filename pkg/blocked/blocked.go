// Package blocked manages the list of distracting resources that should be
// unreachable while a focus timer runs.
package blocked

import (
	"context"
	"time"

	"taskpulse/pkg/task"
)

// Resource is one site or application to block during focus time.
type Resource struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	Name      string    `json:"name"`
	Type      string    `json:"type"` // website, application
	UserID    string    `json:"user_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Store is the contract for blocked-resource persistence.
type Store interface {
	List(ctx context.Context, userID string) ([]Resource, error)
	Add(ctx context.Context, r Resource) (Resource, error)
	Remove(ctx context.Context, id string) error
	EnsureTable(ctx context.Context) error
}

// Active reports whether blocking should currently be in effect: it is
// whenever any task's timer is running.
func Active(tasks []task.Task) bool {
	for _, t := range tasks {
		if t.TimerStatus == task.TimerRunning {
			return true
		}
	}
	return false
}
