package category

import (
	"context"
	"time"
)

// Category is a user-defined task grouping.
type Category struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Color     string    `json:"color"`
	UserID    string    `json:"user_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Store is the contract for category persistence.
type Store interface {
	// List returns a user's categories, oldest first.
	List(ctx context.Context, userID string) ([]Category, error)
	Create(ctx context.Context, c Category) (Category, error)
	Delete(ctx context.Context, id string) error
	EnsureTable(ctx context.Context) error
}
