package category

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgStore is a PostgreSQL-backed category store.
type PgStore struct {
	pool *pgxpool.Pool
}

// NewPgStore creates a PgStore.
func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

// EnsureTable creates the categories table if it doesn't exist.
func (s *PgStore) EnsureTable(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS categories (
			id         TEXT PRIMARY KEY,
			name       TEXT NOT NULL,
			color      TEXT NOT NULL DEFAULT '',
			user_id    TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `CREATE INDEX IF NOT EXISTS idx_categories_user ON categories(user_id, created_at ASC)`)
	return err
}

// List returns a user's categories, oldest first.
func (s *PgStore) List(ctx context.Context, userID string) ([]Category, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, color, user_id, created_at
		FROM categories WHERE user_id = $1 ORDER BY created_at ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var cats []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Color, &c.UserID, &c.CreatedAt); err != nil {
			return nil, err
		}
		cats = append(cats, c)
	}
	return cats, rows.Err()
}

// Create inserts a new category.
func (s *PgStore) Create(ctx context.Context, c Category) (Category, error) {
	c.ID = uuid.Must(uuid.NewV7()).String()
	c.CreatedAt = time.Now().Truncate(time.Microsecond)
	_, err := s.pool.Exec(ctx, `
		INSERT INTO categories (id, name, color, user_id, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		c.ID, c.Name, c.Color, c.UserID, c.CreatedAt)
	if err != nil {
		return Category{}, fmt.Errorf("create category %q: %w", c.Name, err)
	}
	return c, nil
}

// Delete removes a category.
func (s *PgStore) Delete(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete category %s: %w", id, err)
	}
	return nil
}
