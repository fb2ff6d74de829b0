package blocked

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgStore is a PostgreSQL-backed blocked-resource store.
type PgStore struct {
	pool *pgxpool.Pool
}

// NewPgStore creates a PgStore.
func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

// EnsureTable creates the blocked_resources table if it doesn't exist.
func (s *PgStore) EnsureTable(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS blocked_resources (
			id         TEXT PRIMARY KEY,
			url        TEXT NOT NULL,
			name       TEXT NOT NULL,
			type       TEXT NOT NULL DEFAULT 'website',
			user_id    TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `CREATE INDEX IF NOT EXISTS idx_blocked_user ON blocked_resources(user_id, created_at ASC)`)
	return err
}

// List returns a user's blocked resources, oldest first.
func (s *PgStore) List(ctx context.Context, userID string) ([]Resource, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, url, name, type, user_id, created_at
		FROM blocked_resources WHERE user_id = $1 ORDER BY created_at ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list blocked resources: %w", err)
	}
	defer rows.Close()

	var resources []Resource
	for rows.Next() {
		var r Resource
		if err := rows.Scan(&r.ID, &r.URL, &r.Name, &r.Type, &r.UserID, &r.CreatedAt); err != nil {
			return nil, err
		}
		resources = append(resources, r)
	}
	return resources, rows.Err()
}

// Add inserts a new blocked resource.
func (s *PgStore) Add(ctx context.Context, r Resource) (Resource, error) {
	r.ID = uuid.Must(uuid.NewV7()).String()
	r.CreatedAt = time.Now().Truncate(time.Microsecond)
	if r.Type == "" {
		r.Type = "website"
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO blocked_resources (id, url, name, type, user_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		r.ID, r.URL, r.Name, r.Type, r.UserID, r.CreatedAt)
	if err != nil {
		return Resource{}, fmt.Errorf("add blocked resource %q: %w", r.Name, err)
	}
	return r, nil
}

// Remove deletes a blocked resource.
func (s *PgStore) Remove(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM blocked_resources WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("remove blocked resource %s: %w", id, err)
	}
	return nil
}
