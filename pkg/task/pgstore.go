package task

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// channel name for the task change feed.
const notifyChannel = "task_changes"

// PgStore is a PostgreSQL-backed task table.
type PgStore struct {
	pool *pgxpool.Pool
}

// NewPgStore creates a PgStore.
func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

// EnsureTable creates the tasks table and its change-feed trigger if they
// don't exist.
func (s *PgStore) EnsureTable(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS tasks (
			id               TEXT PRIMARY KEY,
			title            TEXT NOT NULL,
			description      TEXT NOT NULL DEFAULT '',
			category         TEXT NOT NULL DEFAULT '',
			priority         TEXT NOT NULL DEFAULT 'medium',
			due_date         TIMESTAMPTZ,
			completed        BOOLEAN NOT NULL DEFAULT FALSE,
			timer_duration   INTEGER NOT NULL DEFAULT 0,
			timer_started_at TIMESTAMPTZ,
			timer_status     TEXT NOT NULL DEFAULT '',
			created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			user_id          TEXT NOT NULL DEFAULT ''
		)`)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `CREATE INDEX IF NOT EXISTS idx_tasks_user_created ON tasks(user_id, created_at DESC)`)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `CREATE INDEX IF NOT EXISTS idx_tasks_timer_status ON tasks(timer_status) WHERE timer_status = 'running'`)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `
		CREATE OR REPLACE FUNCTION notify_task_change() RETURNS trigger AS $$
		DECLARE payload JSON;
		BEGIN
			IF TG_OP = 'DELETE' THEN
				payload = json_build_object('op', 'delete', 'task', row_to_json(OLD));
			ELSE
				payload = json_build_object('op', lower(TG_OP), 'task', row_to_json(NEW));
			END IF;
			PERFORM pg_notify('`+notifyChannel+`', payload::text);
			RETURN NULL;
		END;
		$$ LANGUAGE plpgsql`)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `
		DO $$ BEGIN
			IF NOT EXISTS (SELECT 1 FROM pg_trigger WHERE tgname = 'tasks_notify') THEN
				CREATE TRIGGER tasks_notify
					AFTER INSERT OR UPDATE OR DELETE ON tasks
					FOR EACH ROW EXECUTE FUNCTION notify_task_change();
			END IF;
		END $$`)
	return err
}

// Insert stores a new task, assigning a permanent id regardless of any
// local placeholder the caller passed in.
func (s *PgStore) Insert(ctx context.Context, t Task) (Task, error) {
	t.ID = uuid.Must(uuid.NewV7()).String()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().Truncate(time.Microsecond)
	}
	if t.Priority == "" {
		t.Priority = PriorityMedium
	}
	if t.TimerDuration > 0 && t.TimerStatus == "" {
		t.TimerStatus = TimerNotStarted
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO tasks (id, title, description, category, priority, due_date, completed, timer_duration, timer_started_at, timer_status, created_at, user_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		t.ID, t.Title, t.Description, t.Category, t.Priority, t.DueDate, t.Completed, t.TimerDuration, t.TimerStartedAt, t.TimerStatus, t.CreatedAt, t.UserID)
	if err != nil {
		return Task{}, fmt.Errorf("insert task: %w", err)
	}
	return t, nil
}

// Update overwrites the stored row with t. Updating a row that no longer
// exists is not an error: the write is simply lost, which is the intended
// handling of an update arriving after a delete.
func (s *PgStore) Update(ctx context.Context, t Task) (Task, error) {
	_, err := s.pool.Exec(ctx, `
		UPDATE tasks
		SET title = $2, description = $3, category = $4, priority = $5, due_date = $6,
		    completed = $7, timer_duration = $8, timer_started_at = $9, timer_status = $10
		WHERE id = $1`,
		t.ID, t.Title, t.Description, t.Category, t.Priority, t.DueDate,
		t.Completed, t.TimerDuration, t.TimerStartedAt, t.TimerStatus)
	if err != nil {
		return Task{}, fmt.Errorf("update task %s: %w", t.ID, err)
	}
	return t, nil
}

// Delete removes a task row. Deleting an absent row is not an error.
func (s *PgStore) Delete(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete task %s: %w", id, err)
	}
	return nil
}

// SelectAll returns every task for a user, newest first.
func (s *PgStore) SelectAll(ctx context.Context, userID string) ([]Task, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, title, description, category, priority, due_date, completed, timer_duration, timer_started_at, timer_status, created_at, user_id
		FROM tasks WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("select tasks: %w", err)
	}
	defer rows.Close()

	var tasks []Task
	for rows.Next() {
		var t Task
		if err := rows.Scan(&t.ID, &t.Title, &t.Description, &t.Category, &t.Priority, &t.DueDate, &t.Completed, &t.TimerDuration, &t.TimerStartedAt, &t.TimerStatus, &t.CreatedAt, &t.UserID); err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration: %w", err)
	}
	return tasks, nil
}

// Listen opens a LISTEN connection on the task change channel and streams
// notifications until ctx is cancelled. The channel is closed on exit.
func (s *PgStore) Listen(ctx context.Context) (<-chan Notification, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire listen conn: %w", err)
	}
	if _, err := conn.Exec(ctx, `LISTEN `+notifyChannel); err != nil {
		conn.Release()
		return nil, fmt.Errorf("listen %s: %w", notifyChannel, err)
	}

	ch := make(chan Notification, 64)
	go func() {
		defer close(ch)
		defer conn.Release()
		for {
			n, err := conn.Conn().WaitForNotification(ctx)
			if err != nil {
				return // ctx cancelled or connection lost
			}
			var note Notification
			if err := json.Unmarshal([]byte(n.Payload), &note); err != nil {
				log.Printf("task: bad change payload: %v", err)
				continue
			}
			select {
			case ch <- note:
			default:
				// consumer is behind; drop, the next full reload reconciles
			}
		}
	}()
	return ch, nil
}
