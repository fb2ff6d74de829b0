// Package store holds the authoritative in-memory task collection. Every
// mutation — user command, scheduler expiry, remote merge — goes through a
// Store method, so observers always see whole updates. Local commands apply
// synchronously; pushing them to the remote table is the gateway's job,
// driven by the change feed this package emits.
package store

import (
	"errors"
	"sync"
	"time"

	"taskpulse/pkg/clock"
	"taskpulse/pkg/task"
	"taskpulse/pkg/timer"
)

// ErrNotFound is returned by commands addressing an unknown task id.
var ErrNotFound = errors.New("task not found")

// Op classifies a Change.
type Op string

const (
	OpCreate Op = "create"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
	OpSeed   Op = "seed"
	OpClear  Op = "clear"
)

// Origin tells whether a Change came from a local command or a remote merge.
// The gateway only pushes local-origin changes, so remote merges never echo
// back to the table they came from.
type Origin string

const (
	OriginLocal  Origin = "local"
	OriginRemote Origin = "remote"
)

// Change is one observed store mutation.
type Change struct {
	Op     Op        `json:"op"`
	Origin Origin    `json:"origin"`
	Task   task.Task `json:"task,omitzero"`
	PrevID string    `json:"prev_id,omitempty"` // set when a placeholder id was resolved
}

// Store is the authoritative in-memory task collection.
type Store struct {
	clock clock.Clock

	mu    sync.Mutex
	tasks map[string]*task.Task
	order []string // display order, most recent first

	subsMu sync.RWMutex
	subs   map[chan Change]struct{}
}

// New creates an empty Store.
func New(c clock.Clock) *Store {
	return &Store{
		clock: c,
		tasks: make(map[string]*task.Task),
		subs:  make(map[chan Change]struct{}),
	}
}

// Subscribe returns a buffered channel that receives all store changes.
func (s *Store) Subscribe() chan Change {
	ch := make(chan Change, 64)
	s.subsMu.Lock()
	s.subs[ch] = struct{}{}
	s.subsMu.Unlock()
	return ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (s *Store) Unsubscribe(ch chan Change) {
	s.subsMu.Lock()
	delete(s.subs, ch)
	s.subsMu.Unlock()
	close(ch)
}

func (s *Store) notify(c Change) {
	s.subsMu.RLock()
	for ch := range s.subs {
		select {
		case ch <- c:
		default:
			// subscriber is behind; drop to avoid blocking the command path
		}
	}
	s.subsMu.RUnlock()
}

// Get returns a snapshot of one task.
func (s *Store) Get(id string) (task.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return task.Task{}, false
	}
	return *t, true
}

// List returns snapshots of all tasks in display order.
func (s *Store) List() []task.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]task.Task, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.tasks[id])
	}
	return out
}

// Running returns snapshots of tasks whose timer is currently running.
func (s *Store) Running() []task.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []task.Task
	for _, id := range s.order {
		if s.tasks[id].TimerStatus == task.TimerRunning {
			out = append(out, *s.tasks[id])
		}
	}
	return out
}

// Len returns the number of tasks.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

// Create inserts a new task under a placeholder id at the head of the view.
// The gateway replaces the placeholder once the remote insert resolves.
func (s *Store) Create(p task.Task) task.Task {
	t := p
	t.ID = task.NewPlaceholderID()
	t.CreatedAt = s.clock.Now()
	if t.Priority == "" {
		t.Priority = task.PriorityMedium
	}
	t.TimerStartedAt = nil
	if t.TimerDuration > 0 {
		t.TimerStatus = task.TimerNotStarted
	} else {
		t.TimerDuration = 0
		t.TimerStatus = ""
	}

	s.mu.Lock()
	s.tasks[t.ID] = &t
	s.order = append([]string{t.ID}, s.order...)
	cp := t
	s.mu.Unlock()

	s.notify(Change{Op: OpCreate, Origin: OriginLocal, Task: cp})
	return cp
}

// Update overwrites a task's editable fields. Changing the duration resets
// the timer; leaving it alone leaves the timer alone. An update addressed to
// a placeholder id is announced as a create: the edit of an unsaved task
// becomes its creation.
func (s *Store) Update(id string, patch task.Task) (task.Task, error) {
	s.mu.Lock()
	t, ok := s.tasks[id]
	if !ok {
		s.mu.Unlock()
		return task.Task{}, ErrNotFound
	}
	t.Title = patch.Title
	t.Description = patch.Description
	t.Category = patch.Category
	t.DueDate = patch.DueDate
	if patch.Priority != "" {
		t.Priority = patch.Priority
	}
	if patch.TimerDuration != t.TimerDuration {
		t.TimerDuration = patch.TimerDuration
		t.TimerStartedAt = nil
		if t.TimerDuration > 0 {
			t.TimerStatus = task.TimerNotStarted
		} else {
			t.TimerDuration = 0
			t.TimerStatus = ""
		}
	}
	cp := *t
	s.mu.Unlock()

	op := OpUpdate
	if cp.IsPlaceholder() {
		op = OpCreate
	}
	s.notify(Change{Op: op, Origin: OriginLocal, Task: cp})
	return cp, nil
}

// ToggleComplete flips the completed flag. Timer fields are deliberately
// untouched: completion and the timer are independent axes.
func (s *Store) ToggleComplete(id string) (task.Task, error) {
	s.mu.Lock()
	t, ok := s.tasks[id]
	if !ok {
		s.mu.Unlock()
		return task.Task{}, ErrNotFound
	}
	t.Completed = !t.Completed
	cp := *t
	s.mu.Unlock()

	s.notify(Change{Op: OpUpdate, Origin: OriginLocal, Task: cp})
	return cp, nil
}

// Delete removes a task immediately; remote confirmation is not awaited.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	t, ok := s.tasks[id]
	if !ok {
		s.mu.Unlock()
		return ErrNotFound
	}
	cp := *t
	delete(s.tasks, id)
	s.removeFromOrder(id)
	s.mu.Unlock()

	s.notify(Change{Op: OpDelete, Origin: OriginLocal, Task: cp})
	return nil
}

// StartTimer starts or resumes the countdown. Legal only from not_started or
// paused; anything else is a silent no-op so duplicate UI events are harmless.
// Resuming re-stamps the start time: the full window restarts, previously
// elapsed time is not banked.
func (s *Store) StartTimer(id string) (task.Task, error) {
	s.mu.Lock()
	t, ok := s.tasks[id]
	if !ok {
		s.mu.Unlock()
		return task.Task{}, ErrNotFound
	}
	if !t.HasTimer() || (t.TimerStatus != task.TimerNotStarted && t.TimerStatus != task.TimerPaused) {
		cp := *t
		s.mu.Unlock()
		return cp, nil
	}
	now := s.clock.Now()
	t.TimerStartedAt = &now
	t.TimerStatus = task.TimerRunning
	cp := *t
	s.mu.Unlock()

	s.notify(Change{Op: OpUpdate, Origin: OriginLocal, Task: cp})
	return cp, nil
}

// PauseTimer pauses a running countdown. The start stamp is left in place.
func (s *Store) PauseTimer(id string) (task.Task, error) {
	s.mu.Lock()
	t, ok := s.tasks[id]
	if !ok {
		s.mu.Unlock()
		return task.Task{}, ErrNotFound
	}
	if t.TimerStatus != task.TimerRunning {
		cp := *t
		s.mu.Unlock()
		return cp, nil
	}
	t.TimerStatus = task.TimerPaused
	cp := *t
	s.mu.Unlock()

	s.notify(Change{Op: OpUpdate, Origin: OriginLocal, Task: cp})
	return cp, nil
}

// StopTimer ends the countdown successfully, marking the task completed.
// Legal from running or paused; terminal statuses are silent no-ops.
func (s *Store) StopTimer(id string) (task.Task, error) {
	s.mu.Lock()
	t, ok := s.tasks[id]
	if !ok {
		s.mu.Unlock()
		return task.Task{}, ErrNotFound
	}
	if t.TimerStatus != task.TimerRunning && t.TimerStatus != task.TimerPaused {
		cp := *t
		s.mu.Unlock()
		return cp, nil
	}
	t.TimerStatus = task.TimerCompleted
	t.Completed = true
	cp := *t
	s.mu.Unlock()

	s.notify(Change{Op: OpUpdate, Origin: OriginLocal, Task: cp})
	return cp, nil
}

// ExpireTimer re-evaluates one task's countdown at now and applies the failed
// transition if it has elapsed. The scheduler calls this every tick; the
// re-evaluation under the lock makes ticks racing user commands safe.
func (s *Store) ExpireTimer(id string, now time.Time) {
	s.mu.Lock()
	t, ok := s.tasks[id]
	if !ok {
		s.mu.Unlock()
		return
	}
	evaluated := timer.Evaluate(*t, now)
	if evaluated.TimerStatus == t.TimerStatus {
		s.mu.Unlock()
		return
	}
	*t = evaluated
	cp := *t
	s.mu.Unlock()

	s.notify(Change{Op: OpUpdate, Origin: OriginLocal, Task: cp})
}

// SeedRemote replaces the whole collection with rows loaded from the remote
// table, preserving their order.
func (s *Store) SeedRemote(tasks []task.Task) {
	s.mu.Lock()
	s.tasks = make(map[string]*task.Task, len(tasks))
	s.order = make([]string, 0, len(tasks))
	for i := range tasks {
		t := tasks[i]
		s.tasks[t.ID] = &t
		s.order = append(s.order, t.ID)
	}
	s.mu.Unlock()

	s.notify(Change{Op: OpSeed, Origin: OriginRemote})
}

// ApplyRemote merges one remote record: last write wins, the record fully
// replaces any local task with the same id. Unknown ids are inserted at the
// head of the view.
func (s *Store) ApplyRemote(t task.Task) {
	s.mu.Lock()
	op := OpUpdate
	if _, ok := s.tasks[t.ID]; !ok {
		op = OpCreate
		s.order = append([]string{t.ID}, s.order...)
	}
	cp := t
	s.tasks[t.ID] = &cp
	snapshot := cp
	s.mu.Unlock()

	s.notify(Change{Op: op, Origin: OriginRemote, Task: snapshot})
}

// RemoveRemote drops a task deleted remotely. Unknown ids are ignored.
func (s *Store) RemoveRemote(id string) {
	s.mu.Lock()
	t, ok := s.tasks[id]
	if !ok {
		s.mu.Unlock()
		return
	}
	cp := *t
	delete(s.tasks, id)
	s.removeFromOrder(id)
	s.mu.Unlock()

	s.notify(Change{Op: OpDelete, Origin: OriginRemote, Task: cp})
}

// ResolveID re-keys a placeholder task to the permanent id the remote store
// assigned. The local task keeps its state — only the identity and the
// server-issued creation stamp are adopted — so a timer started while the
// insert was in flight survives. Returns the re-keyed snapshot; ok is false
// when the placeholder is already gone, which within a session means the
// task was deleted while the insert was in flight.
func (s *Store) ResolveID(placeholder string, stored task.Task) (task.Task, bool) {
	s.mu.Lock()
	old, ok := s.tasks[placeholder]
	if !ok {
		s.mu.Unlock()
		return task.Task{}, false
	}
	t := *old
	t.ID = stored.ID
	t.CreatedAt = stored.CreatedAt
	t.UserID = stored.UserID
	delete(s.tasks, placeholder)

	if _, dup := s.tasks[stored.ID]; dup {
		// the change feed echoed our own insert before resolution; drop the
		// placeholder slot and keep the existing entry's position
		s.removeFromOrder(placeholder)
	} else {
		for i, id := range s.order {
			if id == placeholder {
				s.order[i] = stored.ID
				break
			}
		}
	}
	s.tasks[stored.ID] = &t
	cp := t
	s.mu.Unlock()

	s.notify(Change{Op: OpUpdate, Origin: OriginRemote, Task: cp, PrevID: placeholder})
	return cp, true
}

// Clear wipes the collection. Called at session end: no stale data may
// survive a session boundary.
func (s *Store) Clear() {
	s.mu.Lock()
	s.tasks = make(map[string]*task.Task)
	s.order = nil
	s.mu.Unlock()

	s.notify(Change{Op: OpClear, Origin: OriginRemote})
}

// removeFromOrder must be called with s.mu held.
func (s *Store) removeFromOrder(id string) {
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			return
		}
	}
}
