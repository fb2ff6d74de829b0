package store

import (
	"testing"
	"time"

	"taskpulse/pkg/clock"
	"taskpulse/pkg/task"
)

var t0 = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func newTestStore() (*Store, *clock.Fake) {
	fake := clock.NewFake(t0)
	return New(fake), fake
}

func drain(ch chan Change) []Change {
	var out []Change
	for {
		select {
		case c := <-ch:
			out = append(out, c)
		default:
			return out
		}
	}
}

func TestCreateAssignsPlaceholderAtHead(t *testing.T) {
	s, _ := newTestStore()
	first := s.Create(task.Task{Title: "first"})
	second := s.Create(task.Task{Title: "second"})

	if !first.IsPlaceholder() || !second.IsPlaceholder() {
		t.Fatalf("new tasks must carry placeholder ids, got %q and %q", first.ID, second.ID)
	}
	list := s.List()
	if len(list) != 2 || list[0].Title != "second" || list[1].Title != "first" {
		t.Fatalf("most recent task should lead the view, got %+v", list)
	}
	if first.CreatedAt != t0 {
		t.Fatalf("created_at should come from the injected clock, got %s", first.CreatedAt)
	}
}

func TestCreateWithoutDurationHasNoTimerFields(t *testing.T) {
	s, _ := newTestStore()
	created := s.Create(task.Task{Title: "plain", TimerStatus: task.TimerRunning})
	if created.TimerStatus != "" || created.TimerStartedAt != nil || created.TimerDuration != 0 {
		t.Fatalf("timer fields are all-or-nothing with the duration: %+v", created)
	}

	timed := s.Create(task.Task{Title: "timed", TimerDuration: 25})
	if timed.TimerStatus != task.TimerNotStarted {
		t.Fatalf("a supplied duration starts at not_started, got %s", timed.TimerStatus)
	}
}

func TestStartTimerFromNotStarted(t *testing.T) {
	s, fake := newTestStore()
	created := s.Create(task.Task{Title: "x", TimerDuration: 10})
	fake.Advance(30 * time.Second)

	got, err := s.StartTimer(created.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.TimerStatus != task.TimerRunning {
		t.Fatalf("status = %s, want running", got.TimerStatus)
	}
	if got.TimerStartedAt == nil || !got.TimerStartedAt.Equal(t0.Add(30*time.Second)) {
		t.Fatalf("start stamp should be the clock's now, got %v", got.TimerStartedAt)
	}
}

func TestStartTimerOnRunningIsNoop(t *testing.T) {
	s, fake := newTestStore()
	created := s.Create(task.Task{Title: "x", TimerDuration: 10})
	started, _ := s.StartTimer(created.ID)

	fake.Advance(time.Minute)
	again, err := s.StartTimer(created.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !again.TimerStartedAt.Equal(*started.TimerStartedAt) {
		t.Fatal("a duplicate start must not re-stamp a running timer")
	}
}

func TestPauseNotStartedIsNoop(t *testing.T) {
	s, _ := newTestStore()
	created := s.Create(task.Task{Title: "x", TimerDuration: 10})

	got, err := s.PauseTimer(created.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.TimerStatus != task.TimerNotStarted {
		t.Fatalf("pause on not_started must be a no-op, got %s", got.TimerStatus)
	}
}

func TestResumeRestartsFullWindow(t *testing.T) {
	s, fake := newTestStore()
	created := s.Create(task.Task{Title: "x", TimerDuration: 10})
	s.StartTimer(created.ID)

	fake.Advance(3 * time.Minute)
	s.PauseTimer(created.ID)

	fake.Advance(time.Minute)
	resumed, _ := s.StartTimer(created.ID)
	if !resumed.TimerStartedAt.Equal(fake.Now()) {
		t.Fatal("resume must re-stamp the start time to now")
	}

	// 9 minutes after resume: within the restarted 10-minute window even
	// though 3 minutes were already spent before the pause.
	fake.Advance(9 * time.Minute)
	s.ExpireTimer(created.ID, fake.Now())
	if got, _ := s.Get(created.ID); got.TimerStatus != task.TimerRunning {
		t.Fatalf("the window restarts on resume, got %s", got.TimerStatus)
	}

	fake.Advance(time.Minute)
	s.ExpireTimer(created.ID, fake.Now())
	got, _ := s.Get(created.ID)
	if got.TimerStatus != task.TimerFailed || got.Completed {
		t.Fatalf("10 minutes after resume the timer fails, got %+v", got)
	}
}

func TestStopFromPausedIsTerminal(t *testing.T) {
	s, fake := newTestStore()
	created := s.Create(task.Task{Title: "x", TimerDuration: 10})
	s.StartTimer(created.ID)
	s.PauseTimer(created.ID)

	stopped, _ := s.StopTimer(created.ID)
	if stopped.TimerStatus != task.TimerCompleted || !stopped.Completed {
		t.Fatalf("stop marks the timer completed and the task done, got %+v", stopped)
	}

	fake.Advance(time.Minute)
	after, _ := s.StartTimer(created.ID)
	if after.TimerStatus != task.TimerCompleted {
		t.Fatalf("completed is terminal, start must be a no-op, got %s", after.TimerStatus)
	}
}

func TestToggleCompleteLeavesTimerAlone(t *testing.T) {
	s, _ := newTestStore()
	created := s.Create(task.Task{Title: "x", TimerDuration: 10})
	started, _ := s.StartTimer(created.ID)

	toggled, err := s.ToggleComplete(created.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !toggled.Completed {
		t.Fatal("toggle should flip completed")
	}
	if toggled.TimerStatus != task.TimerRunning || !toggled.TimerStartedAt.Equal(*started.TimerStartedAt) {
		t.Fatalf("completion and the timer are independent axes, got %+v", toggled)
	}
}

func TestUpdateEditableFields(t *testing.T) {
	s, _ := newTestStore()
	created := s.Create(task.Task{Title: "old", TimerDuration: 10})
	s.StartTimer(created.ID)

	got, err := s.Update(created.ID, task.Task{
		Title:         "new",
		Category:      "work",
		Priority:      task.PriorityHigh,
		TimerDuration: 10,
	})
	if err != nil {
		t.Fatal(err)
	}
	if got.Title != "new" || got.Category != "work" || got.Priority != task.PriorityHigh {
		t.Fatalf("editable fields not applied: %+v", got)
	}
	if got.TimerStatus != task.TimerRunning {
		t.Fatal("an edit keeping the duration must not reset the running timer")
	}

	reset, _ := s.Update(created.ID, task.Task{Title: "new", TimerDuration: 5})
	if reset.TimerStatus != task.TimerNotStarted || reset.TimerStartedAt != nil {
		t.Fatalf("changing the duration resets the timer, got %+v", reset)
	}
}

func TestUpdatePlaceholderAnnouncesCreate(t *testing.T) {
	s, _ := newTestStore()
	created := s.Create(task.Task{Title: "draft"})
	ch := s.Subscribe()
	defer s.Unsubscribe(ch)

	if _, err := s.Update(created.ID, task.Task{Title: "final"}); err != nil {
		t.Fatal(err)
	}
	changes := drain(ch)
	if len(changes) != 1 || changes[0].Op != OpCreate || changes[0].Task.Title != "final" {
		t.Fatalf("editing an unsaved task becomes its creation, got %+v", changes)
	}
}

func TestDeleteIsImmediate(t *testing.T) {
	s, _ := newTestStore()
	created := s.Create(task.Task{Title: "x"})
	if err := s.Delete(created.ID); err != nil {
		t.Fatal(err)
	}
	if s.Len() != 0 {
		t.Fatal("delete must remove locally without waiting for the remote")
	}
	if err := s.Delete(created.ID); err != ErrNotFound {
		t.Fatalf("second delete should report ErrNotFound, got %v", err)
	}
}

func TestResolveIDKeepsOneTask(t *testing.T) {
	s, _ := newTestStore()
	created := s.Create(task.Task{Title: "X"})
	s.Create(task.Task{Title: "other"})

	stored := created
	stored.ID = "42"
	stored.CreatedAt = t0.Add(time.Second)
	stored.UserID = "u1"
	s.ResolveID(created.ID, stored)

	if _, ok := s.Get(created.ID); ok {
		t.Fatal("placeholder id must be gone after resolution")
	}
	got, ok := s.Get("42")
	if !ok || got.Title != "X" || got.UserID != "u1" {
		t.Fatalf("task should now live under the remote id, got %+v ok=%v", got, ok)
	}
	list := s.List()
	if len(list) != 2 || list[1].ID != "42" {
		t.Fatalf("resolution must keep the view position, got %+v", list)
	}
}

func TestResolveIDKeepsLocalTimerState(t *testing.T) {
	s, _ := newTestStore()
	created := s.Create(task.Task{Title: "X", TimerDuration: 10})
	s.StartTimer(created.ID)

	stored := created
	stored.ID = "42"
	s.ResolveID(created.ID, stored)

	got, _ := s.Get("42")
	if got.TimerStatus != task.TimerRunning {
		t.Fatalf("a timer started while the insert was in flight must survive, got %s", got.TimerStatus)
	}
}

func TestResolveIDReportsDeletedPlaceholder(t *testing.T) {
	s, _ := newTestStore()
	created := s.Create(task.Task{Title: "X"})
	if err := s.Delete(created.ID); err != nil {
		t.Fatal(err)
	}

	stored := created
	stored.ID = "42"
	if _, ok := s.ResolveID(created.ID, stored); ok {
		t.Fatal("resolving a deleted placeholder must report ok=false")
	}
	if s.Len() != 0 {
		t.Fatal("resolution must not resurrect a deleted task")
	}
}

func TestApplyRemoteLastWriteWins(t *testing.T) {
	s, _ := newTestStore()
	s.SeedRemote([]task.Task{{ID: "1", Title: "local", Completed: false}})

	s.ApplyRemote(task.Task{ID: "1", Title: "remote", Completed: true})
	got, _ := s.Get("1")
	if got.Title != "remote" || !got.Completed {
		t.Fatalf("remote record must fully replace the local one, got %+v", got)
	}

	s.ApplyRemote(task.Task{ID: "2", Title: "new"})
	if list := s.List(); len(list) != 2 || list[0].ID != "2" {
		t.Fatalf("unknown remote ids insert at the head, got %+v", list)
	}
}

func TestRemoveRemoteUnknownIsIgnored(t *testing.T) {
	s, _ := newTestStore()
	s.SeedRemote([]task.Task{{ID: "1", Title: "a"}})
	s.RemoveRemote("nope")
	if s.Len() != 1 {
		t.Fatal("removing an unknown id must be a silent no-op")
	}
	s.RemoveRemote("1")
	if s.Len() != 0 {
		t.Fatal("known id should be removed")
	}
}

func TestClearEmptiesStore(t *testing.T) {
	s, _ := newTestStore()
	s.Create(task.Task{Title: "a"})
	s.Create(task.Task{Title: "b"})
	s.Clear()
	if s.Len() != 0 {
		t.Fatal("no data may survive a session boundary")
	}
}

func TestTimerCommandsOnUnknownID(t *testing.T) {
	s, _ := newTestStore()
	if _, err := s.StartTimer("nope"); err != ErrNotFound {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
	if _, err := s.PauseTimer("nope"); err != ErrNotFound {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
	if _, err := s.StopTimer("nope"); err != ErrNotFound {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}
