package sched

import (
	"context"
	"testing"
	"time"

	"taskpulse/pkg/clock"
	"taskpulse/pkg/store"
	"taskpulse/pkg/task"
)

func TestTickExpiresAtTheBoundary(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	fake := clock.NewFake(t0)
	st := store.New(fake)
	s := New(st, fake)

	created := st.Create(task.Task{Title: "sprint", TimerDuration: 5})
	st.StartTimer(created.ID)

	s.Tick(t0.Add(299 * time.Second))
	if got, _ := st.Get(created.ID); got.TimerStatus != task.TimerRunning {
		t.Fatalf("at 299s a 5-minute timer is still running, got %s", got.TimerStatus)
	}

	s.Tick(t0.Add(300 * time.Second))
	got, _ := st.Get(created.ID)
	if got.TimerStatus != task.TimerFailed {
		t.Fatalf("at 300s the timer fails, got %s", got.TimerStatus)
	}
	if got.Completed {
		t.Fatal("autonomous expiry must force completed=false")
	}
}

func TestTickIgnoresNonRunningTimers(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	fake := clock.NewFake(t0)
	st := store.New(fake)
	s := New(st, fake)

	idle := st.Create(task.Task{Title: "idle", TimerDuration: 1})
	paused := st.Create(task.Task{Title: "paused", TimerDuration: 1})
	st.StartTimer(paused.ID)
	st.PauseTimer(paused.ID)

	s.Tick(t0.Add(time.Hour))

	if got, _ := st.Get(idle.ID); got.TimerStatus != task.TimerNotStarted {
		t.Fatalf("not_started must never expire, got %s", got.TimerStatus)
	}
	if got, _ := st.Get(paused.ID); got.TimerStatus != task.TimerPaused {
		t.Fatalf("paused must never expire, got %s", got.TimerStatus)
	}
}

func TestTickExpiresIndependently(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	fake := clock.NewFake(t0)
	st := store.New(fake)
	s := New(st, fake)

	short := st.Create(task.Task{Title: "short", TimerDuration: 1})
	long := st.Create(task.Task{Title: "long", TimerDuration: 60})
	st.StartTimer(short.ID)
	st.StartTimer(long.ID)

	s.Tick(t0.Add(90 * time.Second))

	if got, _ := st.Get(short.ID); got.TimerStatus != task.TimerFailed {
		t.Fatalf("short timer should have failed, got %s", got.TimerStatus)
	}
	if got, _ := st.Get(long.ID); got.TimerStatus != task.TimerRunning {
		t.Fatalf("long timer should still be running, got %s", got.TimerStatus)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	fake := clock.NewFake(time.Now())
	st := store.New(fake)
	s := New(st, fake)
	s.interval = time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run must return when its context is cancelled")
	}
}
