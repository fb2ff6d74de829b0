package timer

import (
	"testing"
	"time"

	"pgregory.net/rapid"

	"taskpulse/pkg/task"
)

func genRunningTask(t *rapid.T) task.Task {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	startOffset := rapid.IntRange(0, 365*24*3600).Draw(t, "startOffsetSec")
	started := base.Add(time.Duration(startOffset) * time.Second)
	return task.Task{
		ID:             "prop",
		TimerDuration:  rapid.IntRange(1, 24*60).Draw(t, "durationMin"),
		TimerStartedAt: &started,
		TimerStatus:    task.TimerRunning,
	}
}

// A running timer never fails strictly before its duration has elapsed,
// and always fails once it has.
func TestPropertyExpiryBoundary(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		tk := genRunningTask(t)
		deadline := tk.TimerStartedAt.Add(time.Duration(tk.TimerDuration) * time.Minute)

		before := rapid.Int64Range(1, int64(time.Duration(tk.TimerDuration)*time.Minute)).Draw(t, "beforeNs")
		early := Evaluate(tk, deadline.Add(-time.Duration(before)))
		if early.TimerStatus != task.TimerRunning {
			t.Fatalf("failed %s early", time.Duration(before))
		}

		after := rapid.Int64Range(0, int64(24*time.Hour)).Draw(t, "afterNs")
		late := Evaluate(tk, deadline.Add(time.Duration(after)))
		if late.TimerStatus != task.TimerFailed {
			t.Fatalf("still %s at deadline+%s", late.TimerStatus, time.Duration(after))
		}
		if late.Completed {
			t.Fatal("failed timer left completed=true")
		}
	})
}

// Evaluating twice with non-decreasing now is the same as evaluating once.
func TestPropertyEvaluateIdempotent(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		tk := genRunningTask(t)
		d1 := rapid.Int64Range(0, int64(48*time.Hour)).Draw(t, "firstNs")
		d2 := rapid.Int64Range(d1, int64(72*time.Hour)).Draw(t, "secondNs")
		now1 := tk.TimerStartedAt.Add(time.Duration(d1))
		now2 := tk.TimerStartedAt.Add(time.Duration(d2))

		once := Evaluate(tk, now2)
		twice := Evaluate(Evaluate(tk, now1), now2)
		if once != twice {
			t.Fatalf("evaluate not idempotent: %+v != %+v", once, twice)
		}
	})
}

// Remaining and Elapsed partition the window for a running timer and
// Remaining never goes negative.
func TestPropertyRemainingElapsed(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		tk := genRunningTask(t)
		offset := rapid.IntRange(0, tk.TimerDuration*60*2).Draw(t, "offsetSec")
		now := tk.TimerStartedAt.Add(time.Duration(offset) * time.Second)

		rem := Remaining(tk, now)
		if rem < 0 {
			t.Fatalf("negative remaining %d", rem)
		}
		window := tk.TimerDuration * 60
		if offset <= window && rem != window-offset {
			t.Fatalf("remaining = %d, want %d", rem, window-offset)
		}
		if offset > window && rem != 0 {
			t.Fatalf("past the window remaining must be 0, got %d", rem)
		}
		if got := Elapsed(tk, now); got != offset {
			t.Fatalf("elapsed = %d, want %d", got, offset)
		}
	})
}
