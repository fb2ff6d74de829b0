// Package timer evaluates a task's countdown against a point in time.
// It is pure: no I/O, no persistence awareness, second-level granularity.
package timer

import (
	"fmt"
	"time"

	"taskpulse/pkg/task"
)

// Evaluate applies the expiry rule to one task at the given instant and
// returns the resulting task. Tasks without a running timer come back
// unchanged, which also makes expiry idempotent: once failed, the running
// guard stops further evaluation.
func Evaluate(t task.Task, now time.Time) task.Task {
	if t.TimerStatus != task.TimerRunning || t.TimerStartedAt == nil || t.TimerDuration <= 0 {
		return t
	}
	elapsedMinutes := int(now.Sub(*t.TimerStartedAt) / time.Minute)
	if elapsedMinutes >= t.TimerDuration {
		t.TimerStatus = task.TimerFailed
		t.Completed = false
	}
	return t
}

// Remaining returns the seconds until expiry, clamped at zero. A timer that
// was never started reports the full window; terminal timers report zero.
// A paused timer keeps counting down from its unchanged start stamp, which
// matches the resume-restarts-window policy of the store.
func Remaining(t task.Task, now time.Time) int {
	switch {
	case !t.HasTimer():
		return 0
	case t.TimerTerminal():
		return 0
	case t.TimerStartedAt == nil || t.TimerStatus == task.TimerNotStarted:
		return t.TimerDuration * 60
	}
	remaining := t.TimerDuration*60 - Elapsed(t, now)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Elapsed returns whole seconds since the timer was started, or zero if it
// never was.
func Elapsed(t task.Task, now time.Time) int {
	if t.TimerStartedAt == nil {
		return 0
	}
	s := int(now.Sub(*t.TimerStartedAt) / time.Second)
	if s < 0 {
		return 0
	}
	return s
}

// FormatSeconds renders a second count as "4m05s" or "1h02m03s".
func FormatSeconds(total int) string {
	if total < 0 {
		total = 0
	}
	hours := total / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60
	if hours > 0 {
		return fmt.Sprintf("%dh%02dm%02ds", hours, minutes, seconds)
	}
	return fmt.Sprintf("%dm%02ds", minutes, seconds)
}
