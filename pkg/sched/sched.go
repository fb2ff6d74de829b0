// Package sched drives the periodic re-evaluation of running timers.
package sched

import (
	"context"
	"log"
	"time"

	"taskpulse/pkg/clock"
	"taskpulse/pkg/store"
)

// Interval is the tick cadence. Second-level granularity is the contract.
const Interval = time.Second

// Scheduler re-evaluates every running timer once per tick. It performs no
// I/O itself: transitions go through the store's command path, so observers
// and the gateway see scheduler expiries exactly like user commands.
type Scheduler struct {
	store    *store.Store
	clock    clock.Clock
	interval time.Duration
}

// New creates a Scheduler ticking at the default Interval.
func New(st *store.Store, c clock.Clock) *Scheduler {
	return NewWithInterval(st, c, Interval)
}

// NewWithInterval creates a Scheduler with a custom tick cadence.
// Non-positive durations fall back to Interval.
func NewWithInterval(st *store.Store, c clock.Clock, d time.Duration) *Scheduler {
	if d <= 0 {
		d = Interval
	}
	return &Scheduler{store: st, clock: c, interval: d}
}

// Run ticks until ctx is cancelled. Cancel it on session end or teardown so
// no timer outlives the session.
func (s *Scheduler) Run(ctx context.Context) {
	log.Println("sched: running")
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("sched: shutting down")
			return
		case <-ticker.C:
			s.Tick(s.clock.Now())
		}
	}
}

// Tick evaluates all running timers at the given instant. Each task is
// evaluated independently: a panic on one must not block the others.
func (s *Scheduler) Tick(now time.Time) {
	for _, t := range s.store.Running() {
		s.expire(t.ID, now)
	}
}

func (s *Scheduler) expire(id string, now time.Time) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("sched: panic evaluating task %s: %v", id, r)
		}
	}()
	s.store.ExpireTimer(id, now)
}
