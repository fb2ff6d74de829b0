// Package gateway reconciles the in-memory store with the remote task table.
// Local commands are pushed out asynchronously and optimistically: the store
// is never rolled back when the remote side fails, the failure is reported
// instead. Remote change notifications are merged back in with a
// last-write-wins rule. Session boundaries seed and clear the store; an
// epoch counter discards results of calls that outlive their session.
package gateway

import (
	"context"
	"fmt"
	"log"
	"sync"

	"taskpulse/pkg/category"
	"taskpulse/pkg/session"
	"taskpulse/pkg/store"
	"taskpulse/pkg/task"
)

// Gateway is the sync boundary between the store and the remote table.
type Gateway struct {
	store  *store.Store
	remote task.Remote
	feed   task.Feed      // optional change-notification stream, may be nil
	cats   category.Store // optional category table, may be nil

	sessionCh chan session.Event
	changeCh  chan store.Change
	errs      chan error

	mu         sync.Mutex
	epoch      int
	userID     string
	feedStop   context.CancelFunc
	categories []category.Category
	inflight   map[string]struct{} // placeholder ids with an insert in flight
}

// New creates a Gateway and subscribes it to the broker and the store.
// feed and cats may be nil when the remote side has no change stream or no
// category table.
func New(st *store.Store, remote task.Remote, broker *session.Broker, feed task.Feed, cats category.Store) *Gateway {
	return &Gateway{
		store:     st,
		remote:    remote,
		feed:      feed,
		cats:      cats,
		sessionCh: broker.Subscribe(),
		changeCh:  st.Subscribe(),
		errs:      make(chan error, 16),
		inflight:  make(map[string]struct{}),
	}
}

// Errors exposes remote failures for user-visible notification.
func (g *Gateway) Errors() <-chan error { return g.errs }

// Categories returns the categories loaded for the current session.
func (g *Gateway) Categories() []category.Category {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.categories
}

// Run processes session events and store changes until ctx is cancelled.
func (g *Gateway) Run(ctx context.Context) {
	log.Println("gateway: running")
	for {
		select {
		case <-ctx.Done():
			log.Println("gateway: shutting down")
			return
		case e := <-g.sessionCh:
			switch e.Kind {
			case session.Started:
				g.startSession(ctx, e.UserID)
			case session.Ended:
				g.endSession()
			}
		case c := <-g.changeCh:
			if c.Origin != store.OriginLocal {
				continue // never echo remote merges back to the remote
			}
			g.push(ctx, c)
		}
	}
}

func (g *Gateway) startSession(ctx context.Context, userID string) {
	g.mu.Lock()
	g.epoch++
	epoch := g.epoch
	g.userID = userID
	if g.feedStop != nil {
		g.feedStop()
		g.feedStop = nil
	}
	var feedCtx context.Context
	if g.feed != nil {
		feedCtx, g.feedStop = context.WithCancel(ctx)
	}
	g.mu.Unlock()

	log.Printf("gateway: session started for %s", userID)
	go g.load(ctx, epoch, userID)
	if g.feed != nil {
		go g.followFeed(feedCtx, epoch, userID)
	}
}

func (g *Gateway) endSession() {
	g.mu.Lock()
	g.epoch++
	g.userID = ""
	g.categories = nil
	if g.feedStop != nil {
		g.feedStop()
		g.feedStop = nil
	}
	g.mu.Unlock()

	g.store.Clear()
	log.Println("gateway: session ended, store cleared")
}

// load seeds the store from the remote table. Results arriving after the
// session changed are discarded.
func (g *Gateway) load(ctx context.Context, epoch int, userID string) {
	tasks, err := g.remote.SelectAll(ctx, userID)
	if err != nil {
		g.report(fmt.Errorf("load tasks: %w", err))
		return
	}
	if !g.current(epoch) {
		return
	}
	g.store.SeedRemote(tasks)
	log.Printf("gateway: seeded %d tasks for %s", len(tasks), userID)

	if g.cats == nil {
		return
	}
	cs, err := g.cats.List(ctx, userID)
	if err != nil {
		g.report(fmt.Errorf("load categories: %w", err))
		return
	}
	g.mu.Lock()
	if epoch == g.epoch {
		g.categories = cs
	}
	g.mu.Unlock()
}

// push issues the remote operation for one local change, asynchronously.
func (g *Gateway) push(ctx context.Context, c store.Change) {
	g.mu.Lock()
	epoch := g.epoch
	userID := g.userID
	g.mu.Unlock()

	switch c.Op {
	case store.OpCreate:
		placeholder := c.Task.ID
		g.mu.Lock()
		if _, dup := g.inflight[placeholder]; dup {
			// an edit degraded to a create while the first insert is still
			// in flight; the resolution replay below carries the edit out
			g.mu.Unlock()
			return
		}
		g.inflight[placeholder] = struct{}{}
		g.mu.Unlock()

		t := c.Task
		t.UserID = userID
		go func() {
			stored, err := g.remote.Insert(ctx, t)
			g.mu.Lock()
			delete(g.inflight, placeholder)
			g.mu.Unlock()
			if err != nil {
				g.report(fmt.Errorf("insert %q: %w", t.Title, err))
				return
			}
			if !g.current(epoch) {
				return // session changed while the insert was in flight
			}
			resolved, ok := g.store.ResolveID(placeholder, stored)
			if !ok {
				// deleted while the insert was in flight; the row we just
				// created must not resurface on the next seed
				if err := g.remote.Delete(ctx, stored.ID); err != nil {
					g.report(fmt.Errorf("delete %s: %w", stored.ID, err))
				}
				return
			}
			// replay edits and timer transitions made while the insert was
			// in flight, which the placeholder guard below skipped
			if !resolved.Equal(stored) {
				if _, err := g.remote.Update(ctx, resolved); err != nil {
					g.report(fmt.Errorf("update %s: %w", resolved.ID, err))
				}
			}
		}()
	case store.OpUpdate:
		if c.Task.IsPlaceholder() {
			return // no remote row to address until the insert resolves
		}
		t := c.Task
		go func() {
			if _, err := g.remote.Update(ctx, t); err != nil {
				g.report(fmt.Errorf("update %s: %w", t.ID, err))
			}
		}()
	case store.OpDelete:
		if c.Task.IsPlaceholder() {
			return
		}
		id := c.Task.ID
		go func() {
			if err := g.remote.Delete(ctx, id); err != nil {
				g.report(fmt.Errorf("delete %s: %w", id, err))
			}
		}()
	}
}

// followFeed merges remote change notifications for the session's user.
func (g *Gateway) followFeed(ctx context.Context, epoch int, userID string) {
	ch, err := g.feed.Listen(ctx)
	if err != nil {
		g.report(fmt.Errorf("change feed: %w", err))
		return
	}
	for note := range ch {
		if !g.current(epoch) {
			return
		}
		if note.Task.UserID != userID {
			continue
		}
		switch note.Op {
		case "delete":
			g.store.RemoveRemote(note.Task.ID)
		default:
			g.store.ApplyRemote(note.Task)
		}
	}
}

func (g *Gateway) current(epoch int) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return epoch == g.epoch
}

func (g *Gateway) report(err error) {
	log.Printf("gateway: %v", err)
	select {
	case g.errs <- err:
	default:
	}
}
