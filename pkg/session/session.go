// Package session carries session boundaries from the auth collaborator to
// whoever needs to seed or clear state.
package session

import "sync"

// Kind distinguishes session events.
type Kind string

const (
	Started Kind = "started"
	Ended   Kind = "ended"
)

// Event is one session boundary.
type Event struct {
	Kind   Kind
	UserID string
}

// Broker fans session events out to subscribers in-process.
type Broker struct {
	mu   sync.RWMutex
	subs map[chan Event]struct{}
}

// NewBroker creates a Broker.
func NewBroker() *Broker {
	return &Broker{subs: make(map[chan Event]struct{})}
}

// Publish delivers e to all subscribers.
func (b *Broker) Publish(e Event) {
	b.mu.RLock()
	for ch := range b.subs {
		select {
		case ch <- e:
		default:
			// subscriber is behind; drop to avoid blocking Publish
		}
	}
	b.mu.RUnlock()
}

// Subscribe returns a buffered channel that receives all session events.
func (b *Broker) Subscribe() chan Event {
	ch := make(chan Event, 8)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (b *Broker) Unsubscribe(ch chan Event) {
	b.mu.Lock()
	delete(b.subs, ch)
	b.mu.Unlock()
	close(ch)
}
