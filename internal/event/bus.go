package event

import (
	"sync"
	"time"

	"github.com/tbessias/modkit/internal/installables"
)

// Type names a class of event on the bus.
type Type string

const (
	TypeRefreshed Type = "refreshed"
	TypeInstalled Type = "installed"
	TypeRemoved   Type = "removed"
	TypeEnabled   Type = "enabled"
	TypeDisabled  Type = "disabled"
)

// Event is one notification published after a state change. Subscribers
// use it to re-render or re-fetch; it carries names, not content.
type Event struct {
	Type  Type              `json:"type"`
	Kind  installables.Kind `json:"kind,omitempty"`
	Names []string          `json:"names,omitempty"`
	Time  time.Time         `json:"time"`
}

// Bus fans events out to subscribers. Publish never blocks: a subscriber
// whose channel is full misses the event, and slow consumers cannot
// stall the publisher.
type Bus struct {
	mu   sync.Mutex
	subs map[chan Event]struct{}
}

// NewBus creates an empty Bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[chan Event]struct{})}
}

// Subscribe registers a new subscriber and returns its channel. The
// caller must Unsubscribe when done or the channel leaks.
func (b *Bus) Subscribe() chan Event {
	ch := make(chan Event, 16)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (b *Bus) Unsubscribe(ch chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subs[ch]; ok {
		delete(b.subs, ch)
		close(ch)
	}
}

// Publish delivers the event to every subscriber that has room.
func (b *Bus) Publish(ev Event) {
	if ev.Time.IsZero() {
		ev.Time = time.Now()
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
