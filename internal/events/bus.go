package events

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
)

// subscription is one buffered receiver and the event types it wants.
type subscription struct {
	types Types
	ch    chan Event
}

// Bus fans published events out to subscribers and records the durable ones
// in the EventLog. Delivery never blocks a publisher: a subscriber whose
// buffer is full misses the event and the drop is counted.
type Bus struct {
	mu      sync.RWMutex
	subs    []*subscription
	closed  bool
	dropped atomic.Uint64

	history *EventLog // nil disables persistence
	log     *slog.Logger
}

// NewBus creates a bus. history may be nil.
func NewBus(history *EventLog, log *slog.Logger) *Bus {
	if log == nil {
		log = slog.Default()
	}
	return &Bus{history: history, log: log.With("component", "events")}
}

// Publish records e unless it is transient, then hands it to every matching
// subscriber. Persistence failures are logged; delivery still happens.
func (b *Bus) Publish(ctx context.Context, e Event) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return nil
	}

	if b.history != nil && !isTransient(e) {
		if _, err := b.history.Append(e); err != nil {
			b.log.Error("persist event", "type", e.EventType(), "error", err)
		}
	}

	for _, s := range b.subs {
		if !s.types.Match(e) {
			continue
		}
		select {
		case s.ch <- e:
		default:
			b.dropped.Add(1)
			b.log.Debug("subscriber full, event dropped",
				"type", e.EventType(), "entity_type", e.EntityType(), "entity_id", e.EntityID())
		}
	}
	return nil
}

// SubscribeTypes returns a channel receiving events of the given types, or
// every event when none are given. The channel is closed by Unsubscribe or
// Close.
func (b *Bus) SubscribeTypes(buffer int, types ...string) <-chan Event {
	s := &subscription{types: NewTypes(types...), ch: make(chan Event, buffer)}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(s.ch)
		return s.ch
	}
	b.subs = append(b.subs, s)
	return s.ch
}

// Subscribe returns a channel for one event type.
func (b *Bus) Subscribe(eventType string, buffer int) <-chan Event {
	return b.SubscribeTypes(buffer, eventType)
}

// SubscribeAll returns a channel for every event.
func (b *Bus) SubscribeAll(buffer int) <-chan Event {
	return b.SubscribeTypes(buffer)
}

// Unsubscribe detaches ch and closes it. Unknown channels are ignored.
func (b *Bus) Unsubscribe(ch <-chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, s := range b.subs {
		if s.ch == ch {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			close(s.ch)
			return
		}
	}
}

// Dropped returns how many deliveries were skipped because a subscriber
// was full.
func (b *Bus) Dropped() uint64 {
	return b.dropped.Load()
}

// Close stops delivery and closes every subscriber channel.
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	for _, s := range b.subs {
		close(s.ch)
	}
	b.subs = nil
	return nil
}

func isTransient(e Event) bool {
	t, ok := e.(Transient)
	return ok && t.Transient()
}
