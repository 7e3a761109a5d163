// Package events carries scan, match and transfer notifications between
// reelname components and keeps a history of them in SQLite.
package events

import "time"

// Event is implemented by every notification published on the Bus. The
// entity is the scan, group, job or batch the event is about.
type Event interface {
	EventType() string
	EntityType() string
	EntityID() int64
	OccurredAt() time.Time
}

// BaseEvent holds the fields shared by all events and is embedded by each
// concrete type.
type BaseEvent struct {
	Type      string    `json:"type"`
	Entity    string    `json:"entity_type"`
	ID        int64     `json:"entity_id"`
	Timestamp time.Time `json:"occurred_at"`
}

func (e BaseEvent) EventType() string     { return e.Type }
func (e BaseEvent) EntityType() string    { return e.Entity }
func (e BaseEvent) EntityID() int64       { return e.ID }
func (e BaseEvent) OccurredAt() time.Time { return e.Timestamp }
func (e *BaseEvent) base() *BaseEvent     { return e }

// now is replaced in tests that need fixed timestamps.
var now = time.Now

// NewBaseEvent stamps an event about entity/id with the current time.
func NewBaseEvent(eventType, entity string, id int64) BaseEvent {
	return BaseEvent{Type: eventType, Entity: entity, ID: id, Timestamp: now()}
}

// Types is a set of event types. An empty set matches every event.
type Types map[string]struct{}

// NewTypes builds a set from the given event types, ignoring blanks.
func NewTypes(types ...string) Types {
	set := make(Types, len(types))
	for _, t := range types {
		if t != "" {
			set[t] = struct{}{}
		}
	}
	return set
}

// Match reports whether e belongs to the set.
func (t Types) Match(e Event) bool {
	if len(t) == 0 {
		return true
	}
	_, ok := t[e.EventType()]
	return ok
}
