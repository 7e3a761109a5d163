package events

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrUnknownType is returned when a stored event has no registered decoder.
var ErrUnknownType = errors.New("unknown event type")

// Factory returns an empty event to decode a payload into.
type Factory func() Event

// Registry turns stored RawEvents back into their concrete types.
type Registry struct {
	factories map[string]Factory
}

func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register binds eventType to f, replacing any earlier binding.
func (r *Registry) Register(eventType string, f Factory) {
	r.factories[eventType] = f
}

// Known reports whether eventType can be decoded.
func (r *Registry) Known(eventType string) bool {
	_, ok := r.factories[eventType]
	return ok
}

// Unmarshal decodes raw into the concrete type registered for its event
// type. Base fields missing from older payloads are filled from the row.
func (r *Registry) Unmarshal(raw RawEvent) (Event, error) {
	f, ok := r.factories[raw.EventType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownType, raw.EventType)
	}

	ev := f()
	if err := json.Unmarshal([]byte(raw.Payload), ev); err != nil {
		return nil, fmt.Errorf("unmarshal event payload %d: %w", raw.ID, err)
	}
	if b, ok := ev.(interface{ base() *BaseEvent }); ok {
		fillBase(b.base(), raw)
	}
	return ev, nil
}

// Decode unmarshals every row it can. Rows that fail are reported together
// in the returned error; the decoded events keep their input order.
func (r *Registry) Decode(raws []RawEvent) ([]Event, error) {
	out := make([]Event, 0, len(raws))
	var errs []error
	for _, raw := range raws {
		ev, err := r.Unmarshal(raw)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out = append(out, ev)
	}
	return out, errors.Join(errs...)
}

func fillBase(b *BaseEvent, raw RawEvent) {
	if b.Type == "" {
		b.Type = raw.EventType
	}
	if b.Entity == "" {
		b.Entity = raw.EntityType
	}
	if b.ID == 0 {
		b.ID = raw.EntityID
	}
	if b.Timestamp.IsZero() {
		b.Timestamp = raw.OccurredAt
	}
}

// DefaultRegistry knows every event reelname publishes.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	for typ, f := range map[string]Factory{
		EventScanCompleted:      func() Event { return &ScanCompleted{} },
		EventGroupMatched:       func() Event { return &GroupMatched{} },
		EventGroupAmbiguous:     func() Event { return &GroupAmbiguous{} },
		EventMatchCompleted:     func() Event { return &MatchCompleted{} },
		EventTransferQueued:     func() Event { return &TransferQueued{} },
		EventTransferProgressed: func() Event { return &TransferProgressed{} },
		EventTransferFinished:   func() Event { return &TransferFinished{} },
	} {
		r.Register(typ, f)
	}
	return r
}
