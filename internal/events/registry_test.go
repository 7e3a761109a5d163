package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Unmarshal(t *testing.T) {
	registry := NewRegistry()
	registry.Register(EventGroupMatched, func() Event { return &GroupMatched{} })

	raw := RawEvent{
		EventType: EventGroupMatched,
		Payload:   `{"type":"group.matched","entity_type":"group","entity_id":7,"occurred_at":"2024-01-01T00:00:00Z","group_id":7,"tmdb_id":1396,"title":"Breaking Bad","media_type":"tv","confidence":0.97}`,
	}

	event, err := registry.Unmarshal(raw)
	require.NoError(t, err)

	matched, ok := event.(*GroupMatched)
	require.True(t, ok)
	assert.Equal(t, int64(1396), matched.TMDBID)
	assert.Equal(t, "Breaking Bad", matched.Title)
	assert.InDelta(t, 0.97, matched.Confidence, 1e-9)
	assert.Equal(t, int64(7), matched.EntityID())
}

func TestRegistry_UnmarshalUnknownType(t *testing.T) {
	registry := NewRegistry()

	raw := RawEvent{
		EventType: "unknown.event",
		Payload:   `{}`,
	}

	_, err := registry.Unmarshal(raw)
	assert.ErrorIs(t, err, ErrUnknownType)
	assert.False(t, registry.Known("unknown.event"))
}

func TestRegistry_UnmarshalInvalidJSON(t *testing.T) {
	registry := NewRegistry()
	registry.Register(EventScanCompleted, func() Event { return &ScanCompleted{} })

	raw := RawEvent{
		EventType: EventScanCompleted,
		Payload:   `{invalid json`,
	}

	_, err := registry.Unmarshal(raw)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unmarshal event payload")
}

func TestDefaultRegistry(t *testing.T) {
	registry := DefaultRegistry()

	eventTypes := []string{
		EventScanCompleted,
		EventGroupMatched,
		EventGroupAmbiguous,
		EventMatchCompleted,
		EventTransferQueued,
		EventTransferProgressed,
		EventTransferFinished,
	}

	for _, eventType := range eventTypes {
		t.Run(eventType, func(t *testing.T) {
			raw := RawEvent{
				EventType: eventType,
				Payload:   `{"type":"` + eventType + `","entity_type":"batch","entity_id":1,"occurred_at":"2024-01-01T00:00:00Z"}`,
			}
			event, err := registry.Unmarshal(raw)
			require.NoError(t, err, "Failed to unmarshal %s", eventType)
			assert.Equal(t, eventType, event.EventType())
		})
	}
}

func TestRegistry_UnmarshalTransferFinished(t *testing.T) {
	registry := DefaultRegistry()

	raw := RawEvent{
		EventType: EventTransferFinished,
		Payload:   `{"type":"transfer.finished","entity_type":"batch","entity_id":0,"occurred_at":"2024-01-01T12:00:00Z","batch_id":"b-1","queued":3,"completed":2,"failed":1}`,
	}

	event, err := registry.Unmarshal(raw)
	require.NoError(t, err)

	finished, ok := event.(*TransferFinished)
	require.True(t, ok)
	assert.Equal(t, "b-1", finished.BatchID)
	assert.Equal(t, 3, finished.Queued)
	assert.Equal(t, 2, finished.Completed)
	assert.Equal(t, 1, finished.Failed)
}

func TestRegistry_UnmarshalFillsBaseFromRow(t *testing.T) {
	at := time.Date(2024, 5, 2, 8, 30, 0, 0, time.UTC)
	raw := RawEvent{
		ID:         11,
		EventType:  EventMatchCompleted,
		EntityType: EntityScan,
		Payload:    `{"matched":4,"ambiguous":1}`,
		OccurredAt: at,
	}

	event, err := DefaultRegistry().Unmarshal(raw)
	require.NoError(t, err)
	assert.Equal(t, EventMatchCompleted, event.EventType())
	assert.Equal(t, EntityScan, event.EntityType())
	assert.Equal(t, at, event.OccurredAt())
	assert.Equal(t, 4, event.(*MatchCompleted).Matched)
}

func TestRegistry_DecodeKeepsGoodRows(t *testing.T) {
	raws := []RawEvent{
		{ID: 1, EventType: EventScanCompleted, Payload: `{"root":"/media/in","groups_added":2}`},
		{ID: 2, EventType: "retired.event", Payload: `{}`},
		{ID: 3, EventType: EventGroupMatched, Payload: `{broken`},
		{ID: 4, EventType: EventTransferFinished, Payload: `{"batch_id":"b-9","completed":1}`},
	}

	got, err := DefaultRegistry().Decode(raws)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownType)
	assert.Contains(t, err.Error(), "payload 3")

	require.Len(t, got, 2)
	assert.Equal(t, "/media/in", got[0].(*ScanCompleted).Root)
	assert.Equal(t, "b-9", got[1].(*TransferFinished).BatchID)
}
