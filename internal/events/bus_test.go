package events

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case e, ok := <-ch:
		require.True(t, ok, "channel closed")
		return e
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
		return nil
	}
}

func matchedEvent(groupID int64) *GroupMatched {
	return &GroupMatched{
		BaseEvent: NewBaseEvent(EventGroupMatched, EntityGroup, groupID),
		GroupID:   groupID,
		Title:     "Amelie",
	}
}

func TestBus_DeliversByType(t *testing.T) {
	history := NewEventLog(setupTestDB(t))
	bus := NewBus(history, nil)
	defer func() { _ = bus.Close() }()

	matched := bus.Subscribe(EventGroupMatched, 4)
	transfers := bus.SubscribeTypes(4, EventTransferQueued, EventTransferFinished)
	all := bus.SubscribeAll(4)

	ctx := context.Background()
	require.NoError(t, bus.Publish(ctx, matchedEvent(1)))
	require.NoError(t, bus.Publish(ctx, &TransferQueued{BaseEvent: NewBaseEvent(EventTransferQueued, EntityBatch, 0)}))

	assert.Equal(t, EventGroupMatched, receive(t, matched).EventType())
	assert.Equal(t, EventTransferQueued, receive(t, transfers).EventType())
	assert.Equal(t, EventGroupMatched, receive(t, all).EventType())
	assert.Equal(t, EventTransferQueued, receive(t, all).EventType())

	assert.Empty(t, matched)
	assert.Empty(t, transfers)

	stored, err := history.Find(Query{})
	require.NoError(t, err)
	assert.Len(t, stored, 2)
}

func TestBus_UnsubscribeClosesChannel(t *testing.T) {
	bus := NewBus(nil, nil)
	defer func() { _ = bus.Close() }()

	ch := bus.Subscribe(EventGroupMatched, 1)
	bus.Unsubscribe(ch)
	require.NoError(t, bus.Publish(context.Background(), matchedEvent(1)))

	_, ok := <-ch
	assert.False(t, ok)

	// unknown channels are ignored
	bus.Unsubscribe(make(chan Event))
}

func TestBus_FullSubscriberDropsWithoutBlocking(t *testing.T) {
	bus := NewBus(nil, nil)
	defer func() { _ = bus.Close() }()

	slow := bus.SubscribeAll(1)
	fast := bus.SubscribeAll(3)

	for i := range 3 {
		require.NoError(t, bus.Publish(context.Background(), matchedEvent(int64(i+1))))
	}

	assert.Len(t, slow, 1)
	assert.Len(t, fast, 3)
	assert.Equal(t, uint64(2), bus.Dropped())
}

func TestBus_CloseClosesSubscribersAndStopsDelivery(t *testing.T) {
	bus := NewBus(nil, nil)
	ch := bus.SubscribeAll(1)

	require.NoError(t, bus.Close())
	require.NoError(t, bus.Close())
	_, ok := <-ch
	assert.False(t, ok)

	require.NoError(t, bus.Publish(context.Background(), matchedEvent(1)))

	late := bus.SubscribeAll(1)
	_, ok = <-late
	assert.False(t, ok, "subscribing after close yields a closed channel")
}

func TestBus_ConcurrentPublish(t *testing.T) {
	bus := NewBus(nil, nil)
	defer func() { _ = bus.Close() }()
	ch := bus.SubscribeAll(100)

	var wg sync.WaitGroup
	for i := range 10 {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			_ = bus.Publish(context.Background(), matchedEvent(id))
		}(int64(i))
	}
	wg.Wait()

	assert.Len(t, ch, 10)
}

func TestBus_TransientEventsNotPersisted(t *testing.T) {
	history := NewEventLog(setupTestDB(t))
	bus := NewBus(history, nil)
	defer func() { _ = bus.Close() }()

	ch := bus.Subscribe(EventTransferProgressed, 10)

	tick := &TransferProgressed{
		BaseEvent: NewBaseEvent(EventTransferProgressed, EntityJob, 1),
		JobID:     1,
		Status:    "transferring",
		Progress:  0.5,
	}
	done := &TransferProgressed{
		BaseEvent: NewBaseEvent(EventTransferProgressed, EntityJob, 1),
		JobID:     1,
		Status:    "completed",
		Progress:  1,
	}
	require.NoError(t, bus.Publish(context.Background(), tick))
	require.NoError(t, bus.Publish(context.Background(), done))
	receive(t, ch)
	receive(t, ch)

	stored, err := history.Find(Query{EntityType: EntityJob, EntityID: 1})
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Contains(t, stored[0].Payload, `"status":"completed"`)
}
