package server

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sentient-soup/reelname/internal/events"
	"github.com/sentient-soup/reelname/internal/library"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupEventLog(t *testing.T) *events.EventLog {
	t.Helper()
	db, err := library.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return events.NewEventLog(db)
}

func TestRunner_StartsAndStops(t *testing.T) {
	runner := NewRunner(nil, Config{}, nil)

	var started atomic.Int32
	for _, name := range []string{"a", "b"} {
		runner.Add(name, func(ctx context.Context) error {
			started.Add(1)
			<-ctx.Done()
			return nil
		})
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- runner.Run(ctx) }()

	require.Eventually(t, func() bool { return started.Load() == 2 }, time.Second, 10*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for runner to stop")
	}
}

func TestRunner_FailureCancelsOthers(t *testing.T) {
	runner := NewRunner(nil, Config{}, nil)
	boom := errors.New("boom")

	stopped := make(chan struct{})
	runner.Add("waiter", func(ctx context.Context) error {
		<-ctx.Done()
		close(stopped)
		return nil
	})
	runner.Add("failer", func(context.Context) error { return boom })

	err := runner.Run(context.Background())
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "failer")

	select {
	case <-stopped:
	default:
		t.Fatal("waiter was not cancelled")
	}
}

func TestRunner_PrunesEvents(t *testing.T) {
	eventLog := setupEventLog(t)

	old := &events.ScanCompleted{BaseEvent: events.NewBaseEvent(events.EventScanCompleted, events.EntityScan, 0)}
	old.Timestamp = time.Now().Add(-48 * time.Hour)
	_, err := eventLog.Append(old)
	require.NoError(t, err)

	fresh := &events.ScanCompleted{BaseEvent: events.NewBaseEvent(events.EventScanCompleted, events.EntityScan, 0)}
	_, err = eventLog.Append(fresh)
	require.NoError(t, err)

	runner := NewRunner(eventLog, Config{EventRetention: 24 * time.Hour, PruneInterval: time.Hour}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- runner.Run(ctx) }()

	require.Eventually(t, func() bool {
		recent, err := eventLog.Find(events.Query{})
		return err == nil && len(recent) == 1
	}, time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}

func TestNewRunner_Defaults(t *testing.T) {
	runner := NewRunner(nil, Config{}, nil)
	require.NotNil(t, runner.logger)
	assert.Equal(t, DefaultPruneInterval, runner.config.PruneInterval)
}
