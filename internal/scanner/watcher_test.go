package scanner

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcher_IngestsAfterChangesSettle(t *testing.T) {
	root := t.TempDir()

	var calls atomic.Int32
	ingest := func(context.Context) error {
		calls.Add(1)
		return nil
	}
	w := NewWatcher(root, 50*time.Millisecond, ingest, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// let the watch register before touching the root
	time.Sleep(100 * time.Millisecond)
	for _, name := range []string{"a.mkv", "b.mkv", "c.mkv"} {
		require.NoError(t, os.WriteFile(filepath.Join(root, name), nil, 0644))
	}

	assert.Eventually(t, func() bool { return calls.Load() == 1 }, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("watcher did not stop")
	}
	assert.Equal(t, int32(1), calls.Load())
}

func TestWatcher_MissingRoot(t *testing.T) {
	w := NewWatcher(filepath.Join(t.TempDir(), "missing"), time.Second, func(context.Context) error { return nil }, nil)
	err := w.Run(context.Background())
	assert.Error(t, err)
}
