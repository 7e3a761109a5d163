package transfer_test

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sentient-soup/reelname/internal/events"
	"github.com/sentient-soup/reelname/internal/library"
	"github.com/sentient-soup/reelname/internal/transfer"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newStore(t *testing.T) *library.Store {
	t.Helper()
	db, err := library.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return library.NewStore(db)
}

func addLocalDest(t *testing.T, s *library.Store) *library.Destination {
	t.Helper()
	d := &library.Destination{Name: "library", Type: library.DestinationLocal, BasePath: t.TempDir()}
	require.NoError(t, s.AddDestination(d))
	return d
}

// addMovie creates a confirmed single-file movie group whose source holds
// size bytes.
func addMovie(t *testing.T, s *library.Store, title string, size int) *library.Job {
	t.Helper()
	src := filepath.Join(t.TempDir(), title+".mkv")
	require.NoError(t, os.WriteFile(src, bytes.Repeat([]byte{'m'}, size), 0644))

	year := 2020
	tmdbID := int64(len(title))
	g := &library.Group{
		Status:     library.StatusConfirmed,
		MediaType:  library.MediaMovie,
		FolderPath: src,
		FolderName: title,
		TMDBID:     &tmdbID,
		TMDBTitle:  &title,
		TMDBYear:   &year,
	}
	require.NoError(t, s.AddGroup(g))
	j := &library.Job{
		GroupID:       &g.ID,
		Status:        library.StatusConfirmed,
		MediaType:     library.MediaMovie,
		FileCategory:  library.CategoryMovie,
		SourcePath:    src,
		FileName:      title + ".mkv",
		FileSize:      int64(size),
		FileExtension: ".mkv",
	}
	require.NoError(t, s.AddJob(j))
	return j
}

func TestScheduler_RunLocal(t *testing.T) {
	store := newStore(t)
	dest := addLocalDest(t, store)
	bus := events.NewBus(nil, testLogger())
	defer func() { _ = bus.Close() }()
	all := bus.SubscribeAll(100)

	var ids []int64
	for i := range 3 {
		ids = append(ids, addMovie(t, store, fmt.Sprintf("Movie %d", i), 1000).ID)
	}

	sched := transfer.NewScheduler(store, transfer.Config{ChunkSize: 256}, bus, testLogger())
	rec := &transfer.Recorder{}
	res, err := sched.Run(context.Background(), ids, dest.ID, rec)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Queued)
	assert.Equal(t, 3, res.Completed)
	assert.Equal(t, 0, res.Failed)
	assert.NotEmpty(t, res.BatchID)

	for i, id := range ids {
		j, err := store.GetJob(id)
		require.NoError(t, err)
		assert.Equal(t, library.StatusCompleted, j.Status)
		assert.InDelta(t, 1.0, *j.TransferProgress, 1e-9)
		assert.Equal(t, dest.ID, *j.DestinationID)
		want := filepath.Join(dest.BasePath, fmt.Sprintf("Movie %d (2020)", i), fmt.Sprintf("Movie %d (2020).mkv", i))
		assert.Equal(t, want, *j.DestinationPath)
		info, err := os.Stat(want)
		require.NoError(t, err)
		assert.Equal(t, int64(1000), info.Size())
	}

	// bytes never go backwards within a job
	last := map[int64]int64{}
	for _, p := range rec.Updates() {
		assert.Equal(t, res.BatchID, p.BatchID)
		assert.GreaterOrEqual(t, p.BytesTransferred, last[p.JobID])
		last[p.JobID] = p.BytesTransferred
	}
	final := rec.Final()
	require.Len(t, final, 3)
	for _, p := range final {
		assert.Equal(t, transfer.StatusCompleted, p.Status)
		assert.Equal(t, 1.0, p.Progress)
	}

	var types []string
	timeout := time.After(time.Second)
	for len(types) < 2 || types[len(types)-1] != events.EventTransferFinished {
		select {
		case ev := <-all:
			if ev.EventType() != events.EventTransferProgressed {
				types = append(types, ev.EventType())
			}
		case <-timeout:
			t.Fatalf("missing batch events, got %v", types)
		}
	}
	assert.Equal(t, []string{events.EventTransferQueued, events.EventTransferFinished}, types)
}

func TestScheduler_ConcurrencyBound(t *testing.T) {
	store := newStore(t)
	dest := addLocalDest(t, store)

	var ids []int64
	for i := range 6 {
		ids = append(ids, addMovie(t, store, fmt.Sprintf("Film %d", i), 512).ID)
	}

	var (
		mu        sync.Mutex
		active    = map[int64]bool{}
		maxActive int
		maxRows   int
	)
	sink := transfer.SinkFunc(func(p transfer.Progress) {
		mu.Lock()
		defer mu.Unlock()
		if p.Terminal() {
			delete(active, p.JobID)
			return
		}
		active[p.JobID] = true
		maxActive = max(maxActive, len(active))

		_, n, err := store.ListJobs(library.JobFilter{Statuses: []library.Status{library.StatusTransferring}})
		if err == nil {
			maxRows = max(maxRows, n)
		}
		time.Sleep(time.Millisecond)
	})

	sched := transfer.NewScheduler(store, transfer.Config{MaxConcurrent: 2, ChunkSize: 64}, nil, testLogger())
	res, err := sched.Run(context.Background(), ids, dest.ID, sink)
	require.NoError(t, err)
	assert.Equal(t, 6, res.Completed)
	assert.LessOrEqual(t, maxActive, 2)
	assert.GreaterOrEqual(t, maxActive, 1)
	assert.LessOrEqual(t, maxRows, 2)
}

func TestScheduler_FailureIsIsolated(t *testing.T) {
	store := newStore(t)
	dest := addLocalDest(t, store)

	good1 := addMovie(t, store, "Good One", 100)
	bad := addMovie(t, store, "Bad", 100)
	good2 := addMovie(t, store, "Good Two", 100)
	require.NoError(t, os.Remove(bad.SourcePath))

	sched := transfer.NewScheduler(store, transfer.Config{}, nil, testLogger())
	rec := &transfer.Recorder{}
	res, err := sched.Run(context.Background(), []int64{good1.ID, bad.ID, good2.ID}, dest.ID, rec)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Completed)
	assert.Equal(t, 1, res.Failed)

	j, err := store.GetJob(bad.ID)
	require.NoError(t, err)
	assert.Equal(t, library.StatusFailed, j.Status)
	require.NotNil(t, j.TransferError)
	assert.Contains(t, *j.TransferError, "open source")

	for _, id := range []int64{good1.ID, good2.ID} {
		j, err := store.GetJob(id)
		require.NoError(t, err)
		assert.Equal(t, library.StatusCompleted, j.Status)
	}
	assert.Equal(t, transfer.StatusFailed, rec.Final()[bad.ID].Status)
}

func TestScheduler_CancelFailsEverything(t *testing.T) {
	store := newStore(t)
	dest := addLocalDest(t, store)

	var ids []int64
	for i := range 4 {
		ids = append(ids, addMovie(t, store, fmt.Sprintf("Long %d", i), 64*1024).ID)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var once sync.Once
	sink := transfer.SinkFunc(func(p transfer.Progress) {
		if p.Status == transfer.StatusTransferring {
			once.Do(cancel)
		}
	})

	sched := transfer.NewScheduler(store, transfer.Config{ChunkSize: 8}, nil, testLogger())
	res, err := sched.Run(ctx, ids, dest.ID, sink)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Completed)
	assert.Equal(t, 4, res.Failed)

	for _, id := range ids {
		j, err := store.GetJob(id)
		require.NoError(t, err)
		assert.Equal(t, library.StatusFailed, j.Status)
		require.NotNil(t, j.TransferError)
		assert.Contains(t, *j.TransferError, context.Canceled.Error())
	}
}

func TestScheduler_RerunIsIdempotent(t *testing.T) {
	store := newStore(t)
	dest := addLocalDest(t, store)
	j := addMovie(t, store, "Again", 300)

	sched := transfer.NewScheduler(store, transfer.Config{}, nil, testLogger())
	_, err := sched.Run(context.Background(), []int64{j.ID}, dest.ID, nil)
	require.NoError(t, err)

	// the second run must not read the source
	require.NoError(t, os.Remove(j.SourcePath))
	rec := &transfer.Recorder{}
	res, err := sched.Run(context.Background(), []int64{j.ID}, dest.ID, rec)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Completed)
	assert.Equal(t, 1.0, rec.Final()[j.ID].Progress)
}

func TestScheduler_BatchErrors(t *testing.T) {
	store := newStore(t)
	dest := addLocalDest(t, store)
	sched := transfer.NewScheduler(store, transfer.Config{}, nil, testLogger())

	_, err := sched.Run(context.Background(), nil, dest.ID, nil)
	assert.ErrorIs(t, err, transfer.ErrNothingToTransfer)

	_, err = sched.Run(context.Background(), []int64{1}, 999, nil)
	assert.ErrorIs(t, err, transfer.ErrDestinationNotFound)
}

func TestScheduler_MissingJob(t *testing.T) {
	store := newStore(t)
	dest := addLocalDest(t, store)
	sched := transfer.NewScheduler(store, transfer.Config{}, nil, testLogger())

	rec := &transfer.Recorder{}
	res, err := sched.Run(context.Background(), []int64{4242}, dest.ID, rec)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Failed)
	assert.Contains(t, rec.Final()[4242].Error, transfer.ErrJobNotFound.Error())
}

func TestScheduler_OrphanJobNamedFromOwnFields(t *testing.T) {
	store := newStore(t)
	dest := addLocalDest(t, store)

	src := filepath.Join(t.TempDir(), "lone.mkv")
	require.NoError(t, os.WriteFile(src, []byte("data"), 0644))
	title := "Lone Film"
	year := 2001
	j := &library.Job{
		Status:        library.StatusConfirmed,
		MediaType:     library.MediaMovie,
		FileCategory:  library.CategoryMovie,
		SourcePath:    src,
		FileName:      "lone.mkv",
		FileSize:      4,
		FileExtension: ".mkv",
		TMDBTitle:     &title,
		TMDBYear:      &year,
	}
	require.NoError(t, store.AddJob(j))

	sched := transfer.NewScheduler(store, transfer.Config{}, nil, testLogger())
	res, err := sched.Run(context.Background(), []int64{j.ID}, dest.ID, nil)
	require.NoError(t, err)
	require.Equal(t, 1, res.Completed)

	_, err = os.Stat(filepath.Join(dest.BasePath, "Lone Film (2001)", "Lone Film (2001).mkv"))
	assert.NoError(t, err)
}
