package scanner

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sentient-soup/reelname/internal/events"
	"github.com/sentient-soup/reelname/internal/library"
	"github.com/sentient-soup/reelname/internal/matcher"
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

func showTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeTree(t, root, map[string]int{
		"The Wire (2002)/Season 1/The.Wire.S01E01.720p.mkv": 10,
		"The Wire (2002)/Season 1/The.Wire.S01E02.720p.mkv": 10,
		"Heat (1995)/Heat.1995.1080p.BluRay.x264.mkv":       20,
	})
	return root
}

func TestIngest_NoAPIKeySkipsMatch(t *testing.T) {
	store := newStore(t)
	root := showTree(t)

	called := false
	match := func(context.Context) (matcher.MatchResult, error) {
		called = true
		return matcher.MatchResult{}, nil
	}
	ing := NewIngester(store, match, nil, testLogger())

	res, err := ing.Ingest(context.Background(), root)
	require.NoError(t, err)
	assert.False(t, called)
	assert.Equal(t, NoAPIKeyMessage, res.MatchError)
	assert.Equal(t, 2, res.ScannedGroups)
	assert.Equal(t, 2, res.AddedGroups)
	assert.Equal(t, 3, res.AddedFiles)
	assert.Equal(t, 0, res.SkippedGroups)

	groups, total, err := store.ListGroups(library.GroupFilter{})
	require.NoError(t, err)
	assert.Equal(t, 2, total)

	var wire *library.Group
	for _, g := range groups {
		if g.FolderName == "The Wire (2002)" {
			wire = g
		}
	}
	require.NotNil(t, wire)
	assert.Equal(t, library.StatusScanned, wire.Status)
	assert.Equal(t, library.MediaTV, wire.MediaType)
	assert.Equal(t, "The Wire", *wire.ParsedTitle)
	assert.Equal(t, 2002, *wire.ParsedYear)
	assert.Equal(t, 2, wire.TotalFileCount)
	assert.Equal(t, int64(20), wire.TotalFileSize)

	jobs, _, err := store.ListJobs(library.JobFilter{GroupID: &wire.ID})
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, 1, *jobs[0].ParsedSeason)
	assert.Equal(t, 1, *jobs[0].ParsedEpisode)
	assert.Equal(t, 2, *jobs[1].ParsedEpisode)
	assert.Equal(t, library.MediaTV, jobs[0].MediaType)
	assert.Equal(t, ".mkv", jobs[0].FileExtension)
	assert.Equal(t, "720p", *jobs[0].ParsedQuality)
}

func TestIngest_RescanSkipsKnownFolders(t *testing.T) {
	store := newStore(t)
	root := showTree(t)
	ing := NewIngester(store, nil, nil, testLogger())

	_, err := ing.Ingest(context.Background(), root)
	require.NoError(t, err)

	writeTree(t, root, map[string]int{"Alien (1979)/Alien.1979.mkv": 5})
	res, err := ing.Ingest(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, 3, res.ScannedGroups)
	assert.Equal(t, 1, res.AddedGroups)
	assert.Equal(t, 1, res.AddedFiles)
	assert.Equal(t, 2, res.SkippedGroups)

	_, total, err := store.ListJobs(library.JobFilter{})
	require.NoError(t, err)
	assert.Equal(t, 4, total)
}

func TestIngest_ReattachesKnownSourcePath(t *testing.T) {
	store := newStore(t)
	root := t.TempDir()
	writeTree(t, root, map[string]int{"Heat (1995)/Heat.1995.mkv": 20})
	source := filepath.Join(root, "Heat (1995)", "Heat.1995.mkv")

	old := &library.Group{MediaType: library.MediaMovie, FolderPath: "/elsewhere", FolderName: "elsewhere"}
	require.NoError(t, store.AddGroup(old))
	tmdbID := int64(949)
	stale := &library.Job{
		GroupID:       &old.ID,
		Status:        library.StatusMatched,
		SourcePath:    source,
		FileName:      "Heat.1995.mkv",
		FileExtension: ".mkv",
		TMDBID:        &tmdbID,
	}
	require.NoError(t, store.AddJob(stale))

	res, err := NewIngester(store, nil, nil, testLogger()).Ingest(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, 1, res.AddedGroups)

	j, err := store.GetJob(stale.ID)
	require.NoError(t, err)
	assert.NotEqual(t, old.ID, *j.GroupID)
	assert.Equal(t, library.StatusScanned, j.Status)
	assert.Equal(t, library.CategoryMovie, j.FileCategory)
	assert.Nil(t, j.TMDBID)

	_, total, err := store.ListJobs(library.JobFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
}

func TestIngest_RemovesOrphanJobs(t *testing.T) {
	store := newStore(t)
	require.NoError(t, store.AddJob(&library.Job{SourcePath: "/gone.mkv", FileName: "gone.mkv", FileExtension: ".mkv"}))

	_, err := NewIngester(store, nil, nil, testLogger()).Ingest(context.Background(), t.TempDir())
	require.NoError(t, err)

	_, total, err := store.ListJobs(library.JobFilter{})
	require.NoError(t, err)
	assert.Equal(t, 0, total)
}

func TestIngest_RunsMatchWithAPIKey(t *testing.T) {
	store := newStore(t)
	require.NoError(t, store.SetSetting(library.SettingTMDBAPIKey, "secret"))

	calls := 0
	match := func(context.Context) (matcher.MatchResult, error) {
		calls++
		return matcher.MatchResult{Matched: 1, Ambiguous: 1}, nil
	}
	res, err := NewIngester(store, match, nil, testLogger()).Ingest(context.Background(), showTree(t))
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, res.Matched)
	assert.Equal(t, 1, res.Ambiguous)
	assert.Empty(t, res.MatchError)
}

func TestIngest_MatchErrorIsReported(t *testing.T) {
	store := newStore(t)
	require.NoError(t, store.SetSetting(library.SettingTMDBAPIKey, "secret"))

	match := func(context.Context) (matcher.MatchResult, error) {
		return matcher.MatchResult{}, assert.AnError
	}
	res, err := NewIngester(store, match, nil, testLogger()).Ingest(context.Background(), showTree(t))
	require.NoError(t, err)
	assert.Equal(t, assert.AnError.Error(), res.MatchError)
	assert.Equal(t, 2, res.AddedGroups)
}

func TestIngest_ScanPathSetting(t *testing.T) {
	store := newStore(t)
	ing := NewIngester(store, nil, nil, testLogger())

	_, err := ing.Ingest(context.Background(), "")
	require.ErrorIs(t, err, ErrNoScanPath)

	root := showTree(t)
	require.NoError(t, store.SetSetting(library.SettingScanPath, root))
	res, err := ing.Ingest(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, 2, res.AddedGroups)
}

func TestIngest_PublishesScanCompleted(t *testing.T) {
	store := newStore(t)
	bus := events.NewBus(nil, testLogger())
	defer func() { _ = bus.Close() }()
	ch := bus.Subscribe(events.EventScanCompleted, 1)

	root := showTree(t)
	_, err := NewIngester(store, nil, bus, testLogger()).Ingest(context.Background(), root)
	require.NoError(t, err)

	select {
	case ev := <-ch:
		sc, ok := ev.(*events.ScanCompleted)
		require.True(t, ok)
		assert.Equal(t, root, sc.Root)
		assert.Equal(t, 2, sc.GroupsAdded)
		assert.Equal(t, 3, sc.JobsAdded)
	case <-time.After(time.Second):
		t.Fatal("no scan.completed event")
	}
}
