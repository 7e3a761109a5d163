package v1

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sentient-soup/reelname/internal/library"
	"github.com/sentient-soup/reelname/internal/matcher"
	"github.com/sentient-soup/reelname/internal/scanner"
	"github.com/sentient-soup/reelname/internal/transfer"
)

func TestBulk(t *testing.T) {
	store := setupStore(t)
	_, h := newTestServer(t, ServerDeps{Library: store})
	g1, jobs := addShow(t, store, "Dark", 2)
	g2, _ := addShow(t, store, "Lost", 1)

	w := do(t, h, http.MethodPost, "/api/v1/bulk", bulkRequest{Action: "confirm", GroupIDs: []int64{g1.ID, g2.ID}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 2, decode[bulkResponse](t, w).Affected)

	got, err := store.GetJob(jobs[1].ID)
	require.NoError(t, err)
	assert.Equal(t, library.StatusConfirmed, got.Status)
}

func TestBulk_Invalid(t *testing.T) {
	_, h := newTestServer(t, ServerDeps{Library: setupStore(t)})

	w := do(t, h, http.MethodPost, "/api/v1/bulk", bulkRequest{Action: "archive", JobIDs: []int64{1}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_ACTION", decode[errorResponse](t, w).Code)

	w = do(t, h, http.MethodPost, "/api/v1/bulk", bulkRequest{Action: "skip"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "EMPTY_SELECTION", decode[errorResponse](t, w).Code)
}

func TestScan(t *testing.T) {
	ing := &fakeIngester{result: scanner.ScanResult{ScannedGroups: 3, AddedGroups: 2, AddedFiles: 9}}
	_, h := newTestServer(t, ServerDeps{Library: setupStore(t), Ingester: ing})

	w := do(t, h, http.MethodPost, "/api/v1/scan", scanRequest{Path: "/media/in"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "/media/in", ing.root)
	assert.Equal(t, 9, decode[scanner.ScanResult](t, w).AddedFiles)

	// no body scans the configured path
	w = do(t, h, http.MethodPost, "/api/v1/scan", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, ing.root)
}

func TestScan_Errors(t *testing.T) {
	ing := &fakeIngester{err: scanner.ErrNoScanPath}
	_, h := newTestServer(t, ServerDeps{Library: setupStore(t), Ingester: ing})

	w := do(t, h, http.MethodPost, "/api/v1/scan", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "NO_SCAN_PATH", decode[errorResponse](t, w).Code)

	ing.err = errors.New("disk gone")
	w = do(t, h, http.MethodPost, "/api/v1/scan", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestMatchAll(t *testing.T) {
	m := &fakeMatcher{all: matcher.MatchResult{Matched: 4, Ambiguous: 1}}
	_, h := newTestServer(t, ServerDeps{Library: setupStore(t), Matcher: m})

	w := do(t, h, http.MethodPost, "/api/v1/match", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, matcher.MatchResult{Matched: 4, Ambiguous: 1}, decode[matcher.MatchResult](t, w))
}

func newTransferDeps(t *testing.T) (ServerDeps, *library.Destination) {
	t.Helper()
	store := setupStore(t)
	dest := &library.Destination{Name: "nas", Type: library.DestinationLocal, BasePath: t.TempDir()}
	require.NoError(t, store.AddDestination(dest))
	sched := transfer.NewScheduler(store, transfer.Config{}, nil, testLogger())
	return ServerDeps{Library: store, Transfers: sched}, dest
}

func TestStartTransfer_Wait(t *testing.T) {
	deps, dest := newTransferDeps(t)
	_, h := newTestServer(t, deps)
	g, j := addConfirmedMovie(t, deps.Library, "Amelie", 2048)

	w := do(t, h, http.MethodPost, "/api/v1/transfers", transferRequest{
		DestinationID: dest.ID, GroupIDs: []int64{g.ID}, Wait: true,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	result := decode[transfer.Result](t, w)
	assert.Equal(t, 1, result.Queued)
	assert.Equal(t, 1, result.Completed)

	got, err := deps.Library.GetJob(j.ID)
	require.NoError(t, err)
	assert.Equal(t, library.StatusCompleted, got.Status)
	require.NotNil(t, got.DestinationPath)
	info, err := os.Stat(*got.DestinationPath)
	require.NoError(t, err)
	assert.Equal(t, int64(2048), info.Size())
	assert.Equal(t, filepath.Join(dest.BasePath, "Amelie (2001)", "Amelie (2001).mkv"), *got.DestinationPath)
}

func TestStartTransfer_Detached(t *testing.T) {
	deps, dest := newTransferDeps(t)
	srv, h := newTestServer(t, deps)
	_, j := addConfirmedMovie(t, deps.Library, "Heat", 512)

	w := do(t, h, http.MethodPost, "/api/v1/transfers", transferRequest{
		DestinationID: dest.ID, JobIDs: []int64{j.ID},
	})
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	assert.Equal(t, 1, decode[transferAcceptedResponse](t, w).Queued)

	srv.Close()
	got, err := deps.Library.GetJob(j.ID)
	require.NoError(t, err)
	assert.True(t, got.Status.IsTerminal(), "batch settles before Close returns")
}

func TestStartTransfer_Errors(t *testing.T) {
	deps, dest := newTransferDeps(t)
	_, h := newTestServer(t, deps)
	g, _ := addShow(t, deps.Library, "Unconfirmed", 1)

	w := do(t, h, http.MethodPost, "/api/v1/transfers", transferRequest{DestinationID: 999, JobIDs: []int64{1}})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, h, http.MethodPost, "/api/v1/transfers", transferRequest{DestinationID: dest.ID, GroupIDs: []int64{g.ID}})
	assert.Equal(t, http.StatusBadRequest, w.Code, "group without confirmed jobs")
	assert.Equal(t, "NOTHING_TO_TRANSFER", decode[errorResponse](t, w).Code)
}

func TestStartTransfer_NoScheduler(t *testing.T) {
	_, h := newTestServer(t, ServerDeps{Library: setupStore(t)})
	w := do(t, h, http.MethodPost, "/api/v1/transfers", transferRequest{DestinationID: 1, JobIDs: []int64{1}})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
