package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sentient-soup/reelname/internal/library"
	"github.com/sentient-soup/reelname/internal/matcher"
	"github.com/sentient-soup/reelname/internal/scanner"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setupStore(t *testing.T) *library.Store {
	t.Helper()
	db, err := library.Open(":memory:")
	require.NoError(t, err, "open db")
	t.Cleanup(func() { _ = db.Close() })
	return library.NewStore(db)
}

// newTestServer builds a server over deps and returns its routed handler.
func newTestServer(t *testing.T, deps ServerDeps) (*Server, http.Handler) {
	t.Helper()
	srv, err := NewWithDeps(deps, Config{Version: "test", Logger: testLogger()})
	require.NoError(t, err)
	t.Cleanup(srv.Close)

	mux := http.NewServeMux()
	srv.RegisterRoutes(mux)
	return srv, mux
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

// addShow inserts a tv group with n episode jobs.
func addShow(t *testing.T, s *library.Store, name string, n int) (*library.Group, []*library.Job) {
	t.Helper()
	g := &library.Group{
		MediaType:      library.MediaTV,
		FolderPath:     "/media/in/" + name,
		FolderName:     name,
		TotalFileCount: n,
		ParsedTitle:    ptr(name),
	}
	require.NoError(t, s.AddGroup(g))

	var jobs []*library.Job
	for i := 1; i <= n; i++ {
		j := &library.Job{
			GroupID:       &g.ID,
			MediaType:     library.MediaTV,
			FileCategory:  library.CategoryEpisode,
			SourcePath:    filepath.Join(g.FolderPath, name+" E"+string(rune('0'+i))+".mkv"),
			FileName:      name + " E" + string(rune('0'+i)) + ".mkv",
			FileSize:      int64(100 * i),
			FileExtension: ".mkv",
			ParsedSeason:  ptr(1),
			ParsedEpisode: ptr(i),
		}
		require.NoError(t, s.AddJob(j))
		jobs = append(jobs, j)
	}
	return g, jobs
}

// addConfirmedMovie inserts a confirmed movie group whose single job points
// at a real file of size bytes.
func addConfirmedMovie(t *testing.T, s *library.Store, title string, size int) (*library.Group, *library.Job) {
	t.Helper()
	src := filepath.Join(t.TempDir(), title+".mkv")
	require.NoError(t, os.WriteFile(src, bytes.Repeat([]byte{'x'}, size), 0644))

	g := &library.Group{
		Status:     library.StatusConfirmed,
		MediaType:  library.MediaMovie,
		FolderPath: src,
		FolderName: title,
		TMDBID:     ptr(int64(42)),
		TMDBTitle:  ptr(title),
		TMDBYear:   ptr(2001),
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
	return g, j
}

func ptr[T any](v T) *T { return &v }

type fakeIngester struct {
	root   string
	result scanner.ScanResult
	err    error
}

func (f *fakeIngester) Ingest(_ context.Context, root string) (scanner.ScanResult, error) {
	f.root = root
	return f.result, f.err
}

type fakeMatcher struct {
	all     matcher.MatchResult
	outcome matcher.Outcome
	err     error
	matched []int64
}

func (f *fakeMatcher) MatchAll(context.Context) (matcher.MatchResult, error) {
	return f.all, f.err
}

func (f *fakeMatcher) MatchGroup(_ context.Context, g *library.Group) (matcher.Outcome, error) {
	f.matched = append(f.matched, g.ID)
	return f.outcome, f.err
}

func itoa(id int64) string { return strconv.FormatInt(id, 10) }
