// Package v1 implements the native REST API.
package v1

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/sentient-soup/reelname/internal/library"
)

// Config holds API server configuration.
type Config struct {
	Version string
	Logger  *slog.Logger
}

// Server is the v1 API server.
type Server struct {
	deps ServerDeps
	cfg  Config
	log  *slog.Logger

	// background work (detached transfer batches) runs under bg until Close
	bg     context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a v1 API server with only the library store configured.
func New(db *sql.DB, cfg Config) *Server {
	srv, _ := NewWithDeps(ServerDeps{Library: library.NewStore(db)}, cfg)
	return srv
}

// NewWithDeps creates a v1 API server from explicit dependencies.
func NewWithDeps(deps ServerDeps, cfg Config) (*Server, error) {
	if err := deps.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMissingDependency, err)
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	bg, cancel := context.WithCancel(context.Background())
	return &Server{
		deps:   deps,
		cfg:    cfg,
		log:    log.With("component", "api"),
		bg:     bg,
		cancel: cancel,
	}, nil
}

// Close cancels detached transfer batches and waits for them to settle.
func (s *Server) Close() {
	s.cancel()
	s.wg.Wait()
}

// RegisterRoutes registers API routes on the given mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	// Groups
	mux.HandleFunc("GET /api/v1/groups", s.listGroups)
	mux.HandleFunc("GET /api/v1/groups/{id}", s.getGroup)
	mux.HandleFunc("PATCH /api/v1/groups/{id}", s.updateGroup)
	mux.HandleFunc("DELETE /api/v1/groups/{id}", s.deleteGroup)
	mux.HandleFunc("GET /api/v1/groups/{id}/candidates", s.listCandidates)
	mux.HandleFunc("POST /api/v1/groups/{id}/pick", s.pickCandidate)
	mux.HandleFunc("POST /api/v1/groups/{id}/match", s.requireMatcher(s.matchGroup))
	mux.HandleFunc("GET /api/v1/groups/{id}/events", s.requireEventLog(s.listGroupEvents))

	// Jobs
	mux.HandleFunc("GET /api/v1/jobs", s.listJobs)
	mux.HandleFunc("GET /api/v1/jobs/{id}", s.getJob)
	mux.HandleFunc("PATCH /api/v1/jobs/{id}", s.updateJob)
	mux.HandleFunc("DELETE /api/v1/jobs/{id}", s.deleteJob)

	// Actions
	mux.HandleFunc("POST /api/v1/bulk", s.bulk)
	mux.HandleFunc("POST /api/v1/scan", s.requireIngester(s.scan))
	mux.HandleFunc("POST /api/v1/match", s.requireMatcher(s.matchAll))
	mux.HandleFunc("POST /api/v1/transfers", s.requireTransfers(s.startTransfer))

	// Destinations
	mux.HandleFunc("GET /api/v1/destinations", s.listDestinations)
	mux.HandleFunc("POST /api/v1/destinations", s.addDestination)
	mux.HandleFunc("GET /api/v1/destinations/{id}", s.getDestination)
	mux.HandleFunc("PUT /api/v1/destinations/{id}", s.updateDestination)
	mux.HandleFunc("DELETE /api/v1/destinations/{id}", s.deleteDestination)
	mux.HandleFunc("POST /api/v1/destinations/{id}/test", s.testDestination)

	// Settings
	mux.HandleFunc("GET /api/v1/settings", s.getSettings)
	mux.HandleFunc("PUT /api/v1/settings", s.putSettings)

	// Catalog
	mux.HandleFunc("GET /api/v1/search", s.requireCatalog(s.search))
	mux.HandleFunc("GET /api/v1/tv/{id}/seasons", s.requireCatalog(s.listSeasons))
	mux.HandleFunc("GET /api/v1/tv/{id}/seasons/{season}", s.requireCatalog(s.getSeason))

	// Events
	mux.HandleFunc("GET /api/v1/events", s.requireEventLog(s.listEvents))
	mux.HandleFunc("GET /api/v1/events/stream", s.streamEvents)

	// System
	mux.HandleFunc("GET /api/v1/status", s.getStatus)
}

// Error response
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeError(w http.ResponseWriter, code int, errCode, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(errorResponse{Error: message, Code: errCode})
}

func writeJSON(w http.ResponseWriter, code int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(data)
}

// writeStoreError maps library errors to HTTP status codes.
func writeStoreError(w http.ResponseWriter, err error, notFound string) {
	switch {
	case errors.Is(err, library.ErrNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", notFound)
	case errors.Is(err, library.ErrDuplicate):
		writeError(w, http.StatusConflict, "DUPLICATE", err.Error())
	case errors.Is(err, library.ErrConstraint):
		writeError(w, http.StatusConflict, "CONSTRAINT", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "DB_ERROR", err.Error())
	}
}

// decodeJSON reads the request body into v, writing a 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", err.Error())
		return false
	}
	return true
}

// pathID extracts an integer ID from the URL path.
func pathID(r *http.Request, name string) (int64, error) {
	idStr := r.PathValue(name)
	if idStr == "" {
		return 0, fmt.Errorf("missing path parameter: %s", name)
	}
	return strconv.ParseInt(idStr, 10, 64)
}

// queryInt extracts an optional integer from query string.
func queryInt(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return i
}

// queryString extracts an optional string from query string.
func queryString(r *http.Request, name string) *string {
	val := r.URL.Query().Get(name)
	if val == "" {
		return nil
	}
	return &val
}

// queryStatuses parses a comma-separated status list.
func queryStatuses(r *http.Request) ([]library.Status, error) {
	raw := queryString(r, "status")
	if raw == nil {
		return nil, nil
	}
	var out []library.Status
	for _, part := range strings.Split(*raw, ",") {
		st := library.Status(strings.TrimSpace(part))
		if !st.Valid() {
			return nil, fmt.Errorf("unknown status %q", st)
		}
		out = append(out, st)
	}
	return out, nil
}

const maxPageSize = 1000

func pagination(r *http.Request) (limit, offset int, err error) {
	limit = queryInt(r, "limit", 50)
	offset = queryInt(r, "offset", 0)
	if limit < 0 || offset < 0 {
		return 0, 0, errors.New("limit and offset must be non-negative")
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	return limit, offset, nil
}

func (s *Server) getStatus(w http.ResponseWriter, _ *http.Request) {
	resp := statusResponse{
		Version: s.cfg.Version,
		Groups:  make(map[string]int),
		Jobs:    make(map[string]int),
	}
	for _, st := range library.Statuses() {
		_, n, err := s.deps.Library.ListGroups(library.GroupFilter{Statuses: []library.Status{st}, Limit: 1})
		if err != nil {
			writeStoreError(w, err, "")
			return
		}
		resp.Groups[string(st)] = n

		_, n, err = s.deps.Library.ListJobs(library.JobFilter{Statuses: []library.Status{st}, Limit: 1})
		if err != nil {
			writeStoreError(w, err, "")
			return
		}
		resp.Jobs[string(st)] = n
	}
	writeJSON(w, http.StatusOK, resp)
}
