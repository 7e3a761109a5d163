package v1

import (
	"context"
	"errors"

	"github.com/sentient-soup/reelname/internal/events"
	"github.com/sentient-soup/reelname/internal/library"
	"github.com/sentient-soup/reelname/internal/matcher"
	"github.com/sentient-soup/reelname/internal/scanner"
	"github.com/sentient-soup/reelname/internal/tmdb"
	"github.com/sentient-soup/reelname/internal/transfer"
)

// ErrMissingDependency is returned when a required dependency is nil.
var ErrMissingDependency = errors.New("missing required dependency")

// Catalog defines the catalog lookups exposed for manual matching.
type Catalog interface {
	SearchMovies(ctx context.Context, query string, year *int) ([]tmdb.SearchResult, error)
	SearchTV(ctx context.Context, query string, year *int) ([]tmdb.SearchResult, error)
	SearchMulti(ctx context.Context, query string, year *int) ([]tmdb.SearchResult, error)
	GetSeasons(ctx context.Context, tvID int64) ([]tmdb.Season, error)
	GetSeason(ctx context.Context, tvID int64, season int) (*tmdb.SeasonDetail, error)
}

// Matcher runs catalog match passes.
type Matcher interface {
	MatchAll(ctx context.Context) (matcher.MatchResult, error)
	MatchGroup(ctx context.Context, g *library.Group) (matcher.Outcome, error)
}

// Ingester scans the source tree into the library.
type Ingester interface {
	Ingest(ctx context.Context, root string) (scanner.ScanResult, error)
}

// Transferer runs transfer batches.
type Transferer interface {
	Run(ctx context.Context, jobIDs []int64, destinationID int64, sink transfer.Sink) (transfer.Result, error)
}

// ServerDeps contains all dependencies for the API server.
// Required dependencies must be non-nil; optional dependencies may be nil.
type ServerDeps struct {
	// Required dependencies
	Library *library.Store

	// Optional dependencies (nil if not configured)
	Catalog   Catalog
	Matcher   Matcher
	Ingester  Ingester
	Transfers Transferer
	Dial      transfer.Dialer  // SFTP dialer for connection tests, DialSSH when nil
	Bus       *events.Bus      // progress stream
	EventLog  *events.EventLog // event history
}

// Validate checks that all required dependencies are provided.
func (d ServerDeps) Validate() error {
	if d.Library == nil {
		return errors.New("library store is required")
	}
	return nil
}
