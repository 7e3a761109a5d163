// Package app assembles the reelname services shared by the CLI and daemon.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/sentient-soup/reelname/internal/config"
	"github.com/sentient-soup/reelname/internal/events"
	"github.com/sentient-soup/reelname/internal/library"
	"github.com/sentient-soup/reelname/internal/matcher"
	"github.com/sentient-soup/reelname/internal/scanner"
	"github.com/sentient-soup/reelname/internal/tmdb"
	"github.com/sentient-soup/reelname/internal/transfer"
)

// catalogTimeout bounds a single catalog request.
const catalogTimeout = 10 * time.Second

// Options customize Open.
type Options struct {
	// Transport wraps catalog HTTP traffic, e.g. for metrics. Nil uses the default.
	Transport http.RoundTripper
	// Dial overrides the SFTP dialer. Nil uses transfer.DialSSH.
	Dial   transfer.Dialer
	Logger *slog.Logger
}

// Services is the wired object graph over one database.
type Services struct {
	DB        *sql.DB
	Store     *library.Store
	EventLog  *events.EventLog
	Bus       *events.Bus
	Catalog   *tmdb.Client
	Matcher   *matcher.Engine
	Ingester  *scanner.Ingester
	Transfers *transfer.Scheduler
}

// Open opens the database named by cfg, seeds runtime settings from it and
// wires every service. The catalog key is read from the settings table on
// each request so changes made at runtime take effect immediately.
func Open(cfg *config.Config, opts Options) (*Services, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	db, err := library.Open(cfg.Database.Path)
	if err != nil {
		return nil, err
	}
	store := library.NewStore(db)

	for key, value := range cfg.SettingSeeds() {
		wrote, err := store.SeedSettingIfEmpty(key, value)
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("seed setting %s: %w", key, err)
		}
		if wrote {
			logger.Info("seeded setting from config", "key", key)
		}
	}

	eventLog := events.NewEventLog(db)
	bus := events.NewBus(eventLog, logger.With("component", "bus"))

	catalog := tmdb.NewClient("",
		tmdb.WithBaseURL(cfg.TMDB.BaseURL),
		tmdb.WithCacheTTL(cfg.TMDB.CacheTTL),
		tmdb.WithRateLimiter(tmdb.NewRateLimiter(cfg.TMDB.RateLimit, cfg.TMDB.RateWindow)),
		tmdb.WithHTTPClient(&http.Client{Timeout: catalogTimeout, Transport: opts.Transport}),
		tmdb.WithAPIKeyFunc(func() string { return store.Setting(library.SettingTMDBAPIKey, "") }),
	)

	engine := matcher.NewEngine(catalog, store, bus, logger)
	ingester := scanner.NewIngester(store, engine.MatchAll, bus, logger)
	scheduler := transfer.NewScheduler(store, transfer.Config{
		MaxConcurrent: cfg.Transfer.MaxConcurrent,
		ChunkSize:     cfg.Transfer.ChunkSize,
		Dial:          opts.Dial,
	}, bus, logger)

	return &Services{
		DB:        db,
		Store:     store,
		EventLog:  eventLog,
		Bus:       bus,
		Catalog:   catalog,
		Matcher:   engine,
		Ingester:  ingester,
		Transfers: scheduler,
	}, nil
}

// Close releases the bus and the database.
func (s *Services) Close() error {
	_ = s.Bus.Close()
	return s.DB.Close()
}

// Watcher builds a scan watcher over root that ingests on change.
func (s *Services) Watcher(root string, debounce time.Duration, logger *slog.Logger) *scanner.Watcher {
	return scanner.NewWatcher(root, debounce, func(ctx context.Context) error {
		_, err := s.Ingester.Ingest(ctx, root)
		return err
	}, logger)
}
