// Package server runs the long-lived components of the reelname daemon.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sentient-soup/reelname/internal/events"
	"golang.org/x/sync/errgroup"
)

// Default event retention settings.
const (
	DefaultEventRetention = 30 * 24 * time.Hour
	DefaultPruneInterval  = time.Hour
)

// Config for the runner.
type Config struct {
	// EventRetention is how long persisted events are kept. Zero disables pruning.
	EventRetention time.Duration
	PruneInterval  time.Duration
}

type component struct {
	name string
	run  func(ctx context.Context) error
}

// Runner manages the daemon components. A component that fails cancels the
// rest; a component that returns nil simply drops out.
type Runner struct {
	eventLog   *events.EventLog
	config     Config
	components []component
	logger     *slog.Logger
}

// NewRunner creates a new runner. eventLog may be nil to skip pruning.
func NewRunner(eventLog *events.EventLog, cfg Config, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.PruneInterval <= 0 {
		cfg.PruneInterval = DefaultPruneInterval
	}
	return &Runner{
		eventLog: eventLog,
		config:   cfg,
		logger:   logger.With("component", "runner"),
	}
}

// Add registers a component. Must be called before Run.
func (r *Runner) Add(name string, run func(ctx context.Context) error) {
	r.components = append(r.components, component{name: name, run: run})
}

// Run starts all components and blocks until the context is canceled or a
// component fails.
func (r *Runner) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	components := r.components
	if r.eventLog != nil && r.config.EventRetention > 0 {
		components = append(components, component{name: "event-pruner", run: r.pruneEvents})
	}

	for _, c := range components {
		g.Go(func() error {
			r.logger.Debug("component starting", "name", c.name)
			if err := c.run(ctx); err != nil {
				r.logger.Error("component failed", "name", c.name, "error", err)
				return fmt.Errorf("%s: %w", c.name, err)
			}
			r.logger.Debug("component stopped", "name", c.name)
			return nil
		})
	}

	return g.Wait()
}

func (r *Runner) pruneEvents(ctx context.Context) error {
	ticker := time.NewTicker(r.config.PruneInterval)
	defer ticker.Stop()

	for {
		n, err := r.eventLog.Prune(r.config.EventRetention)
		if err != nil {
			r.logger.Warn("event prune failed", "error", err)
		} else if n > 0 {
			r.logger.Info("pruned events", "count", n)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
