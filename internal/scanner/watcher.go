package scanner

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long the scan root must be quiet before a rescan.
const DefaultDebounce = 5 * time.Second

// Watcher re-runs an ingest whenever entries appear in or vanish from the
// scan root. Bursts of changes collapse into one ingest once the root has
// been quiet for the debounce interval.
type Watcher struct {
	root     string
	debounce time.Duration
	ingest   func(ctx context.Context) error
	log      *slog.Logger
}

// NewWatcher watches root and calls ingest after changes settle.
func NewWatcher(root string, debounce time.Duration, ingest func(ctx context.Context) error, log *slog.Logger) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if log == nil {
		log = slog.Default()
	}
	return &Watcher{
		root:     root,
		debounce: debounce,
		ingest:   ingest,
		log:      log.With("component", "watcher"),
	}
}

// Run blocks until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer func() { _ = fw.Close() }()

	if err := fw.Add(w.root); err != nil {
		return fmt.Errorf("watch %s: %w", w.root, err)
	}
	w.log.Info("watching scan root", "root", w.root, "debounce", w.debounce)

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) && !ev.Has(fsnotify.Remove) {
				continue
			}
			w.log.Debug("scan root changed", "path", ev.Name, "op", ev.Op.String())
			timer.Reset(w.debounce)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watch error", "error", err)
		case <-timer.C:
			if err := w.ingest(ctx); err != nil {
				w.log.Error("ingest after change failed", "error", err)
			}
		}
	}
}
