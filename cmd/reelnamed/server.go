package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"gopkg.in/natefinch/lumberjack.v2"

	v1 "github.com/sentient-soup/reelname/internal/api/v1"
	"github.com/sentient-soup/reelname/internal/app"
	"github.com/sentient-soup/reelname/internal/config"
	"github.com/sentient-soup/reelname/internal/library"
	"github.com/sentient-soup/reelname/internal/metrics"
	"github.com/sentient-soup/reelname/internal/server"
)

const shutdownTimeout = 30 * time.Second

func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// newLogger writes to stderr and, when a file is configured, to a rotated
// log file as well.
func newLogger(cfg config.LogConfig) (*slog.Logger, io.Closer) {
	var out io.Writer = os.Stderr
	var closer io.Closer = io.NopCloser(nil)
	if cfg.File != "" {
		rotated := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			Compress:   true,
		}
		out = io.MultiWriter(os.Stderr, rotated)
		closer = rotated
	}
	return slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Level),
	})), closer
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	if r.status == 200 { // Only capture first WriteHeader call
		r.status = code
	}
	r.ResponseWriter.WriteHeader(code)
}

// Unwrap lets http.ResponseController reach the underlying writer for
// flushing event streams.
func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

func logRequests(next http.Handler, log *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusRecorder{ResponseWriter: w, status: 200}
		next.ServeHTTP(wrapped, r)
		log.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", wrapped.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

// loadConfig reads configPath, or returns the built-in defaults when no
// file was given or discovered.
func loadConfig(configPath string) (*config.Config, error) {
	if configPath == "" {
		return config.Default(), nil
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

func runServer(configPath string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	logger, logCloser := newLogger(cfg.Log)
	defer func() { _ = logCloser.Close() }()

	// One transfer runner per database
	lock, err := app.AcquireLock(cfg.Database.Path)
	if err != nil {
		return err
	}
	defer func() { _ = lock.Unlock() }()

	// === Metrics (optional) ===
	var (
		reg *prometheus.Registry
		m   *metrics.Metrics
	)
	opts := app.Options{Logger: logger}
	if cfg.Server.MetricsPort > 0 {
		reg = prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		m = metrics.New(reg)
		opts.Transport = m.InstrumentTransport(http.DefaultTransport)
	}

	// === Services ===
	svc, err := app.Open(cfg, opts)
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	if reg != nil {
		reg.MustRegister(metrics.NewLibraryCollector(svc.Store, logger))
		reg.MustRegister(metrics.NewDroppedEventsCounter(svc.Bus))
	}

	// === HTTP Setup ===
	mux := http.NewServeMux()
	apiV1, err := v1.NewWithDeps(v1.ServerDeps{
		Library:   svc.Store,
		Catalog:   svc.Catalog,
		Matcher:   svc.Matcher,
		Ingester:  svc.Ingester,
		Transfers: svc.Transfers,
		Bus:       svc.Bus,
		EventLog:  svc.EventLog,
	}, v1.Config{Version: version, Logger: logger})
	if err != nil {
		return err
	}
	defer apiV1.Close()
	apiV1.RegisterRoutes(mux)

	addr := net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port))
	srv := &http.Server{
		Addr:              addr,
		Handler:           logRequests(mux, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// === Components ===
	runner := server.NewRunner(svc.EventLog, server.Config{EventRetention: server.DefaultEventRetention}, logger)
	runner.Add("http", func(ctx context.Context) error {
		return serveHTTP(ctx, srv, logger)
	})
	if m != nil {
		metricsSrv := metrics.NewServer(cfg.Server.Host, cfg.Server.MetricsPort, reg, logger)
		runner.Add("metrics-server", metricsSrv.Run)
		runner.Add("metrics-observer", func(ctx context.Context) error {
			return m.Observe(ctx, svc.Bus)
		})
	}
	if cfg.Scan.Watch {
		root := svc.Store.Setting(library.SettingScanPath, cfg.Scan.Path)
		runner.Add("scan-watcher", svc.Watcher(root, cfg.Scan.Debounce, logger).Run)
	}

	logger.Info("server starting",
		"addr", addr,
		"database", cfg.Database.Path,
		"metrics_port", cfg.Server.MetricsPort,
		"watch", cfg.Scan.Watch,
		"log_level", cfg.Log.Level,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := runner.Run(ctx); err != nil {
		return err
	}
	logger.Info("server stopped")
	return nil
}

// serveHTTP runs srv until ctx is done, then shuts it down gracefully.
func serveHTTP(ctx context.Context, srv *http.Server, logger *slog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
