package config

import (
	"fmt"
	"net/url"
	"os"
)

var validLogLevels = map[string]bool{
	"debug": true, "info": true, "warn": true, "error": true, "": true,
}

// Validate checks the configuration for errors.
// Returns a slice of error messages (empty if valid).
func (c *Config) Validate() []string {
	var errs []string

	if c.Server.Port != 0 && (c.Server.Port < 1 || c.Server.Port > 65535) {
		errs = append(errs, fmt.Sprintf("server.port: must be between 1 and 65535, got %d", c.Server.Port))
	}
	if c.Server.MetricsPort < 0 || c.Server.MetricsPort > 65535 {
		errs = append(errs, fmt.Sprintf("server.metrics_port: must be between 0 and 65535, got %d", c.Server.MetricsPort))
	}
	if c.Server.MetricsPort != 0 && c.Server.MetricsPort == c.Server.Port {
		errs = append(errs, "server.metrics_port: must differ from server.port")
	}

	if !validLogLevels[c.Log.Level] {
		errs = append(errs, fmt.Sprintf("log.level: must be one of debug, info, warn, error; got %q", c.Log.Level))
	}
	if c.Log.MaxSizeMB < 0 {
		errs = append(errs, "log.max_size_mb: must not be negative")
	}
	if c.Log.MaxBackups < 0 {
		errs = append(errs, "log.max_backups: must not be negative")
	}

	if c.TMDB.BaseURL != "" {
		if u, err := url.Parse(c.TMDB.BaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = append(errs, fmt.Sprintf("tmdb.base_url: must be an http(s) URL, got %q", c.TMDB.BaseURL))
		}
	}
	if c.TMDB.RateLimit < 0 {
		errs = append(errs, "tmdb.rate_limit: must not be negative")
	}
	if c.TMDB.RateWindow < 0 {
		errs = append(errs, "tmdb.rate_window: must not be negative")
	}

	if c.Transfer.MaxConcurrent < 0 {
		errs = append(errs, "transfer.max_concurrent: must not be negative")
	}
	if c.Transfer.ChunkSize < 0 {
		errs = append(errs, "transfer.chunk_size: must not be negative")
	}

	if c.Scan.Watch {
		if c.Scan.Path == "" {
			errs = append(errs, "scan.path: required when scan.watch is enabled")
		} else if info, err := os.Stat(c.Scan.Path); err != nil || !info.IsDir() {
			errs = append(errs, fmt.Sprintf("scan.path: directory %q does not exist", c.Scan.Path))
		}
	}
	if c.Scan.Debounce < 0 {
		errs = append(errs, "scan.debounce: must not be negative")
	}

	return errs
}
