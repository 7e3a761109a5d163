// Package config handles TOML configuration loading with environment variable substitution.
package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Config is the root configuration structure.
type Config struct {
	Database DatabaseConfig `toml:"database"`
	Log      LogConfig      `toml:"log"`
	Server   ServerConfig   `toml:"server"`
	TMDB     TMDBConfig     `toml:"tmdb"`
	Transfer TransferConfig `toml:"transfer"`
	Scan     ScanConfig     `toml:"scan"`
}

type DatabaseConfig struct {
	Path string `toml:"path"`
}

type LogConfig struct {
	Level      string `toml:"level"`
	File       string `toml:"file"` // rotated log file, stderr only when empty
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
}

type ServerConfig struct {
	Host        string `toml:"host"`
	Port        int    `toml:"port"`
	MetricsPort int    `toml:"metrics_port"` // 0 disables the metrics server
}

type TMDBConfig struct {
	APIKey     string        `toml:"api_key"`
	BaseURL    string        `toml:"base_url"`
	RateLimit  int           `toml:"rate_limit"`
	RateWindow time.Duration `toml:"rate_window"`
	CacheTTL   time.Duration `toml:"cache_ttl"`
}

type TransferConfig struct {
	MaxConcurrent int `toml:"max_concurrent"`
	ChunkSize     int `toml:"chunk_size"`
}

type ScanConfig struct {
	Path     string        `toml:"path"`
	Watch    bool          `toml:"watch"`
	Debounce time.Duration `toml:"debounce"`
}

// Defaults.
const (
	DefaultDBPath        = "./data/reelname.db"
	DefaultHost          = "0.0.0.0"
	DefaultPort          = 8585
	DefaultLogLevel      = "info"
	DefaultLogMaxSizeMB  = 50
	DefaultLogMaxBackups = 3
	DefaultTMDBBaseURL   = "https://api.themoviedb.org"
	DefaultRateLimit     = 35
	DefaultRateWindow    = 10 * time.Second
	DefaultCacheTTL      = 24 * time.Hour
	DefaultMaxConcurrent = 2
	DefaultChunkSize     = 256 * 1024
	DefaultScanDebounce  = 5 * time.Second
)

// Load reads, substitutes, parses and validates the configuration file.
// Unresolved variables and validation failures come back as *ConfigError.
func Load(path string) (*Config, error) {
	cfg, err := LoadWithoutValidation(path)
	if err != nil {
		return nil, err
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, &ConfigError{Path: path, Errors: errs}
	}
	return cfg, nil
}

// LoadWithoutValidation loads the configuration and applies defaults without
// validating it. Unresolved environment variables are still an error.
func LoadWithoutValidation(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	content, missing := substituteEnvVars(string(data))
	if len(missing) > 0 {
		return nil, &ConfigError{Path: path, Missing: missing}
	}

	var cfg Config
	if _, err := toml.Decode(content, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

// Default returns a configuration with every default applied.
func Default() *Config {
	var cfg Config
	cfg.applyDefaults()
	return &cfg
}

func (c *Config) applyDefaults() {
	if c.Database.Path == "" {
		c.Database.Path = DefaultDBPath
	}
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	if c.Log.MaxSizeMB == 0 {
		c.Log.MaxSizeMB = DefaultLogMaxSizeMB
	}
	if c.Log.MaxBackups == 0 {
		c.Log.MaxBackups = DefaultLogMaxBackups
	}
	if c.Server.Host == "" {
		c.Server.Host = DefaultHost
	}
	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}
	if c.TMDB.BaseURL == "" {
		c.TMDB.BaseURL = DefaultTMDBBaseURL
	}
	if c.TMDB.RateLimit == 0 {
		c.TMDB.RateLimit = DefaultRateLimit
	}
	if c.TMDB.RateWindow == 0 {
		c.TMDB.RateWindow = DefaultRateWindow
	}
	if c.TMDB.CacheTTL == 0 {
		c.TMDB.CacheTTL = DefaultCacheTTL
	}
	if c.Transfer.MaxConcurrent == 0 {
		c.Transfer.MaxConcurrent = DefaultMaxConcurrent
	}
	if c.Transfer.ChunkSize == 0 {
		c.Transfer.ChunkSize = DefaultChunkSize
	}
	if c.Scan.Debounce == 0 {
		c.Scan.Debounce = DefaultScanDebounce
	}
}

// envVarPattern matches ${VAR}, ${VAR:-default} and ${VAR:?message}.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?:(:-|:\?)([^}]*))?\}`)

// substituteEnvVars expands environment references in content. References
// that cannot be resolved are left in place and reported in missing; a
// ${VAR:?message} reference reports "VAR: message". Text after a TOML
// comment marker is copied unchanged.
func substituteEnvVars(content string) (string, []string) {
	var missing []string
	lines := strings.SplitAfter(content, "\n")
	for i, line := range lines {
		cut := commentStart(line)
		code, rest := line[:cut], line[cut:]
		var m []string
		code, m = expandLine(code)
		missing = append(missing, m...)
		lines[i] = code + rest
	}
	return strings.Join(lines, ""), missing
}

// commentStart returns the index of the first # outside a TOML string, or
// len(line) when the line has no comment.
func commentStart(line string) int {
	var quote byte
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case quote == '"' && c == '\\':
			i++
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '#':
			return i
		}
	}
	return len(line)
}

func expandLine(content string) (string, []string) {
	var missing []string
	out := envVarPattern.ReplaceAllStringFunc(content, func(match string) string {
		m := envVarPattern.FindStringSubmatch(match)
		name, op, arg := m[1], m[2], m[3]
		value, ok := os.LookupEnv(name)

		switch op {
		case ":-":
			if value == "" {
				return arg
			}
			return value
		case ":?":
			if value == "" {
				missing = append(missing, name+": "+strings.TrimSpace(arg))
				return match
			}
			return value
		}
		if !ok {
			missing = append(missing, name)
			return match
		}
		return value
	})
	return out, missing
}

// SettingSeeds returns the configured values that should populate empty
// runtime settings on startup, keyed by setting name.
func (c *Config) SettingSeeds() map[string]string {
	seeds := make(map[string]string)
	if c.TMDB.APIKey != "" {
		seeds["tmdb_api_key"] = c.TMDB.APIKey
	}
	if c.Scan.Path != "" {
		seeds["scan_path"] = c.Scan.Path
	}
	return seeds
}
