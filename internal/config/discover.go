package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// EnvConfig names the environment variable that overrides discovery.
const EnvConfig = "REELNAME_CONFIG"

// ErrNotFound is returned by Discover when no search path holds a config.
var ErrNotFound = errors.New("config not found")

// DefaultPath is $XDG_CONFIG_HOME/reelname/config.toml, falling back to
// ~/.config and then to the working directory.
func DefaultPath() string {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "config.toml"
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "reelname", "config.toml")
}

// SearchPaths lists the locations Discover checks, in order, when
// REELNAME_CONFIG is unset.
func SearchPaths() []string {
	return []string{"config.toml", DefaultPath(), "/etc/reelname/config.toml"}
}

// Discover returns the first config file that exists. REELNAME_CONFIG wins
// outright and must point at a readable file.
func Discover() (string, error) {
	if p := os.Getenv(EnvConfig); p != "" {
		if _, err := os.Stat(p); err != nil {
			return "", fmt.Errorf("%s=%s: %w", EnvConfig, p, err)
		}
		return p, nil
	}

	paths := SearchPaths()
	for _, p := range paths {
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w (checked %s)", ErrNotFound, strings.Join(paths, ", "))
}
