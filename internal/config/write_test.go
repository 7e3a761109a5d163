package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reelname", "config.toml")
	require.NoError(t, WriteDefault(path, false))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	for _, section := range []string{"[database]", "[log]", "[server]", "[tmdb]", "[transfer]", "[scan]"} {
		assert.Contains(t, string(content), section)
	}
	assert.Contains(t, string(content), "${TMDB_API_KEY:-}")
}

func TestWriteDefault_LoadsClean(t *testing.T) {
	t.Setenv("TMDB_API_KEY", "from-env")
	t.Setenv("REELNAME_DATA", "/var/lib/reelname")
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, WriteDefault(path, false))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.TMDB.APIKey)
	assert.Equal(t, "/var/lib/reelname/reelname.db", cfg.Database.Path)
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
}

func TestWriteDefault_LoadsWithoutEnvironment(t *testing.T) {
	t.Setenv("TMDB_API_KEY", "")
	t.Setenv("REELNAME_DATA", "")
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, WriteDefault(path, false))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Empty(t, cfg.TMDB.APIKey)
	assert.Equal(t, "./data/reelname.db", cfg.Database.Path)
	assert.Equal(t, DefaultPort, cfg.Server.Port)
}

func TestWriteDefault_Overwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("# mine\n"), 0o644))

	err := WriteDefault(path, false)
	require.ErrorIs(t, err, ErrExists)
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "# mine\n", string(content), "existing file untouched")

	require.NoError(t, WriteDefault(path, true))
	content, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "[database]")
}
