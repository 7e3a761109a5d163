package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sentient-soup/reelname/internal/library"
)

type cliTestEnv struct {
	dir        string
	configPath string
	dbPath     string
}

// setupCLITestEnv writes a config whose database lives in a temp dir.
// tmdbURL may be empty.
func setupCLITestEnv(t *testing.T, tmdbURL string) *cliTestEnv {
	t.Helper()
	dir := t.TempDir()
	env := &cliTestEnv{
		dir:        dir,
		configPath: filepath.Join(dir, "config.toml"),
		dbPath:     filepath.Join(dir, "data", "reelname.db"),
	}
	if tmdbURL == "" {
		tmdbURL = "http://127.0.0.1:1"
	}
	content := fmt.Sprintf(`[database]
path = %q

[log]
level = "warn"

[tmdb]
base_url = %q
rate_limit = 100
rate_window = "1s"
`, env.dbPath, tmdbURL)
	require.NoError(t, os.WriteFile(env.configPath, []byte(content), 0644))
	return env
}

// runCLI executes the root command against env and returns stdout.
func runCLI(t *testing.T, env *cliTestEnv, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	if env != nil {
		args = append([]string{"--config", env.configPath}, args...)
	}
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), err
}

// mustRunCLI is runCLI that fails the test on error.
func mustRunCLI(t *testing.T, env *cliTestEnv, args ...string) string {
	t.Helper()
	out, err := runCLI(t, env, args...)
	require.NoError(t, err, "reelname %v", args)
	return out
}

// openStore opens the env database directly for assertions.
func openStore(t *testing.T, env *cliTestEnv) *library.Store {
	t.Helper()
	db, err := library.Open(env.dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return library.NewStore(db)
}

// writeMedia creates root/folder/file with a few bytes of content.
func writeMedia(t *testing.T, root, folder, file string) string {
	t.Helper()
	dir := filepath.Join(root, folder)
	require.NoError(t, os.MkdirAll(dir, 0755))
	path := filepath.Join(dir, file)
	require.NoError(t, os.WriteFile(path, []byte("video bytes"), 0644))
	return path
}
