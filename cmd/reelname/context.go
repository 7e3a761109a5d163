package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/sentient-soup/reelname/internal/app"
	"github.com/sentient-soup/reelname/internal/config"
)

// commandContext carries the global flags and lazily loads the config.
type commandContext struct {
	configFlag *string
	jsonFlag   *bool
	verbose    *bool

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string, jsonFlag, verbose *bool) *commandContext {
	return &commandContext{configFlag: configFlag, jsonFlag: jsonFlag, verbose: verbose}
}

func (c *commandContext) configPath() (string, error) {
	if c.configFlag != nil {
		if path := strings.TrimSpace(*c.configFlag); path != "" {
			return path, nil
		}
	}
	return config.Discover()
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		path, err := c.configPath()
		if err != nil {
			c.configErr = fmt.Errorf("%w (run 'reelname init' to create one)", err)
			return
		}
		c.config, c.configErr = config.Load(path)
		if errors.Is(c.configErr, config.ErrInvalid) {
			c.configErr = fmt.Errorf("%w\n(run 'reelname config test' for a full report)", c.configErr)
		}
	})
	return c.config, c.configErr
}

func (c *commandContext) json() bool {
	return c.jsonFlag != nil && *c.jsonFlag
}

// logger writes to stderr so command output stays clean on stdout.
func (c *commandContext) logger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelWarn
	if c.verbose != nil && *c.verbose {
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
}

// withServices opens the database named by the config, runs fn and closes
// everything again.
func (c *commandContext) withServices(cmd *cobra.Command, fn func(*app.Services) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	svc, err := app.Open(cfg, app.Options{Logger: c.logger(cmd)})
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()
	return fn(svc)
}

// output writes v as JSON when --json is set, otherwise calls human.
func (c *commandContext) output(cmd *cobra.Command, v any, human func(w io.Writer) error) error {
	if c.json() {
		return writeJSON(cmd, v)
	}
	return human(cmd.OutOrStdout())
}
