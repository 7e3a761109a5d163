package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/sentient-soup/reelname/internal/config"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "test [path]",
		Short: "Validate configuration file",
		Long:  "Validates config.toml syntax, required fields and environment variable substitution without opening the database.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var path string
			if len(args) > 0 {
				path = args[0]
			} else {
				var err error
				if path, err = ctx.configPath(); err != nil {
					return err
				}
			}
			return runConfigTest(cmd.OutOrStdout(), path)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show which config file is used and where reelname looks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigPath(ctx, cmd)
		},
	})
	return cmd
}

type configPathResult struct {
	Active   string   `json:"active,omitempty"`
	Error    string   `json:"error,omitempty"`
	Searched []string `json:"searched"`
}

func runConfigPath(ctx *commandContext, cmd *cobra.Command) error {
	res := configPathResult{Searched: config.SearchPaths()}
	if env := os.Getenv(config.EnvConfig); env != "" {
		res.Searched = []string{config.EnvConfig + "=" + env}
	}
	path, err := ctx.configPath()
	if err != nil {
		res.Error = err.Error()
	} else {
		res.Active = path
	}

	return ctx.output(cmd, res, func(w io.Writer) error {
		if res.Active != "" {
			_, _ = fmt.Fprintf(w, "Using %s\n", res.Active)
		} else {
			_, _ = fmt.Fprintln(w, "No config file found (run 'reelname init' to create one)")
		}
		_, _ = fmt.Fprintln(w, "Search order:")
		for i, p := range res.Searched {
			_, _ = fmt.Fprintf(w, "  %d. %s\n", i+1, p)
		}
		return nil
	})
}

func runConfigTest(w io.Writer, path string) error {
	_, _ = fmt.Fprintf(w, "Validating %s...\n\n", path)

	cfg, err := config.Load(path)
	if err != nil {
		var configErr *config.ConfigError
		if errors.As(err, &configErr) {
			printConfigErrors(w, configErr)
			return fmt.Errorf("configuration invalid")
		}
		return fmt.Errorf("failed to load config: %w", err)
	}

	printConfigSummary(w, cfg)
	_, _ = fmt.Fprintln(w, "\nConfiguration valid!")
	return nil
}

func printConfigErrors(w io.Writer, e *config.ConfigError) {
	if len(e.Missing) > 0 {
		_, _ = fmt.Fprintln(w, "Missing environment variables:")
		for _, m := range e.Missing {
			_, _ = fmt.Fprintf(w, "  - %s\n", m)
		}
		_, _ = fmt.Fprintln(w)
	}

	if len(e.Errors) > 0 {
		_, _ = fmt.Fprintln(w, "Validation errors:")
		for _, err := range e.Errors {
			_, _ = fmt.Fprintf(w, "  - %s\n", err)
		}
		_, _ = fmt.Fprintln(w)
	}
}

func printConfigSummary(w io.Writer, cfg *config.Config) {
	_, _ = fmt.Fprintln(w, "Configuration Summary:")
	_, _ = fmt.Fprintf(w, "  Server:     %s:%d (log: %s)\n", cfg.Server.Host, cfg.Server.Port, cfg.Log.Level)
	_, _ = fmt.Fprintf(w, "  Database:   %s\n", cfg.Database.Path)
	if cfg.Server.MetricsPort > 0 {
		_, _ = fmt.Fprintf(w, "  Metrics:    port %d\n", cfg.Server.MetricsPort)
	}
	_, _ = fmt.Fprintf(w, "  TMDB key:   %s\n", yesNo(cfg.TMDB.APIKey != ""))
	_, _ = fmt.Fprintf(w, "  Transfers:  %d concurrent, %s chunks\n", cfg.Transfer.MaxConcurrent, formatSize(int64(cfg.Transfer.ChunkSize)))
	if cfg.Scan.Path != "" {
		_, _ = fmt.Fprintf(w, "  Scan path:  %s (watch: %s)\n", cfg.Scan.Path, yesNo(cfg.Scan.Watch))
	}
}
