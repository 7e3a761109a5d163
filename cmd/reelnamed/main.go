package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sentient-soup/reelname/internal/config"
)

var version = "dev"

func newRootCommand() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:           "reelnamed",
		Short:         "Serve the reelname API, scan watcher and transfer queue",
		Version:       version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := resolveConfigPath(configPath)
			if errors.Is(err, config.ErrNotFound) {
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v; using built-in defaults\n", err)
			} else if err != nil {
				return err
			}
			return runServer(path)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to config file (discovered when empty)")
	cmd.SetVersionTemplate("reelnamed {{.Version}}\n")
	return cmd
}

// resolveConfigPath returns flag when set, otherwise the discovered path. An
// empty path with config.ErrNotFound means no file exists anywhere.
func resolveConfigPath(flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	return config.Discover()
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
