package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sentient-soup/reelname/internal/config"
)

func newInitCommand() *cobra.Command {
	var (
		path  string
		force bool
	)
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a sample configuration file",
		Long: `Write the sample configuration to the default location
($XDG_CONFIG_HOME/reelname/config.toml) or to --path.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if path == "" {
				path = config.DefaultPath()
			}
			if err := config.WriteDefault(path, force); err != nil {
				if errors.Is(err, config.ErrExists) {
					return fmt.Errorf("%s already exists; use --force to overwrite", path)
				}
				return fmt.Errorf("write config: %w", err)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Wrote sample configuration to %s\n", path)
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Next: reelname settings set tmdb_api_key <key>")
			return nil
		},
	}
	cmd.Flags().StringVar(&path, "path", "", "Where to write the config")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")
	return cmd
}
