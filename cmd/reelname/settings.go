package main

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sentient-soup/reelname/internal/app"
	"github.com/sentient-soup/reelname/internal/library"
)

func newSettingsCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "settings",
		Aliases: []string{"setting"},
		Short:   "Show and change runtime settings",
		Long: `Show and change the settings stored in the library database.

Keys: scan_path, tmdb_api_key, auto_match_threshold, naming_preset,
specials_folder_name, extras_folder_name.`,
	}
	cmd.AddCommand(newSettingsListCommand(ctx))
	cmd.AddCommand(newSettingsGetCommand(ctx))
	cmd.AddCommand(newSettingsSetCommand(ctx))
	return cmd
}

// maskSecret hides all but the last four characters of a key.
func maskSecret(s string) string {
	if len(s) <= 4 {
		return strings.Repeat("*", len(s))
	}
	return strings.Repeat("*", len(s)-4) + s[len(s)-4:]
}

func newSettingsListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withServices(cmd, func(svc *app.Services) error {
				all, err := svc.Store.AllSettings()
				if err != nil {
					return err
				}
				if key, ok := all[library.SettingTMDBAPIKey]; ok {
					all[library.SettingTMDBAPIKey] = maskSecret(key)
				}
				return ctx.output(cmd, all, func(w io.Writer) error {
					keys := make([]string, 0, len(all))
					for k := range all {
						keys = append(keys, k)
					}
					sort.Strings(keys)
					rows := make([][]string, 0, len(keys))
					for _, k := range keys {
						rows = append(rows, []string{k, all[k]})
					}
					_, _ = fmt.Fprintln(w, renderTable([]string{"Key", "Value"}, rows, nil))
					return nil
				})
			})
		},
	}
}

func newSettingsGetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Print one setting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withServices(cmd, func(svc *app.Services) error {
				v, err := svc.Store.GetSetting(args[0])
				if err != nil {
					return fmt.Errorf("setting %s: %w", args[0], err)
				}
				return ctx.output(cmd, map[string]string{args[0]: v}, func(w io.Writer) error {
					_, _ = fmt.Fprintln(w, v)
					return nil
				})
			})
		},
	}
}

func newSettingsSetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:     "set <key> <value>",
		Short:   "Change one setting",
		Example: `  reelname settings set auto_match_threshold 0.9`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, value := args[0], args[1]
			if err := library.ValidateSetting(key, value); err != nil {
				return err
			}
			return ctx.withServices(cmd, func(svc *app.Services) error {
				if err := svc.Store.SetSetting(key, value); err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s updated\n", key)
				return nil
			})
		},
	}
}
