package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/sentient-soup/reelname/internal/app"
	"github.com/sentient-soup/reelname/internal/matcher"
)

func newScanCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "scan [path]",
		Short: "Scan a folder into the library and auto-match new groups",
		Long: `Scan a folder of video files into the library.

Each top-level folder becomes a group. Folders already in the library are
skipped. When a TMDB API key is configured, new groups are matched
immediately.

Without a path, the scan_path setting is used.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var root string
			if len(args) > 0 {
				root = args[0]
			}
			return ctx.withServices(cmd, func(svc *app.Services) error {
				res, err := svc.Ingester.Ingest(cmd.Context(), root)
				if err != nil {
					return fmt.Errorf("scan: %w", err)
				}
				return ctx.output(cmd, res, func(w io.Writer) error {
					_, _ = fmt.Fprintf(w, "Scanned %d groups: %d added (%d files), %d already known\n",
						res.ScannedGroups, res.AddedGroups, res.AddedFiles, res.SkippedGroups)
					if res.MatchError != "" {
						_, _ = fmt.Fprintf(w, "Matching: %s\n", res.MatchError)
					} else {
						_, _ = fmt.Fprintf(w, "Matched %d, ambiguous %d\n", res.Matched, res.Ambiguous)
					}
					return nil
				})
			})
		},
	}
}

func newMatchCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "match [group-id]",
		Short: "Match unmatched groups against TMDB",
		Long: `Match groups against TMDB.

Without arguments every scanned group is matched. With a group ID only
that group is (re)matched, whatever its current status.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withServices(cmd, func(svc *app.Services) error {
				if !svc.Catalog.HasAPIKey() {
					return fmt.Errorf("no TMDB API key configured; run 'reelname settings set tmdb_api_key <key>'")
				}
				if len(args) == 0 {
					res, err := svc.Matcher.MatchAll(cmd.Context())
					if err != nil {
						return fmt.Errorf("match: %w", err)
					}
					return ctx.output(cmd, res, func(w io.Writer) error {
						_, _ = fmt.Fprintf(w, "Matched %d, ambiguous %d\n", res.Matched, res.Ambiguous)
						return nil
					})
				}

				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				g, err := svc.Store.GetGroup(id)
				if err != nil {
					return fmt.Errorf("group %d: %w", id, err)
				}
				outcome, err := svc.Matcher.MatchGroup(cmd.Context(), g)
				if err != nil {
					return fmt.Errorf("match group %d: %w", id, err)
				}
				matched := outcome == matcher.OutcomeMatched
				return ctx.output(cmd, map[string]any{"group_id": id, "matched": matched}, func(w io.Writer) error {
					if matched {
						_, _ = fmt.Fprintf(w, "Group %d matched\n", id)
					} else {
						_, _ = fmt.Fprintf(w, "Group %d is ambiguous; see 'reelname groups candidates %d'\n", id, id)
					}
					return nil
				})
			})
		},
	}
}
