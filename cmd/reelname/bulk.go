package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/sentient-soup/reelname/internal/app"
	"github.com/sentient-soup/reelname/internal/library"
)

func newBulkCommand(ctx *commandContext) *cobra.Command {
	var groupIDs, jobIDs []int64
	cmd := &cobra.Command{
		Use:   "bulk <confirm|skip|delete|rematch>",
		Short: "Apply one action to many groups and files",
		Long: `Apply one action to many groups and files in a single transaction.

Confirming or skipping a group applies to all of its files. Rematch
clears the TMDB identity so the next 'reelname match' starts over.`,
		Example: `  reelname bulk confirm --groups 3,4,9
  reelname bulk rematch --groups 12 --jobs 40,41`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			action, err := library.ParseAction(args[0])
			if err != nil {
				return err
			}
			if len(groupIDs) == 0 && len(jobIDs) == 0 {
				return fmt.Errorf("nothing selected; pass --groups or --jobs")
			}
			return ctx.withServices(cmd, func(svc *app.Services) error {
				n, err := svc.Store.BulkAction(action, groupIDs, jobIDs)
				if err != nil {
					return fmt.Errorf("bulk %s: %w", action, err)
				}
				return ctx.output(cmd, map[string]int{"affected": n}, func(w io.Writer) error {
					_, _ = fmt.Fprintf(w, "%s: %d affected\n", action, n)
					return nil
				})
			})
		},
	}
	cmd.Flags().Int64SliceVar(&groupIDs, "groups", nil, "Group IDs (comma separated)")
	cmd.Flags().Int64SliceVar(&jobIDs, "jobs", nil, "Job IDs (comma separated)")
	return cmd
}
