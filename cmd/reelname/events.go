package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sentient-soup/reelname/internal/app"
	"github.com/sentient-soup/reelname/internal/events"
)

// describeEvent renders a one-line summary of a decoded event.
func describeEvent(e events.Event) string {
	switch ev := e.(type) {
	case *events.ScanCompleted:
		return fmt.Sprintf("%d groups added (%d files), %d skipped in %s", ev.GroupsAdded, ev.JobsAdded, ev.GroupsSkipped, ev.Root)
	case *events.GroupMatched:
		return fmt.Sprintf("group %d matched %s [%d] at %s", ev.GroupID, ev.Title, ev.TMDBID, formatConfidence(&ev.Confidence))
	case *events.GroupAmbiguous:
		msg := fmt.Sprintf("group %d ambiguous: %d candidates, best %s", ev.GroupID, ev.Candidates, formatConfidence(&ev.TopScore))
		if ev.Reason != "" {
			msg += " (" + ev.Reason + ")"
		}
		return msg
	case *events.MatchCompleted:
		return fmt.Sprintf("match pass: %d matched, %d ambiguous", ev.Matched, ev.Ambiguous)
	case *events.TransferQueued:
		return fmt.Sprintf("batch %s queued %d files for destination %d", shortID(ev.BatchID), len(ev.JobIDs), ev.DestinationID)
	case *events.TransferProgressed:
		if ev.Error != "" {
			return fmt.Sprintf("job %d %s: %s", ev.JobID, ev.Status, ev.Error)
		}
		return fmt.Sprintf("job %d %s %s", ev.JobID, ev.Status, ev.DestinationPath)
	case *events.TransferFinished:
		return fmt.Sprintf("batch %s finished: %d of %d completed, %d failed", shortID(ev.BatchID), ev.Completed, ev.Queued, ev.Failed)
	default:
		return e.EventType()
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func newEventsCommand(ctx *commandContext) *cobra.Command {
	var (
		groupID int64
		types   string
		limit   int
	)
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Show recent scan, match and transfer history",
		Example: `  reelname events --limit 50
  reelname events --group 12
  reelname events --type transfer.finished`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			q := events.Query{Limit: limit, NewestFirst: true}
			for _, t := range strings.Split(types, ",") {
				if t = strings.TrimSpace(t); t != "" {
					q.Types = append(q.Types, t)
				}
			}
			if cmd.Flags().Changed("group") {
				q.EntityType, q.EntityID = events.EntityGroup, groupID
			}

			return ctx.withServices(cmd, func(svc *app.Services) error {
				raw, err := svc.EventLog.Find(q)
				if err != nil {
					return err
				}
				decoded, err := events.DefaultRegistry().Decode(raw)
				if err != nil {
					ctx.logger(cmd).Warn("skipped stored events", "error", err)
				}

				return ctx.output(cmd, decoded, func(w io.Writer) error {
					if len(decoded) == 0 {
						_, _ = fmt.Fprintln(w, "No events")
						return nil
					}
					rows := make([][]string, 0, len(decoded))
					for _, ev := range decoded {
						rows = append(rows, []string{
							ev.OccurredAt().Local().Format("2006-01-02 15:04:05"),
							ev.EventType(),
							truncate(describeEvent(ev), 90),
						})
					}
					_, _ = fmt.Fprintln(w, renderTable([]string{"When", "Event", "Detail"}, rows, nil))
					return nil
				})
			})
		},
	}
	cmd.Flags().Int64Var(&groupID, "group", 0, "Only events about this group")
	cmd.Flags().StringVar(&types, "type", "", "Only these event types (comma separated)")
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum events (0 = all)")
	return cmd
}
