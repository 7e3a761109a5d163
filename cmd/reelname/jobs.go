package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/sentient-soup/reelname/internal/app"
	"github.com/sentient-soup/reelname/internal/library"
)

func newJobsCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "jobs",
		Aliases: []string{"job", "files"},
		Short:   "List and edit individual files",
	}
	cmd.AddCommand(newJobsListCommand(ctx))
	cmd.AddCommand(newJobsShowCommand(ctx))
	cmd.AddCommand(newJobsUpdateCommand(ctx))
	cmd.AddCommand(newJobsDeleteCommand(ctx))
	return cmd
}

func episodeLabel(j *library.Job) string {
	if j.ParsedSeason == nil && j.ParsedEpisode == nil {
		return "-"
	}
	season, episode := 0, 0
	if j.ParsedSeason != nil {
		season = *j.ParsedSeason
	}
	if j.ParsedEpisode != nil {
		episode = *j.ParsedEpisode
	}
	return fmt.Sprintf("S%02dE%02d", season, episode)
}

func jobProgress(j *library.Job) string {
	if j.TransferProgress == nil {
		return "-"
	}
	return fmt.Sprintf("%.0f%%", *j.TransferProgress*100)
}

func jobsTable(jobs []*library.Job) string {
	rows := make([][]string, 0, len(jobs))
	for _, j := range jobs {
		group := "-"
		if j.GroupID != nil {
			group = strconv.FormatInt(*j.GroupID, 10)
		}
		rows = append(rows, []string{
			strconv.FormatInt(j.ID, 10),
			group,
			string(j.Status),
			string(j.FileCategory),
			episodeLabel(j),
			truncate(j.FileName, 50),
			formatSize(j.FileSize),
			jobProgress(j),
		})
	}
	return renderTable(
		[]string{"ID", "Group", "Status", "Category", "Episode", "File", "Size", "Transfer"},
		rows,
		[]columnAlignment{alignRight, alignRight, alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight},
	)
}

func newJobsListCommand(ctx *commandContext) *cobra.Command {
	var (
		groupID int64
		status  string
		limit   int
		offset  int
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := library.JobFilter{Limit: limit, Offset: offset}
			statuses, err := parseStatuses(status)
			if err != nil {
				return err
			}
			filter.Statuses = statuses
			if cmd.Flags().Changed("group") {
				filter.GroupID = &groupID
			}

			return ctx.withServices(cmd, func(svc *app.Services) error {
				jobs, total, err := svc.Store.ListJobs(filter)
				if err != nil {
					return err
				}
				return ctx.output(cmd, map[string]any{"items": jobs, "total": total}, func(w io.Writer) error {
					if len(jobs) == 0 {
						_, _ = fmt.Fprintln(w, "No files")
						return nil
					}
					_, _ = fmt.Fprintln(w, jobsTable(jobs))
					_, _ = fmt.Fprintf(w, "%d of %d files\n", len(jobs), total)
					return nil
				})
			})
		},
	}
	cmd.Flags().Int64Var(&groupID, "group", 0, "Only files of this group")
	cmd.Flags().StringVar(&status, "status", "", "Filter by status (comma separated)")
	cmd.Flags().IntVar(&limit, "limit", 100, "Maximum rows (0 = all)")
	cmd.Flags().IntVar(&offset, "offset", 0, "Rows to skip")
	return cmd
}

func printJob(w io.Writer, j *library.Job) {
	_, _ = fmt.Fprintf(w, "Job:         %d\n", j.ID)
	_, _ = fmt.Fprintf(w, "Status:      %s\n", j.Status)
	_, _ = fmt.Fprintf(w, "Category:    %s\n", j.FileCategory)
	if j.ExtraType != nil {
		_, _ = fmt.Fprintf(w, "Extra:       %s\n", *j.ExtraType)
	}
	_, _ = fmt.Fprintf(w, "Source:      %s\n", j.SourcePath)
	_, _ = fmt.Fprintf(w, "Size:        %s\n", formatSize(j.FileSize))
	_, _ = fmt.Fprintf(w, "Parsed:      %s (%s) %s\n", orDash(j.ParsedTitle), intOrDash(j.ParsedYear), episodeLabel(j))
	if j.ParsedQuality != nil || j.ParsedCodec != nil {
		_, _ = fmt.Fprintf(w, "Quality:     %s %s\n", orDash(j.ParsedQuality), orDash(j.ParsedCodec))
	}
	if j.TMDBID != nil {
		_, _ = fmt.Fprintf(w, "TMDB:        %s (%s) [%d]\n", orDash(j.TMDBTitle), intOrDash(j.TMDBYear), *j.TMDBID)
	}
	if j.TMDBEpisodeTitle != nil {
		_, _ = fmt.Fprintf(w, "Episode:     %s\n", *j.TMDBEpisodeTitle)
	}
	if j.DestinationPath != nil {
		_, _ = fmt.Fprintf(w, "Destination: %s\n", *j.DestinationPath)
	}
	if j.TransferProgress != nil {
		_, _ = fmt.Fprintf(w, "Transfer:    %s\n", jobProgress(j))
	}
	if j.TransferError != nil {
		_, _ = fmt.Fprintf(w, "Error:       %s\n", *j.TransferError)
	}
}

func newJobsShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <job-id>",
		Short: "Show one file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return ctx.withServices(cmd, func(svc *app.Services) error {
				j, err := svc.Store.GetJob(id)
				if err != nil {
					return fmt.Errorf("job %d: %w", id, err)
				}
				return ctx.output(cmd, j, func(w io.Writer) error {
					printJob(w, j)
					return nil
				})
			})
		},
	}
}

func parseCategory(s string) (library.FileCategory, error) {
	switch c := library.FileCategory(s); c {
	case library.CategoryEpisode, library.CategoryMovie, library.CategorySpecial, library.CategoryExtra:
		return c, nil
	default:
		return "", fmt.Errorf("unknown file category %q", s)
	}
}

func newJobsUpdateCommand(ctx *commandContext) *cobra.Command {
	var (
		status        string
		category      string
		extraType     string
		title         string
		year          int
		season        int
		episode       int
		episodeTitle  string
		destinationID int64
	)
	cmd := &cobra.Command{
		Use:     "update <job-id>",
		Short:   "Correct a file's parsed details",
		Example: `  reelname jobs update 40 --season 2 --episode 7 --episode-title "Pilot"`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("status") && !library.Status(status).Valid() {
				return fmt.Errorf("unknown status %q", status)
			}
			var cat library.FileCategory
			if flags.Changed("category") {
				if cat, err = parseCategory(category); err != nil {
					return err
				}
			}

			return ctx.withServices(cmd, func(svc *app.Services) error {
				j, err := svc.Store.GetJob(id)
				if err != nil {
					return fmt.Errorf("job %d: %w", id, err)
				}
				if flags.Changed("status") {
					j.Status = library.Status(status)
				}
				if cat != "" {
					j.FileCategory = cat
				}
				if flags.Changed("extra-type") {
					et := library.ExtraType(extraType)
					j.ExtraType = &et
				}
				if flags.Changed("title") {
					j.ParsedTitle = &title
				}
				if flags.Changed("year") {
					j.ParsedYear = &year
				}
				if flags.Changed("season") {
					j.ParsedSeason = &season
				}
				if flags.Changed("episode") {
					j.ParsedEpisode = &episode
				}
				if flags.Changed("episode-title") {
					j.TMDBEpisodeTitle = &episodeTitle
				}
				if flags.Changed("destination") {
					j.DestinationID = &destinationID
				}
				if err := svc.Store.UpdateJob(j); err != nil {
					return err
				}
				return ctx.output(cmd, j, func(w io.Writer) error {
					printJob(w, j)
					return nil
				})
			})
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "New status")
	cmd.Flags().StringVar(&category, "category", "", "File category (episode, movie, special, extra)")
	cmd.Flags().StringVar(&extraType, "extra-type", "", "Extra type, e.g. featurettes")
	cmd.Flags().StringVar(&title, "title", "", "Parsed title")
	cmd.Flags().IntVar(&year, "year", 0, "Parsed year")
	cmd.Flags().IntVar(&season, "season", 0, "Season number")
	cmd.Flags().IntVar(&episode, "episode", 0, "Episode number")
	cmd.Flags().StringVar(&episodeTitle, "episode-title", "", "Episode title used for naming")
	cmd.Flags().Int64Var(&destinationID, "destination", 0, "Destination ID")
	return cmd
}

func newJobsDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <job-id>",
		Aliases: []string{"rm"},
		Short:   "Remove a file from the library",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return ctx.withServices(cmd, func(svc *app.Services) error {
				if err := svc.Store.DeleteJob(id); err != nil {
					return fmt.Errorf("job %d: %w", id, err)
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Deleted job %d\n", id)
				return nil
			})
		},
	}
}
