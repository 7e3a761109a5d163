package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sentient-soup/reelname/internal/app"
	"github.com/sentient-soup/reelname/internal/library"
)

func newGroupsCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "groups",
		Aliases: []string{"group"},
		Short:   "List and edit scanned groups",
	}
	cmd.AddCommand(newGroupsListCommand(ctx))
	cmd.AddCommand(newGroupsShowCommand(ctx))
	cmd.AddCommand(newGroupsUpdateCommand(ctx))
	cmd.AddCommand(newGroupsDeleteCommand(ctx))
	cmd.AddCommand(newGroupsCandidatesCommand(ctx))
	cmd.AddCommand(newGroupsPickCommand(ctx))
	return cmd
}

// parseStatuses splits a comma separated status list.
func parseStatuses(s string) ([]library.Status, error) {
	var out []library.Status
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		st := library.Status(part)
		if !st.Valid() {
			return nil, fmt.Errorf("unknown status %q", part)
		}
		out = append(out, st)
	}
	return out, nil
}

func parseMediaType(s string) (library.MediaType, error) {
	switch mt := library.MediaType(strings.ToLower(s)); mt {
	case library.MediaMovie, library.MediaTV, library.MediaUnknown:
		return mt, nil
	default:
		return "", fmt.Errorf("media type must be movie, tv or unknown, got %q", s)
	}
}

func groupTitle(g *library.Group) string {
	switch {
	case g.TMDBTitle != nil:
		return *g.TMDBTitle
	case g.ParsedTitle != nil:
		return *g.ParsedTitle
	default:
		return g.FolderName
	}
}

func groupYear(g *library.Group) *int {
	if g.TMDBYear != nil {
		return g.TMDBYear
	}
	return g.ParsedYear
}

func newGroupsListCommand(ctx *commandContext) *cobra.Command {
	var (
		status    string
		mediaType string
		search    string
		limit     int
		offset    int
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List groups",
		Example: `  reelname groups list --status ambiguous
  reelname groups list --type tv --search office`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := library.GroupFilter{Limit: limit, Offset: offset}
			statuses, err := parseStatuses(status)
			if err != nil {
				return err
			}
			filter.Statuses = statuses
			if mediaType != "" {
				mt, err := parseMediaType(mediaType)
				if err != nil {
					return err
				}
				filter.MediaType = &mt
			}
			if search != "" {
				filter.Search = &search
			}

			return ctx.withServices(cmd, func(svc *app.Services) error {
				groups, total, err := svc.Store.ListGroups(filter)
				if err != nil {
					return err
				}
				return ctx.output(cmd, map[string]any{"items": groups, "total": total}, func(w io.Writer) error {
					if len(groups) == 0 {
						_, _ = fmt.Fprintln(w, "No groups")
						return nil
					}
					rows := make([][]string, 0, len(groups))
					for _, g := range groups {
						rows = append(rows, []string{
							strconv.FormatInt(g.ID, 10),
							string(g.Status),
							string(g.MediaType),
							truncate(groupTitle(g), 40),
							intOrDash(groupYear(g)),
							strconv.Itoa(g.TotalFileCount),
							formatSize(g.TotalFileSize),
							formatConfidence(g.MatchConfidence),
						})
					}
					_, _ = fmt.Fprintln(w, renderTable(
						[]string{"ID", "Status", "Type", "Title", "Year", "Files", "Size", "Confidence"},
						rows,
						[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight},
					))
					_, _ = fmt.Fprintf(w, "%d of %d groups\n", len(groups), total)
					return nil
				})
			})
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "Filter by status (comma separated)")
	cmd.Flags().StringVar(&mediaType, "type", "", "Filter by media type (movie, tv, unknown)")
	cmd.Flags().StringVar(&search, "search", "", "Filter by folder name or title substring")
	cmd.Flags().IntVar(&limit, "limit", 100, "Maximum rows (0 = all)")
	cmd.Flags().IntVar(&offset, "offset", 0, "Rows to skip")
	return cmd
}

func newGroupsShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <group-id>",
		Short: "Show a group and its files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return ctx.withServices(cmd, func(svc *app.Services) error {
				g, err := svc.Store.GetGroup(id)
				if err != nil {
					return fmt.Errorf("group %d: %w", id, err)
				}
				jobs, _, err := svc.Store.ListJobs(library.JobFilter{GroupID: &id})
				if err != nil {
					return err
				}
				detail := struct {
					*library.Group
					Jobs []*library.Job `json:"jobs"`
				}{g, jobs}
				return ctx.output(cmd, detail, func(w io.Writer) error {
					printGroup(w, g)
					if len(jobs) > 0 {
						_, _ = fmt.Fprintln(w)
						_, _ = fmt.Fprintln(w, jobsTable(jobs))
					}
					return nil
				})
			})
		},
	}
}

func printGroup(w io.Writer, g *library.Group) {
	_, _ = fmt.Fprintf(w, "Group:       %d\n", g.ID)
	_, _ = fmt.Fprintf(w, "Status:      %s\n", g.Status)
	_, _ = fmt.Fprintf(w, "Type:        %s\n", g.MediaType)
	_, _ = fmt.Fprintf(w, "Folder:      %s\n", g.FolderPath)
	_, _ = fmt.Fprintf(w, "Parsed:      %s (%s)\n", orDash(g.ParsedTitle), intOrDash(g.ParsedYear))
	if g.TMDBID != nil {
		_, _ = fmt.Fprintf(w, "TMDB:        %s (%s) [%d]\n", orDash(g.TMDBTitle), intOrDash(g.TMDBYear), *g.TMDBID)
	}
	_, _ = fmt.Fprintf(w, "Confidence:  %s\n", formatConfidence(g.MatchConfidence))
	_, _ = fmt.Fprintf(w, "Files:       %d (%s)\n", g.TotalFileCount, formatSize(g.TotalFileSize))
}

func newGroupsUpdateCommand(ctx *commandContext) *cobra.Command {
	var (
		status        string
		mediaType     string
		title         string
		year          int
		destinationID int64
	)
	cmd := &cobra.Command{
		Use:   "update <group-id>",
		Short: "Edit a group",
		Long: `Edit a group's parsed identity, media type, status or destination.

A status change is applied to every file in the group.`,
		Example: `  reelname groups update 12 --title "The Office" --year 2005 --type tv
  reelname groups update 12 --status confirmed`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			var newStatus library.Status
			if flags.Changed("status") {
				newStatus = library.Status(status)
				if !newStatus.Valid() {
					return fmt.Errorf("unknown status %q", status)
				}
			}
			var mt library.MediaType
			if flags.Changed("type") {
				if mt, err = parseMediaType(mediaType); err != nil {
					return err
				}
			}

			return ctx.withServices(cmd, func(svc *app.Services) error {
				tx, err := svc.Store.Begin()
				if err != nil {
					return err
				}
				defer func() { _ = tx.Rollback() }()

				g, err := tx.GetGroup(id)
				if err != nil {
					return fmt.Errorf("group %d: %w", id, err)
				}
				statusChanged := newStatus != "" && newStatus != g.Status
				if mt != "" {
					g.MediaType = mt
				}
				if flags.Changed("title") {
					g.ParsedTitle = &title
				}
				if flags.Changed("year") {
					g.ParsedYear = &year
				}
				if flags.Changed("destination") {
					g.DestinationID = &destinationID
				}
				if err := tx.UpdateGroup(g); err != nil {
					return err
				}
				if statusChanged {
					if err := tx.SetGroupStatus(id, newStatus); err != nil {
						return err
					}
				}
				if err := tx.Commit(); err != nil {
					return err
				}

				g, err = svc.Store.GetGroup(id)
				if err != nil {
					return err
				}
				return ctx.output(cmd, g, func(w io.Writer) error {
					printGroup(w, g)
					return nil
				})
			})
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "New status (cascades to files)")
	cmd.Flags().StringVar(&mediaType, "type", "", "Media type (movie, tv, unknown)")
	cmd.Flags().StringVar(&title, "title", "", "Parsed title used for matching")
	cmd.Flags().IntVar(&year, "year", 0, "Parsed year used for matching")
	cmd.Flags().Int64Var(&destinationID, "destination", 0, "Default destination ID")
	return cmd
}

func newGroupsDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <group-id>",
		Aliases: []string{"rm"},
		Short:   "Remove a group and its files from the library",
		Long:    "Remove a group, its files and its candidates from the library. Files on disk are not touched.",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return ctx.withServices(cmd, func(svc *app.Services) error {
				if err := svc.Store.DeleteGroup(id); err != nil {
					return fmt.Errorf("group %d: %w", id, err)
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Deleted group %d\n", id)
				return nil
			})
		},
	}
}

func newGroupsCandidatesCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "candidates <group-id>",
		Short: "List the scored TMDB candidates of a group",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return ctx.withServices(cmd, func(svc *app.Services) error {
				if _, err := svc.Store.GetGroup(id); err != nil {
					return fmt.Errorf("group %d: %w", id, err)
				}
				cands, err := svc.Store.ListGroupCandidates(id)
				if err != nil {
					return err
				}
				return ctx.output(cmd, cands, func(w io.Writer) error {
					if len(cands) == 0 {
						_, _ = fmt.Fprintln(w, "No candidates")
						return nil
					}
					rows := make([][]string, 0, len(cands))
					for _, c := range cands {
						rows = append(rows, []string{
							strconv.FormatInt(c.ID, 10),
							strconv.Itoa(c.Rank),
							strconv.FormatInt(c.TMDBID, 10),
							string(c.MediaType),
							truncate(c.Title, 40),
							intOrDash(c.Year),
							formatConfidence(&c.Confidence),
						})
					}
					_, _ = fmt.Fprintln(w, renderTable(
						[]string{"ID", "Rank", "TMDB", "Type", "Title", "Year", "Confidence"},
						rows,
						[]columnAlignment{alignRight, alignRight, alignRight, alignLeft, alignLeft, alignRight, alignRight},
					))
					return nil
				})
			})
		},
	}
}

func newGroupsPickCommand(ctx *commandContext) *cobra.Command {
	var (
		tmdbID    int64
		title     string
		year      int
		mediaType string
	)
	cmd := &cobra.Command{
		Use:   "pick <group-id> [candidate-id]",
		Short: "Apply a candidate or a manual TMDB entry to a group",
		Example: `  reelname groups pick 12 81
  reelname groups pick 12 --tmdb-id 2316 --title "The Office" --year 2005 --type tv`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return ctx.withServices(cmd, func(svc *app.Services) error {
				switch {
				case len(args) == 2:
					candidateID, err := parseID(args[1])
					if err != nil {
						return err
					}
					err = svc.Store.ApplyCandidate(id, candidateID)
					if err != nil {
						return fmt.Errorf("pick: %w", err)
					}
				case tmdbID > 0:
					mt := library.MediaType(mediaType)
					if title == "" || (mt != library.MediaMovie && mt != library.MediaTV) {
						return fmt.Errorf("--title and --type (movie or tv) are required with --tmdb-id")
					}
					m := library.Match{TMDBID: tmdbID, Title: title, Confidence: 1, MediaType: mt}
					if cmd.Flags().Changed("year") {
						m.Year = &year
					}
					if err := svc.Store.ApplyGroupMatch(id, m); err != nil {
						return fmt.Errorf("pick: %w", err)
					}
				default:
					return fmt.Errorf("a candidate ID or --tmdb-id is required")
				}

				g, err := svc.Store.GetGroup(id)
				if err != nil {
					return err
				}
				return ctx.output(cmd, g, func(w io.Writer) error {
					printGroup(w, g)
					return nil
				})
			})
		},
	}
	cmd.Flags().Int64Var(&tmdbID, "tmdb-id", 0, "TMDB ID found with 'reelname search'")
	cmd.Flags().StringVar(&title, "title", "", "Title for --tmdb-id")
	cmd.Flags().IntVar(&year, "year", 0, "Year for --tmdb-id")
	cmd.Flags().StringVar(&mediaType, "type", "", "Media type for --tmdb-id (movie or tv)")
	return cmd
}
