package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sentient-soup/reelname/internal/app"
	"github.com/sentient-soup/reelname/internal/tmdb"
)

func newSearchCommand(ctx *commandContext) *cobra.Command {
	var (
		year      int
		mediaType string
	)
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search TMDB for a title",
		Example: `  reelname search "Amelie" --year 2001
  reelname search "The Office" --type tv`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			var yearPtr *int
			if cmd.Flags().Changed("year") {
				yearPtr = &year
			}
			return ctx.withServices(cmd, func(svc *app.Services) error {
				var (
					results []tmdb.SearchResult
					err     error
				)
				switch mediaType {
				case "", "multi":
					results, err = svc.Catalog.SearchMulti(cmd.Context(), query, yearPtr)
				case "movie":
					results, err = svc.Catalog.SearchMovies(cmd.Context(), query, yearPtr)
				case "tv":
					results, err = svc.Catalog.SearchTV(cmd.Context(), query, yearPtr)
				default:
					return fmt.Errorf("type must be multi, movie or tv, got %q", mediaType)
				}
				if err != nil {
					return fmt.Errorf("search: %w", err)
				}
				return ctx.output(cmd, results, func(w io.Writer) error {
					if len(results) == 0 {
						_, _ = fmt.Fprintln(w, "No results")
						return nil
					}
					rows := make([][]string, 0, len(results))
					for _, r := range results {
						rows = append(rows, []string{
							strconv.FormatInt(r.ID, 10),
							r.MediaType,
							truncate(r.DisplayTitle(), 50),
							intOrDash(r.Year()),
							fmt.Sprintf("%.1f", r.Popularity),
						})
					}
					_, _ = fmt.Fprintln(w, renderTable(
						[]string{"TMDB", "Type", "Title", "Year", "Popularity"},
						rows,
						[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignRight},
					))
					return nil
				})
			})
		},
	}
	cmd.Flags().IntVar(&year, "year", 0, "Release or first air year")
	cmd.Flags().StringVar(&mediaType, "type", "multi", "multi, movie or tv")
	return cmd
}

func newSeasonsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "seasons <tmdb-tv-id> [season]",
		Short: "List a show's seasons, or one season's episodes",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			tvID, err := parseID(args[0])
			if err != nil {
				return err
			}
			return ctx.withServices(cmd, func(svc *app.Services) error {
				if len(args) == 1 {
					seasons, err := svc.Catalog.GetSeasons(cmd.Context(), tvID)
					if err != nil {
						return fmt.Errorf("seasons: %w", err)
					}
					return ctx.output(cmd, seasons, func(w io.Writer) error {
						rows := make([][]string, 0, len(seasons))
						for _, s := range seasons {
							rows = append(rows, []string{
								strconv.Itoa(s.SeasonNumber),
								s.Name,
								strconv.Itoa(s.EpisodeCount),
								s.AirDate,
							})
						}
						_, _ = fmt.Fprintln(w, renderTable(
							[]string{"Season", "Name", "Episodes", "Aired"},
							rows,
							[]columnAlignment{alignRight, alignLeft, alignRight, alignLeft},
						))
						return nil
					})
				}

				number, err := strconv.Atoi(args[1])
				if err != nil || number < 0 {
					return fmt.Errorf("invalid season: %q", args[1])
				}
				season, err := svc.Catalog.GetSeason(cmd.Context(), tvID, number)
				if err != nil {
					return fmt.Errorf("season %d: %w", number, err)
				}
				return ctx.output(cmd, season, func(w io.Writer) error {
					rows := make([][]string, 0, len(season.Episodes))
					for _, e := range season.Episodes {
						rows = append(rows, []string{
							strconv.Itoa(e.EpisodeNumber),
							e.Name,
							truncate(e.Overview, 60),
						})
					}
					_, _ = fmt.Fprintf(w, "%s\n", season.Name)
					_, _ = fmt.Fprintln(w, renderTable(
						[]string{"Episode", "Title", "Overview"},
						rows,
						[]columnAlignment{alignRight, alignLeft, alignLeft},
					))
					return nil
				})
			})
		},
	}
}
