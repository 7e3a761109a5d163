package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sentient-soup/reelname/pkg/release"
)

// ParseResult is the parsed identity of one name.
type ParseResult struct {
	Input     string  `json:"input"`
	Title     *string `json:"title,omitempty"`
	Year      *int    `json:"year,omitempty"`
	Season    *int    `json:"season,omitempty"`
	Episode   *int    `json:"episode,omitempty"`
	Quality   *string `json:"quality,omitempty"`
	Codec     *string `json:"codec,omitempty"`
	MediaType string  `json:"media_type"`
}

func parseName(name string, folder bool) ParseResult {
	if folder {
		info := release.ParseFolderName(name)
		return ParseResult{Input: name, Title: info.Title, Year: info.Year, MediaType: release.MediaUnknown.String()}
	}
	info := release.ParseFileName(name)
	return ParseResult{
		Input:     name,
		Title:     info.Title,
		Year:      info.Year,
		Season:    info.Season,
		Episode:   info.Episode,
		Quality:   info.Quality,
		Codec:     info.Codec,
		MediaType: info.MediaType.String(),
	}
}

func newParseCommand(ctx *commandContext) *cobra.Command {
	var (
		inputFile string
		folder    bool
	)
	cmd := &cobra.Command{
		Use:   "parse [flags] <name>...",
		Short: "Parse file or folder names (local, no database needed)",
		Long: `Parse media file names to see what reelname extracts from them.

Examples:
  reelname parse "The.Office.S02E07.720p.WEB.x264.mkv"
  reelname parse --folder "Amelie (2001)"
  reelname parse --file names.txt --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			names := args
			if inputFile != "" {
				fromFile, err := readNameFile(inputFile)
				if err != nil {
					return fmt.Errorf("reading file: %w", err)
				}
				names = append(names, fromFile...)
			}
			if len(names) == 0 {
				return fmt.Errorf("usage: reelname parse <name> or reelname parse --file <filename>")
			}

			results := make([]ParseResult, 0, len(names))
			for _, name := range names {
				results = append(results, parseName(name, folder))
			}

			var v any = results
			if len(results) == 1 {
				v = results[0]
			}
			return ctx.output(cmd, v, func(w io.Writer) error {
				for i, r := range results {
					if i > 0 {
						_, _ = fmt.Fprintln(w)
					}
					printParseResult(w, r)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&inputFile, "file", "f", "", "Read names from file (one per line)")
	cmd.Flags().BoolVar(&folder, "folder", false, "Parse as folder names (title and year only)")
	return cmd
}

// readNameFile reads names from a file, one per line. Blank lines and
// lines starting with # are skipped.
func readNameFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	var names []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" && !strings.HasPrefix(line, "#") {
			names = append(names, line)
		}
	}
	return names, scanner.Err()
}

func printParseResult(w io.Writer, r ParseResult) {
	_, _ = fmt.Fprintf(w, "Input:    %s\n", r.Input)
	_, _ = fmt.Fprintf(w, "Title:    %s\n", valueOrNone(r.Title))
	if r.Year != nil {
		_, _ = fmt.Fprintf(w, "Year:     %d\n", *r.Year)
	}
	if r.Season != nil {
		_, _ = fmt.Fprintf(w, "Season:   %d\n", *r.Season)
	}
	if r.Episode != nil {
		_, _ = fmt.Fprintf(w, "Episode:  %d\n", *r.Episode)
	}
	if r.Quality != nil {
		_, _ = fmt.Fprintf(w, "Quality:  %s\n", *r.Quality)
	}
	if r.Codec != nil {
		_, _ = fmt.Fprintf(w, "Codec:    %s\n", *r.Codec)
	}
	_, _ = fmt.Fprintf(w, "Type:     %s\n", r.MediaType)
}

// valueOrNone returns the value or a placeholder when absent.
func valueOrNone(s *string) string {
	if s == nil || *s == "" {
		return "(none)"
	}
	return *s
}
