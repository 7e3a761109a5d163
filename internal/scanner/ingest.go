package scanner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sentient-soup/reelname/internal/events"
	"github.com/sentient-soup/reelname/internal/library"
	"github.com/sentient-soup/reelname/internal/matcher"
	"github.com/sentient-soup/reelname/pkg/release"
)

// NoAPIKeyMessage is reported in ScanResult.MatchError when matching is skipped.
const NoAPIKeyMessage = "No TMDB API key configured. Set it in settings to enable auto-matching."

// ErrNoScanPath is returned when neither an explicit root nor the scan_path
// setting names a directory.
var ErrNoScanPath = errors.New("no scan path configured")

// MatchFunc runs a match pass over every unmatched group.
type MatchFunc func(ctx context.Context) (matcher.MatchResult, error)

// ScanResult summarizes one ingest pass.
type ScanResult struct {
	ScannedGroups int    `json:"scanned_groups"`
	AddedGroups   int    `json:"added_groups"`
	AddedFiles    int    `json:"added_files"`
	SkippedGroups int    `json:"skipped_groups"`
	Matched       int    `json:"matched"`
	Ambiguous     int    `json:"ambiguous"`
	MatchError    string `json:"match_error,omitempty"`
}

// Ingester turns a scanned tree into library rows and optionally matches them.
type Ingester struct {
	store *library.Store
	match MatchFunc
	bus   *events.Bus
	log   *slog.Logger
}

// NewIngester creates an ingester. match and bus may be nil.
func NewIngester(store *library.Store, match MatchFunc, bus *events.Bus, log *slog.Logger) *Ingester {
	if log == nil {
		log = slog.Default()
	}
	return &Ingester{store: store, match: match, bus: bus, log: log.With("component", "scanner")}
}

// Ingest scans root (or the scan_path setting when root is empty), inserts
// every group whose folder is not already tracked, and runs a match pass when
// a catalog key is configured. Folders already in the library are skipped so
// rescans never duplicate rows.
func (i *Ingester) Ingest(ctx context.Context, root string) (ScanResult, error) {
	if root == "" {
		root = i.store.Setting(library.SettingScanPath, "")
	}
	if root == "" {
		return ScanResult{}, ErrNoScanPath
	}

	if n, err := i.store.DeleteOrphanJobs(); err != nil {
		return ScanResult{}, err
	} else if n > 0 {
		i.log.Info("removed orphan jobs", "count", n)
	}

	groups, err := Scan(root)
	if err != nil {
		return ScanResult{}, err
	}
	existing, err := i.store.GroupFolderPaths()
	if err != nil {
		return ScanResult{}, err
	}

	res := ScanResult{ScannedGroups: len(groups)}
	for _, sg := range groups {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if existing[sg.FolderPath] {
			res.SkippedGroups++
			continue
		}
		added, err := i.insertGroup(sg)
		if err != nil {
			return res, fmt.Errorf("ingest %s: %w", sg.FolderPath, err)
		}
		res.AddedGroups++
		res.AddedFiles += added
	}
	i.log.Info("scan complete", "root", root, "groups", res.ScannedGroups,
		"added", res.AddedGroups, "files", res.AddedFiles, "skipped", res.SkippedGroups)
	i.publish(ctx, &events.ScanCompleted{
		BaseEvent:     events.NewBaseEvent(events.EventScanCompleted, events.EntityScan, 0),
		Root:          root,
		GroupsAdded:   res.AddedGroups,
		JobsAdded:     res.AddedFiles,
		GroupsSkipped: res.SkippedGroups,
	})

	switch {
	case i.store.Setting(library.SettingTMDBAPIKey, "") == "":
		res.MatchError = NoAPIKeyMessage
	case i.match != nil:
		mr, err := i.match(ctx)
		res.Matched, res.Ambiguous = mr.Matched, mr.Ambiguous
		if err != nil {
			res.MatchError = err.Error()
		}
	}
	return res, nil
}

// insertGroup writes one group and its jobs in a transaction. A job whose
// source path is already known is moved into the new group with its match
// state cleared.
func (i *Ingester) insertGroup(sg Group) (int, error) {
	folder := release.ParseFolderName(sg.FolderName)
	mediaType := sg.MediaType()

	tx, err := i.store.Begin()
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	g := &library.Group{
		MediaType:      mediaType,
		FolderPath:     sg.FolderPath,
		FolderName:     sg.FolderName,
		TotalFileCount: len(sg.Files),
		TotalFileSize:  sg.TotalSize(),
		ParsedTitle:    folder.Title,
		ParsedYear:     folder.Year,
	}
	if err := tx.AddGroup(g); err != nil {
		return 0, err
	}

	for _, f := range sg.Files {
		parsed := release.ParseFileName(f.FileName)
		season := f.DetectedSeason
		if season == nil {
			season = parsed.Season
		}

		j, err := tx.GetJobBySourcePath(f.SourcePath)
		switch {
		case errors.Is(err, library.ErrNotFound):
			j = &library.Job{
				SourcePath:    f.SourcePath,
				FileName:      f.FileName,
				FileSize:      f.FileSize,
				FileExtension: f.FileExtension,
			}
		case err != nil:
			return 0, err
		default:
			i.log.Debug("reattaching job", "job_id", j.ID, "group_id", g.ID, "source", f.SourcePath)
		}

		j.GroupID = &g.ID
		j.Status = library.StatusScanned
		j.MediaType = mediaType
		j.FileCategory = f.Category
		j.ExtraType = f.ExtraType
		j.ParsedTitle = parsed.Title
		j.ParsedYear = parsed.Year
		j.ParsedSeason = season
		j.ParsedEpisode = parsed.Episode
		j.ParsedQuality = parsed.Quality
		j.ParsedCodec = parsed.Codec
		j.TMDBID, j.TMDBTitle, j.TMDBYear, j.TMDBPosterPath, j.TMDBEpisodeTitle = nil, nil, nil, nil, nil
		j.MatchConfidence = nil

		if j.ID == 0 {
			err = tx.AddJob(j)
		} else {
			err = tx.UpdateJob(j)
		}
		if err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return len(sg.Files), nil
}

func (i *Ingester) publish(ctx context.Context, ev events.Event) {
	if i.bus == nil {
		return
	}
	if err := i.bus.Publish(ctx, ev); err != nil {
		i.log.Warn("publish event", "type", ev.EventType(), "error", err)
	}
}
