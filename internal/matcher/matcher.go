// Package matcher scores catalog search results against parsed groups and
// decides whether to apply the best one automatically.
package matcher

//go:generate mockgen -destination=mocks/mock_catalog.go -package=mocks github.com/sentient-soup/reelname/internal/matcher Catalog

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/sentient-soup/reelname/internal/events"
	"github.com/sentient-soup/reelname/internal/library"
	"github.com/sentient-soup/reelname/internal/tmdb"
	"github.com/sentient-soup/reelname/pkg/release"
)

const (
	// MaxCandidates is how many search results are scored and stored per group.
	MaxCandidates = 10

	maxOverviewBytes = 500
)

// Catalog is the subset of the TMDB client the matcher needs.
type Catalog interface {
	SearchMovies(ctx context.Context, query string, year *int) ([]tmdb.SearchResult, error)
	SearchTV(ctx context.Context, query string, year *int) ([]tmdb.SearchResult, error)
	SearchMulti(ctx context.Context, query string, year *int) ([]tmdb.SearchResult, error)
	GetEpisode(ctx context.Context, tvID int64, season, episode int) (*tmdb.Episode, error)
}

// Outcome is what happened to one group.
type Outcome int

const (
	OutcomeAmbiguous Outcome = iota
	OutcomeMatched
)

// MatchResult counts outcomes of a batch match pass.
type MatchResult struct {
	Matched   int `json:"matched"`
	Ambiguous int `json:"ambiguous"`
}

// Engine matches groups against the catalog and persists the outcome.
type Engine struct {
	catalog Catalog
	store   *library.Store
	bus     *events.Bus
	log     *slog.Logger
}

// NewEngine creates a match engine. bus may be nil.
func NewEngine(catalog Catalog, store *library.Store, bus *events.Bus, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{
		catalog: catalog,
		store:   store,
		bus:     bus,
		log:     log.With("component", "matcher"),
	}
}

type scored struct {
	result tmdb.SearchResult
	score  float64
}

// MatchGroup searches the catalog for g, by parsed title or else by folder name, stores the ranked candidates and
// either applies the best one or marks the group ambiguous. Catalog errors
// are returned wrapped in ErrCatalog and leave the group untouched.
func (e *Engine) MatchGroup(ctx context.Context, g *library.Group) (Outcome, error) {
	title := strings.TrimSpace(g.FolderName)
	if g.ParsedTitle != nil && *g.ParsedTitle != "" {
		title = *g.ParsedTitle
	}
	if title == "" {
		if err := e.store.MarkGroupAmbiguous(g.ID, nil); err != nil {
			return OutcomeAmbiguous, err
		}
		e.publishAmbiguous(ctx, g.ID, 0, 0, ErrNoTitle.Error())
		return OutcomeAmbiguous, nil
	}
	parsedType := release.ParseMediaType(string(g.MediaType))

	results, err := e.search(ctx, parsedType, title, g.ParsedYear)
	if err != nil {
		return OutcomeAmbiguous, fmt.Errorf("%w: search %q: %v", ErrCatalog, title, err)
	}
	if len(results) == 0 {
		if err := e.store.MarkGroupAmbiguous(g.ID, nil); err != nil {
			return OutcomeAmbiguous, err
		}
		e.publishAmbiguous(ctx, g.ID, 0, 0, "no results")
		return OutcomeAmbiguous, nil
	}

	if len(results) > MaxCandidates {
		results = results[:MaxCandidates]
	}
	ranked := make([]scored, len(results))
	for i, r := range results {
		ranked[i] = scored{result: r, score: Score(title, g.ParsedYear, parsedType, r)}
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })

	cands := make([]library.Candidate, len(ranked))
	scores := make([]float64, len(ranked))
	for i, r := range ranked {
		cands[i] = toCandidate(r, parsedType)
		scores[i] = r.score
	}
	if err := e.store.ReplaceGroupCandidates(g.ID, cands); err != nil {
		return OutcomeAmbiguous, fmt.Errorf("store candidates: %w", err)
	}

	threshold := e.store.SettingFloat(library.SettingAutoMatchThreshold, DefaultThreshold)
	decision := Decide(scores, threshold)
	if !decision.AutoMatch {
		top := decision.Top
		if err := e.store.MarkGroupAmbiguous(g.ID, &top); err != nil {
			return OutcomeAmbiguous, err
		}
		e.log.Debug("group ambiguous", "group_id", g.ID, "top", decision.Top, "gap", decision.Gap)
		e.publishAmbiguous(ctx, g.ID, len(cands), decision.Top, "")
		return OutcomeAmbiguous, nil
	}

	best := cands[0]
	m := library.Match{
		TMDBID:     best.TMDBID,
		Title:      best.Title,
		Year:       best.Year,
		PosterPath: best.PosterPath,
		Confidence: best.Confidence,
		MediaType:  best.MediaType,
	}
	if err := e.store.ApplyGroupMatch(g.ID, m); err != nil {
		return OutcomeAmbiguous, fmt.Errorf("apply match: %w", err)
	}
	e.log.Info("group matched", "group_id", g.ID, "tmdb_id", m.TMDBID, "title", m.Title, "confidence", m.Confidence)

	if m.MediaType == library.MediaTV {
		e.fillEpisodeTitles(ctx, g.ID, m.TMDBID)
	}
	e.publish(ctx, &events.GroupMatched{
		BaseEvent:  events.NewBaseEvent(events.EventGroupMatched, events.EntityGroup, g.ID),
		GroupID:    g.ID,
		TMDBID:     m.TMDBID,
		Title:      m.Title,
		MediaType:  string(m.MediaType),
		Confidence: m.Confidence,
	})
	return OutcomeMatched, nil
}

func (e *Engine) search(ctx context.Context, mt release.MediaType, title string, year *int) ([]tmdb.SearchResult, error) {
	switch mt {
	case release.MediaTV:
		return e.catalog.SearchTV(ctx, title, year)
	case release.MediaMovie:
		return e.catalog.SearchMovies(ctx, title, year)
	default:
		return e.catalog.SearchMulti(ctx, title, year)
	}
}

func toCandidate(r scored, parsed release.MediaType) library.Candidate {
	mt := library.MediaType(r.result.MediaType)
	if mt != library.MediaMovie && mt != library.MediaTV {
		mt = library.MediaType(parsed.String())
	}
	c := library.Candidate{
		TMDBID:     r.result.ID,
		MediaType:  mt,
		Title:      r.result.DisplayTitle(),
		Year:       r.result.Year(),
		Confidence: r.score,
	}
	if r.result.PosterPath != "" {
		p := r.result.PosterPath
		c.PosterPath = &p
	}
	if r.result.Overview != "" {
		o := truncate(r.result.Overview, maxOverviewBytes)
		c.Overview = &o
	}
	return c
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// fillEpisodeTitles looks up episode names for every numbered, non-extra job
// in the group. Failures are logged and skipped.
func (e *Engine) fillEpisodeTitles(ctx context.Context, groupID, tvID int64) {
	jobs, _, err := e.store.ListJobs(library.JobFilter{GroupID: &groupID})
	if err != nil {
		e.log.Warn("list jobs for episode titles", "group_id", groupID, "error", err)
		return
	}
	for _, j := range jobs {
		if j.FileCategory == library.CategoryExtra || j.ParsedSeason == nil || j.ParsedEpisode == nil {
			continue
		}
		ep, err := e.catalog.GetEpisode(ctx, tvID, *j.ParsedSeason, *j.ParsedEpisode)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			e.log.Debug("episode lookup failed", "job_id", j.ID, "season", *j.ParsedSeason,
				"episode", *j.ParsedEpisode, "error", err)
			continue
		}
		if err := e.store.SetJobEpisodeTitle(j.ID, ep.Name); err != nil {
			e.log.Warn("store episode title", "job_id", j.ID, "error", err)
		}
	}
}

// MatchAll matches every group that is scanned or ambiguous. A failure on one
// group is logged, counted as ambiguous, and does not stop the batch.
func (e *Engine) MatchAll(ctx context.Context) (MatchResult, error) {
	groups, _, err := e.store.ListGroups(library.GroupFilter{
		Statuses: []library.Status{library.StatusScanned, library.StatusAmbiguous},
	})
	if err != nil {
		return MatchResult{}, fmt.Errorf("list groups: %w", err)
	}

	var res MatchResult
	for _, g := range groups {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		outcome, err := e.MatchGroup(ctx, g)
		if err != nil {
			if ctx.Err() != nil {
				return res, ctx.Err()
			}
			e.log.Error("match failed", "group_id", g.ID, "folder", g.FolderName, "error", err)
			res.Ambiguous++
			continue
		}
		if outcome == OutcomeMatched {
			res.Matched++
		} else {
			res.Ambiguous++
		}
	}

	e.log.Info("match pass complete", "matched", res.Matched, "ambiguous", res.Ambiguous)
	e.publish(ctx, &events.MatchCompleted{
		BaseEvent: events.NewBaseEvent(events.EventMatchCompleted, events.EntityGroup, 0),
		Matched:   res.Matched,
		Ambiguous: res.Ambiguous,
	})
	return res, nil
}

func (e *Engine) publishAmbiguous(ctx context.Context, groupID int64, n int, top float64, reason string) {
	e.publish(ctx, &events.GroupAmbiguous{
		BaseEvent:  events.NewBaseEvent(events.EventGroupAmbiguous, events.EntityGroup, groupID),
		GroupID:    groupID,
		Candidates: n,
		TopScore:   top,
		Reason:     reason,
	})
}

func (e *Engine) publish(ctx context.Context, ev events.Event) {
	if e.bus == nil {
		return
	}
	if err := e.bus.Publish(ctx, ev); err != nil {
		e.log.Warn("publish event", "type", ev.EventType(), "error", err)
	}
}
