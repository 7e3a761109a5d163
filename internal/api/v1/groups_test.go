package v1

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sentient-soup/reelname/internal/library"
	"github.com/sentient-soup/reelname/internal/matcher"
)

func TestListGroups(t *testing.T) {
	store := setupStore(t)
	_, h := newTestServer(t, ServerDeps{Library: store})

	addShow(t, store, "The Wire", 2)
	g, _ := addShow(t, store, "Fargo", 1)
	require.NoError(t, store.SetGroupStatus(g.ID, library.StatusConfirmed))

	w := do(t, h, http.MethodGet, "/api/v1/groups", nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[listGroupsResponse](t, w)
	assert.Equal(t, 2, resp.Total)
	assert.Len(t, resp.Items, 2)

	w = do(t, h, http.MethodGet, "/api/v1/groups?status=confirmed,skipped", nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp = decode[listGroupsResponse](t, w)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "Fargo", resp.Items[0].FolderName)

	w = do(t, h, http.MethodGet, "/api/v1/groups?search=wire", nil)
	resp = decode[listGroupsResponse](t, w)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "The Wire", resp.Items[0].FolderName)
}

func TestListGroups_BadQuery(t *testing.T) {
	_, h := newTestServer(t, ServerDeps{Library: setupStore(t)})

	tests := []struct {
		path string
		code string
	}{
		{"/api/v1/groups?status=bogus", "INVALID_STATUS"},
		{"/api/v1/groups?media_type=anime", "INVALID_MEDIA_TYPE"},
		{"/api/v1/groups?limit=-1", "INVALID_PAGINATION"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := do(t, h, http.MethodGet, tt.path, nil)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tt.code, decode[errorResponse](t, w).Code)
		})
	}
}

func TestGetGroup_Detail(t *testing.T) {
	store := setupStore(t)
	_, h := newTestServer(t, ServerDeps{Library: store})

	g, _ := addShow(t, store, "Dark", 3)
	require.NoError(t, store.ReplaceGroupCandidates(g.ID, []library.Candidate{
		{TMDBID: 70523, MediaType: library.MediaTV, Title: "Dark", Year: ptr(2017), Confidence: 0.97},
		{TMDBID: 1, MediaType: library.MediaMovie, Title: "Dark Water", Confidence: 0.4},
	}))

	w := do(t, h, http.MethodGet, "/api/v1/groups/"+itoa(g.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode[groupDetailResponse](t, w)
	assert.Equal(t, "Dark", resp.FolderName)
	assert.Len(t, resp.Jobs, 3)
	require.Len(t, resp.Candidates, 2)
	assert.Equal(t, int64(70523), resp.Candidates[0].TMDBID)
	assert.Equal(t, 0, resp.Candidates[0].Rank)
}

func TestGetGroup_NotFound(t *testing.T) {
	_, h := newTestServer(t, ServerDeps{Library: setupStore(t)})

	w := do(t, h, http.MethodGet, "/api/v1/groups/999", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, h, http.MethodGet, "/api/v1/groups/abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateGroup_StatusCascades(t *testing.T) {
	store := setupStore(t)
	_, h := newTestServer(t, ServerDeps{Library: store})
	g, jobs := addShow(t, store, "Lost", 2)

	w := do(t, h, http.MethodPatch, "/api/v1/groups/"+itoa(g.ID), map[string]any{
		"status":       "confirmed",
		"parsed_title": "LOST",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	resp := decode[groupResponse](t, w)
	assert.Equal(t, "confirmed", resp.Status)
	require.NotNil(t, resp.ParsedTitle)
	assert.Equal(t, "LOST", *resp.ParsedTitle)

	for _, j := range jobs {
		got, err := store.GetJob(j.ID)
		require.NoError(t, err)
		assert.Equal(t, library.StatusConfirmed, got.Status)
	}
}

func TestUpdateGroup_FieldsOnlyLeavesJobs(t *testing.T) {
	store := setupStore(t)
	_, h := newTestServer(t, ServerDeps{Library: store})
	g, jobs := addShow(t, store, "Lost", 1)

	w := do(t, h, http.MethodPatch, "/api/v1/groups/"+itoa(g.ID), map[string]any{"parsed_year": 2004})
	require.Equal(t, http.StatusOK, w.Code)

	got, err := store.GetJob(jobs[0].ID)
	require.NoError(t, err)
	assert.Equal(t, library.StatusScanned, got.Status)
}

func TestUpdateGroup_Invalid(t *testing.T) {
	store := setupStore(t)
	_, h := newTestServer(t, ServerDeps{Library: store})
	g, _ := addShow(t, store, "Lost", 1)

	w := do(t, h, http.MethodPatch, "/api/v1/groups/"+itoa(g.ID), map[string]any{"status": "done"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, h, http.MethodPatch, "/api/v1/groups/999", map[string]any{"status": "skipped"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteGroup_CascadesJobs(t *testing.T) {
	store := setupStore(t)
	_, h := newTestServer(t, ServerDeps{Library: store})
	g, jobs := addShow(t, store, "Lost", 2)

	w := do(t, h, http.MethodDelete, "/api/v1/groups/"+itoa(g.ID), nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	_, err := store.GetJob(jobs[0].ID)
	assert.ErrorIs(t, err, library.ErrNotFound)
}

func TestPickCandidate(t *testing.T) {
	store := setupStore(t)
	_, h := newTestServer(t, ServerDeps{Library: store})
	g, jobs := addShow(t, store, "Dark", 1)
	require.NoError(t, store.ReplaceGroupCandidates(g.ID, []library.Candidate{
		{TMDBID: 1, MediaType: library.MediaTV, Title: "Darkness", Confidence: 0.6},
		{TMDBID: 70523, MediaType: library.MediaTV, Title: "Dark", Year: ptr(2017), Confidence: 0.55},
	}))
	cands, err := store.ListGroupCandidates(g.ID)
	require.NoError(t, err)

	w := do(t, h, http.MethodPost, "/api/v1/groups/"+itoa(g.ID)+"/pick", map[string]any{"candidate_id": cands[1].ID})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	resp := decode[groupResponse](t, w)
	assert.Equal(t, "matched", resp.Status)
	require.NotNil(t, resp.TMDBID)
	assert.Equal(t, int64(70523), *resp.TMDBID)

	job, err := store.GetJob(jobs[0].ID)
	require.NoError(t, err)
	require.NotNil(t, job.TMDBTitle)
	assert.Equal(t, "Dark", *job.TMDBTitle)
}

func TestPickCandidate_ManualEntry(t *testing.T) {
	store := setupStore(t)
	_, h := newTestServer(t, ServerDeps{Library: store})
	g, _ := addShow(t, store, "Misc", 1)

	w := do(t, h, http.MethodPost, "/api/v1/groups/"+itoa(g.ID)+"/pick", map[string]any{
		"tmdb_id": 1399, "title": "Game of Thrones", "year": 2011, "media_type": "tv",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode[groupResponse](t, w)
	require.NotNil(t, resp.MatchConfidence)
	assert.InDelta(t, 1.0, *resp.MatchConfidence, 1e-9)
}

func TestPickCandidate_Errors(t *testing.T) {
	store := setupStore(t)
	_, h := newTestServer(t, ServerDeps{Library: store})
	g, _ := addShow(t, store, "Dark", 1)
	other, _ := addShow(t, store, "Other", 1)
	require.NoError(t, store.ReplaceGroupCandidates(other.ID, []library.Candidate{
		{TMDBID: 5, MediaType: library.MediaTV, Title: "Other", Confidence: 0.9},
	}))
	cands, err := store.ListGroupCandidates(other.ID)
	require.NoError(t, err)

	w := do(t, h, http.MethodPost, "/api/v1/groups/"+itoa(g.ID)+"/pick", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, h, http.MethodPost, "/api/v1/groups/"+itoa(g.ID)+"/pick", map[string]any{"tmdb_id": 5, "media_type": "tv"})
	assert.Equal(t, http.StatusBadRequest, w.Code, "title required")

	w = do(t, h, http.MethodPost, "/api/v1/groups/"+itoa(g.ID)+"/pick", map[string]any{"candidate_id": cands[0].ID})
	assert.Equal(t, http.StatusConflict, w.Code, "candidate of another group")

	w = do(t, h, http.MethodPost, "/api/v1/groups/"+itoa(g.ID)+"/pick", map[string]any{"candidate_id": 9999})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMatchGroup(t *testing.T) {
	store := setupStore(t)
	m := &fakeMatcher{outcome: matcher.OutcomeMatched}
	_, h := newTestServer(t, ServerDeps{Library: store, Matcher: m})
	g, _ := addShow(t, store, "Dark", 1)

	w := do(t, h, http.MethodPost, "/api/v1/groups/"+itoa(g.ID)+"/match", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []int64{g.ID}, m.matched)
	assert.Contains(t, w.Body.String(), `"matched":true`)

	m.err = errors.New("catalog down")
	w = do(t, h, http.MethodPost, "/api/v1/groups/"+itoa(g.ID)+"/match", nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestMatchGroup_NoMatcher(t *testing.T) {
	store := setupStore(t)
	_, h := newTestServer(t, ServerDeps{Library: store})
	g, _ := addShow(t, store, "Dark", 1)

	w := do(t, h, http.MethodPost, "/api/v1/groups/"+itoa(g.ID)+"/match", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
