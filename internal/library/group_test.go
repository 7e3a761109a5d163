package library

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_AddGetGroup(t *testing.T) {
	s := setupTestStore(t)

	g := &Group{
		MediaType:   MediaMovie,
		FolderPath:  "/media/Inception (2010)",
		FolderName:  "Inception (2010)",
		ParsedTitle: ptr("Inception"),
		ParsedYear:  ptr(2010),
	}
	require.NoError(t, s.AddGroup(g))
	assert.NotZero(t, g.ID)
	assert.Equal(t, StatusScanned, g.Status)

	got, err := s.GetGroup(g.ID)
	require.NoError(t, err)
	assert.Equal(t, "Inception", *got.ParsedTitle)
	assert.Equal(t, 2010, *got.ParsedYear)
	assert.Nil(t, got.TMDBID)
	assert.Equal(t, MediaMovie, got.MediaType)
}

func TestStore_GetGroup_NotFound(t *testing.T) {
	s := setupTestStore(t)
	_, err := s.GetGroup(42)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_ListGroups_Filter(t *testing.T) {
	s := setupTestStore(t)
	addTestGroup(t, s, "Breaking Bad", 2)
	addTestGroup(t, s, "The Wire", 1)
	g3, _ := addTestGroup(t, s, "Lost", 1)
	require.NoError(t, s.SetGroupStatus(g3.ID, StatusSkipped))

	all, total, err := s.ListGroups(GroupFilter{})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Len(t, all, 3)

	scanned, total, err := s.ListGroups(GroupFilter{Statuses: []Status{StatusScanned}})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, scanned, 2)

	found, _, err := s.ListGroups(GroupFilter{Search: ptr("wire")})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "The Wire", found[0].FolderName)

	page, total, err := s.ListGroups(GroupFilter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, page, 1)
	assert.Equal(t, "The Wire", page[0].FolderName)
}

func TestStore_SetGroupStatus_Cascades(t *testing.T) {
	s := setupTestStore(t)
	g, jobs := addTestGroup(t, s, "Show", 3)

	require.NoError(t, s.SetGroupStatus(g.ID, StatusConfirmed))

	for _, j := range jobs {
		got, err := s.GetJob(j.ID)
		require.NoError(t, err)
		assert.Equal(t, StatusConfirmed, got.Status)
	}
	assert.ErrorIs(t, s.SetGroupStatus(999, StatusConfirmed), ErrNotFound)
}

func TestStore_ApplyGroupMatch(t *testing.T) {
	s := setupTestStore(t)
	g, jobs := addTestGroup(t, s, "Breaking Bad", 2)

	m := Match{TMDBID: 1396, Title: "Breaking Bad", Year: ptr(2008), PosterPath: ptr("/bb.jpg"), Confidence: 0.97, MediaType: MediaTV}
	require.NoError(t, s.ApplyGroupMatch(g.ID, m))

	got, err := s.GetGroup(g.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusMatched, got.Status)
	assert.Equal(t, int64(1396), *got.TMDBID)
	assert.Equal(t, "Breaking Bad", *got.TMDBTitle)
	assert.InDelta(t, 0.97, *got.MatchConfidence, 1e-9)

	for _, j := range jobs {
		got, err := s.GetJob(j.ID)
		require.NoError(t, err)
		assert.Equal(t, StatusMatched, got.Status)
		assert.Equal(t, int64(1396), *got.TMDBID)
		assert.Equal(t, 2008, *got.TMDBYear)
		assert.Equal(t, "/bb.jpg", *got.TMDBPosterPath)
	}
}

func TestStore_ApplyGroupMatch_CascadesMediaType(t *testing.T) {
	s := setupTestStore(t)
	g := &Group{FolderPath: "/media/Dark", FolderName: "Dark", MediaType: MediaUnknown}
	require.NoError(t, s.AddGroup(g))
	j := &Job{GroupID: &g.ID, MediaType: MediaUnknown, SourcePath: "/media/Dark/Dark.S01E01.mkv", FileName: "Dark.S01E01.mkv", FileExtension: ".mkv"}
	require.NoError(t, s.AddJob(j))

	require.NoError(t, s.ApplyGroupMatch(g.ID, Match{TMDBID: 70523, Title: "Dark", Confidence: 0.9, MediaType: MediaTV}))

	gotGroup, err := s.GetGroup(g.ID)
	require.NoError(t, err)
	assert.Equal(t, MediaTV, gotGroup.MediaType)

	gotJob, err := s.GetJob(j.ID)
	require.NoError(t, err)
	assert.Equal(t, MediaTV, gotJob.MediaType)
	assert.Equal(t, StatusMatched, gotJob.Status)
}

func TestStore_ApplyGroupMatch_MissingGroupLeavesJobsAlone(t *testing.T) {
	s := setupTestStore(t)
	err := s.ApplyGroupMatch(999, Match{TMDBID: 1, Title: "x", MediaType: MediaMovie})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_MarkGroupAmbiguous(t *testing.T) {
	s := setupTestStore(t)
	g, _ := addTestGroup(t, s, "Show", 1)

	require.NoError(t, s.MarkGroupAmbiguous(g.ID, ptr(0.5)))
	got, err := s.GetGroup(g.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusAmbiguous, got.Status)
	assert.InDelta(t, 0.5, *got.MatchConfidence, 1e-9)

	require.NoError(t, s.MarkGroupAmbiguous(g.ID, nil))
	got, err = s.GetGroup(g.ID)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, *got.MatchConfidence, 1e-9, "nil confidence keeps stored value")
}

func TestStore_ApplyCandidate(t *testing.T) {
	s := setupTestStore(t)
	g, jobs := addTestGroup(t, s, "Dark", 1)
	other, _ := addTestGroup(t, s, "Other", 1)

	cands := []Candidate{
		{TMDBID: 70523, MediaType: MediaTV, Title: "Dark", Year: ptr(2017), Confidence: 0.8},
		{TMDBID: 1, MediaType: MediaTV, Title: "Dark Matter", Confidence: 0.6},
	}
	require.NoError(t, s.ReplaceGroupCandidates(g.ID, cands))

	require.NoError(t, s.ApplyCandidate(g.ID, cands[1].ID))
	got, err := s.GetJob(jobs[0].ID)
	require.NoError(t, err)
	assert.Equal(t, StatusMatched, got.Status)
	assert.Equal(t, "Dark Matter", *got.TMDBTitle)

	assert.ErrorIs(t, s.ApplyCandidate(other.ID, cands[0].ID), ErrConstraint)
	assert.ErrorIs(t, s.ApplyCandidate(g.ID, 999), ErrNotFound)
}

func TestStore_DeleteGroup_Cascades(t *testing.T) {
	s := setupTestStore(t)
	g, jobs := addTestGroup(t, s, "Show", 2)
	require.NoError(t, s.ReplaceGroupCandidates(g.ID, []Candidate{{TMDBID: 1, MediaType: MediaTV, Title: "Show", Confidence: 0.5}}))

	require.NoError(t, s.DeleteGroup(g.ID))
	require.NoError(t, s.DeleteGroup(g.ID), "delete is idempotent")

	_, err := s.GetJob(jobs[0].ID)
	assert.ErrorIs(t, err, ErrNotFound)
	cands, err := s.ListGroupCandidates(g.ID)
	require.NoError(t, err)
	assert.Empty(t, cands)
}

func TestStore_GroupFolderPaths(t *testing.T) {
	s := setupTestStore(t)
	addTestGroup(t, s, "A", 0)
	addTestGroup(t, s, "B", 0)

	paths, err := s.GroupFolderPaths()
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"/media/A": true, "/media/B": true}, paths)
}
