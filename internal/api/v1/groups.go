package v1

import (
	"net/http"

	"github.com/sentient-soup/reelname/internal/library"
	"github.com/sentient-soup/reelname/internal/matcher"
)

func validMediaType(s string) bool {
	switch library.MediaType(s) {
	case library.MediaMovie, library.MediaTV, library.MediaUnknown:
		return true
	}
	return false
}

func (s *Server) listGroups(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := pagination(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_PAGINATION", err.Error())
		return
	}
	statuses, err := queryStatuses(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_STATUS", err.Error())
		return
	}

	filter := library.GroupFilter{
		Statuses: statuses,
		Search:   queryString(r, "search"),
		Limit:    limit,
		Offset:   offset,
	}
	if mt := queryString(r, "media_type"); mt != nil {
		if !validMediaType(*mt) {
			writeError(w, http.StatusBadRequest, "INVALID_MEDIA_TYPE", "media_type must be movie, tv or unknown")
			return
		}
		t := library.MediaType(*mt)
		filter.MediaType = &t
	}

	items, total, err := s.deps.Library.ListGroups(filter)
	if err != nil {
		writeStoreError(w, err, "")
		return
	}

	resp := listGroupsResponse{
		Items:  make([]groupResponse, len(items)),
		Total:  total,
		Limit:  limit,
		Offset: offset,
	}
	for i, g := range items {
		resp.Items[i] = groupToResponse(g)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) getGroup(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", err.Error())
		return
	}

	g, err := s.deps.Library.GetGroup(id)
	if err != nil {
		writeStoreError(w, err, "Group not found")
		return
	}
	jobs, _, err := s.deps.Library.ListJobs(library.JobFilter{GroupID: &id})
	if err != nil {
		writeStoreError(w, err, "")
		return
	}
	cands, err := s.deps.Library.ListGroupCandidates(id)
	if err != nil {
		writeStoreError(w, err, "")
		return
	}

	resp := groupDetailResponse{
		groupResponse: groupToResponse(g),
		Jobs:          make([]jobResponse, len(jobs)),
		Candidates:    make([]candidateResponse, len(cands)),
	}
	for i, j := range jobs {
		resp.Jobs[i] = jobToResponse(j)
	}
	for i, c := range cands {
		resp.Candidates[i] = candidateToResponse(c)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) updateGroup(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", err.Error())
		return
	}

	var req updateGroupRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Status != nil && !library.Status(*req.Status).Valid() {
		writeError(w, http.StatusBadRequest, "INVALID_STATUS", "unknown status "+*req.Status)
		return
	}
	if req.MediaType != nil && !validMediaType(*req.MediaType) {
		writeError(w, http.StatusBadRequest, "INVALID_MEDIA_TYPE", "media_type must be movie, tv or unknown")
		return
	}

	tx, err := s.deps.Library.Begin()
	if err != nil {
		writeStoreError(w, err, "")
		return
	}
	defer func() { _ = tx.Rollback() }()

	g, err := tx.GetGroup(id)
	if err != nil {
		writeStoreError(w, err, "Group not found")
		return
	}

	statusChanged := req.Status != nil && library.Status(*req.Status) != g.Status
	if req.MediaType != nil {
		g.MediaType = library.MediaType(*req.MediaType)
	}
	if req.ParsedTitle != nil {
		g.ParsedTitle = req.ParsedTitle
	}
	if req.ParsedYear != nil {
		g.ParsedYear = req.ParsedYear
	}
	if req.TMDBID != nil {
		g.TMDBID = req.TMDBID
	}
	if req.TMDBTitle != nil {
		g.TMDBTitle = req.TMDBTitle
	}
	if req.TMDBYear != nil {
		g.TMDBYear = req.TMDBYear
	}
	if req.DestinationID != nil {
		g.DestinationID = req.DestinationID
	}

	if err := tx.UpdateGroup(g); err != nil {
		writeStoreError(w, err, "Group not found")
		return
	}
	// status changes cascade to the group's jobs
	if statusChanged {
		if err := tx.SetGroupStatus(id, library.Status(*req.Status)); err != nil {
			writeStoreError(w, err, "Group not found")
			return
		}
	}
	if err := tx.Commit(); err != nil {
		writeStoreError(w, err, "")
		return
	}

	updated, err := s.deps.Library.GetGroup(id)
	if err != nil {
		writeStoreError(w, err, "Group not found")
		return
	}
	writeJSON(w, http.StatusOK, groupToResponse(updated))
}

func (s *Server) deleteGroup(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", err.Error())
		return
	}
	if err := s.deps.Library.DeleteGroup(id); err != nil {
		writeStoreError(w, err, "Group not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listCandidates(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", err.Error())
		return
	}
	if _, err := s.deps.Library.GetGroup(id); err != nil {
		writeStoreError(w, err, "Group not found")
		return
	}

	cands, err := s.deps.Library.ListGroupCandidates(id)
	if err != nil {
		writeStoreError(w, err, "")
		return
	}
	resp := make([]candidateResponse, len(cands))
	for i, c := range cands {
		resp[i] = candidateToResponse(c)
	}
	writeJSON(w, http.StatusOK, resp)
}

// pickCandidate applies a manual match. A stored candidate is applied as
// scored; a catalog entry from a manual search is applied with full
// confidence.
func (s *Server) pickCandidate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", err.Error())
		return
	}

	var req pickRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	switch {
	case req.CandidateID != nil:
		err = s.deps.Library.ApplyCandidate(id, *req.CandidateID)
	case req.TMDBID != nil:
		if req.Title == "" || (req.MediaType != string(library.MediaMovie) && req.MediaType != string(library.MediaTV)) {
			writeError(w, http.StatusBadRequest, "INVALID_PICK", "title and media_type (movie or tv) are required")
			return
		}
		err = s.deps.Library.ApplyGroupMatch(id, library.Match{
			TMDBID:     *req.TMDBID,
			Title:      req.Title,
			Year:       req.Year,
			PosterPath: req.PosterPath,
			Confidence: 1,
			MediaType:  library.MediaType(req.MediaType),
		})
	default:
		writeError(w, http.StatusBadRequest, "INVALID_PICK", "candidate_id or tmdb_id is required")
		return
	}
	if err != nil {
		writeStoreError(w, err, "Group or candidate not found")
		return
	}

	g, err := s.deps.Library.GetGroup(id)
	if err != nil {
		writeStoreError(w, err, "Group not found")
		return
	}
	writeJSON(w, http.StatusOK, groupToResponse(g))
}

func (s *Server) matchGroup(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", err.Error())
		return
	}
	g, err := s.deps.Library.GetGroup(id)
	if err != nil {
		writeStoreError(w, err, "Group not found")
		return
	}

	outcome, err := s.deps.Matcher.MatchGroup(r.Context(), g)
	if err != nil {
		writeError(w, http.StatusBadGateway, "MATCH_ERROR", err.Error())
		return
	}

	g, err = s.deps.Library.GetGroup(id)
	if err != nil {
		writeStoreError(w, err, "Group not found")
		return
	}
	resp := struct {
		Matched bool          `json:"matched"`
		Group   groupResponse `json:"group"`
	}{
		Matched: outcome == matcher.OutcomeMatched,
		Group:   groupToResponse(g),
	}
	writeJSON(w, http.StatusOK, resp)
}
