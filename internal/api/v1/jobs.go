package v1

import (
	"net/http"

	"github.com/sentient-soup/reelname/internal/library"
)

func validCategory(s string) bool {
	switch library.FileCategory(s) {
	case library.CategoryEpisode, library.CategoryMovie, library.CategorySpecial, library.CategoryExtra:
		return true
	}
	return false
}

func (s *Server) listJobs(w http.ResponseWriter, r *http.Request) {
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

	filter := library.JobFilter{Statuses: statuses, Limit: limit, Offset: offset}
	if r.URL.Query().Has("group_id") {
		gid := int64(queryInt(r, "group_id", -1))
		if gid < 0 {
			writeError(w, http.StatusBadRequest, "INVALID_ID", "group_id must be a non-negative integer")
			return
		}
		filter.GroupID = &gid
	}

	items, total, err := s.deps.Library.ListJobs(filter)
	if err != nil {
		writeStoreError(w, err, "")
		return
	}

	resp := listJobsResponse{
		Items:  make([]jobResponse, len(items)),
		Total:  total,
		Limit:  limit,
		Offset: offset,
	}
	for i, j := range items {
		resp.Items[i] = jobToResponse(j)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) getJob(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", err.Error())
		return
	}
	j, err := s.deps.Library.GetJob(id)
	if err != nil {
		writeStoreError(w, err, "Job not found")
		return
	}
	writeJSON(w, http.StatusOK, jobToResponse(j))
}

func (s *Server) updateJob(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", err.Error())
		return
	}

	var req updateJobRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Status != nil && !library.Status(*req.Status).Valid() {
		writeError(w, http.StatusBadRequest, "INVALID_STATUS", "unknown status "+*req.Status)
		return
	}
	if req.FileCategory != nil && !validCategory(*req.FileCategory) {
		writeError(w, http.StatusBadRequest, "INVALID_CATEGORY", "unknown file category "+*req.FileCategory)
		return
	}

	j, err := s.deps.Library.GetJob(id)
	if err != nil {
		writeStoreError(w, err, "Job not found")
		return
	}

	if req.Status != nil {
		j.Status = library.Status(*req.Status)
	}
	if req.FileCategory != nil {
		j.FileCategory = library.FileCategory(*req.FileCategory)
	}
	if req.ExtraType != nil {
		et := library.ExtraType(*req.ExtraType)
		j.ExtraType = &et
	}
	if req.ParsedTitle != nil {
		j.ParsedTitle = req.ParsedTitle
	}
	if req.ParsedYear != nil {
		j.ParsedYear = req.ParsedYear
	}
	if req.ParsedSeason != nil {
		j.ParsedSeason = req.ParsedSeason
	}
	if req.ParsedEpisode != nil {
		j.ParsedEpisode = req.ParsedEpisode
	}
	if req.TMDBEpisodeTitle != nil {
		j.TMDBEpisodeTitle = req.TMDBEpisodeTitle
	}
	if req.DestinationID != nil {
		j.DestinationID = req.DestinationID
	}

	if err := s.deps.Library.UpdateJob(j); err != nil {
		writeStoreError(w, err, "Job not found")
		return
	}
	writeJSON(w, http.StatusOK, jobToResponse(j))
}

func (s *Server) deleteJob(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", err.Error())
		return
	}
	if err := s.deps.Library.DeleteJob(id); err != nil {
		writeStoreError(w, err, "Job not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
