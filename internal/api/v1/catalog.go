package v1

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/sentient-soup/reelname/internal/tmdb"
)

type searchResultResponse struct {
	TMDBID     int64   `json:"tmdb_id"`
	MediaType  string  `json:"media_type"`
	Title      string  `json:"title"`
	Year       *int    `json:"year,omitempty"`
	PosterPath string  `json:"poster_path,omitempty"`
	Overview   string  `json:"overview,omitempty"`
	Popularity float64 `json:"popularity"`
}

func writeCatalogError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, tmdb.ErrNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, tmdb.ErrNoAPIKey):
		writeError(w, http.StatusServiceUnavailable, "NO_API_KEY", err.Error())
	default:
		writeError(w, http.StatusBadGateway, "CATALOG_ERROR", err.Error())
	}
}

func (s *Server) search(w http.ResponseWriter, r *http.Request) {
	q := queryString(r, "q")
	if q == nil {
		writeError(w, http.StatusBadRequest, "MISSING_QUERY", "q is required")
		return
	}
	var year *int
	if y := queryInt(r, "year", 0); y > 0 {
		year = &y
	}

	kind := r.URL.Query().Get("type")
	var (
		results []tmdb.SearchResult
		err     error
	)
	switch kind {
	case "", "multi":
		results, err = s.deps.Catalog.SearchMulti(r.Context(), *q, year)
	case "movie":
		results, err = s.deps.Catalog.SearchMovies(r.Context(), *q, year)
	case "tv":
		results, err = s.deps.Catalog.SearchTV(r.Context(), *q, year)
	default:
		writeError(w, http.StatusBadRequest, "INVALID_TYPE", "type must be multi, movie or tv")
		return
	}
	if err != nil {
		writeCatalogError(w, err)
		return
	}

	resp := make([]searchResultResponse, len(results))
	for i, res := range results {
		mt := res.MediaType
		if mt == "" {
			mt = kind
		}
		resp[i] = searchResultResponse{
			TMDBID:     res.ID,
			MediaType:  mt,
			Title:      res.DisplayTitle(),
			Year:       res.Year(),
			PosterPath: res.PosterPath,
			Overview:   res.Overview,
			Popularity: res.Popularity,
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) listSeasons(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", err.Error())
		return
	}
	seasons, err := s.deps.Catalog.GetSeasons(r.Context(), id)
	if err != nil {
		writeCatalogError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, seasons)
}

func (s *Server) getSeason(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", err.Error())
		return
	}
	season, err := strconv.Atoi(r.PathValue("season"))
	if err != nil || season < 0 {
		writeError(w, http.StatusBadRequest, "INVALID_SEASON", "season must be a non-negative integer")
		return
	}
	detail, err := s.deps.Catalog.GetSeason(r.Context(), id, season)
	if err != nil {
		writeCatalogError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}
