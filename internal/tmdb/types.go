// Package tmdb provides a client for The Movie Database API.
package tmdb

import "strconv"

// SearchResult is one hit from a movie, tv or multi search.
type SearchResult struct {
	ID           int64   `json:"id"`
	Title        string  `json:"title,omitempty"` // movies
	Name         string  `json:"name,omitempty"`  // tv shows
	ReleaseDate  string  `json:"release_date,omitempty"`
	FirstAirDate string  `json:"first_air_date,omitempty"`
	PosterPath   string  `json:"poster_path,omitempty"`
	Overview     string  `json:"overview,omitempty"`
	Popularity   float64 `json:"popularity,omitempty"`
	MediaType    string  `json:"media_type,omitempty"` // "movie" or "tv"
	VoteAverage  float64 `json:"vote_average,omitempty"`
}

// DisplayTitle returns the movie title or show name, whichever is set.
func (r SearchResult) DisplayTitle() string {
	if r.Title != "" {
		return r.Title
	}
	return r.Name
}

// Year extracts the year from the release or first air date.
// Returns nil when neither date carries a year.
func (r SearchResult) Year() *int {
	date := r.ReleaseDate
	if date == "" {
		date = r.FirstAirDate
	}
	if len(date) < 4 {
		return nil
	}
	year, err := strconv.Atoi(date[:4])
	if err != nil {
		return nil
	}
	return &year
}

// PosterURL returns the full poster image URL.
// Size can be: w92, w154, w185, w342, w500, w780, original
func (r SearchResult) PosterURL(size string) string {
	if r.PosterPath == "" {
		return ""
	}
	return "https://image.tmdb.org/t/p/" + size + r.PosterPath
}

type searchResponse struct {
	Page         int            `json:"page"`
	Results      []SearchResult `json:"results"`
	TotalResults int            `json:"total_results"`
}

// Season is a season summary from the show detail endpoint.
type Season struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	SeasonNumber int    `json:"season_number"`
	EpisodeCount int    `json:"episode_count"`
	AirDate      string `json:"air_date,omitempty"`
	Overview     string `json:"overview,omitempty"`
	PosterPath   string `json:"poster_path,omitempty"`
}

// SeasonDetail is a season with its episode list.
type SeasonDetail struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	SeasonNumber int       `json:"season_number"`
	Episodes     []Episode `json:"episodes"`
}

// Episode is a single episode.
type Episode struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	EpisodeNumber int    `json:"episode_number"`
	SeasonNumber  int    `json:"season_number"`
	Overview      string `json:"overview,omitempty"`
	StillPath     string `json:"still_path,omitempty"`
}

type tvDetail struct {
	ID      int64    `json:"id"`
	Name    string   `json:"name"`
	Seasons []Season `json:"seasons"`
}
