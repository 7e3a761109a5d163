package v1

import (
	"time"

	"github.com/sentient-soup/reelname/internal/library"
)

// groupResponse is the API representation of a media group.
type groupResponse struct {
	ID              int64     `json:"id"`
	Status          string    `json:"status"`
	MediaType       string    `json:"media_type"`
	FolderPath      string    `json:"folder_path"`
	FolderName      string    `json:"folder_name"`
	TotalFileCount  int       `json:"total_file_count"`
	TotalFileSize   int64     `json:"total_file_size"`
	ParsedTitle     *string   `json:"parsed_title,omitempty"`
	ParsedYear      *int      `json:"parsed_year,omitempty"`
	TMDBID          *int64    `json:"tmdb_id,omitempty"`
	TMDBTitle       *string   `json:"tmdb_title,omitempty"`
	TMDBYear        *int      `json:"tmdb_year,omitempty"`
	TMDBPosterPath  *string   `json:"tmdb_poster_path,omitempty"`
	MatchConfidence *float64  `json:"match_confidence,omitempty"`
	DestinationID   *int64    `json:"destination_id,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// groupDetailResponse is the response for GET /groups/{id}.
type groupDetailResponse struct {
	groupResponse
	Jobs       []jobResponse       `json:"jobs"`
	Candidates []candidateResponse `json:"candidates"`
}

// listGroupsResponse is the response for GET /groups.
type listGroupsResponse struct {
	Items  []groupResponse `json:"items"`
	Total  int             `json:"total"`
	Limit  int             `json:"limit"`
	Offset int             `json:"offset"`
}

// jobResponse is the API representation of a job.
type jobResponse struct {
	ID               int64     `json:"id"`
	GroupID          *int64    `json:"group_id,omitempty"`
	Status           string    `json:"status"`
	MediaType        string    `json:"media_type"`
	FileCategory     string    `json:"file_category"`
	ExtraType        *string   `json:"extra_type,omitempty"`
	SourcePath       string    `json:"source_path"`
	FileName         string    `json:"file_name"`
	FileSize         int64     `json:"file_size"`
	FileExtension    string    `json:"file_extension"`
	ParsedTitle      *string   `json:"parsed_title,omitempty"`
	ParsedYear       *int      `json:"parsed_year,omitempty"`
	ParsedSeason     *int      `json:"parsed_season,omitempty"`
	ParsedEpisode    *int      `json:"parsed_episode,omitempty"`
	ParsedQuality    *string   `json:"parsed_quality,omitempty"`
	ParsedCodec      *string   `json:"parsed_codec,omitempty"`
	TMDBID           *int64    `json:"tmdb_id,omitempty"`
	TMDBTitle        *string   `json:"tmdb_title,omitempty"`
	TMDBYear         *int      `json:"tmdb_year,omitempty"`
	TMDBEpisodeTitle *string   `json:"tmdb_episode_title,omitempty"`
	MatchConfidence  *float64  `json:"match_confidence,omitempty"`
	DestinationID    *int64    `json:"destination_id,omitempty"`
	DestinationPath  *string   `json:"destination_path,omitempty"`
	TransferProgress *float64  `json:"transfer_progress,omitempty"`
	TransferError    *string   `json:"transfer_error,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// listJobsResponse is the response for GET /jobs.
type listJobsResponse struct {
	Items  []jobResponse `json:"items"`
	Total  int           `json:"total"`
	Limit  int           `json:"limit"`
	Offset int           `json:"offset"`
}

// candidateResponse is one scored catalog match.
type candidateResponse struct {
	ID         int64   `json:"id"`
	Rank       int     `json:"rank"`
	TMDBID     int64   `json:"tmdb_id"`
	MediaType  string  `json:"media_type"`
	Title      string  `json:"title"`
	Year       *int    `json:"year,omitempty"`
	PosterPath *string `json:"poster_path,omitempty"`
	Overview   *string `json:"overview,omitempty"`
	Confidence float64 `json:"confidence"`
}

// destinationResponse omits the key passphrase.
type destinationResponse struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	Type          string    `json:"type"`
	BasePath      string    `json:"base_path"`
	SSHHost       *string   `json:"ssh_host,omitempty"`
	SSHPort       *int      `json:"ssh_port,omitempty"`
	SSHUser       *string   `json:"ssh_user,omitempty"`
	SSHKeyPath    *string   `json:"ssh_key_path,omitempty"`
	HasPassphrase bool      `json:"has_passphrase"`
	MovieTemplate *string   `json:"movie_template,omitempty"`
	TVTemplate    *string   `json:"tv_template,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// destinationRequest is the body for POST and PUT /destinations.
type destinationRequest struct {
	Name             string  `json:"name"`
	Type             string  `json:"type"`
	BasePath         string  `json:"base_path"`
	SSHHost          *string `json:"ssh_host"`
	SSHPort          *int    `json:"ssh_port"`
	SSHUser          *string `json:"ssh_user"`
	SSHKeyPath       *string `json:"ssh_key_path"`
	SSHKeyPassphrase *string `json:"ssh_key_passphrase"`
	MovieTemplate    *string `json:"movie_template"`
	TVTemplate       *string `json:"tv_template"`
}

// updateGroupRequest is the body for PATCH /groups/{id}. Absent fields are
// left unchanged.
type updateGroupRequest struct {
	Status        *string `json:"status"`
	MediaType     *string `json:"media_type"`
	ParsedTitle   *string `json:"parsed_title"`
	ParsedYear    *int    `json:"parsed_year"`
	TMDBID        *int64  `json:"tmdb_id"`
	TMDBTitle     *string `json:"tmdb_title"`
	TMDBYear      *int    `json:"tmdb_year"`
	DestinationID *int64  `json:"destination_id"`
}

// updateJobRequest is the body for PATCH /jobs/{id}.
type updateJobRequest struct {
	Status           *string `json:"status"`
	FileCategory     *string `json:"file_category"`
	ExtraType        *string `json:"extra_type"`
	ParsedTitle      *string `json:"parsed_title"`
	ParsedYear       *int    `json:"parsed_year"`
	ParsedSeason     *int    `json:"parsed_season"`
	ParsedEpisode    *int    `json:"parsed_episode"`
	TMDBEpisodeTitle *string `json:"tmdb_episode_title"`
	DestinationID    *int64  `json:"destination_id"`
}

// pickRequest selects a stored candidate, or supplies a catalog entry found
// through a manual search.
type pickRequest struct {
	CandidateID *int64  `json:"candidate_id"`
	TMDBID      *int64  `json:"tmdb_id"`
	Title       string  `json:"title"`
	Year        *int    `json:"year"`
	PosterPath  *string `json:"poster_path"`
	MediaType   string  `json:"media_type"`
}

type bulkRequest struct {
	Action   string  `json:"action"`
	GroupIDs []int64 `json:"group_ids"`
	JobIDs   []int64 `json:"job_ids"`
}

type bulkResponse struct {
	Affected int `json:"affected"`
}

type scanRequest struct {
	Path string `json:"path"`
}

type transferRequest struct {
	DestinationID int64   `json:"destination_id"`
	JobIDs        []int64 `json:"job_ids"`
	GroupIDs      []int64 `json:"group_ids"`
	Wait          bool    `json:"wait"`
}

type transferAcceptedResponse struct {
	Queued int `json:"queued"`
}

type testConnectionResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

type statusResponse struct {
	Version string         `json:"version"`
	Groups  map[string]int `json:"groups"`
	Jobs    map[string]int `json:"jobs"`
}

// EventResponse is one persisted event.
type EventResponse struct {
	ID         int64  `json:"id"`
	EventType  string `json:"event_type"`
	EntityType string `json:"entity_type"`
	EntityID   int64  `json:"entity_id"`
	Payload    string `json:"payload"`
	OccurredAt string `json:"occurred_at"`
}

type listEventsResponse struct {
	Items []EventResponse `json:"items"`
	Total int             `json:"total"`
}

func groupToResponse(g *library.Group) groupResponse {
	return groupResponse{
		ID:              g.ID,
		Status:          string(g.Status),
		MediaType:       string(g.MediaType),
		FolderPath:      g.FolderPath,
		FolderName:      g.FolderName,
		TotalFileCount:  g.TotalFileCount,
		TotalFileSize:   g.TotalFileSize,
		ParsedTitle:     g.ParsedTitle,
		ParsedYear:      g.ParsedYear,
		TMDBID:          g.TMDBID,
		TMDBTitle:       g.TMDBTitle,
		TMDBYear:        g.TMDBYear,
		TMDBPosterPath:  g.TMDBPosterPath,
		MatchConfidence: g.MatchConfidence,
		DestinationID:   g.DestinationID,
		CreatedAt:       g.CreatedAt,
		UpdatedAt:       g.UpdatedAt,
	}
}

func jobToResponse(j *library.Job) jobResponse {
	resp := jobResponse{
		ID:               j.ID,
		GroupID:          j.GroupID,
		Status:           string(j.Status),
		MediaType:        string(j.MediaType),
		FileCategory:     string(j.FileCategory),
		SourcePath:       j.SourcePath,
		FileName:         j.FileName,
		FileSize:         j.FileSize,
		FileExtension:    j.FileExtension,
		ParsedTitle:      j.ParsedTitle,
		ParsedYear:       j.ParsedYear,
		ParsedSeason:     j.ParsedSeason,
		ParsedEpisode:    j.ParsedEpisode,
		ParsedQuality:    j.ParsedQuality,
		ParsedCodec:      j.ParsedCodec,
		TMDBID:           j.TMDBID,
		TMDBTitle:        j.TMDBTitle,
		TMDBYear:         j.TMDBYear,
		TMDBEpisodeTitle: j.TMDBEpisodeTitle,
		MatchConfidence:  j.MatchConfidence,
		DestinationID:    j.DestinationID,
		DestinationPath:  j.DestinationPath,
		TransferProgress: j.TransferProgress,
		TransferError:    j.TransferError,
		CreatedAt:        j.CreatedAt,
		UpdatedAt:        j.UpdatedAt,
	}
	if j.ExtraType != nil {
		et := string(*j.ExtraType)
		resp.ExtraType = &et
	}
	return resp
}

func candidateToResponse(c *library.Candidate) candidateResponse {
	return candidateResponse{
		ID:         c.ID,
		Rank:       c.Rank,
		TMDBID:     c.TMDBID,
		MediaType:  string(c.MediaType),
		Title:      c.Title,
		Year:       c.Year,
		PosterPath: c.PosterPath,
		Overview:   c.Overview,
		Confidence: c.Confidence,
	}
}

func destinationToResponse(d *library.Destination) destinationResponse {
	return destinationResponse{
		ID:            d.ID,
		Name:          d.Name,
		Type:          string(d.Type),
		BasePath:      d.BasePath,
		SSHHost:       d.SSHHost,
		SSHPort:       d.SSHPort,
		SSHUser:       d.SSHUser,
		SSHKeyPath:    d.SSHKeyPath,
		HasPassphrase: d.SSHKeyPassphrase != nil && *d.SSHKeyPassphrase != "",
		MovieTemplate: d.MovieTemplate,
		TVTemplate:    d.TVTemplate,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
}
