// Package library persists scanned groups, their jobs, match candidates,
// destinations and settings.
package library

import (
	"fmt"
	"strings"
	"time"
)

// Status is the lifecycle state shared by groups and jobs.
type Status string

const (
	StatusScanned      Status = "scanned"
	StatusMatched      Status = "matched"
	StatusAmbiguous    Status = "ambiguous"
	StatusConfirmed    Status = "confirmed"
	StatusTransferring Status = "transferring"
	StatusCompleted    Status = "completed"
	StatusFailed       Status = "failed"
	StatusSkipped      Status = "skipped"
)

var allStatuses = []Status{
	StatusScanned, StatusMatched, StatusAmbiguous, StatusConfirmed,
	StatusTransferring, StatusCompleted, StatusFailed, StatusSkipped,
}

var validStatuses = func() map[Status]bool {
	m := make(map[Status]bool, len(allStatuses))
	for _, s := range allStatuses {
		m[s] = true
	}
	return m
}()

// Statuses returns every status in lifecycle order.
func Statuses() []Status { return append([]Status(nil), allStatuses...) }

// Valid reports whether s is a known status.
func (s Status) Valid() bool { return validStatuses[s] }

// IsTerminal reports whether a transfer has finished, successfully or not.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// MediaType distinguishes movies from shows.
type MediaType string

const (
	MediaMovie   MediaType = "movie"
	MediaTV      MediaType = "tv"
	MediaUnknown MediaType = "unknown"
)

// FileCategory classifies a job within its group.
type FileCategory string

const (
	CategoryEpisode FileCategory = "episode"
	CategoryMovie   FileCategory = "movie"
	CategorySpecial FileCategory = "special"
	CategoryExtra   FileCategory = "extra"
)

// ExtraType names the kind of bonus material an extra is.
type ExtraType string

const (
	ExtraBehindTheScenes ExtraType = "behind_the_scenes"
	ExtraDeletedScenes   ExtraType = "deleted_scenes"
	ExtraFeaturettes     ExtraType = "featurettes"
	ExtraInterviews      ExtraType = "interviews"
	ExtraScenes          ExtraType = "scenes"
	ExtraShorts          ExtraType = "shorts"
	ExtraTrailers        ExtraType = "trailers"
	ExtraOther           ExtraType = "other"
)

// DestinationType selects the transfer backend.
type DestinationType string

const (
	DestinationLocal DestinationType = "local"
	DestinationSSH   DestinationType = "ssh"
)

// DefaultSSHPort is used when a destination leaves the port unset.
const DefaultSSHPort = 22

// Group is a set of files from one source folder believed to be one title.
type Group struct {
	ID              int64     `json:"id"`
	Status          Status    `json:"status"`
	MediaType       MediaType `json:"media_type"`
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

// Job is one file in a group with its own parse, match and transfer state.
type Job struct {
	ID               int64        `json:"id"`
	GroupID          *int64       `json:"group_id,omitempty"`
	Status           Status       `json:"status"`
	MediaType        MediaType    `json:"media_type"`
	FileCategory     FileCategory `json:"file_category"`
	ExtraType        *ExtraType   `json:"extra_type,omitempty"`
	SourcePath       string       `json:"source_path"`
	FileName         string       `json:"file_name"`
	FileSize         int64        `json:"file_size"`
	FileExtension    string       `json:"file_extension"` // includes the leading dot, e.g. ".mkv"
	ParsedTitle      *string      `json:"parsed_title,omitempty"`
	ParsedYear       *int         `json:"parsed_year,omitempty"`
	ParsedSeason     *int         `json:"parsed_season,omitempty"`
	ParsedEpisode    *int         `json:"parsed_episode,omitempty"`
	ParsedQuality    *string      `json:"parsed_quality,omitempty"`
	ParsedCodec      *string      `json:"parsed_codec,omitempty"`
	TMDBID           *int64       `json:"tmdb_id,omitempty"`
	TMDBTitle        *string      `json:"tmdb_title,omitempty"`
	TMDBYear         *int         `json:"tmdb_year,omitempty"`
	TMDBPosterPath   *string      `json:"tmdb_poster_path,omitempty"`
	TMDBEpisodeTitle *string      `json:"tmdb_episode_title,omitempty"`
	MatchConfidence  *float64     `json:"match_confidence,omitempty"`
	DestinationID    *int64       `json:"destination_id,omitempty"`
	DestinationPath  *string      `json:"destination_path,omitempty"`
	TransferProgress *float64     `json:"transfer_progress,omitempty"`
	TransferError    *string      `json:"transfer_error,omitempty"`
	CreatedAt        time.Time    `json:"created_at"`
	UpdatedAt        time.Time    `json:"updated_at"`
}

// Candidate is one scored catalog result for a group.
type Candidate struct {
	ID         int64     `json:"id"`
	GroupID    *int64    `json:"group_id,omitempty"`
	JobID      *int64    `json:"job_id,omitempty"`
	Rank       int       `json:"rank"`
	TMDBID     int64     `json:"tmdb_id"`
	MediaType  MediaType `json:"media_type"`
	Title      string    `json:"title"`
	Year       *int      `json:"year,omitempty"`
	PosterPath *string   `json:"poster_path,omitempty"`
	Overview   *string   `json:"overview,omitempty"`
	Confidence float64   `json:"confidence"`
}

// Destination is a transfer target.
type Destination struct {
	ID               int64           `json:"id"`
	Name             string          `json:"name"`
	Type             DestinationType `json:"type"`
	BasePath         string          `json:"base_path"`
	SSHHost          *string         `json:"ssh_host,omitempty"`
	SSHPort          *int            `json:"ssh_port,omitempty"`
	SSHUser          *string         `json:"ssh_user,omitempty"`
	SSHKeyPath       *string         `json:"ssh_key_path,omitempty"`
	SSHKeyPassphrase *string         `json:"-"`
	MovieTemplate    *string         `json:"movie_template,omitempty"`
	TVTemplate       *string         `json:"tv_template,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// Port returns the SSH port, defaulting to 22.
func (d *Destination) Port() int {
	if d.SSHPort == nil || *d.SSHPort == 0 {
		return DefaultSSHPort
	}
	return *d.SSHPort
}

// Validate reports what d is missing for its type.
func (d *Destination) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidDestination)
	}
	switch d.Type {
	case DestinationLocal:
		if strings.TrimSpace(d.BasePath) == "" {
			return fmt.Errorf("%w: base_path is required for local destinations", ErrInvalidDestination)
		}
	case DestinationSSH:
		if d.SSHHost == nil || strings.TrimSpace(*d.SSHHost) == "" {
			return fmt.Errorf("%w: ssh_host is required for ssh destinations", ErrInvalidDestination)
		}
		if d.SSHUser == nil || strings.TrimSpace(*d.SSHUser) == "" {
			return fmt.Errorf("%w: ssh_user is required for ssh destinations", ErrInvalidDestination)
		}
	default:
		return fmt.Errorf("%w: type must be local or ssh", ErrInvalidDestination)
	}
	if d.SSHPort != nil && (*d.SSHPort < 0 || *d.SSHPort > 65535) {
		return fmt.Errorf("%w: ssh_port out of range", ErrInvalidDestination)
	}
	return nil
}

// Match is the catalog identity applied to a group and cascaded to its jobs.
type Match struct {
	TMDBID     int64
	Title      string
	Year       *int
	PosterPath *string
	Confidence float64
	MediaType  MediaType
}
