// Package release parses media file and folder names into structured identity.
package release

import "time"

// MediaType is the inferred kind of a parsed name.
type MediaType int

const (
	MediaUnknown MediaType = iota
	MediaMovie
	MediaTV
)

// unknownStr is the string representation for unknown values.
const unknownStr = "unknown"

func (m MediaType) String() string {
	switch m {
	case MediaMovie:
		return "movie"
	case MediaTV:
		return "tv"
	default:
		return unknownStr
	}
}

// ParseMediaType converts the persisted form back to a MediaType.
// Anything unrecognised maps to MediaUnknown.
func ParseMediaType(s string) MediaType {
	switch s {
	case "movie":
		return MediaMovie
	case "tv":
		return MediaTV
	default:
		return MediaUnknown
	}
}

// Info is the result of parsing a file name. Nil fields were not found.
type Info struct {
	Title     *string   `json:"title,omitempty"`
	Year      *int      `json:"year,omitempty"`
	Season    *int      `json:"season,omitempty"`
	Episode   *int      `json:"episode,omitempty"`
	Quality   *string   `json:"quality,omitempty"`
	Codec     *string   `json:"codec,omitempty"`
	MediaType MediaType `json:"-"`
}

// FolderInfo is the result of parsing a directory name.
type FolderInfo struct {
	Title *string `json:"title,omitempty"`
	Year  *int    `json:"year,omitempty"`
}

// Now returns the current time. Tests replace it to pin the valid year range.
var Now = time.Now

// maxYear is the newest year accepted as a release year.
func maxYear() int {
	return Now().Year() + 1
}

const minYear = 1900

func validYear(y int) bool {
	return y >= minYear && y <= maxYear()
}
