package release

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// normalizeTitle composes decomposed characters (common in names copied off
// macOS volumes) and collapses whitespace.
func normalizeTitle(s string) string {
	s = norm.NFC.String(s)
	s = multiSpacePattern.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// DisplayTitle returns the title or fallback when the title is absent.
func (i Info) DisplayTitle(fallback string) string {
	if i.Title == nil {
		return fallback
	}
	return *i.Title
}
