package naming

import (
	"errors"
	"path"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// ErrPathTraversal is returned when a rendered path would escape its root.
var ErrPathTraversal = errors.New("path escapes destination root")

// illegalChars are characters not allowed in filenames on common filesystems.
var illegalChars = regexp.MustCompile(`[<>:"/\\|?*\x00]`)

// multiSpace matches runs of whitespace.
var multiSpace = regexp.MustCompile(`\s+`)

// Sanitize makes s safe as a single path component: illegal characters are
// dropped, whitespace collapsed, and leading or trailing spaces and dots
// trimmed. The result is NFC-normalized so the same title always maps to the
// same bytes on disk.
func Sanitize(s string) string {
	s = norm.NFC.String(s)
	s = illegalChars.ReplaceAllString(s, "")
	s = multiSpace.ReplaceAllString(s, " ")
	return strings.Trim(s, " .")
}

// ValidateRelative rejects rendered paths that are absolute, empty, or walk
// upward with "..".
func ValidateRelative(rel string) error {
	if rel == "" || strings.HasPrefix(rel, "/") {
		return ErrPathTraversal
	}
	for _, part := range strings.Split(rel, "/") {
		if part == ".." {
			return ErrPathTraversal
		}
	}
	if cleaned := path.Clean(rel); cleaned == "." || strings.HasPrefix(cleaned, "../") {
		return ErrPathTraversal
	}
	return nil
}
