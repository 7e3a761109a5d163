package release

import (
	"regexp"
	"strconv"
	"strings"
)

// ParseFileName extracts identity and quality markers from a bare file name.
// It never fails; fields that cannot be found are left nil.
func ParseFileName(name string) Info {
	var info Info

	working := stripExtension(name)
	working = bracketTagPattern.ReplaceAllString(working, " ")
	working = stripNonYearParens(working)
	working = separatorPattern.ReplaceAllString(working, " ")
	working, _ = stripFirst(working, releaseGroupPattern)

	for i, re := range seasonEpisodePatterns {
		loc := re.FindStringSubmatchIndex(working)
		if loc == nil {
			continue
		}
		if i == episodeOnly {
			info.Season = intPtr(1)
			info.Episode = atoiGroup(working, loc, 1)
		} else {
			info.Season = atoiGroup(working, loc, 1)
			info.Episode = atoiGroup(working, loc, 2)
		}
		working = working[:loc[0]] + " " + working[loc[1]:]
		break
	}

	if loc := yearPattern.FindStringSubmatchIndex(working); loc != nil {
		if y := atoiGroup(working, loc, 1); y != nil && validYear(*y) {
			info.Year = y
			working = working[:loc[0]] + " " + working[loc[1]:]
		}
	}

	working, info.Quality = stripFirstOf(working, qualityPatterns)
	working, _ = stripFirstOf(working, sourcePatterns)
	working, info.Codec = stripFirstOf(working, codecPatterns)
	working, _ = stripFirstOf(working, audioPatterns)

	for _, re := range miscPatterns {
		working = re.ReplaceAllString(working, " ")
	}

	info.Title = cleanTitle(working)
	info.MediaType = inferMediaType(info)
	return info
}

// ParseFolderName extracts a title and year from a directory name.
// A year in parentheses wins over a bare trailing year.
func ParseFolderName(name string) FolderInfo {
	var info FolderInfo

	working := bracketTagPattern.ReplaceAllString(name, " ")

	if m := parenYearPattern.FindStringSubmatch(working); m != nil {
		if y, err := strconv.Atoi(m[1]); err == nil && validYear(y) {
			info.Year = &y
			working = strings.ReplaceAll(working, m[0], "")
		}
	}

	if info.Year == nil {
		if loc := trailingYearPattern.FindStringSubmatchIndex(working); loc != nil {
			if y := atoiGroup(working, loc, 1); y != nil && validYear(*y) {
				info.Year = y
				working = working[:loc[0]]
			}
		}
	}

	working = parenTagPattern.ReplaceAllString(working, " ")
	working = separatorPattern.ReplaceAllString(working, " ")
	info.Title = cleanTitle(working)
	return info
}

func stripExtension(name string) string {
	if i := strings.LastIndex(name, "."); i >= 0 {
		return name[:i]
	}
	return name
}

// stripNonYearParens removes parenthesised tags unless the tag is exactly a
// four digit year such as "(1999)".
func stripNonYearParens(s string) string {
	return parenTagPattern.ReplaceAllStringFunc(s, func(m string) string {
		if parenYearExact.MatchString(m) {
			return m
		}
		return " "
	})
}

// stripFirst removes the first match of re, returning the full matched text.
func stripFirst(s string, re *regexp.Regexp) (string, *string) {
	loc := re.FindStringIndex(s)
	if loc == nil {
		return s, nil
	}
	matched := s[loc[0]:loc[1]]
	return s[:loc[0]] + " " + s[loc[1]:], &matched
}

// stripFirstOf tries each pattern in order and strips only the first hit.
func stripFirstOf(s string, patterns []*regexp.Regexp) (string, *string) {
	for _, re := range patterns {
		if out, matched := stripFirst(s, re); matched != nil {
			return out, matched
		}
	}
	return s, nil
}

func cleanTitle(s string) *string {
	s = dashPattern.ReplaceAllString(s, " ")
	s = bracketCharsPattern.ReplaceAllString(s, " ")
	s = normalizeTitle(s)
	if s == "" {
		return nil
	}
	return &s
}

func inferMediaType(info Info) MediaType {
	switch {
	case info.Season != nil || info.Episode != nil:
		return MediaTV
	case info.Year != nil:
		return MediaMovie
	default:
		return MediaUnknown
	}
}

func atoiGroup(s string, loc []int, group int) *int {
	start, end := loc[2*group], loc[2*group+1]
	if start < 0 {
		return nil
	}
	n, err := strconv.Atoi(s[start:end])
	if err != nil {
		return nil
	}
	return &n
}

func intPtr(n int) *int { return &n }
