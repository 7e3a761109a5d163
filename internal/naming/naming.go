// Package naming builds library-relative destination paths for jobs.
package naming

import (
	"fmt"
	"path"
	"regexp"
	"strconv"
	"strings"

	"github.com/sentient-soup/reelname/internal/library"
)

// Preset selects a media server's folder conventions.
type Preset string

const (
	PresetJellyfin Preset = "jellyfin"
	PresetPlex     Preset = "plex"
)

// ParsePreset maps a setting value to a Preset. Anything unrecognised is Jellyfin.
func ParsePreset(s string) Preset {
	if strings.EqualFold(strings.TrimSpace(s), string(PresetPlex)) {
		return PresetPlex
	}
	return PresetJellyfin
}

// Templates holds one path template per file category.
type Templates struct {
	Movie   string
	TV      string
	Special string
	Extra   string
}

var presetTemplates = map[Preset]Templates{
	PresetJellyfin: {
		Movie:   "{title} ({year})/{title} ({year}).{ext}",
		TV:      "{title} ({year})/Season {season:2}/{title} S{season:2}E{episode:2} - {episodeTitle}.{ext}",
		Special: "{title} ({year})/Season 00/{title} S00E{episode:2} - {episodeTitle}.{ext}",
		Extra:   "{title} ({year})/{extraType}/{fileName}.{ext}",
	},
	PresetPlex: {
		Movie:   "{title} ({year})/{title} ({year}).{ext}",
		TV:      "{title} ({year})/Season {season:2}/{title} ({year}) - s{season:2}e{episode:2} - {episodeTitle}.{ext}",
		Special: "{title} ({year})/{specialsFolder}/{title} ({year}) - s00e{episode:2} - {episodeTitle}.{ext}",
		Extra:   "{title} ({year})/{extraType}/{fileName}.{ext}",
	},
}

// Templates returns the preset's templates.
func (p Preset) Templates() Templates {
	if t, ok := presetTemplates[p]; ok {
		return t
	}
	return presetTemplates[PresetJellyfin]
}

var jellyfinExtraFolders = map[library.ExtraType]string{
	library.ExtraBehindTheScenes: "behind the scenes",
	library.ExtraDeletedScenes:   "deleted scenes",
	library.ExtraFeaturettes:     "featurettes",
	library.ExtraInterviews:      "interviews",
	library.ExtraScenes:          "clips",
	library.ExtraShorts:          "shorts",
	library.ExtraTrailers:        "trailers",
	library.ExtraOther:           "extras",
}

var plexExtraFolders = map[library.ExtraType]string{
	library.ExtraBehindTheScenes: "Behind The Scenes",
	library.ExtraDeletedScenes:   "Deleted Scenes",
	library.ExtraFeaturettes:     "Featurettes",
	library.ExtraInterviews:      "Interviews",
	library.ExtraScenes:          "Scenes",
	library.ExtraShorts:          "Shorts",
	library.ExtraTrailers:        "Trailers",
	library.ExtraOther:           "Other",
}

// Settings carries everything FormatPath needs besides the group and job.
type Settings struct {
	Preset             Preset
	SpecialsFolderName string
	ExtrasFolderName   string
	MovieTemplate      string // overrides the preset when set
	TVTemplate         string // overrides the preset when set
}

// SettingsFrom builds Settings from stored settings and an optional
// destination whose templates take precedence over the preset.
func SettingsFrom(values map[string]string, dest *library.Destination) Settings {
	s := Settings{
		Preset:             ParsePreset(values[library.SettingNamingPreset]),
		SpecialsFolderName: values[library.SettingSpecialsFolderName],
		ExtrasFolderName:   values[library.SettingExtrasFolderName],
	}
	if s.SpecialsFolderName == "" {
		s.SpecialsFolderName = "Specials"
	}
	if s.ExtrasFolderName == "" {
		s.ExtrasFolderName = "Extras"
	}
	if dest != nil {
		if dest.MovieTemplate != nil {
			s.MovieTemplate = strings.TrimSpace(*dest.MovieTemplate)
		}
		if dest.TVTemplate != nil {
			s.TVTemplate = strings.TrimSpace(*dest.TVTemplate)
		}
	}
	return s
}

func (s Settings) template(cat library.FileCategory) string {
	t := s.Preset.Templates()
	switch cat {
	case library.CategoryMovie:
		if s.MovieTemplate != "" {
			return s.MovieTemplate
		}
		return t.Movie
	case library.CategorySpecial:
		return t.Special
	case library.CategoryExtra:
		return t.Extra
	default:
		if s.TVTemplate != "" {
			return s.TVTemplate
		}
		return t.TV
	}
}

// FormatPath renders the library-relative destination path for j, a member
// of g. The result uses forward slashes.
func FormatPath(g *library.Group, j *library.Job, s Settings) string {
	title := "Unknown"
	switch {
	case g.TMDBTitle != nil && *g.TMDBTitle != "":
		title = *g.TMDBTitle
	case g.ParsedTitle != nil && *g.ParsedTitle != "":
		title = *g.ParsedTitle
	}

	year := ""
	for _, y := range []*int{g.TMDBYear, g.ParsedYear, j.TMDBYear, j.ParsedYear} {
		if y != nil {
			year = strconv.Itoa(*y)
			break
		}
	}

	episodeTitle := ""
	if j.TMDBEpisodeTitle != nil {
		episodeTitle = Sanitize(*j.TMDBEpisodeTitle)
	}
	if episodeTitle == "" {
		episodeTitle = "Episode"
	}

	quality := ""
	if j.ParsedQuality != nil {
		quality = *j.ParsedQuality
	}

	vars := map[string]any{
		"title":          Sanitize(title),
		"year":           year,
		"ext":            strings.TrimPrefix(j.FileExtension, "."),
		"episodeTitle":   episodeTitle,
		"quality":        quality,
		"fileName":       Sanitize(strings.TrimSuffix(j.FileName, path.Ext(j.FileName))),
		"extraType":      extraFolder(j.ExtraType, s),
		"specialsFolder": Sanitize(s.SpecialsFolderName),
		"season":         intOrZero(j.ParsedSeason),
		"episode":        intOrZero(j.ParsedEpisode),
	}

	result := applyTemplate(s.template(j.FileCategory), vars)
	result = strings.ReplaceAll(result, " - .", ".")
	result = strings.ReplaceAll(result, " - Episode.", ".")
	result = strings.ReplaceAll(result, " ()", "")
	return result
}

func extraFolder(et *library.ExtraType, s Settings) string {
	if et != nil {
		folders := jellyfinExtraFolders
		if s.Preset == PresetPlex {
			folders = plexExtraFolders
		}
		if name, ok := folders[*et]; ok {
			return name
		}
	}
	if s.Preset == PresetPlex {
		return Sanitize(s.ExtrasFolderName)
	}
	return strings.ToLower(Sanitize(s.ExtrasFolderName))
}

func intOrZero(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

// formatPattern matches {name} or {name:2} style placeholders.
var formatPattern = regexp.MustCompile(`\{(\w+)(?::(\d+))?\}`)

// applyTemplate substitutes variables into a template string.
// Supports {name} for simple substitution and {name:2} for zero-padded integers.
// Unknown placeholders are left as written.
func applyTemplate(template string, vars map[string]any) string {
	return formatPattern.ReplaceAllStringFunc(template, func(match string) string {
		parts := formatPattern.FindStringSubmatch(match)
		val, ok := vars[parts[1]]
		if !ok {
			return match
		}
		if parts[2] != "" {
			if width, err := strconv.Atoi(parts[2]); err == nil {
				if v, ok := val.(int); ok {
					return fmt.Sprintf("%0*d", width, v)
				}
			}
		}
		return fmt.Sprintf("%v", val)
	})
}
