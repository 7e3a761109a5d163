// Package scanner walks a source tree into groups of video files and
// ingests them into the library.
package scanner

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/sentient-soup/reelname/internal/library"
)

// videoExtensions are the file types picked up by a scan.
var videoExtensions = map[string]bool{
	".mkv": true, ".mp4": true, ".avi": true, ".mov": true, ".wmv": true,
	".flv": true, ".m4v": true, ".mpg": true, ".mpeg": true, ".ts": true,
	".m2ts": true, ".vob": true, ".iso": true, ".webm": true,
}

// IsVideo reports whether name has a recognized video extension.
func IsVideo(name string) bool {
	return videoExtensions[strings.ToLower(filepath.Ext(name))]
}

// File is one video file found under a group folder.
type File struct {
	SourcePath     string
	FileName       string
	FileSize       int64
	FileExtension  string // with leading dot
	DetectedSeason *int   // from the containing season folder
	Category       library.FileCategory
	ExtraType      *library.ExtraType
}

// Group is one top-level folder, or one loose file at the scan root.
type Group struct {
	FolderPath string
	FolderName string
	Files      []File
}

// TotalSize sums the sizes of the group's files.
func (g Group) TotalSize() int64 {
	var n int64
	for _, f := range g.Files {
		n += f.FileSize
	}
	return n
}

// MediaType infers the group's type from its files: all movie files make a
// movie, any episode or special makes a show.
func (g Group) MediaType() library.MediaType {
	allMovies := len(g.Files) > 0
	hasEpisodes := false
	for _, f := range g.Files {
		if f.Category != library.CategoryMovie {
			allMovies = false
		}
		if f.Category == library.CategoryEpisode || f.Category == library.CategorySpecial {
			hasEpisodes = true
		}
	}
	switch {
	case allMovies:
		return library.MediaMovie
	case hasEpisodes:
		return library.MediaTV
	default:
		return library.MediaUnknown
	}
}

var seasonFolder = regexp.MustCompile(`(?i)^(?:Season\s*|S)(\d+)$`)

var specialsFolders = map[string]bool{
	"specials": true, "special": true, "season 0": true, "season 00": true, "season0": true, "season00": true,
}

var extraFolders = map[string]library.ExtraType{
	"extras":            library.ExtraOther,
	"extra":             library.ExtraOther,
	"other":             library.ExtraOther,
	"behind the scenes": library.ExtraBehindTheScenes,
	"behindthescenes":   library.ExtraBehindTheScenes,
	"deleted scenes":    library.ExtraDeletedScenes,
	"deletedscenes":     library.ExtraDeletedScenes,
	"featurettes":       library.ExtraFeaturettes,
	"featurette":        library.ExtraFeaturettes,
	"interviews":        library.ExtraInterviews,
	"interview":         library.ExtraInterviews,
	"scenes":            library.ExtraScenes,
	"scene":             library.ExtraScenes,
	"shorts":            library.ExtraShorts,
	"short":             library.ExtraShorts,
	"trailers":          library.ExtraTrailers,
	"trailer":           library.ExtraTrailers,
}

// classifyFolder decides what the files under a group subfolder are.
// Unrecognised folders hold episodes.
func classifyFolder(name string) (season *int, cat library.FileCategory, extra *library.ExtraType) {
	lower := strings.ToLower(strings.TrimSpace(name))
	if specialsFolders[lower] {
		zero := 0
		return &zero, library.CategorySpecial, nil
	}
	if m := seasonFolder.FindStringSubmatch(name); m != nil {
		n, err := strconv.Atoi(m[1])
		if err == nil {
			if n == 0 {
				return &n, library.CategorySpecial, nil
			}
			return &n, library.CategoryEpisode, nil
		}
	}
	if et, ok := extraFolders[lower]; ok {
		return nil, library.CategoryExtra, &et
	}
	return nil, library.CategoryEpisode, nil
}

// Scan reads root and returns one group per top-level directory holding at
// least one video, plus one single-file movie group per loose video at the
// root. A loose file's FolderPath is the file's own path.
func Scan(root string) ([]Group, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("read scan root: %w", err)
	}

	var groups []Group
	for _, entry := range entries {
		path := filepath.Join(root, entry.Name())
		switch {
		case entry.IsDir():
			g := scanFolder(path, entry.Name())
			if len(g.Files) > 0 {
				groups = append(groups, g)
			}
		case entry.Type().IsRegular() && IsVideo(entry.Name()):
			f := newFile(path, entry, nil, library.CategoryMovie, nil)
			groups = append(groups, Group{FolderPath: path, FolderName: entry.Name(), Files: []File{f}})
		}
	}
	return groups, nil
}

func scanFolder(folder, name string) Group {
	g := Group{FolderPath: folder, FolderName: name}

	entries, err := os.ReadDir(folder)
	if err != nil {
		return g
	}

	hasSeasonFolders := false
	for _, entry := range entries {
		path := filepath.Join(folder, entry.Name())
		if entry.IsDir() {
			season, cat, extra := classifyFolder(entry.Name())
			if season != nil && cat == library.CategoryEpisode {
				hasSeasonFolders = true
			}
			g.Files = append(g.Files, walkVideos(path, season, cat, extra)...)
			continue
		}
		if entry.Type().IsRegular() && IsVideo(entry.Name()) {
			g.Files = append(g.Files, newFile(path, entry, nil, library.CategoryEpisode, nil))
		}
	}

	// a lone file outside any season folder is a movie
	if !hasSeasonFolders && len(g.Files) == 1 && g.Files[0].Category == library.CategoryEpisode {
		g.Files[0].Category = library.CategoryMovie
	}
	return g
}

// walkVideos collects every video below dir. Unreadable entries are skipped.
func walkVideos(dir string, season *int, cat library.FileCategory, extra *library.ExtraType) []File {
	var files []File
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() && IsVideo(d.Name()) {
			files = append(files, newFile(path, d, season, cat, extra))
		}
		return nil
	})
	return files
}

func newFile(path string, d fs.DirEntry, season *int, cat library.FileCategory, extra *library.ExtraType) File {
	var size int64
	if info, err := d.Info(); err == nil {
		size = info.Size()
	}
	return File{
		SourcePath:     path,
		FileName:       d.Name(),
		FileSize:       size,
		FileExtension:  filepath.Ext(d.Name()),
		DetectedSeason: season,
		Category:       cat,
		ExtraType:      extra,
	}
}
