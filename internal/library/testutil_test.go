package library

import (
	"database/sql"
	"testing"

	"github.com/sentient-soup/reelname/internal/migrations"

	_ "modernc.org/sqlite"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", "file::memory:?_pragma=foreign_keys(1)")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	if _, err := migrations.Apply(db); err != nil {
		t.Fatalf("apply schema: %v", err)
	}
	return db
}

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	s := NewStore(setupTestDB(t))
	if err := s.SeedDefaults(); err != nil {
		t.Fatalf("seed defaults: %v", err)
	}
	return s
}

// addTestGroup inserts a tv group with the given number of episode jobs.
func addTestGroup(t *testing.T, s *Store, folder string, episodes int) (*Group, []*Job) {
	t.Helper()
	g := &Group{
		MediaType:      MediaTV,
		FolderPath:     "/media/" + folder,
		FolderName:     folder,
		TotalFileCount: episodes,
		ParsedTitle:    ptr(folder),
	}
	if err := s.AddGroup(g); err != nil {
		t.Fatalf("AddGroup: %v", err)
	}
	var jobs []*Job
	for i := 1; i <= episodes; i++ {
		j := &Job{
			GroupID:       &g.ID,
			MediaType:     MediaTV,
			FileCategory:  CategoryEpisode,
			SourcePath:    g.FolderPath + "/" + folder + " S01E0" + string(rune('0'+i)) + ".mkv",
			FileName:      folder + " S01E0" + string(rune('0'+i)) + ".mkv",
			FileSize:      int64(1000 * i),
			FileExtension: ".mkv",
			ParsedSeason:  ptr(1),
			ParsedEpisode: ptr(i),
		}
		if err := s.AddJob(j); err != nil {
			t.Fatalf("AddJob: %v", err)
		}
		jobs = append(jobs, j)
	}
	return g, jobs
}

// ptr is a helper to create pointer to value
func ptr[T any](v T) *T {
	return &v
}
