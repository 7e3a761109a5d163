package library

import (
	"fmt"
	"strings"
	"time"
)

const jobColumns = `id, group_id, status, media_type, file_category, extra_type, source_path, file_name, file_size,
	file_extension, parsed_title, parsed_year, parsed_season, parsed_episode, parsed_quality, parsed_codec,
	tmdb_id, tmdb_title, tmdb_year, tmdb_poster_path, tmdb_episode_title, match_confidence,
	destination_id, destination_path, transfer_progress, transfer_error, created_at, updated_at`

func scanJob(row rowScanner) (*Job, error) {
	j := &Job{}
	err := row.Scan(&j.ID, &j.GroupID, &j.Status, &j.MediaType, &j.FileCategory, &j.ExtraType, &j.SourcePath,
		&j.FileName, &j.FileSize, &j.FileExtension, &j.ParsedTitle, &j.ParsedYear, &j.ParsedSeason,
		&j.ParsedEpisode, &j.ParsedQuality, &j.ParsedCodec, &j.TMDBID, &j.TMDBTitle, &j.TMDBYear,
		&j.TMDBPosterPath, &j.TMDBEpisodeTitle, &j.MatchConfidence, &j.DestinationID, &j.DestinationPath,
		&j.TransferProgress, &j.TransferError, &j.CreatedAt, &j.UpdatedAt)
	return j, err
}

func addJob(q querier, j *Job) error {
	now := time.Now()
	if j.Status == "" {
		j.Status = StatusScanned
	}
	if j.MediaType == "" {
		j.MediaType = MediaUnknown
	}
	if j.FileCategory == "" {
		j.FileCategory = CategoryEpisode
	}
	result, err := q.Exec(`
		INSERT INTO jobs (group_id, status, media_type, file_category, extra_type, source_path, file_name,
			file_size, file_extension, parsed_title, parsed_year, parsed_season, parsed_episode,
			parsed_quality, parsed_codec, tmdb_id, tmdb_title, tmdb_year, tmdb_poster_path,
			tmdb_episode_title, match_confidence, destination_id, destination_path, transfer_progress,
			transfer_error, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		j.GroupID, j.Status, j.MediaType, j.FileCategory, j.ExtraType, j.SourcePath, j.FileName,
		j.FileSize, j.FileExtension, j.ParsedTitle, j.ParsedYear, j.ParsedSeason, j.ParsedEpisode,
		j.ParsedQuality, j.ParsedCodec, j.TMDBID, j.TMDBTitle, j.TMDBYear, j.TMDBPosterPath,
		j.TMDBEpisodeTitle, j.MatchConfidence, j.DestinationID, j.DestinationPath, j.TransferProgress,
		j.TransferError, now, now,
	)
	if err != nil {
		return fmt.Errorf("insert job: %w", mapSQLiteError(err))
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}
	j.ID = id
	j.CreatedAt = now
	j.UpdatedAt = now
	return nil
}

// AddJob inserts a new job.
// Sets ID, CreatedAt, and UpdatedAt on the struct.
func (s *Store) AddJob(j *Job) error { return addJob(s.db, j) }

// AddJob inserts a new job within a transaction.
func (t *Tx) AddJob(j *Job) error { return addJob(t.tx, j) }

func getJob(q querier, id int64) (*Job, error) {
	j, err := scanJob(q.QueryRow("SELECT "+jobColumns+" FROM jobs WHERE id = ?", id))
	if err != nil {
		return nil, fmt.Errorf("get job %d: %w", id, mapSQLiteError(err))
	}
	return j, nil
}

// GetJob retrieves a job by ID.
// Returns ErrNotFound if the job does not exist.
func (s *Store) GetJob(id int64) (*Job, error) { return getJob(s.db, id) }

// GetJob retrieves a job by ID within a transaction.
func (t *Tx) GetJob(id int64) (*Job, error) { return getJob(t.tx, id) }

func getJobBySourcePath(q querier, path string) (*Job, error) {
	j, err := scanJob(q.QueryRow("SELECT "+jobColumns+" FROM jobs WHERE source_path = ?", path))
	if err != nil {
		return nil, fmt.Errorf("get job by source path %q: %w", path, mapSQLiteError(err))
	}
	return j, nil
}

// GetJobBySourcePath looks a job up by its absolute source path.
func (s *Store) GetJobBySourcePath(path string) (*Job, error) { return getJobBySourcePath(s.db, path) }

// GetJobBySourcePath looks a job up by source path within a transaction.
func (t *Tx) GetJobBySourcePath(path string) (*Job, error) { return getJobBySourcePath(t.tx, path) }

func listJobs(q querier, f JobFilter) ([]*Job, int, error) {
	var conditions []string
	var args []any

	if f.GroupID != nil {
		conditions = append(conditions, "group_id = ?")
		args = append(args, *f.GroupID)
	}
	if len(f.IDs) > 0 {
		marks, idArgs := inClause(f.IDs)
		conditions = append(conditions, "id IN ("+marks+")")
		args = append(args, idArgs...)
	}
	if len(f.Statuses) > 0 {
		marks := make([]string, len(f.Statuses))
		for i, st := range f.Statuses {
			marks[i] = "?"
			args = append(args, st)
		}
		conditions = append(conditions, "status IN ("+strings.Join(marks, ",")+")")
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := q.QueryRow("SELECT COUNT(*) FROM jobs "+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count jobs: %w", err)
	}

	query := "SELECT " + jobColumns + " FROM jobs " + whereClause +
		" ORDER BY group_id, parsed_season, parsed_episode, file_name"
	if f.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.Limit, f.Offset)
	}

	rows, err := q.Query(query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list jobs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []*Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan job: %w", err)
		}
		results = append(results, j)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate jobs: %w", err)
	}

	return results, total, nil
}

// ListJobs returns jobs matching the filter with pagination.
// Returns (results, totalCount, error).
func (s *Store) ListJobs(f JobFilter) ([]*Job, int, error) { return listJobs(s.db, f) }

// ListJobs returns jobs matching the filter within a transaction.
func (t *Tx) ListJobs(f JobFilter) ([]*Job, int, error) { return listJobs(t.tx, f) }

func updateJob(q querier, j *Job) error {
	now := time.Now()
	result, err := q.Exec(`
		UPDATE jobs SET group_id = ?, status = ?, media_type = ?, file_category = ?, extra_type = ?,
			source_path = ?, file_name = ?, file_size = ?, file_extension = ?, parsed_title = ?, parsed_year = ?,
			parsed_season = ?, parsed_episode = ?, parsed_quality = ?, parsed_codec = ?, tmdb_id = ?,
			tmdb_title = ?, tmdb_year = ?, tmdb_poster_path = ?, tmdb_episode_title = ?, match_confidence = ?,
			destination_id = ?, destination_path = ?, transfer_progress = ?, transfer_error = ?, updated_at = ?
		WHERE id = ?`,
		j.GroupID, j.Status, j.MediaType, j.FileCategory, j.ExtraType,
		j.SourcePath, j.FileName, j.FileSize, j.FileExtension, j.ParsedTitle, j.ParsedYear,
		j.ParsedSeason, j.ParsedEpisode, j.ParsedQuality, j.ParsedCodec, j.TMDBID,
		j.TMDBTitle, j.TMDBYear, j.TMDBPosterPath, j.TMDBEpisodeTitle, j.MatchConfidence,
		j.DestinationID, j.DestinationPath, j.TransferProgress, j.TransferError, now, j.ID,
	)
	if err != nil {
		return fmt.Errorf("update job %d: %w", j.ID, mapSQLiteError(err))
	}
	if err := checkAffected(result, "update job", j.ID); err != nil {
		return err
	}
	j.UpdatedAt = now
	return nil
}

// UpdateJob writes every mutable field of j.
// Returns ErrNotFound if the job does not exist.
func (s *Store) UpdateJob(j *Job) error { return updateJob(s.db, j) }

// UpdateJob writes every mutable field of j within a transaction.
func (t *Tx) UpdateJob(j *Job) error { return updateJob(t.tx, j) }

func deleteJob(q querier, id int64) error {
	if _, err := q.Exec("DELETE FROM jobs WHERE id = ?", id); err != nil {
		return fmt.Errorf("delete job %d: %w", id, mapSQLiteError(err))
	}
	return nil
}

// DeleteJob removes a job and its candidates.
// This operation is idempotent.
func (s *Store) DeleteJob(id int64) error { return deleteJob(s.db, id) }

// DeleteJob removes a job within a transaction.
func (t *Tx) DeleteJob(id int64) error { return deleteJob(t.tx, id) }

// DeleteOrphanJobs removes jobs that no longer belong to any group and
// returns how many were removed.
func (s *Store) DeleteOrphanJobs() (int64, error) {
	result, err := s.db.Exec("DELETE FROM jobs WHERE group_id IS NULL")
	if err != nil {
		return 0, fmt.Errorf("delete orphan jobs: %w", err)
	}
	return result.RowsAffected()
}

// SetJobEpisodeTitle stores the catalog's name for a job's episode.
func (s *Store) SetJobEpisodeTitle(id int64, title string) error {
	result, err := s.db.Exec("UPDATE jobs SET tmdb_episode_title = ?, updated_at = ? WHERE id = ?",
		title, time.Now(), id)
	if err != nil {
		return fmt.Errorf("set episode title on job %d: %w", id, mapSQLiteError(err))
	}
	return checkAffected(result, "set episode title", id)
}

// StartTransfer marks a job transferring to the given destination with zero
// progress and no error.
func (s *Store) StartTransfer(id, destinationID int64) error {
	result, err := s.db.Exec(`
		UPDATE jobs SET status = ?, destination_id = ?, transfer_progress = 0, transfer_error = NULL, updated_at = ?
		WHERE id = ?`, StatusTransferring, destinationID, time.Now(), id)
	if err != nil {
		return fmt.Errorf("start transfer of job %d: %w", id, mapSQLiteError(err))
	}
	return checkAffected(result, "start transfer", id)
}

// SetTransferProgress records fractional progress in [0, 1].
func (s *Store) SetTransferProgress(id int64, progress float64) error {
	_, err := s.db.Exec("UPDATE jobs SET transfer_progress = ?, updated_at = ? WHERE id = ?",
		progress, time.Now(), id)
	if err != nil {
		return fmt.Errorf("set progress of job %d: %w", id, err)
	}
	return nil
}

// CompleteTransfer marks a job completed at destPath.
func (s *Store) CompleteTransfer(id int64, destPath string) error {
	result, err := s.db.Exec(`
		UPDATE jobs SET status = ?, transfer_progress = 1, destination_path = ?, transfer_error = NULL, updated_at = ?
		WHERE id = ?`, StatusCompleted, destPath, time.Now(), id)
	if err != nil {
		return fmt.Errorf("complete transfer of job %d: %w", id, mapSQLiteError(err))
	}
	return checkAffected(result, "complete transfer", id)
}

// FailTransfer marks a job failed with the given reason.
func (s *Store) FailTransfer(id int64, reason string) error {
	result, err := s.db.Exec("UPDATE jobs SET status = ?, transfer_error = ?, updated_at = ? WHERE id = ?",
		StatusFailed, reason, time.Now(), id)
	if err != nil {
		return fmt.Errorf("fail transfer of job %d: %w", id, mapSQLiteError(err))
	}
	return checkAffected(result, "fail transfer", id)
}
