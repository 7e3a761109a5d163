package library

import (
	"fmt"
	"strings"
	"time"
)

const groupColumns = `id, status, media_type, folder_path, folder_name, total_file_count, total_file_size,
	parsed_title, parsed_year, tmdb_id, tmdb_title, tmdb_year, tmdb_poster_path, match_confidence,
	destination_id, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGroup(row rowScanner) (*Group, error) {
	g := &Group{}
	err := row.Scan(&g.ID, &g.Status, &g.MediaType, &g.FolderPath, &g.FolderName, &g.TotalFileCount, &g.TotalFileSize,
		&g.ParsedTitle, &g.ParsedYear, &g.TMDBID, &g.TMDBTitle, &g.TMDBYear, &g.TMDBPosterPath, &g.MatchConfidence,
		&g.DestinationID, &g.CreatedAt, &g.UpdatedAt)
	return g, err
}

func addGroup(q querier, g *Group) error {
	now := time.Now()
	if g.Status == "" {
		g.Status = StatusScanned
	}
	if g.MediaType == "" {
		g.MediaType = MediaUnknown
	}
	result, err := q.Exec(`
		INSERT INTO media_groups (status, media_type, folder_path, folder_name, total_file_count, total_file_size,
			parsed_title, parsed_year, tmdb_id, tmdb_title, tmdb_year, tmdb_poster_path, match_confidence,
			destination_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		g.Status, g.MediaType, g.FolderPath, g.FolderName, g.TotalFileCount, g.TotalFileSize,
		g.ParsedTitle, g.ParsedYear, g.TMDBID, g.TMDBTitle, g.TMDBYear, g.TMDBPosterPath, g.MatchConfidence,
		g.DestinationID, now, now,
	)
	if err != nil {
		return fmt.Errorf("insert group: %w", mapSQLiteError(err))
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}
	g.ID = id
	g.CreatedAt = now
	g.UpdatedAt = now
	return nil
}

// AddGroup inserts a new group.
// Sets ID, CreatedAt, and UpdatedAt on the struct.
func (s *Store) AddGroup(g *Group) error { return addGroup(s.db, g) }

// AddGroup inserts a new group within a transaction.
func (t *Tx) AddGroup(g *Group) error { return addGroup(t.tx, g) }

func getGroup(q querier, id int64) (*Group, error) {
	g, err := scanGroup(q.QueryRow("SELECT "+groupColumns+" FROM media_groups WHERE id = ?", id))
	if err != nil {
		return nil, fmt.Errorf("get group %d: %w", id, mapSQLiteError(err))
	}
	return g, nil
}

// GetGroup retrieves a group by ID.
// Returns ErrNotFound if the group does not exist.
func (s *Store) GetGroup(id int64) (*Group, error) { return getGroup(s.db, id) }

// GetGroup retrieves a group by ID within a transaction.
func (t *Tx) GetGroup(id int64) (*Group, error) { return getGroup(t.tx, id) }

func listGroups(q querier, f GroupFilter) ([]*Group, int, error) {
	var conditions []string
	var args []any

	if len(f.Statuses) > 0 {
		marks := make([]string, len(f.Statuses))
		for i, st := range f.Statuses {
			marks[i] = "?"
			args = append(args, st)
		}
		conditions = append(conditions, "status IN ("+strings.Join(marks, ",")+")")
	}
	if f.MediaType != nil {
		conditions = append(conditions, "media_type = ?")
		args = append(args, *f.MediaType)
	}
	if f.Search != nil && *f.Search != "" {
		conditions = append(conditions, "(folder_name LIKE ? OR parsed_title LIKE ? OR tmdb_title LIKE ?)")
		like := "%" + *f.Search + "%"
		args = append(args, like, like, like)
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := q.QueryRow("SELECT COUNT(*) FROM media_groups "+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count groups: %w", err)
	}

	query := "SELECT " + groupColumns + " FROM media_groups " + whereClause + " ORDER BY id"
	if f.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.Limit, f.Offset)
	}

	rows, err := q.Query(query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list groups: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []*Group
	for rows.Next() {
		g, err := scanGroup(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan group: %w", err)
		}
		results = append(results, g)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate groups: %w", err)
	}

	return results, total, nil
}

// ListGroups returns groups matching the filter with pagination.
// Returns (results, totalCount, error).
func (s *Store) ListGroups(f GroupFilter) ([]*Group, int, error) { return listGroups(s.db, f) }

// ListGroups returns groups matching the filter within a transaction.
func (t *Tx) ListGroups(f GroupFilter) ([]*Group, int, error) { return listGroups(t.tx, f) }

// GroupFolderPaths returns the set of folder paths already tracked.
func (s *Store) GroupFolderPaths() (map[string]bool, error) {
	rows, err := s.db.Query("SELECT folder_path FROM media_groups")
	if err != nil {
		return nil, fmt.Errorf("list folder paths: %w", err)
	}
	defer func() { _ = rows.Close() }()

	paths := make(map[string]bool)
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("scan folder path: %w", err)
		}
		paths[p] = true
	}
	return paths, rows.Err()
}

func updateGroup(q querier, g *Group) error {
	now := time.Now()
	result, err := q.Exec(`
		UPDATE media_groups SET status = ?, media_type = ?, folder_path = ?, folder_name = ?, total_file_count = ?,
			total_file_size = ?, parsed_title = ?, parsed_year = ?, tmdb_id = ?, tmdb_title = ?, tmdb_year = ?,
			tmdb_poster_path = ?, match_confidence = ?, destination_id = ?, updated_at = ?
		WHERE id = ?`,
		g.Status, g.MediaType, g.FolderPath, g.FolderName, g.TotalFileCount,
		g.TotalFileSize, g.ParsedTitle, g.ParsedYear, g.TMDBID, g.TMDBTitle, g.TMDBYear,
		g.TMDBPosterPath, g.MatchConfidence, g.DestinationID, now, g.ID,
	)
	if err != nil {
		return fmt.Errorf("update group %d: %w", g.ID, mapSQLiteError(err))
	}
	if err := checkAffected(result, "update group", g.ID); err != nil {
		return err
	}
	g.UpdatedAt = now
	return nil
}

// UpdateGroup writes every mutable field of g. It does not touch child jobs;
// use SetGroupStatus or ApplyGroupMatch for changes that must cascade.
// Returns ErrNotFound if the group does not exist.
func (s *Store) UpdateGroup(g *Group) error { return updateGroup(s.db, g) }

// UpdateGroup writes every mutable field of g within a transaction.
func (t *Tx) UpdateGroup(g *Group) error { return updateGroup(t.tx, g) }

func setGroupStatus(q querier, id int64, status Status) error {
	now := time.Now()
	result, err := q.Exec("UPDATE media_groups SET status = ?, updated_at = ? WHERE id = ?", status, now, id)
	if err != nil {
		return fmt.Errorf("set group %d status: %w", id, mapSQLiteError(err))
	}
	if err := checkAffected(result, "set group status", id); err != nil {
		return err
	}
	if _, err := q.Exec("UPDATE jobs SET status = ?, updated_at = ? WHERE group_id = ?", status, now, id); err != nil {
		return fmt.Errorf("cascade status to group %d jobs: %w", id, mapSQLiteError(err))
	}
	return nil
}

// SetGroupStatus changes a group's status and cascades it to every job in the
// group. Both updates commit together or not at all.
func (s *Store) SetGroupStatus(id int64, status Status) error {
	return s.inTx(func(tx *Tx) error { return setGroupStatus(tx.tx, id, status) })
}

// SetGroupStatus changes a group's status and its jobs' within a transaction.
func (t *Tx) SetGroupStatus(id int64, status Status) error { return setGroupStatus(t.tx, id, status) }

func applyGroupMatch(q querier, id int64, m Match) error {
	now := time.Now()
	result, err := q.Exec(`
		UPDATE media_groups SET status = ?, tmdb_id = ?, tmdb_title = ?, tmdb_year = ?, tmdb_poster_path = ?,
			match_confidence = ?, media_type = ?, updated_at = ?
		WHERE id = ?`,
		StatusMatched, m.TMDBID, m.Title, m.Year, m.PosterPath, m.Confidence, m.MediaType, now, id,
	)
	if err != nil {
		return fmt.Errorf("apply match to group %d: %w", id, mapSQLiteError(err))
	}
	if err := checkAffected(result, "apply match to group", id); err != nil {
		return err
	}
	_, err = q.Exec(`
		UPDATE jobs SET status = ?, tmdb_id = ?, tmdb_title = ?, tmdb_year = ?, tmdb_poster_path = ?,
			match_confidence = ?, media_type = ?, updated_at = ?
		WHERE group_id = ?`,
		StatusMatched, m.TMDBID, m.Title, m.Year, m.PosterPath, m.Confidence, m.MediaType, now, id,
	)
	if err != nil {
		return fmt.Errorf("cascade match to group %d jobs: %w", id, mapSQLiteError(err))
	}
	return nil
}

// ApplyGroupMatch marks a group matched with the given identity and copies the
// identity, media type and status onto all of its jobs in one transaction.
func (s *Store) ApplyGroupMatch(id int64, m Match) error {
	return s.inTx(func(tx *Tx) error { return applyGroupMatch(tx.tx, id, m) })
}

// ApplyGroupMatch applies a match within a transaction.
func (t *Tx) ApplyGroupMatch(id int64, m Match) error { return applyGroupMatch(t.tx, id, m) }

// MarkGroupAmbiguous sets a group to ambiguous. A nil confidence leaves the
// stored confidence unchanged. Jobs are not touched.
func (s *Store) MarkGroupAmbiguous(id int64, confidence *float64) error {
	result, err := s.db.Exec(`
		UPDATE media_groups SET status = ?, match_confidence = COALESCE(?, match_confidence), updated_at = ?
		WHERE id = ?`, StatusAmbiguous, confidence, time.Now(), id)
	if err != nil {
		return fmt.Errorf("mark group %d ambiguous: %w", id, mapSQLiteError(err))
	}
	return checkAffected(result, "mark group ambiguous", id)
}

// ApplyCandidate applies a stored candidate to its group as a manual pick.
func (s *Store) ApplyCandidate(groupID, candidateID int64) error {
	return s.inTx(func(tx *Tx) error {
		c, err := getCandidate(tx.tx, candidateID)
		if err != nil {
			return err
		}
		if c.GroupID == nil || *c.GroupID != groupID {
			return fmt.Errorf("candidate %d does not belong to group %d: %w", candidateID, groupID, ErrConstraint)
		}
		return applyGroupMatch(tx.tx, groupID, Match{
			TMDBID:     c.TMDBID,
			Title:      c.Title,
			Year:       c.Year,
			PosterPath: c.PosterPath,
			Confidence: c.Confidence,
			MediaType:  c.MediaType,
		})
	})
}

func deleteGroup(q querier, id int64) error {
	_, err := q.Exec("DELETE FROM media_groups WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete group %d: %w", id, mapSQLiteError(err))
	}
	return nil
}

// DeleteGroup removes a group; its jobs and candidates go with it.
// This operation is idempotent.
func (s *Store) DeleteGroup(id int64) error { return deleteGroup(s.db, id) }

// DeleteGroup removes a group within a transaction.
func (t *Tx) DeleteGroup(id int64) error { return deleteGroup(t.tx, id) }
