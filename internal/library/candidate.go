package library

import "fmt"

const candidateColumns = `id, group_id, job_id, rank, tmdb_id, media_type, title, year, poster_path, overview, confidence`

func scanCandidate(row rowScanner) (*Candidate, error) {
	c := &Candidate{}
	err := row.Scan(&c.ID, &c.GroupID, &c.JobID, &c.Rank, &c.TMDBID, &c.MediaType, &c.Title, &c.Year,
		&c.PosterPath, &c.Overview, &c.Confidence)
	return c, err
}

func getCandidate(q querier, id int64) (*Candidate, error) {
	c, err := scanCandidate(q.QueryRow("SELECT "+candidateColumns+" FROM match_candidates WHERE id = ?", id))
	if err != nil {
		return nil, fmt.Errorf("get candidate %d: %w", id, mapSQLiteError(err))
	}
	return c, nil
}

// GetCandidate retrieves a candidate by ID.
func (s *Store) GetCandidate(id int64) (*Candidate, error) { return getCandidate(s.db, id) }

func replaceGroupCandidates(q querier, groupID int64, cands []Candidate) error {
	if _, err := q.Exec("DELETE FROM match_candidates WHERE group_id = ?", groupID); err != nil {
		return fmt.Errorf("clear candidates for group %d: %w", groupID, err)
	}
	for i := range cands {
		c := &cands[i]
		c.GroupID = &groupID
		c.Rank = i
		result, err := q.Exec(`
			INSERT INTO match_candidates (group_id, job_id, rank, tmdb_id, media_type, title, year, poster_path,
				overview, confidence)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			groupID, c.JobID, c.Rank, c.TMDBID, c.MediaType, c.Title, c.Year, c.PosterPath, c.Overview, c.Confidence,
		)
		if err != nil {
			return fmt.Errorf("insert candidate for group %d: %w", groupID, mapSQLiteError(err))
		}
		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("get last insert id: %w", err)
		}
		c.ID = id
	}
	return nil
}

// ReplaceGroupCandidates drops every stored candidate for the group and
// inserts cands in order. Rank follows slice position. IDs are set on cands.
func (s *Store) ReplaceGroupCandidates(groupID int64, cands []Candidate) error {
	return s.inTx(func(tx *Tx) error { return replaceGroupCandidates(tx.tx, groupID, cands) })
}

// ReplaceGroupCandidates replaces a group's candidates within a transaction.
func (t *Tx) ReplaceGroupCandidates(groupID int64, cands []Candidate) error {
	return replaceGroupCandidates(t.tx, groupID, cands)
}

// ListGroupCandidates returns a group's candidates best first.
func (s *Store) ListGroupCandidates(groupID int64) ([]*Candidate, error) {
	rows, err := s.db.Query("SELECT "+candidateColumns+" FROM match_candidates WHERE group_id = ? ORDER BY rank, id",
		groupID)
	if err != nil {
		return nil, fmt.Errorf("list candidates for group %d: %w", groupID, err)
	}
	defer func() { _ = rows.Close() }()

	var results []*Candidate
	for rows.Next() {
		c, err := scanCandidate(rows)
		if err != nil {
			return nil, fmt.Errorf("scan candidate: %w", err)
		}
		results = append(results, c)
	}
	return results, rows.Err()
}
