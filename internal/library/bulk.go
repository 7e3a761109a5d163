package library

import (
	"fmt"
	"time"
)

// Action is a bulk operation over groups or jobs.
type Action string

const (
	ActionConfirm Action = "confirm"
	ActionSkip    Action = "skip"
	ActionDelete  Action = "delete"
	ActionRematch Action = "rematch"
)

// ParseAction validates a bulk action name.
func ParseAction(s string) (Action, error) {
	switch a := Action(s); a {
	case ActionConfirm, ActionSkip, ActionDelete, ActionRematch:
		return a, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownAction, s)
}

// BulkAction applies action to every listed group and job in one transaction
// and returns how many rows were acted on. Group confirm and skip cascade to
// child jobs. Rematch clears catalog identity and drops stored candidates so
// the next match pass starts clean. Unknown IDs are ignored.
func (s *Store) BulkAction(action Action, groupIDs, jobIDs []int64) (int, error) {
	switch action {
	case ActionConfirm, ActionSkip, ActionDelete, ActionRematch:
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}

	var affected int
	err := s.inTx(func(tx *Tx) error {
		now := time.Now()
		for _, id := range groupIDs {
			n, err := groupAction(tx, action, id, now)
			if err != nil {
				return err
			}
			affected += n
		}
		for _, id := range jobIDs {
			n, err := jobAction(tx, action, id, now)
			if err != nil {
				return err
			}
			affected += n
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return affected, nil
}

type stmt struct {
	query string
	args  []any
}

func groupAction(tx *Tx, action Action, id int64, now time.Time) (int, error) {
	q := tx.tx
	var stmts []stmt
	add := func(query string, args ...any) { stmts = append(stmts, stmt{query, args}) }

	switch action {
	case ActionConfirm, ActionSkip:
		status := StatusConfirmed
		if action == ActionSkip {
			status = StatusSkipped
		}
		add("UPDATE media_groups SET status = ?, updated_at = ? WHERE id = ?", status, now, id)
		add("UPDATE jobs SET status = ?, updated_at = ? WHERE group_id = ?", status, now, id)
	case ActionDelete:
		add("DELETE FROM media_groups WHERE id = ?", id)
	case ActionRematch:
		add(`UPDATE media_groups SET status = ?, tmdb_id = NULL, tmdb_title = NULL, tmdb_year = NULL,
			tmdb_poster_path = NULL, match_confidence = NULL, updated_at = ? WHERE id = ?`, StatusScanned, now, id)
		add("UPDATE jobs SET status = ?, tmdb_episode_title = NULL, updated_at = ? WHERE group_id = ?",
			StatusScanned, now, id)
		add("DELETE FROM match_candidates WHERE group_id = ?", id)
	}

	var touched int64
	for i, st := range stmts {
		result, err := q.Exec(st.query, st.args...)
		if err != nil {
			return 0, fmt.Errorf("%s group %d: %w", action, id, mapSQLiteError(err))
		}
		if i == 0 {
			touched, _ = result.RowsAffected()
		}
	}
	return int(touched), nil
}

func jobAction(tx *Tx, action Action, id int64, now time.Time) (int, error) {
	q := tx.tx
	var (
		query string
		args  []any
	)
	switch action {
	case ActionConfirm:
		query, args = "UPDATE jobs SET status = ?, updated_at = ? WHERE id = ?", []any{StatusConfirmed, now, id}
	case ActionSkip:
		query, args = "UPDATE jobs SET status = ?, updated_at = ? WHERE id = ?", []any{StatusSkipped, now, id}
	case ActionDelete:
		query, args = "DELETE FROM jobs WHERE id = ?", []any{id}
	case ActionRematch:
		query = `UPDATE jobs SET status = ?, tmdb_id = NULL, tmdb_title = NULL, tmdb_year = NULL,
			tmdb_poster_path = NULL, tmdb_episode_title = NULL, match_confidence = NULL, updated_at = ?
			WHERE id = ?`
		args = []any{StatusScanned, now, id}
	}

	result, err := q.Exec(query, args...)
	if err != nil {
		return 0, fmt.Errorf("%s job %d: %w", action, id, mapSQLiteError(err))
	}
	touched, _ := result.RowsAffected()

	if action == ActionRematch {
		if _, err := q.Exec("DELETE FROM match_candidates WHERE job_id = ?", id); err != nil {
			return 0, fmt.Errorf("clear candidates for job %d: %w", id, err)
		}
	}
	return int(touched), nil
}
