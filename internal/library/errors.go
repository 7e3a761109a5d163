package library

import (
	"database/sql"
	"errors"
	"strings"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrDuplicate  = errors.New("duplicate entry")
	ErrConstraint = errors.New("constraint violation")

	// ErrUnknownAction is returned for bulk actions other than the
	// documented set.
	ErrUnknownAction = errors.New("unknown bulk action")
	// ErrInvalidSetting covers unknown keys and out-of-range values.
	ErrInvalidSetting = errors.New("invalid setting")
	// ErrInvalidDestination is returned when a destination lacks a field
	// its type requires, such as an ssh host.
	ErrInvalidDestination = errors.New("invalid destination")
)

// The sqlite driver only exposes constraint kinds in the message text.
var constraintErrors = []struct {
	fragment string
	err      error
}{
	{"UNIQUE constraint failed", ErrDuplicate},
	{"PRIMARY KEY constraint failed", ErrDuplicate},
	{"FOREIGN KEY constraint failed", ErrConstraint},
	{"CHECK constraint failed", ErrConstraint},
	{"NOT NULL constraint failed", ErrConstraint},
}

// mapSQLiteError turns driver errors into the package sentinels. Anything
// it does not recognise is returned unchanged.
func mapSQLiteError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	msg := err.Error()
	for _, c := range constraintErrors {
		if strings.Contains(msg, c.fragment) {
			return c.err
		}
	}
	return err
}
