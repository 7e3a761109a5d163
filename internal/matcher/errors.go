package matcher

import "errors"

var (
	// ErrCatalog wraps any failure talking to the catalog.
	ErrCatalog = errors.New("catalog error")

	// ErrNoTitle means the group has nothing to search for.
	ErrNoTitle = errors.New("no title or folder name to search")
)
