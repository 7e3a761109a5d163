package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// ErrLocked is returned when another process holds the transfer lock.
var ErrLocked = errors.New("another reelname process is transferring from this database")

// LockPath returns the lock file guarding transfers for the database at dbPath.
func LockPath(dbPath string) string {
	return dbPath + ".lock"
}

// AcquireLock takes the transfer lock for dbPath without blocking. Only one
// process at a time may run transfers against a database, so the
// concurrency bound holds across the CLI and the daemon.
func AcquireLock(dbPath string) (*flock.Flock, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create lock dir: %w", err)
	}
	lock := flock.New(LockPath(dbPath))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock %s: %w", lock.Path(), err)
	}
	if !ok {
		return nil, ErrLocked
	}
	return lock, nil
}
