package transfer

import (
	"errors"

	"github.com/sentient-soup/reelname/internal/naming"
)

var (
	// ErrJobNotFound indicates a queued job no longer exists.
	ErrJobNotFound = errors.New("job not found")

	// ErrDestinationNotFound indicates the batch destination doesn't exist.
	ErrDestinationNotFound = errors.New("destination not found")

	// ErrCopyFailed indicates a byte copy failed part way.
	ErrCopyFailed = errors.New("failed to copy file")

	// ErrSFTP indicates an SSH or SFTP failure (connect, auth, channel, I/O).
	ErrSFTP = errors.New("sftp transfer failed")

	// ErrNothingToTransfer indicates a batch resolved to no jobs.
	ErrNothingToTransfer = errors.New("nothing to transfer")

	// ErrPathTraversal indicates a rendered path escapes the destination root.
	ErrPathTraversal = naming.ErrPathTraversal
)
