package transfer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// backend moves one source file to rel under its destination root and
// returns the final destination path.
type backend interface {
	transfer(ctx context.Context, src, rel string, total int64, report func(int64)) (string, error)
}

// localBackend copies onto a mounted filesystem. It resumes a shorter
// existing destination file by appending and skips one that already has the
// expected size.
type localBackend struct {
	base      string
	chunkSize int
}

func (l *localBackend) transfer(ctx context.Context, src, rel string, total int64, report func(int64)) (string, error) {
	dst := filepath.Join(l.base, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return "", fmt.Errorf("%w: create directory: %v", ErrCopyFailed, err)
	}

	var existing int64
	info, err := os.Stat(dst)
	switch {
	case err == nil:
		existing = info.Size()
		if existing == total {
			report(total)
			return dst, nil
		}
	case !errors.Is(err, fs.ErrNotExist):
		return "", fmt.Errorf("%w: stat destination: %v", ErrCopyFailed, err)
	}

	srcFile, err := os.Open(src)
	if err != nil {
		return "", fmt.Errorf("%w: open source: %v", ErrCopyFailed, err)
	}
	defer func() { _ = srcFile.Close() }()

	var dstFile *os.File
	if existing > 0 && existing < total {
		if _, err := srcFile.Seek(existing, io.SeekStart); err != nil {
			return "", fmt.Errorf("%w: seek source: %v", ErrCopyFailed, err)
		}
		dstFile, err = os.OpenFile(dst, os.O_WRONLY|os.O_APPEND, 0644)
	} else {
		existing = 0
		dstFile, err = os.Create(dst)
	}
	if err != nil {
		return "", fmt.Errorf("%w: open destination: %v", ErrCopyFailed, err)
	}
	defer func() { _ = dstFile.Close() }()

	// partial output is kept on failure so the next run can resume
	buf := make([]byte, l.chunkSize)
	if _, err := copyChunks(ctx, dstFile, srcFile, buf, existing, report); err != nil {
		return "", err
	}
	if err := dstFile.Sync(); err != nil {
		return "", fmt.Errorf("%w: sync: %v", ErrCopyFailed, err)
	}
	return dst, nil
}
