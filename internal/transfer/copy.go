package transfer

import (
	"context"
	"fmt"
	"io"
)

// DefaultChunkSize is the copy buffer size and progress granularity.
const DefaultChunkSize = 256 * 1024

// copyChunks copies src to dst one buffer at a time, calling report with the
// running total (starting from offset) after every written chunk. The
// context is checked between chunks.
func copyChunks(ctx context.Context, dst io.Writer, src io.Reader, buf []byte, offset int64, report func(int64)) (int64, error) {
	written := offset
	for {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		n, rerr := src.Read(buf)
		if n > 0 {
			if _, err := dst.Write(buf[:n]); err != nil {
				return written, fmt.Errorf("%w: write: %v", ErrCopyFailed, err)
			}
			written += int64(n)
			report(written)
		}
		if rerr == io.EOF {
			return written, nil
		}
		if rerr != nil {
			return written, fmt.Errorf("%w: read: %v", ErrCopyFailed, rerr)
		}
	}
}
