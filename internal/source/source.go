// Package source abstracts the byte-addressable backing store a hive is
// read from, so the decoders in internal/format and internal/hive never
// care whether the bytes came from an mmap'd file, a plain io.ReaderAt, or
// an in-memory buffer (spec §2/§4.2).
package source

import "fmt"

// ByteSource is random-access, read-only storage over a fixed-size byte
// range. Implementations must be safe for concurrent ReadAt calls; Size
// never changes after construction.
type ByteSource interface {
	ReadAt(p []byte, off int64) (int, error)
	Size() int64
	// Close releases any OS resources (a memory mapping, an open file
	// descriptor). Closing more than once is a no-op.
	Close() error
}

// Slice reads exactly n bytes starting at off, returning ErrOutOfRange if
// the range falls outside the source.
func Slice(s ByteSource, off int64, n int) ([]byte, error) {
	if off < 0 || n < 0 {
		return nil, fmt.Errorf("source: negative offset or length")
	}
	end := off + int64(n)
	if end < off || end > s.Size() {
		return nil, fmt.Errorf("source: range [%d,%d) exceeds size %d: %w", off, end, s.Size(), ErrOutOfRange)
	}
	buf := make([]byte, n)
	if _, err := s.ReadAt(buf, off); err != nil {
		return nil, fmt.Errorf("source: read at %d: %w", off, err)
	}
	return buf, nil
}
