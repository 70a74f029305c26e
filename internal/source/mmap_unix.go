//go:build unix

package source

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// mmapSource is a read-only, shared memory mapping of an entire file.
type mmapSource struct {
	data []byte
}

// Mmap maps path read-only into memory via golang.org/x/sys/unix, the same
// syscall package the rest of this module's corpus reaches for on the
// write/dirty-tracking side. An empty file maps to a zero-length source
// rather than failing, matching mmap's own refusal to map zero bytes.
func Mmap(path string) (ByteSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("source: open %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("source: stat %s: %w", path, err)
	}
	size := info.Size()
	if size == 0 {
		return &mmapSource{data: []byte{}}, nil
	}
	if size > int64(^uint(0)>>1) {
		return nil, fmt.Errorf("source: %s too large to map (%d bytes)", path, size)
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("source: mmap %s: %w", path, err)
	}
	return &mmapSource{data: data}, nil
}

func (m *mmapSource) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 || off > int64(len(m.data)) {
		return 0, ErrOutOfRange
	}
	n := copy(p, m.data[off:])
	if n < len(p) {
		return n, fmt.Errorf("source: short read at %d: %w", off, ErrOutOfRange)
	}
	return n, nil
}

func (m *mmapSource) Size() int64 { return int64(len(m.data)) }

func (m *mmapSource) Close() error {
	if m.data == nil || len(m.data) == 0 {
		return nil
	}
	data := m.data
	m.data = nil
	return unix.Munmap(data)
}
