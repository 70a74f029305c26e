package source

// memSource is a ByteSource backed directly by an in-memory byte slice, for
// callers that already hold a hive's bytes (tests, embedded data).
type memSource struct {
	data []byte
}

// FromBytes wraps data as a ByteSource. data is not copied; callers must not
// mutate it for the life of the source.
func FromBytes(data []byte) ByteSource {
	return &memSource{data: data}
}

func (m *memSource) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 || off > int64(len(m.data)) {
		return 0, ErrOutOfRange
	}
	n := copy(p, m.data[off:])
	if n < len(p) {
		return n, ErrOutOfRange
	}
	return n, nil
}

func (m *memSource) Size() int64 { return int64(len(m.data)) }

func (m *memSource) Close() error { return nil }
