package format

import (
	"fmt"

	"github.com/regfkit/regf/internal/buf"
)

// Cell is one allocation unit inside a hive bin: 8-byte aligned, at least 8
// bytes, first field a signed size (negative => allocated). Data is the
// payload past the 4-byte size field, aliasing the bin's backing buffer —
// callers must copy out anything they retain past the current decode step.
type Cell struct {
	// Offset is this cell's byte offset within the bin's payload slice
	// (i.e. relative to the start of usable bin data, past the hbin header).
	Offset int
	Size   int // total size including the 4-byte header
	Free   bool
	Data   []byte
}

// Tag returns the cell's two-byte record signature, or the zero value if the
// payload is too short to carry one (e.g. a minimal free cell).
func (c Cell) Tag() [2]byte {
	var t [2]byte
	if len(c.Data) >= 2 {
		t[0], t[1] = c.Data[0], c.Data[1]
	}
	return t
}

// NextCell decodes the cell starting at byte offset off within a bin's
// payload slice (payload excludes the 32-byte hbin header) and returns it
// along with the offset of the following cell. raw_size == -0x80000000 is
// ambiguous (its magnitude does not fit in an int32) and is always fatal,
// per spec §4.5 — there is no tolerant-mode carve-out for it.
func NextCell(payload []byte, off int) (Cell, int, error) {
	if off < 0 || off+CellHeaderSize > len(payload) {
		return Cell{}, 0, fmt.Errorf("cell at %d: %w", off, ErrTruncated)
	}
	raw := buf.I32(payload[off:])
	if raw == -0x80000000 {
		return Cell{}, 0, fmt.Errorf("cell at %d: %w", off, ErrAmbiguousCellSize)
	}
	free := raw > 0
	size := int(raw)
	if free {
		// size already positive
	} else {
		size = -size
	}
	if size < CellHeaderSize || size%CellAlignment != 0 {
		return Cell{}, 0, fmt.Errorf("cell at %d: size %d: %w", off, size, ErrMalformed)
	}
	end, ok := buf.AddOverflowSafe(off, size)
	if !ok || end > len(payload) {
		return Cell{}, 0, fmt.Errorf("cell at %d: size %d exceeds bin: %w", off, size, ErrTruncated)
	}
	return Cell{
		Offset: off,
		Size:   size,
		Free:   free,
		Data:   payload[off+CellHeaderSize : end],
	}, end, nil
}

// CellAt decodes the single cell that starts exactly at byte offset off
// within payload, failing if the bytes there don't encode a cell (used by
// hive-offset resolution once the containing bin is known). It does not
// check that off is a cell boundary; the hive's cellAt does that by walking
// the bin's cells up to off before calling it.
func CellAt(payload []byte, off int) (Cell, error) {
	c, _, err := NextCell(payload, off)
	return c, err
}
