package format

import (
	"bytes"
	"fmt"

	"github.com/regfkit/regf/internal/buf"
)

// SubkeyEntry is one (child nk offset, name hash) pair out of an lf/lh list.
// Hash is zero for entries that came from an li list, which carries no hash.
type SubkeyEntry struct {
	Offset uint32
	Hash   uint32
}

// SubkeyListKind identifies which of the four subkey-index cell shapes a
// cell's signature selected.
type SubkeyListKind int

const (
	SubkeyListLF SubkeyListKind = iota // hash list, case-insensitive ASCII hash
	SubkeyListLH                       // hash list, same shape as lf, different hash
	SubkeyListLI                       // flat list of child offsets, no hash
	SubkeyListRI                       // indirect: list of offsets to other subkey-list cells
)

// DecodeSubkeyList dispatches on the cell's two-byte tag and decodes an
// lf/lh/li cell into its entries. ri cells carry no subkey entries directly
// — use DecodeRIList for those and recurse into each referenced list.
func DecodeSubkeyList(data []byte) (SubkeyListKind, []SubkeyEntry, error) {
	if len(data) < SignatureSize+2 {
		return 0, nil, fmt.Errorf("subkey list: %w", ErrTruncated)
	}
	switch {
	case bytes.Equal(data[:SignatureSize], LFSignature):
		entries, err := decodeHashList(data)
		return SubkeyListLF, entries, err
	case bytes.Equal(data[:SignatureSize], LHSignature):
		entries, err := decodeHashList(data)
		return SubkeyListLH, entries, err
	case bytes.Equal(data[:SignatureSize], LISignature):
		entries, err := decodeFlatList(data)
		return SubkeyListLI, entries, err
	case bytes.Equal(data[:SignatureSize], RISignature):
		return SubkeyListRI, nil, fmt.Errorf("subkey list: ri cell has no direct entries, use DecodeRIList")
	default:
		return 0, nil, fmt.Errorf("subkey list: %w", ErrSignatureMismatch)
	}
}

func decodeHashList(data []byte) ([]SubkeyEntry, error) {
	count := buf.U16(data[ListCountOffset:])
	entries := make([]SubkeyEntry, 0, count)
	off := ListEntryOffset
	for i := 0; i < int(count); i++ {
		end, ok := buf.AddOverflowSafe(off, LFHashEntrySize)
		if !ok || end > len(data) {
			return nil, fmt.Errorf("subkey list: entry %d: %w", i, ErrTruncated)
		}
		entries = append(entries, SubkeyEntry{
			Offset: buf.U32(data[off:]),
			Hash:   buf.U32(data[off+4:]),
		})
		off = end
	}
	return entries, nil
}

func decodeFlatList(data []byte) ([]SubkeyEntry, error) {
	count := buf.U16(data[ListCountOffset:])
	entries := make([]SubkeyEntry, 0, count)
	off := ListEntryOffset
	for i := 0; i < int(count); i++ {
		end, ok := buf.AddOverflowSafe(off, FlatEntrySize)
		if !ok || end > len(data) {
			return nil, fmt.Errorf("subkey list: entry %d: %w", i, ErrTruncated)
		}
		entries = append(entries, SubkeyEntry{Offset: buf.U32(data[off:])})
		off = end
	}
	return entries, nil
}

// DecodeRIList parses an ri cell (including its "ri" signature) into the
// hive-relative offsets of the subkey-list cells it indexes. A referenced
// cell may be an lf, lh or li list, or another ri list; the caller decodes
// each one by its signature (the hive engine recurses into nested ri lists
// up to MaxSubkeyRecursionDepth).
func DecodeRIList(data []byte) ([]uint32, error) {
	if len(data) < SignatureSize+2 {
		return nil, fmt.Errorf("ri list: %w", ErrTruncated)
	}
	if !bytes.Equal(data[:SignatureSize], RISignature) {
		return nil, fmt.Errorf("ri list: %w", ErrSignatureMismatch)
	}
	count := buf.U16(data[ListCountOffset:])
	offsets := make([]uint32, 0, count)
	off := ListEntryOffset
	for i := 0; i < int(count); i++ {
		end, ok := buf.AddOverflowSafe(off, FlatEntrySize)
		if !ok || end > len(data) {
			return nil, fmt.Errorf("ri list: entry %d: %w", i, ErrTruncated)
		}
		offsets = append(offsets, buf.U32(data[off:]))
		off = end
	}
	return offsets, nil
}

// DecodeValueList reads count consecutive hive-relative vk offsets out of a
// value-list cell's raw payload. A value-list cell carries no signature and
// no count of its own — the owning nk record's value_count is authoritative.
func DecodeValueList(data []byte, count uint32) ([]uint32, error) {
	need := int(count) * FlatEntrySize
	if need < 0 || need > len(data) {
		return nil, fmt.Errorf("value list: count %d: %w", count, ErrTruncated)
	}
	offsets := make([]uint32, count)
	for i := range offsets {
		offsets[i] = buf.U32(data[i*FlatEntrySize:])
	}
	return offsets, nil
}
