package hive

import (
	"errors"
	"fmt"
	"sort"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/regfkit/regf/internal/format"
	"github.com/regfkit/regf/internal/source"
)

// binEntry locates one hive bin within the hive-bins region.
type binEntry struct {
	hiveOffset uint32 // offset relative to the start of the hive-bins region
	size       uint32 // total bin size including its 32-byte header
}

// binIndex is the set of hive bins discovered by a single forward scan at
// Open time. Entries are naturally ordered by hiveOffset because bins are
// laid out back to back.
type binIndex struct {
	entries []binEntry
	cache   *lru.Cache[uint32, []byte] // bin hiveOffset -> payload (past its header)
	src     source.ByteSource
}

// buildBinIndex walks the hive bins in [HeaderSize, HeaderSize+dataSize)
// and records each one's position. A bin header without the "hbin"
// signature ends the scan without failing: the bins found before it stay
// usable, and an offset past them resolves as ErrOffsetOutOfRange. A bin
// header with an invalid size, or bins that overrun the region, fail the
// scan.
func buildBinIndex(src source.ByteSource, header format.Header, cacheSize int) (*binIndex, error) {
	if cacheSize <= 0 {
		cacheSize = 32
	}
	cache, err := lru.New[uint32, []byte](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("hive: bin cache: %w", err)
	}

	idx := &binIndex{cache: cache, src: src}

	dataEnd := int64(format.HeaderSize) + int64(header.HiveBinsDataSize)
	off := int64(format.HeaderSize)
	head := make([]byte, format.HBINHeaderSize)
	for off < dataEnd {
		n, err := src.ReadAt(head, off)
		if err != nil && n < len(head) {
			return nil, fmt.Errorf("hive: reading hbin header at %d: %w", off, err)
		}
		hb, err := format.NextHBIN(head, 0)
		if errors.Is(err, format.ErrSignatureMismatch) {
			return idx, nil
		}
		if err != nil {
			return nil, fmt.Errorf("hive: hbin at file offset %d: %w", off, err)
		}
		idx.entries = append(idx.entries, binEntry{
			hiveOffset: uint32(off - format.HeaderSize),
			size:       hb.Size,
		})
		off += int64(hb.Size)
	}
	if off != dataEnd {
		return nil, fmt.Errorf("hive: hive-bins region ended at %d, expected %d: %w", off, dataEnd, format.ErrMalformed)
	}
	return idx, nil
}

// find returns the bin entry containing the given hive-relative offset.
func (idx *binIndex) find(hiveOffset uint32) (binEntry, error) {
	i := sort.Search(len(idx.entries), func(i int) bool {
		return idx.entries[i].hiveOffset+idx.entries[i].size > hiveOffset
	})
	if i >= len(idx.entries) || hiveOffset < idx.entries[i].hiveOffset {
		return binEntry{}, ErrOffsetOutOfRange
	}
	return idx.entries[i], nil
}

// payload returns the bin's usable data (everything past its 32-byte
// header), fetching and caching it from the byte source on a miss.
func (idx *binIndex) payload(entry binEntry) ([]byte, error) {
	if data, ok := idx.cache.Get(entry.hiveOffset); ok {
		return data, nil
	}
	start := int64(format.HeaderSize) + int64(entry.hiveOffset) + format.HBINHeaderSize
	n := int(entry.size) - format.HBINHeaderSize
	data, err := source.Slice(idx.src, start, n)
	if err != nil {
		return nil, fmt.Errorf("hive: bin payload at %d: %w", entry.hiveOffset, err)
	}
	idx.cache.Add(entry.hiveOffset, data)
	return data, nil
}

// cellAt resolves a hive-relative cell offset to its decoded Cell. The
// returned Cell's Offset is relative to the containing bin's payload, not
// to the hive as a whole; callers that need the hive-relative offset back
// can recompute it as entry.hiveOffset + HBINHeaderSize + cell.Offset.
func (idx *binIndex) cellAt(hiveOffset uint32) (format.Cell, error) {
	entry, err := idx.find(hiveOffset)
	if err != nil {
		return format.Cell{}, err
	}
	payload, err := idx.payload(entry)
	if err != nil {
		return format.Cell{}, err
	}
	localOff := int(hiveOffset-entry.hiveOffset) - format.HBINHeaderSize
	if localOff < 0 {
		return format.Cell{}, ErrUnalignedOffset
	}
	// Walk the bin's cells from its start so an offset that lands inside a
	// cell, rather than on its first byte, is rejected.
	for pos := 0; pos < localOff; {
		_, next, err := format.NextCell(payload, pos)
		if err != nil {
			return format.Cell{}, fmt.Errorf("hive: cell at %d: %w", hiveOffset, err)
		}
		if next > localOff {
			return format.Cell{}, ErrUnalignedOffset
		}
		pos = next
	}
	cell, err := format.CellAt(payload, localOff)
	if err != nil {
		return format.Cell{}, fmt.Errorf("hive: cell at %d: %w", hiveOffset, err)
	}
	return cell, nil
}
