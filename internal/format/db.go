package format

import (
	"bytes"
	"fmt"

	"github.com/regfkit/regf/internal/buf"
)

// DBRecord is a decoded big-data (db) cell: a value whose data exceeds
// BigDataThreshold bytes is split across BlockCount separate data cells,
// indexed by a block-list cell at BlockListOffset (spec §4.9).
type DBRecord struct {
	BlockCount      uint16
	BlockListOffset uint32
}

// DecodeDB parses a db cell payload (including the 2-byte "db" signature).
func DecodeDB(data []byte) (DBRecord, error) {
	if len(data) < DBHeaderSize {
		return DBRecord{}, fmt.Errorf("db: %w", ErrTruncated)
	}
	if !bytes.Equal(data[:SignatureSize], DBSignature) {
		return DBRecord{}, fmt.Errorf("db: %w", ErrSignatureMismatch)
	}
	count := buf.U16(data[DBCountOffset:])
	if int(count) < DBMinBlockCount || int(count) > DBMaxBlockCount {
		return DBRecord{}, fmt.Errorf("db: block count %d: %w", count, ErrMalformed)
	}
	return DBRecord{
		BlockCount:      count,
		BlockListOffset: buf.U32(data[DBBlockListOffset:]),
	}, nil
}

// DecodeDBBlockList reads BlockCount consecutive hive-relative offsets of
// the raw data blocks out of the block-list cell's payload. Like a
// value-list cell, the block-list cell carries no signature or count of its
// own; the db record's BlockCount is authoritative.
func DecodeDBBlockList(data []byte, count uint16) ([]uint32, error) {
	need := int(count) * FlatEntrySize
	if need < 0 || need > len(data) {
		return nil, fmt.Errorf("db block list: count %d: %w", count, ErrTruncated)
	}
	offsets := make([]uint32, count)
	for i := range offsets {
		offsets[i] = buf.U32(data[i*FlatEntrySize:])
	}
	return offsets, nil
}
