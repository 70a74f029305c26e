package format

import (
	"bytes"
	"fmt"

	"github.com/regfkit/regf/internal/buf"
)

// HBIN describes one hive-bin header. Layout (relative to the bin's own
// start, spec §6):
//
//	Offset  Size  Field
//	0x00    4     "hbin"
//	0x04    4     This bin's hive-relative offset (echo of the caller's math)
//	0x08    4     Bin size, a positive multiple of 4096
type HBIN struct {
	// HiveOffset is this bin's offset relative to the start of the
	// hive-bins region (i.e. relative to file offset 4096).
	HiveOffset uint32
	Size       uint32
}

// NextHBIN parses the hbin header at file-absolute offset off within b. A
// signature mismatch is reported via ErrSignatureMismatch; the hive's bin
// scan stops there (spec §4.4) rather than failing the whole file.
func NextHBIN(b []byte, off int) (HBIN, error) {
	if off < 0 || off+HBINHeaderSize > len(b) {
		return HBIN{}, fmt.Errorf("hbin: %w", ErrTruncated)
	}
	head := b[off : off+HBINHeaderSize]
	if !bytes.Equal(head[:4], HBINSignature) {
		return HBIN{}, fmt.Errorf("hbin: %w", ErrSignatureMismatch)
	}
	size := buf.U32(head[HBINSizeOffset:])
	if size == 0 || size%HBINAlignment != 0 {
		return HBIN{}, fmt.Errorf("hbin at %d: size %d: %w", off, size, ErrMalformed)
	}
	return HBIN{
		HiveOffset: buf.U32(head[HBINFileOffsetField:]),
		Size:       size,
	}, nil
}
