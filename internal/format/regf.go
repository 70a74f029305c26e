package format

import (
	"bytes"
	"fmt"

	"github.com/regfkit/regf/internal/buf"
)

// Header captures the fields of the 4096-byte REGF header that the core
// needs to traverse a hive. Layout (little-endian, spec §6):
//
//	Offset  Size  Field
//	0x000   4     "regf"
//	0x004   4     Primary sequence number
//	0x008   4     Secondary sequence number
//	0x00C   8     Last-write FILETIME
//	0x014   4     Major format version
//	0x018   4     Minor format version
//	0x01C   4     File type (0 = primary, 1 = alternate/log)
//	0x024   4     Root cell offset (hive-relative)
//	0x028   4     Hive-bins data size
//	0x02C   4     Clustering factor
//	0x1FC   4     XOR-32 checksum of bytes [0,508)
type Header struct {
	PrimarySequence   uint32
	SecondarySequence uint32
	LastWriteRaw      uint64
	MajorVersion      uint32
	MinorVersion      uint32
	FileType          uint32
	RootCellOffset    uint32
	HiveBinsDataSize  uint32
	ClusteringFactor  uint32
	Checksum          uint32
}

// IsDirty reports whether the primary and secondary sequence numbers
// disagree. Per spec §3/§9, this does not fail Open; it only flags that a
// transaction log would be needed to reach a fully consistent state.
func (h Header) IsDirty() bool {
	return h.PrimarySequence != h.SecondarySequence
}

// LegacyPreamble reports whether this format version prefixes sk cells and
// subkey-list cells with an extra reserved uint32 before the signature
// (format versions 1.0 and 1.1, per spec §6).
func (h Header) LegacyPreamble() bool {
	return h.MajorVersion == 1 && h.MinorVersion <= 1
}

// ParseHeader validates and decodes a 4096-byte REGF header. fileSize is the
// total size of the backing byte source, used to reject a hive_bins_size
// that would run past end of file.
func ParseHeader(b []byte, fileSize int64) (Header, error) {
	if len(b) < HeaderSize {
		return Header{}, fmt.Errorf("regf header: %w", ErrTruncated)
	}
	if !bytes.Equal(b[:4], REGFSignature) {
		return Header{}, fmt.Errorf("regf header: %w", ErrSignatureMismatch)
	}

	computed, err := XOR32(b[:ChecksumRegionLen])
	if err != nil {
		return Header{}, fmt.Errorf("regf header: %w", err)
	}
	stored := buf.U32(b[REGFChecksumOffset:])
	if computed != stored {
		return Header{}, fmt.Errorf("regf header: %w (stored=%#x computed=%#x)", ErrChecksumMismatch, stored, computed)
	}

	h := Header{
		PrimarySequence:   buf.U32(b[REGFPrimarySeqOffset:]),
		SecondarySequence: buf.U32(b[REGFSecondarySeqOffset:]),
		LastWriteRaw:      buf.U64(b[REGFTimestampOffset:]),
		MajorVersion:      buf.U32(b[REGFMajorVersionOffset:]),
		MinorVersion:      buf.U32(b[REGFMinorVersionOffset:]),
		FileType:          buf.U32(b[REGFFileTypeOffset:]),
		RootCellOffset:    buf.U32(b[REGFRootCellOffset:]),
		HiveBinsDataSize:  buf.U32(b[REGFHiveBinsSizeOffset:]),
		ClusteringFactor:  buf.U32(b[REGFClusterOffset:]),
		Checksum:          stored,
	}

	if h.MajorVersion != 1 || h.MinorVersion > 6 {
		return Header{}, fmt.Errorf("regf header: major=%d minor=%d: %w", h.MajorVersion, h.MinorVersion, ErrUnsupportedVersion)
	}
	if h.HiveBinsDataSize == 0 || h.HiveBinsDataSize%HBINAlignment != 0 {
		return Header{}, fmt.Errorf("regf header: hive_bins_size %d: %w", h.HiveBinsDataSize, ErrMalformed)
	}
	end, ok := buf.AddOverflowSafe(HeaderSize, int(h.HiveBinsDataSize))
	if !ok || int64(end) > fileSize {
		return Header{}, fmt.Errorf("regf header: hive_bins_size %d exceeds file size %d: %w", h.HiveBinsDataSize, fileSize, ErrMalformed)
	}

	return h, nil
}
