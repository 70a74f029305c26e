package format

import (
	"bytes"
	"fmt"

	"github.com/regfkit/regf/internal/buf"
)

// NKRecord is a decoded key node (nk) cell. Offsets it carries (Parent,
// SubkeyListOffset, ValueListOffset, SecurityOffset, ClassNameOffset) are
// hive-relative and InvalidOffset when absent. Name aliases the owning
// cell's backing buffer.
type NKRecord struct {
	Flags            uint16
	LastWriteRaw     uint64
	Parent           uint32
	SubkeyCount      uint32
	SubkeyListOffset uint32
	ValueCount       uint32
	ValueListOffset  uint32
	SecurityOffset   uint32
	ClassNameOffset  uint32
	ClassLength      uint16
	MaxNameLen       uint32
	MaxClassLen      uint32
	MaxValueNameLen  uint32
	MaxValueDataLen  uint32
	Name             []byte // raw bytes, codepage or UTF-16LE per ASCIIName
}

// ASCIIName reports whether Name is stored in the hive's configured codepage
// rather than UTF-16LE (KEY_COMP_NAME).
func (n NKRecord) ASCIIName() bool {
	return n.Flags&NKFlagASCIIName != 0
}

// IsRoot reports the KEY_HIVE_ENTRY bit, set on exactly the hive's root key.
func (n NKRecord) IsRoot() bool {
	return n.Flags&0x0004 != 0
}

// DecodeNK parses an nk cell payload (data past the cell's 4-byte size
// field, including the 2-byte "nk" signature). Sanity limits on the name
// lengths mirror the bounds Windows itself enforces and guard against a
// corrupt or adversarial length field driving an out-of-bounds slice.
func DecodeNK(data []byte) (NKRecord, error) {
	if len(data) < NKMinSize {
		return NKRecord{}, fmt.Errorf("nk: %w", ErrTruncated)
	}
	if !bytes.Equal(data[:SignatureSize], NKSignature) {
		return NKRecord{}, fmt.Errorf("nk: %w", ErrSignatureMismatch)
	}

	nameLen := buf.U16(data[NKNameLenOffset:])
	classLen := buf.U16(data[NKClassLenOffset:])
	if int(nameLen) > 65535 {
		return NKRecord{}, fmt.Errorf("nk: name length %d: %w", nameLen, ErrMalformed)
	}
	nameEnd, ok := buf.AddOverflowSafe(NKNameOffset, int(nameLen))
	if !ok || nameEnd > len(data) {
		return NKRecord{}, fmt.Errorf("nk: name extends past cell: %w", ErrTruncated)
	}

	n := NKRecord{
		Flags:            buf.U16(data[NKFlagsOffset:]),
		LastWriteRaw:     buf.U64(data[NKLastWriteOffset:]),
		Parent:           buf.U32(data[NKParentOffset:]),
		SubkeyCount:      buf.U32(data[NKSubkeyCountOffset:]),
		SubkeyListOffset: buf.U32(data[NKSubkeyListOffset:]),
		ValueCount:       buf.U32(data[NKValueCountOffset:]),
		ValueListOffset:  buf.U32(data[NKValueListOffset:]),
		SecurityOffset:   buf.U32(data[NKSecurityOffset:]),
		ClassNameOffset:  buf.U32(data[NKClassNameOffset:]),
		ClassLength:      classLen,
		MaxNameLen:       buf.U32(data[NKMaxNameLenOffset:]),
		MaxClassLen:      buf.U32(data[NKMaxClassLenOffset:]),
		MaxValueNameLen:  buf.U32(data[NKMaxValNameOffset:]),
		MaxValueDataLen:  buf.U32(data[NKMaxValDataOffset:]),
		Name:             data[NKNameOffset:nameEnd],
	}
	return n, nil
}
