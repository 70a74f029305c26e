package format

import (
	"bytes"
	"fmt"

	"github.com/regfkit/regf/internal/buf"
)

// VKRecord is a decoded value node (vk) cell.
type VKRecord struct {
	Type   uint32
	Flags  uint16
	Name   []byte // empty for the hive's unnamed "(Default)" value

	// DataLength is the value's logical byte length (the sign/inline bit
	// already stripped out by DecodeVK).
	DataLength uint32
	// Inline is true when Data holds the value's actual bytes (length <= 4,
	// packed directly into the cell's data-offset field). Otherwise DataCell
	// is the hive-relative offset of a separate data cell (or a db record
	// for big data).
	Inline  bool
	Data    []byte
	DataCell uint32
}

// ASCIIName reports whether Name is stored in the hive's configured codepage
// rather than UTF-16LE (VALUE_COMP_NAME).
func (v VKRecord) ASCIIName() bool {
	return v.Flags&VKFlagASCIIName != 0
}

// DecodeVK parses a vk cell payload (including the 2-byte "vk" signature).
func DecodeVK(data []byte) (VKRecord, error) {
	if len(data) < VKMinSize {
		return VKRecord{}, fmt.Errorf("vk: %w", ErrTruncated)
	}
	if !bytes.Equal(data[:SignatureSize], VKSignature) {
		return VKRecord{}, fmt.Errorf("vk: %w", ErrSignatureMismatch)
	}

	nameLen := buf.U16(data[VKNameLenOffset:])
	nameEnd, ok := buf.AddOverflowSafe(VKNameOffset, int(nameLen))
	if !ok || nameEnd > len(data) {
		return VKRecord{}, fmt.Errorf("vk: name extends past cell: %w", ErrTruncated)
	}

	rawLen := buf.U32(data[VKDataLenOffset:])
	v := VKRecord{
		Type:       buf.U32(data[VKTypeOffset:]),
		Flags:      buf.U16(data[VKFlagsOffset:]),
		Name:       data[VKNameOffset:nameEnd],
		DataLength: rawLen & VKDataLengthMask,
	}

	dataOff := buf.U32(data[VKDataOffOffset:])
	if rawLen&VKDataInlineBit != 0 {
		// Inline data is packed into the 4-byte data-offset field itself;
		// the first DataLength bytes of it (at most 4) are the value.
		v.Inline = true
		n := int(v.DataLength)
		if n > 4 {
			n = 4
		}
		var raw [4]byte
		buf.PutU32(raw[:], dataOff)
		v.Data = append([]byte(nil), raw[:n]...)
	} else {
		v.DataCell = dataOff
	}
	return v, nil
}
