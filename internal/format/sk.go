package format

import (
	"bytes"
	"fmt"

	"github.com/regfkit/regf/internal/buf"
)

// SKRecord is a decoded security-descriptor (sk) cell. The descriptor bytes
// are copied verbatim and never interpreted — spec §4.10 scopes SDDL/ACL
// decoding out entirely.
type SKRecord struct {
	Flink           uint32 // hive-relative offset of the next sk in the ring
	Blink           uint32 // hive-relative offset of the previous sk in the ring
	ReferenceCount  uint32
	Descriptor      []byte
}

// DecodeSK parses an sk cell payload (including the 2-byte "sk" signature).
// On format versions 1.0/1.1 the cell carries an extra leading reserved
// uint32 before the signature; callers identify that case via
// Header.LegacyPreamble and slice it off before calling DecodeSK, so this
// function always sees the signature at offset 0.
func DecodeSK(data []byte) (SKRecord, error) {
	if len(data) < SKMinSize {
		return SKRecord{}, fmt.Errorf("sk: %w", ErrTruncated)
	}
	if !bytes.Equal(data[:SignatureSize], SKSignature) {
		return SKRecord{}, fmt.Errorf("sk: %w", ErrSignatureMismatch)
	}

	descLen := buf.U32(data[SKDescLenOffset:])
	descEnd, ok := buf.AddOverflowSafe(SKDescOffset, int(descLen))
	if !ok || descEnd > len(data) {
		return SKRecord{}, fmt.Errorf("sk: descriptor length %d extends past cell: %w", descLen, ErrTruncated)
	}

	return SKRecord{
		Flink:          buf.U32(data[SKFlinkOffset:]),
		Blink:          buf.U32(data[SKBlinkOffset:]),
		ReferenceCount: buf.U32(data[SKRefCountOffset:]),
		Descriptor:     data[SKDescOffset:descEnd],
	}, nil
}
