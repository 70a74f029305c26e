// Package buf provides small, allocation-free helpers for decoding the
// little-endian integers used throughout the REGF wire format, plus
// overflow-safe bounds arithmetic for validating untrusted offsets.
package buf

import "encoding/binary"

// U16 reads a little-endian uint16 at the start of b. Callers must check
// len(b) >= 2 themselves; this is a hot path used once per field.
func U16(b []byte) uint16 {
	return binary.LittleEndian.Uint16(b)
}

// U32 reads a little-endian uint32 at the start of b.
func U32(b []byte) uint32 {
	return binary.LittleEndian.Uint32(b)
}

// U64 reads a little-endian uint64 at the start of b.
func U64(b []byte) uint64 {
	return binary.LittleEndian.Uint64(b)
}

// I32 reads a little-endian, two's-complement int32 at the start of b.
// Cell headers rely on the sign bit to distinguish allocated from free.
func I32(b []byte) int32 {
	return int32(binary.LittleEndian.Uint32(b))
}

// PutU32 writes v as a little-endian uint32 at the start of b.
func PutU32(b []byte, v uint32) {
	binary.LittleEndian.PutUint32(b, v)
}
