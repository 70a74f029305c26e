package hive

import (
	"fmt"

	"github.com/regfkit/regf/internal/format"
)

// SecurityDescriptor is a key's raw sk payload. The bytes are a
// self-relative Windows SECURITY_DESCRIPTOR; interpreting the SIDs and ACEs
// inside it is out of scope here, so they are handed back verbatim.
type SecurityDescriptor struct {
	ReferenceCount uint32
	Raw            []byte
}

// Security decodes the sk cell at offset. On format versions 1.0/1.1 the sk
// cell is prefixed with an extra reserved uint32 that this function strips
// before handing the payload to format.DecodeSK.
func (e *Engine) Security(offset uint32) (SecurityDescriptor, error) {
	if offset == format.InvalidOffset {
		return SecurityDescriptor{}, nil
	}
	if err := e.checkAborted(); err != nil {
		return SecurityDescriptor{}, err
	}
	cell, err := e.bins.cellAt(offset)
	if err != nil {
		return SecurityDescriptor{}, fmt.Errorf("hive: sk at %d: %w", offset, err)
	}
	data := cell.Data
	if e.Header.LegacyPreamble() && len(data) >= 4 {
		data = data[4:]
	}
	sk, err := format.DecodeSK(data)
	if err != nil {
		return SecurityDescriptor{}, fmt.Errorf("hive: sk at %d: %w", offset, err)
	}
	raw := append([]byte(nil), sk.Descriptor...)
	return SecurityDescriptor{ReferenceCount: sk.ReferenceCount, Raw: raw}, nil
}

// ClassName reads a key's raw class-name bytes (UTF-16LE); the root package
// is responsible for decoding them.
func (e *Engine) ClassName(nk format.NKRecord) ([]byte, error) {
	if nk.ClassLength == 0 || nk.ClassNameOffset == format.InvalidOffset {
		return nil, nil
	}
	if err := e.checkAborted(); err != nil {
		return nil, err
	}
	cell, err := e.bins.cellAt(nk.ClassNameOffset)
	if err != nil {
		return nil, fmt.Errorf("hive: class name at %d: %w", nk.ClassNameOffset, err)
	}
	n := int(nk.ClassLength)
	if n > len(cell.Data) {
		n = len(cell.Data)
	}
	return append([]byte(nil), cell.Data[:n]...), nil
}
