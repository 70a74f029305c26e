package regf

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/regfkit/regf/internal/codepage"
	"github.com/regfkit/regf/internal/format"
	"github.com/regfkit/regf/internal/hive"
)

// RegType is a Windows registry value type code.
type RegType uint32

const (
	RegNone      RegType = RegType(format.REGNone)
	RegSZ        RegType = RegType(format.REGSZ)
	RegExpandSZ  RegType = RegType(format.REGExpandSZ)
	RegBinary    RegType = RegType(format.REGBinary)
	RegDword     RegType = RegType(format.REGDword)
	RegDwordBE   RegType = RegType(format.REGDwordBE)
	RegLink      RegType = RegType(format.REGLink)
	RegMultiSZ   RegType = RegType(format.REGMultiSZ)
	RegQword     RegType = RegType(format.REGQword)
)

func (t RegType) String() string {
	switch t {
	case RegNone:
		return "REG_NONE"
	case RegSZ:
		return "REG_SZ"
	case RegExpandSZ:
		return "REG_EXPAND_SZ"
	case RegBinary:
		return "REG_BINARY"
	case RegDword:
		return "REG_DWORD"
	case RegDwordBE:
		return "REG_DWORD_BIG_ENDIAN"
	case RegLink:
		return "REG_LINK"
	case RegMultiSZ:
		return "REG_MULTI_SZ"
	case RegQword:
		return "REG_QWORD"
	default:
		return fmt.Sprintf("REG_TYPE(%d)", uint32(t))
	}
}

// Value is a named (or unnamed, the hive's "(Default)" value) entry under a
// key. Like Key, a Value whose vk cell failed to decode is still returned
// with Corrupted() true rather than causing the containing Values() call
// to fail outright.
type Value struct {
	f    *File
	item *hive.ValueItem
}

func (v *Value) Corrupted() bool { return v.item.Corrupted }

func (v *Value) Err() error {
	if v.item.Err == nil {
		return nil
	}
	return classify(v.item.Err)
}

func (v *Value) Offset() uint32 { return v.item.Offset }

func (v *Value) checkHealthy() error {
	if v.item.Corrupted {
		return v.Err()
	}
	return nil
}

// absorb is the Key.absorb analogue for a value's data stream: a failure
// reading or reassembling the value's data marks the value itself
// corrupted instead of propagating, except Io and OperationAborted, which
// still bubble up unconditionally (spec §7). item.Err is left alone: it
// holds only the value's own vk decode failure.
func (v *Value) absorb(err error) error {
	ce := classify(err)
	if ce.Kind == Io || ce.Kind == OperationAborted {
		return ce
	}
	v.item.Corrupted = true
	return nil
}

// Name decodes the value's name, or "" for the key's unnamed value.
func (v *Value) Name() (string, error) {
	if err := v.checkHealthy(); err != nil {
		return "", err
	}
	return decodeName(v.f.codec(), v.item.VK.Name, v.item.VK.ASCIIName())
}

// Type returns the value's registry type code.
func (v *Value) Type() (RegType, error) {
	if err := v.checkHealthy(); err != nil {
		return 0, err
	}
	return RegType(v.item.VK.Type), nil
}

// Size returns the value's logical data length in bytes.
func (v *Value) Size() (int64, error) {
	if err := v.checkHealthy(); err != nil {
		return 0, err
	}
	return int64(v.item.VK.DataLength), nil
}

// IsInline reports whether the value's data is packed directly into the vk
// cell, as recorded by the vk record's inline bit.
func (v *Value) IsInline() (bool, error) {
	if err := v.checkHealthy(); err != nil {
		return false, err
	}
	return v.item.VK.Inline, nil
}

// NameLen returns the raw on-disk byte length of the value's name, without
// decoding it.
func (v *Value) NameLen() (int, error) {
	if err := v.checkHealthy(); err != nil {
		return 0, err
	}
	return len(v.item.VK.Name), nil
}

// StructSize returns the on-disk size of the value's vk cell, including its
// 4-byte cell header.
func (v *Value) StructSize() (int, error) {
	if err := v.checkHealthy(); err != nil {
		return 0, err
	}
	cell, err := v.f.engine.Cell(v.item.Offset)
	if err != nil {
		return 0, classify(err)
	}
	return cell.Size, nil
}

// DataCellOffset returns the hive-relative offset and length of the value's
// data cell. For inline data (packed into the vk cell itself) the returned
// offset is 0 and the length is still the logical data length, matching the
// teacher's non-hivex ValueDataCellOffset convention.
func (v *Value) DataCellOffset() (uint32, int, error) {
	if err := v.checkHealthy(); err != nil {
		return 0, 0, err
	}
	if v.item.VK.Inline {
		return 0, int(v.item.VK.DataLength), nil
	}
	return v.item.VK.DataCell, int(v.item.VK.DataLength), nil
}

// Data reads the value's raw bytes, reassembling big-data segments
// transparently if the value is larger than the single-cell threshold. If
// the data stream can't be resolved or read, this value becomes corrupted
// (Corrupted() true) and Data returns nil rather than an error, so a bad
// value data offset doesn't stop enumeration of sibling values.
func (v *Value) Data() ([]byte, error) {
	if err := v.checkHealthy(); err != nil {
		return nil, err
	}
	stream, err := v.f.engine.ValueData(v.item.VK)
	if err != nil {
		if aerr := v.absorb(err); aerr != nil {
			return nil, aerr
		}
		return nil, nil
	}
	buf := make([]byte, stream.Size())
	if len(buf) == 0 {
		return buf, nil
	}
	n, err := stream.ReadAt(buf, 0)
	if err != nil {
		if aerr := v.absorb(err); aerr != nil {
			return nil, aerr
		}
		return nil, nil
	}
	return buf[:n], nil
}

// String decodes a REG_SZ, REG_EXPAND_SZ or REG_LINK value as UTF-16LE text.
func (v *Value) String() (string, error) {
	t, err := v.Type()
	if err != nil {
		return "", err
	}
	if t != RegSZ && t != RegExpandSZ && t != RegLink {
		return "", &Error{Kind: Malformed, Msg: fmt.Sprintf("value type %s is not a string type", t)}
	}
	data, err := v.Data()
	if err != nil {
		return "", err
	}
	if v.Corrupted() {
		return "", nil
	}
	return trimNUL(codepage.DecodeUTF16LE(data)), nil
}

// Strings decodes a REG_MULTI_SZ value into its component strings.
func (v *Value) Strings() ([]string, error) {
	t, err := v.Type()
	if err != nil {
		return nil, err
	}
	if t != RegMultiSZ {
		return nil, &Error{Kind: Malformed, Msg: fmt.Sprintf("value type %s is not REG_MULTI_SZ", t)}
	}
	data, err := v.Data()
	if err != nil {
		return nil, err
	}
	if v.Corrupted() {
		return nil, nil
	}
	full := codepage.DecodeUTF16LE(data)
	full = strings.TrimRight(full, "\x00")
	if full == "" {
		return nil, nil
	}
	return strings.Split(full, "\x00"), nil
}

// Uint32 decodes a REG_DWORD or REG_DWORD_BIG_ENDIAN value.
func (v *Value) Uint32() (uint32, error) {
	t, err := v.Type()
	if err != nil {
		return 0, err
	}
	if t != RegDword && t != RegDwordBE {
		return 0, &Error{Kind: Malformed, Msg: fmt.Sprintf("value type %s is not a DWORD type", t)}
	}
	data, err := v.Data()
	if err != nil {
		return 0, err
	}
	if v.Corrupted() {
		return 0, nil
	}
	if len(data) < 4 {
		return 0, &Error{Kind: Malformed, Msg: "DWORD value shorter than 4 bytes"}
	}
	if t == RegDwordBE {
		return binary.BigEndian.Uint32(data[:4]), nil
	}
	return binary.LittleEndian.Uint32(data[:4]), nil
}

// Uint64 decodes a REG_QWORD value.
func (v *Value) Uint64() (uint64, error) {
	t, err := v.Type()
	if err != nil {
		return 0, err
	}
	if t != RegQword {
		return 0, &Error{Kind: Malformed, Msg: fmt.Sprintf("value type %s is not REG_QWORD", t)}
	}
	data, err := v.Data()
	if err != nil {
		return 0, err
	}
	if v.Corrupted() {
		return 0, nil
	}
	if len(data) < 8 {
		return 0, &Error{Kind: Malformed, Msg: "QWORD value shorter than 8 bytes"}
	}
	return binary.LittleEndian.Uint64(data[:8]), nil
}

func trimNUL(s string) string {
	if i := strings.IndexByte(s, 0); i >= 0 {
		return s[:i]
	}
	return s
}
