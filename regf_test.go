package regf

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/regfkit/regf/internal/codepage"
	"github.com/regfkit/regf/internal/format"
)

// buildMinimalHive assembles, byte by byte, the smallest hive this package
// can open: one hbin holding a root nk with a single inline REG_DWORD
// value, matching the field layout internal/format/*.go decodes.
func buildMinimalHive(t *testing.T) []byte {
	t.Helper()

	// Every offset below is hive-relative (relative to the start of the
	// hive-bins region), the same space cell offsets live in on disk. The
	// single bin's own hiveOffset is 0, so these are also plain indices
	// into the `bin` byte slice assembled further down.
	nkOff := uint32(format.HBINHeaderSize) // first cell follows the bin header

	nkName := []byte("Root")
	nkPayloadLen := format.NKNameOffset + len(nkName)
	nkCellSize := align8(format.CellHeaderSize + nkPayloadLen)

	valueListOff := nkOff + uint32(nkCellSize)
	valueListCellSize := align8(format.CellHeaderSize + 4) // one uint32 entry

	vkOff := valueListOff + uint32(valueListCellSize)
	vkName := []byte("TestValue")
	vkPayloadLen := format.VKNameOffset + len(vkName)
	vkCellSize := align8(format.CellHeaderSize + vkPayloadLen)

	// --- nk cell (root key) ---
	nk := make([]byte, nkCellSize-format.CellHeaderSize)
	copy(nk[:2], format.NKSignature)
	binary.LittleEndian.PutUint16(nk[format.NKFlagsOffset:], 0x0024) // KEY_HIVE_ENTRY | ASCII name
	binary.LittleEndian.PutUint32(nk[format.NKSubkeyListOffset:], format.InvalidOffset)
	binary.LittleEndian.PutUint32(nk[format.NKValueCountOffset:], 1)
	binary.LittleEndian.PutUint32(nk[format.NKValueListOffset:], valueListOff)
	binary.LittleEndian.PutUint32(nk[format.NKSecurityOffset:], format.InvalidOffset)
	binary.LittleEndian.PutUint32(nk[format.NKClassNameOffset:], format.InvalidOffset)
	binary.LittleEndian.PutUint16(nk[format.NKNameLenOffset:], uint16(len(nkName)))
	copy(nk[format.NKNameOffset:], nkName)

	// --- value-list cell: one uint32 offset pointing at the vk cell ---
	valueList := make([]byte, valueListCellSize-format.CellHeaderSize)
	binary.LittleEndian.PutUint32(valueList, vkOff)

	// --- vk cell ---
	vk := make([]byte, vkCellSize-format.CellHeaderSize)
	copy(vk[:2], format.VKSignature)
	binary.LittleEndian.PutUint16(vk[format.VKNameLenOffset:], uint16(len(vkName)))
	binary.LittleEndian.PutUint32(vk[format.VKDataLenOffset:], 4|format.VKDataInlineBit)
	binary.LittleEndian.PutUint32(vk[format.VKDataOffOffset:], 0x12345678)
	binary.LittleEndian.PutUint32(vk[format.VKTypeOffset:], format.REGDword)
	binary.LittleEndian.PutUint16(vk[format.VKFlagsOffset:], format.VKFlagASCIIName)
	copy(vk[format.VKNameOffset:], vkName)

	// --- assemble the one hive bin ---
	bin := make([]byte, format.HBINAlignment)
	copy(bin[:4], format.HBINSignature)
	binary.LittleEndian.PutUint32(bin[format.HBINFileOffsetField:], 0)
	binary.LittleEndian.PutUint32(bin[format.HBINSizeOffset:], format.HBINAlignment)

	putCell(bin, int(nkOff), nk)
	putCell(bin, int(valueListOff), valueList)
	putCell(bin, int(vkOff), vk)

	// --- REGF header ---
	header := make([]byte, format.HeaderSize)
	copy(header[:4], format.REGFSignature)
	binary.LittleEndian.PutUint32(header[format.REGFPrimarySeqOffset:], 1)
	binary.LittleEndian.PutUint32(header[format.REGFSecondarySeqOffset:], 1)
	binary.LittleEndian.PutUint32(header[format.REGFMajorVersionOffset:], 1)
	binary.LittleEndian.PutUint32(header[format.REGFMinorVersionOffset:], 5)
	binary.LittleEndian.PutUint32(header[format.REGFRootCellOffset:], nkOff)
	binary.LittleEndian.PutUint32(header[format.REGFHiveBinsSizeOffset:], format.HBINAlignment)
	binary.LittleEndian.PutUint32(header[format.REGFClusterOffset:], 1)

	sum, err := format.XOR32(header[:format.ChecksumRegionLen])
	require.NoError(t, err)
	binary.LittleEndian.PutUint32(header[format.REGFChecksumOffset:], sum)

	return append(header, bin...)
}

// putCell writes a cell (4-byte size header + payload) at absolute offset
// off within bin, using payload's own length (already cell-size-minus-4)
// to derive and store the signed size field.
func putCell(bin []byte, off int, payload []byte) {
	size := int32(len(payload) + format.CellHeaderSize)
	binary.LittleEndian.PutUint32(bin[off:], uint32(-size)) // negative: allocated
	copy(bin[off+format.CellHeaderSize:], payload)
}

func align8(n int) int {
	if n%8 == 0 {
		return n
	}
	return n + (8 - n%8)
}

func TestOpenBytesAndReadRootValue(t *testing.T) {
	data := buildMinimalHive(t)

	f, err := OpenBytes(data, Options{})
	require.NoError(t, err)
	defer f.Close()

	major, minor := f.FormatVersion()
	require.Equal(t, uint32(1), major)
	require.Equal(t, uint32(5), minor)

	root, err := f.RootKey()
	require.NoError(t, err)
	require.False(t, root.Corrupted())

	name, err := root.Name()
	require.NoError(t, err)
	require.Equal(t, "Root", name)

	isRoot, err := root.IsRoot()
	require.NoError(t, err)
	require.True(t, isRoot)

	values, err := root.Values()
	require.NoError(t, err)
	require.Len(t, values, 1)

	vname, err := values[0].Name()
	require.NoError(t, err)
	require.Equal(t, "TestValue", vname)

	vtype, err := values[0].Type()
	require.NoError(t, err)
	require.Equal(t, RegDword, vtype)

	dw, err := values[0].Uint32()
	require.NoError(t, err)
	require.Equal(t, uint32(0x12345678), dw)
}

func TestOpenBytesRejectsBadSignature(t *testing.T) {
	data := buildMinimalHive(t)
	data[0] = 'x'

	_, err := OpenBytes(data, Options{})
	require.Error(t, err)
	var rerr *Error
	require.ErrorAs(t, err, &rerr)
	require.Equal(t, InvalidSignature, rerr.Kind)
}

func TestOpenBytesRejectsBadChecksum(t *testing.T) {
	data := buildMinimalHive(t)
	data[format.REGFChecksumOffset] ^= 0xFF

	_, err := OpenBytes(data, Options{})
	require.Error(t, err)
	var rerr *Error
	require.ErrorAs(t, err, &rerr)
	require.Equal(t, ChecksumMismatch, rerr.Kind)
}

// buildCorruptValueListHive builds a root with two subkeys in an li list:
// "Bad", whose value_list offset points nowhere in the hive-bins region,
// and "Good", which has no values at all. It exercises seed scenario S6: a
// key's value_list failing to resolve must corrupt only that key, not the
// parent's ability to enumerate its siblings.
func buildCorruptValueListHive(t *testing.T) []byte {
	t.Helper()

	rootOff := uint32(format.HBINHeaderSize)
	rootName := []byte("Root")
	rootPayloadLen := format.NKNameOffset + len(rootName)
	rootCellSize := align8(format.CellHeaderSize + rootPayloadLen)

	listOff := rootOff + uint32(rootCellSize)
	listCellSize := align8(format.CellHeaderSize + format.ListEntryOffset + 2*format.FlatEntrySize)

	badOff := listOff + uint32(listCellSize)
	badName := []byte("Bad")
	badPayloadLen := format.NKNameOffset + len(badName)
	badCellSize := align8(format.CellHeaderSize + badPayloadLen)

	goodOff := badOff + uint32(badCellSize)
	goodName := []byte("Good")
	goodPayloadLen := format.NKNameOffset + len(goodName)
	goodCellSize := align8(format.CellHeaderSize + goodPayloadLen)

	const badValueListOff = 0x0FFFFFF0 // far outside the one-bin hive below

	root := make([]byte, rootCellSize-format.CellHeaderSize)
	copy(root[:2], format.NKSignature)
	binary.LittleEndian.PutUint16(root[format.NKFlagsOffset:], 0x0024)
	binary.LittleEndian.PutUint32(root[format.NKSubkeyCountOffset:], 2)
	binary.LittleEndian.PutUint32(root[format.NKSubkeyListOffset:], listOff)
	binary.LittleEndian.PutUint32(root[format.NKValueListOffset:], format.InvalidOffset)
	binary.LittleEndian.PutUint32(root[format.NKSecurityOffset:], format.InvalidOffset)
	binary.LittleEndian.PutUint32(root[format.NKClassNameOffset:], format.InvalidOffset)
	binary.LittleEndian.PutUint16(root[format.NKNameLenOffset:], uint16(len(rootName)))
	copy(root[format.NKNameOffset:], rootName)

	list := make([]byte, listCellSize-format.CellHeaderSize)
	copy(list[:2], format.LISignature)
	binary.LittleEndian.PutUint16(list[format.ListCountOffset:], 2)
	binary.LittleEndian.PutUint32(list[format.ListEntryOffset:], badOff)
	binary.LittleEndian.PutUint32(list[format.ListEntryOffset+format.FlatEntrySize:], goodOff)

	bad := make([]byte, badCellSize-format.CellHeaderSize)
	copy(bad[:2], format.NKSignature)
	binary.LittleEndian.PutUint16(bad[format.NKFlagsOffset:], 0x0020)
	binary.LittleEndian.PutUint32(bad[format.NKParentOffset:], rootOff)
	binary.LittleEndian.PutUint32(bad[format.NKSubkeyListOffset:], format.InvalidOffset)
	binary.LittleEndian.PutUint32(bad[format.NKValueCountOffset:], 1)
	binary.LittleEndian.PutUint32(bad[format.NKValueListOffset:], badValueListOff)
	binary.LittleEndian.PutUint32(bad[format.NKSecurityOffset:], format.InvalidOffset)
	binary.LittleEndian.PutUint32(bad[format.NKClassNameOffset:], format.InvalidOffset)
	binary.LittleEndian.PutUint16(bad[format.NKNameLenOffset:], uint16(len(badName)))
	copy(bad[format.NKNameOffset:], badName)

	good := make([]byte, goodCellSize-format.CellHeaderSize)
	copy(good[:2], format.NKSignature)
	binary.LittleEndian.PutUint16(good[format.NKFlagsOffset:], 0x0020)
	binary.LittleEndian.PutUint32(good[format.NKParentOffset:], rootOff)
	binary.LittleEndian.PutUint32(good[format.NKSubkeyListOffset:], format.InvalidOffset)
	binary.LittleEndian.PutUint32(good[format.NKValueListOffset:], format.InvalidOffset)
	binary.LittleEndian.PutUint32(good[format.NKSecurityOffset:], format.InvalidOffset)
	binary.LittleEndian.PutUint32(good[format.NKClassNameOffset:], format.InvalidOffset)
	binary.LittleEndian.PutUint16(good[format.NKNameLenOffset:], uint16(len(goodName)))
	copy(good[format.NKNameOffset:], goodName)

	bin := make([]byte, format.HBINAlignment)
	copy(bin[:4], format.HBINSignature)
	binary.LittleEndian.PutUint32(bin[format.HBINFileOffsetField:], 0)
	binary.LittleEndian.PutUint32(bin[format.HBINSizeOffset:], format.HBINAlignment)

	putCell(bin, int(rootOff), root)
	putCell(bin, int(listOff), list)
	putCell(bin, int(badOff), bad)
	putCell(bin, int(goodOff), good)

	header := make([]byte, format.HeaderSize)
	copy(header[:4], format.REGFSignature)
	binary.LittleEndian.PutUint32(header[format.REGFMajorVersionOffset:], 1)
	binary.LittleEndian.PutUint32(header[format.REGFMinorVersionOffset:], 5)
	binary.LittleEndian.PutUint32(header[format.REGFRootCellOffset:], rootOff)
	binary.LittleEndian.PutUint32(header[format.REGFHiveBinsSizeOffset:], format.HBINAlignment)
	sum, err := format.XOR32(header[:format.ChecksumRegionLen])
	require.NoError(t, err)
	binary.LittleEndian.PutUint32(header[format.REGFChecksumOffset:], sum)

	return append(header, bin...)
}

func TestBadValueListCorruptsOnlyThatKey(t *testing.T) {
	data := buildCorruptValueListHive(t)
	f, err := OpenBytes(data, Options{})
	require.NoError(t, err)
	defer f.Close()

	root, err := f.RootKey()
	require.NoError(t, err)
	require.False(t, f.IsCorrupted())

	children, err := root.Subkeys()
	require.NoError(t, err)
	require.Len(t, children, 2)

	var bad, good *Key
	for _, c := range children {
		name, err := c.Name()
		require.NoError(t, err)
		switch name {
		case "Bad":
			bad = c
		case "Good":
			good = c
		}
	}
	require.NotNil(t, bad)
	require.NotNil(t, good)

	require.False(t, bad.Corrupted())
	values, err := bad.Values()
	require.NoError(t, err)
	require.Empty(t, values)
	require.True(t, bad.Corrupted())

	count, err := bad.ValueCount()
	require.NoError(t, err)
	require.Equal(t, 0, count)

	require.True(t, f.IsCorrupted())

	// The sibling is unaffected, and re-enumerating the parent's children
	// still works.
	require.False(t, good.Corrupted())
	goodValues, err := good.Values()
	require.NoError(t, err)
	require.Empty(t, goodValues)

	siblingsAgain, err := root.Subkeys()
	require.NoError(t, err)
	require.Len(t, siblingsAgain, 2)
}

// buildMismatchedHashHive builds a root with one subkey ("Foo") in an lh
// list whose stored hash does not match subkeys.Hash("Foo") — simulating a
// damaged or unusual hash entry the prefilter must not trust blindly.
func buildMismatchedHashHive(t *testing.T) []byte {
	t.Helper()

	rootOff := uint32(format.HBINHeaderSize)
	rootName := []byte("Root")
	rootPayloadLen := format.NKNameOffset + len(rootName)
	rootCellSize := align8(format.CellHeaderSize + rootPayloadLen)

	lhOff := rootOff + uint32(rootCellSize)
	lhCellSize := align8(format.CellHeaderSize + format.ListEntryOffset + format.LFHashEntrySize)

	fooOff := lhOff + uint32(lhCellSize)
	fooName := []byte("Foo")
	fooPayloadLen := format.NKNameOffset + len(fooName)
	fooCellSize := align8(format.CellHeaderSize + fooPayloadLen)

	root := make([]byte, rootCellSize-format.CellHeaderSize)
	copy(root[:2], format.NKSignature)
	binary.LittleEndian.PutUint16(root[format.NKFlagsOffset:], 0x0024)
	binary.LittleEndian.PutUint32(root[format.NKSubkeyCountOffset:], 1)
	binary.LittleEndian.PutUint32(root[format.NKSubkeyListOffset:], lhOff)
	binary.LittleEndian.PutUint32(root[format.NKValueListOffset:], format.InvalidOffset)
	binary.LittleEndian.PutUint32(root[format.NKSecurityOffset:], format.InvalidOffset)
	binary.LittleEndian.PutUint32(root[format.NKClassNameOffset:], format.InvalidOffset)
	binary.LittleEndian.PutUint16(root[format.NKNameLenOffset:], uint16(len(rootName)))
	copy(root[format.NKNameOffset:], rootName)

	lh := make([]byte, lhCellSize-format.CellHeaderSize)
	copy(lh[:2], format.LHSignature)
	binary.LittleEndian.PutUint16(lh[format.ListCountOffset:], 1)
	binary.LittleEndian.PutUint32(lh[format.ListEntryOffset:], fooOff)
	binary.LittleEndian.PutUint32(lh[format.ListEntryOffset+4:], 0xDEADBEEF) // deliberately wrong

	foo := make([]byte, fooCellSize-format.CellHeaderSize)
	copy(foo[:2], format.NKSignature)
	binary.LittleEndian.PutUint16(foo[format.NKFlagsOffset:], 0x0020)
	binary.LittleEndian.PutUint32(foo[format.NKParentOffset:], rootOff)
	binary.LittleEndian.PutUint32(foo[format.NKSubkeyListOffset:], format.InvalidOffset)
	binary.LittleEndian.PutUint32(foo[format.NKValueListOffset:], format.InvalidOffset)
	binary.LittleEndian.PutUint32(foo[format.NKSecurityOffset:], format.InvalidOffset)
	binary.LittleEndian.PutUint32(foo[format.NKClassNameOffset:], format.InvalidOffset)
	binary.LittleEndian.PutUint16(foo[format.NKNameLenOffset:], uint16(len(fooName)))
	copy(foo[format.NKNameOffset:], fooName)

	bin := make([]byte, format.HBINAlignment)
	copy(bin[:4], format.HBINSignature)
	binary.LittleEndian.PutUint32(bin[format.HBINFileOffsetField:], 0)
	binary.LittleEndian.PutUint32(bin[format.HBINSizeOffset:], format.HBINAlignment)

	putCell(bin, int(rootOff), root)
	putCell(bin, int(lhOff), lh)
	putCell(bin, int(fooOff), foo)

	header := make([]byte, format.HeaderSize)
	copy(header[:4], format.REGFSignature)
	binary.LittleEndian.PutUint32(header[format.REGFMajorVersionOffset:], 1)
	binary.LittleEndian.PutUint32(header[format.REGFMinorVersionOffset:], 5)
	binary.LittleEndian.PutUint32(header[format.REGFRootCellOffset:], rootOff)
	binary.LittleEndian.PutUint32(header[format.REGFHiveBinsSizeOffset:], format.HBINAlignment)
	sum, err := format.XOR32(header[:format.ChecksumRegionLen])
	require.NoError(t, err)
	binary.LittleEndian.PutUint32(header[format.REGFChecksumOffset:], sum)

	return append(header, bin...)
}

func TestChildFallsBackToFullScanOnHashMiss(t *testing.T) {
	data := buildMismatchedHashHive(t)
	f, err := OpenBytes(data, Options{})
	require.NoError(t, err)
	defer f.Close()

	root, err := f.RootKey()
	require.NoError(t, err)

	child, err := root.Child("Foo")
	require.NoError(t, err)
	name, err := child.Name()
	require.NoError(t, err)
	require.Equal(t, "Foo", name)
}

func TestSetCodepageRejectsUnknownID(t *testing.T) {
	data := buildMinimalHive(t)
	f, err := OpenBytes(data, Options{})
	require.NoError(t, err)
	defer f.Close()

	err = f.SetCodepage(9999)
	require.Error(t, err)
	var rerr *Error
	require.ErrorAs(t, err, &rerr)
	require.Equal(t, Malformed, rerr.Kind)
	require.Equal(t, codepage.Default, f.Codepage())

	require.NoError(t, f.SetCodepage(codepage.CP1251CyrillicID))
	require.Equal(t, codepage.CP1251CyrillicID, f.Codepage())
}

func TestOpenBytesRejectsUnknownCodepage(t *testing.T) {
	data := buildMinimalHive(t)
	_, err := OpenBytes(data, Options{Codepage: 9999})
	require.Error(t, err)
	var rerr *Error
	require.ErrorAs(t, err, &rerr)
	require.Equal(t, Malformed, rerr.Kind)
}

func TestKeyByPathStripsRootAlias(t *testing.T) {
	data := buildMinimalHive(t)
	f, err := OpenBytes(data, Options{})
	require.NoError(t, err)
	defer f.Close()

	key, err := f.KeyByPath(`HKEY_LOCAL_MACHINE`)
	require.NoError(t, err)
	name, err := key.Name()
	require.NoError(t, err)
	require.Equal(t, "Root", name)
}
