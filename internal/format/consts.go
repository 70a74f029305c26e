// Package format decodes the on-disk structures of a Windows NT Registry
// hive file (REGF): the header, hive-bin headers, cells, and the tagged
// cell payloads (nk/vk/sk/lf/lh/li/ri/db). Decoders here are pure functions
// over byte slices — no I/O, no caching, no recursion beyond what a single
// structure requires. The hive-storage engine in internal/hive composes
// them into the lazy, offset-resolving tree that the root package exposes.
package format

var (
	REGFSignature = []byte{'r', 'e', 'g', 'f'}
	HBINSignature = []byte{'h', 'b', 'i', 'n'}
	NKSignature   = []byte{'n', 'k'}
	VKSignature   = []byte{'v', 'k'}
	SKSignature   = []byte{'s', 'k'}
	LFSignature   = []byte{'l', 'f'}
	LHSignature   = []byte{'l', 'h'}
	LISignature   = []byte{'l', 'i'}
	RISignature   = []byte{'r', 'i'}
	DBSignature   = []byte{'d', 'b'}
)

const (
	// SignatureSize is the width of every two/four-byte record tag.
	SignatureSize = 2

	// HeaderSize is the fixed REGF header length; hive-bin data starts here.
	HeaderSize = 0x1000

	// ChecksumRegionLen is the number of header bytes the XOR-32 covers.
	ChecksumRegionLen = 508

	HBINHeaderSize = 0x20
	HBINAlignment  = 0x1000

	CellHeaderSize = 4
	CellAlignment  = 8

	// InvalidOffset marks an unused hive-relative offset field (subkey
	// list, value list, security key, class name).
	InvalidOffset = 0xFFFFFFFF

	// MaxSubkeyRecursionDepth bounds ri-list flattening (spec §4.8).
	MaxSubkeyRecursionDepth = 256

	// BigDataChunkSize is the payload carried by every non-final db segment.
	BigDataChunkSize = 16344

	// BigDataThreshold is the largest value size still stored in one cell.
	BigDataThreshold = 16344
)

// REGF header field offsets (absolute, within the 4096-byte header).
const (
	REGFSignatureOffset    = 0x000
	REGFPrimarySeqOffset   = 0x004
	REGFSecondarySeqOffset = 0x008
	REGFTimestampOffset    = 0x00C
	REGFMajorVersionOffset = 0x014
	REGFMinorVersionOffset = 0x018
	REGFFileTypeOffset     = 0x01C
	REGFRootCellOffset     = 0x024
	REGFHiveBinsSizeOffset = 0x028
	REGFClusterOffset      = 0x02C
	REGFChecksumOffset     = 0x1FC
)

// HBIN header field offsets (relative to the bin's own start).
const (
	HBINFileOffsetField = 0x04
	HBINSizeOffset      = 0x08
)

// NK field offsets (relative to the cell payload start, where "nk" sits at 0).
const (
	NKFlagsOffset        = 0x02
	NKLastWriteOffset    = 0x04
	NKParentOffset       = 0x10
	NKSubkeyCountOffset  = 0x14
	NKSubkeyListOffset   = 0x1C
	NKValueCountOffset   = 0x24
	NKValueListOffset    = 0x28
	NKSecurityOffset     = 0x2C
	NKClassNameOffset    = 0x30
	NKMaxNameLenOffset   = 0x34
	NKMaxClassLenOffset  = 0x38
	NKMaxValNameOffset   = 0x3C
	NKMaxValDataOffset   = 0x40
	NKNameLenOffset      = 0x48
	NKClassLenOffset     = 0x4A
	NKNameOffset         = 0x4C
	NKFixedHeaderSize    = NKNameOffset
	NKMinSize            = NKFixedHeaderSize

	// NKFlagASCIIName is KEY_COMP_NAME: the name is stored in the file's
	// configured codepage rather than UTF-16LE.
	NKFlagASCIIName = 0x0020
)

// VK field offsets (relative to the cell payload start, where "vk" sits at 0).
const (
	VKNameLenOffset = 0x02
	VKDataLenOffset = 0x04
	VKDataOffOffset = 0x08
	VKTypeOffset    = 0x0C
	VKFlagsOffset   = 0x10
	VKNameOffset    = 0x14
	VKMinSize       = VKNameOffset

	// VKFlagASCIIName is VALUE_COMP_NAME.
	VKFlagASCIIName  = 0x0001
	VKDataInlineBit  = 0x80000000
	VKDataLengthMask = 0x7FFFFFFF
)

// SK field offsets (relative to the cell payload start, where "sk" sits at 0
// and a 2-byte unused field follows it).
const (
	SKFlinkOffset    = 0x04
	SKBlinkOffset    = 0x08
	SKRefCountOffset = 0x0C
	SKDescLenOffset  = 0x10
	SKDescOffset     = 0x14
	SKMinSize        = SKDescOffset
)

// List header layout, shared by lf/lh/li/ri (signature + count, both
// relative to the cell payload start).
const (
	ListCountOffset = 0x02
	ListEntryOffset = 0x04

	// LFHashEntrySize is one (child uint32, hash uint32) pair for lf/lh.
	LFHashEntrySize = 8
	// FlatEntrySize is one child uint32 for li, or one sub-list uint32 for ri.
	FlatEntrySize = 4
)

// DB (big data) field offsets, relative to the cell payload start, where
// "db" sits at 0.
const (
	DBCountOffset      = 0x02
	DBBlockListOffset  = 0x04
	DBHeaderSize       = 0x0C
	DBMinBlockCount    = 2
	DBMaxBlockCount    = 65535
	// DBBlockTrailer is the 4-byte cell-header belonging to the *next* cell
	// that trails every non-final block's payload and must not be counted
	// as value data.
	DBBlockTrailer = 4
)

// Windows registry value type codes (spec §3, ValueKey).
const (
	REGNone      uint32 = 0
	REGSZ        uint32 = 1
	REGExpandSZ  uint32 = 2
	REGBinary    uint32 = 3
	REGDword     uint32 = 4
	REGDwordBE   uint32 = 5
	REGLink      uint32 = 6
	REGMultiSZ   uint32 = 7
	REGResourceList            uint32 = 8
	REGFullResourceDescriptor  uint32 = 9
	REGResourceRequirementList uint32 = 10
	REGQword     uint32 = 11
)
