// Package regf reads Windows NT Registry hive files (REGF): the header,
// every cell in the hive-bins pool, and the key/value tree they encode. It
// never writes — repairing or editing a hive is out of scope — and it
// tolerates the structural damage real-world hives accumulate by
// localizing a bad cell's effect to the one key or value that names it,
// rather than failing the whole traversal.
package regf

import (
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/regfkit/regf/internal/codepage"
	"github.com/regfkit/regf/internal/format"
	"github.com/regfkit/regf/internal/hive"
	"github.com/regfkit/regf/internal/source"
)

// File is an open hive. A File does no locking of its own: lookups update
// shared state (the caches and the sticky corruption flag of cached keys
// and values), so concurrent callers serialize their access themselves.
// SignalAbort is the exception: it may be called from any goroutine, after
// which every call that reaches an abort check returns an OperationAborted
// error; a call already past its checks completes normally.
type File struct {
	src    source.ByteSource
	engine *hive.Engine
	log    *slog.Logger
	cp     atomic.Uint32 // codepage.ID, mutable via SetCodepage
	closed atomic.Bool
}

// Open memory-maps the hive at path and validates its header and hive-bins
// structure. Open fails if the header's signature or checksum is wrong, if
// the format version is unsupported, if the hive-bins region does not fit
// inside the file, or if a hive-bin header has an invalid size or the bins
// overrun the region. A bin header without its "hbin" signature ends the
// bin scan instead, and offsets past the last good bin then resolve as out
// of range. Every other structural problem is deferred to
// traversal time and reported locally on the affected key or value.
func Open(path string, opts Options) (*File, error) {
	src, err := source.Mmap(path)
	if err != nil {
		return nil, classify(fmt.Errorf("hive: %w", err))
	}
	f, err := newFile(src, opts)
	if err != nil {
		_ = src.Close()
		return nil, err
	}
	return f, nil
}

// OpenReaderAt opens a hive backed by an arbitrary io.ReaderAt of known
// size, for callers that already manage the underlying file or have the
// hive embedded in a larger container.
func OpenReaderAt(r interface {
	ReadAt(p []byte, off int64) (int, error)
}, size int64, opts Options) (*File, error) {
	return newFile(source.FromReaderAt(r, size), opts)
}

// OpenBytes opens a hive already fully resident in memory.
func OpenBytes(data []byte, opts Options) (*File, error) {
	return newFile(source.FromBytes(data), opts)
}

func newFile(src source.ByteSource, opts Options) (*File, error) {
	cp := opts.codepage()
	if !codepage.Valid(cp) {
		return nil, &Error{Kind: Malformed, Msg: fmt.Sprintf("unsupported codepage %d", cp)}
	}
	engine, err := hive.Open(src, hive.Config{
		BinCacheSize:   opts.BinCacheSize,
		KeyCacheSize:   opts.KeyCacheSize,
		ValueCacheSize: opts.ValueCacheSize,
	})
	if err != nil {
		return nil, classify(err)
	}
	f := &File{src: src, engine: engine, log: opts.logger()}
	f.cp.Store(uint32(cp))
	f.log.Debug("opened hive", "major", engine.Header.MajorVersion, "minor", engine.Header.MinorVersion, "dirty", engine.Header.IsDirty())
	return f, nil
}

// Close releases the underlying byte source (unmapping an mmap'd file).
// Close is idempotent.
func (f *File) Close() error {
	if f.closed.Swap(true) {
		return nil
	}
	return f.src.Close()
}

// IsCorrupted reports whether any key or value decoded so far has its
// sticky corruption bit set, whether that came from the item's own cell
// failing to decode or from a deeper resolution (a subkey list, value
// list, class name, or value data stream) that couldn't be localized any
// further down. It only reflects items actually visited — a hive can have
// undiscovered damage this has not yet walked into.
func (f *File) IsCorrupted() bool {
	return f.engine.AnyCorrupted()
}

// SignalAbort makes every subsequent call on f fail with an
// OperationAborted error. It is intended for a caller driving a long scan
// from another goroutine (a UI cancel button, a context deadline) and does
// not itself block or unwind any in-flight call.
func (f *File) SignalAbort() {
	f.engine.SignalAbort()
}

// Codepage returns the codepage currently used to decode compressed
// (ANSI/OEM) names and strings.
func (f *File) Codepage() codepage.ID {
	return codepage.ID(f.cp.Load())
}

// SetCodepage changes the codepage used for subsequent name and string
// decoding. It rejects any id outside the Windows-125x family, the East
// Asian DBCS codepages, Thai, and ASCII (spec's codepage whitelist) rather
// than accepting it and silently decoding as something else. It does not
// invalidate anything already cached, because the engine's caches hold raw
// decoded records, not display strings — a Key's Name() re-decodes from
// those raw bytes against the current codepage every time it's called.
func (f *File) SetCodepage(id codepage.ID) error {
	if !codepage.Valid(id) {
		return &Error{Kind: Malformed, Msg: fmt.Sprintf("unsupported codepage %d", id)}
	}
	f.cp.Store(uint32(id))
	return nil
}

func (f *File) codec() codepage.Codepage {
	return codepage.New(f.Codepage())
}

// FormatVersion returns the hive's major.minor format version.
func (f *File) FormatVersion() (uint32, uint32) {
	return f.engine.Header.MajorVersion, f.engine.Header.MinorVersion
}

// FileType returns the REGF file_type field (0 = primary, 1 = log/alternate).
func (f *File) FileType() uint32 {
	return f.engine.Header.FileType
}

// LastWrite returns the hive's last-write time, as recorded in the REGF
// header.
func (f *File) LastWrite() time.Time {
	return format.FiletimeToTime(f.engine.Header.LastWriteRaw)
}

// IsDirty reports whether the header's primary and secondary sequence
// numbers disagree, meaning a transaction log exists that this package does
// not replay (spec's log-replay surface is explicitly out of scope).
func (f *File) IsDirty() bool {
	return f.engine.Header.IsDirty()
}

// HiveInfo summarizes the REGF header for introspection and diagnostics.
type HiveInfo struct {
	PrimarySequence   uint32
	SecondarySequence uint32
	LastWrite         time.Time
	MajorVersion      uint32
	MinorVersion      uint32
	FileType          uint32
	HiveBinsDataSize  uint32
	ClusteringFactor  uint32
	Dirty             bool
}

// Info returns a snapshot of the hive's header fields.
func (f *File) Info() HiveInfo {
	h := f.engine.Header
	return HiveInfo{
		PrimarySequence:   h.PrimarySequence,
		SecondarySequence: h.SecondarySequence,
		LastWrite:         format.FiletimeToTime(h.LastWriteRaw),
		MajorVersion:      h.MajorVersion,
		MinorVersion:      h.MinorVersion,
		FileType:          h.FileType,
		HiveBinsDataSize:  h.HiveBinsDataSize,
		ClusteringFactor:  h.ClusteringFactor,
		Dirty:             h.IsDirty(),
	}
}

// RootKey returns the hive's root key.
func (f *File) RootKey() (*Key, error) {
	return f.key(f.engine.RootOffset())
}

func (f *File) key(offset uint32) (*Key, error) {
	item, err := f.engine.Key(offset)
	if err != nil {
		return nil, classify(err)
	}
	return &Key{f: f, item: item}, nil
}

func (f *File) value(offset uint32) (*Value, error) {
	item, err := f.engine.Value(offset)
	if err != nil {
		return nil, classify(err)
	}
	return &Value{f: f, item: item}, nil
}
