// Package hive implements the lazy, offset-resolving traversal engine over
// a decoded REGF hive: resolving hive-relative offsets to cells through the
// bin index, decoding nk/vk/sk records and subkey/value/big-data lists on
// demand, and caching the results. The root package wraps this engine with
// the public File/Key/Value API and name/codepage handling.
package hive

import (
	"fmt"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/regfkit/regf/internal/format"
	"github.com/regfkit/regf/internal/source"
)

// Config controls cache sizing; zero values fall back to sane defaults.
type Config struct {
	BinCacheSize  int
	KeyCacheSize  int
	ValueCacheSize int
}

// Engine is the decoded, navigable view of one hive. It owns no UI-facing
// concepts (names are returned as raw bytes plus an "ASCII vs UTF-16"
// flag) so the root package can apply codepage decoding and convenience
// wrappers without the engine needing to know about either.
type Engine struct {
	Header format.Header
	src    source.ByteSource
	bins   *binIndex

	keyCache *lru.Cache[uint32, *KeyItem]
	valCache *lru.Cache[uint32, *ValueItem]

	aborted atomic.Bool
}

// Open validates the REGF header and eagerly scans the hive-bins region
// (spec §4.1/§4.4), returning an Engine ready for lazy key/value traversal.
func Open(src source.ByteSource, cfg Config) (*Engine, error) {
	hdr := make([]byte, format.HeaderSize)
	if _, err := src.ReadAt(hdr, 0); err != nil {
		return nil, fmt.Errorf("hive: reading header: %w", err)
	}
	header, err := format.ParseHeader(hdr, src.Size())
	if err != nil {
		return nil, fmt.Errorf("hive: %w", err)
	}

	bins, err := buildBinIndex(src, header, cfg.BinCacheSize)
	if err != nil {
		return nil, err
	}

	keyCacheSize := cfg.KeyCacheSize
	if keyCacheSize <= 0 {
		keyCacheSize = 1024
	}
	valCacheSize := cfg.ValueCacheSize
	if valCacheSize <= 0 {
		valCacheSize = 1024
	}
	keyCache, err := lru.New[uint32, *KeyItem](keyCacheSize)
	if err != nil {
		return nil, fmt.Errorf("hive: key cache: %w", err)
	}
	valCache, err := lru.New[uint32, *ValueItem](valCacheSize)
	if err != nil {
		return nil, fmt.Errorf("hive: value cache: %w", err)
	}

	return &Engine{
		Header:   header,
		src:      src,
		bins:     bins,
		keyCache: keyCache,
		valCache: valCache,
	}, nil
}

// SignalAbort flags the engine so every subsequent call returns ErrAborted.
// It is safe to call concurrently with in-flight reads; an in-flight read
// may still complete once it has already passed its abort check.
func (e *Engine) SignalAbort() {
	e.aborted.Store(true)
}

func (e *Engine) checkAborted() error {
	if e.aborted.Load() {
		return ErrAborted
	}
	return nil
}

// RootOffset is the hive-relative offset of the root key's nk cell.
func (e *Engine) RootOffset() uint32 {
	return e.Header.RootCellOffset
}

// Cell resolves a hive-relative offset to its decoded cell.
func (e *Engine) Cell(offset uint32) (format.Cell, error) {
	if err := e.checkAborted(); err != nil {
		return format.Cell{}, err
	}
	return e.bins.cellAt(offset)
}

// AnyCorrupted reports whether any key or value this engine has decoded so
// far has its sticky Corrupted flag set, whether from the item's own cell
// failing to decode or from a caller localizing a deeper resolution failure
// onto it (a bad subkey list, value list, class name, or value data
// stream). KeyItem/ValueItem are cached by pointer, so a caller's mutation
// of an already-fetched item is visible here without any extra bookkeeping.
func (e *Engine) AnyCorrupted() bool {
	for _, k := range e.keyCache.Keys() {
		if item, ok := e.keyCache.Peek(k); ok && item.Corrupted {
			return true
		}
	}
	for _, k := range e.valCache.Keys() {
		if item, ok := e.valCache.Peek(k); ok && item.Corrupted {
			return true
		}
	}
	return false
}
