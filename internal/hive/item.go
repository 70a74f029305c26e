package hive

import (
	"fmt"

	"github.com/regfkit/regf/internal/format"
)

// KeyItem is a decoded nk cell plus the outcome of decoding it. Corrupted
// keys are still cached and returned (rather than failing Open or the
// whole containing traversal) so a single bad key in a large hive does not
// make the rest of the tree unreachable; Err explains what went wrong and
// every accessor on the bad key keeps returning it.
type KeyItem struct {
	Offset    uint32
	NK        format.NKRecord
	Corrupted bool
	Err       error
}

// ValueItem is the vk analogue of KeyItem.
type ValueItem struct {
	Offset    uint32
	VK        format.VKRecord
	Corrupted bool
	Err       error
}

// Key decodes (or returns the cached decode of) the nk cell at offset. A
// decode failure is captured on the returned item rather than surfaced as
// a Go error, so a corrupt key is a sticky, localized fact about that one
// key rather than an aborted traversal.
func (e *Engine) Key(offset uint32) (*KeyItem, error) {
	if err := e.checkAborted(); err != nil {
		return nil, err
	}
	if item, ok := e.keyCache.Get(offset); ok {
		return item, nil
	}

	item := &KeyItem{Offset: offset}
	cell, err := e.bins.cellAt(offset)
	if err != nil {
		item.Corrupted = true
		item.Err = fmt.Errorf("key at %d: %w", offset, err)
		e.keyCache.Add(offset, item)
		return item, nil
	}
	if cell.Free {
		item.Corrupted = true
		item.Err = fmt.Errorf("key at %d: %w", offset, format.ErrMalformed)
		e.keyCache.Add(offset, item)
		return item, nil
	}
	nk, err := format.DecodeNK(cell.Data)
	if err != nil {
		item.Corrupted = true
		item.Err = fmt.Errorf("key at %d: %w", offset, err)
		e.keyCache.Add(offset, item)
		return item, nil
	}
	item.NK = nk
	e.keyCache.Add(offset, item)
	return item, nil
}

// Value decodes (or returns the cached decode of) the vk cell at offset.
func (e *Engine) Value(offset uint32) (*ValueItem, error) {
	if err := e.checkAborted(); err != nil {
		return nil, err
	}
	if item, ok := e.valCache.Get(offset); ok {
		return item, nil
	}

	item := &ValueItem{Offset: offset}
	cell, err := e.bins.cellAt(offset)
	if err != nil {
		item.Corrupted = true
		item.Err = fmt.Errorf("value at %d: %w", offset, err)
		e.valCache.Add(offset, item)
		return item, nil
	}
	if cell.Free {
		item.Corrupted = true
		item.Err = fmt.Errorf("value at %d: %w", offset, format.ErrMalformed)
		e.valCache.Add(offset, item)
		return item, nil
	}
	vk, err := format.DecodeVK(cell.Data)
	if err != nil {
		item.Corrupted = true
		item.Err = fmt.Errorf("value at %d: %w", offset, err)
		e.valCache.Add(offset, item)
		return item, nil
	}
	item.VK = vk
	e.valCache.Add(offset, item)
	return item, nil
}
