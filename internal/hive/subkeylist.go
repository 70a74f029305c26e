package hive

import (
	"bytes"
	"fmt"

	"github.com/regfkit/regf/internal/format"
)

// SubkeyRefs flattens a key's subkey index (lf/lh/li, or an ri fan-out over
// any mix of those) into the hive-relative offsets of its child nk cells,
// in on-disk order. Recursion through ri lists is bounded by
// format.MaxSubkeyRecursionDepth (spec §4.8); exceeding it is reported as
// ErrTreeTooDeep rather than followed further, since real hives are never
// anywhere near that deep and a taller chain can only be a corrupt or
// adversarially constructed ri cycle.
func (e *Engine) SubkeyRefs(nk format.NKRecord) ([]uint32, error) {
	if nk.SubkeyCount == 0 || nk.SubkeyListOffset == format.InvalidOffset {
		return nil, nil
	}
	return e.flattenSubkeyList(nk.SubkeyListOffset, 0)
}

func (e *Engine) flattenSubkeyList(offset uint32, depth int) ([]uint32, error) {
	if depth > format.MaxSubkeyRecursionDepth {
		return nil, ErrTreeTooDeep
	}
	if err := e.checkAborted(); err != nil {
		return nil, err
	}
	cell, err := e.bins.cellAt(offset)
	if err != nil {
		return nil, fmt.Errorf("subkey list at %d: %w", offset, err)
	}
	if cell.Free {
		return nil, fmt.Errorf("subkey list at %d: %w", offset, format.ErrMalformed)
	}

	if len(cell.Data) >= format.SignatureSize && bytes.Equal(cell.Data[:format.SignatureSize], format.RISignature) {
		subLists, err := format.DecodeRIList(cell.Data)
		if err != nil {
			return nil, fmt.Errorf("ri list at %d: %w", offset, err)
		}
		var out []uint32
		for _, sub := range subLists {
			children, err := e.flattenSubkeyList(sub, depth+1)
			if err != nil {
				return nil, err
			}
			out = append(out, children...)
		}
		return out, nil
	}

	_, entries, err := format.DecodeSubkeyList(cell.Data)
	if err != nil {
		return nil, fmt.Errorf("subkey list at %d: %w", offset, err)
	}
	out := make([]uint32, len(entries))
	for i, ent := range entries {
		out[i] = ent.Offset
	}
	return out, nil
}

// CandidatesByHash flattens a key's subkey index the same way SubkeyRefs
// does, but filters lh entries against the target hash first: only lh
// offsets whose stored hash matches are returned, while every offset from
// an lf or li list is returned unfiltered. Hash collisions and unfiltered
// lists are still handled correctly, since callers always confirm the match
// by decoding and comparing the candidate's name.
func (e *Engine) CandidatesByHash(nk format.NKRecord, hash uint32) ([]uint32, error) {
	if nk.SubkeyCount == 0 || nk.SubkeyListOffset == format.InvalidOffset {
		return nil, nil
	}
	return e.filterSubkeyList(nk.SubkeyListOffset, hash, 0)
}

func (e *Engine) filterSubkeyList(offset uint32, hash uint32, depth int) ([]uint32, error) {
	if depth > format.MaxSubkeyRecursionDepth {
		return nil, ErrTreeTooDeep
	}
	if err := e.checkAborted(); err != nil {
		return nil, err
	}
	cell, err := e.bins.cellAt(offset)
	if err != nil {
		return nil, fmt.Errorf("subkey list at %d: %w", offset, err)
	}

	if len(cell.Data) >= format.SignatureSize && bytes.Equal(cell.Data[:format.SignatureSize], format.RISignature) {
		subLists, err := format.DecodeRIList(cell.Data)
		if err != nil {
			return nil, fmt.Errorf("ri list at %d: %w", offset, err)
		}
		var out []uint32
		for _, sub := range subLists {
			children, err := e.filterSubkeyList(sub, hash, depth+1)
			if err != nil {
				return nil, err
			}
			out = append(out, children...)
		}
		return out, nil
	}

	kind, entries, err := format.DecodeSubkeyList(cell.Data)
	if err != nil {
		return nil, fmt.Errorf("subkey list at %d: %w", offset, err)
	}
	// lf's "hash" field is the raw first four ASCII bytes of the name, not
	// an lh-style 31-bit hash — it lives in a different numeric space than
	// the subkeys.Hash value the caller passed in, so comparing the two
	// would almost never match. lf entries are cheap enough in practice
	// (legacy pre-lh hives) that we just always include them as candidates,
	// the same as an li list's hash-less entries, and let the caller's
	// name comparison do the real filtering.
	var out []uint32
	for _, ent := range entries {
		if kind == format.SubkeyListLI || kind == format.SubkeyListLF || ent.Hash == hash {
			out = append(out, ent.Offset)
		}
	}
	return out, nil
}

// ValueRefs returns the hive-relative vk offsets named by a key's value
// list, in on-disk order.
func (e *Engine) ValueRefs(nk format.NKRecord) ([]uint32, error) {
	if nk.ValueCount == 0 || nk.ValueListOffset == format.InvalidOffset {
		return nil, nil
	}
	if err := e.checkAborted(); err != nil {
		return nil, err
	}
	cell, err := e.bins.cellAt(nk.ValueListOffset)
	if err != nil {
		return nil, fmt.Errorf("value list at %d: %w", nk.ValueListOffset, err)
	}
	offsets, err := format.DecodeValueList(cell.Data, nk.ValueCount)
	if err != nil {
		return nil, fmt.Errorf("value list at %d: %w", nk.ValueListOffset, err)
	}
	return offsets, nil
}
