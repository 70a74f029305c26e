package regf

import (
	"fmt"
	"strings"
	"time"

	"github.com/regfkit/regf/internal/codepage"
	"github.com/regfkit/regf/internal/format"
	"github.com/regfkit/regf/internal/hive"
	"github.com/regfkit/regf/internal/hive/subkeys"
)

// Key is a node in the hive's key tree. A Key obtained by traversal may be
// Corrupted. If its own nk cell failed to decode, every accessor below
// returns the same sticky error rather than panicking or aborting the
// caller's wider walk. If instead a subkey list, value list or class name it
// names failed to resolve, the accessors keep working and return an empty
// result for the broken part.
type Key struct {
	f    *File
	item *hive.KeyItem
}

// Corrupted reports whether this key's own nk cell failed to decode, or a
// subkey list, value list or class name it names failed to resolve.
func (k *Key) Corrupted() bool { return k.item.Corrupted }

// Err returns the error from decoding this key's own nk cell, or nil.
func (k *Key) Err() error {
	if k.item.Err == nil {
		return nil
	}
	return classify(k.item.Err)
}

// Offset is the key's hive-relative nk cell offset, stable for the life of
// the File and usable as an opaque identifier.
func (k *Key) Offset() uint32 { return k.item.Offset }

func (k *Key) checkHealthy() error {
	if k.item.Corrupted {
		return k.Err()
	}
	return nil
}

// absorb folds a deeper resolution failure (a bad subkey list, value list,
// or class name) into this key's own sticky corruption flag, mutating the
// cached *hive.KeyItem directly so every other Key wrapping the same item
// sees it too. Only Io and OperationAborted propagate as errors — spec §7
// says everything else must be localized to the key that named the bad
// offset instead of failing the caller's wider walk. Grounded on
// libregf_key_item.c's handling of a bad values_list_offset: item
// construction still succeeds, with LIBREGF_ITEM_FLAG_IS_CORRUPTED set.
// item.Err is left alone: it holds only the key's own nk decode failure, so
// the key's other accessors keep working after a deeper failure.
func (k *Key) absorb(err error) error {
	ce := classify(err)
	if ce.Kind == Io || ce.Kind == OperationAborted {
		return ce
	}
	k.item.Corrupted = true
	return nil
}

// Name decodes the key's name using the File's current codepage.
func (k *Key) Name() (string, error) {
	if err := k.checkHealthy(); err != nil {
		return "", err
	}
	return decodeName(k.f.codec(), k.item.NK.Name, k.item.NK.ASCIIName())
}

func decodeName(cp codepage.Codepage, raw []byte, ascii bool) (string, error) {
	if len(raw) == 0 {
		return "", nil
	}
	if ascii {
		s, err := cp.Decode(raw)
		if err != nil {
			return "", classify(fmt.Errorf("hive: %w", err))
		}
		return s, nil
	}
	return codepage.DecodeUTF16LE(raw), nil
}

// LastWrite returns the key's last-write timestamp.
func (k *Key) LastWrite() (time.Time, error) {
	if err := k.checkHealthy(); err != nil {
		return time.Time{}, err
	}
	return format.FiletimeToTime(k.item.NK.LastWriteRaw), nil
}

// IsRoot reports whether this key has the KEY_HIVE_ENTRY flag set.
func (k *Key) IsRoot() (bool, error) {
	if err := k.checkHealthy(); err != nil {
		return false, err
	}
	return k.item.NK.IsRoot(), nil
}

// subkeyRefs resolves the key's subkey list, localizing a resolution
// failure onto this key (see absorb) rather than returning it — a caller
// that only wants the count or needs to keep walking siblings should not
// have to handle an error for damage that is entirely this key's own.
func (k *Key) subkeyRefs() ([]uint32, error) {
	if err := k.checkHealthy(); err != nil {
		return nil, err
	}
	offsets, err := k.f.engine.SubkeyRefs(k.item.NK)
	if err != nil {
		if aerr := k.absorb(err); aerr != nil {
			return nil, aerr
		}
		return nil, nil
	}
	return offsets, nil
}

// valueRefs is the subkeyRefs analogue for the key's value list.
func (k *Key) valueRefs() ([]uint32, error) {
	if err := k.checkHealthy(); err != nil {
		return nil, err
	}
	offsets, err := k.f.engine.ValueRefs(k.item.NK)
	if err != nil {
		if aerr := k.absorb(err); aerr != nil {
			return nil, aerr
		}
		return nil, nil
	}
	return offsets, nil
}

// SubkeyCount returns the number of direct child keys actually resolvable
// from this key's subkey list. If the list itself fails to resolve, the
// key becomes corrupted and this returns 0 rather than the nk record's
// possibly-stale declared count (spec seed scenario: number_of_values()
// reads 0 once a damaged list can no longer be walked, and the same holds
// for subkeys).
func (k *Key) SubkeyCount() (int, error) {
	offsets, err := k.subkeyRefs()
	if err != nil {
		return 0, err
	}
	return len(offsets), nil
}

// ValueCount returns the number of values actually resolvable from this
// key's value list (see SubkeyCount for why this isn't just the nk
// record's declared count).
func (k *Key) ValueCount() (int, error) {
	offsets, err := k.valueRefs()
	if err != nil {
		return 0, err
	}
	return len(offsets), nil
}

// Subkeys returns every direct child key, in on-disk order. A child whose
// own nk cell is corrupt still appears in the slice, with Corrupted() true.
// If the subkey list itself fails to resolve, this key becomes corrupted
// (Corrupted() true) and Subkeys returns an empty slice rather than an
// error, so a bad subkey list under one key does not stop enumeration of
// its siblings.
func (k *Key) Subkeys() ([]*Key, error) {
	offsets, err := k.subkeyRefs()
	if err != nil {
		return nil, err
	}
	out := make([]*Key, 0, len(offsets))
	for _, off := range offsets {
		child, err := k.f.key(off)
		if err != nil {
			return nil, err
		}
		out = append(out, child)
	}
	return out, nil
}

// Values returns every value directly under this key, in on-disk order.
// Like Subkeys, a value list that fails to resolve marks this key
// corrupted and yields an empty slice instead of an error.
func (k *Key) Values() ([]*Value, error) {
	offsets, err := k.valueRefs()
	if err != nil {
		return nil, err
	}
	out := make([]*Value, 0, len(offsets))
	for _, off := range offsets {
		v, err := k.f.value(off)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// Child looks up a direct child key by name, case-insensitive. It uses the
// hash as a pre-filter when the subkey list carries one (lh): only
// candidates whose stored hash matches the target name's hash are checked
// first. If none of those candidates' names actually match — the common
// case being a list kind the prefilter can't narrow (lf, li) or a genuine
// hash miss — it falls back to a full linear scan of every subkey and
// compares names directly, per spec §4.8's required robustness fallback.
func (k *Key) Child(name string) (*Key, error) {
	if err := k.checkHealthy(); err != nil {
		return nil, err
	}
	if k.item.NK.SubkeyCount == 0 {
		return nil, &Error{Kind: OffsetOutOfRange, Msg: fmt.Sprintf("subkey %q not found", name)}
	}

	hash := subkeys.Hash(name)
	candidates, err := k.f.engine.CandidatesByHash(k.item.NK, hash)
	if err != nil {
		if aerr := k.absorb(err); aerr != nil {
			return nil, aerr
		}
		candidates = nil
	}
	if child, found, err := k.matchChild(candidates, name); err != nil || found {
		return child, err
	}

	all, err := k.subkeyRefs()
	if err != nil {
		return nil, err
	}
	if child, found, err := k.matchChild(all, name); err != nil || found {
		return child, err
	}
	return nil, &Error{Kind: OffsetOutOfRange, Msg: fmt.Sprintf("subkey %q not found", name)}
}

// matchChild decodes each offset and returns the first whose name matches,
// case-insensitive. A corrupted or unreadable candidate is skipped rather
// than treated as a match failure, since a name comparison against a key
// that failed to decode can't tell us anything.
func (k *Key) matchChild(offsets []uint32, name string) (*Key, bool, error) {
	for _, off := range offsets {
		child, err := k.f.key(off)
		if err != nil {
			return nil, false, err
		}
		if child.Corrupted() {
			continue
		}
		childName, err := child.Name()
		if err != nil {
			continue
		}
		if strings.EqualFold(childName, name) {
			return child, true, nil
		}
	}
	return nil, false, nil
}

// NameLen returns the raw on-disk byte length of the key's name, without
// decoding it — cheaper than len(Name()) when a caller only needs the
// length (e.g. validating a buffer before decoding).
func (k *Key) NameLen() (int, error) {
	if err := k.checkHealthy(); err != nil {
		return 0, err
	}
	return len(k.item.NK.Name), nil
}

// StructSize returns the on-disk size of the key's nk cell, including its
// 4-byte cell header.
func (k *Key) StructSize() (int, error) {
	if err := k.checkHealthy(); err != nil {
		return 0, err
	}
	cell, err := k.f.engine.Cell(k.item.Offset)
	if err != nil {
		return 0, classify(err)
	}
	return cell.Size, nil
}

// Parent returns this key's parent. It fails with OffsetOutOfRange for the
// root key, which has no parent of its own (its nk record's Parent field
// points back at itself on most hives).
func (k *Key) Parent() (*Key, error) {
	if err := k.checkHealthy(); err != nil {
		return nil, err
	}
	if k.item.NK.IsRoot() {
		return nil, &Error{Kind: OffsetOutOfRange, Msg: "root key has no parent"}
	}
	return k.f.key(k.item.NK.Parent)
}

// ClassName decodes the key's class-name string, or "" if it has none or
// its resolution failed — a bad class-name offset marks this key
// corrupted rather than failing the call outright.
func (k *Key) ClassName() (string, error) {
	if err := k.checkHealthy(); err != nil {
		return "", err
	}
	raw, err := k.f.engine.ClassName(k.item.NK)
	if err != nil {
		if aerr := k.absorb(err); aerr != nil {
			return "", aerr
		}
		return "", nil
	}
	return codepage.DecodeUTF16LE(raw), nil
}

// Security returns the key's raw security descriptor bytes, or a
// zero-value SecurityDescriptor if the key has none.
func (k *Key) Security() (SecurityDescriptor, error) {
	if err := k.checkHealthy(); err != nil {
		return SecurityDescriptor{}, err
	}
	sd, err := k.f.engine.Security(k.item.NK.SecurityOffset)
	if err != nil {
		return SecurityDescriptor{}, classify(err)
	}
	return SecurityDescriptor{ReferenceCount: sd.ReferenceCount, Raw: sd.Raw}, nil
}

// SecurityDescriptor is a key's raw, self-relative Windows security
// descriptor. Interpreting the SIDs and ACEs inside it is not this
// package's job — callers that need that can hand Raw to a SID/ACL library.
type SecurityDescriptor struct {
	ReferenceCount uint32
	Raw            []byte
}
