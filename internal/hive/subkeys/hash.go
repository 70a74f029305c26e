// Package subkeys computes the lh name hash Windows uses to index a key's
// subkey list. Lookups against that hash are resolved by the hive engine.
package subkeys

const hashMultiplier = 37

// Hash computes the lh subkey-list hash for the decoded key name: hash = 0,
// then for each character hash = hash*37 + upper(c). The uppercasing is
// ASCII-only — code points outside 'a'-'z' pass through unchanged. This
// deliberately does not use unicode.ToUpper: the on-disk hash was computed
// by code that only uppercases the ASCII range, so a full Unicode case fold
// would disagree with real hives on any non-ASCII name.
func Hash(name string) uint32 {
	var hash uint32
	for _, r := range name {
		hash = hash*hashMultiplier + uint32(asciiUpper(r))
	}
	return hash
}

func asciiUpper(r rune) rune {
	if r >= 'a' && r <= 'z' {
		return r - ('a' - 'A')
	}
	return r
}
