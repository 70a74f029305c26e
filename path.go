package regf

import (
	"fmt"
	"strings"

	"github.com/regfkit/regf/internal/codepage"
)

// rootAliases are the well-known hive root names a caller's path might be
// prefixed with when it was copied from a live Windows registry view
// rather than written relative to the mounted hive's own root.
var rootAliases = map[string]bool{
	"HKEY_LOCAL_MACHINE": true,
	"HKLM":                true,
	"HKEY_CLASSES_ROOT":   true,
	"HKCR":                true,
	"HKEY_CURRENT_USER":   true,
	"HKCU":                true,
	"HKEY_USERS":          true,
	"HKU":                 true,
	"HKEY_CURRENT_CONFIG": true,
	"HKCC":                true,
}

// KeyByPath resolves a backslash-separated path, starting at the root key.
// A leading well-known root alias (HKEY_LOCAL_MACHINE, HKLM, ...) is
// stripped if present, since paths are often copied verbatim from a live
// registry view rather than written relative to this hive's own root.
func (f *File) KeyByPath(path string) (*Key, error) {
	key, err := f.RootKey()
	if err != nil {
		return nil, err
	}
	segments := splitPath(path)
	for i, seg := range segments {
		if i == 0 && rootAliases[strings.ToUpper(seg)] {
			continue
		}
		key, err = key.Child(seg)
		if err != nil {
			return nil, fmt.Errorf("regf: resolving %q: %w", path, err)
		}
	}
	return key, nil
}

// KeyByPathUTF16 is KeyByPath for a path already encoded as UTF-16LE bytes,
// for callers working directly with wire-format value data (e.g. a
// REG_LINK target) that names another key by its raw encoded path.
func (f *File) KeyByPathUTF16(path []byte) (*Key, error) {
	return f.KeyByPath(codepage.DecodeUTF16LE(path))
}

func splitPath(path string) []string {
	raw := strings.Split(path, `\`)
	out := make([]string, 0, len(raw))
	for _, s := range raw {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
