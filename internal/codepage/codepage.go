// Package codepage decodes the non-Unicode strings a hive can carry: key
// and value names stored in the file's configured ANSI/OEM codepage rather
// than UTF-16LE (the KEY_COMP_NAME / VALUE_COMP_NAME bits, spec §3). It also
// holds the UTF-16LE helpers that the root package uses for UTF-16 names,
// class names and string value data.
package codepage

import (
	"fmt"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/traditionalchinese"
)

// ID is a Windows codepage identifier (the value surfaced by GetACP/the
// hive's locale metadata; regf itself does not store one, so callers supply
// it via Options — see spec §7 "SetCodepage").
type ID uint32

// Common Windows codepages, named the way registry tooling usually refers
// to them. Default is the ANSI codepage Windows assumes absent any other
// information, matching legacy hives produced on US/Western-European
// installs.
const (
	Default            ID = 1252
	ASCII              ID = 20127
	CP874ThaiID        ID = 874
	CP932ShiftJISID    ID = 932
	CP936GBKID         ID = 936
	CP949EUCKRID       ID = 949
	CP950Big5ID        ID = 950
	CP1250CentralEurID ID = 1250
	CP1251CyrillicID   ID = 1251
	CP1252WesternID    ID = 1252
	CP1253GreekID      ID = 1253
	CP1254TurkishID    ID = 1254
	CP1255HebrewID     ID = 1255
	CP1256ArabicID     ID = 1256
	CP1257BalticID     ID = 1257
	CP1258VietnameseID ID = 1258
)

// Valid reports whether id is one of the codepages this package actually
// knows how to decode: the Windows-125x family, the East Asian DBCS
// codepages, Thai, and plain ASCII. Anything else (including 0, which
// callers should resolve to Default before reaching here) is rejected
// rather than silently coerced to a default codepage's behavior.
func Valid(id ID) bool {
	switch id {
	case ASCII,
		CP874ThaiID,
		CP932ShiftJISID,
		CP936GBKID,
		CP949EUCKRID,
		CP950Big5ID,
		CP1250CentralEurID,
		CP1251CyrillicID,
		CP1252WesternID,
		CP1253GreekID,
		CP1254TurkishID,
		CP1255HebrewID,
		CP1256ArabicID,
		CP1257BalticID,
		CP1258VietnameseID:
		return true
	default:
		return false
	}
}

// encodingFor maps a codepage ID to the x/text encoding.Encoding that
// decodes it. Built lazily from individual vars rather than a package-level
// map literal so the CJK multi-byte encodings (which carry real
// per-codepage state) are only referenced where used.
func encodingFor(id ID) encoding.Encoding {
	switch id {
	case ASCII:
		// Decode converts ASCII byte by byte itself. This case keeps ASCII
		// from falling through to Windows-1252; encoding.Replacement turns
		// a whole input into a single U+FFFD.
		return encoding.Replacement
	case CP874ThaiID:
		return charmap.Windows874
	case CP932ShiftJISID:
		return japanese.ShiftJIS
	case CP936GBKID:
		return simplifiedchinese.GBK
	case CP949EUCKRID:
		return korean.EUCKR
	case CP950Big5ID:
		return traditionalchinese.Big5
	case CP1250CentralEurID:
		return charmap.Windows1250
	case CP1251CyrillicID:
		return charmap.Windows1251
	case CP1253GreekID:
		return charmap.Windows1253
	case CP1254TurkishID:
		return charmap.Windows1254
	case CP1255HebrewID:
		return charmap.Windows1255
	case CP1256ArabicID:
		return charmap.Windows1256
	case CP1257BalticID:
		return charmap.Windows1257
	case CP1258VietnameseID:
		return charmap.Windows1258
	default:
		return charmap.Windows1252
	}
}

// Codepage decodes byte strings tagged as "compressed" (ANSI/OEM) names or
// data in one specific, fixed codepage. The zero value decodes as Default.
type Codepage struct {
	id ID
}

// New returns a Codepage bound to id. Callers that accept an ID from
// outside this package (Options, File.SetCodepage) must reject it with
// Valid first — New itself stays permissive and falls back to
// Windows-1252 for anything unrecognized, since by the time a File holds
// an ID it has already been validated and this is just the last-resort
// decode path for a hive-internal default of 0.
func New(id ID) Codepage {
	return Codepage{id: id}
}

func (c Codepage) ID() ID {
	if c.id == 0 {
		return Default
	}
	return c.id
}

// Decode converts raw codepage bytes to UTF-8. ASCII bytes (<0x80) are
// identical across every codepage x/text exposes here and Windows-1252, so
// they take a copy-only fast path; only bytes with the high bit set drive
// the full decoder.
func (c Codepage) Decode(data []byte) (string, error) {
	if len(data) == 0 {
		return "", nil
	}
	if isASCII(data) {
		return string(data), nil
	}
	if c.ID() == ASCII {
		// Plain ASCII has no mapping for the high bit: each such byte
		// becomes U+FFFD and the ASCII bytes around it are kept.
		out := make([]rune, len(data))
		for i, b := range data {
			out[i] = rune(b)
			if b >= 0x80 {
				out[i] = '�'
			}
		}
		return string(out), nil
	}
	out, err := encodingFor(c.ID()).NewDecoder().Bytes(data)
	if err != nil {
		return "", fmt.Errorf("codepage %d: %w", c.ID(), err)
	}
	return string(out), nil
}

func isASCII(data []byte) bool {
	for _, b := range data {
		if b >= 0x80 {
			return false
		}
	}
	return true
}
