package format

import "errors"

// Sentinel errors returned by the decoders in this package. Callers at the
// hive-engine layer translate these into the closed regf.ErrKind taxonomy;
// this package itself stays decoder-focused and never constructs that type
// (it would otherwise have to import the root package).
var (
	ErrSignatureMismatch  = errors.New("format: signature mismatch")
	ErrTruncated          = errors.New("format: truncated buffer")
	ErrChecksumMismatch   = errors.New("format: header checksum mismatch")
	ErrAmbiguousCellSize  = errors.New("format: ambiguous cell size (0x80000000)")
	ErrMalformed          = errors.New("format: malformed structure")
	ErrUnsupportedVersion = errors.New("format: unsupported format version")
)
