package regf

import (
	"errors"
	"fmt"

	"github.com/regfkit/regf/internal/format"
	"github.com/regfkit/regf/internal/hive"
	"github.com/regfkit/regf/internal/source"
)

// ErrKind classifies every error this package can return, so callers can
// branch on intent instead of matching error text.
type ErrKind int

const (
	Io ErrKind = iota
	InvalidSignature
	ChecksumMismatch
	OffsetOutOfRange
	UnalignedOffset
	Malformed
	TreeTooDeep
	UnsupportedVersion
	OperationAborted
)

func (k ErrKind) String() string {
	switch k {
	case Io:
		return "io"
	case InvalidSignature:
		return "invalid_signature"
	case ChecksumMismatch:
		return "checksum_mismatch"
	case OffsetOutOfRange:
		return "offset_out_of_range"
	case UnalignedOffset:
		return "unaligned_offset"
	case Malformed:
		return "malformed"
	case TreeTooDeep:
		return "tree_too_deep"
	case UnsupportedVersion:
		return "unsupported_version"
	case OperationAborted:
		return "operation_aborted"
	default:
		return "unknown"
	}
}

// Error is the concrete error type every exported function returns on
// failure. Use errors.As to recover the Kind.
type Error struct {
	Kind ErrKind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("regf: %s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("regf: %s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// classify maps an internal error (from internal/format, internal/hive, or
// internal/source) onto the closed ErrKind set. Every internal error must
// land somewhere here — an error that falls through to the default case is
// a bug in this mapping, not a new category the caller needs to handle.
func classify(err error) *Error {
	if err == nil {
		return nil
	}
	var re *Error
	if errors.As(err, &re) {
		return re
	}

	switch {
	case errors.Is(err, format.ErrSignatureMismatch):
		return &Error{Kind: InvalidSignature, Msg: "signature mismatch", Err: err}
	case errors.Is(err, format.ErrChecksumMismatch):
		return &Error{Kind: ChecksumMismatch, Msg: "header checksum mismatch", Err: err}
	case errors.Is(err, format.ErrUnsupportedVersion):
		return &Error{Kind: UnsupportedVersion, Msg: "unsupported format version", Err: err}
	case errors.Is(err, format.ErrAmbiguousCellSize):
		return &Error{Kind: Malformed, Msg: "ambiguous cell size", Err: err}
	case errors.Is(err, format.ErrTruncated), errors.Is(err, format.ErrMalformed):
		return &Error{Kind: Malformed, Msg: "malformed hive structure", Err: err}
	case errors.Is(err, hive.ErrTreeTooDeep):
		return &Error{Kind: TreeTooDeep, Msg: "subkey tree exceeds maximum depth", Err: err}
	case errors.Is(err, hive.ErrAborted):
		return &Error{Kind: OperationAborted, Msg: "operation aborted", Err: err}
	case errors.Is(err, hive.ErrOffsetOutOfRange):
		return &Error{Kind: OffsetOutOfRange, Msg: "offset out of range", Err: err}
	case errors.Is(err, hive.ErrUnalignedOffset):
		return &Error{Kind: UnalignedOffset, Msg: "offset does not address a cell", Err: err}
	case errors.Is(err, source.ErrOutOfRange):
		return &Error{Kind: OffsetOutOfRange, Msg: "offset out of range", Err: err}
	default:
		return &Error{Kind: Io, Msg: "i/o error", Err: err}
	}
}
