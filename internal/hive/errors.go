package hive

import "errors"

// ErrTreeTooDeep is returned when subkey-list flattening exceeds
// format.MaxSubkeyRecursionDepth, guarding against an ri-list cycle forged
// by a corrupt or adversarial hive.
var ErrTreeTooDeep = errors.New("hive: subkey tree recursion too deep")

// ErrAborted is returned by any engine call made after SignalAbort, in
// place of whatever work was still in flight.
var ErrAborted = errors.New("hive: operation aborted")

// ErrOffsetOutOfRange is returned when a hive-relative offset does not fall
// inside any known hive bin.
var ErrOffsetOutOfRange = errors.New("hive: offset out of range")

// ErrUnalignedOffset is returned when an offset falls inside a bin but does
// not land on the start of a cell there.
var ErrUnalignedOffset = errors.New("hive: offset does not address a cell boundary")
