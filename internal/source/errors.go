package source

import "errors"

var ErrOutOfRange = errors.New("source: offset out of range")
