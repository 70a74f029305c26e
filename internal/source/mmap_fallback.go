//go:build !unix

package source

import (
	"fmt"
	"os"
)

// Mmap reads the whole file into memory when a true memory mapping isn't
// available for the target platform.
func Mmap(path string) (ByteSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("source: read %s: %w", path, err)
	}
	return FromBytes(data), nil
}
