//go:build !unix

package mmap

import (
	"io"
	"os"
)

// Fallback for platforms without the unix mmap interface: read the file into
// heap memory. Same ownership semantics, no unmap needed.
func osMap(f *os.File, size int) ([]byte, func([]byte) error, error) {
	data := make([]byte, size)
	if _, err := io.ReadFull(f, data); err != nil {
		return nil, nil, err
	}
	return data, nil, nil
}
