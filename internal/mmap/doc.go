// Package mmap provides read-only memory mapping of snapshot files.
//
// The local state store maps snapshot files instead of reading them into
// heap memory; decoding works directly on the mapped bytes. On platforms
// without mmap support the package falls back to a plain file read with the
// same interface.
package mmap
