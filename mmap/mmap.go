// Package mmap backs a pack or index file's byte access with a real
// memory map on platforms that support one, so a large pack's bytes are
// only faulted into the process as they're actually touched instead of
// being read up front.
//
// Grounded on go-git's storage/filesystem/mmap package, but scoped down
// to a single Region type that slots into this module's existing
// io.ReaderAt/io.Reader seams (pack.Pack's data field, idx.NewDecoder's
// reader parameter) rather than go-git's much larger PackScanner, which
// re-implements pack/idx decoding directly against the mapped bytes.
package mmap

import (
	"bytes"
	"errors"
	"io"
)

// ErrNilFile is returned by Map when handed a nil file.
var ErrNilFile = errors.New("mmap: nil file")

// Region is a read-only view over a file's contents, backed by a real
// memory map where the OS supports one (darwin, linux) and by a plain
// in-memory buffer everywhere else. It implements io.ReaderAt so it
// slots directly into pack.Pack's data field.
type Region struct {
	data    []byte
	cleanup func() error
}

// ReadAt implements io.ReaderAt over the mapped bytes.
func (r *Region) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 || off > int64(len(r.data)) {
		return 0, io.EOF
	}
	n := copy(p, r.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// Reader returns a fresh io.Reader over the whole region, for a caller
// (like idx.NewDecoder) that wants a sequential io.Reader rather than an
// io.ReaderAt.
func (r *Region) Reader() io.Reader { return bytes.NewReader(r.data) }

// Close releases the mapping. On the buffered fallback it just closes
// the underlying file.
func (r *Region) Close() error {
	if r.cleanup == nil {
		return nil
	}
	return r.cleanup()
}
