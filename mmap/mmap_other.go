//go:build !darwin && !linux

package mmap

import (
	"io"

	billy "github.com/go-git/go-billy/v5"
)

// Map reads the whole of f into memory, for a platform without a POSIX
// mmap syscall (e.g. windows). Unlike go-git's own mmap package, which
// hard-errors on these platforms, callers of this package (a pack
// decode path with no other option) would otherwise be unable to open a
// pack at all there; size is only a capacity hint, f is read to
// completion regardless of it.
func Map(f billy.File, size int64) (*Region, error) {
	if f == nil {
		return nil, ErrNilFile
	}
	data, err := io.ReadAll(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return &Region{data: data, cleanup: f.Close}, nil
}
