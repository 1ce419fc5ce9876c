//go:build darwin || linux

package mmap

import (
	"errors"

	billy "github.com/go-git/go-billy/v5"
	"golang.org/x/sys/unix"
)

// ErrNoFileDescriptor means f exposes no way to recover the underlying
// OS file descriptor Mmap needs.
var ErrNoFileDescriptor = errors.New("mmap: file has no accessible file descriptor")

// Map memory-maps f (size bytes, read-only, shared). On success f is
// closed as part of the returned Region's Close; on failure Map closes
// f itself before returning the error.
func Map(f billy.File, size int64) (*Region, error) {
	if f == nil {
		return nil, ErrNilFile
	}
	fd, err := fileDescriptor(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	data, err := unix.Mmap(int(fd), 0, int(size), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, err
	}
	return &Region{data: data, cleanup: func() error {
		return errors.Join(unix.Munmap(data), f.Close())
	}}, nil
}

// fileDescriptor recovers the OS file descriptor behind f, whichever of
// billy's two incompatible Fd() shapes it implements.
func fileDescriptor(f billy.File) (uintptr, error) {
	if ffd, ok := f.(billyFileDescriptor); ok {
		if v, ok := ffd.Fd(); ok {
			return v, nil
		}
	}
	if ffd, ok := f.(goFileDescriptor); ok {
		return ffd.Fd(), nil
	}
	return 0, ErrNoFileDescriptor
}

type billyFileDescriptor interface {
	Fd() (uintptr, bool)
}

type goFileDescriptor interface {
	Fd() uintptr
}
