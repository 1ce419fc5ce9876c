// Package giterr defines the error kinds shared across the object
// database, packfile decoder, and diff/status engines.
package giterr

import (
	"errors"
	"fmt"

	"github.com/go-gitcore/gitcore/hash"
)

// Interrupted is returned by long-running iteration (tree diff, status
// walk) when the caller's cancellation signal fired between entries.
var Interrupted = errors.New("giterr: interrupted")

// GenerationOverflow is fatal: consolidating the object database would
// exceed the generation counter's range, which would violate the
// monotonicity invariant relied on by snapshot comparisons.
var GenerationOverflow = errors.New("giterr: generation counter would overflow")

// IoError wraps an underlying filesystem failure (open/read/stat/mkdir,
// whatever billy or os returned). It is fatal to the current operation
// and never retried by the core.
type IoError struct {
	Op   string
	Path string
	Err  error
}

func (e *IoError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("io error: %s %s: %v", e.Op, e.Path, e.Err)
	}
	return fmt.Sprintf("io error: %s: %v", e.Op, e.Err)
}
func (e *IoError) Unwrap() error { return e.Err }

// NewIoError wraps err, the result of op on path, as an IoError. It
// returns nil if err is nil, so callers can wrap unconditionally:
// "if err := giterr.NewIoError(...); err != nil { return err }".
func NewIoError(op, path string, err error) error {
	if err == nil {
		return nil
	}
	return &IoError{Op: op, Path: path, Err: err}
}

// FormatError describes malformed on-disk structure: a pack entry, an
// index, a tree, or a config line. It is fatal to the object or file
// containing it, never to the whole operation.
type FormatError struct {
	What   string
	Offset int64
}

func (e *FormatError) Error() string {
	if e.Offset >= 0 {
		return fmt.Sprintf("malformed %s at offset %d", e.What, e.Offset)
	}
	return fmt.Sprintf("malformed %s", e.What)
}

// NewFormatError builds a FormatError with no meaningful offset.
func NewFormatError(what string) *FormatError {
	return &FormatError{What: what, Offset: -1}
}

// CodecError wraps a zlib decompression failure. Callers treat it as a
// cache-miss retry opportunity when the read was speculative, and as
// fatal when the object was explicitly requested.
type CodecError struct {
	Err error
}

func (e *CodecError) Error() string { return fmt.Sprintf("codec error: %v", e.Err) }
func (e *CodecError) Unwrap() error { return e.Err }

// ObjectMissing means the id was not found in any pack or loose
// directory after a refresh pass.
type ObjectMissing struct {
	ID hash.ObjectID
}

func (e *ObjectMissing) Error() string { return fmt.Sprintf("object not found: %s", e.ID) }

// AmbiguousPrefix means more than one object matches a requested hex
// prefix.
type AmbiguousPrefix struct {
	Prefix     string
	Candidates []hash.ObjectID
}

func (e *AmbiguousPrefix) Error() string {
	return fmt.Sprintf("ambiguous prefix %q matches %d objects", e.Prefix, len(e.Candidates))
}

// DeltaBaseUnresolved means a REF_DELTA base lay outside the pack and
// could not be found anywhere in the object database.
type DeltaBaseUnresolved struct {
	ID hash.ObjectID
}

func (e *DeltaBaseUnresolved) Error() string {
	return fmt.Sprintf("delta base %s could not be resolved", e.ID)
}

// InsufficientSlots means the slot map is too small to hold every index
// discovered on disk.
type InsufficientSlots struct {
	Current int
	Needed  int
}

func (e *InsufficientSlots) Error() string {
	return fmt.Sprintf("slot map has %d slots, needs %d more", e.Current, e.Needed)
}

// UserError wraps an error returned by a visitor callback. The core
// never synthesizes one; it only ever propagates it unmodified.
type UserError struct {
	Err error
}

func (e *UserError) Error() string { return e.Err.Error() }
func (e *UserError) Unwrap() error { return e.Err }
