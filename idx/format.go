// Package idx implements the pack index (.idx v2) and multi-pack-index
// formats: decoding them into an in-memory lookup table and encoding a
// fresh one from a sorted entry list.
//
// Grounded on go-git's formats/idxfile, keeping its
// MemoryIndex/Decoder/Encoder contract.
package idx

import (
	"github.com/go-gitcore/gitcore/hash"
)

// Magic is the four-byte signature a version-2 pack index starts with.
var Magic = [4]byte{0xff, 't', 'O', 'c'}

// SupportedVersion is the only .idx version this codec understands.
const SupportedVersion = 2

// extendedOffsetFlag marks a 32-bit offset table slot as an index into
// the trailing 64-bit offset table rather than a literal offset.
const extendedOffsetFlag = uint32(1) << 31

// largeOffsetThreshold is the smallest offset that cannot be stored
// directly in the 32-bit offset table; offsets at or above it go to the
// 64-bit table.
const largeOffsetThreshold = uint64(1) << 31
