// Package varint implements the base-128 varint variants Git's packfile
// format uses: the plain little-endian LEB128 size-prefix varint used in
// delta headers, the continuation-bit entry-header varint used for pack
// entry type+size, and the big-endian OFS_DELTA base-distance encoding. Grounded on go-git's
// plumbing/format/packfile/util package (packutil.DecodeLEB128*).
package varint

import "io"

// DecodeLEB128 decodes a plain little-endian base-128 varint (used for
// delta base_size/result_size headers) from the front of b, returning the
// value and the remaining bytes.
func DecodeLEB128(b []byte) (uint64, []byte) {
	var v uint64
	var shift uint
	for i, c := range b {
		v |= uint64(c&0x7f) << shift
		if c&0x80 == 0 {
			return v, b[i+1:]
		}
		shift += 7
	}
	return v, nil
}

// DecodeLEB128FromReader is the streaming counterpart of DecodeLEB128.
func DecodeLEB128FromReader(r io.ByteReader) (uint64, error) {
	var v uint64
	var shift uint
	for {
		c, err := r.ReadByte()
		if err != nil {
			return 0, err
		}
		v |= uint64(c&0x7f) << shift
		if c&0x80 == 0 {
			return v, nil
		}
		shift += 7
	}
}

// EntryHeader decodes a pack entry header's first varint: 3 type bits in
// the first byte followed by 4 size bits, continuing in 7-bit groups
// while the continuation bit (0x80) is set.
// Returns the object type tag, the decoded size, and the number of bytes
// consumed.
func EntryHeader(b []byte) (typ byte, size uint64, consumed int) {
	if len(b) == 0 {
		return 0, 0, 0
	}
	c := b[0]
	typ = (c >> 4) & 0x07
	size = uint64(c & 0x0f)
	shift := uint(4)
	consumed = 1
	for c&0x80 != 0 {
		if consumed >= len(b) {
			return typ, size, consumed
		}
		c = b[consumed]
		size |= uint64(c&0x7f) << shift
		shift += 7
		consumed++
	}
	return typ, size, consumed
}

// OffsetDelta decodes the OFS_DELTA base-distance varint: big-endian
// 7-bit groups with an implicit "+1 per continuation byte" bias, exactly
// as git's pack format defines it.
func OffsetDelta(b []byte) (distance uint64, consumed int) {
	if len(b) == 0 {
		return 0, 0
	}
	c := b[0]
	distance = uint64(c & 0x7f)
	consumed = 1
	for c&0x80 != 0 {
		if consumed >= len(b) {
			return distance, consumed
		}
		c = b[consumed]
		consumed++
		distance = ((distance + 1) << 7) | uint64(c&0x7f)
	}
	return distance, consumed
}

// EncodeLEB128 appends the plain little-endian base-128 encoding of v to
// dst and returns the result.
func EncodeLEB128(dst []byte, v uint64) []byte {
	for {
		c := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			dst = append(dst, c|0x80)
		} else {
			dst = append(dst, c)
			return dst
		}
	}
}

// OffsetDeltaFromReader is the streaming counterpart of OffsetDelta, used
// where the varint is read one byte at a time from a stream rather than
// sliced out of an in-memory buffer — e.g. the worktree index v4 format's
// name prefix-compression length, which git's own decode_varint defines
// with this same +1-biased encoding.
func OffsetDeltaFromReader(r io.ByteReader) (uint64, error) {
	c, err := r.ReadByte()
	if err != nil {
		return 0, err
	}
	distance := uint64(c & 0x7f)
	for c&0x80 != 0 {
		c, err = r.ReadByte()
		if err != nil {
			return 0, err
		}
		distance = ((distance + 1) << 7) | uint64(c&0x7f)
	}
	return distance, nil
}

// EncodeOffsetDelta appends the OFS_DELTA-style big-endian, +1-biased
// varint encoding of v to dst — the inverse of OffsetDelta, and the same
// encoding the worktree index format uses for its v4 entry name
// prefix-compression length.
func EncodeOffsetDelta(dst []byte, v uint64) []byte {
	var bytes [10]byte
	n := 0
	bytes[n] = byte(v & 0x7f)
	n++
	for v >>= 7; v != 0; v >>= 7 {
		v--
		bytes[n] = byte(v&0x7f) | 0x80
		n++
	}
	for i := n - 1; i >= 0; i-- {
		dst = append(dst, bytes[i])
	}
	return dst
}
