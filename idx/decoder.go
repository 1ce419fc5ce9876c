package idx

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"io"

	"github.com/go-gitcore/gitcore/giterr"
	"github.com/go-gitcore/gitcore/hash"
)

// Decoder reads a version-2 pack index from an underlying io.Reader:
// magic \377tOc, version 2, a 256-entry fanout table, then the sorted
// id table, crc32 table, 32-bit offset table, an optional 64-bit offset
// table for large packs, and a trailing pack checksum + index checksum.
type Decoder struct {
	r      *bufio.Reader
	idKind hash.Kind
}

// NewDecoder wraps r. idKind selects the digest width (20 bytes for
// SHA-1, 32 for SHA-256) the id table and trailing checksums use.
func NewDecoder(r io.Reader, idKind hash.Kind) *Decoder {
	return &Decoder{r: bufio.NewReader(r), idKind: idKind}
}

// Decode parses the full index and returns it as a MemoryIndex.
func (d *Decoder) Decode() (*MemoryIndex, error) {
	var magic [4]byte
	if _, err := io.ReadFull(d.r, magic[:]); err != nil {
		return nil, giterr.NewFormatError("idx: truncated magic")
	}
	if !bytes.Equal(magic[:], Magic[:]) {
		return nil, giterr.NewFormatError("idx: bad magic")
	}

	version, err := readU32(d.r)
	if err != nil {
		return nil, err
	}
	if version != SupportedVersion {
		return nil, giterr.NewFormatError("idx: unsupported version")
	}

	var fanout [256]uint32
	for i := range fanout {
		v, err := readU32(d.r)
		if err != nil {
			return nil, giterr.NewFormatError("idx: truncated fanout")
		}
		fanout[i] = v
	}
	count := int(fanout[255])

	idSize := sizeOf(d.idKind)
	ids := make([]hash.ObjectID, count)
	for i := 0; i < count; i++ {
		buf := make([]byte, idSize)
		if _, err := io.ReadFull(d.r, buf); err != nil {
			return nil, giterr.NewFormatError("idx: truncated id table")
		}
		id, ok := hash.FromBytes(buf)
		if !ok {
			return nil, giterr.NewFormatError("idx: malformed id")
		}
		ids[i] = id
	}

	crc32s := make([]uint32, count)
	for i := 0; i < count; i++ {
		v, err := readU32(d.r)
		if err != nil {
			return nil, giterr.NewFormatError("idx: truncated crc32 table")
		}
		crc32s[i] = v
	}

	off32 := make([]uint32, count)
	numExtended := 0
	for i := 0; i < count; i++ {
		v, err := readU32(d.r)
		if err != nil {
			return nil, giterr.NewFormatError("idx: truncated offset table")
		}
		off32[i] = v
		if v&extendedOffsetFlag != 0 {
			numExtended++
		}
	}

	off64 := make([]uint64, numExtended)
	for i := range off64 {
		v, err := readU64(d.r)
		if err != nil {
			return nil, giterr.NewFormatError("idx: truncated extended offset table")
		}
		off64[i] = v
	}

	offsets := make([]uint64, count)
	for i, v := range off32 {
		if v&extendedOffsetFlag != 0 {
			extIdx := v &^ extendedOffsetFlag
			if int(extIdx) >= len(off64) {
				return nil, giterr.NewFormatError("idx: extended offset index out of range")
			}
			offsets[i] = off64[extIdx]
		} else {
			offsets[i] = uint64(v)
		}
	}

	packChecksumBuf := make([]byte, idSize)
	if _, err := io.ReadFull(d.r, packChecksumBuf); err != nil {
		return nil, giterr.NewFormatError("idx: truncated pack checksum")
	}
	packChecksum, ok := hash.FromBytes(packChecksumBuf)
	if !ok {
		return nil, giterr.NewFormatError("idx: malformed pack checksum")
	}

	idxChecksumBuf := make([]byte, idSize)
	n, _ := io.ReadFull(d.r, idxChecksumBuf)
	var idxChecksum hash.ObjectID
	if n == idSize {
		// A file written with the skip_hash optimization ends here
		// with an all-zero trailer; treat that the same as a
		// present-but-unchecked checksum rather than an error, since
		// neither this decoder nor its encoder verify it.
		idxChecksum, _ = hash.FromBytes(idxChecksumBuf)
	}

	entries := make([]Entry, count)
	for i := range entries {
		entries[i] = Entry{ID: ids[i], CRC32: crc32s[i], Offset: offsets[i]}
	}

	return NewMemoryIndex(d.idKind, entries, packChecksum, idxChecksum), nil
}

func readU32(r io.Reader) (uint32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(buf[:]), nil
}

func readU64(r io.Reader) (uint64, error) {
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(buf[:]), nil
}

func sizeOf(k hash.Kind) int {
	if k == hash.SHA256 {
		return hash.SHA256Size
	}
	return hash.SHA1Size
}
