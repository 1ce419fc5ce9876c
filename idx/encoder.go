package idx

import (
	"encoding/binary"
	"io"
	"sort"

	"github.com/go-gitcore/gitcore/hash"
)

// Encoder writes a version-2 pack index.
type Encoder struct {
	w      io.Writer
	idKind hash.Kind
}

// NewEncoder wraps w.
func NewEncoder(w io.Writer, idKind hash.Kind) *Encoder {
	return &Encoder{w: w, idKind: idKind}
}

// Encode writes entries (any order; they are sorted by id before
// writing, as the format requires) followed by packChecksum. When
// skipHash is true the trailing index checksum is written as the
// all-zero sentinel instead of a real digest, matching the
// skip_hash-style optimization some writers use to avoid a second
// full-file hash pass. It returns the checksum actually written.
func (e *Encoder) Encode(entries []Entry, packChecksum hash.ObjectID, skipHash bool) (hash.ObjectID, error) {
	sorted := make([]Entry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID.Compare(sorted[j].ID) < 0 })

	hasher := hash.NewHasher(e.idKind)
	w := io.MultiWriter(e.w, hasher)

	if _, err := w.Write(Magic[:]); err != nil {
		return hash.ObjectID{}, err
	}
	if err := writeU32(w, SupportedVersion); err != nil {
		return hash.ObjectID{}, err
	}

	var fanout [256]uint32
	var c uint32
	for _, en := range sorted {
		c++
		fanout[en.ID.Bytes()[0]] = c
	}
	var running uint32
	for i := range fanout {
		if fanout[i] != 0 {
			running = fanout[i]
		}
		fanout[i] = running
	}
	for _, v := range fanout {
		if err := writeU32(w, v); err != nil {
			return hash.ObjectID{}, err
		}
	}

	for _, en := range sorted {
		if _, err := w.Write(en.ID.Bytes()); err != nil {
			return hash.ObjectID{}, err
		}
	}
	for _, en := range sorted {
		if err := writeU32(w, en.CRC32); err != nil {
			return hash.ObjectID{}, err
		}
	}

	var off64 []uint64
	for _, en := range sorted {
		if en.Offset >= largeOffsetThreshold {
			idx := uint32(len(off64))
			off64 = append(off64, en.Offset)
			if err := writeU32(w, extendedOffsetFlag|idx); err != nil {
				return hash.ObjectID{}, err
			}
		} else {
			if err := writeU32(w, uint32(en.Offset)); err != nil {
				return hash.ObjectID{}, err
			}
		}
	}
	for _, v := range off64 {
		if err := writeU64(w, v); err != nil {
			return hash.ObjectID{}, err
		}
	}

	if _, err := w.Write(packChecksum.Bytes()); err != nil {
		return hash.ObjectID{}, err
	}

	if skipHash {
		zero := make([]byte, packChecksum.Size())
		_, err := e.w.Write(zero)
		return hash.Empty(e.idKind), err
	}

	sum := hasher.Sum(nil)
	idxChecksum, _ := hash.FromBytes(sum)
	_, err := e.w.Write(sum)
	return idxChecksum, err
}

func writeU32(w io.Writer, v uint32) error {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], v)
	_, err := w.Write(buf[:])
	return err
}

func writeU64(w io.Writer, v uint64) error {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], v)
	_, err := w.Write(buf[:])
	return err
}
