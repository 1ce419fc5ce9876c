package wtindex

import (
	"encoding/binary"
	"io"
	"sort"
	"strconv"

	"github.com/go-gitcore/gitcore/hash"
)

// EncodeVersion is the format version this encoder writes. Decode
// understands versions 2 through 4, including v4's name
// prefix-compression, but re-encoding always targets v2: the simplest
// format every reader supports, and the one worth writing when nothing
// forces the smaller v4 encoding.
const EncodeVersion = 2

// Encoder writes a worktree index file.
type Encoder struct {
	w      io.Writer
	idKind hash.Kind
}

// NewEncoder wraps w.
func NewEncoder(w io.Writer, idKind hash.Kind) *Encoder {
	return &Encoder{w: w, idKind: idKind}
}

// Encode writes idx's entries (sorted by name, as the format requires)
// followed by its extensions and trailing checksum. When skipHash is
// true the checksum is written as the all-zero sentinel instead of a
// real digest, the same skip_hash-style optimization idx.Encoder
// supports. It returns the checksum actually written.
func (e *Encoder) Encode(idx *Index, skipHash bool) (hash.ObjectID, error) {
	hasher := hash.NewHasher(e.idKind)
	w := io.MultiWriter(e.w, hasher)

	if _, err := w.Write(indexSignature[:]); err != nil {
		return hash.ObjectID{}, err
	}
	if err := writeU32(w, EncodeVersion); err != nil {
		return hash.ObjectID{}, err
	}
	if err := writeU32(w, uint32(len(idx.Entries))); err != nil {
		return hash.ObjectID{}, err
	}

	sorted := make([]*Entry, len(idx.Entries))
	copy(sorted, idx.Entries)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Name != sorted[j].Name {
			return sorted[i].Name < sorted[j].Name
		}
		return sorted[i].Stage < sorted[j].Stage
	})

	for _, en := range sorted {
		if err := writeEntry(w, en, e.idKind); err != nil {
			return hash.ObjectID{}, err
		}
	}

	if idx.Cache != nil {
		if err := writeExtension(w, treeExtSignature, func(buf io.Writer) error {
			return encodeTreeExtension(buf, idx.Cache)
		}); err != nil {
			return hash.ObjectID{}, err
		}
	}
	if idx.ResolveUndo != nil {
		if err := writeExtension(w, resolveUndoExtSignature, func(buf io.Writer) error {
			return encodeResolveUndo(buf, idx.ResolveUndo)
		}); err != nil {
			return hash.ObjectID{}, err
		}
	}
	for _, raw := range idx.Raw {
		if err := writeExtension(w, raw.Signature, func(buf io.Writer) error {
			_, err := buf.Write(raw.Data)
			return err
		}); err != nil {
			return hash.ObjectID{}, err
		}
	}

	if skipHash {
		zero := make([]byte, idSize(e.idKind))
		if _, err := e.w.Write(zero); err != nil {
			return hash.ObjectID{}, err
		}
		return hash.Empty(e.idKind), nil
	}

	sum := hasher.Sum(nil)
	if _, err := e.w.Write(sum); err != nil {
		return hash.ObjectID{}, err
	}
	id, _ := hash.FromBytes(sum)
	return id, nil
}

func writeEntry(w io.Writer, en *Entry, idKind hash.Kind) error {
	var ctimeSec, ctimeNsec, mtimeSec, mtimeNsec uint32
	if !en.CreatedAt.IsZero() {
		ctimeSec, ctimeNsec = uint32(en.CreatedAt.Unix()), uint32(en.CreatedAt.Nanosecond())
	}
	if !en.ModifiedAt.IsZero() {
		mtimeSec, mtimeNsec = uint32(en.ModifiedAt.Unix()), uint32(en.ModifiedAt.Nanosecond())
	}

	fields := []uint32{ctimeSec, ctimeNsec, mtimeSec, mtimeNsec, en.Dev, en.Inode, uint32(en.Mode), en.UID, en.GID, en.Size}
	for _, f := range fields {
		if err := writeU32(w, f); err != nil {
			return err
		}
	}

	if _, err := w.Write(en.Hash.Bytes()); err != nil {
		return err
	}

	nameLen := len(en.Name)
	flagLen := nameLen
	if flagLen > nameMask {
		flagLen = nameMask
	}
	flags := uint16(en.Stage&0x3) << 12
	flags |= uint16(flagLen)
	extended := en.IntentToAdd || en.SkipWorktree
	if extended {
		flags |= entryExtended
	}
	if err := writeU16(w, flags); err != nil {
		return err
	}
	if extended {
		var ext uint16
		if en.IntentToAdd {
			ext |= intentToAddMask
		}
		if en.SkipWorktree {
			ext |= skipWorktreeMask
		}
		if err := writeU16(w, ext); err != nil {
			return err
		}
	}

	if _, err := io.WriteString(w, en.Name); err != nil {
		return err
	}

	read := entryFixedFields + idSize(idKind)
	if extended {
		read += 2
	}
	entrySize := read + nameLen
	padLen := 8 - entrySize%8
	_, err := w.Write(make([]byte, padLen))
	return err
}

func writeExtension(w io.Writer, signature [4]byte, body func(io.Writer) error) error {
	var buf bytesBuffer
	if err := body(&buf); err != nil {
		return err
	}
	if _, err := w.Write(signature[:]); err != nil {
		return err
	}
	if err := writeU32(w, uint32(len(buf.data))); err != nil {
		return err
	}
	_, err := w.Write(buf.data)
	return err
}

// bytesBuffer is a minimal io.Writer sink, avoiding a bytes.Buffer
// import just for Write.
type bytesBuffer struct{ data []byte }

func (b *bytesBuffer) Write(p []byte) (int, error) {
	b.data = append(b.data, p...)
	return len(p), nil
}

func encodeTreeExtension(w io.Writer, t *Tree) error {
	for _, e := range t.Entries {
		if _, err := io.WriteString(w, e.Path); err != nil {
			return err
		}
		if _, err := w.Write([]byte{0}); err != nil {
			return err
		}
		if _, err := io.WriteString(w, strconv.Itoa(e.Entries)); err != nil {
			return err
		}
		if _, err := w.Write([]byte{' '}); err != nil {
			return err
		}
		if _, err := io.WriteString(w, strconv.Itoa(e.Trees)); err != nil {
			return err
		}
		if _, err := w.Write([]byte{'\n'}); err != nil {
			return err
		}
		if e.Entries == -1 {
			continue
		}
		if _, err := w.Write(e.Hash.Bytes()); err != nil {
			return err
		}
	}
	return nil
}

// resolveUndoPlaceholderMode is written as the per-stage mode ahead of
// each resolve-undo hash. ResolveUndoEntry doesn't retain the original
// per-stage file mode, only the hash, so every present stage is
// recorded as a regular file; decodeResolveUndo only uses this field
// to tell a present stage from an absent one (mode 0).
const resolveUndoPlaceholderMode = 0100644

func encodeResolveUndo(w io.Writer, ru *ResolveUndo) error {
	stages := []Stage{AncestorMode, OurMode, TheirMode}
	for _, e := range ru.Entries {
		if _, err := io.WriteString(w, e.Path); err != nil {
			return err
		}
		if _, err := w.Write([]byte{0}); err != nil {
			return err
		}
		for _, s := range stages {
			mode := 0
			if _, ok := e.Stages[s]; ok {
				mode = resolveUndoPlaceholderMode
			}
			if _, err := io.WriteString(w, strconv.FormatInt(int64(mode), 8)); err != nil {
				return err
			}
			if _, err := w.Write([]byte{0}); err != nil {
				return err
			}
		}
		for _, s := range stages {
			id, ok := e.Stages[s]
			if !ok {
				continue
			}
			if _, err := w.Write(id.Bytes()); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeU32(w io.Writer, v uint32) error {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], v)
	_, err := w.Write(buf[:])
	return err
}

func writeU16(w io.Writer, v uint16) error {
	var buf [2]byte
	binary.BigEndian.PutUint16(buf[:], v)
	_, err := w.Write(buf[:])
	return err
}
