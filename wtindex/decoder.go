package wtindex

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/go-gitcore/gitcore/giterr"
	"github.com/go-gitcore/gitcore/hash"
	"github.com/go-gitcore/gitcore/internal/varint"
	"github.com/go-gitcore/gitcore/object"
)

// DecodeVersionSupported is the range of index format versions this
// decoder understands.
var DecodeVersionSupported = struct{ Min, Max uint32 }{Min: 2, Max: 4}

var (
	ErrMalformedSignature = errors.New("wtindex: malformed signature")
	ErrUnsupportedVersion = errors.New("wtindex: unsupported version")
	ErrInvalidChecksum    = errors.New("wtindex: invalid checksum")
	ErrUnknownExtension   = errors.New("wtindex: unknown mandatory extension")
)

var indexSignature = [4]byte{'D', 'I', 'R', 'C'}

var (
	treeExtSignature            = [4]byte{'T', 'R', 'E', 'E'}
	resolveUndoExtSignature     = [4]byte{'R', 'E', 'U', 'C'}
	endOfIndexEntryExtSignature = [4]byte{'E', 'O', 'I', 'E'}
)

const (
	// entryFixedFields is the byte width of an entry's fixed-width
	// fields before its hash: ctime, ctime_nsec, mtime, mtime_nsec,
	// dev, ino, mode, uid, gid, size (ten uint32 fields) plus the
	// trailing two-byte flags.
	entryFixedFields = 4*10 + 2
	entryExtended    = 0x4000
	nameMask         = 0xfff
	intentToAddMask  = 1 << 13
	skipWorktreeMask = 1 << 14
)

// Decoder reads and decodes a worktree index file from an input
// stream.
type Decoder struct {
	buf       *bufio.Reader
	r         io.Reader
	br        io.ByteReader
	hasher    stdHash
	idKind    hash.Kind
	lastEntry *Entry
}

type stdHash interface {
	io.Writer
	Sum([]byte) []byte
}

// NewDecoder wraps r. idKind selects the digest width entries and the
// trailing checksum use.
func NewDecoder(r io.Reader, idKind hash.Kind) *Decoder {
	h := hash.NewHasher(idKind)
	buf := bufio.NewReader(r)
	d := &Decoder{
		buf:    buf,
		r:      io.TeeReader(buf, h),
		hasher: h,
		idKind: idKind,
	}
	d.br = boundedByteReader{r: d.r}
	return d
}

// boundedByteReader adapts an io.Reader to io.ByteReader one byte at a
// time via io.ReadFull, so a single-byte read never pulls more than one
// byte through the wrapped reader — unlike wrapping it in a
// *bufio.Reader, which would read ahead past the entries/extensions
// boundary and hash bytes (the trailing checksum) that must not be
// hashed.
type boundedByteReader struct{ r io.Reader }

func (b boundedByteReader) ReadByte() (byte, error) {
	var buf [1]byte
	_, err := io.ReadFull(b.r, buf[:])
	return buf[0], err
}

func idSize(k hash.Kind) int {
	if k == hash.SHA256 {
		return hash.SHA256Size
	}
	return hash.SHA1Size
}

// Decode reads the whole index into idx.
func (d *Decoder) Decode(idx *Index) error {
	version, err := d.validateHeader()
	if err != nil {
		return err
	}
	idx.Version = version

	count, err := readU32(d.r)
	if err != nil {
		return err
	}

	for i := uint32(0); i < count; i++ {
		e, err := d.readEntry(idx.Version)
		if err != nil {
			return err
		}
		d.lastEntry = e
		idx.Entries = append(idx.Entries, e)
	}

	return d.readExtensions(idx)
}

func (d *Decoder) validateHeader() (uint32, error) {
	var sig [4]byte
	if _, err := io.ReadFull(d.r, sig[:]); err != nil {
		return 0, err
	}
	if sig != indexSignature {
		return 0, ErrMalformedSignature
	}
	version, err := readU32(d.r)
	if err != nil {
		return 0, err
	}
	if version < DecodeVersionSupported.Min || version > DecodeVersionSupported.Max {
		return 0, ErrUnsupportedVersion
	}
	return version, nil
}

func (d *Decoder) readEntry(version uint32) (*Entry, error) {
	e := &Entry{}

	var sec, nsec, msec, mnsec uint32
	for _, p := range []*uint32{&sec, &nsec, &msec, &mnsec, &e.Dev, &e.Inode} {
		v, err := readU32(d.r)
		if err != nil {
			return nil, err
		}
		*p = v
	}

	modeRaw, err := readU32(d.r)
	if err != nil {
		return nil, err
	}
	e.Mode = object.Mode(modeRaw)

	for _, p := range []*uint32{&e.UID, &e.GID, &e.Size} {
		v, err := readU32(d.r)
		if err != nil {
			return nil, err
		}
		*p = v
	}

	idBuf := make([]byte, idSize(d.idKind))
	if _, err := io.ReadFull(d.r, idBuf); err != nil {
		return nil, err
	}
	id, ok := hash.FromBytes(idBuf)
	if !ok {
		return nil, giterr.NewFormatError("wtindex entry hash")
	}
	e.Hash = id

	flags, err := readU16(d.r)
	if err != nil {
		return nil, err
	}

	read := entryFixedFields + idSize(d.idKind)

	if sec != 0 || nsec != 0 {
		e.CreatedAt = time.Unix(int64(sec), int64(nsec))
	}
	if msec != 0 || mnsec != 0 {
		e.ModifiedAt = time.Unix(int64(msec), int64(mnsec))
	}
	e.Stage = Stage((flags >> 12) & 0x3)

	if flags&entryExtended != 0 {
		extended, err := readU16(d.r)
		if err != nil {
			return nil, err
		}
		read += 2
		e.IntentToAdd = extended&intentToAddMask != 0
		e.SkipWorktree = extended&skipWorktreeMask != 0
	}

	if err := d.readEntryName(version, e, flags); err != nil {
		return nil, err
	}

	return e, d.padEntry(version, e, read)
}

func (d *Decoder) readEntryName(version uint32, e *Entry, flags uint16) error {
	switch version {
	case 2, 3:
		n := flags & nameMask
		buf := make([]byte, n)
		if _, err := io.ReadFull(d.r, buf); err != nil {
			return err
		}
		e.Name = string(buf)
		return nil
	case 4:
		return d.readEntryNameV4(e)
	default:
		return ErrUnsupportedVersion
	}
}

func (d *Decoder) readEntryNameV4(e *Entry) error {
	l, err := varint.OffsetDeltaFromReader(d.br)
	if err != nil {
		return err
	}

	var base string
	if d.lastEntry != nil && int(l) <= len(d.lastEntry.Name) {
		base = d.lastEntry.Name[:len(d.lastEntry.Name)-int(l)]
	}

	suffix, err := readUntilNUL(d.br)
	if err != nil {
		return err
	}
	e.Name = base + string(suffix)
	return nil
}

// padEntry skips the padding bytes git's v2/v3 format aligns each entry
// record to an 8-byte boundary with; v4 entries are never padded.
func (d *Decoder) padEntry(version uint32, e *Entry, read int) error {
	if version == 4 {
		return nil
	}
	entrySize := read + len(e.Name)
	padLen := 8 - entrySize%8
	_, err := io.CopyN(io.Discard, d.r, int64(padLen))
	return err
}

func (d *Decoder) readExtensions(idx *Index) error {
	peekLen := 4 + 4 + idSize(d.idKind)

	for {
		peeked, err := d.buf.Peek(peekLen)
		if len(peeked) < peekLen {
			break
		}
		if err != nil && err != bufio.ErrBufferFull {
			return err
		}
		if err := d.readExtension(idx); err != nil {
			return err
		}
	}

	expected := d.hasher.Sum(nil)
	return d.readChecksum(expected)
}

func (d *Decoder) readExtension(idx *Index) error {
	var header [4]byte
	if _, err := io.ReadFull(d.r, header[:]); err != nil {
		return err
	}

	length, err := readU32(d.r)
	if err != nil {
		return err
	}
	body := make([]byte, length)
	if _, err := io.ReadFull(d.r, body); err != nil {
		return err
	}
	br := bufio.NewReader(bytes.NewReader(body))

	switch header {
	case treeExtSignature:
		idx.Cache = &Tree{}
		return decodeTreeExtension(br, idx.Cache, d.idKind)
	case resolveUndoExtSignature:
		idx.ResolveUndo = &ResolveUndo{}
		return decodeResolveUndo(br, idx.ResolveUndo, d.idKind)
	case endOfIndexEntryExtSignature:
		idx.EndOfIndexEntry = &EndOfIndexEntry{}
		return decodeEndOfIndexEntry(br, idx.EndOfIndexEntry, d.idKind)
	default:
		if header[0] < 'A' || header[0] > 'Z' {
			return fmt.Errorf("%w: %q", ErrUnknownExtension, header)
		}
		idx.Raw = append(idx.Raw, RawExtension{Signature: header, Data: body})
		return nil
	}
}

func (d *Decoder) readChecksum(expected []byte) error {
	buf := make([]byte, idSize(d.idKind))
	if _, err := io.ReadFull(d.r, buf); err != nil {
		return err
	}
	if !bytes.Equal(buf, expected) {
		return ErrInvalidChecksum
	}
	return nil
}

func decodeTreeExtension(r *bufio.Reader, t *Tree, idKind hash.Kind) error {
	for {
		e, err := readTreeEntry(r, idKind)
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
		t.Entries = append(t.Entries, *e)
	}
}

func readTreeEntry(r *bufio.Reader, idKind hash.Kind) (*TreeEntry, error) {
	e := &TreeEntry{}

	path, err := readUntilNUL(r)
	if err != nil {
		return nil, err
	}
	e.Path = string(path)

	countAscii, err := readUntilByte(r, ' ')
	if err != nil {
		return nil, err
	}
	count, err := strconv.Atoi(string(countAscii))
	if err != nil {
		return nil, err
	}
	e.Entries = count

	treesAscii, err := readUntilByte(r, '\n')
	if err != nil {
		return nil, err
	}
	trees, err := strconv.Atoi(string(treesAscii))
	if err != nil {
		return nil, err
	}
	e.Trees = trees

	if count == -1 {
		return e, nil
	}

	idBuf := make([]byte, idSize(idKind))
	if _, err := io.ReadFull(r, idBuf); err != nil {
		return nil, err
	}
	id, ok := hash.FromBytes(idBuf)
	if !ok {
		return nil, giterr.NewFormatError("wtindex cache-tree hash")
	}
	e.Hash = id
	return e, nil
}

func decodeResolveUndo(r *bufio.Reader, ru *ResolveUndo, idKind hash.Kind) error {
	for {
		e, err := readResolveUndoEntry(r, idKind)
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
		ru.Entries = append(ru.Entries, *e)
	}
}

func readResolveUndoEntry(r *bufio.Reader, idKind hash.Kind) (*ResolveUndoEntry, error) {
	e := &ResolveUndoEntry{Stages: make(map[Stage]hash.ObjectID)}

	path, err := readUntilNUL(r)
	if err != nil {
		return nil, err
	}
	e.Path = string(path)

	present := map[Stage]bool{}
	for _, s := range []Stage{AncestorMode, OurMode, TheirMode} {
		ascii, err := readUntilNUL(r)
		if err != nil {
			return nil, err
		}
		mode, err := strconv.ParseInt(string(ascii), 8, 64)
		if err != nil {
			return nil, err
		}
		present[s] = mode != 0
	}

	for _, s := range []Stage{AncestorMode, OurMode, TheirMode} {
		if !present[s] {
			continue
		}
		idBuf := make([]byte, idSize(idKind))
		if _, err := io.ReadFull(r, idBuf); err != nil {
			return nil, err
		}
		id, ok := hash.FromBytes(idBuf)
		if !ok {
			return nil, giterr.NewFormatError("wtindex resolve-undo hash")
		}
		e.Stages[s] = id
	}

	return e, nil
}

func decodeEndOfIndexEntry(r *bufio.Reader, e *EndOfIndexEntry, idKind hash.Kind) error {
	offset, err := readU32(r)
	if err != nil {
		return err
	}
	e.Offset = offset

	idBuf := make([]byte, idSize(idKind))
	if _, err := io.ReadFull(r, idBuf); err != nil {
		return err
	}
	id, ok := hash.FromBytes(idBuf)
	if !ok {
		return giterr.NewFormatError("wtindex end-of-index-entry hash")
	}
	e.Hash = id
	return nil
}

func readU32(r io.Reader) (uint32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(buf[:]), nil
}

func readU16(r io.Reader) (uint16, error) {
	var buf [2]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(buf[:]), nil
}

func readUntilNUL(r io.ByteReader) ([]byte, error) {
	return readUntilByte(r, 0)
}

func readUntilByte(r io.ByteReader, delim byte) ([]byte, error) {
	var out []byte
	for {
		c, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		if c == delim {
			return out, nil
		}
		out = append(out, c)
	}
}
