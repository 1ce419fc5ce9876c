package pack

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/go-gitcore/gitcore/giterr"
	"github.com/go-gitcore/gitcore/hash"
	"github.com/go-gitcore/gitcore/zlibcodec"
)

// Magic is the 4-byte signature every packfile starts with.
var Magic = [4]byte{'P', 'A', 'C', 'K'}

// SupportedVersion is the only packfile version this engine understands.
const SupportedVersion = 2

// ID identifies a pack within an ODB for cache-keying purposes: the
// decode cache is keyed by (pack id, data offset).
type ID uint32

// Pack is an immutable, already-loaded packfile: header, count, and a
// byte source providing random access into the entry stream. Data is
// provided as a ReaderAt so callers can back it with an
// mmap (production) or a plain in-memory buffer (tests).
type Pack struct {
	id      ID
	idKind  hash.Kind
	data    io.ReaderAt
	size    int64
	count   uint32
	version uint32
}

// Open parses the pack header out of data (a full in-memory or
// memory-mapped view of the packfile, trailing hash included) and
// returns a Pack ready for entry lookups.
func Open(id ID, idKind hash.Kind, data io.ReaderAt, size int64) (*Pack, error) {
	var hdr [12]byte
	if _, err := data.ReadAt(hdr[:], 0); err != nil {
		return nil, fmt.Errorf("pack: read header: %w", err)
	}
	if !bytes.Equal(hdr[:4], Magic[:]) {
		return nil, giterr.NewFormatError("pack signature")
	}
	version := binary.BigEndian.Uint32(hdr[4:8])
	if version != SupportedVersion {
		return nil, giterr.NewFormatError(fmt.Sprintf("unsupported pack version %d", version))
	}
	count := binary.BigEndian.Uint32(hdr[8:12])

	return &Pack{
		id:      id,
		idKind:  idKind,
		data:    data,
		size:    size,
		count:   count,
		version: version,
	}, nil
}

// ID returns this pack's cache-keying identity.
func (p *Pack) ID() ID { return p.id }

// Count returns the number of objects the pack header declares.
func (p *Pack) Count() uint32 { return p.count }

// Size returns the total byte size of the pack file, trailing hash
// included.
func (p *Pack) Size() int64 { return p.size }

// EntryHeaderAt parses the entry header located at the given absolute
// offset into the pack, and returns alongside it the offset where the
// entry's zlib payload begins (offset + header length).
func (p *Pack) EntryHeaderAt(offset int64) (hdr EntryHeader, dataOffset int64, err error) {
	if offset < 0 || offset >= p.size {
		return EntryHeader{}, 0, &giterr.FormatError{What: "entry offset out of bounds", Offset: offset}
	}
	// A header is at most ~(1 + idSize + a few continuation bytes); read
	// a generously sized window and let ParseEntryHeader consume what it
	// needs.
	window := make([]byte, minInt64(64, p.size-offset))
	n, rerr := p.data.ReadAt(window, offset)
	if rerr != nil && rerr != io.EOF {
		return EntryHeader{}, 0, fmt.Errorf("pack: read entry header at %d: %w", offset, rerr)
	}
	hdr, err = ParseEntryHeader(window[:n], offset, p.idKind)
	if err != nil {
		return EntryHeader{}, 0, err
	}
	return hdr, offset + int64(hdr.HeaderLen), nil
}

// DecompressPayloadAt decompresses the zlib stream starting at dataOffset
// into out (exactly decompressedSize bytes) and returns the number of
// packed bytes the zlib stream itself occupied, counted from dataOffset —
// callers that need the entry's total packed size add back
// (dataOffset - headerOffset).
func (p *Pack) DecompressPayloadAt(dataOffset int64, decompressedSize uint64, out []byte) (zlibStreamLen int, err error) {
	sr := io.NewSectionReader(p.data, dataOffset, p.size-dataOffset)
	if uint64(len(out)) < decompressedSize {
		return 0, fmt.Errorf("pack: output buffer too small: have %d, need %d", len(out), decompressedSize)
	}
	consumed, _, err := zlibcodec.Inflate(sr, out[:decompressedSize])
	if err != nil {
		return 0, err
	}
	return consumed, nil
}

func minInt64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
