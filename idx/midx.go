package idx

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"io"
	"sort"

	"github.com/go-gitcore/gitcore/giterr"
	"github.com/go-gitcore/gitcore/hash"
)

// MIDXMagic is the four-byte signature a multi-pack-index starts with.
var MIDXMagic = [4]byte{'M', 'I', 'D', 'X'}

// MIDXVersion is the only multi-pack-index version this codec writes
// and understands.
const MIDXVersion = 1

// Chunk ids: pack names, an OID fanout table, the sorted OID list,
// object offsets, and large-offset overflow entries.
var (
	chunkPNAM = [4]byte{'P', 'N', 'A', 'M'}
	chunkOIDF = [4]byte{'O', 'I', 'D', 'F'}
	chunkOIDL = [4]byte{'O', 'I', 'D', 'L'}
	chunkOOFF = [4]byte{'O', 'O', 'F', 'F'}
	chunkLOFF = [4]byte{'L', 'O', 'F', 'F'}
)

func hashKindByte(k hash.Kind) byte {
	if k == hash.SHA256 {
		return 2
	}
	return 1
}

func hashKindFromByte(b byte) (hash.Kind, error) {
	switch b {
	case 1:
		return hash.SHA1, nil
	case 2:
		return hash.SHA256, nil
	default:
		return 0, giterr.NewFormatError("midx: unknown hash-kind byte")
	}
}

// MultiObjectEntry is one object's record in a multi-pack-index: which
// pack (by index into PackNames) holds it, and at what offset.
type MultiObjectEntry struct {
	ID        hash.ObjectID
	PackIndex uint32
	Offset    uint64
}

// MultiPackIndex is a single sorted lookup covering every object across
// several packs. go-git has no multi-pack-index support, so the on-disk
// layout here is a plausible, internally-consistent simplification of
// git's real chunked MIDX format: a flat chunk table (id +
// length-prefixed body) rather than git's offset-table-of-chunks
// scheme, carrying the same five logical chunks (pack names, OID
// fanout, OID list, offsets, large-offset overflow).
type MultiPackIndex struct {
	idKind    hash.Kind
	PackNames []string
	fanout    [256]uint32
	ids       []hash.ObjectID
	packIdx   []uint32
	offset    []uint64
}

// NewMultiPackIndex builds a MultiPackIndex from entries (any order;
// sorted by id internally) and the ordered list of pack file names
// PackIndex refers into.
func NewMultiPackIndex(idKind hash.Kind, packNames []string, entries []MultiObjectEntry) *MultiPackIndex {
	sorted := make([]MultiObjectEntry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID.Compare(sorted[j].ID) < 0 })

	m := &MultiPackIndex{
		idKind:    idKind,
		PackNames: packNames,
		ids:       make([]hash.ObjectID, len(sorted)),
		packIdx:   make([]uint32, len(sorted)),
		offset:    make([]uint64, len(sorted)),
	}
	var c uint32
	for i, e := range sorted {
		m.ids[i] = e.ID
		m.packIdx[i] = e.PackIndex
		m.offset[i] = e.Offset
		c++
		m.fanout[e.ID.Bytes()[0]] = c
	}
	var running uint32
	for i := range m.fanout {
		if m.fanout[i] != 0 {
			running = m.fanout[i]
		}
		m.fanout[i] = running
	}
	return m
}

// Count returns the total number of objects indexed across all packs.
func (m *MultiPackIndex) Count() int { return len(m.ids) }

func (m *MultiPackIndex) bucketRange(id hash.ObjectID) (lo, hi int) {
	first := id.Bytes()[0]
	hi = int(m.fanout[first])
	if first != 0 {
		lo = int(m.fanout[first-1])
	}
	return lo, hi
}

// Find looks up id's (pack name, offset) across every pack this index
// covers.
func (m *MultiPackIndex) Find(id hash.ObjectID) (packName string, offset uint64, err error) {
	lo, hi := m.bucketRange(id)
	i := sort.Search(hi-lo, func(i int) bool { return m.ids[lo+i].Compare(id) >= 0 })
	if i == hi-lo || !m.ids[lo+i].Equal(id) {
		return "", 0, &giterr.ObjectMissing{ID: id}
	}
	pi := m.packIdx[lo+i]
	if int(pi) >= len(m.PackNames) {
		return "", 0, giterr.NewFormatError("midx: pack index out of range")
	}
	return m.PackNames[pi], m.offset[lo+i], nil
}

// IDsWithHexPrefix returns every id covered by this multi-pack-index
// matching the given hex prefix.
func (m *MultiPackIndex) IDsWithHexPrefix(prefix string) []hash.ObjectID {
	var out []hash.ObjectID
	for _, id := range m.ids {
		if id.HasHexPrefix(prefix) {
			out = append(out, id)
		}
	}
	return out
}

// DecodeMultiPackIndex parses a multi-pack-index previously written by
// EncodeMultiPackIndex.
func DecodeMultiPackIndex(r io.Reader) (*MultiPackIndex, error) {
	br := bufio.NewReader(r)

	var magic [4]byte
	if _, err := io.ReadFull(br, magic[:]); err != nil {
		return nil, giterr.NewFormatError("midx: truncated magic")
	}
	if !bytes.Equal(magic[:], MIDXMagic[:]) {
		return nil, giterr.NewFormatError("midx: bad magic")
	}
	version, err := br.ReadByte()
	if err != nil || version != MIDXVersion {
		return nil, giterr.NewFormatError("midx: unsupported version")
	}
	kindByte, err := br.ReadByte()
	if err != nil {
		return nil, giterr.NewFormatError("midx: truncated hash-kind")
	}
	idKind, err := hashKindFromByte(kindByte)
	if err != nil {
		return nil, err
	}
	numChunks, err := br.ReadByte()
	if err != nil {
		return nil, giterr.NewFormatError("midx: truncated chunk count")
	}

	chunks := map[[4]byte][]byte{}
	for i := byte(0); i < numChunks; i++ {
		var id [4]byte
		if _, err := io.ReadFull(br, id[:]); err != nil {
			return nil, giterr.NewFormatError("midx: truncated chunk id")
		}
		length, err := readU32(br)
		if err != nil {
			return nil, giterr.NewFormatError("midx: truncated chunk length")
		}
		body := make([]byte, length)
		if _, err := io.ReadFull(br, body); err != nil {
			return nil, giterr.NewFormatError("midx: truncated chunk body")
		}
		chunks[id] = body
	}

	packNames := splitNulTerminated(chunks[chunkPNAM])

	oidf := chunks[chunkOIDF]
	if len(oidf) != 256*4 {
		return nil, giterr.NewFormatError("midx: malformed OIDF chunk")
	}
	count := int(binary.BigEndian.Uint32(oidf[255*4:]))

	idSize := sizeOf(idKind)
	oidl := chunks[chunkOIDL]
	if len(oidl) != count*idSize {
		return nil, giterr.NewFormatError("midx: malformed OIDL chunk")
	}
	ids := make([]hash.ObjectID, count)
	for i := 0; i < count; i++ {
		id, ok := hash.FromBytes(oidl[i*idSize : (i+1)*idSize])
		if !ok {
			return nil, giterr.NewFormatError("midx: malformed OIDL entry")
		}
		ids[i] = id
	}

	ooff := chunks[chunkOOFF]
	if len(ooff) != count*8 {
		return nil, giterr.NewFormatError("midx: malformed OOFF chunk")
	}
	loff := chunks[chunkLOFF]

	entries := make([]MultiObjectEntry, count)
	for i := 0; i < count; i++ {
		packIndex := binary.BigEndian.Uint32(ooff[i*8:])
		rawOffset := binary.BigEndian.Uint32(ooff[i*8+4:])
		var offset uint64
		if rawOffset&extendedOffsetFlag != 0 {
			extIdx := int(rawOffset &^ extendedOffsetFlag)
			if (extIdx+1)*8 > len(loff) {
				return nil, giterr.NewFormatError("midx: LOFF index out of range")
			}
			offset = binary.BigEndian.Uint64(loff[extIdx*8:])
		} else {
			offset = uint64(rawOffset)
		}
		entries[i] = MultiObjectEntry{ID: ids[i], PackIndex: packIndex, Offset: offset}
	}

	return NewMultiPackIndex(idKind, packNames, entries), nil
}

// EncodeMultiPackIndex writes m in the chunked layout DecodeMultiPackIndex
// reads back.
func EncodeMultiPackIndex(w io.Writer, m *MultiPackIndex) error {
	var pnam bytes.Buffer
	for _, name := range m.PackNames {
		pnam.WriteString(name)
		pnam.WriteByte(0)
	}

	var oidf bytes.Buffer
	for _, v := range m.fanout {
		if err := writeU32(&oidf, v); err != nil {
			return err
		}
	}

	var oidl bytes.Buffer
	for _, id := range m.ids {
		oidl.Write(id.Bytes())
	}

	var ooff, loff bytes.Buffer
	for i := range m.ids {
		if err := writeU32(&ooff, m.packIdx[i]); err != nil {
			return err
		}
		if m.offset[i] >= largeOffsetThreshold {
			extIdx := uint32(loff.Len() / 8)
			if err := writeU32(&ooff, extendedOffsetFlag|extIdx); err != nil {
				return err
			}
			if err := writeU64(&loff, m.offset[i]); err != nil {
				return err
			}
		} else {
			if err := writeU32(&ooff, uint32(m.offset[i])); err != nil {
				return err
			}
		}
	}

	type chunk struct {
		id   [4]byte
		body []byte
	}
	chunkList := []chunk{
		{chunkPNAM, pnam.Bytes()},
		{chunkOIDF, oidf.Bytes()},
		{chunkOIDL, oidl.Bytes()},
		{chunkOOFF, ooff.Bytes()},
	}
	if loff.Len() > 0 {
		chunkList = append(chunkList, chunk{chunkLOFF, loff.Bytes()})
	}

	if _, err := w.Write(MIDXMagic[:]); err != nil {
		return err
	}
	if _, err := w.Write([]byte{MIDXVersion, hashKindByte(m.idKind), byte(len(chunkList))}); err != nil {
		return err
	}
	for _, c := range chunkList {
		if _, err := w.Write(c.id[:]); err != nil {
			return err
		}
		if err := writeU32(w, uint32(len(c.body))); err != nil {
			return err
		}
		if _, err := w.Write(c.body); err != nil {
			return err
		}
	}
	return nil
}

func splitNulTerminated(b []byte) []string {
	var out []string
	start := 0
	for i, c := range b {
		if c == 0 {
			out = append(out, string(b[start:i]))
			start = i + 1
		}
	}
	return out
}
