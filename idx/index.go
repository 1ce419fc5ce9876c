package idx

import (
	"sort"
	"sync"

	"github.com/go-gitcore/gitcore/giterr"
	"github.com/go-gitcore/gitcore/hash"
)

// Entry is one object's record in an index: its id, its CRC32 over the
// compressed entry bytes, and its offset into the packfile.
type Entry struct {
	ID     hash.ObjectID
	CRC32  uint32
	Offset uint64
}

// MemoryIndex is a fully-decoded pack index held in memory: a 256-way
// fanout table over the sorted id list plus parallel CRC32 and offset
// tables, giving O(log n) id->offset lookups and O(1) fanout bucketing.
//
// Safe for concurrent read access once built; FindOffset/FindHash are
// read-only over immutable slices.
type MemoryIndex struct {
	idKind hash.Kind
	fanout [256]uint32
	ids    []hash.ObjectID
	crc32  []uint32
	offset []uint64

	packChecksum hash.ObjectID
	idxChecksum  hash.ObjectID

	byOffsetOnce sync.Once
	byOffset     []int // ids[] indices, sorted by offset
}

// NewMemoryIndex builds a MemoryIndex from entries already sorted by id
// (ascending, the order the on-disk format requires).
func NewMemoryIndex(idKind hash.Kind, entries []Entry, packChecksum, idxChecksum hash.ObjectID) *MemoryIndex {
	idx := &MemoryIndex{
		idKind:       idKind,
		ids:          make([]hash.ObjectID, len(entries)),
		crc32:        make([]uint32, len(entries)),
		offset:       make([]uint64, len(entries)),
		packChecksum: packChecksum,
		idxChecksum:  idxChecksum,
	}
	for i, e := range entries {
		idx.ids[i] = e.ID
		idx.crc32[i] = e.CRC32
		idx.offset[i] = e.Offset
	}
	idx.computeFanout()
	return idx
}

func (idx *MemoryIndex) computeFanout() {
	var c uint32
	for _, id := range idx.ids {
		c++
		idx.fanout[id.Bytes()[0]] = c
	}
	var running uint32
	for i := range idx.fanout {
		if idx.fanout[i] != 0 {
			running = idx.fanout[i]
		}
		idx.fanout[i] = running
	}
}

// Count returns the number of objects the index covers.
func (idx *MemoryIndex) Count() int { return len(idx.ids) }

// PackChecksum returns the trailing hash of the packfile this index
// describes.
func (idx *MemoryIndex) PackChecksum() hash.ObjectID { return idx.packChecksum }

// bucketRange returns the [lo, hi) slice bounds of the fanout bucket id
// falls into.
func (idx *MemoryIndex) bucketRange(id hash.ObjectID) (lo, hi int) {
	first := id.Bytes()[0]
	hi = int(idx.fanout[first])
	if first == 0 {
		lo = 0
	} else {
		lo = int(idx.fanout[first-1])
	}
	return lo, hi
}

// FindOffset looks up id's packfile offset via a binary search confined
// to its fanout bucket.
func (idx *MemoryIndex) FindOffset(id hash.ObjectID) (uint64, error) {
	lo, hi := idx.bucketRange(id)
	i := sort.Search(hi-lo, func(i int) bool {
		return idx.ids[lo+i].Compare(id) >= 0
	})
	if i == hi-lo || !idx.ids[lo+i].Equal(id) {
		return 0, &giterr.ObjectMissing{ID: id}
	}
	return idx.offset[lo+i], nil
}

// FindCRC32 looks up id's stored CRC32.
func (idx *MemoryIndex) FindCRC32(id hash.ObjectID) (uint32, error) {
	lo, hi := idx.bucketRange(id)
	i := sort.Search(hi-lo, func(i int) bool {
		return idx.ids[lo+i].Compare(id) >= 0
	})
	if i == hi-lo || !idx.ids[lo+i].Equal(id) {
		return 0, &giterr.ObjectMissing{ID: id}
	}
	return idx.crc32[lo+i], nil
}

// Contains reports whether id is present in the index.
func (idx *MemoryIndex) Contains(id hash.ObjectID) bool {
	_, err := idx.FindOffset(id)
	return err == nil
}

// FindHash is the inverse lookup: given a packfile offset, returns the
// object id stored there. Used by listers that walk a pack in offset
// order.
func (idx *MemoryIndex) FindHash(offset uint64) (hash.ObjectID, error) {
	idx.ensureByOffset()
	i := sort.Search(len(idx.byOffset), func(i int) bool {
		return idx.offset[idx.byOffset[i]] >= offset
	})
	if i == len(idx.byOffset) || idx.offset[idx.byOffset[i]] != offset {
		return hash.ObjectID{}, &giterr.FormatError{What: "no entry at that pack offset", Offset: int64(offset)}
	}
	return idx.ids[idx.byOffset[i]], nil
}

func (idx *MemoryIndex) ensureByOffset() {
	idx.byOffsetOnce.Do(func() {
		order := make([]int, len(idx.ids))
		for i := range order {
			order[i] = i
		}
		sort.Slice(order, func(a, b int) bool { return idx.offset[order[a]] < idx.offset[order[b]] })
		idx.byOffset = order
	})
}

// IDsWithHexPrefix returns every id in the index matching the given hex
// prefix, used to resolve abbreviated object names: callers must check
// across every source for ambiguity before accepting a prefix match.
func (idx *MemoryIndex) IDsWithHexPrefix(prefix string) []hash.ObjectID {
	var out []hash.ObjectID
	for _, id := range idx.ids {
		if id.HasHexPrefix(prefix) {
			out = append(out, id)
		}
	}
	return out
}

// Entries returns every entry in id-sorted (on-disk) order.
func (idx *MemoryIndex) Entries() []Entry {
	out := make([]Entry, len(idx.ids))
	for i := range idx.ids {
		out[i] = Entry{ID: idx.ids[i], CRC32: idx.crc32[i], Offset: idx.offset[i]}
	}
	return out
}

// EntriesByOffset returns every entry ordered by packfile offset, the
// order a forward pack scan produces objects in.
func (idx *MemoryIndex) EntriesByOffset() []Entry {
	idx.ensureByOffset()
	out := make([]Entry, len(idx.byOffset))
	for i, orig := range idx.byOffset {
		out[i] = Entry{ID: idx.ids[orig], CRC32: idx.crc32[orig], Offset: idx.offset[orig]}
	}
	return out
}
