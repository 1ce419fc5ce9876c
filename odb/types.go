// Package odb implements the composite object database: loose objects
// plus one or more packfiles, indexed by a concurrency-safe slot map
// that readers can snapshot without ever observing torn state, using
// sync/atomic.Pointer plus sync.Mutex in the per-concern file layout
// go-git uses for its own storage/filesystem package.
package odb

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-gitcore/gitcore/idx"
	"github.com/go-gitcore/gitcore/pack"
)

// Generation is a monotonically increasing counter tagging every
// SlotMapIndex revision. Readers compare generations to detect whether a
// pack id they're holding could have been reassigned to a different
// file out from under them.
type Generation uint64

// PackId identifies a pack by (slot index, generation) so that a pack id
// handed to a caller becomes meaningless — rather than silently wrong —
// once the slot it names has been recycled for something else.
type PackId struct {
	Slot       int
	Generation Generation
}

// RefreshMode controls whether LoadOneIndex may fall back to rescanning
// the objects directory when the in-memory slot map has nothing new to
// offer.
type RefreshMode int

const (
	// RefreshNever never triggers a disk rescan; a miss is reported to
	// the caller so they can retry explicitly.
	RefreshNever RefreshMode = iota
	// RefreshAfterAllIndicesLoaded rescans the objects directory once
	// every already-known index has been loaded and nothing newer
	// surfaced.
	RefreshAfterAllIndicesLoaded
)

// IndexAndPacks is the file state held in one slot: a single pack+idx
// pair, or a multi-pack-index fronting several packs. Index/pack bytes
// are loaded lazily — a slot can exist with known identity (path, mtime)
// before anything is actually read from disk.
type IndexAndPacks struct {
	IndexPath string
	ModTime   time.Time
	IsMulti   bool

	// disposable marks a slot whose backing file vanished from disk but
	// which a stable-indices handle still needs to keep resolvable; see
	// Store.KeepIndicesStable.
	disposable bool

	mu         sync.Mutex
	loaded     bool
	single     *idx.MemoryIndex
	multi      *idx.MultiPackIndex
	packs      map[string]*pack.Pack // by pack name as listed in the multi-pack-index, which can front several
	singlePack *pack.Pack
}

// IsLoaded reports whether the index bytes have actually been read.
func (f *IndexAndPacks) IsLoaded() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loaded
}

// IsDisposable reports whether this slot's file is gone from disk but is
// being kept resolvable for already-issued handles.
func (f *IndexAndPacks) IsDisposable() bool { return f.disposable }

// MutableIndexAndPack is one slot in the Store's slot map: an atomically
// swappable *IndexAndPacks guarded by a per-slot write mutex and tagged
// with the generation at which it was last assigned.
type MutableIndexAndPack struct {
	write      sync.Mutex
	generation atomic.Uint64
	files      atomic.Pointer[IndexAndPacks]
}

// SlotMapIndex is an immutable snapshot of which slots are populated,
// swapped in atomically by consolidation.
type SlotMapIndex struct {
	SlotIndices []int
	LooseDBs    []*LooseStore
	Generation  Generation
	stateID     uint64
}

// IsInitialized reports whether consolidation has ever run.
func (s *SlotMapIndex) IsInitialized() bool { return s != nil }

// StateID changes every time SlotIndices or LooseDBs changes, letting
// readers detect "nothing changed" without comparing full slices.
func (s *SlotMapIndex) StateID() uint64 {
	if s == nil {
		return 0
	}
	return s.stateID
}

// SlotIndexMarker is the (generation, state id) pair a reader captured
// at the start of an operation, compared against the live index to
// detect whether newer state has become available.
type SlotIndexMarker struct {
	Generation Generation
	StateID    uint64
}

// Marker captures this index's current identity.
func (s *SlotMapIndex) Marker() SlotIndexMarker {
	if s == nil {
		return SlotIndexMarker{}
	}
	return SlotIndexMarker{Generation: s.Generation, StateID: s.stateID}
}

// IndexLookup is one resolvable index handed out in a Snapshot: either a
// single pack's MemoryIndex or a MultiPackIndex, tagged with the slot id
// it lives in.
type IndexLookup struct {
	Slot  int
	Multi *idx.MultiPackIndex
	Index *idx.MemoryIndex
	// PackOf resolves this lookup's single-pack pack file, or — for a
	// multi-index hit — the specific pack the found entry names.
	PackOf func(packName string) *pack.Pack
}

// Snapshot is a consistent, point-in-time view over every loaded index
// plus the loose object directories, safe to search without taking any
// lock: readers must never observe torn state.
type Snapshot struct {
	Indices  []IndexLookup
	LooseDBs []*LooseStore
	Marker   SlotIndexMarker
}
