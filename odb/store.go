package odb

import (
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	billy "github.com/go-git/go-billy/v5"

	"github.com/emirpasic/gods/sets/treeset"
	"github.com/emirpasic/gods/utils"
	"github.com/go-gitcore/gitcore/giterr"
	"github.com/go-gitcore/gitcore/hash"
	"github.com/go-gitcore/gitcore/idx"
	"github.com/go-gitcore/gitcore/mmap"
	"github.com/go-gitcore/gitcore/pack"
)

// Store is the concurrency-safe composite object database: a fixed-size
// slot map of packs/multi-pack-indices, plus the loose object
// directories that back them.
type Store struct {
	fs       billy.Filesystem
	path     string // the primary "objects" directory
	idKind   hash.Kind
	useMulti bool

	files []MutableIndexAndPack
	index atomic.Pointer[SlotMapIndex]

	// freeSlots and disposableSlots track, respectively, slot indices
	// that hold no file at all and ones that held a vanished file but
	// are being kept around (KeepIndicesStable) for in-flight readers.
	// assignFreeSlot drains freeSlots before falling back to
	// disposableSlots, always picking the lowest index first, so a
	// consolidation pass that repeatedly adds and removes a handful of
	// packs doesn't scatter them across the whole slot map. Both are
	// only ever touched while writeMu is held.
	freeSlots       *treeset.Set
	disposableSlots *treeset.Set

	decodeOpts pack.DecodeOptions

	writeMu          sync.Mutex
	nextStateID      atomic.Uint64
	numHandlesStable atomic.Int32
}

// SetDecodeOptions sets the delta-chain-depth and object-size limits
// applied to every pack.Decode call this Store makes from here on.
func (s *Store) SetDecodeOptions(opts pack.DecodeOptions) {
	s.decodeOpts = opts
}

// NewStore returns a Store with slotCount slots, uninitialized until the
// first LoadOneIndex/ConsolidateWithDiskState call scans disk. objectsDir
// is the repository's primary "objects" directory.
func NewStore(fs billy.Filesystem, objectsDir string, slotCount int, idKind hash.Kind, useMultiPackIndex bool) *Store {
	freeSlots := treeset.NewWith(utils.IntComparator)
	for i := 0; i < slotCount; i++ {
		freeSlots.Add(i)
	}
	return &Store{
		fs:              fs,
		path:            objectsDir,
		idKind:          idKind,
		useMulti:        useMultiPackIndex,
		files:           make([]MutableIndexAndPack, slotCount),
		freeSlots:       freeSlots,
		disposableSlots: treeset.NewWith(utils.IntComparator),
	}
}

// KeepIndicesStable marks that a handle is relying on pack ids already
// issued remaining resolvable; while any such handle is outstanding,
// consolidation marks vanished slots disposable instead of clearing them.
func (s *Store) KeepIndicesStable(stable bool) {
	if stable {
		s.numHandlesStable.Add(1)
	} else {
		s.numHandlesStable.Add(-1)
	}
}

func (s *Store) needsStableIndices() bool { return s.numHandlesStable.Load() > 0 }

// CollectSnapshot builds a point-in-time view over every populated slot
// and the loose directories, without taking any lock.
func (s *Store) CollectSnapshot() Snapshot {
	current := s.index.Load()
	if !current.IsInitialized() {
		return Snapshot{Marker: current.Marker()}
	}

	var indices []IndexLookup
	for _, slotIdx := range current.SlotIndices {
		slot := &s.files[slotIdx]
		f := slot.files.Load()
		if f == nil {
			continue
		}
		f.mu.Lock()
		loaded := f.loaded
		single, multi := f.single, f.multi
		packs := f.packs
		singlePack := f.singlePack
		f.mu.Unlock()
		if !loaded {
			continue
		}
		lookup := IndexLookup{Slot: slotIdx, Index: single, Multi: multi}
		lookup.PackOf = func(packName string) *pack.Pack {
			if multi != nil {
				return packs[packName]
			}
			return singlePack
		}
		indices = append(indices, lookup)
	}

	return Snapshot{Indices: indices, LooseDBs: current.LooseDBs, Marker: current.Marker()}
}

// LoadOneIndex attempts to make progress toward a newer Snapshot than the
// caller's marker: if the slot map
// has unconsulted slots, load one more; otherwise, if refreshMode
// allows it, rescan disk. Returns nil with no error when there is
// genuinely nothing more to do.
func (s *Store) LoadOneIndex(refreshMode RefreshMode, marker SlotIndexMarker) (*Snapshot, error) {
	current := s.index.Load()
	if !current.IsInitialized() {
		return s.ConsolidateWithDiskState(true, false)
	}

	if marker.Generation != current.Generation || marker.StateID != current.StateID() {
		snap := s.CollectSnapshot()
		return &snap, nil
	}

	if s.loadNextIndex(current) {
		snap := s.CollectSnapshot()
		return &snap, nil
	}

	switch refreshMode {
	case RefreshNever:
		return nil, nil
	case RefreshAfterAllIndicesLoaded:
		return s.ConsolidateWithDiskState(false, true)
	default:
		return nil, nil
	}
}

// loadNextIndex loads the bytes for one slot in current's SlotIndices
// that isn't loaded yet, returning true iff it made progress. This is a
// deliberately simplified, mutex-guarded stand-in for the Rust
// implementation's lock-free CAS retry loop (arc_swap +
// fetch_update) — see DESIGN.md for the rationale.
func (s *Store) loadNextIndex(current *SlotMapIndex) bool {
	for _, slotIdx := range current.SlotIndices {
		slot := &s.files[slotIdx]
		f := slot.files.Load()
		if f == nil || f.IsLoaded() {
			continue
		}
		slot.write.Lock()
		err := s.loadIndexBytes(f)
		slot.write.Unlock()
		if err == nil {
			return true
		}
	}
	return false
}

func (s *Store) loadIndexBytes(f *IndexAndPacks) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loaded {
		return nil
	}

	// The index itself is small relative to a pack and is only ever read
	// once, front to back, to build the in-memory fan-out/offset tables;
	// it's mapped only for the duration of that decode, then released.
	region, _, err := s.mapFile(f.IndexPath)
	if err != nil {
		return err
	}
	defer region.Close()

	if f.IsMulti {
		m, err := idx.DecodeMultiPackIndex(region.Reader())
		if err != nil {
			return err
		}
		f.multi = m
		f.packs = make(map[string]*pack.Pack, len(m.PackNames))
		dir := filepath.Dir(f.IndexPath)
		for _, name := range m.PackNames {
			p, err := s.openPack(filepath.Join(dir, name))
			if err != nil {
				continue
			}
			f.packs[name] = p
		}
	} else {
		mi, err := idx.NewDecoder(region.Reader(), s.idKind).Decode()
		if err != nil {
			return err
		}
		f.single = mi
		packPath := strings.TrimSuffix(f.IndexPath, ".idx") + ".pack"
		p, err := s.openPack(packPath)
		if err != nil {
			return err
		}
		f.singlePack = p
	}
	f.loaded = true
	return nil
}

// mapFile opens path and memory-maps it (falling back to a buffered
// read on a platform with no mmap syscall), wrapping any failure as a
// giterr.IoError.
func (s *Store) mapFile(path string) (*mmap.Region, int64, error) {
	file, err := s.fs.Open(path)
	if err != nil {
		return nil, 0, giterr.NewIoError("open", path, err)
	}
	fi, err := s.fs.Stat(path)
	if err != nil {
		file.Close()
		return nil, 0, giterr.NewIoError("stat", path, err)
	}
	region, err := mmap.Map(file, fi.Size())
	if err != nil {
		return nil, 0, giterr.NewIoError("mmap", path, err)
	}
	return region, fi.Size(), nil
}

// openPack memory-maps path on first use: the Pack keeps the mapping
// (and thus the underlying file) alive for its own lifetime, rather
// than reading the whole pack into memory up front the way a plain
// billy.File read would.
func (s *Store) openPack(path string) (*pack.Pack, error) {
	region, size, err := s.mapFile(path)
	if err != nil {
		return nil, err
	}
	p, err := pack.Open(pack.ID(hashPathID(path)), s.idKind, region, size)
	if err != nil {
		region.Close()
		return nil, err
	}
	return p, nil
}

// hashPathID derives a stable, process-local pack id from its path. It
// exists only to key the decode cache; it carries no on-disk meaning.
func hashPathID(path string) uint32 {
	var h uint32 = 2166136261
	for i := 0; i < len(path); i++ {
		h ^= uint32(path[i])
		h *= 16777619
	}
	return h
}

type diskIndexInfo struct {
	path    string
	mtime   time.Time
	size    int64
	isMulti bool
}

// scanDiskIndices lists every .idx (with a matching .pack) and, if
// useMulti is set, the multi-pack-index file, across every objects
// directory in dbPaths, sorted largest-first: scanning the biggest
// indices before the smaller ones gives an early lookup the best chance
// of hitting the object it wants.
func (s *Store) scanDiskIndices(dbPaths []string) ([]diskIndexInfo, error) {
	var out []diskIndexInfo
	for _, dbPath := range dbPaths {
		packDir := s.fs.Join(dbPath, "pack")
		entries, err := s.fs.ReadDir(packDir)
		if err != nil {
			continue
		}
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			name := e.Name()
			full := s.fs.Join(packDir, name)
			switch {
			case strings.HasSuffix(name, ".idx"):
				packName := strings.TrimSuffix(name, ".idx") + ".pack"
				if _, err := s.fs.Stat(s.fs.Join(packDir, packName)); err != nil {
					continue
				}
				out = append(out, diskIndexInfo{path: full, mtime: e.ModTime(), size: e.Size()})
			case s.useMulti && name == "multi-pack-index":
				out = append(out, diskIndexInfo{path: full, mtime: e.ModTime(), size: e.Size(), isMulti: true})
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].size > out[j].size })
	return out, nil
}

func (s *Store) resolveAlternates() []string {
	db := []string{s.path}
	alt, err := s.fs.Open(s.fs.Join(s.path, "info", "alternates"))
	if err != nil {
		return db
	}
	defer alt.Close()

	var buf strings.Builder
	tmp := make([]byte, 4096)
	for {
		n, err := alt.Read(tmp)
		buf.Write(tmp[:n])
		if err != nil {
			break
		}
	}
	for _, line := range strings.Split(buf.String(), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !filepath.IsAbs(line) {
			line = s.fs.Join(s.path, line)
		}
		db = append(db, line)
	}
	return db
}

// ConsolidateWithDiskState rescans the objects directories and
// reconciles the slot map: unchanged indices keep their slot, new ones
// are assigned free or disposable slots, and ones that no longer exist
// on disk are retired. It bumps the generation
// whenever an existing slot's identity was reused for a different file,
// so in-flight readers holding the old generation turn around rather
// than resolve against the wrong pack.
func (s *Store) ConsolidateWithDiskState(needsInit, loadNewIndex bool) (*Snapshot, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	current := s.index.Load()
	wasUninitialized := !current.IsInitialized()
	if !wasUninitialized && needsInit {
		snap := s.CollectSnapshot()
		return &snap, nil
	}

	dbPaths := s.resolveAlternates()
	diskIndices, err := s.scanDiskIndices(dbPaths)
	if err != nil {
		return nil, err
	}

	existingByPath := map[string]int{}
	if current.IsInitialized() {
		for _, slotIdx := range current.SlotIndices {
			f := s.files[slotIdx].files.Load()
			if f != nil {
				existingByPath[f.IndexPath] = slotIdx
			}
		}
	}

	var newSlotIndices []int
	var freshSlots []int
	var needGenerationBump bool

	for _, di := range diskIndices {
		if slotIdx, ok := existingByPath[di.path]; ok {
			newSlotIndices = append(newSlotIndices, slotIdx)
			delete(existingByPath, di.path)
			continue
		}

		slotIdx, reused, err := s.assignFreeSlot(newSlotIndices)
		if err != nil {
			return nil, err
		}
		if reused {
			needGenerationBump = true
		}
		s.files[slotIdx].files.Store(&IndexAndPacks{
			IndexPath: di.path,
			ModTime:   di.mtime,
			IsMulti:   di.isMulti,
		})
		newSlotIndices = append(newSlotIndices, slotIdx)
		freshSlots = append(freshSlots, slotIdx)
	}

	vanished := len(existingByPath) > 0
	changed := wasUninitialized || vanished || len(freshSlots) > 0
	if !changed {
		// Nothing on disk differs from the published slot map: avoid
		// bumping stateID so a caller looping on LoadOneIndex/Find sees
		// an unchanged marker and knows to stop retrying.
		if loadNewIndex {
			s.loadNextIndex(current)
		}
		snap := s.CollectSnapshot()
		return &snap, nil
	}

	// Whatever's left in existingByPath vanished from disk.
	stable := s.needsStableIndices()
	for _, slotIdx := range existingByPath {
		slot := &s.files[slotIdx]
		slot.write.Lock()
		if stable {
			f := slot.files.Load()
			if f != nil {
				cp := *f
				cp.disposable = true
				slot.files.Store(&cp)
			}
			s.disposableSlots.Add(slotIdx)
		} else {
			slot.files.Store(nil)
			s.freeSlots.Add(slotIdx)
		}
		slot.write.Unlock()
	}

	var generation Generation
	if current != nil {
		generation = current.Generation
	}
	if needGenerationBump {
		if generation == ^Generation(0) {
			return nil, giterr.GenerationOverflow
		}
		generation++
	}
	for _, slotIdx := range freshSlots {
		s.files[slotIdx].generation.Store(uint64(generation))
	}

	var looseDBs []*LooseStore
	for _, p := range dbPaths {
		looseDBs = append(looseDBs, NewLooseStore(s.fs, s.fs.Join(p)))
	}

	newIndex := &SlotMapIndex{
		SlotIndices: newSlotIndices,
		LooseDBs:    looseDBs,
		Generation:  generation,
		stateID:     s.nextStateID.Add(1),
	}
	s.index.Store(newIndex)

	if loadNewIndex {
		s.loadNextIndex(newIndex)
	}

	snap := s.CollectSnapshot()
	return &snap, nil
}

// assignFreeSlot pops the lowest-indexed slot out of freeSlots, falling
// back to disposableSlots if none is fully free. alreadyClaimed is the
// set of slots this same consolidation pass already assigned; since
// assignFreeSlot removes a slot from its set the instant it hands it
// out, a slot can never be handed out twice in one pass, so
// alreadyClaimed only needs checking as a defensive invariant, not as
// the primary exclusion mechanism. Returns giterr.InsufficientSlots if
// both sets are empty.
func (s *Store) assignFreeSlot(alreadyClaimed []int) (slotIdx int, reusedOccupied bool, err error) {
	if it := s.freeSlots.Iterator(); it.First() {
		idx := it.Value().(int)
		s.freeSlots.Remove(idx)
		return idx, false, nil
	}
	if it := s.disposableSlots.Iterator(); it.First() {
		idx := it.Value().(int)
		s.disposableSlots.Remove(idx)
		return idx, true, nil
	}
	return 0, false, &giterr.InsufficientSlots{Current: len(s.files), Needed: 1}
}
