package odb

import (
	"strings"

	"github.com/go-gitcore/gitcore/giterr"
	"github.com/go-gitcore/gitcore/hash"
	"github.com/go-gitcore/gitcore/pack"
)

// Object is a fully resolved object: its kind and complete payload,
// whichever of loose/pack storage it actually came from.
type Object struct {
	Kind pack.Kind
	Data []byte
}

// Find resolves id to its kind and bytes: packs in snapshot order
// (largest-first, per the consolidation sort), loading not-yet-loaded
// indices one at a time (and rescanning disk once all are loaded) until
// a load brings nothing new, then loose directories.
func (s *Store) Find(id hash.ObjectID, cache pack.DecodeCache) (Object, error) {
	snap := s.CollectSnapshot()
	for {
		if obj, found, err := s.findInSnapshot(&snap, id, cache); found {
			return obj, err
		}

		next, err := s.LoadOneIndex(RefreshAfterAllIndicesLoaded, snap.Marker)
		if err != nil {
			return Object{}, err
		}
		if next == nil {
			break
		}
		unchanged := next.Marker == snap.Marker && len(next.Indices) == len(snap.Indices)
		snap = *next
		if unchanged {
			break
		}
	}

	for _, l := range snap.LooseDBs {
		if !l.Has(id) {
			continue
		}
		lo, err := l.Read(id)
		if err != nil {
			return Object{}, err
		}
		return Object{Kind: lo.Kind, Data: lo.Data}, nil
	}

	return Object{}, &giterr.ObjectMissing{ID: id}
}

// findInSnapshot searches every pack index in snap for id, decoding on
// first hit. found is false when nothing in this snapshot's packs
// matched, in which case the caller should try refreshing or fall
// through to loose storage.
func (s *Store) findInSnapshot(snap *Snapshot, id hash.ObjectID, cache pack.DecodeCache) (Object, bool, error) {
	for _, lookup := range snap.Indices {
		var offset uint64
		var packName string
		var err error

		switch {
		case lookup.Multi != nil:
			packName, offset, err = lookup.Multi.Find(id)
		case lookup.Index != nil:
			offset, err = lookup.Index.FindOffset(id)
		}
		if err != nil {
			continue
		}

		p := lookup.PackOf(packName)
		if p == nil {
			continue
		}
		outcome, data, derr := pack.Decode(p, int64(offset), s.resolveExternal(snap, cache), cache, s.decodeOpts)
		if derr != nil {
			return Object{}, true, derr
		}
		return Object{Kind: outcome.Kind, Data: data}, true, nil
	}
	return Object{}, false, nil
}

// resolveExternal builds the ResolveExternalBase collaborator a pack
// decode needs when a REF_DELTA's base lies outside the pack being
// decoded: it searches the rest of the same snapshot.
func (s *Store) resolveExternal(snap *Snapshot, cache pack.DecodeCache) pack.ResolveExternalBase {
	return func(id hash.ObjectID) (*pack.ResolvedBase, error) {
		if obj, found, err := s.findInSnapshot(snap, id, cache); found {
			if err != nil {
				return nil, err
			}
			return &pack.ResolvedBase{Kind: obj.Kind, Data: obj.Data}, nil
		}
		for _, l := range snap.LooseDBs {
			if !l.Has(id) {
				continue
			}
			lo, err := l.Read(id)
			if err != nil {
				return nil, err
			}
			return &pack.ResolvedBase{Kind: lo.Kind, Data: lo.Data}, nil
		}
		return nil, &giterr.DeltaBaseUnresolved{ID: id}
	}
}

// FindPrefix resolves a hex prefix to the single object it names,
// failing with AmbiguousPrefix when more than one id anywhere in the
// store (any pack, any loose directory) shares it.
func (s *Store) FindPrefix(prefix string, cache pack.DecodeCache) (hash.ObjectID, Object, error) {
	prefix = strings.ToLower(prefix)
	snap := s.CollectSnapshot()
	for {
		next, err := s.LoadOneIndex(RefreshNever, snap.Marker)
		if err != nil {
			return hash.ObjectID{}, Object{}, err
		}
		if next == nil {
			break
		}
		snap = *next
	}

	var candidates []hash.ObjectID
	seen := map[hash.ObjectID]bool{}

	for _, lookup := range snap.Indices {
		var ids []hash.ObjectID
		switch {
		case lookup.Multi != nil:
			ids = lookup.Multi.IDsWithHexPrefix(prefix)
		case lookup.Index != nil:
			ids = lookup.Index.IDsWithHexPrefix(prefix)
		}
		for _, id := range ids {
			if !seen[id] {
				seen[id] = true
				candidates = append(candidates, id)
			}
		}
	}
	for _, l := range snap.LooseDBs {
		idKind := hash.SHA1
		if len(candidates) > 0 {
			idKind = candidates[0].Kind()
		}
		ids, err := l.Walk(idKind)
		if err != nil {
			return hash.ObjectID{}, Object{}, err
		}
		for _, id := range ids {
			if id.HasHexPrefix(prefix) && !seen[id] {
				seen[id] = true
				candidates = append(candidates, id)
			}
		}
	}

	switch len(candidates) {
	case 0:
		return hash.ObjectID{}, Object{}, &giterr.ObjectMissing{ID: hash.ObjectID{}}
	case 1:
		obj, err := s.Find(candidates[0], cache)
		return candidates[0], obj, err
	default:
		return hash.ObjectID{}, Object{}, &giterr.AmbiguousPrefix{Prefix: prefix, Candidates: candidates}
	}
}
