package diff

import (
	"path"

	"github.com/go-gitcore/gitcore/hash"
	"github.com/go-gitcore/gitcore/object"
)

// Options configures a tree-to-tree diff.
type Options struct {
	PathEmission object.PathEmission
	// Rewrites enables routing Addition/Deletion records through the
	// rewrite tracker; nil disables rewrite tracking entirely, and
	// Addition/Deletion are reported directly as they're found.
	Rewrites *RewriteOptions
}

// DiffTreeToTree walks oldRoot and newRoot in lock-step, in sorted
// tree-entry order, and reports the resulting stream of Changes.
// Either root may be the zero id, meaning "no tree" (diffing against an
// empty tree, as when diffing the first commit).
func DiffTreeToTree(oldRoot, newRoot hash.ObjectID, resolve object.Resolver, cache BlobCache, opts Options, visit func(Change) (object.Control, error)) (Outcome, error) {
	d := &differ{resolve: resolve, opts: opts, visit: visit}
	if opts.Rewrites != nil {
		d.tracker = newTracker(*opts.Rewrites, cache)
	}

	oldTree, err := resolveOrEmpty(resolve, oldRoot)
	if err != nil {
		return Outcome{}, err
	}
	newTree, err := resolveOrEmpty(resolve, newRoot)
	if err != nil {
		return Outcome{}, err
	}

	cancelled, err := d.diff(oldTree, newTree, nil)
	if err != nil {
		return Outcome{}, err
	}

	if d.tracker == nil {
		return Outcome{}, nil
	}
	changes, out, err := d.tracker.flush()
	if err != nil {
		return Outcome{}, err
	}
	if !cancelled {
		for _, c := range changes {
			ctrl, err := visit(c)
			if err != nil {
				return out, err
			}
			if ctrl == object.Cancel {
				break
			}
		}
	}
	return out, nil
}

func resolveOrEmpty(resolve object.Resolver, id hash.ObjectID) (*object.Tree, error) {
	if id.IsZero() {
		return &object.Tree{}, nil
	}
	return resolve(id)
}

type differ struct {
	resolve object.Resolver
	opts    Options
	visit   func(Change) (object.Control, error)
	tracker *tracker
}

// emit reports a Change directly, except that Addition/Deletion are
// deferred into the rewrite tracker when one is configured, rather than
// reported immediately. It returns whether the caller asked to stop.
func (d *differ) emit(c Change) (bool, error) {
	if d.tracker != nil {
		switch c.Kind {
		case Addition:
			d.tracker.addAddition(pendingAddition{Location: c.Location, Mode: c.Mode, ID: c.ID, Relation: c.Relation})
			return false, nil
		case Deletion:
			d.tracker.addDeletion(pendingDeletion{Location: c.Location, Mode: c.Mode, ID: c.ID, Relation: c.Relation})
			return false, nil
		case Modification:
			d.tracker.addModification(c.Location, c.Mode, c.ID, object.Relation{})
		}
	}
	ctrl, err := d.visit(c)
	if err != nil {
		return false, err
	}
	return ctrl == object.Cancel, nil
}

// diff merges oldTree and newTree's entries by name in sorted
// tree-entry order, a lock-step walk of both trees at once.
func (d *differ) diff(oldTree, newTree *object.Tree, prefix []byte) (bool, error) {
	oi, ni := 0, 0
	for oi < len(oldTree.Entries) || ni < len(newTree.Entries) {
		var cancelled bool
		var err error
		switch {
		case ni >= len(newTree.Entries):
			cancelled, err = d.deletion(oldTree.Entries[oi], prefix)
			oi++
		case oi >= len(oldTree.Entries):
			cancelled, err = d.addition(newTree.Entries[ni], prefix)
			ni++
		default:
			oe, ne := oldTree.Entries[oi], newTree.Entries[ni]
			switch cmp := object.Compare(oe, ne); {
			case cmp < 0:
				cancelled, err = d.deletion(oe, prefix)
				oi++
			case cmp > 0:
				cancelled, err = d.addition(ne, prefix)
				ni++
			default:
				cancelled, err = d.pair(oe, ne, prefix)
				oi++
				ni++
			}
		}
		if err != nil {
			return false, err
		}
		if cancelled {
			return true, nil
		}
	}
	return false, nil
}

// pair handles a matching-name entry on both sides.
func (d *differ) pair(oe, ne object.Entry, prefix []byte) (bool, error) {
	p := joinPath(d.opts, prefix, oe.Name)
	oldIsDir := oe.Mode == object.Dir
	newIsDir := ne.Mode == object.Dir

	switch {
	case oldIsDir != newIsDir:
		// Different kinds under the same name (e.g. a file replaced by a
		// directory) is reported as a Deletion of the old entry plus an
		// Addition of the new one, not a Modification.
		if cancelled, err := d.deletion(oe, prefix); cancelled || err != nil {
			return cancelled, err
		}
		return d.addition(ne, prefix)

	case oldIsDir && newIsDir:
		if oe.ID.Equal(ne.ID) {
			return false, nil
		}
		cancelled, err := d.emit(Change{Kind: Modification, Location: string(p), PreviousMode: oe.Mode, PreviousID: oe.ID, Mode: ne.Mode, ID: ne.ID})
		if err != nil || cancelled {
			return cancelled, err
		}
		oldSub, err := d.resolve(oe.ID)
		if err != nil {
			return false, err
		}
		newSub, err := d.resolve(ne.ID)
		if err != nil {
			return false, err
		}
		return d.diff(oldSub, newSub, p)

	default:
		if oe.Mode == ne.Mode && oe.ID.Equal(ne.ID) {
			return false, nil
		}
		return d.emit(Change{Kind: Modification, Location: string(p), PreviousMode: oe.Mode, PreviousID: oe.ID, Mode: ne.Mode, ID: ne.ID})
	}
}

func (d *differ) deletion(e object.Entry, prefix []byte) (bool, error) {
	rel, err := d.dirRelation(e)
	if err != nil {
		return false, err
	}
	p := joinPath(d.opts, prefix, e.Name)
	return d.emit(Change{Kind: Deletion, Location: string(p), Relation: rel, Mode: e.Mode, ID: e.ID})
}

func (d *differ) addition(e object.Entry, prefix []byte) (bool, error) {
	rel, err := d.dirRelation(e)
	if err != nil {
		return false, err
	}
	p := joinPath(d.opts, prefix, e.Name)
	return d.emit(Change{Kind: Addition, Location: string(p), Relation: rel, Mode: e.Mode, ID: e.ID})
}

// dirRelation reports a wholly added/removed directory's child count,
// without descending into it — a directory present on only one side is
// reported as a single Deletion/Addition of the entry itself, so the
// count is as close as this walk gets to reporting on its contents.
func (d *differ) dirRelation(e object.Entry) (object.Relation, error) {
	if e.Mode != object.Dir {
		return object.Relation{}, nil
	}
	sub, err := d.resolve(e.ID)
	if err != nil {
		return object.Relation{}, err
	}
	return object.Relation{Kind: object.IsParent, ChildCount: len(sub.Entries)}, nil
}

func joinPath(opts Options, prefix, name []byte) []byte {
	if opts.PathEmission != object.Path {
		return append([]byte{}, name...)
	}
	if len(prefix) == 0 {
		return append([]byte{}, name...)
	}
	return []byte(path.Join(string(prefix), string(name)))
}
