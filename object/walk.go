package object

import (
	"path"

	"github.com/go-gitcore/gitcore/hash"
)

// PathEmission selects how WalkEntry.Path is rendered.
type PathEmission int

const (
	// FileName emits only the entry's own name, with no directory
	// prefix.
	FileName PathEmission = iota
	// Path emits the full repo-relative path, components joined by "/".
	Path
)

// RelationKind tags which case of Relation a WalkEntry carries.
type RelationKind int

const (
	// NoRelation means recursion is disabled, or this entry has no
	// parent/child link worth reporting.
	NoRelation RelationKind = iota
	// IsParent means this entry is itself a tree about to be
	// descended into; ChildCount names how many direct entries its
	// tree holds.
	IsParent
	// IsChild means this entry belongs to the tree most recently
	// emitted with IsParent; ParentSeqID names that entry's SeqID.
	IsChild
)

// Relation links a tree entry to the subtree it belongs to, so callers
// can attribute bulk changes to a whole subtree without re-walking it.
type Relation struct {
	Kind        RelationKind
	ChildCount  int
	ParentSeqID int
}

// WalkEntry is one entry the walker visits.
type WalkEntry struct {
	SeqID    int
	Path     []byte
	Mode     Mode
	ID       hash.ObjectID
	Relation Relation
}

// Control tells WalkTree whether to keep going after a visit callback.
type Control int

const (
	Continue Control = iota
	Cancel
)

// Resolver loads a tree object's parsed entries by id, the one
// dependency WalkTree has on object storage.
type Resolver func(id hash.ObjectID) (*Tree, error)

// Options configures a tree walk.
type Options struct {
	PathEmission PathEmission
	// Recurse enables descending into nested trees. When false, only
	// the root tree's direct entries are visited and Relation is
	// always NoRelation.
	Recurse bool
}

// WalkTree produces a depth-first, tree-entry-order sequence of
// (path, mode, id, relation) starting from root, resolving nested
// trees through resolve. Submodule entries are emitted as leaves and
// never descended, regardless of opts.Recurse.
func WalkTree(root hash.ObjectID, resolve Resolver, opts Options, visit func(WalkEntry) (Control, error)) error {
	w := &walker{resolve: resolve, opts: opts, visit: visit}
	t, err := resolve(root)
	if err != nil {
		return err
	}
	_, err = w.walk(t, nil, Relation{Kind: NoRelation})
	return err
}

type walker struct {
	resolve Resolver
	opts    Options
	visit   func(WalkEntry) (Control, error)
	seq     int
}

// walk visits t's entries under the given path prefix. parentRel is
// the relation every direct entry of t inherits unless it is itself a
// tree being descended into, in which case IsParent takes precedence
// over an inherited IsChild — an entry can't carry both tags at once,
// and knowing a directory's child count is more useful to a caller
// attributing bulk changes than knowing its own parent. It returns
// false (along with a nil error) if the caller asked to Cancel.
func (w *walker) walk(t *Tree, prefix []byte, parentRel Relation) (bool, error) {
	for _, e := range t.Entries {
		var p []byte
		switch w.opts.PathEmission {
		case Path:
			if len(prefix) == 0 {
				p = append([]byte{}, e.Name...)
			} else {
				p = []byte(path.Join(string(prefix), string(e.Name)))
			}
		default:
			p = append([]byte{}, e.Name...)
		}

		descend := w.opts.Recurse && e.Mode == Dir

		entryRel := parentRel
		var childTree *Tree
		if descend {
			var err error
			childTree, err = w.resolve(e.ID)
			if err != nil {
				return false, err
			}
			entryRel = Relation{Kind: IsParent, ChildCount: len(childTree.Entries)}
		}

		w.seq++
		thisSeq := w.seq
		ctrl, err := w.visit(WalkEntry{SeqID: thisSeq, Path: p, Mode: e.Mode, ID: e.ID, Relation: entryRel})
		if err != nil {
			return false, err
		}
		if ctrl == Cancel {
			return false, nil
		}

		if descend {
			childRel := Relation{Kind: IsChild, ParentSeqID: thisSeq}
			cont, err := w.walk(childTree, p, childRel)
			if err != nil {
				return false, err
			}
			if !cont {
				return false, nil
			}
		}
	}
	return true, nil
}
