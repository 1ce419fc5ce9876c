// Package diff implements the tree-to-tree diff engine and rewrite
// tracker: a lock-step walk of two trees that emits Addition/Deletion/
// Modification records, optionally routed through a two-pass
// rename/copy tracker before being reported as Rewrite records.
//
// Grounded on go-git's plumbing/object/difftree.go (DiffTree's
// mode-equivalence rules), generalized from a merkletrie-backed
// implementation to a direct lock-step two-tree walk, since the
// merkletrie package's implementation itself wasn't available to
// reference (only its tests survive, pinning observable behavior).
package diff

import (
	"github.com/go-gitcore/gitcore/hash"
	"github.com/go-gitcore/gitcore/object"
)

// Kind discriminates the four cases of Change.
type Kind int

const (
	Addition Kind = iota
	Deletion
	Modification
	Rewrite
)

func (k Kind) String() string {
	switch k {
	case Addition:
		return "addition"
	case Deletion:
		return "deletion"
	case Modification:
		return "modification"
	case Rewrite:
		return "rewrite"
	default:
		return "unknown"
	}
}

// DiffLineStats summarizes a blob-to-blob comparison backing a
// Rewrite's similarity score.
type DiffLineStats struct {
	Removals   int
	Insertions int
	Before     int
	After      int
	Similarity float64
}

// Change is one record of a tree-to-tree diff. Which fields are valid
// depends on Kind:
//   - Addition/Deletion: Location, Relation, Mode, ID.
//   - Modification: Location, PreviousMode, PreviousID, Mode, ID.
//   - Rewrite: every field; Diff is nil for an identity-pass match
//     (no line-level comparison was ever computed for it).
type Change struct {
	Kind Kind

	Location string
	Relation object.Relation
	Mode     object.Mode
	ID       hash.ObjectID

	PreviousMode object.Mode
	PreviousID   hash.ObjectID

	SourceLocation string
	SourceMode     object.Mode
	SourceID       hash.ObjectID
	SourceRelation object.Relation
	Diff           *DiffLineStats
	Copy           bool
}
