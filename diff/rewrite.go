package diff

import (
	"path"

	"dario.cat/mergo"
	"github.com/emirpasic/gods/trees/binaryheap"
	"github.com/go-gitcore/gitcore/hash"
	"github.com/go-gitcore/gitcore/object"
)

// CopySource selects which set of records pass 2's copy tracking may
// draw candidate sources from.
type CopySource int

const (
	// CopySourceNone disables copy tracking: only deletions are
	// considered as rename sources.
	CopySourceNone CopySource = iota
	// CopySourceFromSetOfModifiedFiles additionally considers
	// modifications as copy sources, emitting Copy: true rewrites.
	CopySourceFromSetOfModifiedFiles
)

// RewriteOptions configures the rename/copy tracker.
type RewriteOptions struct {
	// Percentage is the similarity cutoff pass 2 requires, default 0.5.
	Percentage float64
	// Limit bounds how many candidate pairs pass 2 will actually
	// compute a similarity score for; pairs beyond the limit are
	// reported via the Outcome counters, not silently dropped. Zero
	// means unbounded.
	Limit int
	CopySource CopySource
}

// Outcome reports what the rewrite tracker actually did, for
// observability.
type Outcome struct {
	NumSimilarityChecks int
	NumSimilarityChecksSkippedForRenameTrackingDueToLimit int
	NumSimilarityChecksSkippedForCopyTrackingDueToLimit   int
}

type pendingDeletion struct {
	Location string
	Mode     object.Mode
	ID       hash.ObjectID
	Relation object.Relation
	// fromModification marks a deletion synthesized from a
	// Modification record under CopySourceFromSetOfModifiedFiles; a
	// match against one of these emits Copy: true and does not remove
	// the original Modification (it may match more than one addition).
	fromModification bool
}

type pendingAddition struct {
	Location string
	Mode     object.Mode
	ID       hash.ObjectID
	Relation object.Relation
}

// tracker implements a two-pass rename/copy algorithm. Pass 1 runs
// incrementally as additions/deletions arrive during the tree walk
// (diff.go calls addDeletion/addAddition as it goes); pass 2 runs once
// at flush, over whatever pass 1 left unmatched.
type tracker struct {
	opts  RewriteOptions
	cache BlobCache

	byID map[hash.ObjectID][]pendingDeletion

	deletions       []pendingDeletion
	additions       []pendingAddition
	modifiedSources []pendingDeletion

	rewrites []Change
	out      Outcome
}

// DefaultRewriteOptions returns the options newTracker falls back to for
// any field the caller left zero-valued.
func DefaultRewriteOptions() RewriteOptions {
	return RewriteOptions{Percentage: 0.5}
}

func newTracker(opts RewriteOptions, cache BlobCache) *tracker {
	_ = mergo.Merge(&opts, DefaultRewriteOptions())
	return &tracker{opts: opts, cache: cache, byID: map[hash.ObjectID][]pendingDeletion{}}
}

// addDeletion records a deletion as a pass-1 identity candidate.
func (t *tracker) addDeletion(d pendingDeletion) {
	t.byID[d.ID] = append(t.byID[d.ID], d)
	t.deletions = append(t.deletions, d)
}

// addModification offers a Modification's new content as a copy
// source, when copy tracking is enabled.
func (t *tracker) addModification(loc string, mode object.Mode, id hash.ObjectID, rel object.Relation) {
	if t.opts.CopySource != CopySourceFromSetOfModifiedFiles {
		return
	}
	src := pendingDeletion{Location: loc, Mode: mode, ID: id, Relation: rel, fromModification: true}
	t.byID[id] = append(t.byID[id], src)
	t.modifiedSources = append(t.modifiedSources, src)
}

// addAddition attempts an immediate pass-1 identity match; if none is
// found the addition is queued for pass 2.
func (t *tracker) addAddition(a pendingAddition) {
	candidates := t.byID[a.ID]
	if len(candidates) == 0 {
		t.additions = append(t.additions, a)
		return
	}

	best := bestIdentityMatch(a.Location, candidates)
	// A modification-derived copy source may back more than one
	// addition, unlike a true deletion, which is consumed on its first
	// match.
	if !best.fromModification {
		t.byID[a.ID] = removeDeletion(candidates, best)
		t.deletions = removeFromSlice(t.deletions, best)
	}

	t.rewrites = append(t.rewrites, Change{
		Kind:           Rewrite,
		SourceLocation: best.Location,
		SourceMode:     best.Mode,
		SourceID:       best.ID,
		SourceRelation: best.Relation,
		Location:       a.Location,
		Mode:           a.Mode,
		ID:             a.ID,
		Relation:       a.Relation,
		Copy:           best.fromModification,
	})
}

// bestIdentityMatch picks which deletion an addition should pair with
// when several candidates share its id: closest basename first, then
// lexicographically smallest path.
func bestIdentityMatch(addLoc string, candidates []pendingDeletion) pendingDeletion {
	addBase := path.Base(addLoc)
	best := candidates[0]
	bestSuffix := commonSuffixLen(path.Base(best.Location), addBase)
	for _, c := range candidates[1:] {
		suf := commonSuffixLen(path.Base(c.Location), addBase)
		if suf > bestSuffix || (suf == bestSuffix && c.Location < best.Location) {
			best = c
			bestSuffix = suf
		}
	}
	return best
}

func removeDeletion(s []pendingDeletion, target pendingDeletion) []pendingDeletion {
	out := make([]pendingDeletion, 0, len(s))
	removed := false
	for _, d := range s {
		if !removed && d == target {
			removed = true
			continue
		}
		out = append(out, d)
	}
	return out
}

func removeFromSlice(s []pendingDeletion, target pendingDeletion) []pendingDeletion {
	return removeDeletion(s, target)
}

// candidatePair is one (addition, deletion) pairing pass 2 may score.
type candidatePair struct {
	addIdx, delIdx int
	similarity     float64
	stats          DiffLineStats
}

// flush runs pass 2 over whatever pass 1 left unmatched, then reports
// every rewrite found plus the true additions/deletions that never
// matched anything.
func (t *tracker) flush() ([]Change, Outcome, error) {
	out := append([]Change{}, t.rewrites...)

	matchedDel := make([]bool, len(t.deletions))
	matchedAdd := make([]bool, len(t.additions))

	if t.opts.Percentage > 0 && len(t.deletions)+len(t.modifiedSources) > 0 && len(t.additions) > 0 {
		if err := t.runSimilarityPass(matchedAdd, matchedDel, &out); err != nil {
			return nil, Outcome{}, err
		}
	}

	for i, d := range t.deletions {
		if matchedDel[i] {
			continue
		}
		out = append(out, Change{Kind: Deletion, Location: d.Location, Relation: d.Relation, Mode: d.Mode, ID: d.ID})
	}
	for i, a := range t.additions {
		if matchedAdd[i] {
			continue
		}
		out = append(out, Change{Kind: Addition, Location: a.Location, Relation: a.Relation, Mode: a.Mode, ID: a.ID})
	}

	return out, t.out, nil
}

func (t *tracker) runSimilarityPass(matchedAdd, matchedDel []bool, out *[]Change) error {
	type source struct {
		d      pendingDeletion
		delIdx int // index into t.deletions, or -1 for a modification-derived source
	}
	var sources []source
	for i, d := range t.deletions {
		sources = append(sources, source{d: d, delIdx: i})
	}
	for _, d := range t.modifiedSources {
		sources = append(sources, source{d: d, delIdx: -1})
	}

	// Tie-break order: similarity desc, longest common-basename-suffix
	// desc, smallest source path, smallest destination path.
	heap := binaryheap.NewWith(func(a, b interface{}) int {
		pa, pb := a.(candidatePair), b.(candidatePair)
		if pa.similarity != pb.similarity {
			if pa.similarity > pb.similarity {
				return -1
			}
			return 1
		}
		srcA, srcB := sources[pa.delIdx].d.Location, sources[pb.delIdx].d.Location
		sa := commonSuffixLen(path.Base(srcA), path.Base(t.additions[pa.addIdx].Location))
		sb := commonSuffixLen(path.Base(srcB), path.Base(t.additions[pb.addIdx].Location))
		if sa != sb {
			if sa > sb {
				return -1
			}
			return 1
		}
		if srcA != srcB {
			if srcA < srcB {
				return -1
			}
			return 1
		}
		if t.additions[pa.addIdx].Location < t.additions[pb.addIdx].Location {
			return -1
		}
		return 1
	})

	checked := 0
	skippedRename, skippedCopy := 0, 0

	for ai, a := range t.additions {
		for si, src := range sources {
			// A copy source (delIdx < 0) may back more than one
			// addition; only a true deletion is excluded once matched.
			if src.delIdx >= 0 && matchedDel[src.delIdx] {
				continue
			}
			if checked >= t.opts.Limit && t.opts.Limit > 0 {
				if src.delIdx >= 0 {
					skippedRename++
				} else {
					skippedCopy++
				}
				continue
			}
			oldBytes, err := t.cache.Blob(src.d.ID)
			if err != nil {
				return err
			}
			newBytes, err := t.cache.Blob(a.ID)
			if err != nil {
				return err
			}
			checked++
			stats := lineDiffStats(oldBytes, newBytes)
			if stats.Similarity < t.opts.Percentage {
				continue
			}
			heap.Push(candidatePair{addIdx: ai, delIdx: si, similarity: stats.Similarity, stats: stats})
		}
	}
	t.out.NumSimilarityChecks += checked
	t.out.NumSimilarityChecksSkippedForRenameTrackingDueToLimit += skippedRename
	t.out.NumSimilarityChecksSkippedForCopyTrackingDueToLimit += skippedCopy

	for {
		v, ok := heap.Pop()
		if !ok {
			break
		}
		p := v.(candidatePair)
		if matchedAdd[p.addIdx] {
			continue
		}
		src := sources[p.delIdx]
		if src.delIdx >= 0 {
			if matchedDel[src.delIdx] {
				continue
			}
			matchedDel[src.delIdx] = true
		}
		matchedAdd[p.addIdx] = true

		stats := p.stats
		a := t.additions[p.addIdx]
		*out = append(*out, Change{
			Kind:           Rewrite,
			SourceLocation: src.d.Location,
			SourceMode:     src.d.Mode,
			SourceID:       src.d.ID,
			SourceRelation: src.d.Relation,
			Location:       a.Location,
			Mode:           a.Mode,
			ID:             a.ID,
			Relation:       a.Relation,
			Diff:           &stats,
			Copy:           src.fromModification,
		})
	}
	return nil
}

func commonSuffixLen(a, b string) int {
	i, j := len(a), len(b)
	n := 0
	for i > 0 && j > 0 && a[i-1] == b[j-1] {
		i--
		j--
		n++
	}
	return n
}
