// Package wtindex implements the worktree index file (the "DIRC" cache
// git keeps between HEAD and the files on disk): its entries, the
// cache-tree and resolve-undo extensions, and the binary codec for all
// of that.
//
// Grounded on go-git's plumbing/format/index package
// ({index,decoder,encoder}.go), generalized from plumbing.Hash and
// filemode.FileMode to this module's hash.ObjectID and object.Mode so
// the index can describe either object format.
package wtindex

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-gitcore/gitcore/hash"
	"github.com/go-gitcore/gitcore/object"
)

// Stage identifies which side of a merge conflict an Entry represents.
type Stage int

const (
	Merged       Stage = 0
	AncestorMode Stage = 1
	OurMode      Stage = 2
	TheirMode    Stage = 3
)

// Index is the parsed contents of a worktree index file: the entries
// themselves plus whichever optional extensions were present.
type Index struct {
	Version         uint32
	Entries         []*Entry
	Cache           *Tree
	ResolveUndo     *ResolveUndo
	EndOfIndexEntry *EndOfIndexEntry

	// Raw holds any extension this package doesn't decode structurally
	// (link, untracked-cache, fsmonitor, index-entry-offset-table),
	// preserved byte-for-byte so re-encoding the index doesn't drop
	// them.
	Raw []RawExtension

	icase map[string]*Entry
}

// RawExtension is an index extension kept opaque: its four-byte
// signature and its body, exactly as read.
type RawExtension struct {
	Signature [4]byte
	Data      []byte
}

// Entry is one file (or one stage of a conflicted file) tracked by the
// index.
type Entry struct {
	Hash         hash.ObjectID
	Name         string
	CreatedAt    time.Time
	ModifiedAt   time.Time
	Dev, Inode   uint32
	Mode         object.Mode
	UID, GID     uint32
	Size         uint32
	Stage        Stage
	SkipWorktree bool
	IntentToAdd  bool
}

func (e Entry) String() string {
	return fmt.Sprintf("%s %s %d\t%s\n", e.Mode, e.Hash, e.Stage, e.Name)
}

// Tree is the cache-tree extension: pre-computed tree hashes for
// directories the index can reconstruct without rehashing blobs.
type Tree struct {
	Entries []TreeEntry
}

// TreeEntry is one directory's worth of cache-tree data. Entries is -1
// for a directory the cache-tree extension has invalidated.
type TreeEntry struct {
	Path    string
	Entries int
	Trees   int
	Hash    hash.ObjectID
}

// ResolveUndo preserves the higher-stage entries a conflict resolution
// removed, so the conflict can be reconstructed (e.g. for `git checkout
// --conflict`).
type ResolveUndo struct {
	Entries []ResolveUndoEntry
}

// ResolveUndoEntry is one formerly-conflicted path's per-stage hashes.
type ResolveUndoEntry struct {
	Path   string
	Stages map[Stage]hash.ObjectID
}

// EndOfIndexEntry locates the boundary between variable-length entries
// and the extensions that follow, letting a reader jump straight to
// the extensions without scanning every entry first.
type EndOfIndexEntry struct {
	Offset uint32
	Hash   hash.ObjectID
}

// Add appends a new, zero-valued Entry for path and returns it for the
// caller to fill in.
func (i *Index) Add(path string) *Entry {
	e := &Entry{Name: filepath.ToSlash(path)}
	i.Entries = append(i.Entries, e)
	return e
}

// Entry returns the first entry matching path, whatever its stage, or
// nil.
func (i *Index) Entry(path string) *Entry {
	path = filepath.ToSlash(path)
	for _, e := range i.Entries {
		if e.Name == path {
			return e
		}
	}
	return nil
}

// Remove deletes the entry matching path and returns it, or nil if
// none matched.
func (i *Index) Remove(path string) *Entry {
	path = filepath.ToSlash(path)
	for idx, e := range i.Entries {
		if e.Name == path {
			i.Entries = append(i.Entries[:idx], i.Entries[idx+1:]...)
			return e
		}
	}
	return nil
}

// Glob returns every entry whose name matches pattern, using
// filepath.Match semantics against the full slash-separated name.
func (i *Index) Glob(pattern string) (matches []*Entry, err error) {
	pattern = filepath.ToSlash(pattern)
	for _, e := range i.Entries {
		ok, err := filepath.Match(pattern, e.Name)
		if err != nil {
			return nil, err
		}
		if ok {
			matches = append(matches, e)
		}
	}
	return matches, nil
}

// SkipUnless marks SkipWorktree on every entry whose name isn't
// prefixed by one of patterns, the sparse-checkout narrowing rule.
func (i *Index) SkipUnless(patterns []string) {
	for _, e := range i.Entries {
		keep := false
		for _, p := range patterns {
			if strings.HasPrefix(e.Name, p) {
				keep = true
				break
			}
		}
		e.SkipWorktree = !keep
	}
}

// BuildIcaseLookup precomputes a case-folded name lookup table so
// Lookup can honor core.ignoreCase without rescanning every entry on
// each call.
func (i *Index) BuildIcaseLookup() {
	i.icase = make(map[string]*Entry, len(i.Entries))
	for _, e := range i.Entries {
		i.icase[strings.ToLower(e.Name)] = e
	}
}

// Lookup implements status.IndexLookup: tracked reports whether path
// has an entry (of any stage), and isSubmodule reports whether that entry's
// mode is a gitlink (a path git treats as a submodule's worktree root,
// never descended into during a directory walk). When BuildIcaseLookup
// has been called, the match is case-insensitive.
func (i *Index) Lookup(path string) (tracked bool, isSubmodule bool) {
	path = filepath.ToSlash(path)
	var e *Entry
	if i.icase != nil {
		e = i.icase[strings.ToLower(path)]
	} else {
		e = i.Entry(path)
	}
	if e == nil {
		return false, false
	}
	return true, e.Mode == object.Submodule
}
