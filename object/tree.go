package object

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/go-gitcore/gitcore/giterr"
	"github.com/go-gitcore/gitcore/hash"
)

// Entry is one line of a tree object: a name, its mode, and the id of
// the blob/tree/commit it names. Filenames are bytes, not UTF-8.
type Entry struct {
	Name []byte
	Mode Mode
	ID   hash.ObjectID
}

// Tree is the parsed form of a tree object's payload: an ordered list
// of entries, in the order they appeared on disk (which, for
// well-formed trees, is also sort order).
type Tree struct {
	Entries []Entry
}

// Decode parses a tree object's raw payload. Entries are emitted in
// on-disk order; Decode does not itself re-sort them, but a
// well-formed tree is already sorted per sortKey below.
func Decode(payload []byte, idKind hash.Kind) (*Tree, error) {
	idSize := hash.Empty(idKind).Size()
	t := &Tree{}
	for len(payload) > 0 {
		sp := bytes.IndexByte(payload, ' ')
		if sp < 0 {
			return nil, giterr.NewFormatError("tree: missing mode separator")
		}
		mode, err := New(string(payload[:sp]))
		if err != nil {
			return nil, giterr.NewFormatError("tree: " + err.Error())
		}
		rest := payload[sp+1:]
		nul := bytes.IndexByte(rest, 0)
		if nul < 0 {
			return nil, giterr.NewFormatError("tree: missing name terminator")
		}
		name := rest[:nul]
		rest = rest[nul+1:]
		if len(rest) < idSize {
			return nil, giterr.NewFormatError("tree: truncated entry id")
		}
		id, ok := hash.FromBytes(rest[:idSize])
		if !ok {
			return nil, giterr.NewFormatError("tree: malformed entry id")
		}
		t.Entries = append(t.Entries, Entry{Name: append([]byte{}, name...), Mode: mode, ID: id})
		payload = rest[idSize:]
	}
	return t, nil
}

// Encode renders t back to a tree object's payload, in t.Entries'
// current order. Callers that built entries by hand should sort them
// with SortEntries first — Encode does not validate ordering.
func Encode(t *Tree) []byte {
	var buf bytes.Buffer
	for _, e := range t.Entries {
		fmt.Fprintf(&buf, "%o", uint32(e.Mode))
		buf.WriteByte(' ')
		buf.Write(e.Name)
		buf.WriteByte(0)
		buf.Write(e.ID.Bytes())
	}
	return buf.Bytes()
}

// sortKey returns the bytes a tree entry's name compares as: its name
// with a trailing "/" appended for directory-like entries (Dir and
// Submodule) — git requires tree entries to sort as if a "/" were
// appended to their name. A directory named "foo" therefore sorts
// after a file "foo.txt", since '.' (0x2e) is less than '/' (0x2f).
func sortKey(e Entry) []byte {
	if e.Mode == Dir || e.Mode == Submodule {
		return append(append([]byte{}, e.Name...), '/')
	}
	return e.Name
}

// Compare orders two entries the way git requires tree entries to be
// sorted — see sortKey's directory-slash quirk. Negative/zero/positive
// mirrors bytes.Compare. Callers doing a lock-step walk of two sorted
// trees (diff) use this to merge them by name.
func Compare(a, b Entry) int {
	return bytes.Compare(sortKey(a), sortKey(b))
}

// SortEntries orders entries the way git requires trees to be
// written: lexicographic by sortKey.
func SortEntries(entries []Entry) {
	sort.Slice(entries, func(i, j int) bool {
		return bytes.Compare(sortKey(entries[i]), sortKey(entries[j])) < 0
	})
}

// IsSorted reports whether entries are already in git's required tree
// order.
func IsSorted(entries []Entry) bool {
	for i := 1; i < len(entries); i++ {
		if bytes.Compare(sortKey(entries[i-1]), sortKey(entries[i])) >= 0 {
			return false
		}
	}
	return true
}
