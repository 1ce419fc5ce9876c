package object

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/go-gitcore/gitcore/hash"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func idFor(b byte) hash.ObjectID {
	raw := make([]byte, 20)
	raw[0] = b
	id, _ := hash.FromBytes(raw)
	return id
}

func encodeRawEntry(mode Mode, name string, id hash.ObjectID) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%o", uint32(mode))
	buf.WriteByte(' ')
	buf.WriteString(name)
	buf.WriteByte(0)
	buf.Write(id.Bytes())
	return buf.Bytes()
}

func TestDecodeTreeRoundTrip(t *testing.T) {
	var payload []byte
	payload = append(payload, encodeRawEntry(Regular, "file001", idFor(1))...)
	payload = append(payload, encodeRawEntry(Dir, "subdir", idFor(2))...)

	tree, err := Decode(payload, hash.SHA1)
	require.NoError(t, err)
	require.Len(t, tree.Entries, 2)
	assert.Equal(t, "file001", string(tree.Entries[0].Name))
	assert.Equal(t, Regular, tree.Entries[0].Mode)
	assert.True(t, tree.Entries[0].ID.Equal(idFor(1)))
	assert.Equal(t, "subdir", string(tree.Entries[1].Name))
	assert.Equal(t, Dir, tree.Entries[1].Mode)

	assert.Equal(t, payload, Encode(tree))
}

func TestDecodeTreeRejectsMalformed(t *testing.T) {
	_, err := Decode([]byte("nomodeseparator"), hash.SHA1)
	assert.Error(t, err)

	_, err = Decode([]byte("100644 name-without-nul"), hash.SHA1)
	assert.Error(t, err)

	_, err = Decode([]byte("100644 name\x00short"), hash.SHA1)
	assert.Error(t, err)
}

func TestSortEntriesSlashAppendQuirk(t *testing.T) {
	entries := []Entry{
		{Name: []byte("foo-bar"), Mode: Regular, ID: idFor(1)},
		{Name: []byte("foo"), Mode: Dir, ID: idFor(2)},
		{Name: []byte("foo.txt"), Mode: Regular, ID: idFor(3)},
	}
	assert.False(t, IsSorted(entries))

	SortEntries(entries)
	assert.True(t, IsSorted(entries))

	var names []string
	for _, e := range entries {
		names = append(names, string(e.Name))
	}
	// "foo" is a tree, compared as "foo/", so it sorts after both
	// "foo-bar" ('-' is 0x2d) and "foo.txt" ('.' is 0x2e), since '/' is 0x2f.
	assert.Equal(t, []string{"foo-bar", "foo.txt", "foo"}, names)
}

func TestSortEntriesSubmoduleUsesSameQuirk(t *testing.T) {
	entries := []Entry{
		{Name: []byte("lib"), Mode: Submodule, ID: idFor(1)},
		{Name: []byte("lib-utils"), Mode: Regular, ID: idFor(2)},
	}
	SortEntries(entries)
	assert.Equal(t, "lib-utils", string(entries[0].Name))
	assert.Equal(t, "lib", string(entries[1].Name))
}
