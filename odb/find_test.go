package odb

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-gitcore/gitcore/giterr"
	"github.com/go-gitcore/gitcore/hash"
	"github.com/go-gitcore/gitcore/idx"
	"github.com/go-gitcore/gitcore/internal/varint"
	"github.com/go-gitcore/gitcore/pack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildOnePackStore(t *testing.T, slotCount int) (*Store, hash.ObjectID) {
	t.Helper()
	fs := memfs.New()

	content := []byte("prefix resolution fixture")
	id, ok := hash.FromHex("abc123000000000000000000000000000000000a")
	require.True(t, ok)

	var packHeader [12]byte
	copy(packHeader[:4], pack.Magic[:])
	binary.BigEndian.PutUint32(packHeader[4:8], pack.SupportedVersion)
	binary.BigEndian.PutUint32(packHeader[8:12], 1)

	entryHeader := encEntryHeader(pack.KindBlob, uint64(len(content)))
	entryZlib := mustDeflateBytes(t, content)
	packBytes := append(append(append([]byte{}, packHeader[:]...), entryHeader...), entryZlib...)
	packBytes = append(packBytes, make([]byte, 20)...)

	pf, err := fs.Create("objects/pack/pack-1.pack")
	require.NoError(t, err)
	_, err = pf.Write(packBytes)
	require.NoError(t, err)
	require.NoError(t, pf.Close())

	var idxBuf bytes.Buffer
	_, err = idx.NewEncoder(&idxBuf, hash.SHA1).Encode(
		[]idx.Entry{{ID: id, CRC32: 0, Offset: 12}},
		hash.Empty(hash.SHA1),
		true,
	)
	require.NoError(t, err)

	idxf, err := fs.Create("objects/pack/pack-1.idx")
	require.NoError(t, err)
	_, err = idxf.Write(idxBuf.Bytes())
	require.NoError(t, err)
	require.NoError(t, idxf.Close())

	return NewStore(fs, "objects", slotCount, hash.SHA1, false), id
}

func TestFindPrefixUniqueMatch(t *testing.T) {
	store, id := buildOnePackStore(t, 4)

	resolvedID, obj, err := store.FindPrefix("abc123", nil)
	require.NoError(t, err)
	assert.True(t, resolvedID.Equal(id))
	assert.Equal(t, pack.KindBlob, obj.Kind)
	assert.Equal(t, "prefix resolution fixture", string(obj.Data))
}

func TestFindPrefixNoMatch(t *testing.T) {
	store, _ := buildOnePackStore(t, 4)

	_, _, err := store.FindPrefix("ffffff", nil)
	require.Error(t, err)
	var missing *giterr.ObjectMissing
	assert.ErrorAs(t, err, &missing)
}

func TestFindPrefixAmbiguous(t *testing.T) {
	fs := memfs.New()
	idA, ok := hash.FromHex("abc111000000000000000000000000000000000a")
	require.True(t, ok)
	idB, ok := hash.FromHex("abc1112222222222222222222222222222222222")
	require.True(t, ok)

	for _, id := range []hash.ObjectID{idA, idB} {
		f, err := fs.Create(fs.Join("objects", looseObjectRelPath(id)))
		require.NoError(t, err)
		require.NoError(t, EncodeLooseObject(f, pack.KindBlob, []byte(id.String())))
		require.NoError(t, f.Close())
	}

	store := NewStore(fs, "objects", 4, hash.SHA1, false)
	_, _, err := store.FindPrefix("abc111", nil)
	require.Error(t, err)
	var ambiguous *giterr.AmbiguousPrefix
	require.ErrorAs(t, err, &ambiguous)
	assert.Len(t, ambiguous.Candidates, 2)
}

func TestResolveExternalRefDeltaAcrossPacks(t *testing.T) {
	fs := memfs.New()

	baseContent := []byte("base object content")
	baseID, ok := hash.FromHex("1111111111111111111111111111111111111111")
	require.True(t, ok)

	var baseHeader [12]byte
	copy(baseHeader[:4], pack.Magic[:])
	binary.BigEndian.PutUint32(baseHeader[4:8], pack.SupportedVersion)
	binary.BigEndian.PutUint32(baseHeader[8:12], 1)
	baseEntryHeader := encEntryHeader(pack.KindBlob, uint64(len(baseContent)))
	baseEntryZlib := mustDeflateBytes(t, baseContent)
	basePackBytes := append(append(append([]byte{}, baseHeader[:]...), baseEntryHeader...), baseEntryZlib...)
	basePackBytes = append(basePackBytes, make([]byte, 20)...)

	bf, err := fs.Create("objects/pack/pack-base.pack")
	require.NoError(t, err)
	_, err = bf.Write(basePackBytes)
	require.NoError(t, err)
	require.NoError(t, bf.Close())

	var baseIdxBuf bytes.Buffer
	_, err = idx.NewEncoder(&baseIdxBuf, hash.SHA1).Encode(
		[]idx.Entry{{ID: baseID, Offset: 12}},
		hash.Empty(hash.SHA1),
		true,
	)
	require.NoError(t, err)
	bif, err := fs.Create("objects/pack/pack-base.idx")
	require.NoError(t, err)
	_, err = bif.Write(baseIdxBuf.Bytes())
	require.NoError(t, err)
	require.NoError(t, bif.Close())

	// A second pack holds only a REF_DELTA entry whose base lives in the
	// first pack; decoding it must go through resolveExternal rather
	// than any in-pack base lookup.
	resultID, ok := hash.FromHex("2222222222222222222222222222222222222222")
	require.True(t, ok)

	// copy(offset=0,size=19) + insert("!"): "base object content" -> "base object content!"
	instructions := []byte{0x91, 0, 19, 0x01, '!'}
	var deltaBody []byte
	deltaBody = varint.EncodeLEB128(deltaBody, uint64(len(baseContent)))
	deltaBody = varint.EncodeLEB128(deltaBody, uint64(len(baseContent)+1))
	deltaBody = append(deltaBody, instructions...)

	var deltaHeader [12]byte
	copy(deltaHeader[:4], pack.Magic[:])
	binary.BigEndian.PutUint32(deltaHeader[4:8], pack.SupportedVersion)
	binary.BigEndian.PutUint32(deltaHeader[8:12], 1)
	deltaEntryHeader := encEntryHeader(pack.KindRefDelta, uint64(len(deltaBody)))
	deltaEntryHeader = append(deltaEntryHeader, baseID.Bytes()...)
	deltaEntryZlib := mustDeflateBytes(t, deltaBody)
	deltaPackBytes := append(append(append([]byte{}, deltaHeader[:]...), deltaEntryHeader...), deltaEntryZlib...)
	deltaPackBytes = append(deltaPackBytes, make([]byte, 20)...)

	df, err := fs.Create("objects/pack/pack-delta.pack")
	require.NoError(t, err)
	_, err = df.Write(deltaPackBytes)
	require.NoError(t, err)
	require.NoError(t, df.Close())

	var deltaIdxBuf bytes.Buffer
	_, err = idx.NewEncoder(&deltaIdxBuf, hash.SHA1).Encode(
		[]idx.Entry{{ID: resultID, Offset: 12}},
		hash.Empty(hash.SHA1),
		true,
	)
	require.NoError(t, err)
	dif, err := fs.Create("objects/pack/pack-delta.idx")
	require.NoError(t, err)
	_, err = dif.Write(deltaIdxBuf.Bytes())
	require.NoError(t, err)
	require.NoError(t, dif.Close())

	store := NewStore(fs, "objects", 4, hash.SHA1, false)

	obj, err := store.Find(baseID, nil)
	require.NoError(t, err)
	assert.Equal(t, "base object content", string(obj.Data))

	resolved, err := store.Find(resultID, nil)
	require.NoError(t, err)
	assert.Equal(t, "base object content!", string(resolved.Data))
}
