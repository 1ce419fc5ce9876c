package idx

import (
	"bytes"
	"testing"

	"github.com/go-gitcore/gitcore/hash"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mkid(t *testing.T, hex string) hash.ObjectID {
	t.Helper()
	id, ok := hash.FromHex(hex)
	require.True(t, ok)
	return id
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	entries := []Entry{
		{ID: mkid(t, "5296768e3d9f661387ccbff18c4dea6c997fd78c"), CRC32: 0xdeadbeef, Offset: 142},
		{ID: mkid(t, "303953e5aa461c203a324821bc1717f9b4fff895"), CRC32: 0x1, Offset: 12},
		{ID: mkid(t, "8f3ceb4ea4cb9e4a0f751795eb41c9a4f07be772"), CRC32: 0x2, Offset: 99999},
	}
	packChecksum := mkid(t, "000000000000000000000000000000000000000a")

	var buf bytes.Buffer
	idxChecksum, err := NewEncoder(&buf, hash.SHA1).Encode(entries, packChecksum, false)
	require.NoError(t, err)
	assert.False(t, idxChecksum.IsZero())

	idx, err := NewDecoder(&buf, hash.SHA1).Decode()
	require.NoError(t, err)
	assert.Equal(t, 3, idx.Count())
	assert.True(t, idx.PackChecksum().Equal(packChecksum))

	for _, e := range entries {
		off, err := idx.FindOffset(e.ID)
		require.NoError(t, err)
		assert.Equal(t, e.Offset, off)

		crc, err := idx.FindCRC32(e.ID)
		require.NoError(t, err)
		assert.Equal(t, e.CRC32, crc)

		assert.True(t, idx.Contains(e.ID))
	}
}

func TestDecodeMissingID(t *testing.T) {
	entries := []Entry{{ID: mkid(t, "303953e5aa461c203a324821bc1717f9b4fff895"), CRC32: 1, Offset: 12}}
	var buf bytes.Buffer
	_, err := NewEncoder(&buf, hash.SHA1).Encode(entries, mkid(t, "000000000000000000000000000000000000000a"), false)
	require.NoError(t, err)

	idx, err := NewDecoder(&buf, hash.SHA1).Decode()
	require.NoError(t, err)

	missing := mkid(t, "ffffffffffffffffffffffffffffffffffffffff")
	assert.False(t, idx.Contains(missing))
	_, err = idx.FindOffset(missing)
	assert.Error(t, err)
}

func TestEncodeSkipHashWritesZeroSentinel(t *testing.T) {
	entries := []Entry{{ID: mkid(t, "303953e5aa461c203a324821bc1717f9b4fff895"), CRC32: 1, Offset: 12}}
	var buf bytes.Buffer
	idxChecksum, err := NewEncoder(&buf, hash.SHA1).Encode(entries, mkid(t, "000000000000000000000000000000000000000a"), true)
	require.NoError(t, err)
	assert.True(t, idxChecksum.IsZero())

	idx, err := NewDecoder(&buf, hash.SHA1).Decode()
	require.NoError(t, err)
	assert.Equal(t, 1, idx.Count())
}

func TestEncodeDecodeLargeOffset(t *testing.T) {
	entries := []Entry{
		{ID: mkid(t, "303953e5aa461c203a324821bc1717f9b4fff895"), CRC32: 1, Offset: 1 << 33},
	}
	var buf bytes.Buffer
	_, err := NewEncoder(&buf, hash.SHA1).Encode(entries, mkid(t, "000000000000000000000000000000000000000a"), false)
	require.NoError(t, err)

	idx, err := NewDecoder(&buf, hash.SHA1).Decode()
	require.NoError(t, err)
	off, err := idx.FindOffset(entries[0].ID)
	require.NoError(t, err)
	assert.Equal(t, uint64(1<<33), off)
}

func TestBadMagicRejected(t *testing.T) {
	_, err := NewDecoder(bytes.NewReader([]byte{0, 0, 0, 0, 0, 0, 0, 2}), hash.SHA1).Decode()
	assert.Error(t, err)
}
