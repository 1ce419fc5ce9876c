package varint

import (
	"bufio"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeLEB128RoundTrip(t *testing.T) {
	for _, v := range []uint64{0, 1, 127, 128, 300, 1 << 20, 1 << 40} {
		enc := EncodeLEB128(nil, v)
		got, rest := DecodeLEB128(enc)
		assert.Equal(t, v, got)
		assert.Empty(t, rest)
	}
}

func TestDecodeLEB128FromReader(t *testing.T) {
	enc := EncodeLEB128(nil, 300)
	r := bufio.NewReader(bytes.NewReader(enc))
	got, err := DecodeLEB128FromReader(r)
	require.NoError(t, err)
	assert.Equal(t, uint64(300), got)
}

func TestEntryHeaderSmall(t *testing.T) {
	// type=3 (Blob-ish tag), size=5, fits in one byte, no continuation.
	b := []byte{0x35}
	typ, size, consumed := EntryHeader(b)
	assert.Equal(t, byte(3), typ)
	assert.Equal(t, uint64(5), size)
	assert.Equal(t, 1, consumed)
}

func TestEntryHeaderMultiByte(t *testing.T) {
	// type=1, low 4 bits=0xf, continuation set, next byte 0x01 (no continuation): size = 0xf | (1<<4) = 31
	b := []byte{0x9f, 0x01}
	typ, size, consumed := EntryHeader(b)
	assert.Equal(t, byte(1), typ)
	assert.Equal(t, uint64(31), size)
	assert.Equal(t, 2, consumed)
}

func TestOffsetDeltaSingleByte(t *testing.T) {
	distance, consumed := OffsetDelta([]byte{0x10})
	assert.Equal(t, uint64(0x10), distance)
	assert.Equal(t, 1, consumed)
}

func TestOffsetDeltaMultiByte(t *testing.T) {
	// 0x81, 0x00 -> distance = ((1)+1)<<7 | 0 = 256
	distance, consumed := OffsetDelta([]byte{0x81, 0x00})
	assert.Equal(t, uint64(256), distance)
	assert.Equal(t, 2, consumed)
}
