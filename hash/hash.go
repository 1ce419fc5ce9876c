// Package hash implements ObjectID: a fixed-width, content-addressed
// identifier supporting both SHA-1 and SHA-256 object formats, the way
// go-git's plumbing/objectid.go does it.
package hash

import (
	"bytes"
	"crypto"
	"encoding/hex"
	"fmt"
	stdhash "hash"
	"sort"

	"github.com/pjbgf/sha1cd"
)

// Kind distinguishes the two object formats Git supports on disk.
type Kind uint8

const (
	// SHA1 is the historical, still-default object format.
	SHA1 Kind = iota
	// SHA256 is the newer object format (`core.repositoryFormatVersion=1`
	// with `extensions.objectFormat=sha256`).
	SHA256
)

const (
	// SHA1Size is the byte width of a SHA-1 digest.
	SHA1Size = 20
	// SHA1HexSize is the hex-string width of a SHA-1 digest.
	SHA1HexSize = SHA1Size * 2
	// SHA256Size is the byte width of a SHA-256 digest.
	SHA256Size = 32
	// SHA256HexSize is the hex-string width of a SHA-256 digest.
	SHA256HexSize = SHA256Size * 2
)

func (k Kind) size() int {
	if k == SHA256 {
		return SHA256Size
	}
	return SHA1Size
}

// New returns the crypto.Hash identifier for the given object format. It
// is the standard library's algorithm identifier; the collision-detecting
// SHA-1 implementation is what NewHasher returns.
func New(k Kind) crypto.Hash {
	if k == SHA256 {
		return crypto.SHA256
	}
	return crypto.SHA1
}

// NewHasher returns a fresh hash.Hash for the given object format.
func NewHasher(k Kind) stdhash.Hash {
	if k == SHA256 {
		return crypto.SHA256.New()
	}
	return sha1cd.New()
}

// ObjectID is a fixed-width binary hash: the identity of a stored Git
// object. Values compare by byte-lexicographic order.
type ObjectID struct {
	raw  [SHA256Size]byte
	kind Kind
}

// Empty returns the null id of the given width, the reserved all-zero
// sentinel Git uses to mean "no object".
func Empty(k Kind) ObjectID {
	return ObjectID{kind: k}
}

// FromHex parses a hexadecimal string into an ObjectID. The object format
// is inferred from the string length; invalid hex or an unsupported
// length yields ok=false.
func FromHex(s string) (id ObjectID, ok bool) {
	switch len(s) {
	case SHA1HexSize:
		id.kind = SHA1
	case SHA256HexSize:
		id.kind = SHA256
	default:
		return ObjectID{}, false
	}
	n, err := hex.Decode(id.raw[:id.kind.size()], []byte(s))
	if err != nil || n != id.kind.size() {
		return ObjectID{}, false
	}
	return id, true
}

// FromBytes builds an ObjectID from raw digest bytes, inferring the
// object format from the slice length.
func FromBytes(b []byte) (id ObjectID, ok bool) {
	switch len(b) {
	case SHA1Size:
		id.kind = SHA1
	case SHA256Size:
		id.kind = SHA256
	default:
		return ObjectID{}, false
	}
	copy(id.raw[:], b)
	return id, true
}

// Kind reports the object format of this id.
func (id ObjectID) Kind() Kind { return id.kind }

// Size returns the byte width of this id (20 or 32).
func (id ObjectID) Size() int { return id.kind.size() }

// Bytes returns the raw digest bytes (length == Size()).
func (id ObjectID) Bytes() []byte {
	return append([]byte(nil), id.raw[:id.kind.size()]...)
}

// String renders the id as lowercase hex.
func (id ObjectID) String() string {
	return hex.EncodeToString(id.raw[:id.kind.size()])
}

// IsZero reports whether this id is the all-zero sentinel for its width.
func (id ObjectID) IsZero() bool {
	for _, b := range id.raw[:id.kind.size()] {
		if b != 0 {
			return false
		}
	}
	return true
}

// Compare orders two ids by byte-lexicographic comparison.
func (id ObjectID) Compare(other ObjectID) int {
	return bytes.Compare(id.raw[:id.kind.size()], other.raw[:other.kind.size()])
}

// Equal reports byte equality.
func (id ObjectID) Equal(other ObjectID) bool {
	return id.kind == other.kind && bytes.Equal(id.raw[:id.kind.size()], other.raw[:other.kind.size()])
}

// HasHexPrefix reports whether the id's hex rendering starts with the
// given (possibly odd-length) hex nibble prefix, the standard
// definition used for abbreviated-id prefix resolution.
func (id ObjectID) HasHexPrefix(prefix string) bool {
	full := id.String()
	if len(prefix) > len(full) {
		return false
	}
	return full[:len(prefix)] == prefix
}

// MarshalText implements encoding.TextMarshaler.
func (id ObjectID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *ObjectID) UnmarshalText(text []byte) error {
	parsed, ok := FromHex(string(text))
	if !ok {
		return fmt.Errorf("hash: invalid object id %q", text)
	}
	*id = parsed
	return nil
}

// Slice is a sortable list of ObjectID, ordered increasing, mirroring
// go-git's plumbing.HashSlice.
type Slice []ObjectID

func (s Slice) Len() int           { return len(s) }
func (s Slice) Less(i, j int) bool { return s[i].Compare(s[j]) < 0 }
func (s Slice) Swap(i, j int)      { s[i], s[j] = s[j], s[i] }

// Sort sorts ids in increasing order.
func Sort(ids []ObjectID) { sort.Sort(Slice(ids)) }
