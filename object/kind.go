package object

import (
	"fmt"

	"github.com/go-gitcore/gitcore/hash"
	"github.com/go-gitcore/gitcore/pack"
)

// Header builds the persistent-form header git hashes alongside an
// object's payload to produce its id: "<kind> SP <decimal size> NUL".
func Header(kind pack.Kind, size int) []byte {
	return fmt.Appendf(nil, "%s %d\x00", kind, size)
}

// HashObject computes the id a payload of the given kind would be
// stored under, without actually writing it anywhere.
func HashObject(kind pack.Kind, payload []byte, idKind hash.Kind) hash.ObjectID {
	h := hash.NewHasher(idKind)
	h.Write(Header(kind, len(payload)))
	h.Write(payload)
	sum := h.Sum(nil)
	id, _ := hash.FromBytes(sum)
	return id
}

// VerifyID reports whether payload, stored under kind, hashes back to
// id: any id returned from a lookup must point to bytes that hash back
// to that same id.
func VerifyID(id hash.ObjectID, kind pack.Kind, payload []byte) bool {
	return HashObject(kind, payload, id.Kind()).Equal(id)
}
