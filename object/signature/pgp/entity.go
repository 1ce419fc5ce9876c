// Package pgp is an OpenPGP-backed signature.ObjectVerifier, ported
// from go-git's plumbing/object/signature/pgp onto this module's
// signature.VerifiableObject ([]byte-based rather than
// plumbing.EncodedObject-based).
package pgp

import (
	"github.com/ProtonMail/go-crypto/openpgp"

	"github.com/go-gitcore/gitcore/object/signature"
)

// EntityType identifies a signature.Entity backed by an OpenPGP key.
const EntityType signature.EntityType = "PGP"

// Entity wraps the openpgp.Entity that produced a verified signature.
type Entity struct {
	entity *openpgp.Entity
}

// Canonical returns the primary key's key ID, hex-encoded the way gpg
// itself prints it.
func (e *Entity) Canonical() string {
	return e.entity.PrimaryKey.KeyIdString()
}

// Type returns EntityType.
func (e *Entity) Type() signature.EntityType { return EntityType }

// Concrete returns the underlying *openpgp.Entity.
func (e *Entity) Concrete() interface{} { return e.entity }

// Identities returns the user ID strings (name/comment/email) attached
// to the key, the same set gpg prints alongside a key's fingerprint.
func (e *Entity) Identities() []string {
	ids := make([]string, 0, len(e.entity.Identities))
	for name := range e.entity.Identities {
		ids = append(ids, name)
	}
	return ids
}
