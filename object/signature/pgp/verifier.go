package pgp

import (
	"bytes"
	"io"
	"strings"

	"github.com/ProtonMail/go-crypto/openpgp"

	"github.com/go-gitcore/gitcore/object/signature"
)

// Verifier checks a detached armored PGP signature against a fixed
// keyring.
type Verifier struct {
	entities openpgp.EntityList
	trust    signature.TrustStore
}

// NewVerifier builds a Verifier from an already-parsed keyring. trust
// may be nil, in which case every key defaults to signature.TrustNever.
func NewVerifier(entities openpgp.EntityList, trust signature.TrustStore) *Verifier {
	return &Verifier{entities: entities, trust: trust}
}

// NewVerifierFromArmoredKeyRing parses an armored keyring and builds a
// Verifier from it. It returns an error if the key ring is not valid.
func NewVerifierFromArmoredKeyRing(r io.Reader, trust signature.TrustStore) (*Verifier, error) {
	entities, err := openpgp.ReadArmoredKeyRing(r)
	if err != nil {
		return nil, err
	}
	return NewVerifier(entities, trust), nil
}

// Verify checks o's signature using the verifier's keyring. It returns
// the signature.Entity that produced it, or an error if verification
// failed.
func (v *Verifier) Verify(o signature.VerifiableObject) (signature.Entity, error) {
	payload, err := o.EncodeWithoutSignature()
	if err != nil {
		return nil, err
	}

	entity, err := openpgp.CheckArmoredDetachedSignature(
		v.entities, bytes.NewReader(payload), strings.NewReader(o.Signature()), nil)
	if err != nil {
		return nil, err
	}

	return &Entity{entity: entity}, nil
}

// TrustLevel reports the TrustLevel the verifier's TrustStore assigns
// to e.
func (v *Verifier) TrustLevel(e signature.Entity) signature.TrustLevel {
	return v.trust.Level(e)
}
