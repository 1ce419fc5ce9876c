package object

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/go-gitcore/gitcore/hash"
	"github.com/go-gitcore/gitcore/pack"
)

// ErrUnsupportedObject is returned when Decode is handed a payload
// that isn't the kind of object it was asked to decode.
var ErrUnsupportedObject = errors.New("object: unsupported object kind")

// ErrMalformedHeader is returned when a required commit or tag header
// is missing or doesn't parse as the id it's supposed to hold.
var ErrMalformedHeader = errors.New("object: malformed header")

// Commit is a decoded commit object: its tree, parents, identities,
// message, and (if present) detached GPG signature. It implements
// signature.VerifiableObject.
type Commit struct {
	ID           hash.ObjectID
	TreeID       hash.ObjectID
	ParentIDs    []hash.ObjectID
	Author       Signature
	Committer    Signature
	Message      string
	PGPSignature string
	ExtraHeaders []ExtraHeader
}

// DecodeCommit parses the raw payload of a commit object. id is the
// object's own id (the caller already knows it, from the odb lookup
// that produced payload); it is not re-derived here.
func DecodeCommit(id hash.ObjectID, kind pack.Kind, payload []byte) (*Commit, error) {
	if kind != pack.KindCommit {
		return nil, ErrUnsupportedObject
	}

	section, message := splitHeaderSection(payload)
	headers := decodeHeaders(section)

	c := &Commit{ID: id, Message: string(message)}
	for _, h := range headers {
		switch h.Key {
		case "tree":
			tid, ok := hash.FromHex(h.Value)
			if !ok {
				return nil, fmt.Errorf("%w: tree %q", ErrMalformedHeader, h.Value)
			}
			c.TreeID = tid
		case "parent":
			pid, ok := hash.FromHex(h.Value)
			if !ok {
				return nil, fmt.Errorf("%w: parent %q", ErrMalformedHeader, h.Value)
			}
			c.ParentIDs = append(c.ParentIDs, pid)
		case "author":
			c.Author = decodeSignature(h.Value)
		case "committer":
			c.Committer = decodeSignature(h.Value)
		case "gpgsig":
			c.PGPSignature = h.Value
		default:
			c.ExtraHeaders = append(c.ExtraHeaders, h)
		}
	}

	return c, nil
}

// NumParents reports how many parents the commit has.
func (c *Commit) NumParents() int { return len(c.ParentIDs) }

// ExtraHeader looks up a header this type has no typed field for (e.g.
// "change-id", "mergetag", "encoding"). ok is false if key wasn't present.
func (c *Commit) ExtraHeader(key string) (value string, ok bool) {
	return headerValue(c.ExtraHeaders, key)
}

// Signature returns the commit's detached PGP signature, or "" if the
// commit carries none.
func (c *Commit) Signature() string { return c.PGPSignature }

// Encode serializes c back into a commit object's raw payload,
// including its gpgsig header if one is set.
func (c *Commit) Encode() ([]byte, error) {
	return c.encode(true), nil
}

// EncodeWithoutSignature returns c's payload with the gpgsig header
// omitted -- the exact bytes a detached signature is computed over.
func (c *Commit) EncodeWithoutSignature() ([]byte, error) {
	return c.encode(false), nil
}

func (c *Commit) encode(withSignature bool) []byte {
	headers := make([]ExtraHeader, 0, 4+len(c.ParentIDs)+len(c.ExtraHeaders)+1)
	headers = append(headers, ExtraHeader{Key: "tree", Value: c.TreeID.String()})
	for _, p := range c.ParentIDs {
		headers = append(headers, ExtraHeader{Key: "parent", Value: p.String()})
	}
	headers = append(headers, ExtraHeader{Key: "author", Value: c.Author.encode()})
	headers = append(headers, ExtraHeader{Key: "committer", Value: c.Committer.encode()})
	headers = append(headers, c.ExtraHeaders...)
	if withSignature && c.PGPSignature != "" {
		headers = append(headers, ExtraHeader{Key: "gpgsig", Value: c.PGPSignature})
	}

	var buf bytes.Buffer
	buf.Write(encodeHeaders(headers))
	buf.WriteByte('\n')
	buf.WriteString(c.Message)
	return buf.Bytes()
}
