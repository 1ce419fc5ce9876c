package object

import (
	"bytes"
	"fmt"

	"github.com/go-gitcore/gitcore/hash"
	"github.com/go-gitcore/gitcore/pack"
)

// Tag is a decoded annotated tag object: the object it points at, its
// name, tagger, message, and (if present) detached GPG signature. It
// implements signature.VerifiableObject.
//
// Unlike a commit's gpgsig header, a tag's signature is appended
// in-line at the end of its message; splitTagSignature/DecodeTag split
// it back out using the same boundary-detection gpg itself uses.
type Tag struct {
	ID           hash.ObjectID
	TargetID     hash.ObjectID
	TargetKind   pack.Kind
	Name         string
	Tagger       Signature
	Message      string
	PGPSignature string
	ExtraHeaders []ExtraHeader
}

// DecodeTag parses the raw payload of a tag object.
func DecodeTag(id hash.ObjectID, kind pack.Kind, payload []byte) (*Tag, error) {
	if kind != pack.KindTag {
		return nil, ErrUnsupportedObject
	}

	section, message := splitHeaderSection(payload)
	headers := decodeHeaders(section)

	t := &Tag{ID: id}
	for _, h := range headers {
		switch h.Key {
		case "object":
			oid, ok := hash.FromHex(h.Value)
			if !ok {
				return nil, fmt.Errorf("%w: object %q", ErrMalformedHeader, h.Value)
			}
			t.TargetID = oid
		case "type":
			t.TargetKind = targetKindFromString(h.Value)
		case "tag":
			t.Name = h.Value
		case "tagger":
			t.Tagger = decodeSignature(h.Value)
		default:
			t.ExtraHeaders = append(t.ExtraHeaders, h)
		}
	}

	t.Message, t.PGPSignature = splitTagSignature(message)
	return t, nil
}

// splitTagSignature pulls a trailing signature block off message, the
// way git's own tag parser does: everything from the last recognized
// "-----BEGIN ... SIGNATURE-----" marker onward is the signature, and
// everything before it is the real message.
func splitTagSignature(message []byte) (msg, sig string) {
	pos, _ := parseSignedBytes(message)
	if pos < 0 {
		return string(message), ""
	}
	return string(message[:pos]), string(message[pos:])
}

func targetKindFromString(s string) pack.Kind {
	switch s {
	case "commit":
		return pack.KindCommit
	case "tree":
		return pack.KindTree
	case "blob":
		return pack.KindBlob
	case "tag":
		return pack.KindTag
	default:
		return pack.KindInvalid
	}
}

// Signature returns the tag's detached PGP signature, or "" if the tag
// carries none.
func (t *Tag) Signature() string { return t.PGPSignature }

// ExtraHeader looks up a header this type has no typed field for. ok is
// false if key wasn't present.
func (t *Tag) ExtraHeader(key string) (value string, ok bool) {
	return headerValue(t.ExtraHeaders, key)
}

// Encode serializes t back into a tag object's raw payload, with its
// PGP signature (if any) appended to the message.
func (t *Tag) Encode() ([]byte, error) {
	return t.encode(true), nil
}

// EncodeWithoutSignature returns t's payload with the trailing PGP
// signature block omitted -- the exact bytes a detached signature is
// computed over.
func (t *Tag) EncodeWithoutSignature() ([]byte, error) {
	return t.encode(false), nil
}

func (t *Tag) encode(withSignature bool) []byte {
	headers := make([]ExtraHeader, 0, 4+len(t.ExtraHeaders))
	headers = append(headers,
		ExtraHeader{Key: "object", Value: t.TargetID.String()},
		ExtraHeader{Key: "type", Value: t.TargetKind.String()},
		ExtraHeader{Key: "tag", Value: t.Name},
		ExtraHeader{Key: "tagger", Value: t.Tagger.encode()},
	)
	headers = append(headers, t.ExtraHeaders...)

	var buf bytes.Buffer
	buf.Write(encodeHeaders(headers))
	buf.WriteByte('\n')
	buf.WriteString(t.Message)
	if withSignature {
		buf.WriteString(t.PGPSignature)
	}
	return buf.Bytes()
}
