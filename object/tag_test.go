package object

import (
	"testing"
	"time"

	"github.com/go-gitcore/gitcore/hash"
	"github.com/go-gitcore/gitcore/pack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTagEncodeWithoutSignature(t *testing.T) {
	when := time.Unix(1474485215, 0).In(time.FixedZone("+0200", 2*60*60))
	tag := &Tag{
		TargetID:   mustID(t, "f7b877701fbf855b44c0a9e86f3fdce2c298b07f"),
		TargetKind: pack.KindCommit,
		Name:       "annotated-tag",
		Tagger:     Signature{Name: "Máximo Cuadros", Email: "mcuadros@gmail.com", When: when},
		Message:    "example annotated tag\n",
	}

	payload, err := tag.EncodeWithoutSignature()
	require.NoError(t, err)
	assert.Equal(t, ""+
		"object f7b877701fbf855b44c0a9e86f3fdce2c298b07f\n"+
		"type commit\n"+
		"tag annotated-tag\n"+
		"tagger Máximo Cuadros <mcuadros@gmail.com> 1474485215 +0200\n"+
		"\n"+
		"example annotated tag\n",
		string(payload))
}

func TestTagPGPSignatureRoundTrip(t *testing.T) {
	pgpsignature := `-----BEGIN PGP SIGNATURE-----

iQEcBAABAgAGBQJTZbQlAAoJEF0+sviABDDrZbQH/09PfE51KPVPlanr6q1v4/Ut
=EFTF
-----END PGP SIGNATURE-----
`
	tag := &Tag{
		TargetID:     mustID(t, "f7b877701fbf855b44c0a9e86f3fdce2c298b07f"),
		TargetKind:   pack.KindCommit,
		Name:         "annotated-tag",
		Tagger:       Signature{Name: "A", Email: "a@example.com"},
		Message:      "example annotated tag\n",
		PGPSignature: pgpsignature,
	}

	payload, err := tag.Encode()
	require.NoError(t, err)

	decoded, err := DecodeTag(hash.ObjectID{}, pack.KindTag, payload)
	require.NoError(t, err)
	assert.Equal(t, pgpsignature, decoded.PGPSignature)
	assert.Equal(t, pgpsignature, decoded.Signature())
	assert.Equal(t, "example annotated tag\n", decoded.Message)
}

func TestTagDecodeAndVerifyFixture(t *testing.T) {
	objectText := []byte(`object 7dba2f128d1298e385b28b56a7e1c579779eac82
type commit
tag v1.6
tagger Filip Navara <filip.navara@gmail.com> 1555269936 +0200

Hello

world

boo
-----BEGIN PGP SIGNATURE-----

iQEzBAABCAAdFiEEdRIEYXeoLk1t7PBDqeqoMkraaZ4FAlyziT4ACgkQqeqoMkra
aZ502wgAxG4+69l8PYfq45u1R3CCf4x0m5WwcYwvaa4ang0S9mExh/C32NHnpM/V
=t5Px
-----END PGP SIGNATURE-----

`)

	tag, err := DecodeTag(hash.ObjectID{}, pack.KindTag, objectText)
	require.NoError(t, err)

	assert.Equal(t, "v1.6", tag.Name)
	assert.Equal(t, "Hello\n\nworld\n\nboo\n", tag.Message)
	assert.Contains(t, tag.PGPSignature, "-----BEGIN PGP SIGNATURE-----")
	assert.Contains(t, tag.PGPSignature, "-----END PGP SIGNATURE-----")
}

func TestTagDecodeWrongKind(t *testing.T) {
	_, err := DecodeTag(hash.ObjectID{}, pack.KindBlob, []byte("whatever"))
	assert.ErrorIs(t, err, ErrUnsupportedObject)
}
