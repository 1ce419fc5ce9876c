package object

import (
	"testing"
	"time"

	"github.com/go-gitcore/gitcore/hash"
	"github.com/go-gitcore/gitcore/pack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustID(t *testing.T, s string) hash.ObjectID {
	t.Helper()
	id, ok := hash.FromHex(s)
	require.True(t, ok, "invalid id %q", s)
	return id
}

func TestCommitEncodeDecodeRoundTrip(t *testing.T) {
	when := time.Unix(1427802494, 0).In(time.FixedZone("+0200", 2*60*60))
	c := &Commit{
		TreeID: mustID(t, "eba74343e2f15d62adedfd8c883ee0262b5c8021"),
		ParentIDs: []hash.ObjectID{
			mustID(t, "35e85108805c84807bc66a02d91535e1e24b38b9"),
			mustID(t, "a5b8b09e2f8fcb0bb99d3ccb0958157b40890d69"),
		},
		Author:    Signature{Name: "Máximo Cuadros Ortiz", Email: "mcuadros@gmail.com", When: when},
		Committer: Signature{Name: "Máximo Cuadros Ortiz", Email: "mcuadros@gmail.com", When: when},
		Message:   "Merge branch 'master' of github.com:tyba/git-fixture\n",
	}

	payload, err := c.Encode()
	require.NoError(t, err)
	assert.Equal(t, ""+
		"tree eba74343e2f15d62adedfd8c883ee0262b5c8021\n"+
		"parent 35e85108805c84807bc66a02d91535e1e24b38b9\n"+
		"parent a5b8b09e2f8fcb0bb99d3ccb0958157b40890d69\n"+
		"author Máximo Cuadros Ortiz <mcuadros@gmail.com> 1427802494 +0200\n"+
		"committer Máximo Cuadros Ortiz <mcuadros@gmail.com> 1427802494 +0200\n"+
		"\n"+
		"Merge branch 'master' of github.com:tyba/git-fixture\n",
		string(payload))

	decoded, err := DecodeCommit(hash.ObjectID{}, pack.KindCommit, payload)
	require.NoError(t, err)
	assert.Equal(t, c.TreeID, decoded.TreeID)
	assert.Equal(t, c.ParentIDs, decoded.ParentIDs)
	assert.Equal(t, c.Author.Name, decoded.Author.Name)
	assert.Equal(t, c.Author.Email, decoded.Author.Email)
	assert.True(t, c.Author.When.Equal(decoded.Author.When))
	assert.Equal(t, c.Message, decoded.Message)
	assert.Equal(t, 2, decoded.NumParents())
}

func TestCommitDecodeWrongKind(t *testing.T) {
	_, err := DecodeCommit(hash.ObjectID{}, pack.KindBlob, []byte("whatever"))
	assert.ErrorIs(t, err, ErrUnsupportedObject)
}

func TestCommitPGPSignatureRoundTrip(t *testing.T) {
	pgpsignature := `-----BEGIN PGP SIGNATURE-----

iQEcBAABAgAGBQJTZbQlAAoJEF0+sviABDDrZbQH/09PfE51KPVPlanr6q1v4/Ut
=EFTF
-----END PGP SIGNATURE-----
`
	c := &Commit{
		TreeID:       mustID(t, "eba74343e2f15d62adedfd8c883ee0262b5c8021"),
		Author:       Signature{Name: "A", Email: "a@example.com"},
		Committer:    Signature{Name: "A", Email: "a@example.com"},
		Message:      "msg\n",
		PGPSignature: pgpsignature,
	}

	payload, err := c.Encode()
	require.NoError(t, err)

	decoded, err := DecodeCommit(hash.ObjectID{}, pack.KindCommit, payload)
	require.NoError(t, err)
	assert.Equal(t, pgpsignature, decoded.PGPSignature)
	assert.Equal(t, pgpsignature, decoded.Signature())

	without, err := c.EncodeWithoutSignature()
	require.NoError(t, err)
	assert.NotContains(t, string(without), "gpgsig")
	assert.NotContains(t, string(without), "BEGIN PGP SIGNATURE")
}

func TestCommitEncodeWithoutSignatureJujutsuStyle(t *testing.T) {
	raw := []byte(`tree 4b825dc642cb6eb9a060e54bf8d69288fbee4904
author John Doe <john.doe@example.com> 1755280730 -0700
committer John Doe <john.doe@example.com> 1755280730 -0700
change-id wxmuynokkzxmuwxwvnnpnptoyuypknwv
gpgsig -----BEGIN PGP SIGNATURE-----
 
 iHUEABMIAB0WIQSZpnSpGKbQbDaLe5iiNQl48cTY5gUCaJ91XQAKCRCiNQl48cTY
 5vCYAP9Sf1yV9oUviRIxEA+4rsGIx0hI6kqFajJ/3TtBjyCTggD+PFnKOxdXeFL2
 GLwcCzFIsmQmkLxuLypsg+vueDSLpsM=
 =VucY
 -----END PGP SIGNATURE-----

initial commit

Change-Id: I6a6a696432d51cbff02d53234ccaca6b151afc34
`)

	commit, err := DecodeCommit(hash.ObjectID{}, pack.KindCommit, raw)
	require.NoError(t, err)

	without, err := commit.EncodeWithoutSignature()
	require.NoError(t, err)
	assert.Equal(t, `tree 4b825dc642cb6eb9a060e54bf8d69288fbee4904
author John Doe <john.doe@example.com> 1755280730 -0700
committer John Doe <john.doe@example.com> 1755280730 -0700
change-id wxmuynokkzxmuwxwvnnpnptoyuypknwv

initial commit

Change-Id: I6a6a696432d51cbff02d53234ccaca6b151afc34
`, string(without))

	value, ok := commit.ExtraHeader("change-id")
	assert.True(t, ok)
	assert.Equal(t, "wxmuynokkzxmuwxwvnnpnptoyuypknwv", value)

	_, ok = commit.ExtraHeader("mergetag")
	assert.False(t, ok)
}

func TestDecodeSignature(t *testing.T) {
	sig := decodeSignature("Foo Bar <foo@example.com> 1617402711 +0000")
	assert.Equal(t, "Foo Bar", sig.Name)
	assert.Equal(t, "foo@example.com", sig.Email)
	assert.Equal(t, int64(1617402711), sig.When.Unix())
}

func TestDecodeSignatureMalformed(t *testing.T) {
	sig := decodeSignature("\n")
	assert.Equal(t, "", sig.Name)
	assert.True(t, sig.When.IsZero())
}
