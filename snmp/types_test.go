package snmp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOIDRoundTrip(t *testing.T) {
	oid, err := ParseOID("1.3.6.1.2.1.1.1.0")
	require.NoError(t, err)
	assert.Equal(t, OID{1, 3, 6, 1, 2, 1, 1, 1, 0}, oid)
	assert.Equal(t, "1.3.6.1.2.1.1.1.0", oid.String())
}

func TestParseOIDTrimsDots(t *testing.T) {
	oid, err := ParseOID(".1.3.6.1.")
	require.NoError(t, err)
	assert.Equal(t, OID{1, 3, 6, 1}, oid)
}

func TestParseOIDRejectsMalformed(t *testing.T) {
	for _, s := range []string{"", ".", "1", "1.a.3", "-1.3"} {
		_, err := ParseOID(s)
		assert.Error(t, err, "input %q", s)
	}
}

func TestOIDEqual(t *testing.T) {
	a := OID{1, 3, 6, 1}
	b := OID{1, 3, 6, 1}
	c := OID{1, 3, 6, 2}
	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
	assert.False(t, a.Equal(OID{1, 3, 6}))
}

func TestOIDHasPrefix(t *testing.T) {
	root := OID{1, 3, 6, 1, 2, 1, 1}
	child := OID{1, 3, 6, 1, 2, 1, 1, 1, 0}
	sibling := OID{1, 3, 6, 1, 2, 1, 2, 1, 0}
	assert.True(t, child.HasPrefix(root))
	assert.False(t, sibling.HasPrefix(root))
	assert.True(t, root.HasPrefix(root))
	assert.False(t, root.HasPrefix(child))
}

func TestOIDCompare(t *testing.T) {
	assert.Equal(t, 0, OID{1, 2, 3}.Compare(OID{1, 2, 3}))
	assert.Equal(t, -1, OID{1, 2, 3}.Compare(OID{1, 2, 4}))
	assert.Equal(t, 1, OID{1, 2, 4}.Compare(OID{1, 2, 3}))
	assert.Equal(t, -1, OID{1, 2}.Compare(OID{1, 2, 0}))
	assert.Equal(t, 1, OID{1, 2, 0}.Compare(OID{1, 2}))
}

func TestOIDCloneIsIndependent(t *testing.T) {
	original := OID{1, 2, 3}
	clone := original.Clone()
	clone[0] = 99
	assert.Equal(t, uint32(1), original[0])
}

func TestNewVarbindValidatesTypeValueMatch(t *testing.T) {
	_, err := NewVarbind(OID{1, 3, 6}, TypeInteger, "not an int")
	assert.ErrorIs(t, err, ErrTypeInformationLost)

	vb, err := NewVarbind(OID{1, 3, 6}, TypeInteger, int32(42))
	require.NoError(t, err)
	n, err := vb.Int()
	require.NoError(t, err)
	assert.EqualValues(t, 42, n)
}

func TestNewVarbindAcceptsNullAndExceptionsWithoutValue(t *testing.T) {
	vb, err := NewVarbind(OID{1, 3, 6}, TypeNull, nil)
	require.NoError(t, err)
	assert.Nil(t, vb.Value)

	vb, err = NewVarbind(OID{1, 3, 6}, TypeEndOfMibView, "ignored")
	require.NoError(t, err)
	assert.Nil(t, vb.Value)
	assert.True(t, vb.Type.IsException())
}

func TestVarbindIntAcceptsAllIntegerShapedTypes(t *testing.T) {
	vb, _ := NewVarbind(OID{1}, TypeCounter32, uint32(7))
	n, err := vb.Int()
	require.NoError(t, err)
	assert.EqualValues(t, 7, n)

	vb, _ = NewVarbind(OID{1}, TypeCounter64, uint64(1<<40))
	n, err = vb.Int()
	require.NoError(t, err)
	assert.EqualValues(t, 1<<40, n)
}

func TestVarbindIntRejectsNonIntegerShaped(t *testing.T) {
	vb, _ := NewVarbind(OID{1}, TypeOctetString, []byte("hi"))
	_, err := vb.Int()
	assert.Error(t, err)
}

func TestVarbindBytesAcceptsOctetOpaqueAndIPAddress(t *testing.T) {
	vb, _ := NewVarbind(OID{1}, TypeOctetString, []byte("Router"))
	b, err := vb.Bytes()
	require.NoError(t, err)
	assert.Equal(t, []byte("Router"), b)

	vb, _ = NewVarbind(OID{1}, TypeIPAddress, []byte{192, 0, 2, 1})
	b, err = vb.Bytes()
	require.NoError(t, err)
	assert.Equal(t, []byte{192, 0, 2, 1}, b)
}

func TestVarbindAsOID(t *testing.T) {
	vb, _ := NewVarbind(OID{1}, TypeObjectIdentifier, OID{1, 3, 6, 1, 4, 1, 999})
	oid, err := vb.AsOID()
	require.NoError(t, err)
	assert.Equal(t, OID{1, 3, 6, 1, 4, 1, 999}, oid)
}

func TestVarbindAsOIDRejectsWrongType(t *testing.T) {
	vb, _ := NewVarbind(OID{1}, TypeInteger, int32(1))
	_, err := vb.AsOID()
	assert.Error(t, err)
}
