package ber

import (
	"encoding/asn1"
	"testing"

	"github.com/geoffgarside/ber"
	"github.com/stretchr/testify/require"
)

// These tests cross-check this package's low-level TLV reader against the
// independent BER decoder the rest of the module's history relied on
// (github.com/geoffgarside/ber), on a small SEQUENCE shaped like an SNMP
// varbind. Agreement here means a bug in one codec is very unlikely to be
// masked by a matching bug in the other.
type conformanceVarbind struct {
	OID   asn1.ObjectIdentifier
	Value int
}

func TestConformanceAgreesWithReferenceDecoder(t *testing.T) {
	in := conformanceVarbind{OID: asn1.ObjectIdentifier{1, 3, 6, 1, 2, 1, 1, 3, 0}, Value: 12345}

	encoded, err := ber.Marshal(in)
	require.NoError(t, err)

	top, err := Strict(encoded)
	require.NoError(t, err)
	require.Equal(t, TagSequence, top.Tag)

	oidTLV, rest, err := ReadTLV(top.Content)
	require.NoError(t, err)
	require.Equal(t, TagObjectIdentifier, oidTLV.Tag)

	gotOID, err := DecodeOID(oidTLV.Content)
	require.NoError(t, err)

	wantOID := make([]uint32, len(in.OID))
	for i, c := range in.OID {
		wantOID[i] = uint32(c)
	}
	require.Equal(t, wantOID, gotOID)

	valueTLV, rest, err := ReadTLV(rest)
	require.NoError(t, err)
	require.Empty(t, rest)
	require.Equal(t, TagInteger, valueTLV.Tag)

	gotValue, err := DecodeInteger(valueTLV.Content)
	require.NoError(t, err)
	require.EqualValues(t, in.Value, gotValue)

	var out conformanceVarbind
	_, err = ber.Unmarshal(encoded, &out)
	require.NoError(t, err)
	require.Equal(t, in.OID, out.OID)
	require.Equal(t, in.Value, out.Value)
}
