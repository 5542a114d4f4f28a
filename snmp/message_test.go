package snmp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/northfield-labs/snmpcore/usm"
)

func TestMessageRoundTripV2c(t *testing.T) {
	vb, err := NewVarbind(OID{1, 3, 6, 1, 2, 1, 1, 1, 0}, TypeOctetString, []byte("Router"))
	require.NoError(t, err)

	msg := Message{
		Version:   V2c,
		Community: []byte("public"),
		PDU:       PDU{Type: PDUGet, RequestID: 1, Varbinds: []Varbind{vb}},
	}
	encoded, err := EncodeMessage(msg, nil)
	require.NoError(t, err)

	decoded, err := DecodeMessage(encoded, nil)
	require.NoError(t, err)
	assert.Equal(t, V2c, decoded.Version)
	assert.Equal(t, []byte("public"), decoded.Community)
	assert.Equal(t, int32(1), decoded.PDU.RequestID)
	require.Len(t, decoded.PDU.Varbinds, 1)
	assert.Equal(t, []byte("Router"), decoded.PDU.Varbinds[0].Value)
}

func TestMessageRoundTripV1NoMaxRepetitionsField(t *testing.T) {
	vb, err := NewVarbind(OID{1, 3, 6, 1, 2, 1, 1}, TypeNull, nil)
	require.NoError(t, err)

	msg := Message{
		Version:   V1,
		Community: []byte("public"),
		PDU:       PDU{Type: PDUGetNext, RequestID: 2, Varbinds: []Varbind{vb}},
	}
	encoded, err := EncodeMessage(msg, nil)
	require.NoError(t, err)

	decoded, err := DecodeMessage(encoded, nil)
	require.NoError(t, err)
	assert.Equal(t, V1, decoded.Version)
	assert.Equal(t, 0, decoded.PDU.MaxRepetitions)
	assert.Equal(t, 0, decoded.PDU.ErrorStatus)
}

func TestMessageRoundTripV3NoAuthNoPriv(t *testing.T) {
	vb, err := NewVarbind(OID{1, 3, 6, 1, 2, 1, 1, 1, 0}, TypeNull, nil)
	require.NoError(t, err)

	msg := Message{
		Version:       V3,
		MsgID:         42,
		MaxSize:       65507,
		Reportable:    true,
		SecurityModel: 3,
		SecurityParameters: USMSecurityParameters{
			AuthoritativeEngineID: []byte("engine-id"),
			UserName:              "alice",
		},
		ContextName: []byte(""),
		PDU:         PDU{Type: PDUGet, RequestID: 42, Varbinds: []Varbind{vb}},
	}
	encoded, err := EncodeMessage(msg, nil)
	require.NoError(t, err)

	decoded, err := DecodeMessage(encoded, nil)
	require.NoError(t, err)
	assert.Equal(t, V3, decoded.Version)
	assert.False(t, decoded.Auth)
	assert.False(t, decoded.Priv)
	assert.True(t, decoded.Reportable)
	assert.Equal(t, "alice", decoded.SecurityParameters.UserName)
	assert.Equal(t, int32(42), decoded.PDU.RequestID)
}

// TestMessageRoundTripV3AuthPriv covers Scenario S5: SHA256 auth, AES256
// priv, a 9-byte engine id, and a verified 16-byte authentication tag on
// the wire produced via a 12-byte placeholder during the HMAC pass.
func TestMessageRoundTripV3AuthPriv(t *testing.T) {
	engineID := []byte{0x80, 0x00, 0x1f, 0x88, 0x01, 0xaa, 0xbb, 0xcc, 0x01}
	require.Len(t, engineID, 9)

	secCtx := usm.NewSecurityContext("alice", usm.AuthSHA256, "authpassword1", usm.PrivAES256, "privpassword1")

	vb, err := NewVarbind(OID{1, 3, 6, 1, 2, 1, 1, 3, 0}, TypeTimeTicks, uint32(98765))
	require.NoError(t, err)

	msg := Message{
		Version:       V3,
		MsgID:         7,
		MaxSize:       65507,
		Auth:          true,
		Priv:          true,
		Reportable:    true,
		SecurityModel: 3,
		SecurityParameters: USMSecurityParameters{
			AuthoritativeEngineID:    engineID,
			AuthoritativeEngineBoots: 3,
			AuthoritativeEngineTime:  12000,
			UserName:                 "alice",
		},
		ContextName: []byte(""),
		PDU:         PDU{Type: PDUGetResponse, RequestID: 7, Varbinds: []Varbind{vb}},
	}

	encoded, err := EncodeMessage(msg, secCtx)
	require.NoError(t, err)

	decoded, err := DecodeMessage(encoded, secCtx)
	require.NoError(t, err)

	assert.Equal(t, 16, usm.AuthSHA256.TruncatedSize())
	assert.Len(t, decoded.SecurityParameters.AuthenticationParameters, 16)
	assert.Equal(t, "alice", decoded.SecurityParameters.UserName)
	require.Len(t, decoded.PDU.Varbinds, 1)
	assert.Equal(t, TypeTimeTicks, decoded.PDU.Varbinds[0].Type)
	assert.EqualValues(t, 98765, decoded.PDU.Varbinds[0].Value)
}

func TestMessageV3AuthRejectsTamperedContent(t *testing.T) {
	engineID := []byte{0x80, 0x00, 0x1f, 0x88, 0x01, 0xaa, 0xbb, 0xcc, 0x01}
	secCtx := usm.NewSecurityContext("alice", usm.AuthSHA1, "authpassword1", usm.PrivDES, "privpassword1")

	vb, err := NewVarbind(OID{1, 3, 6, 1, 2, 1, 1, 3, 0}, TypeTimeTicks, uint32(1))
	require.NoError(t, err)

	msg := Message{
		Version:       V3,
		MsgID:         8,
		MaxSize:       65507,
		Auth:          true,
		Reportable:    true,
		SecurityModel: 3,
		SecurityParameters: USMSecurityParameters{
			AuthoritativeEngineID:    engineID,
			AuthoritativeEngineBoots: 1,
			AuthoritativeEngineTime:  1,
			UserName:                 "alice",
		},
		PDU: PDU{Type: PDUGetResponse, RequestID: 8, Varbinds: []Varbind{vb}},
	}
	encoded, err := EncodeMessage(msg, secCtx)
	require.NoError(t, err)

	// Flip a byte near the end of the wire form (within the scoped PDU
	// region) so the authenticated content no longer matches the tag.
	tampered := append([]byte{}, encoded...)
	tampered[len(tampered)-1] ^= 0xFF

	_, err = DecodeMessage(tampered, secCtx)
	assert.Error(t, err)
}

func TestMessageV3RequiresSecurityContextWhenAuthFlagSet(t *testing.T) {
	vb, err := NewVarbind(OID{1, 3, 6, 1, 2, 1, 1, 3, 0}, TypeNull, nil)
	require.NoError(t, err)
	secCtx := usm.NewSecurityContext("alice", usm.AuthMD5, "authpassword1", usm.NoPriv, "")

	msg := Message{
		Version:       V3,
		MsgID:         9,
		MaxSize:       65507,
		Auth:          true,
		Reportable:    true,
		SecurityModel: 3,
		SecurityParameters: USMSecurityParameters{
			AuthoritativeEngineID: []byte("engine-id"),
			UserName:              "alice",
		},
		PDU: PDU{Type: PDUGet, RequestID: 9, Varbinds: []Varbind{vb}},
	}
	encoded, err := EncodeMessage(msg, secCtx)
	require.NoError(t, err)

	_, err = DecodeMessage(encoded, nil)
	assert.Error(t, err)
}
