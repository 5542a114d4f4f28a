package snmp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/northfield-labs/snmpcore/ber"
)

func encodeTrapV1(enterprise OID, agentAddr [4]byte, generic, specific int, timestamp uint32, vbs []Varbind) []byte {
	var vbList [][]byte
	for _, vb := range vbs {
		valueTLV, _ := encodeValue(vb)
		vbList = append(vbList, ber.Sequence(ber.ObjectIdentifier([]uint32(vb.OID)), valueTLV))
	}
	var content []byte
	content = append(content, ber.ObjectIdentifier([]uint32(enterprise))...)
	content = append(content, ber.IPAddress(agentAddr)...)
	content = append(content, ber.Integer(int64(generic))...)
	content = append(content, ber.Integer(int64(specific))...)
	content = append(content, ber.TimeTicks(timestamp)...)
	content = append(content, ber.Sequence(vbList...)...)
	return ber.WriteTLV(ber.Tag(PDUTrapV1), content)
}

func TestDecodeTrapV1RoundTrip(t *testing.T) {
	enterprise := OID{1, 3, 6, 1, 4, 1, 8072}
	vb, _ := NewVarbind(OID{1, 3, 6, 1, 2, 1, 1, 1, 0}, TypeOctetString, []byte("linkDown"))

	encoded := encodeTrapV1(enterprise, [4]byte{192, 0, 2, 1}, 2, 0, 54321, []Varbind{vb})
	tlv, err := ber.Strict(encoded)
	require.NoError(t, err)

	trap, err := DecodeTrapV1(tlv)
	require.NoError(t, err)
	assert.True(t, trap.Enterprise.Equal(enterprise))
	assert.Equal(t, []byte{192, 0, 2, 1}, trap.AgentAddress)
	assert.Equal(t, 2, trap.GenericTrap)
	assert.Equal(t, 0, trap.SpecificTrap)
	assert.EqualValues(t, 54321, trap.Timestamp)
	require.Len(t, trap.Varbinds, 1)
	assert.Equal(t, []byte("linkDown"), trap.Varbinds[0].Value)
}

func TestDecodeTrapV1RejectsWrongTag(t *testing.T) {
	tlv, err := ber.Strict(ber.WriteTLV(ber.Tag(PDUGet), ber.Sequence()))
	require.NoError(t, err)
	_, err = DecodeTrapV1(tlv)
	assert.Error(t, err)
}

func TestDecodeInformRequestExtractsConventionalLeadingVarbinds(t *testing.T) {
	upTime, _ := NewVarbind(sysUpTimeOID, TypeTimeTicks, uint32(99999))
	trapOID, _ := NewVarbind(snmpTrapOIDVal, TypeObjectIdentifier, OID{1, 3, 6, 1, 4, 1, 8072, 2, 3, 0, 1})
	extra, _ := NewVarbind(OID{1, 3, 6, 1, 2, 1, 1, 1, 0}, TypeOctetString, []byte("extra"))

	pdu := PDU{Type: PDUTrapV2, RequestID: 1, Varbinds: []Varbind{upTime, trapOID, extra}}
	inform, err := DecodeInformRequest(pdu)
	require.NoError(t, err)
	assert.EqualValues(t, 99999, inform.SysUpTime)
	assert.Equal(t, OID{1, 3, 6, 1, 4, 1, 8072, 2, 3, 0, 1}, inform.TrapOID)
	require.Len(t, inform.PDU.Varbinds, 3)
}

func TestDecodeInformRequestRejectsWrongPDUType(t *testing.T) {
	_, err := DecodeInformRequest(PDU{Type: PDUGet})
	assert.Error(t, err)
}

func TestDecodeInformRequestRejectsMissingSysUpTime(t *testing.T) {
	trapOID, _ := NewVarbind(snmpTrapOIDVal, TypeObjectIdentifier, OID{1, 3, 6, 1, 4, 1, 8072, 2, 3, 0, 1})
	other, _ := NewVarbind(OID{1, 3, 6, 1, 2, 1, 1, 1, 0}, TypeOctetString, []byte("x"))

	pdu := PDU{Type: PDUInform, Varbinds: []Varbind{other, trapOID}}
	_, err := DecodeInformRequest(pdu)
	assert.Error(t, err)
}
