package snmp

import (
	"github.com/pkg/errors"

	"github.com/northfield-labs/snmpcore/ber"
)

// TrapV1 is a decoded SNMPv1 trap (RFC 1157 section 4.1.6), carried under
// PDUTrapV1. Unlike every other PDU type, a v1 trap does not share the
// (request_id, field2, field3, varbind_list) shape DecodePDU assumes: it
// carries an enterprise OID, the sending agent's address, and the
// generic/specific trap codes ahead of the varbind list, and has no
// request id to correlate against a reply (a trap is fire-and-forget).
type TrapV1 struct {
	Enterprise   OID
	AgentAddress []byte
	GenericTrap  int
	SpecificTrap int
	Timestamp    uint32
	Varbinds     []Varbind
}

// DecodeTrapV1 decodes a v1 trap PDU's tagged TLV. This is a decode-only
// helper: there is no EncodeTrapV1, since this toolkit never originates
// traps, only receives them on a shared socket alongside ordinary
// request/response traffic.
func DecodeTrapV1(tlv ber.TLV) (TrapV1, error) {
	if tlv.Tag != ber.Tag(PDUTrapV1) {
		return TrapV1{}, errors.Errorf("snmp: expected trap-v1 tag, got 0x%02x", byte(tlv.Tag))
	}

	seqTLV := ber.TLV{Tag: ber.TagSequence, Content: tlv.Content}
	fields, err := readSequenceMembers(seqTLV)
	if err != nil {
		return TrapV1{}, err
	}
	if len(fields) != 6 {
		return TrapV1{}, errors.Errorf("snmp: trap-v1 expects 6 fields, got %d", len(fields))
	}

	enterprise, err := ber.DecodeOID(fields[0].Content)
	if err != nil {
		return TrapV1{}, errors.Wrap(err, "snmp: trap-v1 enterprise")
	}
	agentAddr, err := ber.DecodeIPAddress(fields[1].Content)
	if err != nil {
		return TrapV1{}, errors.Wrap(err, "snmp: trap-v1 agent-addr")
	}
	genericTrap, err := ber.DecodeInteger(fields[2].Content)
	if err != nil {
		return TrapV1{}, errors.Wrap(err, "snmp: trap-v1 generic-trap")
	}
	specificTrap, err := ber.DecodeInteger(fields[3].Content)
	if err != nil {
		return TrapV1{}, errors.Wrap(err, "snmp: trap-v1 specific-trap")
	}
	timestamp, err := ber.DecodeCounter32(fields[4].Content)
	if err != nil {
		return TrapV1{}, errors.Wrap(err, "snmp: trap-v1 time-stamp")
	}
	varbinds, err := decodeVarbindList(fields[5])
	if err != nil {
		return TrapV1{}, err
	}

	return TrapV1{
		Enterprise:   OID(enterprise),
		AgentAddress: append([]byte{}, agentAddr[:]...),
		GenericTrap:  int(genericTrap),
		SpecificTrap: int(specificTrap),
		Timestamp:    timestamp,
		Varbinds:     varbinds,
	}, nil
}

// sysUpTimeOID and snmpTrapOIDVal are the two varbinds RFC 3416 section 4
// requires as the first two entries of any v2c/v3 trap or inform PDU's
// varbind list.
var (
	sysUpTimeOID  = OID{1, 3, 6, 1, 2, 1, 1, 3, 0}
	snmpTrapOIDVal = OID{1, 3, 6, 1, 6, 3, 1, 1, 4, 1, 0}
)

// InformRequest is a decoded v2c/v3 inform-request or trap-v2 PDU. Both
// use the ordinary PDU wire shape DecodePDU already handles; this type
// exists to surface the two conventional leading varbinds
// (sysUpTime.0, snmpTrapOID.0) without the caller re-deriving them from
// the raw varbind list every time.
type InformRequest struct {
	PDU       PDU
	SysUpTime uint32
	TrapOID   OID
}

// DecodeInformRequest interprets an already-decoded PDU (of type
// PDUInform or PDUTrapV2) as an InformRequest, extracting its leading
// sysUpTime/snmpTrapOID varbinds. Varbinds beyond the first two, if any,
// remain available unfiltered on PDU.Varbinds.
func DecodeInformRequest(pdu PDU) (InformRequest, error) {
	if pdu.Type != PDUInform && pdu.Type != PDUTrapV2 {
		return InformRequest{}, errors.Errorf("snmp: expected inform or trap-v2 pdu, got %s", pdu.Type)
	}
	if len(pdu.Varbinds) < 2 {
		return InformRequest{}, errors.New("snmp: inform/trap-v2 requires at least sysUpTime.0 and snmpTrapOID.0")
	}
	if !pdu.Varbinds[0].OID.Equal(sysUpTimeOID) {
		return InformRequest{}, errors.New("snmp: first varbind is not sysUpTime.0")
	}
	sysUpTime, err := pdu.Varbinds[0].Int()
	if err != nil {
		return InformRequest{}, errors.Wrap(err, "snmp: sysUpTime.0")
	}
	if !pdu.Varbinds[1].OID.Equal(snmpTrapOIDVal) {
		return InformRequest{}, errors.New("snmp: second varbind is not snmpTrapOID.0")
	}
	trapOID, err := pdu.Varbinds[1].AsOID()
	if err != nil {
		return InformRequest{}, errors.Wrap(err, "snmp: snmpTrapOID.0")
	}

	return InformRequest{PDU: pdu, SysUpTime: uint32(sysUpTime), TrapOID: trapOID}, nil
}
