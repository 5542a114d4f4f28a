package snmp

import (
	"github.com/pkg/errors"

	"github.com/northfield-labs/snmpcore/ber"
)

// PDUType identifies the kind of SNMP protocol data unit, tagged on the
// wire by a context-specific constructed tag.
type PDUType ber.Tag

const (
	PDUGet         PDUType = PDUType(0xA0)
	PDUGetNext     PDUType = PDUType(0xA1)
	PDUGetResponse PDUType = PDUType(0xA2)
	PDUSet         PDUType = PDUType(0xA3)
	PDUTrapV1      PDUType = PDUType(0xA4)
	PDUGetBulk     PDUType = PDUType(0xA5)
	PDUInform      PDUType = PDUType(0xA6)
	PDUTrapV2      PDUType = PDUType(0xA7)
	PDUReport      PDUType = PDUType(0xA8)
)

func (t PDUType) String() string {
	switch t {
	case PDUGet:
		return "get"
	case PDUGetNext:
		return "get_next"
	case PDUGetResponse:
		return "get_response"
	case PDUSet:
		return "set"
	case PDUTrapV1:
		return "trap_v1"
	case PDUGetBulk:
		return "get_bulk"
	case PDUInform:
		return "inform"
	case PDUTrapV2:
		return "trap_v2"
	case PDUReport:
		return "report"
	default:
		return "unknown"
	}
}

// IsBulk reports whether t uses the (non_repeaters, max_repetitions) field
// pair instead of (error_status, error_index).
func (t PDUType) IsBulk() bool {
	return t == PDUGetBulk
}

// PDU is a tagged record carrying a request id, either an error-status
// pair or a GET-BULK parameter pair, and a varbind list. For requests, the
// initial varbind values are null except for Set. For responses,
// ErrorIndex refers to the 1-based position within the varbind list, or 0.
type PDU struct {
	Type PDUType

	RequestID int32

	// Valid when !Type.IsBulk().
	ErrorStatus int
	ErrorIndex  int

	// Valid when Type.IsBulk().
	NonRepeaters   int
	MaxRepetitions int

	Varbinds []Varbind
}

// Encode renders the PDU as its tagged TLV, suitable for embedding inside
// a message envelope.
func (p PDU) Encode() ([]byte, error) {
	var vbs [][]byte
	for _, vb := range p.Varbinds {
		valueTLV, err := encodeValue(vb)
		if err != nil {
			return nil, err
		}
		vbs = append(vbs, ber.Sequence(ber.ObjectIdentifier([]uint32(vb.OID)), valueTLV))
	}

	field2 := p.ErrorStatus
	field3 := p.ErrorIndex
	if p.Type.IsBulk() {
		field2 = p.NonRepeaters
		field3 = p.MaxRepetitions
	}

	var content []byte
	content = append(content, ber.Integer(int64(p.RequestID))...)
	content = append(content, ber.Integer(int64(field2))...)
	content = append(content, ber.Integer(int64(field3))...)
	content = append(content, ber.Sequence(vbs...)...)

	return ber.WriteTLV(ber.Tag(p.Type), content), nil
}

// DecodePDU decodes a PDU from its outer TLV, whose Tag selects PDUType.
func DecodePDU(tlv ber.TLV) (PDU, error) {
	pduType := PDUType(tlv.Tag)

	seqTLV := ber.TLV{Tag: ber.TagSequence, Content: tlv.Content}
	fields, err := readSequenceMembers(seqTLV)
	if err != nil {
		return PDU{}, err
	}
	if len(fields) != 4 {
		return PDU{}, errors.Errorf("snmp: pdu expects 4 fields, got %d", len(fields))
	}

	requestID, err := ber.DecodeInteger(fields[0].Content)
	if err != nil {
		return PDU{}, errors.Wrap(err, "snmp: pdu request-id")
	}
	f2, err := ber.DecodeInteger(fields[1].Content)
	if err != nil {
		return PDU{}, errors.Wrap(err, "snmp: pdu field 2")
	}
	f3, err := ber.DecodeInteger(fields[2].Content)
	if err != nil {
		return PDU{}, errors.Wrap(err, "snmp: pdu field 3")
	}

	varbinds, err := decodeVarbindList(fields[3])
	if err != nil {
		return PDU{}, err
	}

	pdu := PDU{
		Type:      pduType,
		RequestID: int32(requestID),
		Varbinds:  varbinds,
	}
	if pduType.IsBulk() {
		pdu.NonRepeaters = int(f2)
		pdu.MaxRepetitions = int(f3)
	} else {
		pdu.ErrorStatus = int(f2)
		pdu.ErrorIndex = int(f3)
	}
	return pdu, nil
}

// readSequenceMembers decodes tlv's content (which must be a SEQUENCE) into
// its immediate child TLVs, preserving order.
func readSequenceMembers(tlv ber.TLV) ([]ber.TLV, error) {
	if tlv.Tag != ber.TagSequence {
		return nil, errors.Wrap(ber.ErrInvalidTag, "snmp: expected sequence")
	}
	var members []ber.TLV
	rest := tlv.Content
	for len(rest) > 0 {
		var member ber.TLV
		var err error
		member, rest, err = ber.ReadTLV(rest)
		if err != nil {
			return nil, err
		}
		members = append(members, member)
	}
	return members, nil
}

func decodeVarbindList(listTLV ber.TLV) ([]Varbind, error) {
	members, err := readSequenceMembers(listTLV)
	if err != nil {
		return nil, err
	}

	varbinds := make([]Varbind, len(members))
	for i, member := range members {
		pair, err := readSequenceMembers(member)
		if err != nil {
			return nil, err
		}
		if len(pair) != 2 {
			return nil, errors.Errorf("snmp: varbind expects 2 fields, got %d", len(pair))
		}
		oidInts, err := ber.DecodeOID(pair[0].Content)
		if err != nil {
			return nil, errors.Wrap(err, "snmp: varbind oid")
		}
		typ, value, err := decodeValue(pair[1])
		if err != nil {
			return nil, err
		}
		if value == nil && typ != TypeNull && !typ.IsException() {
			return nil, errors.Errorf("snmp: malformed_response: null payload bound to type %s", typ)
		}
		varbinds[i] = Varbind{OID: OID(oidInts), Type: typ, Value: value}
	}
	return varbinds, nil
}
