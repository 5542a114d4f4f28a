package snmp

import (
	"github.com/pkg/errors"

	"github.com/northfield-labs/snmpcore/ber"
)

// encodeValue renders a varbind's (Type, Value) pair as a single TLV.
func encodeValue(v Varbind) ([]byte, error) {
	switch v.Type {
	case TypeInteger:
		return ber.Integer(int64(v.Value.(int32))), nil
	case TypeOctetString:
		return ber.OctetString(v.Value.([]byte)), nil
	case TypeNull:
		return ber.Null(), nil
	case TypeObjectIdentifier:
		return ber.ObjectIdentifier([]uint32(v.Value.(OID))), nil
	case TypeIPAddress:
		var addr [4]byte
		copy(addr[:], v.Value.([]byte))
		return ber.IPAddress(addr), nil
	case TypeCounter32:
		return ber.Counter32(v.Value.(uint32)), nil
	case TypeGauge32:
		return ber.Gauge32(v.Value.(uint32)), nil
	case TypeTimeTicks:
		return ber.TimeTicks(v.Value.(uint32)), nil
	case TypeOpaque:
		return ber.Opaque(v.Value.([]byte)), nil
	case TypeCounter64:
		return ber.Counter64(v.Value.(uint64)), nil
	case TypeNoSuchObject:
		return ber.WriteTLV(ber.TagNoSuchObject, nil), nil
	case TypeNoSuchInstance:
		return ber.WriteTLV(ber.TagNoSuchInstance, nil), nil
	case TypeEndOfMibView:
		return ber.WriteTLV(ber.TagEndOfMibView, nil), nil
	default:
		return nil, errors.Errorf("snmp: unsupported varbind type %s", v.Type)
	}
}

// decodeValue interprets a single TLV as a (Type, Value) pair. Any `null`
// payload bound to a non-null type signals a malformed peer response per
// the documented handling of defensively-formatted null values.
func decodeValue(tlv ber.TLV) (Type, interface{}, error) {
	switch tlv.Tag {
	case ber.TagInteger:
		v, err := ber.DecodeInteger(tlv.Content)
		if err != nil {
			return 0, nil, err
		}
		return TypeInteger, int32(v), nil
	case ber.TagOctetString:
		return TypeOctetString, append([]byte{}, tlv.Content...), nil
	case ber.TagNull:
		return TypeNull, nil, nil
	case ber.TagObjectIdentifier:
		oid, err := ber.DecodeOID(tlv.Content)
		if err != nil {
			return 0, nil, err
		}
		return TypeObjectIdentifier, OID(oid), nil
	case ber.TagIPAddress:
		addr, err := ber.DecodeIPAddress(tlv.Content)
		if err != nil {
			return 0, nil, err
		}
		return TypeIPAddress, append([]byte{}, addr[:]...), nil
	case ber.TagCounter32:
		v, err := ber.DecodeCounter32(tlv.Content)
		if err != nil {
			return 0, nil, err
		}
		return TypeCounter32, v, nil
	case ber.TagGauge32:
		v, err := ber.DecodeCounter32(tlv.Content)
		if err != nil {
			return 0, nil, err
		}
		return TypeGauge32, v, nil
	case ber.TagTimeTicks:
		v, err := ber.DecodeCounter32(tlv.Content)
		if err != nil {
			return 0, nil, err
		}
		return TypeTimeTicks, v, nil
	case ber.TagOpaque:
		return TypeOpaque, append([]byte{}, tlv.Content...), nil
	case ber.TagCounter64:
		v, err := ber.DecodeCounter64(tlv.Content)
		if err != nil {
			return 0, nil, err
		}
		return TypeCounter64, v, nil
	case ber.TagNoSuchObject:
		return TypeNoSuchObject, nil, nil
	case ber.TagNoSuchInstance:
		return TypeNoSuchInstance, nil, nil
	case ber.TagEndOfMibView:
		return TypeEndOfMibView, nil, nil
	default:
		return 0, nil, errors.Wrapf(ber.ErrUnsupportedTag, "tag 0x%02x", byte(tlv.Tag))
	}
}
