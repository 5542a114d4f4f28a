package snmp

import (
	"github.com/pkg/errors"

	"github.com/northfield-labs/snmpcore/ber"
)

// ExtractRequestID recovers the mux-level correlation id from a raw
// inbound datagram without fully decoding or authenticating it, for use
// as transport.MuxHooks.ExtractRequestID. A Session always sets a
// message's PDU request id and (for v3) its msg id to the same value
// obtained from Mux.NextRequestID, so either field recovers the same id
// regardless of version.
func ExtractRequestID(data []byte) (int32, error) {
	top, err := ber.Strict(data)
	if err != nil {
		return 0, err
	}
	fields, err := readSequenceMembers(top)
	if err != nil {
		return 0, err
	}
	if len(fields) == 0 {
		return 0, errors.New("snmp: empty message")
	}

	version, err := ber.DecodeInteger(fields[0].Content)
	if err != nil {
		return 0, err
	}

	switch Version(version) {
	case V1, V2c:
		if len(fields) != 3 {
			return 0, ErrMalformedResponse
		}
		requestIDField, _, err := ber.ReadTLV(fields[2].Content)
		if err != nil {
			return 0, err
		}
		id, err := ber.DecodeInteger(requestIDField.Content)
		return int32(id), err
	case V3:
		if len(fields) != 4 {
			return 0, ErrMalformedResponse
		}
		globalData, err := readSequenceMembers(fields[1])
		if err != nil {
			return 0, err
		}
		if len(globalData) == 0 {
			return 0, ErrMalformedResponse
		}
		id, err := ber.DecodeInteger(globalData[0].Content)
		return int32(id), err
	default:
		return 0, errors.Errorf("snmp: unsupported version %d", version)
	}
}
