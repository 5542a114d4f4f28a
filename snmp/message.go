package snmp

import (
	"github.com/pkg/errors"

	"github.com/northfield-labs/snmpcore/ber"
	"github.com/northfield-labs/snmpcore/usm"
)

// Version identifies the SNMP protocol version carried by a message,
// dispatched on the outer sequence's first INTEGER child.
type Version int32

const (
	V1  Version = 0
	V2c Version = 1
	V3  Version = 3
)

// v3 message flag bits (RFC 3412 section 6.4).
const (
	flagAuth       byte = 0x01
	flagPriv       byte = 0x02
	flagReportable byte = 0x04
)

// USMSecurityParameters mirrors the wire structure carried inside a v3
// message's (OCTET STRING-wrapped) security-parameters field.
type USMSecurityParameters struct {
	AuthoritativeEngineID   []byte
	AuthoritativeEngineBoots int32
	AuthoritativeEngineTime  int32
	UserName                 string
	AuthenticationParameters []byte
	PrivacyParameters        []byte
}

// Message is a version tag plus its version-specific envelope. V1/V2c
// carry a community string; V3 carries the USM security parameters and a
// scoped PDU. A v3 message that sets the auth or priv flag must carry
// matching USM parameters and must have passed authentication/decryption
// before PDU is considered valid.
type Message struct {
	Version Version

	// v1/v2c
	Community []byte

	// v3
	MsgID              int32
	MaxSize            int32
	Auth               bool
	Priv               bool
	Reportable         bool
	SecurityModel      int32
	SecurityParameters USMSecurityParameters
	ContextEngineID    []byte
	ContextName        []byte

	PDU PDU
}

// ErrNotInTimeWindow tags a v3 message whose engine boots/time fall
// outside the permitted window. DecodeMessage does not compare a message's
// boots/time against cached values, so no function in this package
// returns it; Session.handleSecurityFailure drops the cached engine entry
// for an error that matches it.
var ErrNotInTimeWindow = errors.New("snmp: not_in_time_window")

// EncodeMessage renders msg as a complete wire datagram. secCtx is
// required (and used) only for v3 messages with Auth or Priv set.
func EncodeMessage(msg Message, secCtx *usm.SecurityContext) ([]byte, error) {
	pduBytes, err := msg.PDU.Encode()
	if err != nil {
		return nil, err
	}

	switch msg.Version {
	case V1, V2c:
		return ber.Sequence(
			ber.Integer(int64(msg.Version)),
			ber.OctetString(msg.Community),
			pduBytes,
		), nil
	case V3:
		return encodeV3(msg, pduBytes, secCtx)
	default:
		return nil, errors.Errorf("snmp: unsupported version %d", msg.Version)
	}
}

func encodeV3(msg Message, pduBytes []byte, secCtx *usm.SecurityContext) ([]byte, error) {
	flags := byte(0)
	if msg.Auth {
		flags |= flagAuth
	}
	if msg.Priv {
		flags |= flagPriv
	}
	if msg.Reportable {
		flags |= flagReportable
	}

	msgGlobalData := ber.Sequence(
		ber.Integer(int64(msg.MsgID)),
		ber.Integer(int64(msg.MaxSize)),
		ber.OctetString([]byte{flags}),
		ber.Integer(int64(msg.SecurityModel)),
	)

	scopedPDU := ber.Sequence(
		ber.OctetString(msg.ContextEngineID),
		ber.OctetString(msg.ContextName),
		pduBytes,
	)

	var scopedPDUField []byte
	privParams := msg.SecurityParameters.PrivacyParameters
	if msg.Priv {
		ciphertext, params, err := encryptScopedPDU(secCtx, msg.SecurityParameters, scopedPDU)
		if err != nil {
			return nil, err
		}
		scopedPDUField = ber.OctetString(ciphertext)
		privParams = params
	} else {
		scopedPDUField = scopedPDU
	}

	if !msg.Auth {
		securityParamsField := encodeUSMSecurityParameters(msg.SecurityParameters, nil, privParams)
		full := ber.Sequence(ber.Integer(int64(msg.Version)), msgGlobalData, securityParamsField, scopedPDUField)
		return full, nil
	}

	// Pass 1: compute the HMAC over the message serialized with the
	// fixed 12-byte zero placeholder in the authentication-parameters
	// field, regardless of the protocol's eventual digest size.
	placeholderField := encodeUSMSecurityParameters(msg.SecurityParameters, usm.Placeholder(), privParams)
	unauthed := ber.Sequence(ber.Integer(int64(msg.Version)), msgGlobalData, placeholderField, scopedPDUField)

	authKey, err := secCtx.AuthKey(msg.SecurityParameters.AuthoritativeEngineID)
	if err != nil {
		return nil, err
	}
	tag, err := usm.Authenticate(secCtx.AuthProtocol, authKey, unauthed)
	if err != nil {
		return nil, err
	}

	// Pass 2: rebuild with the real (possibly wider than 12 bytes) tag in
	// place of the placeholder.
	finalField := encodeUSMSecurityParameters(msg.SecurityParameters, tag, privParams)
	return ber.Sequence(ber.Integer(int64(msg.Version)), msgGlobalData, finalField, scopedPDUField), nil
}

func encodeUSMSecurityParameters(p USMSecurityParameters, authParams, privParams []byte) []byte {
	inner := ber.Sequence(
		ber.OctetString(p.AuthoritativeEngineID),
		ber.Integer(int64(p.AuthoritativeEngineBoots)),
		ber.Integer(int64(p.AuthoritativeEngineTime)),
		ber.OctetString([]byte(p.UserName)),
		ber.OctetString(authParams),
		ber.OctetString(privParams),
	)
	return ber.OctetString(inner)
}

func encryptScopedPDU(secCtx *usm.SecurityContext, p USMSecurityParameters, plaintext []byte) (ciphertext, privacyParameters []byte, err error) {
	switch secCtx.PrivProtocol {
	case usm.PrivDES:
		return usm.EncryptDES(secCtx.AuthProtocol, secCtx.PrivPassword, p.AuthoritativeEngineID, uint32(p.AuthoritativeEngineBoots), secCtx.NextDESSalt(), plaintext)
	case usm.PrivAES128, usm.PrivAES192, usm.PrivAES256:
		return usm.EncryptAES(secCtx.PrivProtocol.KeySize(), secCtx.AuthProtocol, secCtx.PrivPassword, p.AuthoritativeEngineID, uint32(p.AuthoritativeEngineBoots), uint32(p.AuthoritativeEngineTime), secCtx.NextAESSalt(), plaintext)
	default:
		return nil, nil, errors.New("snmp: unsupported privacy protocol")
	}
}

// DecodeMessage decodes a complete wire datagram. For v3 messages with
// Auth or Priv set, secCtx is used to verify authentication and decrypt
// the scoped PDU before PDU is populated.
func DecodeMessage(data []byte, secCtx *usm.SecurityContext) (Message, error) {
	top, err := ber.Strict(data)
	if err != nil {
		return Message{}, err
	}
	fields, err := readSequenceMembers(top)
	if err != nil {
		return Message{}, err
	}
	if len(fields) == 0 {
		return Message{}, errors.New("snmp: empty message")
	}

	version, err := ber.DecodeInteger(fields[0].Content)
	if err != nil {
		return Message{}, errors.Wrap(err, "snmp: message version")
	}

	switch Version(version) {
	case V1, V2c:
		return decodeV1V2c(Version(version), fields)
	case V3:
		return decodeV3(data, fields, secCtx)
	default:
		return Message{}, errors.Errorf("snmp: unsupported version %d", version)
	}
}

func decodeV1V2c(version Version, fields []ber.TLV) (Message, error) {
	if len(fields) != 3 {
		return Message{}, errors.New("snmp: malformed v1/v2c message")
	}
	pdu, err := DecodePDU(fields[2])
	if err != nil {
		return Message{}, err
	}
	return Message{
		Version:   version,
		Community: append([]byte{}, fields[1].Content...),
		PDU:       pdu,
	}, nil
}

func decodeV3(data []byte, fields []ber.TLV, secCtx *usm.SecurityContext) (Message, error) {
	if len(fields) != 4 {
		return Message{}, errors.New("snmp: malformed v3 message")
	}

	globalData, err := readSequenceMembers(fields[1])
	if err != nil {
		return Message{}, err
	}
	if len(globalData) != 4 {
		return Message{}, errors.New("snmp: malformed v3 msgGlobalData")
	}
	msgID, err := ber.DecodeInteger(globalData[0].Content)
	if err != nil {
		return Message{}, err
	}
	maxSize, err := ber.DecodeInteger(globalData[1].Content)
	if err != nil {
		return Message{}, err
	}
	if len(globalData[2].Content) != 1 {
		return Message{}, errors.New("snmp: malformed v3 flags")
	}
	flags := globalData[2].Content[0]
	securityModel, err := ber.DecodeInteger(globalData[3].Content)
	if err != nil {
		return Message{}, err
	}

	secParamsOuter, err := ber.Strict(fields[2].Content)
	if err != nil {
		return Message{}, err
	}
	secFields, err := readSequenceMembers(secParamsOuter)
	if err != nil {
		return Message{}, err
	}
	if len(secFields) != 6 {
		return Message{}, errors.New("snmp: malformed v3 security parameters")
	}
	engineBoots, err := ber.DecodeInteger(secFields[1].Content)
	if err != nil {
		return Message{}, err
	}
	engineTime, err := ber.DecodeInteger(secFields[2].Content)
	if err != nil {
		return Message{}, err
	}

	secParams := USMSecurityParameters{
		AuthoritativeEngineID:    append([]byte{}, secFields[0].Content...),
		AuthoritativeEngineBoots: int32(engineBoots),
		AuthoritativeEngineTime:  int32(engineTime),
		UserName:                 string(secFields[3].Content),
		AuthenticationParameters: append([]byte{}, secFields[4].Content...),
		PrivacyParameters:        append([]byte{}, secFields[5].Content...),
	}

	msg := Message{
		Version:            V3,
		MsgID:              int32(msgID),
		MaxSize:            int32(maxSize),
		Auth:               flags&flagAuth != 0,
		Priv:               flags&flagPriv != 0,
		Reportable:         flags&flagReportable != 0,
		SecurityModel:      int32(securityModel),
		SecurityParameters: secParams,
	}

	if msg.Auth {
		if secCtx == nil {
			return Message{}, errors.New("snmp: auth required but no security context configured")
		}
		if err := verifyV3(fields, secParams, secCtx); err != nil {
			return Message{}, err
		}
	}

	scopedPDUBytes := fields[3].Content
	if msg.Priv {
		if secCtx == nil {
			return Message{}, errors.New("snmp: priv required but no security context configured")
		}
		ciphertextTLV, err := ber.Strict(fields[3].Content)
		if err != nil {
			return Message{}, err
		}
		if ciphertextTLV.Tag != ber.TagOctetString {
			return Message{}, errors.New("snmp: encrypted scoped pdu must be an octet string")
		}
		plaintext, err := decryptScopedPDU(secCtx, secParams, ciphertextTLV.Content)
		if err != nil {
			return Message{}, err
		}
		scopedPDUBytes = plaintext
	}

	scopedPDU, err := ber.Strict(scopedPDUBytes)
	if err != nil {
		return Message{}, err
	}
	scopedFields, err := readSequenceMembers(scopedPDU)
	if err != nil {
		return Message{}, err
	}
	if len(scopedFields) != 3 {
		return Message{}, errors.New("snmp: malformed scoped pdu")
	}
	msg.ContextEngineID = append([]byte{}, scopedFields[0].Content...)
	msg.ContextName = append([]byte{}, scopedFields[1].Content...)

	pdu, err := DecodePDU(scopedFields[2])
	if err != nil {
		return Message{}, err
	}
	msg.PDU = pdu
	return msg, nil
}

func verifyV3(fields []ber.TLV, secParams USMSecurityParameters, secCtx *usm.SecurityContext) error {
	received := secParams.AuthenticationParameters

	placeholderField := encodeUSMSecurityParameters(secParams, usm.Placeholder(), secParams.PrivacyParameters)
	version, err := ber.DecodeInteger(fields[0].Content)
	if err != nil {
		return err
	}
	reconstructed := ber.Sequence(ber.Integer(version), ber.WriteTLV(fields[1].Tag, fields[1].Content), placeholderField, ber.WriteTLV(fields[3].Tag, fields[3].Content))

	authKey, err := secCtx.AuthKey(secParams.AuthoritativeEngineID)
	if err != nil {
		return err
	}
	return usm.Verify(secCtx.AuthProtocol, authKey, reconstructed, received)
}

func decryptScopedPDU(secCtx *usm.SecurityContext, secParams USMSecurityParameters, ciphertext []byte) ([]byte, error) {
	switch secCtx.PrivProtocol {
	case usm.PrivDES:
		return usm.DecryptDES(secCtx.AuthProtocol, secCtx.PrivPassword, secParams.AuthoritativeEngineID, secParams.PrivacyParameters, ciphertext)
	case usm.PrivAES128, usm.PrivAES192, usm.PrivAES256:
		return usm.DecryptAES(secCtx.PrivProtocol.KeySize(), secCtx.AuthProtocol, secCtx.PrivPassword, secParams.AuthoritativeEngineID, uint32(secParams.AuthoritativeEngineBoots), uint32(secParams.AuthoritativeEngineTime), secParams.PrivacyParameters, ciphertext)
	default:
		return nil, errors.New("snmp: unsupported privacy protocol")
	}
}
