// Package ber implements the subset of ASN.1 Basic Encoding Rules used by
// the Structure of Management Information (SMI), as required to encode and
// decode SNMP protocol data units.
//
// The package deliberately does not attempt to be a general purpose ASN.1
// library: it knows about exactly the tags SNMP uses and nothing else. See
// https://tools.ietf.org/html/rfc1155 and https://tools.ietf.org/html/rfc2578
// for the subset of SMI types this package encodes.
package ber

import "fmt"

// Tag identifies the wire tag byte of a TLV record. For SNMP the class bits
// are folded into the tag value itself, so callers never need to reason
// about class and number separately.
type Tag byte

// Universal ASN.1 tags used by SMI.
const (
	TagInteger          Tag = 0x02
	TagOctetString      Tag = 0x04
	TagNull             Tag = 0x05
	TagObjectIdentifier Tag = 0x06
	TagSequence         Tag = 0x30
)

// Application-class SMI tags (RFC 1155 section 3.2.3).
const (
	TagIPAddress Tag = 0x40
	TagCounter32 Tag = 0x41
	TagGauge32   Tag = 0x42
	TagTimeTicks Tag = 0x43
	TagOpaque    Tag = 0x44
	TagCounter64 Tag = 0x46
)

// Context-specific exception tags used in SNMPv2 varbind values (RFC 1905
// section 3).
const (
	TagNoSuchObject   Tag = 0x80
	TagNoSuchInstance Tag = 0x81
	TagEndOfMibView   Tag = 0x82
)

// TLV is a single decoded tag-length-value record. Content holds exactly the
// bytes covered by the declared length; it never includes trailing bytes
// belonging to a sibling record.
type TLV struct {
	Tag     Tag
	Content []byte
}

func (t TLV) String() string {
	return fmt.Sprintf("TLV{Tag: 0x%02x, Content: %x}", byte(t.Tag), t.Content)
}
