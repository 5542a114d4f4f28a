// Package snmp implements the SNMP message/PDU codec, the v1/v2c/v3
// request engine, the walk/bulk iteration engine, the multi-target
// executor, and v3 engine discovery, built on the ber and usm packages.
package snmp

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// ErrTypeInformationLost is returned whenever a varbind would have to be
// constructed without a reliable type tag. The core fails closed rather
// than guessing a type from the value's shape.
var ErrTypeInformationLost = errors.New("snmp: type information lost")

// ErrInvalidOID is returned by ParseOID for malformed textual OIDs.
var ErrInvalidOID = errors.New("snmp: invalid oid")

// OID is an ordered sequence of non-negative integers naming a MIB
// object. The sequence form is the single source of truth inside this
// package; textual form exists only for parsing external input and for
// String().
type OID []uint32

// ParseOID parses a dotted textual OID ("1.3.6.1.2.1.1.1.0") into its
// sequence form. Leading/trailing dots are tolerated; every component
// must be a non-negative integer and the result must have at least two
// components.
func ParseOID(s string) (OID, error) {
	s = strings.Trim(s, ".")
	if s == "" {
		return nil, ErrInvalidOID
	}
	parts := strings.Split(s, ".")
	oid := make(OID, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseUint(p, 10, 32)
		if err != nil {
			return nil, errors.Wrapf(ErrInvalidOID, "component %q", p)
		}
		oid[i] = uint32(v)
	}
	if len(oid) < 2 {
		return nil, errors.Wrap(ErrInvalidOID, "fewer than two components")
	}
	return oid, nil
}

// String renders the dotted textual form.
func (o OID) String() string {
	parts := make([]string, len(o))
	for i, v := range o {
		parts[i] = strconv.FormatUint(uint64(v), 10)
	}
	return strings.Join(parts, ".")
}

// Equal reports whether o and other name the same OID.
func (o OID) Equal(other OID) bool {
	if len(o) != len(other) {
		return false
	}
	for i := range o {
		if o[i] != other[i] {
			return false
		}
	}
	return true
}

// HasPrefix reports whether root is a prefix of o, i.e. o is at or below
// the subtree rooted at root.
func (o OID) HasPrefix(root OID) bool {
	if len(o) < len(root) {
		return false
	}
	for i := range root {
		if o[i] != root[i] {
			return false
		}
	}
	return true
}

// Compare returns -1, 0, or 1 as o is lexicographically less than, equal
// to, or greater than other, componentwise, with a shorter OID ordering
// before a longer one that shares its prefix.
func (o OID) Compare(other OID) int {
	for i := 0; i < len(o) && i < len(other); i++ {
		if o[i] != other[i] {
			if o[i] < other[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(o) < len(other):
		return -1
	case len(o) > len(other):
		return 1
	default:
		return 0
	}
}

// Clone returns a copy of o, safe to mutate independently.
func (o OID) Clone() OID {
	c := make(OID, len(o))
	copy(c, o)
	return c
}

// Type is the closed tagged enumeration of SNMP value types. A value's
// type is always carried as received from the wire; it is never inferred
// from the Go type of Varbind.Value.
type Type byte

const (
	TypeInteger Type = iota
	TypeOctetString
	TypeNull
	TypeObjectIdentifier
	TypeIPAddress
	TypeCounter32
	TypeGauge32
	TypeTimeTicks
	TypeOpaque
	TypeCounter64
	TypeNoSuchObject
	TypeNoSuchInstance
	TypeEndOfMibView
)

func (t Type) String() string {
	switch t {
	case TypeInteger:
		return "integer"
	case TypeOctetString:
		return "octet_string"
	case TypeNull:
		return "null"
	case TypeObjectIdentifier:
		return "object_identifier"
	case TypeIPAddress:
		return "ip_address"
	case TypeCounter32:
		return "counter32"
	case TypeGauge32:
		return "gauge32"
	case TypeTimeTicks:
		return "timeticks"
	case TypeOpaque:
		return "opaque"
	case TypeCounter64:
		return "counter64"
	case TypeNoSuchObject:
		return "no_such_object"
	case TypeNoSuchInstance:
		return "no_such_instance"
	case TypeEndOfMibView:
		return "end_of_mib_view"
	default:
		return "unknown"
	}
}

// IsException reports whether t is one of the three SNMPv2 exception
// tags, which always carry a null payload.
func (t Type) IsException() bool {
	return t == TypeNoSuchObject || t == TypeNoSuchInstance || t == TypeEndOfMibView
}

// Varbind is the triple (oid, type, value) that is the only unit crossing
// this package's public API for data responses. It must be constructed
// through NewVarbind, which enforces that Value's concrete Go type
// matches Type.
type Varbind struct {
	OID   OID
	Type  Type
	Value interface{}
}

// NewVarbind validates that value's concrete type matches typ before
// constructing the varbind, failing closed with ErrTypeInformationLost
// rather than synthesising a type for the caller.
func NewVarbind(oid OID, typ Type, value interface{}) (Varbind, error) {
	if typ.IsException() || typ == TypeNull {
		return Varbind{OID: oid, Type: typ, Value: nil}, nil
	}

	ok := false
	switch typ {
	case TypeInteger:
		_, ok = value.(int32)
	case TypeOctetString, TypeOpaque:
		_, ok = value.([]byte)
	case TypeObjectIdentifier:
		_, ok = value.(OID)
	case TypeIPAddress:
		v, isBytes := value.([]byte)
		ok = isBytes && len(v) == 4
	case TypeCounter32, TypeGauge32, TypeTimeTicks:
		_, ok = value.(uint32)
	case TypeCounter64:
		_, ok = value.(uint64)
	}
	if !ok {
		return Varbind{}, errors.Wrapf(ErrTypeInformationLost, "type %s value %T", typ, value)
	}
	return Varbind{OID: oid, Type: typ, Value: value}, nil
}

// Int returns an integer-shaped value as an int64, regardless of which
// integer-shaped Type produced it.
func (v Varbind) Int() (int64, error) {
	switch v.Type {
	case TypeInteger:
		return int64(v.Value.(int32)), nil
	case TypeCounter32, TypeGauge32, TypeTimeTicks:
		return int64(v.Value.(uint32)), nil
	case TypeCounter64:
		return int64(v.Value.(uint64)), nil
	default:
		return 0, errors.Errorf("snmp: varbind type %s is not integer-shaped", v.Type)
	}
}

// Uint64 returns a Counter64 value.
func (v Varbind) Uint64() (uint64, error) {
	if v.Type != TypeCounter64 {
		return 0, errors.Errorf("snmp: varbind type %s is not counter64", v.Type)
	}
	return v.Value.(uint64), nil
}

// Bytes returns an octet-string-shaped value (OctetString, Opaque, or
// IPAddress).
func (v Varbind) Bytes() ([]byte, error) {
	switch v.Type {
	case TypeOctetString, TypeOpaque, TypeIPAddress:
		return v.Value.([]byte), nil
	default:
		return nil, errors.Errorf("snmp: varbind type %s is not octet-shaped", v.Type)
	}
}

// AsOID returns an ObjectIdentifier-shaped value.
func (v Varbind) AsOID() (OID, error) {
	if v.Type != TypeObjectIdentifier {
		return nil, errors.Errorf("snmp: varbind type %s is not object_identifier", v.Type)
	}
	return v.Value.(OID), nil
}
