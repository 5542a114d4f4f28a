package ber

// EncodeLength encodes n using the short form for 0..127 and the long form
// otherwise. The long form always uses the minimal number of length octets
// needed to hold n's byte length, never a fixed width.
func EncodeLength(n int) []byte {
	if n < 0 {
		panic("ber: negative length")
	}
	if n < 128 {
		return []byte{byte(n)}
	}

	var octets []byte
	for v := n; v > 0; v >>= 8 {
		octets = append([]byte{byte(v)}, octets...)
	}
	return append([]byte{0x80 | byte(len(octets))}, octets...)
}

// WriteTLV encodes a complete tag-length-value record.
func WriteTLV(tag Tag, content []byte) []byte {
	out := make([]byte, 0, 2+len(content))
	out = append(out, byte(tag))
	out = append(out, EncodeLength(len(content))...)
	out = append(out, content...)
	return out
}

// Sequence wraps the concatenation of children in a SEQUENCE TLV, preserving
// the order they were supplied in.
func Sequence(children ...[]byte) []byte {
	var content []byte
	for _, c := range children {
		content = append(content, c...)
	}
	return WriteTLV(TagSequence, content)
}

// EncodeInteger returns the minimal two's-complement content bytes for v.
func EncodeInteger(v int64) []byte {
	if v == 0 {
		return []byte{0}
	}

	var buf []byte
	n := v
	for {
		buf = append([]byte{byte(n)}, buf...)
		n >>= 8
		if (n == 0 && buf[0]&0x80 == 0) || (n == -1 && buf[0]&0x80 != 0) {
			break
		}
	}
	return buf
}

// Integer encodes v as a complete INTEGER TLV.
func Integer(v int64) []byte {
	return WriteTLV(TagInteger, EncodeInteger(v))
}

// OctetString encodes v as a complete OCTET STRING TLV. A nil or
// zero-length v is legal and produces a zero-length content field.
func OctetString(v []byte) []byte {
	return WriteTLV(TagOctetString, v)
}

// Null encodes the NULL TLV, whose content is always zero-length.
func Null() []byte {
	return WriteTLV(TagNull, nil)
}

func encodeUnsigned(v uint64, byteWidth int) []byte {
	buf := make([]byte, byteWidth)
	for i := byteWidth - 1; i >= 0; i-- {
		buf[i] = byte(v)
		v >>= 8
	}

	i := 0
	for i < len(buf)-1 && buf[i] == 0 && buf[i+1]&0x80 == 0 {
		i++
	}
	trimmed := buf[i:]
	if trimmed[0]&0x80 != 0 {
		trimmed = append([]byte{0}, trimmed...)
	}
	return trimmed
}

// Counter32 encodes v as a Counter32 application-tagged TLV.
func Counter32(v uint32) []byte {
	return WriteTLV(TagCounter32, encodeUnsigned(uint64(v), 4))
}

// Gauge32 encodes v as a Gauge32 application-tagged TLV.
func Gauge32(v uint32) []byte {
	return WriteTLV(TagGauge32, encodeUnsigned(uint64(v), 4))
}

// TimeTicks encodes v as a TimeTicks application-tagged TLV.
func TimeTicks(v uint32) []byte {
	return WriteTLV(TagTimeTicks, encodeUnsigned(uint64(v), 4))
}

// Counter64 encodes v as a Counter64 application-tagged TLV.
func Counter64(v uint64) []byte {
	return WriteTLV(TagCounter64, encodeUnsigned(v, 8))
}

// Opaque encodes v as an Opaque application-tagged TLV, passing the bytes
// through unchanged.
func Opaque(v []byte) []byte {
	return WriteTLV(TagOpaque, v)
}

// IPAddress encodes the 4 octets of an IPv4 address as an IpAddress
// application-tagged TLV.
func IPAddress(v [4]byte) []byte {
	return WriteTLV(TagIPAddress, v[:])
}

// EncodeOID returns the minimal content bytes for an OBJECT IDENTIFIER with
// the given sub-identifiers. A single-component oid is accepted: the
// missing second component is treated as 0, matching the legal minimal
// encodings DecodeOID must also accept.
func EncodeOID(oid []uint32) []byte {
	if len(oid) == 0 {
		return nil
	}

	var first uint32
	var rest []uint32
	if len(oid) == 1 {
		first = oid[0] * 40
	} else {
		first = oid[0]*40 + oid[1]
		rest = oid[2:]
	}

	buf := encodeBase128(uint64(first))
	for _, v := range rest {
		buf = append(buf, encodeBase128(uint64(v))...)
	}
	return buf
}

// ObjectIdentifier encodes oid as a complete OBJECT IDENTIFIER TLV.
func ObjectIdentifier(oid []uint32) []byte {
	return WriteTLV(TagObjectIdentifier, EncodeOID(oid))
}

func encodeBase128(v uint64) []byte {
	if v == 0 {
		return []byte{0}
	}

	var groups []byte
	for v > 0 {
		groups = append([]byte{byte(v & 0x7f)}, groups...)
		v >>= 7
	}
	for i := 0; i < len(groups)-1; i++ {
		groups[i] |= 0x80
	}
	return groups
}
