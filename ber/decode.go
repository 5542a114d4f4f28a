package ber

// DecodeLength parses a BER length field from the start of b. It returns the
// decoded length, the number of bytes the length field itself occupied, and
// an error. Both the short form (0..127 in a single byte) and the long form
// (a leading 0x80|n byte followed by n big-endian length octets) are
// supported; the indefinite-length form (0x80 alone) is not legal in BER and
// is rejected.
func DecodeLength(b []byte) (length int, consumed int, err error) {
	if len(b) == 0 {
		return 0, 0, ErrTruncated
	}

	first := b[0]
	if first&0x80 == 0 {
		return int(first), 1, nil
	}

	numOctets := int(first & 0x7f)
	if numOctets == 0 {
		// Indefinite length encoding: not used by SNMP/BER, and not
		// decidable without a streaming scanner.
		return 0, 0, ErrInvalidLength
	}
	if numOctets > 4 {
		// A length requiring more than 4 octets exceeds any SNMP
		// message size (max 64KiB) and indicates corrupt input.
		return 0, 0, ErrInvalidLength
	}
	if len(b) < 1+numOctets {
		return 0, 0, ErrTruncated
	}

	n := 0
	for _, octet := range b[1 : 1+numOctets] {
		n = n<<8 | int(octet)
	}
	return n, 1 + numOctets, nil
}

// ReadTLV decodes a single tag-length-value record from the front of b and
// returns it along with the unconsumed remainder of b. It does not recurse
// into constructed values; callers decode SEQUENCE content by repeatedly
// calling ReadTLV against the returned Content.
func ReadTLV(b []byte) (TLV, []byte, error) {
	if len(b) < 2 {
		return TLV{}, nil, ErrTruncated
	}

	tag := Tag(b[0])
	length, consumed, err := DecodeLength(b[1:])
	if err != nil {
		return TLV{}, nil, err
	}

	headerLen := 1 + consumed
	if len(b) < headerLen+length {
		return TLV{}, nil, ErrTruncated
	}

	content := b[headerLen : headerLen+length]
	remainder := b[headerLen+length:]
	return TLV{Tag: tag, Content: content}, remainder, nil
}

// Strict decodes exactly one TLV from b and requires that no bytes remain
// afterwards. It is used at message boundaries (a UDP datagram must be
// consumed in full) where leftover bytes indicate a malformed or truncated
// peer, never a legitimate continuation.
func Strict(b []byte) (TLV, error) {
	tlv, rest, err := ReadTLV(b)
	if err != nil {
		return TLV{}, err
	}
	if len(rest) != 0 {
		return TLV{}, ErrTrailingGarbage
	}
	return tlv, nil
}

// DecodeInteger interprets content as a minimal two's-complement signed
// integer, as used by the SNMP Integer32 / INTEGER type and by
// request-id/error-status/error-index fields. Up to 8 content bytes are
// accepted; zero-length content is rejected.
func DecodeInteger(content []byte) (int64, error) {
	if len(content) == 0 {
		return 0, ErrInvalidLength
	}
	if len(content) > 8 {
		return 0, ErrInvalidLength
	}

	v := int64(int8(content[0]))
	for _, b := range content[1:] {
		v = v<<8 | int64(b)
	}
	return v, nil
}

// DecodeCounter32 interprets content as a big-endian unsigned integer,
// accepting 1..5 content bytes (the extra byte permits the leading
// zero-padding real encoders emit to keep an IMPLICIT INTEGER
// non-negative).
func DecodeCounter32(content []byte) (uint32, error) {
	v, err := decodeUnsigned(content, 5)
	if err != nil {
		return 0, err
	}
	return uint32(v), nil
}

// DecodeCounter64 interprets content as a big-endian unsigned integer.
// Per the SNMP wire format, any length from 1 to 8 bytes is legal; lengths
// of 0 or more than 8 are rejected. Implementations that instead require
// exactly 8 bytes silently corrupt values sent by real agents, which
// commonly omit leading zero bytes.
func DecodeCounter64(content []byte) (uint64, error) {
	if len(content) == 0 || len(content) > 8 {
		return 0, ErrInvalidLength
	}
	return decodeUnsigned(content, 8)
}

func decodeUnsigned(content []byte, maxLen int) (uint64, error) {
	if len(content) == 0 || len(content) > maxLen {
		return 0, ErrInvalidLength
	}
	var v uint64
	for _, b := range content {
		v = v<<8 | uint64(b)
	}
	return v, nil
}

// DecodeOID decodes the content of an OBJECT IDENTIFIER TLV into its
// sequence of sub-identifiers. The first sub-identifier on the wire packs
// the first two logical components as 40*a+b; a content of a single
// minimal-width sub-identifier (for example a lone 0x01 byte) is legal and
// decodes to the two leading components it implies, rather than being
// rejected as too short.
func DecodeOID(content []byte) ([]uint32, error) {
	if len(content) == 0 {
		return nil, ErrInvalidLength
	}

	first, n, err := readBase128(content)
	if err != nil {
		return nil, err
	}
	rest := content[n:]

	var a, b uint32
	if first < 80 {
		a = uint32(first / 40)
		b = uint32(first % 40)
	} else {
		a = 2
		b = uint32(first - 80)
	}

	oid := []uint32{a, b}
	for len(rest) > 0 {
		v, n, err := readBase128(rest)
		if err != nil {
			return nil, err
		}
		oid = append(oid, uint32(v))
		rest = rest[n:]
	}
	return oid, nil
}

// readBase128 decodes a single base-128 value with continuation bits from
// the front of b, returning the value and the number of bytes consumed.
func readBase128(b []byte) (uint64, int, error) {
	var v uint64
	for i, octet := range b {
		v = v<<7 | uint64(octet&0x7f)
		if octet&0x80 == 0 {
			return v, i + 1, nil
		}
		if i == 9 {
			// 10 continuation groups would overflow any value SNMP
			// OIDs use; treat as corrupt input rather than looping
			// over the remainder of the packet.
			return 0, 0, ErrInvalidLength
		}
	}
	return 0, 0, ErrTruncated
}

// DecodeIPAddress validates and returns the 4 octets of an IpAddress TLV's
// content.
func DecodeIPAddress(content []byte) ([4]byte, error) {
	var ip [4]byte
	if len(content) != 4 {
		return ip, ErrInvalidLength
	}
	copy(ip[:], content)
	return ip, nil
}
