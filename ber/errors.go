package ber

import "errors"

// Decode failures are always data errors: malformed input never panics, it
// is reported through one of these sentinels. Callers use errors.Is to
// classify a failure without caring about the byte offset that triggered it.
var (
	// ErrInvalidTag is returned when a tag byte is not recognised in the
	// context it was read (for example a PDU field decoded with a tag
	// outside the SMI type set).
	ErrInvalidTag = errors.New("ber: invalid tag")

	// ErrInvalidLength is returned when a length octet sequence is
	// malformed, or a TLV's content violates a type-specific length
	// constraint (such as a Counter64 longer than 8 bytes).
	ErrInvalidLength = errors.New("ber: invalid length")

	// ErrTruncated is returned when fewer bytes are available than the
	// declared length requires.
	ErrTruncated = errors.New("ber: truncated input")

	// ErrTrailingGarbage is returned by Strict when bytes remain after a
	// single TLV has been consumed.
	ErrTrailingGarbage = errors.New("ber: trailing garbage after value")

	// ErrUnsupportedTag is returned for tags this package recognises as
	// valid BER but does not implement an SMI mapping for.
	ErrUnsupportedTag = errors.New("ber: unsupported tag")
)
