// Package usm implements the SNMPv3 User-based Security Model: password
// localization, HMAC message authentication, and DES/AES privacy.
package usm

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"hash"
)

// AuthProtocol identifies a USM authentication protocol.
type AuthProtocol int

// Supported authentication protocols. NoAuth means authentication is
// disabled for the security context.
const (
	NoAuth AuthProtocol = iota
	AuthMD5
	AuthSHA1
	AuthSHA224
	AuthSHA256
	AuthSHA384
	AuthSHA512
)

// PrivProtocol identifies a USM privacy (encryption) protocol.
type PrivProtocol int

// Supported privacy protocols. NoPriv means encryption is disabled for the
// security context.
const (
	NoPriv PrivProtocol = iota
	PrivDES
	PrivAES128
	PrivAES192
	PrivAES256
)

type authSpec struct {
	newHash       func() hash.Hash
	digestSize    int
	truncatedSize int
}

// authSpecs captures the digest and truncated-HMAC sizes from the protocol
// table: legacy protocols truncate to 12 bytes, SHA-2 family protocols
// (SHA-224/256/384/512) truncate to 16/16/24/32 bytes respectively.
var authSpecs = map[AuthProtocol]authSpec{
	AuthMD5:    {md5.New, md5.Size, 12},
	AuthSHA1:   {sha1.New, sha1.Size, 12},
	AuthSHA224: {sha256.New224, sha256.Size224, 16},
	AuthSHA256: {sha256.New, sha256.Size, 16},
	AuthSHA384: {sha512.New384, sha512.Size384, 24},
	AuthSHA512: {sha512.New, sha512.Size, 32},
}

// DigestSize returns the full HMAC digest size in bytes for p, or 0 if p is
// NoAuth or unrecognised.
func (p AuthProtocol) DigestSize() int {
	return authSpecs[p].digestSize
}

// TruncatedSize returns the wire length of the truncated authentication
// parameters field for p.
func (p AuthProtocol) TruncatedSize() int {
	return authSpecs[p].truncatedSize
}

func (p AuthProtocol) spec() (authSpec, error) {
	s, ok := authSpecs[p]
	if !ok {
		return authSpec{}, ErrUnsupportedProtocol
	}
	return s, nil
}

// KeySize returns the raw key length (in bytes) a privacy protocol's cipher
// requires.
func (p PrivProtocol) KeySize() int {
	switch p {
	case PrivDES:
		return 8
	case PrivAES128:
		return 16
	case PrivAES192:
		return 24
	case PrivAES256:
		return 32
	default:
		return 0
	}
}
