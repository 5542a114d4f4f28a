package usm

import "crypto/hmac"

// PlaceholderSize is the fixed width of the authentication-parameters
// placeholder used while computing the HMAC over a v3 message, in both the
// encode and decode directions. It is a wire constant of the protocol
// framing, independent of the eventual truncated digest size.
const PlaceholderSize = 12

// Placeholder returns PlaceholderSize zero bytes, ready to be written into
// the authentication-parameters field before the HMAC covering the whole
// message is computed.
func Placeholder() []byte {
	return make([]byte, PlaceholderSize)
}

// Authenticate computes the truncated HMAC of message under key using
// protocol, returning TruncatedSize() bytes. The caller is responsible for
// having already replaced the authentication-parameters field in message
// with Placeholder() before calling this.
func Authenticate(protocol AuthProtocol, key, message []byte) ([]byte, error) {
	spec, err := protocol.spec()
	if err != nil {
		return nil, err
	}
	mac := hmac.New(spec.newHash, key)
	mac.Write(message)
	return mac.Sum(nil)[:spec.truncatedSize], nil
}

// Verify recomputes the HMAC over message (which must already have the
// placeholder substituted for the received authentication parameters) and
// compares it against received in constant time. A mismatch is reported as
// ErrAuthenticationMismatch without indicating where the digests diverged.
func Verify(protocol AuthProtocol, key, message, received []byte) error {
	computed, err := Authenticate(protocol, key, message)
	if err != nil {
		return err
	}
	if !hmac.Equal(computed, received) {
		return ErrAuthenticationMismatch
	}
	return nil
}
