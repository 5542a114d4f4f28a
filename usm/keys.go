package usm

// passwordBufferSize is the fixed length of the cyclically-repeated
// password stream hashed in pass 1 of the RFC 3414 Appendix A key
// localization algorithm.
const passwordBufferSize = 1048576

// PasswordToKey implements the two-pass password-to-key algorithm: pass one
// hashes a passwordBufferSize-byte stream formed by cyclically repeating
// password, pass two hashes intermediate||engineID||intermediate. The
// result is truncated to the protocol's digest size.
func PasswordToKey(protocol AuthProtocol, password string, engineID []byte) ([]byte, error) {
	spec, err := protocol.spec()
	if err != nil {
		return nil, err
	}
	if password == "" {
		return nil, ErrEmptyPassword
	}

	h := spec.newHash()
	chunk := make([]byte, 64)
	pi := 0
	for total := 0; total < passwordBufferSize; total += len(chunk) {
		for i := range chunk {
			chunk[i] = password[pi%len(password)]
			pi++
		}
		h.Write(chunk)
	}
	intermediate := h.Sum(nil)

	h2 := spec.newHash()
	h2.Write(intermediate)
	h2.Write(engineID)
	h2.Write(intermediate)
	return h2.Sum(nil)[:spec.digestSize], nil
}

// ValidateKeySize rejects localized keys shorter than the protocol's digest
// size, which can never have come from a correct localization pass.
func ValidateKeySize(protocol AuthProtocol, key []byte) error {
	spec, err := protocol.spec()
	if err != nil {
		return err
	}
	if len(key) < spec.digestSize {
		return ErrKeyTooShort
	}
	return nil
}

// deriveKeyMaterial returns size bytes of key material localized to
// engineID. When size exceeds the protocol's digest size (AES192/256 keys
// localized from MD5/SHA1 passwords, whose digest is shorter than the
// cipher key) the digest is extended by repeatedly hashing the key material
// produced so far, a standard extension for deriving longer-than-digest
// privacy keys from USM's auth-protocol-keyed localization.
func deriveKeyMaterial(protocol AuthProtocol, password string, engineID []byte, size int) ([]byte, error) {
	spec, err := protocol.spec()
	if err != nil {
		return nil, err
	}

	key, err := PasswordToKey(protocol, password, engineID)
	if err != nil {
		return nil, err
	}
	for len(key) < size {
		h := spec.newHash()
		h.Write(key)
		key = append(key, h.Sum(nil)...)
	}
	return key[:size], nil
}
