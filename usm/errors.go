package usm

import "errors"

var (
	// ErrUnsupportedProtocol is returned when an AuthProtocol or
	// PrivProtocol value outside the closed set this package implements
	// is used.
	ErrUnsupportedProtocol = errors.New("usm: unsupported protocol")

	// ErrEmptyPassword is returned when key localization is attempted
	// with an empty passphrase.
	ErrEmptyPassword = errors.New("usm: empty password")

	// ErrKeyTooShort is returned when a caller-supplied localized key is
	// shorter than the protocol's digest size.
	ErrKeyTooShort = errors.New("usm: key too short")

	// ErrInvalidKeySize reports a derived privacy key that does not match
	// the cipher's required key size. No function in this package returns
	// it.
	ErrInvalidKeySize = errors.New("usm: invalid key size")

	// ErrAuthenticationMismatch is returned by Verify when the computed
	// and received HMAC digests differ. It never reveals which byte
	// diverged.
	ErrAuthenticationMismatch = errors.New("usm: authentication mismatch")

	// ErrDecryptionFailed wraps failures in the privacy layer (bad block
	// alignment, cipher construction failures).
	ErrDecryptionFailed = errors.New("usm: decryption failed")
)
