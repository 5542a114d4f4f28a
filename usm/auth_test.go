package usm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlaceholderIsTwelveZeroBytes(t *testing.T) {
	p := Placeholder()
	require.Len(t, p, PlaceholderSize)
	for _, b := range p {
		assert.Equal(t, byte(0), b)
	}
}

// TestAuthenticateScenarioS5 exercises the authPriv round trip from
// scenario S5: user "alice", auth=SHA256, priv=AES256, a 9-byte engine ID,
// and a 16-byte wire authentication-parameters field (SHA256's truncated
// size). The HMAC is computed over the message with the placeholder
// substituted in place of the real authentication parameters.
func TestAuthenticateScenarioS5(t *testing.T) {
	engineID := []byte{0x80, 0x00, 0x1f, 0x88, 0x80, 0x59, 0xdc, 0x48, 0x61}
	key, err := PasswordToKey(AuthSHA256, "alicepassword123", engineID)
	require.NoError(t, err)

	message := append([]byte("scoped-pdu-prefix"), Placeholder()...)
	message = append(message, []byte("scoped-pdu-suffix")...)

	tag, err := Authenticate(AuthSHA256, key, message)
	require.NoError(t, err)
	assert.Len(t, tag, 16)
	assert.Equal(t, AuthSHA256.TruncatedSize(), len(tag))

	require.NoError(t, Verify(AuthSHA256, key, message, tag))
}

func TestVerifyRejectsTamperedMessage(t *testing.T) {
	engineID := []byte{0x01, 0x02, 0x03}
	key, err := PasswordToKey(AuthMD5, "maplesyrup", engineID)
	require.NoError(t, err)

	message := append([]byte("header"), Placeholder()...)
	tag, err := Authenticate(AuthMD5, key, message)
	require.NoError(t, err)

	tampered := append([]byte{}, message...)
	tampered[0] ^= 0xff

	err = Verify(AuthMD5, key, tampered, tag)
	assert.ErrorIs(t, err, ErrAuthenticationMismatch)
}

func TestVerifyRejectsWrongKey(t *testing.T) {
	engineID := []byte{0x01, 0x02, 0x03}
	key1, err := PasswordToKey(AuthSHA1, "passwordone", engineID)
	require.NoError(t, err)
	key2, err := PasswordToKey(AuthSHA1, "passwordtwo", engineID)
	require.NoError(t, err)

	message := append([]byte("header"), Placeholder()...)
	tag, err := Authenticate(AuthSHA1, key1, message)
	require.NoError(t, err)

	err = Verify(AuthSHA1, key2, message, tag)
	assert.ErrorIs(t, err, ErrAuthenticationMismatch)
}

func TestAuthenticateTruncatesPerProtocol(t *testing.T) {
	engineID := []byte{0x01}
	cases := []AuthProtocol{AuthMD5, AuthSHA1, AuthSHA224, AuthSHA256, AuthSHA384, AuthSHA512}
	for _, p := range cases {
		key, err := PasswordToKey(p, "maplesyrup", engineID)
		require.NoError(t, err)
		tag, err := Authenticate(p, key, append([]byte("x"), Placeholder()...))
		require.NoError(t, err)
		assert.Equal(t, p.TruncatedSize(), len(tag))
	}
}
