package usm

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSecurityContextAuthKeyIsCached(t *testing.T) {
	ctx := NewSecurityContext("alice", AuthSHA256, "alicepassword123", NoPriv, "")
	engineID := []byte{0x80, 0x00, 0x1f, 0x88}

	k1, err := ctx.AuthKey(engineID)
	require.NoError(t, err)
	k2, err := ctx.AuthKey(engineID)
	require.NoError(t, err)
	assert.Same(t, &k1[0], &k2[0])
}

func TestSecurityContextAuthKeyNoAuth(t *testing.T) {
	ctx := NewSecurityContext("bob", NoAuth, "", NoPriv, "")
	key, err := ctx.AuthKey([]byte{0x01})
	require.NoError(t, err)
	assert.Nil(t, key)
}

func TestSecurityContextPrivKeyNoPriv(t *testing.T) {
	ctx := NewSecurityContext("bob", AuthMD5, "maplesyrup", NoPriv, "")
	key, err := ctx.PrivKey([]byte{0x01})
	require.NoError(t, err)
	assert.Nil(t, key)
}

func TestSecurityContextPrivKeySizedForProtocol(t *testing.T) {
	ctx := NewSecurityContext("alice", AuthSHA256, "alicepassword123", PrivAES256, "alicepassword123")
	key, err := ctx.PrivKey([]byte{0x80, 0x00, 0x1f, 0x88})
	require.NoError(t, err)
	assert.Len(t, key, PrivAES256.KeySize())
}

func TestSecurityContextKeysDifferPerEngine(t *testing.T) {
	ctx := NewSecurityContext("alice", AuthSHA256, "alicepassword123", NoPriv, "")
	k1, err := ctx.AuthKey([]byte{0x01})
	require.NoError(t, err)
	k2, err := ctx.AuthKey([]byte{0x02})
	require.NoError(t, err)
	assert.NotEqual(t, k1, k2)
}

func TestSecurityContextConcurrentAccess(t *testing.T) {
	ctx := NewSecurityContext("alice", AuthSHA256, "alicepassword123", PrivAES256, "alicepassword123")
	engineID := []byte{0x80, 0x00, 0x1f, 0x88}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := ctx.AuthKey(engineID)
			assert.NoError(t, err)
			_, err = ctx.PrivKey(engineID)
			assert.NoError(t, err)
			ctx.NextDESSalt()
			ctx.NextAESSalt()
		}()
	}
	wg.Wait()
}
