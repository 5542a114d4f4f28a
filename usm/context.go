package usm

import (
	"encoding/hex"
	"sync"
	"sync/atomic"
)

// SecurityContext holds one user's USM configuration plus the mutable state
// localization and privacy require across the lifetime of a session: a
// cache of keys already localized per engine (key derivation hashes a
// megabyte of data, so it is worth memoizing) and the privacy salt
// counters. A SecurityContext is safe for concurrent use.
type SecurityContext struct {
	UserName     string
	AuthProtocol AuthProtocol
	AuthPassword string
	PrivProtocol PrivProtocol
	PrivPassword string

	mu       sync.Mutex
	authKeys map[string][]byte
	privKeys map[string][]byte

	desSalt uint32
	aesSalt uint64
}

// NewSecurityContext returns a SecurityContext for the given user and
// protocol selection. Pass NoAuth/NoPriv and an empty password for the
// levels that are not in use.
func NewSecurityContext(userName string, authProtocol AuthProtocol, authPassword string, privProtocol PrivProtocol, privPassword string) *SecurityContext {
	return &SecurityContext{
		UserName:     userName,
		AuthProtocol: authProtocol,
		AuthPassword: authPassword,
		PrivProtocol: privProtocol,
		PrivPassword: privPassword,
		authKeys:     make(map[string][]byte),
		privKeys:     make(map[string][]byte),
	}
}

// AuthKey returns the authentication key localized to engineID, computing
// and caching it on first use. It returns (nil, nil) when AuthProtocol is
// NoAuth.
func (c *SecurityContext) AuthKey(engineID []byte) ([]byte, error) {
	if c.AuthProtocol == NoAuth {
		return nil, nil
	}

	k := hex.EncodeToString(engineID)

	c.mu.Lock()
	defer c.mu.Unlock()
	if key, ok := c.authKeys[k]; ok {
		return key, nil
	}

	key, err := PasswordToKey(c.AuthProtocol, c.AuthPassword, engineID)
	if err != nil {
		return nil, err
	}
	c.authKeys[k] = key
	return key, nil
}

// PrivKey returns the privacy key localized to engineID, sized for
// c.PrivProtocol's cipher, computing and caching it on first use. It
// returns (nil, nil) when PrivProtocol is NoPriv.
func (c *SecurityContext) PrivKey(engineID []byte) ([]byte, error) {
	if c.PrivProtocol == NoPriv {
		return nil, nil
	}

	k := hex.EncodeToString(engineID)

	c.mu.Lock()
	defer c.mu.Unlock()
	if key, ok := c.privKeys[k]; ok {
		return key, nil
	}

	key, err := deriveKeyMaterial(c.AuthProtocol, c.PrivPassword, engineID, c.PrivProtocol.KeySize())
	if err != nil {
		return nil, err
	}
	c.privKeys[k] = key
	return key, nil
}

// NextDESSalt returns the next value of this context's monotonically
// increasing DES salt counter. See RFC 3414 section 8.1.1.1: the counter
// must never repeat for the lifetime of the localized key.
func (c *SecurityContext) NextDESSalt() uint32 {
	return atomic.AddUint32(&c.desSalt, 1)
}

// NextAESSalt returns the next value of this context's monotonically
// increasing AES salt counter.
func (c *SecurityContext) NextAESSalt() uint64 {
	return atomic.AddUint64(&c.aesSalt, 1)
}
