package snmp

import (
	"time"

	"github.com/northfield-labs/snmpcore/usm"
)

// SessionConfig holds the closed set of options a Session (or a single
// call against one) is governed by. There is no exported config struct a
// caller builds directly; every field is set through a SessionOption,
// mirroring the teacher's SessionConfig/sessionfactory.go pattern.
type SessionConfig struct {
	version Version

	// v1/v2c
	community []byte

	// v3
	userName     string
	authProtocol usm.AuthProtocol
	authPassword string
	privProtocol usm.PrivProtocol
	privPassword string

	timeout        time.Duration
	retries        int
	maxRepetitions int
	nonRepeaters   int

	sourceAddress string

	walkBudget   time.Duration
	iterationCap int

	engineCacheIdle time.Duration

	trace     *SessionTrace
	walkTrace *WalkTrace
}

var defaultSessionConfig = SessionConfig{
	version:         DefaultConfig.DefaultVersion,
	community:       []byte(DefaultConfig.DefaultCommunity),
	timeout:         DefaultConfig.DefaultTimeout,
	retries:         DefaultConfig.DefaultRetries,
	maxRepetitions:  DefaultConfig.DefaultMaxRepetitions,
	nonRepeaters:    0,
	walkBudget:      DefaultConfig.WalkBudget,
	iterationCap:    10000,
	engineCacheIdle: DefaultConfig.EngineCacheIdle,
	trace:           DefaultTrace,
	walkTrace:       DefaultWalkTrace,
}

// SessionOption configures a Session at construction time, or overrides
// one field for a single call when passed to Get/GetNext/GetBulk/Set.
type SessionOption func(*SessionConfig)

// WithVersion selects the SNMP version. Default V2c.
func WithVersion(v Version) SessionOption {
	return func(c *SessionConfig) { c.version = v }
}

// WithCommunity sets the v1/v2c community string. Default "public".
func WithCommunity(community string) SessionOption {
	return func(c *SessionConfig) { c.community = []byte(community) }
}

// WithUSM sets the v3 USM user and security protocols. Pass usm.NoAuth /
// usm.NoPriv and an empty password for the levels not in use.
func WithUSM(userName string, authProtocol usm.AuthProtocol, authPassword string, privProtocol usm.PrivProtocol, privPassword string) SessionOption {
	return func(c *SessionConfig) {
		c.userName = userName
		c.authProtocol = authProtocol
		c.authPassword = authPassword
		c.privProtocol = privProtocol
		c.privPassword = privPassword
	}
}

// WithTimeout sets the per-PDU response deadline. Default 10s. Per
// testable invariant, a non-positive timeout is invalid and is ignored in
// favour of whatever value it would otherwise override.
func WithTimeout(d time.Duration) SessionOption {
	return func(c *SessionConfig) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithRetries sets the number of retransmits on timeout only. Default 0.
func WithRetries(n int) SessionOption {
	return func(c *SessionConfig) {
		if n >= 0 {
			c.retries = n
		}
	}
}

// WithMaxRepetitions sets the GET-BULK max-repetitions hint. Ignored for
// non-bulk operations and for v1. Default 10.
func WithMaxRepetitions(n int) SessionOption {
	return func(c *SessionConfig) { c.maxRepetitions = n }
}

// WithNonRepeaters sets the GET-BULK non-repeaters count. Default 0.
func WithNonRepeaters(n int) SessionOption {
	return func(c *SessionConfig) { c.nonRepeaters = n }
}

// WithSourceAddress records addr on the SessionConfig. A Session binds no
// socket of its own and sends every request through its Mux, so the value
// does not change the address requests are sent from; the Mux's local
// address is set by transport.WithListenAddress.
func WithSourceAddress(addr string) SessionOption {
	return func(c *SessionConfig) { c.sourceAddress = addr }
}

// WithTrace installs the trace hooks a Session reports its activity
// through. Default DefaultTrace.
func WithTrace(trace *SessionTrace) SessionOption {
	return func(c *SessionConfig) { c.trace = trace }
}

// WithWalkBudget sets the total wall-clock ceiling for a Walk, distinct
// from the per-PDU timeout. Default 20 minutes.
func WithWalkBudget(d time.Duration) SessionOption {
	return func(c *SessionConfig) {
		if d > 0 {
			c.walkBudget = d
		}
	}
}

// WithIterationCap bounds the number of GET-NEXT/GET-BULK round trips a
// single Walk will issue before failing closed with
// ErrWalkIterationLimit. Default 10000.
func WithIterationCap(n int) SessionOption {
	return func(c *SessionConfig) {
		if n > 0 {
			c.iterationCap = n
		}
	}
}

// WithWalkTrace installs the trace hooks a Walk reports its iteration
// progress through. Default DefaultWalkTrace.
func WithWalkTrace(trace *WalkTrace) SessionOption {
	return func(c *SessionConfig) { c.walkTrace = trace }
}

// WithEngineCacheIdle overrides how long a v3 Session's cached engine
// entry is retained before it is discarded and rediscovered, mirroring
// the configuration surface's engine_cache_idle_ms option. Default 5
// minutes (Config.EngineCacheIdle).
func WithEngineCacheIdle(d time.Duration) SessionOption {
	return func(c *SessionConfig) {
		if d > 0 {
			c.engineCacheIdle = d
		}
	}
}

// stripV1BulkOptions removes max_repetitions/non_repeaters' effect for
// v1, per the hard boundary rule in the request engine: v1 never carries
// GET-BULK parameters. Because PDU.Encode only serializes those fields
// for a bulk PDU type (which v1 never constructs), this is enforced
// structurally; stripV1BulkOptions exists to make that enforcement
// explicit and auditable at the one place version dispatch happens.
func stripV1BulkOptions(cfg *SessionConfig) {
	if cfg.version == V1 {
		cfg.maxRepetitions = 0
		cfg.nonRepeaters = 0
	}
}
