package snmp

import (
	"strconv"

	"github.com/pkg/errors"
)

// Sentinel errors surfaced directly through errors.Is. Parameterized
// failures (network errors, SNMP PDU errors) are typed structs below
// instead, since a caller needs the carried reason/status/index.
var (
	ErrInvalidVersionForBulk    = errors.New("snmp: bulk_requires_v2c_or_v3")
	ErrInvalidOption            = errors.New("snmp: invalid_option")
	ErrUnknownRequestID         = errors.New("snmp: unknown_request_id")
	ErrMalformedResponse        = errors.New("snmp: malformed_response")
	ErrTimeout                  = errors.New("snmp: timeout")
	ErrCancelled                = errors.New("snmp: cancelled")
	ErrWalkDeadlineExceeded     = errors.New("snmp: walk_deadline_exceeded")
	ErrWalkIterationLimit       = errors.New("snmp: walk_iteration_limit")
	ErrStuck                    = errors.New("snmp: stuck")
	ErrDiscoveryTimeout         = errors.New("snmp: discovery_timeout")
	ErrDiscoveryRejected        = errors.New("snmp: discovery_rejected")
	ErrUnknownUser              = errors.New("snmp: unknown_user")
	ErrUnsupportedSecurityLevel = errors.New("snmp: unsupported_security_level")
	ErrHostnameResolutionFailed = errors.New("snmp: hostname_resolution_failed")
)

// NetworkError wraps an OS-level transport failure (send_failed,
// socket_unavailable, or any other net.Error surfaced from the mux).
type NetworkError struct {
	Reason string
	Err    error
}

func (e *NetworkError) Error() string {
	return "snmp: network_error(" + e.Reason + "): " + e.Err.Error()
}

func (e *NetworkError) Unwrap() error { return e.Err }

// SNMPError reports a non-zero error-status in an SNMP response PDU.
// Index is the 1-based position within the varbind list the agent
// blamed, or 0 when not applicable.
type SNMPError struct {
	Status int
	Index  int
}

func (e *SNMPError) Error() string {
	name, ok := errorStatusNames[e.Status]
	if !ok {
		name = "unknown"
	}
	return "snmp: snmp_error(status=" + name + ", index=" + strconv.Itoa(e.Index) + ")"
}

// errorStatusNames names the standard error-status codes (RFC 1905
// section 4.2.1) for readable SNMPError messages.
var errorStatusNames = map[int]string{
	0:  "noError",
	1:  "tooBig",
	2:  "noSuchName",
	3:  "badValue",
	4:  "readOnly",
	5:  "genErr",
	6:  "noAccess",
	7:  "wrongType",
	8:  "wrongLength",
	9:  "wrongEncoding",
	10: "wrongValue",
	11: "noCreation",
	12: "inconsistentValue",
	13: "resourceUnavailable",
	14: "commitFailed",
	15: "undoFailed",
	16: "authorizationError",
	17: "notWritable",
	18: "inconsistentName",
}

// usmStatsOIDs names the well-known USM failure-report OIDs so
// SNMPError-adjacent diagnostics can mention them by name rather than by
// raw OID when a discovery report carries one.
var usmStatsOIDs = map[string]string{
	"1.3.6.1.6.3.15.1.1.1.0": "usmStatsUnsupportedSecLevels",
	"1.3.6.1.6.3.15.1.1.2.0": "usmStatsNotInTimeWindows",
	"1.3.6.1.6.3.15.1.1.3.0": "usmStatsUnknownUserNames",
	"1.3.6.1.6.3.15.1.1.4.0": "usmStatsUnknownEngineIDs",
	"1.3.6.1.6.3.15.1.1.5.0": "usmStatsWrongDigests",
	"1.3.6.1.6.3.15.1.1.6.0": "usmStatsDecryptionErrors",
}
