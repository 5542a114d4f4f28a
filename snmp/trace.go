package snmp

import (
	"encoding/hex"
	"log"
	"time"
)

// SessionTrace defines the trace points a Session reports its activity
// through, generalized from the teacher's connection-oriented trace.go to
// a per-request, per-security-check granularity appropriate to a
// multiplexed, possibly-authenticated request engine. Every hook's first
// argument is the correlation id minted once per logical request (see
// newCorrelationID), letting a diagnostic log reassemble one request's
// connect/write/read/security events out of an otherwise-interleaved
// concurrent stream, the same role the teacher's NETCONF client gives a
// uuid-tagged RPC message id.
type SessionTrace struct {
	// ConnectStart is called before a Session resolves its target address.
	ConnectStart func(correlationID, endpoint string)

	// ConnectDone is called once the target address has been resolved,
	// with err indicating whether resolution succeeded.
	ConnectDone func(correlationID, endpoint string, err error, d time.Duration)

	// WriteDone is called after a request datagram has been encoded and
	// submitted to the mux.
	WriteDone func(correlationID, endpoint string, output []byte, err error, d time.Duration)

	// ReadDone is called after a response datagram has been received,
	// before it is decoded.
	ReadDone func(correlationID, endpoint string, input []byte, err error, d time.Duration)

	// SecurityError is called when USM authentication or decryption
	// fails, before the failure is surfaced to the caller.
	SecurityError func(correlationID, endpoint string, err error)

	// Error is called for any other error condition.
	Error func(correlationID, location, endpoint string, err error)
}

// DefaultTrace logs only error conditions.
var DefaultTrace = &SessionTrace{
	ConnectStart: func(correlationID, endpoint string) {},
	ConnectDone:  func(correlationID, endpoint string, err error, d time.Duration) {},
	WriteDone:    func(correlationID, endpoint string, output []byte, err error, d time.Duration) {},
	ReadDone:     func(correlationID, endpoint string, input []byte, err error, d time.Duration) {},
	SecurityError: func(correlationID, endpoint string, err error) {
		log.Printf("snmp-security-error target:%s err:%v\n", endpoint, err)
	},
	Error: func(correlationID, location, endpoint string, err error) {
		log.Printf("snmp-error context:%s target:%s err:%v\n", location, endpoint, err)
	},
}

// MetricTrace logs every request's outcome and timing without payload
// bytes.
var MetricTrace = &SessionTrace{
	ConnectStart: func(correlationID, endpoint string) {},
	ConnectDone: func(correlationID, endpoint string, err error, d time.Duration) {
		log.Printf("snmp-connect-done target:%s err:%v took:%dms\n", endpoint, err, d.Milliseconds())
	},
	WriteDone: func(correlationID, endpoint string, output []byte, err error, d time.Duration) {
		log.Printf("snmp-write-done target:%s bytes:%d err:%v took:%dms\n", endpoint, len(output), err, d.Milliseconds())
	},
	ReadDone: func(correlationID, endpoint string, input []byte, err error, d time.Duration) {
		log.Printf("snmp-read-done target:%s bytes:%d err:%v took:%dms\n", endpoint, len(input), err, d.Milliseconds())
	},
	SecurityError: DefaultTrace.SecurityError,
	Error:         DefaultTrace.Error,
}

// DiagnosticTrace logs every event with hex-encoded payloads and the
// request's correlation id; intended for interactive troubleshooting, not
// steady-state production use.
var DiagnosticTrace = &SessionTrace{
	ConnectStart: func(correlationID, endpoint string) {
		log.Printf("snmp-connect-start cid:%s target:%s\n", correlationID, endpoint)
	},
	ConnectDone: func(correlationID, endpoint string, err error, d time.Duration) {
		log.Printf("snmp-connect-done cid:%s target:%s err:%v took:%dms\n", correlationID, endpoint, err, d.Milliseconds())
	},
	WriteDone: func(correlationID, endpoint string, output []byte, err error, d time.Duration) {
		log.Printf("snmp-write-done cid:%s target:%s err:%v took:%dms data:%s\n", correlationID, endpoint, err, d.Milliseconds(), hex.EncodeToString(output))
	},
	ReadDone: func(correlationID, endpoint string, input []byte, err error, d time.Duration) {
		log.Printf("snmp-read-done cid:%s target:%s err:%v took:%dms data:%s\n", correlationID, endpoint, err, d.Milliseconds(), hex.EncodeToString(input))
	},
	SecurityError: func(correlationID, endpoint string, err error) {
		log.Printf("snmp-security-error cid:%s target:%s err:%v\n", correlationID, endpoint, err)
	},
	Error: func(correlationID, location, endpoint string, err error) {
		log.Printf("snmp-error cid:%s context:%s target:%s err:%v\n", correlationID, location, endpoint, err)
	},
}

// NoOpTrace discards every event.
var NoOpTrace = &SessionTrace{
	ConnectStart:  func(correlationID, endpoint string) {},
	ConnectDone:   func(correlationID, endpoint string, err error, d time.Duration) {},
	WriteDone:     func(correlationID, endpoint string, output []byte, err error, d time.Duration) {},
	ReadDone:      func(correlationID, endpoint string, input []byte, err error, d time.Duration) {},
	SecurityError: func(correlationID, endpoint string, err error) {},
	Error:         func(correlationID, location, endpoint string, err error) {},
}
