package transport

import (
	"encoding/hex"
	"log"
	"net"

	"github.com/pkg/errors"
)

// MuxHooks defines the trace points a Mux reports its activity through,
// generalized from the session-level SessionTrace pattern to the
// multiplexer's request/datagram granularity. ExtractRequestID is the one
// non-optional hook: the Mux has no built-in notion of the wire format it
// carries, so callers supply the function that recovers a request id from
// a raw inbound datagram.
type MuxHooks struct {
	// RequestSubmitted is called after a datagram has been written for a
	// newly registered request id.
	RequestSubmitted func(id int32, addr net.Addr, payload []byte, err error)

	// DatagramReceived is called for every inbound datagram, before
	// request-id correlation is attempted.
	DatagramReceived func(addr net.Addr, data []byte)

	// DatagramDropped is called when an inbound datagram's request id
	// does not match any pending entry, or cannot be extracted at all.
	DatagramDropped func(addr net.Addr, data []byte, reason error)

	// Error is called when the receive loop itself fails (socket closed
	// unexpectedly, OS-level read error).
	Error func(location string, err error)

	// ExtractRequestID recovers the correlation id from a raw inbound
	// datagram. It is the Mux's only point of contact with the wire
	// format above UDP, keeping transport ignorant of BER/SNMP framing.
	ExtractRequestID func(data []byte) (int32, error)
}

// DefaultHooks logs errors and dropped datagrams; all other events are
// silent.
var DefaultHooks = &MuxHooks{
	Error: func(location string, err error) {
		log.Printf("transport-error location:%s err:%v\n", location, err)
	},
	DatagramDropped: func(addr net.Addr, data []byte, reason error) {
		log.Printf("transport-dropped source:%s err:%v\n", addr, reason)
	},
	ExtractRequestID: func(data []byte) (int32, error) {
		return 0, errors.New("transport: no ExtractRequestID hook configured")
	},
}

// MetricHooks logs every submission and datagram outcome without payload
// bytes, suitable for production metrics scraping via log lines.
var MetricHooks = &MuxHooks{
	RequestSubmitted: func(id int32, addr net.Addr, payload []byte, err error) {
		log.Printf("transport-submitted id:%d target:%s bytes:%d err:%v\n", id, addr, len(payload), err)
	},
	DatagramReceived: func(addr net.Addr, data []byte) {
		log.Printf("transport-received source:%s bytes:%d\n", addr, len(data))
	},
	DatagramDropped: DefaultHooks.DatagramDropped,
	Error:           DefaultHooks.Error,
	ExtractRequestID: DefaultHooks.ExtractRequestID,
}

// DiagnosticHooks logs every event with hex-encoded payloads; intended
// for interactive troubleshooting, not steady-state production use.
var DiagnosticHooks = &MuxHooks{
	RequestSubmitted: func(id int32, addr net.Addr, payload []byte, err error) {
		log.Printf("transport-submitted id:%d target:%s err:%v data:%s\n", id, addr, err, hex.EncodeToString(payload))
	},
	DatagramReceived: func(addr net.Addr, data []byte) {
		log.Printf("transport-received source:%s data:%s\n", addr, hex.EncodeToString(data))
	},
	DatagramDropped: func(addr net.Addr, data []byte, reason error) {
		log.Printf("transport-dropped source:%s err:%v data:%s\n", addr, reason, hex.EncodeToString(data))
	},
	Error:            DefaultHooks.Error,
	ExtractRequestID: DefaultHooks.ExtractRequestID,
}

// NoOpHooks discards every event. ExtractRequestID still must be supplied
// by the caller via WithHooks; the zero-value hook returned here always
// fails, since a Mux cannot correlate datagrams without it.
var NoOpHooks = &MuxHooks{
	RequestSubmitted: func(id int32, addr net.Addr, payload []byte, err error) {},
	DatagramReceived: func(addr net.Addr, data []byte) {},
	DatagramDropped:  func(addr net.Addr, data []byte, reason error) {},
	Error:            func(location string, err error) {},
	ExtractRequestID: DefaultHooks.ExtractRequestID,
}
