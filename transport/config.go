package transport

import (
	"net"

	"github.com/imdario/mergo"
)

// muxConfig holds the settings a Mux is constructed with. There is no
// exported config struct; callers configure a Mux exclusively through
// MuxOption values, mirroring the functional-options pattern the rest of
// this module uses for Session and Executor.
type muxConfig struct {
	network         string
	listenAddress   string
	maxInFlight     int
	maxDatagramSize int
	hooks           *MuxHooks
	conn            net.PacketConn
}

var defaultMuxConfig = muxConfig{
	network:         "udp",
	listenAddress:   ":0",
	maxInFlight:     1024,
	maxDatagramSize: 65536,
	hooks:           NoOpHooks,
}

// MuxOption configures a Mux at construction time.
type MuxOption func(*muxConfig)

// WithMaxInFlight bounds the number of concurrently outstanding requests;
// Submit blocks once this many are pending. Default 1024.
func WithMaxInFlight(n int) MuxOption {
	return func(c *muxConfig) {
		c.maxInFlight = n
	}
}

// WithListenAddress overrides the local address the socket binds to.
// Default ":0" (unspecified address, OS-chosen port).
func WithListenAddress(addr string) MuxOption {
	return func(c *muxConfig) {
		c.listenAddress = addr
	}
}

// WithHooks installs the trace hooks the Mux reports its activity through.
// Any hook left nil on the supplied value falls back to NoOpHooks for that
// event.
func WithHooks(hooks *MuxHooks) MuxOption {
	return func(c *muxConfig) {
		merged := *NoOpHooks
		_ = mergo.Merge(&merged, *hooks, mergo.WithOverride)
		c.hooks = &merged
	}
}

// WithMaxDatagramSize bounds the receive buffer; the core must accept up
// to 64 KiB datagrams per the wire format contract. Default 65536.
func WithMaxDatagramSize(n int) MuxOption {
	return func(c *muxConfig) {
		c.maxDatagramSize = n
	}
}

// WithConn injects an already-constructed net.PacketConn instead of
// having New dial one itself. This exists so tests can exercise Mux
// against a mocked PacketConn (see mocks.MockPacketConn) without a real
// socket; production callers have no reason to use it over the default
// network/listenAddress pair.
func WithConn(conn net.PacketConn) MuxOption {
	return func(c *muxConfig) {
		c.conn = conn
	}
}
