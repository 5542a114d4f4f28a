package snmp

import (
	"context"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/northfield-labs/snmpcore/transport"
)

// startFakeAgent listens on its own UDP socket, decodes every inbound
// datagram as an snmp.Message, and replies with whatever handle returns,
// simulating a remote SNMP agent for the request engine's tests.
func startFakeAgent(t *testing.T, handle func(Message) Message) net.Addr {
	t.Helper()
	conn, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	go func() {
		buf := make([]byte, 65536)
		for {
			n, addr, err := conn.ReadFrom(buf)
			if err != nil {
				return
			}
			data := append([]byte{}, buf[:n]...)
			reqMsg, err := DecodeMessage(data, nil)
			if err != nil {
				continue
			}
			respMsg := handle(reqMsg)
			payload, err := EncodeMessage(respMsg, nil)
			if err != nil {
				continue
			}
			_, _ = conn.WriteTo(payload, addr)
		}
	}()
	return conn.LocalAddr()
}

func newTestMux(t *testing.T) *transport.Mux {
	t.Helper()
	m, err := transport.New(transport.WithHooks(&transport.MuxHooks{ExtractRequestID: ExtractRequestID}))
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })
	return m
}

func echoResponse(req Message, vbs ...Varbind) Message {
	return Message{
		Version:   req.Version,
		Community: req.Community,
		PDU: PDU{
			Type:      PDUGetResponse,
			RequestID: req.PDU.RequestID,
			Varbinds:  vbs,
		},
	}
}

// TestSessionGetReturnsValue covers Scenario S1: a simple v2c GET against
// sysDescr.0 returning an octet_string value.
func TestSessionGetReturnsValue(t *testing.T) {
	sysDescr := OID{1, 3, 6, 1, 2, 1, 1, 1, 0}
	agent := startFakeAgent(t, func(req Message) Message {
		vb, _ := NewVarbind(sysDescr, TypeOctetString, []byte("Router"))
		return echoResponse(req, vb)
	})

	mux := newTestMux(t)
	session, err := NewSession(mux, agent.String(), WithVersion(V2c), WithCommunity("public"))
	require.NoError(t, err)

	vb, err := session.Get(context.Background(), sysDescr)
	require.NoError(t, err)
	assert.Equal(t, TypeOctetString, vb.Type)
	assert.Equal(t, []byte("Router"), vb.Value)
}

func TestSessionSurfacesSNMPErrorStatus(t *testing.T) {
	target := OID{1, 3, 6, 1, 2, 1, 99, 0}
	agent := startFakeAgent(t, func(req Message) Message {
		vb, _ := NewVarbind(target, TypeNull, nil)
		resp := echoResponse(req, vb)
		resp.PDU.ErrorStatus = 2 // noSuchName
		resp.PDU.ErrorIndex = 1
		return resp
	})

	mux := newTestMux(t)
	session, err := NewSession(mux, agent.String(), WithVersion(V2c))
	require.NoError(t, err)

	_, err = session.Get(context.Background(), target)
	require.Error(t, err)
	var snmpErr *SNMPError
	require.ErrorAs(t, err, &snmpErr)
	assert.Equal(t, 2, snmpErr.Status)
	assert.Equal(t, 1, snmpErr.Index)
}

func TestSessionTimeoutAfterRetriesExhausted(t *testing.T) {
	// A socket that never replies.
	conn, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	mux := newTestMux(t)
	session, err := NewSession(mux, conn.LocalAddr().String(),
		WithVersion(V2c), WithTimeout(50*time.Millisecond), WithRetries(1))
	require.NoError(t, err)

	start := time.Now()
	_, err = session.Get(context.Background(), OID{1, 3, 6, 1, 2, 1, 1, 1, 0})
	elapsed := time.Since(start)

	assert.ErrorIs(t, err, ErrTimeout)
	// One retry means two attempts at ~50ms each.
	assert.GreaterOrEqual(t, elapsed, 100*time.Millisecond)
}

func TestSessionRetriesThenSucceeds(t *testing.T) {
	sysDescr := OID{1, 3, 6, 1, 2, 1, 1, 1, 0}
	var attempts int32

	conn, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	go func() {
		buf := make([]byte, 65536)
		for {
			n, addr, err := conn.ReadFrom(buf)
			if err != nil {
				return
			}
			if atomic.AddInt32(&attempts, 1) == 1 {
				// Drop the first attempt to force a retry.
				continue
			}
			data := append([]byte{}, buf[:n]...)
			reqMsg, err := DecodeMessage(data, nil)
			if err != nil {
				continue
			}
			vb, _ := NewVarbind(sysDescr, TypeOctetString, []byte("Router"))
			payload, err := EncodeMessage(echoResponse(reqMsg, vb), nil)
			if err != nil {
				continue
			}
			_, _ = conn.WriteTo(payload, addr)
		}
	}()

	mux := newTestMux(t)
	session, err := NewSession(mux, conn.LocalAddr().String(),
		WithVersion(V2c), WithTimeout(100*time.Millisecond), WithRetries(2))
	require.NoError(t, err)

	vb, err := session.Get(context.Background(), sysDescr)
	require.NoError(t, err)
	assert.Equal(t, []byte("Router"), vb.Value)
	assert.GreaterOrEqual(t, atomic.LoadInt32(&attempts), int32(2))
}

func TestSessionGetBulkRejectedForV1(t *testing.T) {
	mux := newTestMux(t)
	session, err := NewSession(mux, "127.0.0.1:161", WithVersion(V1))
	require.NoError(t, err)

	_, err = session.GetBulk(context.Background(), OID{1, 3, 6, 1, 2, 1, 1})
	assert.ErrorIs(t, err, ErrInvalidVersionForBulk)
}

func TestSessionSetRoundTrip(t *testing.T) {
	target := OID{1, 3, 6, 1, 2, 1, 1, 5, 0}
	agent := startFakeAgent(t, func(req Message) Message {
		return echoResponse(req, req.PDU.Varbinds[0])
	})

	mux := newTestMux(t)
	session, err := NewSession(mux, agent.String(), WithVersion(V2c))
	require.NoError(t, err)

	vb, err := session.Set(context.Background(), target, TypeOctetString, []byte("new-name"))
	require.NoError(t, err)
	assert.Equal(t, []byte("new-name"), vb.Value)
}

func TestNewSessionWrapsResolutionFailureWithSentinel(t *testing.T) {
	mux := newTestMux(t)
	_, err := NewSession(mux, "not a valid:hostname:at-all", WithVersion(V2c))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrHostnameResolutionFailed)
}
