// Package transport implements a shared-socket UDP request/response
// multiplexer. A single Mux owns one net.PacketConn for its entire
// lifetime; any number of callers submit datagrams through it concurrently
// and are correlated back to their response by request id.
package transport

import (
	"context"
	"encoding/hex"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
)

// ErrUnknownRequestID is surfaced internally when an inbound datagram's
// request id does not match any pending entry; it is never returned to a
// Submit caller, only reported through MuxHooks.DatagramDropped.
var ErrUnknownRequestID = errors.New("transport: unknown request id")

// ErrTimeout is returned by a pending request's result when its deadline
// elapses before a response arrives.
var ErrTimeout = errors.New("transport: timeout")

// ErrCancelled is returned when a caller cancels a request before it
// completes.
var ErrCancelled = errors.New("transport: cancelled")

// ErrMuxClosed is returned by Submit once the Mux has been closed.
var ErrMuxClosed = errors.New("transport: mux closed")

// Result is the outcome of a submitted request: exactly one of Data or Err
// is set.
type Result struct {
	Data []byte
	Err  error
}

type pendingRequest struct {
	addr     net.Addr
	result   chan Result
	timer    *time.Timer
	done     int32 // atomic: 1 once completed exactly once
	released bool  // not set or read by Mux; complete frees the in-flight slot
}

// Mux owns exactly one UDP socket and multiplexes many in-flight requests
// over it, correlated by a 32-bit request id. Only Mux mutates its pending
// table; all other access is through Submit/Cancel/Close.
type Mux struct {
	conn  net.PacketConn
	hooks *MuxHooks

	nextID int32 // atomic monotonic counter, wraps past 2^31-1

	mu      sync.Mutex
	pending map[int32]*pendingRequest

	inFlight chan struct{} // semaphore of size maxInFlight

	closeOnce sync.Once
	closed    chan struct{}
	wg        sync.WaitGroup
}

// New opens a UDP socket bound per the supplied options (the unspecified
// address and an OS-chosen port by default) and starts the receive loop.
func New(opts ...MuxOption) (*Mux, error) {
	cfg := defaultMuxConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	conn := cfg.conn
	if conn == nil {
		var err error
		conn, err = net.ListenPacket(cfg.network, cfg.listenAddress)
		if err != nil {
			return nil, errors.Wrap(err, "transport: listen")
		}
	}

	m := &Mux{
		conn:     conn,
		hooks:    cfg.hooks,
		pending:  make(map[int32]*pendingRequest),
		inFlight: make(chan struct{}, cfg.maxInFlight),
		closed:   make(chan struct{}),
	}

	m.wg.Add(1)
	go m.recvLoop(cfg.maxDatagramSize)

	return m, nil
}

// LocalAddr returns the address the underlying socket is bound to.
func (m *Mux) LocalAddr() net.Addr {
	return m.conn.LocalAddr()
}

// NextRequestID allocates the next request id from the process-wide
// monotonic counter, wrapping past 2^31-1 and skipping any value still
// present in the pending table so a wrapped counter never collides with a
// genuinely in-flight request.
func (m *Mux) NextRequestID() int32 {
	for {
		id := atomic.AddInt32(&m.nextID, 1) & 0x7fffffff
		m.mu.Lock()
		_, busy := m.pending[id]
		m.mu.Unlock()
		if !busy {
			return id
		}
	}
}

// Submit registers id as pending, sends payload to addr, and returns a
// channel that receives exactly one Result: the matched response, a
// timeout once deadline elapses, or a cancellation. Submit blocks (subject
// to ctx) while max_in_flight pending requests are already outstanding.
func (m *Mux) Submit(ctx context.Context, id int32, payload []byte, addr net.Addr, timeout time.Duration) (<-chan Result, error) {
	select {
	case <-m.closed:
		return nil, ErrMuxClosed
	default:
	}

	select {
	case m.inFlight <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-m.closed:
		return nil, ErrMuxClosed
	}

	entry := &pendingRequest{
		addr:   addr,
		result: make(chan Result, 1),
	}
	m.mu.Lock()
	m.pending[id] = entry
	m.mu.Unlock()

	entry.timer = time.AfterFunc(timeout, func() {
		m.complete(id, Result{Err: ErrTimeout})
	})

	n, err := m.conn.WriteTo(payload, addr)
	m.hooks.RequestSubmitted(id, addr, payload, err)
	if err != nil {
		m.complete(id, Result{Err: errors.Wrap(err, "transport: send")})
		return entry.result, nil
	}
	if n != len(payload) {
		m.complete(id, Result{Err: errors.New("transport: short write")})
	}

	return entry.result, nil
}

// Cancel completes id's pending entry with ErrCancelled, which the waiter
// receives on its result channel. If a response, a timeout, or Close has
// already completed the entry, Cancel is a no-op: whichever of them
// reaches complete first decides the single Result delivered.
func (m *Mux) Cancel(id int32) {
	m.complete(id, Result{Err: ErrCancelled})
}

// Pending reports the current count of in-flight requests, for tests and
// diagnostics asserting the |pending| <= max_in_flight invariant.
func (m *Mux) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}

// Close stops the receive loop and releases the socket. Any still-pending
// requests are completed with ErrMuxClosed.
func (m *Mux) Close() error {
	var err error
	m.closeOnce.Do(func() {
		close(m.closed)
		err = m.conn.Close()
		m.wg.Wait()

		m.mu.Lock()
		ids := make([]int32, 0, len(m.pending))
		for id := range m.pending {
			ids = append(ids, id)
		}
		m.mu.Unlock()
		for _, id := range ids {
			m.complete(id, Result{Err: ErrMuxClosed})
		}
	})
	return err
}

// complete delivers result to id's waiter exactly once, stops its timer,
// removes it from the pending table, and frees its in-flight slot. Calls
// after the first are no-ops, which is what makes a racing Cancel safe
// against a concurrently arriving datagram.
func (m *Mux) complete(id int32, result Result) {
	m.mu.Lock()
	entry, ok := m.pending[id]
	if !ok {
		m.mu.Unlock()
		return
	}
	delete(m.pending, id)
	m.mu.Unlock()

	if !atomic.CompareAndSwapInt32(&entry.done, 0, 1) {
		return
	}
	if entry.timer != nil {
		entry.timer.Stop()
	}
	entry.result <- result
	<-m.inFlight
}

func (m *Mux) recvLoop(maxDatagramSize int) {
	defer m.wg.Done()

	buf := make([]byte, maxDatagramSize)
	for {
		n, addr, err := m.conn.ReadFrom(buf)
		if err != nil {
			select {
			case <-m.closed:
				return
			default:
				m.hooks.Error("recv", err)
				return
			}
		}

		data := make([]byte, n)
		copy(data, buf[:n])
		m.hooks.DatagramReceived(addr, data)

		id, err := m.hooks.ExtractRequestID(data)
		if err != nil {
			m.hooks.DatagramDropped(addr, data, err)
			continue
		}

		m.mu.Lock()
		_, ok := m.pending[id]
		m.mu.Unlock()
		if !ok {
			m.hooks.DatagramDropped(addr, data, errors.Wrapf(ErrUnknownRequestID, "id=%s", hex.EncodeToString([]byte{byte(id >> 24), byte(id >> 16), byte(id >> 8), byte(id)})))
			continue
		}

		m.complete(id, Result{Data: data})
	}
}
