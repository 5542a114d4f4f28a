package snmp

import (
	"context"
	"net"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/northfield-labs/snmpcore/transport"
	"github.com/northfield-labs/snmpcore/usm"
)

// newCorrelationID mints the per-request id threaded through every
// SessionTrace hook for one logical request's lifecycle (including its
// retries), so a DiagnosticTrace log can be reassembled per request out
// of an otherwise-interleaved concurrent stream. Grounded on the
// teacher's NETCONF client, which tags every RPC with a uuid message id
// for the same reason.
func newCorrelationID() string {
	return uuid.New().String()
}

// Session offers get/get_next/get_bulk/set against a single endpoint,
// built on a shared transport.Mux. A Session owns no socket itself: any
// number of Sessions may share one Mux, multiplexed by request id.
type Session struct {
	mux      *transport.Mux
	endpoint string
	addr     net.Addr

	secCtx  *usm.SecurityContext
	engines *engineCache

	config SessionConfig
}

// NewSession resolves endpoint (host, or host:port defaulting to 161)
// and returns a Session configured by opts. The Session does not dial;
// all I/O is funneled through mux.
func NewSession(mux *transport.Mux, endpoint string, opts ...SessionOption) (*Session, error) {
	cfg := defaultSessionConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	stripV1BulkOptions(&cfg)

	cid := newCorrelationID()
	start := time.Now()
	cfg.trace.ConnectStart(cid, endpoint)
	addr, err := net.ResolveUDPAddr("udp", withDefaultPort(endpoint, "161"))
	cfg.trace.ConnectDone(cid, endpoint, err, time.Since(start))
	if err != nil {
		return nil, errors.Wrapf(ErrHostnameResolutionFailed, "%s: %v", endpoint, err)
	}

	var secCtx *usm.SecurityContext
	if cfg.version == V3 && cfg.userName != "" {
		secCtx = usm.NewSecurityContext(cfg.userName, cfg.authProtocol, cfg.authPassword, cfg.privProtocol, cfg.privPassword)
	}

	return &Session{
		mux:      mux,
		endpoint: endpoint,
		addr:     addr,
		secCtx:   secCtx,
		engines:  newEngineCache(cfg.engineCacheIdle),
		config:   cfg,
	}, nil
}

func withDefaultPort(endpoint, defaultPort string) string {
	if _, _, err := net.SplitHostPort(endpoint); err == nil {
		return endpoint
	}
	return net.JoinHostPort(endpoint, defaultPort)
}

// Get issues a GET request for oid.
func (s *Session) Get(ctx context.Context, oid OID, opts ...SessionOption) (Varbind, error) {
	vb, err := NewVarbind(oid, TypeNull, nil)
	if err != nil {
		return Varbind{}, err
	}
	cfg := s.effectiveConfig(opts)
	resp, err := s.execute(ctx, cfg, PDU{Type: PDUGet, Varbinds: []Varbind{vb}})
	if err != nil {
		return Varbind{}, err
	}
	return firstVarbind(resp)
}

// GetNext issues a GET-NEXT request for oid.
func (s *Session) GetNext(ctx context.Context, oid OID, opts ...SessionOption) (Varbind, error) {
	vb, err := NewVarbind(oid, TypeNull, nil)
	if err != nil {
		return Varbind{}, err
	}
	cfg := s.effectiveConfig(opts)
	resp, err := s.execute(ctx, cfg, PDU{Type: PDUGetNext, Varbinds: []Varbind{vb}})
	if err != nil {
		return Varbind{}, err
	}
	return firstVarbind(resp)
}

// GetBulk issues a GET-BULK request rooted at root. Rejected for v1 with
// ErrInvalidVersionForBulk, since GET-BULK does not exist in that
// version of the protocol.
func (s *Session) GetBulk(ctx context.Context, root OID, opts ...SessionOption) ([]Varbind, error) {
	cfg := s.effectiveConfig(opts)
	if cfg.version == V1 {
		return nil, ErrInvalidVersionForBulk
	}
	vb, err := NewVarbind(root, TypeNull, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.execute(ctx, cfg, PDU{
		Type:           PDUGetBulk,
		NonRepeaters:   cfg.nonRepeaters,
		MaxRepetitions: cfg.maxRepetitions,
		Varbinds:       []Varbind{vb},
	})
	if err != nil {
		return nil, err
	}
	return resp.Varbinds, nil
}

// Set issues a SET request, writing value (typed typ) to oid.
func (s *Session) Set(ctx context.Context, oid OID, typ Type, value interface{}, opts ...SessionOption) (Varbind, error) {
	vb, err := NewVarbind(oid, typ, value)
	if err != nil {
		return Varbind{}, err
	}
	cfg := s.effectiveConfig(opts)
	resp, err := s.execute(ctx, cfg, PDU{Type: PDUSet, Varbinds: []Varbind{vb}})
	if err != nil {
		return Varbind{}, err
	}
	return firstVarbind(resp)
}

func firstVarbind(pdu PDU) (Varbind, error) {
	if len(pdu.Varbinds) == 0 {
		return Varbind{}, ErrMalformedResponse
	}
	return pdu.Varbinds[0], nil
}

// effectiveConfig layers per-call opts onto the Session's base
// configuration without mutating it, then re-applies the v1 GET-BULK
// stripping rule since a per-call option may have changed the version.
func (s *Session) effectiveConfig(opts []SessionOption) SessionConfig {
	cfg := s.config
	for _, opt := range opts {
		opt(&cfg)
	}
	stripV1BulkOptions(&cfg)
	return cfg
}

// execute sends pdu and returns the decoded response PDU, retrying on
// timeout up to cfg.retries times. Every other failure is returned
// immediately, unretried, per the engine's failure semantics.
func (s *Session) execute(ctx context.Context, cfg SessionConfig, pdu PDU) (PDU, error) {
	cid := newCorrelationID()
	for attempt := 0; ; attempt++ {
		id := s.mux.NextRequestID()
		pdu.RequestID = id

		msg, err := s.buildMessage(ctx, cfg, id, pdu)
		if err != nil {
			return PDU{}, err
		}

		payload, err := EncodeMessage(msg, s.secCtx)
		if err != nil {
			cfg.trace.Error(cid, "encode", s.endpoint, err)
			return PDU{}, err
		}

		writeStart := time.Now()
		resultCh, err := s.mux.Submit(ctx, id, payload, s.addr, cfg.timeout)
		cfg.trace.WriteDone(cid, s.endpoint, payload, err, time.Since(writeStart))
		if err != nil {
			return PDU{}, &NetworkError{Reason: "send_failed", Err: err}
		}

		readStart := time.Now()
		result := <-resultCh
		cfg.trace.ReadDone(cid, s.endpoint, result.Data, result.Err, time.Since(readStart))

		if result.Err != nil {
			if errors.Is(result.Err, transport.ErrTimeout) {
				if attempt < cfg.retries {
					continue
				}
				return PDU{}, ErrTimeout
			}
			if errors.Is(result.Err, transport.ErrCancelled) {
				return PDU{}, ErrCancelled
			}
			return PDU{}, &NetworkError{Reason: "socket_unavailable", Err: result.Err}
		}

		respMsg, err := DecodeMessage(result.Data, s.secCtx)
		if err != nil {
			if isSecurityError(err) {
				cfg.trace.SecurityError(cid, s.endpoint, err)
				s.handleSecurityFailure(err)
			}
			return PDU{}, err
		}

		if respMsg.PDU.ErrorStatus != 0 {
			return PDU{}, &SNMPError{Status: respMsg.PDU.ErrorStatus, Index: respMsg.PDU.ErrorIndex}
		}
		return respMsg.PDU, nil
	}
}

// buildMessage assembles the version-specific envelope around pdu. For
// v3 it ensures a discovered engine is available, localizing the USM
// security parameters to it.
func (s *Session) buildMessage(ctx context.Context, cfg SessionConfig, id int32, pdu PDU) (Message, error) {
	switch cfg.version {
	case V1:
		return Message{Version: V1, Community: cfg.community, PDU: pdu}, nil
	case V2c:
		return Message{Version: V2c, Community: cfg.community, PDU: pdu}, nil
	case V3:
		if s.secCtx == nil {
			return Message{}, errors.New("snmp: v3 requires WithUSM")
		}
		entry, err := s.ensureEngine(ctx, cfg)
		if err != nil {
			return Message{}, err
		}
		return Message{
			Version:       V3,
			MsgID:         id,
			MaxSize:       65507,
			Auth:          cfg.authProtocol != usm.NoAuth,
			Priv:          cfg.privProtocol != usm.NoPriv,
			Reportable:    true,
			SecurityModel: 3,
			SecurityParameters: USMSecurityParameters{
				AuthoritativeEngineID:    entry.id,
				AuthoritativeEngineBoots: entry.boots,
				AuthoritativeEngineTime:  entry.time,
				UserName:                 cfg.userName,
			},
			ContextEngineID: entry.id,
			PDU:             pdu,
		}, nil
	default:
		return Message{}, errors.Errorf("snmp: unsupported version %d", cfg.version)
	}
}

func (s *Session) ensureEngine(ctx context.Context, cfg SessionConfig) (engineEntry, error) {
	if entry, ok := s.engines.get(s.endpoint); ok {
		return entry, nil
	}
	entry, err := discoverEngine(ctx, s.mux, s.addr, cfg.timeout)
	if err != nil {
		return engineEntry{}, err
	}
	s.engines.set(s.endpoint, entry)
	return entry, nil
}

// handleSecurityFailure invalidates the cached engine entry when a
// response's security failure suggests clock drift, forcing
// rediscovery on the next authenticated request.
func (s *Session) handleSecurityFailure(err error) {
	if errors.Is(err, ErrNotInTimeWindow) {
		s.engines.invalidate(s.endpoint)
	}
}

func isSecurityError(err error) bool {
	return errors.Is(err, usm.ErrAuthenticationMismatch) ||
		errors.Is(err, usm.ErrDecryptionFailed) ||
		errors.Is(err, ErrNotInTimeWindow)
}
