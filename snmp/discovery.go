package snmp

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/northfield-labs/snmpcore/transport"
)

// engineEntry is one target's cached (engine_id, engine_boots,
// engine_time) triple, refreshed by discoverEngine.
type engineEntry struct {
	id   []byte
	boots int32
	time  int32

	discoveredAt time.Time
}

// engineCache is the reader-biased, single-writer cache of discovered
// v3 engines, keyed by target address. Readers share a read lock (a
// writer waits for them) and never observe a torn entry; the mutex here
// guards the map itself, not
// the network round trip that populates it.
type engineCache struct {
	mu           sync.RWMutex
	entries      map[string]engineEntry
	idleInterval time.Duration
}

func newEngineCache(idleInterval time.Duration) *engineCache {
	return &engineCache{
		entries:      make(map[string]engineEntry),
		idleInterval: idleInterval,
	}
}

// get returns addr's cached engine entry if present and not past the
// cache's idle interval. An expired entry is treated as absent so the
// caller re-discovers rather than authenticating against a stale
// engine_boots/engine_time pair.
func (c *engineCache) get(addr string) (engineEntry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[addr]
	if !ok {
		return engineEntry{}, false
	}
	if time.Since(e.discoveredAt) > c.idleInterval {
		return engineEntry{}, false
	}
	return e, true
}

func (c *engineCache) set(addr string, e engineEntry) {
	e.discoveredAt = time.Now()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[addr] = e
}

// invalidate drops addr's cached entry, forcing the next authenticated
// request to rediscover. Session.handleSecurityFailure calls it when a
// request fails with an error matching ErrNotInTimeWindow; a
// usmStatsNotInTimeWindows report in a response does not trigger it.
func (c *engineCache) invalidate(addr string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, addr)
}

// discoverEngine obtains (engine_id, engine_boots, engine_time) for addr
// by sending a v3 message with an empty engine id, no-auth/no-priv, PDU
// get with an empty varbind list and the reportable flag set. The
// expected response is a report PDU whose authoritative engine id and
// time fields are the result.
func discoverEngine(ctx context.Context, mux *transport.Mux, addr net.Addr, timeout time.Duration) (engineEntry, error) {
	id := mux.NextRequestID()

	msg := Message{
		Version:       V3,
		MsgID:         id,
		MaxSize:       65507,
		Reportable:    true,
		SecurityModel: 3,
		PDU: PDU{
			Type:      PDUGet,
			RequestID: id,
		},
	}

	payload, err := EncodeMessage(msg, nil)
	if err != nil {
		return engineEntry{}, errors.Wrap(err, "snmp: discovery encode")
	}

	resultCh, err := mux.Submit(ctx, id, payload, addr, timeout)
	if err != nil {
		return engineEntry{}, errors.Wrap(err, "snmp: discovery submit")
	}

	result := <-resultCh
	if result.Err != nil {
		if errors.Is(result.Err, transport.ErrTimeout) {
			return engineEntry{}, ErrDiscoveryTimeout
		}
		return engineEntry{}, errors.Wrap(result.Err, "snmp: discovery")
	}

	resp, err := DecodeMessage(result.Data, nil)
	if err != nil {
		return engineEntry{}, errors.Wrap(err, "snmp: discovery decode")
	}
	if resp.PDU.Type != PDUReport {
		return engineEntry{}, ErrDiscoveryRejected
	}
	if name, ok := reportedUSMStat(resp.PDU); ok {
		return engineEntry{}, errors.Wrapf(ErrDiscoveryRejected, name)
	}

	return engineEntry{
		id:    resp.SecurityParameters.AuthoritativeEngineID,
		boots: resp.SecurityParameters.AuthoritativeEngineBoots,
		time:  resp.SecurityParameters.AuthoritativeEngineTime,
	}, nil
}

// reportedUSMStat reports whether a report PDU's varbind list names one
// of the well-known usmStats failure OIDs, for readable discovery
// rejection errors.
func reportedUSMStat(pdu PDU) (string, bool) {
	for _, vb := range pdu.Varbinds {
		if name, ok := usmStatsOIDs[vb.OID.String()]; ok {
			return name, true
		}
	}
	return "", false
}
