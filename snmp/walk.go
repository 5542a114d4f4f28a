package snmp

import (
	"context"
	"log"

	"github.com/pkg/errors"
)

// WalkTrace defines the trace points a Walk reports its iteration
// progress through, in the teacher's hook-struct idiom.
type WalkTrace struct {
	// IterationDone is called after each GET-NEXT/GET-BULK round trip,
	// with the new cursor and the count of varbinds accumulated so far.
	IterationDone func(cursor OID, accumulated int)

	// Terminated is called once, with the reason the walk stopped
	// (end_of_mib, out_of_subtree, stuck, error-status name, or an
	// internal error tag).
	Terminated func(reason string)
}

// DefaultWalkTrace reports only termination.
var DefaultWalkTrace = &WalkTrace{
	IterationDone: func(cursor OID, accumulated int) {},
	Terminated: func(reason string) {
		log.Printf("snmp-walk-terminated reason:%s\n", reason)
	},
}

// DiagnosticWalkTrace reports every iteration and the termination.
var DiagnosticWalkTrace = &WalkTrace{
	IterationDone: func(cursor OID, accumulated int) {
		log.Printf("snmp-walk-iteration cursor:%s accumulated:%d\n", cursor, accumulated)
	},
	Terminated: DefaultWalkTrace.Terminated,
}

// NoOpWalkTrace discards every event.
var NoOpWalkTrace = &WalkTrace{
	IterationDone: func(cursor OID, accumulated int) {},
	Terminated:    func(reason string) {},
}

// Walk turns root into the complete lexicographic enumeration of
// varbinds at or below it, dispatching to walkV1 or walkV2cV3 per the
// session's configured version. The walk runs until a terminal
// condition is reached; there is no single-iteration walk.
func (s *Session) Walk(ctx context.Context, root OID, opts ...SessionOption) ([]Varbind, error) {
	cfg := s.effectiveConfig(opts)

	walkCtx, cancel := context.WithTimeout(ctx, cfg.walkBudget)
	defer cancel()

	if cfg.version == V1 {
		return s.walkV1(walkCtx, cfg, root)
	}
	return s.walkV2cV3(walkCtx, cfg, root)
}

// walkV1 repeats GET-NEXT starting from root. The shared subtree
// predicate, cursor-advance rule, and accumulator are the only logic
// this shares with walkV2cV3; version-specific filtering (no
// max_repetitions) happens once, structurally, in PDU.Encode.
func (s *Session) walkV1(ctx context.Context, cfg SessionConfig, root OID) ([]Varbind, error) {
	var results []Varbind
	cursor := root

	for i := 0; ; i++ {
		if i >= cfg.iterationCap {
			cfg.walkTrace.Terminated("walk_iteration_limit")
			return nil, ErrWalkIterationLimit
		}
		select {
		case <-ctx.Done():
			cfg.walkTrace.Terminated("walk_deadline_exceeded")
			return nil, ErrWalkDeadlineExceeded
		default:
		}

		vb, err := s.getNextWithConfig(ctx, cfg, cursor)
		if err != nil {
			var snmpErr *SNMPError
			if errors.As(err, &snmpErr) && snmpErr.Status == 2 { // noSuchName
				cfg.walkTrace.Terminated("no_such_name")
				return results, nil
			}
			cfg.walkTrace.Terminated("error")
			return nil, err
		}

		if vb.Type.IsException() {
			cfg.walkTrace.Terminated("end_of_mib")
			return results, nil
		}
		if !vb.OID.HasPrefix(root) {
			cfg.walkTrace.Terminated("out_of_subtree")
			return results, nil
		}
		if vb.OID.Equal(cursor) {
			cfg.walkTrace.Terminated("stuck")
			return nil, ErrStuck
		}

		results = appendNonDuplicate(results, vb)
		cursor = vb.OID
		cfg.walkTrace.IterationDone(cursor, len(results))
	}
}

// walkV2cV3 repeats GET-BULK (non_repeaters=0) starting from root,
// scanning each response's varbind list in order for subtree membership
// and SNMPv2 exception tags.
func (s *Session) walkV2cV3(ctx context.Context, cfg SessionConfig, root OID) ([]Varbind, error) {
	var results []Varbind
	cursor := root

	for i := 0; ; i++ {
		if i >= cfg.iterationCap {
			cfg.walkTrace.Terminated("walk_iteration_limit")
			return nil, ErrWalkIterationLimit
		}
		select {
		case <-ctx.Done():
			cfg.walkTrace.Terminated("walk_deadline_exceeded")
			return nil, ErrWalkDeadlineExceeded
		default:
		}

		vbs, err := s.getBulkWithConfig(ctx, cfg, cursor)
		if err != nil {
			cfg.walkTrace.Terminated("error")
			return nil, err
		}
		if len(vbs) == 0 {
			cfg.walkTrace.Terminated("end_of_mib")
			return results, nil
		}

		lastCursor := cursor
		terminated := false
		terminationReason := ""
		for _, vb := range vbs {
			if vb.Type.IsException() {
				terminated = true
				terminationReason = "end_of_mib"
				break
			}
			if !vb.OID.HasPrefix(root) {
				terminated = true
				terminationReason = "out_of_subtree"
				break
			}
			results = appendNonDuplicate(results, vb)
			lastCursor = vb.OID
		}

		if terminated {
			cfg.walkTrace.Terminated(terminationReason)
			return results, nil
		}
		if lastCursor.Equal(cursor) {
			cfg.walkTrace.Terminated("stuck")
			return nil, ErrStuck
		}
		cursor = lastCursor
		cfg.walkTrace.IterationDone(cursor, len(results))
	}
}

// appendNonDuplicate drops a varbind whose OID repeats the last
// accumulated one, per the documented handling of a misbehaving agent
// that re-sends the same instance.
func appendNonDuplicate(results []Varbind, vb Varbind) []Varbind {
	if len(results) > 0 && results[len(results)-1].OID.Equal(vb.OID) {
		return results
	}
	return append(results, vb)
}

func (s *Session) getNextWithConfig(ctx context.Context, cfg SessionConfig, oid OID) (Varbind, error) {
	vb, err := NewVarbind(oid, TypeNull, nil)
	if err != nil {
		return Varbind{}, err
	}
	resp, err := s.execute(ctx, cfg, PDU{Type: PDUGetNext, Varbinds: []Varbind{vb}})
	if err != nil {
		return Varbind{}, err
	}
	return firstVarbind(resp)
}

func (s *Session) getBulkWithConfig(ctx context.Context, cfg SessionConfig, root OID) ([]Varbind, error) {
	vb, err := NewVarbind(root, TypeNull, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.execute(ctx, cfg, PDU{
		Type:           PDUGetBulk,
		NonRepeaters:   0,
		MaxRepetitions: cfg.maxRepetitions,
		Varbinds:       []Varbind{vb},
	})
	if err != nil {
		return nil, err
	}
	return resp.Varbinds, nil
}
