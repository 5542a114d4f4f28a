package snmp

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/northfield-labs/snmpcore/transport"
)

// OperationKind selects which request engine call a multi-executor
// Operation dispatches to.
type OperationKind int

const (
	OpGet OperationKind = iota
	OpGetNext
	OpGetBulk
	OpSet
	OpWalk
)

// Operation is one (endpoint, operation, per_request_opts) tuple
// submitted to an Executor. Options set here override the executor's
// global options for this operation only; a nil or non-positive value
// left on a zero-value numeric option falls back to the global value,
// since the underlying SessionOption setters themselves ignore invalid
// overrides.
type Operation struct {
	Endpoint string
	Kind     OperationKind
	OID      OID
	Type     Type
	Value    interface{}
	Options  []SessionOption
}

// MultiResult is one Operation's outcome. Varbind is set for
// get/get_next/set; Varbinds is set for get_bulk/walk. Exactly one of
// (Varbind, Varbinds, Err) carries meaningful data.
type MultiResult struct {
	Varbind  Varbind
	Varbinds []Varbind
	Err      error
}

// Executor fans requests out over a single shared transport.Mux,
// bounded by max_concurrency, grounded on the teacher's
// ManagerOption/managerfactory.go pattern of holding a shared resource
// behind a handle type rather than one connection per call.
type Executor struct {
	mux            *transport.Mux
	maxConcurrency int
	walkBudget     time.Duration
}

// ExecutorOption configures an Executor at construction time.
type ExecutorOption func(*executorConfig)

type executorConfig struct {
	maxConcurrency int
	walkBudget     time.Duration
}

var defaultExecutorConfig = executorConfig{
	maxConcurrency: DefaultConfig.MaxConcurrency,
	walkBudget:     DefaultConfig.WalkBudget,
}

// WithMaxConcurrency bounds how many operations run at once; the
// remainder queue in submission order. Default 10.
func WithMaxConcurrency(n int) ExecutorOption {
	return func(c *executorConfig) {
		if n > 0 {
			c.maxConcurrency = n
		}
	}
}

// WithExecutorWalkBudget sets the fixed ceiling applied to every
// walk-kind operation's task-level watchdog, distinct from
// per_pdu_timeout+1s applied to every other kind. Default 20 minutes.
func WithExecutorWalkBudget(d time.Duration) ExecutorOption {
	return func(c *executorConfig) {
		if d > 0 {
			c.walkBudget = d
		}
	}
}

// NewMultiExecutor returns an Executor sharing mux across every
// operation it runs.
func NewMultiExecutor(mux *transport.Mux, opts ...ExecutorOption) *Executor {
	cfg := defaultExecutorConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Executor{mux: mux, maxConcurrency: cfg.maxConcurrency, walkBudget: cfg.walkBudget}
}

// Run executes operations concurrently (bounded by max_concurrency),
// applying globalOpts to every operation before its own per-request
// options, and returns results in the same order as operations. A
// failed operation surfaces at its index without aborting its siblings.
func (e *Executor) Run(ctx context.Context, operations []Operation, globalOpts ...SessionOption) []MultiResult {
	results := make([]MultiResult, len(operations))
	sem := make(chan struct{}, e.maxConcurrency)

	var wg sync.WaitGroup
	for i, op := range operations {
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			results[i] = MultiResult{Err: ErrCancelled}
			continue
		}
		wg.Add(1)
		go func(i int, op Operation) {
			defer wg.Done()
			defer func() { <-sem }()
			results[i] = e.runOne(ctx, op, globalOpts)
		}(i, op)
	}
	wg.Wait()
	return results
}

func (e *Executor) runOne(ctx context.Context, op Operation, globalOpts []SessionOption) MultiResult {
	opts := make([]SessionOption, 0, len(globalOpts)+len(op.Options))
	opts = append(opts, globalOpts...)
	opts = append(opts, op.Options...)

	session, err := NewSession(e.mux, op.Endpoint, opts...)
	if err != nil {
		return MultiResult{Err: err}
	}

	var watchdog time.Duration
	if op.Kind == OpWalk {
		watchdog = e.walkBudget
	} else {
		watchdog = session.effectiveConfig(nil).timeout + time.Second
	}
	opCtx, cancel := context.WithTimeout(ctx, watchdog)
	defer cancel()

	switch op.Kind {
	case OpGet:
		vb, err := session.Get(opCtx, op.OID)
		return MultiResult{Varbind: vb, Err: err}
	case OpGetNext:
		vb, err := session.GetNext(opCtx, op.OID)
		return MultiResult{Varbind: vb, Err: err}
	case OpGetBulk:
		vbs, err := session.GetBulk(opCtx, op.OID)
		return MultiResult{Varbinds: vbs, Err: err}
	case OpSet:
		vb, err := session.Set(opCtx, op.OID, op.Type, op.Value)
		return MultiResult{Varbind: vb, Err: err}
	case OpWalk:
		vbs, err := session.Walk(opCtx, op.OID)
		return MultiResult{Varbinds: vbs, Err: err}
	default:
		return MultiResult{Err: errors.Errorf("snmp: unsupported operation kind %d", op.Kind)}
	}
}
