package snmp

import (
	"time"

	"github.com/pkg/errors"

	"github.com/northfield-labs/snmpcore/transport"
)

// Config is the closed set of top-level options a snmpcore deployment is
// governed by. It is the single source of defaults that SessionConfig,
// executorConfig, and transport.Mux construction all fall back to,
// generalizing the teacher's SessionConfig/ServerConfig default-value
// pattern from one connection to the whole module.
type Config struct {
	DefaultVersion        Version
	DefaultCommunity      string
	DefaultTimeout        time.Duration
	DefaultRetries        int
	DefaultMaxRepetitions int
	WalkBudget            time.Duration
	MaxConcurrency        int
	MaxInFlight           int
	EngineCacheIdle       time.Duration

	// AutoStartServices mirrors auto_start_services. When true (the
	// default) NewService binds the shared Mux immediately; when false,
	// Start must be called explicitly before the Service's Mux is
	// usable.
	AutoStartServices bool
}

// DefaultConfig holds the spec-mandated default for every recognized
// option in Config.
var DefaultConfig = Config{
	DefaultVersion:        V2c,
	DefaultCommunity:      "public",
	DefaultTimeout:        10 * time.Second,
	DefaultRetries:        0,
	DefaultMaxRepetitions: 10,
	WalkBudget:            20 * time.Minute,
	MaxConcurrency:        10,
	MaxInFlight:           1024,
	EngineCacheIdle:       5 * time.Minute,
	AutoStartServices:     true,
}

// sessionOptionsFromConfig layers cfg's defaulted fields on as
// SessionOptions, ahead of whatever options a Service.NewSession caller
// supplies, so per-call overrides still take precedence.
func sessionOptionsFromConfig(cfg Config) []SessionOption {
	return []SessionOption{
		WithVersion(cfg.DefaultVersion),
		WithCommunity(cfg.DefaultCommunity),
		WithTimeout(cfg.DefaultTimeout),
		WithRetries(cfg.DefaultRetries),
		WithMaxRepetitions(cfg.DefaultMaxRepetitions),
		WithWalkBudget(cfg.WalkBudget),
		WithEngineCacheIdle(cfg.EngineCacheIdle),
	}
}

// Service bundles a Config with the shared transport.Mux it governs,
// exposing auto_start_services' deferred-initialisation alternative to
// the default immediate-bind behaviour.
type Service struct {
	Config Config

	mux *transport.Mux
}

// NewService constructs a Service from cfg. When cfg.AutoStartServices
// is true, the underlying Mux is bound immediately via Start; when
// false, the Service is returned with no bound Mux, and Start must be
// called before NewSession or NewExecutor.
func NewService(cfg Config, opts ...transport.MuxOption) (*Service, error) {
	svc := &Service{Config: cfg}
	if cfg.AutoStartServices {
		if err := svc.Start(opts...); err != nil {
			return nil, err
		}
	}
	return svc, nil
}

// Start binds the Service's shared Mux, applying cfg.MaxInFlight as the
// default ahead of opts. Calling Start on an already-started Service is
// a no-op.
func (s *Service) Start(opts ...transport.MuxOption) error {
	if s.mux != nil {
		return nil
	}
	allOpts := append([]transport.MuxOption{transport.WithMaxInFlight(s.Config.MaxInFlight)}, opts...)
	mux, err := transport.New(allOpts...)
	if err != nil {
		return err
	}
	s.mux = mux
	return nil
}

// Mux returns the Service's shared Mux, or nil if it has not been
// started yet.
func (s *Service) Mux() *transport.Mux {
	return s.mux
}

// Close releases the Service's shared Mux, if one was started.
func (s *Service) Close() error {
	if s.mux == nil {
		return nil
	}
	return s.mux.Close()
}

// NewSession returns a Session against endpoint, seeded with the
// Service's Config defaults before opts is applied. Fails with
// ErrServiceNotStarted when auto_start_services was false and Start has
// not yet been called.
func (s *Service) NewSession(endpoint string, opts ...SessionOption) (*Session, error) {
	if s.mux == nil {
		return nil, ErrServiceNotStarted
	}
	base := sessionOptionsFromConfig(s.Config)
	return NewSession(s.mux, endpoint, append(base, opts...)...)
}

// NewExecutor returns a multi-target Executor seeded with the Service's
// Config defaults (max_concurrency, walk_budget_ms) before opts is
// applied.
func (s *Service) NewExecutor(opts ...ExecutorOption) (*Executor, error) {
	if s.mux == nil {
		return nil, ErrServiceNotStarted
	}
	base := []ExecutorOption{
		WithMaxConcurrency(s.Config.MaxConcurrency),
		WithExecutorWalkBudget(s.Config.WalkBudget),
	}
	return NewMultiExecutor(s.mux, append(base, opts...)...), nil
}

// ErrServiceNotStarted is returned by Service.NewSession/NewExecutor
// when auto_start_services was configured false and Start has not yet
// been called.
var ErrServiceNotStarted = errors.New("snmp: service not started (auto_start_services=false)")
