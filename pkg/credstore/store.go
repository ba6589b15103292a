// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-credstore.
//
// go-credstore is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

package credstore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jeremyhahn/go-credstore/pkg/adapters/logger"
	"github.com/jeremyhahn/go-credstore/pkg/backend"
	"github.com/jeremyhahn/go-credstore/pkg/backend/local"
	"github.com/jeremyhahn/go-credstore/pkg/backend/native"
	"github.com/jeremyhahn/go-credstore/pkg/correlation"
	"github.com/jeremyhahn/go-credstore/pkg/metrics"
	"github.com/jeremyhahn/go-credstore/pkg/ratelimit"
)

// State is the lifecycle state of a Store.
type State int

const (
	StateUninitialized State = iota
	StateInitializing
	StateReady
	StateClosed
)

// String returns the state name
func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitializing:
		return "initializing"
	case StateReady:
		return "ready"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Store is the credential store facade. It selects one backend during
// Initialize and routes every later operation to it.
type Store struct {
	cfg  *Config
	keys KeyNames

	logger  logger.Logger
	metrics metrics.Recorder
	limiter *ratelimit.Limiter

	openNative Opener
	openLocal  Opener

	mu     sync.RWMutex
	state  State
	active backend.Backend
}

// New creates an uninitialized Store. A nil cfg uses DefaultConfig.
func New(cfg *Config, opts ...Option) *Store {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	s := &Store{
		cfg:     cfg,
		keys:    cfg.Keys.withDefaults(),
		logger:  logger.NewNop(),
		metrics: metrics.Noop{},
		limiter: ratelimit.New(&ratelimit.Config{
			Enabled:           cfg.Auth.AttemptsPerMinute > 0,
			AttemptsPerMinute: cfg.Auth.AttemptsPerMinute,
			Burst:             cfg.Auth.Burst,
		}),
	}
	s.openNative = func(ctx context.Context) (backend.Backend, error) {
		return native.Open(ctx, &s.cfg.Native)
	}
	s.openLocal = func(ctx context.Context) (backend.Backend, error) {
		return local.Open(ctx, &s.cfg.Local)
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(logger.String("component", "credstore"))
	return s
}

// Initialize selects the backend. The native backend is tried first; any
// failure is logged and the local encrypted backend is opened instead.
// Initialize only fails when the local backend cannot be opened or the
// store was already initialized.
func (s *Store) Initialize(ctx context.Context) error {
	if err := s.cfg.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	if s.state != StateUninitialized {
		s.mu.Unlock()
		return ErrAlreadyInitialized
	}
	s.state = StateInitializing
	s.mu.Unlock()

	ctx, _ = correlation.Ensure(ctx)
	start := time.Now()

	active, err := s.selectBackend(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		// Nothing was selected; the caller may retry.
		s.state = StateUninitialized
		s.metrics.RecordOperation(opInitialize, backendNone, metrics.StatusError, time.Since(start))
		s.logger.ErrorContext(ctx, "credential store initialization failed", logger.Error(err))
		return err
	}
	s.active = active
	s.state = StateReady

	s.metrics.RecordOperation(opInitialize, string(active.Type()), metrics.StatusSuccess, time.Since(start))
	s.logger.InfoContext(ctx, "credential store initialized",
		logger.String("backend", string(active.Type())))
	return nil
}

func (s *Store) selectBackend(ctx context.Context) (backend.Backend, error) {
	if !s.cfg.SkipNative {
		b, err := s.openNative(ctx)
		if err == nil {
			return b, nil
		}
		s.logger.WarnContext(ctx, "secure storage not available, falling back to local encrypted storage",
			logger.Error(err))
		s.metrics.RecordFallback(fallbackReason(err))
	}

	b, err := s.openLocal(ctx)
	if err != nil {
		return nil, fmt.Errorf("credstore: open local storage: %w", err)
	}
	return b, nil
}

func fallbackReason(err error) string {
	switch {
	case errors.Is(err, backend.ErrUnavailable):
		return "unavailable"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "error"
	}
}

// State returns the lifecycle state.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// ActiveBackend returns the type of the selected backend.
func (s *Store) ActiveBackend() (backend.Type, error) {
	_, b, err := s.acquire(context.Background())
	if err != nil {
		return "", err
	}
	return b.Type(), nil
}

// Close releases the active backend. Later operations fail with ErrClosed.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateClosed:
		return nil
	case StateInitializing:
		return ErrNotInitialized
	}

	prev := s.state
	s.state = StateClosed
	if prev != StateReady || s.active == nil {
		return nil
	}
	return s.active.Close()
}

// acquire returns the active backend and a context carrying a correlation
// ID, or the lifecycle error.
func (s *Store) acquire(ctx context.Context) (context.Context, backend.Backend, error) {
	s.mu.RLock()
	state, active := s.state, s.active
	s.mu.RUnlock()

	switch state {
	case StateReady:
	case StateClosed:
		return ctx, nil, ErrClosed
	default:
		return ctx, nil, ErrNotInitialized
	}
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, _ = correlation.Ensure(ctx)
	return ctx, active, nil
}

// observe records the outcome of an operation. Deferred with a pointer to
// the named error result.
func (s *Store) observe(ctx context.Context, op string, b backend.Backend, start time.Time, errp *error) {
	name := backendNone
	if b != nil {
		name = string(b.Type())
	}
	var err error
	if errp != nil {
		err = *errp
	}

	if err != nil {
		s.metrics.RecordOperation(op, name, metrics.StatusError, time.Since(start))
		s.metrics.RecordError(op, name, errorType(err))
		s.logger.DebugContext(ctx, "operation failed",
			logger.String("operation", op),
			logger.String("backend", name),
			logger.Error(err))
		return
	}
	s.metrics.RecordOperation(op, name, metrics.StatusSuccess, time.Since(start))
	s.logger.DebugContext(ctx, "operation completed",
		logger.String("operation", op),
		logger.String("backend", name))
}

func errorType(err error) string {
	switch {
	case errors.Is(err, ErrNotInitialized):
		return "not_initialized"
	case errors.Is(err, ErrClosed), errors.Is(err, backend.ErrClosed):
		return "closed"
	case errors.Is(err, backend.ErrNotFound):
		return "not_found"
	case errors.Is(err, backend.ErrWrite):
		return "write"
	case errors.Is(err, backend.ErrInvalidKey):
		return "invalid_key"
	case errors.Is(err, ErrParse):
		return "parse"
	case errors.Is(err, ErrInvalidPattern):
		return "invalid_pattern"
	case errors.Is(err, ErrTooManyAttempts):
		return "too_many_attempts"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "other"
	}
}

const backendNone = "none"

// Operation names used in metrics and logs.
const (
	opInitialize         = "initialize"
	opHasKey             = "has_key"
	opGet                = "get"
	opSet                = "set"
	opRemove             = "remove"
	opKeys               = "keys"
	opClear              = "clear"
	opSecureDevice       = "secure_device"
	opGetJSON            = "get_json"
	opSetJSON            = "set_json"
	opGetAllCredentials  = "get_all_credentials"
	opGetIdentityData    = "get_identity_data"
	opMatchAndGetJSON    = "match_and_get_json"
	opRemovePresentation = "remove_presentation"
	opIsAuthorized       = "is_authorized"
	opGetUsername        = "get_username"
)
