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

	"github.com/jeremyhahn/go-credstore/pkg/adapters/logger"
	"github.com/jeremyhahn/go-credstore/pkg/backend"
	"github.com/jeremyhahn/go-credstore/pkg/metrics"
	"github.com/jeremyhahn/go-credstore/pkg/ratelimit"
)

// Opener constructs a backend variant.
type Opener func(ctx context.Context) (backend.Backend, error)

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger. The default discards output.
func WithLogger(l logger.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetrics sets the metrics recorder. The default discards events.
func WithMetrics(r metrics.Recorder) Option {
	return func(s *Store) {
		if r != nil {
			s.metrics = r
		}
	}
}

// WithNativeOpener replaces construction of the native backend.
func WithNativeOpener(open Opener) Option {
	return func(s *Store) {
		s.openNative = open
	}
}

// WithLocalOpener replaces construction of the local backend.
func WithLocalOpener(open Opener) Option {
	return func(s *Store) {
		s.openLocal = open
	}
}

// WithRateLimiter replaces the IsAuthorized attempt limiter.
func WithRateLimiter(l *ratelimit.Limiter) Option {
	return func(s *Store) {
		if l != nil {
			s.limiter = l
		}
	}
}
