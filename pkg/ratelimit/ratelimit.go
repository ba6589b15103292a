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

// Package ratelimit throttles repeated attempts per subject with a token
// bucket.
package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter implements a token bucket rate limiter with per-subject tracking.
// Idle subjects are pruned lazily; the limiter starts no goroutines.
type Limiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	lastSeen map[string]time.Time
	rate     rate.Limit
	burst    int
	enabled  bool

	cleanupInterval time.Duration
	maxIdle         time.Duration
	lastCleanup     time.Time

	now func() time.Time
}

// Config holds rate limiter configuration.
type Config struct {
	// Enabled controls whether rate limiting is active.
	Enabled bool

	// AttemptsPerMinute sets the sustained rate.
	AttemptsPerMinute int

	// Burst allows short bursts above the sustained rate.
	// If not set, defaults to AttemptsPerMinute.
	Burst int

	// CleanupInterval controls how often idle subjects are pruned.
	// Defaults to 10 minutes.
	CleanupInterval time.Duration

	// MaxIdle is how long a subject can be idle before it is pruned.
	// Defaults to 30 minutes.
	MaxIdle time.Duration
}

// New creates a new rate limiter with the given configuration.
func New(config *Config) *Limiter {
	if config == nil {
		config = &Config{Enabled: false}
	}

	burst := config.Burst
	if burst == 0 {
		burst = config.AttemptsPerMinute
	}

	cleanupInterval := config.CleanupInterval
	if cleanupInterval == 0 {
		cleanupInterval = 10 * time.Minute
	}

	maxIdle := config.MaxIdle
	if maxIdle == 0 {
		maxIdle = 30 * time.Minute
	}

	return &Limiter{
		limiters:        make(map[string]*rate.Limiter),
		lastSeen:        make(map[string]time.Time),
		rate:            rate.Limit(float64(config.AttemptsPerMinute) / 60.0),
		burst:           burst,
		enabled:         config.Enabled && config.AttemptsPerMinute > 0,
		cleanupInterval: cleanupInterval,
		maxIdle:         maxIdle,
		now:             time.Now,
	}
}

func (l *Limiter) getLimiter(subject string, now time.Time) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastCleanup) >= l.cleanupInterval {
		l.cleanup(now)
		l.lastCleanup = now
	}

	limiter, exists := l.limiters[subject]
	if !exists {
		limiter = rate.NewLimiter(l.rate, l.burst)
		l.limiters[subject] = limiter
	}
	l.lastSeen[subject] = now
	return limiter
}

// Allow reports whether an attempt for subject may proceed now and, if so,
// consumes a token.
func (l *Limiter) Allow(subject string) bool {
	if !l.enabled {
		return true
	}
	now := l.now()
	return l.getLimiter(subject, now).AllowN(now, 1)
}

// cleanup removes subjects idle for longer than maxIdle. Caller holds mu.
func (l *Limiter) cleanup(now time.Time) {
	for subject, seen := range l.lastSeen {
		if now.Sub(seen) > l.maxIdle {
			delete(l.limiters, subject)
			delete(l.lastSeen, subject)
		}
	}
}

// Stats returns current rate limiter statistics.
func (l *Limiter) Stats() map[string]interface{} {
	l.mu.Lock()
	defer l.mu.Unlock()

	return map[string]interface{}{
		"enabled":          l.enabled,
		"active_subjects":  len(l.limiters),
		"attempts_per_min": float64(l.rate) * 60,
		"burst":            l.burst,
	}
}

// IsEnabled returns whether rate limiting is enabled.
func (l *Limiter) IsEnabled() bool {
	return l.enabled
}
