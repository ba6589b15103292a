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
	"sync"
)

// Process-wide default store
var (
	defaultStore *Store
	defaultMu    sync.RWMutex
)

// Initialize creates and initializes the process-wide default store.
// It should be called once at application startup.
func Initialize(ctx context.Context, cfg *Config, opts ...Option) error {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	if defaultStore != nil {
		return ErrAlreadyInitialized
	}
	s := New(cfg, opts...)
	if err := s.Initialize(ctx); err != nil {
		return err
	}
	defaultStore = s
	return nil
}

// Default returns the process-wide store.
func Default() (*Store, error) {
	defaultMu.RLock()
	defer defaultMu.RUnlock()

	if defaultStore == nil {
		return nil, ErrNotInitialized
	}
	return defaultStore, nil
}

// IsInitialized returns whether the default store has been initialized
func IsInitialized() bool {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultStore != nil
}

// Reset closes and discards the default store (useful for testing)
func Reset() error {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	if defaultStore == nil {
		return nil
	}
	err := defaultStore.Close()
	defaultStore = nil
	return err
}
