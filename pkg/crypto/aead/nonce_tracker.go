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

package aead

import (
	"encoding/hex"
	"sync"
)

// NonceTracker records every nonce produced under one key so that a repeat
// is caught before it reaches the cipher.
//
// Memory grows with each encryption. The local store re-creates its Cipher
// (and therefore its tracker) on every open, so the set is bounded by the
// writes of one process lifetime.
type NonceTracker struct {
	enabled bool
	nonces  map[string]struct{}
	mu      sync.RWMutex
}

// NewNonceTracker creates a tracker. A disabled tracker accepts every nonce.
func NewNonceTracker(enabled bool) *NonceTracker {
	return &NonceTracker{
		enabled: enabled,
		nonces:  make(map[string]struct{}),
	}
}

// CheckAndRecordNonce returns ErrNonceReuse if nonce was seen before and
// records it otherwise.
func (nt *NonceTracker) CheckAndRecordNonce(nonce []byte) error {
	if !nt.enabled {
		return nil
	}

	key := hex.EncodeToString(nonce)

	nt.mu.Lock()
	defer nt.mu.Unlock()

	if _, exists := nt.nonces[key]; exists {
		return ErrNonceReuse
	}
	nt.nonces[key] = struct{}{}
	return nil
}

// Contains reports whether nonce has been recorded.
func (nt *NonceTracker) Contains(nonce []byte) bool {
	if !nt.enabled {
		return false
	}

	nt.mu.RLock()
	defer nt.mu.RUnlock()

	_, exists := nt.nonces[hex.EncodeToString(nonce)]
	return exists
}

// Count returns the number of recorded nonces.
func (nt *NonceTracker) Count() int {
	nt.mu.RLock()
	defer nt.mu.RUnlock()
	return len(nt.nonces)
}

// IsEnabled returns whether nonce tracking is enabled.
func (nt *NonceTracker) IsEnabled() bool {
	return nt.enabled
}
