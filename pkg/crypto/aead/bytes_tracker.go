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
	"fmt"
	"sync/atomic"
)

// DefaultBytesLimit caps the plaintext sealed under one key. 64 GiB stays
// well inside the NIST SP 800-38D bound for random 96-bit GCM nonces.
const DefaultBytesLimit = 64 * 1024 * 1024 * 1024

// BytesTracker counts bytes sealed under one key and enforces a limit.
type BytesTracker struct {
	enabled        bool
	bytesEncrypted atomic.Int64
	limit          int64
}

// NewBytesTracker creates a tracker. A zero limit selects DefaultBytesLimit.
func NewBytesTracker(enabled bool, limit int64) *BytesTracker {
	if limit <= 0 {
		limit = DefaultBytesLimit
	}
	return &BytesTracker{
		enabled: enabled,
		limit:   limit,
	}
}

// CheckAndIncrementBytes adds numBytes to the counter unless doing so would
// exceed the limit, in which case the counter is left unchanged.
func (bt *BytesTracker) CheckAndIncrementBytes(numBytes int64) error {
	if !bt.enabled {
		return nil
	}

	newTotal := bt.bytesEncrypted.Add(numBytes)
	if newTotal > bt.limit {
		bt.bytesEncrypted.Add(-numBytes)
		return fmt.Errorf("%w: sealed %d bytes, limit %d", ErrUsageLimitExceeded, newTotal-numBytes, bt.limit)
	}
	return nil
}

// BytesEncrypted returns the bytes sealed so far.
func (bt *BytesTracker) BytesEncrypted() int64 {
	return bt.bytesEncrypted.Load()
}

// Remaining returns how many more bytes may be sealed.
func (bt *BytesTracker) Remaining() int64 {
	remaining := bt.limit - bt.bytesEncrypted.Load()
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Limit returns the configured limit.
func (bt *BytesTracker) Limit() int64 {
	return bt.limit
}
