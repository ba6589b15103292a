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
	"errors"

	"github.com/jeremyhahn/go-credstore/pkg/backend"
)

var (
	// ErrNotInitialized is returned by every operation invoked before
	// Initialize has selected a backend.
	ErrNotInitialized = errors.New("credstore: not initialized")

	// ErrAlreadyInitialized is returned by a second call to Initialize.
	ErrAlreadyInitialized = errors.New("credstore: already initialized")

	// ErrParse is returned when a stored value is not the JSON a JSON
	// accessor expects, or a value cannot be encoded.
	ErrParse = errors.New("credstore: parse error")

	// ErrInvalidPattern is returned when a key pattern is not a valid
	// regular expression.
	ErrInvalidPattern = errors.New("credstore: invalid pattern")

	// ErrTooManyAttempts is returned by IsAuthorized when the attempt
	// limiter refuses the call.
	ErrTooManyAttempts = errors.New("credstore: too many authorization attempts")

	// ErrClosed is returned by operations on a closed store.
	ErrClosed = errors.New("credstore: closed")

	// ErrInvalidConfig is returned for an unusable configuration.
	ErrInvalidConfig = errors.New("credstore: invalid configuration")

	// ErrNotFound is returned when a key is absent.
	ErrNotFound = backend.ErrNotFound

	// ErrWrite is returned when a backend write or remove fails.
	ErrWrite = backend.ErrWrite
)
