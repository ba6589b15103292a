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

package backend

import "errors"

var (
	// ErrNotFound is returned when a key does not exist.
	ErrNotFound = errors.New("backend: key not found")

	// ErrWrite is returned when a value could not be persisted or removed.
	ErrWrite = errors.New("backend: write failed")

	// ErrClosed is returned by operations on a closed backend.
	ErrClosed = errors.New("backend: closed")

	// ErrInvalidKey is returned for keys the backend cannot store.
	ErrInvalidKey = errors.New("backend: invalid key")

	// ErrUnavailable is returned when a variant cannot be constructed: the
	// plugin is missing, the platform is unsupported or access was denied.
	ErrUnavailable = errors.New("backend: unavailable")

	// ErrInvalidBackend is returned for an unknown backend type.
	ErrInvalidBackend = errors.New("backend: invalid backend type")
)
