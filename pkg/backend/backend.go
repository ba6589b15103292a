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

// Package backend defines the storage capability shared by the native
// secure-storage variant and the local encrypted variant. The credstore
// facade selects exactly one implementation at initialization and never
// switches.
package backend

import (
	"context"
	"fmt"
)

// Type identifies a backend variant.
type Type string

const (
	// TypeNative delegates to a platform secure-storage plugin.
	TypeNative Type = "native"

	// TypeLocal is the locally encrypted key/value store.
	TypeLocal Type = "local"
)

// String returns the string representation of the backend type
func (t Type) String() string {
	return string(t)
}

// ParseType parses a backend type name.
func ParseType(s string) (Type, error) {
	switch Type(s) {
	case TypeNative, TypeLocal:
		return Type(s), nil
	default:
		return "", fmt.Errorf("%w: unknown backend type %q", ErrInvalidBackend, s)
	}
}

// Backend is a string key/value store with a small capability set.
//
// Implementations must be safe for concurrent use.
type Backend interface {
	// Type returns the variant.
	Type() Type

	// Get returns the value stored under key, or an error wrapping
	// ErrNotFound when the key is absent.
	Get(ctx context.Context, key string) (string, error)

	// Set stores value under key, overwriting any previous value.
	// Failures wrap ErrWrite.
	Set(ctx context.Context, key, value string) error

	// Remove deletes key. Whether an absent key is an error is
	// variant-specific.
	Remove(ctx context.Context, key string) error

	// Keys enumerates every stored key.
	Keys(ctx context.Context) ([]string, error)

	// Clear removes every stored key.
	Clear(ctx context.Context) error

	// SecureDevice asks the platform to harden its storage. May be a no-op.
	SecureDevice(ctx context.Context) error

	// Close releases resources. Operations after Close fail with ErrClosed.
	Close() error
}

// ValidateKey rejects keys no variant can store.
func ValidateKey(key string) error {
	if key == "" {
		return fmt.Errorf("%w: empty key", ErrInvalidKey)
	}
	return nil
}
