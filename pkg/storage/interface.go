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

// Package storage provides the byte-level persistence layer used by the
// local encrypted credential backend. It supports both in-memory and
// file-based implementations behind a common interface.
package storage

import (
	"io/fs"
)

// Store defines the interface for raw byte persistence.
// All implementations must be thread-safe.
type Store interface {
	// Get retrieves the value for the given key.
	// Returns ErrNotFound if the key does not exist.
	Get(key string) ([]byte, error)

	// Put stores the value for the given key.
	// If the key already exists, it will be overwritten.
	Put(key string, value []byte) error

	// Delete removes the key and its value from storage.
	// Returns ErrNotFound if the key does not exist.
	Delete(key string) error

	// List returns all keys with the given prefix.
	// If prefix is empty, all keys are returned. Keys are sorted.
	List(prefix string) ([]string, error)

	// Exists checks if a key exists in storage.
	Exists(key string) (bool, error)

	// Close releases any resources held by the store.
	Close() error
}

// Options contains optional parameters for file-backed stores.
type Options struct {
	// Permissions sets the file permissions for stored entries
	Permissions fs.FileMode

	// DirPermissions sets the permissions of the root directory
	DirPermissions fs.FileMode
}

// DefaultOptions returns Options with owner-only permissions.
func DefaultOptions() *Options {
	return &Options{
		Permissions:    0600,
		DirPermissions: 0700,
	}
}

// ValidateKey rejects keys that no store can persist.
func ValidateKey(key string) error {
	if key == "" {
		return ErrInvalidKey
	}
	for i := 0; i < len(key); i++ {
		if key[i] == 0 {
			return ErrInvalidKey
		}
	}
	return nil
}
