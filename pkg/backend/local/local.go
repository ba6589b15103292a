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

// Package local implements the fallback backend: an encrypted key/value
// store persisted through pkg/storage.
//
// Each value is sealed with an AEAD keyed by a passphrase-derived key. The
// entry name is bound as additional data so sealed values cannot be moved
// between keys. KDF parameters and a passphrase check value live in a
// metadata entry created on first open. Caller entries live under
// EntryPrefix so every key string is available to callers.
package local

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/jeremyhahn/go-credstore/pkg/backend"
	"github.com/jeremyhahn/go-credstore/pkg/crypto/aead"
	"github.com/jeremyhahn/go-credstore/pkg/storage"
	"github.com/jeremyhahn/go-credstore/pkg/storage/file"
	"github.com/jeremyhahn/go-credstore/pkg/storage/memory"
)

// Backend is the local encrypted backend.
type Backend struct {
	store  storage.Store
	cipher *aead.Cipher
	mu     sync.RWMutex
	closed bool
}

// Open creates the byte store named by cfg and unlocks it.
func Open(ctx context.Context, cfg *Config) (*Backend, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var store storage.Store
	switch cfg.Storage {
	case StorageFile:
		fs, err := file.New(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("local: open file storage: %w", err)
		}
		store = fs
	default:
		store = memory.New()
	}

	b, err := New(ctx, store, cfg)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	return b, nil
}

// New unlocks an existing byte store. The backend takes ownership of store.
func New(ctx context.Context, store storage.Store, cfg *Config) (*Backend, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if store == nil {
		return nil, fmt.Errorf("%w: nil store", ErrInvalidConfig)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	c, err := unlock(store, cfg)
	if err != nil {
		return nil, err
	}
	return &Backend{store: store, cipher: c}, nil
}

// Type returns backend.TypeLocal.
func (b *Backend) Type() backend.Type {
	return backend.TypeLocal
}

// Algorithm returns the AEAD sealing values.
func (b *Backend) Algorithm() aead.Algorithm {
	return b.cipher.Algorithm()
}

func (b *Backend) checkKey(key string) error {
	return backend.ValidateKey(key)
}

// Get decrypts the value stored under key.
func (b *Backend) Get(_ context.Context, key string) (string, error) {
	if err := b.checkKey(key); err != nil {
		return "", err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return "", backend.ErrClosed
	}

	name := entryName(key)
	sealed, err := b.store.Get(name)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return "", fmt.Errorf("%w: %q", backend.ErrNotFound, key)
		}
		return "", fmt.Errorf("local: get %q: %w", key, err)
	}
	plaintext, err := b.cipher.Open(sealed, []byte(name))
	if err != nil {
		return "", fmt.Errorf("local: decrypt %q: %w", key, err)
	}
	return string(plaintext), nil
}

// Set encrypts value and stores it under key.
func (b *Backend) Set(_ context.Context, key, value string) error {
	if err := b.checkKey(key); err != nil {
		return err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return backend.ErrClosed
	}

	name := entryName(key)
	sealed, err := b.cipher.Seal([]byte(value), []byte(name))
	if err != nil {
		return fmt.Errorf("%w: encrypt %q: %w", backend.ErrWrite, key, err)
	}
	if err := b.store.Put(name, sealed); err != nil {
		return fmt.Errorf("%w: %q: %w", backend.ErrWrite, key, err)
	}
	return nil
}

// Remove deletes key. Removing an absent key succeeds.
func (b *Backend) Remove(_ context.Context, key string) error {
	if err := b.checkKey(key); err != nil {
		return err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return backend.ErrClosed
	}

	if err := b.store.Delete(entryName(key)); err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("%w: remove %q: %w", backend.ErrWrite, key, err)
	}
	return nil
}

// Keys lists stored caller keys.
func (b *Backend) Keys(_ context.Context) ([]string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return nil, backend.ErrClosed
	}
	return b.keys()
}

func (b *Backend) keys() ([]string, error) {
	names, err := b.store.List(EntryPrefix)
	if err != nil {
		return nil, fmt.Errorf("local: list: %w", err)
	}
	keys := make([]string, 0, len(names))
	for _, name := range names {
		keys = append(keys, strings.TrimPrefix(name, EntryPrefix))
	}
	return keys, nil
}

// Clear removes every caller entry. The metadata entry is kept so the store
// can be reopened with the same passphrase.
func (b *Backend) Clear(_ context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return backend.ErrClosed
	}

	keys, err := b.keys()
	if err != nil {
		return err
	}
	for _, k := range keys {
		if err := b.store.Delete(entryName(k)); err != nil && !errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%w: clear %q: %w", backend.ErrWrite, k, err)
		}
	}
	return nil
}

// SecureDevice is a no-op for local storage.
func (b *Backend) SecureDevice(_ context.Context) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return backend.ErrClosed
	}
	return nil
}

// Close closes the underlying store.
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	return b.store.Close()
}

var _ backend.Backend = (*Backend)(nil)
