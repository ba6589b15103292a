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

// Package native adapts a platform secure-storage plugin to the backend
// capability set. Two plugins are provided: the operating system keychain
// through 99designs/keyring, and a HashiCorp Vault KV v2 mount.
//
// Plugin errors are passed through unmodified. They are wrapped only so
// that errors.Is also matches the corresponding backend sentinel.
package native

import (
	"context"
	"fmt"
	"sync"

	"github.com/jeremyhahn/go-credstore/pkg/backend"
)

// Plugin is a platform secure-storage facility.
type Plugin interface {
	// Name identifies the plugin and the facility it opened.
	Name() string

	// Get returns the value for key or an error wrapping
	// backend.ErrNotFound.
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error

	// Remove returns an error wrapping backend.ErrNotFound for an absent key.
	Remove(ctx context.Context, key string) error
	Keys(ctx context.Context) ([]string, error)

	// Secure verifies the facility is in a protected state.
	Secure(ctx context.Context) error
	Close() error
}

// Backend is the native secure-storage backend.
type Backend struct {
	plugin Plugin
	mu     sync.RWMutex
	closed bool
}

// Open constructs the plugin named by cfg. Failures wrap
// backend.ErrUnavailable.
func Open(ctx context.Context, cfg *Config) (*Backend, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", backend.ErrUnavailable, err)
	}
	c := *cfg
	c.setDefaults()

	var (
		p   Plugin
		err error
	)
	switch c.Provider {
	case ProviderVault:
		p, err = openVault(ctx, &c.Vault)
	default:
		p, err = openKeyring(&c)
	}
	if err != nil {
		return nil, err
	}
	return New(p), nil
}

// New wraps an already opened plugin.
func New(p Plugin) *Backend {
	return &Backend{plugin: p}
}

// Type returns backend.TypeNative.
func (b *Backend) Type() backend.Type {
	return backend.TypeNative
}

// Plugin returns the name of the underlying plugin.
func (b *Backend) Plugin() string {
	return b.plugin.Name()
}

func (b *Backend) acquire() (func(), error) {
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return nil, backend.ErrClosed
	}
	return b.mu.RUnlock, nil
}

// Get delegates to the plugin.
func (b *Backend) Get(ctx context.Context, key string) (string, error) {
	if err := backend.ValidateKey(key); err != nil {
		return "", err
	}
	release, err := b.acquire()
	if err != nil {
		return "", err
	}
	defer release()
	return b.plugin.Get(ctx, key)
}

// Set delegates to the plugin.
func (b *Backend) Set(ctx context.Context, key, value string) error {
	if err := backend.ValidateKey(key); err != nil {
		return err
	}
	release, err := b.acquire()
	if err != nil {
		return err
	}
	defer release()
	return b.plugin.Set(ctx, key, value)
}

// Remove delegates to the plugin. An absent key is reported as
// backend.ErrNotFound.
func (b *Backend) Remove(ctx context.Context, key string) error {
	if err := backend.ValidateKey(key); err != nil {
		return err
	}
	release, err := b.acquire()
	if err != nil {
		return err
	}
	defer release()
	return b.plugin.Remove(ctx, key)
}

// Keys delegates to the plugin.
func (b *Backend) Keys(ctx context.Context) ([]string, error) {
	release, err := b.acquire()
	if err != nil {
		return nil, err
	}
	defer release()
	return b.plugin.Keys(ctx)
}

// Clear removes every key the plugin lists. The first failure aborts.
func (b *Backend) Clear(ctx context.Context) error {
	release, err := b.acquire()
	if err != nil {
		return err
	}
	defer release()

	keys, err := b.plugin.Keys(ctx)
	if err != nil {
		return err
	}
	for _, k := range keys {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := b.plugin.Remove(ctx, k); err != nil {
			return err
		}
	}
	return nil
}

// SecureDevice delegates to the plugin.
func (b *Backend) SecureDevice(ctx context.Context) error {
	release, err := b.acquire()
	if err != nil {
		return err
	}
	defer release()
	return b.plugin.Secure(ctx)
}

// Close closes the plugin.
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	return b.plugin.Close()
}

var _ backend.Backend = (*Backend)(nil)
