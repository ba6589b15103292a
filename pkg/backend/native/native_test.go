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

package native

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeremyhahn/go-credstore/pkg/backend"
)

// fakePlugin is an in-memory Plugin with injectable failures.
type fakePlugin struct {
	mu        sync.Mutex
	items     map[string]string
	removeErr map[string]error
	keysErr   error
	secureErr error
	closed    bool
}

func newFakePlugin() *fakePlugin {
	return &fakePlugin{items: map[string]string{}, removeErr: map[string]error{}}
}

func (f *fakePlugin) Name() string { return "fake" }

func (f *fakePlugin) Get(_ context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.items[key]
	if !ok {
		return "", fmt.Errorf("%w: %q", backend.ErrNotFound, key)
	}
	return v, nil
}

func (f *fakePlugin) Set(_ context.Context, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items[key] = value
	return nil
}

func (f *fakePlugin) Remove(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.removeErr[key]; err != nil {
		return err
	}
	if _, ok := f.items[key]; !ok {
		return backend.ErrNotFound
	}
	delete(f.items, key)
	return nil
}

func (f *fakePlugin) Keys(_ context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.keysErr != nil {
		return nil, f.keysErr
	}
	keys := make([]string, 0, len(f.items))
	for k := range f.items {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

func (f *fakePlugin) Secure(_ context.Context) error { return f.secureErr }

func (f *fakePlugin) Close() error {
	f.closed = true
	return nil
}

func TestBackend_Delegates(t *testing.T) {
	ctx := context.Background()
	p := newFakePlugin()
	b := New(p)

	assert.Equal(t, backend.TypeNative, b.Type())
	assert.Equal(t, "fake", b.Plugin())

	require.NoError(t, b.Set(ctx, "a", "1"))
	v, err := b.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "1", v)

	keys, err := b.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, keys)

	require.NoError(t, b.Remove(ctx, "a"))
	assert.ErrorIs(t, b.Remove(ctx, "a"), backend.ErrNotFound)

	_, err = b.Get(ctx, "")
	assert.ErrorIs(t, err, backend.ErrInvalidKey)
}

func TestBackend_PluginErrorsPassThrough(t *testing.T) {
	ctx := context.Background()
	pluginErr := errors.New("keychain locked")
	p := newFakePlugin()
	p.keysErr = pluginErr
	p.secureErr = pluginErr
	b := New(p)

	_, err := b.Keys(ctx)
	assert.Same(t, pluginErr, err)
	assert.Same(t, pluginErr, b.SecureDevice(ctx))
	assert.Same(t, pluginErr, b.Clear(ctx))
}

func TestBackend_ClearAbortsOnFirstFailure(t *testing.T) {
	ctx := context.Background()
	p := newFakePlugin()
	b := New(p)

	for _, k := range []string{"a", "b", "c"} {
		require.NoError(t, b.Set(ctx, k, k))
	}
	failure := fmt.Errorf("%w: denied", backend.ErrWrite)
	p.removeErr["b"] = failure

	err := b.Clear(ctx)
	assert.ErrorIs(t, err, backend.ErrWrite)

	keys, err := b.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c"}, keys)
}

func TestBackend_Clear(t *testing.T) {
	ctx := context.Background()
	b := New(newFakePlugin())
	require.NoError(t, b.Set(ctx, "a", "1"))
	require.NoError(t, b.Set(ctx, "b", "2"))

	require.NoError(t, b.Clear(ctx))
	keys, err := b.Keys(ctx)
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestBackend_Closed(t *testing.T) {
	ctx := context.Background()
	p := newFakePlugin()
	b := New(p)
	require.NoError(t, b.Close())
	require.NoError(t, b.Close())
	assert.True(t, p.closed)

	_, err := b.Get(ctx, "a")
	assert.ErrorIs(t, err, backend.ErrClosed)
	assert.ErrorIs(t, b.Set(ctx, "a", "1"), backend.ErrClosed)
	assert.ErrorIs(t, b.Remove(ctx, "a"), backend.ErrClosed)
	_, err = b.Keys(ctx)
	assert.ErrorIs(t, err, backend.ErrClosed)
	assert.ErrorIs(t, b.Clear(ctx), backend.ErrClosed)
	assert.ErrorIs(t, b.SecureDevice(ctx), backend.ErrClosed)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *Config
		wantErr bool
	}{
		{"nil", nil, true},
		{"default keyring", &Config{}, false},
		{"keyring", &Config{Provider: ProviderKeyring}, false},
		{"vault without address", &Config{Provider: ProviderVault, Vault: VaultConfig{Token: "t"}}, true},
		{"vault without token", &Config{Provider: ProviderVault, Vault: VaultConfig{Address: "http://x"}}, true},
		{"vault", &Config{Provider: ProviderVault, Vault: VaultConfig{Address: "http://x", Token: "t"}}, false},
		{"unknown", &Config{Provider: "tpm"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidConfig)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestOpen_InvalidConfigIsUnavailable(t *testing.T) {
	_, err := Open(context.Background(), &Config{Provider: "tpm"})
	assert.ErrorIs(t, err, backend.ErrUnavailable)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestConfig_SetDefaults(t *testing.T) {
	c := &Config{Vault: VaultConfig{MountPath: "/kv/", Prefix: "/apps/wallet/"}}
	c.setDefaults()
	assert.Equal(t, ProviderKeyring, c.Provider)
	assert.Equal(t, DefaultServiceName, c.ServiceName)
	assert.Equal(t, "kv", c.Vault.MountPath)
	assert.Equal(t, "apps/wallet", c.Vault.Prefix)
}
