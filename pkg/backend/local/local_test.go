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

package local

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeremyhahn/go-credstore/pkg/adapters/kdf"
	"github.com/jeremyhahn/go-credstore/pkg/backend"
	"github.com/jeremyhahn/go-credstore/pkg/crypto/aead"
	"github.com/jeremyhahn/go-credstore/pkg/storage/memory"
)

func fastKDF() *kdf.Params {
	return &kdf.Params{
		Algorithm: kdf.AlgorithmArgon2id,
		Memory:    kdf.MinArgon2Memory,
		Time:      1,
		Threads:   1,
		KeyLength: 32,
	}
}

func testConfig(dir string) *Config {
	cfg := &Config{
		Storage:    StorageMemory,
		Passphrase: "correct horse battery staple",
		KDFParams:  fastKDF(),
	}
	if dir != "" {
		cfg.Storage = StorageFile
		cfg.Path = dir
	}
	return cfg
}

func openTest(t *testing.T, cfg *Config) *Backend {
	t.Helper()
	b, err := Open(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func TestBackend_CRUD(t *testing.T) {
	ctx := context.Background()
	b := openTest(t, testConfig(""))

	assert.Equal(t, backend.TypeLocal, b.Type())
	assert.Equal(t, aead.AES256GCM, b.Algorithm())

	_, err := b.Get(ctx, "missing")
	assert.ErrorIs(t, err, backend.ErrNotFound)

	require.NoError(t, b.Set(ctx, "cred_1", `{"a":1}`))
	v, err := b.Get(ctx, "cred_1")
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, v)

	require.NoError(t, b.Set(ctx, "cred_1", "overwritten"))
	v, err = b.Get(ctx, "cred_1")
	require.NoError(t, err)
	assert.Equal(t, "overwritten", v)

	require.NoError(t, b.Set(ctx, "empty", ""))
	v, err = b.Get(ctx, "empty")
	require.NoError(t, err)
	assert.Equal(t, "", v)

	require.NoError(t, b.Remove(ctx, "cred_1"))
	_, err = b.Get(ctx, "cred_1")
	assert.ErrorIs(t, err, backend.ErrNotFound)
}

func TestBackend_RemoveIsIdempotent(t *testing.T) {
	ctx := context.Background()
	b := openTest(t, testConfig(t.TempDir()))

	assert.NoError(t, b.Remove(ctx, "never-set"))
	require.NoError(t, b.Set(ctx, "k", "v"))
	assert.NoError(t, b.Remove(ctx, "k"))
	assert.NoError(t, b.Remove(ctx, "k"))
}

func TestBackend_KeysHidesMetadata(t *testing.T) {
	ctx := context.Background()
	b := openTest(t, testConfig(""))

	keys, err := b.Keys(ctx)
	require.NoError(t, err)
	assert.Empty(t, keys)

	require.NoError(t, b.Set(ctx, "b", "2"))
	require.NoError(t, b.Set(ctx, "a", "1"))

	keys, err = b.Keys(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "b"}, keys)
}

func TestBackend_KeysShareNoNamespaceWithMetadata(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	b := openTest(t, testConfig(dir))

	keys := []string{MetadataKey, EntryPrefix + "x", ".credstore-kdf", "meta/"}
	for _, k := range keys {
		require.NoError(t, b.Set(ctx, k, "value-"+k))
	}
	for _, k := range keys {
		v, err := b.Get(ctx, k)
		require.NoError(t, err)
		assert.Equal(t, "value-"+k, v)
	}

	listed, err := b.Keys(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, keys, listed)

	require.NoError(t, b.Remove(ctx, MetadataKey))
	require.NoError(t, b.Clear(ctx))
	require.NoError(t, b.Close())

	// Metadata survived caller writes, removes and clears.
	reopened := openTest(t, testConfig(dir))
	listed, err = reopened.Keys(ctx)
	require.NoError(t, err)
	assert.Empty(t, listed)

	assert.ErrorIs(t, reopened.Set(ctx, "", "x"), backend.ErrInvalidKey)
}

func TestBackend_ClearKeepsMetadata(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	cfg := testConfig(dir)

	b, err := Open(ctx, cfg)
	require.NoError(t, err)
	require.NoError(t, b.Set(ctx, "a", "1"))
	require.NoError(t, b.Set(ctx, "b", "2"))
	require.NoError(t, b.Clear(ctx))

	keys, err := b.Keys(ctx)
	require.NoError(t, err)
	assert.Empty(t, keys)
	require.NoError(t, b.Close())

	reopened := openTest(t, cfg)
	require.NoError(t, reopened.Set(ctx, "c", "3"))
	v, err := reopened.Get(ctx, "c")
	require.NoError(t, err)
	assert.Equal(t, "3", v)
}

func TestBackend_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t.TempDir())

	b, err := Open(ctx, cfg)
	require.NoError(t, err)
	require.NoError(t, b.Set(ctx, "userDID", "did:example:123"))
	require.NoError(t, b.Close())

	reopened := openTest(t, cfg)
	v, err := reopened.Get(ctx, "userDID")
	require.NoError(t, err)
	assert.Equal(t, "did:example:123", v)
}

func TestBackend_WrongPassphrase(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t.TempDir())

	b, err := Open(ctx, cfg)
	require.NoError(t, err)
	require.NoError(t, b.Close())

	wrong := *cfg
	wrong.Passphrase = "Tr0ub4dor&3"
	_, err = Open(ctx, &wrong)
	assert.ErrorIs(t, err, ErrInvalidPassphrase)
}

func TestBackend_EmptyPassphrase(t *testing.T) {
	cfg := testConfig("")
	cfg.Passphrase = ""
	_, err := Open(context.Background(), cfg)
	assert.ErrorIs(t, err, ErrInvalidPassphrase)
}

func TestBackend_CiphertextOnDisk(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	b := openTest(t, testConfig(dir))

	secret := "private-key-material-0123456789"
	require.NoError(t, b.Set(ctx, "userPrivKey", secret))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	for _, e := range entries {
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		require.NoError(t, err)
		assert.False(t, bytes.Contains(data, []byte(secret)), "plaintext found in %s", e.Name())
		assert.False(t, bytes.Contains(data, []byte(testConfig("").Passphrase)), "passphrase found in %s", e.Name())
	}
}

func TestBackend_SwappedCiphertextFails(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	b, err := New(ctx, store, testConfig(""))
	require.NoError(t, err)
	defer func() { _ = b.Close() }()

	require.NoError(t, b.Set(ctx, "a", "alpha"))
	require.NoError(t, b.Set(ctx, "b", "beta"))

	sealedA, err := store.Get(EntryPrefix + "a")
	require.NoError(t, err)
	require.NoError(t, store.Put(EntryPrefix+"b", sealedA))

	_, err = b.Get(ctx, "b")
	assert.ErrorIs(t, err, aead.ErrAuthentication)
}

func TestBackend_PBKDF2AndXChaCha(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t.TempDir())
	cfg.KDFParams = &kdf.Params{
		Algorithm:  kdf.AlgorithmPBKDF2,
		Iterations: kdf.MinPBKDF2Iterations,
		KeyLength:  32,
	}
	cfg.Cipher = aead.XChaCha20Poly1305

	b, err := Open(ctx, cfg)
	require.NoError(t, err)
	assert.Equal(t, aead.XChaCha20Poly1305, b.Algorithm())
	require.NoError(t, b.Set(ctx, "k", "v"))
	require.NoError(t, b.Close())

	// Reopen with different preferences: stored metadata wins.
	cfg.KDFParams = nil
	cfg.Cipher = aead.AES256GCM
	reopened := openTest(t, cfg)
	assert.Equal(t, aead.XChaCha20Poly1305, reopened.Algorithm())
	v, err := reopened.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", v)
}

func TestBackend_CorruptMetadata(t *testing.T) {
	store := memory.New()
	require.NoError(t, store.Put(MetadataKey, []byte("not json")))

	_, err := New(context.Background(), store, testConfig(""))
	assert.ErrorIs(t, err, ErrCorruptMetadata)
}

func TestBackend_SecureDeviceNoop(t *testing.T) {
	b := openTest(t, testConfig(""))
	assert.NoError(t, b.SecureDevice(context.Background()))
}

func TestBackend_Closed(t *testing.T) {
	ctx := context.Background()
	b, err := Open(ctx, testConfig(""))
	require.NoError(t, err)
	require.NoError(t, b.Close())
	require.NoError(t, b.Close())

	_, err = b.Get(ctx, "k")
	assert.ErrorIs(t, err, backend.ErrClosed)
	assert.ErrorIs(t, b.Set(ctx, "k", "v"), backend.ErrClosed)
	assert.ErrorIs(t, b.Remove(ctx, "k"), backend.ErrClosed)
	_, err = b.Keys(ctx)
	assert.ErrorIs(t, err, backend.ErrClosed)
	assert.ErrorIs(t, b.Clear(ctx), backend.ErrClosed)
	assert.ErrorIs(t, b.SecureDevice(ctx), backend.ErrClosed)
}

func TestBackend_Concurrent(t *testing.T) {
	ctx := context.Background()
	b := openTest(t, testConfig(""))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := "cred_" + string(rune('a'+i))
			assert.NoError(t, b.Set(ctx, key, key))
			v, err := b.Get(ctx, key)
			assert.NoError(t, err)
			assert.Equal(t, key, v)
		}(i)
	}
	wg.Wait()

	keys, err := b.Keys(ctx)
	require.NoError(t, err)
	assert.Len(t, keys, 20)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *Config
		wantErr error
	}{
		{"nil", nil, ErrInvalidConfig},
		{"file without path", &Config{Storage: StorageFile, Passphrase: "p"}, ErrInvalidConfig},
		{"unknown storage", &Config{Storage: "s3", Passphrase: "p"}, ErrInvalidConfig},
		{"no passphrase", &Config{Storage: StorageMemory}, ErrInvalidPassphrase},
		{"bad kdf", &Config{Passphrase: "p", KDF: "bcrypt"}, ErrInvalidConfig},
		{"bad cipher", &Config{Passphrase: "p", Cipher: "rot13"}, ErrInvalidConfig},
		{"auto cipher", &Config{Passphrase: "p", Cipher: "auto"}, nil},
		{"memory default", &Config{Passphrase: "p"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
