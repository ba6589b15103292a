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
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jeremyhahn/go-credstore/internal/password"
	"github.com/jeremyhahn/go-credstore/pkg/adapters/kdf"
	"github.com/jeremyhahn/go-credstore/pkg/crypto/aead"
	"github.com/jeremyhahn/go-credstore/pkg/storage"
)

const (
	// EntryPrefix namespaces caller entries in the byte store.
	EntryPrefix = "entry/"

	// MetadataKey holds the KDF parameters and passphrase check value. It
	// sits outside EntryPrefix so no caller key can address it.
	MetadataKey = "meta/kdf"

	metadataVersion = 1
	checkPlaintext  = "go-credstore passphrase check"
)

type metadata struct {
	Version int            `json:"version"`
	Cipher  aead.Algorithm `json:"cipher"`
	KDF     *kdf.Params    `json:"kdf"`
	Check   []byte         `json:"check"`
}

// entryName maps a caller key to its byte store name.
func entryName(key string) string {
	return EntryPrefix + key
}

// unlock reads the metadata entry, creating it on first use, and returns
// the cipher for the derived store key.
func unlock(store storage.Store, cfg *Config) (*aead.Cipher, error) {
	raw, err := store.Get(MetadataKey)
	if errors.Is(err, storage.ErrNotFound) {
		return initialize(store, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("local: read metadata: %w", err)
	}

	var meta metadata
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptMetadata, err)
	}
	if meta.Version != metadataVersion || meta.KDF == nil {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrCorruptMetadata, meta.Version)
	}

	c, err := deriveCipher(cfg.Passphrase, meta.KDF, meta.Cipher)
	if err != nil {
		return nil, err
	}
	check, err := c.Open(meta.Check, []byte(MetadataKey))
	if err != nil {
		if errors.Is(err, aead.ErrAuthentication) {
			return nil, ErrInvalidPassphrase
		}
		return nil, fmt.Errorf("%w: %w", ErrCorruptMetadata, err)
	}
	if !password.Equal(check, []byte(checkPlaintext)) {
		return nil, ErrInvalidPassphrase
	}
	return c, nil
}

func initialize(store storage.Store, cfg *Config) (*aead.Cipher, error) {
	alg, err := cfg.cipherAlgorithm()
	if err != nil {
		return nil, err
	}

	params := kdf.DefaultParams(cfg.kdfAlgorithm())
	if cfg.KDFParams != nil {
		p := *cfg.KDFParams
		params = &p
	}
	if params == nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, kdf.ErrUnsupportedAlgorithm)
	}
	salt, err := kdf.NewSalt()
	if err != nil {
		return nil, err
	}
	params.Salt = salt

	c, err := deriveCipher(cfg.Passphrase, params, alg)
	if err != nil {
		return nil, err
	}
	check, err := c.Seal([]byte(checkPlaintext), []byte(MetadataKey))
	if err != nil {
		return nil, err
	}

	raw, err := json.Marshal(&metadata{
		Version: metadataVersion,
		Cipher:  alg,
		KDF:     params,
		Check:   check,
	})
	if err != nil {
		return nil, err
	}
	if err := store.Put(MetadataKey, raw); err != nil {
		return nil, fmt.Errorf("local: write metadata: %w", err)
	}
	return c, nil
}

func deriveCipher(passphrase string, params *kdf.Params, alg aead.Algorithm) (*aead.Cipher, error) {
	secret, err := password.NewClearPasswordFromString(passphrase)
	if err != nil {
		return nil, ErrInvalidPassphrase
	}
	defer secret.Clear()

	pw := secret.Bytes()
	defer password.Zero(pw)

	key, err := kdf.Derive(pw, params)
	if err != nil {
		return nil, fmt.Errorf("local: derive key: %w", err)
	}
	defer password.Zero(key)

	return aead.New(alg, key, nil)
}
