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
	"errors"
	"fmt"

	"github.com/jeremyhahn/go-credstore/pkg/adapters/kdf"
	"github.com/jeremyhahn/go-credstore/pkg/crypto/aead"
)

// StorageType selects where sealed values are persisted.
type StorageType string

const (
	// StorageFile persists one file per key under Config.Path.
	StorageFile StorageType = "file"

	// StorageMemory keeps values in process memory only.
	StorageMemory StorageType = "memory"
)

// Config configures the local encrypted backend.
type Config struct {
	Storage    StorageType
	Path       string
	Passphrase string

	// KDF selects the algorithm used when a new store is created. Existing
	// stores always use the parameters recorded in their metadata.
	KDF kdf.Algorithm

	// KDFParams overrides the default parameters for new stores. The salt
	// is always generated.
	KDFParams *kdf.Params

	// Cipher selects the AEAD for new stores. Empty selects AES-256-GCM.
	Cipher aead.Algorithm
}

var (
	// ErrInvalidPassphrase is returned when the passphrase is empty or does
	// not match the one the store was created with.
	ErrInvalidPassphrase = errors.New("local: invalid passphrase")

	// ErrInvalidConfig is returned for an unusable configuration.
	ErrInvalidConfig = errors.New("local: invalid configuration")

	// ErrCorruptMetadata is returned when the metadata entry cannot be decoded.
	ErrCorruptMetadata = errors.New("local: corrupt metadata")
)

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("%w: nil config", ErrInvalidConfig)
	}
	switch c.Storage {
	case StorageFile:
		if c.Path == "" {
			return fmt.Errorf("%w: path is required for file storage", ErrInvalidConfig)
		}
	case StorageMemory, "":
	default:
		return fmt.Errorf("%w: unknown storage %q", ErrInvalidConfig, c.Storage)
	}
	if c.KDF != "" && kdf.DefaultParams(c.KDF) == nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, kdf.ErrUnsupportedAlgorithm)
	}
	if c.Cipher != "" && c.Cipher != "auto" && !c.Cipher.Valid() {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, aead.ErrUnsupportedAlgorithm)
	}
	if c.Passphrase == "" {
		return ErrInvalidPassphrase
	}
	return nil
}

func (c *Config) kdfAlgorithm() kdf.Algorithm {
	if c.KDF == "" {
		return kdf.AlgorithmArgon2id
	}
	return c.KDF
}

func (c *Config) cipherAlgorithm() (aead.Algorithm, error) {
	if c.Cipher == "" {
		return aead.AES256GCM, nil
	}
	return aead.ParseAlgorithm(string(c.Cipher))
}
