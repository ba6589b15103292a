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

// Package kdf derives the local store's encryption key from a passphrase.
// Argon2id is the default; PBKDF2-SHA256 is available for interoperability
// with stores created by tools that only speak PBKDF2.
package kdf

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
)

// Algorithm represents the key derivation function algorithm type
type Algorithm string

const (
	// AlgorithmPBKDF2 represents PBKDF2 with HMAC-SHA256 (RFC 8018)
	AlgorithmPBKDF2 Algorithm = "pbkdf2-sha256"

	// AlgorithmArgon2i represents the Argon2i variant
	AlgorithmArgon2i Algorithm = "argon2i"

	// AlgorithmArgon2id represents the Argon2id variant (recommended)
	AlgorithmArgon2id Algorithm = "argon2id"
)

// DefaultSaltLength is the salt size generated by NewSalt.
const DefaultSaltLength = 16

// String returns the string representation of the KDF algorithm
func (a Algorithm) String() string {
	return string(a)
}

// Params contains parameters for key derivation. It is persisted as JSON
// alongside the store so the same key can be derived on reopen.
type Params struct {
	Algorithm  Algorithm `json:"algorithm"`
	Salt       []byte    `json:"salt"`
	Iterations int       `json:"iterations,omitempty"` // PBKDF2 only
	Memory     uint32    `json:"memory,omitempty"`     // Argon2 only, KiB
	Threads    uint8     `json:"threads,omitempty"`    // Argon2 only
	Time       uint32    `json:"time,omitempty"`       // Argon2 only
	KeyLength  int       `json:"key_length"`
}

// Adapter derives keys for one algorithm.
type Adapter interface {
	// DeriveKey derives a key from the passphrase using params
	DeriveKey(passphrase []byte, params *Params) ([]byte, error)

	// Algorithm returns the KDF algorithm this adapter implements
	Algorithm() Algorithm

	// ValidateParams validates the KDF parameters for this algorithm
	ValidateParams(params *Params) error
}

var (
	// ErrInvalidSalt indicates the salt is missing or too short
	ErrInvalidSalt = errors.New("kdf: invalid salt")

	// ErrInvalidKeyLength indicates the requested key length is invalid
	ErrInvalidKeyLength = errors.New("kdf: invalid key length")

	// ErrInvalidIterations indicates the iteration count is too low
	ErrInvalidIterations = errors.New("kdf: invalid iterations")

	// ErrInvalidMemory indicates the memory cost is too low
	ErrInvalidMemory = errors.New("kdf: invalid memory cost")

	// ErrInvalidThreads indicates the thread count is invalid
	ErrInvalidThreads = errors.New("kdf: invalid threads")

	// ErrInvalidTime indicates the time cost is invalid
	ErrInvalidTime = errors.New("kdf: invalid time cost")

	// ErrInvalidPassphrase indicates the passphrase is empty
	ErrInvalidPassphrase = errors.New("kdf: empty passphrase")

	// ErrUnsupportedAlgorithm indicates the algorithm is not supported
	ErrUnsupportedAlgorithm = errors.New("kdf: unsupported algorithm")
)

// DefaultParams returns recommended parameters for the algorithm without a
// salt. Returns nil for unknown algorithms.
func DefaultParams(algorithm Algorithm) *Params {
	switch algorithm {
	case AlgorithmPBKDF2:
		return &Params{
			Algorithm:  AlgorithmPBKDF2,
			Iterations: 600000, // OWASP recommendation for PBKDF2-SHA256 (2023)
			KeyLength:  32,
		}
	case AlgorithmArgon2id, AlgorithmArgon2i:
		return &Params{
			Algorithm: algorithm,
			Memory:    64 * 1024, // 64 MiB
			Time:      3,
			Threads:   4,
			KeyLength: 32,
		}
	default:
		return nil
	}
}

// New returns the adapter for algorithm.
func New(algorithm Algorithm) (Adapter, error) {
	switch algorithm {
	case AlgorithmPBKDF2:
		return NewPBKDF2Adapter(), nil
	case AlgorithmArgon2id, AlgorithmArgon2i:
		return NewArgon2Adapter(algorithm), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, algorithm)
	}
}

// Derive looks up the adapter for params.Algorithm and derives the key.
func Derive(passphrase []byte, params *Params) ([]byte, error) {
	if params == nil {
		return nil, ErrUnsupportedAlgorithm
	}
	adapter, err := New(params.Algorithm)
	if err != nil {
		return nil, err
	}
	return adapter.DeriveKey(passphrase, params)
}

// NewSalt returns DefaultSaltLength random bytes.
func NewSalt() ([]byte, error) {
	salt := make([]byte, DefaultSaltLength)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("kdf: failed to generate salt: %w", err)
	}
	return salt, nil
}
