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

package kdf

import (
	"golang.org/x/crypto/argon2"
)

const (
	// MinArgon2SaltLength is the minimum recommended salt length in bytes
	MinArgon2SaltLength = 16

	// MinArgon2Memory is the minimum memory cost in KiB
	MinArgon2Memory = 8 * 1024 // 8 MiB

	// MinArgon2Time is the minimum time cost
	MinArgon2Time = 1

	// MinArgon2Threads is the minimum number of threads
	MinArgon2Threads = 1
)

// Argon2Adapter implements Adapter using Argon2i or Argon2id.
type Argon2Adapter struct {
	variant Algorithm
}

// NewArgon2Adapter creates an adapter for the given variant. Anything other
// than Argon2i selects Argon2id.
func NewArgon2Adapter(variant Algorithm) *Argon2Adapter {
	if variant != AlgorithmArgon2i {
		variant = AlgorithmArgon2id
	}
	return &Argon2Adapter{variant: variant}
}

// DeriveKey derives a key using Argon2
func (a *Argon2Adapter) DeriveKey(passphrase []byte, params *Params) ([]byte, error) {
	if err := a.ValidateParams(params); err != nil {
		return nil, err
	}
	if len(passphrase) == 0 {
		return nil, ErrInvalidPassphrase
	}

	if a.variant == AlgorithmArgon2i {
		return argon2.Key(passphrase, params.Salt, params.Time, params.Memory, params.Threads, uint32(params.KeyLength)), nil
	}
	return argon2.IDKey(passphrase, params.Salt, params.Time, params.Memory, params.Threads, uint32(params.KeyLength)), nil
}

// Algorithm returns the KDF algorithm
func (a *Argon2Adapter) Algorithm() Algorithm {
	return a.variant
}

// ValidateParams validates Argon2 parameters
func (a *Argon2Adapter) ValidateParams(params *Params) error {
	if params == nil {
		return ErrInvalidKeyLength
	}
	if params.Algorithm != a.variant {
		return ErrUnsupportedAlgorithm
	}
	if params.KeyLength <= 0 {
		return ErrInvalidKeyLength
	}
	if len(params.Salt) < MinArgon2SaltLength {
		return ErrInvalidSalt
	}
	if params.Memory < MinArgon2Memory {
		return ErrInvalidMemory
	}
	if params.Time < MinArgon2Time {
		return ErrInvalidTime
	}
	if params.Threads < MinArgon2Threads {
		return ErrInvalidThreads
	}
	return nil
}
