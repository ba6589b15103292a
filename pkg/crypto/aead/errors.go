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

package aead

import "errors"

var (
	// ErrNonceReuse is returned when a freshly drawn nonce has already been
	// used with the same key. Encryption is refused.
	ErrNonceReuse = errors.New("aead: nonce reuse detected - encryption rejected")

	// ErrUsageLimitExceeded is returned once a key has sealed more bytes than
	// its configured limit. The store must be re-keyed.
	ErrUsageLimitExceeded = errors.New("aead: key usage limit exceeded")

	// ErrCiphertextTooShort is returned when a sealed value is shorter than
	// the nonce and tag of its cipher.
	ErrCiphertextTooShort = errors.New("aead: ciphertext too short")

	// ErrAuthentication is returned when a sealed value fails authentication,
	// either because it was tampered with or the key is wrong.
	ErrAuthentication = errors.New("aead: message authentication failed")

	// ErrInvalidKeySize is returned when the key is not 32 bytes.
	ErrInvalidKeySize = errors.New("aead: key must be 32 bytes")

	// ErrUnsupportedAlgorithm is returned for unknown algorithm names.
	ErrUnsupportedAlgorithm = errors.New("aead: unsupported algorithm")
)
