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

// Package aead seals credential values for the local encrypted backend.
//
// Two ciphers are supported:
//
//   - AES-256-GCM: chosen when the CPU has AES instructions (AES-NI on
//     amd64, the AES extension on arm64).
//   - XChaCha20-Poly1305: chosen otherwise; it is faster than AES in pure
//     software and its 192-bit nonce makes random nonces safe for any
//     realistic number of writes.
//
// Every Cipher tracks the nonces it has produced and the number of bytes it
// has sealed, refusing to encrypt on nonce reuse or once the per-key usage
// limit is reached.
package aead

import (
	"runtime"

	"golang.org/x/sys/cpu"
)

// Algorithm identifies an AEAD construction. The value is persisted in the
// local store metadata so it must stay stable.
type Algorithm string

const (
	// AES256GCM is AES-256 in Galois/Counter Mode with a 96-bit nonce.
	AES256GCM Algorithm = "aes256-gcm"

	// XChaCha20Poly1305 is ChaCha20-Poly1305 with a 192-bit extended nonce.
	XChaCha20Poly1305 Algorithm = "xchacha20-poly1305"
)

// String returns the algorithm name.
func (a Algorithm) String() string {
	return string(a)
}

// Valid reports whether the algorithm is supported.
func (a Algorithm) Valid() bool {
	return a == AES256GCM || a == XChaCha20Poly1305
}

// HasAESNI returns true if the CPU has hardware AES support.
func HasAESNI() bool {
	switch runtime.GOARCH {
	case "amd64":
		return cpu.X86.HasAES
	case "arm64":
		return cpu.ARM64.HasAES
	default:
		return false
	}
}

// SelectOptimal picks AES-256-GCM when hardware acceleration is available
// and XChaCha20-Poly1305 otherwise.
func SelectOptimal() Algorithm {
	if HasAESNI() {
		return AES256GCM
	}
	return XChaCha20Poly1305
}

// ParseAlgorithm converts a configured name to an Algorithm. The empty
// string and "auto" select the optimal cipher for the host.
func ParseAlgorithm(name string) (Algorithm, error) {
	switch name {
	case "", "auto":
		return SelectOptimal(), nil
	case string(AES256GCM):
		return AES256GCM, nil
	case string(XChaCha20Poly1305):
		return XChaCha20Poly1305, nil
	default:
		return "", ErrUnsupportedAlgorithm
	}
}
