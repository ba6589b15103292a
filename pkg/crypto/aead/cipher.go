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

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
)

// KeySize is the key length required by every supported algorithm.
const KeySize = 32

// Options tune a Cipher. The zero value enables both trackers with default
// limits.
type Options struct {
	// DisableNonceTracking turns off nonce reuse detection.
	DisableNonceTracking bool

	// BytesLimit overrides DefaultBytesLimit. Negative disables the limit.
	BytesLimit int64

	// Random overrides the nonce source. Used by tests.
	Random io.Reader
}

// Cipher seals and opens values under a single key. Sealed output is
// nonce || ciphertext || tag. It is safe for concurrent use.
type Cipher struct {
	algorithm Algorithm
	aead      cipher.AEAD
	nonces    *NonceTracker
	bytes     *BytesTracker
	random    io.Reader
}

// New creates a Cipher for the given algorithm and 32-byte key.
func New(algorithm Algorithm, key []byte, opts *Options) (*Cipher, error) {
	if len(key) != KeySize {
		return nil, ErrInvalidKeySize
	}
	if opts == nil {
		opts = &Options{}
	}

	var (
		a   cipher.AEAD
		err error
	)
	switch algorithm {
	case AES256GCM:
		var block cipher.Block
		block, err = aes.NewCipher(key)
		if err != nil {
			return nil, fmt.Errorf("aead: failed to create AES cipher: %w", err)
		}
		a, err = cipher.NewGCM(block)
	case XChaCha20Poly1305:
		a, err = chacha20poly1305.NewX(key)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, algorithm)
	}
	if err != nil {
		return nil, fmt.Errorf("aead: failed to create %s: %w", algorithm, err)
	}

	random := opts.Random
	if random == nil {
		random = rand.Reader
	}

	return &Cipher{
		algorithm: algorithm,
		aead:      a,
		nonces:    NewNonceTracker(!opts.DisableNonceTracking),
		bytes:     NewBytesTracker(opts.BytesLimit >= 0, opts.BytesLimit),
		random:    random,
	}, nil
}

// Algorithm returns the cipher's algorithm.
func (c *Cipher) Algorithm() Algorithm {
	return c.algorithm
}

// Overhead returns the number of bytes Seal adds to the plaintext.
func (c *Cipher) Overhead() int {
	return c.aead.NonceSize() + c.aead.Overhead()
}

// Seal encrypts plaintext, authenticating additionalData alongside it.
func (c *Cipher) Seal(plaintext, additionalData []byte) ([]byte, error) {
	if err := c.bytes.CheckAndIncrementBytes(int64(len(plaintext))); err != nil {
		return nil, err
	}

	nonce := make([]byte, c.aead.NonceSize(), c.aead.NonceSize()+len(plaintext)+c.aead.Overhead())
	if _, err := io.ReadFull(c.random, nonce); err != nil {
		return nil, fmt.Errorf("aead: failed to generate nonce: %w", err)
	}
	if err := c.nonces.CheckAndRecordNonce(nonce); err != nil {
		return nil, err
	}

	return c.aead.Seal(nonce, nonce, plaintext, additionalData), nil
}

// Open decrypts a value produced by Seal with the same additionalData.
func (c *Cipher) Open(sealed, additionalData []byte) ([]byte, error) {
	nonceSize := c.aead.NonceSize()
	if len(sealed) < nonceSize+c.aead.Overhead() {
		return nil, ErrCiphertextTooShort
	}

	nonce, ciphertext := sealed[:nonceSize], sealed[nonceSize:]
	plaintext, err := c.aead.Open(nil, nonce, ciphertext, additionalData)
	if err != nil {
		return nil, ErrAuthentication
	}
	return plaintext, nil
}

// Stats reports tracker state for diagnostics.
func (c *Cipher) Stats() map[string]interface{} {
	return map[string]interface{}{
		"algorithm":       c.algorithm.String(),
		"nonces_tracked":  c.nonces.Count(),
		"bytes_encrypted": c.bytes.BytesEncrypted(),
		"bytes_remaining": c.bytes.Remaining(),
	}
}
