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

// Package password holds passphrases in memory for the lifetime of a key
// derivation and zeroes them afterwards.
package password

import (
	"crypto/subtle"
	"errors"
)

var (
	// ErrEmptyPassword is returned when an empty password is provided.
	ErrEmptyPassword = errors.New("password: cannot be empty")

	// ErrPasswordZeroed is returned when the password has been zeroed.
	ErrPasswordZeroed = errors.New("password: has been zeroed")
)

// Password is a secret that can be read as bytes and wiped.
type Password interface {
	Bytes() []byte
	String() (string, error)
	Clear()
}

// ClearPassword stores a password in memory as cleartext until Clear is
// called.
type ClearPassword struct {
	password []byte
}

// NewClearPassword copies password into a new ClearPassword.
func NewClearPassword(password []byte) (*ClearPassword, error) {
	if len(password) == 0 {
		return nil, ErrEmptyPassword
	}
	p := make([]byte, len(password))
	copy(p, password)
	return &ClearPassword{password: p}, nil
}

// NewClearPasswordFromString creates a ClearPassword from a string.
func NewClearPasswordFromString(password string) (*ClearPassword, error) {
	if len(password) == 0 {
		return nil, ErrEmptyPassword
	}
	return &ClearPassword{password: []byte(password)}, nil
}

// String returns the password as a string.
func (p *ClearPassword) String() (string, error) {
	if p.password == nil {
		return "", ErrPasswordZeroed
	}
	return string(p.password), nil
}

// Bytes returns a copy of the password, or nil once cleared.
func (p *ClearPassword) Bytes() []byte {
	if p.password == nil {
		return nil
	}
	result := make([]byte, len(p.password))
	copy(result, p.password)
	return result
}

// Clear zeroes the password. Irreversible.
func (p *ClearPassword) Clear() {
	if p.password != nil {
		Zero(p.password)
		p.password = nil
	}
}

// Zero overwrites b with zeros.
func Zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
	subtle.ConstantTimeCopy(1, b, make([]byte, len(b)))
}

// Equal compares two byte slices in constant time.
func Equal(a, b []byte) bool {
	return subtle.ConstantTimeCompare(a, b) == 1
}

var _ Password = (*ClearPassword)(nil)
