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

package credstore

import (
	"context"
	"errors"
	"math"
	"math/big"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/jeremyhahn/go-credstore/pkg/backend"
)

// SetAccessKey stores the access key.
func (s *Store) SetAccessKey(ctx context.Context, accessKey string) error {
	return s.Set(ctx, s.keys.AccessKey, accessKey)
}

// GetAccessKey reads the access key directly; an absent value fails with
// ErrNotFound.
func (s *Store) GetAccessKey(ctx context.Context) (accessKey string, err error) {
	ctx, b, err := s.acquire(ctx)
	if err != nil {
		return "", err
	}
	defer s.observe(ctx, opGet, b, time.Now(), &err)

	return b.Get(ctx, s.keys.AccessKey)
}

// IsAuthorized reports whether candidate and the stored access key are the
// same integer. Both are read leniently: leading whitespace and a sign are
// accepted and anything after the leading digits is ignored. A side with no
// leading digits never matches, and neither does a missing access key.
//
// Attempts are throttled; a refused attempt fails with ErrTooManyAttempts
// without reading the stored key.
func (s *Store) IsAuthorized(ctx context.Context, candidate string) (authorized bool, err error) {
	ctx, b, err := s.acquire(ctx)
	if err != nil {
		return false, err
	}
	defer s.observe(ctx, opIsAuthorized, b, time.Now(), &err)

	if !s.limiter.Allow(s.keys.AccessKey) {
		s.metrics.RecordAuthorizationDenied("rate_limited")
		return false, ErrTooManyAttempts
	}

	stored, err := b.Get(ctx, s.keys.AccessKey)
	if errors.Is(err, backend.ErrNotFound) {
		s.metrics.RecordAuthorizationDenied("no_access_key")
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if !integersEqual(stored, candidate) {
		s.metrics.RecordAuthorizationDenied("mismatch")
		return false, nil
	}
	return true, nil
}

// AttemptLimiterStats describes the IsAuthorized attempt limiter. It returns
// nil when attempts are not limited.
func (s *Store) AttemptLimiterStats() map[string]interface{} {
	if !s.limiter.IsEnabled() {
		return nil
	}
	return s.limiter.Stats()
}

func integersEqual(a, b string) bool {
	x, ok := parseLeadingInt(a)
	if !ok {
		return false
	}
	y, ok := parseLeadingInt(b)
	if !ok {
		return false
	}
	return x == y
}

// parseLeadingInt reads an integer the way ECMAScript parseInt does with no
// radix: optional leading whitespace, an optional sign, an optional 0x
// prefix selecting hexadecimal, then the longest run of digits. ok is false
// when there are no digits. Large values lose precision exactly as a
// float64 would.
func parseLeadingInt(s string) (value float64, ok bool) {
	s = strings.TrimLeftFunc(s, isECMAWhitespace)

	negative := false
	if s != "" && (s[0] == '+' || s[0] == '-') {
		negative = s[0] == '-'
		s = s[1:]
	}

	base := 10
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		base = 16
		s = s[2:]
	}

	end := 0
	for end < len(s) && isDigit(s[end], base) {
		end++
	}
	if end == 0 {
		return math.NaN(), false
	}
	digits := s[:end]

	if base == 10 {
		// ParseFloat rounds correctly and saturates to Inf like ECMAScript.
		value, _ = strconv.ParseFloat(digits, 64)
	} else {
		n, _ := new(big.Int).SetString(digits, 16)
		value, _ = new(big.Float).SetInt(n).Float64()
	}
	if negative {
		value = -value
	}
	return value, true
}

func isDigit(c byte, base int) bool {
	switch {
	case c >= '0' && c <= '9':
		return true
	case base == 16 && c >= 'a' && c <= 'f':
		return true
	case base == 16 && c >= 'A' && c <= 'F':
		return true
	default:
		return false
	}
}

// isECMAWhitespace matches the WhiteSpace and LineTerminator productions.
func isECMAWhitespace(r rune) bool {
	switch r {
	case '\t', '\n', '\v', '\f', '\r', ' ', '\u00a0', '\ufeff', '\u2028', '\u2029':
		return true
	}
	return unicode.Is(unicode.Zs, r)
}
