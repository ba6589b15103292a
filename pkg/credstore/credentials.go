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
	"fmt"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
	"golang.org/x/sync/errgroup"

	"github.com/jeremyhahn/go-credstore/pkg/adapters/logger"
)

// maxConcurrentReads bounds the fan-out of multi-key reads.
const maxConcurrentReads = 16

// IsCredentialKey reports whether key names a credential record: its first
// underscore-delimited segment is "cred".
func IsCredentialKey(key string) bool {
	head, _, _ := strings.Cut(key, "_")
	return head == DefaultCredentialPrefix
}

// GetAllCredentials returns the values of every credential key, in the
// order the backend listed the keys.
func (s *Store) GetAllCredentials(ctx context.Context) (values []string, err error) {
	ctx, b, err := s.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer s.observe(ctx, opGetAllCredentials, b, time.Now(), &err)

	keys, err := b.Keys(ctx)
	if err != nil {
		return nil, err
	}
	var creds []string
	for _, k := range keys {
		if IsCredentialKey(k) {
			creds = append(creds, k)
		}
	}
	return fanOut(ctx, creds, b.Get)
}

// GetIdentityData reads the DID, public key and private key in that order.
// The result is keyed by the configured key names; an absent key maps to
// nil.
func (s *Store) GetIdentityData(ctx context.Context) (identity map[string]*string, err error) {
	ctx, b, err := s.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer s.observe(ctx, opGetIdentityData, b, time.Now(), &err)

	identity = make(map[string]*string, 3)
	for _, key := range []string{s.keys.DID, s.keys.PublicKey, s.keys.PrivateKey} {
		v, found, err := get(ctx, b, key)
		if err != nil {
			return nil, err
		}
		if found {
			identity[key] = &v
		} else {
			identity[key] = nil
		}
	}
	return identity, nil
}

// MatchAndGetJSON returns the JSON object stored under every key matching
// pattern, re-encoded with the key injected under the configured
// remove-key field. Values that are not JSON objects fail with ErrParse.
func (s *Store) MatchAndGetJSON(ctx context.Context, pattern string) (values []string, err error) {
	ctx, b, err := s.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer s.observe(ctx, opMatchAndGetJSON, b, time.Now(), &err)

	re, err := compilePattern(pattern)
	if err != nil {
		return nil, err
	}
	keys, err := b.Keys(ctx)
	if err != nil {
		return nil, err
	}
	var matched []string
	for _, k := range keys {
		if re.MatchString(k) {
			matched = append(matched, k)
		}
	}

	field := escapePath(s.keys.RemoveKeyField)
	return fanOut(ctx, matched, func(ctx context.Context, key string) (string, error) {
		raw, err := b.Get(ctx, key)
		if err != nil {
			return "", err
		}
		return injectKey(raw, field, key)
	})
}

// injectKey sets field to key in the JSON object raw and returns it
// compacted.
func injectKey(raw, field, key string) (string, error) {
	if !gjson.Valid(raw) {
		return "", fmt.Errorf("%w: %q is not valid JSON", ErrParse, key)
	}
	if !gjson.Parse(raw).IsObject() {
		return "", fmt.Errorf("%w: %q is not a JSON object", ErrParse, key)
	}
	out, err := sjson.Set(raw, field, key)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %w", ErrParse, key, err)
	}
	return gjson.Get(out, "@ugly").Raw, nil
}

// escapePath escapes gjson/sjson path syntax so name is a single literal
// object field.
func escapePath(name string) string {
	var sb strings.Builder
	for _, r := range name {
		switch r {
		case '\\', '.', '*', '?', '|', '#', '@', '!', '=', '<', '>', '%', ':':
			sb.WriteByte('\\')
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// RemovePresentation removes the first key, in backend order, matching the
// jti pattern. No match fails with ErrNotFound.
func (s *Store) RemovePresentation(ctx context.Context, jti string) (err error) {
	ctx, b, err := s.acquire(ctx)
	if err != nil {
		return err
	}
	defer s.observe(ctx, opRemovePresentation, b, time.Now(), &err)

	re, err := compilePattern(jti)
	if err != nil {
		return err
	}
	keys, err := b.Keys(ctx)
	if err != nil {
		return err
	}
	for _, k := range keys {
		if re.MatchString(k) {
			return b.Remove(ctx, k)
		}
	}
	return fmt.Errorf("%w: no key matches %q", ErrNotFound, jti)
}

// SetDID stores the decentralized identifier under the configured DID key.
func (s *Store) SetDID(ctx context.Context, did string) error {
	return s.Set(ctx, s.keys.DID, did)
}

// SetLoginType stores the login type.
func (s *Store) SetLoginType(ctx context.Context, loginType string) error {
	return s.Set(ctx, s.keys.LoginType, loginType)
}

// GetLoginType reads the login type directly; an absent value fails with
// ErrNotFound.
func (s *Store) GetLoginType(ctx context.Context) (loginType string, err error) {
	ctx, b, err := s.acquire(ctx)
	if err != nil {
		return "", err
	}
	defer s.observe(ctx, opGet, b, time.Now(), &err)

	return b.Get(ctx, s.keys.LoginType)
}

// GetUsername returns the stored username when the key list contains the
// username key. A failure to enumerate keys is logged and reported as not
// found.
func (s *Store) GetUsername(ctx context.Context) (username string, found bool, err error) {
	ctx, b, err := s.acquire(ctx)
	if err != nil {
		return "", false, err
	}
	defer s.observe(ctx, opGetUsername, b, time.Now(), &err)

	keys, kerr := b.Keys(ctx)
	if kerr != nil {
		s.logger.ErrorContext(ctx, "failed to check keys", logger.Error(kerr))
		return "", false, nil
	}
	if len(keys) == 0 || !slices.Contains(keys, s.keys.Username) {
		return "", false, nil
	}
	v, err := b.Get(ctx, s.keys.Username)
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func compilePattern(pattern string) (*regexp.Regexp, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPattern, err)
	}
	return re, nil
}

// fanOut fetches every key concurrently and returns the results in key
// order. The first failure cancels the rest and is returned.
func fanOut(ctx context.Context, keys []string, fetch func(context.Context, string) (string, error)) ([]string, error) {
	results := make([]string, len(keys))
	if len(keys) == 0 {
		return results, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentReads)
	for i, key := range keys {
		i, key := i, key
		g.Go(func() error {
			v, err := fetch(gctx, key)
			if err != nil {
				return err
			}
			results[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
