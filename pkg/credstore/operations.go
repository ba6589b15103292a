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
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/jeremyhahn/go-credstore/pkg/backend"
)

// HasKey reports whether key is present by enumerating every key.
func (s *Store) HasKey(ctx context.Context, key string) (found bool, err error) {
	ctx, b, err := s.acquire(ctx)
	if err != nil {
		return false, err
	}
	defer s.observe(ctx, opHasKey, b, time.Now(), &err)

	return hasKey(ctx, b, key)
}

func hasKey(ctx context.Context, b backend.Backend, key string) (bool, error) {
	keys, err := b.Keys(ctx)
	if err != nil {
		return false, err
	}
	return slices.Contains(keys, key), nil
}

// Get returns the value stored under key. An absent key yields found ==
// false and no error.
func (s *Store) Get(ctx context.Context, key string) (value string, found bool, err error) {
	ctx, b, err := s.acquire(ctx)
	if err != nil {
		return "", false, err
	}
	defer s.observe(ctx, opGet, b, time.Now(), &err)

	return get(ctx, b, key)
}

func get(ctx context.Context, b backend.Backend, key string) (string, bool, error) {
	ok, err := hasKey(ctx, b, key)
	if err != nil || !ok {
		return "", false, err
	}
	v, err := b.Get(ctx, key)
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

// Set stores value under key.
func (s *Store) Set(ctx context.Context, key, value string) (err error) {
	ctx, b, err := s.acquire(ctx)
	if err != nil {
		return err
	}
	defer s.observe(ctx, opSet, b, time.Now(), &err)

	return b.Set(ctx, key, value)
}

// Remove deletes key. Whether an absent key is an error depends on the
// active backend: local storage ignores it, native storage reports
// ErrNotFound.
func (s *Store) Remove(ctx context.Context, key string) (err error) {
	ctx, b, err := s.acquire(ctx)
	if err != nil {
		return err
	}
	defer s.observe(ctx, opRemove, b, time.Now(), &err)

	return b.Remove(ctx, key)
}

// RemoveJSON is Remove for keys holding JSON values.
func (s *Store) RemoveJSON(ctx context.Context, key string) error {
	return s.Remove(ctx, key)
}

// Keys lists every stored key in backend order.
func (s *Store) Keys(ctx context.Context) (keys []string, err error) {
	ctx, b, err := s.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer s.observe(ctx, opKeys, b, time.Now(), &err)

	keys, err = b.Keys(ctx)
	if err != nil {
		return nil, err
	}
	s.metrics.SetKeysTotal(string(b.Type()), len(keys))
	return keys, nil
}

// KeyCount reports the active backend and its number of keys.
func (s *Store) KeyCount(ctx context.Context) (string, int, error) {
	keys, err := s.Keys(ctx)
	if err != nil {
		return "", 0, err
	}
	t, err := s.ActiveBackend()
	if err != nil {
		return "", 0, err
	}
	return string(t), len(keys), nil
}

// ClearStorage removes every key from the active backend.
func (s *Store) ClearStorage(ctx context.Context) (err error) {
	ctx, b, err := s.acquire(ctx)
	if err != nil {
		return err
	}
	defer s.observe(ctx, opClear, b, time.Now(), &err)

	if err := b.Clear(ctx); err != nil {
		return err
	}
	s.metrics.SetKeysTotal(string(b.Type()), 0)
	return nil
}

// SecureDevice asks the active backend to harden its storage.
func (s *Store) SecureDevice(ctx context.Context) (err error) {
	ctx, b, err := s.acquire(ctx)
	if err != nil {
		return err
	}
	defer s.observe(ctx, opSecureDevice, b, time.Now(), &err)

	return b.SecureDevice(ctx)
}

// GetJSON decodes the JSON value stored under key into v. The value is
// read directly, so an absent key fails with ErrNotFound.
func (s *Store) GetJSON(ctx context.Context, key string, v any) (err error) {
	ctx, b, err := s.acquire(ctx)
	if err != nil {
		return err
	}
	defer s.observe(ctx, opGetJSON, b, time.Now(), &err)

	raw, err := b.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return fmt.Errorf("%w: %q: %w", ErrParse, key, err)
	}
	return nil
}

// SetJSON encodes v as JSON and stores it under key.
func (s *Store) SetJSON(ctx context.Context, key string, v any) (err error) {
	ctx, b, err := s.acquire(ctx)
	if err != nil {
		return err
	}
	defer s.observe(ctx, opSetJSON, b, time.Now(), &err)

	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("%w: encode %q: %w", ErrParse, key, err)
	}
	return b.Set(ctx, key, string(raw))
}
