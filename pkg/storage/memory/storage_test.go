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

package memory

import (
	"bytes"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/jeremyhahn/go-credstore/pkg/storage"
)

// TestNew verifies that New() creates an empty store.
func TestNew(t *testing.T) {
	store := New()
	if store == nil {
		t.Fatal("New() returned nil")
	}

	keys, err := store.List("")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(keys) != 0 {
		t.Errorf("New store should be empty, got %d keys", len(keys))
	}
}

// TestPutGet verifies basic Put and Get operations.
func TestPutGet(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value []byte
	}{
		{"simple key-value", "accessKey", []byte("1234")},
		{"empty value", "empty", []byte{}},
		{"binary data", "binary", []byte{0x00, 0x01, 0x02, 0xFF}},
		{"credential key", "cred_8f2a", []byte(`{"type":"VerifiableCredential"}`)},
		{"key with slashes", "a/b/c", []byte("nested")},
	}

	store := New()
	defer store.Close()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := store.Put(tt.key, tt.value); err != nil {
				t.Fatalf("Put() error = %v", err)
			}

			got, err := store.Get(tt.key)
			if err != nil {
				t.Fatalf("Get() error = %v", err)
			}
			if !bytes.Equal(got, tt.value) {
				t.Errorf("Get() = %v, want %v", got, tt.value)
			}
		})
	}
}

func TestPut_InvalidKey(t *testing.T) {
	store := New()
	defer store.Close()

	if err := store.Put("", []byte("x")); !errors.Is(err, storage.ErrInvalidKey) {
		t.Errorf("Put(\"\") error = %v, want ErrInvalidKey", err)
	}
}

// TestDefensiveCopies verifies stored data cannot be mutated by callers.
func TestDefensiveCopies(t *testing.T) {
	store := New()
	defer store.Close()

	value := []byte("original")
	if err := store.Put("k", value); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	value[0] = 'X'

	got, _ := store.Get("k")
	if string(got) != "original" {
		t.Errorf("stored value mutated through input slice: %q", got)
	}

	got[0] = 'Y'
	again, _ := store.Get("k")
	if string(again) != "original" {
		t.Errorf("stored value mutated through output slice: %q", again)
	}
}

func TestDelete(t *testing.T) {
	store := New()
	defer store.Close()

	_ = store.Put("k", []byte("v"))
	if err := store.Delete("k"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := store.Get("k"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Get() after Delete error = %v, want ErrNotFound", err)
	}
	if err := store.Delete("k"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("second Delete() error = %v, want ErrNotFound", err)
	}
}

func TestListSortedWithPrefix(t *testing.T) {
	store := New()
	defer store.Close()

	for _, k := range []string{"cred_b", "cred_a", "did", "accessKey"} {
		_ = store.Put(k, []byte("v"))
	}

	keys, err := store.List("cred_")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	want := []string{"cred_a", "cred_b"}
	if fmt.Sprint(keys) != fmt.Sprint(want) {
		t.Errorf("List(cred_) = %v, want %v", keys, want)
	}

	all, _ := store.List("")
	if len(all) != 4 || all[0] != "accessKey" {
		t.Errorf("List(\"\") = %v, want 4 sorted keys", all)
	}
}

func TestExists(t *testing.T) {
	store := New()
	defer store.Close()

	_ = store.Put("present", []byte("v"))

	ok, err := store.Exists("present")
	if err != nil || !ok {
		t.Errorf("Exists(present) = %v, %v", ok, err)
	}
	ok, err = store.Exists("absent")
	if err != nil || ok {
		t.Errorf("Exists(absent) = %v, %v", ok, err)
	}
}

func TestClose(t *testing.T) {
	store := New()
	_ = store.Put("k", []byte("v"))

	if err := store.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("second Close() error = %v", err)
	}

	if _, err := store.Get("k"); !errors.Is(err, storage.ErrClosed) {
		t.Errorf("Get() error = %v, want ErrClosed", err)
	}
	if err := store.Put("k", nil); !errors.Is(err, storage.ErrClosed) {
		t.Errorf("Put() error = %v, want ErrClosed", err)
	}
	if _, err := store.List(""); !errors.Is(err, storage.ErrClosed) {
		t.Errorf("List() error = %v, want ErrClosed", err)
	}
}

// TestConcurrentAccess exercises the store from many goroutines.
func TestConcurrentAccess(t *testing.T) {
	store := New()
	defer store.Close()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := fmt.Sprintf("cred_%d", i)
			if err := store.Put(key, []byte(key)); err != nil {
				t.Errorf("Put(%s) error = %v", key, err)
				return
			}
			if _, err := store.Get(key); err != nil {
				t.Errorf("Get(%s) error = %v", key, err)
			}
			_, _ = store.List("cred_")
		}(i)
	}
	wg.Wait()

	keys, _ := store.List("")
	if len(keys) != 50 {
		t.Errorf("expected 50 keys, got %d", len(keys))
	}
}
