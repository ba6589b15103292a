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

// Package file provides a directory-backed implementation of storage.Store.
// Each key is persisted as one file whose name is the base64url encoding of
// the key, so arbitrary key strings never escape the root directory.
package file

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/jeremyhahn/go-credstore/pkg/storage"
)

// maxNameLen is the longest file name most filesystems accept.
const maxNameLen = 255

var encoding = base64.RawURLEncoding

// FileStorage stores key/value pairs as files in a single directory.
type FileStorage struct {
	mu      sync.RWMutex
	rootDir string
	opts    *storage.Options
	closed  bool
}

// New creates a FileStorage rooted at rootDir using default options.
func New(rootDir string) (*FileStorage, error) {
	return NewWithOptions(rootDir, storage.DefaultOptions())
}

// NewWithOptions creates a FileStorage rooted at rootDir. The directory is
// created if it doesn't exist.
func NewWithOptions(rootDir string, opts *storage.Options) (*FileStorage, error) {
	if rootDir == "" {
		return nil, fmt.Errorf("file storage: root directory cannot be empty")
	}
	if opts == nil {
		opts = storage.DefaultOptions()
	}

	if err := os.MkdirAll(rootDir, opts.DirPermissions); err != nil {
		return nil, fmt.Errorf("file storage: failed to create root directory: %w", err)
	}

	abs, err := filepath.Abs(rootDir)
	if err != nil {
		return nil, fmt.Errorf("file storage: failed to resolve root directory: %w", err)
	}

	return &FileStorage{
		rootDir: abs,
		opts:    opts,
	}, nil
}

// Root returns the absolute root directory.
func (f *FileStorage) Root() string {
	return f.rootDir
}

// Get retrieves the value for the given key.
func (f *FileStorage) Get(key string) ([]byte, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.closed {
		return nil, storage.ErrClosed
	}

	path, err := f.keyToPath(key)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path) // #nosec G304 -- path is derived from an encoded key under rootDir
	if err != nil {
		if os.IsNotExist(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("file storage: failed to read key %q: %w", key, err)
	}
	return data, nil
}

// Put writes the value atomically: a temp file is written, synced and then
// renamed over the destination.
func (f *FileStorage) Put(key string, value []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return storage.ErrClosed
	}

	path, err := f.keyToPath(key)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(f.rootDir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("file storage: failed to create temp file for key %q: %w", key, err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(value); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("file storage: failed to write key %q: %w", key, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("file storage: failed to sync key %q: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("file storage: failed to close key %q: %w", key, err)
	}
	if err := os.Chmod(tmpName, f.opts.Permissions); err != nil {
		return fmt.Errorf("file storage: failed to set permissions for key %q: %w", key, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("file storage: failed to commit key %q: %w", key, err)
	}
	return nil
}

// Delete removes the key and its value from storage.
func (f *FileStorage) Delete(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return storage.ErrClosed
	}

	path, err := f.keyToPath(key)
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return storage.ErrNotFound
		}
		return fmt.Errorf("file storage: failed to delete key %q: %w", key, err)
	}
	return nil
}

// List returns all keys with the given prefix in sorted order. Files whose
// names are not valid encodings (temp files, strays) are ignored.
func (f *FileStorage) List(prefix string) ([]string, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.closed {
		return nil, storage.ErrClosed
	}

	entries, err := os.ReadDir(f.rootDir)
	if err != nil {
		return nil, fmt.Errorf("file storage: failed to list keys: %w", err)
	}

	keys := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		key, ok := pathToKey(entry.Name())
		if !ok {
			continue
		}
		if prefix == "" || strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}

	sort.Strings(keys)
	return keys, nil
}

// Exists checks if a key exists in storage.
func (f *FileStorage) Exists(key string) (bool, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.closed {
		return false, storage.ErrClosed
	}

	path, err := f.keyToPath(key)
	if err != nil {
		return false, err
	}

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("file storage: failed to check key %q: %w", key, err)
	}
	return true, nil
}

// Close marks the store closed. Files on disk are left untouched.
func (f *FileStorage) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *FileStorage) keyToPath(key string) (string, error) {
	if err := storage.ValidateKey(key); err != nil {
		return "", err
	}
	name := encoding.EncodeToString([]byte(key))
	if len(name) > maxNameLen {
		return "", fmt.Errorf("%w: key too long", storage.ErrInvalidKey)
	}
	return filepath.Join(f.rootDir, name), nil
}

func pathToKey(name string) (string, bool) {
	raw, err := encoding.DecodeString(name)
	if err != nil || len(raw) == 0 {
		return "", false
	}
	return string(raw), true
}

var _ storage.Store = (*FileStorage)(nil)
