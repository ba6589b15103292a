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

package native

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/99designs/keyring"

	"github.com/jeremyhahn/go-credstore/pkg/backend"
)

type keyringPlugin struct {
	ring    keyring.Keyring
	service string
}

func openKeyring(cfg *Config) (*keyringPlugin, error) {
	allowed, err := allowedKeyrings(cfg)
	if err != nil {
		return nil, err
	}

	kc := keyring.Config{
		ServiceName:     cfg.ServiceName,
		AllowedBackends: allowed,
		FileDir:         cfg.FileDir,
		KeychainName:    cfg.ServiceName,
		KWalletAppID:    cfg.ServiceName,
		KWalletFolder:   cfg.ServiceName,
		WinCredPrefix:   cfg.ServiceName,
		PassPrefix:      cfg.ServiceName,

		LibSecretCollectionName: cfg.ServiceName,
	}
	if cfg.FilePassword != "" {
		kc.FilePasswordFunc = keyring.FixedStringPrompt(cfg.FilePassword)
	}

	ring, err := keyring.Open(kc)
	if err != nil {
		return nil, fmt.Errorf("%w: keyring: %w", backend.ErrUnavailable, err)
	}
	return &keyringPlugin{ring: ring, service: cfg.ServiceName}, nil
}

// allowedKeyrings resolves the configured keychain names. The file keychain
// needs a password and is dropped from the defaults when none is set.
func allowedKeyrings(cfg *Config) ([]keyring.BackendType, error) {
	if len(cfg.KeyringBackends) == 0 {
		var allowed []keyring.BackendType
		for _, bt := range keyring.AvailableBackends() {
			if bt == keyring.FileBackend && cfg.FilePassword == "" {
				continue
			}
			allowed = append(allowed, bt)
		}
		if len(allowed) == 0 {
			return nil, fmt.Errorf("%w: keyring: %w", backend.ErrUnavailable, keyring.ErrNoAvailImpl)
		}
		return allowed, nil
	}

	allowed := make([]keyring.BackendType, 0, len(cfg.KeyringBackends))
	for _, name := range cfg.KeyringBackends {
		bt := keyring.BackendType(name)
		if bt == keyring.FileBackend && cfg.FilePassword == "" {
			return nil, fmt.Errorf("%w: %w: file keychain requires a password", backend.ErrUnavailable, ErrInvalidConfig)
		}
		allowed = append(allowed, bt)
	}
	return allowed, nil
}

func (k *keyringPlugin) Name() string {
	return string(ProviderKeyring) + ":" + k.service
}

func (k *keyringPlugin) Get(_ context.Context, key string) (string, error) {
	item, err := k.ring.Get(key)
	if err != nil {
		return "", mapKeyringError(err)
	}
	return string(item.Data), nil
}

func (k *keyringPlugin) Set(_ context.Context, key, value string) error {
	err := k.ring.Set(keyring.Item{
		Key:   key,
		Data:  []byte(value),
		Label: k.service + ": " + key,
	})
	if err != nil {
		return fmt.Errorf("%w: %w", backend.ErrWrite, err)
	}
	return nil
}

func (k *keyringPlugin) Remove(_ context.Context, key string) error {
	if err := k.ring.Remove(key); err != nil {
		if isKeyringNotFound(err) {
			return fmt.Errorf("%w: %w", backend.ErrNotFound, err)
		}
		return fmt.Errorf("%w: %w", backend.ErrWrite, err)
	}
	return nil
}

func (k *keyringPlugin) Keys(_ context.Context) ([]string, error) {
	keys, err := k.ring.Keys()
	if err != nil {
		return nil, err
	}
	if keys == nil {
		keys = []string{}
	}
	return keys, nil
}

// Secure checks the keychain is reachable. The OS keychain is already
// protected by the platform.
func (k *keyringPlugin) Secure(_ context.Context) error {
	if _, err := k.ring.Keys(); err != nil {
		return fmt.Errorf("%w: keyring: %w", backend.ErrUnavailable, err)
	}
	return nil
}

func (k *keyringPlugin) Close() error {
	return nil
}

func mapKeyringError(err error) error {
	if isKeyringNotFound(err) {
		return fmt.Errorf("%w: %w", backend.ErrNotFound, err)
	}
	return err
}

func isKeyringNotFound(err error) bool {
	return errors.Is(err, keyring.ErrKeyNotFound) || errors.Is(err, os.ErrNotExist)
}
