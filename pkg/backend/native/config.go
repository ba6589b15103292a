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
	"errors"
	"fmt"
	"strings"
)

// Provider names a secure-storage plugin.
type Provider string

const (
	// ProviderKeyring uses the operating system keychain.
	ProviderKeyring Provider = "keyring"

	// ProviderVault uses a HashiCorp Vault KV v2 mount.
	ProviderVault Provider = "vault"

	// DefaultServiceName is the keychain service the keyring provider
	// stores items under.
	DefaultServiceName = "identitySecureStorage"

	// DefaultMountPath is the Vault KV v2 mount.
	DefaultMountPath = "secret"

	// DefaultPrefix is the path below the mount holding credentials.
	DefaultPrefix = "credstore"
)

// ErrInvalidConfig is returned for an unusable configuration.
var ErrInvalidConfig = errors.New("native: invalid configuration")

// Config selects and configures the secure-storage plugin.
type Config struct {
	Provider Provider

	// ServiceName is the keychain service name.
	ServiceName string

	// KeyringBackends restricts which OS keychains may be used, in order of
	// preference (e.g. "keychain", "secret-service", "wincred", "file").
	// Empty allows every available keychain.
	KeyringBackends []string

	// FileDir and FilePassword configure keyring's encrypted file keychain.
	// The file keychain is only allowed when FilePassword is set.
	FileDir      string
	FilePassword string

	Vault VaultConfig
}

// VaultConfig configures the vault provider.
type VaultConfig struct {
	Address       string
	Token         string
	Namespace     string
	MountPath     string
	Prefix        string
	TLSSkipVerify bool
}

func (c *Config) setDefaults() {
	if c.Provider == "" {
		c.Provider = ProviderKeyring
	}
	if c.ServiceName == "" {
		c.ServiceName = DefaultServiceName
	}
	if c.Vault.MountPath == "" {
		c.Vault.MountPath = DefaultMountPath
	}
	if c.Vault.Prefix == "" {
		c.Vault.Prefix = DefaultPrefix
	}
	c.Vault.MountPath = strings.Trim(c.Vault.MountPath, "/")
	c.Vault.Prefix = strings.Trim(c.Vault.Prefix, "/")
}

// Validate checks the configuration for the selected provider.
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("%w: nil config", ErrInvalidConfig)
	}
	switch c.Provider {
	case ProviderKeyring, "":
		return nil
	case ProviderVault:
		if c.Vault.Address == "" {
			return fmt.Errorf("%w: vault address is required", ErrInvalidConfig)
		}
		if c.Vault.Token == "" {
			return fmt.Errorf("%w: vault token is required", ErrInvalidConfig)
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown provider %q", ErrInvalidConfig, c.Provider)
	}
}
