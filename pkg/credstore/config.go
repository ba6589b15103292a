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
	"fmt"

	"github.com/jeremyhahn/go-credstore/pkg/backend/local"
	"github.com/jeremyhahn/go-credstore/pkg/backend/native"
)

// Default well-known key names.
const (
	DefaultDIDKey            = "userDID"
	DefaultPublicKeyKey      = "userPKU"
	DefaultPrivateKeyKey     = "userPrivKey"
	DefaultAccessKeyKey      = "accessKey"
	DefaultLoginTypeKey      = "loginType"
	DefaultUsernameKey       = "username"
	DefaultRemoveKeyField    = "keyToRemove"
	DefaultCredentialPrefix  = "cred"
	DefaultAttemptsPerMinute = 10
)

// KeyNames are the well-known keys the identity operations read and write.
// They are opaque strings; the store enforces no schema on them.
type KeyNames struct {
	DID        string
	PublicKey  string
	PrivateKey string
	AccessKey  string
	LoginType  string
	Username   string

	// RemoveKeyField is the JSON field MatchAndGetJSON injects the matched
	// key under.
	RemoveKeyField string
}

// AuthConfig throttles IsAuthorized.
type AuthConfig struct {
	// AttemptsPerMinute is the sustained rate. Zero disables throttling.
	AttemptsPerMinute int
	Burst             int
}

// Config configures a Store.
type Config struct {
	// SkipNative goes straight to local encrypted storage.
	SkipNative bool

	Native native.Config
	Local  local.Config
	Keys   KeyNames
	Auth   AuthConfig
}

// DefaultConfig returns a configuration using the OS keychain with an
// in-memory encrypted fallback. The fallback passphrase must still be set.
func DefaultConfig() *Config {
	return &Config{
		Native: native.Config{
			Provider:    native.ProviderKeyring,
			ServiceName: native.DefaultServiceName,
		},
		Local: local.Config{
			Storage: local.StorageMemory,
		},
		Keys: DefaultKeyNames(),
		Auth: AuthConfig{
			AttemptsPerMinute: DefaultAttemptsPerMinute,
		},
	}
}

// DefaultKeyNames returns the default well-known key names.
func DefaultKeyNames() KeyNames {
	return KeyNames{
		DID:            DefaultDIDKey,
		PublicKey:      DefaultPublicKeyKey,
		PrivateKey:     DefaultPrivateKeyKey,
		AccessKey:      DefaultAccessKeyKey,
		LoginType:      DefaultLoginTypeKey,
		Username:       DefaultUsernameKey,
		RemoveKeyField: DefaultRemoveKeyField,
	}
}

// withDefaults fills empty key names.
func (k KeyNames) withDefaults() KeyNames {
	d := DefaultKeyNames()
	if k.DID == "" {
		k.DID = d.DID
	}
	if k.PublicKey == "" {
		k.PublicKey = d.PublicKey
	}
	if k.PrivateKey == "" {
		k.PrivateKey = d.PrivateKey
	}
	if k.AccessKey == "" {
		k.AccessKey = d.AccessKey
	}
	if k.LoginType == "" {
		k.LoginType = d.LoginType
	}
	if k.Username == "" {
		k.Username = d.Username
	}
	if k.RemoveKeyField == "" {
		k.RemoveKeyField = d.RemoveKeyField
	}
	return k
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("%w: nil config", ErrInvalidConfig)
	}
	if c.Auth.AttemptsPerMinute < 0 || c.Auth.Burst < 0 {
		return fmt.Errorf("%w: negative auth limits", ErrInvalidConfig)
	}
	return nil
}
