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
	"path"
	"strings"

	vault "github.com/hashicorp/vault/api"

	"github.com/jeremyhahn/go-credstore/pkg/backend"
)

// VaultClient is the subset of the Vault API client the plugin uses.
type VaultClient interface {
	// Logical returns the logical secrets client
	Logical() *vault.Logical

	// Sys returns the system backend client
	Sys() *vault.Sys

	// Address returns the Vault server address
	Address() string
}

var (
	// ErrVaultSealed is returned by SecureDevice when Vault is sealed or
	// not initialized.
	ErrVaultSealed = errors.New("native: vault is sealed")

	// ErrInvalidResponse is returned when Vault returns an unexpected payload.
	ErrInvalidResponse = errors.New("native: invalid vault response")
)

type vaultPlugin struct {
	client VaultClient
	mount  string
	prefix string
}

func openVault(ctx context.Context, cfg *VaultConfig) (*vaultPlugin, error) {
	vaultConfig := vault.DefaultConfig()
	vaultConfig.Address = cfg.Address

	if cfg.TLSSkipVerify {
		if err := vaultConfig.ConfigureTLS(&vault.TLSConfig{Insecure: true}); err != nil {
			return nil, fmt.Errorf("%w: vault: configure TLS: %w", backend.ErrUnavailable, err)
		}
	}

	client, err := vault.NewClient(vaultConfig)
	if err != nil {
		return nil, fmt.Errorf("%w: vault: %w", backend.ErrUnavailable, err)
	}
	client.SetToken(cfg.Token)
	if cfg.Namespace != "" {
		client.SetNamespace(cfg.Namespace)
	}

	return newVaultPlugin(ctx, client, cfg)
}

func newVaultPlugin(ctx context.Context, client VaultClient, cfg *VaultConfig) (*vaultPlugin, error) {
	p := &vaultPlugin{
		client: client,
		mount:  cfg.MountPath,
		prefix: cfg.Prefix,
	}
	if err := p.health(ctx); err != nil {
		return nil, fmt.Errorf("%w: %w", backend.ErrUnavailable, err)
	}
	return p, nil
}

func (v *vaultPlugin) Name() string {
	return string(ProviderVault) + ":" + v.client.Address()
}

func (v *vaultPlugin) dataPath(key string) string {
	return path.Join(v.mount, "data", v.prefix, key)
}

func (v *vaultPlugin) metadataPath(key string) string {
	return path.Join(v.mount, "metadata", v.prefix, key)
}

// Keys are stored one secret per key, so a key must be a single path
// segment.
func checkVaultKey(key string) error {
	if strings.Contains(key, "/") || key == "." || key == ".." {
		return fmt.Errorf("%w: %q is not a valid vault secret name", backend.ErrInvalidKey, key)
	}
	return nil
}

func (v *vaultPlugin) Get(ctx context.Context, key string) (string, error) {
	if err := checkVaultKey(key); err != nil {
		return "", err
	}
	secret, err := v.client.Logical().ReadWithContext(ctx, v.dataPath(key))
	if err != nil {
		return "", err
	}
	if secret == nil || secret.Data == nil {
		return "", fmt.Errorf("%w: %q", backend.ErrNotFound, key)
	}

	// A deleted version reports data as null.
	data, ok := secret.Data["data"].(map[string]interface{})
	if !ok || data == nil {
		return "", fmt.Errorf("%w: %q", backend.ErrNotFound, key)
	}
	value, ok := data["value"].(string)
	if !ok {
		return "", fmt.Errorf("%w: %q has no string value", ErrInvalidResponse, key)
	}
	return value, nil
}

func (v *vaultPlugin) Set(ctx context.Context, key, value string) error {
	if err := checkVaultKey(key); err != nil {
		return err
	}
	_, err := v.client.Logical().WriteWithContext(ctx, v.dataPath(key), map[string]interface{}{
		"data": map[string]interface{}{
			"value": value,
		},
	})
	if err != nil {
		return fmt.Errorf("%w: %w", backend.ErrWrite, err)
	}
	return nil
}

// Remove deletes every version and the metadata of the secret.
func (v *vaultPlugin) Remove(ctx context.Context, key string) error {
	if err := checkVaultKey(key); err != nil {
		return err
	}
	meta, err := v.client.Logical().ReadWithContext(ctx, v.metadataPath(key))
	if err != nil {
		return err
	}
	if meta == nil {
		return fmt.Errorf("%w: %q", backend.ErrNotFound, key)
	}
	if _, err := v.client.Logical().DeleteWithContext(ctx, v.metadataPath(key)); err != nil {
		return fmt.Errorf("%w: %w", backend.ErrWrite, err)
	}
	return nil
}

func (v *vaultPlugin) Keys(ctx context.Context) ([]string, error) {
	secret, err := v.client.Logical().ListWithContext(ctx, path.Join(v.mount, "metadata", v.prefix))
	if err != nil {
		return nil, err
	}
	keys := []string{}
	if secret == nil || secret.Data == nil {
		return keys, nil
	}

	raw, ok := secret.Data["keys"].([]interface{})
	if !ok {
		return nil, fmt.Errorf("%w: list has no keys", ErrInvalidResponse)
	}
	for _, k := range raw {
		name, ok := k.(string)
		if !ok {
			return nil, fmt.Errorf("%w: non-string key %v", ErrInvalidResponse, k)
		}
		// Nested folders are not credstore keys.
		if strings.HasSuffix(name, "/") {
			continue
		}
		keys = append(keys, name)
	}
	return keys, nil
}

func (v *vaultPlugin) Secure(ctx context.Context) error {
	return v.health(ctx)
}

func (v *vaultPlugin) health(ctx context.Context) error {
	health, err := v.client.Sys().HealthWithContext(ctx)
	if err != nil {
		return fmt.Errorf("vault: health check: %w", err)
	}
	if !health.Initialized {
		return fmt.Errorf("%w: not initialized", ErrVaultSealed)
	}
	if health.Sealed {
		return ErrVaultSealed
	}
	return nil
}

func (v *vaultPlugin) Close() error {
	return nil
}
