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

package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/jeremyhahn/go-credstore/pkg/adapters/kdf"
	"github.com/jeremyhahn/go-credstore/pkg/adapters/logger"
	"github.com/jeremyhahn/go-credstore/pkg/backend/local"
	"github.com/jeremyhahn/go-credstore/pkg/backend/native"
	"github.com/jeremyhahn/go-credstore/pkg/credstore"
	"github.com/jeremyhahn/go-credstore/pkg/crypto/aead"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "CREDSTORE_"

var ErrInvalidConfig = errors.New("config: invalid configuration")

// Config represents the complete credential store configuration
type Config struct {
	Logging LoggingConfig `yaml:"logging" envPrefix:"LOG_"`
	Native  NativeConfig  `yaml:"native" envPrefix:"NATIVE_"`
	Local   LocalConfig   `yaml:"local" envPrefix:"LOCAL_"`
	Keys    KeysConfig    `yaml:"keys" envPrefix:"KEYS_"`
	Auth    AuthConfig    `yaml:"auth" envPrefix:"AUTH_"`
	Metrics MetricsConfig `yaml:"metrics" envPrefix:"METRICS_"`
	Node    NodeConfig    `yaml:"node" envPrefix:"NODE_"`
}

// LoggingConfig controls logging behavior
type LoggingConfig struct {
	Level  string `yaml:"level" env:"LEVEL"`
	Format string `yaml:"format" env:"FORMAT"`
	Driver string `yaml:"driver" env:"DRIVER"`
}

// NativeConfig controls the platform secure storage backend
type NativeConfig struct {
	Enabled         bool        `yaml:"enabled" env:"ENABLED"`
	Provider        string      `yaml:"provider" env:"PROVIDER"`
	ServiceName     string      `yaml:"service_name" env:"SERVICE_NAME"`
	KeyringBackends []string    `yaml:"keyring_backends" env:"KEYRING_BACKENDS" envSeparator:","`
	FileDir         string      `yaml:"file_dir" env:"FILE_DIR"`
	FilePassword    string      `yaml:"file_password" env:"FILE_PASSWORD"`
	Vault           VaultConfig `yaml:"vault" envPrefix:"VAULT_"`
}

// VaultConfig contains HashiCorp Vault provider settings
type VaultConfig struct {
	Address       string `yaml:"address" env:"ADDRESS"`
	Token         string `yaml:"token" env:"TOKEN"`
	Namespace     string `yaml:"namespace" env:"NAMESPACE"`
	MountPath     string `yaml:"mount_path" env:"MOUNT_PATH"`
	Prefix        string `yaml:"prefix" env:"PREFIX"`
	TLSSkipVerify bool   `yaml:"tls_skip_verify" env:"TLS_SKIP_VERIFY"`
}

// LocalConfig controls the local encrypted fallback store
type LocalConfig struct {
	Storage    string    `yaml:"storage" env:"STORAGE"`
	Path       string    `yaml:"path" env:"PATH"`
	Passphrase string    `yaml:"passphrase" env:"PASSPHRASE"`
	Cipher     string    `yaml:"cipher" env:"CIPHER"`
	KDF        KDFConfig `yaml:"kdf" envPrefix:"KDF_"`
}

// KDFConfig selects the passphrase KDF for new local stores. Zero values
// keep the algorithm defaults.
type KDFConfig struct {
	Algorithm  string `yaml:"algorithm" env:"ALGORITHM"`
	Iterations int    `yaml:"iterations" env:"ITERATIONS"`
	Memory     uint32 `yaml:"memory" env:"MEMORY"`
	Time       uint32 `yaml:"time" env:"TIME"`
	Threads    uint8  `yaml:"threads" env:"THREADS"`
}

// KeysConfig renames the fixed identity keys
type KeysConfig struct {
	DID            string `yaml:"did" env:"DID"`
	PublicKey      string `yaml:"public_key" env:"PUBLIC_KEY"`
	PrivateKey     string `yaml:"private_key" env:"PRIVATE_KEY"`
	AccessKey      string `yaml:"access_key" env:"ACCESS_KEY"`
	LoginType      string `yaml:"login_type" env:"LOGIN_TYPE"`
	Username       string `yaml:"username" env:"USERNAME"`
	RemoveKeyField string `yaml:"remove_key_field" env:"REMOVE_KEY_FIELD"`
}

// AuthConfig throttles access key checks
type AuthConfig struct {
	AttemptsPerMinute int `yaml:"attempts_per_minute" env:"ATTEMPTS_PER_MINUTE"`
	Burst             int `yaml:"burst" env:"BURST"`
}

// MetricsConfig controls the Prometheus endpoint
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" env:"ENABLED"`
	Listen  string `yaml:"listen" env:"LISTEN"`
	Path    string `yaml:"path" env:"PATH"`
}

// NodeConfig sets the default Ethereum node endpoint
type NodeConfig struct {
	Endpoint string        `yaml:"endpoint" env:"ENDPOINT"`
	Timeout  time.Duration `yaml:"timeout" env:"TIMEOUT"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	names := credstore.DefaultKeyNames()
	return &Config{
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Driver: string(logger.DriverSlog),
		},
		Native: NativeConfig{
			Enabled:     true,
			Provider:    string(native.ProviderKeyring),
			ServiceName: native.DefaultServiceName,
			Vault: VaultConfig{
				MountPath: native.DefaultMountPath,
				Prefix:    native.DefaultPrefix,
			},
		},
		Local: LocalConfig{
			Storage: string(local.StorageMemory),
			Cipher:  string(aead.AES256GCM),
			KDF:     KDFConfig{Algorithm: string(kdf.AlgorithmArgon2id)},
		},
		Keys: KeysConfig{
			DID:            names.DID,
			PublicKey:      names.PublicKey,
			PrivateKey:     names.PrivateKey,
			AccessKey:      names.AccessKey,
			LoginType:      names.LoginType,
			Username:       names.Username,
			RemoveKeyField: names.RemoveKeyField,
		},
		Auth: AuthConfig{
			AttemptsPerMinute: credstore.DefaultAttemptsPerMinute,
		},
		Metrics: MetricsConfig{
			Listen: ":9090",
			Path:   "/metrics",
		},
		Node: NodeConfig{
			Timeout: 10 * time.Second,
		},
	}
}

// Load reads configuration from a YAML file and applies environment
// variable overrides. An empty path loads the defaults plus the
// environment.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		// #nosec G304 - Config file path is provided by admin/user
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := ApplyEnv(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// ApplyEnv overlays CREDSTORE_* environment variables onto cfg.
func ApplyEnv(cfg *Config) error {
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if _, err := logger.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("%w: invalid log format: %s (must be text or json)", ErrInvalidConfig, c.Logging.Format)
	}
	switch logger.Driver(c.Logging.Driver) {
	case "", logger.DriverSlog, logger.DriverZap:
	default:
		return fmt.Errorf("%w: invalid log driver: %s", ErrInvalidConfig, c.Logging.Driver)
	}

	if c.Metrics.Enabled && c.Metrics.Listen == "" {
		return fmt.Errorf("%w: metrics listen address is required when metrics are enabled", ErrInvalidConfig)
	}
	if c.Node.Timeout < 0 {
		return fmt.Errorf("%w: negative node timeout", ErrInvalidConfig)
	}

	cs, err := c.Credstore()
	if err != nil {
		return err
	}
	if err := cs.Validate(); err != nil {
		return err
	}
	// The passphrase usually arrives later, from a flag or prompt.
	if err := cs.Local.Validate(); err != nil && !errors.Is(err, local.ErrInvalidPassphrase) {
		return err
	}
	if c.Native.Enabled {
		if err := cs.Native.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Credstore translates the file layout into a credstore configuration.
func (c *Config) Credstore() (*credstore.Config, error) {
	var params *kdf.Params
	if c.Local.KDF.Algorithm != "" {
		params = kdf.DefaultParams(kdf.Algorithm(c.Local.KDF.Algorithm))
		if params == nil {
			return nil, fmt.Errorf("%w: invalid kdf algorithm: %s", ErrInvalidConfig, c.Local.KDF.Algorithm)
		}
		if c.Local.KDF.Iterations != 0 {
			params.Iterations = c.Local.KDF.Iterations
		}
		if c.Local.KDF.Memory != 0 {
			params.Memory = c.Local.KDF.Memory
		}
		if c.Local.KDF.Time != 0 {
			params.Time = c.Local.KDF.Time
		}
		if c.Local.KDF.Threads != 0 {
			params.Threads = c.Local.KDF.Threads
		}
	}

	return &credstore.Config{
		SkipNative: !c.Native.Enabled,
		Native: native.Config{
			Provider:        native.Provider(c.Native.Provider),
			ServiceName:     c.Native.ServiceName,
			KeyringBackends: c.Native.KeyringBackends,
			FileDir:         c.Native.FileDir,
			FilePassword:    c.Native.FilePassword,
			Vault: native.VaultConfig{
				Address:       c.Native.Vault.Address,
				Token:         c.Native.Vault.Token,
				Namespace:     c.Native.Vault.Namespace,
				MountPath:     c.Native.Vault.MountPath,
				Prefix:        c.Native.Vault.Prefix,
				TLSSkipVerify: c.Native.Vault.TLSSkipVerify,
			},
		},
		Local: local.Config{
			Storage:    local.StorageType(c.Local.Storage),
			Path:       c.Local.Path,
			Passphrase: c.Local.Passphrase,
			KDF:        kdf.Algorithm(c.Local.KDF.Algorithm),
			KDFParams:  params,
			Cipher:     aead.Algorithm(c.Local.Cipher),
		},
		Keys: credstore.KeyNames{
			DID:            c.Keys.DID,
			PublicKey:      c.Keys.PublicKey,
			PrivateKey:     c.Keys.PrivateKey,
			AccessKey:      c.Keys.AccessKey,
			LoginType:      c.Keys.LoginType,
			Username:       c.Keys.Username,
			RemoveKeyField: c.Keys.RemoveKeyField,
		},
		Auth: credstore.AuthConfig{
			AttemptsPerMinute: c.Auth.AttemptsPerMinute,
			Burst:             c.Auth.Burst,
		},
	}, nil
}

// Logger builds the configured logger writing to w.
func (c *Config) Logger(w io.Writer) (logger.Logger, error) {
	level, err := logger.ParseLevel(c.Logging.Level)
	if err != nil {
		return nil, err
	}
	return logger.New(&logger.Config{
		Driver: logger.Driver(c.Logging.Driver),
		Level:  level,
		Format: strings.ToLower(c.Logging.Format),
		Output: w,
	})
}
