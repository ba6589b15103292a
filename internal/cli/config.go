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

package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jeremyhahn/go-credstore/internal/config"
	"github.com/jeremyhahn/go-credstore/pkg/adapters/logger"
	"github.com/jeremyhahn/go-credstore/pkg/backend/local"
	"github.com/jeremyhahn/go-credstore/pkg/backend/native"
	"github.com/jeremyhahn/go-credstore/pkg/credstore"
	"github.com/jeremyhahn/go-credstore/pkg/metrics"
)

// app holds the state shared by one command tree
type app struct {
	v      *viper.Viper
	out    io.Writer
	errOut io.Writer

	cfg      *config.Config
	log      logger.Logger
	registry *prometheus.Registry
	recorder metrics.Recorder
	store    *credstore.Store
}

// load reads the config file and environment, then applies flag overrides.
func (a *app) load() error {
	cfg, err := config.Load(a.v.GetString("config"))
	if err != nil {
		return err
	}

	if a.v.GetBool("no-native") {
		cfg.Native.Enabled = false
	}
	if p := a.v.GetString("provider"); p != "" {
		cfg.Native.Provider = p
	}
	if p := a.v.GetString("passphrase"); p != "" {
		cfg.Local.Passphrase = p
	}
	if dir := a.v.GetString("local-path"); dir != "" {
		cfg.Local.Storage = string(local.StorageFile)
		cfg.Local.Path = dir
	}
	if a.v.GetBool("verbose") {
		cfg.Logging.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	log, err := cfg.Logger(a.errOut)
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.log = log
	a.registry = prometheus.NewRegistry()
	a.recorder = metrics.NewPrometheus(a.registry)
	return nil
}

// openStore initializes the credential store once per command.
func (a *app) openStore(ctx context.Context) (*credstore.Store, error) {
	if a.store != nil {
		return a.store, nil
	}
	cs, err := a.cfg.Credstore()
	if err != nil {
		return nil, err
	}
	if cs.SkipNative {
		a.printVerbose("native storage disabled")
	} else {
		a.printVerbose("trying native provider %s", nativeProvider(cs.Native))
	}

	s := credstore.New(cs,
		credstore.WithLogger(a.log),
		credstore.WithMetrics(a.recorder))
	if err := s.Initialize(ctx); err != nil {
		return nil, err
	}
	a.store = s
	return s, nil
}

type storeFunc func(cmd *cobra.Command, args []string, s *credstore.Store) error

// withStore opens the store for the duration of fn.
func (a *app) withStore(fn storeFunc) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		s, err := a.openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer func() {
			if cerr := a.close(); cerr != nil && err == nil {
				err = cerr
			}
		}()
		return fn(cmd, args, s)
	}
}

func (a *app) close() error {
	if a.store == nil {
		return nil
	}
	err := a.store.Close()
	a.store = nil
	return err
}

func (a *app) printer() *Printer {
	return NewPrinter(a.v.GetString("output"), a.out)
}

func nativeProvider(c native.Config) native.Provider {
	if c.Provider == "" {
		return native.ProviderKeyring
	}
	return c.Provider
}
