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
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/jeremyhahn/go-credstore/pkg/adapters/logger"
	"github.com/jeremyhahn/go-credstore/pkg/backend"
	"github.com/jeremyhahn/go-credstore/pkg/credstore"
	"github.com/jeremyhahn/go-credstore/pkg/health"
	"github.com/jeremyhahn/go-credstore/pkg/metrics"
)

func newServeMetricsCmd(a *app) *cobra.Command {
	var (
		listen   string
		interval time.Duration
	)
	cmd := &cobra.Command{
		Use:   "serve-metrics",
		Short: "Serve Prometheus metrics until interrupted",
		Args:  cobra.NoArgs,
		RunE: a.withStore(func(cmd *cobra.Command, args []string, s *credstore.Store) error {
			if listen == "" {
				listen = a.cfg.Metrics.Listen
			}
			ctx := cmd.Context()

			collector := metrics.StartKeyCollector(ctx, interval, a.recorder, s.KeyCount)
			defer collector.Stop()

			checker := health.NewChecker()
			checker.RegisterCheck("store", storeCheck(s))

			mux := http.NewServeMux()
			mux.Handle(a.cfg.Metrics.Path, metricsHandler(a.registry))
			mux.Handle("/livez", checker.LiveHandler())
			mux.Handle("/readyz", checker.ReadyHandler())
			srv := &http.Server{
				Addr:              listen,
				Handler:           mux,
				ReadHeaderTimeout: 5 * time.Second,
			}

			a.log.Info("serving metrics",
				logger.String("listen", listen),
				logger.String("path", a.cfg.Metrics.Path))
			return serve(ctx, srv)
		}),
	}
	cmd.Flags().StringVar(&listen, "listen", "", "listen address (default from config)")
	cmd.Flags().DurationVar(&interval, "interval", 30*time.Second, "key count refresh interval")
	return cmd
}

// metricsHandler exposes reg plus the Go runtime and process collectors.
func metricsHandler(reg *prometheus.Registry) http.Handler {
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}

// storeCheck reports unhealthy when keys cannot be listed and degraded
// while running on the local fallback.
func storeCheck(s *credstore.Store) health.CheckFunc {
	return func(ctx context.Context) health.CheckResult {
		name, n, err := s.KeyCount(ctx)
		if err != nil {
			return health.CheckResult{Status: health.StatusUnhealthy, Error: err.Error()}
		}
		result := health.CheckResult{
			Status:  health.StatusHealthy,
			Message: fmt.Sprintf("%s backend, %d keys", name, n),
		}
		if name == string(backend.TypeLocal) {
			result.Status = health.StatusDegraded
		}
		return result
	}
}

// serve runs srv until ctx is done, then shuts it down.
func serve(ctx context.Context, srv *http.Server) error {
	errc := make(chan error, 1)
	go func() {
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
