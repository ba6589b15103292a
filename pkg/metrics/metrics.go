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

// Package metrics provides Prometheus instrumentation for credential store
// operations: per-operation counters and latency, errors, backend fallback
// and authorization throttling.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	// Namespace is the Prometheus namespace for all credstore metrics
	Namespace = "credstore"

	// Label names
	LabelOperation = "operation"
	LabelBackend   = "backend"
	LabelStatus    = "status"
	LabelErrorType = "error_type"
	LabelReason    = "reason"

	// Status values
	StatusSuccess = "success"
	StatusError   = "error"
)

// Recorder receives instrumentation events from the facade.
type Recorder interface {
	// RecordOperation counts a completed operation and observes its latency.
	RecordOperation(operation, backend, status string, duration time.Duration)

	// RecordError counts a failed operation by error type.
	RecordError(operation, backend, errorType string)

	// RecordFallback counts a switch from the native to the local backend.
	RecordFallback(reason string)

	// SetKeysTotal sets the number of stored keys for a backend.
	SetKeysTotal(backend string, count int)

	// RecordAuthorizationDenied counts a refused IsAuthorized call.
	RecordAuthorizationDenied(reason string)
}

// Prometheus implements Recorder with Prometheus collectors.
type Prometheus struct {
	operationsTotal     *prometheus.CounterVec
	operationDuration   *prometheus.HistogramVec
	errorsTotal         *prometheus.CounterVec
	fallbacksTotal      *prometheus.CounterVec
	keysTotal           *prometheus.GaugeVec
	authorizationDenied *prometheus.CounterVec
}

// NewPrometheus registers the credstore collectors with reg. A nil reg
// uses prometheus.DefaultRegisterer. Registering twice with the same
// registerer panics.
func NewPrometheus(reg prometheus.Registerer) *Prometheus {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Prometheus{
		operationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "operations_total",
				Help:      "Total number of credential store operations by type, backend, and status",
			},
			[]string{LabelOperation, LabelBackend, LabelStatus},
		),
		operationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "operation_duration_seconds",
				Help:      "Duration of credential store operations in seconds",
				Buckets:   []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
			},
			[]string{LabelOperation, LabelBackend},
		),
		errorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "errors_total",
				Help:      "Total number of errors by operation, backend, and error type",
			},
			[]string{LabelOperation, LabelBackend, LabelErrorType},
		),
		fallbacksTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "backend_fallbacks_total",
				Help:      "Number of times initialization fell back to local encrypted storage",
			},
			[]string{LabelReason},
		),
		keysTotal: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: Namespace,
				Name:      "keys_total",
				Help:      "Number of keys held by the active backend",
			},
			[]string{LabelBackend},
		),
		authorizationDenied: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "authorization_denied_total",
				Help:      "Number of refused authorization checks by reason",
			},
			[]string{LabelReason},
		),
	}
}

// RecordOperation records a completed operation.
func (p *Prometheus) RecordOperation(operation, backend, status string, duration time.Duration) {
	p.operationsTotal.WithLabelValues(operation, backend, status).Inc()
	p.operationDuration.WithLabelValues(operation, backend).Observe(duration.Seconds())
}

// RecordError records an operation error.
func (p *Prometheus) RecordError(operation, backend, errorType string) {
	p.errorsTotal.WithLabelValues(operation, backend, errorType).Inc()
}

// RecordFallback records a backend fallback.
func (p *Prometheus) RecordFallback(reason string) {
	p.fallbacksTotal.WithLabelValues(reason).Inc()
}

// SetKeysTotal sets the key count gauge.
func (p *Prometheus) SetKeysTotal(backend string, count int) {
	p.keysTotal.WithLabelValues(backend).Set(float64(count))
}

// RecordAuthorizationDenied records a refused authorization.
func (p *Prometheus) RecordAuthorizationDenied(reason string) {
	p.authorizationDenied.WithLabelValues(reason).Inc()
}

// Noop discards all events.
type Noop struct{}

func (Noop) RecordOperation(string, string, string, time.Duration) {}
func (Noop) RecordError(string, string, string) {}
func (Noop) RecordFallback(string) {}
func (Noop) SetKeysTotal(string, int) {}
func (Noop) RecordAuthorizationDenied(string) {}

var (
	_ Recorder = (*Prometheus)(nil)
	_ Recorder = Noop{}
)
