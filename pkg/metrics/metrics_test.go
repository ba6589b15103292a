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

package metrics

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestPrometheus_RecordOperation(t *testing.T) {
	reg := prometheus.NewRegistry()
	p := NewPrometheus(reg)

	p.RecordOperation("get", "local", StatusSuccess, 2*time.Millisecond)
	p.RecordOperation("get", "local", StatusSuccess, 3*time.Millisecond)
	p.RecordOperation("get", "local", StatusError, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(p.operationsTotal.WithLabelValues("get", "local", StatusSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.operationsTotal.WithLabelValues("get", "local", StatusError)))
	assert.Equal(t, 1, testutil.CollectAndCount(p.operationDuration))
}

func TestPrometheus_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	p := NewPrometheus(reg)

	p.RecordError("set", "native", "write")
	p.RecordFallback("unavailable")
	p.RecordFallback("unavailable")
	p.SetKeysTotal("local", 7)
	p.RecordAuthorizationDenied("rate_limited")

	assert.Equal(t, 1.0, testutil.ToFloat64(p.errorsTotal.WithLabelValues("set", "native", "write")))
	assert.Equal(t, 2.0, testutil.ToFloat64(p.fallbacksTotal.WithLabelValues("unavailable")))
	assert.Equal(t, 7.0, testutil.ToFloat64(p.keysTotal.WithLabelValues("local")))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.authorizationDenied.WithLabelValues("rate_limited")))
}

func TestPrometheus_MetricNames(t *testing.T) {
	reg := prometheus.NewRegistry()
	p := NewPrometheus(reg)
	p.RecordOperation("keys", "local", StatusSuccess, time.Millisecond)
	p.RecordError("keys", "local", "closed")
	p.RecordFallback("x")
	p.SetKeysTotal("local", 1)
	p.RecordAuthorizationDenied("mismatch")

	families, err := reg.Gather()
	require.NoError(t, err)

	var names []string
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.ElementsMatch(t, []string{
		"credstore_operations_total",
		"credstore_operation_duration_seconds",
		"credstore_errors_total",
		"credstore_backend_fallbacks_total",
		"credstore_keys_total",
		"credstore_authorization_denied_total",
	}, names)
}

func TestPrometheus_DoubleRegisterPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewPrometheus(reg)
	assert.Panics(t, func() { NewPrometheus(reg) })
}

func TestNoop(t *testing.T) {
	var r Recorder = Noop{}
	r.RecordOperation("get", "local", StatusSuccess, time.Second)
	r.RecordError("get", "local", "x")
	r.RecordFallback("x")
	r.SetKeysTotal("local", 1)
	r.RecordAuthorizationDenied("x")
}

func TestKeyCollector(t *testing.T) {
	defer goleak.VerifyNone(t)

	reg := prometheus.NewRegistry()
	p := NewPrometheus(reg)

	var calls atomic.Int32
	count := func(context.Context) (string, int, error) {
		n := calls.Add(1)
		if n == 2 {
			return "", 0, errors.New("enumeration failed")
		}
		return "local", int(n), nil
	}

	collector := StartKeyCollector(context.Background(), 5*time.Millisecond, p, count)
	require.Eventually(t, func() bool { return calls.Load() >= 3 }, time.Second, time.Millisecond)
	collector.Stop()

	assert.GreaterOrEqual(t, testutil.ToFloat64(p.keysTotal.WithLabelValues("local")), 3.0)
}

func TestKeyCollector_StopsWithParentContext(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := context.WithCancel(context.Background())
	collector := NewKeyCollector(ctx, time.Hour, Noop{}, func(context.Context) (string, int, error) {
		return "local", 0, nil
	})

	done := make(chan struct{})
	go func() {
		collector.Start()
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("collector did not stop")
	}
}
