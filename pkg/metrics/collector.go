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
	"time"
)

// KeyCounter reports the active backend and how many keys it holds.
type KeyCounter func(ctx context.Context) (backend string, count int, err error)

// KeyCollector periodically refreshes the keys_total gauge.
type KeyCollector struct {
	ctx      context.Context
	cancel   context.CancelFunc
	done     chan struct{}
	interval time.Duration
	recorder Recorder
	count    KeyCounter
}

// NewKeyCollector creates a collector that polls count every interval.
//
// Example:
//
//	collector := metrics.NewKeyCollector(ctx, 30*time.Second, rec, store.KeyCount)
//	go collector.Start()
//	defer collector.Stop()
func NewKeyCollector(ctx context.Context, interval time.Duration, recorder Recorder, count KeyCounter) *KeyCollector {
	collectorCtx, cancel := context.WithCancel(ctx)
	return &KeyCollector{
		ctx:      collectorCtx,
		cancel:   cancel,
		done:     make(chan struct{}),
		interval: interval,
		recorder: recorder,
		count:    count,
	}
}

// Start collects immediately and then at every interval until Stop is
// called or the parent context is cancelled. It blocks.
func (kc *KeyCollector) Start() {
	defer close(kc.done)

	ticker := time.NewTicker(kc.interval)
	defer ticker.Stop()

	kc.collect()
	for {
		select {
		case <-kc.ctx.Done():
			return
		case <-ticker.C:
			kc.collect()
		}
	}
}

// Stop halts the collector and waits for Start to return.
func (kc *KeyCollector) Stop() {
	kc.cancel()
	<-kc.done
}

func (kc *KeyCollector) collect() {
	backend, n, err := kc.count(kc.ctx)
	if err != nil {
		return
	}
	kc.recorder.SetKeysTotal(backend, n)
}

// StartKeyCollector creates a collector and runs it in a new goroutine.
func StartKeyCollector(ctx context.Context, interval time.Duration, recorder Recorder, count KeyCounter) *KeyCollector {
	collector := NewKeyCollector(ctx, interval, recorder, count)
	go collector.Start()
	return collector
}
