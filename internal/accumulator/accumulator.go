// Package accumulator keeps the latest value per sensor between periodic
// flushes into the reading store.
package accumulator

import (
	"context"
	"sync"
	"time"

	"github.com/itsatony/w4b_v3/server/clima/internal/clock"
	"github.com/itsatony/w4b_v3/server/clima/internal/models"
	"github.com/itsatony/w4b_v3/server/clima/internal/monitoring"
	nuts "github.com/vaudience/go-nuts"
)

const finalFlushTimeout = 5 * time.Second

// Store is the write side of the reading store.
type Store interface {
	Insert(ctx context.Context, reading *models.SensorReading) error
}

// Accumulator holds the last value seen for every sensor label since the
// previous flush. All state is guarded by mu.
type Accumulator struct {
	mu     sync.Mutex
	values map[string]float64
	dirty  bool

	store    Store
	clock    clock.Clock
	interval time.Duration
	metrics  *monitoring.Service
}

func New(store Store, clk clock.Clock, interval time.Duration, metrics *monitoring.Service) *Accumulator {
	return &Accumulator{
		values:   make(map[string]float64),
		store:    store,
		clock:    clk,
		interval: interval,
		metrics:  metrics,
	}
}

// Record sets the latest value for label and marks the accumulator dirty.
func (a *Accumulator) Record(label string, value float64) {
	a.mu.Lock()
	a.values[label] = value
	a.dirty = true
	a.mu.Unlock()
}

// Pending returns a copy of the values waiting for the next flush.
func (a *Accumulator) Pending() map[string]float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make(map[string]float64, len(a.values))
	for k, v := range a.values {
		out[k] = v
	}
	return out
}

// take swaps out the current values under the lock. It returns nil when
// nothing was recorded since the last take.
func (a *Accumulator) take() *models.SensorReading {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.dirty {
		return nil
	}
	snapshot := a.values
	a.values = make(map[string]float64, len(snapshot))
	a.dirty = false
	return models.NewSensorReading(a.clock.Now(), snapshot)
}

// Flush persists the pending snapshot with a single insert. It reports
// whether a row was written. A failed insert drops the snapshot; values
// recorded while the insert runs belong to the next flush.
func (a *Accumulator) Flush(ctx context.Context) (bool, error) {
	reading := a.take()
	if reading == nil {
		a.metrics.FlushCompleted(monitoring.ResultSkipped, 0)
		return false, nil
	}
	if reading.IsEmpty() {
		nuts.L.Warnf("[Accumulator] Snapshot had no known sensor labels, dropped")
		a.metrics.FlushCompleted(monitoring.ResultSkipped, 0)
		return false, nil
	}

	start := time.Now()
	if err := a.store.Insert(ctx, reading); err != nil {
		nuts.L.Errorf("[Accumulator] Failed to persist snapshot at %s, dropped: %v", reading.Timestamp.Format(time.RFC3339), err)
		a.metrics.FlushCompleted(monitoring.ResultFailed, time.Since(start))
		return false, err
	}
	a.metrics.FlushCompleted(monitoring.ResultWritten, time.Since(start))
	return true, nil
}

// Run flushes on every interval tick until ctx is done, then flushes once
// more so values recorded before shutdown are not left behind.
func (a *Accumulator) Run(ctx context.Context) {
	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	nuts.L.Infof("[Accumulator] Flushing every %v", a.interval)
	for {
		select {
		case <-ticker.C:
			// a stuck insert must not outlive its window
			fctx, cancel := context.WithTimeout(ctx, a.interval)
			_, _ = a.Flush(fctx)
			cancel()
		case <-ctx.Done():
			fctx, cancel := context.WithTimeout(context.Background(), finalFlushTimeout)
			if written, err := a.Flush(fctx); err == nil && written {
				nuts.L.Infof("[Accumulator] Final snapshot persisted")
			}
			cancel()
			return
		}
	}
}
