// Package retention prunes readings older than the configured age.
package retention

import (
	"context"
	"fmt"
	"time"

	"github.com/itsatony/w4b_v3/server/clima/internal/monitoring"
	nuts "github.com/vaudience/go-nuts"
)

// Events emitted by the pruner.
const (
	EventPruned = "readings.pruned"
	EventFailed = "readings.prune_failed"
)

// Pruner is the delete side of the reading store.
type Pruner interface {
	DeleteOlderThan(ctx context.Context, age time.Duration) (int64, error)
}

// CleanupService deletes readings past their retention age
type CleanupService struct {
	readings Pruner
	maxAge   time.Duration
	metrics  *monitoring.Service
	events   *nuts.EventEmitter
}

// New creates a new CleanupService
func New(readings Pruner, maxAge time.Duration, metrics *monitoring.Service) *CleanupService {
	return &CleanupService{
		readings: readings,
		maxAge:   maxAge,
		metrics:  metrics,
		events:   nuts.NewEventEmitter(),
	}
}

// Prune deletes every reading older than the retention age and returns the count.
func (s *CleanupService) Prune(ctx context.Context) (int64, error) {
	n, err := s.readings.DeleteOlderThan(ctx, s.maxAge)
	if err != nil {
		nuts.L.Errorf("[Retention] Pruning readings older than %v failed: %v", s.maxAge, err)
		s.emit(EventFailed, 0)
		return 0, fmt.Errorf("failed to prune readings: %w", err)
	}

	nuts.L.Infof("[Retention] Pruned %d readings older than %v", n, s.maxAge)
	s.metrics.ReadingsPruned(n)
	s.emit(EventPruned, n)
	return n, nil
}

// MaxAge is the configured retention age.
func (s *CleanupService) MaxAge() time.Duration {
	return s.maxAge
}

// OnCleanup registers a callback for EventPruned or EventFailed
func (s *CleanupService) OnCleanup(event string, handler func(count int64)) {
	if _, err := s.events.On(event, "", handler); err != nil {
		nuts.L.Errorf("[Retention] Failed to register %s handler: %v", event, err)
	}
}

func (s *CleanupService) emit(event string, count int64) {
	if err := s.events.Emit(event, count); err != nil {
		nuts.L.Errorf("[Retention] Failed to emit %s: %v", event, err)
	}
}
