// FilePath: server/clima/internal/repository/repository.go
package repository

import (
	"context"
	"time"

	"github.com/itsatony/w4b_v3/server/clima/internal/models"
)

// ReadingRepository is the append-only store of periodic sensor snapshots.
// Driver failures surface as store_unavailable errors.
type ReadingRepository interface {
	// Insert writes one snapshot. Empty readings are rejected.
	Insert(ctx context.Context, reading *models.SensorReading) error
	// Query returns every reading newer than now-window, oldest first.
	Query(ctx context.Context, window time.Duration) ([]models.SensorReading, error)
	// DeleteOlderThan removes readings older than now-age and returns the count.
	DeleteOlderThan(ctx context.Context, age time.Duration) (int64, error)
	Ping(ctx context.Context) error
}

// ReportRepository stores at most one report per calendar date
type ReportRepository interface {
	// Upsert inserts the report for its date or overwrites condition and payload,
	// keeping the original creation time.
	Upsert(ctx context.Context, report *models.Report) error
	GetByDate(ctx context.Context, date string) (*models.Report, error)
	GetLatest(ctx context.Context) (*models.Report, error)
}
