package service

import (
	"context"
	"time"

	"github.com/itsatony/w4b_v3/server/clima/internal/database"
	"github.com/itsatony/w4b_v3/server/clima/internal/errors"
	"github.com/itsatony/w4b_v3/server/clima/internal/models"
	"github.com/itsatony/w4b_v3/server/clima/internal/report"
	"github.com/itsatony/w4b_v3/server/clima/internal/repository"
	"github.com/itsatony/w4b_v3/server/clima/internal/retention"
)

// LiveState is the read side of the live broadcaster.
type LiveState interface {
	Latest(ctx context.Context) (models.LatestReadings, error)
	Clients() int
}

// StreamStatus reports whether the stream subscriber holds a broker session.
type StreamStatus interface {
	Connected() bool
}

// Service contains all repositories and service-wide dependencies
type Service struct {
	DB       database.DB
	Readings repository.ReadingRepository
	Reports  repository.ReportRepository
	Pipeline *report.Pipeline
	Cleanup  *retention.CleanupService
	Live     LiveState
	Stream   StreamStatus

	// QueryTimeout bounds the store lookups of the API, zero means none.
	QueryTimeout time.Duration
}

// New creates a new service instance
func New(
	db database.DB,
	readings repository.ReadingRepository,
	reports repository.ReportRepository,
	pipeline *report.Pipeline,
	cleanup *retention.CleanupService,
	live LiveState,
	stream StreamStatus,
) *Service {
	return &Service{
		DB:       db,
		Readings: readings,
		Reports:  reports,
		Pipeline: pipeline,
		Cleanup:  cleanup,
		Live:     live,
		Stream:   stream,
	}
}

// Validate checks if all required repositories are initialized
func (s *Service) Validate() error {
	if s.Readings == nil {
		return ErrMissingRepository("readings")
	}
	if s.Reports == nil {
		return ErrMissingRepository("reports")
	}
	if s.Pipeline == nil {
		return ErrMissingRepository("pipeline")
	}
	if s.Live == nil {
		return ErrMissingRepository("live")
	}
	return nil
}

func (s *Service) queryContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.QueryTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.QueryTimeout)
}

func ErrMissingRepository(name string) error {
	return errors.NewInternalError("missing repository: "+name, nil)
}
