package service

import (
	"context"
	"time"

	"github.com/itsatony/w4b_v3/server/clima/internal/clock"
	"github.com/itsatony/w4b_v3/server/clima/internal/errors"
	"github.com/itsatony/w4b_v3/server/clima/internal/models"
)

// GenerateReport runs the report pipeline now. It waits for a scheduled run
// already in progress.
func (s *Service) GenerateReport(ctx context.Context) (*models.Report, error) {
	return s.Pipeline.Generate(ctx)
}

func (s *Service) LatestReport(ctx context.Context) (*models.Report, error) {
	ctx, cancel := s.queryContext(ctx)
	defer cancel()
	return s.Reports.GetLatest(ctx)
}

// ReportByDate looks up the report stored for a YYYY-MM-DD date.
func (s *Service) ReportByDate(ctx context.Context, date string) (*models.Report, error) {
	if _, err := time.Parse(clock.DateLayout, date); err != nil {
		return nil, errors.NewValidationError("date must be YYYY-MM-DD", err)
	}
	ctx, cancel := s.queryContext(ctx)
	defer cancel()
	return s.Reports.GetByDate(ctx, date)
}
