package service

import (
	"context"
	"time"

	"github.com/itsatony/w4b_v3/server/clima/internal/models"
	nuts "github.com/vaudience/go-nuts"
)

// Health summarizes the state of the station's dependencies.
type Health struct {
	Status      string `json:"status"`
	Version     string `json:"version"`
	Database    string `json:"database"`
	Stream      string `json:"stream"`
	LiveClients int    `json:"live_clients"`
}

const (
	StatusOK       = "ok"
	StatusDegraded = "degraded"
)

// ReadingsWindow returns the stored readings of the last filters.Hours hours,
// oldest first.
func (s *Service) ReadingsWindow(ctx context.Context, filters models.ReadingFilters) ([]models.SensorReading, error) {
	filters.Normalize()
	ctx, cancel := s.queryContext(ctx)
	defer cancel()
	readings, err := s.Readings.Query(ctx, time.Duration(filters.Hours)*time.Hour)
	if err != nil {
		return nil, err
	}
	if readings == nil {
		readings = []models.SensorReading{}
	}
	return readings, nil
}

// LatestReadings returns the last live value of every sensor that reported.
func (s *Service) LatestReadings(ctx context.Context) (models.LatestReadings, error) {
	return s.Live.Latest(ctx)
}

func (s *Service) Health(ctx context.Context) Health {
	h := Health{
		Status:   StatusOK,
		Version:  nuts.GetVersion(),
		Database: StatusOK,
		Stream:   "connected",
	}
	if s.DB == nil {
		h.Status, h.Database = StatusDegraded, "unconfigured"
	} else if err := s.DB.Ping(ctx); err != nil {
		nuts.L.Warnf("[Service] Database ping failed: %v", err)
		h.Status, h.Database = StatusDegraded, "unreachable"
	}
	if s.Stream != nil && !s.Stream.Connected() {
		h.Status, h.Stream = StatusDegraded, "disconnected"
	}
	if s.Live != nil {
		h.LiveClients = s.Live.Clients()
	}
	return h
}
