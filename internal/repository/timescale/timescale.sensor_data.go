// FilePath: server/clima/internal/repository/timescale/timescale.sensor_data.go
package timescale

import (
	"context"
	"time"

	"github.com/itsatony/w4b_v3/server/clima/internal/clock"
	"github.com/itsatony/w4b_v3/server/clima/internal/database"
	"github.com/itsatony/w4b_v3/server/clima/internal/errors"
	"github.com/itsatony/w4b_v3/server/clima/internal/models"
	nuts "github.com/vaudience/go-nuts"
)

type SensorDataRepo struct {
	TimeScaleBaseRepo
	clock clock.Clock
}

func NewSensorDataRepository(db database.DB, clk clock.Clock) (*SensorDataRepo, error) {
	repo := &SensorDataRepo{TimeScaleBaseRepo: TimeScaleBaseRepo{db: db}, clock: clk}
	err := repo.initializeSchema()
	if err != nil {
		return nil, err
	}
	return repo, nil
}

func (r *SensorDataRepo) initializeSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS sensor_readings (
			id BIGSERIAL,
			timestamp TIMESTAMPTZ NOT NULL,
			temperatura DOUBLE PRECISION,
			presion DOUBLE PRECISION,
			humedad DOUBLE PRECISION,
			humedad_suelo DOUBLE PRECISION,
			luz DOUBLE PRECISION,
			vibracion DOUBLE PRECISION,
			PRIMARY KEY (id, timestamp)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sensor_readings_timestamp
			ON sensor_readings(timestamp DESC)`,
	}
	if database.IsSQLite(r.db) {
		queries = []string{
			`CREATE TABLE IF NOT EXISTS sensor_readings (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				timestamp DATETIME NOT NULL,
				temperatura REAL,
				presion REAL,
				humedad REAL,
				humedad_suelo REAL,
				luz REAL,
				vibracion REAL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_sensor_readings_timestamp
				ON sensor_readings(timestamp)`,
		}
	}

	for _, query := range queries {
		_, err := r.db.GetDB().Exec(query)
		if err != nil {
			return errors.NewStoreError("failed to initialize schema", err)
		}
	}

	if r.db.Timescale() {
		r.setupHypertable()
	}
	return nil
}

func (r *SensorDataRepo) setupHypertable() {
	_, err := r.db.GetDB().Exec(`SELECT create_hypertable('sensor_readings', 'timestamp',
		chunk_time_interval => INTERVAL '1 day',
		if_not_exists => TRUE,
		migrate_data => TRUE
	)`)
	if err != nil {
		nuts.L.Errorf("[TimescaleDB] Failed to create hypertable for sensor_readings: %v", err)
		return
	}
	nuts.L.Infof("[TimescaleDB] sensor_readings is a hypertable")
}

// normalize stores instants in UTC at second precision so text-backed
// stores compare them in order. Reads convert back to the station zone.
func (r *SensorDataRepo) normalize(t time.Time) time.Time {
	return t.UTC().Truncate(time.Second)
}

func (r *SensorDataRepo) Insert(ctx context.Context, reading *models.SensorReading) error {
	if reading == nil || reading.IsEmpty() {
		return errors.NewValidationError("refusing to store an empty reading", nil)
	}
	query := `
		INSERT INTO sensor_readings (timestamp, temperatura, presion, humedad, humedad_suelo, luz, vibracion)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err := r.ExecContext(ctx, query,
		r.normalize(reading.Timestamp),
		reading.Temperature,
		reading.Pressure,
		reading.Humidity,
		reading.SoilMoisture,
		reading.Light,
		reading.Vibration,
	)
	if err != nil {
		return errors.NewStoreError("failed to insert sensor reading", err)
	}
	return nil
}

func (r *SensorDataRepo) Query(ctx context.Context, window time.Duration) ([]models.SensorReading, error) {
	readings := []models.SensorReading{}
	query := `
		SELECT id, timestamp, temperatura, presion, humedad, humedad_suelo, luz, vibracion
		FROM sensor_readings
		WHERE timestamp >= ?
		ORDER BY timestamp ASC, id ASC`

	since := r.normalize(r.clock.Now().Add(-window))
	if err := r.SelectContext(ctx, &readings, query, since); err != nil {
		return nil, errors.NewStoreError("failed to get sensor readings", err)
	}
	for i := range readings {
		readings[i].Timestamp = readings[i].Timestamp.In(r.clock.Location())
	}
	return readings, nil
}

func (r *SensorDataRepo) DeleteOlderThan(ctx context.Context, age time.Duration) (int64, error) {
	query := `DELETE FROM sensor_readings WHERE timestamp < ?`

	before := r.normalize(r.clock.Now().Add(-age))
	result, err := r.ExecContext(ctx, query, before)
	if err != nil {
		return 0, errors.NewStoreError("failed to delete old sensor readings", err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, errors.NewStoreError("failed to count deleted sensor readings", err)
	}
	return deleted, nil
}
