package timescale

import (
	"context"
	stderrors "errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/itsatony/w4b_v3/server/clima/internal/clock"
	"github.com/itsatony/w4b_v3/server/clima/internal/database"
	"github.com/itsatony/w4b_v3/server/clima/internal/errors"
	"github.com/itsatony/w4b_v3/server/clima/internal/models"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockDB struct{ db *sqlx.DB }

func (m mockDB) Close() error                   { return m.db.Close() }
func (m mockDB) Ping(ctx context.Context) error { return m.db.PingContext(ctx) }
func (m mockDB) GetDB() *sqlx.DB                { return m.db }
func (m mockDB) Timescale() bool                { return false }

func ptr(v float64) *float64 { return &v }

func newSQLiteRepo(t *testing.T, clk clock.Clock) *SensorDataRepo {
	t.Helper()
	db, err := database.NewSQLiteDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo, err := NewSensorDataRepository(db, clk)
	require.NoError(t, err)
	return repo
}

func TestSensorDataRepoQueryWindowOrdered(t *testing.T) {
	now := time.Date(2026, 10, 19, 23, 30, 0, 0, clock.Zone(-5))
	clk := clock.NewManual(now)
	repo := newSQLiteRepo(t, clk)
	ctx := context.Background()

	// inserted out of order on purpose
	require.NoError(t, repo.Insert(ctx, &models.SensorReading{Timestamp: now.Add(-1 * time.Hour), Humidity: ptr(61)}))
	require.NoError(t, repo.Insert(ctx, &models.SensorReading{Timestamp: now.Add(-30 * time.Hour), Temperature: ptr(15)}))
	require.NoError(t, repo.Insert(ctx, &models.SensorReading{Timestamp: now.Add(-5 * time.Hour), Temperature: ptr(21.5), Humidity: ptr(60)}))

	readings, err := repo.Query(ctx, 24*time.Hour)
	require.NoError(t, err)
	require.Len(t, readings, 2)

	assert.True(t, readings[0].Timestamp.Equal(now.Add(-5*time.Hour)))
	assert.Equal(t, 21.5, *readings[0].Temperature)
	assert.Equal(t, 60.0, *readings[0].Humidity)
	assert.Nil(t, readings[0].Pressure)
	assert.True(t, readings[1].Timestamp.Equal(now.Add(-1*time.Hour)))
	assert.Nil(t, readings[1].Temperature)

	_, offset := readings[0].Timestamp.Zone()
	assert.Equal(t, -5*3600, offset)
}

func TestSensorDataRepoStoresUTCInstantsInOrder(t *testing.T) {
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, clock.Zone(-5))
	clk := clock.NewManual(now)
	repo := newSQLiteRepo(t, clk)
	ctx := context.Background()

	// 16:30 UTC is 11:30 at UTC-5, inside a one hour window
	require.NoError(t, repo.Insert(ctx, &models.SensorReading{Timestamp: now.Add(-30 * time.Minute).UTC(), Light: ptr(800)}))

	readings, err := repo.Query(ctx, time.Hour)
	require.NoError(t, err)
	require.Len(t, readings, 1)
	assert.Equal(t, 800.0, *readings[0].Light)
}

func TestSensorDataRepoRoundTripInStationZone(t *testing.T) {
	clk := clock.NewFixed(-5)
	repo := newSQLiteRepo(t, clk)
	ctx := context.Background()

	at := clk.Now().Add(-time.Minute).Truncate(time.Second)
	require.NoError(t, repo.Insert(ctx, &models.SensorReading{Timestamp: at, Pressure: ptr(1009.25)}))

	readings, err := repo.Query(ctx, time.Hour)
	require.NoError(t, err)
	require.Len(t, readings, 1)
	assert.True(t, readings[0].Timestamp.Equal(at))
	assert.Equal(t, clk.Location(), readings[0].Timestamp.Location())
	assert.Equal(t, 1009.25, *readings[0].Pressure)
}

func TestSensorDataRepoRejectsEmptyReading(t *testing.T) {
	repo := newSQLiteRepo(t, clock.NewFixed(-5))

	err := repo.Insert(context.Background(), &models.SensorReading{Timestamp: time.Now()})
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))

	readings, err := repo.Query(context.Background(), 24*time.Hour)
	require.NoError(t, err)
	assert.Empty(t, readings)
}

func TestSensorDataRepoDeleteOlderThan(t *testing.T) {
	now := time.Date(2026, 10, 20, 0, 0, 0, 0, clock.Zone(-5))
	clk := clock.NewManual(now)
	repo := newSQLiteRepo(t, clk)
	ctx := context.Background()

	require.NoError(t, repo.Insert(ctx, &models.SensorReading{Timestamp: now.Add(-8 * 24 * time.Hour), Vibration: ptr(1)}))
	require.NoError(t, repo.Insert(ctx, &models.SensorReading{Timestamp: now.Add(-7*24*time.Hour - time.Minute), Vibration: ptr(2)}))
	require.NoError(t, repo.Insert(ctx, &models.SensorReading{Timestamp: now.Add(-6 * 24 * time.Hour), Vibration: ptr(3)}))

	deleted, err := repo.DeleteOlderThan(ctx, 7*24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	left, err := repo.Query(ctx, 30*24*time.Hour)
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, 3.0, *left[0].Vibration)
}

func TestSensorDataRepoInsertFailureIsStoreUnavailable(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS sensor_readings").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE INDEX IF NOT EXISTS idx_sensor_readings_timestamp").WillReturnResult(sqlmock.NewResult(0, 0))

	repo, err := NewSensorDataRepository(mockDB{db: sqlx.NewDb(sqlDB, "postgres")}, clock.NewFixed(-5))
	require.NoError(t, err)

	cause := stderrors.New("connection refused")
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO sensor_readings (timestamp, temperatura, presion, humedad, humedad_suelo, luz, vibracion)")).
		WithArgs(sqlmock.AnyArg(), 21.5, nil, nil, nil, nil, nil).
		WillReturnError(cause)

	err = repo.Insert(context.Background(), &models.SensorReading{Timestamp: time.Now(), Temperature: ptr(21.5)})
	require.Error(t, err)
	assert.True(t, errors.IsStoreUnavailable(err))
	assert.ErrorIs(t, err, cause)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSensorDataRepoSchemaFailure(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS sensor_readings").WillReturnError(stderrors.New("permission denied"))

	_, err = NewSensorDataRepository(mockDB{db: sqlx.NewDb(sqlDB, "postgres")}, clock.NewFixed(-5))
	require.Error(t, err)
	assert.True(t, errors.IsStoreUnavailable(err))
}

func TestSensorDataRepoQueryUsesPostgresPlaceholders(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	mock.ExpectExec("CREATE TABLE").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE INDEX").WillReturnResult(sqlmock.NewResult(0, 0))
	repo, err := NewSensorDataRepository(mockDB{db: sqlx.NewDb(sqlDB, "postgres")}, clock.NewFixed(-5))
	require.NoError(t, err)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE timestamp >= $1")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "timestamp", "temperatura", "presion", "humedad", "humedad_suelo", "luz", "vibracion"}).
			AddRow(int64(1), time.Now(), 20.0, nil, nil, nil, nil, nil))

	readings, err := repo.Query(context.Background(), 24*time.Hour)
	require.NoError(t, err)
	require.Len(t, readings, 1)
	assert.Equal(t, 20.0, *readings[0].Temperature)
	require.NoError(t, mock.ExpectationsWereMet())
}
