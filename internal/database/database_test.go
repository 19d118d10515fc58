package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/itsatony/w4b_v3/server/clima/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "clima.db")

	db, err := Open(config.DatabaseConfig{Driver: config.DriverSQLite, SQLitePath: path})
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.Ping(context.Background()))
	assert.False(t, db.Timescale())
	assert.Equal(t, "sqlite", db.GetDB().DriverName())
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open(config.DatabaseConfig{Driver: "mysql"})
	assert.Error(t, err)
}

func TestSQLiteReadsBackZonedTimes(t *testing.T) {
	db, err := NewSQLiteDB(":memory:")
	require.NoError(t, err)
	defer db.Close()

	_, err = db.GetDB().Exec(`CREATE TABLE stamps (at DATETIME NOT NULL)`)
	require.NoError(t, err)

	at := time.Date(2026, 10, 19, 14, 33, 36, 0, time.FixedZone("UTC-5", -5*3600))
	_, err = db.GetDB().Exec(`INSERT INTO stamps (at) VALUES (?)`, at)
	require.NoError(t, err)

	var got time.Time
	require.NoError(t, db.GetDB().Get(&got, `SELECT at FROM stamps`))
	assert.True(t, got.Equal(at), "got %v", got)
}
