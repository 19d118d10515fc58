// FilePath: server/clima/internal/database/database.go
package database

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/itsatony/w4b_v3/server/clima/internal/config"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	nuts "github.com/vaudience/go-nuts"
	_ "modernc.org/sqlite"
)

// DB is an interface that every supported backend must implement
type DB interface {
	Close() error
	Ping(ctx context.Context) error
	GetDB() *sqlx.DB
	// Timescale reports whether the timescaledb extension is available.
	Timescale() bool
}

// PostgresDB represents a PostgreSQL (optionally TimescaleDB) connection
type PostgresDB struct {
	db        *sqlx.DB
	timescale bool
}

// SQLiteDB represents an embedded SQLite database, used for single-node
// stations and tests.
type SQLiteDB struct {
	db *sqlx.DB
}

// Open connects to the backend selected in cfg.Driver.
func Open(cfg config.DatabaseConfig) (DB, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		if cfg.Timescale {
			return NewTimescaleDB(cfg.Postgres)
		}
		return NewPostgresDB(cfg.Postgres)
	case config.DriverSQLite:
		return NewSQLiteDB(cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

func postgresDSN(cfg config.PostgresConfig) string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode,
	)
}

// NewPostgresDB creates a new PostgreSQL database connection
func NewPostgresDB(cfg config.PostgresConfig) (DB, error) {
	db, err := sqlx.Connect("postgres", postgresDSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("error connecting to PostgreSQL: %w", err)
	}

	nuts.L.Infof("[PostgresDB] Connected to %s:%d/%s", cfg.Host, cfg.Port, cfg.DBName)
	return &PostgresDB{db: db}, nil
}

// NewTimescaleDB creates a PostgreSQL connection and verifies the timescaledb extension
func NewTimescaleDB(cfg config.PostgresConfig) (DB, error) {
	db, err := sqlx.Connect("postgres", postgresDSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("error connecting to TimescaleDB: %w", err)
	}

	// Verify TimescaleDB extension
	var hasTimescaleDB bool
	err = db.Get(&hasTimescaleDB, "SELECT EXISTS (SELECT 1 FROM pg_extension WHERE extname = 'timescaledb')")
	if err != nil || !hasTimescaleDB {
		db.Close()
		return nil, fmt.Errorf("TimescaleDB extension not available")
	}

	nuts.L.Infof("[TimescaleDB] Connected to %s:%d/%s", cfg.Host, cfg.Port, cfg.DBName)
	return &PostgresDB{db: db, timescale: true}, nil
}

// NewSQLiteDB opens (and creates if needed) a SQLite database file.
// The path ":memory:" gives a private in-memory database.
func NewSQLiteDB(path string) (DB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("error creating sqlite directory: %w", err)
		}
	}

	db, err := sqlx.Connect("sqlite", sqliteDSN(path))
	if err != nil {
		return nil, fmt.Errorf("error opening SQLite: %w", err)
	}
	// a single connection keeps :memory: databases shared and serializes writers
	db.SetMaxOpenConns(1)

	nuts.L.Infof("[SQLiteDB] Opened %s", path)
	return &SQLiteDB{db: db}, nil
}

// sqliteDSN makes the driver write times as "2006-01-02 15:04:05-07:00",
// which it parses back for any offset. Its default layout carries the zone
// name, and names like "UTC-5" do not parse.
func sqliteDSN(path string) string {
	return path + "?_time_format=sqlite"
}

// IsSQLite reports whether queries must use the SQLite dialect
func IsSQLite(db DB) bool {
	return db.GetDB().DriverName() == "sqlite"
}

// Implementation of DB interface for PostgresDB
func (p *PostgresDB) Close() error {
	return p.db.Close()
}

func (p *PostgresDB) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

func (p *PostgresDB) GetDB() *sqlx.DB {
	return p.db
}

func (p *PostgresDB) Timescale() bool {
	return p.timescale
}

// Implementation of DB interface for SQLiteDB
func (s *SQLiteDB) Close() error {
	return s.db.Close()
}

func (s *SQLiteDB) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteDB) GetDB() *sqlx.DB {
	return s.db
}

func (s *SQLiteDB) Timescale() bool {
	return false
}
