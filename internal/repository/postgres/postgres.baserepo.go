package postgres

import (
	"context"
	"database/sql"

	"github.com/itsatony/w4b_v3/server/clima/internal/database"
	"github.com/itsatony/w4b_v3/server/clima/internal/errors"
)

type PostgresBaseRepo struct {
	db database.DB
}

func (r *PostgresBaseRepo) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	result, err := r.db.GetDB().ExecContext(ctx, r.db.GetDB().Rebind(query), args...)
	if err != nil {
		return nil, errors.NewStoreError("failed to execute query", err)
	}
	return result, nil
}

// GetContext scans a single row into dest. No rows maps to a not found error.
func (r *PostgresBaseRepo) GetContext(ctx context.Context, dest interface{}, what string, query string, args ...interface{}) error {
	err := r.db.GetDB().GetContext(ctx, dest, r.db.GetDB().Rebind(query), args...)
	if err == sql.ErrNoRows {
		return errors.NewNotFoundError(what+" not found", err)
	}
	if err != nil {
		return errors.NewStoreError("failed to get "+what, err)
	}
	return nil
}

func (r *PostgresBaseRepo) Ping(ctx context.Context) error {
	if err := r.db.GetDB().PingContext(ctx); err != nil {
		return errors.NewStoreError("failed to ping database", err)
	}
	return nil
}
