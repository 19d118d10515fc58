package timescale

import (
	"context"
	"database/sql"

	"github.com/itsatony/w4b_v3/server/clima/internal/database"
	"github.com/itsatony/w4b_v3/server/clima/internal/errors"
)

type TimeScaleBaseRepo struct {
	db database.DB
}

func (r *TimeScaleBaseRepo) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	result, err := r.db.GetDB().ExecContext(ctx, r.db.GetDB().Rebind(query), args...)
	if err != nil {
		return nil, errors.NewStoreError("failed to execute query", err)
	}
	return result, nil
}

func (r *TimeScaleBaseRepo) SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	if err := r.db.GetDB().SelectContext(ctx, dest, r.db.GetDB().Rebind(query), args...); err != nil {
		return errors.NewStoreError("failed to execute query", err)
	}
	return nil
}

func (r *TimeScaleBaseRepo) Ping(ctx context.Context) error {
	if err := r.db.GetDB().PingContext(ctx); err != nil {
		return errors.NewStoreError("failed to ping database", err)
	}
	return nil
}
