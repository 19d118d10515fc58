// FilePath: server/clima/internal/repository/postgres/postgres.report.go
package postgres

import (
	"context"

	"github.com/itsatony/w4b_v3/server/clima/internal/clock"
	"github.com/itsatony/w4b_v3/server/clima/internal/database"
	"github.com/itsatony/w4b_v3/server/clima/internal/errors"
	"github.com/itsatony/w4b_v3/server/clima/internal/models"
	nuts "github.com/vaudience/go-nuts"
)

const reportColumns = `id, CAST(report_date AS TEXT) AS report_date, overall_condition, payload, created_at, updated_at`

type ReportRepo struct {
	PostgresBaseRepo
	clock clock.Clock
}

func NewReportRepository(db database.DB, clk clock.Clock) (*ReportRepo, error) {
	repo := &ReportRepo{PostgresBaseRepo: PostgresBaseRepo{db: db}, clock: clk}
	if err := repo.initializeSchema(); err != nil {
		return nil, err
	}
	return repo, nil
}

func (r *ReportRepo) initializeSchema() error {
	query := `CREATE TABLE IF NOT EXISTS reports (
		id BIGSERIAL PRIMARY KEY,
		report_date DATE NOT NULL UNIQUE,
		overall_condition TEXT NOT NULL,
		payload JSONB NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`
	if database.IsSQLite(r.db) {
		query = `CREATE TABLE IF NOT EXISTS reports (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			report_date TEXT NOT NULL UNIQUE,
			overall_condition TEXT NOT NULL,
			payload TEXT NOT NULL,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`
	}

	if _, err := r.db.GetDB().Exec(query); err != nil {
		return errors.NewStoreError("failed to initialize schema", err)
	}
	return nil
}

// Upsert writes the report for report.Date. On conflict only condition,
// payload and updated_at change. The stored row is read back into report
// within the same transaction, so a failed read leaves the table untouched.
func (r *ReportRepo) Upsert(ctx context.Context, report *models.Report) error {
	if report.Date == "" || report.Payload == nil {
		return errors.NewValidationError("report date and payload are required", nil)
	}

	now := r.clock.Now().UTC()
	query := `
		INSERT INTO reports (report_date, overall_condition, payload, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (report_date) DO UPDATE SET
			overall_condition = excluded.overall_condition,
			payload = excluded.payload,
			updated_at = excluded.updated_at`

	tx, err := r.db.GetDB().BeginTxx(ctx, nil)
	if err != nil {
		return errors.NewStoreError("failed to begin report transaction", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, tx.Rebind(query), report.Date, string(report.Condition), report.Payload, now, now); err != nil {
		return errors.NewStoreError("failed to upsert report", err)
	}

	stored := &models.Report{}
	err = tx.GetContext(ctx, stored, tx.Rebind(`SELECT `+reportColumns+` FROM reports WHERE report_date = ?`), report.Date)
	if err != nil {
		return errors.NewStoreError("failed to read back report", err)
	}
	if err := tx.Commit(); err != nil {
		return errors.NewStoreError("failed to commit report", err)
	}

	*report = *r.localize(stored)
	nuts.L.Infof("[PostgresDB] Report stored for %s (condition %s)", report.Date, report.Condition)
	return nil
}

func (r *ReportRepo) GetByDate(ctx context.Context, date string) (*models.Report, error) {
	report := &models.Report{}
	query := `SELECT ` + reportColumns + ` FROM reports WHERE report_date = ?`

	if err := r.GetContext(ctx, report, "report", query, date); err != nil {
		return nil, err
	}
	return r.localize(report), nil
}

func (r *ReportRepo) GetLatest(ctx context.Context) (*models.Report, error) {
	report := &models.Report{}
	query := `SELECT ` + reportColumns + ` FROM reports ORDER BY report_date DESC LIMIT 1`

	if err := r.GetContext(ctx, report, "report", query); err != nil {
		return nil, err
	}
	return r.localize(report), nil
}

func (r *ReportRepo) localize(report *models.Report) *models.Report {
	report.CreatedAt = report.CreatedAt.In(r.clock.Location())
	report.UpdatedAt = report.UpdatedAt.In(r.clock.Location())
	return report
}
