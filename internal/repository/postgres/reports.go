package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/ignite/admissions-crm/internal/domain"
	"github.com/ignite/admissions-crm/internal/service/report"
)

// ReportRepo implements report.Repository against PostgreSQL.
type ReportRepo struct{ db *sql.DB }

// NewReportRepo creates a Postgres-backed report definition repository.
func NewReportRepo(db *sql.DB) *ReportRepo { return &ReportRepo{db: db} }

const reportColumns = `id, name, type, frequency, recipients, config, active, last_run, next_run, created_at`

func scanReport(s scanner) (*domain.ReportDefinition, error) {
	var (
		d          domain.ReportDefinition
		recipients pq.StringArray
		cfg        []byte
		lastRun    sql.NullTime
		nextRun    sql.NullTime
	)
	if err := s.Scan(&d.ID, &d.Name, &d.Type, &d.Frequency, &recipients, &cfg, &d.Active, &lastRun, &nextRun, &d.CreatedAt); err != nil {
		return nil, err
	}
	d.Recipients = []string(recipients)
	if d.Recipients == nil {
		d.Recipients = []string{}
	}
	if len(cfg) > 0 {
		if err := json.Unmarshal(cfg, &d.Config); err != nil {
			return nil, fmt.Errorf("decode report config: %w", err)
		}
	}
	d.LastRun = timePtr(lastRun)
	d.NextRun = timePtr(nextRun)
	return &d, nil
}

func (r *ReportRepo) query(ctx context.Context, q string, args ...any) ([]domain.ReportDefinition, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.ReportDefinition{}
	for rows.Next() {
		d, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}

func (r *ReportRepo) Get(ctx context.Context, id string) (*domain.ReportDefinition, error) {
	d, err := scanReport(r.db.QueryRowContext(ctx, `SELECT `+reportColumns+` FROM report_definitions WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, report.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get report: %w", err)
	}
	return d, nil
}

func (r *ReportRepo) List(ctx context.Context, lf report.ListFilter) ([]domain.ReportDefinition, error) {
	var f filter
	if lf.Type != "" {
		f.add("type = ?", lf.Type)
	}
	if lf.ActiveOnly {
		f.add("active = ?", true)
	}
	q, args := f.page(`SELECT `+reportColumns+` FROM report_definitions`, "name", 0, 0)
	out, err := r.query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	return out, nil
}

func (r *ReportRepo) Create(ctx context.Context, d *domain.ReportDefinition) error {
	cfg, err := json.Marshal(d.Config)
	if err != nil {
		return fmt.Errorf("encode report config: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO report_definitions
			(id, name, type, frequency, recipients, config, active, last_run, next_run, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, d.ID, d.Name, d.Type, d.Frequency, pq.Array(d.Recipients), cfg, d.Active,
		nullTime(d.LastRun), nullTime(d.NextRun), d.CreatedAt)
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	return nil
}

func (r *ReportRepo) Update(ctx context.Context, d *domain.ReportDefinition) error {
	cfg, err := json.Marshal(d.Config)
	if err != nil {
		return fmt.Errorf("encode report config: %w", err)
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE report_definitions
		SET name = $1, type = $2, frequency = $3, recipients = $4, config = $5, active = $6, next_run = $7
		WHERE id = $8
	`, d.Name, d.Type, d.Frequency, pq.Array(d.Recipients), cfg, d.Active, nullTime(d.NextRun), d.ID)
	if err != nil {
		return fmt.Errorf("update report: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return report.ErrNotFound
	}
	return nil
}

func (r *ReportRepo) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM report_definitions WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete report: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (r *ReportRepo) Due(ctx context.Context, now time.Time) ([]domain.ReportDefinition, error) {
	out, err := r.query(ctx, `
		SELECT `+reportColumns+` FROM report_definitions
		WHERE active AND next_run IS NOT NULL AND next_run <= $1
		ORDER BY next_run
	`, now)
	if err != nil {
		return nil, fmt.Errorf("list due reports: %w", err)
	}
	return out, nil
}

func (r *ReportRepo) MarkRun(ctx context.Context, id string, lastRun, nextRun time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE report_definitions SET last_run = $1, next_run = $2 WHERE id = $3`, lastRun, nextRun, id)
	if err != nil {
		return fmt.Errorf("mark report run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return report.ErrNotFound
	}
	return nil
}
