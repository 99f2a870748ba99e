package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/ignite/admissions-crm/internal/domain"
	"github.com/ignite/admissions-crm/internal/service/form"
)

// FormRepo implements form.Repository against PostgreSQL.
type FormRepo struct{ db *sql.DB }

// NewFormRepo creates a Postgres-backed lead form repository.
func NewFormRepo(db *sql.DB) *FormRepo { return &FormRepo{db: db} }

const formColumns = `id, name, slug, title, description, origin, campaign_id, advisor_id, active, fields, created_at`

func scanForm(s scanner) (*domain.LeadForm, error) {
	var (
		f          domain.LeadForm
		campaignID sql.NullString
		advisorID  sql.NullString
		fields     pq.StringArray
	)
	if err := s.Scan(&f.ID, &f.Name, &f.Slug, &f.Title, &f.Description, &f.Origin,
		&campaignID, &advisorID, &f.Active, &fields, &f.CreatedAt); err != nil {
		return nil, err
	}
	f.CampaignID = stringPtr(campaignID)
	f.AdvisorID = stringPtr(advisorID)
	f.Fields = []string(fields)
	return &f, nil
}

func (r *FormRepo) get(ctx context.Context, where string, arg any) (*domain.LeadForm, error) {
	f, err := scanForm(r.db.QueryRowContext(ctx, `SELECT `+formColumns+` FROM lead_forms WHERE `+where+` = $1`, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, form.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get form: %w", err)
	}
	return f, nil
}

func (r *FormRepo) Get(ctx context.Context, id string) (*domain.LeadForm, error) {
	return r.get(ctx, "id", id)
}

func (r *FormRepo) GetBySlug(ctx context.Context, slug string) (*domain.LeadForm, error) {
	return r.get(ctx, "slug", slug)
}

func (r *FormRepo) List(ctx context.Context) ([]domain.LeadForm, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+formColumns+` FROM lead_forms ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list forms: %w", err)
	}
	defer rows.Close()

	out := []domain.LeadForm{}
	for rows.Next() {
		f, err := scanForm(rows)
		if err != nil {
			return nil, fmt.Errorf("scan form: %w", err)
		}
		out = append(out, *f)
	}
	return out, rows.Err()
}

func (r *FormRepo) Create(ctx context.Context, f *domain.LeadForm) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO lead_forms
			(id, name, slug, title, description, origin, campaign_id, advisor_id, active, fields, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, f.ID, f.Name, f.Slug, f.Title, f.Description, f.Origin, nullString(f.CampaignID),
		nullString(f.AdvisorID), f.Active, pq.Array(f.Fields), f.CreatedAt)
	if isUniqueViolation(err) {
		return form.ErrSlugTaken
	}
	if err != nil {
		return fmt.Errorf("create form: %w", err)
	}
	return nil
}

func (r *FormRepo) Update(ctx context.Context, f *domain.LeadForm) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE lead_forms
		SET name = $1, slug = $2, title = $3, description = $4, origin = $5,
		    campaign_id = $6, advisor_id = $7, active = $8, fields = $9
		WHERE id = $10
	`, f.Name, f.Slug, f.Title, f.Description, f.Origin, nullString(f.CampaignID),
		nullString(f.AdvisorID), f.Active, pq.Array(f.Fields), f.ID)
	if isUniqueViolation(err) {
		return form.ErrSlugTaken
	}
	if err != nil {
		return fmt.Errorf("update form: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return form.ErrNotFound
	}
	return nil
}

func (r *FormRepo) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM lead_forms WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete form: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}
