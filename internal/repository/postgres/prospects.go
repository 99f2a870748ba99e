package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/ignite/admissions-crm/internal/domain"
	"github.com/ignite/admissions-crm/internal/service/prospect"
)

// ProspectRepo implements prospect.Repository against PostgreSQL.
type ProspectRepo struct{ db *sql.DB }

// NewProspectRepo creates a Postgres-backed prospect repository.
func NewProspectRepo(db *sql.DB) *ProspectRepo { return &ProspectRepo{db: db} }

const prospectColumns = `id, name, phone, email, education_level, origin, status, advisor_id,
	priority, enrollment_value, notes, registered_at, last_interaction, appointment_at, additional_data`

func scanProspect(s scanner) (*domain.Prospect, error) {
	var (
		p           domain.Prospect
		advisorID   sql.NullString
		value       decimal.NullDecimal
		appointment sql.NullTime
		extra       []byte
	)
	if err := s.Scan(
		&p.ID, &p.Name, &p.Phone, &p.Email, &p.EducationLevel, &p.Origin, &p.Status, &advisorID,
		&p.Priority, &value, &p.Notes, &p.RegisteredAt, &p.LastInteraction, &appointment, &extra,
	); err != nil {
		return nil, err
	}
	p.AdvisorID = stringPtr(advisorID)
	if value.Valid {
		v := value.Decimal
		p.EnrollmentValue = &v
	}
	p.AppointmentAt = timePtr(appointment)
	m, err := unmarshalMap(extra)
	if err != nil {
		return nil, fmt.Errorf("decode additional data: %w", err)
	}
	p.AdditionalData = m
	return &p, nil
}

func (r *ProspectRepo) Get(ctx context.Context, id string) (*domain.Prospect, error) {
	p, err := scanProspect(r.db.QueryRowContext(ctx, `SELECT `+prospectColumns+` FROM prospects WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, prospect.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get prospect: %w", err)
	}
	return p, nil
}

func prospectFilter(lf prospect.ListFilter) *filter {
	f := &filter{}
	if lf.AdvisorID != "" {
		f.add("advisor_id = ?", lf.AdvisorID)
	}
	if lf.Status != "" {
		f.add("status = ?", lf.Status)
	}
	if lf.Origin != "" {
		f.add("origin = ?", lf.Origin)
	}
	if lf.Priority != "" {
		f.add("priority = ?", lf.Priority)
	}
	if !lf.RegisteredFrom.IsZero() {
		f.add("registered_at >= ?", lf.RegisteredFrom)
	}
	if !lf.RegisteredTo.IsZero() {
		f.add("registered_at <= ?", lf.RegisteredTo)
	}
	if lf.Search != "" {
		f.add("(name ILIKE ? OR email ILIKE ? OR phone ILIKE ?)", likePattern(lf.Search))
	}
	return f
}

func (r *ProspectRepo) List(ctx context.Context, lf prospect.ListFilter) ([]domain.Prospect, int, error) {
	f := prospectFilter(lf)

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM prospects`+f.where(), f.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count prospects: %w", err)
	}

	q, args := f.page(`SELECT `+prospectColumns+` FROM prospects`, "registered_at DESC", lf.Limit, lf.Offset)
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list prospects: %w", err)
	}
	defer rows.Close()

	out := []domain.Prospect{}
	for rows.Next() {
		p, err := scanProspect(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan prospect: %w", err)
		}
		out = append(out, *p)
	}
	return out, total, rows.Err()
}

func (r *ProspectRepo) Create(ctx context.Context, p *domain.Prospect) error {
	extra, err := marshalJSON(p.AdditionalData)
	if err != nil {
		return fmt.Errorf("encode additional data: %w", err)
	}
	var value decimal.NullDecimal
	if p.EnrollmentValue != nil {
		value = decimal.NewNullDecimal(*p.EnrollmentValue)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO prospects
			(id, name, phone, email, education_level, origin, status, advisor_id,
			 priority, enrollment_value, notes, registered_at, last_interaction, appointment_at, additional_data)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`, p.ID, p.Name, p.Phone, p.Email, p.EducationLevel, p.Origin, p.Status, nullString(p.AdvisorID),
		p.Priority, value, p.Notes, p.RegisteredAt, p.LastInteraction, nullTime(p.AppointmentAt), extra)
	if err != nil {
		return fmt.Errorf("create prospect: %w", err)
	}
	return nil
}

func (r *ProspectRepo) Update(ctx context.Context, id string, u prospect.UpdateFields) (*domain.Prospect, error) {
	var s setter
	if u.Name != nil {
		s.add("name", *u.Name)
	}
	if u.Phone != nil {
		s.add("phone", *u.Phone)
	}
	if u.Email != nil {
		s.add("email", *u.Email)
	}
	if u.EducationLevel != nil {
		s.add("education_level", *u.EducationLevel)
	}
	if u.Origin != nil {
		s.add("origin", *u.Origin)
	}
	if u.Status != nil {
		s.add("status", *u.Status)
	}
	if u.AdvisorID != nil {
		s.add("advisor_id", *u.AdvisorID)
	}
	if u.Priority != nil {
		s.add("priority", *u.Priority)
	}
	if u.EnrollmentValue != nil {
		s.add("enrollment_value", *u.EnrollmentValue)
	}
	if u.Notes != nil {
		s.add("notes", *u.Notes)
	}
	if u.AppointmentAt != nil {
		s.add("appointment_at", *u.AppointmentAt)
	}
	if u.AdditionalData != nil {
		extra, err := marshalJSON(u.AdditionalData)
		if err != nil {
			return nil, fmt.Errorf("encode additional data: %w", err)
		}
		s.add("additional_data", extra)
	}
	s.add("last_interaction", u.LastInteraction)

	q, args := s.update("prospects", id, prospectColumns)
	p, err := scanProspect(r.db.QueryRowContext(ctx, q, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, prospect.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update prospect: %w", err)
	}
	return p, nil
}

// Delete removes the prospect and everything that references it.
func (r *ProspectRepo) Delete(ctx context.Context, id string) (bool, error) {
	found := false
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		for _, q := range []string{
			`DELETE FROM communications WHERE prospect_id = $1`,
			`DELETE FROM campaign_prospects WHERE prospect_id = $1`,
			`DELETE FROM admission_documents WHERE prospect_id = $1`,
			`DELETE FROM admission_payments WHERE prospect_id = $1`,
		} {
			if _, err := tx.ExecContext(ctx, q, id); err != nil {
				return fmt.Errorf("delete prospect dependents: %w", err)
			}
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM prospects WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("delete prospect: %w", err)
		}
		n, _ := res.RowsAffected()
		found = n > 0
		return nil
	})
	if err != nil {
		return false, err
	}
	return found, nil
}
