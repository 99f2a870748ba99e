package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ignite/admissions-crm/internal/domain"
	"github.com/ignite/admissions-crm/internal/service/admission"
)

// AdmissionRepo implements admission.Repository against PostgreSQL.
type AdmissionRepo struct{ db *sql.DB }

// NewAdmissionRepo creates a Postgres-backed admission repository.
func NewAdmissionRepo(db *sql.DB) *AdmissionRepo { return &AdmissionRepo{db: db} }

const (
	documentColumns = `id, prospect_id, kind, file_name, url, status, notes, uploaded_at, reviewed_at`
	paymentColumns  = `id, prospect_id, concept, amount, method, status, paid_at, created_at`
)

func scanDocument(s scanner) (*domain.Document, error) {
	var (
		d        domain.Document
		reviewed sql.NullTime
	)
	if err := s.Scan(&d.ID, &d.ProspectID, &d.Kind, &d.FileName, &d.URL, &d.Status, &d.Notes, &d.UploadedAt, &reviewed); err != nil {
		return nil, err
	}
	d.ReviewedAt = timePtr(reviewed)
	return &d, nil
}

func scanPayment(s scanner) (*domain.Payment, error) {
	var (
		p    domain.Payment
		paid sql.NullTime
	)
	if err := s.Scan(&p.ID, &p.ProspectID, &p.Concept, &p.Amount, &p.Method, &p.Status, &paid, &p.CreatedAt); err != nil {
		return nil, err
	}
	p.PaidAt = timePtr(paid)
	return &p, nil
}

func (r *AdmissionRepo) ListDocuments(ctx context.Context, prospectID string) ([]domain.Document, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+documentColumns+` FROM admission_documents WHERE prospect_id = $1 ORDER BY uploaded_at`, prospectID)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	out := []domain.Document{}
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}

func (r *AdmissionRepo) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	d, err := scanDocument(r.db.QueryRowContext(ctx, `SELECT `+documentColumns+` FROM admission_documents WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, admission.ErrDocumentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}
	return d, nil
}

func (r *AdmissionRepo) CreateDocument(ctx context.Context, d *domain.Document) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO admission_documents (id, prospect_id, kind, file_name, url, status, notes, uploaded_at, reviewed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, d.ID, d.ProspectID, d.Kind, d.FileName, d.URL, d.Status, d.Notes, d.UploadedAt, nullTime(d.ReviewedAt))
	if err != nil {
		return fmt.Errorf("create document: %w", err)
	}
	return nil
}

func (r *AdmissionRepo) UpdateDocument(ctx context.Context, id string, u admission.DocumentUpdate) (*domain.Document, error) {
	var s setter
	if u.Status != nil {
		s.add("status", *u.Status)
	}
	if u.Notes != nil {
		s.add("notes", *u.Notes)
	}
	if u.ReviewedAt != nil {
		s.add("reviewed_at", *u.ReviewedAt)
	}
	if s.empty() {
		return r.GetDocument(ctx, id)
	}

	q, args := s.update("admission_documents", id, documentColumns)
	d, err := scanDocument(r.db.QueryRowContext(ctx, q, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, admission.ErrDocumentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update document: %w", err)
	}
	return d, nil
}

func (r *AdmissionRepo) ListPayments(ctx context.Context, prospectID string) ([]domain.Payment, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+paymentColumns+` FROM admission_payments WHERE prospect_id = $1 ORDER BY created_at`, prospectID)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()

	out := []domain.Payment{}
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func (r *AdmissionRepo) GetPayment(ctx context.Context, id string) (*domain.Payment, error) {
	p, err := scanPayment(r.db.QueryRowContext(ctx, `SELECT `+paymentColumns+` FROM admission_payments WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, admission.ErrPaymentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get payment: %w", err)
	}
	return p, nil
}

func (r *AdmissionRepo) CreatePayment(ctx context.Context, p *domain.Payment) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO admission_payments (id, prospect_id, concept, amount, method, status, paid_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, p.ID, p.ProspectID, p.Concept, p.Amount, p.Method, p.Status, nullTime(p.PaidAt), p.CreatedAt)
	if err != nil {
		return fmt.Errorf("create payment: %w", err)
	}
	return nil
}

func (r *AdmissionRepo) UpdatePayment(ctx context.Context, id string, u admission.PaymentUpdate) (*domain.Payment, error) {
	var s setter
	if u.Status != nil {
		s.add("status", *u.Status)
	}
	if u.Amount != nil {
		s.add("amount", *u.Amount)
	}
	if u.Method != nil {
		s.add("method", *u.Method)
	}
	if u.PaidAt != nil {
		s.add("paid_at", *u.PaidAt)
	}
	if s.empty() {
		return r.GetPayment(ctx, id)
	}

	q, args := s.update("admission_payments", id, paymentColumns)
	p, err := scanPayment(r.db.QueryRowContext(ctx, q, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, admission.ErrPaymentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update payment: %w", err)
	}
	return p, nil
}
