package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ignite/admissions-crm/internal/domain"
	"github.com/ignite/admissions-crm/internal/service/communication"
	"github.com/ignite/admissions-crm/internal/service/prospect"
)

// CommunicationRepo implements communication.Repository against PostgreSQL.
type CommunicationRepo struct{ db *sql.DB }

// NewCommunicationRepo creates a Postgres-backed communication repository.
func NewCommunicationRepo(db *sql.DB) *CommunicationRepo { return &CommunicationRepo{db: db} }

const communicationColumns = `id, prospect_id, user_id, type, direction, content, result,
	duration_minutes, occurred_at, state`

func scanCommunication(s scanner) (*domain.Communication, error) {
	var (
		c        domain.Communication
		result   sql.NullString
		duration sql.NullInt64
	)
	if err := s.Scan(
		&c.ID, &c.ProspectID, &c.UserID, &c.Type, &c.Direction, &c.Content, &result,
		&duration, &c.Timestamp, &c.State,
	); err != nil {
		return nil, err
	}
	c.Result = stringPtr(result)
	c.DurationMinutes = intPtr(duration)
	return &c, nil
}

func (r *CommunicationRepo) Get(ctx context.Context, id string) (*domain.Communication, error) {
	c, err := scanCommunication(r.db.QueryRowContext(ctx, `SELECT `+communicationColumns+` FROM communications WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, communication.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get communication: %w", err)
	}
	return c, nil
}

func (r *CommunicationRepo) List(ctx context.Context, lf communication.ListFilter) ([]domain.Communication, int, error) {
	var f filter
	if lf.ProspectID != "" {
		f.add("prospect_id = ?", lf.ProspectID)
	}
	if lf.UserID != "" {
		f.add("user_id = ?", lf.UserID)
	}
	if lf.Type != "" {
		f.add("type = ?", lf.Type)
	}
	if lf.Direction != "" {
		f.add("direction = ?", lf.Direction)
	}
	if lf.State != "" {
		f.add("state = ?", lf.State)
	}
	if !lf.From.IsZero() {
		f.add("occurred_at >= ?", lf.From)
	}
	if !lf.To.IsZero() {
		f.add("occurred_at <= ?", lf.To)
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM communications`+f.where(), f.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count communications: %w", err)
	}

	q, args := f.page(`SELECT `+communicationColumns+` FROM communications`, "occurred_at DESC", lf.Limit, lf.Offset)
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list communications: %w", err)
	}
	defer rows.Close()

	out := []domain.Communication{}
	for rows.Next() {
		c, err := scanCommunication(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan communication: %w", err)
		}
		out = append(out, *c)
	}
	return out, total, rows.Err()
}

// Create stores the communication and bumps the prospect's last
// interaction in the same transaction.
func (r *CommunicationRepo) Create(ctx context.Context, c *domain.Communication, now time.Time) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE prospects SET last_interaction = GREATEST($1::timestamptz, $2::timestamptz) WHERE id = $3`,
			now, c.Timestamp, c.ProspectID)
		if err != nil {
			return fmt.Errorf("touch prospect: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return prospect.ErrNotFound
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO communications
				(id, prospect_id, user_id, type, direction, content, result, duration_minutes, occurred_at, state)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		`, c.ID, c.ProspectID, c.UserID, c.Type, c.Direction, c.Content, nullString(c.Result),
			nullInt(c.DurationMinutes), c.Timestamp, c.State)
		if err != nil {
			return fmt.Errorf("create communication: %w", err)
		}
		return nil
	})
}

func (r *CommunicationRepo) Update(ctx context.Context, id string, u communication.UpdateFields) (*domain.Communication, error) {
	var s setter
	if u.Content != nil {
		s.add("content", *u.Content)
	}
	if u.Result != nil {
		s.add("result", *u.Result)
	}
	if u.DurationMinutes != nil {
		s.add("duration_minutes", *u.DurationMinutes)
	}
	if u.State != nil {
		s.add("state", *u.State)
	}
	if s.empty() {
		return r.Get(ctx, id)
	}

	q, args := s.update("communications", id, communicationColumns)
	c, err := scanCommunication(r.db.QueryRowContext(ctx, q, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, communication.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update communication: %w", err)
	}
	return c, nil
}

func (r *CommunicationRepo) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM communications WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete communication: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}
