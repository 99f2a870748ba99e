package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ignite/admissions-crm/internal/domain"
	"github.com/ignite/admissions-crm/internal/service/campaign"
	"github.com/ignite/admissions-crm/internal/service/prospect"
)

// CampaignRepo implements campaign.Repository against PostgreSQL.
type CampaignRepo struct{ db *sql.DB }

// NewCampaignRepo creates a Postgres-backed campaign repository.
func NewCampaignRepo(db *sql.DB) *CampaignRepo { return &CampaignRepo{db: db} }

const campaignColumns = `id, name, description, channel, budget, spent, state, start_at, end_at,
	lead_target, enrollment_target, channel_config, created_at`

func scanCampaign(s scanner) (*domain.Campaign, error) {
	var (
		c           domain.Campaign
		description sql.NullString
		leads       sql.NullInt64
		enrollments sql.NullInt64
		cfg         []byte
	)
	if err := s.Scan(
		&c.ID, &c.Name, &description, &c.Channel, &c.Budget, &c.Spent, &c.State, &c.StartAt, &c.EndAt,
		&leads, &enrollments, &cfg, &c.CreatedAt,
	); err != nil {
		return nil, err
	}
	c.Description = stringPtr(description)
	c.LeadTarget = intPtr(leads)
	c.EnrollmentTarget = intPtr(enrollments)
	m, err := unmarshalMap(cfg)
	if err != nil {
		return nil, fmt.Errorf("decode channel config: %w", err)
	}
	c.ChannelConfig = m
	return &c, nil
}

func (r *CampaignRepo) Get(ctx context.Context, id string) (*domain.Campaign, error) {
	c, err := scanCampaign(r.db.QueryRowContext(ctx, `SELECT `+campaignColumns+` FROM campaigns WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, campaign.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get campaign: %w", err)
	}
	return c, nil
}

func (r *CampaignRepo) List(ctx context.Context, lf campaign.ListFilter) ([]domain.Campaign, int, error) {
	var f filter
	if lf.State != "" {
		f.add("state = ?", lf.State)
	}
	if lf.Channel != "" {
		f.add("channel = ?", lf.Channel)
	}
	if lf.Search != "" {
		f.add("name ILIKE ?", likePattern(lf.Search))
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM campaigns`+f.where(), f.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count campaigns: %w", err)
	}

	q, args := f.page(`SELECT `+campaignColumns+` FROM campaigns`, "created_at DESC", lf.Limit, lf.Offset)
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list campaigns: %w", err)
	}
	defer rows.Close()

	out := []domain.Campaign{}
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan campaign: %w", err)
		}
		out = append(out, *c)
	}
	return out, total, rows.Err()
}

func (r *CampaignRepo) Create(ctx context.Context, c *domain.Campaign) error {
	cfg, err := marshalJSON(c.ChannelConfig)
	if err != nil {
		return fmt.Errorf("encode channel config: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO campaigns
			(id, name, description, channel, budget, spent, state, start_at, end_at,
			 lead_target, enrollment_target, channel_config, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`, c.ID, c.Name, nullString(c.Description), c.Channel, c.Budget, c.Spent, c.State, c.StartAt, c.EndAt,
		nullInt(c.LeadTarget), nullInt(c.EnrollmentTarget), cfg, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("create campaign: %w", err)
	}
	return nil
}

func (r *CampaignRepo) Update(ctx context.Context, id string, u campaign.UpdateFields) (*domain.Campaign, error) {
	var s setter
	if u.Name != nil {
		s.add("name", *u.Name)
	}
	if u.Description != nil {
		s.add("description", *u.Description)
	}
	if u.Channel != nil {
		s.add("channel", *u.Channel)
	}
	if u.Budget != nil {
		s.add("budget", *u.Budget)
	}
	if u.Spent != nil {
		s.add("spent", *u.Spent)
	}
	if u.State != nil {
		s.add("state", *u.State)
	}
	if u.StartAt != nil {
		s.add("start_at", *u.StartAt)
	}
	if u.EndAt != nil {
		s.add("end_at", *u.EndAt)
	}
	if u.LeadTarget != nil {
		s.add("lead_target", *u.LeadTarget)
	}
	if u.EnrollmentTarget != nil {
		s.add("enrollment_target", *u.EnrollmentTarget)
	}
	if u.ChannelConfig != nil {
		cfg, err := marshalJSON(u.ChannelConfig)
		if err != nil {
			return nil, fmt.Errorf("encode channel config: %w", err)
		}
		s.add("channel_config", cfg)
	}
	if s.empty() {
		return r.Get(ctx, id)
	}

	q, args := s.update("campaigns", id, campaignColumns)
	c, err := scanCampaign(r.db.QueryRowContext(ctx, q, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, campaign.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update campaign: %w", err)
	}
	return c, nil
}

// Delete removes the campaign with its prospect links.
func (r *CampaignRepo) Delete(ctx context.Context, id string) (bool, error) {
	found := false
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM campaign_prospects WHERE campaign_id = $1`, id); err != nil {
			return fmt.Errorf("delete campaign links: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `UPDATE lead_forms SET campaign_id = NULL WHERE campaign_id = $1`, id); err != nil {
			return fmt.Errorf("detach campaign forms: %w", err)
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM campaigns WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("delete campaign: %w", err)
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

func (r *CampaignRepo) Link(ctx context.Context, l *domain.CampaignProspect) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		var campaignOK, prospectOK bool
		if err := tx.QueryRowContext(ctx, `
			SELECT EXISTS(SELECT 1 FROM campaigns WHERE id = $1),
			       EXISTS(SELECT 1 FROM prospects WHERE id = $2)
		`, l.CampaignID, l.ProspectID).Scan(&campaignOK, &prospectOK); err != nil {
			return fmt.Errorf("check link targets: %w", err)
		}
		if !campaignOK {
			return campaign.ErrNotFound
		}
		if !prospectOK {
			return prospect.ErrNotFound
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO campaign_prospects (id, campaign_id, prospect_id, associated_at)
			VALUES ($1, $2, $3, $4)
		`, l.ID, l.CampaignID, l.ProspectID, l.AssociatedAt)
		if isUniqueViolation(err) {
			return campaign.ErrAlreadyLinked
		}
		if err != nil {
			return fmt.Errorf("link prospect: %w", err)
		}
		return nil
	})
}

func (r *CampaignRepo) Unlink(ctx context.Context, campaignID, prospectID string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM campaign_prospects WHERE campaign_id = $1 AND prospect_id = $2`, campaignID, prospectID)
	if err != nil {
		return false, fmt.Errorf("unlink prospect: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (r *CampaignRepo) Links(ctx context.Context, campaignID string) ([]domain.CampaignProspect, error) {
	var f filter
	if campaignID != "" {
		f.add("campaign_id = ?", campaignID)
	}
	q, args := f.page(`SELECT id, campaign_id, prospect_id, associated_at FROM campaign_prospects`, "associated_at", 0, 0)
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list campaign links: %w", err)
	}
	defer rows.Close()

	out := []domain.CampaignProspect{}
	for rows.Next() {
		var l domain.CampaignProspect
		if err := rows.Scan(&l.ID, &l.CampaignID, &l.ProspectID, &l.AssociatedAt); err != nil {
			return nil, fmt.Errorf("scan campaign link: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r *CampaignRepo) LinkedProspects(ctx context.Context, campaignID string) ([]domain.Prospect, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+prefixed("p", prospectColumns)+`
		FROM prospects p
		JOIN campaign_prospects cp ON cp.prospect_id = p.id
		WHERE cp.campaign_id = $1
		ORDER BY p.registered_at DESC
	`, campaignID)
	if err != nil {
		return nil, fmt.Errorf("list linked prospects: %w", err)
	}
	defer rows.Close()

	out := []domain.Prospect{}
	for rows.Next() {
		p, err := scanProspect(rows)
		if err != nil {
			return nil, fmt.Errorf("scan prospect: %w", err)
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}
