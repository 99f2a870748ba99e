package campaign

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ignite/admissions-crm/internal/access"
	"github.com/ignite/admissions-crm/internal/domain"
	"github.com/ignite/admissions-crm/internal/pkg/logger"
	"github.com/ignite/admissions-crm/internal/pkg/validate"
)

// ProspectFinder checks that a prospect exists before linking it.
type ProspectFinder interface {
	Get(ctx context.Context, id string) (*domain.Prospect, error)
}

// Service implements campaign business logic. Every method checks the
// caller: campaigns are for managers and directors only.
// All public methods are safe for concurrent use if the underlying
// repository is concurrency-safe.
type Service struct {
	repo      Repository
	prospects ProspectFinder
	now       func() time.Time
}

// NewService creates a campaign service backed by the given repository.
func NewService(repo Repository, prospects ProspectFinder) *Service {
	return &Service{repo: repo, prospects: prospects, now: time.Now}
}

// CreateInput holds the fields for creating a new campaign.
type CreateInput struct {
	Name             string           `json:"nombre" validate:"required,max=200"`
	Description      *string          `json:"descripcion"`
	Channel          string           `json:"canal" validate:"required,oneof=facebook instagram google tiktok linkedin email whatsapp website event referral other"`
	Budget           decimal.Decimal  `json:"presupuesto" validate:"money"`
	Spent            *decimal.Decimal `json:"gastado" validate:"omitempty,money"`
	State            string           `json:"estado" validate:"omitempty,oneof=active paused finished"`
	StartAt          time.Time        `json:"fechaInicio" validate:"required"`
	EndAt            time.Time        `json:"fechaFin" validate:"required"`
	LeadTarget       *int             `json:"objetivoLeads" validate:"omitempty,gte=0"`
	EnrollmentTarget *int             `json:"objetivoInscripciones" validate:"omitempty,gte=0"`
	ChannelConfig    map[string]any   `json:"configuracionCanal"`
}

// UpdateInput holds the editable fields. Absent fields are unchanged.
type UpdateInput struct {
	Name             *string          `json:"nombre" validate:"omitempty,min=1,max=200"`
	Description      *string          `json:"descripcion"`
	Channel          *string          `json:"canal" validate:"omitempty,oneof=facebook instagram google tiktok linkedin email whatsapp website event referral other"`
	Budget           *decimal.Decimal `json:"presupuesto" validate:"omitempty,money"`
	Spent            *decimal.Decimal `json:"gastado" validate:"omitempty,money"`
	State            *string          `json:"estado" validate:"omitempty,oneof=active paused finished"`
	StartAt          *time.Time       `json:"fechaInicio"`
	EndAt            *time.Time       `json:"fechaFin"`
	LeadTarget       *int             `json:"objetivoLeads" validate:"omitempty,gte=0"`
	EnrollmentTarget *int             `json:"objetivoInscripciones" validate:"omitempty,gte=0"`
	ChannelConfig    map[string]any   `json:"configuracionCanal"`
}

// Get returns a single campaign.
func (s *Service) Get(ctx context.Context, p access.Principal, id string) (*domain.Campaign, error) {
	if err := access.CanViewCampaigns(p); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

// List returns campaigns matching the filter.
func (s *Service) List(ctx context.Context, p access.Principal, f ListFilter) ([]domain.Campaign, int, error) {
	if err := access.CanViewCampaigns(p); err != nil {
		return nil, 0, err
	}
	return s.repo.List(ctx, f)
}

// Create validates and persists a new campaign, active unless told otherwise.
func (s *Service) Create(ctx context.Context, p access.Principal, in CreateInput) (*domain.Campaign, error) {
	if err := access.CanManageCampaigns(p); err != nil {
		return nil, err
	}
	verr := &validate.Error{}
	if err := validate.Struct(in); err != nil {
		ve, ok := validate.As(err)
		if !ok {
			return nil, err
		}
		verr = ve
	}
	spent := decimal.Zero
	if in.Spent != nil {
		spent = *in.Spent
	}
	checkBudget(verr, in.Budget, spent)
	checkDates(verr, in.StartAt, in.EndAt)
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	state := domain.CampaignState(in.State)
	if state == "" {
		state = domain.CampaignActive
	}
	c := &domain.Campaign{
		ID:               uuid.New().String(),
		Name:             strings.TrimSpace(in.Name),
		Description:      in.Description,
		Channel:          domain.Channel(in.Channel),
		Budget:           in.Budget,
		Spent:            spent,
		State:            state,
		StartAt:          in.StartAt.UTC(),
		EndAt:            in.EndAt.UTC(),
		LeadTarget:       in.LeadTarget,
		EnrollmentTarget: in.EnrollmentTarget,
		ChannelConfig:    in.ChannelConfig,
		CreatedAt:        s.now().UTC(),
	}
	if c.ChannelConfig == nil {
		c.ChannelConfig = map[string]any{}
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	logger.Info("campaign created", "campaign_id", c.ID, "channel", string(c.Channel))
	return c, nil
}

// Update applies the changes after re-checking budget and dates against
// the merged record.
func (s *Service) Update(ctx context.Context, p access.Principal, id string, in UpdateInput) (*domain.Campaign, error) {
	if err := access.CanManageCampaigns(p); err != nil {
		return nil, err
	}
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	verr := &validate.Error{}
	if err := validate.Struct(in); err != nil {
		ve, ok := validate.As(err)
		if !ok {
			return nil, err
		}
		verr = ve
	}

	budget, spent := current.Budget, current.Spent
	if in.Budget != nil {
		budget = *in.Budget
	}
	if in.Spent != nil {
		spent = *in.Spent
	}
	start, end := current.StartAt, current.EndAt
	if in.StartAt != nil {
		start = *in.StartAt
	}
	if in.EndAt != nil {
		end = *in.EndAt
	}
	checkBudget(verr, budget, spent)
	checkDates(verr, start, end)
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	u := UpdateFields{
		Name:             in.Name,
		Description:      in.Description,
		Budget:           in.Budget,
		Spent:            in.Spent,
		StartAt:          in.StartAt,
		EndAt:            in.EndAt,
		LeadTarget:       in.LeadTarget,
		EnrollmentTarget: in.EnrollmentTarget,
		ChannelConfig:    in.ChannelConfig,
	}
	if in.Channel != nil {
		ch := domain.Channel(*in.Channel)
		u.Channel = &ch
	}
	if in.State != nil {
		st := domain.CampaignState(*in.State)
		u.State = &st
	}
	return s.repo.Update(ctx, id, u)
}

// Delete removes a campaign and its links. Storage failures are logged and
// reported as ErrDeleteFailed. Directors only.
func (s *Service) Delete(ctx context.Context, p access.Principal, id string) error {
	if err := access.CanDeleteCampaign(p); err != nil {
		return err
	}
	ok, err := s.repo.Delete(ctx, id)
	if err != nil {
		logger.Error("campaign delete failed", "campaign_id", id, "error", err)
		return ErrDeleteFailed
	}
	if !ok {
		return ErrNotFound
	}
	logger.Info("campaign deleted", "campaign_id", id)
	return nil
}

// LinkProspect attributes a prospect to the campaign.
func (s *Service) LinkProspect(ctx context.Context, p access.Principal, campaignID, prospectID string) (*domain.CampaignProspect, error) {
	if err := access.CanManageCampaigns(p); err != nil {
		return nil, err
	}
	if _, err := s.repo.Get(ctx, campaignID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(prospectID) == "" {
		return nil, validate.Field("prospectoId", "is required")
	}
	if _, err := s.prospects.Get(ctx, prospectID); err != nil {
		return nil, err
	}
	l := &domain.CampaignProspect{
		ID:           uuid.New().String(),
		CampaignID:   campaignID,
		ProspectID:   prospectID,
		AssociatedAt: s.now().UTC(),
	}
	if err := s.repo.Link(ctx, l); err != nil {
		return nil, err
	}
	return l, nil
}

// UnlinkProspect removes an attribution.
func (s *Service) UnlinkProspect(ctx context.Context, p access.Principal, campaignID, prospectID string) error {
	if err := access.CanManageCampaigns(p); err != nil {
		return err
	}
	ok, err := s.repo.Unlink(ctx, campaignID, prospectID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrLinkNotFound
	}
	return nil
}

// Prospects lists the prospects attributed to a campaign.
func (s *Service) Prospects(ctx context.Context, p access.Principal, campaignID string) ([]domain.Prospect, error) {
	if err := access.CanViewCampaigns(p); err != nil {
		return nil, err
	}
	if _, err := s.repo.Get(ctx, campaignID); err != nil {
		return nil, err
	}
	return s.repo.LinkedProspects(ctx, campaignID)
}

// checkBudget compares spent with budget once both are valid amounts.
func checkBudget(verr *validate.Error, budget, spent decimal.Decimal) {
	if verr.Has("presupuesto") || verr.Has("gastado") {
		return
	}
	if spent.GreaterThan(budget) {
		verr.Add("gastado", "must not exceed presupuesto")
	}
}

func checkDates(verr *validate.Error, start, end time.Time) {
	if start.IsZero() || end.IsZero() {
		return
	}
	if !end.After(start) {
		verr.Add("fechaFin", "must be after fechaInicio")
	}
}
