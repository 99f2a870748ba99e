package communication

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ignite/admissions-crm/internal/access"
	"github.com/ignite/admissions-crm/internal/domain"
	"github.com/ignite/admissions-crm/internal/pkg/logger"
	"github.com/ignite/admissions-crm/internal/pkg/validate"
)

// ProspectFinder loads the prospect a communication belongs to.
type ProspectFinder interface {
	Get(ctx context.Context, id string) (*domain.Prospect, error)
}

// Service implements communication business logic.
type Service struct {
	repo      Repository
	prospects ProspectFinder
	now       func() time.Time
}

// NewService creates a communication service.
func NewService(repo Repository, prospects ProspectFinder) *Service {
	return &Service{repo: repo, prospects: prospects, now: time.Now}
}

// CreateInput holds the fields for logging a communication.
type CreateInput struct {
	ProspectID      string     `json:"prospectoId" validate:"required"`
	Type            string     `json:"tipo" validate:"required,oneof=call email whatsapp in_person"`
	Direction       string     `json:"direccion" validate:"required,oneof=sent received"`
	Content         string     `json:"contenido" validate:"required"`
	Result          *string    `json:"resultado"`
	DurationMinutes *int       `json:"duracion" validate:"omitempty,gt=0"`
	Timestamp       *time.Time `json:"fecha"`
	State           string     `json:"estado" validate:"omitempty,oneof=completed pending failed"`
}

// UpdateInput holds the editable fields.
type UpdateInput struct {
	Content         *string `json:"contenido" validate:"omitempty,min=1"`
	Result          *string `json:"resultado"`
	DurationMinutes *int    `json:"duracion" validate:"omitempty,gt=0"`
	State           *string `json:"estado" validate:"omitempty,oneof=completed pending failed"`
}

// List returns communications visible to the principal. Advisors only see
// what they authored.
func (s *Service) List(ctx context.Context, p access.Principal, f ListFilter) ([]domain.Communication, int, error) {
	f.UserID = p.ScopeAdvisor(f.UserID)
	return s.repo.List(ctx, f)
}

// ListForProspect returns the history of one prospect after checking the
// principal may see it.
func (s *Service) ListForProspect(ctx context.Context, p access.Principal, prospectID string, f ListFilter) ([]domain.Communication, int, error) {
	pr, err := s.prospects.Get(ctx, prospectID)
	if err != nil {
		return nil, 0, err
	}
	if err := access.CanViewProspect(p, pr); err != nil {
		return nil, 0, err
	}
	f.ProspectID = prospectID
	return s.List(ctx, p, f)
}

// Get returns a single communication after the authorship check.
func (s *Service) Get(ctx context.Context, p access.Principal, id string) (*domain.Communication, error) {
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := access.CanViewCommunication(p, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Create logs a communication authored by the principal.
func (s *Service) Create(ctx context.Context, p access.Principal, in CreateInput) (*domain.Communication, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	pr, err := s.prospects.Get(ctx, in.ProspectID)
	if err != nil {
		return nil, err
	}
	if err := access.CanCreateCommunication(p, pr); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	state := domain.CommunicationState(in.State)
	if state == "" {
		state = domain.CommCompleted
	}
	c := &domain.Communication{
		ID:              uuid.New().String(),
		ProspectID:      pr.ID,
		UserID:          p.UserID,
		Type:            domain.CommunicationType(in.Type),
		Direction:       domain.CommunicationDirection(in.Direction),
		Content:         in.Content,
		Result:          in.Result,
		DurationMinutes: in.DurationMinutes,
		Timestamp:       now,
		State:           state,
	}
	if in.Timestamp != nil && !in.Timestamp.IsZero() {
		c.Timestamp = in.Timestamp.UTC()
	}
	if err := s.repo.Create(ctx, c, now); err != nil {
		return nil, err
	}
	logger.Info("communication logged", "communication_id", c.ID, "prospect_id", c.ProspectID, "type", string(c.Type))
	return c, nil
}

// Update edits content, result, duration or state.
func (s *Service) Update(ctx context.Context, p access.Principal, id string, in UpdateInput) (*domain.Communication, error) {
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := access.CanUpdateCommunication(p, c); err != nil {
		return nil, err
	}
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	u := UpdateFields{Content: in.Content, Result: in.Result, DurationMinutes: in.DurationMinutes}
	if in.State != nil {
		st := domain.CommunicationState(*in.State)
		u.State = &st
	}
	return s.repo.Update(ctx, id, u)
}

// Delete removes a communication. Authors and leads only.
func (s *Service) Delete(ctx context.Context, p access.Principal, id string) error {
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := access.CanDeleteCommunication(p, c); err != nil {
		return err
	}
	ok, err := s.repo.Delete(ctx, id)
	if err != nil {
		logger.Error("communication delete failed", "communication_id", id, "error", err)
		return ErrDeleteFailed
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}
