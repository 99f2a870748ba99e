package prospect

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ignite/admissions-crm/internal/access"
	"github.com/ignite/admissions-crm/internal/domain"
	"github.com/ignite/admissions-crm/internal/pkg/logger"
	"github.com/ignite/admissions-crm/internal/pkg/validate"
	"github.com/ignite/admissions-crm/internal/service/user"
)

// AdvisorFinder resolves users when a prospect gets assigned.
type AdvisorFinder interface {
	Get(ctx context.Context, id string) (*domain.User, error)
}

// Service implements prospect business logic.
type Service struct {
	repo  Repository
	users AdvisorFinder
	now   func() time.Time
}

// NewService creates a prospect service. users may be nil, in which case
// advisor ids are stored without lookup.
func NewService(repo Repository, users AdvisorFinder) *Service {
	return &Service{repo: repo, users: users, now: time.Now}
}

// CreateInput holds the fields for creating a new prospect.
type CreateInput struct {
	Name            string           `json:"nombre" validate:"required,max=200"`
	Phone           string           `json:"telefono" validate:"required,max=40"`
	Email           string           `json:"email" validate:"omitempty,email"`
	EducationLevel  string           `json:"nivelEducativo" validate:"omitempty,oneof=high_school technical bachelor master doctorate other"`
	Origin          string           `json:"origen" validate:"required,oneof=facebook instagram google tiktok linkedin email whatsapp website event referral other"`
	Status          string           `json:"estado"`
	AdvisorID       *string          `json:"asesorId"`
	Priority        string           `json:"prioridad" validate:"omitempty,oneof=high medium low"`
	EnrollmentValue *decimal.Decimal `json:"valorInscripcion" validate:"omitempty,money"`
	Notes           string           `json:"notas"`
	AppointmentAt   *time.Time       `json:"fechaCita"`
	AdditionalData  map[string]any   `json:"datosAdicionales"`
}

// UpdateInput holds the editable fields. Absent fields are left unchanged.
type UpdateInput struct {
	Name            *string          `json:"nombre" validate:"omitempty,min=1,max=200"`
	Phone           *string          `json:"telefono" validate:"omitempty,min=1,max=40"`
	Email           *string          `json:"email" validate:"omitempty,email"`
	EducationLevel  *string          `json:"nivelEducativo" validate:"omitempty,oneof=high_school technical bachelor master doctorate other"`
	Origin          *string          `json:"origen" validate:"omitempty,oneof=facebook instagram google tiktok linkedin email whatsapp website event referral other"`
	Status          *string          `json:"estado"`
	AdvisorID       *string          `json:"asesorId"`
	Priority        *string          `json:"prioridad" validate:"omitempty,oneof=high medium low"`
	EnrollmentValue *decimal.Decimal `json:"valorInscripcion" validate:"omitempty,money"`
	Notes           *string          `json:"notas"`
	AppointmentAt   *time.Time       `json:"fechaCita"`
	AdditionalData  map[string]any   `json:"datosAdicionales"`
}

// TransitionInput moves a prospect to another pipeline stage.
type TransitionInput struct {
	Status          string           `json:"estado" validate:"required"`
	EnrollmentValue *decimal.Decimal `json:"valorInscripcion" validate:"omitempty,money"`
	AppointmentAt   *time.Time       `json:"fechaCita"`
}

// List returns prospects visible to the principal. Advisors are scoped to
// their own prospects whatever filter they pass.
func (s *Service) List(ctx context.Context, p access.Principal, f ListFilter) ([]domain.Prospect, int, error) {
	f.AdvisorID = p.ScopeAdvisor(f.AdvisorID)
	return s.repo.List(ctx, f)
}

// Get returns a single prospect after the ownership check.
func (s *Service) Get(ctx context.Context, p access.Principal, id string) (*domain.Prospect, error) {
	pr, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := access.CanViewProspect(p, pr); err != nil {
		return nil, err
	}
	return pr, nil
}

// Create validates and stores a new prospect. Prospects created by an
// advisor are always assigned to that advisor.
func (s *Service) Create(ctx context.Context, p access.Principal, in CreateInput) (*domain.Prospect, error) {
	if err := access.CanCreateProspect(p); err != nil {
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
	status := domain.StatusNew
	if in.Status != "" {
		st, ok := domain.ParseProspectStatus(in.Status)
		if !ok {
			verr.Add("estado", "must be a pipeline stage")
		}
		status = st
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	advisorID := in.AdvisorID
	if p.Role == domain.RoleAdvisor {
		advisorID = &p.UserID
	} else if advisorID != nil && *advisorID != "" {
		if err := s.checkAdvisor(ctx, *advisorID); err != nil {
			return nil, err
		}
	} else {
		advisorID = nil
	}

	priority := domain.Priority(in.Priority)
	if priority == "" {
		priority = domain.PriorityMedium
	}
	now := s.now().UTC()
	pr := &domain.Prospect{
		ID:              uuid.New().String(),
		Name:            strings.TrimSpace(in.Name),
		Phone:           strings.TrimSpace(in.Phone),
		Email:           strings.TrimSpace(in.Email),
		EducationLevel:  domain.EducationLevel(in.EducationLevel),
		Origin:          domain.Channel(in.Origin),
		Status:          status,
		AdvisorID:       advisorID,
		Priority:        priority,
		EnrollmentValue: in.EnrollmentValue,
		Notes:           in.Notes,
		RegisteredAt:    now,
		LastInteraction: now,
		AppointmentAt:   in.AppointmentAt,
		AdditionalData:  in.AdditionalData,
	}
	if pr.AdditionalData == nil {
		pr.AdditionalData = map[string]any{}
	}
	if err := s.repo.Create(ctx, pr); err != nil {
		return nil, err
	}
	logger.Info("prospect created", "prospect_id", pr.ID, "origin", string(pr.Origin), "user_id", p.UserID)
	return pr, nil
}

// Update edits prospect fields. Advisors may not reassign prospects.
func (s *Service) Update(ctx context.Context, p access.Principal, id string, in UpdateInput) (*domain.Prospect, error) {
	current, err := s.Get(ctx, p, id)
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
	u := UpdateFields{
		Name:            in.Name,
		Phone:           in.Phone,
		Email:           in.Email,
		EnrollmentValue: in.EnrollmentValue,
		Notes:           in.Notes,
		AppointmentAt:   in.AppointmentAt,
		AdditionalData:  in.AdditionalData,
		LastInteraction: s.now().UTC(),
	}
	if in.EducationLevel != nil {
		v := domain.EducationLevel(*in.EducationLevel)
		u.EducationLevel = &v
	}
	if in.Origin != nil {
		v := domain.Channel(*in.Origin)
		u.Origin = &v
	}
	if in.Priority != nil {
		v := domain.Priority(*in.Priority)
		u.Priority = &v
	}
	if in.Status != nil {
		st, ok := domain.ParseProspectStatus(*in.Status)
		if !ok {
			verr.Add("estado", "must be a pipeline stage")
		}
		u.Status = &st
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}
	if in.AdvisorID != nil && !current.AssignedTo(*in.AdvisorID) {
		if err := access.CanAssignProspect(p); err != nil {
			return nil, err
		}
		if err := s.checkAdvisor(ctx, *in.AdvisorID); err != nil {
			return nil, err
		}
		u.AdvisorID = in.AdvisorID
	}
	return s.repo.Update(ctx, id, u)
}

// Assign hands a prospect to an advisor. Managers and directors only.
func (s *Service) Assign(ctx context.Context, p access.Principal, id, advisorID string) (*domain.Prospect, error) {
	if err := access.CanAssignProspect(p); err != nil {
		return nil, err
	}
	if strings.TrimSpace(advisorID) == "" {
		return nil, validate.Field("asesorId", "is required")
	}
	if err := s.checkAdvisor(ctx, advisorID); err != nil {
		return nil, err
	}
	pr, err := s.repo.Update(ctx, id, UpdateFields{AdvisorID: &advisorID, LastInteraction: s.now().UTC()})
	if err != nil {
		return nil, err
	}
	logger.Info("prospect assigned", "prospect_id", id, "advisor_id", advisorID, "user_id", p.UserID)
	return pr, nil
}

// Transition moves the prospect to any pipeline stage. Only membership is
// checked: backward moves and skipped stages are accepted.
func (s *Service) Transition(ctx context.Context, p access.Principal, id string, in TransitionInput) (*domain.Prospect, error) {
	current, err := s.Get(ctx, p, id)
	if err != nil {
		return nil, err
	}
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	st, ok := domain.ParseProspectStatus(in.Status)
	if !ok {
		return nil, validate.Field("estado", "must be a pipeline stage")
	}
	u := UpdateFields{
		Status:          &st,
		AppointmentAt:   in.AppointmentAt,
		LastInteraction: s.now().UTC(),
	}
	if st == domain.StatusEnrolled && in.EnrollmentValue != nil {
		u.EnrollmentValue = in.EnrollmentValue
	}
	pr, err := s.repo.Update(ctx, id, u)
	if err != nil {
		return nil, err
	}
	logger.Info("prospect status changed",
		"prospect_id", id,
		"from", string(current.Status),
		"to", string(st),
		"forward", domain.IsForward(current.Status, st),
	)
	return pr, nil
}

// Delete removes a prospect and everything that references it. Director
// only. Storage failures are logged and reported as ErrDeleteFailed.
func (s *Service) Delete(ctx context.Context, p access.Principal, id string) error {
	if err := access.CanDeleteProspect(p); err != nil {
		return err
	}
	ok, err := s.repo.Delete(ctx, id)
	if err != nil {
		logger.Error("prospect delete failed", "prospect_id", id, "error", err)
		return ErrDeleteFailed
	}
	if !ok {
		return ErrNotFound
	}
	logger.Info("prospect deleted", "prospect_id", id, "user_id", p.UserID)
	return nil
}

func (s *Service) checkAdvisor(ctx context.Context, id string) error {
	if s.users == nil {
		return nil
	}
	u, err := s.users.Get(ctx, id)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return validate.Field("asesorId", "must reference an existing user")
		}
		return fmt.Errorf("lookup advisor: %w", err)
	}
	if !u.Active {
		return validate.Field("asesorId", "must reference an active user")
	}
	return nil
}
