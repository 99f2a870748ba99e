package report

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ignite/admissions-crm/internal/domain"
	"github.com/ignite/admissions-crm/internal/pkg/logger"
	"github.com/ignite/admissions-crm/internal/pkg/validate"
)

// Service implements report definition management.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates a report definition service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Input holds the fields of a report definition. Update replaces every
// field, Active included.
type Input struct {
	Name       string              `json:"nombre" validate:"required,max=200"`
	Type       string              `json:"tipo" validate:"required,oneof=executive advisors campaigns conversions"`
	Frequency  string              `json:"frecuencia" validate:"required,oneof=daily weekly monthly"`
	Recipients []string            `json:"destinatarios" validate:"omitempty,dive,email"`
	Config     domain.ReportConfig `json:"configuracion"`
	Active     *bool               `json:"activo"`
}

func (in Input) check() error {
	verr := &validate.Error{}
	if err := validate.Struct(in); err != nil {
		ve, ok := validate.As(err)
		if !ok {
			return err
		}
		verr = ve
	}
	if f := in.Config.Format; f != "" && !f.Valid() {
		verr.Add("configuracion.formato", "must be one of: csv, excel, pdf")
	}
	if w := in.Config.Filters.Window; w != "" && w != "last_4_weeks" && w != "prior_month" && w != "month_to_date" {
		verr.Add("configuracion.filtros.ventana", "must be one of: last_4_weeks, prior_month, month_to_date")
	}
	if st := in.Config.Filters.Status; st != "" && !st.Valid() {
		verr.Add("configuracion.filtros.estado", "must be a pipeline stage")
	}
	if o := in.Config.Filters.Origin; o != "" && !o.Valid() {
		verr.Add("configuracion.filtros.origen", "must be a known channel")
	}
	return verr.OrNil()
}

// Get returns a single definition.
func (s *Service) Get(ctx context.Context, id string) (*domain.ReportDefinition, error) {
	return s.repo.Get(ctx, id)
}

// List returns definitions matching the filter.
func (s *Service) List(ctx context.Context, f ListFilter) ([]domain.ReportDefinition, error) {
	return s.repo.List(ctx, f)
}

// Create stores a definition with its first next-run computed from now.
func (s *Service) Create(ctx context.Context, in Input) (*domain.ReportDefinition, error) {
	if err := in.check(); err != nil {
		return nil, err
	}
	now := s.now().UTC()
	freq := domain.Frequency(in.Frequency)
	next := freq.Next(now)
	d := &domain.ReportDefinition{
		ID:         uuid.New().String(),
		Name:       strings.TrimSpace(in.Name),
		Type:       domain.ReportType(in.Type),
		Frequency:  freq,
		Recipients: nonNil(in.Recipients),
		Config:     in.Config,
		Active:     in.Active == nil || *in.Active,
		NextRun:    &next,
		CreatedAt:  now,
	}
	if err := s.repo.Create(ctx, d); err != nil {
		return nil, err
	}
	logger.Info("report definition created", "report_id", d.ID, "type", string(d.Type), "frequency", string(d.Frequency))
	return d, nil
}

// Update replaces the definition and recomputes next-run from the last
// run, or from now when it never ran.
func (s *Service) Update(ctx context.Context, id string, in Input) (*domain.ReportDefinition, error) {
	d, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := in.check(); err != nil {
		return nil, err
	}
	d.Name = strings.TrimSpace(in.Name)
	d.Type = domain.ReportType(in.Type)
	d.Frequency = domain.Frequency(in.Frequency)
	d.Recipients = nonNil(in.Recipients)
	d.Config = in.Config
	if in.Active != nil {
		d.Active = *in.Active
	}
	base := s.now().UTC()
	if d.LastRun != nil {
		base = *d.LastRun
	}
	next := d.Frequency.Next(base)
	d.NextRun = &next
	if err := s.repo.Update(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// Delete removes a definition.
func (s *Service) Delete(ctx context.Context, id string) error {
	ok, err := s.repo.Delete(ctx, id)
	if err != nil {
		logger.Error("report delete failed", "report_id", id, "error", err)
		return ErrDeleteFailed
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

// Due returns the definitions the scheduler should execute now.
func (s *Service) Due(ctx context.Context, now time.Time) ([]domain.ReportDefinition, error) {
	return s.repo.Due(ctx, now)
}

// MarkRun advances the schedule after a successful execution.
func (s *Service) MarkRun(ctx context.Context, d *domain.ReportDefinition, at time.Time) (time.Time, error) {
	next := d.Frequency.Next(at)
	if err := s.repo.MarkRun(ctx, d.ID, at, next); err != nil {
		return time.Time{}, err
	}
	d.LastRun = &at
	d.NextRun = &next
	return next, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
