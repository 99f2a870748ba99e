package form

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/ignite/admissions-crm/internal/domain"
	"github.com/ignite/admissions-crm/internal/pkg/logger"
	"github.com/ignite/admissions-crm/internal/pkg/validate"
	"github.com/ignite/admissions-crm/internal/service/campaign"
)

// ProspectCreator stores prospects captured by a form.
type ProspectCreator interface {
	Create(ctx context.Context, p *domain.Prospect) error
}

// Campaigns resolves and links the form's campaign.
type Campaigns interface {
	Get(ctx context.Context, id string) (*domain.Campaign, error)
	Link(ctx context.Context, l *domain.CampaignProspect) error
}

// Service implements lead form management and public submission.
type Service struct {
	repo      Repository
	prospects ProspectCreator
	campaigns Campaigns
	now       func() time.Time
}

// NewService creates a form service.
func NewService(repo Repository, prospects ProspectCreator, campaigns Campaigns) *Service {
	return &Service{repo: repo, prospects: prospects, campaigns: campaigns, now: time.Now}
}

var slugRe = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// Input holds the fields of a lead form. Update replaces every field.
type Input struct {
	Name        string   `json:"nombre" validate:"required,max=200"`
	Slug        string   `json:"enlace" validate:"omitempty,max=80"`
	Title       string   `json:"titulo" validate:"required,max=200"`
	Description string   `json:"descripcion"`
	Origin      string   `json:"origen" validate:"required,oneof=facebook instagram google tiktok linkedin email whatsapp website event referral other"`
	CampaignID  *string  `json:"campanaId"`
	AdvisorID   *string  `json:"asesorId"`
	Active      *bool    `json:"activo"`
	Fields      []string `json:"campos" validate:"omitempty,dive,oneof=nombre telefono email nivelEducativo notas"`
}

// SubmissionInput is what a visitor sends through a public form.
type SubmissionInput struct {
	Name           string         `json:"nombre" validate:"required,max=200"`
	Phone          string         `json:"telefono" validate:"required,max=40"`
	Email          string         `json:"email" validate:"omitempty,email"`
	EducationLevel string         `json:"nivelEducativo" validate:"omitempty,oneof=high_school technical bachelor master doctorate other"`
	Notes          string         `json:"notas" validate:"omitempty,max=2000"`
	Extra          map[string]any `json:"datosAdicionales"`
}

func (s *Service) check(ctx context.Context, in *Input) error {
	verr := &validate.Error{}
	if err := validate.Struct(*in); err != nil {
		ve, ok := validate.As(err)
		if !ok {
			return err
		}
		verr = ve
	}
	in.Slug = strings.ToLower(strings.TrimSpace(in.Slug))
	if in.Slug != "" && !slugRe.MatchString(in.Slug) {
		verr.Add("enlace", "must contain lowercase letters, digits and dashes")
	}
	if in.CampaignID != nil && *in.CampaignID == "" {
		in.CampaignID = nil
	}
	if in.AdvisorID != nil && *in.AdvisorID == "" {
		in.AdvisorID = nil
	}
	if in.CampaignID != nil && s.campaigns != nil {
		if _, err := s.campaigns.Get(ctx, *in.CampaignID); errors.Is(err, campaign.ErrNotFound) {
			verr.Add("campanaId", "must reference an existing campaign")
		} else if err != nil {
			return fmt.Errorf("lookup campaign: %w", err)
		}
	}
	return verr.OrNil()
}

// Get returns a single form.
func (s *Service) Get(ctx context.Context, id string) (*domain.LeadForm, error) {
	return s.repo.Get(ctx, id)
}

// List returns every form.
func (s *Service) List(ctx context.Context) ([]domain.LeadForm, error) {
	return s.repo.List(ctx)
}

// Create stores a form. A link is derived from the name when none is given.
func (s *Service) Create(ctx context.Context, in Input) (*domain.LeadForm, error) {
	if err := s.check(ctx, &in); err != nil {
		return nil, err
	}
	id := uuid.New().String()
	slug := in.Slug
	if slug == "" {
		slug = Slugify(in.Name) + "-" + id[:6]
	}
	f := &domain.LeadForm{
		ID:          id,
		Name:        strings.TrimSpace(in.Name),
		Slug:        slug,
		Title:       in.Title,
		Description: in.Description,
		Origin:      domain.Channel(in.Origin),
		CampaignID:  in.CampaignID,
		AdvisorID:   in.AdvisorID,
		Active:      in.Active == nil || *in.Active,
		Fields:      in.Fields,
		CreatedAt:   s.now().UTC(),
	}
	if f.Fields == nil {
		f.Fields = []string{}
	}
	if err := s.repo.Create(ctx, f); err != nil {
		return nil, err
	}
	logger.Info("lead form created", "form_id", f.ID, "slug", f.Slug)
	return f, nil
}

// Update replaces the form's fields. An empty link keeps the current one.
func (s *Service) Update(ctx context.Context, id string, in Input) (*domain.LeadForm, error) {
	f, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.check(ctx, &in); err != nil {
		return nil, err
	}
	f.Name = strings.TrimSpace(in.Name)
	if in.Slug != "" {
		f.Slug = in.Slug
	}
	f.Title = in.Title
	f.Description = in.Description
	f.Origin = domain.Channel(in.Origin)
	f.CampaignID = in.CampaignID
	f.AdvisorID = in.AdvisorID
	if in.Active != nil {
		f.Active = *in.Active
	}
	if in.Fields != nil {
		f.Fields = in.Fields
	}
	if err := s.repo.Update(ctx, f); err != nil {
		return nil, err
	}
	return f, nil
}

// Delete removes a form. Prospects it captured are kept.
func (s *Service) Delete(ctx context.Context, id string) error {
	ok, err := s.repo.Delete(ctx, id)
	if err != nil {
		logger.Error("form delete failed", "form_id", id, "error", err)
		return ErrDeleteFailed
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

// Public returns the anonymous view of an active form.
func (s *Service) Public(ctx context.Context, slug string) (*domain.PublicFormView, error) {
	f, err := s.activeBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	v := f.Public()
	return &v, nil
}

// Submit creates a new prospect from a public submission and links it to
// the form's campaign when one is set.
func (s *Service) Submit(ctx context.Context, slug string, in SubmissionInput) (*domain.Prospect, error) {
	f, err := s.activeBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if err := validate.Struct(in); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	data := make(map[string]any, len(in.Extra)+1)
	for k, v := range in.Extra {
		data[k] = v
	}
	data["formulario"] = f.Slug

	p := &domain.Prospect{
		ID:              uuid.New().String(),
		Name:            strings.TrimSpace(in.Name),
		Phone:           strings.TrimSpace(in.Phone),
		Email:           strings.TrimSpace(in.Email),
		EducationLevel:  domain.EducationLevel(in.EducationLevel),
		Origin:          f.Origin,
		Status:          domain.StatusNew,
		AdvisorID:       f.AdvisorID,
		Priority:        domain.PriorityMedium,
		Notes:           in.Notes,
		RegisteredAt:    now,
		LastInteraction: now,
		AdditionalData:  data,
	}
	if err := s.prospects.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("create prospect from form: %w", err)
	}

	if f.CampaignID != nil && s.campaigns != nil {
		link := &domain.CampaignProspect{
			ID:           uuid.New().String(),
			CampaignID:   *f.CampaignID,
			ProspectID:   p.ID,
			AssociatedAt: now,
		}
		if err := s.campaigns.Link(ctx, link); err != nil {
			// the prospect is already captured; losing attribution is not fatal
			logger.Warn("form submission campaign link failed", "form_id", f.ID, "campaign_id", *f.CampaignID, "error", err)
		}
	}
	logger.Info("lead captured", "form_id", f.ID, "prospect_id", p.ID, "email", p.Email)
	return p, nil
}

func (s *Service) activeBySlug(ctx context.Context, slug string) (*domain.LeadForm, error) {
	f, err := s.repo.GetBySlug(ctx, strings.ToLower(strings.TrimSpace(slug)))
	if err != nil {
		return nil, err
	}
	if !f.Active {
		return nil, ErrNotFound
	}
	return f, nil
}

// Slugify strips accents, lowercases s and joins its alphanumeric runs
// with dashes: "Admisión Otoño 2025" → "admision-otono-2025".
func Slugify(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if plain, _, err := transform.String(t, s); err == nil {
		s = plain
	}
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case b.Len() > 0 && !dash:
			b.WriteByte('-')
			dash = true
		}
	}
	out := strings.TrimSuffix(b.String(), "-")
	if out == "" {
		return "form"
	}
	return out
}
