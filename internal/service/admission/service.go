package admission

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ignite/admissions-crm/internal/access"
	"github.com/ignite/admissions-crm/internal/domain"
	"github.com/ignite/admissions-crm/internal/pkg/logger"
	"github.com/ignite/admissions-crm/internal/pkg/validate"
	"github.com/ignite/admissions-crm/internal/service/prospect"
)

// Prospects is the slice of the prospect service admission relies on for
// ownership checks and the final stage change.
type Prospects interface {
	Get(ctx context.Context, p access.Principal, id string) (*domain.Prospect, error)
	Transition(ctx context.Context, p access.Principal, id string, in prospect.TransitionInput) (*domain.Prospect, error)
}

// Service implements the admission sub-flow.
type Service struct {
	repo      Repository
	prospects Prospects
	now       func() time.Time
}

// NewService creates an admission service.
func NewService(repo Repository, prospects Prospects) *Service {
	return &Service{repo: repo, prospects: prospects, now: time.Now}
}

// DocumentInput registers a document handed in by a prospect.
type DocumentInput struct {
	Kind     string `json:"tipo" validate:"required,oneof=id_card transcript certificate photo other"`
	FileName string `json:"nombreArchivo" validate:"required,max=255"`
	URL      string `json:"url" validate:"omitempty,url"`
	Notes    string `json:"notas"`
}

// ReviewInput approves or rejects a document.
type ReviewInput struct {
	Status string  `json:"estado" validate:"required,oneof=pending approved rejected"`
	Notes  *string `json:"notas"`
}

// PaymentInput records a payment.
type PaymentInput struct {
	Concept string          `json:"concepto" validate:"required,max=200"`
	Amount  decimal.Decimal `json:"monto" validate:"required,money"`
	Method  string          `json:"metodo" validate:"omitempty,max=50"`
	Status  string          `json:"estado" validate:"omitempty,oneof=pending completed failed"`
}

// PaymentUpdateInput changes a payment's settlement data.
type PaymentUpdateInput struct {
	Status *string          `json:"estado" validate:"omitempty,oneof=pending completed failed"`
	Amount *decimal.Decimal `json:"monto" validate:"omitempty,money"`
	Method *string          `json:"metodo" validate:"omitempty,max=50"`
}

// EnrollInput finalises admission. Value defaults to the completed
// payments total.
type EnrollInput struct {
	EnrollmentValue *decimal.Decimal `json:"valorInscripcion" validate:"omitempty,money"`
}

// Progress is the derived admission status of one prospect.
type Progress struct {
	ProspectID        string                `json:"prospectoId"`
	Status            domain.ProspectStatus `json:"estado"`
	Percentage        int                   `json:"porcentaje"`
	Documents         int                   `json:"documentos"`
	ApprovedDocuments int                   `json:"documentosAprobados"`
	Payments          int                   `json:"pagos"`
	CompletedPayments int                   `json:"pagosCompletados"`
	PaidTotal         decimal.Decimal       `json:"totalPagado"`
	CanEnroll         bool                  `json:"puedeInscribirse"`
}

// Documents lists the documents of a prospect visible to p.
func (s *Service) Documents(ctx context.Context, p access.Principal, prospectID string) ([]domain.Document, error) {
	if _, err := s.prospects.Get(ctx, p, prospectID); err != nil {
		return nil, err
	}
	return s.repo.ListDocuments(ctx, prospectID)
}

// AddDocument stores a pending document.
func (s *Service) AddDocument(ctx context.Context, p access.Principal, prospectID string, in DocumentInput) (*domain.Document, error) {
	if _, err := s.prospects.Get(ctx, p, prospectID); err != nil {
		return nil, err
	}
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	d := &domain.Document{
		ID:         uuid.New().String(),
		ProspectID: prospectID,
		Kind:       in.Kind,
		FileName:   in.FileName,
		URL:        in.URL,
		Status:     domain.DocumentPending,
		Notes:      in.Notes,
		UploadedAt: s.now().UTC(),
	}
	if err := s.repo.CreateDocument(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// ReviewDocument sets the review outcome. Approval never promotes the
// prospect's stage.
func (s *Service) ReviewDocument(ctx context.Context, p access.Principal, id string, in ReviewInput) (*domain.Document, error) {
	d, err := s.repo.GetDocument(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.prospects.Get(ctx, p, d.ProspectID); err != nil {
		return nil, err
	}
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	st := domain.DocumentStatus(in.Status)
	u := DocumentUpdate{Status: &st, Notes: in.Notes}
	if st != domain.DocumentPending {
		now := s.now().UTC()
		u.ReviewedAt = &now
	}
	return s.repo.UpdateDocument(ctx, id, u)
}

// Payments lists the payments of a prospect visible to p.
func (s *Service) Payments(ctx context.Context, p access.Principal, prospectID string) ([]domain.Payment, error) {
	if _, err := s.prospects.Get(ctx, p, prospectID); err != nil {
		return nil, err
	}
	return s.repo.ListPayments(ctx, prospectID)
}

// AddPayment records a payment, pending unless stated otherwise.
func (s *Service) AddPayment(ctx context.Context, p access.Principal, prospectID string, in PaymentInput) (*domain.Payment, error) {
	if _, err := s.prospects.Get(ctx, p, prospectID); err != nil {
		return nil, err
	}
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	if !in.Amount.IsPositive() {
		return nil, validate.Field("monto", "must be greater than 0")
	}
	now := s.now().UTC()
	pay := &domain.Payment{
		ID:         uuid.New().String(),
		ProspectID: prospectID,
		Concept:    in.Concept,
		Amount:     in.Amount,
		Method:     in.Method,
		Status:     domain.PaymentStatus(in.Status),
		CreatedAt:  now,
	}
	if pay.Status == "" {
		pay.Status = domain.PaymentPending
	}
	if pay.Status == domain.PaymentCompleted {
		pay.PaidAt = &now
	}
	if err := s.repo.CreatePayment(ctx, pay); err != nil {
		return nil, err
	}
	logger.Info("payment recorded", "payment_id", pay.ID, "prospect_id", prospectID, "status", string(pay.Status))
	return pay, nil
}

// UpdatePayment changes status, amount or method. Completing a payment
// stamps its paid-at time.
func (s *Service) UpdatePayment(ctx context.Context, p access.Principal, id string, in PaymentUpdateInput) (*domain.Payment, error) {
	pay, err := s.repo.GetPayment(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.prospects.Get(ctx, p, pay.ProspectID); err != nil {
		return nil, err
	}
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	if in.Amount != nil && !in.Amount.IsPositive() {
		return nil, validate.Field("monto", "must be greater than 0")
	}
	u := PaymentUpdate{Amount: in.Amount, Method: in.Method}
	if in.Status != nil {
		st := domain.PaymentStatus(*in.Status)
		u.Status = &st
		if st == domain.PaymentCompleted && pay.PaidAt == nil {
			now := s.now().UTC()
			u.PaidAt = &now
		}
	}
	return s.repo.UpdatePayment(ctx, id, u)
}

// Progress derives the admission percentage from the current records.
func (s *Service) Progress(ctx context.Context, p access.Principal, prospectID string) (*Progress, error) {
	pr, err := s.prospects.Get(ctx, p, prospectID)
	if err != nil {
		return nil, err
	}
	docs, err := s.repo.ListDocuments(ctx, prospectID)
	if err != nil {
		return nil, err
	}
	payments, err := s.repo.ListPayments(ctx, prospectID)
	if err != nil {
		return nil, err
	}
	out := &Progress{
		ProspectID: pr.ID,
		Status:     pr.Status,
		Percentage: domain.AdmissionProgress(pr.Status, docs, payments),
		Documents:  len(docs),
		Payments:   len(payments),
		PaidTotal:  domain.CompletedPaymentsTotal(payments),
		CanEnroll:  pr.Status == domain.StatusAdmitted && domain.HasCompletedPayment(payments),
	}
	for _, d := range docs {
		if d.Status == domain.DocumentApproved {
			out.ApprovedDocuments++
		}
	}
	for _, pay := range payments {
		if pay.Status == domain.PaymentCompleted {
			out.CompletedPayments++
		}
	}
	return out, nil
}

// Enroll moves an admitted prospect with a completed payment to enrolled.
func (s *Service) Enroll(ctx context.Context, p access.Principal, prospectID string, in EnrollInput) (*domain.Prospect, error) {
	pr, err := s.prospects.Get(ctx, p, prospectID)
	if err != nil {
		return nil, err
	}
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	payments, err := s.repo.ListPayments(ctx, prospectID)
	if err != nil {
		return nil, err
	}
	if pr.Status != domain.StatusAdmitted || !domain.HasCompletedPayment(payments) {
		return nil, ErrNotEligible
	}
	value := in.EnrollmentValue
	if value == nil {
		total := domain.CompletedPaymentsTotal(payments)
		value = &total
	}
	return s.prospects.Transition(ctx, p, prospectID, prospect.TransitionInput{
		Status:          string(domain.StatusEnrolled),
		EnrollmentValue: value,
	})
}
