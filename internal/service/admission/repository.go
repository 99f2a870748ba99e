package admission

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ignite/admissions-crm/internal/domain"
)

// Repository defines the data access contract for admission documents and
// payments. Implementations must be safe for concurrent use.
type Repository interface {
	ListDocuments(ctx context.Context, prospectID string) ([]domain.Document, error)
	// GetDocument returns ErrDocumentNotFound if missing.
	GetDocument(ctx context.Context, id string) (*domain.Document, error)
	CreateDocument(ctx context.Context, d *domain.Document) error
	UpdateDocument(ctx context.Context, id string, u DocumentUpdate) (*domain.Document, error)

	ListPayments(ctx context.Context, prospectID string) ([]domain.Payment, error)
	// GetPayment returns ErrPaymentNotFound if missing.
	GetPayment(ctx context.Context, id string) (*domain.Payment, error)
	CreatePayment(ctx context.Context, p *domain.Payment) error
	UpdatePayment(ctx context.Context, id string, u PaymentUpdate) (*domain.Payment, error)
}

// DocumentUpdate holds the reviewable document fields.
type DocumentUpdate struct {
	Status     *domain.DocumentStatus
	Notes      *string
	ReviewedAt *time.Time
}

// PaymentUpdate holds the mutable payment fields.
type PaymentUpdate struct {
	Status *domain.PaymentStatus
	Amount *decimal.Decimal
	Method *string
	PaidAt *time.Time
}
