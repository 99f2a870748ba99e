package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DocumentStatus is the review state of an admission document.
type DocumentStatus string

const (
	DocumentPending  DocumentStatus = "pending"
	DocumentApproved DocumentStatus = "approved"
	DocumentRejected DocumentStatus = "rejected"
)

// Valid reports whether s is a known document status.
func (s DocumentStatus) Valid() bool {
	return s == DocumentPending || s == DocumentApproved || s == DocumentRejected
}

// Document is a file a prospect hands in during admission.
type Document struct {
	ID         string         `json:"id"`
	ProspectID string         `json:"prospectoId"`
	Kind       string         `json:"tipo"`
	FileName   string         `json:"nombreArchivo"`
	URL        string         `json:"url"`
	Status     DocumentStatus `json:"estado"`
	Notes      string         `json:"notas"`
	UploadedAt time.Time      `json:"fechaCarga"`
	ReviewedAt *time.Time     `json:"fechaRevision"`
}

// PaymentStatus is the settlement state of an admission payment.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
)

// Valid reports whether s is a known payment status.
func (s PaymentStatus) Valid() bool {
	return s == PaymentPending || s == PaymentCompleted || s == PaymentFailed
}

// Payment is an enrollment or admission fee paid by a prospect.
type Payment struct {
	ID         string          `json:"id"`
	ProspectID string          `json:"prospectoId"`
	Concept    string          `json:"concepto"`
	Amount     decimal.Decimal `json:"monto"`
	Method     string          `json:"metodo"`
	Status     PaymentStatus   `json:"estado"`
	PaidAt     *time.Time      `json:"fechaPago"`
	CreatedAt  time.Time       `json:"fechaCreacion"`
}

// AdmissionProgress derives the admission completion percentage from the
// current flags. Each threshold is satisfied independently and the highest
// one wins; nothing is stored.
func AdmissionProgress(status ProspectStatus, docs []Document, payments []Payment) int {
	progress := 0
	if status == StatusDocuments {
		progress = 25
	}
	for _, d := range docs {
		if d.Status == DocumentApproved {
			progress = max(progress, 50)
			break
		}
	}
	if status == StatusAdmitted {
		progress = max(progress, 75)
	}
	if status == StatusEnrolled || HasCompletedPayment(payments) {
		progress = 100
	}
	return progress
}

// HasCompletedPayment reports whether any payment settled.
func HasCompletedPayment(payments []Payment) bool {
	for _, p := range payments {
		if p.Status == PaymentCompleted {
			return true
		}
	}
	return false
}

// CompletedPaymentsTotal sums settled payments.
func CompletedPaymentsTotal(payments []Payment) decimal.Decimal {
	total := decimal.Zero
	for _, p := range payments {
		if p.Status == PaymentCompleted {
			total = total.Add(p.Amount)
		}
	}
	return total
}
