package admission

import "errors"

// Sentinel errors for the admission service layer.
var (
	ErrDocumentNotFound = errors.New("document not found")
	ErrPaymentNotFound  = errors.New("payment not found")
	// ErrNotEligible means enrollment was requested before the prospect was
	// admitted with at least one completed payment.
	ErrNotEligible = errors.New("prospect must be admitted with a completed payment before enrolling")
)
