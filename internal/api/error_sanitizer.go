package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/ignite/admissions-crm/internal/access"
	"github.com/ignite/admissions-crm/internal/pkg/httputil"
	"github.com/ignite/admissions-crm/internal/pkg/logger"
	"github.com/ignite/admissions-crm/internal/pkg/validate"
	"github.com/ignite/admissions-crm/internal/service/admission"
	"github.com/ignite/admissions-crm/internal/service/campaign"
	"github.com/ignite/admissions-crm/internal/service/communication"
	"github.com/ignite/admissions-crm/internal/service/form"
	"github.com/ignite/admissions-crm/internal/service/prospect"
	"github.com/ignite/admissions-crm/internal/service/report"
	"github.com/ignite/admissions-crm/internal/service/user"
)

// =============================================================================
// ERROR SANITIZER
// Internal errors (database details, file paths) are never returned to API
// consumers. 5xx responses carry a generic safe message while the full error
// is logged server-side.
// =============================================================================

var notFoundErrors = []error{
	prospect.ErrNotFound,
	communication.ErrNotFound,
	campaign.ErrNotFound,
	campaign.ErrLinkNotFound,
	admission.ErrDocumentNotFound,
	admission.ErrPaymentNotFound,
	report.ErrNotFound,
	form.ErrNotFound,
	user.ErrNotFound,
}

var conflictErrors = []error{
	campaign.ErrAlreadyLinked,
	form.ErrSlugTaken,
	admission.ErrNotEligible,
	user.ErrUsernameTaken,
}

// respondServiceError maps a service error onto the HTTP error envelope.
func respondServiceError(w http.ResponseWriter, err error) {
	if ve, ok := validate.As(err); ok {
		httputil.ValidationError(w, "validation failed", ve.Details)
		return
	}
	if errors.Is(err, access.ErrForbidden) {
		httputil.Forbidden(w)
		return
	}
	for _, target := range notFoundErrors {
		if errors.Is(err, target) {
			httputil.NotFound(w, target.Error())
			return
		}
	}
	for _, target := range conflictErrors {
		if errors.Is(err, target) {
			httputil.BadRequest(w, target.Error())
			return
		}
	}
	respondSafeError(w, http.StatusInternalServerError, err, safeErrorMessage(http.StatusInternalServerError, err))
}

// sanitizedError logs the full internal error and returns a public-safe message.
func sanitizedError(code int, internalErr error, publicMsg string) string {
	if internalErr != nil {
		logger.Error("request failed", "status", code, "public", publicMsg, "error", internalErr)
	}
	return publicMsg
}

// respondSafeError logs the internal error and sends a sanitized JSON error
// response to the client.
func respondSafeError(w http.ResponseWriter, code int, internalErr error, publicMsg string) {
	msg := sanitizedError(code, internalErr, publicMsg)
	httputil.Error(w, code, msg)
}

// safeErrorMessage maps common internal error patterns to public-safe messages.
// For 400-level errors, the original message is returned.
// For 500-level errors, this returns a generic safe message.
func safeErrorMessage(code int, internalErr error) string {
	if code < 500 {
		if internalErr != nil {
			return internalErr.Error()
		}
		return "Bad request"
	}

	if internalErr == nil {
		return "An internal error occurred"
	}

	errStr := strings.ToLower(internalErr.Error())

	switch {
	case strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "connection reset") ||
		strings.Contains(errStr, "no such host") ||
		strings.Contains(errStr, "dial tcp"):
		return "Service temporarily unavailable"

	case strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "deadline exceeded") ||
		strings.Contains(errStr, "context canceled"):
		return "Request timed out"

	case strings.Contains(errStr, "sql") ||
		strings.Contains(errStr, "pq:") ||
		strings.Contains(errStr, "query") ||
		strings.Contains(errStr, "scan") ||
		strings.Contains(errStr, "transaction") ||
		strings.Contains(errStr, "database"):
		return "A database error occurred"

	case strings.Contains(errStr, "permission") ||
		strings.Contains(errStr, "access denied"):
		return "Access denied"

	default:
		return "An internal error occurred"
	}
}
