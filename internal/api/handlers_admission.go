package api

import (
	"net/http"

	"github.com/ignite/admissions-crm/internal/pkg/httputil"
	"github.com/ignite/admissions-crm/internal/service/admission"
)

// ListDocuments returns the admission documents of a prospect.
//
//	GET /api/prospectos/{id}/documentos
func (h *Handlers) ListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := h.admission.Documents(r.Context(), principal(r), urlID(r))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	httputil.OK(w, docs)
}

// AddDocument records a handed-in document as pending review.
//
//	POST /api/prospectos/{id}/documentos
func (h *Handlers) AddDocument(w http.ResponseWriter, r *http.Request) {
	var in admission.DocumentInput
	if !httputil.Decode(w, r, &in) {
		return
	}
	doc, err := h.admission.AddDocument(r.Context(), principal(r), urlID(r), in)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	httputil.Created(w, doc)
}

// ReviewDocument approves or rejects a document.
//
//	PUT /api/documentos/{id}
func (h *Handlers) ReviewDocument(w http.ResponseWriter, r *http.Request) {
	var in admission.ReviewInput
	if !httputil.Decode(w, r, &in) {
		return
	}
	doc, err := h.admission.ReviewDocument(r.Context(), principal(r), urlID(r), in)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	httputil.OK(w, doc)
}

// ListPayments returns the payments of a prospect.
//
//	GET /api/prospectos/{id}/pagos
func (h *Handlers) ListPayments(w http.ResponseWriter, r *http.Request) {
	payments, err := h.admission.Payments(r.Context(), principal(r), urlID(r))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	httputil.OK(w, payments)
}

// AddPayment records a payment.
//
//	POST /api/prospectos/{id}/pagos
func (h *Handlers) AddPayment(w http.ResponseWriter, r *http.Request) {
	var in admission.PaymentInput
	if !httputil.Decode(w, r, &in) {
		return
	}
	pay, err := h.admission.AddPayment(r.Context(), principal(r), urlID(r), in)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	httputil.Created(w, pay)
}

// UpdatePayment changes the settlement data of a payment.
//
//	PUT /api/pagos/{id}
func (h *Handlers) UpdatePayment(w http.ResponseWriter, r *http.Request) {
	var in admission.PaymentUpdateInput
	if !httputil.Decode(w, r, &in) {
		return
	}
	pay, err := h.admission.UpdatePayment(r.Context(), principal(r), urlID(r), in)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	httputil.OK(w, pay)
}

// AdmissionProgress returns the derived admission completion.
//
//	GET /api/prospectos/{id}/progreso
func (h *Handlers) AdmissionProgress(w http.ResponseWriter, r *http.Request) {
	prog, err := h.admission.Progress(r.Context(), principal(r), urlID(r))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	httputil.OK(w, prog)
}

// Enroll closes admission for an eligible prospect. An empty body is
// accepted and enrolls at the completed payments total.
//
//	POST /api/prospectos/{id}/inscribir
func (h *Handlers) Enroll(w http.ResponseWriter, r *http.Request) {
	var in admission.EnrollInput
	if r.ContentLength != 0 && !httputil.Decode(w, r, &in) {
		return
	}
	p, err := h.admission.Enroll(r.Context(), principal(r), urlID(r), in)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	httputil.OK(w, p)
}
