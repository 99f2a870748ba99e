package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ignite/admissions-crm/internal/pkg/httputil"
	"github.com/ignite/admissions-crm/internal/service/form"
)

// ListForms returns every lead form.
//
//	GET /api/formularios
func (h *Handlers) ListForms(w http.ResponseWriter, r *http.Request) {
	forms, err := h.forms.List(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	httputil.OK(w, forms)
}

// CreateForm stores a lead form.
//
//	POST /api/formularios
func (h *Handlers) CreateForm(w http.ResponseWriter, r *http.Request) {
	var in form.Input
	if !httputil.Decode(w, r, &in) {
		return
	}
	f, err := h.forms.Create(r.Context(), in)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	httputil.Created(w, f)
}

// GetForm returns one lead form.
//
//	GET /api/formularios/{id}
func (h *Handlers) GetForm(w http.ResponseWriter, r *http.Request) {
	f, err := h.forms.Get(r.Context(), urlID(r))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	httputil.OK(w, f)
}

// UpdateForm replaces a lead form.
//
//	PUT /api/formularios/{id}
func (h *Handlers) UpdateForm(w http.ResponseWriter, r *http.Request) {
	var in form.Input
	if !httputil.Decode(w, r, &in) {
		return
	}
	f, err := h.forms.Update(r.Context(), urlID(r), in)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	httputil.OK(w, f)
}

// DeleteForm removes a lead form.
//
//	DELETE /api/formularios/{id}
func (h *Handlers) DeleteForm(w http.ResponseWriter, r *http.Request) {
	if err := h.forms.Delete(r.Context(), urlID(r)); err != nil {
		respondServiceError(w, err)
		return
	}
	httputil.OK(w, message("form deleted"))
}

// PublicForm returns what an anonymous visitor needs to render a form.
//
//	GET /api/public/form/{enlace}
func (h *Handlers) PublicForm(w http.ResponseWriter, r *http.Request) {
	v, err := h.forms.Public(r.Context(), chi.URLParam(r, "enlace"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	httputil.OK(w, v)
}

// SubmitPublicForm captures a lead.
//
//	POST /api/public/form/{enlace}/submit
func (h *Handlers) SubmitPublicForm(w http.ResponseWriter, r *http.Request) {
	var in form.SubmissionInput
	if !httputil.Decode(w, r, &in) {
		return
	}
	p, err := h.forms.Submit(r.Context(), chi.URLParam(r, "enlace"), in)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	httputil.Created(w, map[string]any{
		"message":     "registro recibido",
		"prospectoId": p.ID,
	})
}
