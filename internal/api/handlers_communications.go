package api

import (
	"net/http"

	"github.com/ignite/admissions-crm/internal/domain"
	"github.com/ignite/admissions-crm/internal/pkg/httputil"
	"github.com/ignite/admissions-crm/internal/service/communication"
)

// ListCommunications returns a page of communications. Advisors only see
// what they logged.
//
//	GET /api/comunicaciones?page=&limit=&prospectoId=&usuarioId=&tipo=&direccion=&estado=&desde=&hasta=
func (h *Handlers) ListCommunications(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := communication.ListFilter{
		ProspectID: q.Get("prospectoId"),
		UserID:     q.Get("usuarioId"),
		Type:       domain.CommunicationType(q.Get("tipo")),
		Direction:  domain.CommunicationDirection(q.Get("direccion")),
		State:      domain.CommunicationState(q.Get("estado")),
	}
	win, ok, err := explicitWindow(r)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	if ok {
		f.From, f.To = win.From, win.To
	}

	page := h.pager.Parse(r)
	f.Limit, f.Offset = page.Limit, page.Offset

	items, total, err := h.communications.List(r.Context(), principal(r), f)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	httputil.OK(w, page.Wrap(items, total))
}

// CreateCommunication logs an interaction and bumps the prospect's last
// interaction.
//
//	POST /api/comunicaciones
func (h *Handlers) CreateCommunication(w http.ResponseWriter, r *http.Request) {
	var in communication.CreateInput
	if !httputil.Decode(w, r, &in) {
		return
	}
	c, err := h.communications.Create(r.Context(), principal(r), in)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	httputil.Created(w, c)
}

// GetCommunication returns one communication.
//
//	GET /api/comunicaciones/{id}
func (h *Handlers) GetCommunication(w http.ResponseWriter, r *http.Request) {
	c, err := h.communications.Get(r.Context(), principal(r), urlID(r))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	httputil.OK(w, c)
}

// UpdateCommunication edits the content or outcome of a communication.
//
//	PUT /api/comunicaciones/{id}
func (h *Handlers) UpdateCommunication(w http.ResponseWriter, r *http.Request) {
	var in communication.UpdateInput
	if !httputil.Decode(w, r, &in) {
		return
	}
	c, err := h.communications.Update(r.Context(), principal(r), urlID(r), in)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	httputil.OK(w, c)
}

// DeleteCommunication removes a communication.
//
//	DELETE /api/comunicaciones/{id}
func (h *Handlers) DeleteCommunication(w http.ResponseWriter, r *http.Request) {
	if err := h.communications.Delete(r.Context(), principal(r), urlID(r)); err != nil {
		respondServiceError(w, err)
		return
	}
	httputil.OK(w, message("communication deleted"))
}

// CommunicationStats aggregates the caller's visible communications.
//
//	GET /api/comunicaciones/stats?usuarioId=&ventana=&desde=&hasta=
func (h *Handlers) CommunicationStats(w http.ResponseWriter, r *http.Request) {
	win, err := h.optionalWindow(r)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	stats, err := h.metrics.CommunicationStats(r.Context(), principal(r), r.URL.Query().Get("usuarioId"), win)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	httputil.OK(w, stats)
}
