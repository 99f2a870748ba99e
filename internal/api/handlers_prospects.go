package api

import (
	"net/http"

	"github.com/ignite/admissions-crm/internal/domain"
	"github.com/ignite/admissions-crm/internal/metrics"
	"github.com/ignite/admissions-crm/internal/pkg/httputil"
	"github.com/ignite/admissions-crm/internal/service/communication"
	"github.com/ignite/admissions-crm/internal/service/prospect"
)

// prospectFilter reads the list filters shared by the prospect list and
// stats endpoints.
func prospectFilter(r *http.Request) (prospect.ListFilter, string) {
	q := r.URL.Query()
	f := prospect.ListFilter{
		AdvisorID: q.Get("asesorId"),
		Search:    q.Get("buscar"),
	}
	if v := q.Get("estado"); v != "" {
		st, ok := domain.ParseProspectStatus(v)
		if !ok {
			return f, "invalid estado " + v
		}
		f.Status = st
	}
	if v := q.Get("origen"); v != "" {
		if !domain.Channel(v).Valid() {
			return f, "invalid origen " + v
		}
		f.Origin = domain.Channel(v)
	}
	if v := q.Get("prioridad"); v != "" {
		if !domain.Priority(v).Valid() {
			return f, "invalid prioridad " + v
		}
		f.Priority = domain.Priority(v)
	}
	return f, ""
}

// ListProspects returns a page of prospects visible to the caller.
//
//	GET /api/prospectos?page=&limit=&estado=&origen=&prioridad=&asesorId=&buscar=&desde=&hasta=
func (h *Handlers) ListProspects(w http.ResponseWriter, r *http.Request) {
	f, bad := prospectFilter(r)
	if bad != "" {
		httputil.BadRequest(w, bad)
		return
	}
	win, ok, err := explicitWindow(r)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	if ok {
		f.RegisteredFrom, f.RegisteredTo = win.From, win.To
	}

	page := h.pager.Parse(r)
	f.Limit, f.Offset = page.Limit, page.Offset

	items, total, err := h.prospects.List(r.Context(), principal(r), f)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	httputil.OK(w, page.Wrap(items, total))
}

// CreateProspect registers a new prospect.
//
//	POST /api/prospectos
func (h *Handlers) CreateProspect(w http.ResponseWriter, r *http.Request) {
	var in prospect.CreateInput
	if !httputil.Decode(w, r, &in) {
		return
	}
	p, err := h.prospects.Create(r.Context(), principal(r), in)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	httputil.Created(w, p)
}

// GetProspect returns one prospect.
//
//	GET /api/prospectos/{id}
func (h *Handlers) GetProspect(w http.ResponseWriter, r *http.Request) {
	p, err := h.prospects.Get(r.Context(), principal(r), urlID(r))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	httputil.OK(w, p)
}

// UpdateProspect edits a prospect.
//
//	PUT /api/prospectos/{id}
func (h *Handlers) UpdateProspect(w http.ResponseWriter, r *http.Request) {
	var in prospect.UpdateInput
	if !httputil.Decode(w, r, &in) {
		return
	}
	p, err := h.prospects.Update(r.Context(), principal(r), urlID(r), in)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	httputil.OK(w, p)
}

// DeleteProspect removes a prospect and everything hanging off it.
//
//	DELETE /api/prospectos/{id}
func (h *Handlers) DeleteProspect(w http.ResponseWriter, r *http.Request) {
	if err := h.prospects.Delete(r.Context(), principal(r), urlID(r)); err != nil {
		respondServiceError(w, err)
		return
	}
	httputil.OK(w, message("prospect deleted"))
}

type assignRequest struct {
	AdvisorID string `json:"asesorId"`
}

// AssignProspect hands a prospect to an advisor.
//
//	PUT /api/prospectos/{id}/asignar
func (h *Handlers) AssignProspect(w http.ResponseWriter, r *http.Request) {
	var req assignRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	p, err := h.prospects.Assign(r.Context(), principal(r), urlID(r), req.AdvisorID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	httputil.OK(w, p)
}

// TransitionProspect moves a prospect to another pipeline stage.
//
//	PUT /api/prospectos/{id}/estado
func (h *Handlers) TransitionProspect(w http.ResponseWriter, r *http.Request) {
	var in prospect.TransitionInput
	if !httputil.Decode(w, r, &in) {
		return
	}
	p, err := h.prospects.Transition(r.Context(), principal(r), urlID(r), in)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	httputil.OK(w, p)
}

// ProspectStats aggregates the prospects visible to the caller.
//
//	GET /api/prospectos/stats?asesorId=&origen=&estado=&campanaId=&ventana=&desde=&hasta=
func (h *Handlers) ProspectStats(w http.ResponseWriter, r *http.Request) {
	lf, bad := prospectFilter(r)
	if bad != "" {
		httputil.BadRequest(w, bad)
		return
	}
	win, err := h.optionalWindow(r)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	stats, err := h.metrics.ProspectStats(r.Context(), principal(r), metrics.Filter{
		Window:     win,
		AdvisorID:  lf.AdvisorID,
		Origin:     lf.Origin,
		Status:     lf.Status,
		CampaignID: r.URL.Query().Get("campanaId"),
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}
	httputil.OK(w, stats)
}

// ProspectCommunications returns the interaction history of one prospect.
//
//	GET /api/prospectos/{id}/comunicaciones?page=&limit=
func (h *Handlers) ProspectCommunications(w http.ResponseWriter, r *http.Request) {
	page := h.pager.Parse(r)
	items, total, err := h.communications.ListForProspect(r.Context(), principal(r), urlID(r), communication.ListFilter{
		Limit:  page.Limit,
		Offset: page.Offset,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}
	httputil.OK(w, page.Wrap(items, total))
}
