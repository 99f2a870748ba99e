package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ignite/admissions-crm/internal/access"
	"github.com/ignite/admissions-crm/internal/domain"
	"github.com/ignite/admissions-crm/internal/pkg/httputil"
	"github.com/ignite/admissions-crm/internal/service/campaign"
)

// ListCampaigns returns a page of campaigns.
//
//	GET /api/campanas?page=&limit=&estado=&canal=&buscar=
func (h *Handlers) ListCampaigns(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := campaign.ListFilter{
		State:   domain.CampaignState(q.Get("estado")),
		Channel: domain.Channel(q.Get("canal")),
		Search:  q.Get("buscar"),
	}
	page := h.pager.Parse(r)
	f.Limit, f.Offset = page.Limit, page.Offset

	items, total, err := h.campaigns.List(r.Context(), principal(r), f)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	httputil.OK(w, page.Wrap(items, total))
}

// CreateCampaign stores a campaign.
//
//	POST /api/campanas
func (h *Handlers) CreateCampaign(w http.ResponseWriter, r *http.Request) {
	var in campaign.CreateInput
	if !httputil.Decode(w, r, &in) {
		return
	}
	c, err := h.campaigns.Create(r.Context(), principal(r), in)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	httputil.Created(w, c)
}

// GetCampaign returns one campaign.
//
//	GET /api/campanas/{id}
func (h *Handlers) GetCampaign(w http.ResponseWriter, r *http.Request) {
	c, err := h.campaigns.Get(r.Context(), principal(r), urlID(r))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	httputil.OK(w, c)
}

// UpdateCampaign edits a campaign.
//
//	PUT /api/campanas/{id}
func (h *Handlers) UpdateCampaign(w http.ResponseWriter, r *http.Request) {
	var in campaign.UpdateInput
	if !httputil.Decode(w, r, &in) {
		return
	}
	c, err := h.campaigns.Update(r.Context(), principal(r), urlID(r), in)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	httputil.OK(w, c)
}

// DeleteCampaign removes a campaign and its links. Directors only.
//
//	DELETE /api/campanas/{id}
func (h *Handlers) DeleteCampaign(w http.ResponseWriter, r *http.Request) {
	if err := h.campaigns.Delete(r.Context(), principal(r), urlID(r)); err != nil {
		respondServiceError(w, err)
		return
	}
	httputil.OK(w, message("campaign deleted"))
}

// CampaignsOverview measures every campaign.
//
//	GET /api/campanas/stats?ventana=&desde=&hasta=
func (h *Handlers) CampaignsOverview(w http.ResponseWriter, r *http.Request) {
	if err := access.CanViewCampaigns(principal(r)); err != nil {
		respondServiceError(w, err)
		return
	}
	win, err := h.optionalWindow(r)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	stats, err := h.metrics.CampaignStats(r.Context(), win)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	httputil.OK(w, stats)
}

// CampaignStats measures a single campaign.
//
//	GET /api/campanas/{id}/stats
func (h *Handlers) CampaignStats(w http.ResponseWriter, r *http.Request) {
	c, err := h.campaigns.Get(r.Context(), principal(r), urlID(r))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	m, err := h.metrics.Campaign(r.Context(), c)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	httputil.OK(w, m)
}

// CampaignProspects lists the prospects attributed to a campaign.
//
//	GET /api/campanas/{id}/prospectos
func (h *Handlers) CampaignProspects(w http.ResponseWriter, r *http.Request) {
	items, err := h.campaigns.Prospects(r.Context(), principal(r), urlID(r))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	httputil.OK(w, map[string]any{"data": items, "total": len(items)})
}

type linkRequest struct {
	ProspectID string `json:"prospectoId"`
}

// LinkCampaignProspect attributes a prospect to a campaign.
//
//	POST /api/campanas/{id}/prospectos
func (h *Handlers) LinkCampaignProspect(w http.ResponseWriter, r *http.Request) {
	var req linkRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	link, err := h.campaigns.LinkProspect(r.Context(), principal(r), urlID(r), req.ProspectID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	httputil.Created(w, link)
}

// UnlinkCampaignProspect removes an attribution.
//
//	DELETE /api/campanas/{id}/prospectos/{pid}
func (h *Handlers) UnlinkCampaignProspect(w http.ResponseWriter, r *http.Request) {
	if err := h.campaigns.UnlinkProspect(r.Context(), principal(r), urlID(r), chi.URLParam(r, "pid")); err != nil {
		respondServiceError(w, err)
		return
	}
	httputil.OK(w, message("prospect unlinked"))
}
