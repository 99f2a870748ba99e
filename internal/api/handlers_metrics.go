package api

import (
	"net/http"

	"github.com/ignite/admissions-crm/internal/access"
	"github.com/ignite/admissions-crm/internal/domain"
	"github.com/ignite/admissions-crm/internal/metrics"
	"github.com/ignite/admissions-crm/internal/pkg/httputil"
)

// DirectorDashboard returns institution-wide KPIs.
//
//	GET /api/metrics/director?ventana=&desde=&hasta=
func (h *Handlers) DirectorDashboard(w http.ResponseWriter, r *http.Request) {
	win, err := h.parseWindow(r, metrics.SiteDirector)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	d, err := h.metrics.DirectorDashboard(r.Context(), win)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	httputil.OK(w, d)
}

// ManagerDashboard returns team performance.
//
//	GET /api/metrics/gerente?ventana=&desde=&hasta=
func (h *Handlers) ManagerDashboard(w http.ResponseWriter, r *http.Request) {
	win, err := h.parseWindow(r, metrics.SiteManager)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	d, err := h.metrics.ManagerDashboard(r.Context(), win)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	httputil.OK(w, d)
}

// AdvisorDashboard returns one advisor's own figures. Advisors always get
// theirs; leads pick the advisor with asesorId.
//
//	GET /api/metrics/asesor?asesorId=&ventana=&desde=&hasta=
func (h *Handlers) AdvisorDashboard(w http.ResponseWriter, r *http.Request) {
	p := principal(r)
	advisorID := r.URL.Query().Get("asesorId")
	if p.Role == domain.RoleAdvisor || advisorID == "" {
		advisorID = p.UserID
	}
	if err := access.CanViewAdvisorMetrics(p, advisorID); err != nil {
		respondServiceError(w, err)
		return
	}

	win, err := h.parseWindow(r, metrics.SiteAdvisor)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	d, err := h.metrics.AdvisorDashboard(r.Context(), advisorID, win)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	httputil.OK(w, d)
}
