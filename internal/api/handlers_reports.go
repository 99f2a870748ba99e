package api

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/ignite/admissions-crm/internal/domain"
	"github.com/ignite/admissions-crm/internal/pkg/httputil"
	"github.com/ignite/admissions-crm/internal/pkg/validate"
	"github.com/ignite/admissions-crm/internal/service/report"
	"github.com/ignite/admissions-crm/internal/storage"
)

// ListReports returns the saved report definitions.
//
//	GET /api/reportes?tipo=&activo=true
func (h *Handlers) ListReports(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	defs, err := h.reports.List(r.Context(), report.ListFilter{
		Type:       domain.ReportType(q.Get("tipo")),
		ActiveOnly: q.Get("activo") == "true",
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}
	httputil.OK(w, defs)
}

// CreateReport saves a definition and schedules its first run.
//
//	POST /api/reportes
func (h *Handlers) CreateReport(w http.ResponseWriter, r *http.Request) {
	var in report.Input
	if !httputil.Decode(w, r, &in) {
		return
	}
	d, err := h.reports.Create(r.Context(), in)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	httputil.Created(w, d)
}

// GetReport returns one definition.
//
//	GET /api/reportes/{id}
func (h *Handlers) GetReport(w http.ResponseWriter, r *http.Request) {
	d, err := h.reports.Get(r.Context(), urlID(r))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	httputil.OK(w, d)
}

// UpdateReport replaces a definition and recomputes its next run.
//
//	PUT /api/reportes/{id}
func (h *Handlers) UpdateReport(w http.ResponseWriter, r *http.Request) {
	var in report.Input
	if !httputil.Decode(w, r, &in) {
		return
	}
	d, err := h.reports.Update(r.Context(), urlID(r), in)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	httputil.OK(w, d)
}

// DeleteReport removes a definition.
//
//	DELETE /api/reportes/{id}
func (h *Handlers) DeleteReport(w http.ResponseWriter, r *http.Request) {
	if err := h.reports.Delete(r.Context(), urlID(r)); err != nil {
		respondServiceError(w, err)
		return
	}
	httputil.OK(w, message("report deleted"))
}

// ExecuteReport runs a definition now and advances its schedule.
//
//	POST /api/reportes/{id}/ejecutar
func (h *Handlers) ExecuteReport(w http.ResponseWriter, r *http.Request) {
	exec, err := h.runner.ExecuteScheduled(r.Context(), urlID(r))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	httputil.OK(w, exec)
}

// ReportHistory lists the latest successful runs of a definition.
//
//	GET /api/reportes/{id}/ejecuciones?limit=
func (h *Handlers) ReportHistory(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 || limit > h.pager.MaxLimit {
		limit = 20
	}
	runs, err := h.runner.History(r.Context(), urlID(r), limit)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	httputil.OK(w, runs)
}

type generateRequest struct {
	Type    string               `json:"tipo"`
	Filters domain.ReportFilters `json:"filtros"`
	Format  string               `json:"formato"`
}

// GenerateReport builds an ad-hoc report. Without formato the result is
// returned as JSON; with it the exported file is sent as a download.
//
//	POST /api/reportes/generar
func (h *Handlers) GenerateReport(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	format := domain.ExportFormat(req.Format)
	if format != "" && !format.Valid() {
		respondServiceError(w, validate.Field("formato", "must be one of: csv, excel, pdf"))
		return
	}

	res, path, err := h.runner.Generate(r.Context(), domain.ReportType(req.Type), req.Filters, format)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if path == "" {
		httputil.OK(w, res)
		return
	}

	name := filepath.Base(path)
	w.Header().Set("Content-Type", storage.ContentType(name))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	http.ServeFile(w, r, path)
}
