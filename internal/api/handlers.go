// Package api exposes the CRM over JSON/HTTP. Handlers decode requests,
// take the caller from the session, call the services and map their errors
// onto the response envelope.
package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ignite/admissions-crm/internal/access"
	"github.com/ignite/admissions-crm/internal/auth"
	"github.com/ignite/admissions-crm/internal/config"
	"github.com/ignite/admissions-crm/internal/metrics"
	"github.com/ignite/admissions-crm/internal/reporting"
	"github.com/ignite/admissions-crm/internal/service/admission"
	"github.com/ignite/admissions-crm/internal/service/campaign"
	"github.com/ignite/admissions-crm/internal/service/communication"
	"github.com/ignite/admissions-crm/internal/service/form"
	"github.com/ignite/admissions-crm/internal/service/prospect"
	"github.com/ignite/admissions-crm/internal/service/report"
)

// Deps are the services the handlers call.
type Deps struct {
	Prospects      *prospect.Service
	Communications *communication.Service
	Campaigns      *campaign.Service
	Admission      *admission.Service
	Reports        *report.Service
	Forms          *form.Service
	Metrics        *metrics.Engine
	Runner         *reporting.Runner
	// Pager bounds list sizes. The zero value uses the config defaults.
	Pager Pager
}

// Handlers contains all HTTP handlers
type Handlers struct {
	prospects      *prospect.Service
	communications *communication.Service
	campaigns      *campaign.Service
	admission      *admission.Service
	reports        *report.Service
	forms          *form.Service
	metrics        *metrics.Engine
	runner         *reporting.Runner
	pager          Pager
}

// NewHandlers creates a new Handlers instance
func NewHandlers(d Deps) *Handlers {
	if d.Pager.MaxLimit == 0 {
		d.Pager = NewPager(config.Default().Server)
	}
	return &Handlers{
		prospects:      d.Prospects,
		communications: d.Communications,
		campaigns:      d.Campaigns,
		admission:      d.Admission,
		reports:        d.Reports,
		forms:          d.Forms,
		metrics:        d.Metrics,
		runner:         d.Runner,
		pager:          d.Pager,
	}
}

// principal returns the caller set by auth.RequireAuth. Outside an
// authenticated route it is the zero principal, which every access rule
// rejects.
func principal(r *http.Request) access.Principal {
	p, _ := auth.PrincipalFrom(r.Context())
	return p
}

func urlID(r *http.Request) string {
	return chi.URLParam(r, "id")
}

var errWindowBounds = errors.New("desde and hasta must be sent together")

// parseDate accepts RFC 3339 or a bare date. A bare date used as an upper
// bound covers the whole day.
func parseDate(s string, endOfDay bool) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, errors.New("invalid date " + s + ", expected YYYY-MM-DD")
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Second)
	}
	return t, nil
}

// explicitWindow reads desde/hasta. ok is false when neither is set.
func explicitWindow(r *http.Request) (w metrics.Window, ok bool, err error) {
	q := r.URL.Query()
	from, to := strings.TrimSpace(q.Get("desde")), strings.TrimSpace(q.Get("hasta"))
	if from == "" && to == "" {
		return metrics.Window{}, false, nil
	}
	if from == "" || to == "" {
		return metrics.Window{}, false, errWindowBounds
	}
	start, err := parseDate(from, false)
	if err != nil {
		return metrics.Window{}, false, err
	}
	end, err := parseDate(to, true)
	if err != nil {
		return metrics.Window{}, false, err
	}
	w, err = metrics.Between(start, end)
	return w, err == nil, err
}

// parseWindow resolves the window of a dashboard: explicit dates first,
// then the ventana kind, then the site's configured default.
func (h *Handlers) parseWindow(r *http.Request, site metrics.Site) (metrics.Window, error) {
	if w, ok, err := explicitWindow(r); ok || err != nil {
		return w, err
	}
	return h.metrics.Window(site, r.URL.Query().Get("ventana"))
}

// optionalWindow is parseWindow for stats endpoints, which default to all
// time rather than to a site window.
func (h *Handlers) optionalWindow(r *http.Request) (*metrics.Window, error) {
	if w, ok, err := explicitWindow(r); ok || err != nil {
		if err != nil {
			return nil, err
		}
		return &w, nil
	}
	kind := r.URL.Query().Get("ventana")
	if kind == "" {
		return nil, nil
	}
	w, err := h.metrics.Window(metrics.SiteReports, kind)
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// message is the body of operations that return no resource.
func message(text string) map[string]string {
	return map[string]string{"message": text}
}
