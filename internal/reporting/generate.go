package reporting

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ignite/admissions-crm/internal/domain"
	"github.com/ignite/admissions-crm/internal/metrics"
	"github.com/ignite/admissions-crm/internal/pkg/validate"
)

// Figure is one labelled headline number of a report.
type Figure struct {
	Key   string `json:"clave"`
	Label string `json:"etiqueta"`
	Value string `json:"valor"`
}

// Result is a generated report. Only the fields of its type are set.
type Result struct {
	Type        domain.ReportType            `json:"tipo"`
	Title       string                       `json:"titulo"`
	Window      metrics.Window               `json:"periodo"`
	GeneratedAt time.Time                    `json:"generadoEn"`
	Filters     domain.ReportFilters         `json:"filtros"`
	Summary     []Figure                     `json:"resumen"`
	ByStatus    map[string]int               `json:"porEstado,omitempty"`
	ByOrigin    map[string]int               `json:"porOrigen,omitempty"`
	Advisors    []metrics.AdvisorPerformance `json:"asesores,omitempty"`
	Campaigns   []metrics.CampaignMetrics    `json:"campanas,omitempty"`
	Channels    []metrics.ChannelMetrics     `json:"canales,omitempty"`
	Funnel      []metrics.FunnelStage        `json:"embudo,omitempty"`
	Trend       []metrics.Bucket             `json:"tendencia,omitempty"`
}

var titles = map[domain.ReportType]string{
	domain.ReportExecutive:   "Reporte ejecutivo",
	domain.ReportAdvisors:    "Desempeño de asesores",
	domain.ReportCampaigns:   "Rendimiento de campañas",
	domain.ReportConversions: "Conversiones del pipeline",
}

// Generator builds reports from the aggregation engine.
type Generator struct {
	engine *metrics.Engine
}

// NewGenerator creates a report generator.
func NewGenerator(engine *metrics.Engine) *Generator {
	return &Generator{engine: engine}
}

// Window resolves the filters' date range. Explicit bounds win over a
// named window; with neither the reports default applies.
func (g *Generator) Window(f domain.ReportFilters) (metrics.Window, error) {
	if f.From != nil || f.To != nil {
		from, to := time.Time{}, g.engine.Now()
		if f.From != nil {
			from = *f.From
		}
		if f.To != nil {
			to = *f.To
		}
		w, err := metrics.Between(from, to)
		if err != nil {
			return metrics.Window{}, validate.Field("filtros.hasta", "must not be before filtros.desde")
		}
		return w, nil
	}
	w, err := g.engine.Window(metrics.SiteReports, f.Window)
	if err != nil {
		return metrics.Window{}, validate.Field("filtros.ventana", "must be one of: last_4_weeks, prior_month, month_to_date")
	}
	return w, nil
}

// Generate dispatches to the builder of typ.
func (g *Generator) Generate(ctx context.Context, typ domain.ReportType, f domain.ReportFilters) (*Result, error) {
	if !typ.Valid() {
		return nil, validate.Field("tipo", "must be one of: executive, advisors, campaigns, conversions")
	}
	w, err := g.Window(f)
	if err != nil {
		return nil, err
	}
	filter := metrics.Filter{
		Window:     &w,
		AdvisorID:  f.AdvisorID,
		Origin:     f.Origin,
		Status:     f.Status,
		CampaignID: f.CampaignID,
	}
	res := &Result{
		Type:        typ,
		Title:       titles[typ],
		Window:      w,
		GeneratedAt: g.engine.Now(),
		Filters:     f,
	}

	switch typ {
	case domain.ReportExecutive:
		err = g.executive(ctx, res, filter)
	case domain.ReportAdvisors:
		err = g.advisors(ctx, res, filter)
	case domain.ReportCampaigns:
		err = g.campaigns(ctx, res, filter)
	case domain.ReportConversions:
		err = g.conversions(ctx, res, filter)
	}
	if err != nil {
		return nil, fmt.Errorf("generate %s report: %w", typ, err)
	}
	return res, nil
}

func (g *Generator) executive(ctx context.Context, res *Result, f metrics.Filter) error {
	prospects, err := g.engine.Prospects(ctx, f)
	if err != nil {
		return err
	}
	cs, err := g.engine.CampaignStats(ctx, f.Window)
	if err != nil {
		return err
	}
	campaigns, err := g.engine.Campaigns(ctx)
	if err != nil {
		return err
	}
	ps := metrics.SummarizeProspects(prospects)
	res.Summary = []Figure{
		count("totalProspectos", "Prospectos", ps.Total),
		count("activos", "Activos", ps.Active),
		count("inscritos", "Inscritos", ps.Enrolled),
		count("perdidos", "Perdidos", ps.Lost),
		percent("tasaConversion", "Tasa de conversión", ps.ConversionRate),
		money("ingresos", "Ingresos", ps.Revenue),
		count("campanasActivas", "Campañas activas", cs.Totals.Active),
		money("gastoTotal", "Gasto total", cs.Totals.Spent),
		percent("roi", "ROI", cs.Totals.ROI),
		money("costoPorLead", "Costo por lead", cs.Totals.CostPerLead),
	}
	res.ByStatus = ps.ByStatus
	res.ByOrigin = ps.ByOrigin
	res.Channels = metrics.ChannelBreakdown(prospects, campaigns)
	res.Trend = metrics.Trend(prospects, *f.Window, metrics.Weekly, metrics.ByRegistration)
	return nil
}

func (g *Generator) advisors(ctx context.Context, res *Result, f metrics.Filter) error {
	team, err := g.engine.Team(ctx, f)
	if err != nil {
		return err
	}
	prospects, enrolled, comms := 0, 0, 0
	revenue := decimal.Zero
	for _, a := range team {
		prospects += a.Prospects
		enrolled += a.Enrolled
		comms += a.Communications
		revenue = revenue.Add(a.Revenue)
	}
	res.Advisors = team
	res.Summary = []Figure{
		count("asesores", "Asesores", len(team)),
		count("prospectos", "Prospectos asignados", prospects),
		count("inscritos", "Inscritos", enrolled),
		percent("tasaConversion", "Tasa de conversión", metrics.ConversionRate(enrolled, prospects)),
		money("ingresos", "Ingresos", revenue),
		count("comunicaciones", "Comunicaciones", comms),
	}
	return nil
}

func (g *Generator) campaigns(ctx context.Context, res *Result, f metrics.Filter) error {
	cs, err := g.engine.CampaignStats(ctx, f.Window)
	if err != nil {
		return err
	}
	rows := cs.Campaigns
	totals := cs.Totals
	if f.CampaignID != "" || f.Origin != "" {
		rows = rows[:0:0]
		for _, c := range cs.Campaigns {
			if f.CampaignID != "" && c.CampaignID != f.CampaignID {
				continue
			}
			if f.Origin != "" && c.Channel != string(f.Origin) {
				continue
			}
			rows = append(rows, c)
		}
		totals = sumCampaigns(rows)
	}
	res.Campaigns = rows
	res.Summary = []Figure{
		count("campanas", "Campañas", totals.Campaigns),
		count("activas", "Activas", totals.Active),
		money("presupuesto", "Presupuesto", totals.Budget),
		money("gastado", "Gastado", totals.Spent),
		count("leads", "Leads", totals.Leads),
		count("inscritos", "Inscritos", totals.Enrolled),
		money("ingresos", "Ingresos", totals.Revenue),
		percent("roi", "ROI", totals.ROI),
		money("costoPorLead", "Costo por lead", totals.CostPerLead),
	}
	return nil
}

func (g *Generator) conversions(ctx context.Context, res *Result, f metrics.Filter) error {
	prospects, err := g.engine.Prospects(ctx, f)
	if err != nil {
		return err
	}
	campaigns, err := g.engine.Campaigns(ctx)
	if err != nil {
		return err
	}
	ps := metrics.SummarizeProspects(prospects)
	res.Funnel = metrics.Funnel(prospects)
	res.Channels = metrics.ChannelBreakdown(prospects, campaigns)
	res.ByStatus = ps.ByStatus
	res.Trend = metrics.Trend(prospects, *f.Window, metrics.Weekly, metrics.ByRegistration)
	res.Summary = []Figure{
		count("totalProspectos", "Prospectos", ps.Total),
		count("inscritos", "Inscritos", ps.Enrolled),
		count("perdidos", "Perdidos", ps.Lost),
		percent("tasaConversion", "Tasa de conversión", ps.ConversionRate),
		percent("tasaPerdida", "Tasa de pérdida", metrics.Rate(ps.Lost, ps.Total)),
	}
	return nil
}

func sumCampaigns(rows []metrics.CampaignMetrics) metrics.CampaignTotals {
	t := metrics.CampaignTotals{Budget: decimal.Zero, Spent: decimal.Zero, Revenue: decimal.Zero}
	for _, c := range rows {
		t.Campaigns++
		if c.State == string(domain.CampaignActive) {
			t.Active++
		}
		t.Budget = t.Budget.Add(c.Budget)
		t.Spent = t.Spent.Add(c.Spent)
		t.Leads += c.Leads
		t.Enrolled += c.Enrolled
		t.Revenue = t.Revenue.Add(c.Revenue)
	}
	t.ROI = metrics.ROI(t.Revenue, t.Spent)
	t.CostPerLead = metrics.CostPer(t.Spent, t.Leads)
	return t
}

func count(key, label string, n int) Figure {
	return Figure{Key: key, Label: label, Value: fmt.Sprintf("%d", n)}
}

func percent(key, label string, v float64) Figure {
	return Figure{Key: key, Label: label, Value: fmt.Sprintf("%.2f%%", v)}
}

func money(key, label string, d decimal.Decimal) Figure {
	return Figure{Key: key, Label: label, Value: d.StringFixed(2)}
}
