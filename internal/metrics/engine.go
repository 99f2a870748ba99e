package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/ignite/admissions-crm/internal/access"
	"github.com/ignite/admissions-crm/internal/domain"
	"github.com/ignite/admissions-crm/internal/service/communication"
	"github.com/ignite/admissions-crm/internal/service/prospect"
)

// Site names a call site that owns a default window.
type Site string

const (
	SiteDirector Site = "director"
	SiteManager  Site = "manager"
	SiteAdvisor  Site = "advisor"
	SiteReports  Site = "reports"
)

// Defaults maps each call site to the window used when the caller does not
// pick one.
type Defaults struct {
	Director WindowKind
	Manager  WindowKind
	Advisor  WindowKind
	Reports  WindowKind
}

// DefaultWindows returns the shipped defaults: dashboards for directors and
// advisors look at the last four weeks, the manager dashboard and reports
// at the prior calendar month.
func DefaultWindows() Defaults {
	return Defaults{
		Director: Last4Weeks,
		Manager:  PriorMonth,
		Advisor:  Last4Weeks,
		Reports:  PriorMonth,
	}
}

const upcomingLimit = 10

// Filter narrows the prospects a stats call aggregates over. A nil Window
// covers the whole history.
type Filter struct {
	Window     *Window
	AdvisorID  string
	Origin     domain.Channel
	Status     domain.ProspectStatus
	CampaignID string
}

// Engine computes dashboards and stats from the live store.
type Engine struct {
	src      Source
	defaults Defaults
	now      func() time.Time
}

// NewEngine creates an engine. Empty defaults fall back to DefaultWindows.
func NewEngine(src Source, defaults Defaults) *Engine {
	d := DefaultWindows()
	if defaults.Director != "" {
		d.Director = defaults.Director
	}
	if defaults.Manager != "" {
		d.Manager = defaults.Manager
	}
	if defaults.Advisor != "" {
		d.Advisor = defaults.Advisor
	}
	if defaults.Reports != "" {
		d.Reports = defaults.Reports
	}
	return &Engine{src: src, defaults: d, now: time.Now}
}

// Now returns the engine clock.
func (e *Engine) Now() time.Time { return e.now().UTC() }

// DefaultKind returns the configured window kind for a site.
func (e *Engine) DefaultKind(site Site) WindowKind {
	switch site {
	case SiteDirector:
		return e.defaults.Director
	case SiteManager:
		return e.defaults.Manager
	case SiteAdvisor:
		return e.defaults.Advisor
	default:
		return e.defaults.Reports
	}
}

// Window resolves the window for a call site. A non-empty kind overrides
// the site's default.
func (e *Engine) Window(site Site, kind string) (Window, error) {
	k := e.DefaultKind(site)
	if kind != "" {
		parsed, err := ParseWindowKind(kind)
		if err != nil {
			return Window{}, err
		}
		k = parsed
	}
	return Resolve(k, e.Now()), nil
}

// DirectorDashboard aggregates the whole institution over w.
func (e *Engine) DirectorDashboard(ctx context.Context, w Window) (*DirectorDashboard, error) {
	cohort, err := e.src.Prospects(ctx, prospect.ListFilter{RegisteredFrom: w.From, RegisteredTo: w.To})
	if err != nil {
		return nil, fmt.Errorf("director dashboard prospects: %w", err)
	}
	comms, err := e.src.Communications(ctx, communication.ListFilter{From: w.From, To: w.To})
	if err != nil {
		return nil, fmt.Errorf("director dashboard communications: %w", err)
	}
	advisors, err := e.src.Advisors(ctx)
	if err != nil {
		return nil, fmt.Errorf("director dashboard advisors: %w", err)
	}
	campaigns, err := e.campaignOverview(ctx, nil)
	if err != nil {
		return nil, err
	}
	all, err := e.src.Campaigns(ctx)
	if err != nil {
		return nil, fmt.Errorf("director dashboard campaigns: %w", err)
	}

	ps := SummarizeProspects(cohort)
	d := &DirectorDashboard{
		Window: w,
		Summary: Summary{
			TotalProspects:  ps.Total,
			NewProspects:    ps.ByStatus[string(domain.StatusNew)],
			Enrolled:        ps.Enrolled,
			Lost:            ps.Lost,
			ConversionRate:  ps.ConversionRate,
			Revenue:         ps.Revenue,
			ActiveCampaigns: campaigns.Totals.Active,
			Spent:           campaigns.Totals.Spent,
			ROI:             campaigns.Totals.ROI,
			CostPerLead:     campaigns.Totals.CostPerLead,
		},
		ByStatus:    ps.ByStatus,
		ByOrigin:    ps.ByOrigin,
		Advisors:    TeamPerformance(advisors, cohort, comms),
		Campaigns:   campaigns.Campaigns,
		Channels:    ChannelBreakdown(cohort, all),
		WeeklyTrend: Trend(cohort, w, Weekly, ByRegistration),
	}
	return d, nil
}

// ManagerDashboard shows the current pipeline plus team activity over w.
func (e *Engine) ManagerDashboard(ctx context.Context, w Window) (*ManagerDashboard, error) {
	all, err := e.src.Prospects(ctx, prospect.ListFilter{})
	if err != nil {
		return nil, fmt.Errorf("manager dashboard prospects: %w", err)
	}
	comms, err := e.src.Communications(ctx, communication.ListFilter{From: w.From, To: w.To})
	if err != nil {
		return nil, fmt.Errorf("manager dashboard communications: %w", err)
	}
	advisors, err := e.src.Advisors(ctx)
	if err != nil {
		return nil, fmt.Errorf("manager dashboard advisors: %w", err)
	}
	cohort := InWindow(all, w)
	unassigned := 0
	for _, p := range all {
		if p.AdvisorID == nil && !p.Status.IsTerminal() {
			unassigned++
		}
	}
	return &ManagerDashboard{
		Window:         w,
		Pipeline:       Pipeline(all),
		NewInWindow:    len(cohort),
		Unassigned:     unassigned,
		Team:           TeamPerformance(advisors, cohort, comms),
		Communications: SummarizeCommunications(comms),
		WeeklyTrend:    Trend(cohort, w, Weekly, ByRegistration),
	}, nil
}

// AdvisorDashboard shows one advisor's own figures over w.
func (e *Engine) AdvisorDashboard(ctx context.Context, advisorID string, w Window) (*AdvisorDashboard, error) {
	own, err := e.src.Prospects(ctx, prospect.ListFilter{AdvisorID: advisorID})
	if err != nil {
		return nil, fmt.Errorf("advisor dashboard prospects: %w", err)
	}
	comms, err := e.src.Communications(ctx, communication.ListFilter{UserID: advisorID, From: w.From, To: w.To})
	if err != nil {
		return nil, fmt.Errorf("advisor dashboard communications: %w", err)
	}
	cohort := SummarizeProspects(InWindow(own, w))
	return &AdvisorDashboard{
		Window:         w,
		AdvisorID:      advisorID,
		Pipeline:       Pipeline(own),
		Prospects:      cohort.Total,
		Enrolled:       cohort.Enrolled,
		ConversionRate: cohort.ConversionRate,
		Revenue:        cohort.Revenue,
		Communications: SummarizeCommunications(comms),
		Upcoming:       Upcoming(own, e.Now(), upcomingLimit),
	}, nil
}

// ProspectStats summarises the prospects the principal can see.
func (e *Engine) ProspectStats(ctx context.Context, p access.Principal, f Filter) (*ProspectStats, error) {
	f.AdvisorID = p.ScopeAdvisor(f.AdvisorID)
	prospects, err := e.Prospects(ctx, f)
	if err != nil {
		return nil, err
	}
	st := SummarizeProspects(prospects)
	if f.Window != nil {
		st.Monthly = Trend(prospects, *f.Window, Monthly, ByRegistration)
	}
	return &st, nil
}

// Prospects loads the prospects matching f, restricted to the campaign's
// links when CampaignID is set.
func (e *Engine) Prospects(ctx context.Context, f Filter) ([]domain.Prospect, error) {
	lf := prospect.ListFilter{AdvisorID: f.AdvisorID, Origin: f.Origin, Status: f.Status}
	if f.Window != nil {
		lf.RegisteredFrom, lf.RegisteredTo = f.Window.From, f.Window.To
	}
	prospects, err := e.src.Prospects(ctx, lf)
	if err != nil {
		return nil, fmt.Errorf("load prospects: %w", err)
	}
	if f.CampaignID == "" {
		return prospects, nil
	}
	links, err := e.src.Links(ctx, f.CampaignID)
	if err != nil {
		return nil, fmt.Errorf("load campaign links: %w", err)
	}
	linked := make(map[string]bool, len(links))
	for _, l := range links {
		linked[l.ProspectID] = true
	}
	out := prospects[:0]
	for _, pr := range prospects {
		if linked[pr.ID] {
			out = append(out, pr)
		}
	}
	return out, nil
}

// CommunicationStats summarises interactions visible to the principal.
// Advisors only count their own.
func (e *Engine) CommunicationStats(ctx context.Context, p access.Principal, userID string, w *Window) (*CommunicationStats, error) {
	lf := communication.ListFilter{UserID: p.ScopeAdvisor(userID)}
	if w != nil {
		lf.From, lf.To = w.From, w.To
	}
	comms, err := e.src.Communications(ctx, lf)
	if err != nil {
		return nil, fmt.Errorf("load communications: %w", err)
	}
	st := SummarizeCommunications(comms)
	return &st, nil
}

// CampaignStats measures every campaign. With a window only prospects
// registered inside it count as leads.
func (e *Engine) CampaignStats(ctx context.Context, w *Window) (*CampaignStats, error) {
	return e.campaignOverview(ctx, w)
}

// Campaign measures a single campaign over all of its linked prospects.
func (e *Engine) Campaign(ctx context.Context, c *domain.Campaign) (*CampaignMetrics, error) {
	links, err := e.src.Links(ctx, c.ID)
	if err != nil {
		return nil, fmt.Errorf("load campaign links: %w", err)
	}
	byID, err := e.prospectIndex(ctx, nil)
	if err != nil {
		return nil, err
	}
	linked := make([]domain.Prospect, 0, len(links))
	for _, l := range links {
		if p, ok := byID[l.ProspectID]; ok {
			linked = append(linked, p)
		}
	}
	m := CampaignFigures(*c, linked)
	return &m, nil
}

func (e *Engine) campaignOverview(ctx context.Context, w *Window) (*CampaignStats, error) {
	campaigns, err := e.src.Campaigns(ctx)
	if err != nil {
		return nil, fmt.Errorf("load campaigns: %w", err)
	}
	links, err := e.src.Links(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("load campaign links: %w", err)
	}
	byID, err := e.prospectIndex(ctx, w)
	if err != nil {
		return nil, err
	}
	linked := make(map[string][]domain.Prospect)
	for _, l := range links {
		if p, ok := byID[l.ProspectID]; ok {
			linked[l.CampaignID] = append(linked[l.CampaignID], p)
		}
	}
	st := CampaignOverview(campaigns, linked)
	return &st, nil
}

func (e *Engine) prospectIndex(ctx context.Context, w *Window) (map[string]domain.Prospect, error) {
	lf := prospect.ListFilter{}
	if w != nil {
		lf.RegisteredFrom, lf.RegisteredTo = w.From, w.To
	}
	prospects, err := e.src.Prospects(ctx, lf)
	if err != nil {
		return nil, fmt.Errorf("load prospects: %w", err)
	}
	byID := make(map[string]domain.Prospect, len(prospects))
	for _, p := range prospects {
		byID[p.ID] = p
	}
	return byID, nil
}

// Team returns advisor performance over f. With AdvisorID set only that
// advisor's row is returned.
func (e *Engine) Team(ctx context.Context, f Filter) ([]AdvisorPerformance, error) {
	advisors, err := e.src.Advisors(ctx)
	if err != nil {
		return nil, fmt.Errorf("load advisors: %w", err)
	}
	if f.AdvisorID != "" {
		kept := advisors[:0]
		for _, a := range advisors {
			if a.ID == f.AdvisorID {
				kept = append(kept, a)
			}
		}
		advisors = kept
	}
	prospects, err := e.Prospects(ctx, f)
	if err != nil {
		return nil, err
	}
	lf := communication.ListFilter{UserID: f.AdvisorID}
	if f.Window != nil {
		lf.From, lf.To = f.Window.From, f.Window.To
	}
	comms, err := e.src.Communications(ctx, lf)
	if err != nil {
		return nil, fmt.Errorf("load communications: %w", err)
	}
	return TeamPerformance(advisors, prospects, comms), nil
}

// Campaigns returns the source's campaigns unmeasured.
func (e *Engine) Campaigns(ctx context.Context) ([]domain.Campaign, error) {
	out, err := e.src.Campaigns(ctx)
	if err != nil {
		return nil, fmt.Errorf("load campaigns: %w", err)
	}
	return out, nil
}
