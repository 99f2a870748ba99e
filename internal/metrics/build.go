package metrics

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ignite/admissions-crm/internal/domain"
)

// Period selects the trend bucket size.
type Period string

const (
	Weekly  Period = "week"
	Monthly Period = "month"
)

// TimeField picks the prospect timestamp a trend buckets on.
type TimeField func(p domain.Prospect) time.Time

// ByRegistration buckets prospects on the day they entered the CRM.
func ByRegistration(p domain.Prospect) time.Time { return p.RegisteredAt }

// ByLastInteraction buckets prospects on their latest touch.
func ByLastInteraction(p domain.Prospect) time.Time { return p.LastInteraction }

// SummarizeProspects computes grouped counts and conversion for prospects.
func SummarizeProspects(prospects []domain.Prospect) ProspectStats {
	st := ProspectStats{
		Total:      len(prospects),
		Revenue:    decimal.Zero,
		ByStatus:   make(map[string]int),
		ByOrigin:   CountBy(prospects, func(p domain.Prospect) string { return string(p.Origin) }),
		ByPriority: CountBy(prospects, func(p domain.Prospect) string { return string(p.Priority) }),
	}
	for _, s := range domain.AllStatuses {
		st.ByStatus[string(s)] = 0
	}
	for _, p := range prospects {
		st.ByStatus[string(p.Status)]++
		switch {
		case p.IsEnrolled():
			st.Enrolled++
			st.Revenue = st.Revenue.Add(p.Revenue())
		case p.Status == domain.StatusLost:
			st.Lost++
		default:
			st.Active++
		}
	}
	st.ConversionRate = ConversionRate(st.Enrolled, st.Total)
	return st
}

// Pipeline counts prospects per stage in pipeline order, lost last.
func Pipeline(prospects []domain.Prospect) []StageCount {
	counts := CountBy(prospects, func(p domain.Prospect) domain.ProspectStatus { return p.Status })
	out := make([]StageCount, 0, len(domain.AllStatuses))
	for _, s := range domain.AllStatuses {
		out = append(out, StageCount{Status: string(s), Count: counts[s]})
	}
	return out
}

// SummarizeCommunications groups interactions and totals call time.
func SummarizeCommunications(comms []domain.Communication) CommunicationStats {
	st := CommunicationStats{
		Total:       len(comms),
		ByType:      CountBy(comms, func(c domain.Communication) string { return string(c.Type) }),
		ByDirection: CountBy(comms, func(c domain.Communication) string { return string(c.Direction) }),
		ByState:     CountBy(comms, func(c domain.Communication) string { return string(c.State) }),
	}
	timed := 0
	for _, c := range comms {
		if !c.IsCall() {
			continue
		}
		st.Calls++
		if c.DurationMinutes != nil {
			st.CallMinutes += *c.DurationMinutes
			timed++
		}
	}
	if timed > 0 {
		st.AvgCallMinutes = Round2(float64(st.CallMinutes) / float64(timed))
	}
	st.CompletionRate = Rate(st.ByState[string(domain.CommCompleted)], st.Total)
	return st
}

// TeamPerformance builds one row per advisor, ordered by enrollments then
// name. Prospects and communications must already be windowed.
func TeamPerformance(advisors []domain.User, prospects []domain.Prospect, comms []domain.Communication) []AdvisorPerformance {
	rows := make(map[string]*AdvisorPerformance, len(advisors))
	out := make([]*AdvisorPerformance, 0, len(advisors))
	for _, a := range advisors {
		row := &AdvisorPerformance{AdvisorID: a.ID, Name: a.Name, Revenue: decimal.Zero}
		rows[a.ID] = row
		out = append(out, row)
	}
	for _, p := range prospects {
		if p.AdvisorID == nil {
			continue
		}
		row, ok := rows[*p.AdvisorID]
		if !ok {
			continue
		}
		row.Prospects++
		if p.IsEnrolled() {
			row.Enrolled++
			row.Revenue = row.Revenue.Add(p.Revenue())
		} else if !p.Status.IsTerminal() {
			row.Active++
		}
	}
	for _, c := range comms {
		row, ok := rows[c.UserID]
		if !ok {
			continue
		}
		row.Communications++
		if c.IsCall() {
			row.Calls++
		}
	}
	res := make([]AdvisorPerformance, 0, len(out))
	for _, row := range out {
		row.ConversionRate = ConversionRate(row.Enrolled, row.Prospects)
		res = append(res, *row)
	}
	sort.SliceStable(res, func(i, j int) bool {
		if res[i].Enrolled != res[j].Enrolled {
			return res[i].Enrolled > res[j].Enrolled
		}
		return res[i].Name < res[j].Name
	})
	return res
}

// CampaignFigures measures a campaign over its linked prospects.
func CampaignFigures(c domain.Campaign, linked []domain.Prospect) CampaignMetrics {
	m := CampaignMetrics{
		CampaignID: c.ID,
		Name:       c.Name,
		Channel:    string(c.Channel),
		State:      string(c.State),
		Budget:     c.Budget,
		Spent:      c.Spent,
		Leads:      len(linked),
		Revenue:    decimal.Zero,
	}
	for _, p := range linked {
		if p.IsEnrolled() {
			m.Enrolled++
			m.Revenue = m.Revenue.Add(p.Revenue())
		}
	}
	m.ConversionRate = ConversionRate(m.Enrolled, m.Leads)
	m.ROI = ROI(m.Revenue, c.Spent)
	m.CostPerLead = CostPer(c.Spent, m.Leads)
	m.CostPerEnrollment = CostPer(c.Spent, m.Enrolled)
	if c.Budget.IsPositive() {
		m.BudgetUsed = c.Spent.Div(c.Budget).Mul(hundred).Round(2).InexactFloat64()
	}
	m.LeadTargetProgress = Progress(m.Leads, c.LeadTarget)
	m.EnrollmentTargetProgress = Progress(m.Enrolled, c.EnrollmentTarget)
	return m
}

// CampaignOverview measures every campaign and totals them. linked maps a
// campaign id to its prospects.
func CampaignOverview(campaigns []domain.Campaign, linked map[string][]domain.Prospect) CampaignStats {
	st := CampaignStats{
		Campaigns: make([]CampaignMetrics, 0, len(campaigns)),
		Totals: CampaignTotals{
			Budget:  decimal.Zero,
			Spent:   decimal.Zero,
			Revenue: decimal.Zero,
		},
	}
	for _, c := range campaigns {
		m := CampaignFigures(c, linked[c.ID])
		st.Campaigns = append(st.Campaigns, m)
		st.Totals.Campaigns++
		if c.State == domain.CampaignActive {
			st.Totals.Active++
		}
		st.Totals.Budget = st.Totals.Budget.Add(c.Budget)
		st.Totals.Spent = st.Totals.Spent.Add(c.Spent)
		st.Totals.Leads += m.Leads
		st.Totals.Enrolled += m.Enrolled
		st.Totals.Revenue = st.Totals.Revenue.Add(m.Revenue)
	}
	st.Totals.ROI = ROI(st.Totals.Revenue, st.Totals.Spent)
	st.Totals.CostPerLead = CostPer(st.Totals.Spent, st.Totals.Leads)
	return st
}

// ChannelBreakdown attributes prospects by origin and campaign spend by
// channel. Channels with neither leads nor spend are omitted.
func ChannelBreakdown(prospects []domain.Prospect, campaigns []domain.Campaign) []ChannelMetrics {
	rows := make(map[domain.Channel]*ChannelMetrics)
	row := func(ch domain.Channel) *ChannelMetrics {
		r, ok := rows[ch]
		if !ok {
			r = &ChannelMetrics{Channel: string(ch), Spent: decimal.Zero, Revenue: decimal.Zero}
			rows[ch] = r
		}
		return r
	}
	for _, p := range prospects {
		r := row(p.Origin)
		r.Leads++
		if p.IsEnrolled() {
			r.Enrolled++
			r.Revenue = r.Revenue.Add(p.Revenue())
		}
	}
	for _, c := range campaigns {
		r := row(c.Channel)
		r.Spent = r.Spent.Add(c.Spent)
	}
	out := make([]ChannelMetrics, 0, len(rows))
	for _, ch := range domain.Channels {
		r, ok := rows[ch]
		if !ok {
			continue
		}
		r.ConversionRate = ConversionRate(r.Enrolled, r.Leads)
		r.ROI = ROI(r.Revenue, r.Spent)
		r.CostPerLead = CostPer(r.Spent, r.Leads)
		out = append(out, *r)
	}
	return out
}

// Trend buckets prospects whose field falls inside w. Empty buckets are
// kept so the series has no gaps.
func Trend(prospects []domain.Prospect, w Window, period Period, field TimeField) []Bucket {
	start, step, label := WeekStart(w.From), func(t time.Time) time.Time { return t.AddDate(0, 0, 7) }, "2006-01-02"
	if period == Monthly {
		start, step, label = MonthStart(w.From), func(t time.Time) time.Time { return t.AddDate(0, 1, 0) }, "2006-01"
	}
	var out []Bucket
	index := make(map[time.Time]int)
	for t := start; !t.After(w.To); t = step(t) {
		index[t] = len(out)
		out = append(out, Bucket{Period: t.Format(label), Start: t})
	}
	for _, p := range prospects {
		ts := field(p)
		if !w.Contains(ts) {
			continue
		}
		key := WeekStart(ts)
		if period == Monthly {
			key = MonthStart(ts)
		}
		i, ok := index[key]
		if !ok {
			continue
		}
		out[i].Prospects++
		if p.IsEnrolled() {
			out[i].Enrolled++
		}
	}
	return out
}

// Upcoming lists appointments at or after now, soonest first, capped at limit.
func Upcoming(prospects []domain.Prospect, now time.Time, limit int) []Appointment {
	out := make([]Appointment, 0)
	for _, p := range prospects {
		if p.AppointmentAt == nil || p.AppointmentAt.Before(now) || p.Status.IsTerminal() {
			continue
		}
		out = append(out, Appointment{
			ProspectID: p.ID,
			Name:       p.Name,
			Phone:      p.Phone,
			Status:     string(p.Status),
			At:         *p.AppointmentAt,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].At.Before(out[j].At) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// InWindow keeps prospects registered inside w.
func InWindow(prospects []domain.Prospect, w Window) []domain.Prospect {
	out := make([]domain.Prospect, 0, len(prospects))
	for _, p := range prospects {
		if w.Contains(p.RegisteredAt) {
			out = append(out, p)
		}
	}
	return out
}

// Funnel counts, for each pipeline stage, the prospects currently at or
// past it. Lost prospects only count as having entered the pipeline since
// the stage they left from is not recorded.
func Funnel(prospects []domain.Prospect) []FunnelStage {
	out := make([]FunnelStage, len(domain.PipelineStages))
	for i, s := range domain.PipelineStages {
		out[i].Status = string(s)
	}
	for _, p := range prospects {
		idx := p.Status.Index()
		if idx < 0 {
			idx = 0
		} else {
			out[idx].Current++
		}
		for i := 0; i <= idx; i++ {
			out[i].Reached++
		}
	}
	for i := range out {
		out[i].Rate = Rate(out[i].Reached, len(prospects))
		if i == 0 {
			out[i].StepRate = out[i].Rate
			continue
		}
		out[i].StepRate = Rate(out[i].Reached, out[i-1].Reached)
	}
	return out
}
