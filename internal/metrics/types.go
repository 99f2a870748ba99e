package metrics

import (
	"time"

	"github.com/shopspring/decimal"
)

// StageCount is the number of prospects sitting in one status.
type StageCount struct {
	Status string `json:"estado"`
	Count  int    `json:"total"`
}

// Bucket is one week or month of a trend.
type Bucket struct {
	Period    string    `json:"periodo"`
	Start     time.Time `json:"inicio"`
	Prospects int       `json:"prospectos"`
	Enrolled  int       `json:"inscritos"`
}

// ProspectStats summarises a set of prospects.
type ProspectStats struct {
	Total          int             `json:"total"`
	Active         int             `json:"activos"`
	Enrolled       int             `json:"inscritos"`
	Lost           int             `json:"perdidos"`
	ConversionRate float64         `json:"tasaConversion"`
	Revenue        decimal.Decimal `json:"ingresos"`
	ByStatus       map[string]int  `json:"porEstado"`
	ByOrigin       map[string]int  `json:"porOrigen"`
	ByPriority     map[string]int  `json:"porPrioridad"`
	Monthly        []Bucket        `json:"porMes,omitempty"`
}

// CommunicationStats summarises logged interactions.
type CommunicationStats struct {
	Total          int            `json:"total"`
	ByType         map[string]int `json:"porTipo"`
	ByDirection    map[string]int `json:"porDireccion"`
	ByState        map[string]int `json:"porEstado"`
	Calls          int            `json:"llamadas"`
	CallMinutes    int            `json:"minutosLlamadas"`
	AvgCallMinutes float64        `json:"duracionPromedio"`
	CompletionRate float64        `json:"tasaCompletadas"`
}

// AdvisorPerformance is one advisor's row in team tables.
type AdvisorPerformance struct {
	AdvisorID      string          `json:"asesorId"`
	Name           string          `json:"nombre"`
	Prospects      int             `json:"prospectos"`
	Active         int             `json:"activos"`
	Enrolled       int             `json:"inscritos"`
	ConversionRate float64         `json:"tasaConversion"`
	Revenue        decimal.Decimal `json:"ingresos"`
	Communications int             `json:"comunicaciones"`
	Calls          int             `json:"llamadas"`
}

// CampaignMetrics is the performance of a single campaign over the
// prospects linked to it.
type CampaignMetrics struct {
	CampaignID               string          `json:"campanaId"`
	Name                     string          `json:"nombre"`
	Channel                  string          `json:"canal"`
	State                    string          `json:"estado"`
	Budget                   decimal.Decimal `json:"presupuesto"`
	Spent                    decimal.Decimal `json:"gastado"`
	Leads                    int             `json:"leads"`
	Enrolled                 int             `json:"inscritos"`
	ConversionRate           float64         `json:"tasaConversion"`
	Revenue                  decimal.Decimal `json:"ingresos"`
	ROI                      float64         `json:"roi"`
	CostPerLead              decimal.Decimal `json:"costoPorLead"`
	CostPerEnrollment        decimal.Decimal `json:"costoPorInscripcion"`
	BudgetUsed               float64         `json:"presupuestoUtilizado"`
	LeadTargetProgress       *float64        `json:"avanceObjetivoLeads"`
	EnrollmentTargetProgress *float64        `json:"avanceObjetivoInscripciones"`
}

// CampaignTotals aggregates every campaign in a CampaignStats.
type CampaignTotals struct {
	Campaigns   int             `json:"campanas"`
	Active      int             `json:"activas"`
	Budget      decimal.Decimal `json:"presupuesto"`
	Spent       decimal.Decimal `json:"gastado"`
	Leads       int             `json:"leads"`
	Enrolled    int             `json:"inscritos"`
	Revenue     decimal.Decimal `json:"ingresos"`
	ROI         float64         `json:"roi"`
	CostPerLead decimal.Decimal `json:"costoPorLead"`
}

// CampaignStats is the campaign overview.
type CampaignStats struct {
	Campaigns []CampaignMetrics `json:"campanas"`
	Totals    CampaignTotals    `json:"totales"`
}

// ChannelMetrics groups prospects by origin and campaigns by channel.
type ChannelMetrics struct {
	Channel        string          `json:"canal"`
	Leads          int             `json:"leads"`
	Enrolled       int             `json:"inscritos"`
	ConversionRate float64         `json:"tasaConversion"`
	Spent          decimal.Decimal `json:"gastado"`
	Revenue        decimal.Decimal `json:"ingresos"`
	ROI            float64         `json:"roi"`
	CostPerLead    decimal.Decimal `json:"costoPorLead"`
}

// Summary holds the headline KPIs of the director dashboard.
type Summary struct {
	TotalProspects  int             `json:"totalProspectos"`
	NewProspects    int             `json:"nuevosProspectos"`
	Enrolled        int             `json:"inscritos"`
	Lost            int             `json:"perdidos"`
	ConversionRate  float64         `json:"tasaConversion"`
	Revenue         decimal.Decimal `json:"ingresos"`
	ActiveCampaigns int             `json:"campanasActivas"`
	Spent           decimal.Decimal `json:"gastoTotal"`
	ROI             float64         `json:"roi"`
	CostPerLead     decimal.Decimal `json:"costoPorLead"`
}

// DirectorDashboard is the global view.
type DirectorDashboard struct {
	Window      Window               `json:"periodo"`
	Summary     Summary              `json:"resumen"`
	ByStatus    map[string]int       `json:"porEstado"`
	ByOrigin    map[string]int       `json:"porOrigen"`
	Advisors    []AdvisorPerformance `json:"asesores"`
	Campaigns   []CampaignMetrics    `json:"campanas"`
	Channels    []ChannelMetrics     `json:"canales"`
	WeeklyTrend []Bucket             `json:"tendenciaSemanal"`
}

// ManagerDashboard is the team view.
type ManagerDashboard struct {
	Window         Window               `json:"periodo"`
	Pipeline       []StageCount         `json:"pipeline"`
	NewInWindow    int                  `json:"nuevos"`
	Unassigned     int                  `json:"sinAsignar"`
	Team           []AdvisorPerformance `json:"equipo"`
	Communications CommunicationStats   `json:"comunicaciones"`
	WeeklyTrend    []Bucket             `json:"tendenciaSemanal"`
}

// Appointment is an upcoming visit on an advisor's agenda.
type Appointment struct {
	ProspectID string    `json:"prospectoId"`
	Name       string    `json:"nombre"`
	Phone      string    `json:"telefono"`
	Status     string    `json:"estado"`
	At         time.Time `json:"fechaCita"`
}

// AdvisorDashboard is an advisor's own view.
type AdvisorDashboard struct {
	Window         Window             `json:"periodo"`
	AdvisorID      string             `json:"asesorId"`
	Pipeline       []StageCount       `json:"pipeline"`
	Prospects      int                `json:"prospectos"`
	Enrolled       int                `json:"inscritos"`
	ConversionRate float64            `json:"tasaConversion"`
	Revenue        decimal.Decimal    `json:"ingresos"`
	Communications CommunicationStats `json:"comunicaciones"`
	Upcoming       []Appointment      `json:"proximasCitas"`
}

// FunnelStage is how many prospects of a cohort reached a pipeline stage.
type FunnelStage struct {
	Status   string  `json:"estado"`
	Reached  int     `json:"alcanzados"`
	Current  int     `json:"actuales"`
	Rate     float64 `json:"tasa"`
	StepRate float64 `json:"tasaPaso"`
}
