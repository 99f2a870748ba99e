package domain

import "time"

// ReportType selects which builder produces a report.
type ReportType string

const (
	ReportExecutive   ReportType = "executive"
	ReportAdvisors    ReportType = "advisors"
	ReportCampaigns   ReportType = "campaigns"
	ReportConversions ReportType = "conversions"
)

// Valid reports whether t is a known report type.
func (t ReportType) Valid() bool {
	switch t {
	case ReportExecutive, ReportAdvisors, ReportCampaigns, ReportConversions:
		return true
	}
	return false
}

// Frequency is how often a scheduled report runs.
type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
)

// Next returns the run after from. Unknown frequencies fall back to weekly.
func (f Frequency) Next(from time.Time) time.Time {
	switch f {
	case FrequencyDaily:
		return from.AddDate(0, 0, 1)
	case FrequencyMonthly:
		return from.AddDate(0, 1, 0)
	default:
		return from.AddDate(0, 0, 7)
	}
}

// ExportFormat is the artifact format of an exported report.
type ExportFormat string

const (
	FormatCSV   ExportFormat = "csv"
	FormatExcel ExportFormat = "excel"
	FormatPDF   ExportFormat = "pdf"
)

// Extension returns the file extension for the format, without the dot.
func (f ExportFormat) Extension() string {
	if f == FormatExcel {
		return "xlsx"
	}
	return string(f)
}

// Valid reports whether f is a supported export format.
func (f ExportFormat) Valid() bool {
	return f == FormatCSV || f == FormatExcel || f == FormatPDF
}

// ReportFilters narrows the data a report is built from. Window is one of
// last_4_weeks, prior_month or month_to_date; empty means the configured
// default for reports.
type ReportFilters struct {
	Window     string         `json:"ventana,omitempty"`
	From       *time.Time     `json:"desde,omitempty"`
	To         *time.Time     `json:"hasta,omitempty"`
	AdvisorID  string         `json:"asesorId,omitempty"`
	Origin     Channel        `json:"origen,omitempty"`
	Status     ProspectStatus `json:"estado,omitempty"`
	CampaignID string         `json:"campanaId,omitempty"`
}

// ReportConfig is the configuration blob stored with a report definition.
type ReportConfig struct {
	Format  ExportFormat  `json:"formato,omitempty"`
	Filters ReportFilters `json:"filtros"`
}

// ExportFormatOrDefault returns the configured format, pdf when unset.
func (c ReportConfig) ExportFormatOrDefault() ExportFormat {
	if c.Format == "" {
		return FormatPDF
	}
	return c.Format
}

// ReportDefinition is a saved, optionally scheduled report.
type ReportDefinition struct {
	ID         string       `json:"id"`
	Name       string       `json:"nombre"`
	Type       ReportType   `json:"tipo"`
	Frequency  Frequency    `json:"frecuencia"`
	Recipients []string     `json:"destinatarios"`
	Config     ReportConfig `json:"configuracion"`
	Active     bool         `json:"activo"`
	LastRun    *time.Time   `json:"ultimaEjecucion"`
	NextRun    *time.Time   `json:"proximaEjecucion"`
	CreatedAt  time.Time    `json:"fechaCreacion"`
}

// Due reports whether an active definition should run at now.
func (d *ReportDefinition) Due(now time.Time) bool {
	return d.Active && d.NextRun != nil && !d.NextRun.After(now)
}
