package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CampaignState enumerates the lifecycle states of a marketing campaign.
type CampaignState string

const (
	CampaignActive   CampaignState = "active"
	CampaignPaused   CampaignState = "paused"
	CampaignFinished CampaignState = "finished"
)

// Valid reports whether s is a known campaign state.
func (s CampaignState) Valid() bool {
	return s == CampaignActive || s == CampaignPaused || s == CampaignFinished
}

// Campaign is a paid or organic marketing effort that brings in prospects.
type Campaign struct {
	ID               string          `json:"id"`
	Name             string          `json:"nombre"`
	Description      *string         `json:"descripcion"`
	Channel          Channel         `json:"canal"`
	Budget           decimal.Decimal `json:"presupuesto"`
	Spent            decimal.Decimal `json:"gastado"`
	State            CampaignState   `json:"estado"`
	StartAt          time.Time       `json:"fechaInicio"`
	EndAt            time.Time       `json:"fechaFin"`
	LeadTarget       *int            `json:"objetivoLeads"`
	EnrollmentTarget *int            `json:"objetivoInscripciones"`
	ChannelConfig    map[string]any  `json:"configuracionCanal"`
	CreatedAt        time.Time       `json:"fechaCreacion"`
}

// IsRunning is true while the campaign is active and inside its dates.
func (c *Campaign) IsRunning(now time.Time) bool {
	return c.State == CampaignActive && !now.Before(c.StartAt) && now.Before(c.EndAt)
}

// CampaignProspect attributes a prospect to a campaign. A prospect may be
// linked to several campaigns at once.
type CampaignProspect struct {
	ID           string    `json:"id"`
	CampaignID   string    `json:"campanaId"`
	ProspectID   string    `json:"prospectoId"`
	AssociatedAt time.Time `json:"fechaAsociacion"`
}
