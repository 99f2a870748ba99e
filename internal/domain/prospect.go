package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ProspectStatus is a stage of the admissions pipeline.
type ProspectStatus string

const (
	StatusNew                  ProspectStatus = "new"
	StatusFirstContact         ProspectStatus = "first_contact"
	StatusAppointmentScheduled ProspectStatus = "appointment_scheduled"
	StatusDocuments            ProspectStatus = "documents"
	StatusAdmitted             ProspectStatus = "admitted"
	StatusEnrolled             ProspectStatus = "enrolled"
	// StatusLost is terminal and reachable from any stage.
	StatusLost ProspectStatus = "lost"
)

// PipelineStages lists the ordered stages, excluding the lost exit.
var PipelineStages = []ProspectStatus{
	StatusNew,
	StatusFirstContact,
	StatusAppointmentScheduled,
	StatusDocuments,
	StatusAdmitted,
	StatusEnrolled,
}

// AllStatuses lists every status a prospect may hold.
var AllStatuses = append(append([]ProspectStatus{}, PipelineStages...), StatusLost)

// ParseProspectStatus normalises user input into a known status.
// "not_interested" is accepted as an alias of lost.
func ParseProspectStatus(s string) (ProspectStatus, bool) {
	v := ProspectStatus(strings.ToLower(strings.TrimSpace(s)))
	if v == "not_interested" {
		return StatusLost, true
	}
	return v, v.Valid()
}

// Valid reports whether s is a member of the pipeline.
func (s ProspectStatus) Valid() bool {
	return s == StatusLost || s.Index() >= 0
}

// Index returns the position of s in PipelineStages, or -1 for lost/unknown.
func (s ProspectStatus) Index() int {
	for i, st := range PipelineStages {
		if st == s {
			return i
		}
	}
	return -1
}

// IsTerminal is true for enrolled and lost.
func (s ProspectStatus) IsTerminal() bool {
	return s == StatusEnrolled || s == StatusLost
}

// IsForward reports whether moving from -> to advances the pipeline.
// It is informational only: transitions are never rejected on order,
// staff regularly move prospects back a stage.
func IsForward(from, to ProspectStatus) bool {
	if to == StatusLost {
		return false
	}
	return to.Index() > from.Index()
}

// Priority ranks how urgently a prospect should be worked.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	return p == PriorityHigh || p == PriorityMedium || p == PriorityLow
}

// Channel is a marketing source. Prospects carry it as their origin and
// campaigns run on one.
type Channel string

const (
	ChannelFacebook  Channel = "facebook"
	ChannelInstagram Channel = "instagram"
	ChannelGoogle    Channel = "google"
	ChannelTikTok    Channel = "tiktok"
	ChannelLinkedIn  Channel = "linkedin"
	ChannelEmail     Channel = "email"
	ChannelWhatsApp  Channel = "whatsapp"
	ChannelWebsite   Channel = "website"
	ChannelEvent     Channel = "event"
	ChannelReferral  Channel = "referral"
	ChannelOther     Channel = "other"
)

// Channels lists every known channel in display order.
var Channels = []Channel{
	ChannelFacebook, ChannelInstagram, ChannelGoogle, ChannelTikTok, ChannelLinkedIn,
	ChannelEmail, ChannelWhatsApp, ChannelWebsite, ChannelEvent, ChannelReferral, ChannelOther,
}

// Valid reports whether c is a known channel.
func (c Channel) Valid() bool {
	for _, ch := range Channels {
		if ch == c {
			return true
		}
	}
	return false
}

// EducationLevel is the highest education a prospect reports.
type EducationLevel string

const (
	EducationHighSchool EducationLevel = "high_school"
	EducationTechnical  EducationLevel = "technical"
	EducationBachelor   EducationLevel = "bachelor"
	EducationMaster     EducationLevel = "master"
	EducationDoctorate  EducationLevel = "doctorate"
	EducationOther      EducationLevel = "other"
)

// Prospect is a lead moving through the admissions pipeline.
type Prospect struct {
	ID              string           `json:"id"`
	Name            string           `json:"nombre"`
	Phone           string           `json:"telefono"`
	Email           string           `json:"email"`
	EducationLevel  EducationLevel   `json:"nivelEducativo"`
	Origin          Channel          `json:"origen"`
	Status          ProspectStatus   `json:"estado"`
	AdvisorID       *string          `json:"asesorId"`
	Priority        Priority         `json:"prioridad"`
	EnrollmentValue *decimal.Decimal `json:"valorInscripcion"`
	Notes           string           `json:"notas"`
	RegisteredAt    time.Time        `json:"fechaRegistro"`
	LastInteraction time.Time        `json:"ultimaInteraccion"`
	AppointmentAt   *time.Time       `json:"fechaCita"`
	AdditionalData  map[string]any   `json:"datosAdicionales"`
}

// AssignedTo reports whether the prospect's advisor is userID.
func (p *Prospect) AssignedTo(userID string) bool {
	return p.AdvisorID != nil && *p.AdvisorID == userID
}

// IsEnrolled is true when the prospect reached the last stage.
func (p *Prospect) IsEnrolled() bool {
	return p.Status == StatusEnrolled
}

// Revenue is the enrollment value counted by ROI metrics. Only enrolled
// prospects contribute.
func (p *Prospect) Revenue() decimal.Decimal {
	if !p.IsEnrolled() || p.EnrollmentValue == nil {
		return decimal.Zero
	}
	return *p.EnrollmentValue
}
