package domain

import "time"

// LeadForm is a public capture form. Submissions create prospects stamped
// with the form's origin and, when set, its campaign and default advisor.
type LeadForm struct {
	ID          string    `json:"id"`
	Name        string    `json:"nombre"`
	Slug        string    `json:"enlace"`
	Title       string    `json:"titulo"`
	Description string    `json:"descripcion"`
	Origin      Channel   `json:"origen"`
	CampaignID  *string   `json:"campanaId"`
	AdvisorID   *string   `json:"asesorId"`
	Active      bool      `json:"activo"`
	Fields      []string  `json:"campos"`
	CreatedAt   time.Time `json:"fechaCreacion"`
}

// DefaultFormFields are shown when a form does not list its own.
var DefaultFormFields = []string{"nombre", "telefono", "email", "nivelEducativo"}

// PublicFormView is what anonymous visitors receive for a form.
type PublicFormView struct {
	Title       string   `json:"titulo"`
	Description string   `json:"descripcion"`
	Fields      []string `json:"campos"`
}

// Public strips internal routing data from the form.
func (f *LeadForm) Public() PublicFormView {
	fields := f.Fields
	if len(fields) == 0 {
		fields = DefaultFormFields
	}
	return PublicFormView{Title: f.Title, Description: f.Description, Fields: fields}
}
