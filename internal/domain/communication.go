package domain

import "time"

// CommunicationType is the medium used to reach a prospect.
type CommunicationType string

const (
	CommCall     CommunicationType = "call"
	CommEmail    CommunicationType = "email"
	CommWhatsApp CommunicationType = "whatsapp"
	CommInPerson CommunicationType = "in_person"
)

// CommunicationDirection tells whether staff sent or received the message.
type CommunicationDirection string

const (
	DirectionSent     CommunicationDirection = "sent"
	DirectionReceived CommunicationDirection = "received"
)

// CommunicationState tracks whether the interaction actually happened.
type CommunicationState string

const (
	CommCompleted CommunicationState = "completed"
	CommPending   CommunicationState = "pending"
	CommFailed    CommunicationState = "failed"
)

// Communication is one logged interaction between an advisor and a prospect.
// ProspectID and UserID never change after creation.
type Communication struct {
	ID              string                 `json:"id"`
	ProspectID      string                 `json:"prospectoId"`
	UserID          string                 `json:"usuarioId"`
	Type            CommunicationType      `json:"tipo"`
	Direction       CommunicationDirection `json:"direccion"`
	Content         string                 `json:"contenido"`
	Result          *string                `json:"resultado"`
	DurationMinutes *int                   `json:"duracion"`
	Timestamp       time.Time              `json:"fecha"`
	State           CommunicationState     `json:"estado"`
}

// IsCall reports whether the communication was a phone call.
func (c *Communication) IsCall() bool {
	return c.Type == CommCall
}
