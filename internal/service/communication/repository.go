package communication

import (
	"context"
	"time"

	"github.com/ignite/admissions-crm/internal/domain"
)

// Repository defines the data access contract for communications.
// Implementations must be safe for concurrent use.
type Repository interface {
	// Get returns ErrNotFound if the communication doesn't exist.
	Get(ctx context.Context, id string) (*domain.Communication, error)

	// List returns matches newest first plus the total before pagination.
	// Limit <= 0 returns every match.
	List(ctx context.Context, filter ListFilter) ([]domain.Communication, int, error)

	// Create inserts the communication and moves the prospect's last
	// interaction to max(now, c.Timestamp) atomically.
	Create(ctx context.Context, c *domain.Communication, now time.Time) error

	// Update applies the non-nil fields. Returns ErrNotFound if missing.
	Update(ctx context.Context, id string, u UpdateFields) (*domain.Communication, error)

	// Delete reports false when the communication did not exist.
	Delete(ctx context.Context, id string) (bool, error)
}

// ListFilter controls pagination and filtering for communication lists.
type ListFilter struct {
	ProspectID string
	UserID     string
	Type       domain.CommunicationType
	Direction  domain.CommunicationDirection
	State      domain.CommunicationState
	From       time.Time
	To         time.Time
	Limit      int
	Offset     int
}

// UpdateFields holds the only mutable communication fields.
type UpdateFields struct {
	Content         *string
	Result          *string
	DurationMinutes *int
	State           *domain.CommunicationState
}
