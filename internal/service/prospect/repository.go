package prospect

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ignite/admissions-crm/internal/domain"
)

// Repository defines the data access contract for prospects.
// Implementations must be safe for concurrent use.
type Repository interface {
	// Get returns a single prospect. Returns ErrNotFound if it doesn't exist.
	Get(ctx context.Context, id string) (*domain.Prospect, error)

	// List returns prospects matching the filter, newest registration first,
	// plus the total before pagination. Limit <= 0 returns every match.
	List(ctx context.Context, filter ListFilter) ([]domain.Prospect, int, error)

	// Create inserts a new prospect.
	Create(ctx context.Context, p *domain.Prospect) error

	// Update applies the non-nil fields and always writes LastInteraction.
	// Returns ErrNotFound if the prospect doesn't exist.
	Update(ctx context.Context, id string, u UpdateFields) (*domain.Prospect, error)

	// Delete removes the prospect with its communications, campaign links,
	// documents and payments in one transaction. Reports false when the
	// prospect did not exist.
	Delete(ctx context.Context, id string) (bool, error)
}

// ListFilter controls pagination and filtering for prospect lists.
type ListFilter struct {
	AdvisorID      string
	Status         domain.ProspectStatus
	Origin         domain.Channel
	Priority       domain.Priority
	Search         string
	RegisteredFrom time.Time
	RegisteredTo   time.Time // inclusive
	Limit          int
	Offset         int
}

// UpdateFields holds the mutable fields for a prospect update.
// Nil fields are not applied.
type UpdateFields struct {
	Name            *string
	Phone           *string
	Email           *string
	EducationLevel  *domain.EducationLevel
	Origin          *domain.Channel
	Status          *domain.ProspectStatus
	AdvisorID       *string
	Priority        *domain.Priority
	EnrollmentValue *decimal.Decimal
	Notes           *string
	AppointmentAt   *time.Time
	AdditionalData  map[string]any
	LastInteraction time.Time
}
