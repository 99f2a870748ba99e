package campaign

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ignite/admissions-crm/internal/domain"
)

// Repository defines the data access contract for campaigns and their
// prospect links. Implementations must be safe for concurrent use.
type Repository interface {
	// Get returns a single campaign. Returns ErrNotFound if it doesn't exist.
	Get(ctx context.Context, id string) (*domain.Campaign, error)

	// List returns campaigns matching the filter, ordered by created_at DESC.
	// Limit <= 0 returns every match.
	List(ctx context.Context, filter ListFilter) ([]domain.Campaign, int, error)

	// Create inserts a new campaign.
	Create(ctx context.Context, c *domain.Campaign) error

	// Update applies the non-nil fields. Returns ErrNotFound if missing.
	Update(ctx context.Context, id string, u UpdateFields) (*domain.Campaign, error)

	// Delete removes the campaign and its links in one transaction. Reports
	// false when the campaign did not exist.
	Delete(ctx context.Context, id string) (bool, error)

	// Link attributes a prospect to a campaign. Returns ErrAlreadyLinked for
	// a duplicate pair.
	Link(ctx context.Context, l *domain.CampaignProspect) error

	// Unlink reports false when the pair was not linked.
	Unlink(ctx context.Context, campaignID, prospectID string) (bool, error)

	// Links returns every link, or only those of campaignID when set.
	Links(ctx context.Context, campaignID string) ([]domain.CampaignProspect, error)

	// LinkedProspects returns the prospects attributed to a campaign.
	LinkedProspects(ctx context.Context, campaignID string) ([]domain.Prospect, error)
}

// ListFilter controls pagination and filtering for campaign lists.
type ListFilter struct {
	State   domain.CampaignState
	Channel domain.Channel
	Search  string
	Limit   int
	Offset  int
}

// UpdateFields holds the mutable fields for a campaign update.
// Nil fields are not applied.
type UpdateFields struct {
	Name             *string
	Description      *string
	Channel          *domain.Channel
	Budget           *decimal.Decimal
	Spent            *decimal.Decimal
	State            *domain.CampaignState
	StartAt          *time.Time
	EndAt            *time.Time
	LeadTarget       *int
	EnrollmentTarget *int
	ChannelConfig    map[string]any
}
