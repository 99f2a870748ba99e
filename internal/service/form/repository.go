package form

import (
	"context"

	"github.com/ignite/admissions-crm/internal/domain"
)

// Repository defines the data access contract for lead forms.
// Implementations must be safe for concurrent use.
type Repository interface {
	// Get returns ErrNotFound if the form doesn't exist.
	Get(ctx context.Context, id string) (*domain.LeadForm, error)
	// GetBySlug returns ErrNotFound for an unknown link.
	GetBySlug(ctx context.Context, slug string) (*domain.LeadForm, error)
	// List returns forms newest first.
	List(ctx context.Context) ([]domain.LeadForm, error)
	// Create returns ErrSlugTaken for a duplicate link.
	Create(ctx context.Context, f *domain.LeadForm) error
	// Update replaces the editable fields. Returns ErrNotFound if missing.
	Update(ctx context.Context, f *domain.LeadForm) error
	// Delete reports false when the form did not exist.
	Delete(ctx context.Context, id string) (bool, error)
}
