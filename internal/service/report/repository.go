package report

import (
	"context"
	"time"

	"github.com/ignite/admissions-crm/internal/domain"
)

// Repository defines the data access contract for report definitions.
// Implementations must be safe for concurrent use.
type Repository interface {
	// Get returns ErrNotFound if the definition doesn't exist.
	Get(ctx context.Context, id string) (*domain.ReportDefinition, error)
	// List returns definitions ordered by name.
	List(ctx context.Context, filter ListFilter) ([]domain.ReportDefinition, error)
	Create(ctx context.Context, d *domain.ReportDefinition) error
	// Update replaces the editable fields. Returns ErrNotFound if missing.
	Update(ctx context.Context, d *domain.ReportDefinition) error
	// Delete reports false when the definition did not exist.
	Delete(ctx context.Context, id string) (bool, error)
	// Due returns active definitions whose next run is at or before now.
	Due(ctx context.Context, now time.Time) ([]domain.ReportDefinition, error)
	// MarkRun records a successful execution.
	MarkRun(ctx context.Context, id string, lastRun, nextRun time.Time) error
}

// ListFilter narrows definition lists.
type ListFilter struct {
	Type       domain.ReportType
	ActiveOnly bool
}
