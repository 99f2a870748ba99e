package user

import (
	"context"

	"github.com/ignite/admissions-crm/internal/domain"
)

// Repository defines the data access contract for users.
// Implementations must be safe for concurrent use.
type Repository interface {
	// Get returns ErrNotFound if the id is unknown.
	Get(ctx context.Context, id string) (*domain.User, error)

	// GetByUsername returns ErrNotFound if no account uses the name.
	GetByUsername(ctx context.Context, username string) (*domain.User, error)

	// List returns users ordered by name.
	List(ctx context.Context, filter ListFilter) ([]domain.User, error)

	// Create inserts the user. Returns ErrUsernameTaken on a duplicate name.
	Create(ctx context.Context, u *domain.User) error
}

// ListFilter narrows user lists.
type ListFilter struct {
	Role       domain.Role
	ActiveOnly bool
}
