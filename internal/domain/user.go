package domain

import "time"

// Role enumerates what a staff member is allowed to see and change.
type Role string

const (
	RoleDirector Role = "director"
	RoleManager  Role = "manager"
	RoleAdvisor  Role = "advisor"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleDirector, RoleManager, RoleAdvisor:
		return true
	}
	return false
}

// IsStaffLead is true for roles that see every prospect (manager, director).
func (r Role) IsStaffLead() bool {
	return r == RoleManager || r == RoleDirector
}

// User is a staff account. Role is fixed at creation.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Name         string    `json:"nombre"`
	Email        string    `json:"email"`
	Role         Role      `json:"rol"`
	Active       bool      `json:"activo"`
	CreatedAt    time.Time `json:"fechaCreacion"`
}
