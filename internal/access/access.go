// Package access holds the role rules that decide who may read or change
// what. The functions are pure; handlers call them after loading a record
// and services call ScopeAdvisor before listing.
package access

import (
	"errors"

	"github.com/ignite/admissions-crm/internal/domain"
)

// ErrForbidden is returned when the principal's role or ownership does not
// allow the operation.
var ErrForbidden = errors.New("forbidden")

// Principal is the authenticated caller.
type Principal struct {
	UserID string
	Role   domain.Role
}

// Is reports whether the principal holds one of roles.
func (p Principal) Is(roles ...domain.Role) bool {
	for _, r := range roles {
		if p.Role == r {
			return true
		}
	}
	return false
}

// Require returns ErrForbidden unless the principal holds one of roles.
func (p Principal) Require(roles ...domain.Role) error {
	if p.Is(roles...) {
		return nil
	}
	return ErrForbidden
}

// ScopeAdvisor returns the advisor id list queries must be pinned to.
// Advisors only ever see their own rows; leads see everything unless they
// asked for a specific advisor.
func (p Principal) ScopeAdvisor(requested string) string {
	if p.Role == domain.RoleAdvisor {
		return p.UserID
	}
	return requested
}

// CanViewProspect: leads see every prospect, advisors only their own.
func CanViewProspect(p Principal, pr *domain.Prospect) error {
	if p.Role.IsStaffLead() || pr.AssignedTo(p.UserID) {
		return nil
	}
	return ErrForbidden
}

// CanUpdateProspect follows the same rule as viewing.
func CanUpdateProspect(p Principal, pr *domain.Prospect) error {
	return CanViewProspect(p, pr)
}

// CanCreateProspect allows every role. Advisors get the prospect assigned
// to themselves by the caller.
func CanCreateProspect(p Principal) error {
	return p.Require(domain.RoleDirector, domain.RoleManager, domain.RoleAdvisor)
}

// CanDeleteProspect is director only.
func CanDeleteProspect(p Principal) error {
	return p.Require(domain.RoleDirector)
}

// CanAssignProspect is for managers and directors.
func CanAssignProspect(p Principal) error {
	return p.Require(domain.RoleDirector, domain.RoleManager)
}

// CanViewCampaigns covers campaign reads and ROI. Advisors have no
// campaign access.
func CanViewCampaigns(p Principal) error {
	return p.Require(domain.RoleDirector, domain.RoleManager)
}

// CanManageCampaigns covers campaign create, update and link changes.
func CanManageCampaigns(p Principal) error {
	return p.Require(domain.RoleDirector, domain.RoleManager)
}

// CanDeleteCampaign is director only.
func CanDeleteCampaign(p Principal) error {
	return p.Require(domain.RoleDirector)
}

// CanManageReports covers report definitions and ad-hoc generation.
func CanManageReports(p Principal) error {
	return p.Require(domain.RoleDirector, domain.RoleManager)
}

// CanManageForms covers lead capture forms.
func CanManageForms(p Principal) error {
	return p.Require(domain.RoleDirector, domain.RoleManager)
}

// CanCreateCommunication: advisors log only on their own prospects.
func CanCreateCommunication(p Principal, pr *domain.Prospect) error {
	return CanViewProspect(p, pr)
}

// CanViewCommunication: advisors see only what they authored.
func CanViewCommunication(p Principal, c *domain.Communication) error {
	if p.Role.IsStaffLead() || c.UserID == p.UserID {
		return nil
	}
	return ErrForbidden
}

// CanUpdateCommunication: advisors edit only what they authored.
func CanUpdateCommunication(p Principal, c *domain.Communication) error {
	return CanViewCommunication(p, c)
}

// CanDeleteCommunication: the author, or any manager or director.
func CanDeleteCommunication(p Principal, c *domain.Communication) error {
	return CanViewCommunication(p, c)
}

// CanViewAdvisorMetrics: advisors only their own numbers.
func CanViewAdvisorMetrics(p Principal, advisorID string) error {
	if p.Role.IsStaffLead() || advisorID == p.UserID {
		return nil
	}
	return ErrForbidden
}
