package rbac

import "time"

// Role levels. The top level may assign any level, including its own.
const (
	MinLevel = 1
	MaxLevel = 5
)

// Management holds the administrative capabilities of a role.
type Management struct {
	AssignRoles      bool `json:"assignRoles"`
	ManageUsers      bool `json:"manageUsers"`
	ManageBusinesses bool `json:"manageBusinesses"`
	ManageRoles      bool `json:"manageRoles"`
}

// Role is the authorization view of a role.
type Role struct {
	ID              uint            `json:"id"`
	ApplicationCode string          `json:"applicationCode"`
	Code            string          `json:"code"`
	Name            string          `json:"name"`
	Level           int             `json:"level"`
	IsSystem        bool            `json:"isSystem"`
	Flags           PermissionFlags `json:"flags"`
	Management      Management      `json:"management"`
}

// CanAssign reports whether the role carries the capability to assign roles.
func (r *Role) CanAssign() bool {
	return r != nil && (r.Management.AssignRoles || r.Management.ManageRoles)
}

// MenuItem is a navigation entry known to the store.
type MenuItem struct {
	ID           uint   `json:"id"`
	Code         string `json:"code"`
	Name         string `json:"name"`
	Path         string `json:"path"`
	Icon         string `json:"icon,omitempty"`
	DisplayOrder int    `json:"displayOrder"`
}

// MenuGrant is one (menu item, can_access) row of a role.
type MenuGrant struct {
	MenuItemID uint
	CanAccess  bool
}

// AssignmentScope narrows an assignment. Empty sets mean "all".
type AssignmentScope struct {
	BusinessIDs    []uint `json:"businessIds,omitempty"`
	ContactTypeIDs []uint `json:"contactTypeIds,omitempty"`
	PipelineIDs    []uint `json:"pipelineIds,omitempty"`
}

// Assignment binds an actor to a role inside one application.
type Assignment struct {
	ID              uint            `json:"id"`
	UserID          uint64          `json:"userId"`
	ApplicationCode string          `json:"applicationCode"`
	Role            Role            `json:"role"`
	AssignedBy      uint64          `json:"assignedBy"`
	ValidFrom       time.Time       `json:"validFrom"`
	ValidUntil      *time.Time      `json:"validUntil,omitempty"`
	Scope           AssignmentScope `json:"scope"`
}

// ActiveAt reports whether t falls inside the validity window.
func (a *Assignment) ActiveAt(t time.Time) bool {
	if t.Before(a.ValidFrom) {
		return false
	}

	return a.ValidUntil == nil || !t.After(*a.ValidUntil)
}

// ApplicationGrant is a tier-1 access row.
type ApplicationGrant struct {
	UserID          uint64 `json:"userId"`
	ApplicationID   uint   `json:"applicationId"`
	ApplicationCode string `json:"applicationCode"`
	IsActive        bool   `json:"isActive"`
}

// MaxAssignableLevel returns the highest level an actor at level may assign.
func MaxAssignableLevel(level int) int {
	if level >= MaxLevel {
		return MaxLevel
	}

	return level - 1
}
