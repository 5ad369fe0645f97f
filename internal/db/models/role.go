package models

import "time"

// Role represents a role in the role-based access control (RBAC) system.
// Roles are partitioned per application (HRMS, CRM) and ranked by Level,
// where a higher level means more privilege.
type Role struct {
	// ID is the unique identifier for the role.
	ID uint `gorm:"primaryKey"`
	// ApplicationCode is the application this role belongs to (e.g. "HRMS", "CRM").
	ApplicationCode string `gorm:"size:20;not null;uniqueIndex:idx_role_app_code"`
	// Code is the stable role identifier, unique within its application.
	Code string `gorm:"size:50;not null;uniqueIndex:idx_role_app_code"`
	// Name is the display name of the role.
	Name string `gorm:"size:100;not null"`
	// Description provides a human-readable description of the role's purpose.
	Description string `gorm:"size:255"`
	// Level is the privilege rank from 1 (lowest) to 5 (super admin).
	Level int `gorm:"not null;index"`
	// IsSystem indicates a seeded role that cannot be deleted. Only its name,
	// description and menu grants can change.
	IsSystem bool `gorm:"default:false"`

	// CanCreateRecords allows creating records.
	CanCreateRecords bool `gorm:"default:false"`

	CanViewOwnRecords         bool `gorm:"default:false"`
	CanViewPeerRecords        bool `gorm:"default:false"`
	CanViewSubordinateRecords bool `gorm:"default:false"`
	CanViewAllRecords         bool `gorm:"default:false"`

	CanEditOwnRecords         bool `gorm:"default:false"`
	CanEditPeerRecords        bool `gorm:"default:false"`
	CanEditSubordinateRecords bool `gorm:"default:false"`
	CanEditAllRecords         bool `gorm:"default:false"`

	CanDeleteOwnRecords         bool `gorm:"default:false"`
	CanDeletePeerRecords        bool `gorm:"default:false"`
	CanDeleteSubordinateRecords bool `gorm:"default:false"`
	CanDeleteAllRecords         bool `gorm:"default:false"`

	// CanAssignRoles allows assigning roles to other users.
	CanAssignRoles bool `gorm:"default:false"`
	// CanManageUsers allows managing user accounts.
	CanManageUsers bool `gorm:"default:false"`
	// CanManageBusinesses allows managing businesses of the tenant.
	CanManageBusinesses bool `gorm:"default:false"`
	// CanManageRoles allows creating and editing roles and their menu grants.
	CanManageRoles bool `gorm:"default:false"`

	// CreatedAt is the timestamp when the role was created (managed by GORM).
	CreatedAt time.Time
	// UpdatedAt is the timestamp when the role was last updated (managed by GORM).
	UpdatedAt time.Time
}

// TableName specifies the database table name for the Role model.
func (Role) TableName() string {
	return "roles"
}
