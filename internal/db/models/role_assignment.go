package models

import "time"

// RoleAssignment binds a user to exactly one role per application.
// Reassignment deletes the previous row and its scope rows before inserting a new one.
type RoleAssignment struct {
	// ID is the unique identifier for the assignment.
	ID uint `gorm:"primaryKey"`
	// UserID is the subject of the assignment.
	UserID uint64 `gorm:"not null;uniqueIndex:idx_assignment_user_app"`
	// ApplicationCode is the application the assignment applies to.
	ApplicationCode string `gorm:"size:20;not null;uniqueIndex:idx_assignment_user_app"`
	// RoleID is the assigned role.
	RoleID uint `gorm:"not null;index"`
	// Role is the associated role (enforced with a foreign key constraint).
	Role Role `gorm:"foreignKey:RoleID;references:ID;constraint:OnDelete:RESTRICT,OnUpdate:CASCADE"`
	// AssignedBy is the user who created the assignment.
	AssignedBy uint64 `gorm:"not null"`
	// ValidFrom is the start of the validity window.
	ValidFrom time.Time `gorm:"not null"`
	// ValidUntil is the optional end of the validity window.
	ValidUntil *time.Time
	// CreatedAt is the timestamp when the assignment was created (managed by GORM).
	CreatedAt time.Time
}

// TableName specifies the database table name for the RoleAssignment model.
func (RoleAssignment) TableName() string {
	return "user_role_assignments"
}

// AssignmentBusiness restricts an assignment to a business.
type AssignmentBusiness struct {
	AssignmentID uint `gorm:"primaryKey"`
	BusinessID   uint `gorm:"primaryKey"`
}

// TableName specifies the database table name for the AssignmentBusiness model.
func (AssignmentBusiness) TableName() string {
	return "assignment_businesses"
}

// AssignmentContactType restricts an assignment to a contact type.
type AssignmentContactType struct {
	AssignmentID  uint `gorm:"primaryKey"`
	ContactTypeID uint `gorm:"primaryKey"`
}

// TableName specifies the database table name for the AssignmentContactType model.
func (AssignmentContactType) TableName() string {
	return "assignment_contact_types"
}

// AssignmentPipeline restricts an assignment to a sales pipeline.
type AssignmentPipeline struct {
	AssignmentID uint `gorm:"primaryKey"`
	PipelineID   uint `gorm:"primaryKey"`
}

// TableName specifies the database table name for the AssignmentPipeline model.
func (AssignmentPipeline) TableName() string {
	return "assignment_pipelines"
}
