package models

import "time"

// Tenant is an isolated customer organization.
type Tenant struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"size:100;not null;unique"`
	CreatedAt time.Time
}

// TableName specifies the database table name for the Tenant model.
func (Tenant) TableName() string {
	return "tenants"
}

// Application is a product surface (HRMS, CRM) sharing tables with the others.
type Application struct {
	ID   uint   `gorm:"primaryKey"`
	Code string `gorm:"size:20;not null;unique"`
	Name string `gorm:"size:100;not null"`
}

// TableName specifies the database table name for the Application model.
func (Application) TableName() string {
	return "applications"
}

// ApplicationAccess is the tier-1 grant allowing a user to open an application at all.
// It is independent of role-based menu and record gating.
type ApplicationAccess struct {
	// ID is the unique identifier for the grant.
	ID uint `gorm:"primaryKey"`
	// UserID is the user receiving access.
	UserID uint64 `gorm:"not null;uniqueIndex:idx_app_access_user_app"`
	// ApplicationID is the application being opened.
	ApplicationID uint `gorm:"not null;uniqueIndex:idx_app_access_user_app"`
	// Application is the associated application.
	Application Application `gorm:"foreignKey:ApplicationID;constraint:OnDelete:CASCADE"`
	// TenantID is the tenant the grant belongs to.
	TenantID uint `gorm:"not null;index"`
	// IsActive disables the grant without deleting it.
	IsActive bool `gorm:"default:true"`
	// GrantedBy is the user who created the grant.
	GrantedBy uint64
	// CreatedAt is the timestamp when the grant was created (managed by GORM).
	CreatedAt time.Time
}

// TableName specifies the database table name for the ApplicationAccess model.
func (ApplicationAccess) TableName() string {
	return "application_access"
}
