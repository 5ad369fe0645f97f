// Package access implements the permission core's backend interfaces on top of gorm.
package access

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/tenantdesk/tenantdesk/internal/db/models"
	"github.com/tenantdesk/tenantdesk/internal/rbac"
)

var (
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
	// ErrUnknownApplication is returned when no application has the requested code.
	ErrUnknownApplication = errors.New("unknown application")
)

const activeWindow = "user_role_assignments.valid_from <= ? AND " +
	"(user_role_assignments.valid_until IS NULL OR user_role_assignments.valid_until >= ?)"

// Repository reads and writes authorization facts.
type Repository struct {
	db  *gorm.DB
	now func() time.Time
}

// Option configures a Repository.
type Option func(*Repository)

// WithClock overrides the time used to evaluate validity windows.
func WithClock(now func() time.Time) Option {
	return func(r *Repository) {
		r.now = now
	}
}

// New creates a Repository.
func New(db *gorm.DB, opts ...Option) (*Repository, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	r := &Repository{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}

	for _, opt := range opts {
		opt(r)
	}

	return r, nil
}

// GetActiveRoleAssignment returns the actor's currently valid assignment with its role, or nil.
func (r *Repository) GetActiveRoleAssignment(
	ctx context.Context, actorID uint64, applicationCode string,
) (*rbac.Assignment, error) {
	now := r.now().UTC()

	var row models.RoleAssignment

	err := r.db.WithContext(ctx).Preload("Role").
		Where("user_id = ? AND application_code = ?", actorID, applicationCode).
		Where(activeWindow, now, now).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get active role assignment: %w", err)
	}

	return r.withScope(ctx, row)
}

// FindAssignment returns the actor's assignment regardless of its validity window, or nil.
func (r *Repository) FindAssignment(ctx context.Context, actorID uint64, applicationCode string) (*rbac.Assignment, error) {
	var row models.RoleAssignment

	err := r.db.WithContext(ctx).Preload("Role").
		Where("user_id = ? AND application_code = ?", actorID, applicationCode).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to find role assignment: %w", err)
	}

	return r.withScope(ctx, row)
}

// ListMenuItems returns active menu items of the application ordered by display order.
func (r *Repository) ListMenuItems(ctx context.Context, applicationCode string) ([]rbac.MenuItem, error) {
	var rows []models.MenuItem

	err := r.db.WithContext(ctx).
		Where("application_code = ? AND is_active = ?", applicationCode, true).
		Order("display_order ASC, id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list menu items: %w", err)
	}

	items := make([]rbac.MenuItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, ToMenuItem(row))
	}

	return items, nil
}

// ListRoleMenuGrants returns every grant row of a role.
func (r *Repository) ListRoleMenuGrants(ctx context.Context, roleID uint) ([]rbac.MenuGrant, error) {
	var rows []models.RoleMenuPermission

	if err := r.db.WithContext(ctx).Where("role_id = ?", roleID).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list role menu grants: %w", err)
	}

	grants := make([]rbac.MenuGrant, 0, len(rows))
	for _, row := range rows {
		grants = append(grants, rbac.MenuGrant{MenuItemID: row.MenuItemID, CanAccess: row.CanAccess})
	}

	return grants, nil
}

// HasApplicationAccess reports whether the actor holds an active grant for the application.
func (r *Repository) HasApplicationAccess(ctx context.Context, actorID uint64, applicationCode string) (bool, error) {
	var count int64

	err := r.db.WithContext(ctx).Table("application_access").
		Joins("JOIN applications ON applications.id = application_access.application_id").
		Where("application_access.user_id = ? AND applications.code = ? AND application_access.is_active = ?",
			actorID, applicationCode, true).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check application access: %w", err)
	}

	return count > 0, nil
}

// ListApplicationAccessGrants returns every tier-1 grant of a tenant.
func (r *Repository) ListApplicationAccessGrants(ctx context.Context, tenantID uint) ([]rbac.ApplicationGrant, error) {
	var rows []models.ApplicationAccess

	err := r.db.WithContext(ctx).Preload("Application").
		Where("tenant_id = ?", tenantID).
		Order("user_id ASC, application_id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list application access grants: %w", err)
	}

	grants := make([]rbac.ApplicationGrant, 0, len(rows))
	for _, row := range rows {
		grants = append(grants, rbac.ApplicationGrant{
			UserID:          row.UserID,
			ApplicationID:   row.ApplicationID,
			ApplicationCode: row.Application.Code,
			IsActive:        row.IsActive,
		})
	}

	return grants, nil
}

// SetApplicationAccess creates or updates the tier-1 grant of a user for an application.
// It returns ErrUnknownApplication when no application has the code.
func (r *Repository) SetApplicationAccess(
	ctx context.Context, tenantID uint, userID uint64, applicationCode string, active bool, grantedBy uint64,
) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var app models.Application

		err := tx.Where("code = ?", applicationCode).First(&app).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUnknownApplication
		}

		if err != nil {
			return fmt.Errorf("failed to find application: %w", err)
		}

		grant := models.ApplicationAccess{UserID: userID, ApplicationID: app.ID}
		if err := tx.Where(&grant).Attrs(models.ApplicationAccess{TenantID: tenantID, GrantedBy: grantedBy}).
			FirstOrCreate(&grant).Error; err != nil {
			return fmt.Errorf("failed to save application access: %w", err)
		}

		return tx.Model(&grant).Updates(map[string]any{
			"is_active":  active,
			"granted_by": grantedBy,
		}).Error
	})
}

// GetRole returns a role by ID, or nil when it does not exist.
func (r *Repository) GetRole(ctx context.Context, roleID uint) (*rbac.Role, error) {
	var row models.Role

	err := r.db.WithContext(ctx).First(&row, roleID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get role: %w", err)
	}

	role := ToRole(row)

	return &role, nil
}

// CheckCanAssignRole is the authoritative capability check. The assigner's active role
// must carry can_assign_roles or can_manage_roles and targetLevel must be within its ceiling.
func (r *Repository) CheckCanAssignRole(
	ctx context.Context, assignerID uint64, applicationCode string, targetLevel int,
) (bool, error) {
	assignment, err := r.GetActiveRoleAssignment(ctx, assignerID, applicationCode)
	if err != nil {
		return false, err
	}

	if assignment == nil || !assignment.Role.CanAssign() {
		return false, nil
	}

	return targetLevel >= rbac.MinLevel && targetLevel <= rbac.MaxAssignableLevel(assignment.Role.Level), nil
}

// ReplaceAssignment deletes the actor's assignment and scope rows and inserts a, in one transaction.
func (r *Repository) ReplaceAssignment(ctx context.Context, a rbac.Assignment) (rbac.Assignment, error) {
	// sqlite compares the window as text, every bound is stored in UTC
	a.ValidFrom = a.ValidFrom.UTC()
	if a.ValidUntil != nil {
		until := a.ValidUntil.UTC()
		a.ValidUntil = &until
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := revoke(tx, a.UserID, a.ApplicationCode); err != nil {
			return err
		}

		row := models.RoleAssignment{
			UserID:          a.UserID,
			ApplicationCode: a.ApplicationCode,
			RoleID:          a.Role.ID,
			AssignedBy:      a.AssignedBy,
			ValidFrom:       a.ValidFrom,
			ValidUntil:      a.ValidUntil,
		}

		if err := tx.Create(&row).Error; err != nil {
			return fmt.Errorf("failed to create role assignment: %w", err)
		}

		a.ID = row.ID

		return insertScope(tx, row.ID, a.Scope)
	})
	if err != nil {
		return rbac.Assignment{}, err
	}

	return a, nil
}

// RevokeAssignment deletes the actor's assignment and scope rows. It reports whether a row existed.
func (r *Repository) RevokeAssignment(ctx context.Context, actorID uint64, applicationCode string) (bool, error) {
	var existed bool

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		existed, err = revoke(tx, actorID, applicationCode)

		return err
	})

	return existed, err
}

func revoke(tx *gorm.DB, actorID uint64, applicationCode string) (bool, error) {
	var ids []uint

	err := tx.Model(&models.RoleAssignment{}).
		Where("user_id = ? AND application_code = ?", actorID, applicationCode).
		Pluck("id", &ids).Error
	if err != nil {
		return false, fmt.Errorf("failed to find role assignment: %w", err)
	}

	if len(ids) == 0 {
		return false, nil
	}

	for _, scopeModel := range []any{
		&models.AssignmentBusiness{},
		&models.AssignmentContactType{},
		&models.AssignmentPipeline{},
	} {
		if err := tx.Where("assignment_id IN ?", ids).Delete(scopeModel).Error; err != nil {
			return false, fmt.Errorf("failed to delete assignment scope: %w", err)
		}
	}

	if err := tx.Where("id IN ?", ids).Delete(&models.RoleAssignment{}).Error; err != nil {
		return false, fmt.Errorf("failed to delete role assignment: %w", err)
	}

	return true, nil
}

func insertScope(tx *gorm.DB, assignmentID uint, scope rbac.AssignmentScope) error {
	for _, id := range scope.BusinessIDs {
		if err := tx.Create(&models.AssignmentBusiness{AssignmentID: assignmentID, BusinessID: id}).Error; err != nil {
			return fmt.Errorf("failed to add business scope: %w", err)
		}
	}

	for _, id := range scope.ContactTypeIDs {
		if err := tx.Create(&models.AssignmentContactType{AssignmentID: assignmentID, ContactTypeID: id}).Error; err != nil {
			return fmt.Errorf("failed to add contact type scope: %w", err)
		}
	}

	for _, id := range scope.PipelineIDs {
		if err := tx.Create(&models.AssignmentPipeline{AssignmentID: assignmentID, PipelineID: id}).Error; err != nil {
			return fmt.Errorf("failed to add pipeline scope: %w", err)
		}
	}

	return nil
}

func (r *Repository) withScope(ctx context.Context, row models.RoleAssignment) (*rbac.Assignment, error) {
	a := &rbac.Assignment{
		ID:              row.ID,
		UserID:          row.UserID,
		ApplicationCode: row.ApplicationCode,
		Role:            ToRole(row.Role),
		AssignedBy:      row.AssignedBy,
		ValidFrom:       row.ValidFrom,
		ValidUntil:      row.ValidUntil,
	}

	db := r.db.WithContext(ctx)

	if err := db.Model(&models.AssignmentBusiness{}).Where("assignment_id = ?", row.ID).
		Order("business_id").Pluck("business_id", &a.Scope.BusinessIDs).Error; err != nil {
		return nil, fmt.Errorf("failed to load business scope: %w", err)
	}

	if err := db.Model(&models.AssignmentContactType{}).Where("assignment_id = ?", row.ID).
		Order("contact_type_id").Pluck("contact_type_id", &a.Scope.ContactTypeIDs).Error; err != nil {
		return nil, fmt.Errorf("failed to load contact type scope: %w", err)
	}

	if err := db.Model(&models.AssignmentPipeline{}).Where("assignment_id = ?", row.ID).
		Order("pipeline_id").Pluck("pipeline_id", &a.Scope.PipelineIDs).Error; err != nil {
		return nil, fmt.Errorf("failed to load pipeline scope: %w", err)
	}

	return a, nil
}
