// Package role provides CRUD operations for roles and their menu grants.
package role

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/tenantdesk/tenantdesk/internal/db/models"
	"github.com/tenantdesk/tenantdesk/internal/rbac"
)

const appQueryPattern = "application_code = ?"

var (
	// ErrRoleNotFound is returned when a role is not found.
	ErrRoleNotFound = errors.New("role not found")
	// ErrRoleCodeEmpty is returned when a role has no code.
	ErrRoleCodeEmpty = errors.New("role code cannot be empty")
	// ErrRoleAlreadyExists is returned when the code is already used in the application.
	ErrRoleAlreadyExists = errors.New("role already exists")
	// ErrInvalidLevel is returned when a level is outside the supported range.
	ErrInvalidLevel = errors.New("role level out of range")
	// ErrSystemRole is returned when attempting to delete a system role.
	ErrSystemRole = errors.New("system roles cannot be deleted")
	// ErrSystemRoleImmutable is returned when an update touches more than the name
	// or description of a system role.
	ErrSystemRoleImmutable = errors.New("only the name and description of a system role can be changed")
	// ErrRoleInUse is returned when deleting a role that is still assigned.
	ErrRoleInUse = errors.New("role is still assigned")
	// ErrMenuItemMismatch is returned when a grant references a menu item of another application.
	ErrMenuItemMismatch = errors.New("menu item belongs to another application")
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
)

// Get retrieves a role by its ID.
func Get(db *gorm.DB, id uint) (*models.Role, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var role models.Role
	if err := db.First(&role, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoleNotFound
		}

		return nil, err
	}

	return &role, nil
}

// List returns every role of an application, lowest level first.
func List(db *gorm.DB, applicationCode string) ([]models.Role, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var roles []models.Role
	if err := db.Where(appQueryPattern, applicationCode).Order("level ASC, code ASC").Find(&roles).Error; err != nil {
		return nil, err
	}

	return roles, nil
}

// ListAssignable returns the roles an assigner at assignerLevel may hand out.
func ListAssignable(db *gorm.DB, applicationCode string, assignerLevel int) ([]models.Role, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	ceiling := rbac.MaxAssignableLevel(assignerLevel)
	if ceiling < rbac.MinLevel {
		return []models.Role{}, nil
	}

	var roles []models.Role

	err := db.Where(appQueryPattern, applicationCode).
		Where("level BETWEEN ? AND ?", rbac.MinLevel, ceiling).
		Order("level ASC, code ASC").
		Find(&roles).Error
	if err != nil {
		return nil, err
	}

	return roles, nil
}

// Create inserts a new custom role. Codes are stored upper case.
func Create(db *gorm.DB, role *models.Role) error {
	if db == nil {
		return ErrDBNil
	}

	if err := validate(role); err != nil {
		return err
	}

	role.ID = 0
	role.IsSystem = false

	var count int64
	if err := db.Model(&models.Role{}).
		Where("application_code = ? AND code = ?", role.ApplicationCode, role.Code).
		Count(&count).Error; err != nil {
		return err
	}

	if count > 0 {
		return ErrRoleAlreadyExists
	}

	return db.Create(role).Error
}

// Update replaces the editable columns of a role. The application and the
// system marker never change. Of a system role only the name and the
// description may change.
func Update(db *gorm.DB, id uint, in models.Role) (*models.Role, error) {
	role, err := Get(db, id)
	if err != nil {
		return nil, err
	}

	in.ApplicationCode = role.ApplicationCode
	if err := validate(&in); err != nil {
		return nil, err
	}

	if role.IsSystem && !onlyLabelsChanged(*role, in) {
		return nil, ErrSystemRoleImmutable
	}

	if in.Code != role.Code {
		var count int64
		if err := db.Model(&models.Role{}).
			Where("application_code = ? AND code = ? AND id <> ?", role.ApplicationCode, in.Code, id).
			Count(&count).Error; err != nil {
			return nil, err
		}

		if count > 0 {
			return nil, ErrRoleAlreadyExists
		}
	}

	in.ID = role.ID
	in.IsSystem = role.IsSystem
	in.CreatedAt = role.CreatedAt

	if err := db.Model(role).Select("*").Omit("id", "application_code", "is_system", "created_at").
		Updates(&in).Error; err != nil {
		return nil, err
	}

	return Get(db, id)
}

// onlyLabelsChanged reports whether in differs from cur in nothing but the name
// and the description.
func onlyLabelsChanged(cur, in models.Role) bool {
	in.ID = cur.ID
	in.ApplicationCode = cur.ApplicationCode
	in.Name = cur.Name
	in.Description = cur.Description
	in.IsSystem = cur.IsSystem
	in.CreatedAt = cur.CreatedAt
	in.UpdatedAt = cur.UpdatedAt

	return in == cur
}

// Delete removes a custom role together with its menu grants.
func Delete(db *gorm.DB, id uint) error {
	role, err := Get(db, id)
	if err != nil {
		return err
	}

	if role.IsSystem {
		return ErrSystemRole
	}

	return db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.RoleAssignment{}).Where("role_id = ?", id).Count(&count).Error; err != nil {
			return err
		}

		if count > 0 {
			return ErrRoleInUse
		}

		if err := tx.Where("role_id = ?", id).Delete(&models.RoleMenuPermission{}).Error; err != nil {
			return err
		}

		return tx.Delete(&models.Role{}, id).Error
	})
}

// MenuGrants returns the grant rows of a role.
func MenuGrants(db *gorm.DB, roleID uint) ([]models.RoleMenuPermission, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var grants []models.RoleMenuPermission
	if err := db.Where("role_id = ?", roleID).Order("menu_item_id ASC").Find(&grants).Error; err != nil {
		return nil, err
	}

	return grants, nil
}

// SetMenuGrants replaces every grant row of a role in one transaction.
// Keys are menu item IDs of the role's application.
func SetMenuGrants(db *gorm.DB, roleID uint, grants map[uint]bool) error {
	role, err := Get(db, roleID)
	if err != nil {
		return err
	}

	return db.Transaction(func(tx *gorm.DB) error {
		if len(grants) > 0 {
			ids := make([]uint, 0, len(grants))
			for id := range grants {
				ids = append(ids, id)
			}

			var count int64
			if err := tx.Model(&models.MenuItem{}).
				Where("id IN ? AND application_code = ?", ids, role.ApplicationCode).
				Count(&count).Error; err != nil {
				return err
			}

			if int(count) != len(ids) {
				return ErrMenuItemMismatch
			}
		}

		if err := tx.Where("role_id = ?", roleID).Delete(&models.RoleMenuPermission{}).Error; err != nil {
			return err
		}

		for menuItemID, canAccess := range grants {
			row := models.RoleMenuPermission{RoleID: roleID, MenuItemID: menuItemID, CanAccess: canAccess}
			if err := tx.Create(&row).Error; err != nil {
				return fmt.Errorf("failed to create menu grant: %w", err)
			}
		}

		return nil
	})
}

func validate(role *models.Role) error {
	role.Code = strings.ToUpper(strings.TrimSpace(role.Code))
	if role.Code == "" {
		return ErrRoleCodeEmpty
	}

	if role.Level < rbac.MinLevel || role.Level > rbac.MaxLevel {
		return ErrInvalidLevel
	}

	return nil
}
