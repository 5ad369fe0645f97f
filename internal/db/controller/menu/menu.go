// Package menu provides CRUD operations for navigation menu items.
package menu

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/tenantdesk/tenantdesk/internal/db/models"
)

var (
	// ErrMenuItemNotFound is returned when a menu item is not found.
	ErrMenuItemNotFound = errors.New("menu item not found")
	// ErrMenuItemCodeEmpty is returned when a menu item has no code.
	ErrMenuItemCodeEmpty = errors.New("menu item code cannot be empty")
	// ErrMenuItemPathInvalid is returned when a path is empty or not absolute.
	ErrMenuItemPathInvalid = errors.New("menu item path must start with /")
	// ErrMenuItemAlreadyExists is returned when the code is already used in the application.
	ErrMenuItemAlreadyExists = errors.New("menu item already exists")
	// ErrSystemMenuItem is returned when attempting to delete a system menu item.
	ErrSystemMenuItem = errors.New("system menu items cannot be deleted")
	// ErrSystemMenuItemCode is returned when attempting to change the code of a system menu item.
	ErrSystemMenuItemCode = errors.New("system menu item code cannot be changed")
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
)

// Get retrieves a menu item by its ID.
func Get(db *gorm.DB, id uint) (*models.MenuItem, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var item models.MenuItem
	if err := db.First(&item, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMenuItemNotFound
		}

		return nil, err
	}

	return &item, nil
}

// List returns the menu items of an application in display order.
// Inactive items are included only when includeInactive is set.
func List(db *gorm.DB, applicationCode string, includeInactive bool) ([]models.MenuItem, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	q := db.Where("application_code = ?", applicationCode)
	if !includeInactive {
		q = q.Where("is_active = ?", true)
	}

	var items []models.MenuItem
	if err := q.Order("display_order ASC, id ASC").Find(&items).Error; err != nil {
		return nil, err
	}

	return items, nil
}

// Create inserts a custom menu item.
func Create(db *gorm.DB, item *models.MenuItem) error {
	if db == nil {
		return ErrDBNil
	}

	if err := validate(item); err != nil {
		return err
	}

	item.ID = 0
	item.IsSystem = false

	if err := ensureUnique(db, item.ApplicationCode, item.Code, 0); err != nil {
		return err
	}

	active := item.IsActive

	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(item).Error; err != nil {
			return err
		}

		// is_active defaults to true on insert, so a false value needs its own write.
		if !active {
			item.IsActive = false
			return tx.Model(item).Update("is_active", false).Error
		}

		return nil
	})
}

// Update replaces the editable columns of a menu item. System items keep their code.
func Update(db *gorm.DB, id uint, in models.MenuItem) (*models.MenuItem, error) {
	item, err := Get(db, id)
	if err != nil {
		return nil, err
	}

	in.ApplicationCode = item.ApplicationCode
	if err := validate(&in); err != nil {
		return nil, err
	}

	if item.IsSystem && in.Code != item.Code {
		return nil, ErrSystemMenuItemCode
	}

	if in.Code != item.Code {
		if err := ensureUnique(db, item.ApplicationCode, in.Code, id); err != nil {
			return nil, err
		}
	}

	in.ID = item.ID
	in.IsSystem = item.IsSystem
	in.CreatedAt = item.CreatedAt

	if err := db.Model(item).Select("*").Omit("id", "application_code", "is_system", "created_at").
		Updates(&in).Error; err != nil {
		return nil, err
	}

	return Get(db, id)
}

// SetActive shows or hides a menu item everywhere.
func SetActive(db *gorm.DB, id uint, active bool) error {
	item, err := Get(db, id)
	if err != nil {
		return err
	}

	return db.Model(item).Update("is_active", active).Error
}

// Delete removes a custom menu item together with its grants.
func Delete(db *gorm.DB, id uint) error {
	item, err := Get(db, id)
	if err != nil {
		return err
	}

	if item.IsSystem {
		return ErrSystemMenuItem
	}

	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("menu_item_id = ?", id).Delete(&models.RoleMenuPermission{}).Error; err != nil {
			return err
		}

		return tx.Delete(&models.MenuItem{}, id).Error
	})
}

func ensureUnique(db *gorm.DB, applicationCode, code string, exceptID uint) error {
	var count int64

	err := db.Model(&models.MenuItem{}).
		Where("application_code = ? AND code = ? AND id <> ?", applicationCode, code, exceptID).
		Count(&count).Error
	if err != nil {
		return err
	}

	if count > 0 {
		return ErrMenuItemAlreadyExists
	}

	return nil
}

func validate(item *models.MenuItem) error {
	item.Code = strings.ToUpper(strings.TrimSpace(item.Code))
	if item.Code == "" {
		return ErrMenuItemCodeEmpty
	}

	item.Path = strings.TrimSpace(item.Path)
	if !strings.HasPrefix(item.Path, "/") {
		return ErrMenuItemPathInvalid
	}

	return nil
}
