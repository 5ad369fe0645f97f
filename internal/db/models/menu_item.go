package models

import "time"

// MenuItem is a navigable UI section gated by role-based grants.
type MenuItem struct {
	// ID is the unique identifier for the menu item.
	ID uint `gorm:"primaryKey"`
	// ApplicationCode is the application this menu item belongs to.
	ApplicationCode string `gorm:"size:20;not null;uniqueIndex:idx_menu_app_code"`
	// Code is the upper-case menu identifier (e.g. "CLIENTS").
	Code string `gorm:"size:50;not null;uniqueIndex:idx_menu_app_code"`
	// Name is the display name.
	Name string `gorm:"size:100;not null"`
	// Path is the route of the section (e.g. "/clients").
	Path string `gorm:"size:255;not null"`
	// Icon is the icon name used by the navigation renderer.
	Icon string `gorm:"size:50"`
	// DisplayOrder sorts items in the navigation.
	DisplayOrder int `gorm:"default:0"`
	// IsActive hides the item everywhere when false.
	IsActive bool `gorm:"default:true"`
	// IsSystem marks seeded items that cannot be deleted.
	IsSystem bool `gorm:"default:false"`
	// CreatedAt is the timestamp when the item was created (managed by GORM).
	CreatedAt time.Time
	// UpdatedAt is the timestamp when the item was last updated (managed by GORM).
	UpdatedAt time.Time
}

// TableName specifies the database table name for the MenuItem model.
func (MenuItem) TableName() string {
	return "menu_items"
}
