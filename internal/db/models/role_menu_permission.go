package models

// RoleMenuPermission is the sparse (role, menu item) -> can_access mapping.
// A missing row is equivalent to can_access = false.
type RoleMenuPermission struct {
	// RoleID is the ID of the role in this mapping.
	RoleID uint `gorm:"primaryKey;column:role_id"`
	// MenuItemID is the ID of the menu item in this mapping.
	MenuItemID uint `gorm:"primaryKey;column:menu_item_id"`
	// CanAccess grants or denies access to the menu item.
	CanAccess bool `gorm:"not null;default:false"`
	// Role is the associated role (loaded via foreign key).
	Role Role `gorm:"foreignKey:RoleID;constraint:OnDelete:CASCADE"`
	// MenuItem is the associated menu item (loaded via foreign key).
	MenuItem MenuItem `gorm:"foreignKey:MenuItemID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the database table name for the RoleMenuPermission model.
func (RoleMenuPermission) TableName() string {
	return "role_menu_permissions"
}
