package access

import (
	"github.com/tenantdesk/tenantdesk/internal/db/models"
	"github.com/tenantdesk/tenantdesk/internal/rbac"
)

// ToRole converts the stored role columns into the flag map used by the permission core.
func ToRole(m models.Role) rbac.Role {
	flags := rbac.NewPermissionFlags()

	flags.Set(rbac.ActionCreate, rbac.ScopeAll, m.CanCreateRecords)

	flags.Set(rbac.ActionView, rbac.ScopeOwn, m.CanViewOwnRecords)
	flags.Set(rbac.ActionView, rbac.ScopePeer, m.CanViewPeerRecords)
	flags.Set(rbac.ActionView, rbac.ScopeSubordinate, m.CanViewSubordinateRecords)
	flags.Set(rbac.ActionView, rbac.ScopeAll, m.CanViewAllRecords)

	flags.Set(rbac.ActionEdit, rbac.ScopeOwn, m.CanEditOwnRecords)
	flags.Set(rbac.ActionEdit, rbac.ScopePeer, m.CanEditPeerRecords)
	flags.Set(rbac.ActionEdit, rbac.ScopeSubordinate, m.CanEditSubordinateRecords)
	flags.Set(rbac.ActionEdit, rbac.ScopeAll, m.CanEditAllRecords)

	flags.Set(rbac.ActionDelete, rbac.ScopeOwn, m.CanDeleteOwnRecords)
	flags.Set(rbac.ActionDelete, rbac.ScopePeer, m.CanDeletePeerRecords)
	flags.Set(rbac.ActionDelete, rbac.ScopeSubordinate, m.CanDeleteSubordinateRecords)
	flags.Set(rbac.ActionDelete, rbac.ScopeAll, m.CanDeleteAllRecords)

	return rbac.Role{
		ID:              m.ID,
		ApplicationCode: m.ApplicationCode,
		Code:            m.Code,
		Name:            m.Name,
		Level:           m.Level,
		IsSystem:        m.IsSystem,
		Flags:           flags,
		Management: rbac.Management{
			AssignRoles:      m.CanAssignRoles,
			ManageUsers:      m.CanManageUsers,
			ManageBusinesses: m.CanManageBusinesses,
			ManageRoles:      m.CanManageRoles,
		},
	}
}

// ToMenuItem converts a stored menu item.
func ToMenuItem(m models.MenuItem) rbac.MenuItem {
	return rbac.MenuItem{
		ID:           m.ID,
		Code:         m.Code,
		Name:         m.Name,
		Path:         m.Path,
		Icon:         m.Icon,
		DisplayOrder: m.DisplayOrder,
	}
}
