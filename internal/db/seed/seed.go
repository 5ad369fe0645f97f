// Package seed creates the system roles, menu items and the bootstrap administrator.
// Running it twice leaves the database unchanged.
package seed

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/tenantdesk/tenantdesk/internal/db/models"
)

// Application codes known to the seed.
const (
	ApplicationHRMS = "HRMS"
	ApplicationCRM  = "CRM"
)

// ErrUnknownApplication is returned when asked to seed an application without a catalogue.
var ErrUnknownApplication = errors.New("no seed catalogue for application")

// Options control the seeded tenant and administrator.
type Options struct {
	TenantName    string
	AdminUsername string
	AdminPassword string
	AdminEmail    string
	Applications  []string
}

// Result reports the IDs of the seeded tenant and administrator.
type Result struct {
	TenantID uint
	AdminID  uint64
}

type menuSeed struct {
	code     string
	name     string
	path     string
	icon     string
	minLevel int
}

var applicationNames = map[string]string{ //nolint:gochecknoglobals
	ApplicationHRMS: "Human Resources",
	ApplicationCRM:  "Customer Relationship Management",
}

var menus = map[string][]menuSeed{ //nolint:gochecknoglobals
	ApplicationHRMS: {
		{"DASHBOARD", "Dashboard", "/dashboard", "home", 1},
		{"EMPLOYEES", "Employees", "/employees", "users", 1},
		{"BUSINESSES", "Businesses", "/businesses", "building", 3},
		{"USERS", "Users", "/admin/users", "user-cog", 4},
		{"ROLES", "Roles", "/admin/roles", "shield", 4},
		{"SETTINGS", "Settings", "/settings", "cog", 5},
	},
	ApplicationCRM: {
		{"DASHBOARD", "Dashboard", "/dashboard", "home", 1},
		{"CLIENTS", "Clients", "/clients", "briefcase", 1},
		{"CONTACTS", "Contacts", "/contacts", "address-book", 1},
		{"PIPELINES", "Pipelines", "/pipelines", "filter", 2},
		{"BUSINESSES", "Businesses", "/businesses", "building", 3},
		{"USERS", "Users", "/admin/users", "user-cog", 4},
		{"ROLES", "Roles", "/admin/roles", "shield", 4},
		{"SETTINGS", "Settings", "/settings", "cog", 5},
	},
}

// SystemRoles returns the five seeded roles of an application, lowest level first.
func SystemRoles(applicationCode string) []models.Role {
	return []models.Role{
		{
			ApplicationCode: applicationCode, Code: "VIEWER", Name: "Viewer", Level: 1, IsSystem: true,
			CanViewOwnRecords: true,
		},
		{
			ApplicationCode: applicationCode, Code: "AGENT", Name: "Agent", Level: 2, IsSystem: true,
			CanCreateRecords:  true,
			CanViewOwnRecords: true, CanViewPeerRecords: true,
			CanEditOwnRecords: true,
		},
		{
			ApplicationCode: applicationCode, Code: "SPECIALIST", Name: "Specialist", Level: 3, IsSystem: true,
			CanCreateRecords:  true,
			CanViewOwnRecords: true, CanViewPeerRecords: true, CanViewSubordinateRecords: true,
			CanEditOwnRecords: true, CanEditPeerRecords: true,
			CanDeleteOwnRecords: true,
		},
		{
			ApplicationCode: applicationCode, Code: "MANAGER", Name: "Manager", Level: 4, IsSystem: true,
			CanCreateRecords:  true,
			CanViewOwnRecords: true, CanViewPeerRecords: true, CanViewSubordinateRecords: true, CanViewAllRecords: true,
			CanEditOwnRecords: true, CanEditPeerRecords: true, CanEditSubordinateRecords: true,
			CanDeleteOwnRecords: true, CanDeleteSubordinateRecords: true,
			CanAssignRoles: true, CanManageUsers: true,
		},
		{
			ApplicationCode: applicationCode, Code: "SUPER_ADMIN", Name: "Super Admin", Level: 5, IsSystem: true,
			CanCreateRecords:  true,
			CanViewOwnRecords: true, CanViewPeerRecords: true, CanViewSubordinateRecords: true, CanViewAllRecords: true,
			CanEditOwnRecords: true, CanEditPeerRecords: true, CanEditSubordinateRecords: true, CanEditAllRecords: true,
			CanDeleteOwnRecords: true, CanDeletePeerRecords: true, CanDeleteSubordinateRecords: true,
			CanDeleteAllRecords: true,
			CanAssignRoles:      true, CanManageUsers: true, CanManageBusinesses: true, CanManageRoles: true,
		},
	}
}

// Run seeds every application in opts and the bootstrap administrator.
func Run(db *gorm.DB, opts Options) (Result, error) {
	var res Result

	err := db.Transaction(func(tx *gorm.DB) error {
		tenant := models.Tenant{Name: opts.TenantName}
		if err := tx.Where("name = ?", opts.TenantName).FirstOrCreate(&tenant).Error; err != nil {
			return fmt.Errorf("failed to seed tenant: %w", err)
		}

		res.TenantID = tenant.ID

		admin, err := seedAdmin(tx, tenant.ID, opts)
		if err != nil {
			return err
		}

		res.AdminID = admin.ID

		for _, code := range opts.Applications {
			if err := seedApplication(tx, strings.ToUpper(code), tenant.ID, admin.ID); err != nil {
				return err
			}
		}

		return nil
	})

	return res, err
}

func seedAdmin(tx *gorm.DB, tenantID uint, opts Options) (models.User, error) {
	var admin models.User

	err := tx.Where("username = ?", opts.AdminUsername).First(&admin).Error
	if err == nil {
		return admin, nil
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return admin, fmt.Errorf("failed to look up admin user: %w", err)
	}

	hash, err := models.HashPassword(opts.AdminPassword)
	if err != nil {
		return admin, fmt.Errorf("failed to hash admin password: %w", err)
	}

	admin = models.User{
		TenantID: tenantID,
		Active:   true,
		Username: opts.AdminUsername,
		Email:    opts.AdminEmail,
		Password: hash,
	}

	if err := tx.Create(&admin).Error; err != nil {
		return admin, fmt.Errorf("failed to create admin user: %w", err)
	}

	log.Info().Str("username", admin.Username).Msg("bootstrap admin created")

	return admin, nil
}

func seedApplication(tx *gorm.DB, code string, tenantID uint, adminID uint64) error {
	catalogue, ok := menus[code]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownApplication, code)
	}

	app := models.Application{Code: code, Name: applicationNames[code]}
	if err := tx.Where("code = ?", code).FirstOrCreate(&app).Error; err != nil {
		return fmt.Errorf("failed to seed application %s: %w", code, err)
	}

	roles := make([]models.Role, 0, len(SystemRoles(code)))

	for _, r := range SystemRoles(code) {
		role := r
		if err := tx.Where("application_code = ? AND code = ?", code, r.Code).FirstOrCreate(&role).Error; err != nil {
			return fmt.Errorf("failed to seed role %s/%s: %w", code, r.Code, err)
		}

		roles = append(roles, role)
	}

	for i, m := range catalogue {
		item := models.MenuItem{
			ApplicationCode: code,
			Code:            m.code,
			Name:            m.name,
			Path:            m.path,
			Icon:            m.icon,
			DisplayOrder:    (i + 1) * 10, //nolint:mnd
			IsActive:        true,
			IsSystem:        true,
		}

		if err := tx.Where("application_code = ? AND code = ?", code, m.code).FirstOrCreate(&item).Error; err != nil {
			return fmt.Errorf("failed to seed menu item %s/%s: %w", code, m.code, err)
		}

		for _, role := range roles {
			grant := models.RoleMenuPermission{RoleID: role.ID, MenuItemID: item.ID, CanAccess: role.Level >= m.minLevel}
			if err := tx.Where("role_id = ? AND menu_item_id = ?", role.ID, item.ID).FirstOrCreate(&grant).Error; err != nil {
				return fmt.Errorf("failed to seed menu grant: %w", err)
			}
		}
	}

	top := roles[len(roles)-1]

	var count int64
	if err := tx.Model(&models.RoleAssignment{}).
		Where("user_id = ? AND application_code = ?", adminID, code).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check admin assignment: %w", err)
	}

	if count == 0 {
		assignment := models.RoleAssignment{
			UserID:          adminID,
			ApplicationCode: code,
			RoleID:          top.ID,
			AssignedBy:      adminID,
			ValidFrom:       time.Now().UTC().Add(-time.Minute),
		}
		if err := tx.Create(&assignment).Error; err != nil {
			return fmt.Errorf("failed to assign admin role: %w", err)
		}
	}

	access := models.ApplicationAccess{
		UserID:        adminID,
		ApplicationID: app.ID,
		TenantID:      tenantID,
		IsActive:      true,
		GrantedBy:     adminID,
	}
	if err := tx.Where("user_id = ? AND application_id = ?", adminID, app.ID).FirstOrCreate(&access).Error; err != nil {
		return fmt.Errorf("failed to grant admin application access: %w", err)
	}

	return nil
}
