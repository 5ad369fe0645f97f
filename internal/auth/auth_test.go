package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/tenantdesk/tenantdesk/internal/cache"
	"github.com/tenantdesk/tenantdesk/internal/db/controller/access"
	"github.com/tenantdesk/tenantdesk/internal/db/dbtest"
	"github.com/tenantdesk/tenantdesk/internal/db/models"
	"github.com/tenantdesk/tenantdesk/internal/db/seed"
	"github.com/tenantdesk/tenantdesk/internal/rbac"
)

const adminPassword = "s3cret-pass"

type fixture struct {
	db    *gorm.DB
	svc   *Service
	cache *cache.Memory
	admin uint64
}

func setup(t *testing.T) fixture {
	t.Helper()

	db := dbtest.Open(t)

	res, err := seed.Run(db, seed.Options{
		TenantName:    "Acme",
		AdminUsername: "admin",
		AdminPassword: adminPassword,
		AdminEmail:    "admin@example.com",
		Applications:  []string{seed.ApplicationCRM, seed.ApplicationHRMS},
	})
	require.NoError(t, err)

	repo, err := access.New(db)
	require.NoError(t, err)

	mem := cache.NewMemory(16, time.Minute)

	svc, err := NewService(Options{
		DefaultApplication: seed.ApplicationCRM,
		Stores: []*rbac.Store{
			rbac.NewStore(repo, seed.ApplicationCRM, rbac.WithCache(mem)),
			rbac.NewStore(repo, seed.ApplicationHRMS, rbac.WithCache(mem)),
		},
		Writer: repo,
	})
	require.NoError(t, err)

	return fixture{db: db, svc: svc, cache: mem, admin: res.AdminID}
}

// addUser creates an active user holding the CRM role with the given code.
func (f fixture) addUser(t *testing.T, username, roleCode string, appAccess bool) models.User {
	t.Helper()

	hash, err := models.HashPassword("pw")
	require.NoError(t, err)

	user := models.User{TenantID: 1, Active: true, Username: username, Email: username + "@example.com", Password: hash}
	require.NoError(t, f.db.Create(&user).Error)

	if roleCode != "" {
		var role models.Role
		require.NoError(t, f.db.Where("application_code = ? AND code = ?", seed.ApplicationCRM, roleCode).First(&role).Error)
		require.NoError(t, f.db.Create(&models.RoleAssignment{
			UserID: user.ID, ApplicationCode: seed.ApplicationCRM, RoleID: role.ID,
			AssignedBy: f.admin, ValidFrom: time.Now().UTC().Add(-time.Hour),
		}).Error)
	}

	if appAccess {
		var app models.Application
		require.NoError(t, f.db.Where("code = ?", seed.ApplicationCRM).First(&app).Error)
		require.NoError(t, f.db.Create(&models.ApplicationAccess{
			UserID: user.ID, ApplicationID: app.ID, TenantID: 1, IsActive: true, GrantedBy: f.admin,
		}).Error)
	}

	return user
}
