package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tenantdesk/tenantdesk/internal/db/controller/access"
	"github.com/tenantdesk/tenantdesk/internal/db/dbtest"
	"github.com/tenantdesk/tenantdesk/internal/rbac"
)

func TestNewService_Errors(t *testing.T) {
	repo, err := access.New(dbtest.Open(t))
	require.NoError(t, err)

	crm := rbac.NewStore(repo, "CRM")

	_, err = NewService(Options{DefaultApplication: "CRM", Writer: repo})
	require.ErrorIs(t, err, ErrNoStores)

	_, err = NewService(Options{DefaultApplication: "CRM", Stores: []*rbac.Store{crm}})
	require.ErrorIs(t, err, ErrWriterNil)

	_, err = NewService(Options{DefaultApplication: "HRMS", Stores: []*rbac.Store{crm}, Writer: repo})
	require.ErrorIs(t, err, ErrUnknownApplication)

	svc, err := NewService(Options{DefaultApplication: "crm", Stores: []*rbac.Store{crm}, Writer: repo})
	require.NoError(t, err)
	assert.Equal(t, "CRM", svc.DefaultApplication())
}

func TestService_Store(t *testing.T) {
	f := setup(t)

	assert.Equal(t, []string{"CRM", "HRMS"}, f.svc.Applications())

	store, err := f.svc.Store("")
	require.NoError(t, err)
	assert.Equal(t, "CRM", store.ApplicationCode())

	store, err = f.svc.Store("hrms")
	require.NoError(t, err)
	assert.Equal(t, "HRMS", store.ApplicationCode())

	_, err = f.svc.Store("ERP")
	require.ErrorIs(t, err, ErrUnknownApplication)
}

func TestService_Snapshot(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	snap, err := f.svc.Snapshot(ctx, f.admin, "")
	require.NoError(t, err)
	assert.Equal(t, rbac.MaxLevel, snap.Role().Level)
	assert.True(t, snap.ApplicationAccess)

	norole := f.addUser(t, "norole", "", false)
	_, err = f.svc.Snapshot(ctx, norole.ID, "CRM")
	require.ErrorIs(t, err, rbac.ErrNoActiveRole)

	_, err = f.svc.Snapshot(ctx, f.admin, "ERP")
	require.ErrorIs(t, err, ErrUnknownApplication)
}

func TestService_InvalidateDropsEveryApplication(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.svc.Snapshot(ctx, f.admin, "CRM")
	require.NoError(t, err)
	_, err = f.svc.Refresh(ctx, f.admin, "HRMS")
	require.NoError(t, err)
	require.Equal(t, 2, f.cache.Len())

	f.svc.Invalidate(ctx, f.admin)
	assert.Equal(t, 0, f.cache.Len())
}

func TestService_AssignInvalidatesTarget(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	user := f.addUser(t, "agent", "AGENT", true)

	before, err := f.svc.Snapshot(ctx, user.ID, "CRM")
	require.NoError(t, err)
	require.Equal(t, "AGENT", before.Role().Code)

	admin, err := f.svc.Snapshot(ctx, f.admin, "CRM")
	require.NoError(t, err)

	var specialistID uint
	require.NoError(t, f.db.Table("roles").Select("id").
		Where("application_code = ? AND code = ?", "CRM", "SPECIALIST").Scan(&specialistID).Error)

	validFrom := time.Now().UTC().Add(-time.Minute)
	_, err = f.svc.Validator().Assign(ctx, admin, rbac.AssignRequest{
		UserID: user.ID, RoleID: specialistID, ValidFrom: &validFrom, BusinessIDs: []uint{7},
	})
	require.NoError(t, err)

	after, err := f.svc.Snapshot(ctx, user.ID, "CRM")
	require.NoError(t, err)
	assert.Equal(t, "SPECIALIST", after.Role().Code)
}
