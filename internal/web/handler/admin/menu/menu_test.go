package menu

import (
	"fmt"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tenantdesk/tenantdesk/internal/db/seed"
	"github.com/tenantdesk/tenantdesk/internal/web/webtest"
)

func newEnv(t *testing.T) *webtest.Env {
	t.Helper()

	env := webtest.New(t)
	env.Init(t, &Service{})

	return env
}

func itemPath(id uint) string {
	return fmt.Sprintf("%s/%d", Path, id)
}

func list(t *testing.T, env *webtest.Env, query string) []View {
	t.Helper()

	res := env.Do(t, fiber.MethodGet, Path+query, nil, env.Cookie(t, env.Seed.AdminID))
	require.Equal(t, fiber.StatusOK, res.Status, string(res.Body))

	var items []View
	res.Envelope(t, &items)

	return items
}

func TestList(t *testing.T) {
	env := newEnv(t)

	crm := list(t, env, "")
	require.Len(t, crm, 8)
	assert.Equal(t, "DASHBOARD", crm[0].Code)

	for i := 1; i < len(crm); i++ {
		assert.LessOrEqual(t, crm[i-1].DisplayOrder, crm[i].DisplayOrder)
	}

	hrms := list(t, env, "?app=HRMS")
	require.Len(t, hrms, 6)
	assert.Equal(t, seed.ApplicationHRMS, hrms[0].ApplicationCode)
}

func TestDenied(t *testing.T) {
	env := newEnv(t)
	manager := env.AddUser(t, "manager", "MANAGER", true)

	res := env.Do(t, fiber.MethodGet, Path, nil, env.Cookie(t, manager.ID))
	assert.Equal(t, fiber.StatusForbidden, res.Status)
	assert.Equal(t, "cannot_manage_roles", res.Error(t).Code)
}

func TestLifecycle(t *testing.T) {
	env := newEnv(t)
	admin := env.Cookie(t, env.Seed.AdminID)

	res := env.Do(t, fiber.MethodPost, Path, Input{
		Code: "reports", Name: "Reports", Path: "/reports", Icon: "chart", DisplayOrder: 90,
	}, admin)
	require.Equal(t, fiber.StatusCreated, res.Status, string(res.Body))

	var created View
	res.Envelope(t, &created)
	assert.Equal(t, "REPORTS", created.Code)
	assert.True(t, created.IsActive)
	assert.False(t, created.IsSystem)

	res = env.Do(t, fiber.MethodPost, Path, Input{Code: "REPORTS", Name: "Dup", Path: "/dup"}, admin)
	assert.Equal(t, fiber.StatusConflict, res.Status)
	assert.Equal(t, "menu_item_exists", res.Error(t).Code)

	res = env.Do(t, fiber.MethodPost, Path, Input{Code: "BAD", Name: "Bad", Path: "relative"}, admin)
	assert.Equal(t, fiber.StatusUnprocessableEntity, res.Status)

	res = env.Do(t, fiber.MethodPut, itemPath(created.ID), Input{
		Code: "REPORTS", Name: "Analytics", Path: "/analytics", DisplayOrder: 95,
	}, admin)
	require.Equal(t, fiber.StatusOK, res.Status, string(res.Body))

	var updated View
	res.Envelope(t, &updated)
	assert.Equal(t, "Analytics", updated.Name)
	assert.Equal(t, "/analytics", updated.Path)

	res = env.Do(t, fiber.MethodPatch, itemPath(created.ID)+"/active", Activation{IsActive: false}, admin)
	require.Equal(t, fiber.StatusNoContent, res.Status, string(res.Body))

	assert.Len(t, list(t, env, ""), 8)
	assert.Len(t, list(t, env, "?inactive=true"), 9)

	res = env.Do(t, fiber.MethodDelete, itemPath(created.ID), nil, admin)
	assert.Equal(t, fiber.StatusNoContent, res.Status)

	res = env.Do(t, fiber.MethodDelete, itemPath(created.ID), nil, admin)
	assert.Equal(t, fiber.StatusNotFound, res.Status)
	assert.Equal(t, "menu_item_not_found", res.Error(t).Code)
}

func TestSystemItems(t *testing.T) {
	env := newEnv(t)
	admin := env.Cookie(t, env.Seed.AdminID)
	dashboard := list(t, env, "")[0]

	res := env.Do(t, fiber.MethodDelete, itemPath(dashboard.ID), nil, admin)
	assert.Equal(t, fiber.StatusConflict, res.Status)
	assert.Equal(t, "system_menu_item", res.Error(t).Code)

	res = env.Do(t, fiber.MethodPut, itemPath(dashboard.ID), Input{Code: "HOME", Name: "Home", Path: "/dashboard"}, admin)
	assert.Equal(t, fiber.StatusConflict, res.Status)

	hrms := list(t, env, "?app=HRMS")[0]
	res = env.Do(t, fiber.MethodDelete, itemPath(hrms.ID), nil, admin)
	assert.Equal(t, fiber.StatusNotFound, res.Status)
}

func TestHide_InvalidatesSnapshots(t *testing.T) {
	env := newEnv(t)
	agent := env.AddUser(t, "agent", "AGENT", true)
	ctx := t.Context()

	snap, err := env.Deps.Auth.Snapshot(ctx, agent.ID, seed.ApplicationCRM)
	require.NoError(t, err)
	require.True(t, snap.HasMenuAccess("/clients"))

	var clients View

	for _, item := range list(t, env, "") {
		if item.Code == "CLIENTS" {
			clients = item
		}
	}

	require.NotZero(t, clients.ID)

	res := env.Do(t, fiber.MethodPatch, itemPath(clients.ID)+"/active", Activation{IsActive: false},
		env.Cookie(t, env.Seed.AdminID))
	require.Equal(t, fiber.StatusNoContent, res.Status)

	snap, err = env.Deps.Auth.Snapshot(ctx, agent.ID, seed.ApplicationCRM)
	require.NoError(t, err)
	assert.False(t, snap.HasMenuAccess("/clients"))
}
