package navigation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tenantdesk/tenantdesk/internal/rbac"
)

var items = []rbac.MenuItem{ //nolint:gochecknoglobals
	{ID: 1, Code: "DASHBOARD", Name: "Dashboard", Path: "/dashboard", DisplayOrder: 10},
	{ID: 2, Code: "CLIENTS", Name: "Clients", Path: "/clients", Icon: "briefcase", DisplayOrder: 20},
	{ID: 3, Code: "USERS", Name: "Users", Path: "/admin/users", DisplayOrder: 30},
}

func TestNewContext(t *testing.T) {
	ctx := NewContext("Test Page", "/clients")

	assert.Equal(t, "Test Page", ctx.PageTitle)
	assert.Equal(t, "/clients", ctx.ActivePath)
	assert.NotNil(t, ctx.Breadcrumbs)
	assert.Empty(t, ctx.Breadcrumbs)
	assert.Empty(t, ctx.Entries)
}

func TestContext_AddBreadcrumb_Chaining(t *testing.T) {
	ctx := NewContext("Test Page", "/").
		AddBreadcrumb("Home", "/", false).
		AddBreadcrumb("Settings", "/settings", false).
		AddBreadcrumb("Current", "/settings/current", true)

	assert.Len(t, ctx.Breadcrumbs, 3)
	assert.Equal(t, "Home", ctx.Breadcrumbs[0].Title)
	assert.Equal(t, "Settings", ctx.Breadcrumbs[1].Title)
	assert.True(t, ctx.Breadcrumbs[2].Active)
}

func TestContext_IsActive(t *testing.T) {
	ctx := NewContext("", "/clients/42")

	assert.True(t, ctx.IsActive("/clients"))
	assert.True(t, ctx.IsActive("/clients/"))
	assert.True(t, ctx.IsActive("/clients/42"))
	assert.False(t, ctx.IsActive("/client"))
	assert.False(t, ctx.IsActive("/contacts"))
	assert.False(t, ctx.IsActive(""))
}

func TestBuild(t *testing.T) {
	ctx := Build(items, "/clients/42")

	assert.Equal(t, "Clients", ctx.PageTitle)
	assert.Len(t, ctx.Entries, 3)
	assert.Equal(t, []string{"DASHBOARD", "CLIENTS", "USERS"},
		[]string{ctx.Entries[0].Code, ctx.Entries[1].Code, ctx.Entries[2].Code})
	assert.False(t, ctx.Entries[0].Active)
	assert.True(t, ctx.Entries[1].Active)
	assert.Equal(t, "briefcase", ctx.Entries[1].Icon)

	assert.Equal(t, []BreadcrumbItem{
		{Title: "Home", URL: HomePath},
		{Title: "Clients", URL: "/clients", Active: true},
	}, ctx.Breadcrumbs)
}

func TestBuild_HomeHasSingleBreadcrumb(t *testing.T) {
	ctx := Build(items, HomePath)

	assert.Equal(t, []BreadcrumbItem{{Title: "Dashboard", URL: HomePath, Active: true}}, ctx.Breadcrumbs)
}

func TestBuild_NoActiveEntry(t *testing.T) {
	ctx := Build(items, "/settings")

	assert.Empty(t, ctx.PageTitle)
	assert.Empty(t, ctx.Breadcrumbs)

	for _, e := range ctx.Entries {
		assert.False(t, e.Active)
	}
}
