package rbac

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func menuSnapshot(level int, granted ...uint) *Snapshot {
	accessible := make(map[uint]bool)
	for _, id := range granted {
		accessible[id] = true
	}

	return &Snapshot{
		ActorID:           7,
		ApplicationCode:   "CRM",
		ApplicationAccess: true,
		Assignment:        Assignment{Role: Role{ID: 1, Level: level, Flags: NewPermissionFlags()}},
		MenuItems: []MenuItem{
			{ID: 1, Code: "DASHBOARD", Path: "/dashboard", DisplayOrder: 1},
			{ID: 2, Code: "CLIENTS", Path: "/clients", DisplayOrder: 2},
			{ID: 3, Code: "ROLES", Path: "/admin/roles", DisplayOrder: 3},
		},
		Accessible: accessible,
	}
}

func TestHasMenuAccess_TopLevelSeesEverything(t *testing.T) {
	snap := menuSnapshot(MaxLevel)

	for _, p := range []string{"/dashboard", "roles", "/does-not-exist", "", "ANYTHING"} {
		assert.True(t, snap.HasMenuAccess(p), p)
	}

	assert.Len(t, snap.VisibleMenu(), 3)
}

func TestHasMenuAccess_ByGrant(t *testing.T) {
	for level := MinLevel; level < MaxLevel; level++ {
		snap := menuSnapshot(level, 1, 2)

		assert.True(t, snap.HasMenuAccess("/dashboard"))
		assert.True(t, snap.HasMenuAccess("/clients"))
		assert.False(t, snap.HasMenuAccess("/admin/roles"))
	}
}

func TestHasMenuAccess_CodeIsUpperCased(t *testing.T) {
	snap := menuSnapshot(2, 2)

	assert.True(t, snap.HasMenuAccess("clients"))
	assert.True(t, snap.HasMenuAccess("Clients"))
	assert.True(t, snap.HasMenuAccess("CLIENTS"))
	assert.False(t, snap.HasMenuAccess("roles"))
}

func TestHasMenuAccess_UnknownFailsClosed(t *testing.T) {
	snap := menuSnapshot(4, 1, 2, 3, 99)

	assert.False(t, snap.HasMenuAccess("/reports"))
	assert.ErrorIs(t, snap.CheckMenuAccess("/reports"), ErrUnknownMenuItem)
	assert.ErrorIs(t, menuSnapshot(4).CheckMenuAccess("/clients"), ErrMenuDenied)
}

func TestHasMenuAccess_PathOrCode(t *testing.T) {
	snap := menuSnapshot(3, 2)
	snap.MenuItems = append(snap.MenuItems, MenuItem{ID: 4, Code: "/CLIENTS", Path: "/other"})

	// "/clients" matches item 2 by path before item 4 by code.
	assert.True(t, snap.HasMenuAccess("/clients"))
}

func TestHasMenuAccess_Idempotent(t *testing.T) {
	snap := menuSnapshot(2, 1)

	for range 3 {
		assert.True(t, snap.HasMenuAccess("/dashboard"))
		assert.False(t, snap.HasMenuAccess("/clients"))
	}

	assert.Len(t, snap.Accessible, 1)
}

func TestVisibleMenu_OrderAndFilter(t *testing.T) {
	snap := menuSnapshot(2, 3, 1)

	visible := snap.VisibleMenu()
	if assert.Len(t, visible, 2) {
		assert.Equal(t, "DASHBOARD", visible[0].Code)
		assert.Equal(t, "ROLES", visible[1].Code)
	}
}

func TestCanOpen_RequiresBothTiers(t *testing.T) {
	snap := menuSnapshot(2, 1)
	assert.True(t, snap.CanOpen("/dashboard"))

	snap.ApplicationAccess = false
	assert.False(t, snap.CanOpen("/dashboard"))

	var nilSnap *Snapshot
	assert.False(t, nilSnap.CanOpen("/dashboard"))
	assert.ErrorIs(t, nilSnap.CheckMenuAccess("/dashboard"), ErrNoActiveRole)
}
