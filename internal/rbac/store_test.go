package rbac

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_Load(t *testing.T) {
	backend := newFakeBackend()
	backend.addRole(1, 2, false)
	backend.assign(10, 1)
	backend.items = []MenuItem{{ID: 1, Code: "DASHBOARD", Path: "/dashboard"}, {ID: 2, Code: "CLIENTS", Path: "/clients"}}
	backend.grants[1] = []MenuGrant{{MenuItemID: 1, CanAccess: true}, {MenuItemID: 2, CanAccess: false}}

	loadedAt := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	store := NewStore(backend, "CRM", WithClock(func() time.Time { return loadedAt }))

	snap, err := store.Load(context.Background(), 10)
	require.NoError(t, err)

	assert.Equal(t, uint64(10), snap.ActorID)
	assert.Equal(t, "CRM", snap.ApplicationCode)
	assert.True(t, snap.ApplicationAccess)
	assert.Equal(t, 2, snap.Role().Level)
	assert.Equal(t, map[uint]bool{1: true}, snap.Accessible)
	assert.Equal(t, loadedAt, snap.LoadedAt)
	assert.True(t, snap.HasMenuAccess("/dashboard"))
	assert.False(t, snap.HasMenuAccess("/clients"))
}

func TestStore_NoActiveRole(t *testing.T) {
	store := NewStore(newFakeBackend(), "CRM")

	snap, err := store.Load(context.Background(), 42)
	assert.Nil(t, snap)
	require.ErrorIs(t, err, ErrNoActiveRole)
	assert.Equal(t, KindConfiguration, KindOf(err))
}

func TestStore_LoadFailedIsNotNoPermissions(t *testing.T) {
	backend := newFakeBackend()
	backend.failReads = true

	_, err := NewStore(backend, "CRM").Load(context.Background(), 1)
	require.ErrorIs(t, err, ErrStoreFailure)
	require.ErrorIs(t, err, errBackendDown)
	assert.NotErrorIs(t, err, ErrNoActiveRole)

	var rbacErr *Error
	require.ErrorAs(t, err, &rbacErr)
	assert.True(t, rbacErr.Retryable())
}

func TestStore_CacheAndRefresh(t *testing.T) {
	backend := newFakeBackend()
	backend.addRole(1, 2, false)
	backend.addRole(2, 4, true)
	backend.assign(10, 1)

	cache := mapCache{}
	store := NewStore(backend, "CRM", WithCache(cache))
	ctx := context.Background()

	first, err := store.Load(ctx, 10)
	require.NoError(t, err)

	backend.assign(10, 2)

	cached, err := store.Load(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, first.Role().Level, cached.Role().Level)
	assert.Equal(t, 1, backend.loadCalls)

	refreshed, err := store.Refresh(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 4, refreshed.Role().Level)
	assert.True(t, refreshed.Role().CanAssign())
	assert.Equal(t, 2, backend.loadCalls)

	require.NoError(t, store.Invalidate(ctx, 10))
	assert.Empty(t, cache)

	_, err = store.Load(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 3, backend.loadCalls)
}

func TestStore_UndecodableCacheEntryIsReloaded(t *testing.T) {
	backend := newFakeBackend()
	backend.addRole(1, 3, false)
	backend.assign(10, 1)

	cache := mapCache{"CRM:10": []byte("{not json")}
	snap, err := NewStore(backend, "CRM", WithCache(cache)).Load(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, 3, snap.Role().Level)
}

func TestStore_ExpiredCachedSnapshotIsReloaded(t *testing.T) {
	backend := newFakeBackend()
	backend.addRole(1, 4, true)
	backend.assign(10, 1)

	now := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	until := now.Add(time.Minute)

	a := backend.assignments[10]
	a.ValidUntil = &until
	backend.assignments[10] = a

	cache := mapCache{}
	store := NewStore(backend, "CRM", WithCache(cache), WithClock(func() time.Time { return now }))
	ctx := context.Background()

	snap, err := store.Load(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 4, snap.Role().Level)
	require.Len(t, cache, 1)

	// the source only returns assignments inside their window
	now = now.Add(time.Hour)
	delete(backend.assignments, 10)

	snap, err = store.Load(ctx, 10)
	assert.Nil(t, snap)
	require.ErrorIs(t, err, ErrNoActiveRole)
	assert.Empty(t, cache)
	assert.Equal(t, 2, backend.loadCalls)
}
