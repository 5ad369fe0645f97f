package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(2, time.Minute)

	_, ok, err := m.Get(ctx, "a")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, m.Set(ctx, "a", []byte("1")))
	require.NoError(t, m.Set(ctx, "b", []byte("2")))
	require.NoError(t, m.Set(ctx, "c", []byte("3")))
	assert.Equal(t, 2, m.Len())

	_, ok, _ = m.Get(ctx, "a")
	assert.False(t, ok, "oldest entry is evicted")

	v, ok, _ := m.Get(ctx, "c")
	assert.True(t, ok)
	assert.Equal(t, []byte("3"), v)

	require.NoError(t, m.Delete(ctx, "c"))
	_, ok, _ = m.Get(ctx, "c")
	assert.False(t, ok)
}

func TestRedis(t *testing.T) {
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	ctx := context.Background()
	r := NewRedis(client, time.Minute, "tenantdesk:snapshot:")

	_, ok, err := r.Get(ctx, "CRM:1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, r.Set(ctx, "CRM:1", []byte(`{"actorId":1}`)))
	assert.True(t, srv.Exists("tenantdesk:snapshot:CRM:1"))

	v, ok, err := r.Get(ctx, "CRM:1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.JSONEq(t, `{"actorId":1}`, string(v))

	srv.FastForward(2 * time.Minute)
	_, ok, err = r.Get(ctx, "CRM:1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, r.Set(ctx, "CRM:2", []byte("x")))
	require.NoError(t, r.Delete(ctx, "CRM:2"))
	assert.False(t, srv.Exists("tenantdesk:snapshot:CRM:2"))
}
