package daemon

import (
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tenantdesk/tenantdesk/internal/cache"
	"github.com/tenantdesk/tenantdesk/internal/config"
	"github.com/tenantdesk/tenantdesk/internal/db/models"
	"github.com/tenantdesk/tenantdesk/internal/web/session"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()

	return &config.Config{
		DB: config.DB{Engine: config.EngineSQLite, Name: filepath.Join(t.TempDir(), "test.db")},
		RBAC: config.RBAC{
			ApplicationCode: "CRM",
			Applications:    []string{"HRMS", "CRM"},
		},
		Cache: config.Cache{Backend: config.CacheMemory, Size: 16},
		Bootstrap: config.Bootstrap{
			TenantName:    "Acme",
			AdminUsername: "admin",
			AdminPassword: "changeme-now",
			AdminEmail:    "admin@example.com",
		},
	}
}

func TestNew_NilConfig(t *testing.T) {
	_, err := New(nil)
	require.ErrorIs(t, err, ErrConfigNil)
}

func TestOpenMigrateSeed(t *testing.T) {
	cfg := testConfig(t)

	db, err := OpenDB(cfg)
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, Migrate(db))

	first, err := Seed(cfg, db)
	require.NoError(t, err)

	second, err := Seed(cfg, db)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	var roles int64
	require.NoError(t, db.Model(&models.Role{}).Count(&roles).Error)
	assert.Equal(t, int64(10), roles)

	storage, err := newSessionStorage(cfg, db)
	require.NoError(t, err)
	assert.IsType(t, &session.DBStorage{}, storage)
}

func TestOpenDB_UnknownEngine(t *testing.T) {
	cfg := testConfig(t)
	cfg.DB.Engine = "oracle"

	_, err := OpenDB(cfg)
	require.Error(t, err)
}

func TestNewCache(t *testing.T) {
	cfg := testConfig(t)
	d := &Daemon{cfg: cfg}

	c, err := d.newCache()
	require.NoError(t, err)
	assert.IsType(t, &cache.Memory{}, c)

	cfg.Cache.Backend = config.CacheNone
	c, err = d.newCache()
	require.NoError(t, err)
	assert.Nil(t, c)

	srv := miniredis.RunT(t)
	cfg.Cache.Backend = config.CacheRedis
	cfg.Cache.RedisAddr = srv.Addr()

	c, err = d.newCache()
	require.NoError(t, err)
	assert.IsType(t, &cache.Redis{}, c)
	require.NoError(t, c.Set(t.Context(), "k", []byte("v")))
	assert.True(t, srv.Exists("k"))

	t.Cleanup(func() { _ = d.redis.Close() })

	cfg.Cache.RedisAddr = "127.0.0.1:1"
	_, err = d.newCache()
	require.Error(t, err)
}
