package web

import (
	"strings"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tenantdesk/tenantdesk/internal/metrics"
	"github.com/tenantdesk/tenantdesk/internal/web/handler"
	"github.com/tenantdesk/tenantdesk/internal/web/webtest"
)

func TestNew_MissingDeps(t *testing.T) {
	_, err := New(nil, handler.Deps{}, nil)
	require.ErrorIs(t, err, handler.ErrMissingDeps)
}

func TestService(t *testing.T) {
	env := webtest.New(t)

	reg := prometheus.NewRegistry()
	rec, err := metrics.New(reg)
	require.NoError(t, err)

	rec.MenuDecision("CRM", nil)

	svc, err := New(env.Deps.Cfg, env.Deps, reg)
	require.NoError(t, err)

	env.App = svc.App

	res := env.Do(t, fiber.MethodGet, CheckAlivePath, nil, nil)
	assert.Equal(t, fiber.StatusOK, res.Status)
	assert.Equal(t, "OK", string(res.Body))

	res = env.Do(t, fiber.MethodGet, MetricsPath, nil, nil)
	require.Equal(t, fiber.StatusOK, res.Status)
	assert.True(t, strings.Contains(string(res.Body), "tenantdesk_menu_access_decisions_total"))

	res = env.Do(t, fiber.MethodGet, "/api/me/permissions", nil, nil)
	assert.Equal(t, fiber.StatusUnauthorized, res.Status)

	res = env.Do(t, fiber.MethodGet, "/api/me/permissions", nil, env.Cookie(t, env.Seed.AdminID))
	assert.Equal(t, fiber.StatusOK, res.Status, string(res.Body))

	res = env.Do(t, fiber.MethodGet, "/api/admin/roles", nil, env.Cookie(t, env.Seed.AdminID))
	assert.Equal(t, fiber.StatusOK, res.Status, string(res.Body))

	res = env.Do(t, fiber.MethodGet, "/nowhere", nil, nil)
	assert.Equal(t, fiber.StatusNotFound, res.Status)
	assert.Equal(t, "not_found", res.Error(t).Code)

	svc.alive.Store(false)

	res = env.Do(t, fiber.MethodGet, CheckAlivePath, nil, nil)
	assert.Equal(t, fiber.StatusServiceUnavailable, res.Status)
	assert.False(t, svc.Alive())
}
