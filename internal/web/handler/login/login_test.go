package login

import (
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tenantdesk/tenantdesk/internal/db/models"
	"github.com/tenantdesk/tenantdesk/internal/web/handler"
	"github.com/tenantdesk/tenantdesk/internal/web/webtest"
)

func newEnv(t *testing.T) *webtest.Env {
	t.Helper()

	env := webtest.New(t)
	env.Init(t, &Service{})

	return env
}

func TestInit_MissingDeps(t *testing.T) {
	s := &Service{}

	require.ErrorIs(t, s.Init(nil, handler.Deps{}), handler.ErrMissingDeps)
	require.ErrorIs(t, s.Init(fiber.New(), handler.Deps{}), handler.ErrMissingDeps)
}

func TestPost_Success(t *testing.T) {
	env := newEnv(t)

	res := env.Do(t, fiber.MethodPost, Path, Credentials{Username: "admin", Password: webtest.AdminPassword}, nil)
	require.Equal(t, fiber.StatusOK, res.Status, string(res.Body))

	var user User
	res.Envelope(t, &user)
	assert.Equal(t, env.Seed.AdminID, user.ID)
	assert.Equal(t, env.Seed.TenantID, user.TenantID)
	assert.Equal(t, "admin", user.Username)

	var cookieSet bool

	for _, c := range res.Resp.Cookies() {
		if c.Name == env.Deps.Sessions.CookieName() && c.Value != "" {
			cookieSet = true

			assert.True(t, c.HttpOnly)
		}
	}

	assert.True(t, cookieSet, "session cookie must be set")
}

func TestPost_Failures(t *testing.T) {
	env := newEnv(t)

	disabled := env.AddUser(t, "disabled", "", false)
	require.NoError(t, env.Deps.DB.Model(&models.User{}).Where("id = ?", disabled.ID).Update("active", false).Error)

	tests := []struct {
		name   string
		body   any
		status int
		code   string
	}{
		{
			name:   "wrong password",
			body:   Credentials{Username: "admin", Password: "wrong"},
			status: fiber.StatusUnauthorized,
			code:   "invalid_credentials",
		},
		{
			name:   "unknown user",
			body:   Credentials{Username: "ghost", Password: "pw"},
			status: fiber.StatusUnauthorized,
			code:   "invalid_credentials",
		},
		{
			name:   "disabled user",
			body:   Credentials{Username: "disabled", Password: webtest.UserPassword},
			status: fiber.StatusUnauthorized,
			code:   "invalid_credentials",
		},
		{
			name:   "missing password",
			body:   Credentials{Username: "admin"},
			status: fiber.StatusUnprocessableEntity,
			code:   "invalid_payload",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := env.Do(t, fiber.MethodPost, Path, tt.body, nil)
			assert.Equal(t, tt.status, res.Status)
			assert.Equal(t, tt.code, res.Error(t).Code)
			assert.Empty(t, res.Resp.Cookies())
		})
	}
}
