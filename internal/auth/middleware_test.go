package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tenantdesk/tenantdesk/internal/config"
	"github.com/tenantdesk/tenantdesk/internal/rbac"
	"github.com/tenantdesk/tenantdesk/internal/web/session"
)

type testServer struct {
	fixture
	app      *fiber.App
	sessions *session.Store
}

func newTestServer(t *testing.T) testServer {
	t.Helper()

	f := setup(t)

	sessions, err := session.New(session.NewDBStorage(f.db), config.Session{ExpiryTime: time.Hour}, true)
	require.NoError(t, err)

	app := fiber.New()
	app.Post("/session/:id", func(c fiber.Ctx) error {
		id, errParse := strconv.ParseUint(c.Params("id"), 10, 64)
		if errParse != nil {
			return errParse
		}

		_, errCreate := sessions.Create(c, session.Data{UserID: id, TenantID: 1})

		return errCreate
	})

	ok := func(c fiber.Ctx) error { return c.SendStatus(fiber.StatusNoContent) }

	api := app.Group("/api", RequireSession(sessions), LoadPermissions(f.svc))
	api.Get("/whoami", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{"actor": ActorID(c), "tenant": TenantID(c), "app": SnapshotFrom(c).ApplicationCode})
	})
	api.Get("/open", RequireApplicationAccess(), ok)
	api.Get("/roles", RequireMenuAccess(f.svc, "/admin/roles"), ok)
	api.Get("/ghost", RequireMenuAccess(f.svc, "GHOST"), ok)
	api.Delete("/contacts", RequireCapability(f.svc, rbac.ResourceContacts, rbac.ActionDelete), ok)
	api.Get("/admin/roles", RequireManageRoles(), ok)
	api.Get("/admin/users", RequireManageUsers(), ok)

	return testServer{fixture: f, app: app, sessions: sessions}
}

func (s testServer) cookie(t *testing.T, userID uint64) *http.Cookie {
	t.Helper()

	resp, err := s.app.Test(httptest.NewRequest(fiber.MethodPost, "/session/"+strconv.FormatUint(userID, 10), nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	for _, c := range resp.Cookies() {
		if c.Name == s.sessions.CookieName() {
			return c
		}
	}

	t.Fatal("no session cookie")

	return nil
}

func (s testServer) do(t *testing.T, method, path string, cookie *http.Cookie, header map[string]string) (int, ErrorBody) {
	t.Helper()

	req := httptest.NewRequest(method, path, nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}

	for k, v := range header {
		req.Header.Set(k, v)
	}

	resp, err := s.app.Test(req)
	require.NoError(t, err)

	defer resp.Body.Close()

	var body ErrorBody
	if resp.StatusCode >= http.StatusBadRequest {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	}

	return resp.StatusCode, body
}

func TestRequireSession_NoCookie(t *testing.T) {
	s := newTestServer(t)

	status, body := s.do(t, fiber.MethodGet, "/api/open", nil, nil)
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, CodeUnauthenticated, body.Code)
}

func TestLoadPermissions_SelectsApplication(t *testing.T) {
	s := newTestServer(t)
	cookie := s.cookie(t, s.admin)

	for _, tt := range []struct {
		path   string
		header map[string]string
		want   string
	}{
		{path: "/api/whoami", want: "CRM"},
		{path: "/api/whoami?app=hrms", want: "HRMS"},
		{path: "/api/whoami?app=crm", header: map[string]string{HeaderApplication: "HRMS"}, want: "HRMS"},
	} {
		req := httptest.NewRequest(fiber.MethodGet, tt.path, nil)
		req.AddCookie(cookie)

		for k, v := range tt.header {
			req.Header.Set(k, v)
		}

		resp, err := s.app.Test(req)
		require.NoError(t, err)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)

		var got struct {
			Actor  uint64 `json:"actor"`
			Tenant uint   `json:"tenant"`
			App    string `json:"app"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
		resp.Body.Close()

		assert.Equal(t, tt.want, got.App, tt.path)
		assert.Equal(t, s.admin, got.Actor)
		assert.Equal(t, uint(1), got.Tenant)
	}

	status, body := s.do(t, fiber.MethodGet, "/api/whoami?app=erp", cookie, nil)
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, CodeUnknownApplication, body.Code)
}

func TestLoadPermissions_NoActiveRole(t *testing.T) {
	s := newTestServer(t)
	user := s.addUser(t, "norole", "", true)

	status, body := s.do(t, fiber.MethodGet, "/api/open", s.cookie(t, user.ID), nil)
	assert.Equal(t, fiber.StatusConflict, status)
	assert.Equal(t, "configuration", body.Kind)
	assert.Equal(t, "no_active_role", body.Code)
}

func TestRequireApplicationAccess(t *testing.T) {
	s := newTestServer(t)

	without := s.addUser(t, "without", "AGENT", false)
	with := s.addUser(t, "with", "AGENT", true)

	status, body := s.do(t, fiber.MethodGet, "/api/open", s.cookie(t, without.ID), nil)
	assert.Equal(t, fiber.StatusForbidden, status)
	assert.Equal(t, "no_application_access", body.Code)

	status, _ = s.do(t, fiber.MethodGet, "/api/open", s.cookie(t, with.ID), nil)
	assert.Equal(t, fiber.StatusNoContent, status)
}

func TestRequireMenuAccess(t *testing.T) {
	s := newTestServer(t)

	viewer := s.addUser(t, "viewer", "VIEWER", true)
	manager := s.addUser(t, "manager", "MANAGER", true)

	status, body := s.do(t, fiber.MethodGet, "/api/roles", s.cookie(t, viewer.ID), nil)
	assert.Equal(t, fiber.StatusForbidden, status)
	assert.Equal(t, "menu_denied", body.Code)

	status, _ = s.do(t, fiber.MethodGet, "/api/roles", s.cookie(t, manager.ID), nil)
	assert.Equal(t, fiber.StatusNoContent, status)

	status, body = s.do(t, fiber.MethodGet, "/api/ghost", s.cookie(t, manager.ID), nil)
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, "unknown_menu_item", body.Code)

	status, _ = s.do(t, fiber.MethodGet, "/api/ghost", s.cookie(t, s.admin), nil)
	assert.Equal(t, fiber.StatusNoContent, status, "the top level sees every item")
}

func TestRequireCapability(t *testing.T) {
	s := newTestServer(t)

	agent := s.addUser(t, "agent", "AGENT", true)
	specialist := s.addUser(t, "specialist", "SPECIALIST", true)

	status, body := s.do(t, fiber.MethodDelete, "/api/contacts", s.cookie(t, agent.ID), nil)
	assert.Equal(t, fiber.StatusForbidden, status)
	assert.Equal(t, "capability_denied", body.Code)

	status, _ = s.do(t, fiber.MethodDelete, "/api/contacts", s.cookie(t, specialist.ID), nil)
	assert.Equal(t, fiber.StatusNoContent, status)
}

func TestRequireManagement(t *testing.T) {
	s := newTestServer(t)

	manager := s.addUser(t, "manager", "MANAGER", true)
	cookie := s.cookie(t, manager.ID)

	status, body := s.do(t, fiber.MethodGet, "/api/admin/roles", cookie, nil)
	assert.Equal(t, fiber.StatusForbidden, status)
	assert.Equal(t, "cannot_manage_roles", body.Code)

	status, _ = s.do(t, fiber.MethodGet, "/api/admin/users", cookie, nil)
	assert.Equal(t, fiber.StatusNoContent, status)

	status, _ = s.do(t, fiber.MethodGet, "/api/admin/roles", s.cookie(t, s.admin), nil)
	assert.Equal(t, fiber.StatusNoContent, status)
}
