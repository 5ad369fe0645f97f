// Package webtest builds seeded handler environments for HTTP tests.
package webtest

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/require"

	"github.com/tenantdesk/tenantdesk/internal/auth"
	"github.com/tenantdesk/tenantdesk/internal/cache"
	"github.com/tenantdesk/tenantdesk/internal/config"
	"github.com/tenantdesk/tenantdesk/internal/db/controller/access"
	"github.com/tenantdesk/tenantdesk/internal/db/dbtest"
	"github.com/tenantdesk/tenantdesk/internal/db/models"
	"github.com/tenantdesk/tenantdesk/internal/db/seed"
	"github.com/tenantdesk/tenantdesk/internal/rbac"
	"github.com/tenantdesk/tenantdesk/internal/web/handler"
	"github.com/tenantdesk/tenantdesk/internal/web/session"
)

// AdminPassword is the password of the seeded administrator.
const AdminPassword = "changeme-now"

// UserPassword is the password of users created by AddUser.
const UserPassword = "user-pass"

// Env is a seeded database with every handler dependency wired to it.
type Env struct {
	Deps  handler.Deps
	Cache *cache.Memory
	Seed  seed.Result
	App   *fiber.App

	minter *fiber.App
}

// New seeds CRM and HRMS and returns an Env whose App has nothing registered yet.
func New(t *testing.T) *Env {
	t.Helper()

	db := dbtest.Open(t)

	cfg := &config.Config{
		DevMode: true,
		Title:   "tenantdesk",
		Webserver: config.Webserver{
			Port:    8080,
			URL:     "http://localhost:8080",
			Session: config.Session{ExpiryTime: time.Hour},
		},
		RBAC: config.RBAC{
			ApplicationCode:     seed.ApplicationCRM,
			Applications:        []string{seed.ApplicationCRM, seed.ApplicationHRMS},
			ScopeRequiredLevels: []int{3, 4},
		},
		Bootstrap: config.Bootstrap{
			TenantName:    "Acme",
			AdminUsername: "admin",
			AdminPassword: AdminPassword,
			AdminEmail:    "admin@example.com",
		},
	}

	res, err := seed.Run(db, seed.Options{
		TenantName:    cfg.Bootstrap.TenantName,
		AdminUsername: cfg.Bootstrap.AdminUsername,
		AdminPassword: cfg.Bootstrap.AdminPassword,
		AdminEmail:    cfg.Bootstrap.AdminEmail,
		Applications:  cfg.RBAC.Applications,
	})
	require.NoError(t, err)

	repo, err := access.New(db)
	require.NoError(t, err)

	mem := cache.NewMemory(64, time.Minute)

	stores := make([]*rbac.Store, 0, len(cfg.RBAC.Applications))
	for _, app := range cfg.RBAC.Applications {
		stores = append(stores, rbac.NewStore(repo, app, rbac.WithCache(mem)))
	}

	policy := rbac.Policy{BusinessScopeLevels: cfg.RBAC.ScopeRequiredLevels}

	svc, err := auth.NewService(auth.Options{
		DefaultApplication: cfg.RBAC.ApplicationCode,
		Stores:             stores,
		Writer:             repo,
		Policy:             &policy,
	})
	require.NoError(t, err)

	sessions, err := session.New(session.NewDBStorage(db), cfg.Webserver.Session, cfg.DevMode)
	require.NoError(t, err)

	env := &Env{
		Deps: handler.Deps{
			Cfg:      cfg,
			DB:       db,
			Sessions: sessions,
			Auth:     svc,
			Access:   repo,
		},
		Cache:  mem,
		Seed:   res,
		App:    fiber.New(),
		minter: fiber.New(),
	}

	env.minter.Post("/:id/:tenant", func(c fiber.Ctx) error {
		id, errID := strconv.ParseUint(c.Params("id"), 10, 64)
		tenant, errTenant := strconv.ParseUint(c.Params("tenant"), 10, 32)

		if errID != nil || errTenant != nil {
			return fiber.ErrBadRequest
		}

		_, errCreate := sessions.Create(c, session.Data{UserID: id, TenantID: uint(tenant)})

		return errCreate
	})

	return env
}

// Init registers h on the Env's App.
func (e *Env) Init(t *testing.T, h handler.Service) {
	t.Helper()

	require.NoError(t, h.Init(e.App, e.Deps))
}

// Role returns the seeded role of an application by code.
func (e *Env) Role(t *testing.T, applicationCode, code string) models.Role {
	t.Helper()

	var role models.Role
	require.NoError(t, e.Deps.DB.Where("application_code = ? AND code = ?", applicationCode, code).First(&role).Error)

	return role
}

// AddUser creates an active user of the seeded tenant. When roleCode is set the user
// holds that CRM role from one hour ago; appAccess adds an active CRM access grant.
func (e *Env) AddUser(t *testing.T, username, roleCode string, appAccess bool) models.User {
	t.Helper()

	db := e.Deps.DB

	hash, err := models.HashPassword(UserPassword)
	require.NoError(t, err)

	user := models.User{
		TenantID: e.Seed.TenantID,
		Active:   true,
		Username: username,
		Email:    username + "@example.com",
		Password: hash,
	}
	require.NoError(t, db.Create(&user).Error)

	if roleCode != "" {
		role := e.Role(t, seed.ApplicationCRM, roleCode)
		require.NoError(t, db.Create(&models.RoleAssignment{
			UserID:          user.ID,
			ApplicationCode: seed.ApplicationCRM,
			RoleID:          role.ID,
			AssignedBy:      e.Seed.AdminID,
			ValidFrom:       time.Now().UTC().Add(-time.Hour),
		}).Error)
	}

	if appAccess {
		var app models.Application
		require.NoError(t, db.Where("code = ?", seed.ApplicationCRM).First(&app).Error)
		require.NoError(t, db.Create(&models.ApplicationAccess{
			UserID:        user.ID,
			ApplicationID: app.ID,
			TenantID:      e.Seed.TenantID,
			IsActive:      true,
			GrantedBy:     e.Seed.AdminID,
		}).Error)
	}

	return user
}

// Cookie returns a session cookie for a user of the seeded tenant.
func (e *Env) Cookie(t *testing.T, userID uint64) *http.Cookie {
	t.Helper()

	return e.TenantCookie(t, userID, e.Seed.TenantID)
}

// TenantCookie returns a session cookie for a user of any tenant.
func (e *Env) TenantCookie(t *testing.T, userID uint64, tenantID uint) *http.Cookie {
	t.Helper()

	path := "/" + strconv.FormatUint(userID, 10) + "/" + strconv.FormatUint(uint64(tenantID), 10)

	resp, err := e.minter.Test(httptest.NewRequest(fiber.MethodPost, path, nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	for _, c := range resp.Cookies() {
		if c.Name == e.Deps.Sessions.CookieName() {
			return c
		}
	}

	t.Fatal("no session cookie set")

	return nil
}

// Result is a decoded response.
type Result struct {
	Status int
	Body   []byte
	Resp   *http.Response
}

// Envelope decodes the success envelope, unmarshalling its data into out.
func (r Result) Envelope(t *testing.T, out any) {
	t.Helper()

	var env struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(r.Body, &env), string(r.Body))
	require.True(t, env.Success, string(r.Body))

	if out != nil {
		require.NoError(t, json.Unmarshal(env.Data, out), string(env.Data))
	}
}

// Error decodes an error body.
func (r Result) Error(t *testing.T) auth.ErrorBody {
	t.Helper()

	var body auth.ErrorBody
	require.NoError(t, json.Unmarshal(r.Body, &body), string(r.Body))

	return body
}

// Do sends a request to the Env's App. A non nil body is sent as JSON.
func (e *Env) Do(t *testing.T, method, path string, body any, cookie *http.Cookie) Result {
	t.Helper()

	var reader io.Reader

	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)

		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}

	if cookie != nil {
		req.AddCookie(cookie)
	}

	resp, err := e.App.Test(req)
	require.NoError(t, err)

	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return Result{Status: resp.StatusCode, Body: raw, Resp: resp}
}
