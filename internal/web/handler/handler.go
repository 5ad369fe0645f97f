// Package handler holds what every HTTP handler package shares: its dependencies,
// the common response envelope and snapshot invalidation after admin changes.
package handler

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/tenantdesk/tenantdesk/internal/auth"
	"github.com/tenantdesk/tenantdesk/internal/config"
	"github.com/tenantdesk/tenantdesk/internal/db/controller/access"
	"github.com/tenantdesk/tenantdesk/internal/db/models"
	"github.com/tenantdesk/tenantdesk/internal/web/session"
)

const (
	// RootPath is the root path of a route group.
	RootPath = "/"

	// APIPath prefixes every JSON route that needs a loaded permission snapshot.
	APIPath = "/api"
)

// ErrMissingDeps is returned by Init when a required dependency is nil.
var ErrMissingDeps = errors.New("app or a handler dependency is nil")

// Deps are the dependencies handed to every handler.
type Deps struct {
	Cfg      *config.Config
	DB       *gorm.DB
	Sessions *session.Store
	Auth     *auth.Service
	Access   *access.Repository
}

// Valid reports whether every dependency is set.
func (d Deps) Valid() bool {
	return d.Cfg != nil && d.DB != nil && d.Sessions != nil && d.Auth != nil && d.Access != nil
}

// Service is the interface for a web handler service.
type Service interface {
	Init(app *fiber.App, deps Deps) error
}

// Response is the envelope of every successful JSON response.
type Response struct {
	Success bool `json:"success"`
	Data    any  `json:"data,omitempty"`
}

// OK writes data inside the success envelope.
func OK(c fiber.Ctx, status int, data any) error {
	return c.Status(status).JSON(Response{Success: true, Data: data})
}

// Fail writes an error of a controller that has no permission core equivalent.
func Fail(c fiber.Ctx, status int, code string, err error) error {
	kind := "conflict"

	switch status {
	case fiber.StatusNotFound:
		kind = "unknown"
	case fiber.StatusUnprocessableEntity:
		kind = "validation"
	}

	return c.Status(status).JSON(auth.ErrorBody{Kind: kind, Code: code, Message: err.Error()})
}

// Group creates a route group for routes that act inside an application: every
// request needs a valid session and gets the actor's snapshot for the requested application.
func Group(app *fiber.App, prefix string, deps Deps) fiber.Router {
	return app.Group(prefix, auth.RequireSession(deps.Sessions), auth.LoadPermissions(deps.Auth))
}

// InvalidateRoleHolders drops the cached snapshots of every user assigned to roleID.
func InvalidateRoleHolders(ctx context.Context, deps Deps, roleID uint) {
	invalidate(ctx, deps, deps.DB.Model(&models.RoleAssignment{}).Where("role_id = ?", roleID))
}

// InvalidateApplication drops the cached snapshots of every user assigned in applicationCode.
func InvalidateApplication(ctx context.Context, deps Deps, applicationCode string) {
	invalidate(ctx, deps, deps.DB.Model(&models.RoleAssignment{}).Where("application_code = ?", applicationCode))
}

func invalidate(ctx context.Context, deps Deps, query *gorm.DB) {
	var userIDs []uint64
	if err := query.WithContext(ctx).Distinct().Pluck("user_id", &userIDs).Error; err != nil {
		log.Error().Err(err).Msg("failed to list users for snapshot invalidation")
		return
	}

	for _, id := range userIDs {
		deps.Auth.Invalidate(ctx, id)
	}
}
