// Package tenant serves the tier 1 application access grants of a tenant.
package tenant

import (
	"errors"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/tenantdesk/tenantdesk/internal/auth"
	"github.com/tenantdesk/tenantdesk/internal/db/controller/access"
	"github.com/tenantdesk/tenantdesk/internal/db/models"
	"github.com/tenantdesk/tenantdesk/internal/rbac"
	"github.com/tenantdesk/tenantdesk/internal/web/handler"
)

// Path is the base path of the tenant endpoints.
const Path = handler.APIPath + "/tenants"

var errUnknownUser = errors.New("the selected user does not exist")

// AccessUpdate is the body of an application access change.
type AccessUpdate struct {
	ApplicationCode string `json:"applicationCode" validate:"required,max=20"`
	IsActive        bool   `json:"isActive"`
}

// Service is the tenant handler service.
type Service struct {
	deps      handler.Deps
	validator *validator.Validate
}

// Handler is the tenant handler.
var Handler = Service{}

// Init initializes the tenant handler.
func (s *Service) Init(app *fiber.App, deps handler.Deps) error {
	if app == nil || !deps.Valid() {
		return handler.ErrMissingDeps
	}

	s.deps = deps
	s.validator = validator.New()

	router := handler.Group(app, Path, deps)
	router.Use(auth.RequireApplicationAccess(), auth.RequireManageUsers())
	router.Get("/:tenantID/application-access", s.List)
	router.Put("/:tenantID/application-access/:userID", s.Set)

	return nil
}

// List returns every application access grant of the actor's tenant.
func (s *Service) List(c fiber.Ctx) error {
	tenantID, err := s.tenant(c)
	if err != nil {
		return auth.Error(c, err)
	}

	grants, err := s.deps.Access.ListApplicationAccessGrants(c.Context(), tenantID)
	if err != nil {
		return auth.Error(c, err)
	}

	return handler.OK(c, fiber.StatusOK, grants)
}

// Set grants or withdraws a user's access to an application.
func (s *Service) Set(c fiber.Ctx) error {
	tenantID, err := s.tenant(c)
	if err != nil {
		return auth.Error(c, err)
	}

	req := new(AccessUpdate)
	if err := c.Bind().Body(req); err != nil {
		return auth.Invalid(c, err)
	}

	if err := s.validator.Struct(req); err != nil {
		return auth.Invalid(c, err)
	}

	userID, err := strconv.ParseUint(c.Params("userID"), 10, 64)
	if err != nil {
		return handler.Fail(c, fiber.StatusNotFound, "unknown_user", errUnknownUser)
	}

	var user models.User

	err = s.deps.DB.WithContext(c.Context()).Select("id", "tenant_id").First(&user, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return handler.Fail(c, fiber.StatusNotFound, "unknown_user", errUnknownUser)
	}

	if err != nil {
		return auth.Error(c, err)
	}

	if user.TenantID != tenantID {
		return auth.Error(c, rbac.ErrTenantMismatch)
	}

	actorID := auth.ActorID(c)

	err = s.deps.Access.SetApplicationAccess(c.Context(), tenantID, userID, req.ApplicationCode, req.IsActive, actorID)
	if errors.Is(err, access.ErrUnknownApplication) {
		return handler.Fail(c, fiber.StatusNotFound, auth.CodeUnknownApplication, err)
	}

	if err != nil {
		return auth.Error(c, err)
	}

	s.deps.Auth.Invalidate(c.Context(), userID)

	log.Info().Uint64("actor_id", actorID).Uint64("user_id", userID).Str("application", req.ApplicationCode).
		Bool("active", req.IsActive).Msg("application access changed")

	return c.SendStatus(fiber.StatusNoContent)
}

// tenant parses the tenantID parameter. Actors only ever see their own tenant.
func (s *Service) tenant(c fiber.Ctx) (uint, error) {
	id, err := strconv.ParseUint(c.Params("tenantID"), 10, 32)
	if err != nil || uint(id) != auth.TenantID(c) {
		return 0, rbac.ErrTenantMismatch
	}

	return uint(id), nil
}
