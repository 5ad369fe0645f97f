// Package assignment serves role assignment: listing assignable roles, reading,
// replacing and revoking a user's assignment in the requested application.
package assignment

import (
	"errors"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"gorm.io/gorm"

	"github.com/tenantdesk/tenantdesk/internal/auth"
	"github.com/tenantdesk/tenantdesk/internal/db/controller/access"
	"github.com/tenantdesk/tenantdesk/internal/db/controller/role"
	"github.com/tenantdesk/tenantdesk/internal/db/models"
	"github.com/tenantdesk/tenantdesk/internal/rbac"
	"github.com/tenantdesk/tenantdesk/internal/web/handler"
)

const (
	// Path is the base path of the assignment endpoints.
	Path = handler.APIPath + "/role-assignments"

	// RolesPath is the base path of the assignable role listing.
	RolesPath = handler.APIPath + "/roles"
)

// Metric operation labels.
const (
	opAssign = "assign"
	opRevoke = "revoke"
)

var (
	errUnknownUser  = errors.New("the selected user does not exist")
	errNoAssignment = errors.New("the user has no role in this application")
)

// Service is the assignment handler service.
type Service struct {
	deps      handler.Deps
	validator *validator.Validate
}

// Handler is the assignment handler.
var Handler = Service{}

// Init initializes the assignment handler.
func (s *Service) Init(app *fiber.App, deps handler.Deps) error {
	if app == nil || !deps.Valid() {
		return handler.ErrMissingDeps
	}

	s.deps = deps
	s.validator = validator.New()

	router := handler.Group(app, Path, deps)
	router.Use(auth.RequireApplicationAccess())
	router.Post(handler.RootPath, s.Assign)
	router.Get("/:userID", s.Get)
	router.Delete("/:userID", s.Revoke)

	roles := handler.Group(app, RolesPath, deps)
	roles.Get("/assignable", s.Assignable)

	return nil
}

// Assignable lists the roles the actor may assign, lowest level first.
func (s *Service) Assignable(c fiber.Ctx) error {
	snap := auth.SnapshotFrom(c)
	out := make([]rbac.Role, 0)

	if !snap.Role().CanAssign() {
		return handler.OK(c, fiber.StatusOK, out)
	}

	roles, err := role.ListAssignable(s.deps.DB.WithContext(c.Context()), snap.ApplicationCode, snap.Role().Level)
	if err != nil {
		return auth.Error(c, err)
	}

	for _, r := range roles {
		out = append(out, access.ToRole(r))
	}

	return handler.OK(c, fiber.StatusOK, out)
}

// Get returns a user's assignment in the application regardless of its validity window.
func (s *Service) Get(c fiber.Ctx) error {
	snap := auth.SnapshotFrom(c)
	if !snap.Role().CanAssign() {
		return auth.Error(c, rbac.ErrCannotAssignRoles)
	}

	userID, err := s.targetUser(c)
	if err != nil {
		return s.fail(c, err)
	}

	a, err := s.deps.Access.FindAssignment(c.Context(), userID, snap.ApplicationCode)
	if err != nil {
		return auth.Error(c, err)
	}

	if a == nil {
		return handler.Fail(c, fiber.StatusNotFound, "no_assignment", errNoAssignment)
	}

	return handler.OK(c, fiber.StatusOK, a)
}

// Assign creates or replaces a user's assignment.
func (s *Service) Assign(c fiber.Ctx) error {
	req := new(rbac.AssignRequest)
	if err := c.Bind().Body(req); err != nil {
		return auth.Invalid(c, err)
	}

	if err := s.validator.Struct(req); err != nil {
		return auth.Invalid(c, err)
	}

	if err := s.sameTenant(c, req.UserID); err != nil {
		return s.fail(c, err)
	}

	snap := auth.SnapshotFrom(c)

	a, err := s.deps.Auth.Validator().Assign(c.Context(), snap, *req)
	s.deps.Auth.Metrics().Assignment(snap.ApplicationCode, opAssign, err)

	if err != nil {
		return auth.Error(c, err)
	}

	return handler.OK(c, fiber.StatusCreated, a)
}

// Revoke removes a user's assignment. Revoking an unassigned user succeeds.
func (s *Service) Revoke(c fiber.Ctx) error {
	userID, err := s.targetUser(c)
	if err != nil {
		return s.fail(c, err)
	}

	snap := auth.SnapshotFrom(c)

	err = s.deps.Auth.Validator().Revoke(c.Context(), snap, userID)
	s.deps.Auth.Metrics().Assignment(snap.ApplicationCode, opRevoke, err)

	if err != nil {
		return auth.Error(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// targetUser parses the userID parameter and checks it belongs to the actor's tenant.
func (s *Service) targetUser(c fiber.Ctx) (uint64, error) {
	userID, err := strconv.ParseUint(c.Params("userID"), 10, 64)
	if err != nil || userID == 0 {
		return 0, errUnknownUser
	}

	return userID, s.sameTenant(c, userID)
}

func (s *Service) sameTenant(c fiber.Ctx, userID uint64) error {
	var user models.User

	err := s.deps.DB.WithContext(c.Context()).Select("id", "tenant_id").First(&user, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errUnknownUser
	}

	if err != nil {
		return err //nolint:wrapcheck
	}

	if user.TenantID != auth.TenantID(c) {
		return rbac.ErrTenantMismatch
	}

	return nil
}

func (s *Service) fail(c fiber.Ctx, err error) error {
	if errors.Is(err, errUnknownUser) {
		return handler.Fail(c, fiber.StatusNotFound, "unknown_user", err)
	}

	return auth.Error(c, err)
}
