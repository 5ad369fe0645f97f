// Package role provides the admin API for roles and their menu grants.
package role

import (
	"errors"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog/log"

	"github.com/tenantdesk/tenantdesk/internal/auth"
	"github.com/tenantdesk/tenantdesk/internal/db/controller/access"
	rolectrl "github.com/tenantdesk/tenantdesk/internal/db/controller/role"
	"github.com/tenantdesk/tenantdesk/internal/db/models"
	"github.com/tenantdesk/tenantdesk/internal/rbac"
	"github.com/tenantdesk/tenantdesk/internal/web/handler"
)

const (
	// Path is the base path for role management.
	Path = handler.APIPath + "/admin/roles"

	// MenuCode is the menu item gating role management.
	MenuCode = "ROLES"
)

// Input is the create and update body of a role.
type Input struct {
	Code        string `json:"code"        validate:"required,max=50"`
	Name        string `json:"name"        validate:"required,max=100"`
	Description string `json:"description" validate:"max=255"`
	Level       int    `json:"level"       validate:"min=1,max=5"`

	CanCreateRecords bool `json:"canCreateRecords"`

	CanViewOwnRecords         bool `json:"canViewOwnRecords"`
	CanViewPeerRecords        bool `json:"canViewPeerRecords"`
	CanViewSubordinateRecords bool `json:"canViewSubordinateRecords"`
	CanViewAllRecords         bool `json:"canViewAllRecords"`

	CanEditOwnRecords         bool `json:"canEditOwnRecords"`
	CanEditPeerRecords        bool `json:"canEditPeerRecords"`
	CanEditSubordinateRecords bool `json:"canEditSubordinateRecords"`
	CanEditAllRecords         bool `json:"canEditAllRecords"`

	CanDeleteOwnRecords         bool `json:"canDeleteOwnRecords"`
	CanDeletePeerRecords        bool `json:"canDeletePeerRecords"`
	CanDeleteSubordinateRecords bool `json:"canDeleteSubordinateRecords"`
	CanDeleteAllRecords         bool `json:"canDeleteAllRecords"`

	CanAssignRoles      bool `json:"canAssignRoles"`
	CanManageUsers      bool `json:"canManageUsers"`
	CanManageBusinesses bool `json:"canManageBusinesses"`
	CanManageRoles      bool `json:"canManageRoles"`
}

// Model converts the input into a role of applicationCode.
func (in Input) Model(applicationCode string) models.Role {
	return models.Role{
		ApplicationCode: applicationCode,
		Code:            in.Code,
		Name:            in.Name,
		Description:     in.Description,
		Level:           in.Level,

		CanCreateRecords: in.CanCreateRecords,

		CanViewOwnRecords:         in.CanViewOwnRecords,
		CanViewPeerRecords:        in.CanViewPeerRecords,
		CanViewSubordinateRecords: in.CanViewSubordinateRecords,
		CanViewAllRecords:         in.CanViewAllRecords,

		CanEditOwnRecords:         in.CanEditOwnRecords,
		CanEditPeerRecords:        in.CanEditPeerRecords,
		CanEditSubordinateRecords: in.CanEditSubordinateRecords,
		CanEditAllRecords:         in.CanEditAllRecords,

		CanDeleteOwnRecords:         in.CanDeleteOwnRecords,
		CanDeletePeerRecords:        in.CanDeletePeerRecords,
		CanDeleteSubordinateRecords: in.CanDeleteSubordinateRecords,
		CanDeleteAllRecords:         in.CanDeleteAllRecords,

		CanAssignRoles:      in.CanAssignRoles,
		CanManageUsers:      in.CanManageUsers,
		CanManageBusinesses: in.CanManageBusinesses,
		CanManageRoles:      in.CanManageRoles,
	}
}

// View is a role as returned by the API.
type View struct {
	rbac.Role

	Description string `json:"description"`
}

// Grant is one menu grant of a role.
type Grant struct {
	MenuItemID uint `json:"menuItemId" validate:"required"`
	CanAccess  bool `json:"canAccess"`
}

// GrantsInput replaces the menu grants of a role.
type GrantsInput struct {
	Grants []Grant `json:"grants" validate:"dive"`
}

// Service provides CRUD operations for roles.
type Service struct {
	deps      handler.Deps
	validator *validator.Validate
}

// Handler is the exported instance.
var Handler = Service{}

// Init registers routes.
func (s *Service) Init(app *fiber.App, deps handler.Deps) error {
	if app == nil || !deps.Valid() {
		return handler.ErrMissingDeps
	}

	s.deps = deps
	s.validator = validator.New()

	router := handler.Group(app, Path, deps)
	router.Use(
		auth.RequireApplicationAccess(),
		auth.RequireMenuAccess(deps.Auth, MenuCode),
		auth.RequireManageRoles(),
	)

	router.Get(handler.RootPath, s.List)
	router.Post(handler.RootPath, s.Create)
	router.Get("/:id", s.Get)
	router.Put("/:id", s.Update)
	router.Delete("/:id", s.Delete)
	router.Get("/:id/menu-grants", s.MenuGrants)
	router.Put("/:id/menu-grants", s.SetMenuGrants)

	return nil
}

// List returns the roles of the requested application, lowest level first.
func (s *Service) List(c fiber.Ctx) error {
	roles, err := rolectrl.List(s.deps.DB.WithContext(c.Context()), auth.SnapshotFrom(c).ApplicationCode)
	if err != nil {
		return auth.Error(c, err)
	}

	out := make([]View, 0, len(roles))
	for _, r := range roles {
		out = append(out, toView(r))
	}

	return handler.OK(c, fiber.StatusOK, out)
}

// Get returns one role.
func (s *Service) Get(c fiber.Ctx) error {
	r, err := s.load(c)
	if err != nil {
		return fail(c, err)
	}

	return handler.OK(c, fiber.StatusOK, toView(*r))
}

// Create adds a custom role to the requested application.
func (s *Service) Create(c fiber.Ctx) error {
	in, err := s.parse(c)
	if err != nil {
		return auth.Invalid(c, err)
	}

	snap := auth.SnapshotFrom(c)
	if in.Level > rbac.MaxAssignableLevel(snap.Role().Level) {
		return auth.Error(c, rbac.ErrLevelCeiling)
	}

	r := in.Model(snap.ApplicationCode)
	if err := rolectrl.Create(s.deps.DB.WithContext(c.Context()), &r); err != nil {
		return fail(c, err)
	}

	log.Info().Uint64("actor_id", snap.ActorID).Str("application", r.ApplicationCode).
		Str("role", r.Code).Msg("role created")

	return handler.OK(c, fiber.StatusCreated, toView(r))
}

// Update replaces the editable columns of a role.
func (s *Service) Update(c fiber.Ctx) error {
	current, err := s.load(c)
	if err != nil {
		return fail(c, err)
	}

	in, err := s.parse(c)
	if err != nil {
		return auth.Invalid(c, err)
	}

	snap := auth.SnapshotFrom(c)
	ceiling := rbac.MaxAssignableLevel(snap.Role().Level)

	if in.Level > ceiling || current.Level > ceiling {
		return auth.Error(c, rbac.ErrLevelCeiling)
	}

	updated, err := rolectrl.Update(s.deps.DB.WithContext(c.Context()), current.ID, in.Model(current.ApplicationCode))
	if err != nil {
		return fail(c, err)
	}

	handler.InvalidateRoleHolders(c.Context(), s.deps, updated.ID)

	log.Info().Uint64("actor_id", snap.ActorID).Uint("role_id", updated.ID).Msg("role updated")

	return handler.OK(c, fiber.StatusOK, toView(*updated))
}

// Delete removes a custom role that nobody holds.
func (s *Service) Delete(c fiber.Ctx) error {
	current, err := s.load(c)
	if err != nil {
		return fail(c, err)
	}

	if err := rolectrl.Delete(s.deps.DB.WithContext(c.Context()), current.ID); err != nil {
		return fail(c, err)
	}

	log.Info().Uint64("actor_id", auth.ActorID(c)).Uint("role_id", current.ID).Msg("role deleted")

	return c.SendStatus(fiber.StatusNoContent)
}

// MenuGrants lists the menu grants of a role.
func (s *Service) MenuGrants(c fiber.Ctx) error {
	current, err := s.load(c)
	if err != nil {
		return fail(c, err)
	}

	rows, err := rolectrl.MenuGrants(s.deps.DB.WithContext(c.Context()), current.ID)
	if err != nil {
		return auth.Error(c, err)
	}

	out := make([]Grant, 0, len(rows))
	for _, row := range rows {
		out = append(out, Grant{MenuItemID: row.MenuItemID, CanAccess: row.CanAccess})
	}

	return handler.OK(c, fiber.StatusOK, out)
}

// SetMenuGrants replaces the menu grants of a role.
func (s *Service) SetMenuGrants(c fiber.Ctx) error {
	current, err := s.load(c)
	if err != nil {
		return fail(c, err)
	}

	in := new(GrantsInput)
	if err := c.Bind().Body(in); err != nil {
		return auth.Invalid(c, err)
	}

	if err := s.validator.Struct(in); err != nil {
		return auth.Invalid(c, err)
	}

	grants := make(map[uint]bool, len(in.Grants))
	for _, g := range in.Grants {
		grants[g.MenuItemID] = g.CanAccess
	}

	if err := rolectrl.SetMenuGrants(s.deps.DB.WithContext(c.Context()), current.ID, grants); err != nil {
		return fail(c, err)
	}

	handler.InvalidateRoleHolders(c.Context(), s.deps, current.ID)

	log.Info().Uint64("actor_id", auth.ActorID(c)).Uint("role_id", current.ID).
		Int("grants", len(grants)).Msg("role menu grants replaced")

	return c.SendStatus(fiber.StatusNoContent)
}

// load returns the role named by the id parameter. Roles of other applications are not found.
func (s *Service) load(c fiber.Ctx) (*models.Role, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return nil, rolectrl.ErrRoleNotFound
	}

	r, err := rolectrl.Get(s.deps.DB.WithContext(c.Context()), uint(id))
	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	if r.ApplicationCode != auth.SnapshotFrom(c).ApplicationCode {
		return nil, rolectrl.ErrRoleNotFound
	}

	return r, nil
}

func (s *Service) parse(c fiber.Ctx) (*Input, error) {
	in := new(Input)
	if err := c.Bind().Body(in); err != nil {
		return nil, err //nolint:wrapcheck
	}

	if err := s.validator.Struct(in); err != nil {
		return nil, err //nolint:wrapcheck
	}

	return in, nil
}

func toView(r models.Role) View {
	return View{Role: access.ToRole(r), Description: r.Description}
}

func fail(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, rolectrl.ErrRoleNotFound):
		return handler.Fail(c, fiber.StatusNotFound, "role_not_found", err)
	case errors.Is(err, rolectrl.ErrRoleAlreadyExists):
		return handler.Fail(c, fiber.StatusConflict, "role_exists", err)
	case errors.Is(err, rolectrl.ErrSystemRole), errors.Is(err, rolectrl.ErrSystemRoleImmutable):
		return handler.Fail(c, fiber.StatusConflict, "system_role", err)
	case errors.Is(err, rolectrl.ErrRoleInUse):
		return handler.Fail(c, fiber.StatusConflict, "role_in_use", err)
	case errors.Is(err, rolectrl.ErrRoleCodeEmpty), errors.Is(err, rolectrl.ErrInvalidLevel),
		errors.Is(err, rolectrl.ErrMenuItemMismatch):
		return handler.Fail(c, fiber.StatusUnprocessableEntity, auth.CodeInvalidPayload, err)
	default:
		return auth.Error(c, err)
	}
}
