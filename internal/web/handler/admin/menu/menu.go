// Package menu provides the admin API for navigation menu items.
package menu

import (
	"errors"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog/log"

	"github.com/tenantdesk/tenantdesk/internal/auth"
	menuctrl "github.com/tenantdesk/tenantdesk/internal/db/controller/menu"
	"github.com/tenantdesk/tenantdesk/internal/db/models"
	"github.com/tenantdesk/tenantdesk/internal/web/handler"
)

const (
	// Path is the base path for menu item management.
	Path = handler.APIPath + "/admin/menu-items"

	// MenuCode is the menu item gating menu management.
	MenuCode = "ROLES"
)

// Input is the create and update body of a menu item.
type Input struct {
	Code         string `json:"code"         validate:"required,max=50"`
	Name         string `json:"name"         validate:"required,max=100"`
	Path         string `json:"path"         validate:"required,max=255"`
	Icon         string `json:"icon"         validate:"max=50"`
	DisplayOrder int    `json:"displayOrder" validate:"min=0"`
	IsActive     *bool  `json:"isActive"`
}

// Model converts the input into a menu item of applicationCode. Items are active unless stated.
func (in Input) Model(applicationCode string) models.MenuItem {
	active := in.IsActive == nil || *in.IsActive

	return models.MenuItem{
		ApplicationCode: applicationCode,
		Code:            in.Code,
		Name:            in.Name,
		Path:            in.Path,
		Icon:            in.Icon,
		DisplayOrder:    in.DisplayOrder,
		IsActive:        active,
	}
}

// Activation is the body of PATCH /:id/active.
type Activation struct {
	IsActive bool `json:"isActive"`
}

// View is a menu item as returned by the API.
type View struct {
	ID              uint   `json:"id"`
	ApplicationCode string `json:"applicationCode"`
	Code            string `json:"code"`
	Name            string `json:"name"`
	Path            string `json:"path"`
	Icon            string `json:"icon,omitempty"`
	DisplayOrder    int    `json:"displayOrder"`
	IsActive        bool   `json:"isActive"`
	IsSystem        bool   `json:"isSystem"`
}

// Service provides CRUD operations for menu items.
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
	router.Put("/:id", s.Update)
	router.Patch("/:id/active", s.SetActive)
	router.Delete("/:id", s.Delete)

	return nil
}

// List returns the menu items of the requested application in display order.
// Inactive items are listed with ?inactive=true.
func (s *Service) List(c fiber.Ctx) error {
	includeInactive, _ := strconv.ParseBool(c.Query("inactive"))

	items, err := menuctrl.List(s.deps.DB.WithContext(c.Context()), auth.SnapshotFrom(c).ApplicationCode, includeInactive)
	if err != nil {
		return auth.Error(c, err)
	}

	out := make([]View, 0, len(items))
	for _, item := range items {
		out = append(out, toView(item))
	}

	return handler.OK(c, fiber.StatusOK, out)
}

// Create adds a custom menu item. It is granted to nobody until a role gets it.
func (s *Service) Create(c fiber.Ctx) error {
	in, err := s.parse(c)
	if err != nil {
		return auth.Invalid(c, err)
	}

	item := in.Model(auth.SnapshotFrom(c).ApplicationCode)
	if err := menuctrl.Create(s.deps.DB.WithContext(c.Context()), &item); err != nil {
		return fail(c, err)
	}

	handler.InvalidateApplication(c.Context(), s.deps, item.ApplicationCode)

	log.Info().Uint64("actor_id", auth.ActorID(c)).Str("application", item.ApplicationCode).
		Str("menu_item", item.Code).Msg("menu item created")

	return handler.OK(c, fiber.StatusCreated, toView(item))
}

// Update replaces the editable columns of a menu item.
func (s *Service) Update(c fiber.Ctx) error {
	current, err := s.load(c)
	if err != nil {
		return fail(c, err)
	}

	in, err := s.parse(c)
	if err != nil {
		return auth.Invalid(c, err)
	}

	updated, err := menuctrl.Update(s.deps.DB.WithContext(c.Context()), current.ID, in.Model(current.ApplicationCode))
	if err != nil {
		return fail(c, err)
	}

	handler.InvalidateApplication(c.Context(), s.deps, updated.ApplicationCode)

	log.Info().Uint64("actor_id", auth.ActorID(c)).Uint("menu_item_id", updated.ID).Msg("menu item updated")

	return handler.OK(c, fiber.StatusOK, toView(*updated))
}

// SetActive shows or hides a menu item.
func (s *Service) SetActive(c fiber.Ctx) error {
	current, err := s.load(c)
	if err != nil {
		return fail(c, err)
	}

	in := new(Activation)
	if err := c.Bind().Body(in); err != nil {
		return auth.Invalid(c, err)
	}

	if err := menuctrl.SetActive(s.deps.DB.WithContext(c.Context()), current.ID, in.IsActive); err != nil {
		return fail(c, err)
	}

	handler.InvalidateApplication(c.Context(), s.deps, current.ApplicationCode)

	return c.SendStatus(fiber.StatusNoContent)
}

// Delete removes a custom menu item with its grants.
func (s *Service) Delete(c fiber.Ctx) error {
	current, err := s.load(c)
	if err != nil {
		return fail(c, err)
	}

	if err := menuctrl.Delete(s.deps.DB.WithContext(c.Context()), current.ID); err != nil {
		return fail(c, err)
	}

	handler.InvalidateApplication(c.Context(), s.deps, current.ApplicationCode)

	log.Info().Uint64("actor_id", auth.ActorID(c)).Uint("menu_item_id", current.ID).Msg("menu item deleted")

	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Service) load(c fiber.Ctx) (*models.MenuItem, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return nil, menuctrl.ErrMenuItemNotFound
	}

	item, err := menuctrl.Get(s.deps.DB.WithContext(c.Context()), uint(id))
	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	if item.ApplicationCode != auth.SnapshotFrom(c).ApplicationCode {
		return nil, menuctrl.ErrMenuItemNotFound
	}

	return item, nil
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

func toView(m models.MenuItem) View {
	return View{
		ID:              m.ID,
		ApplicationCode: m.ApplicationCode,
		Code:            m.Code,
		Name:            m.Name,
		Path:            m.Path,
		Icon:            m.Icon,
		DisplayOrder:    m.DisplayOrder,
		IsActive:        m.IsActive,
		IsSystem:        m.IsSystem,
	}
}

func fail(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, menuctrl.ErrMenuItemNotFound):
		return handler.Fail(c, fiber.StatusNotFound, "menu_item_not_found", err)
	case errors.Is(err, menuctrl.ErrMenuItemAlreadyExists):
		return handler.Fail(c, fiber.StatusConflict, "menu_item_exists", err)
	case errors.Is(err, menuctrl.ErrSystemMenuItem), errors.Is(err, menuctrl.ErrSystemMenuItemCode):
		return handler.Fail(c, fiber.StatusConflict, "system_menu_item", err)
	case errors.Is(err, menuctrl.ErrMenuItemCodeEmpty), errors.Is(err, menuctrl.ErrMenuItemPathInvalid):
		return handler.Fail(c, fiber.StatusUnprocessableEntity, auth.CodeInvalidPayload, err)
	default:
		return auth.Error(c, err)
	}
}
