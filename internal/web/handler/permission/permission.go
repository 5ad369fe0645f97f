// Package permission exposes the actor's own permission snapshot: role, record
// capabilities, visible navigation and single menu access decisions.
package permission

import (
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/tenantdesk/tenantdesk/internal/auth"
	"github.com/tenantdesk/tenantdesk/internal/rbac"
	"github.com/tenantdesk/tenantdesk/internal/web/handler"
	"github.com/tenantdesk/tenantdesk/internal/web/navigation"
)

// Path is the base path of the permission endpoints.
const Path = handler.APIPath + "/me"

// Summary is the rendered view of a snapshot.
type Summary struct {
	ApplicationCode   string               `json:"applicationCode"`
	ApplicationAccess bool                 `json:"applicationAccess"`
	Role              rbac.Role            `json:"role"`
	ValidFrom         time.Time            `json:"validFrom"`
	ValidUntil        *time.Time           `json:"validUntil,omitempty"`
	Scope             rbac.AssignmentScope `json:"scope"`
	Capabilities      []rbac.Capabilities  `json:"capabilities"`
	Menu              []rbac.MenuItem      `json:"menu"`
	LoadedAt          time.Time            `json:"loadedAt"`
}

// Decision is the answer to a single menu access question.
type Decision struct {
	Path    string `json:"path"`
	Allowed bool   `json:"allowed"`
	CanOpen bool   `json:"canOpen"`
	Code    string `json:"code,omitempty"`
	Reason  string `json:"reason,omitempty"`
}

// Service is the permission handler service.
type Service struct {
	deps handler.Deps
}

// Handler is the permission handler.
var Handler = Service{}

// Init initializes the permission handler.
func (s *Service) Init(app *fiber.App, deps handler.Deps) error {
	if app == nil || !deps.Valid() {
		return handler.ErrMissingDeps
	}

	s.deps = deps

	router := handler.Group(app, Path, deps)
	router.Get("/permissions", s.Permissions)
	router.Post("/permissions/refresh", s.Refresh)
	router.Get("/menu", s.Menu)
	router.Get("/menu-access", s.MenuAccess)
	router.Get("/capabilities/:resource", s.Capabilities)

	for _, kind := range rbac.ResourceKinds {
		for _, action := range rbac.Actions {
			router.Get("/capabilities/"+string(kind)+"/"+string(action),
				auth.RequireCapability(deps.Auth, kind, action), s.Granted)
		}
	}

	return nil
}

// Permissions returns the actor's snapshot summary.
func (s *Service) Permissions(c fiber.Ctx) error {
	return handler.OK(c, fiber.StatusOK, Summarize(auth.SnapshotFrom(c)))
}

// Refresh reloads the actor's snapshot from the database.
func (s *Service) Refresh(c fiber.Ctx) error {
	current := auth.SnapshotFrom(c)

	snap, err := s.deps.Auth.Refresh(c.Context(), current.ActorID, current.ApplicationCode)
	if err != nil {
		return auth.Error(c, err)
	}

	return handler.OK(c, fiber.StatusOK, Summarize(snap))
}

// Menu returns the navigation entries the actor may see. The optional path query
// marks the active entry and builds the breadcrumbs.
func (s *Service) Menu(c fiber.Ctx) error {
	return handler.OK(c, fiber.StatusOK, navigation.Build(auth.SnapshotFrom(c).VisibleMenu(), c.Query("path")))
}

// MenuAccess answers whether the menu item identified by the path query (a path
// or a code) may be shown. Denials are answers, not errors.
func (s *Service) MenuAccess(c fiber.Ctx) error {
	path := c.Query("path")
	if path == "" {
		return auth.Invalid(c, errMissingPath)
	}

	snap := auth.SnapshotFrom(c)
	err := snap.CheckMenuAccess(path)
	s.deps.Auth.Metrics().MenuDecision(snap.ApplicationCode, err)

	decision := Decision{Path: path, Allowed: err == nil, CanOpen: snap.CanOpen(path)}
	if err != nil {
		body := auth.Body(err)
		decision.Code = body.Code
		decision.Reason = body.Message
	}

	return handler.OK(c, fiber.StatusOK, decision)
}

// Capabilities returns the record capabilities of the actor for one resource kind.
func (s *Service) Capabilities(c fiber.Ctx) error {
	kind, ok := rbac.ParseResourceKind(c.Params("resource"))
	if !ok {
		return handler.Fail(c, fiber.StatusNotFound, "unknown_resource", errUnknownResource)
	}

	return handler.OK(c, fiber.StatusOK, auth.SnapshotFrom(c).Capabilities(kind))
}

// Granted answers a single capability check that passed its guard.
func (s *Service) Granted(c fiber.Ctx) error {
	return c.SendStatus(fiber.StatusNoContent)
}

// Summarize renders a snapshot.
func Summarize(snap *rbac.Snapshot) Summary {
	caps := make([]rbac.Capabilities, 0, len(rbac.ResourceKinds))
	for _, kind := range rbac.ResourceKinds {
		caps = append(caps, snap.Capabilities(kind))
	}

	return Summary{
		ApplicationCode:   snap.ApplicationCode,
		ApplicationAccess: snap.ApplicationAccess,
		Role:              *snap.Role(),
		ValidFrom:         snap.Assignment.ValidFrom,
		ValidUntil:        snap.Assignment.ValidUntil,
		Scope:             snap.Assignment.Scope,
		Capabilities:      caps,
		Menu:              snap.VisibleMenu(),
		LoadedAt:          snap.LoadedAt,
	}
}
