// Package account serves the logged-in user's own profile and password change.
// It needs a session but no role, so users without an assignment can still reach it.
package account

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog/log"

	"github.com/tenantdesk/tenantdesk/internal/auth"
	"github.com/tenantdesk/tenantdesk/internal/web/handler"
)

// Path is the base path of the account endpoints.
const Path = "/account"

// Profile is the user's own account view.
type Profile struct {
	ID           uint64   `json:"id"`
	TenantID     uint     `json:"tenantId"`
	Username     string   `json:"username"`
	Email        string   `json:"email"`
	FirstName    string   `json:"firstName"`
	LastName     string   `json:"lastName"`
	Applications []string `json:"applications"`
}

// PasswordChange is the password change request body.
type PasswordChange struct {
	OldPassword string `json:"oldPassword" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=8,nefield=OldPassword"`
}

// Service is the account handler service.
type Service struct {
	deps      handler.Deps
	provider  *auth.LocalProvider
	validator *validator.Validate
}

// Handler is the account handler.
var Handler = Service{}

// Init initializes the account handler.
func (s *Service) Init(app *fiber.App, deps handler.Deps) error {
	if app == nil || !deps.Valid() {
		return handler.ErrMissingDeps
	}

	provider, err := auth.NewLocalProvider(deps.DB)
	if err != nil {
		return err //nolint:wrapcheck
	}

	s.deps = deps
	s.provider = provider
	s.validator = validator.New()

	router := app.Group(Path, auth.RequireSession(deps.Sessions))
	router.Get(handler.RootPath, s.Get)
	router.Put("/password", s.ChangePassword)

	return nil
}

// Get returns the profile of the logged-in user.
func (s *Service) Get(c fiber.Ctx) error {
	user, err := s.provider.GetUserByID(auth.ActorID(c))
	if errors.Is(err, auth.ErrUserNotFound) {
		return auth.Unauthorized(c)
	}

	if err != nil {
		return auth.Error(c, err)
	}

	return handler.OK(c, fiber.StatusOK, Profile{
		ID:           user.ID,
		TenantID:     user.TenantID,
		Username:     user.Username,
		Email:        user.Email,
		FirstName:    user.FirstName,
		LastName:     user.LastName,
		Applications: s.deps.Auth.Applications(),
	})
}

// ChangePassword replaces the user's password after verifying the old one.
func (s *Service) ChangePassword(c fiber.Ctx) error {
	req := new(PasswordChange)
	if err := c.Bind().Body(req); err != nil {
		return auth.Invalid(c, err)
	}

	if err := s.validator.Struct(req); err != nil {
		return auth.Invalid(c, err)
	}

	userID := auth.ActorID(c)

	err := s.provider.ChangePassword(userID, req.OldPassword, req.NewPassword)
	if errors.Is(err, auth.ErrInvalidOldPassword) {
		return c.Status(fiber.StatusForbidden).JSON(auth.ErrorBody{
			Kind:    "authentication",
			Code:    "invalid_old_password",
			Message: err.Error(),
		})
	}

	if err != nil {
		return auth.Error(c, err)
	}

	log.Info().Uint64("user_id", userID).Msg("password changed")

	return c.SendStatus(fiber.StatusNoContent)
}
