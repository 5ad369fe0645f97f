// Package login provides the HTTP handler that exchanges local credentials for a session.
package login

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog/log"

	"github.com/tenantdesk/tenantdesk/internal/auth"
	"github.com/tenantdesk/tenantdesk/internal/web/handler"
	"github.com/tenantdesk/tenantdesk/internal/web/session"
)

const (
	// Path is the path of the login endpoint.
	Path = "/login"
)

// Credentials is the login request body.
type Credentials struct {
	Username string `json:"username" validate:"required,max=100"`
	Password string `json:"password" validate:"required"`
}

// User is the public part of the logged-in user.
type User struct {
	ID       uint64 `json:"id"`
	TenantID uint   `json:"tenantId"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Service is the login handler service.
type Service struct {
	deps      handler.Deps
	provider  *auth.LocalProvider
	validator *validator.Validate
}

// Handler is the login handler.
var Handler = Service{}

// Init initializes the login handler.
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

	app.Post(Path, s.Post)

	return nil
}

// Post handles the login request.
func (s *Service) Post(c fiber.Ctx) error {
	creds := new(Credentials)
	if err := c.Bind().Body(creds); err != nil {
		return auth.Invalid(c, ErrInvalidFormData)
	}

	if err := s.validator.Struct(creds); err != nil {
		return auth.Invalid(c, err)
	}

	user, err := s.provider.Authenticate(creds.Username, creds.Password)
	if err != nil {
		if !errors.Is(err, auth.ErrUserNotFound) && !errors.Is(err, auth.ErrInvalidPassword) &&
			!errors.Is(err, auth.ErrUserAccountDisabled) {
			return auth.Error(c, err)
		}

		log.Warn().Err(err).Str("username", creds.Username).Msg("login failed")

		return c.Status(fiber.StatusUnauthorized).JSON(auth.ErrorBody{
			Kind:    "authentication",
			Code:    "invalid_credentials",
			Message: ErrInvalidCredentials.Error(),
		})
	}

	if _, err := s.deps.Sessions.Create(c, session.Data{
		UserID:   user.ID,
		TenantID: user.TenantID,
		Username: user.Username,
	}); err != nil {
		log.Error().Err(err).Uint64("user_id", user.ID).Msg("failed to write session")
		return auth.Error(c, err)
	}

	log.Info().Uint64("user_id", user.ID).Str("username", user.Username).Msg("user logged in")

	return handler.OK(c, fiber.StatusOK, User{
		ID:       user.ID,
		TenantID: user.TenantID,
		Username: user.Username,
		Email:    user.Email,
	})
}
