package auth

import (
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog/log"

	"github.com/tenantdesk/tenantdesk/internal/rbac"
)

// Response codes that are not produced by the permission core.
const (
	CodeUnauthenticated    = "unauthenticated"
	CodeUnknownApplication = "unknown_application"
	CodeInvalidPayload     = "invalid_payload"
	CodeInternal           = "internal_error"
)

// ErrorBody is the JSON body of every failed API request.
type ErrorBody struct {
	Success bool   `json:"success"`
	Kind    string `json:"kind"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// StatusOf maps an error to its HTTP status.
func StatusOf(err error) int {
	if errors.Is(err, ErrUnknownApplication) {
		return fiber.StatusNotFound
	}

	var rbacErr *rbac.Error
	if !errors.As(err, &rbacErr) {
		return fiber.StatusInternalServerError
	}

	switch rbacErr.Kind {
	case rbac.KindConfiguration:
		return fiber.StatusConflict
	case rbac.KindDenied:
		if isValidation(rbacErr) {
			return fiber.StatusUnprocessableEntity
		}

		return fiber.StatusForbidden
	case rbac.KindUnknown:
		return fiber.StatusNotFound
	case rbac.KindStore:
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

// Body builds the JSON body for err.
func Body(err error) ErrorBody {
	if errors.Is(err, ErrUnknownApplication) {
		return ErrorBody{Kind: rbac.KindUnknown.String(), Code: CodeUnknownApplication, Message: err.Error()}
	}

	var rbacErr *rbac.Error
	if errors.As(err, &rbacErr) {
		return ErrorBody{Kind: rbacErr.Kind.String(), Code: rbacErr.Code, Message: rbacErr.Message}
	}

	return ErrorBody{Kind: "internal", Code: CodeInternal, Message: "internal server error"}
}

// Error writes err as a JSON error response.
func Error(c fiber.Ctx, err error) error {
	status := StatusOf(err)
	if status == fiber.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.Path()).Msg("request failed")
	}

	return c.Status(status).JSON(Body(err))
}

// Unauthorized writes the response for requests without a valid session.
func Unauthorized(c fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(ErrorBody{
		Kind:    "authentication",
		Code:    CodeUnauthenticated,
		Message: "login required",
	})
}

// Invalid writes the response for a payload that failed to parse or validate.
func Invalid(c fiber.Ctx, err error) error {
	return c.Status(fiber.StatusUnprocessableEntity).JSON(ErrorBody{
		Kind:    "validation",
		Code:    CodeInvalidPayload,
		Message: err.Error(),
	})
}

// isValidation tells the field level guards apart from plain denials.
func isValidation(err *rbac.Error) bool {
	return errors.Is(err, rbac.ErrBusinessScopeRequired) ||
		errors.Is(err, rbac.ErrValidFromRequired) ||
		errors.Is(err, rbac.ErrValidityWindow)
}
