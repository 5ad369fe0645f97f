package auth

import (
	"errors"
	"fmt"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"

	"github.com/tenantdesk/tenantdesk/internal/rbac"
)

func TestStatusOf(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{rbac.ErrNoActiveRole, fiber.StatusConflict},
		{rbac.ErrMenuDenied, fiber.StatusForbidden},
		{rbac.ErrLevelCeiling, fiber.StatusForbidden},
		{rbac.ErrServerDenied, fiber.StatusForbidden},
		{rbac.ErrBusinessScopeRequired, fiber.StatusUnprocessableEntity},
		{rbac.ErrValidFromRequired, fiber.StatusUnprocessableEntity},
		{rbac.ErrValidityWindow, fiber.StatusUnprocessableEntity},
		{rbac.ErrUnknownRole, fiber.StatusNotFound},
		{rbac.ErrUnknownMenuItem, fiber.StatusNotFound},
		{rbac.ErrStoreFailure, fiber.StatusServiceUnavailable},
		{fmt.Errorf("wrapped: %w", rbac.ErrStoreFailure), fiber.StatusServiceUnavailable},
		{ErrUnknownApplication, fiber.StatusNotFound},
		{errors.New("boom"), fiber.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, StatusOf(tt.err))
		})
	}
}

func TestBody(t *testing.T) {
	assert.Equal(t, ErrorBody{
		Kind:    "denied",
		Code:    "level_ceiling",
		Message: rbac.ErrLevelCeiling.Message,
	}, Body(rbac.ErrLevelCeiling))

	assert.Equal(t, CodeUnknownApplication, Body(ErrUnknownApplication).Code)
	assert.Equal(t, CodeInternal, Body(errors.New("db exploded")).Code)
	assert.NotContains(t, Body(errors.New("db exploded")).Message, "exploded")
}
