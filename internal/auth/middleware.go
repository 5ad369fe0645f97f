package auth

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog/log"

	"github.com/tenantdesk/tenantdesk/internal/rbac"
	"github.com/tenantdesk/tenantdesk/internal/web/session"
)

// Locals keys set by the middleware.
const (
	LocalActorID  = "actor_id"
	LocalTenantID = "tenant_id"
	LocalSnapshot = "rbac_snapshot"
)

const (
	// HeaderApplication selects the application of a request.
	HeaderApplication = "X-Application"
	// QueryApplication selects the application when the header is absent.
	QueryApplication = "app"
)

// RequireSession resolves the session cookie into the acting user.
func RequireSession(sessions *session.Store) fiber.Handler {
	return func(c fiber.Ctx) error {
		data, err := sessions.Read(c)
		if err != nil {
			if !errors.Is(err, session.ErrNoSession) {
				log.Error().Err(err).Msg("failed to read session")
			}

			return Unauthorized(c)
		}

		c.Locals(LocalActorID, data.UserID)
		c.Locals(LocalTenantID, data.TenantID)

		return c.Next()
	}
}

// ApplicationOf returns the application code requested by c, or empty for the default.
func ApplicationOf(c fiber.Ctx) string {
	if app := c.Get(HeaderApplication); app != "" {
		return strings.ToUpper(app)
	}

	return strings.ToUpper(c.Query(QueryApplication))
}

// LoadPermissions loads the actor's snapshot for the requested application.
// An actor without an active role is answered with a configuration error.
func LoadPermissions(svc *Service) fiber.Handler {
	return func(c fiber.Ctx) error {
		snap, err := svc.Snapshot(c.Context(), ActorID(c), ApplicationOf(c))
		if err != nil {
			return Error(c, err)
		}

		c.Locals(LocalSnapshot, snap)

		return c.Next()
	}
}

// RequireApplicationAccess rejects actors without an active tier 1 grant.
func RequireApplicationAccess() fiber.Handler {
	return func(c fiber.Ctx) error {
		snap := SnapshotFrom(c)
		if snap == nil {
			return Error(c, rbac.ErrNoActiveRole)
		}

		if !snap.ApplicationAccess {
			log.Warn().Uint64("actor_id", snap.ActorID).Str("application", snap.ApplicationCode).
				Msg("user has no access to application")

			return Error(c, rbac.ErrNoApplicationAccess)
		}

		return c.Next()
	}
}

// RequireMenuAccess rejects actors whose role does not grant the menu item
// identified by pathOrCode.
func RequireMenuAccess(svc *Service, pathOrCode string) fiber.Handler {
	return func(c fiber.Ctx) error {
		snap := SnapshotFrom(c)

		err := snap.CheckMenuAccess(pathOrCode)
		if snap != nil {
			svc.Metrics().MenuDecision(snap.ApplicationCode, err)
		}

		if err != nil {
			return Error(c, err)
		}

		return c.Next()
	}
}

// RequireCapability rejects actors whose role does not enable action on kind.
func RequireCapability(svc *Service, kind rbac.ResourceKind, action rbac.Action) fiber.Handler {
	return func(c fiber.Ctx) error {
		snap := SnapshotFrom(c)
		if snap == nil {
			return Error(c, rbac.ErrNoActiveRole)
		}

		granted := snap.Capabilities(kind).Allows(action)
		svc.Metrics().CapabilityDecision(snap.ApplicationCode, string(kind), string(action), granted)

		if !granted {
			return Error(c, rbac.ErrCapabilityDenied)
		}

		return c.Next()
	}
}

// RequireManageRoles rejects actors whose role may not administer roles and menu grants.
func RequireManageRoles() fiber.Handler {
	return requireManagement(func(m rbac.Management) bool { return m.ManageRoles }, rbac.ErrCannotManageRoles)
}

// RequireManageUsers rejects actors whose role may not administer users.
func RequireManageUsers() fiber.Handler {
	return requireManagement(func(m rbac.Management) bool { return m.ManageUsers }, rbac.ErrCannotManageUsers)
}

func requireManagement(allowed func(rbac.Management) bool, denied *rbac.Error) fiber.Handler {
	return func(c fiber.Ctx) error {
		role := SnapshotFrom(c).Role()
		if role == nil {
			return Error(c, rbac.ErrNoActiveRole)
		}

		if !allowed(role.Management) {
			return Error(c, denied)
		}

		return c.Next()
	}
}

// SnapshotFrom returns the snapshot loaded by LoadPermissions, or nil.
func SnapshotFrom(c fiber.Ctx) *rbac.Snapshot {
	snap, _ := c.Locals(LocalSnapshot).(*rbac.Snapshot)

	return snap
}

// ActorID returns the acting user set by RequireSession, or 0.
func ActorID(c fiber.Ctx) uint64 {
	id, _ := c.Locals(LocalActorID).(uint64)

	return id
}

// TenantID returns the acting user's tenant set by RequireSession, or 0.
func TenantID(c fiber.Ctx) uint {
	id, _ := c.Locals(LocalTenantID).(uint)

	return id
}
