// Package auth authenticates users against the local database and gates
// routes on the permission core.
//
// # Authentication
//
// LocalProvider verifies usernames and Argon2id hashed passwords. Disabled
// accounts cannot log in.
//
// # Authorization
//
// Service owns one rbac.Store per served application and the role
// assignment validator. Assignment changes invalidate the cached snapshots
// of the affected user in every application.
//
// # Middleware
//
// Fiber middleware functions are provided for route protection:
//   - RequireSession: resolve the session cookie into the actor
//   - LoadPermissions: load the actor's snapshot for the requested application
//   - RequireApplicationAccess: tier 1 application access
//   - RequireMenuAccess: tier 2 menu access for a path or code
//   - RequireCapability: record capability for a resource and action
//   - RequireManageRoles, RequireManageUsers: administrative capabilities
//
// Failures are rendered by Error with the status returned by StatusOf.
package auth
