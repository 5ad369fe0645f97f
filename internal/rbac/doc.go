// Package rbac implements the permission core of tenantdesk.
//
// Authorization is two-tiered. Tier 1 is the application access grant: can the
// actor open an application (HRMS, CRM) at all. Tier 2 is role based: the
// actor's single active role assignment decides which navigation entries are
// shown and which record affordances are rendered.
//
// # Permission Store
//
// Store loads a Snapshot for an actor from a Source: the active role assignment
// joined with its role, every active menu item of the application and the
// role's menu grants. A missing assignment is reported as ErrNoActiveRole, a
// configuration problem that is distinct from an ordinary denial. Snapshots are
// cached and only reloaded through Refresh or Invalidate.
//
// # Scope Resolver
//
// Resolve folds a role's action x scope flags into a Capabilities answer. Any
// scope (own, peer, subordinate, all) enables the affordance; row level
// filtering stays with the database.
//
// # Menu Access Evaluator
//
// Snapshot.HasMenuAccess answers whether a navigation entry may be shown. The
// top level always passes, unknown entries never do.
//
// # Role Assignment Validator
//
// Validator guards Assign and Revoke: the assigner needs the assign capability,
// the target level must be below the assigner's own level (except for the top
// level), levels 3 and 4 need at least one business, and the validity window
// must be well formed. Every guard fails with a distinct *Error before the
// authoritative server side check and the atomic replacement run.
package rbac
