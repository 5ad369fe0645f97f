package rbac

import (
	"errors"
	"fmt"
)

// Kind classifies an authorization failure.
type Kind int

// Failure kinds.
const (
	// KindConfiguration means the actor has no usable role and an administrator must act.
	KindConfiguration Kind = iota + 1
	// KindDenied means a guard rejected the operation.
	KindDenied
	// KindStore means the backing store failed; the operation may be retried.
	KindStore
	// KindUnknown means a referenced menu item or role does not exist.
	KindUnknown
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindDenied:
		return "denied"
	case KindStore:
		return "store"
	case KindUnknown:
		return "unknown"
	default:
		return "none"
	}
}

// Error is the structured failure returned by the permission core.
// Two errors match with errors.Is when their codes are equal.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

// Error implements error.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("rbac: %s: %v", e.Message, e.Err)
	}

	return "rbac: " + e.Message
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches errors by code.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}

	return t.Code == e.Code
}

// Retryable reports whether retrying the operation may succeed.
func (e *Error) Retryable() bool {
	return e.Kind == KindStore
}

func (e *Error) wrap(err error) *Error {
	c := *e
	c.Err = err

	return &c
}

var (
	// ErrNoActiveRole is returned when the actor has no currently valid role assignment.
	ErrNoActiveRole = &Error{
		Kind:    KindConfiguration,
		Code:    "no_active_role",
		Message: "no active role is assigned to this user, contact an administrator",
	}

	// ErrNoApplicationAccess is returned when the actor holds no tier-1 grant for the application.
	ErrNoApplicationAccess = &Error{
		Kind:    KindDenied,
		Code:    "no_application_access",
		Message: "you do not have access to this application",
	}

	// ErrMenuDenied is returned when the actor's role has no grant for a known menu item.
	ErrMenuDenied = &Error{
		Kind:    KindDenied,
		Code:    "menu_denied",
		Message: "your role does not grant access to this section",
	}

	// ErrCannotAssignRoles is returned when the assigner's role lacks the assign capability.
	ErrCannotAssignRoles = &Error{
		Kind:    KindDenied,
		Code:    "cannot_assign_roles",
		Message: "insufficient permission to assign roles",
	}

	// ErrLevelCeiling is returned when the target role is at or above the assigner's level.
	ErrLevelCeiling = &Error{
		Kind:    KindDenied,
		Code:    "level_ceiling",
		Message: "you may not assign a role at or above your own level",
	}

	// ErrBusinessScopeRequired is returned when a scoped role is assigned without a business.
	ErrBusinessScopeRequired = &Error{
		Kind:    KindDenied,
		Code:    "business_scope_required",
		Message: "this role requires at least one business selection",
	}

	// ErrValidFromRequired is returned when the validity window has no start.
	ErrValidFromRequired = &Error{
		Kind:    KindDenied,
		Code:    "valid_from_required",
		Message: "a valid-from date is required",
	}

	// ErrValidityWindow is returned when valid-until precedes valid-from.
	ErrValidityWindow = &Error{
		Kind:    KindDenied,
		Code:    "validity_window",
		Message: "the valid-until date must not be before the valid-from date",
	}

	// ErrServerDenied is returned when the authoritative capability check rejects the assignment.
	ErrServerDenied = &Error{
		Kind:    KindDenied,
		Code:    "server_denied",
		Message: "the server rejected this role assignment",
	}

	// ErrCannotManageRoles is returned when the actor's role may not edit roles or menu grants.
	ErrCannotManageRoles = &Error{
		Kind:    KindDenied,
		Code:    "cannot_manage_roles",
		Message: "insufficient permission to manage roles",
	}

	// ErrCannotManageUsers is returned when the actor's role may not manage user access.
	ErrCannotManageUsers = &Error{
		Kind:    KindDenied,
		Code:    "cannot_manage_users",
		Message: "insufficient permission to manage users",
	}

	// ErrCapabilityDenied is returned when the actor's role lacks a record capability.
	ErrCapabilityDenied = &Error{
		Kind:    KindDenied,
		Code:    "capability_denied",
		Message: "your role does not allow this action on these records",
	}

	// ErrTenantMismatch is returned when an actor addresses another tenant's data.
	ErrTenantMismatch = &Error{
		Kind:    KindDenied,
		Code:    "tenant_mismatch",
		Message: "you may only manage your own tenant",
	}

	// ErrUnknownRole is returned when the target role does not exist in the application.
	ErrUnknownRole = &Error{
		Kind:    KindUnknown,
		Code:    "unknown_role",
		Message: "the selected role does not exist",
	}

	// ErrUnknownMenuItem is returned when no menu item matches a path or code.
	ErrUnknownMenuItem = &Error{
		Kind:    KindUnknown,
		Code:    "unknown_menu_item",
		Message: "the requested section does not exist",
	}

	// ErrStoreFailure is returned when loading or mutating permission data failed.
	ErrStoreFailure = &Error{
		Kind:    KindStore,
		Code:    "store_failure",
		Message: "permission data could not be read or written, please retry",
	}
)

// KindOf returns the kind of a permission core error, or 0 for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}

	return 0
}

func storeFailure(op string, err error) *Error {
	return ErrStoreFailure.wrap(fmt.Errorf("%s: %w", op, err))
}
