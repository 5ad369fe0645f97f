package rbac

import (
	"fmt"
	"strings"
)

// Action is a record operation.
type Action string

// Record actions.
const (
	ActionCreate Action = "create"
	ActionView   Action = "view"
	ActionEdit   Action = "edit"
	ActionDelete Action = "delete"
)

// Scope is the breadth of records a permission applies to.
type Scope string

// Record scopes, narrowest first.
const (
	ScopeOwn         Scope = "own"
	ScopePeer        Scope = "peer"
	ScopeSubordinate Scope = "subordinate"
	ScopeAll         Scope = "all"
)

// Actions lists every record action.
var Actions = []Action{ActionCreate, ActionView, ActionEdit, ActionDelete} //nolint:gochecknoglobals

// Scopes lists every record scope.
var Scopes = []Scope{ScopeOwn, ScopePeer, ScopeSubordinate, ScopeAll} //nolint:gochecknoglobals

// Flag identifies a single (action, scope) permission.
// It encodes as "action:scope" so flag sets survive JSON round trips.
type Flag struct {
	Action Action
	Scope  Scope
}

// MarshalText implements encoding.TextMarshaler.
func (f Flag) MarshalText() ([]byte, error) {
	return []byte(string(f.Action) + ":" + string(f.Scope)), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *Flag) UnmarshalText(text []byte) error {
	action, scope, ok := strings.Cut(string(text), ":")
	if !ok || !validAction(Action(action)) || !validScope(Scope(scope)) {
		return fmt.Errorf("rbac: invalid permission flag %q", text)
	}

	f.Action = Action(action)
	f.Scope = Scope(scope)

	return nil
}

// PermissionFlags is the set of record permissions held by a role.
// Only granted flags are stored. Creation has no scope and is kept under ScopeAll.
type PermissionFlags map[Flag]bool

// NewPermissionFlags returns an empty flag set.
func NewPermissionFlags() PermissionFlags {
	return make(PermissionFlags)
}

// Set grants or removes a flag.
func (p PermissionFlags) Set(action Action, scope Scope, granted bool) {
	if granted {
		p[Flag{Action: action, Scope: scope}] = true
		return
	}

	delete(p, Flag{Action: action, Scope: scope})
}

// Has reports whether the exact (action, scope) flag is granted.
func (p PermissionFlags) Has(action Action, scope Scope) bool {
	return p[Flag{Action: action, Scope: scope}]
}

// Any reports whether the action is granted at any scope.
func (p PermissionFlags) Any(action Action) bool {
	for _, scope := range Scopes {
		if p.Has(action, scope) {
			return true
		}
	}

	return false
}

func validAction(a Action) bool {
	for _, known := range Actions {
		if a == known {
			return true
		}
	}

	return false
}

func validScope(s Scope) bool {
	for _, known := range Scopes {
		if s == known {
			return true
		}
	}

	return false
}
