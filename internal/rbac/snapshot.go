package rbac

import (
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Snapshot is the read-mostly authorization state of one actor in one application.
type Snapshot struct {
	ActorID           uint64        `json:"actorId"`
	ApplicationCode   string        `json:"applicationCode"`
	ApplicationAccess bool          `json:"applicationAccess"`
	Assignment        Assignment    `json:"assignment"`
	MenuItems         []MenuItem    `json:"menuItems"`
	Accessible        map[uint]bool `json:"accessible"`
	LoadedAt          time.Time     `json:"loadedAt"`
}

// Role returns the actor's active role.
func (s *Snapshot) Role() *Role {
	if s == nil {
		return nil
	}

	return &s.Assignment.Role
}

// Capabilities resolves record capabilities of the actor for a resource.
func (s *Snapshot) Capabilities(kind ResourceKind) Capabilities {
	return Resolve(s.Role(), kind)
}

// HasMenuAccess reports whether the navigation entry identified by a path
// or a code may be shown to the actor.
func (s *Snapshot) HasMenuAccess(pathOrCode string) bool {
	return s.CheckMenuAccess(pathOrCode) == nil
}

// CheckMenuAccess is HasMenuAccess with a reason. It returns nil when access is
// granted, ErrUnknownMenuItem when nothing matches and ErrMenuDenied otherwise.
func (s *Snapshot) CheckMenuAccess(pathOrCode string) error {
	if s == nil {
		return ErrNoActiveRole
	}

	if s.Assignment.Role.Level == MaxLevel {
		return nil
	}

	item, ok := s.findMenuItem(pathOrCode)
	if !ok {
		log.Warn().Uint64("actor_id", s.ActorID).Str("path", pathOrCode).
			Msg("menu access requested for unknown menu item")

		return ErrUnknownMenuItem
	}

	if !s.Accessible[item.ID] {
		return ErrMenuDenied
	}

	return nil
}

// CanOpen combines tier-1 application access with HasMenuAccess.
func (s *Snapshot) CanOpen(pathOrCode string) bool {
	return s != nil && s.ApplicationAccess && s.HasMenuAccess(pathOrCode)
}

// VisibleMenu returns the menu items the actor may see, in display order.
func (s *Snapshot) VisibleMenu() []MenuItem {
	if s == nil {
		return nil
	}

	visible := make([]MenuItem, 0, len(s.MenuItems))

	for _, item := range s.MenuItems {
		if s.Assignment.Role.Level == MaxLevel || s.Accessible[item.ID] {
			visible = append(visible, item)
		}
	}

	return visible
}

// findMenuItem matches path equality OR upper-cased code equality, first hit in display order.
func (s *Snapshot) findMenuItem(pathOrCode string) (MenuItem, bool) {
	code := strings.ToUpper(pathOrCode)

	for _, item := range s.MenuItems {
		if item.Path == pathOrCode || item.Code == code {
			return item, true
		}
	}

	return MenuItem{}, false
}
