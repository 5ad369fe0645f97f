package rbac

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
)

// Source is the read side of the hosted backend.
type Source interface {
	// GetActiveRoleAssignment returns the currently valid assignment joined with its role,
	// or nil when the actor has none.
	GetActiveRoleAssignment(ctx context.Context, actorID uint64, applicationCode string) (*Assignment, error)
	// ListMenuItems returns active menu items of the application ordered by display order.
	ListMenuItems(ctx context.Context, applicationCode string) ([]MenuItem, error)
	// ListRoleMenuGrants returns the menu grant rows of a role.
	ListRoleMenuGrants(ctx context.Context, roleID uint) ([]MenuGrant, error)
	// HasApplicationAccess reports whether the actor holds an active tier-1 grant.
	HasApplicationAccess(ctx context.Context, actorID uint64, applicationCode string) (bool, error)
}

// Cache stores encoded snapshots by key.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithCache keeps loaded snapshots in c until refreshed or invalidated.
func WithCache(c Cache) StoreOption {
	return func(s *Store) {
		s.cache = c
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) {
		s.now = now
	}
}

// Store loads permission snapshots for one application.
// It is the only writer of cached snapshots.
type Store struct {
	source          Source
	applicationCode string
	cache           Cache
	now             func() time.Time
}

// NewStore creates a Store reading from source.
func NewStore(source Source, applicationCode string, opts ...StoreOption) *Store {
	s := &Store{
		source:          source,
		applicationCode: applicationCode,
		now:             time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// ApplicationCode returns the application this store serves.
func (s *Store) ApplicationCode() string {
	return s.applicationCode
}

// Load returns the actor's snapshot, from cache when available. A cached
// snapshot whose assignment is no longer active is reloaded from the source.
// It fails with ErrNoActiveRole when the actor has no active assignment
// and with ErrStoreFailure when the source could not be read.
func (s *Store) Load(ctx context.Context, actorID uint64) (*Snapshot, error) {
	if snap := s.cached(ctx, actorID); snap != nil {
		return snap, nil
	}

	return s.Refresh(ctx, actorID)
}

// Refresh reloads the actor's snapshot from the source and replaces the cached copy.
func (s *Store) Refresh(ctx context.Context, actorID uint64) (*Snapshot, error) {
	snap, err := s.fetch(ctx, actorID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		data, errJSON := json.Marshal(snap)
		if errJSON == nil {
			errJSON = s.cache.Set(ctx, s.key(actorID), data)
		}

		if errJSON != nil {
			log.Warn().Err(errJSON).Uint64("actor_id", actorID).Msg("failed to cache permission snapshot")
		}
	}

	return snap, nil
}

// Invalidate drops the cached snapshot of an actor. The next Load reads the source.
func (s *Store) Invalidate(ctx context.Context, actorID uint64) error {
	if s.cache == nil {
		return nil
	}

	if err := s.cache.Delete(ctx, s.key(actorID)); err != nil {
		return storeFailure("invalidate snapshot", err)
	}

	return nil
}

func (s *Store) fetch(ctx context.Context, actorID uint64) (*Snapshot, error) {
	assignment, err := s.source.GetActiveRoleAssignment(ctx, actorID, s.applicationCode)
	if err != nil {
		log.Error().Err(err).Uint64("actor_id", actorID).Str("application", s.applicationCode).
			Msg("failed to load role assignment")

		return nil, storeFailure("load role assignment", err)
	}

	if assignment == nil {
		log.Warn().Uint64("actor_id", actorID).Str("application", s.applicationCode).
			Msg("user has no active role assignment")

		return nil, ErrNoActiveRole
	}

	appAccess, err := s.source.HasApplicationAccess(ctx, actorID, s.applicationCode)
	if err != nil {
		return nil, storeFailure("load application access", err)
	}

	items, err := s.source.ListMenuItems(ctx, s.applicationCode)
	if err != nil {
		return nil, storeFailure("load menu items", err)
	}

	grants, err := s.source.ListRoleMenuGrants(ctx, assignment.Role.ID)
	if err != nil {
		return nil, storeFailure("load menu grants", err)
	}

	accessible := make(map[uint]bool, len(grants))
	for _, g := range grants {
		if g.CanAccess {
			accessible[g.MenuItemID] = true
		}
	}

	if assignment.Role.Flags == nil {
		assignment.Role.Flags = NewPermissionFlags()
	}

	return &Snapshot{
		ActorID:           actorID,
		ApplicationCode:   s.applicationCode,
		ApplicationAccess: appAccess,
		Assignment:        *assignment,
		MenuItems:         items,
		Accessible:        accessible,
		LoadedAt:          s.now(),
	}, nil
}

func (s *Store) cached(ctx context.Context, actorID uint64) *Snapshot {
	if s.cache == nil {
		return nil
	}

	data, ok, err := s.cache.Get(ctx, s.key(actorID))
	if err != nil {
		log.Warn().Err(err).Uint64("actor_id", actorID).Msg("permission snapshot cache read failed")
		return nil
	}

	if !ok {
		return nil
	}

	snap := new(Snapshot)
	if err := json.Unmarshal(data, snap); err != nil {
		log.Warn().Err(err).Uint64("actor_id", actorID).Msg("discarding undecodable permission snapshot")
		return nil
	}

	// the assignment window may have closed since the snapshot was cached
	if !snap.Assignment.ActiveAt(s.now()) {
		log.Debug().Uint64("actor_id", actorID).Str("application", s.applicationCode).
			Msg("discarding permission snapshot outside its validity window")

		if err := s.cache.Delete(ctx, s.key(actorID)); err != nil {
			log.Warn().Err(err).Uint64("actor_id", actorID).Msg("failed to drop expired permission snapshot")
		}

		return nil
	}

	return snap
}

func (s *Store) key(actorID uint64) string {
	return s.applicationCode + ":" + strconv.FormatUint(actorID, 10)
}
