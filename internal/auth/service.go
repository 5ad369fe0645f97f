package auth

import (
	"context"
	"slices"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/tenantdesk/tenantdesk/internal/metrics"
	"github.com/tenantdesk/tenantdesk/internal/rbac"
)

// Options configures a Service.
type Options struct {
	// DefaultApplication is used when a request does not name an application.
	DefaultApplication string
	// Stores holds one permission store per served application.
	Stores []*rbac.Store
	// Writer commits role assignment mutations.
	Writer rbac.Writer
	// Policy overrides the default assignment policy when set.
	Policy *rbac.Policy
	// Metrics records authorization decisions. It may be nil.
	Metrics *metrics.Recorder
}

// Service provides authorization on top of the permission core.
type Service struct {
	stores     map[string]*rbac.Store
	defaultApp string
	validator  *rbac.Validator
	metrics    *metrics.Recorder
}

// NewService creates a new auth service.
func NewService(opts Options) (*Service, error) {
	if len(opts.Stores) == 0 {
		return nil, ErrNoStores
	}

	if opts.Writer == nil {
		return nil, ErrWriterNil
	}

	s := &Service{
		stores:     make(map[string]*rbac.Store, len(opts.Stores)),
		defaultApp: strings.ToUpper(opts.DefaultApplication),
		metrics:    opts.Metrics,
	}

	for _, store := range opts.Stores {
		s.stores[store.ApplicationCode()] = store
	}

	if _, ok := s.stores[s.defaultApp]; !ok {
		return nil, ErrUnknownApplication
	}

	validatorOpts := []rbac.ValidatorOption{rbac.OnChange(s.Invalidate)}
	if opts.Policy != nil {
		validatorOpts = append(validatorOpts, rbac.WithPolicy(*opts.Policy))
	}

	s.validator = rbac.NewValidator(opts.Writer, validatorOpts...)

	return s, nil
}

// DefaultApplication returns the application used when a request names none.
func (s *Service) DefaultApplication() string {
	return s.defaultApp
}

// Applications returns the served application codes in sorted order.
func (s *Service) Applications() []string {
	apps := make([]string, 0, len(s.stores))
	for app := range s.stores {
		apps = append(apps, app)
	}

	slices.Sort(apps)

	return apps
}

// Store returns the permission store of an application. An empty code selects the default.
func (s *Service) Store(applicationCode string) (*rbac.Store, error) {
	if applicationCode == "" {
		applicationCode = s.defaultApp
	}

	store, ok := s.stores[strings.ToUpper(applicationCode)]
	if !ok {
		return nil, ErrUnknownApplication
	}

	return store, nil
}

// Snapshot loads the actor's permission snapshot for an application.
func (s *Service) Snapshot(ctx context.Context, actorID uint64, applicationCode string) (*rbac.Snapshot, error) {
	store, err := s.Store(applicationCode)
	if err != nil {
		return nil, err
	}

	snap, err := store.Load(ctx, actorID)
	s.metrics.SnapshotLoad(store.ApplicationCode(), err)

	return snap, err //nolint:wrapcheck
}

// Refresh reloads the actor's snapshot from the database.
func (s *Service) Refresh(ctx context.Context, actorID uint64, applicationCode string) (*rbac.Snapshot, error) {
	store, err := s.Store(applicationCode)
	if err != nil {
		return nil, err
	}

	snap, err := store.Refresh(ctx, actorID)
	s.metrics.SnapshotLoad(store.ApplicationCode(), err)

	return snap, err //nolint:wrapcheck
}

// Invalidate drops the actor's cached snapshot in every application.
func (s *Service) Invalidate(ctx context.Context, actorID uint64) {
	for app, store := range s.stores {
		if err := store.Invalidate(ctx, actorID); err != nil {
			log.Error().Err(err).Uint64("actor_id", actorID).Str("application", app).
				Msg("failed to invalidate permission snapshot")

			continue
		}

		s.metrics.Invalidation(app)
	}
}

// Validator returns the role assignment validator.
func (s *Service) Validator() *rbac.Validator {
	return s.validator
}

// Metrics returns the decision recorder. It may be nil.
func (s *Service) Metrics() *metrics.Recorder {
	return s.metrics
}
