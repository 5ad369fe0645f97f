package rbac

import (
	"context"
	"slices"
	"time"

	"github.com/rs/zerolog/log"
)

// Writer is the mutation side of the hosted backend.
type Writer interface {
	// GetRole returns a role by ID, or nil when it does not exist.
	GetRole(ctx context.Context, roleID uint) (*Role, error)
	// FindAssignment returns the actor's assignment regardless of its validity window, or nil.
	FindAssignment(ctx context.Context, actorID uint64, applicationCode string) (*Assignment, error)
	// CheckCanAssignRole is the authoritative capability check for the assigner.
	CheckCanAssignRole(ctx context.Context, assignerID uint64, applicationCode string, targetLevel int) (bool, error)
	// ReplaceAssignment removes the actor's previous assignment and its scope rows and
	// inserts a as one atomic unit.
	ReplaceAssignment(ctx context.Context, a Assignment) (Assignment, error)
	// RevokeAssignment removes the actor's assignment and scope rows. It reports whether
	// a row existed.
	RevokeAssignment(ctx context.Context, actorID uint64, applicationCode string) (bool, error)
}

// Policy holds the tunable assignment rules.
type Policy struct {
	// BusinessScopeLevels lists role levels that need at least one business scope row.
	BusinessScopeLevels []int
}

// DefaultPolicy returns the observed configuration: levels 3 and 4 are business scoped.
func DefaultPolicy() Policy {
	return Policy{BusinessScopeLevels: []int{3, 4}}
}

// RequiresBusinessScope reports whether a role level needs a business scope.
func (p Policy) RequiresBusinessScope(level int) bool {
	return slices.Contains(p.BusinessScopeLevels, level)
}

// AssignRequest is the payload of a role assignment.
type AssignRequest struct {
	UserID         uint64     `json:"userId"         validate:"required"`
	RoleID         uint       `json:"roleId"         validate:"required"`
	ValidFrom      *time.Time `json:"validFrom"`
	ValidUntil     *time.Time `json:"validUntil"`
	BusinessIDs    []uint     `json:"businessIds"`
	ContactTypeIDs []uint     `json:"contactTypeIds"`
	PipelineIDs    []uint     `json:"pipelineIds"`
}

// ChangeFunc is called after an actor's assignment changed.
type ChangeFunc func(ctx context.Context, actorID uint64)

// ValidatorOption configures a Validator.
type ValidatorOption func(*Validator)

// WithPolicy replaces the default policy.
func WithPolicy(p Policy) ValidatorOption {
	return func(v *Validator) {
		v.policy = p
	}
}

// OnChange registers fn to run after every committed assignment or revoke.
func OnChange(fn ChangeFunc) ValidatorOption {
	return func(v *Validator) {
		v.onChange = append(v.onChange, fn)
	}
}

// Validator guards role assignment mutations.
type Validator struct {
	writer   Writer
	policy   Policy
	onChange []ChangeFunc
}

// NewValidator creates a Validator committing through w.
func NewValidator(w Writer, opts ...ValidatorOption) *Validator {
	v := &Validator{
		writer: w,
		policy: DefaultPolicy(),
	}

	for _, opt := range opts {
		opt(v)
	}

	return v
}

// Policy returns the active policy.
func (v *Validator) Policy() Policy {
	return v.policy
}

// Check runs every local guard for req and returns the target role.
// Guards run in order: assign capability, target role, level ceiling,
// business scope, validity window.
func (v *Validator) Check(ctx context.Context, assigner *Snapshot, req AssignRequest) (*Role, error) {
	if assigner == nil {
		return nil, ErrNoActiveRole
	}

	role := assigner.Role()
	if !role.CanAssign() {
		return nil, ErrCannotAssignRoles
	}

	target, err := v.writer.GetRole(ctx, req.RoleID)
	if err != nil {
		return nil, storeFailure("load target role", err)
	}

	if target == nil || target.ApplicationCode != assigner.ApplicationCode {
		log.Warn().Uint64("actor_id", assigner.ActorID).Uint("role_id", req.RoleID).
			Str("application", assigner.ApplicationCode).Msg("assignment references unknown role")

		return nil, ErrUnknownRole
	}

	if target.Level > MaxAssignableLevel(role.Level) {
		return nil, ErrLevelCeiling
	}

	if v.policy.RequiresBusinessScope(target.Level) && len(req.BusinessIDs) == 0 {
		return nil, ErrBusinessScopeRequired
	}

	if req.ValidFrom == nil || req.ValidFrom.IsZero() {
		return nil, ErrValidFromRequired
	}

	if req.ValidUntil != nil && req.ValidUntil.Before(*req.ValidFrom) {
		return nil, ErrValidityWindow
	}

	return target, nil
}

// Assign validates req, confirms it with the server side capability check and
// replaces the target actor's assignment.
func (v *Validator) Assign(ctx context.Context, assigner *Snapshot, req AssignRequest) (*Assignment, error) {
	target, err := v.Check(ctx, assigner, req)
	if err != nil {
		return nil, err
	}

	if err := v.confirm(ctx, assigner, target.Level); err != nil {
		return nil, err
	}

	saved, err := v.writer.ReplaceAssignment(ctx, Assignment{
		UserID:          req.UserID,
		ApplicationCode: assigner.ApplicationCode,
		Role:            *target,
		AssignedBy:      assigner.ActorID,
		ValidFrom:       *req.ValidFrom,
		ValidUntil:      req.ValidUntil,
		Scope: AssignmentScope{
			BusinessIDs:    req.BusinessIDs,
			ContactTypeIDs: req.ContactTypeIDs,
			PipelineIDs:    req.PipelineIDs,
		},
	})
	if err != nil {
		log.Error().Err(err).Uint64("user_id", req.UserID).Uint("role_id", req.RoleID).
			Msg("failed to replace role assignment")

		return nil, storeFailure("replace role assignment", err)
	}

	log.Info().Uint64("actor_id", assigner.ActorID).Uint64("user_id", req.UserID).
		Str("role", target.Code).Int("level", target.Level).Msg("role assigned")

	v.changed(ctx, req.UserID)

	return &saved, nil
}

// Revoke removes the actor's assignment. Revoking an unassigned actor is a no-op.
func (v *Validator) Revoke(ctx context.Context, assigner *Snapshot, actorID uint64) error {
	if assigner == nil {
		return ErrNoActiveRole
	}

	if !assigner.Role().CanAssign() {
		return ErrCannotAssignRoles
	}

	current, err := v.writer.FindAssignment(ctx, actorID, assigner.ApplicationCode)
	if err != nil {
		return storeFailure("load current assignment", err)
	}

	if current == nil {
		return nil
	}

	if current.Role.Level > MaxAssignableLevel(assigner.Role().Level) {
		return ErrLevelCeiling
	}

	if err := v.confirm(ctx, assigner, current.Role.Level); err != nil {
		return err
	}

	existed, err := v.writer.RevokeAssignment(ctx, actorID, assigner.ApplicationCode)
	if err != nil {
		return storeFailure("revoke role assignment", err)
	}

	if existed {
		log.Info().Uint64("actor_id", assigner.ActorID).Uint64("user_id", actorID).Msg("role revoked")
		v.changed(ctx, actorID)
	}

	return nil
}

// confirm asks the backend; a local pass is never enough to commit.
func (v *Validator) confirm(ctx context.Context, assigner *Snapshot, level int) error {
	ok, err := v.writer.CheckCanAssignRole(ctx, assigner.ActorID, assigner.ApplicationCode, level)
	if err != nil {
		return storeFailure("check assign capability", err)
	}

	if !ok {
		log.Warn().Uint64("actor_id", assigner.ActorID).Int("level", level).
			Msg("server side capability check rejected role assignment")

		return ErrServerDenied
	}

	return nil
}

func (v *Validator) changed(ctx context.Context, actorID uint64) {
	for _, fn := range v.onChange {
		fn(ctx, actorID)
	}
}
