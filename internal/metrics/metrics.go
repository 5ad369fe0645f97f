// Package metrics exposes prometheus counters for authorization decisions.
package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/tenantdesk/tenantdesk/internal/rbac"
)

const namespace = "tenantdesk"

// Outcome labels.
const (
	OutcomeGranted = "granted"
	OutcomeError   = "error"
)

// Recorder counts authorization outcomes. A nil Recorder records nothing.
type Recorder struct {
	menu        *prometheus.CounterVec
	capability  *prometheus.CounterVec
	assignment  *prometheus.CounterVec
	snapshot    *prometheus.CounterVec
	invalidated *prometheus.CounterVec
}

// New creates a Recorder and registers its collectors with reg.
func New(reg prometheus.Registerer) (*Recorder, error) {
	r := &Recorder{
		menu: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "menu_access_decisions_total",
			Help:      "Menu access decisions by application and outcome.",
		}, []string{"application", "outcome"}),
		capability: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "capability_decisions_total",
			Help:      "Record capability checks by application, resource, action and outcome.",
		}, []string{"application", "resource", "action", "outcome"}),
		assignment: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "role_assignments_total",
			Help:      "Role assignment mutations by application, operation and outcome.",
		}, []string{"application", "operation", "outcome"}),
		snapshot: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "permission_snapshot_loads_total",
			Help:      "Permission snapshot loads by application and outcome.",
		}, []string{"application", "outcome"}),
		invalidated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "permission_snapshot_invalidations_total",
			Help:      "Permission snapshot invalidations by application.",
		}, []string{"application"}),
	}

	for _, c := range []prometheus.Collector{r.menu, r.capability, r.assignment, r.snapshot, r.invalidated} {
		if err := reg.Register(c); err != nil {
			return nil, err //nolint:wrapcheck
		}
	}

	return r, nil
}

// MenuDecision counts one menu access decision.
func (r *Recorder) MenuDecision(applicationCode string, err error) {
	if r == nil {
		return
	}

	r.menu.WithLabelValues(applicationCode, Outcome(err)).Inc()
}

// CapabilityDecision counts one record capability check.
func (r *Recorder) CapabilityDecision(applicationCode, resource, action string, granted bool) {
	if r == nil {
		return
	}

	outcome := "denied"
	if granted {
		outcome = OutcomeGranted
	}

	r.capability.WithLabelValues(applicationCode, resource, action, outcome).Inc()
}

// Assignment counts one assign or revoke attempt.
func (r *Recorder) Assignment(applicationCode, operation string, err error) {
	if r == nil {
		return
	}

	r.assignment.WithLabelValues(applicationCode, operation, Outcome(err)).Inc()
}

// SnapshotLoad counts one snapshot load.
func (r *Recorder) SnapshotLoad(applicationCode string, err error) {
	if r == nil {
		return
	}

	r.snapshot.WithLabelValues(applicationCode, Outcome(err)).Inc()
}

// Invalidation counts one dropped snapshot.
func (r *Recorder) Invalidation(applicationCode string) {
	if r == nil {
		return
	}

	r.invalidated.WithLabelValues(applicationCode).Inc()
}

// Outcome maps err to a label value: granted for nil, the permission error
// code for permission errors and error otherwise.
func Outcome(err error) string {
	if err == nil {
		return OutcomeGranted
	}

	var rbacErr *rbac.Error
	if errors.As(err, &rbacErr) {
		return rbacErr.Code
	}

	return OutcomeError
}
