package logger

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

// PrometheusHook counts log statements per level.
type PrometheusHook struct {
	statements *prometheus.CounterVec
}

// Run implements zerolog.Hook.
func (h PrometheusHook) Run(_ *zerolog.Event, level zerolog.Level, _ string) {
	if h.statements == nil || level == zerolog.NoLevel {
		return
	}

	h.statements.WithLabelValues(level.String()).Inc()
}

// NewPrometheusHook returns a hook feeding tenantdesk_log_statements_total on the
// default registerer. Init may run more than once per process, so a counter that
// is already registered is reused.
func NewPrometheusHook(service string) PrometheusHook {
	return newPrometheusHook(prometheus.DefaultRegisterer, service)
}

func newPrometheusHook(reg prometheus.Registerer, service string) PrometheusHook {
	statements := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   "tenantdesk",
			Name:        "log_statements_total",
			Help:        "Number of log statements, differentiated by log level.",
			ConstLabels: prometheus.Labels{"service": service},
		},
		[]string{"level"},
	)

	err := reg.Register(statements)

	var registered prometheus.AlreadyRegisteredError
	if errors.As(err, &registered) {
		if existing, ok := registered.ExistingCollector.(*prometheus.CounterVec); ok {
			return PrometheusHook{statements: existing}
		}
	}

	if err != nil {
		return PrometheusHook{}
	}

	return PrometheusHook{statements: statements}
}
