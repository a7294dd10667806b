// Package observability holds the Prometheus collectors for backend calls and
// view actions.
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"vocabtalk/internal/domain"
)

const (
	outcomeOK    = "ok"
	outcomeError = "error"
)

// Metrics owns a private registry so that tests can build as many as they need.
type Metrics struct {
	registry *prometheus.Registry

	BackendCalls    *prometheus.CounterVec
	BackendDuration *prometheus.HistogramVec
	ViewErrors      *prometheus.CounterVec
	TurnsAppended   *prometheus.CounterVec
}

func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "vocabtalk"
	}

	m := &Metrics{
		registry: prometheus.NewRegistry(),
		BackendCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "backend_calls_total",
				Help:      "Backend calls by operation and outcome.",
			},
			[]string{"op", "outcome"},
		),
		BackendDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "backend_call_duration_seconds",
				Help:      "Backend call latency by operation.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"op"},
		),
		ViewErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "view_errors_total",
				Help:      "User-visible errors by view and code.",
			},
			[]string{"view", "code"},
		),
		TurnsAppended: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "conversation_turns_total",
				Help:      "Conversation turns appended by role.",
			},
			[]string{"role"},
		),
	}

	m.registry.MustRegister(
		m.BackendCalls,
		m.BackendDuration,
		m.ViewErrors,
		m.TurnsAppended,
		collectors.NewGoCollector(),
	)
	return m
}

// ObserveBackendCall implements apiclient.CallObserver.
func (m *Metrics) ObserveBackendCall(op string, err error, elapsed time.Duration) {
	outcome := outcomeOK
	if err != nil {
		outcome = outcomeError
	}
	m.BackendCalls.WithLabelValues(op, outcome).Inc()
	m.BackendDuration.WithLabelValues(op).Observe(elapsed.Seconds())
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveViewError counts a user-visible failure.
func (m *Metrics) ObserveViewError(view domain.View, code domain.ErrorCode) {
	m.ViewErrors.WithLabelValues(string(view), string(code)).Inc()
}

func (m *Metrics) ObserveTurn(role domain.Role) {
	m.TurnsAppended.WithLabelValues(string(role)).Inc()
}
