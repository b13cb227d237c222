package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"bloodbank/m/domain"
)

const namespace = "bloodbank"

// Metrics owns a private registry so that independent servers (and tests)
// do not collide on the global one.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
	intakeUnits  *prometheus.CounterVec
	unitUpdates  *prometheus.CounterVec
	logins       *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route pattern, method and status code.",
		}, []string{"route", "method", "code"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route pattern.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		intakeUnits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "intake_units_total",
			Help:      "Submitted intake rows by component and outcome.",
		}, []string{"component", "outcome"}),
		unitUpdates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "unit_updates_total",
			Help:      "Blood type and screening updates by kind and outcome.",
		}, []string{"kind", "outcome"}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "logins_total",
			Help:      "Login attempts by outcome.",
		}, []string{"outcome"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequests, m.httpDuration, m.intakeUnits, m.unitUpdates, m.logins,
	)
	return m
}

// Handler serves the exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) ObserveRequest(route, method string, status int, elapsed time.Duration) {
	m.httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveIntake(results []domain.IntakeResult) {
	for _, r := range results {
		component := string(r.Component)
		if component == "" {
			component = "unknown"
		}
		m.intakeUnits.WithLabelValues(component, string(r.Outcome)).Inc()
	}
}

// ObserveUpdate records an update of kind ("blood_type" or "screening").
func (m *Metrics) ObserveUpdate(kind string, rows int64, err error) {
	outcome := "updated"
	switch {
	case err != nil:
		outcome = "error"
	case rows == 0:
		outcome = "not_found"
	}
	m.unitUpdates.WithLabelValues(kind, outcome).Inc()
}

func (m *Metrics) ObserveLogin(ok bool) {
	outcome := "failure"
	if ok {
		outcome = "success"
	}
	m.logins.WithLabelValues(outcome).Inc()
}
