package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "marketplace"

// Audit outcomes.
const (
	AuditWritten = "written"
	AuditFailed  = "failed"
	AuditDropped = "dropped"
)

// Metrics groups the collectors for the request-integrity and onboarding
// paths. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	csrfRejections       prometheus.Counter
	rateLimitRejections  *prometheus.CounterVec
	onboardingTransition *prometheus.CounterVec
	auditRecords         *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		csrfRejections: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "csrf_rejections_total",
			Help:      "Mutating requests rejected for a missing or mismatched CSRF token.",
		}),
		rateLimitRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limit_rejections_total",
			Help:      "Requests rejected by the fixed-window rate limiter.",
		}, []string{"operation"}),
		onboardingTransition: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "onboarding_transitions_total",
			Help:      "Provider request status transitions by target status and outcome code.",
		}, []string{"target", "outcome"}),
		auditRecords: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audit_records_total",
			Help:      "Audit records by outcome (written, failed, dropped).",
		}, []string{"outcome"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.csrfRejections,
		m.rateLimitRejections,
		m.onboardingTransition,
		m.auditRecords,
	)
	return m
}

// Handler exposes the registry for scraping.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) CSRFRejected() {
	if m == nil {
		return
	}
	m.csrfRejections.Inc()
}

func (m *Metrics) RateLimited(operation string) {
	if m == nil {
		return
	}
	m.rateLimitRejections.WithLabelValues(operation).Inc()
}

func (m *Metrics) Transition(target, outcome string) {
	if m == nil {
		return
	}
	m.onboardingTransition.WithLabelValues(target, outcome).Inc()
}

func (m *Metrics) Audit(outcome string) {
	if m == nil {
		return
	}
	m.auditRecords.WithLabelValues(outcome).Inc()
}

// CSRFRejectionsCounter, RateLimitCounter, TransitionCounter and
// AuditCounter expose single series for assertions.
func (m *Metrics) CSRFRejectionsCounter() prometheus.Counter {
	return m.csrfRejections
}

func (m *Metrics) RateLimitCounter(operation string) prometheus.Counter {
	return m.rateLimitRejections.WithLabelValues(operation)
}

func (m *Metrics) TransitionCounter(target, outcome string) prometheus.Counter {
	return m.onboardingTransition.WithLabelValues(target, outcome)
}

func (m *Metrics) AuditCounter(outcome string) prometheus.Counter {
	return m.auditRecords.WithLabelValues(outcome)
}
