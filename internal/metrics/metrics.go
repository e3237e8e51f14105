// Package metrics provides Prometheus collectors for the matcher service.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Run outcomes.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// Option applies a configuration option to the Manager.
type Option func(*Manager)

// WithNamespace sets the namespace for all metrics.
func WithNamespace(namespace string) Option {
	return func(m *Manager) {
		if namespace != "" {
			m.namespace = namespace
		}
	}
}

// WithHistogramBuckets sets custom buckets for the duration histograms.
func WithHistogramBuckets(buckets []float64) Option {
	return func(m *Manager) {
		if len(buckets) > 0 {
			m.buckets = buckets
		}
	}
}

// WithRegistry sets the registry collectors are registered on and served from.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(m *Manager) {
		if reg != nil {
			m.registry = reg
		}
	}
}

// Manager owns the matcher collectors. A nil *Manager is a valid no-op.
type Manager struct {
	namespace string
	buckets   []float64
	registry  *prometheus.Registry

	runs               *prometheus.CounterVec
	scoringDuration    *prometheus.HistogramVec
	candidatesScored   prometheus.Counter
	disqualifications  *prometheus.CounterVec
	recommended        prometheus.Counter
	paretoDuration     prometheus.Histogram
	paretoCancellation prometheus.Counter
	eventsPublished    *prometheus.CounterVec
	httpRequests       *prometheus.CounterVec
}

// NewManager builds the collectors on a dedicated registry unless one is given.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace: "matcher",
		buckets:   prometheus.DefBuckets,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.registry == nil {
		m.registry = prometheus.NewRegistry()
	}
	m.init()
	return m
}

func (m *Manager) init() {
	auto := promauto.With(m.registry)

	m.runs = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "recommendation_runs_total",
		Help:      "Recommendation runs by strategy and outcome",
	}, []string{"strategy", "outcome"})

	m.scoringDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Name:      "scoring_duration_seconds",
		Help:      "Time to score, filter and order one activity",
		Buckets:   m.buckets,
	}, []string{"strategy"})

	m.candidatesScored = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "candidates_scored_total",
		Help:      "Employee-activity pairs scored",
	})

	m.disqualifications = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "disqualifications_total",
		Help:      "Hard constraint violations by reason code",
	}, []string{"reason"})

	m.recommended = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "recommended_total",
		Help:      "Candidates placed within the open seats",
	})

	m.paretoDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Name:      "pareto_duration_seconds",
		Help:      "Pareto front computation time",
		Buckets:   m.buckets,
	})

	m.paretoCancellation = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "pareto_cancellations_total",
		Help:      "Pareto computations stopped by timeout",
	})

	m.eventsPublished = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "events_published_total",
		Help:      "Hermes events by outcome",
	}, []string{"outcome"})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests by method and status",
	}, []string{"method", "status"})
}

// Registry exposes the underlying registry.
func (m *Manager) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Manager) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RunSummary is what one completed run reports.
type RunSummary struct {
	Strategy       string
	Duration       time.Duration
	Candidates     int
	Recommended    int
	Reasons        []string
	Pareto         bool
	ParetoTime     time.Duration
	ParetoTimedOut bool
}

// ObserveRun records a successful run.
func (m *Manager) ObserveRun(s RunSummary) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(s.Strategy, OutcomeSuccess).Inc()
	m.scoringDuration.WithLabelValues(s.Strategy).Observe(s.Duration.Seconds())
	m.candidatesScored.Add(float64(s.Candidates))
	m.recommended.Add(float64(s.Recommended))
	for _, r := range s.Reasons {
		m.disqualifications.WithLabelValues(r).Inc()
	}
	if s.Pareto {
		m.paretoDuration.Observe(s.ParetoTime.Seconds())
		if s.ParetoTimedOut {
			m.paretoCancellation.Inc()
		}
	}
}

// RunFailed records a run that returned an error.
func (m *Manager) RunFailed(strategy string) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(strategy, OutcomeError).Inc()
}

// EventPublished records a hermes publish attempt.
func (m *Manager) EventPublished(err error) {
	if m == nil {
		return
	}
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeError
	}
	m.eventsPublished.WithLabelValues(outcome).Inc()
}

// HTTPRequest counts a served request.
func (m *Manager) HTTPRequest(method, status string) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, status).Inc()
}
