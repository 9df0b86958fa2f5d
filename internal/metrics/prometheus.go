// Package metrics provides Prometheus metrics for the crawler and the API.
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Tournament ingestion outcomes.
const (
	OutcomeIngested = "ingested"
	OutcomeSkipped  = "already_ingested"
	OutcomeFailed   = "failed"
)

// Manager owns every collector. A nil *Manager is valid and records nothing,
// so callers never need to check whether metrics are configured.
type Manager struct {
	namespace        string
	histogramBuckets []float64
	registry         *prometheus.Registry

	runsOpened         prometheus.Counter
	snapshotsWritten   prometheus.Counter
	tournaments        *prometheus.CounterVec
	teamsRejected      prometheus.Counter
	lastRunUnix        prometheus.Gauge
	feedRequests       *prometheus.CounterVec
	feedLatency        *prometheus.HistogramVec
	httpRequests       *prometheus.CounterVec
	httpRequestLatency *prometheus.HistogramVec
}

func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "fivb",
		histogramBuckets: prometheus.DefBuckets,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.registry == nil {
		m.registry = prometheus.NewRegistry()
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.runsOpened = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "ingest",
		Name:      "runs_opened_total",
		Help:      "Crawl runs opened or reopened",
	})
	m.snapshotsWritten = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "ingest",
		Name:      "snapshots_written_total",
		Help:      "Snapshot rows committed",
	})
	m.tournaments = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "ingest",
		Name:      "tournaments_total",
		Help:      "Tournament ingestions by outcome",
	}, []string{"outcome"})
	m.teamsRejected = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "ingest",
		Name:      "teams_rejected_total",
		Help:      "Feed team entries dropped as invalid",
	})
	m.lastRunUnix = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "ingest",
		Name:      "last_success_unix_seconds",
		Help:      "Time of the last ingestion that finished without failures",
	})

	m.feedRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "feed",
		Name:      "requests_total",
		Help:      "Roster feed requests by request type and result",
	}, []string{"type", "result"})
	m.feedLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "feed",
		Name:      "request_duration_seconds",
		Help:      "Roster feed request latency",
		Buckets:   m.histogramBuckets,
	}, []string{"type"})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by method, route and status",
	}, []string{"method", "route", "status"})
	m.httpRequestLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency",
		Buckets:   m.histogramBuckets,
	}, []string{"method", "route"})
}

func (m *Manager) RunOpened() {
	if m == nil {
		return
	}
	m.runsOpened.Inc()
}

func (m *Manager) SnapshotsWritten(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.snapshotsWritten.Add(float64(n))
}

func (m *Manager) TournamentIngested(outcome string) {
	if m == nil {
		return
	}
	m.tournaments.WithLabelValues(outcome).Inc()
}

func (m *Manager) TeamRejected() {
	if m == nil {
		return
	}
	m.teamsRejected.Inc()
}

func (m *Manager) IngestSucceeded(at time.Time) {
	if m == nil {
		return
	}
	m.lastRunUnix.Set(float64(at.Unix()))
}

func (m *Manager) FeedRequest(requestType string, err error, took time.Duration) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.feedRequests.WithLabelValues(requestType, result).Inc()
	m.feedLatency.WithLabelValues(requestType).Observe(took.Seconds())
}

func (m *Manager) ObserveHTTP(method, route string, status int, took time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpRequestLatency.WithLabelValues(method, route).Observe(took.Seconds())
}

// Handler exposes the registry in the Prometheus text format.
func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Gatherer returns the underlying registry.
func (m *Manager) Gatherer() prometheus.Gatherer {
	return m.registry
}

// Push sends the current values to a Pushgateway. The crawler is a short
// lived job, so this is how its counters reach Prometheus.
func (m *Manager) Push(ctx context.Context, gatewayURL, job string) error {
	if m == nil || gatewayURL == "" {
		return nil
	}
	return push.New(gatewayURL, job).Gatherer(m.registry).PushContext(ctx)
}
