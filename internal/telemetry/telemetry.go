// internal/telemetry/telemetry.go
// Package telemetry records fetch-round and API request metrics with prometheus.
package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns its own registry so tests and multiple servers do not collide.
// A nil *Metrics ignores every observation.
type Metrics struct {
	registry *prometheus.Registry

	modelOutcomes *prometheus.CounterVec
	roundDuration *prometheus.HistogramVec
	roundModels   *prometheus.GaugeVec
	staleRounds   *prometheus.CounterVec
	requests      *prometheus.CounterVec
	requestTime   *prometheus.HistogramVec
}

// New registers the gridcast collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		modelOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gridcast",
			Name:      "model_fetch_total",
			Help:      "Model fetch pairs by granularity and outcome.",
		}, []string{"granularity", "model", "outcome"}),
		roundDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "gridcast",
			Name:      "round_duration_seconds",
			Help:      "Time to fetch and join every model for a granularity.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"granularity"}),
		roundModels: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "gridcast",
			Name:      "round_models",
			Help:      "Models included by the latest round.",
		}, []string{"granularity"}),
		staleRounds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gridcast",
			Name:      "stale_rounds_total",
			Help:      "Rounds discarded because a newer granularity was selected.",
		}, []string{"granularity"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gridcast",
			Name:      "http_requests_total",
			Help:      "Outputs API requests by route and status.",
		}, []string{"method", "route", "status"}),
		requestTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "gridcast",
			Name:      "http_request_duration_seconds",
			Help:      "Outputs API request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
	m.registry.MustRegister(m.modelOutcomes, m.roundDuration, m.roundModels, m.staleRounds, m.requests, m.requestTime)
	return m
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveModel counts one model's inclusion or exclusion.
func (m *Metrics) ObserveModel(code, model string, included bool) {
	if m == nil {
		return
	}
	outcome := "excluded"
	if included {
		outcome = "included"
	}
	m.modelOutcomes.WithLabelValues(code, model, outcome).Inc()
}

// ObserveRound records a completed round.
func (m *Metrics) ObserveRound(code string, d time.Duration, included int) {
	if m == nil {
		return
	}
	m.roundDuration.WithLabelValues(code).Observe(d.Seconds())
	m.roundModels.WithLabelValues(code).Set(float64(included))
}

// StaleRound counts a discarded round.
func (m *Metrics) StaleRound(code string) {
	if m == nil {
		return
	}
	m.staleRounds.WithLabelValues(code).Inc()
}

// ObserveRequest records one served HTTP request.
func (m *Metrics) ObserveRequest(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.requestTime.WithLabelValues(method, route).Observe(d.Seconds())
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
