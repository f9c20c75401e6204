// Package telemetry provides Prometheus metrics and OpenTelemetry tracing
// for the policy engine, adapted from the teacher's
// internal/adapter/inbound/http/metrics.go: same promauto-registered
// CounterVec/HistogramVec/Gauge shape, renamed to the engine's own
// namespace and label set.
package telemetry

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the policy engine. Pass to
// components that need to record metrics; nil-safe helper methods let
// callers skip a nil check at every call site.
type Metrics struct {
	EvaluationsTotal    *prometheus.CounterVec
	EvaluationDuration  *prometheus.HistogramVec
	CompileDuration     prometheus.Histogram
	CompiledCacheHits   prometheus.Counter
	CompiledCacheMisses prometheus.Counter
	FactsCacheHits      *prometheus.CounterVec
	FactsCacheMisses    *prometheus.CounterVec
	DecisionLogDrops    prometheus.Counter
	ActiveSubscribers   prometheus.Gauge

	// otelEvaluations mirrors EvaluationsTotal on a push-based OTel
	// meter, for deployments that scrape metrics through an OTel
	// collector rather than Prometheus's pull model. Optional.
	otelEvaluations *EvaluationCounter
}

// SetOTelEvaluationCounter attaches an OTel counter instrument so
// ObserveEvaluation records to both Prometheus and OTel. Pass nil to
// detach.
func (m *Metrics) SetOTelEvaluationCounter(c *EvaluationCounter) {
	if m == nil {
		return
	}
	m.otelEvaluations = c
}

// NewMetrics creates and registers all metrics with the given registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		EvaluationsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "policymesh",
				Name:      "evaluations_total",
				Help:      "Total policy evaluations processed",
			},
			[]string{"effect"}, // effect=allow/deny
		),
		EvaluationDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "policymesh",
				Name:      "evaluation_duration_seconds",
				Help:      "Decision evaluation duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"effect"},
		),
		CompileDuration: promauto.With(reg).NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "policymesh",
				Name:      "compile_duration_seconds",
				Help:      "Policy compilation duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
		),
		CompiledCacheHits: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Namespace: "policymesh",
				Name:      "compiled_cache_hits_total",
				Help:      "Total compiled-policy cache hits",
			},
		),
		CompiledCacheMisses: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Namespace: "policymesh",
				Name:      "compiled_cache_misses_total",
				Help:      "Total compiled-policy cache misses requiring recompilation",
			},
		),
		FactsCacheHits: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "policymesh",
				Name:      "facts_cache_hits_total",
				Help:      "Total facts-provider cache hits",
			},
			[]string{"kind"}, // kind=subject/resource
		),
		FactsCacheMisses: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "policymesh",
				Name:      "facts_cache_misses_total",
				Help:      "Total facts-provider cache misses",
			},
			[]string{"kind"},
		),
		DecisionLogDrops: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Namespace: "policymesh",
				Name:      "decision_log_drops_total",
				Help:      "Total decision log entries dropped due to backpressure",
			},
		),
		ActiveSubscribers: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Namespace: "policymesh",
				Name:      "active_subscribers",
				Help:      "Number of active hot-reload invalidation subscribers",
			},
		),
	}
}

// ObserveEvaluation records an evaluation outcome and its duration.
func (m *Metrics) ObserveEvaluation(effect string, seconds float64) {
	if m == nil {
		return
	}
	m.EvaluationsTotal.WithLabelValues(effect).Inc()
	m.EvaluationDuration.WithLabelValues(effect).Observe(seconds)
	m.otelEvaluations.Add(context.Background(), effect)
}

// ObserveCompile records a policy compilation's duration.
func (m *Metrics) ObserveCompile(seconds float64) {
	if m == nil {
		return
	}
	m.CompileDuration.Observe(seconds)
}

// RecordCompiledCacheHit increments the compiled-policy cache hit counter.
func (m *Metrics) RecordCompiledCacheHit() {
	if m == nil {
		return
	}
	m.CompiledCacheHits.Inc()
}

// RecordCompiledCacheMiss increments the compiled-policy cache miss counter.
func (m *Metrics) RecordCompiledCacheMiss() {
	if m == nil {
		return
	}
	m.CompiledCacheMisses.Inc()
}

// RecordFactsCacheHit increments the facts cache hit counter for kind
// ("subject" or "resource").
func (m *Metrics) RecordFactsCacheHit(kind string) {
	if m == nil {
		return
	}
	m.FactsCacheHits.WithLabelValues(kind).Inc()
}

// RecordFactsCacheMiss increments the facts cache miss counter for kind.
func (m *Metrics) RecordFactsCacheMiss(kind string) {
	if m == nil {
		return
	}
	m.FactsCacheMisses.WithLabelValues(kind).Inc()
}

// RecordDecisionLogDrop increments the decision-log backpressure drop counter.
func (m *Metrics) RecordDecisionLogDrop() {
	if m == nil {
		return
	}
	m.DecisionLogDrops.Inc()
}

// SetActiveSubscribers sets the current hot-reload subscriber count.
func (m *Metrics) SetActiveSubscribers(n int) {
	if m == nil {
		return
	}
	m.ActiveSubscribers.Set(float64(n))
}
