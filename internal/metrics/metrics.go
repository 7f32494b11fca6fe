// =============================================================================
// OBSERVABILITY WITH PROMETHEUS - OFFSET STORE METRICS
// =============================================================================
//
// WHAT IS THIS?
// Prometheus instrumentation for the offset store. The store does very
// few kinds of work, so the metric surface is deliberately small:
//
//   offsetstore_appends_total              appends submitted
//   offsetstore_append_failures_total      appends that failed
//   offsetstore_read_to_end_total          read-to-end rounds issued
//   offsetstore_read_to_end_duration_seconds  latency of those rounds
//   offsetstore_replayed_records_total     records applied to the cache
//   offsetstore_cache_keys                 distinct keys currently cached
//
// NAMING CONVENTIONS:
// {namespace}_{name}_{unit}, namespace "offsetstore", counters end in
// _total, durations in _seconds.
//
// The registry is instance-scoped rather than the client library's
// global default registry, so tests get full isolation.
//
// =============================================================================

package metrics

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "offsetstore"

// Registry holds all offset store metrics and the Prometheus registry
// backing them.
type Registry struct {
	promRegistry *prometheus.Registry
	logger       *slog.Logger

	Store *StoreMetrics
}

// NewRegistry creates a registry with all store metrics registered,
// plus the standard Go runtime and process collectors.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}

	r := &Registry{
		promRegistry: prometheus.NewRegistry(),
		logger:       logger.With("component", "metrics"),
	}

	r.promRegistry.MustRegister(collectors.NewGoCollector())
	r.promRegistry.MustRegister(collectors.NewProcessCollector(
		collectors.ProcessCollectorOpts{},
	))

	r.Store = newStoreMetrics(r.promRegistry)
	return r
}

// Handler returns the HTTP handler for the /metrics endpoint.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.promRegistry, promhttp.HandlerOpts{})
}

// PrometheusRegistry exposes the underlying registry for tests.
func (r *Registry) PrometheusRegistry() *prometheus.Registry {
	return r.promRegistry
}

// StoreMetrics contains all offset store metrics.
//
// A nil *StoreMetrics is valid: every method is a no-op. This lets the
// store run unobserved (library use, tests) without nil checks at every
// call site.
type StoreMetrics struct {
	appendsTotal        prometheus.Counter
	appendFailuresTotal prometheus.Counter
	readToEndTotal      prometheus.Counter
	readToEndDuration   prometheus.Histogram
	replayedTotal       prometheus.Counter
	cacheKeys           prometheus.Gauge
}

func newStoreMetrics(reg *prometheus.Registry) *StoreMetrics {
	m := &StoreMetrics{
		appendsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "appends_total",
			Help:      "Total record appends submitted to the backing log.",
		}),
		appendFailuresTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "append_failures_total",
			Help:      "Total record appends that failed.",
		}),
		readToEndTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "read_to_end_total",
			Help:      "Total read-to-end rounds issued against the backing log.",
		}),
		readToEndDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "read_to_end_duration_seconds",
			Help:      "Time spent waiting for read-to-end to catch up.",
			Buckets:   prometheus.DefBuckets,
		}),
		replayedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "replayed_records_total",
			Help:      "Total log records applied to the in-memory cache.",
		}),
		cacheKeys: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cache_keys",
			Help:      "Distinct keys currently held in the in-memory cache.",
		}),
	}

	reg.MustRegister(
		m.appendsTotal,
		m.appendFailuresTotal,
		m.readToEndTotal,
		m.readToEndDuration,
		m.replayedTotal,
		m.cacheKeys,
	)
	return m
}

// ObserveAppend records one submitted append and its outcome.
func (m *StoreMetrics) ObserveAppend(err error) {
	if m == nil {
		return
	}
	m.appendsTotal.Inc()
	if err != nil {
		m.appendFailuresTotal.Inc()
	}
}

// ObserveReadToEnd records one completed read-to-end round.
func (m *StoreMetrics) ObserveReadToEnd(seconds float64) {
	if m == nil {
		return
	}
	m.readToEndTotal.Inc()
	m.readToEndDuration.Observe(seconds)
}

// ObserveReplay records one log record applied to the cache.
func (m *StoreMetrics) ObserveReplay() {
	if m == nil {
		return
	}
	m.replayedTotal.Inc()
}

// SetCacheKeys reports the current number of cached keys.
func (m *StoreMetrics) SetCacheKeys(n int) {
	if m == nil {
		return
	}
	m.cacheKeys.Set(float64(n))
}
