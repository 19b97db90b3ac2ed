package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"

	"github.com/nordvik/treasury-go/internal/domain"
)

// Metrics holds all Prometheus metrics for the treasury service.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	requestDuration  *prometheus.HistogramVec
	storeErrors      *prometheus.CounterVec
	cacheHits        *prometheus.CounterVec
	cacheMisses      *prometheus.CounterVec
	generated        *prometheus.CounterVec
	skipped          *prometheus.CounterVec
	generationErrors *prometheus.CounterVec
	generationRuns   *prometheus.CounterVec
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. Using a private registry avoids "duplicate
// collector" panics when NewMetrics is called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "treasury_request_duration_seconds",
				Help:    "Duration of requests by operation.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		storeErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "treasury_store_errors_total",
				Help: "Total errors from the document store.",
			},
			[]string{"service"},
		),
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "treasury_cache_hits_total",
				Help: "Total cache hits.",
			},
			[]string{"cache"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "treasury_cache_misses_total",
				Help: "Total cache misses.",
			},
			[]string{"cache"},
		),
		generated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "treasury_recurrence_generated_total",
				Help: "Transactions materialized from recurrence templates.",
			},
			[]string{"trigger"},
		),
		skipped: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "treasury_recurrence_skipped_total",
				Help: "Candidate occurrence dates skipped as already covered.",
			},
			[]string{"trigger"},
		),
		generationErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "treasury_generation_errors_total",
				Help: "Per-template failures during generation runs.",
			},
			[]string{"reason"},
		),
		generationRuns: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "treasury_generation_runs_total",
				Help: "Regeneration runs by trigger.",
			},
			[]string{"trigger"},
		),
	}
}

// RecordRequestDuration records the duration of an operation.
func (m *Metrics) RecordRequestDuration(operation string, d time.Duration) {
	m.requestDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// IncrStoreError increments the store error counter.
func (m *Metrics) IncrStoreError(service string) {
	m.storeErrors.WithLabelValues(service).Inc()
}

// IncrCacheHit increments the cache hit counter.
func (m *Metrics) IncrCacheHit(cache string) {
	m.cacheHits.WithLabelValues(cache).Inc()
}

// IncrCacheMiss increments the cache miss counter.
func (m *Metrics) IncrCacheMiss(cache string) {
	m.cacheMisses.WithLabelValues(cache).Inc()
}

// RecordGeneration records the outcome of one template generation pass.
func (m *Metrics) RecordGeneration(trigger string, generated, skipped int) {
	m.generated.WithLabelValues(trigger).Add(float64(generated))
	m.skipped.WithLabelValues(trigger).Add(float64(skipped))
}

// IncrGenerationError increments the per-template failure counter.
func (m *Metrics) IncrGenerationError(reason string) {
	m.generationErrors.WithLabelValues(reason).Inc()
}

// IncrGenerationRun counts one regeneration run.
func (m *Metrics) IncrGenerationRun(trigger string) {
	m.generationRuns.WithLabelValues(trigger).Inc()
}

// GetGenerationSnapshot returns cumulative generation counters for the
// GET /v1/metrics/generation endpoint.
func (m *Metrics) GetGenerationSnapshot() *domain.GenerationMetrics {
	triggers := []string{"cron", "api", "create"}

	var generated, skipped, runs float64
	for _, tr := range triggers {
		generated += getCounterValue(m.generated, tr)
		skipped += getCounterValue(m.skipped, tr)
		runs += getCounterValue(m.generationRuns, tr)
	}
	errCount := getCounterValue(m.generationErrors, "malformed_template") +
		getCounterValue(m.generationErrors, "store")

	errorRate := float64(0)
	if runs > 0 {
		errorRate = errCount / runs
	}

	return &domain.GenerationMetrics{
		TotalRuns:      int64(runs),
		TotalGenerated: int64(generated),
		TotalSkipped:   int64(skipped),
		TotalErrors:    int64(errCount),
		ErrorRate:      errorRate,
		Period:         "all_time",
	}
}

// getCounterValue extracts the current float64 value from a CounterVec for a given label.
func getCounterValue(cv *prometheus.CounterVec, label string) float64 {
	counter := cv.WithLabelValues(label)
	m := &dto.Metric{}
	if err := counter.(prometheus.Metric).Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}
