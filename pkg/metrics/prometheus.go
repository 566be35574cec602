package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain repository.Metrics using Prometheus.
type Recorder struct {
	fetchesTotal  *prometheus.CounterVec
	fetchLatency  *prometheus.HistogramVec
	cacheHits     prometheus.Counter
	skipsTotal    prometheus.Counter
	alertsTotal   *prometheus.CounterVec
	errorsTotal   *prometheus.CounterVec
	cycleDuration prometheus.Histogram
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		fetchesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "swarm_provider_fetches_total",
				Help: "Total provider fetch attempts by provider and outcome",
			},
			[]string{"provider", "outcome"},
		),
		fetchLatency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "swarm_provider_fetch_duration_seconds",
				Help:    "Duration of provider fetches in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"provider"},
		),
		cacheHits: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "swarm_cache_hits_total",
				Help: "Entity resolutions served from the cache store",
			},
		),
		skipsTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "swarm_entities_skipped_total",
				Help: "Entities whose provider chain was exhausted in a cycle",
			},
		),
		alertsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "swarm_alerts_total",
				Help: "Alerts emitted by tier",
			},
			[]string{"tier"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "swarm_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		cycleDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "swarm_scan_cycle_duration_seconds",
				Help:    "Wall-clock duration of full scan cycles",
				Buckets: []float64{1, 5, 15, 30, 60, 120, 180, 300},
			},
		),
	}
}

// RecordFetch records one provider fetch attempt.
func (r *Recorder) RecordFetch(provider, outcome string, seconds float64) {
	r.fetchesTotal.WithLabelValues(provider, outcome).Inc()
	r.fetchLatency.WithLabelValues(provider).Observe(seconds)
}

// RecordCacheHit records a resolution served from cache.
func (r *Recorder) RecordCacheHit() {
	r.cacheHits.Inc()
}

// RecordSkip records an entity skipped after chain exhaustion.
func (r *Recorder) RecordSkip() {
	r.skipsTotal.Inc()
}

// RecordAlert records an emitted alert.
func (r *Recorder) RecordAlert(tier string) {
	r.alertsTotal.WithLabelValues(tier).Inc()
}

// RecordCycle records a completed scan cycle.
func (r *Recorder) RecordCycle(seconds float64) {
	r.cycleDuration.Observe(seconds)
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}
