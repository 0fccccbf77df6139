package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// correlation pipeline.
type Metrics struct {
	ItemsConsumed        prometheus.Counter
	DecodeErrors         prometheus.Counter
	DuplicatesSuppressed prometheus.Counter
	EventsPersisted      prometheus.Counter
	PipelineRunning      prometheus.Gauge

	// Batch processing metrics.
	BatchSize               prometheus.Histogram
	BatchProcessingDuration prometheus.Histogram

	// Geocoding metrics.
	GeocodeRequests    *prometheus.CounterVec // labels: outcome={success,error,empty}
	GeocodeCache       *prometheus.CounterVec // labels: result={hit,miss}
	GeocodeAPIDuration prometheus.Histogram
	GeocodeEnabled     prometheus.Gauge

	// Flagging metrics.
	FlagPasses       prometheus.Counter
	FlaggedZones     prometheus.Gauge
	RecentZones      prometheus.Gauge
	FlagPassDuration prometheus.Histogram
}

// NewMetrics creates and registers all pipeline metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()

	prometheus.MustRegister(
		m.ItemsConsumed,
		m.DecodeErrors,
		m.DuplicatesSuppressed,
		m.EventsPersisted,
		m.PipelineRunning,
		m.BatchSize,
		m.BatchProcessingDuration,
		m.GeocodeRequests,
		m.GeocodeCache,
		m.GeocodeAPIDuration,
		m.GeocodeEnabled,
		m.FlagPasses,
		m.FlaggedZones,
		m.RecentZones,
		m.FlagPassDuration,
	)

	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		ItemsConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "radar",
			Name:      "items_consumed_total",
			Help:      "Total raw items read from the source topic.",
		}),
		DecodeErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "radar",
			Name:      "decode_errors_total",
			Help:      "Total malformed source messages skipped.",
		}),
		DuplicatesSuppressed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "radar",
			Name:      "duplicates_suppressed_total",
			Help:      "Total reports dropped as near-duplicates within the dedup window.",
		}),
		EventsPersisted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "radar",
			Name:      "events_persisted_total",
			Help:      "Total events written to the store.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "radar",
			Name:      "pipeline_running",
			Help:      "1 when the pipeline is active, 0 when shut down.",
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "radar",
			Name:      "batch_size",
			Help:      "Number of raw items per extracted batch.",
			Buckets:   []float64{1, 5, 10, 20, 30, 40, 50, 75, 100},
		}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "radar",
			Name:      "batch_processing_duration_seconds",
			Help:      "Duration of a complete batch ingest cycle.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "radar",
			Name:      "geocode_requests_total",
			Help:      "External geocoding requests by outcome.",
		}, []string{"outcome"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "radar",
			Name:      "geocode_cache_total",
			Help:      "Geocode cache lookups by result.",
		}, []string{"result"}),
		GeocodeAPIDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "radar",
			Name:      "geocode_api_duration_seconds",
			Help:      "External geocoding request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		GeocodeEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "radar",
			Name:      "geocode_enabled",
			Help:      "1 when geocoding is enabled, 0 otherwise.",
		}),
		FlagPasses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "radar",
			Name:      "flag_passes_total",
			Help:      "Total completed flagging passes.",
		}),
		FlaggedZones: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "radar",
			Name:      "flagged_zones",
			Help:      "Flagged zones emitted by the most recent pass.",
		}),
		RecentZones: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "radar",
			Name:      "recent_flagged_zones",
			Help:      "Flagged zones in the last-7-days artifact of the most recent pass.",
		}),
		FlagPassDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "radar",
			Name:      "flag_pass_duration_seconds",
			Help:      "Duration of a flagging pass including the store snapshot.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
	}
}
