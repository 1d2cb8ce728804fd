package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "newsmap"

// Metrics holds the Prometheus counters, histograms, and gauges for the news pipeline.
type Metrics struct {
	// Ingestion metrics.
	SourceFetches *prometheus.CounterVec   // labels: source, outcome={success,error}
	SourceItems   *prometheus.HistogramVec // labels: source
	ItemsIngested prometheus.Counter
	ItemsRejected *prometheus.CounterVec // labels: reason={no_category,no_location,no_coordinates}

	// Run metrics.
	PipelineRuns        *prometheus.CounterVec // labels: outcome={success,error}
	PipelineRunDuration prometheus.Histogram
	ArticlesPublished   prometheus.Gauge
	ResultCache         *prometheus.CounterVec // labels: result={hit,miss}

	// Geocoding metrics.
	GeocodeRequests    *prometheus.CounterVec // labels: outcome={success,error,empty,invalid}
	GeocodeCache       *prometheus.CounterVec // labels: result={hit,miss}
	GeocodeAPIDuration prometheus.Histogram

	// Sink metrics.
	SinkPublishes *prometheus.CounterVec // labels: outcome={success,error}
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.SourceFetches,
		m.SourceItems,
		m.ItemsIngested,
		m.ItemsRejected,
		m.PipelineRuns,
		m.PipelineRunDuration,
		m.ArticlesPublished,
		m.ResultCache,
		m.GeocodeRequests,
		m.GeocodeCache,
		m.GeocodeAPIDuration,
		m.SinkPublishes,
	)
	return m
}

// NewUnregisteredMetrics creates Metrics that are never exported, for one-shot
// commands that serve no /metrics endpoint.
func NewUnregisteredMetrics() *Metrics {
	return newMetrics()
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		SourceFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_fetch_total",
			Help:      "Source adapter fetches by source and outcome.",
		}, []string{"source", "outcome"}),
		SourceItems: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "source_items",
			Help:      "Number of raw items returned per source fetch.",
			Buckets:   []float64{0, 5, 10, 25, 50, 100, 200, 400},
		}, []string{"source"}),
		ItemsIngested: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "items_ingested_total",
			Help:      "Raw items that survived merge, validation, and capping.",
		}),
		ItemsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "items_rejected_total",
			Help:      "Raw items dropped during enrichment by reason.",
		}, []string{"reason"}),
		PipelineRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pipeline_runs_total",
			Help:      "Pipeline builds by outcome.",
		}, []string{"outcome"}),
		PipelineRunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pipeline_run_duration_seconds",
			Help:      "Duration of a complete ingest-enrich-finalize build.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600},
		}),
		ArticlesPublished: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "articles_published",
			Help:      "Number of articles in the current cached payload.",
		}),
		ResultCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "result_cache_total",
			Help:      "Result cache lookups by result.",
		}, []string{"result"}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_requests_total",
			Help:      "Geocoding provider requests by outcome.",
		}, []string{"outcome"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_cache_total",
			Help:      "Geocoding cache lookups by result.",
		}, []string{"result"}),
		GeocodeAPIDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "geocode_api_duration_seconds",
			Help:      "Geocoding provider request duration in seconds, excluding rate-limit waits.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		SinkPublishes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sink_publish_total",
			Help:      "Payload publishes to the optional sink by outcome.",
		}, []string{"outcome"}),
	}
}
