package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "civicdata"

// Metrics holds the Prometheus counters, histograms, and gauges for the
// extractors, the geocoder and the snapshot publisher.
type Metrics struct {
	// Parking extraction metrics.
	ScrapeRequests      *prometheus.CounterVec // labels: area, outcome={success,fetch_error,parse_error}
	RowsExtracted       *prometheus.CounterVec // labels: result={accepted,rejected,fallback}
	FallbackScans       prometheus.Counter
	AggregationDuration prometheus.Histogram

	// News metrics.
	FeedFetches            *prometheus.CounterVec // labels: feed, outcome={success,error,empty}
	NewsFallbacks          prometheus.Counter
	NewsValidationFailures prometheus.Counter

	// Geocoding metrics.
	GeocodeRequests    *prometheus.CounterVec // labels: outcome={success,error,empty}
	GeocodeCache       *prometheus.CounterVec // labels: result={hit,miss}
	GeocodeAPIDuration prometheus.Histogram
	GeocodeEnabled     prometheus.Gauge

	// Snapshot publisher metrics.
	SnapshotsPublished prometheus.Counter
	LotsPublished      prometheus.Counter
	PublishErrors      prometheus.Counter
	PublisherRunning   prometheus.Gauge
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics(true)

	prometheus.MustRegister(
		m.ScrapeRequests,
		m.RowsExtracted,
		m.FallbackScans,
		m.AggregationDuration,
		m.FeedFetches,
		m.NewsFallbacks,
		m.NewsValidationFailures,
		m.GeocodeRequests,
		m.GeocodeCache,
		m.GeocodeAPIDuration,
		m.GeocodeEnabled,
		m.SnapshotsPublished,
		m.LotsPublished,
		m.PublishErrors,
		m.PublisherRunning,
	)

	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics(false)
}

func newMetrics(withHelp bool) *Metrics {
	help := func(s string) string {
		if withHelp {
			return s
		}
		return ""
	}

	return &Metrics{
		ScrapeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scrape_requests_total",
			Help:      help("Parking listing page scrapes by area and outcome."),
		}, []string{"area", "outcome"}),
		RowsExtracted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_extracted_total",
			Help:      help("Candidate listing rows by extraction result."),
		}, []string{"result"}),
		FallbackScans: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fallback_scans_total",
			Help:      help("Listing pages that needed the anchor fallback scan."),
		}),
		AggregationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "parking_aggregation_duration_seconds",
			Help:      help("Duration of a full all-area parking aggregation."),
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		FeedFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feed_fetches_total",
			Help:      help("News feed fetches by feed key and outcome."),
		}, []string{"feed", "outcome"}),
		NewsFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "news_fallbacks_total",
			Help:      help("News requests served from the static fallback document."),
		}),
		NewsValidationFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "news_validation_failures_total",
			Help:      help("Merged live news responses that failed validation."),
		}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_requests_total",
			Help:      help("Forward geocoding API requests by outcome."),
		}, []string{"outcome"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_cache_total",
			Help:      help("Geocoding cache lookups by result."),
		}, []string{"result"}),
		GeocodeAPIDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "geocode_api_duration_seconds",
			Help:      help("Mapbox API request duration in seconds."),
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		GeocodeEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "geocode_enabled",
			Help:      help("1 when forward geocoding is enabled, 0 otherwise."),
		}),
		SnapshotsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshots_published_total",
			Help:      help("Parking snapshots written to Kafka."),
		}),
		LotsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lots_published_total",
			Help:      help("Parking lot messages written to Kafka."),
		}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_errors_total",
			Help:      help("Failed snapshot collections or writes."),
		}),
		PublisherRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "publisher_running",
			Help:      help("1 when the snapshot publisher is active, 0 when shut down."),
		}),
	}
}
