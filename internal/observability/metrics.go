// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Ingestion metrics
	BarsIngested    *prometheus.CounterVec
	BarsRejected    *prometheus.CounterVec
	FeedReconnects  prometheus.Counter
	IngestBatchSize prometheus.Histogram

	// Filtering metrics
	FilterRunsTotal   prometheus.Counter
	FilterRowsIn      prometheus.Counter
	FilterRowsOut     prometheus.Counter
	FilterRunDuration prometheus.Histogram

	// Zone metrics
	ZoneDatesEvaluated prometheus.Counter
	ZoneDatesDropped   prometheus.Counter
	ZoneSpecOutcomes   *prometheus.CounterVec

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// Health metrics
	LastSuccessfulIngestion prometheus.Gauge
	LastSuccessfulRun       prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "intraday_almanac"
	}

	return &Metrics{
		// Ingestion metrics
		BarsIngested: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "bars_ingested_total",
			Help:      "Total number of bars written to storage",
		}, []string{"granularity"}),
		BarsRejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "bars_rejected_total",
			Help:      "Total number of bar batches rejected by reason",
		}, []string{"reason"}),
		FeedReconnects: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "feed_reconnects_total",
			Help:      "Total number of WebSocket feed reconnect attempts",
		}),
		IngestBatchSize: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "batch_size",
			Help:      "Number of bars per inserted batch",
			Buckets:   []float64{1, 10, 50, 100, 500, 1000, 5000},
		}),

		// Filtering metrics
		FilterRunsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "filtering",
			Name:      "runs_total",
			Help:      "Total number of filter pipeline runs",
		}),
		FilterRowsIn: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "filtering",
			Name:      "rows_in_total",
			Help:      "Total number of minute rows entering the pipeline",
		}),
		FilterRowsOut: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "filtering",
			Name:      "rows_out_total",
			Help:      "Total number of minute rows surviving the pipeline",
		}),
		FilterRunDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "filtering",
			Name:      "run_duration_seconds",
			Help:      "Filter pipeline run duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}),

		// Zone metrics
		ZoneDatesEvaluated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "zone",
			Name:      "dates_evaluated_total",
			Help:      "Total number of analysis dates evaluated by zone filters",
		}),
		ZoneDatesDropped: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "zone",
			Name:      "dates_dropped_total",
			Help:      "Total number of analysis dates dropped by zone filters",
		}),
		ZoneSpecOutcomes: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "zone",
			Name:      "spec_outcomes_total",
			Help:      "Per-spec outcome counts by result",
		}, []string{"spec", "result"}),

		// Database metrics
		DBQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),

		// Health metrics
		LastSuccessfulIngestion: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_ingestion_timestamp",
			Help:      "Unix timestamp of last successful bar ingestion",
		}),
		LastSuccessfulRun: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_run_timestamp",
			Help:      "Unix timestamp of last successful analysis run",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordBarsIngested increments the ingested-bar counter.
func RecordBarsIngested(granularity string, n int) {
	DefaultMetrics.BarsIngested.WithLabelValues(granularity).Add(float64(n))
	DefaultMetrics.IngestBatchSize.Observe(float64(n))
}

// RecordBatchRejected records a rejected insert batch.
func RecordBatchRejected(reason string) {
	DefaultMetrics.BarsRejected.WithLabelValues(reason).Inc()
}

// RecordFilterRun records one pipeline run.
func RecordFilterRun(rowsIn, rowsOut int, seconds float64) {
	DefaultMetrics.FilterRunsTotal.Inc()
	DefaultMetrics.FilterRowsIn.Add(float64(rowsIn))
	DefaultMetrics.FilterRowsOut.Add(float64(rowsOut))
	DefaultMetrics.FilterRunDuration.Observe(seconds)
}

// RecordZoneRun records one zone application run.
func RecordZoneRun(evaluated, accepted int) {
	DefaultMetrics.ZoneDatesEvaluated.Add(float64(evaluated))
	DefaultMetrics.ZoneDatesDropped.Add(float64(evaluated - accepted))
}

// RecordZoneOutcome records a per-spec pass/fail count.
func RecordZoneOutcome(spec, result string, n int) {
	DefaultMetrics.ZoneSpecOutcomes.WithLabelValues(spec, result).Add(float64(n))
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}
