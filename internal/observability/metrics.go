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
	// Intake metrics
	RawObservationsRead prometheus.Counter
	RecordsResolved     prometheus.Counter
	RecordsUnresolved   prometheus.Counter
	UnitWarnings        *prometheus.CounterVec

	// Silver metrics
	SilverRecordsStored prometheus.Counter
	PricePointsStored   prometheus.Counter
	RecordsImputed      prometheus.Counter
	GapDaysSkipped      prometheus.Counter
	QualityFlags        *prometheus.CounterVec

	// Gold metrics
	GoldRowsStored prometheus.Counter
	NullLabels     prometheus.Counter

	// Pipeline metrics
	PipelineRunsTotal *prometheus.CounterVec
	PipelineDuration  *prometheus.HistogramVec
	MarketsSkipped    prometheus.Counter
	MarketsFailed     prometheus.Counter

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// Health metrics
	LastSuccessfulRun prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "mandi_feature_lab"
	}

	return &Metrics{
		// Intake metrics
		RawObservationsRead: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "intake",
			Name:      "raw_observations_read_total",
			Help:      "Total number of raw observations read from bronze storage",
		}),
		RecordsResolved: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "intake",
			Name:      "records_resolved_total",
			Help:      "Total number of observations resolved to a market",
		}),
		RecordsUnresolved: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "intake",
			Name:      "records_unresolved_total",
			Help:      "Total number of observations quarantined without a market match",
		}),
		UnitWarnings: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "intake",
			Name:      "unit_warnings_total",
			Help:      "Total number of unit normalization warnings by variable",
		}, []string{"variable"}),

		// Silver metrics
		SilverRecordsStored: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "silver",
			Name:      "records_stored_total",
			Help:      "Total number of canonical weather records stored",
		}),
		PricePointsStored: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "silver",
			Name:      "price_points_stored_total",
			Help:      "Total number of canonical price points stored",
		}),
		RecordsImputed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "silver",
			Name:      "records_imputed_total",
			Help:      "Total number of records created by gap interpolation",
		}),
		GapDaysSkipped: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "silver",
			Name:      "gap_days_skipped_total",
			Help:      "Total number of missing days left unfilled because the gap exceeded the limit",
		}),
		QualityFlags: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "silver",
			Name:      "quality_flags_total",
			Help:      "Total number of silver records by quality flag",
		}, []string{"flag"}),

		// Gold metrics
		GoldRowsStored: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "gold",
			Name:      "rows_stored_total",
			Help:      "Total number of feature rows stored",
		}),
		NullLabels: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "gold",
			Name:      "null_labels_total",
			Help:      "Total number of feature rows emitted without a label",
		}),

		// Pipeline metrics
		PipelineRunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "runs_total",
			Help:      "Total number of pipeline runs by status",
		}, []string{"phase", "status"}),
		PipelineDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "duration_seconds",
			Help:      "Pipeline execution duration in seconds",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
		}, []string{"phase"}),
		MarketsSkipped: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "markets_skipped_total",
			Help:      "Total number of markets skipped as already built",
		}),
		MarketsFailed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "markets_failed_total",
			Help:      "Total number of markets aborted by an error",
		}),

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
		LastSuccessfulRun: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_run_timestamp",
			Help:      "Unix timestamp of the last successful pipeline run",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordResolved increments the resolved observations counter.
func RecordResolved() {
	DefaultMetrics.RecordsResolved.Inc()
}

// RecordUnresolved increments the quarantine counter.
func RecordUnresolved() {
	DefaultMetrics.RecordsUnresolved.Inc()
}

// RecordUnitWarning records a normalization warning for a variable.
func RecordUnitWarning(variable string) {
	DefaultMetrics.UnitWarnings.WithLabelValues(variable).Inc()
}

// RecordQualityFlag counts a stored silver record by flag.
func RecordQualityFlag(flag string) {
	DefaultMetrics.QualityFlags.WithLabelValues(flag).Inc()
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}

// RecordPipelineRun records a pipeline run.
func RecordPipelineRun(phase, status string, durationSeconds float64) {
	DefaultMetrics.PipelineRunsTotal.WithLabelValues(phase, status).Inc()
	DefaultMetrics.PipelineDuration.WithLabelValues(phase).Observe(durationSeconds)
}
