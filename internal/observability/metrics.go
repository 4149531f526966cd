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
	// Panel metrics
	RowsIngested   prometheus.Counter
	RowsNormalized prometheus.Counter

	// Transform metrics
	GroupsProcessed        prometheus.Counter
	FeatureColumnsComputed prometheus.Gauge

	// Cleaning metrics
	ValuesImputed      prometheus.Counter
	UndefinedRemaining prometheus.Gauge

	// Pipeline metrics
	StageDuration     *prometheus.HistogramVec
	PipelineRunsTotal *prometheus.CounterVec

	// Persistence metrics
	FeatureValuesStored prometheus.Counter
	StoreErrors         *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "crypto_feature_lab"
	}

	return &Metrics{
		RowsIngested: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "panel",
			Name:      "rows_ingested_total",
			Help:      "Total number of raw panel rows ingested",
		}),
		RowsNormalized: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "panel",
			Name:      "rows_normalized_total",
			Help:      "Total number of panel rows after schema normalization",
		}),
		GroupsProcessed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "transform",
			Name:      "groups_processed_total",
			Help:      "Total number of entity groups processed by the transform engine",
		}),
		FeatureColumnsComputed: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "transform",
			Name:      "feature_columns",
			Help:      "Number of feature columns produced by the catalog",
		}),
		ValuesImputed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cleaning",
			Name:      "values_imputed_total",
			Help:      "Total number of undefined values filled by the imputer",
		}),
		UndefinedRemaining: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "cleaning",
			Name:      "undefined_remaining",
			Help:      "Undefined feature entries remaining after imputation",
		}),
		StageDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "stage_duration_seconds",
			Help:      "Duration of each pipeline stage",
			Buckets:   prometheus.DefBuckets,
		}, []string{"stage"}),
		PipelineRunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "runs_total",
			Help:      "Total pipeline runs by status",
		}, []string{"status"}),
		FeatureValuesStored: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "storage",
			Name:      "feature_values_stored_total",
			Help:      "Total feature observations written to the feature store",
		}),
		StoreErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "storage",
			Name:      "errors_total",
			Help:      "Storage errors by backend",
		}, []string{"backend"}),
	}
}

// Handler returns an HTTP handler exposing the metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
