package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// analytics service.
type Metrics struct {
	RowsLoaded      prometheus.Gauge
	ReportsBuilt    prometheus.Counter
	EstimatorErrors prometheus.Counter

	// Build timing metrics.
	ReportBuildDuration prometheus.Histogram
	ModelFitDuration    prometheus.Histogram

	// Report cache metrics.
	CacheLookups *prometheus.CounterVec // labels: result={hit,miss}
}

// NewMetrics creates and registers all service metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		RowsLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "dengue_analytics",
			Name:      "rows_loaded",
			Help:      "Feature rows currently loaded from the source table.",
		}),
		ReportsBuilt: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "dengue_analytics",
			Name:      "reports_built_total",
			Help:      "Total report bundles assembled.",
		}),
		EstimatorErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "dengue_analytics",
			Name:      "estimator_errors_total",
			Help:      "Total influence-estimation failures.",
		}),
		ReportBuildDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "dengue_analytics",
			Name:      "report_build_duration_seconds",
			Help:      "Duration of a complete bundle build including the model fit.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		ModelFitDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "dengue_analytics",
			Name:      "model_fit_duration_seconds",
			Help:      "Duration of the regression fit within a bundle build.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dengue_analytics",
			Name:      "report_cache_lookups_total",
			Help:      "Report cache lookups by result.",
		}, []string{"result"}),
	}

	prometheus.MustRegister(
		m.RowsLoaded,
		m.ReportsBuilt,
		m.EstimatorErrors,
		m.ReportBuildDuration,
		m.ModelFitDuration,
		m.CacheLookups,
	)

	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		RowsLoaded:          prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "dengue_analytics", Name: "rows_loaded"}),
		ReportsBuilt:        prometheus.NewCounter(prometheus.CounterOpts{Namespace: "dengue_analytics", Name: "reports_built_total"}),
		EstimatorErrors:     prometheus.NewCounter(prometheus.CounterOpts{Namespace: "dengue_analytics", Name: "estimator_errors_total"}),
		ReportBuildDuration: prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "dengue_analytics", Name: "report_build_duration_seconds"}),
		ModelFitDuration:    prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "dengue_analytics", Name: "model_fit_duration_seconds"}),
		CacheLookups:        prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "dengue_analytics", Name: "report_cache_lookups_total"}, []string{"result"}),
	}
}
