package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "sealevel"

// Metrics holds the Prometheus gauges, counters, and histograms for a report run.
type Metrics struct {
	ObservationsLoaded prometheus.Gauge
	ObservationGaps    prometheus.Gauge

	// Fit results.
	FitPhi          prometheus.Gauge
	TrendRateMM     *prometheus.GaugeVec // labels: method={gls_ar1,ols}
	TrendCI95MM     *prometheus.GaugeVec // labels: method={gls_ar1,ols}
	ChartsRendered  prometheus.Counter
	Errors          *prometheus.CounterVec   // labels: kind={data_format,fit_convergence,render,unknown}
	StageDuration   *prometheus.HistogramVec // labels: stage={load,fit,render}
	LastSuccessTime prometheus.Gauge
}

var stageBuckets = []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5}

// NewMetrics creates and registers all report metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	return NewMetricsWith(prometheus.DefaultRegisterer)
}

// NewMetricsWith creates all report metrics and registers them with reg.
func NewMetricsWith(reg prometheus.Registerer) *Metrics {
	m := NewMetricsForTesting()
	reg.MustRegister(
		m.ObservationsLoaded,
		m.ObservationGaps,
		m.FitPhi,
		m.TrendRateMM,
		m.TrendCI95MM,
		m.ChartsRendered,
		m.Errors,
		m.StageDuration,
		m.LastSuccessTime,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		ObservationsLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "observations_loaded",
			Help:      "Monthly observations read from the input file.",
		}),
		ObservationGaps: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "observation_gaps",
			Help:      "Calendar months missing between the first and last observation.",
		}),
		FitPhi: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "fit_phi",
			Help:      "Estimated lag-1 autocorrelation of the GLS residuals.",
		}),
		TrendRateMM: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "trend_rate_mm_per_year",
			Help:      "Estimated rate of relative sea level change.",
		}, []string{"method"}),
		TrendCI95MM: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "trend_ci95_mm_per_year",
			Help:      "Half-width of the 95% confidence interval of the rate.",
		}, []string{"method"}),
		ChartsRendered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "charts_rendered_total",
			Help:      "Image files written.",
		}),
		Errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "Failed runs by error kind.",
		}, []string{"kind"}),
		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of each pipeline stage.",
			Buckets:   stageBuckets,
		}, []string{"stage"}),
		LastSuccessTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last run that completed without error.",
		}),
	}
}
