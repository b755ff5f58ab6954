package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "aoaws_etl"

// Metrics holds the Prometheus counters, histograms, and gauges for the
// observation pipeline.
type Metrics struct {
	Fetches         *prometheus.CounterVec // labels: outcome={success,error}
	FetchDuration   prometheus.Histogram
	RowsExtracted   prometheus.Gauge
	Observations    *prometheus.CounterVec // labels: station, outcome={ok,not_found,normalize_error}
	StationResolved *prometheus.GaugeVec   // labels: station
	LoadErrors      *prometheus.CounterVec // labels: sink
	PipelineRunning prometheus.Gauge
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	return newMetrics(prometheus.DefaultRegisterer)
}

// NewMetricsForTesting creates Metrics on a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics(prometheus.NewRegistry())
}

func newMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetches_total",
			Help:      "AOAWS page fetches by outcome.",
		}, []string{"outcome"}),
		FetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Duration of one AOAWS fetch including table extraction.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		RowsExtracted: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "rows_extracted",
			Help:      "Station rows found in the last fetched table.",
		}),
		Observations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "observations_total",
			Help:      "Per-station normalization results by outcome.",
		}, []string{"station", "outcome"}),
		StationResolved: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "station_resolved",
			Help:      "1 when the station was present in the last fetched table.",
		}, []string{"station"}),
		LoadErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "load_errors_total",
			Help:      "Observation sink failures by sink.",
		}, []string{"sink"}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      "1 when the poll loop is active, 0 when shut down.",
		}),
	}

	reg.MustRegister(
		m.Fetches,
		m.FetchDuration,
		m.RowsExtracted,
		m.Observations,
		m.StationResolved,
		m.LoadErrors,
		m.PipelineRunning,
	)

	return m
}
