package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors for the aggregation pipeline.
type Metrics struct {
	AdapterOutcomes *prometheus.CounterVec   // labels: provider, class={ok,network,parse,panic}
	FetchDuration   *prometheus.HistogramVec // labels: provider
	UnmappedNames   *prometheus.CounterVec   // labels: provider

	Runs             *prometheus.CounterVec // labels: result={ok,failed}
	StorageFailures  prometheus.Counter
	PublishFailures  prometheus.Counter
	LastSuccessCount prometheus.Gauge
	LastTotalCount   prometheus.Gauge
	LastRunTimestamp prometheus.Gauge
	RunDuration      prometheus.Histogram
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates Metrics that are not registered anywhere, so
// tests can build as many as they like.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		AdapterOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ski_conditions",
			Name:      "adapter_outcomes_total",
			Help:      "Provider fetches by provider and classification.",
		}, []string{"provider", "class"}),
		FetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "ski_conditions",
			Name:      "fetch_duration_seconds",
			Help:      "Time from launch to settle for each provider.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15, 30},
		}, []string{"provider"}),
		UnmappedNames: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ski_conditions",
			Name:      "unmapped_names_total",
			Help:      "Records dropped because their name has no canonical mapping.",
		}, []string{"provider"}),
		Runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ski_conditions",
			Name:      "runs_total",
			Help:      "Pipeline runs by result.",
		}, []string{"result"}),
		StorageFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ski_conditions",
			Name:      "storage_failures_total",
			Help:      "Snapshots that could not be persisted.",
		}),
		PublishFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ski_conditions",
			Name:      "publish_failures_total",
			Help:      "Snapshots that could not be published.",
		}),
		LastSuccessCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "ski_conditions",
			Name:      "last_success_count",
			Help:      "successCount of the most recent run.",
		}),
		LastTotalCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "ski_conditions",
			Name:      "last_total_count",
			Help:      "totalCount of the most recent run.",
		}),
		LastRunTimestamp: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "ski_conditions",
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the most recent successful run began.",
		}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "ski_conditions",
			Name:      "run_duration_seconds",
			Help:      "Duration of a complete trigger, including persistence.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 15, 30, 60},
		}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.AdapterOutcomes,
		m.FetchDuration,
		m.UnmappedNames,
		m.Runs,
		m.StorageFailures,
		m.PublishFailures,
		m.LastSuccessCount,
		m.LastTotalCount,
		m.LastRunTimestamp,
		m.RunDuration,
	}
}
