package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "radar_composite"

// Metrics holds the Prometheus counters, histograms, and gauges for the compositor.
type Metrics struct {
	JobsConsumed    prometheus.Counter
	JobsProduced    prometheus.Counter
	JobErrors       prometheus.Counter
	PipelineRunning prometheus.Gauge

	// Batch processing metrics.
	BatchSize               prometheus.Histogram
	BatchProcessingDuration prometheus.Histogram

	// Generation metrics.
	InputsSkipped    *prometheus.CounterVec // labels: reason={not_found,io,not_polar,malfunc}
	Contributors     prometheus.Histogram
	GenerateDuration prometheus.Histogram
	GRAOutcomes      *prometheus.CounterVec // labels: outcome={applied,climatology,failed}

	// Object store metrics.
	ObjectStoreRequests *prometheus.CounterVec // labels: outcome={success,error,not_found}
	ObjectStoreCache    *prometheus.CounterVec // labels: result={hit,miss}
	ObjectStoreDuration prometheus.Histogram
}

// NewMetrics creates and registers all compositor metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics(true)

	prometheus.MustRegister(
		m.JobsConsumed,
		m.JobsProduced,
		m.JobErrors,
		m.PipelineRunning,
		m.BatchSize,
		m.BatchProcessingDuration,
		m.InputsSkipped,
		m.Contributors,
		m.GenerateDuration,
		m.GRAOutcomes,
		m.ObjectStoreRequests,
		m.ObjectStoreCache,
		m.ObjectStoreDuration,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
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
		JobsConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_consumed_total",
			Help:      help("Total composite jobs read from the source topic."),
		}),
		JobsProduced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_produced_total",
			Help:      help("Total product notifications written to the sink topic."),
		}),
		JobErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "job_errors_total",
			Help:      help("Total composite jobs that failed to generate."),
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      help("1 when the job pipeline is active, 0 when shut down."),
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_size",
			Help:      help("Number of jobs per batch extracted from Kafka."),
			Buckets:   []float64{1, 2, 5, 10, 20, 50},
		}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_processing_duration_seconds",
			Help:      help("Duration of a complete batch extract-generate-publish cycle."),
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
		InputsSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "inputs_skipped_total",
			Help:      help("Input objects dropped before compositing by reason."),
		}, []string{"reason"}),
		Contributors: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "contributors",
			Help:      help("Number of radar objects contributing to a composite."),
			Buckets:   []float64{0, 1, 2, 4, 8, 16, 32, 64},
		}),
		GenerateDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generate_duration_seconds",
			Help:      help("Duration of one composite generation."),
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		}),
		GRAOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gra_outcomes_total",
			Help:      help("GRA bias correction attempts by outcome."),
		}, []string{"outcome"}),
		ObjectStoreRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "object_store_requests_total",
			Help:      help("Object store requests by outcome."),
		}, []string{"outcome"}),
		ObjectStoreCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "object_store_cache_total",
			Help:      help("Object store cache lookups by result."),
		}, []string{"result"}),
		ObjectStoreDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "object_store_duration_seconds",
			Help:      help("Object store request duration in seconds."),
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
	}
}
