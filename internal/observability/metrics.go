package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters and histograms for the ingestion pipeline.
type Metrics struct {
	RecordsFetched      *prometheus.CounterVec   // labels: source
	RecordsSkipped      *prometheus.CounterVec   // labels: source, reason={no_address,normalize_failed}
	PropertiesTouched   *prometheus.CounterVec   // labels: source
	SignalsInserted     *prometheus.CounterVec   // labels: source
	PageFetchDuration   *prometheus.HistogramVec // labels: source
	NormalizationIssues prometheus.Counter
	RunsStarted         prometheus.Counter
	RunsCompleted       prometheus.Counter
	ScoredProperties    prometheus.Counter
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		RecordsFetched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "distressed_pipeline",
			Name:      "records_fetched_total",
			Help:      "Total raw records read from a source, before address extraction.",
		}, []string{"source"}),
		RecordsSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "distressed_pipeline",
			Name:      "records_skipped_total",
			Help:      "Records skipped before reaching the store, by reason.",
		}, []string{"source", "reason"}),
		PropertiesTouched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "distressed_pipeline",
			Name:      "properties_touched_total",
			Help:      "Property upserts performed, by source.",
		}, []string{"source"}),
		SignalsInserted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "distressed_pipeline",
			Name:      "signals_inserted_total",
			Help:      "New signal rows inserted (duplicates excluded), by source.",
		}, []string{"source"}),
		PageFetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "distressed_pipeline",
			Name:      "page_fetch_duration_seconds",
			Help:      "Duration of a single page fetch against a remote source.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"source"}),
		NormalizationIssues: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "distressed_pipeline",
			Name:      "normalization_issues_total",
			Help:      "Total normalization-audit rows logged across all runs.",
		}),
		RunsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "distressed_pipeline",
			Name:      "runs_started_total",
			Help:      "Total pipeline runs started.",
		}),
		RunsCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "distressed_pipeline",
			Name:      "runs_completed_total",
			Help:      "Total pipeline runs that reached completion.",
		}),
		ScoredProperties: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "distressed_pipeline",
			Name:      "scored_properties_total",
			Help:      "Total properties rescored across all scorer invocations.",
		}),
	}

	prometheus.MustRegister(
		m.RecordsFetched,
		m.RecordsSkipped,
		m.PropertiesTouched,
		m.SignalsInserted,
		m.PageFetchDuration,
		m.NormalizationIssues,
		m.RunsStarted,
		m.RunsCompleted,
		m.ScoredProperties,
	)

	return m
}

// NewMetricsForTesting creates Metrics with bare collectors so repeated test
// construction doesn't panic on "already registered" with the default registry.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		RecordsFetched:      prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "distressed_pipeline", Name: "records_fetched_total"}, []string{"source"}),
		RecordsSkipped:      prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "distressed_pipeline", Name: "records_skipped_total"}, []string{"source", "reason"}),
		PropertiesTouched:   prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "distressed_pipeline", Name: "properties_touched_total"}, []string{"source"}),
		SignalsInserted:     prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "distressed_pipeline", Name: "signals_inserted_total"}, []string{"source"}),
		PageFetchDuration:   prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: "distressed_pipeline", Name: "page_fetch_duration_seconds"}, []string{"source"}),
		NormalizationIssues: prometheus.NewCounter(prometheus.CounterOpts{Namespace: "distressed_pipeline", Name: "normalization_issues_total"}),
		RunsStarted:         prometheus.NewCounter(prometheus.CounterOpts{Namespace: "distressed_pipeline", Name: "runs_started_total"}),
		RunsCompleted:       prometheus.NewCounter(prometheus.CounterOpts{Namespace: "distressed_pipeline", Name: "runs_completed_total"}),
		ScoredProperties:    prometheus.NewCounter(prometheus.CounterOpts{Namespace: "distressed_pipeline", Name: "scored_properties_total"}),
	}
}
