package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Search pipeline metrics.
var (
	StageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "askme",
			Name:      "search_stage_duration_seconds",
			Help:      "Duration of each search pipeline stage",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"stage"},
	)

	StageFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "askme",
			Name:      "search_stage_failures_total",
			Help:      "Search stage failures by error kind",
		},
		[]string{"stage", "kind"},
	)

	SearchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "askme",
			Name:      "searches_total",
			Help:      "Completed searches by outcome",
		},
		[]string{"outcome"}, // "ok" / "degraded" / "failed" / "invalid"
	)

	CandidatesRecalled = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "askme",
			Name:      "search_candidates",
			Help:      "Unique candidates after aggregation",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		},
	)

	DocumentsIndexed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "askme",
			Name:      "documents_indexed_total",
			Help:      "Documents written by the indexer",
		},
	)
)

func init() {
	prometheus.MustRegister(
		StageDuration,
		StageFailuresTotal,
		SearchesTotal,
		CandidatesRecalled,
		DocumentsIndexed,
	)
}

// ObserveStage records how long stage took since start.
func ObserveStage(stage string, start time.Time) {
	StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}
