// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	VenuesLoaded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "venue_finder_venues_loaded_total",
			Help: "Total number of venue records accepted by the loader",
		},
		[]string{"source"},
	)

	VenuesDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "venue_finder_venues_dropped_total",
			Help: "Total number of venue records dropped at load time",
		},
		[]string{"source", "reason"},
	)

	SourceLoadDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "venue_finder_source_load_duration_seconds",
			Help: "Duration of a venue data source read in seconds",
		},
		[]string{"source"},
	)

	SourceCacheResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "venue_finder_source_cache_total",
			Help: "Venue record cache lookups by result",
		},
		[]string{"result"},
	)

	FilterRuns = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "venue_finder_filter_runs_total",
			Help: "Total number of filter pipeline runs",
		},
	)

	FilteredSetSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "venue_finder_filtered_set_size",
			Help:    "Number of venues in each filtered set",
			Buckets: []float64{0, 1, 2, 5, 10, 25, 50, 100, 250, 1000},
		},
	)

	SelectionTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "venue_finder_selection_transitions_total",
			Help: "Selection state transitions by event and outcome",
		},
		[]string{"event", "outcome"},
	)

	StaleSelectionResets = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "venue_finder_stale_selection_resets_total",
			Help: "Selections reset because they no longer resolved",
		},
		[]string{"cause"},
	)

	SessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "venue_finder_sessions_active",
			Help: "Number of live finder sessions",
		},
	)

	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)
)
