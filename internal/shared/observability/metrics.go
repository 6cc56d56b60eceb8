package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics definitions
var (
	ParseDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tsresolve_parsing_seconds",
		Help:    "Time spent parsing a source file.",
		Buckets: prometheus.DefBuckets,
	}, []string{"language"})

	ModulesLoadedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tsresolve_modules_loaded_total",
		Help: "Total number of source files parsed by the module loader.",
	})

	ModulesInitializedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tsresolve_modules_initialized_total",
		Help: "Total number of module namespaces built by resolve sessions.",
	})

	ObjectsAllocatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tsresolve_objects_allocated_total",
		Help: "Total number of semantic objects allocated.",
	})

	IdentResolutionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tsresolve_ident_resolutions_total",
		Help: "Identifier resolutions by outcome.",
	}, []string{"outcome"})

	DiagnosticsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tsresolve_diagnostics_total",
		Help: "Total number of diagnostics reported.",
	})

	AnalysisDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tsresolve_analysis_seconds",
		Help:    "Time spent on high-level analysis tasks.",
		Buckets: prometheus.DefBuckets,
	}, []string{"task"})

	WatcherEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tsresolve_watcher_events_total",
		Help: "Total number of file system events received by the watcher.",
	})

	IndexWritesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tsresolve_index_rows_written_total",
		Help: "Total number of export rows persisted to the index.",
	})
)
