package shipimport

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	importRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "shipment_import",
		Subsystem: "runs",
		Name:      "total",
		Help:      "Import runs executed, by kind.",
	}, []string{"kind"})

	importRunDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "shipment_import",
		Subsystem: "runs",
		Name:      "duration_seconds",
		Help:      "Wall time of import runs, by kind.",
		Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
	}, []string{"kind"})

	importRows = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "shipment_import",
		Subsystem: "rows",
		Name:      "total",
		Help:      "Committed rows, by outcome status.",
	}, []string{"status"})

	dedupChecks = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "shipment_import",
		Subsystem: "dedup",
		Name:      "checks_total",
		Help:      "Duplicate checks, by result (hit, miss, error).",
	}, []string{"result"})

	resolutionWarnings = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "shipment_import",
		Subsystem: "resolution",
		Name:      "warnings_total",
		Help:      "Advisory warnings raised while resolving rows, by field.",
	}, []string{"field"})

	collaboratorErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "shipment_import",
		Subsystem: "collaborators",
		Name:      "errors_total",
		Help:      "Failed calls to external collaborators.",
	}, []string{"collaborator"})
)
