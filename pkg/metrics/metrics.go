// Package metrics provides Prometheus metrics for the formgen service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// FormWritesTotal tracks form create/update/delete operations by outcome
	FormWritesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "formgen",
			Subsystem: "forms",
			Name:      "writes_total",
			Help:      "Total number of form write operations by action and status",
		},
		[]string{"action", "status"},
	)

	// ResponseSubmissionsTotal tracks response submissions by outcome
	ResponseSubmissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "formgen",
			Subsystem: "responses",
			Name:      "submissions_total",
			Help:      "Total number of response submissions by status",
		},
		[]string{"status"},
	)

	// ValidationFailuresTotal tracks submissions rejected by schema validation
	ValidationFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "formgen",
			Subsystem: "responses",
			Name:      "validation_failures_total",
			Help:      "Total number of submissions rejected by field validation",
		},
	)

	// SearchDuration tracks filtered response search duration in seconds
	SearchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "formgen",
			Subsystem: "responses",
			Name:      "search_duration_seconds",
			Help:      "Duration of filtered response searches in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
	)

	// RelationResolutionsTotal tracks relation label resolutions by outcome
	RelationResolutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "formgen",
			Subsystem: "relations",
			Name:      "resolutions_total",
			Help:      "Total number of relation label resolutions by status",
		},
		[]string{"status"},
	)

	// FormCacheHitsTotal tracks form cache reads by result
	FormCacheHitsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "formgen",
			Subsystem: "cache",
			Name:      "form_reads_total",
			Help:      "Total number of form cache reads by result",
		},
		[]string{"result"},
	)

	// CSVExportsTotal tracks CSV exports by outcome
	CSVExportsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "formgen",
			Subsystem: "export",
			Name:      "csv_total",
			Help:      "Total number of CSV exports by status",
		},
		[]string{"status"},
	)
)
