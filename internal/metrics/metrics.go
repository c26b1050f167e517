// StageTrace - CV Inference Traceability Dashboard
// Copyright 2026 StageTrace contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stagetrace/stagetrace

// Package metrics provides Prometheus instrumentation for warehouse queries,
// the resilient executor, and media fetches.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Warehouse query metrics
	QueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "stagetrace_query_duration_seconds",
			Help:    "Duration of warehouse queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	QueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stagetrace_query_errors_total",
			Help: "Total number of warehouse query failures by classification",
		},
		[]string{"operation", "failure_kind"},
	)

	LinkedRows = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "stagetrace_linked_rows",
			Help:    "Rows returned per linked-events query",
			Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 250, 500},
		},
	)

	// Resilient executor metrics
	ExecutorReconnects = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "stagetrace_executor_reconnects_total",
			Help: "Total connection-class failures that triggered a reconnect",
		},
	)

	ExecutorRecoveries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "stagetrace_executor_recoveries_total",
			Help: "Total operations that succeeded after a reconnect",
		},
	)

	// Mapping service metrics
	MappingReloads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stagetrace_mapping_reloads_total",
			Help: "Mapping table reloads by outcome",
		},
		[]string{"outcome"},
	)

	// Media metrics
	MediaFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stagetrace_media_fetches_total",
			Help: "Object-store media fetches by kind and outcome",
		},
		[]string{"kind", "outcome"},
	)

	MediaEvictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stagetrace_media_evictions_total",
			Help: "Temp media artifacts evicted from the bounded cache",
		},
		[]string{"kind"},
	)
)
