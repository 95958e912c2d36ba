// Package metrics provides Prometheus metrics for the processing pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Labels stay low-cardinality: no video ids or file names.
var (
	// JobsTotal counts finished jobs by outcome (accepted, rejected, failed, error).
	JobsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "video_processor_jobs_total",
		Help: "Total number of processing jobs, by outcome.",
	}, []string{"outcome"})

	// StepFailuresTotal counts failures of individual pipeline steps.
	StepFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "video_processor_step_failures_total",
		Help: "Total number of pipeline step failures, by step.",
	}, []string{"step"})

	// StepDuration observes how long each pipeline step takes.
	StepDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "video_processor_step_duration_seconds",
		Help:    "Duration of pipeline steps, by step.",
		Buckets: []float64{0.05, 0.25, 1, 5, 15, 60, 180, 600, 1800},
	}, []string{"step"})

	// CleanupFailuresTotal counts jobs whose files outlived their cleanup.
	CleanupFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "video_processor_cleanup_failures_total",
		Help: "Total number of job cleanups that left files in the workspace.",
	})

	// JobsInFlight tracks jobs currently past admission.
	JobsInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "video_processor_jobs_in_flight",
		Help: "Current number of jobs being processed.",
	})

	// DeliveriesTotal counts AMQP deliveries by how they were settled.
	DeliveriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "video_processor_deliveries_total",
		Help: "Total number of queue deliveries, by settlement (ack, requeue, drop).",
	}, []string{"settlement"})
)
