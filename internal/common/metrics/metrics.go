// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "workflow"

// Job worker metrics.
var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "worker_jobs_completed_total",
			Help:      "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "worker_jobs_failed_total",
			Help:      "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "worker_job_duration_seconds",
			Help:      "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "worker_jobs_active",
			Help:      "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)
)

// Assignment engine metrics.
var (
	// AssignmentsTotal counts assignment outcomes: assigned, no_eligible_consultant,
	// unassigned, rejected.
	AssignmentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "assignments_total",
			Help:      "Assignment operations by type and outcome",
		},
		[]string{"assignment_type", "outcome"},
	)

	CapacityLockWait = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "capacity_lock_wait_seconds",
			Help:      "Time spent waiting for the sector capacity lock",
			Buckets:   []float64{.001, .005, .01, .05, .1, .25, .5, 1, 2, 5},
		},
	)

	PersistenceConflicts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "persistence_conflicts_total",
			Help:      "Transactions rolled back due to write conflicts",
		},
		[]string{"operation"},
	)
)

// Workflow room metrics.
var (
	RoomEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "room_events_total",
			Help:      "Room lifecycle events applied, by event kind",
		},
		[]string{"event"},
	)

	RoomEventsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "room_events_dropped_total",
			Help:      "Room lifecycle events dropped, by event kind and reason",
		},
		[]string{"event", "reason"},
	)
)

// Notification metrics.
var (
	NotificationsWritten = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_written_total",
			Help:      "Notification records written, by type",
		},
		[]string{"type"},
	)

	NotificationFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notification_failures_total",
			Help:      "Notification writes or deliveries that failed, by channel",
		},
		[]string{"channel"},
	)
)

// Reporting metrics.
var ReportingDocuments = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reporting_documents_total",
		Help:      "Documents sent to the reporting index, by index and result",
	},
	[]string{"index", "result"},
)
