package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SubmissionsTotal counts judged submissions by language and terminal status.
	SubmissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "judge_submissions_total",
			Help: "Total number of judged submissions",
		},
		[]string{"language", "status"},
	)

	// SubmissionDuration tracks wall time from dequeue to persisted verdict.
	SubmissionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "judge_submission_duration_seconds",
			Help:    "Duration of submission judging in seconds",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~40s
		},
		[]string{"language"},
	)

	// TestCasesExecuted counts individual sandbox runs.
	TestCasesExecuted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "judge_test_cases_executed_total",
			Help: "Total number of test case executions",
		},
		[]string{"language", "outcome"},
	)

	// WorkersActive tracks the number of workers currently judging a submission.
	WorkersActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "judge_workers_active",
			Help: "Number of workers currently judging a submission",
		},
	)

	// QueueDepth tracks submissions waiting in the in-process queue.
	QueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "judge_queue_depth",
			Help: "Number of submissions waiting to be judged",
		},
	)

	// SubmissionsReceived counts intake attempts by outcome.
	SubmissionsReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "judge_submissions_received_total",
			Help: "Total number of submissions received by the API",
		},
		[]string{"result"},
	)

	// SandboxFailures counts sandbox infrastructure failures (not user code errors).
	SandboxFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "judge_sandbox_failures_total",
			Help: "Total number of sandbox infrastructure failures",
		},
	)

	// WorkspaceCleanupFailures counts run directories that could not be removed.
	WorkspaceCleanupFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "judge_workspace_cleanup_failures_total",
			Help: "Total number of sandbox workspaces that could not be removed",
		},
	)
)
