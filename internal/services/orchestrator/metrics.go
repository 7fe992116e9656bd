package orchestrator

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	mJobsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orchestrator_jobs_created_total", Help: "Jobs accepted via submission",
	})
	mJobsCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orchestrator_jobs_completed_total", Help: "Jobs that reached completed",
	})
	mResultsRecorded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orchestrator_results_recorded_total", Help: "Check results written to the job store",
	})
	mResultsDuplicate = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orchestrator_results_duplicate_total", Help: "Result writes ignored because the pair was already resolved",
	})

	mProbesExecuted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "executor_probes_executed_total", Help: "Probes run by the local worker pool",
	})
	mProbesFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "executor_probes_failed_total", Help: "Probes that reported failure or panicked",
	})
	mTasksSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "executor_tasks_skipped_total", Help: "Queued tasks skipped because an agent resolved the pair first",
	})
	mProbeDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "executor_probe_duration_seconds",
		Help:    "Probe execution latency",
		Buckets: prometheus.DefBuckets,
	})

	mTasksServed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "distributor_tasks_served_total", Help: "Pending tasks handed to polling agents",
	})
	mAgentResults = promauto.NewCounter(prometheus.CounterOpts{
		Name: "distributor_agent_results_total", Help: "Result submissions received from agents",
	})
)
