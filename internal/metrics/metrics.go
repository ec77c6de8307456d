package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Counters
	JobsScheduledTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agents_jobs_scheduled_total",
			Help: "Total number of jobs scheduled",
		},
		[]string{"task_type"},
	)

	JobsFinishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agents_jobs_finished_total",
			Help: "Total number of jobs that reached a terminal state",
		},
		[]string{"task_type", "status"}, // completed, failed
	)

	LLMRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agents_llm_requests_total",
			Help: "Total number of completion requests sent to the model API",
		},
		[]string{"model", "success"},
	)

	ChatMessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agents_chat_messages_total",
			Help: "Total number of chat log entries written",
		},
		[]string{"type"},
	)

	// Gauges
	RunningJobs = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "agents_running_jobs",
			Help: "Current number of jobs being executed",
		},
	)

	// Buckets: 10ms to ~163s
	JobDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "agents_job_duration_seconds",
			Help:    "Job execution duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 15),
		},
		[]string{"task_type"},
	)

	LLMRequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "agents_llm_request_duration_seconds",
			Help:    "Model API request latency in seconds",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
		},
		[]string{"model"},
	)
)
