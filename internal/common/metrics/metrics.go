// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
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

	AnswerSubmissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "answer_submissions_total",
			Help: "Answer submissions by outcome",
		},
		[]string{"outcome"},
	)

	NormalizationOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "answer_normalization_total",
			Help: "Normalization runs by outcome and failing stage",
		},
		[]string{"outcome", "stage"},
	)

	NormalizationQueueDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "answer_normalization_dropped_total",
			Help: "Normalization tasks dropped because the local queue was full",
		},
	)

	RuleCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rule_cache_lookups_total",
			Help: "Rule snapshot cache lookups by result",
		},
		[]string{"result"},
	)

	RecommendationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "recommendation_duration_seconds",
			Help:    "Duration of a recommendation request in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"kind"},
	)

	RecommendationResults = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "recommendation_results",
			Help:    "Number of items returned per recommendation request",
			Buckets: []float64{0, 1, 2, 5, 10, 20},
		},
		[]string{"kind"},
	)

	TranslatorBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "translator_breaker_state",
			Help: "Translator circuit breaker state (0 closed, 1 half-open, 2 open)",
		},
		[]string{"name"},
	)
)
