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

	CreditScoresComputed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "credit_scores_computed_total",
			Help: "Total number of credit scores computed, by band",
		},
		[]string{"band"},
	)

	LoanOffersMatched = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "loan_offers_matched",
			Help:    "Number of eligible offers per match request",
			Buckets: []float64{0, 1, 2, 3, 5, 8, 13},
		},
		[]string{"task_type"},
	)

	WeatherAlertsRaised = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weather_alerts_raised_total",
			Help: "Total number of weather alert entries raised, by rule",
		},
		[]string{"rule_id", "priority"},
	)

	NotificationsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_sent_total",
			Help: "Total notifications delivered, by channel and status",
		},
		[]string{"channel", "status"},
	)
)
