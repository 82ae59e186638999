// Package metrics defines Prometheus metrics for shopback-bot.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "shopback_bot"

// API client metrics.
var (
	APICallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "api_calls_total",
		Help:      "Total number of ShopBack API calls by operation.",
	}, []string{"operation"})

	APIErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "api_errors_total",
		Help:      "Total number of failed ShopBack API calls by operation.",
	}, []string{"operation"})
)

// Follow dispatch metrics.
var (
	FollowsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "follows_total",
		Help:      "Total number of follow outcomes by result (new, already_followed).",
	}, []string{"result"})

	FollowBatchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "follow_batch_duration_seconds",
		Help:      "Duration of one concurrent follow batch in seconds.",
		Buckets:   prometheus.DefBuckets,
	})
)

// Aggregation metrics.
var (
	PagesFetchedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "pages_fetched_total",
		Help:      "Total number of result pages fetched by mode (search, followed).",
	}, []string{"mode"})
)

// Scheduler metrics.
var (
	ScheduledRunsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "scheduled_runs_total",
		Help:      "Total number of scheduled follow runs.",
	})

	ScheduledRunErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "scheduled_run_errors_total",
		Help:      "Total number of scheduled follow runs that failed.",
	})
)
