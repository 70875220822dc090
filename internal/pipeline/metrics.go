package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	agentRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "newsletter_agent_runs_total",
		Help: "Agent step executions by agent and outcome.",
	}, []string{"agent", "outcome"})

	agentRetriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "newsletter_agent_retries_total",
		Help: "Retried agent attempts after a transient failure.",
	}, []string{"agent"})

	agentDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "newsletter_agent_duration_seconds",
		Help:    "Wall-clock duration of successful agent executions.",
		Buckets: prometheus.ExponentialBuckets(1, 2, 12),
	}, []string{"agent"})

	pipelineRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "newsletter_pipeline_runs_total",
		Help: "Completed pipeline runs by outcome.",
	}, []string{"outcome"})
)
