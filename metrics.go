package main

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	invocationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "abusefinder_invocations_total",
		Help: "Total agent invocations by agent and result.",
	}, []string{"agent", "result"})

	invocationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "abusefinder_invocation_duration_seconds",
		Help:    "Agent invocation duration in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"agent"})

	eventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "abusefinder_events_total",
		Help: "Total events created by agent.",
	}, []string{"agent"})

	publishErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "abusefinder_publish_errors_total",
		Help: "Total failed event deliveries by output.",
	}, []string{"output"})

	agentsWorking = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "abusefinder_agent_working",
		Help: "Whether the agent is working as expected, 1 or 0.",
	}, []string{"agent"})
)
