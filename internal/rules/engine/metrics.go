// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package engine

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics for rule-set evaluation, grounded on the teacher's
// policy.RecordEvaluationMetrics pair (evaluateDuration histogram +
// policyEvaluations counter).
var (
	evaluateDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "ruleforge_evaluate_duration_seconds",
		Help:    "Histogram of rule-set evaluation latency in seconds",
		Buckets: prometheus.DefBuckets,
	})

	ruleEvaluations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ruleforge_rule_evaluations_total",
		Help: "Total number of rule-set evaluations",
	}, []string{"rule_name", "outcome"})

	circuitBreakerTripsCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ruleforge_circuit_breaker_trips_total",
		Help: "Total number of circuit breaker trips during evaluation",
	}, []string{"rule_name"})

	cacheHitsCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ruleforge_ast_cache_hits_total",
		Help: "AST and constants cache hits and misses",
	}, []string{"result"})

	batchConcurrencyGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ruleforge_batch_inflight_evaluations",
		Help: "Number of rule-set evaluations currently in flight within a batch",
	})
)

// recordEvaluationMetrics records latency, outcome, and circuit-breaker
// trip counters for one completed rule-set evaluation.
func recordEvaluationMetrics(ruleName string, duration time.Duration, success, circuitBroken bool) {
	evaluateDuration.Observe(duration.Seconds())
	outcome := "success"
	if !success {
		outcome = "error"
	}
	ruleEvaluations.WithLabelValues(ruleName, outcome).Inc()
	if circuitBroken {
		circuitBreakerTripsCounter.WithLabelValues(ruleName).Inc()
	}
}
