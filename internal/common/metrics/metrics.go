// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	VerificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "verifier_verifications_total",
			Help: "Total number of verification pipeline invocations",
		},
		[]string{"outcome"},
	)

	HallucinationsDetected = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "verifier_hallucinations_detected_total",
			Help: "Total number of responses flagged with hallucinations",
		},
	)

	ConfidenceScore = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "verifier_confidence_score",
			Help:    "Distribution of confidence scores",
			Buckets: prometheus.LinearBuckets(0, 0.1, 11),
		},
	)

	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "verifier_stage_duration_seconds",
			Help: "Duration of each pipeline stage in seconds",
		},
		[]string{"stage"},
	)

	EntityLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "verifier_entity_lookups_total",
			Help: "Ground-truth lookups by entity type and result source",
		},
		[]string{"entity_type", "source"},
	)

	CacheOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "verifier_cache_operations_total",
			Help: "Cache operations by type and result",
		},
		[]string{"operation", "result"},
	)

	LoopsDetected = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "verifier_conversation_loops_detected_total",
			Help: "Total number of conversation loops broken",
		},
	)
)
