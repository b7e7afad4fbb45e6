// internal/pipeline/score/scorer.go
package score

import (
	"math"

	"parcinfo-verifier/internal/common/config"
	"parcinfo-verifier/internal/models"
)

// Weights are the confidence deduction constants. They are tuning values,
// not invariants, so they come from configuration.
type Weights struct {
	LookupError    float64 // once per entity category with a lookup error
	Unverified     float64 // per individually unverified entity
	HighSeverity   float64
	MediumSeverity float64
	LowSeverity    float64
}

// DefaultWeights are the standard deductions.
func DefaultWeights() Weights {
	return Weights{
		LookupError:    0.3,
		Unverified:     0.1,
		HighSeverity:   0.2,
		MediumSeverity: 0.1,
		LowSeverity:    0.05,
	}
}

// FromConfig builds the weights from the scoring config section.
func FromConfig(cfg config.ScoringConfig) Weights {
	return Weights{
		LookupError:    cfg.LookupErrorPenalty,
		Unverified:     cfg.UnverifiedPenalty,
		HighSeverity:   cfg.HighSeverityPenalty,
		MediumSeverity: cfg.MediumSeverityPenalty,
		LowSeverity:    cfg.LowSeverityPenalty,
	}
}

// Scorer reduces verification and consistency findings to a scalar
// confidence in [0,1]. Pure function of its inputs, no I/O.
type Scorer struct {
	weights Weights
}

func New(weights Weights) *Scorer {
	return &Scorer{weights: weights}
}

// Score starts at 1.0 and applies the configured deductions. The lookup
// error penalty is capped per entity category: five failed supplier lookups
// cost the same as one. The result is clamped to [0,1] and rounded to two
// decimal places.
func (s *Scorer) Score(results map[string]*models.VerificationResult, inconsistencies []models.Inconsistency) float64 {
	base := 1.0

	errorCategories := make(map[models.EntityType]bool)
	for _, result := range results {
		if result == nil {
			continue
		}
		if result.Source == models.SourceError {
			errorCategories[result.Entity.Type] = true
		}
		if !result.Verified {
			base -= s.weights.Unverified
		}
	}
	base -= float64(len(errorCategories)) * s.weights.LookupError

	for _, inc := range inconsistencies {
		switch inc.Severity {
		case models.SeverityHigh:
			base -= s.weights.HighSeverity
		case models.SeverityMedium:
			base -= s.weights.MediumSeverity
		default:
			base -= s.weights.LowSeverity
		}
	}

	return clampRound(base)
}

func clampRound(v float64) float64 {
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	return math.Round(v*100) / 100
}
