// internal/pipeline/score/scorer_test.go
package score

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"parcinfo-verifier/internal/models"
)

func result(entityType models.EntityType, text string, verified bool, source models.Source) *models.VerificationResult {
	return &models.VerificationResult{
		Entity:   models.ExtractedEntity{Type: entityType, RawText: text},
		Verified: verified,
		Source:   source,
	}
}

func TestScore_PerfectResponse(t *testing.T) {
	scorer := New(DefaultWeights())
	results := map[string]*models.VerificationResult{
		"material:cd99": result(models.EntityMaterial, "CD99", true, models.SourceDatabase),
	}
	assert.Equal(t, 1.0, scorer.Score(results, nil))
}

func TestScore_Deductions(t *testing.T) {
	scorer := New(DefaultWeights())

	tests := []struct {
		name            string
		results         map[string]*models.VerificationResult
		inconsistencies []models.Inconsistency
		expected        float64
	}{
		{
			name: "one unverified entity",
			results: map[string]*models.VerificationResult{
				"order:bc99": result(models.EntityOrder, "BC99", false, models.SourceNotFound),
			},
			expected: 0.9,
		},
		{
			name: "lookup error counts once per category",
			results: map[string]*models.VerificationResult{
				"order:bc97": result(models.EntityOrder, "BC97", false, models.SourceError),
				"order:bc98": result(models.EntityOrder, "BC98", false, models.SourceError),
				"order:bc99": result(models.EntityOrder, "BC99", false, models.SourceError),
			},
			// one 0.3 category penalty plus 0.1 per unverified entity
			expected: 0.4,
		},
		{
			name: "severity weights",
			inconsistencies: []models.Inconsistency{
				{Kind: models.InconsistencyAmountMismatch, Severity: models.SeverityHigh},
				{Kind: models.InconsistencyDateOrder, Severity: models.SeverityMedium},
				{Kind: models.InconsistencyDateOrder, Severity: models.SeverityLow},
			},
			expected: 0.65,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, scorer.Score(tt.results, tt.inconsistencies))
		})
	}
}

func TestScore_ClampedToZero(t *testing.T) {
	scorer := New(DefaultWeights())

	results := map[string]*models.VerificationResult{}
	for i := 0; i < 20; i++ {
		key := fmt.Sprintf("order:bc%02d", i)
		results[key] = result(models.EntityOrder, fmt.Sprintf("BC%02d", i), false, models.SourceNotFound)
	}

	got := scorer.Score(results, nil)
	assert.Equal(t, 0.0, got)
}

func TestScore_MonotoneInFindings(t *testing.T) {
	scorer := New(DefaultWeights())

	results := map[string]*models.VerificationResult{
		"order:bc99": result(models.EntityOrder, "BC99", false, models.SourceNotFound),
	}

	var incs []models.Inconsistency
	prev := scorer.Score(results, incs)
	for i := 0; i < 5; i++ {
		incs = append(incs, models.Inconsistency{Kind: models.InconsistencyDateOrder, Severity: models.SeverityMedium})
		next := scorer.Score(results, incs)
		assert.LessOrEqual(t, next, prev)
		prev = next
	}
}

func TestScore_RoundedToTwoDecimals(t *testing.T) {
	weights := DefaultWeights()
	weights.Unverified = 0.333
	scorer := New(weights)

	results := map[string]*models.VerificationResult{
		"order:bc99": result(models.EntityOrder, "BC99", false, models.SourceNotFound),
	}

	assert.Equal(t, 0.67, scorer.Score(results, nil))
}
