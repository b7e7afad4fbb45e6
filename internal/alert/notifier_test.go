// internal/alert/notifier_test.go
package alert

import (
	"context"
	"testing"

	"parcinfo-verifier/internal/common/config"
	"parcinfo-verifier/internal/common/logger"
	"parcinfo-verifier/internal/models"
)

func alertConfig(enabled bool, threshold float64) config.AlertsConfig {
	cfg := config.AlertsConfig{
		Enabled:             enabled,
		ConfidenceThreshold: threshold,
	}
	return cfg
}

// Check must be a silent no-op in every configuration that cannot deliver:
// disabled alerts, scores above the threshold, and missing AWS clients.
func TestCheck_NoOpCases(t *testing.T) {
	tests := []struct {
		name   string
		cfg    config.AlertsConfig
		report *models.Report
	}{
		{
			name:   "alerts disabled",
			cfg:    alertConfig(false, 0.5),
			report: &models.Report{ID: "r-1", ConfidenceScore: 0.1},
		},
		{
			name:   "score above threshold",
			cfg:    alertConfig(true, 0.5),
			report: &models.Report{ID: "r-2", ConfidenceScore: 0.9},
		},
		{
			name:   "score at threshold",
			cfg:    alertConfig(true, 0.5),
			report: &models.Report{ID: "r-3", ConfidenceScore: 0.5},
		},
		{
			name:   "nil report",
			cfg:    alertConfig(true, 0.5),
			report: nil,
		},
		{
			name:   "low score but no delivery channel configured",
			cfg:    alertConfig(true, 0.5),
			report: &models.Report{ID: "r-4", ConfidenceScore: 0.1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := NewNotifier(tt.cfg, nil, nil, logger.NewTestLogger(t))
			n.Check(context.Background(), tt.report)
		})
	}
}

func TestCountUnverified(t *testing.T) {
	report := &models.Report{
		Results: map[string]*models.VerificationResult{
			"a": {Verified: true},
			"b": {Verified: false},
			"c": {Verified: false},
			"d": nil,
		},
	}
	if got := countUnverified(report); got != 2 {
		t.Fatalf("countUnverified = %d, want 2", got)
	}
}
