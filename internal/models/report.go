// internal/models/report.go
package models

import "time"

// SuspiciousPattern is a text span flagged by the fabrication heuristics.
type SuspiciousPattern struct {
	Pattern     string   `json:"pattern"`
	MatchedText string   `json:"matchedText"`
	SpanStart   int      `json:"spanStart"`
	SpanEnd     int      `json:"spanEnd"`
	Severity    Severity `json:"severity"`
}

// Report is the sole externally consumed result of one verification call.
type Report struct {
	ID                     string                         `json:"id"`
	OriginalResponse       string                         `json:"originalResponse"`
	FilteredResponse       string                         `json:"filteredResponse"`
	ConfidenceScore        float64                        `json:"confidenceScore"`
	HallucinationsDetected bool                           `json:"hallucinationsDetected"`
	Entities               map[EntityType][]string        `json:"entities"`
	Results                map[string]*VerificationResult `json:"results"`
	Inconsistencies        []Inconsistency                `json:"inconsistencies"`
	SuspiciousPatterns     []SuspiciousPattern            `json:"suspiciousPatterns"`
	ProcessingTime         time.Duration                  `json:"processingTime"`
	FromCache              bool                           `json:"fromCache"`
}
