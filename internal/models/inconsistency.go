// internal/models/inconsistency.go
package models

// InconsistencyKind classifies an internal contradiction in a response.
type InconsistencyKind string

const (
	InconsistencyDateOrder        InconsistencyKind = "date_order"
	InconsistencyAmountMismatch   InconsistencyKind = "amount_mismatch"
	InconsistencyUnverifiedEntity InconsistencyKind = "unverified_entity"
)

// Severity grades how much an inconsistency should reduce confidence.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Inconsistency is one detected contradiction, purely in-memory.
type Inconsistency struct {
	Kind        InconsistencyKind `json:"kind"`
	Description string            `json:"description"`
	Severity    Severity          `json:"severity"`
}
