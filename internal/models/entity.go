// internal/models/entity.go
package models

// EntityType identifies which ground-truth table an extracted mention is
// checked against.
type EntityType string

const (
	EntitySupplier EntityType = "supplier"
	EntityMaterial EntityType = "material"
	EntityOrder    EntityType = "order"
	EntityUser     EntityType = "user"
)

// AllEntityTypes lists the types in verification order.
var AllEntityTypes = []EntityType{EntitySupplier, EntityMaterial, EntityOrder, EntityUser}

// ExtractedEntity is a candidate mention found in response text.
type ExtractedEntity struct {
	Type      EntityType `json:"type"`
	RawText   string     `json:"rawText"`
	SpanStart int        `json:"spanStart"`
	SpanEnd   int        `json:"spanEnd"`
}

// Source tells where a verification verdict came from.
type Source string

const (
	SourceDatabase Source = "database"
	SourceNotFound Source = "not_found"
	SourceError    Source = "error"
)

// Record is one ground-truth row matched during a lookup.
type Record map[string]interface{}

// VerificationResult is the verdict for one distinct extracted entity.
// Verified is true only when Matches is non-empty and Source is database.
type VerificationResult struct {
	Entity   ExtractedEntity `json:"entity"`
	Verified bool            `json:"verified"`
	Matches  []Record        `json:"matches"`
	Source   Source          `json:"source"`
	Error    string          `json:"error,omitempty"`
}
