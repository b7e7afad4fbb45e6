// internal/pipeline/extract/patterns.go
package extract

import (
	"regexp"

	"parcinfo-verifier/internal/models"
)

// Rule is one pattern matcher for an entity type. Rules are applied in order
// and their matches unioned, so overlaps between rules never double-count.
type Rule struct {
	Name    string
	Pattern *regexp.Regexp
}

// patternTable maps each entity type to its ordered list of matchers.
// Keeping this declarative lets individual patterns be unit-tested and
// extended without touching the extraction control flow.
var patternTable = map[models.EntityType][]Rule{
	models.EntitySupplier: {
		{Name: "two-word-caps", Pattern: regexp.MustCompile(`\b[A-Z]{2,}\s+[A-Z]{2,}\b`)},
		{Name: "caps-underscore", Pattern: regexp.MustCompile(`\b[A-Z]{2,}_[A-Z]{2,}\b`)},
		{Name: "caps-abbrev", Pattern: regexp.MustCompile(`\b[A-Z]{3,}\b`)},
	},
	models.EntityMaterial: {
		{Name: "inventory-code", Pattern: regexp.MustCompile(`(?i)\b[A-Z]{2,}\d{2,}\b`)},
		{Name: "code-underscore", Pattern: regexp.MustCompile(`\b[A-Z]{2,}_[A-Z]{2,}\b`)},
		{Name: "digits-letters", Pattern: regexp.MustCompile(`(?i)\b\d{2,}[A-Z]{2,}\b`)},
	},
	models.EntityOrder: {
		{Name: "bc-number", Pattern: regexp.MustCompile(`(?i)\bBC\d{2,}\b`)},
		{Name: "prefix-year", Pattern: regexp.MustCompile(`(?i)\b[A-Z]{2,}\d{4}\b`)},
	},
	models.EntityUser: {
		{Name: "gestionnaire", Pattern: regexp.MustCompile(`(?i)\bgestionnaire_[a-z]+\b`)},
		{Name: "test-account", Pattern: regexp.MustCompile(`(?i)\btest_[a-z]+\b`)},
		{Name: "superadmin", Pattern: regexp.MustCompile(`(?i)\bsuperadmin\b`)},
	},
}

// Rules returns the matcher list for a type; empty for unknown types.
func Rules(entityType models.EntityType) []Rule {
	return patternTable[entityType]
}
