// internal/pipeline/extract/extractor.go
package extract

import (
	"strings"

	"parcinfo-verifier/internal/common/logger"
	"parcinfo-verifier/internal/models"
)

// Extractor scans response text for candidate entity mentions. It never
// fails on malformed input; types with no matches yield empty slices.
type Extractor struct {
	logger logger.Logger
}

func New(log logger.Logger) *Extractor {
	return &Extractor{
		logger: log.WithFields(map[string]interface{}{"component": "extractor"}),
	}
}

// Extract returns, per entity type, the deduplicated candidate mentions with
// their first-occurrence spans. Dedup keys are case-folded; the first-seen
// casing is preserved.
func (e *Extractor) Extract(text string) map[models.EntityType][]models.ExtractedEntity {
	out := make(map[models.EntityType][]models.ExtractedEntity, len(models.AllEntityTypes))

	for _, entityType := range models.AllEntityTypes {
		seen := make(map[string]bool)
		entities := []models.ExtractedEntity{}

		for _, rule := range Rules(entityType) {
			for _, loc := range rule.Pattern.FindAllStringIndex(text, -1) {
				raw := text[loc[0]:loc[1]]
				key := strings.ToLower(raw)
				if seen[key] {
					continue
				}
				seen[key] = true
				entities = append(entities, models.ExtractedEntity{
					Type:      entityType,
					RawText:   raw,
					SpanStart: loc[0],
					SpanEnd:   loc[1],
				})
			}
		}

		out[entityType] = entities
	}

	e.logger.Debug("entities extracted", map[string]interface{}{
		"suppliers": len(out[models.EntitySupplier]),
		"materials": len(out[models.EntityMaterial]),
		"orders":    len(out[models.EntityOrder]),
		"users":     len(out[models.EntityUser]),
	})

	return out
}

// ExtractStrings returns only the deduplicated mention texts per type.
func (e *Extractor) ExtractStrings(text string) map[models.EntityType][]string {
	extracted := e.Extract(text)
	out := make(map[models.EntityType][]string, len(extracted))
	for entityType, entities := range extracted {
		values := make([]string, 0, len(entities))
		for _, entity := range entities {
			values = append(values, entity.RawText)
		}
		out[entityType] = values
	}
	return out
}
