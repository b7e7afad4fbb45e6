// internal/pipeline/extract/extractor_test.go
package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"parcinfo-verifier/internal/common/logger"
	"parcinfo-verifier/internal/models"
)

func newExtractor(t *testing.T) *Extractor {
	return New(logger.NewTestLogger(t))
}

func TestExtract_EntityTypes(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		entityType models.EntityType
		expected   []string
	}{
		{
			name:       "supplier two-word caps",
			text:       "Le fournisseur ATLAS MEDIA livre demain",
			entityType: models.EntitySupplier,
			expected:   []string{"ATLAS MEDIA", "ATLAS", "MEDIA"},
		},
		{
			name:       "supplier caps abbreviation",
			text:       "contacter SGTM pour le devis",
			entityType: models.EntitySupplier,
			expected:   []string{"SGTM"},
		},
		{
			name:       "material inventory code lowercase",
			text:       "le poste cd99 est en panne",
			entityType: models.EntityMaterial,
			expected:   []string{"cd99"},
		},
		{
			name:       "material digits then letters",
			text:       "référence 42AB en stock",
			entityType: models.EntityMaterial,
			expected:   []string{"42AB"},
		},
		{
			name:       "order bc number case-insensitive",
			text:       "la commande bc25 est validée",
			entityType: models.EntityOrder,
			expected:   []string{"bc25"},
		},
		{
			name:       "user gestionnaire account",
			text:       "demander à gestionnaire_info de valider",
			entityType: models.EntityUser,
			expected:   []string{"gestionnaire_info"},
		},
		{
			name:       "user superadmin",
			text:       "seul superadmin peut supprimer",
			entityType: models.EntityUser,
			expected:   []string{"superadmin"},
		},
		{
			name:       "no matches yields empty slice",
			text:       "rien à signaler ici",
			entityType: models.EntityOrder,
			expected:   []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			extracted := newExtractor(t).ExtractStrings(tt.text)
			assert.Equal(t, tt.expected, extracted[tt.entityType])
		})
	}
}

func TestExtract_DedupIsCaseFolded(t *testing.T) {
	extracted := newExtractor(t).Extract("commande BC25 puis bc25 encore BC25")

	orders := extracted[models.EntityOrder]
	assert.Len(t, orders, 1)
	// First-seen casing wins.
	assert.Equal(t, "BC25", orders[0].RawText)
}

func TestExtract_SpansPointIntoText(t *testing.T) {
	text := "le matériel CD99 est livré"
	extracted := newExtractor(t).Extract(text)

	materials := extracted[models.EntityMaterial]
	assert.Len(t, materials, 1)
	assert.Equal(t, "CD99", text[materials[0].SpanStart:materials[0].SpanEnd])
}

func TestExtract_AllTypesPresent(t *testing.T) {
	extracted := newExtractor(t).Extract("")
	for _, entityType := range models.AllEntityTypes {
		entities, ok := extracted[entityType]
		assert.True(t, ok)
		assert.Empty(t, entities)
	}
}
