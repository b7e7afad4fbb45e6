// internal/typo/corrector_test.go
package typo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCorrect_KnownTypos(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
		changed  bool
	}{
		{
			name:     "fournisseurs misspelled",
			input:    "liste des fournisuers",
			expected: "liste des fournisseurs",
			changed:  true,
		},
		{
			name:     "materiel without accent",
			input:    "le materiel est livré",
			expected: "le matériel est livré",
			changed:  true,
		},
		{
			name:     "comande single m",
			input:    "statut de la comande",
			expected: "statut de la commande",
			changed:  true,
		},
		{
			name:     "clean text untouched",
			input:    "liste des fournisseurs",
			expected: "liste des fournisseurs",
			changed:  false,
		},
		{
			name:     "leading capital preserved",
			input:    "Comande en attente",
			expected: "Commande en attente",
			changed:  true,
		},
	}

	c := NewCorrector()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, changed := c.Correct(tt.input)
			assert.Equal(t, tt.expected, got)
			assert.Equal(t, tt.changed, changed)
		})
	}
}

func TestCorrect_MultipleTyposInOneQuery(t *testing.T) {
	c := NewCorrector()
	got, changed := c.Correct("comandes et fournisuers du materiel")
	assert.True(t, changed)
	assert.Equal(t, "commandes et fournisseurs du matériel", got)
}

func TestSuggest_NearMatches(t *testing.T) {
	c := NewCorrector()

	suggestions := c.Suggest("fournissur inconnu")
	assert.NotEmpty(t, suggestions)
	assert.Contains(t, suggestions[0], "fournisseurs")
}

func TestSuggest_ShortWordsSkipped(t *testing.T) {
	c := NewCorrector()
	assert.Empty(t, c.Suggest("le la et de"))
}

func TestEnhance(t *testing.T) {
	c := NewCorrector()

	res := c.Enhance("liste des fournisuers")
	assert.True(t, res.WasCorrected)
	assert.Equal(t, "liste des fournisuers", res.Original)
	assert.Equal(t, "liste des fournisseurs", res.Corrected)

	res = c.Enhance("liste des fournisseurs")
	assert.False(t, res.WasCorrected)
	assert.Empty(t, res.Corrections)
}

func TestNormalize_CorrectsAndFolds(t *testing.T) {
	c := NewCorrector()
	assert.Equal(t, "liste des commandes", c.Normalize("liste des comandes"))

	// Casing and surrounding whitespace never split the cache key.
	assert.Equal(t, "liste des commandes", c.Normalize("  Liste DES Comandes "))
	assert.Equal(t, "où est ma commande", c.Normalize("Où est ma commande "))
	assert.Equal(t, c.Normalize("où est ma commande"), c.Normalize("Où est ma commande "))
}

func TestSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, similarity("commande", "commande"))
	assert.Greater(t, similarity("comande", "commande"), 0.9)
	assert.Less(t, similarity("xyz", "commande"), 0.3)
}
