// Package typo normalizes user queries before they reach the cache and
// the verification pipeline. It fixes frequent misspellings of the
// domain vocabulary (fournisseurs, matériel, commandes, ...) so that
// two queries differing only by a typo share one cache entry.
package typo

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// commonTypos maps frequent misspellings to their canonical form.
// Keys are lowercase and accent-free.
var commonTypos = map[string]string{
	// fournisseurs
	"fournisuers":  "fournisseurs",
	"fourniseurs":  "fournisseurs",
	"fournissuers": "fournisseurs",

	// utilisateurs
	"utilistaeurs": "utilisateurs",
	"utilisateus":  "utilisateurs",
	"utilisaturs":  "utilisateurs",

	// matériel
	"materiel":  "matériel",
	"materiels": "matériels",
	"materiaux": "matériaux",

	// bureautique / informatique
	"bureautik":  "bureautique",
	"informatik": "informatique",

	// garantie
	"garanty": "garantie",

	// commandes
	"comande":  "commande",
	"comandes": "commandes",

	// divers
	"list": "liste",
}

// accentFold strips the accents that show up in the domain vocabulary.
var accentFold = strings.NewReplacer(
	"é", "e", "è", "e", "ê", "e", "ë", "e",
	"à", "a", "â", "a",
	"î", "i", "ï", "i",
	"ô", "o",
	"û", "u", "ù", "u",
	"ç", "c",
)

var wordPattern = regexp.MustCompile(`[\p{L}\p{N}_]+`)

// Result describes what Enhance did to a query.
type Result struct {
	Original     string   `json:"original"`
	Corrected    string   `json:"corrected"`
	Corrections  []string `json:"corrections"`
	WasCorrected bool     `json:"was_corrected"`
}

// Corrector fixes common misspellings and suggests near matches.
type Corrector struct {
	typos     map[string]string
	canonical []string
}

func NewCorrector() *Corrector {
	seen := make(map[string]struct{})
	canonical := make([]string, 0, len(commonTypos))
	for _, v := range commonTypos {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		canonical = append(canonical, v)
	}
	sort.Strings(canonical)
	return &Corrector{typos: commonTypos, canonical: canonical}
}

// Correct replaces known misspellings word by word. The second return
// value reports whether anything changed.
func (c *Corrector) Correct(text string) (string, bool) {
	changed := false
	corrected := wordPattern.ReplaceAllStringFunc(text, func(word string) string {
		key := accentFold.Replace(strings.ToLower(word))
		if fix, ok := c.typos[key]; ok && !strings.EqualFold(fix, word) {
			changed = true
			return matchCase(word, fix)
		}
		return word
	})
	return corrected, changed
}

// Suggest returns "'word' → 'candidate'" hints for words close to the
// canonical vocabulary. Words of three characters or fewer are skipped.
func (c *Corrector) Suggest(query string) []string {
	var suggestions []string
	for _, word := range wordPattern.FindAllString(strings.ToLower(query), -1) {
		if len([]rune(word)) <= 3 {
			continue
		}
		folded := accentFold.Replace(word)
		for _, candidate := range c.canonical {
			if folded == accentFold.Replace(candidate) {
				continue
			}
			if similarity(folded, accentFold.Replace(candidate)) > 0.70 {
				suggestions = append(suggestions, fmt.Sprintf("'%s' → '%s'", word, candidate))
			}
		}
	}
	return suggestions
}

// Enhance runs Correct and, when something changed, Suggest.
func (c *Corrector) Enhance(query string) Result {
	corrected, changed := c.Correct(query)
	var suggestions []string
	if changed {
		suggestions = c.Suggest(query)
	}
	return Result{
		Original:     query,
		Corrected:    corrected,
		Corrections:  suggestions,
		WasCorrected: changed,
	}
}

// Normalize satisfies the pipeline's normalizer hook: typo-correct the
// query, then fold it to the lowercase trimmed form the cache keys on,
// so casing and stray whitespace never split the cache.
func (c *Corrector) Normalize(query string) string {
	corrected, _ := c.Correct(query)
	return strings.ToLower(strings.TrimSpace(corrected))
}

// matchCase carries the casing of the original word over to the
// replacement: all-caps stays all-caps, a leading capital stays capital.
func matchCase(original, replacement string) string {
	if original == strings.ToUpper(original) && strings.ContainsAny(original, "ABCDEFGHIJKLMNOPQRSTUVWXYZ") {
		return strings.ToUpper(replacement)
	}
	runes := []rune(original)
	if len(runes) > 0 && runes[0] >= 'A' && runes[0] <= 'Z' {
		rep := []rune(replacement)
		return strings.ToUpper(string(rep[0])) + string(rep[1:])
	}
	return replacement
}

// similarity is the normalized indel ratio over two strings, the same
// measure 1 - dist/(len(a)+len(b)) used by common fuzzy matchers.
func similarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	ra, rb := []rune(a), []rune(b)
	if len(ra)+len(rb) == 0 {
		return 1.0
	}
	dist := indelDistance(ra, rb)
	return 1.0 - float64(dist)/float64(len(ra)+len(rb))
}

// indelDistance is the edit distance with insertions and deletions only.
func indelDistance(a, b []rune) int {
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				curr[j] = prev[j-1]
			} else {
				curr[j] = min(prev[j], curr[j-1]) + 1
			}
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

func min(x, y int) int {
	if x < y {
		return x
	}
	return y
}
