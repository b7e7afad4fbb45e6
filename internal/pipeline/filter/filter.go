// internal/pipeline/filter/filter.go
package filter

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"parcinfo-verifier/internal/common/logger"
	"parcinfo-verifier/internal/models"
)

const genericMarker = "[unverified information]"

// SuspectRule is one fabrication heuristic. Sentinel tokens the upstream
// generator sometimes leaks rank high; generic code shapes rank medium.
type SuspectRule struct {
	Name     string
	Pattern  *regexp.Regexp
	Severity models.Severity
}

var suspectRules = []SuspectRule{
	{Name: "unverified-sentinel", Pattern: regexp.MustCompile(`FOURNISSEUR_NON_VÉRIFIÉ|ICE_VÉRIFIÉ_REQUIS`), Severity: models.SeverityHigh},
	{Name: "invalid-code-sentinel", Pattern: regexp.MustCompile(`CODE_INVALIDE`), Severity: models.SeverityHigh},
	{Name: "empty-placeholder", Pattern: regexp.MustCompile(`\[\s*\]`), Severity: models.SeverityMedium},
	{Name: "triple-joined-code", Pattern: regexp.MustCompile(`\b[A-Z]{2,}_[A-Z]{2,}_[A-Z]{2,}\b`), Severity: models.SeverityMedium},
	{Name: "joined-code", Pattern: regexp.MustCompile(`\b[A-Z]{2,}_[A-Z]{2,}\b`), Severity: models.SeverityMedium},
}

// markerPattern matches markers this filter itself produces. Matches inside
// those spans are never replaced again, which is what makes the filter
// idempotent. Other bracketed text stays fair game for the heuristics.
var markerPattern = regexp.MustCompile(`\[[^\[\]]*\bunverified\b[^\[\]]*\]`)

var whitespaceRun = regexp.MustCompile(`\s+`)

// Filter rewrites response text so unverifiable content is neutralized.
type Filter struct {
	logger logger.Logger
}

func New(log logger.Logger) *Filter {
	return &Filter{
		logger: log.WithFields(map[string]interface{}{"component": "filter"}),
	}
}

// DetectSuspicious reports every text span matching a fabrication heuristic,
// skipping spans already inside a marker.
func (f *Filter) DetectSuspicious(text string) []models.SuspiciousPattern {
	protected := protectedSpans(text)
	out := []models.SuspiciousPattern{}
	for _, rule := range suspectRules {
		for _, loc := range rule.Pattern.FindAllStringIndex(text, -1) {
			if insideProtected(protected, loc[0], loc[1]) {
				continue
			}
			out = append(out, models.SuspiciousPattern{
				Pattern:     rule.Name,
				MatchedText: text[loc[0]:loc[1]],
				SpanStart:   loc[0],
				SpanEnd:     loc[1],
				Severity:    rule.Severity,
			})
		}
	}
	return out
}

// Apply replaces every unverified entity occurrence with
// "[<entity> - unverified]", every suspicious span with the generic marker,
// then collapses whitespace runs. Applying it twice yields the same output.
func (f *Filter) Apply(text string, results map[string]*models.VerificationResult) string {
	filtered := text

	// Longer entities first so "COHESIUM ICE" is wrapped before "COHESIUM".
	unverified := unverifiedEntities(results)
	sort.Slice(unverified, func(i, j int) bool {
		if len(unverified[i]) != len(unverified[j]) {
			return len(unverified[i]) > len(unverified[j])
		}
		return unverified[i] < unverified[j]
	})

	for _, entity := range unverified {
		replacement := fmt.Sprintf("[%s - unverified]", entity)
		filtered = replaceOutsideMarkers(filtered, regexp.MustCompile(regexp.QuoteMeta(entity)), replacement)
	}

	for _, rule := range suspectRules {
		filtered = replaceOutsideMarkers(filtered, rule.Pattern, genericMarker)
	}

	return strings.TrimSpace(whitespaceRun.ReplaceAllString(filtered, " "))
}

func unverifiedEntities(results map[string]*models.VerificationResult) []string {
	seen := make(map[string]bool)
	var out []string
	for _, result := range results {
		if result == nil || result.Verified {
			continue
		}
		if !seen[result.Entity.RawText] {
			seen[result.Entity.RawText] = true
			out = append(out, result.Entity.RawText)
		}
	}
	return out
}

// replaceOutsideMarkers substitutes pattern matches that do not overlap an
// existing bracketed marker.
func replaceOutsideMarkers(text string, pattern *regexp.Regexp, replacement string) string {
	protected := protectedSpans(text)
	locs := pattern.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		return text
	}

	var b strings.Builder
	last := 0
	for _, loc := range locs {
		if loc[0] < last || insideProtected(protected, loc[0], loc[1]) {
			continue
		}
		b.WriteString(text[last:loc[0]])
		b.WriteString(replacement)
		last = loc[1]
	}
	b.WriteString(text[last:])
	return b.String()
}

func protectedSpans(text string) [][]int {
	return markerPattern.FindAllStringIndex(text, -1)
}

func insideProtected(protected [][]int, start, end int) bool {
	for _, span := range protected {
		if start < span[1] && end > span[0] {
			return true
		}
	}
	return false
}
