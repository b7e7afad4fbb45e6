// internal/pipeline/consistency/analyzer.go
package consistency

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"parcinfo-verifier/internal/common/logger"
	"parcinfo-verifier/internal/models"
)

const amountEpsilon = 0.01

var (
	isoDatePattern = regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\b`)
	amountPattern  = regexp.MustCompile(`(\d+(?:[.,]\d{1,2})?)\s*(?:DH|MAD|€|\$)`)
	totalPattern   = regexp.MustCompile(`(?i)\b(?:total|somme|sum)\b[:\s]*(\d+(?:[.,]\d{1,2})?)`)
)

// Analyzer detects internal contradictions in response text without any
// external data access. Same text + same verification results always yields
// the same inconsistency list.
type Analyzer struct {
	logger logger.Logger
}

func New(log logger.Logger) *Analyzer {
	return &Analyzer{
		logger: log.WithFields(map[string]interface{}{"component": "consistency"}),
	}
}

// Analyze runs the date, amount and unverified-entity checks in that order.
func (a *Analyzer) Analyze(text string, results map[string]*models.VerificationResult) []models.Inconsistency {
	inconsistencies := []models.Inconsistency{}
	inconsistencies = append(inconsistencies, a.checkDateOrder(text)...)
	inconsistencies = append(inconsistencies, a.checkAmounts(text)...)
	inconsistencies = append(inconsistencies, a.propagateUnverified(results)...)
	return inconsistencies
}

// checkDateOrder flags every pair of ISO dates where the later-positioned
// date is chronologically earlier than an earlier-positioned one.
func (a *Analyzer) checkDateOrder(text string) []models.Inconsistency {
	raw := isoDatePattern.FindAllString(text, -1)
	if len(raw) < 2 {
		return nil
	}

	type datedToken struct {
		text string
		when time.Time
	}
	dates := make([]datedToken, 0, len(raw))
	for _, token := range raw {
		when, err := time.Parse("2006-01-02", token)
		if err != nil {
			continue // not a real calendar date, e.g. 2025-99-99
		}
		dates = append(dates, datedToken{text: token, when: when})
	}

	var out []models.Inconsistency
	for i := 0; i < len(dates); i++ {
		for j := i + 1; j < len(dates); j++ {
			if dates[i].when.After(dates[j].when) {
				out = append(out, models.Inconsistency{
					Kind:        models.InconsistencyDateOrder,
					Description: fmt.Sprintf("date %s appears before %s but is chronologically later", dates[i].text, dates[j].text),
					Severity:    models.SeverityMedium,
				})
			}
		}
	}
	return out
}

// checkAmounts compares a stated total against the sum of the itemized
// currency amounts. The stated total itself is excluded from the sum.
func (a *Analyzer) checkAmounts(text string) []models.Inconsistency {
	totalMatch := totalPattern.FindStringSubmatch(text)
	if totalMatch == nil {
		return nil
	}
	stated, err := parseAmount(totalMatch[1])
	if err != nil {
		return nil
	}

	var itemized float64
	var count int
	skippedStated := false
	for _, m := range amountPattern.FindAllStringSubmatch(text, -1) {
		value, err := parseAmount(m[1])
		if err != nil {
			continue
		}
		// The total is usually currency-tagged too; drop its first occurrence.
		if !skippedStated && value == stated {
			skippedStated = true
			continue
		}
		itemized += value
		count++
	}
	if count < 1 {
		return nil
	}

	if math.Abs(itemized-stated) > amountEpsilon {
		return []models.Inconsistency{{
			Kind:        models.InconsistencyAmountMismatch,
			Description: fmt.Sprintf("stated total %.2f does not match itemized sum %.2f", stated, itemized),
			Severity:    models.SeverityHigh,
		}}
	}
	return nil
}

// propagateUnverified turns every unverified entity into a high-severity
// inconsistency, in deterministic key order.
func (a *Analyzer) propagateUnverified(results map[string]*models.VerificationResult) []models.Inconsistency {
	keys := make([]string, 0, len(results))
	for key := range results {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var out []models.Inconsistency
	for _, key := range keys {
		result := results[key]
		if result == nil || result.Verified {
			continue
		}
		out = append(out, models.Inconsistency{
			Kind:        models.InconsistencyUnverifiedEntity,
			Description: fmt.Sprintf("entity %q (%s) not found in ground-truth store", result.Entity.RawText, result.Entity.Type),
			Severity:    models.SeverityHigh,
		})
	}
	return out
}

func parseAmount(token string) (float64, error) {
	return strconv.ParseFloat(strings.ReplaceAll(token, ",", "."), 64)
}
