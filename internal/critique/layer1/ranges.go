package layer1

import (
	"fmt"
	"math"
	"strings"
	"time"

	"sdcritic/internal/critique"
	"sdcritic/internal/record"
)

const rangeCriticID = "range_sentinel"

// Domain-fixed plausible ranges.
const (
	ageMin = 0
	ageMax = 120

	gcsMin = 3 // Glasgow Coma Scale floor
	gcsMax = 15

	yearMin = 1900

	qualityTotalMax         = 9 // Newcastle-Ottawa total
	qualitySelectionMax     = 4
	qualityComparabilityMax = 2
	qualityOutcomeMax       = 3
	qualitySumTolerance     = 0.1
)

// CheckRanges validates every quantity in the record against its
// domain-fixed plausible range. Out-of-range values are CRITICAL except the
// publication-year check, which is a WARNING (future-dated e-pubs happen).
func CheckRanges(r record.Record) []critique.Issue {
	var issues []critique.Issue

	r.Walk(func(path string, v interface{}) {
		value := v
		sourceText := ""
		if f, ok := record.AsField(v); ok {
			value = f.Value
			sourceText = f.SourceText
		}

		n, ok := record.AsFloat(value)
		if !ok {
			return
		}

		if issue := checkScalarRange(path, n, value, sourceText); issue != nil {
			issues = append(issues, *issue)
		}
	})

	issues = append(issues, checkQualityComposite(r)...)
	return issues
}

func checkScalarRange(path string, n float64, raw interface{}, sourceText string) *critique.Issue {
	lower := strings.ToLower(path)
	segs := strings.Split(lower, ".")
	leaf := segs[len(segs)-1]

	critical := func(msg string) *critique.Issue {
		return &critique.Issue{
			CriticID:       rangeCriticID,
			Field:          path,
			Severity:       critique.SeverityCritical,
			Message:        msg,
			CurrentValue:   raw,
			SourceEvidence: sourceText,
		}
	}

	switch {
	case isAgePath(segs):
		if n < ageMin || n > ageMax {
			return critical(fmt.Sprintf("Impossible %s: %s years (valid range: %d-%d)",
				ageDescriptor(segs), record.AsString(raw), ageMin, ageMax))
		}

	case strings.Contains(leaf, "gcs"):
		if n < gcsMin || n > gcsMax {
			return critical(fmt.Sprintf("Implausible GCS in %s: %s (valid range: %d-%d)",
				path, record.AsString(raw), gcsMin, gcsMax))
		}

	case strings.Contains(leaf, "year"):
		maxYear := time.Now().Year() + 1
		if n < yearMin || n > float64(maxYear) {
			return &critique.Issue{
				CriticID:       rangeCriticID,
				Field:          path,
				Severity:       critique.SeverityWarning,
				Message:        fmt.Sprintf("Suspicious publication year in %s: %s (expected %d-%d)", path, record.AsString(raw), yearMin, maxYear),
				CurrentValue:   raw,
				SourceEvidence: sourceText,
			}
		}

	case isPercentValued(lower, raw):
		if n < 0 || n > 100 {
			return critical(fmt.Sprintf("Percentage out of range in %s: %s (valid range: 0-100)",
				path, record.AsString(raw)))
		}
	}

	return nil
}

// isAgePath matches "age" only as a whole path segment or a camelCase leaf
// like meanAge. Substring matching would drag in hemorrhageCount, percentage,
// stage and average.
func isAgePath(segs []string) bool {
	for _, s := range segs {
		switch s {
		case "age", "meanage", "medianage", "minage", "maxage":
			return true
		}
	}
	return false
}

// ageDescriptor renders "mean age" for population.age.mean, "age" otherwise.
func ageDescriptor(segs []string) string {
	leaf := segs[len(segs)-1]
	switch leaf {
	case "mean", "median", "min", "max":
		return leaf + " age"
	default:
		return "age"
	}
}

// isPercentValued treats a field as percentage-like when its name says so or
// its raw string value carries a percent sign.
func isPercentValued(lowerPath string, raw interface{}) bool {
	if record.IsPercentLike(lowerPath) {
		return true
	}
	if s, ok := raw.(string); ok {
		return strings.HasSuffix(strings.TrimSpace(s), "%")
	}
	return false
}

// qualityAliases maps composite-score parts to their accepted paths.
var qualityAliases = map[string][]string{
	"selection":     {"quality.selection", "quality.newcastleOttawa.selection"},
	"comparability": {"quality.comparability", "quality.newcastleOttawa.comparability"},
	"outcome":       {"quality.outcome", "quality.newcastleOttawa.outcome"},
	"total":         {"quality.total", "quality.newcastleOttawa.total", "quality.newcastleOttawa"},
}

// checkQualityComposite validates the 0-9 composite quality score: each
// sub-score within its bound, and sub-scores summing to the stated total
// within tolerance.
func checkQualityComposite(r record.Record) []critique.Issue {
	get := func(part string) (float64, string, bool) {
		for _, path := range qualityAliases[part] {
			if v, ok := r.GetValue(path); ok {
				if n, okNum := record.AsFloat(v); okNum {
					return n, path, true
				}
			}
		}
		return 0, "", false
	}

	var issues []critique.Issue

	sel, selPath, hasSel := get("selection")
	comp, compPath, hasComp := get("comparability")
	out, outPath, hasOut := get("outcome")
	total, totalPath, hasTotal := get("total")

	bound := func(name, path string, v float64, max float64) {
		if v < 0 || v > max {
			issues = append(issues, critique.Issue{
				CriticID:     rangeCriticID,
				Field:        path,
				Severity:     critique.SeverityCritical,
				Message:      fmt.Sprintf("Quality %s score out of range: %v (valid range: 0-%v)", name, v, max),
				CurrentValue: v,
			})
		}
	}
	if hasSel {
		bound("selection", selPath, sel, qualitySelectionMax)
	}
	if hasComp {
		bound("comparability", compPath, comp, qualityComparabilityMax)
	}
	if hasOut {
		bound("outcome", outPath, out, qualityOutcomeMax)
	}
	if hasTotal {
		bound("total", totalPath, total, qualityTotalMax)
	}

	if hasSel && hasComp && hasOut && hasTotal {
		sum := sel + comp + out
		if math.Abs(sum-total) > qualitySumTolerance {
			issues = append(issues, critique.Issue{
				CriticID:       rangeCriticID,
				Field:          totalPath,
				Severity:       critique.SeverityCritical,
				Message:        fmt.Sprintf("Quality sub-scores sum to %v but stated total is %v", sum, total),
				CurrentValue:   total,
				SuggestedValue: sum,
			})
		}
	}

	return issues
}
