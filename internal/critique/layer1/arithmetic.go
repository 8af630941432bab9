// Package layer1 holds the deterministic validators: pure functions over the
// record with no I/O and no failure mode beyond programming error. Layer 1
// always runs first and gates the rest of the pipeline.
package layer1

import (
	"fmt"
	"math"
	"strings"

	"sdcritic/internal/critique"
	"sdcritic/internal/record"
)

const arithmeticCriticID = "arithmetic"

// percentTolerance is the allowed gap, in percentage points, between a
// stated percentage and the one recomputed from its count/total.
const percentTolerance = 1.0

// sampleSizeSegments are path leaf names that must hold a positive integer.
var sampleSizeSegments = map[string]bool{
	"samplesize":    true,
	"n":             true,
	"totalpatients": true,
	"enrolled":      true,
	"groupsize":     true,
}

// CheckArithmetic recomputes every count-over-total percentage in the record
// and flags mismatches beyond 1.0 percentage point. It also flags
// non-positive or non-integer sample sizes. Applies to mortality and any
// dichotomized-outcome field; in practice every leaf carrying an "N/M (P%)"
// shaped value is checked.
func CheckArithmetic(r record.Record) []critique.Issue {
	var issues []critique.Issue

	r.Walk(func(path string, v interface{}) {
		value := v
		sourceText := ""
		if f, ok := record.AsField(v); ok {
			value = f.Value
			sourceText = f.SourceText
		}

		if issue := checkRatioValue(path, value, sourceText); issue != nil {
			issues = append(issues, *issue)
		}
		if issue := checkSampleSize(path, value, sourceText); issue != nil {
			issues = append(issues, *issue)
		}
	})

	return issues
}

// checkRatioValue validates one "N/M (P%)" shaped leaf.
func checkRatioValue(path string, value interface{}, sourceText string) *critique.Issue {
	s, ok := value.(string)
	if !ok {
		return nil
	}
	ratio, ok := record.ParseRatio(s)
	if !ok || !ratio.HasCount || !ratio.HasPercent {
		return nil
	}
	computed, ok := ratio.ComputedPercent()
	if !ok {
		return nil
	}
	if math.Abs(computed-ratio.Percent) <= percentTolerance {
		return nil
	}

	suggested := fmt.Sprintf("%s/%s (%.1f%%)",
		record.AsString(ratio.Count), record.AsString(ratio.Total), computed)
	return &critique.Issue{
		CriticID: arithmeticCriticID,
		Field:    path,
		Severity: critique.SeverityCritical,
		Message: fmt.Sprintf("Percentage math mismatch in %s: %s/%s computes to %.1f%% ≠ stated %s%%",
			path, record.AsString(ratio.Count), record.AsString(ratio.Total), computed, record.AsString(ratio.Percent)),
		CurrentValue:   s,
		SuggestedValue: suggested,
		SourceEvidence: sourceText,
	}
}

// checkSampleSize flags non-positive or non-integer counts on sample-size
// shaped fields.
func checkSampleSize(path string, value interface{}, sourceText string) *critique.Issue {
	segs := strings.Split(path, ".")
	leaf := strings.ToLower(segs[len(segs)-1])
	if !sampleSizeSegments[leaf] {
		return nil
	}
	n, ok := record.AsFloat(value)
	if !ok {
		return nil
	}
	if n > 0 && n == math.Trunc(n) {
		return nil
	}
	return &critique.Issue{
		CriticID: arithmeticCriticID,
		Field:    path,
		Severity: critique.SeverityCritical,
		Message: fmt.Sprintf("Invalid sample size in %s: %s (must be a positive integer)",
			path, record.AsString(value)),
		CurrentValue:   value,
		SourceEvidence: sourceText,
	}
}
