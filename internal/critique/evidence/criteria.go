package evidence

import (
	"fmt"
	"strings"

	"sdcritic/internal/critique"
	"sdcritic/internal/record"
)

const criteriaID = "inclusion_criteria"

const (
	minSampleSize      = 5
	smallSeriesCeiling = 10
)

var cerebellarTerms = []string{"cerebellar", "cerebellum", "posterior fossa"}

var sdcTerms = []string{
	"suboccipital", "decompressive craniectomy", "sdc",
	"posterior fossa decompression", "craniectomy",
}

// checkCriteria re-validates that the record belongs in the dataset at all:
// cerebellar diagnosis, decompressive surgery, at least one reported outcome,
// and a sample size large enough to carry evidential weight.
func checkCriteria(r record.Record) []critique.Issue {
	var issues []critique.Issue

	if !mentionsAny(r, []string{"population.diagnosis", "population.etiology", "study.title"}, cerebellarTerms) {
		issues = append(issues, critique.Issue{
			CriticID: criteriaID,
			Field:    "population.diagnosis",
			Severity: critique.SeverityCritical,
			Message:  "No cerebellar diagnosis documented; record does not meet inclusion criteria",
		})
	}

	if !mentionsAny(r, []string{"intervention.procedure", "intervention.technique"}, sdcTerms) {
		issues = append(issues, critique.Issue{
			CriticID: criteriaID,
			Field:    "intervention.procedure",
			Severity: critique.SeverityCritical,
			Message:  "No suboccipital decompressive craniectomy documented; record does not meet inclusion criteria",
		})
	}

	if !r.HasAny("outcomes.mortality", "outcomes.mRS", "outcomes.GOS", "outcomes.favorableOutcome") {
		issues = append(issues, critique.Issue{
			CriticID: criteriaID,
			Field:    "outcomes",
			Severity: critique.SeverityCritical,
			Message:  "No mortality or functional outcome reported; record cannot contribute to synthesis",
		})
	}

	if n, ok := sampleSize(r); ok {
		switch {
		case n < minSampleSize:
			issues = append(issues, critique.Issue{
				CriticID: criteriaID,
				Field:    "population.sampleSize",
				Severity: critique.SeverityWarning,
				Message:  fmt.Sprintf("Sample size %d is below the minimum of %d for inclusion", n, minSampleSize),
			})
		case n < smallSeriesCeiling:
			issues = append(issues, critique.Issue{
				CriticID: criteriaID,
				Field:    "population.sampleSize",
				Severity: critique.SeverityInfo,
				Message:  fmt.Sprintf("Small series (n=%d); findings carry limited evidential weight", n),
			})
		}
	}

	return issues
}

func sampleSize(r record.Record) (int, bool) {
	for _, path := range []string{"population.sampleSize", "population.n"} {
		if v, ok := r.GetValue(path); ok {
			if f, ok := record.AsFloat(v); ok && f == float64(int(f)) {
				return int(f), true
			}
		}
	}
	return 0, false
}

func mentionsAny(r record.Record, paths []string, terms []string) bool {
	for _, path := range paths {
		v, ok := r.GetValue(path)
		if !ok {
			continue
		}
		s := strings.ToLower(record.AsString(v))
		for _, term := range terms {
			if strings.Contains(s, term) {
				return true
			}
		}
	}
	return false
}
