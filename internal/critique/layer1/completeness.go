package layer1

import (
	"fmt"

	"sdcritic/internal/critique"
	"sdcritic/internal/record"
)

const completenessCriticID = "completeness"

// essentialField is a field any downstream synthesis needs, with its
// accepted path aliases.
type essentialField struct {
	name    string
	aliases []string
}

// essentialFields lists what a usable extraction must carry.
var essentialFields = []essentialField{
	{"first author", []string{"study.firstAuthor", "study.author", "firstAuthor"}},
	{"publication year", []string{"study.year", "study.publicationYear", "year"}},
	{"sample size", []string{"population.sampleSize", "population.n", "sampleSize"}},
	{"procedure", []string{"intervention.procedure", "intervention.technique", "procedure"}},
	{"mortality", []string{"outcomes.mortality", "mortality"}},
}

// CheckCompleteness flags a WARNING for every essential field that is
// absent or empty, and for a declared comparator group without a size.
func CheckCompleteness(r record.Record) []critique.Issue {
	var issues []critique.Issue

	for _, f := range essentialFields {
		if r.HasAny(f.aliases...) {
			continue
		}
		issues = append(issues, critique.Issue{
			CriticID: completenessCriticID,
			Field:    f.aliases[0],
			Severity: critique.SeverityWarning,
			Message:  fmt.Sprintf("Essential field missing: %s (checked %v)", f.name, f.aliases),
		})
	}

	// Comparator declared but unsized: downstream effect estimates need the
	// denominator.
	if present, ok := r.GetValue("comparator.present"); ok {
		if b, isBool := present.(bool); isBool && b && !r.HasAny("comparator.groupSize", "comparator.n") {
			issues = append(issues, critique.Issue{
				CriticID: completenessCriticID,
				Field:    "comparator.groupSize",
				Severity: critique.SeverityWarning,
				Message:  "Comparator group declared present but its size is missing",
			})
		}
	}

	return issues
}
