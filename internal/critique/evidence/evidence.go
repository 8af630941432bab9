// Package evidence implements Layer 3: verification that the extracted data
// is grounded in the paper itself. Unlike the Layer 2 critics, everything
// here is deterministic string and number work against the source quotes.
package evidence

import (
	"sdcritic/internal/critique"
	"sdcritic/internal/logging"
	"sdcritic/internal/record"
)

// Run executes all evidence checks against the record and, when available,
// the paper's full text.
func Run(r record.Record, fullText string) critique.Layer3Result {
	anchored, missing, anchorIssues := checkAnchoring(r)

	result := critique.Layer3Result{
		EvidenceAnchored:    anchored,
		MissingSourceFields: missing,
	}
	result.Issues = append(result.Issues, anchorIssues...)
	result.Issues = append(result.Issues, checkHallucination(r, fullText)...)
	result.Issues = append(result.Issues, checkCriteria(r)...)

	critical, warning, _ := critique.CountBySeverity(result.Issues)
	logging.Evidence("layer3: anchored=%v missing=%d critical=%d warning=%d",
		result.EvidenceAnchored, len(result.MissingSourceFields), critical, warning)

	return result
}
