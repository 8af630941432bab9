package evidence

import (
	"fmt"
	"strings"

	"sdcritic/internal/critique"
	"sdcritic/internal/record"
)

const hallucinationID = "hallucination_check"

// checkHallucination cross-examines every verifiable field: the numbers in
// the extracted value must appear in the field's own quote, and the quote
// itself must appear in the paper. A value whose numbers are absent from its
// supposed source is the strongest fabrication signal this layer has.
func checkHallucination(r record.Record, fullText string) []critique.Issue {
	var issues []critique.Issue

	for path, field := range r.VerifiableFields() {
		quote := strings.TrimSpace(field.SourceText)
		if len(quote) < minQuoteLen {
			// Anchoring already reports short or absent quotes.
			continue
		}

		value := record.AsString(field.Value)
		for _, tok := range record.NumericTokens(value) {
			if !record.ContainsNumber(quote, tok) {
				issues = append(issues, critique.Issue{
					CriticID:       hallucinationID,
					Field:          path,
					Severity:       critique.SeverityCritical,
					Message:        fmt.Sprintf("Extracted value %q contains %s, which does not appear in its source quote", value, tok),
					CurrentValue:   field.Value,
					SourceEvidence: quote,
				})
				break
			}
		}

		if fullText != "" && !strings.Contains(fullText, quote) {
			issues = append(issues, critique.Issue{
				CriticID:       hallucinationID,
				Field:          path,
				Severity:       critique.SeverityWarning,
				Message:        fmt.Sprintf("Source quote for %s could not be located in the paper text", path),
				SourceEvidence: quote,
			})
		}
	}

	return issues
}
