package critics

import (
	"context"
	"fmt"
	"strings"

	"sdcritic/internal/critique"
)

const minQuoteLen = 10

// citationVerifier is the one Layer 2 critic that needs no model: it
// checks every verifiable field's quote against the paper text directly.
type citationVerifier struct{}

// NewSourceCitationVerifier verifies that each field's sourceText quote
// actually appears in the paper's full text.
func NewSourceCitationVerifier() Critic {
	return citationVerifier{}
}

func (citationVerifier) Type() Type                 { return TypeSourceCitation }
func (citationVerifier) DefaultConfidence() float64 { return 0.95 }

func (c citationVerifier) Run(_ context.Context, in Input) (critique.CriticResult, error) {
	result := critique.CriticResult{
		CriticID:   string(TypeSourceCitation),
		Passed:     true,
		Confidence: c.DefaultConfidence(),
	}

	for path, field := range in.Record.VerifiableFields() {
		quote := strings.TrimSpace(field.SourceText)
		if len(quote) < minQuoteLen {
			result.Issues = append(result.Issues, critique.Issue{
				CriticID: result.CriticID,
				Field:    path,
				Severity: critique.SeverityWarning,
				Message:  fmt.Sprintf("Source quote for %s is too short to verify (%d chars, need %d)", path, len(quote), minQuoteLen),
			})
			continue
		}
		if in.FullText == "" {
			continue
		}
		if !strings.Contains(in.FullText, quote) {
			result.Issues = append(result.Issues, critique.Issue{
				CriticID:       result.CriticID,
				Field:          path,
				Severity:       critique.SeverityCritical,
				Message:        fmt.Sprintf("Source quote for %s not found in paper text", path),
				CurrentValue:   field.Value,
				SourceEvidence: quote,
			})
		}
	}

	if len(result.CriticalIssues()) > 0 {
		result.Passed = false
	}
	return result, nil
}
