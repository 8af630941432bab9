package critics

import (
	"fmt"

	"sdcritic/internal/reasoning"
)

const outcomeDefinitionSystem = `You are an outcome-definition auditor for clinical study extractions. An outcome is usable for synthesis only when it is defined unambiguously:

- "Favorable outcome" must state the scale and cutoff (e.g. "mRS 0-2 at 90 days", "GOS 4-5 at discharge"). Without a cutoff it is ambiguous.
- "Mortality" must state a timepoint (in-hospital, 30-day, 90-day, 1-year). Bare "mortality" is ambiguous.
- Functional outcomes must state the assessment timepoint.

Flag WARNING per ambiguous definition, naming what is missing (cutoff or timepoint). Pass when every reported outcome carries scale, cutoff and timepoint as applicable.

Respond with the JSON result object only.`

// NewOutcomeDefinitionVerifier flags outcome definitions lacking an
// explicit threshold or timepoint.
func NewOutcomeDefinitionVerifier(client reasoning.Client, retry reasoning.RetryPolicy) Critic {
	return &llmCritic{
		typ:        TypeOutcomeDefinition,
		confidence: 0.80,
		client:     client,
		retry:      retry,
		system:     outcomeDefinitionSystem,
		buildPrompt: func(in Input) (string, bool) {
			if _, ok := in.Record.Get("outcomes"); !ok {
				return "", false
			}
			return fmt.Sprintf("Audit the outcome definitions. Use dot-paths from this JSON as the issue field.\n\n%s",
				sliceJSON(in.Record, "outcomes")), true
		},
	}
}
