package critics

import (
	"fmt"

	"sdcritic/internal/reasoning"
)

const scaleInversionSystem = `You are a methodological critic reviewing structured data extracted from a neurosurgical outcome study. You specialize in ordinal outcome scales.

Scale semantics you must enforce:
- mRS (modified Rankin Scale): 0 = no symptoms, 6 = death. LOWER is better. "Favorable" is conventionally mRS 0-2 (sometimes 0-3).
- GOS (Glasgow Outcome Scale): 1 = death, 5 = good recovery. HIGHER is better. "Favorable" is conventionally GOS 4-5.

Flag CRITICAL when the extracted data interprets a scale backwards (e.g. treats high mRS as favorable, or low GOS as favorable), and when co-occurring percentages contradict each other (e.g. mortality 60% alongside favorable outcome 80% in the same cohort - the dead cannot have favorable outcomes).

Respond with the JSON result object only.`

// NewScaleInversionSentinel detects inverted interpretation of ordinal
// outcome scales and contradictory co-occurring percentages.
func NewScaleInversionSentinel(client reasoning.Client, retry reasoning.RetryPolicy) Critic {
	return &llmCritic{
		typ:        TypeScaleInversion,
		confidence: 0.90,
		client:     client,
		retry:      retry,
		system:     scaleInversionSystem,
		buildPrompt: func(in Input) (string, bool) {
			if !in.Record.HasAny("outcomes.mRS", "outcomes.GOS", "outcomes.favorableOutcome", "outcomes.mortality") {
				return "", false
			}
			return fmt.Sprintf("Review the outcome data below for scale inversion or contradictory percentages. Use dot-paths from this JSON as the issue field.\n\n%s",
				sliceJSON(in.Record, "outcomes", "population.sampleSize")), true
		},
	}
}
