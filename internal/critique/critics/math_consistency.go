package critics

import (
	"fmt"

	"sdcritic/internal/reasoning"
)

const mathConsistencySystem = `You are an arithmetic auditor for structured data extracted from a clinical study. Deterministic checks have already validated single-field percentage math; your job is cross-field consistency:

- Diagnostic subgroup counts (e.g. infarction + hemorrhage) should sum to the total sample size.
- Mortality count plus survivor count should equal the sample size.
- Outcome category counts (favorable + unfavorable) should sum to the analyzed population.
- Any "X of N" subgroup must have X <= N.

Flag CRITICAL for each violated identity, naming both fields involved and showing the arithmetic in the message. Pass when the identities hold or the data needed to check them is absent.

Respond with the JSON result object only.`

// NewMathConsistencyChecker catches subgroup-sum mismatches beyond
// Layer 1's single-field scope.
func NewMathConsistencyChecker(client reasoning.Client, retry reasoning.RetryPolicy) Critic {
	return &llmCritic{
		typ:        TypeMathConsistency,
		confidence: 0.95,
		client:     client,
		retry:      retry,
		system:     mathConsistencySystem,
		buildPrompt: func(in Input) (string, bool) {
			if !in.Record.HasAny("population.sampleSize", "population.n") {
				return "", false
			}
			return fmt.Sprintf("Audit cross-field arithmetic. Use dot-paths from this JSON as the issue field.\n\n%s",
				sliceJSON(in.Record, "population", "outcomes")), true
		},
	}
}
