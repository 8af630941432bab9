package critics

import (
	"fmt"

	"sdcritic/internal/reasoning"
)

const etiologySystem = `You are a methodological critic for cerebellar stroke surgery studies. Cerebellar infarction and cerebellar hemorrhage are distinct etiologies with different natural histories and surgical outcomes.

When the study population mixes both etiologies, outcome reporting that is aggregate (not stratified by etiology) is a methodological limitation for downstream synthesis.

Flag WARNING when the population includes both infarction and hemorrhage patients but outcomes are reported only in aggregate. Pass when the population is a single etiology or outcomes are stratified.

Respond with the JSON result object only.`

// NewEtiologySegregator flags aggregate outcome reporting over a mixed
// infarction/hemorrhage population.
func NewEtiologySegregator(client reasoning.Client, retry reasoning.RetryPolicy) Critic {
	return &llmCritic{
		typ:        TypeEtiologySegregation,
		confidence: 0.80,
		client:     client,
		retry:      retry,
		system:     etiologySystem,
		buildPrompt: func(in Input) (string, bool) {
			if !in.Record.HasAny("population.etiology", "population.diagnosis", "population.infarctionCount", "population.hemorrhageCount") {
				return "", false
			}
			return fmt.Sprintf("Check whether outcomes are segregated by etiology. Use dot-paths from this JSON as the issue field.\n\n%s",
				sliceJSON(in.Record, "population", "outcomes")), true
		},
	}
}
