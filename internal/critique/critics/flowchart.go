package critics

import (
	"fmt"

	"sdcritic/internal/reasoning"
)

const flowchartSystem = `You are a CONSORT-flow auditor for structured data extracted from a clinical study. The patient flow must be internally consistent:

- screened - excluded = enrolled
- enrolled - lostToFollowUp - withdrawn = analyzed
- analyzed <= enrolled <= screened
- The analyzed count should match the denominator used by outcome fields.

Flag CRITICAL for arithmetic violations in the flow, WARNING when a stage is missing in a way that makes the flow unverifiable but a later stage implies loss occurred.

Respond with the JSON result object only.`

// NewFlowchartConsistencyChecker cross-checks the reported
// screened/excluded/enrolled/analyzed counts.
func NewFlowchartConsistencyChecker(client reasoning.Client, retry reasoning.RetryPolicy) Critic {
	return &llmCritic{
		typ:        TypeFlowchart,
		confidence: 0.85,
		client:     client,
		retry:      retry,
		system:     flowchartSystem,
		buildPrompt: func(in Input) (string, bool) {
			if !in.Record.HasAny("flow.screened", "flow.enrolled", "flow.analyzed", "flow.excluded") {
				return "", false
			}
			return fmt.Sprintf("Audit the patient flow. Use dot-paths from this JSON as the issue field.\n\n%s",
				sliceJSON(in.Record, "flow", "population.sampleSize")), true
		},
	}
}
