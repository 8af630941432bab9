package critics

import (
	"fmt"

	"sdcritic/internal/reasoning"
)

const evdConfoundingSystem = `You are a methodological critic reviewing structured data extracted from a study of suboccipital decompressive craniectomy (SDC) for cerebellar stroke.

External ventricular drainage (EVD) is an invasive CSF-diversion adjunct. When EVD was used in a subset of patients, outcomes attributed to SDC are confounded unless they are stratified by EVD use (SDC alone vs SDC+EVD).

Flag WARNING (or CRITICAL if outcomes are clearly attributed to SDC alone despite mixed EVD use) when the data reports EVD use in some patients but the outcome fields are aggregate and unstratified. Pass when EVD was not used, was used in all patients, or outcomes are stratified.

Respond with the JSON result object only.`

// NewEVDConfoundingDetector flags unstratified outcomes when an invasive
// adjunct procedure was used in only a subset of patients.
func NewEVDConfoundingDetector(client reasoning.Client, retry reasoning.RetryPolicy) Critic {
	return &llmCritic{
		typ:        TypeEVDConfounding,
		confidence: 0.85,
		client:     client,
		retry:      retry,
		system:     evdConfoundingSystem,
		buildPrompt: func(in Input) (string, bool) {
			if !in.Record.HasAny("intervention.evd", "intervention.adjuncts", "intervention.evdCount") {
				return "", false
			}
			return fmt.Sprintf("Check whether outcomes are stratified by EVD use. Use dot-paths from this JSON as the issue field.\n\n%s",
				sliceJSON(in.Record, "intervention", "outcomes")), true
		},
	}
}
