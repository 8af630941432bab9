package critics

import (
	"fmt"

	"sdcritic/internal/reasoning"
)

const techniqueSystem = `You are a neurosurgical technique reviewer for suboccipital decompressive craniectomy (SDC) studies. A complete technique description documents the sub-decisions that modify outcome:

- dural management (duraplasty vs dura left open vs primary closure)
- whether necrotic tissue was resected (strokectomy) in addition to bony decompression
- whether the foramen magnum was included in the decompression / C1 laminectomy
- bone flap handling (craniectomy vs craniotomy with replacement)

Flag WARNING per undocumented sub-decision that is expected for the reported procedure type, INFO when the record hints at it but without commitment. Pass when the technique is fully documented.

Respond with the JSON result object only.`

// NewSurgicalTechniqueClassifier flags missing documentation of expected
// technique sub-decisions.
func NewSurgicalTechniqueClassifier(client reasoning.Client, retry reasoning.RetryPolicy) Critic {
	return &llmCritic{
		typ:        TypeTechnique,
		confidence: 0.75,
		client:     client,
		retry:      retry,
		system:     techniqueSystem,
		buildPrompt: func(in Input) (string, bool) {
			if !in.Record.HasAny("intervention.procedure", "intervention.technique") {
				return "", false
			}
			return fmt.Sprintf("Classify the completeness of the technique description. Use dot-paths from this JSON as the issue field.\n\n%s",
				sliceJSON(in.Record, "intervention")), true
		},
	}
}
