package pipeline

import "sdcritic/internal/critique"

// Confidence model: start from the mean confidence of the critics that
// actually ran (fail-open results report 0 and are excluded; no critics at
// all means 0.5), then subtract per-issue penalties and the anchoring
// penalty, clamping to [0, 1].
const (
	baselineConfidence = 0.5
	criticalPenalty    = 0.20
	warningPenalty     = 0.05
	unanchoredPenalty  = 0.10
)

func computeConfidence(layer2 []critique.CriticResult, issues []critique.Issue, anchored bool) float64 {
	var sum float64
	var n int
	for _, res := range layer2 {
		if res.Confidence > 0 {
			sum += res.Confidence
			n++
		}
	}
	confidence := baselineConfidence
	if n > 0 {
		confidence = sum / float64(n)
	}

	critical, warning, _ := critique.CountBySeverity(issues)
	confidence -= float64(critical) * criticalPenalty
	confidence -= float64(warning) * warningPenalty
	if !anchored {
		confidence -= unanchoredPenalty
	}

	if confidence < 0 {
		return 0
	}
	if confidence > 1 {
		return 1
	}
	return confidence
}
