package agents

import (
	"sdcritic/internal/critique/critics"
	"sdcritic/internal/logging"
	"sdcritic/internal/record"
)

// Data-quality score contributions. The score gates nothing by itself; it
// is reported so downstream consumers can weight the record.
const (
	qualityBase          = 0.5
	qualityFullTextBonus = 0.15
	qualityComparator    = 0.10
	qualityOutcomes      = 0.15
	qualityAssessment    = 0.10
)

// Triage decides deterministically which agents to dispatch for a record.
// No model call is involved: dispatching an agent whose data is absent only
// burns tokens on a vacuous pass.
func Triage(r record.Record, fullText string) TriageDecision {
	flags := r.Flags(fullText)

	score := qualityBase
	if flags.HasFullText {
		score += qualityFullTextBonus
	}
	if flags.HasComparator {
		score += qualityComparator
	}
	if flags.HasOutcomes {
		score += qualityOutcomes
	}
	if flags.HasQuality {
		score += qualityAssessment
	}
	if score > 1.0 {
		score = 1.0
	}

	decision := TriageDecision{
		SkipReason:       make(map[critics.Type]string),
		DataQualityScore: score,
	}

	for _, t := range priorityOrder {
		if reason, skip := skipReason(t, r, flags); skip {
			decision.SkipReason[t] = reason
			continue
		}
		decision.AgentsToDispatch = append(decision.AgentsToDispatch, t)
	}
	decision.PriorityOrder = decision.AgentsToDispatch

	logging.Agents("triage: dispatch=%d skip=%d quality=%.2f",
		len(decision.AgentsToDispatch), len(decision.SkipReason), score)
	return decision
}

// priorityOrder runs the cheap deterministic-leaning agents first so their
// findings are on the blackboard before the broader methodological agents
// read it.
var priorityOrder = []critics.Type{
	critics.TypeSourceCitation,
	critics.TypeMathConsistency,
	critics.TypeScaleInversion,
	critics.TypeFlowchart,
	critics.TypeEVDConfounding,
	critics.TypeEtiologySegregation,
	critics.TypeTechnique,
	critics.TypeOutcomeDefinition,
}

func skipReason(t critics.Type, r record.Record, flags record.ContextFlags) (string, bool) {
	switch t {
	case critics.TypeSourceCitation:
		if len(r.VerifiableFields()) == 0 {
			return "no verifiable fields to check", true
		}
	case critics.TypeMathConsistency:
		if !r.HasAny("population.sampleSize", "population.n") {
			return "no sample size to audit against", true
		}
	case critics.TypeScaleInversion:
		if !flags.HasOutcomes {
			return "no outcome fields reported", true
		}
	case critics.TypeFlowchart:
		if !r.HasAny("flow.screened", "flow.enrolled", "flow.analyzed", "flow.excluded") {
			return "no patient flow reported", true
		}
	case critics.TypeEVDConfounding:
		if !r.HasAny("intervention.evd", "intervention.adjuncts", "intervention.evdCount") {
			return "no adjunct procedures reported", true
		}
	case critics.TypeEtiologySegregation:
		if !r.HasAny("population.etiology", "population.diagnosis", "population.infarctionCount", "population.hemorrhageCount") {
			return "no etiology data reported", true
		}
	case critics.TypeTechnique:
		if !r.HasAny("intervention.procedure", "intervention.technique") {
			return "no technique description reported", true
		}
	case critics.TypeOutcomeDefinition:
		if !flags.HasOutcomes {
			return "no outcome fields reported", true
		}
	}
	return "", false
}
