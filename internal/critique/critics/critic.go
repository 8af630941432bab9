// Package critics implements the Layer 2 semantic critics: independent,
// reasoning-service-backed checks for domain-specific logical consistency.
// Critics run concurrently; a failure in one never blocks the others.
package critics

import (
	"context"
	"encoding/json"

	"sdcritic/internal/critique"
	"sdcritic/internal/record"
)

// Type tags a critic in the registry. Triage selects a subset of these
// keys rather than branching on a switch.
type Type string

const (
	TypeScaleInversion      Type = "scale_inversion"
	TypeEVDConfounding      Type = "evd_confounding"
	TypeMathConsistency     Type = "math_consistency"
	TypeEtiologySegregation Type = "etiology_segregation"
	TypeFlowchart           Type = "flowchart_consistency"
	TypeTechnique           Type = "surgical_technique"
	TypeOutcomeDefinition   Type = "outcome_definition"
	TypeSourceCitation      Type = "source_citation"
)

// AllTypes lists every registered critic type in canonical order.
func AllTypes() []Type {
	return []Type{
		TypeScaleInversion,
		TypeEVDConfounding,
		TypeMathConsistency,
		TypeEtiologySegregation,
		TypeFlowchart,
		TypeTechnique,
		TypeOutcomeDefinition,
		TypeSourceCitation,
	}
}

// Input is what a critic sees: the record (each critic slices out what it
// needs) and, when available, the full source text of the paper. Notes carry
// findings other agents have already posted, CrossRefs the directed messages
// peers addressed to this critic; a flat batch leaves both empty.
type Input struct {
	Record    record.Record
	FullText  string
	Notes     []string
	CrossRefs []critique.CrossReference
}

// Critic is a single validator unit. Run returns an error only for
// reasoning-service failures; the caller's boundary converts those to
// fail-open results so the batch continues.
type Critic interface {
	Type() Type
	DefaultConfidence() float64
	Run(ctx context.Context, in Input) (critique.CriticResult, error)
}

// sliceJSON marshals a subset of record sections for prompt embedding.
// Missing sections are simply omitted.
func sliceJSON(r record.Record, sections ...string) string {
	slice := make(map[string]interface{})
	for _, s := range sections {
		if v, ok := r.Get(s); ok {
			slice[s] = v
		}
	}
	data, err := json.MarshalIndent(slice, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(data)
}
