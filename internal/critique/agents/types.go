// Package agents implements the multi-agent variant of the critique layer:
// a deterministic triage step decides which critic agents are worth
// dispatching, the dispatcher runs them concurrently over a shared
// blackboard, and synthesis merges their findings into consensus.
package agents

import (
	"sdcritic/internal/critique"
	"sdcritic/internal/critique/critics"
)

// Finding is one observation an agent posts to the blackboard.
type Finding struct {
	AgentID       string            `json:"agentId"`
	Finding       string            `json:"finding"`
	Severity      critique.Severity `json:"severity"`
	RelatedFields []string          `json:"relatedFields"`
	Confidence    float64           `json:"confidence"`
}

// TriageDecision records which agents triage selected and why the rest
// were skipped.
type TriageDecision struct {
	AgentsToDispatch []critics.Type          `json:"agentsToDispatch"`
	PriorityOrder    []critics.Type          `json:"priorityOrder"`
	SkipReason       map[critics.Type]string `json:"skipReason,omitempty"`
	DataQualityScore float64                 `json:"dataQualityScore"`
}

// DispatchStats summarizes a dispatch round.
type DispatchStats struct {
	Dispatched int `json:"dispatched"`
	Skipped    int `json:"skipped"`
	FailedOpen int `json:"failedOpen"`
}

// ConsensusFinding is an issue independently raised by two or more agents.
type ConsensusFinding struct {
	Field    string            `json:"field"`
	Severity critique.Severity `json:"severity"`
	AgentIDs []string          `json:"agentIds"`
	Messages []string          `json:"messages"`
}

// Disagreement records agents assigning different severities to the same
// field.
type Disagreement struct {
	Field      string              `json:"field"`
	Severities []critique.Severity `json:"severities"`
	AgentIDs   []string            `json:"agentIds"`
}

// SynthesisResult is the merged outcome of a multi-agent round.
type SynthesisResult struct {
	OverallConfidence float64                   `json:"overallConfidence"`
	CriticalCount     int                       `json:"criticalCount"`
	WarningCount      int                       `json:"warningCount"`
	Consensus         []ConsensusFinding        `json:"consensus"`
	Disagreements     []Disagreement            `json:"disagreements"`
	CrossReferences   []critique.CrossReference `json:"crossReferences,omitempty"`
	Summary           string                    `json:"summary"`
}
