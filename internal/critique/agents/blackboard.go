package agents

import (
	"sync"

	"sdcritic/internal/critique"
)

// Blackboard is the shared context agents post to during one dispatch
// round: findings everyone can read, plus directed cross-reference messages
// addressed to a named peer. It is created per invocation and never shared
// across records.
type Blackboard struct {
	mu        sync.Mutex
	findings  []Finding
	crossRefs []critique.CrossReference
}

// NewBlackboard creates an empty blackboard.
func NewBlackboard() *Blackboard {
	return &Blackboard{}
}

// Post appends a finding.
func (b *Blackboard) Post(f Finding) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.findings = append(b.findings, f)
}

// Findings returns a snapshot of everything posted so far.
func (b *Blackboard) Findings() []Finding {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Finding, len(b.findings))
	copy(out, b.findings)
	return out
}

// PostCrossRef appends a directed message to a named peer agent.
func (b *Blackboard) PostCrossRef(cr critique.CrossReference) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.crossRefs = append(b.crossRefs, cr)
}

// CrossRefs returns a snapshot of every cross-reference posted so far.
func (b *Blackboard) CrossRefs() []critique.CrossReference {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]critique.CrossReference, len(b.crossRefs))
	copy(out, b.crossRefs)
	return out
}

// CrossRefsFor returns the messages addressed to the given agent.
func (b *Blackboard) CrossRefsFor(agentID string) []critique.CrossReference {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []critique.CrossReference
	for _, cr := range b.crossRefs {
		if cr.ToAgent == agentID {
			out = append(out, cr)
		}
	}
	return out
}

// FindingsFor returns findings that touch the given field.
func (b *Blackboard) FindingsFor(field string) []Finding {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []Finding
	for _, f := range b.findings {
		for _, rf := range f.RelatedFields {
			if rf == field {
				out = append(out, f)
				break
			}
		}
	}
	return out
}
