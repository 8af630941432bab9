package agents

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"sdcritic/internal/critique"
	"sdcritic/internal/logging"
)

// Synthesize merges the blackboard into consensus findings and
// disagreements. Consensus means two or more distinct agents flagged the
// same field at the same severity; a disagreement is the same field flagged
// at different severities. The matcher collapses near-duplicate messages
// within a consensus finding, and directed cross-references ride along for
// the reviewer.
func Synthesize(ctx context.Context, board *Blackboard, stats DispatchStats, matcher *Matcher) SynthesisResult {
	if matcher == nil {
		matcher = NewMatcher(nil)
	}
	findings := board.Findings()

	type key struct {
		field    string
		severity critique.Severity
	}
	byKey := make(map[key][]Finding)
	byField := make(map[string][]Finding)

	for _, f := range findings {
		for _, field := range f.RelatedFields {
			k := key{field, f.Severity}
			byKey[k] = append(byKey[k], f)
			byField[field] = append(byField[field], f)
		}
	}

	var result SynthesisResult
	result.CrossReferences = board.CrossRefs()
	result.OverallConfidence = meanAgentConfidence(findings)
	for _, f := range findings {
		switch f.Severity {
		case critique.SeverityCritical:
			result.CriticalCount++
		case critique.SeverityWarning:
			result.WarningCount++
		}
	}

	for k, fs := range byKey {
		agentIDs := distinctAgents(fs)
		if len(agentIDs) < 2 {
			continue
		}
		var messages []string
		for _, f := range fs {
			if !containsSimilar(ctx, matcher, messages, f.Finding) {
				messages = append(messages, f.Finding)
			}
		}
		result.Consensus = append(result.Consensus, ConsensusFinding{
			Field:    k.field,
			Severity: k.severity,
			AgentIDs: agentIDs,
			Messages: messages,
		})
	}
	sort.Slice(result.Consensus, func(i, j int) bool {
		return result.Consensus[i].Field < result.Consensus[j].Field
	})

	for field, fs := range byField {
		severities := distinctSeverities(fs)
		if len(severities) < 2 {
			continue
		}
		result.Disagreements = append(result.Disagreements, Disagreement{
			Field:      field,
			Severities: severities,
			AgentIDs:   distinctAgents(fs),
		})
	}
	sort.Slice(result.Disagreements, func(i, j int) bool {
		return result.Disagreements[i].Field < result.Disagreements[j].Field
	})

	result.Summary = buildSummary(findings, result, stats)

	logging.Agents("synthesis: findings=%d consensus=%d disagreements=%d crossRefs=%d confidence=%.2f",
		len(findings), len(result.Consensus), len(result.Disagreements),
		len(result.CrossReferences), result.OverallConfidence)
	return result
}

// meanAgentConfidence averages one confidence per posting agent, so a noisy
// agent with many findings does not dominate. A round with no findings
// reports the neutral 0.5.
func meanAgentConfidence(findings []Finding) float64 {
	perAgent := make(map[string]float64)
	for _, f := range findings {
		if _, ok := perAgent[f.AgentID]; !ok {
			perAgent[f.AgentID] = f.Confidence
		}
	}
	if len(perAgent) == 0 {
		return 0.5
	}
	var sum float64
	for _, c := range perAgent {
		sum += c
	}
	return sum / float64(len(perAgent))
}

func buildSummary(findings []Finding, result SynthesisResult, stats DispatchStats) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d agents ran (%d skipped, %d failed open) and raised %d findings.",
		stats.Dispatched, stats.Skipped, stats.FailedOpen, len(findings))

	if len(result.Consensus) > 0 {
		fields := make([]string, len(result.Consensus))
		for i, c := range result.Consensus {
			fields[i] = fmt.Sprintf("%s (%s, %d agents)", c.Field, c.Severity, len(c.AgentIDs))
		}
		fmt.Fprintf(&b, " Consensus on: %s.", strings.Join(fields, "; "))
	}
	if len(result.Disagreements) > 0 {
		fields := make([]string, len(result.Disagreements))
		for i, d := range result.Disagreements {
			fields[i] = d.Field
		}
		fmt.Fprintf(&b, " Severity disagreement on: %s.", strings.Join(fields, "; "))
	}
	if len(result.CrossReferences) > 0 {
		fmt.Fprintf(&b, " %d cross-references exchanged.", len(result.CrossReferences))
	}
	return b.String()
}

func containsSimilar(ctx context.Context, matcher *Matcher, kept []string, msg string) bool {
	for _, k := range kept {
		if matcher.Similar(ctx, k, msg) {
			return true
		}
	}
	return false
}

func distinctAgents(fs []Finding) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, f := range fs {
		if _, ok := seen[f.AgentID]; !ok {
			seen[f.AgentID] = struct{}{}
			out = append(out, f.AgentID)
		}
	}
	sort.Strings(out)
	return out
}

func distinctSeverities(fs []Finding) []critique.Severity {
	seen := make(map[critique.Severity]struct{})
	var out []critique.Severity
	for _, f := range fs {
		if _, ok := seen[f.Severity]; !ok {
			seen[f.Severity] = struct{}{}
			out = append(out, f.Severity)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
