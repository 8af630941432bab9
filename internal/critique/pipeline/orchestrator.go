// Package pipeline wires the three validation layers, the multi-agent
// variant, the confidence model and the human-review interrupt into one
// orchestrated run.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"sdcritic/internal/critique"
	"sdcritic/internal/critique/agents"
	"sdcritic/internal/critique/critics"
	"sdcritic/internal/critique/evidence"
	"sdcritic/internal/critique/layer1"
	"sdcritic/internal/logging"
	"sdcritic/internal/record"
	"sdcritic/internal/review"
)

// Options control one pipeline invocation.
type Options struct {
	// Mode selects AUTO (apply safe corrections) or REVIEW (suspend on
	// critical issues).
	Mode critique.Mode

	// MultiAgent switches Layer 2 from the flat critic batch to the
	// triage/dispatch/synthesis round.
	MultiAgent bool

	// Selected restricts the flat batch to specific critics. Ignored when
	// MultiAgent is set (triage decides there). Nil means all.
	Selected []critics.Type
}

// Orchestrator runs records through the full critique pipeline.
type Orchestrator struct {
	registry *critics.Registry
	resolver review.Resolver
	matcher  *agents.Matcher
}

// New creates an orchestrator. A nil resolver defaults to headless
// (reject-everything) review; a nil matcher uses lexical finding matching.
func New(registry *critics.Registry, resolver review.Resolver, matcher *agents.Matcher) *Orchestrator {
	if resolver == nil {
		resolver = review.Headless()
	}
	return &Orchestrator{
		registry: registry,
		resolver: resolver,
		matcher:  matcher,
	}
}

// Run validates one record. The returned report is complete even when the
// record fails: downstream consumers decide what to do with failures.
func (o *Orchestrator) Run(ctx context.Context, r record.Record, fullText string, opts Options) (critique.Report, error) {
	if opts.Mode == "" {
		opts.Mode = critique.ModeAuto
	}
	if opts.Mode != critique.ModeAuto && opts.Mode != critique.ModeReview {
		return critique.Report{}, fmt.Errorf("unknown mode %q", opts.Mode)
	}

	runID := uuid.NewString()
	timer := logging.StartTimer(logging.CategoryPipeline, fmt.Sprintf("run(%s)", runID))
	defer timer.Stop()
	logging.Pipeline("run %s: mode=%s multiAgent=%v", runID, opts.Mode, opts.MultiAgent)

	report := critique.Report{
		RunID: runID,
		Mode:  opts.Mode,
	}

	// Layer 1: deterministic checks always run; their failures are not
	// grounds to skip the deeper layers, since a complete issue list is
	// worth more to the reviewer than a fast exit.
	l1 := layer1.Run(r)
	report.Layer1Results = &l1
	report.Issues = append(report.Issues, l1.Issues...)

	// Layer 2: semantic critics, flat or agent-mediated.
	in := critics.Input{Record: r, FullText: fullText}
	var agentSummary string
	if opts.MultiAgent {
		decision := agents.Triage(r, fullText)
		board := agents.NewBlackboard()
		results, stats := agents.NewDispatcher(o.registry).Dispatch(ctx, in, decision, board)
		synthesis := agents.Synthesize(ctx, board, stats, o.matcher)
		report.Layer2Results = results
		agentSummary = synthesis.Summary
	} else {
		report.Layer2Results = o.registry.RunAll(ctx, in, opts.Selected)
	}
	for _, res := range report.Layer2Results {
		report.Issues = append(report.Issues, res.Issues...)
	}

	// Layer 3: evidence verification.
	l3 := evidence.Run(r, fullText)
	report.Layer3Results = &l3
	report.Issues = append(report.Issues, l3.Issues...)

	report.OverallConfidence = computeConfidence(report.Layer2Results, report.Issues, l3.EvidenceAnchored)

	critical := criticalIssues(report.Issues)
	switch opts.Mode {
	case critique.ModeAuto:
		report.Corrections = applyAutoCorrections(report.Issues)
		report.PassedValidation = len(critical) == 0 && l3.EvidenceAnchored

	case critique.ModeReview:
		if len(critical) == 0 {
			report.PassedValidation = l3.EvidenceAnchored
			break
		}
		resp, err := o.resolver.Resolve(ctx, critique.HumanReviewRequest{
			RunID:                 runID,
			CriticalIssues:        critical,
			Summary:               fmt.Sprintf("%d critical issues require review", len(critical)),
			Record:                r,
			PreliminaryConfidence: report.OverallConfidence,
		})
		if errors.Is(err, review.ErrPending) {
			// Parked on a broker ticket: the report goes out suspended,
			// with no verdict and no corrections.
			report.GeneratedAt = time.Now().UTC()
			report.Summary = buildSummary(report, agentSummary)
			logging.Pipeline("run %s: suspended awaiting review (%d criticals)", runID, len(critical))
			return report, nil
		}
		if err != nil {
			return critique.Report{}, fmt.Errorf("review resolution failed: %w", err)
		}
		report.HumanReview = &resp
		if resp.Approved {
			report.Corrections = applyDecisions(report.Issues, resp.Decisions)
			report.PassedValidation = true
		}
	}

	report.GeneratedAt = time.Now().UTC()
	report.Summary = buildSummary(report, agentSummary)

	logging.Pipeline("run %s: passed=%v confidence=%.2f issues=%d",
		runID, report.PassedValidation, report.OverallConfidence, len(report.Issues))
	return report, nil
}

func criticalIssues(issues []critique.Issue) []critique.Issue {
	var out []critique.Issue
	for _, is := range issues {
		if is.Severity == critique.SeverityCritical {
			out = append(out, is)
		}
	}
	return out
}

// applyAutoCorrections collects suggested values into the corrections map.
// Only CRITICAL issues carrying a concrete suggestion are corrected; warnings
// are surfaced but never acted on, and the record itself is never mutated.
func applyAutoCorrections(issues []critique.Issue) map[string]interface{} {
	corrections := make(map[string]interface{})
	for i := range issues {
		if issues[i].Severity != critique.SeverityCritical {
			continue
		}
		if issues[i].SuggestedValue == nil || issues[i].Field == "" {
			continue
		}
		corrections[issues[i].Field] = issues[i].SuggestedValue
		issues[i].AutoCorrectApplied = true
	}
	if len(corrections) == 0 {
		return nil
	}
	return corrections
}

// applyDecisions converts approved reviewer decisions into corrections:
// accept takes the suggested value when one exists, modify takes the
// reviewer's value, reject leaves the field alone.
func applyDecisions(issues []critique.Issue, decisions []critique.FieldDecision) map[string]interface{} {
	suggested := make(map[string]interface{})
	for _, is := range issues {
		if is.Severity == critique.SeverityCritical && is.SuggestedValue != nil && is.Field != "" {
			suggested[is.Field] = is.SuggestedValue
		}
	}

	corrections := make(map[string]interface{})
	for _, d := range decisions {
		switch d.Action {
		case critique.ReviewAccept:
			if v, ok := suggested[d.Field]; ok {
				corrections[d.Field] = v
			}
		case critique.ReviewModify:
			corrections[d.Field] = d.CustomValue
		}
	}
	if len(corrections) == 0 {
		return nil
	}
	return corrections
}
