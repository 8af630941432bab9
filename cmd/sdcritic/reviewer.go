package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"sdcritic/internal/critique"
	"sdcritic/internal/review"
)

// terminalResolver prompts the operator for a decision on each critical
// issue. It implements the review contract: nothing proceeds until every
// flagged field has an explicit accept, reject, or modify.
type terminalResolver struct {
	out io.Writer
	in  *bufio.Scanner
}

func newTerminalResolver(out io.Writer, in io.Reader) review.Resolver {
	return &terminalResolver{out: out, in: bufio.NewScanner(in)}
}

func (t *terminalResolver) Resolve(ctx context.Context, req critique.HumanReviewRequest) (critique.HumanReviewResponse, error) {
	fmt.Fprintf(t.out, "\n⏸ Review required for run %s: %s\n", req.RunID, req.Summary)
	fmt.Fprintf(t.out, "Preliminary confidence: %.2f\n\n", req.PreliminaryConfidence)

	resp := critique.HumanReviewResponse{}
	for i, issue := range req.CriticalIssues {
		fmt.Fprintf(t.out, "[%d/%d] %s\n", i+1, len(req.CriticalIssues), issue.Field)
		fmt.Fprintf(t.out, "    %s\n", issue.Message)
		if issue.CurrentValue != nil {
			fmt.Fprintf(t.out, "    current:   %v\n", issue.CurrentValue)
		}
		if issue.SuggestedValue != nil {
			fmt.Fprintf(t.out, "    suggested: %v\n", issue.SuggestedValue)
		}
		if issue.SourceEvidence != "" {
			fmt.Fprintf(t.out, "    evidence:  %q\n", issue.SourceEvidence)
		}

		decision, err := t.promptDecision(ctx, issue)
		if err != nil {
			return critique.HumanReviewResponse{}, err
		}
		resp.Decisions = append(resp.Decisions, decision)
	}

	approved, err := t.promptYesNo("Approve this record with the decisions above? [y/N] ")
	if err != nil {
		return critique.HumanReviewResponse{}, err
	}
	resp.Approved = approved

	reviewer, err := t.promptLine("Reviewer name (optional): ")
	if err != nil {
		return critique.HumanReviewResponse{}, err
	}
	resp.Reviewer = reviewer
	return resp, nil
}

func (t *terminalResolver) promptDecision(ctx context.Context, issue critique.Issue) (critique.FieldDecision, error) {
	for {
		if err := ctx.Err(); err != nil {
			return critique.FieldDecision{}, err
		}
		line, err := t.promptLine("    decision [a]ccept / [r]eject / [m]odify: ")
		if err != nil {
			return critique.FieldDecision{}, err
		}

		d := critique.FieldDecision{Field: issue.Field}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "a", "accept":
			d.Action = critique.ReviewAccept
		case "r", "reject":
			d.Action = critique.ReviewReject
		case "m", "modify":
			d.Action = critique.ReviewModify
			value, err := t.promptLine("    new value: ")
			if err != nil {
				return critique.FieldDecision{}, err
			}
			d.CustomValue = value
		default:
			fmt.Fprintln(t.out, "    please answer a, r, or m")
			continue
		}

		rationale, err := t.promptLine("    rationale (optional): ")
		if err != nil {
			return critique.FieldDecision{}, err
		}
		d.Rationale = rationale
		return d, nil
	}
}

func (t *terminalResolver) promptYesNo(prompt string) (bool, error) {
	line, err := t.promptLine(prompt)
	if err != nil {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

func (t *terminalResolver) promptLine(prompt string) (string, error) {
	fmt.Fprint(t.out, prompt)
	if !t.in.Scan() {
		if err := t.in.Err(); err != nil {
			return "", err
		}
		return "", fmt.Errorf("input closed during review")
	}
	return strings.TrimSpace(t.in.Text()), nil
}
