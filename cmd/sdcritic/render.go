package main

import (
	"fmt"
	"sort"
	"strings"

	"sdcritic/internal/critique"
	"sdcritic/internal/record"
)

// renderReport formats a report for the terminal.
func renderReport(rep critique.Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "\nRun %s (%s mode)\n", rep.RunID, rep.Mode)
	fmt.Fprintf(&b, "%s\n", rep.Summary)

	if rep.Layer1Results != nil && len(rep.Layer1Results.Errors) > 0 {
		fmt.Fprintf(&b, "\nDeterministic failures:\n")
		for _, e := range rep.Layer1Results.Errors {
			fmt.Fprintf(&b, "  - %s\n", e)
		}
	}

	if len(rep.Issues) > 0 {
		fmt.Fprintf(&b, "\nIssues:\n")
		for _, is := range groupBySeverity(rep.Issues) {
			marker := "•"
			switch is.Severity {
			case critique.SeverityCritical:
				marker = "✗"
			case critique.SeverityWarning:
				marker = "!"
			}
			fmt.Fprintf(&b, "  %s [%s] %s: %s\n", marker, is.CriticID, is.Field, is.Message)
			if is.AutoCorrectApplied {
				fmt.Fprintf(&b, "      corrected to %v\n", is.SuggestedValue)
			}
		}
	}

	if rep.Layer3Results != nil && len(rep.Layer3Results.MissingSourceFields) > 0 {
		fmt.Fprintf(&b, "\nUnanchored fields: %s\n",
			strings.Join(rep.Layer3Results.MissingSourceFields, ", "))
	}

	if len(rep.Corrections) > 0 {
		fmt.Fprintf(&b, "\nCorrections:\n")
		fields := make([]string, 0, len(rep.Corrections))
		for f := range rep.Corrections {
			fields = append(fields, f)
		}
		sort.Strings(fields)
		for _, f := range fields {
			fmt.Fprintf(&b, "  %s -> %v\n", f, rep.Corrections[f])
		}
	}

	if rep.HumanReview != nil {
		verdict := "rejected"
		if rep.HumanReview.Approved {
			verdict = "approved"
		}
		fmt.Fprintf(&b, "\nHuman review: %s", verdict)
		if rep.HumanReview.Reviewer != "" {
			fmt.Fprintf(&b, " by %s", rep.HumanReview.Reviewer)
		}
		fmt.Fprintf(&b, " (%d decisions)\n", len(rep.HumanReview.Decisions))
	}

	fmt.Fprintf(&b, "\nConfidence %.2f | generated %s\n",
		rep.OverallConfidence, rep.GeneratedAt.Format("2006-01-02 15:04:05 UTC"))
	return b.String()
}

// renderFields prints every verifiable field with its value and quote, the
// extraction-review table an operator reads before judging the critique.
func renderFields(rec record.Record) string {
	fields := rec.VerifiableFields()
	if len(fields) == 0 {
		return "\nNo verifiable fields in record.\n"
	}

	paths := make([]string, 0, len(fields))
	for p := range fields {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	var b strings.Builder
	fmt.Fprintf(&b, "\nVerifiable fields:\n")
	for _, p := range paths {
		f := fields[p]
		fmt.Fprintf(&b, "  %s = %v\n", p, f.Value)
		if f.SourceText != "" {
			fmt.Fprintf(&b, "      %q\n", f.SourceText)
		} else {
			fmt.Fprintf(&b, "      (no source quote)\n")
		}
	}
	return b.String()
}

// groupBySeverity orders issues critical first, then warnings, then info.
func groupBySeverity(issues []critique.Issue) []critique.Issue {
	rank := map[critique.Severity]int{
		critique.SeverityCritical: 0,
		critique.SeverityWarning:  1,
		critique.SeverityInfo:     2,
	}
	out := make([]critique.Issue, len(issues))
	copy(out, issues)
	sort.SliceStable(out, func(i, j int) bool {
		return rank[out[i].Severity] < rank[out[j].Severity]
	})
	return out
}
