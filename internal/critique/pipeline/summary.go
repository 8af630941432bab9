package pipeline

import (
	"fmt"
	"strings"

	"sdcritic/internal/critique"
)

// buildSummary renders the one-line status plus counts that leads the
// report.
func buildSummary(rep critique.Report, agentSummary string) string {
	critical, warning, info := critique.CountBySeverity(rep.Issues)

	var status string
	switch {
	case rep.HumanReview != nil && !rep.HumanReview.Approved:
		status = "❌ rejected in review"
	case rep.HumanReview != nil && rep.HumanReview.Approved:
		status = "✅ approved in review"
	case rep.Mode == critique.ModeReview && critical > 0:
		// Parked on a review ticket with no verdict recorded yet.
		status = "⏸ awaiting review"
	case len(rep.Corrections) > 0:
		status = "⚠️ auto-corrected"
	case !rep.PassedValidation:
		status = "❌ failed validation"
	default:
		status = "✅ passed"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s: %d critical, %d warning, %d info; confidence %.2f",
		status, critical, warning, info, rep.OverallConfidence)
	if len(rep.Corrections) > 0 {
		fmt.Fprintf(&b, "; %d corrections applied", len(rep.Corrections))
	}
	if agentSummary != "" {
		fmt.Fprintf(&b, ". %s", agentSummary)
	}
	return b.String()
}
