package layer1

import (
	"sdcritic/internal/critique"
	"sdcritic/internal/logging"
	"sdcritic/internal/record"
)

// Run executes all deterministic validators in order. Passed is true iff no
// CRITICAL issue was raised; Errors carries the CRITICAL messages only while
// warnings ride along in Issues for the orchestrator to retain.
// Running twice on the same unmodified record yields identical issue lists.
func Run(r record.Record) critique.Layer1Result {
	timer := logging.StartTimer(logging.CategoryLayer1, "layer1.Run")
	defer timer.Stop()

	var issues []critique.Issue
	issues = append(issues, CheckArithmetic(r)...)
	issues = append(issues, CheckRanges(r)...)
	issues = append(issues, CheckCompleteness(r)...)

	result := critique.Layer1Result{Passed: true, Issues: issues}
	for _, is := range issues {
		if is.Severity == critique.SeverityCritical {
			result.Passed = false
			result.Errors = append(result.Errors, is.Message)
		}
	}

	logging.Layer1("Run: %d issues (%d critical), passed=%v",
		len(issues), len(result.Errors), result.Passed)
	return result
}
