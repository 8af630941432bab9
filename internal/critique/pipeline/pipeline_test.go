package pipeline

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"sdcritic/internal/critique"
	"sdcritic/internal/critique/critics"
	"sdcritic/internal/record"
	"sdcritic/internal/review"
)

const cleanPaper = `We reviewed 52 patients with cerebellar infarction treated by suboccipital
decompressive craniectomy. The mean age was 61.3 years. An external ventricular
drain was placed in 30 patients. 10 of the 52 patients (19.2%) died in hospital.
A favorable outcome (mRS 0-2) was achieved in 28 of 52 patients (53.8%).
Median length of stay was 14 days. Surgical site infection occurred in 3 patients.`

func cleanRecord() record.Record {
	return record.Record{
		"study": map[string]interface{}{
			"firstAuthor": "Meyer",
			"year":        2019,
		},
		"population": map[string]interface{}{
			"diagnosis": "cerebellar infarction",
			"sampleSize": map[string]interface{}{
				"value":      52,
				"sourceText": "We reviewed 52 patients with cerebellar infarction",
			},
			"age": map[string]interface{}{
				"mean": map[string]interface{}{
					"value":      61.3,
					"sourceText": "The mean age was 61.3 years",
				},
			},
		},
		"intervention": map[string]interface{}{
			"procedure": map[string]interface{}{
				"value":      "suboccipital decompressive craniectomy",
				"sourceText": "treated by suboccipital\ndecompressive craniectomy",
			},
			"evd": map[string]interface{}{
				"value":      "30 patients",
				"sourceText": "An external ventricular\ndrain was placed in 30 patients",
			},
		},
		"outcomes": map[string]interface{}{
			"mortality": map[string]interface{}{
				"value":      "10/52 (19.2%)",
				"sourceText": "10 of the 52 patients (19.2%) died in hospital",
			},
			"favorableOutcome": map[string]interface{}{
				"value":      "28/52 (53.8%)",
				"sourceText": "A favorable outcome (mRS 0-2) was achieved in 28 of 52 patients (53.8%)",
			},
			"lengthOfStay": map[string]interface{}{
				"value":      "14 days",
				"sourceText": "Median length of stay was 14 days",
			},
			"complications": map[string]interface{}{
				"value":      "3 infections",
				"sourceText": "Surgical site infection occurred in 3 patients",
			},
		},
	}
}

// passingStub satisfies the critic interface without a reasoning service.
type passingStub struct {
	typ    critics.Type
	result critique.CriticResult
	err    error
}

func (s passingStub) Type() critics.Type         { return s.typ }
func (s passingStub) DefaultConfidence() float64 { return 0.8 }
func (s passingStub) Run(context.Context, critics.Input) (critique.CriticResult, error) {
	return s.result, s.err
}

func passingRegistry(types ...critics.Type) *critics.Registry {
	reg := critics.NewRegistry()
	for _, t := range types {
		reg.Register(passingStub{
			typ:    t,
			result: critique.CriticResult{CriticID: string(t), Passed: true, Confidence: 0.8},
		})
	}
	return reg
}

func TestAutoModeCleanRecordPasses(t *testing.T) {
	o := New(passingRegistry("stub_a", "stub_b"), nil, nil)
	rep, err := o.Run(context.Background(), cleanRecord(), cleanPaper, Options{Mode: critique.ModeAuto})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if !rep.PassedValidation {
		t.Errorf("clean record should pass; issues: %+v", rep.Issues)
	}
	if rep.Layer1Results == nil || !rep.Layer1Results.Passed {
		t.Error("layer 1 should pass")
	}
	if rep.Layer3Results == nil || !rep.Layer3Results.EvidenceAnchored {
		t.Errorf("record should be anchored, missing: %v", rep.Layer3Results.MissingSourceFields)
	}
	if rep.RunID == "" || rep.GeneratedAt.IsZero() {
		t.Error("report metadata incomplete")
	}
	if !strings.Contains(rep.Summary, "passed") {
		t.Errorf("summary = %q", rep.Summary)
	}
}

func TestAutoModeAppliesCorrections(t *testing.T) {
	r := cleanRecord()
	// 20/100 is 20%, not 35%: arithmetic flags this and suggests the fix.
	r["outcomes"].(map[string]interface{})["mortality"] = map[string]interface{}{
		"value":      "20/100 (35.0%)",
		"sourceText": "20 of 100 patients (35.0%) died in hospital",
	}

	o := New(passingRegistry("stub_a"), nil, nil)
	rep, err := o.Run(context.Background(), r, "", Options{Mode: critique.ModeAuto})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if rep.PassedValidation {
		t.Error("record with a critical issue must not pass")
	}
	got, ok := rep.Corrections["outcomes.mortality"]
	if !ok {
		t.Fatalf("corrections missing mortality fix: %v", rep.Corrections)
	}
	if got != "20/100 (20.0%)" {
		t.Errorf("correction = %v, want 20/100 (20.0%%)", got)
	}

	applied := false
	for _, is := range rep.Issues {
		if is.Field == "outcomes.mortality" && is.AutoCorrectApplied {
			applied = true
		}
	}
	if !applied {
		t.Error("corrected issue should be marked AutoCorrectApplied")
	}
	if !strings.Contains(rep.Summary, "auto-corrected") {
		t.Errorf("summary = %q, want the auto-corrected status", rep.Summary)
	}
}

func TestAutoModeIgnoresWarningSuggestions(t *testing.T) {
	reg := passingRegistry("stub_a")
	reg.Register(passingStub{
		typ: "stub_warn",
		result: critique.CriticResult{
			CriticID:   "stub_warn",
			Passed:     true,
			Confidence: 0.8,
			Issues: []critique.Issue{{
				CriticID:       "stub_warn",
				Field:          "outcomes.followUp",
				Severity:       critique.SeverityWarning,
				Message:        "follow-up window is ambiguous",
				SuggestedValue: "90-day",
			}},
		},
	})

	o := New(reg, nil, nil)
	rep, err := o.Run(context.Background(), cleanRecord(), cleanPaper, Options{Mode: critique.ModeAuto})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if _, ok := rep.Corrections["outcomes.followUp"]; ok {
		t.Errorf("warning-severity suggestion must not be auto-applied: %v", rep.Corrections)
	}
	for _, is := range rep.Issues {
		if is.Field == "outcomes.followUp" && is.AutoCorrectApplied {
			t.Error("warning issue must not be marked AutoCorrectApplied")
		}
	}
}

func TestReviewModeSkipsResolverWithoutCriticals(t *testing.T) {
	called := false
	resolver := review.ResolverFunc(func(_ context.Context, _ critique.HumanReviewRequest) (critique.HumanReviewResponse, error) {
		called = true
		return critique.HumanReviewResponse{Approved: true}, nil
	})

	o := New(passingRegistry("stub_a"), resolver, nil)
	rep, err := o.Run(context.Background(), cleanRecord(), cleanPaper, Options{Mode: critique.ModeReview})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if called {
		t.Error("resolver must not be called without critical issues")
	}
	if !rep.PassedValidation {
		t.Error("clean anchored record should pass in REVIEW mode")
	}
}

func TestReviewModeApprovalAppliesDecisions(t *testing.T) {
	r := cleanRecord()
	r["population"].(map[string]interface{})["age"] = map[string]interface{}{
		"mean": map[string]interface{}{
			"value":      150,
			"sourceText": "The mean age was 61.3 years",
		},
	}

	var gotReq critique.HumanReviewRequest
	resolver := review.ResolverFunc(func(_ context.Context, req critique.HumanReviewRequest) (critique.HumanReviewResponse, error) {
		gotReq = req
		return critique.HumanReviewResponse{
			Approved: true,
			Decisions: []critique.FieldDecision{
				{Field: "population.age.mean", Action: critique.ReviewModify, CustomValue: 61.3, Rationale: "value in text"},
			},
			Reviewer: "reviewer-a",
		}, nil
	})

	o := New(passingRegistry("stub_a"), resolver, nil)
	rep, err := o.Run(context.Background(), r, cleanPaper, Options{Mode: critique.ModeReview})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(gotReq.CriticalIssues) == 0 {
		t.Fatal("resolver should receive the critical issues")
	}
	if !rep.PassedValidation {
		t.Error("approved review should pass validation")
	}
	if rep.Corrections["population.age.mean"] != 61.3 {
		t.Errorf("corrections = %v", rep.Corrections)
	}
	if rep.HumanReview == nil || rep.HumanReview.Reviewer != "reviewer-a" {
		t.Errorf("review response not recorded: %+v", rep.HumanReview)
	}
}

func TestReviewModeHeadlessRejects(t *testing.T) {
	r := cleanRecord()
	r["population"].(map[string]interface{})["age"] = map[string]interface{}{
		"mean": map[string]interface{}{"value": 150, "sourceText": "The mean age was 61.3 years"},
	}

	o := New(passingRegistry("stub_a"), nil, nil)
	rep, err := o.Run(context.Background(), r, cleanPaper, Options{Mode: critique.ModeReview})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if rep.PassedValidation {
		t.Error("headless rejection must not pass validation")
	}
	if rep.HumanReview == nil || rep.HumanReview.Approved {
		t.Errorf("review response = %+v", rep.HumanReview)
	}
	if len(rep.Corrections) != 0 {
		t.Errorf("rejected review must not apply corrections: %v", rep.Corrections)
	}
}

func TestReviewModePendingSuspendsRun(t *testing.T) {
	r := cleanRecord()
	r["population"].(map[string]interface{})["age"] = map[string]interface{}{
		"mean": map[string]interface{}{"value": 150, "sourceText": "The mean age was 61.3 years"},
	}

	broker := review.NewBroker()
	o := New(passingRegistry("stub_a"), review.Enqueue(broker), nil)
	rep, err := o.Run(context.Background(), r, cleanPaper, Options{Mode: critique.ModeReview})
	if err != nil {
		t.Fatalf("a parked review is not a run failure: %v", err)
	}

	if rep.PassedValidation {
		t.Error("suspended run must not pass validation")
	}
	if rep.HumanReview != nil {
		t.Errorf("suspended run has no verdict yet: %+v", rep.HumanReview)
	}
	if len(rep.Corrections) != 0 {
		t.Errorf("suspended run must not carry corrections: %v", rep.Corrections)
	}
	if !strings.Contains(rep.Summary, "awaiting review") {
		t.Errorf("summary = %q, want the awaiting-review status", rep.Summary)
	}
	if len(broker.Pending()) != 1 {
		t.Errorf("broker should hold the parked ticket, pending: %v", broker.Pending())
	}
}

func TestReviewModeResolverError(t *testing.T) {
	r := cleanRecord()
	r["population"].(map[string]interface{})["age"] = map[string]interface{}{
		"mean": map[string]interface{}{"value": 150, "sourceText": "The mean age was 61.3 years"},
	}
	resolver := review.ResolverFunc(func(_ context.Context, _ critique.HumanReviewRequest) (critique.HumanReviewResponse, error) {
		return critique.HumanReviewResponse{}, errors.New("reviewer channel closed")
	})

	o := New(passingRegistry("stub_a"), resolver, nil)
	if _, err := o.Run(context.Background(), r, cleanPaper, Options{Mode: critique.ModeReview}); err == nil {
		t.Error("resolver failure should surface as a run error")
	}
}

func TestMultiAgentRun(t *testing.T) {
	reg := critics.NewRegistry()
	reg.Register(critics.NewSourceCitationVerifier())

	o := New(reg, nil, nil)
	rep, err := o.Run(context.Background(), cleanRecord(), cleanPaper, Options{Mode: critique.ModeAuto, MultiAgent: true})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(rep.Layer2Results) == 0 {
		t.Error("multi-agent run should produce layer 2 results")
	}
	if !strings.Contains(rep.Summary, "agents ran") {
		t.Errorf("summary should carry the agent synthesis: %q", rep.Summary)
	}
}

func TestUnknownModeRejected(t *testing.T) {
	o := New(passingRegistry("stub_a"), nil, nil)
	if _, err := o.Run(context.Background(), cleanRecord(), "", Options{Mode: "DRY_RUN"}); err == nil {
		t.Error("unknown mode should error")
	}
}

func TestComputeConfidence(t *testing.T) {
	results := func(confs ...float64) []critique.CriticResult {
		out := make([]critique.CriticResult, len(confs))
		for i, c := range confs {
			out[i] = critique.CriticResult{Confidence: c}
		}
		return out
	}
	issues := func(severities ...critique.Severity) []critique.Issue {
		out := make([]critique.Issue, len(severities))
		for i, s := range severities {
			out[i] = critique.Issue{Severity: s}
		}
		return out
	}

	tests := []struct {
		name     string
		layer2   []critique.CriticResult
		issues   []critique.Issue
		anchored bool
		want     float64
	}{
		{"no critics clean", nil, nil, true, 0.5},
		{"mean of critics", results(0.8, 0.6), nil, true, 0.7},
		{"fail-open excluded", results(0.8, 0, 0.6), nil, true, 0.7},
		{"critical penalty", results(0.8), issues(critique.SeverityCritical), true, 0.6},
		{"warning penalty", results(0.8), issues(critique.SeverityWarning), true, 0.75},
		{"unanchored penalty", results(0.8), nil, false, 0.7},
		{"clamped at zero", results(0.2), issues(critique.SeverityCritical, critique.SeverityCritical), false, 0},
		{"info ignored", results(0.8), issues(critique.SeverityInfo), true, 0.8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := computeConfidence(tt.layer2, tt.issues, tt.anchored)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("confidence = %v, want %v", got, tt.want)
			}
		})
	}
}
