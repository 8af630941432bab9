package critics

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"sdcritic/internal/critique"
	"sdcritic/internal/reasoning"
	"sdcritic/internal/record"
)

// mockClient scripts GenerateStructured responses per call.
type mockClient struct {
	responses []string
	errs      []error
	calls     int
}

func (m *mockClient) Complete(ctx context.Context, prompt string) (string, error) {
	return "", errors.New("not used")
}

func (m *mockClient) GenerateStructured(ctx context.Context, system, user string, schema map[string]interface{}) (json.RawMessage, error) {
	i := m.calls
	m.calls++
	if i < len(m.errs) && m.errs[i] != nil {
		return nil, m.errs[i]
	}
	if i < len(m.responses) {
		return json.RawMessage(m.responses[i]), nil
	}
	return json.RawMessage(`{"passed": true, "confidence": 0.9, "issues": []}`), nil
}

// failClient always fails.
type failClient struct{ err error }

func (f *failClient) Complete(ctx context.Context, prompt string) (string, error) {
	return "", f.err
}

func (f *failClient) GenerateStructured(ctx context.Context, system, user string, schema map[string]interface{}) (json.RawMessage, error) {
	return nil, f.err
}

func fastRetry() reasoning.RetryPolicy {
	return reasoning.RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   time.Microsecond,
		Multiplier:  2,
		MaxDelay:    time.Millisecond,
		Jitter:      0,
	}
}

func outcomeRecord() record.Record {
	return record.Record{
		"population": map[string]interface{}{
			"sampleSize": map[string]interface{}{
				"value":      52,
				"sourceText": "A total of 52 patients underwent decompression",
			},
		},
		"outcomes": map[string]interface{}{
			"mortality": map[string]interface{}{
				"value":      "10/52 (19.2%)",
				"sourceText": "Ten of the 52 patients (19.2%) died during follow-up",
			},
		},
	}
}

func TestDefaultRegistryCoversAllTypes(t *testing.T) {
	r := NewDefaultRegistry(&mockClient{}, fastRetry())

	got := r.Types()
	want := AllTypes()
	if len(got) != len(want) {
		t.Fatalf("registry has %d critics, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("registry order[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestLLMCriticCriticalForcesFail(t *testing.T) {
	client := &mockClient{responses: []string{
		`{"passed": true, "confidence": 0.8, "issues": [
			{"field": "outcomes.mRS", "severity": "CRITICAL", "message": "mRS interpreted backwards"}
		]}`,
	}}
	c := NewScaleInversionSentinel(client, fastRetry())

	res, err := c.Run(context.Background(), Input{Record: record.Record{
		"outcomes": map[string]interface{}{
			"mRS": map[string]interface{}{"value": "favorable: mRS 5-6", "sourceText": "x"},
		},
	}})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if res.Passed {
		t.Error("critic claimed pass despite a CRITICAL issue")
	}
	if len(res.Issues) != 1 || res.Issues[0].CriticID != string(TypeScaleInversion) {
		t.Errorf("issue not tagged with critic ID: %+v", res.Issues)
	}
}

func TestLLMCriticDefaultConfidenceFill(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     float64
	}{
		{"zero confidence replaced", `{"passed": true, "confidence": 0, "issues": []}`, 0.95},
		{"out of range replaced", `{"passed": true, "confidence": 1.7, "issues": []}`, 0.95},
		{"valid kept", `{"passed": true, "confidence": 0.6, "issues": []}`, 0.6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &mockClient{responses: []string{tt.response}}
			c := NewMathConsistencyChecker(client, fastRetry())
			res, err := c.Run(context.Background(), Input{Record: outcomeRecord()})
			if err != nil {
				t.Fatalf("Run returned error: %v", err)
			}
			if res.Confidence != tt.want {
				t.Errorf("confidence = %v, want %v", res.Confidence, tt.want)
			}
		})
	}
}

func TestLLMCriticParsesCrossReferences(t *testing.T) {
	client := &mockClient{responses: []string{
		`{"passed": true, "confidence": 0.9, "issues": [], "crossReferences": [
			{"toAgent": "flowchart_consistency", "message": "denominator disagrees with the enrollment count"},
			{"toAgent": "", "message": "dropped: no addressee"},
			{"toAgent": "math_consistency", "message": "dropped: addressed to self"}
		]}`,
	}}
	c := NewMathConsistencyChecker(client, fastRetry())

	res, err := c.Run(context.Background(), Input{Record: outcomeRecord()})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(res.CrossReferences) != 1 {
		t.Fatalf("cross-references = %+v, want the one valid entry", res.CrossReferences)
	}
	cr := res.CrossReferences[0]
	if cr.FromAgent != string(TypeMathConsistency) || cr.ToAgent != string(TypeFlowchart) {
		t.Errorf("cross-reference routing = %+v", cr)
	}
}

func TestLLMCriticVacuousPass(t *testing.T) {
	client := &mockClient{}
	c := NewFlowchartConsistencyChecker(client, fastRetry())

	// No flow section at all: the critic should pass without a service call.
	res, err := c.Run(context.Background(), Input{Record: outcomeRecord()})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if !res.Passed {
		t.Error("inapplicable critic should pass")
	}
	if res.Confidence != c.DefaultConfidence() {
		t.Errorf("confidence = %v, want default %v", res.Confidence, c.DefaultConfidence())
	}
	if client.calls != 0 {
		t.Errorf("inapplicable critic made %d service calls, want 0", client.calls)
	}
}

func TestLLMCriticRetriesTransientFailure(t *testing.T) {
	client := &mockClient{
		errs: []error{
			&reasoning.ServiceError{StatusCode: 429, Message: "rate limited"},
			&reasoning.ServiceError{StatusCode: 503, Message: "overloaded"},
		},
		responses: []string{"", "", `{"passed": true, "confidence": 0.9, "issues": []}`},
	}
	c := NewScaleInversionSentinel(client, fastRetry())

	res, err := c.Run(context.Background(), Input{Record: outcomeRecord()})
	if err != nil {
		t.Fatalf("Run returned error after retries: %v", err)
	}
	if !res.Passed {
		t.Error("expected pass from third attempt")
	}
	if client.calls != 3 {
		t.Errorf("client called %d times, want 3", client.calls)
	}
}

func TestRunAllFailsOpenWhenServiceDown(t *testing.T) {
	client := &failClient{err: &reasoning.ServiceError{StatusCode: 503, Message: "service unavailable"}}
	r := NewDefaultRegistry(client, fastRetry())

	in := Input{
		Record:   outcomeRecord(),
		FullText: "A total of 52 patients underwent decompression. Ten of the 52 patients (19.2%) died during follow-up.",
	}
	results := r.RunAll(context.Background(), in, nil)

	if len(results) != len(AllTypes()) {
		t.Fatalf("got %d results, want %d", len(results), len(AllTypes()))
	}
	for i, res := range results {
		typ := AllTypes()[i]
		if res.CriticID != string(typ) {
			t.Errorf("result %d: critic ID = %s, want %s", i, res.CriticID, typ)
		}
		if typ == TypeSourceCitation {
			// Deterministic critic does not touch the service.
			if res.Confidence == 0 {
				t.Error("citation verifier should not fail open")
			}
			continue
		}
		if !res.Passed || res.Confidence != 0 {
			t.Errorf("%s: want fail-open {passed:true, confidence:0}, got passed=%v confidence=%v",
				typ, res.Passed, res.Confidence)
		}
	}
}

func TestRunAllSelection(t *testing.T) {
	client := &mockClient{}
	r := NewDefaultRegistry(client, fastRetry())

	selected := []Type{TypeMathConsistency, TypeSourceCitation}
	results := r.RunAll(context.Background(), Input{Record: outcomeRecord()}, selected)

	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].CriticID != string(TypeMathConsistency) || results[1].CriticID != string(TypeSourceCitation) {
		t.Errorf("results out of selection order: %s, %s", results[0].CriticID, results[1].CriticID)
	}
}

// panicCritic exercises the per-critic containment boundary.
type panicCritic struct{}

func (panicCritic) Type() Type                 { return Type("panicker") }
func (panicCritic) DefaultConfidence() float64 { return 0.5 }
func (panicCritic) Run(context.Context, Input) (critique.CriticResult, error) {
	panic("critic blew up")
}

func TestRunAllContainsPanic(t *testing.T) {
	r := NewRegistry()
	r.Register(panicCritic{})
	r.Register(NewSourceCitationVerifier())

	results := r.RunAll(context.Background(), Input{Record: outcomeRecord()}, nil)
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if !results[0].Passed || results[0].Confidence != 0 {
		t.Errorf("panicking critic should fail open, got %+v", results[0])
	}
}

func TestCitationVerifier(t *testing.T) {
	fullText := "A total of 52 patients underwent decompression. Ten of the 52 patients (19.2%) died during follow-up."
	v := NewSourceCitationVerifier()

	t.Run("quotes found", func(t *testing.T) {
		res, err := v.Run(context.Background(), Input{Record: outcomeRecord(), FullText: fullText})
		if err != nil {
			t.Fatalf("Run returned error: %v", err)
		}
		if !res.Passed || len(res.Issues) != 0 {
			t.Errorf("want clean pass, got passed=%v issues=%+v", res.Passed, res.Issues)
		}
	})

	t.Run("fabricated quote is critical", func(t *testing.T) {
		r := outcomeRecord()
		r["outcomes"] = map[string]interface{}{
			"mortality": map[string]interface{}{
				"value":      "10/52 (19.2%)",
				"sourceText": "This sentence appears nowhere in the paper text",
			},
		}
		res, err := v.Run(context.Background(), Input{Record: r, FullText: fullText})
		if err != nil {
			t.Fatalf("Run returned error: %v", err)
		}
		if res.Passed {
			t.Error("fabricated quote should fail the critic")
		}
		crit := res.CriticalIssues()
		if len(crit) != 1 || crit[0].Field != "outcomes.mortality" {
			t.Errorf("want one CRITICAL on outcomes.mortality, got %+v", res.Issues)
		}
	})

	t.Run("short quote is warning", func(t *testing.T) {
		r := record.Record{
			"outcomes": map[string]interface{}{
				"mortality": map[string]interface{}{
					"value":      "19.2%",
					"sourceText": "19.2%",
				},
			},
		}
		res, err := v.Run(context.Background(), Input{Record: r, FullText: fullText})
		if err != nil {
			t.Fatalf("Run returned error: %v", err)
		}
		if !res.Passed {
			t.Error("short quote alone should not fail the critic")
		}
		if len(res.Issues) != 1 || res.Issues[0].Severity != critique.SeverityWarning {
			t.Errorf("want one WARNING, got %+v", res.Issues)
		}
	})

	t.Run("no full text skips substring check", func(t *testing.T) {
		res, err := v.Run(context.Background(), Input{Record: outcomeRecord()})
		if err != nil {
			t.Fatalf("Run returned error: %v", err)
		}
		if !res.Passed || len(res.Issues) != 0 {
			t.Errorf("without full text quotes are unverifiable, want pass; got %+v", res)
		}
	})
}
