package critics

import (
	"context"
	"fmt"
	"strings"

	"sdcritic/internal/critique"
	"sdcritic/internal/logging"
	"sdcritic/internal/reasoning"
)

// resultSchema is the structured-output contract every reasoning-backed
// critic requests from the service.
var resultSchema = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"passed":     map[string]interface{}{"type": "boolean"},
		"confidence": map[string]interface{}{"type": "number"},
		"issues": map[string]interface{}{
			"type": "array",
			"items": map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"field":          map[string]interface{}{"type": "string"},
					"severity":       map[string]interface{}{"type": "string", "enum": []string{"CRITICAL", "WARNING", "INFO"}},
					"message":        map[string]interface{}{"type": "string"},
					"currentValue":   map[string]interface{}{"type": "string"},
					"suggestedValue": map[string]interface{}{"type": "string"},
					"sourceEvidence": map[string]interface{}{"type": "string"},
				},
				"required": []string{"field", "severity", "message"},
			},
		},
		"crossReferences": map[string]interface{}{
			"type":        "array",
			"description": "Optional directed notes to another reviewer, by its id, when a concern belongs to that reviewer's specialty",
			"items": map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"toAgent": map[string]interface{}{"type": "string"},
					"message": map[string]interface{}{"type": "string"},
				},
				"required": []string{"toAgent", "message"},
			},
		},
	},
	"required": []string{"passed", "issues"},
}

// wireResult mirrors resultSchema for decoding.
type wireResult struct {
	Passed     bool    `json:"passed"`
	Confidence float64 `json:"confidence"`
	Issues     []struct {
		Field          string `json:"field"`
		Severity       string `json:"severity"`
		Message        string `json:"message"`
		CurrentValue   string `json:"currentValue"`
		SuggestedValue string `json:"suggestedValue"`
		SourceEvidence string `json:"sourceEvidence"`
	} `json:"issues"`
	CrossReferences []struct {
		ToAgent string `json:"toAgent"`
		Message string `json:"message"`
	} `json:"crossReferences"`
}

// llmCritic is the shared implementation of a reasoning-backed critic.
// Each named critic supplies its type tag, default confidence, system
// prompt and a prompt builder; buildPrompt returning false means the check
// is not applicable to this record and the critic passes vacuously.
type llmCritic struct {
	typ         Type
	confidence  float64
	client      reasoning.Client
	retry       reasoning.RetryPolicy
	system      string
	buildPrompt func(Input) (string, bool)
}

func (c *llmCritic) Type() Type                 { return c.typ }
func (c *llmCritic) DefaultConfidence() float64 { return c.confidence }

func (c *llmCritic) Run(ctx context.Context, in Input) (critique.CriticResult, error) {
	prompt, applicable := c.buildPrompt(in)
	if !applicable {
		logging.CriticsDebug("%s: not applicable to this record, passing", c.typ)
		return critique.CriticResult{
			CriticID:   string(c.typ),
			Passed:     true,
			Confidence: c.confidence,
		}, nil
	}

	if len(in.Notes) > 0 {
		prompt = fmt.Sprintf("%s\n\nFindings already raised by other reviewers (cross-check, do not repeat verbatim):\n- %s",
			prompt, strings.Join(in.Notes, "\n- "))
	}
	if len(in.CrossRefs) > 0 {
		var refs []string
		for _, cr := range in.CrossRefs {
			refs = append(refs, fmt.Sprintf("from %s: %s", cr.FromAgent, cr.Message))
		}
		prompt = fmt.Sprintf("%s\n\nMessages addressed to you by other reviewers (respond to these within your specialty):\n- %s",
			prompt, strings.Join(refs, "\n- "))
	}

	var raw []byte
	err := c.retry.Do(ctx, string(c.typ), func() error {
		out, callErr := c.client.GenerateStructured(ctx, c.system, prompt, resultSchema)
		if callErr != nil {
			return callErr
		}
		raw = out
		return nil
	})
	if err != nil {
		return critique.CriticResult{}, fmt.Errorf("%s: reasoning call failed: %w", c.typ, err)
	}

	var wire wireResult
	if err := reasoning.ParseJSON(string(raw), &wire); err != nil {
		return critique.CriticResult{}, fmt.Errorf("%s: %w", c.typ, err)
	}

	return c.normalize(wire), nil
}

// normalize converts the wire result into the shared model, filling in the
// critic ID and default confidence.
func (c *llmCritic) normalize(wire wireResult) critique.CriticResult {
	result := critique.CriticResult{
		CriticID:   string(c.typ),
		Passed:     wire.Passed,
		Confidence: wire.Confidence,
	}
	if result.Confidence <= 0 || result.Confidence > 1 {
		result.Confidence = c.confidence
	}

	for _, is := range wire.Issues {
		issue := critique.Issue{
			CriticID:       string(c.typ),
			Field:          is.Field,
			Severity:       normalizeSeverity(is.Severity),
			Message:        is.Message,
			SourceEvidence: is.SourceEvidence,
		}
		if is.CurrentValue != "" {
			issue.CurrentValue = is.CurrentValue
		}
		if is.SuggestedValue != "" {
			issue.SuggestedValue = is.SuggestedValue
		}
		result.Issues = append(result.Issues, issue)
	}

	for _, cr := range wire.CrossReferences {
		if cr.ToAgent == "" || cr.Message == "" || cr.ToAgent == string(c.typ) {
			continue
		}
		result.CrossReferences = append(result.CrossReferences, critique.CrossReference{
			FromAgent: string(c.typ),
			ToAgent:   cr.ToAgent,
			Message:   cr.Message,
		})
	}

	// A critic that raised a CRITICAL issue cannot claim a pass.
	for _, is := range result.Issues {
		if is.Severity == critique.SeverityCritical {
			result.Passed = false
			break
		}
	}

	return result
}

func normalizeSeverity(s string) critique.Severity {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "CRITICAL":
		return critique.SeverityCritical
	case "WARNING":
		return critique.SeverityWarning
	default:
		return critique.SeverityInfo
	}
}
