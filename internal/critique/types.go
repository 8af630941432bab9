// Package critique defines the shared issue and report model used by every
// validator layer and by the final pipeline report.
package critique

import "time"

// Severity grades a critique issue.
type Severity string

const (
	SeverityCritical Severity = "CRITICAL" // Blocks acceptance until corrected or reviewed
	SeverityWarning  Severity = "WARNING"  // Suspicious but not blocking
	SeverityInfo     Severity = "INFO"     // Advisory only
)

// Mode selects how the orchestrator handles CRITICAL issues.
type Mode string

const (
	ModeAuto   Mode = "AUTO"   // Apply suggested corrections directly, never pause
	ModeReview Mode = "REVIEW" // Suspend on CRITICAL issues and wait for a human decision
)

// Issue is a single finding raised by a validator against one record field.
// Issues are immutable once raised, except AutoCorrectApplied which is set
// when a correction derived from this issue is committed.
type Issue struct {
	CriticID           string      `json:"criticId"`
	Field              string      `json:"field"` // Dot-path into the record
	Severity           Severity    `json:"severity"`
	Message            string      `json:"message"`
	CurrentValue       interface{} `json:"currentValue,omitempty"`
	SuggestedValue     interface{} `json:"suggestedValue,omitempty"`
	SourceEvidence     string      `json:"sourceEvidence,omitempty"`
	AutoCorrectApplied bool        `json:"autoCorrectApplied,omitempty"`
}

// CrossReference is a directed note from one critic agent to a named peer:
// "you own this concern, look here". Carried on the blackboard alongside
// findings and folded into synthesis.
type CrossReference struct {
	FromAgent string `json:"fromAgent"`
	ToAgent   string `json:"toAgent"`
	Message   string `json:"message"`
}

// CriticResult is the unit of output from any single validator.
type CriticResult struct {
	CriticID        string           `json:"criticId"`
	Passed          bool             `json:"passed"`
	Confidence      float64          `json:"confidence"` // Self-assessed reliability in [0,1]; 0 means fail-open
	Issues          []Issue          `json:"issues"`
	CrossReferences []CrossReference `json:"crossReferences,omitempty"`
}

// CriticalIssues filters the result's issues down to CRITICAL severity.
func (r CriticResult) CriticalIssues() []Issue {
	var out []Issue
	for _, is := range r.Issues {
		if is.Severity == SeverityCritical {
			out = append(out, is)
		}
	}
	return out
}

// FailOpen is the result a reasoning-backed critic returns when its service
// calls are exhausted: the batch continues, the critic contributes nothing.
func FailOpen(criticID string) CriticResult {
	return CriticResult{CriticID: criticID, Passed: true, Confidence: 0}
}

// Layer1Result aggregates the deterministic validators.
// Passed is true iff no CRITICAL issue was raised; Errors holds the
// CRITICAL messages only (warnings ride along in Issues).
type Layer1Result struct {
	Passed bool     `json:"passed"`
	Errors []string `json:"errors"`
	Issues []Issue  `json:"issues"`
}

// Layer3Result aggregates the evidence-verification checks.
type Layer3Result struct {
	EvidenceAnchored    bool     `json:"evidenceAnchored"`
	MissingSourceFields []string `json:"missingSourceFields"`
	Issues              []Issue  `json:"issues"`
}

// ReviewAction is a per-field human decision.
type ReviewAction string

const (
	ReviewAccept ReviewAction = "accept" // Apply the suggested value
	ReviewReject ReviewAction = "reject" // Apply nothing
	ReviewModify ReviewAction = "modify" // Apply the reviewer's custom value
)

// FieldDecision is one reviewer decision about one flagged field.
type FieldDecision struct {
	Field       string       `json:"field"`
	Action      ReviewAction `json:"action"`
	CustomValue interface{}  `json:"customValue,omitempty"`
	Rationale   string       `json:"rationale,omitempty"`
}

// HumanReviewRequest is handed to the review interrupt when REVIEW mode
// hits CRITICAL issues.
type HumanReviewRequest struct {
	RunID                 string                 `json:"runId"`
	CriticalIssues        []Issue                `json:"criticalIssues"`
	Summary               string                 `json:"summary"`
	Record                map[string]interface{} `json:"record"`
	PreliminaryConfidence float64                `json:"preliminaryConfidence"`
}

// HumanReviewResponse is the reviewer's verdict. A non-interactive caller
// must answer with Approved=false and a reject decision per issue; that is
// the safe default and is never treated as approval.
type HumanReviewResponse struct {
	Approved  bool            `json:"approved"`
	Decisions []FieldDecision `json:"decisions"`
	Reviewer  string          `json:"reviewer,omitempty"`
}

// SafeRejectResponse builds the batch-caller default: reject everything.
func SafeRejectResponse(issues []Issue) HumanReviewResponse {
	decisions := make([]FieldDecision, 0, len(issues))
	for _, is := range issues {
		decisions = append(decisions, FieldDecision{
			Field:     is.Field,
			Action:    ReviewReject,
			Rationale: "headless caller: no reviewer available",
		})
	}
	return HumanReviewResponse{Approved: false, Decisions: decisions}
}

// Report is the terminal artifact of one pipeline invocation.
// It is not persisted by the pipeline; storage is the caller's concern.
type Report struct {
	RunID             string                 `json:"runId"`
	Mode              Mode                   `json:"mode"`
	PassedValidation  bool                   `json:"passedValidation"`
	OverallConfidence float64                `json:"overallConfidence"`
	Issues            []Issue                `json:"issues"`
	Corrections       map[string]interface{} `json:"corrections,omitempty"`
	Summary           string                 `json:"summary"`
	Layer1Results     *Layer1Result          `json:"layer1Results,omitempty"`
	Layer2Results     []CriticResult         `json:"layer2Results,omitempty"`
	Layer3Results     *Layer3Result          `json:"layer3Results,omitempty"`
	HumanReview       *HumanReviewResponse   `json:"humanReviewResponse,omitempty"`
	GeneratedAt       time.Time              `json:"generatedAt"`
}

// CountBySeverity tallies the report's issues.
func CountBySeverity(issues []Issue) (critical, warning, info int) {
	for _, is := range issues {
		switch is.Severity {
		case SeverityCritical:
			critical++
		case SeverityWarning:
			warning++
		case SeverityInfo:
			info++
		}
	}
	return
}
