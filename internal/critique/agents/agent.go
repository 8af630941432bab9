package agents

import (
	"context"
	"fmt"

	"sdcritic/internal/critique"
	"sdcritic/internal/critique/critics"
)

// Agent wraps a registered critic and connects it to the blackboard: the
// critic's issues become posted findings other agents (and synthesis) can
// read.
type Agent struct {
	critic critics.Critic
	board  *Blackboard
}

// NewAgent wraps a critic for one dispatch round.
func NewAgent(c critics.Critic, board *Blackboard) *Agent {
	return &Agent{critic: c, board: board}
}

// ID returns the agent's identifier, which is its critic's type tag.
func (a *Agent) ID() string {
	return string(a.critic.Type())
}

// Run executes the wrapped critic and posts its issues and outgoing
// cross-references to the blackboard. Findings already on the board ride
// along as notes, and messages peers addressed to this agent are delivered
// with them; with concurrent dispatch this is best-effort, which is all a
// single-pass round promises.
func (a *Agent) Run(ctx context.Context, in critics.Input) (critique.CriticResult, error) {
	for _, f := range a.board.Findings() {
		if f.AgentID == a.ID() {
			continue
		}
		in.Notes = append(in.Notes, fmt.Sprintf("[%s] %s: %s", f.AgentID, f.Severity, f.Finding))
	}
	in.CrossRefs = a.board.CrossRefsFor(a.ID())

	res, err := a.critic.Run(ctx, in)
	if err != nil {
		return res, err
	}

	for _, issue := range res.Issues {
		a.board.Post(Finding{
			AgentID:       a.ID(),
			Finding:       issue.Message,
			Severity:      issue.Severity,
			RelatedFields: []string{issue.Field},
			Confidence:    res.Confidence,
		})
	}
	for _, cr := range res.CrossReferences {
		a.board.PostCrossRef(cr)
	}
	return res, nil
}
