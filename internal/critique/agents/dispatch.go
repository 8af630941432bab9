package agents

import (
	"context"

	"golang.org/x/sync/errgroup"

	"sdcritic/internal/critique"
	"sdcritic/internal/critique/critics"
	"sdcritic/internal/logging"
)

// Dispatcher runs triage-selected agents concurrently over one blackboard.
type Dispatcher struct {
	registry *critics.Registry
}

// NewDispatcher creates a dispatcher over a critic registry.
func NewDispatcher(registry *critics.Registry) *Dispatcher {
	return &Dispatcher{registry: registry}
}

// Dispatch spawns one agent per triage-selected type and waits for all of
// them. Failures are contained per agent: a crashed or exhausted agent
// yields a fail-open result and the round continues. Results are returned
// in the decision's priority order.
func (d *Dispatcher) Dispatch(ctx context.Context, in critics.Input, decision TriageDecision, board *Blackboard) ([]critique.CriticResult, DispatchStats) {
	stats := DispatchStats{Skipped: len(decision.SkipReason)}

	results := make([]critique.CriticResult, len(decision.AgentsToDispatch))
	g, gctx := errgroup.WithContext(ctx)

	for i, t := range decision.AgentsToDispatch {
		c, ok := d.registry.Get(t)
		if !ok {
			results[i] = critique.FailOpen(string(t))
			continue
		}
		agent := NewAgent(c, board)
		g.Go(func() error {
			results[i] = runAgent(gctx, agent, in)
			return nil
		})
	}
	_ = g.Wait()

	for _, res := range results {
		if res.Confidence == 0 {
			stats.FailedOpen++
			continue
		}
		stats.Dispatched++
	}

	logging.Agents("dispatch: ran=%d skipped=%d failedOpen=%d",
		stats.Dispatched, stats.Skipped, stats.FailedOpen)
	return results, stats
}

// runAgent is the per-agent failure boundary.
func runAgent(ctx context.Context, a *Agent, in critics.Input) (result critique.CriticResult) {
	defer func() {
		if rec := recover(); rec != nil {
			logging.Get(logging.CategoryAgents).Error("PANIC RECOVERED in agent %s: %v", a.ID(), rec)
			result = critique.FailOpen(a.ID())
		}
	}()

	res, err := a.Run(ctx, in)
	if err != nil {
		logging.Get(logging.CategoryAgents).Warn("agent %s failed open: %v", a.ID(), err)
		return critique.FailOpen(a.ID())
	}
	return res
}
