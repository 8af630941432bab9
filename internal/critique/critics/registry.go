package critics

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"sdcritic/internal/critique"
	"sdcritic/internal/logging"
	"sdcritic/internal/reasoning"
)

// Registry holds critics keyed by type tag. Triage and the orchestrator
// select subsets of keys; nothing dispatches on a type switch.
type Registry struct {
	critics map[Type]Critic
	order   []Type
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{critics: make(map[Type]Critic)}
}

// Register adds a critic. Registration order is preserved for stable
// result ordering.
func (r *Registry) Register(c Critic) {
	if _, exists := r.critics[c.Type()]; !exists {
		r.order = append(r.order, c.Type())
	}
	r.critics[c.Type()] = c
}

// Get returns the critic for a type tag.
func (r *Registry) Get(t Type) (Critic, bool) {
	c, ok := r.critics[t]
	return c, ok
}

// Types returns the registered type tags in registration order.
func (r *Registry) Types() []Type {
	out := make([]Type, len(r.order))
	copy(out, r.order)
	return out
}

// NewDefaultRegistry wires up all eight named critics against the given
// reasoning client and retry policy.
func NewDefaultRegistry(client reasoning.Client, retry reasoning.RetryPolicy) *Registry {
	r := NewRegistry()
	r.Register(NewScaleInversionSentinel(client, retry))
	r.Register(NewEVDConfoundingDetector(client, retry))
	r.Register(NewMathConsistencyChecker(client, retry))
	r.Register(NewEtiologySegregator(client, retry))
	r.Register(NewFlowchartConsistencyChecker(client, retry))
	r.Register(NewSurgicalTechniqueClassifier(client, retry))
	r.Register(NewOutcomeDefinitionVerifier(client, retry))
	r.Register(NewSourceCitationVerifier())
	return r
}

// RunAll executes the selected critics concurrently and collects results in
// registry order. Every failure - exhausted retries, non-retryable service
// errors, parse errors, even panics - is contained at the per-critic
// boundary and converted to a fail-open result so the batch continues.
func (r *Registry) RunAll(ctx context.Context, in Input, selected []Type) []critique.CriticResult {
	if selected == nil {
		selected = r.Types()
	}

	results := make([]critique.CriticResult, len(selected))
	g, gctx := errgroup.WithContext(ctx)

	for i, t := range selected {
		c, ok := r.critics[t]
		if !ok {
			results[i] = critique.FailOpen(string(t))
			continue
		}
		g.Go(func() error {
			results[i] = runContained(gctx, c, in)
			return nil
		})
	}

	_ = g.Wait() // Workers never return errors; containment happens per critic.
	return results
}

// runContained is the per-critic failure boundary.
func runContained(ctx context.Context, c Critic, in Input) (result critique.CriticResult) {
	defer func() {
		if rec := recover(); rec != nil {
			logging.Get(logging.CategoryCritics).Error("PANIC RECOVERED in critic %s: %v", c.Type(), rec)
			result = critique.FailOpen(string(c.Type()))
		}
	}()

	timer := logging.StartTimer(logging.CategoryCritics, fmt.Sprintf("critic(%s)", c.Type()))
	res, err := c.Run(ctx, in)
	timer.Stop()

	if err != nil {
		if reasoning.IsRetryable(err) {
			logging.Get(logging.CategoryCritics).Warn("critic %s failed open after exhausted retries: %v", c.Type(), err)
		} else {
			logging.Get(logging.CategoryCritics).Error("critic %s failed open (non-retryable): %v", c.Type(), err)
		}
		return critique.FailOpen(string(c.Type()))
	}

	logging.Critics("critic %s: passed=%v confidence=%.2f issues=%d",
		c.Type(), res.Passed, res.Confidence, len(res.Issues))
	return res
}
