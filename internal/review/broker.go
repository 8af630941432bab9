// Package review implements the human-in-the-loop interrupt: when a REVIEW
// mode run hits critical issues, the pipeline suspends on a ticket until a
// reviewer resolves it (or the context gives up).
package review

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"sdcritic/internal/critique"
	"sdcritic/internal/logging"
)

// Ticket identifies one suspended review.
type Ticket struct {
	ID      string
	Request critique.HumanReviewRequest
}

// Broker hands review requests to a resolver and suspends callers until
// resolution. Tickets are independent: several runs can be suspended at
// once.
type Broker struct {
	mu      sync.Mutex
	pending map[string]chan critique.HumanReviewResponse
}

// NewBroker creates an empty broker.
func NewBroker() *Broker {
	return &Broker{pending: make(map[string]chan critique.HumanReviewResponse)}
}

// RequestReview registers a suspended review and returns its ticket. The
// caller then blocks on Await; whoever services the queue calls Resolve.
func (b *Broker) RequestReview(req critique.HumanReviewRequest) Ticket {
	t := Ticket{
		ID:      uuid.NewString(),
		Request: req,
	}

	b.mu.Lock()
	b.pending[t.ID] = make(chan critique.HumanReviewResponse, 1)
	b.mu.Unlock()

	logging.Review("review requested: ticket=%s run=%s criticalIssues=%d",
		t.ID, req.RunID, len(req.CriticalIssues))
	return t
}

// Await blocks until the ticket is resolved or the context ends. A context
// cancellation resolves conservatively: reject everything.
func (b *Broker) Await(ctx context.Context, t Ticket) critique.HumanReviewResponse {
	b.mu.Lock()
	ch, ok := b.pending[t.ID]
	b.mu.Unlock()
	if !ok {
		logging.Get(logging.CategoryReview).Warn("await on unknown ticket %s, rejecting", t.ID)
		return critique.SafeRejectResponse(t.Request.CriticalIssues)
	}

	select {
	case resp := <-ch:
		logging.Review("review resolved: ticket=%s approved=%v decisions=%d",
			t.ID, resp.Approved, len(resp.Decisions))
		return resp
	case <-ctx.Done():
		b.drop(t.ID)
		logging.Get(logging.CategoryReview).Warn("review abandoned (%v): ticket=%s, rejecting", ctx.Err(), t.ID)
		return critique.SafeRejectResponse(t.Request.CriticalIssues)
	}
}

// Resolve completes a suspended review. Resolving an unknown or already
// resolved ticket is an error.
func (b *Broker) Resolve(ticketID string, resp critique.HumanReviewResponse) error {
	b.mu.Lock()
	ch, ok := b.pending[ticketID]
	if ok {
		delete(b.pending, ticketID)
	}
	b.mu.Unlock()

	if !ok {
		return fmt.Errorf("no pending review for ticket %s", ticketID)
	}
	ch <- resp
	return nil
}

// Pending returns the IDs of unresolved tickets.
func (b *Broker) Pending() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, 0, len(b.pending))
	for id := range b.pending {
		out = append(out, id)
	}
	return out
}

func (b *Broker) drop(ticketID string) {
	b.mu.Lock()
	delete(b.pending, ticketID)
	b.mu.Unlock()
}
