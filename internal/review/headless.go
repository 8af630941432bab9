package review

import (
	"context"
	"errors"

	"sdcritic/internal/critique"
)

// ErrPending reports that a review request was parked as a broker ticket
// instead of being resolved inline. The run ends suspended; an operator
// resolves the ticket and re-runs the record.
var ErrPending = errors.New("review pending")

// Resolver services review requests. Implementations range from an
// interactive terminal prompt to the headless auto-reject below.
type Resolver interface {
	Resolve(ctx context.Context, req critique.HumanReviewRequest) (critique.HumanReviewResponse, error)
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc func(ctx context.Context, req critique.HumanReviewRequest) (critique.HumanReviewResponse, error)

func (f ResolverFunc) Resolve(ctx context.Context, req critique.HumanReviewRequest) (critique.HumanReviewResponse, error) {
	return f(ctx, req)
}

// Suspend returns a resolver that parks each request on the broker and
// blocks until another goroutine resolves the ticket. This is the true
// interrupt: the pipeline goroutine sleeps mid-run while the reviewer works.
func Suspend(b *Broker) Resolver {
	return ResolverFunc(func(ctx context.Context, req critique.HumanReviewRequest) (critique.HumanReviewResponse, error) {
		ticket := b.RequestReview(req)
		return b.Await(ctx, ticket), nil
	})
}

// Enqueue returns a resolver that parks each request as a broker ticket and
// reports ErrPending immediately instead of blocking. The counterpart to
// Suspend for callers that would rather archive a suspended run than hold a
// goroutine open.
func Enqueue(b *Broker) Resolver {
	return ResolverFunc(func(_ context.Context, req critique.HumanReviewRequest) (critique.HumanReviewResponse, error) {
		b.RequestReview(req)
		return critique.HumanReviewResponse{}, ErrPending
	})
}

// Headless returns a resolver for environments with no reviewer attached.
// It rejects every critical issue, which keeps unreviewed corrections from
// leaking into the dataset.
func Headless() Resolver {
	return ResolverFunc(func(_ context.Context, req critique.HumanReviewRequest) (critique.HumanReviewResponse, error) {
		return critique.SafeRejectResponse(req.CriticalIssues), nil
	})
}
