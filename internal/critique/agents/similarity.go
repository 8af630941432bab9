package agents

import (
	"context"
	"strings"

	"sdcritic/internal/embedding"
	"sdcritic/internal/logging"
)

const (
	embeddingThreshold = 0.80
	jaccardThreshold   = 0.5
)

// Matcher decides whether two finding messages describe the same problem.
// With an embedding engine it compares vectors; without one it falls back
// to token overlap.
type Matcher struct {
	engine embedding.Engine
}

// NewMatcher creates a matcher. A nil engine selects the lexical fallback.
func NewMatcher(engine embedding.Engine) *Matcher {
	return &Matcher{engine: engine}
}

// Similar reports whether the two messages are close enough to merge into
// one consensus finding.
func (m *Matcher) Similar(ctx context.Context, a, b string) bool {
	if m.engine != nil {
		vecs, err := m.engine.EmbedBatch(ctx, []string{a, b})
		if err == nil && len(vecs) == 2 {
			sim, err := embedding.CosineSimilarity(vecs[0], vecs[1])
			if err == nil {
				return sim >= embeddingThreshold
			}
		}
		logging.AgentsDebug("embedding comparison unavailable, falling back to token overlap")
	}
	return tokenJaccard(a, b) >= jaccardThreshold
}

// tokenJaccard is the lexical fallback: intersection over union of
// lowercased word sets.
func tokenJaccard(a, b string) float64 {
	as := tokenSet(a)
	bs := tokenSet(b)
	if len(as) == 0 || len(bs) == 0 {
		return 0
	}

	intersection := 0
	for tok := range as {
		if _, ok := bs[tok]; ok {
			intersection++
		}
	}
	union := len(as) + len(bs) - intersection
	return float64(intersection) / float64(union)
}

func tokenSet(s string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, tok := range strings.Fields(strings.ToLower(s)) {
		tok = strings.Trim(tok, ".,;:()[]\"'")
		if tok != "" {
			out[tok] = struct{}{}
		}
	}
	return out
}
