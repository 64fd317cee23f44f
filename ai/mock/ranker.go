package mock

import (
	"context"

	"github.com/poiesic/termnorm/core"
)

// MockRanker is a test double for ai.Ranker.
// It allows custom behavior injection via function fields.
type MockRanker struct {
	// RankCandidatesFunc is called by RankCandidates if set.
	// If nil, ranks candidates in the order given.
	RankCandidatesFunc func(ctx context.Context, query string, profile core.EntityProfile, candidates []core.CandidateScore) (*core.RankingResult, error)

	callCount int
}

// NewMockRanker creates a mock ranker with default behavior.
// Note: Returns concrete type to allow test assertions on call counts.
func NewMockRanker() *MockRanker {
	return &MockRanker{}
}

// RankCandidates ranks candidates deterministically.
// Default behavior: preserves the incoming order, reusing each candidate's
// lexical score as both the core-concept and the spec score.
func (m *MockRanker) RankCandidates(ctx context.Context, query string, profile core.EntityProfile, candidates []core.CandidateScore) (*core.RankingResult, error) {
	m.callCount++

	if m.RankCandidatesFunc != nil {
		return m.RankCandidatesFunc(ctx, query, profile, candidates)
	}

	ranked := make([]core.RankedCandidate, 0, len(candidates))
	for i, c := range candidates {
		ranked = append(ranked, core.RankedCandidate{
			Rank:             i + 1,
			Candidate:        c.Term,
			CoreConceptScore: c.Score,
			SpecScore:        c.Score,
			RelevanceScore:   core.BlendRelevance(c.Score, c.Score),
		})
	}

	return &core.RankingResult{
		RankedCandidates:   ranked,
		RankingExplanation: "mock ranking in lexical order",
	}, nil
}

// CallCount returns the number of times RankCandidates was called.
func (m *MockRanker) CallCount() int {
	return m.callCount
}

// Reset clears the call count and custom functions.
func (m *MockRanker) Reset() {
	m.callCount = 0
	m.RankCandidatesFunc = nil
}
