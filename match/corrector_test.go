package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/termnorm/core"
)

func originals() []core.CandidateScore {
	return []core.CandidateScore{
		{Term: "Stainless Steel Pipe", Score: 0.9},
		{Term: "Carbon Fiber", Score: 0.5},
		{Term: "Copper Wire", Score: 0.3},
	}
}

func TestCorrect_RepairsParaphrasedCandidate(t *testing.T) {
	result := &core.RankingResult{
		RankedCandidates: []core.RankedCandidate{
			{
				Rank:             1,
				Candidate:        "stainles steel",
				CoreConceptScore: 4,
				SpecScore:        2,
				RelevanceScore:   99, // garbage from the LLM, must be overridden
			},
		},
	}

	Correct(result, originals())

	candidate := result.RankedCandidates[0]
	assert.Equal(t, "Stainless Steel Pipe", candidate.Candidate)
	assert.Equal(t, "stainles steel", candidate.OriginalLLMString)
	assert.Greater(t, candidate.MatchConfidence, 0.5)
	assert.InDelta(t, 3.4, candidate.RelevanceScore, 1e-9)
}

func TestCorrect_ExactMatchKeptVerbatim(t *testing.T) {
	result := &core.RankingResult{
		RankedCandidates: []core.RankedCandidate{
			{Rank: 1, Candidate: "Carbon Fiber", CoreConceptScore: 0.8, SpecScore: 0.4},
		},
	}

	Correct(result, originals())

	candidate := result.RankedCandidates[0]
	assert.Equal(t, "Carbon Fiber", candidate.Candidate)
	assert.Empty(t, candidate.OriginalLLMString)
	assert.InDelta(t, 1.0, candidate.MatchConfidence, 1e-9)
	assert.InDelta(t, core.BlendRelevance(0.8, 0.4), candidate.RelevanceScore, 1e-9)
}

func TestCorrect_NoPlausibleMatchLowConfidence(t *testing.T) {
	result := &core.RankingResult{
		RankedCandidates: []core.RankedCandidate{
			{Rank: 1, Candidate: "zzzzzzzzzzzzzzzzzzzzzzzz", CoreConceptScore: 1, SpecScore: 1},
		},
	}

	Correct(result, originals())

	candidate := result.RankedCandidates[0]
	// Still snapped onto some vocabulary term, at low confidence, never an error.
	assert.Contains(t, []string{"Stainless Steel Pipe", "Carbon Fiber", "Copper Wire"}, candidate.Candidate)
	assert.Less(t, candidate.MatchConfidence, 0.3)
}

func TestCorrect_RelevanceRecomputedForAll(t *testing.T) {
	result := &core.RankingResult{
		RankedCandidates: []core.RankedCandidate{
			{Rank: 1, Candidate: "Carbon Fiber", CoreConceptScore: 0.9, SpecScore: 0.6, RelevanceScore: 0},
			{Rank: 2, Candidate: "Copper Wire", CoreConceptScore: 0.2, SpecScore: 0.8, RelevanceScore: 1},
		},
	}

	Correct(result, originals())

	for _, candidate := range result.RankedCandidates {
		expected := core.BlendRelevance(candidate.CoreConceptScore, candidate.SpecScore)
		assert.InDelta(t, expected, candidate.RelevanceScore, 1e-9)
	}
}

func TestCorrect_DegenerateInputs(t *testing.T) {
	t.Run("nil result", func(t *testing.T) {
		assert.NotPanics(t, func() { Correct(nil, originals()) })
	})

	t.Run("no originals", func(t *testing.T) {
		result := &core.RankingResult{
			RankedCandidates: []core.RankedCandidate{
				{Rank: 1, Candidate: "anything", CoreConceptScore: 2, SpecScore: 1},
			},
		}
		Correct(result, nil)
		// Candidate unchanged, relevance still recomputed.
		assert.Equal(t, "anything", result.RankedCandidates[0].Candidate)
		assert.InDelta(t, 1.7, result.RankedCandidates[0].RelevanceScore, 1e-9)
	})

	t.Run("empty ranking", func(t *testing.T) {
		result := &core.RankingResult{}
		assert.NotPanics(t, func() { Correct(result, originals()) })
		assert.Empty(t, result.RankedCandidates)
	})
}

func TestSimilarityRatio(t *testing.T) {
	t.Run("identity", func(t *testing.T) {
		assert.InDelta(t, 1.0, SimilarityRatio("Steel Pipe", "steel pipe"), 1e-9)
	})

	t.Run("both empty", func(t *testing.T) {
		assert.InDelta(t, 1.0, SimilarityRatio("", ""), 1e-9)
	})

	t.Run("bounded", func(t *testing.T) {
		pairs := [][2]string{
			{"stainles steel", "Stainless Steel Pipe"},
			{"abc", "xyz"},
			{"", "something"},
		}
		for _, pair := range pairs {
			ratio := SimilarityRatio(pair[0], pair[1])
			assert.GreaterOrEqual(t, ratio, 0.0)
			assert.LessOrEqual(t, ratio, 1.0)
		}
	})

	t.Run("closer strings score higher", func(t *testing.T) {
		near := SimilarityRatio("stainles steel pipe", "Stainless Steel Pipe")
		far := SimilarityRatio("copper cable", "Stainless Steel Pipe")
		require.Greater(t, near, far)
	})
}
