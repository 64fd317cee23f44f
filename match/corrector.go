// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package match

import (
	"strings"

	"github.com/xrash/smetrics"

	"github.com/poiesic/termnorm/core"
)

// Correct repairs LLM-emitted candidate strings against the original matcher
// vocabulary and recomputes every relevance score. LLMs frequently paraphrase
// or truncate the candidate strings they were given; each ranked candidate is
// mapped back onto the closest original by edit-distance ratio, and the
// original LLM string plus the match confidence are kept for audit.
//
// RelevanceScore is always recomputed as 0.7*core + 0.3*spec, overriding
// whatever the LLM emitted, so the blended score has a single source of
// truth. This step never fails; with no plausible match the best ratio is
// simply near zero and the closest original still wins.
func Correct(result *core.RankingResult, originals []core.CandidateScore) {
	if result == nil {
		return
	}

	for i := range result.RankedCandidates {
		candidate := &result.RankedCandidates[i]

		if len(originals) > 0 {
			best, ratio := closestOriginal(candidate.Candidate, originals)
			if best != candidate.Candidate {
				candidate.OriginalLLMString = candidate.Candidate
				candidate.Candidate = best
			}
			candidate.MatchConfidence = ratio
		}

		candidate.RelevanceScore = core.BlendRelevance(candidate.CoreConceptScore, candidate.SpecScore)
	}
}

// closestOriginal returns the vocabulary string with the highest similarity
// ratio to the emitted string, comparing case-insensitively.
func closestOriginal(emitted string, originals []core.CandidateScore) (string, float64) {
	best := originals[0].Term
	bestRatio := -1.0
	for _, original := range originals {
		ratio := SimilarityRatio(emitted, original.Term)
		if ratio > bestRatio {
			bestRatio = ratio
			best = original.Term
		}
	}
	return best, bestRatio
}

// SimilarityRatio is a normalized edit-distance ratio in [0, 1]: 1 at exact
// (case-insensitive) equality, approaching 0 as the strings diverge.
func SimilarityRatio(a, b string) float64 {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if a == b {
		return 1
	}
	longest := max(len(a), len(b))
	if longest == 0 {
		return 1
	}
	distance := smetrics.WagnerFischer(a, b, 1, 1, 1)
	return 1 - float64(distance)/float64(longest)
}
