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

package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/poiesic/termnorm/ai"
	"github.com/poiesic/termnorm/core"
	"github.com/poiesic/termnorm/retry"
)

// Ranker implements ai.Ranker using OpenAI-compatible chat APIs.
type Ranker struct {
	client        llms.Model
	maxCandidates int
	retry         retry.Policy
	logger        *slog.Logger
}

// rankedCandidate is an internal type used for JSON unmarshaling.
// It matches the structure requested from the LLM.
type rankedCandidate struct {
	Rank            int      `json:"rank"`
	Candidate       string   `json:"candidate"`
	CoreScore       float64  `json:"core_concept_score"`
	SpecScore       float64  `json:"spec_score"`
	KeyMatchFactors []string `json:"key_match_factors"`
	SpecGaps        []string `json:"spec_gaps"`
}

// ranking is the wrapper structure for the LLM's JSON response.
type ranking struct {
	RankedCandidates []rankedCandidate `json:"ranked_candidates"`
	Explanation      string            `json:"ranking_explanation"`
}

// newRanker is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newRanker(config *ai.Config) (*Ranker, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client, err := openai.New(
		openai.WithBaseURL(config.Host),
		openai.WithToken(config.Token),
		openai.WithModel(config.Model),
	)
	if err != nil {
		return nil, err
	}

	return &Ranker{
		client:        client,
		maxCandidates: config.MaxRankCandidates,
		retry:         config.Retry,
		logger:        slog.Default().With("component", "openai-ranker"),
	}, nil
}

// NewRanker creates a new candidate ranker using the provided configuration.
//
// Returns ai.Ranker interface to enforce abstraction.
func NewRanker(config *ai.Config) (ai.Ranker, error) {
	return newRanker(config)
}

// RankCandidates asks the model to order the candidates against the entity
// profile, exact specification matches taking priority over semantic
// closeness. Candidates beyond the configured cap are dropped before
// prompting; with no candidates at all the result is empty without a model
// call.
func (r *Ranker) RankCandidates(ctx context.Context, query string, profile core.EntityProfile, candidates []core.CandidateScore) (*core.RankingResult, error) {
	if len(candidates) == 0 {
		return &core.RankingResult{
			RankedCandidates:   []core.RankedCandidate{},
			RankingExplanation: "no candidates to rank",
		}, nil
	}

	if len(candidates) > r.maxCandidates {
		candidates = candidates[:r.maxCandidates]
	}

	prompt := buildRankingPrompt(query, formatProfile(profile), formatCandidates(candidates))
	content := []llms.MessageContent{
		{
			Role: llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{
				llms.TextPart(prompt),
			},
		},
	}

	var parsed ranking
	err := r.retry.Do(ctx, func(ctx context.Context) error {
		response, err := r.client.GenerateContent(ctx, content, llms.WithTemperature(0.0), llms.WithJSONMode())
		if err != nil {
			return err
		}
		if len(response.Choices) < 1 {
			return fmt.Errorf("no choices returned from model")
		}

		raw := cleanResponse(response.Choices[0].Content)
		parsed = ranking{}
		if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
			r.logger.Debug("failed to parse ranking JSON", "err", err)
			return fmt.Errorf("parse ranking: %w", err)
		}
		if len(parsed.RankedCandidates) == 0 {
			return fmt.Errorf("ranking response contained no candidates")
		}
		return nil
	})
	if err != nil {
		r.logger.Error("candidate ranking failed", "query", query, "err", err)
		return nil, fmt.Errorf("%w: %s", core.ErrProviderUnavailable, err)
	}

	result := &core.RankingResult{
		RankedCandidates:   make([]core.RankedCandidate, 0, len(parsed.RankedCandidates)),
		RankingExplanation: parsed.Explanation,
	}
	for _, rc := range parsed.RankedCandidates {
		result.RankedCandidates = append(result.RankedCandidates, core.RankedCandidate{
			Rank:             rc.Rank,
			Candidate:        rc.Candidate,
			CoreConceptScore: clampScore(rc.CoreScore),
			SpecScore:        clampScore(rc.SpecScore),
			RelevanceScore:   core.BlendRelevance(clampScore(rc.CoreScore), clampScore(rc.SpecScore)),
			KeyMatchFactors:  rc.KeyMatchFactors,
			SpecGaps:         rc.SpecGaps,
		})
	}

	r.logger.Debug("ranked candidates", "query", query, "count", len(result.RankedCandidates))
	return result, nil
}

// formatProfile renders the profile as indented JSON for the prompt,
// omitting the metadata block.
func formatProfile(profile core.EntityProfile) string {
	trimmed := make(map[string]any, len(profile))
	for k, v := range profile {
		if k == core.MetadataKey {
			continue
		}
		trimmed[k] = v
	}
	data, err := json.MarshalIndent(trimmed, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(data)
}

// formatCandidates renders the candidate list with lexical scores, one per
// line, the way the ranking prompt expects.
func formatCandidates(candidates []core.CandidateScore) string {
	var b strings.Builder
	for i, c := range candidates {
		fmt.Fprintf(&b, "%d. %q (token match %.3f)\n", i+1, c.Term, c.Score)
	}
	return b.String()
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
