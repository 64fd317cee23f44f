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

package pipeline

import (
	"time"

	"github.com/poiesic/termnorm/core"
)

// UpdateMatcherRequest creates or extends a session's vocabulary.
type UpdateMatcherRequest struct {
	Terms      []string `json:"terms"`
	ForceReset bool     `json:"force_reset,omitempty"`
}

// Validate checks the request at the boundary.
func (r *UpdateMatcherRequest) Validate() error {
	return core.ValidateTerms(r.Terms)
}

// UpdateMatcherResponse reports vocabulary counts after the update.
// Created distinguishes the two count contracts: a fresh matcher reports
// the submitted total plus how many duplicates were dropped, an append
// reports the resulting vocabulary size.
type UpdateMatcherResponse struct {
	Created           bool          `json:"created"`
	TotalTerms        int           `json:"total_terms,omitempty"`
	UniqueTerms       int           `json:"unique_terms,omitempty"`
	DuplicatesRemoved int           `json:"duplicates_removed,omitempty"`
	TotalUniqueTerms  int           `json:"total_unique_terms,omitempty"`
	Elapsed           time.Duration `json:"elapsed"`
}

// InitSessionRequest initializes a session's vocabulary.
type InitSessionRequest struct {
	Terms []string `json:"terms"`
}

// MatchRequest runs the full research pipeline for one query.
type MatchRequest struct {
	Query          string `json:"query"`
	SkipLLMRanking bool   `json:"skip_llm_ranking,omitempty"`
}

// Validate checks the request at the boundary.
func (r *MatchRequest) Validate() error {
	return core.ValidateQuery(r.Query)
}

// BatchItemRequest is the lightweight per-item variant used during batch
// processing. Context optionally carries surrounding document text that
// sharpens the research query.
type BatchItemRequest struct {
	Query   string `json:"query"`
	Context string `json:"context,omitempty"`
}

// Validate checks the request at the boundary.
func (r *BatchItemRequest) Validate() error {
	return core.ValidateQuery(r.Query)
}

// QuickMatchRequest is a lexical-only lookup, no research or LLM stages.
type QuickMatchRequest struct {
	Query string `json:"query"`
}

// Validate checks the request at the boundary.
func (r *QuickMatchRequest) Validate() error {
	return core.ValidateQuery(r.Query)
}

// QuickMatchResponse carries the raw token-match candidates.
type QuickMatchResponse struct {
	Query      string                `json:"query"`
	Candidates []core.CandidateScore `json:"candidates"`
	Elapsed    time.Duration         `json:"elapsed"`
}

// SourcesDebug is the provenance block attached to every match response.
// On research success it names the fetched sources and the engine that
// produced them; on total research failure it carries the full search log
// and the explicit fallback marker instead.
type SourcesDebug struct {
	SearchMethod string   `json:"search_method"`
	URLs         []string `json:"urls,omitempty"`
	SearchLog    []string `json:"search_log,omitempty"`
	FailedCount  int      `json:"failed_count,omitempty"`
	Fallback     string   `json:"fallback,omitempty"`
}

// MatchResponse is the outcome of a pipeline run. An aborted run still
// carries whatever was computed before the abort, the search log included.
type MatchResponse struct {
	Query            string                 `json:"query"`
	RankedCandidates []core.RankedCandidate `json:"ranked_candidates"`
	Target           string                 `json:"target"`
	Confidence       float64                `json:"confidence"`
	Method           string                 `json:"method"`
	LLMProvider      string                 `json:"llm_provider"`
	TotalTime        time.Duration          `json:"total_time"`
	WebSearchStatus  string                 `json:"web_search_status"`
	WebSearchError   string                 `json:"web_search_error,omitempty"`
	Sources          *SourcesDebug          `json:"sources,omitempty"`
	Status           string                 `json:"status"`
}
