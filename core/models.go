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


package core

import (
	"encoding/binary"
	"sort"
	"strings"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// It is generated using content-based hashing.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// MetadataKey is the reserved key under which an EntityProfile carries
// provenance information. It must be excluded whenever profile fields are
// flattened into search terms.
const MetadataKey = "_metadata"

// NoMatchTarget is the target recorded when a query produced zero ranked
// candidates. This is a successful terminal state, not an error.
const NoMatchTarget = "No matches found"

// EntityProfile is a structured description of a query's subject, produced by
// an LLM against a versioned schema family. Fields are schema-dependent
// (entity_name, core_concept, distinguishing_features,
// technical_specifications, classification_aliases, ...), each a string or an
// array of strings, so the profile is carried as a dynamic document rather
// than a fixed struct.
type EntityProfile map[string]any

// FlattenProfile collects every string value from the profile into a flat
// list of search terms. The _metadata block is skipped. Field order is
// stabilized by sorting keys so callers get deterministic output.
func FlattenProfile(profile EntityProfile) []string {
	if len(profile) == 0 {
		return nil
	}

	keys := make([]string, 0, len(profile))
	for key := range profile {
		if key == MetadataKey {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var terms []string
	for _, key := range keys {
		switch value := profile[key].(type) {
		case string:
			if s := strings.TrimSpace(value); s != "" {
				terms = append(terms, s)
			}
		case []string:
			for _, item := range value {
				if s := strings.TrimSpace(item); s != "" {
					terms = append(terms, s)
				}
			}
		case []any:
			for _, item := range value {
				if s, ok := item.(string); ok {
					if s = strings.TrimSpace(s); s != "" {
						terms = append(terms, s)
					}
				}
			}
		}
	}
	return terms
}

// CandidateScore is a lexically matched vocabulary term with its token-overlap
// score. Score is in (0, 1]; zero-overlap candidates are never emitted.
type CandidateScore struct {
	Term  string
	Score float64
}

// RankedCandidate is a single entry of an LLM ranking, after correction.
type RankedCandidate struct {
	Rank             int      `json:"rank"`
	Candidate        string   `json:"candidate"`
	RelevanceScore   float64  `json:"relevance_score"`
	CoreConceptScore float64  `json:"core_concept_score"`
	SpecScore        float64  `json:"spec_score"`
	KeyMatchFactors  []string `json:"key_match_factors,omitempty"`
	SpecGaps         []string `json:"spec_gaps,omitempty"`

	// OriginalLLMString holds the candidate string as the LLM emitted it when
	// the corrector replaced it with a vocabulary term. Empty when no
	// correction was needed.
	OriginalLLMString string `json:"_original_llm_string,omitempty"`

	// MatchConfidence is the string-similarity ratio of the correction.
	MatchConfidence float64 `json:"_match_confidence,omitempty"`
}

// BlendRelevance computes the canonical relevance score from its components.
// 70% core-concept match, 30% specification match. The corrector applies this
// to every candidate regardless of what the LLM emitted.
func BlendRelevance(coreConceptScore, specScore float64) float64 {
	return 0.7*coreConceptScore + 0.3*specScore
}

// RankingResult is the outcome of the ranking stage.
type RankingResult struct {
	RankedCandidates   []RankedCandidate `json:"ranked_candidates"`
	RankingExplanation string            `json:"ranking_explanation,omitempty"`

	// Skipped is true when the caller requested the lexical-only fast path
	// and no LLM call was made.
	Skipped bool `json:"skipped,omitempty"`
}

// ScrapedPage is the visible text of one fetched source.
type ScrapedPage struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	URL     string `json:"url"`
}

// ResearchResult is the output of the web research stage. It always carries
// the search log so failures stay diagnosable downstream.
type ResearchResult struct {
	Pages        []ScrapedPage `json:"pages"`
	SearchLog    []string      `json:"search_log"`
	SearchMethod string        `json:"search_method"`
	FailedURLs   []string      `json:"failed_urls,omitempty"`

	// Fallback is true when every search engine came up empty and the
	// pipeline must proceed on LLM knowledge only.
	Fallback bool `json:"fallback,omitempty"`
}

// SourceURLs returns the URLs of the scraped pages.
func (r *ResearchResult) SourceURLs() []string {
	urls := make([]string, 0, len(r.Pages))
	for _, page := range r.Pages {
		urls = append(urls, page.URL)
	}
	return urls
}

// MatchRecord is one completed normalization: a source query resolved to a
// target vocabulary term.
type MatchRecord struct {
	Source        string        `json:"source"`
	Target        string        `json:"target"`
	Method        string        `json:"method"`
	Confidence    float64       `json:"confidence"`
	Timestamp     time.Time     `json:"timestamp"`
	SessionID     string        `json:"session_id"`
	WebSources    []string      `json:"web_sources,omitempty"`
	EntityProfile EntityProfile `json:"entity_profile,omitempty"`
}

// AliasEntry records one source string associated with a target.
// When the source is later reassigned to a different target, the old entry is
// kept and CurrentTarget points forward; history is append-only.
type AliasEntry struct {
	Timestamp     time.Time `json:"timestamp"`
	Method        string    `json:"method"`
	Confidence    float64   `json:"confidence"`
	Verified      bool      `json:"verified"`
	CurrentTarget string    `json:"current_target,omitempty"`
}

// TargetEntry aggregates everything known about one target term.
type TargetEntry struct {
	Target        string                `json:"target"`
	Aliases       map[string]AliasEntry `json:"aliases"`
	EntityProfile EntityProfile         `json:"entity_profile,omitempty"`
	WebSources    []string              `json:"web_sources,omitempty"`
	UpdatedAt     time.Time             `json:"updated_at"`
}

// PipelineTrace is the experiment-tracking record emitted for every pipeline
// run, successful or aborted. Day is the UTC date bucket (YYYY-MM-DD).
type PipelineTrace struct {
	TraceID    ID            `json:"trace_id"`
	SessionID  string        `json:"session_id"`
	Query      string        `json:"query"`
	Target     string        `json:"target"`
	Confidence float64       `json:"confidence"`
	Method     string        `json:"method"`
	Status     string        `json:"status"`
	Day        string        `json:"day"`
	StartedAt  time.Time     `json:"started_at"`
	Elapsed    time.Duration `json:"elapsed"`
	SearchLog  []string      `json:"search_log,omitempty"`
	WebSources []string      `json:"web_sources,omitempty"`
	Profile    EntityProfile `json:"entity_profile,omitempty"`
}

// UTCDay formats t's UTC date as the trace day bucket.
func UTCDay(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}
