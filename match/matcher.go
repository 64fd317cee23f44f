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
	"sort"
	"sync"

	"github.com/poiesic/termnorm/core"
)

// TokenMatcher is an inverted index from token to term positions over a
// deduplicated, insertion-ordered vocabulary. It never errors; malformed
// input degrades to empty results.
//
// Scoring divides shared-token count by the term's own token count, not the
// symmetric union. Short, specific terms whose tokens are mostly covered by
// the query rank highest: matching "steel pipe" against the three-token term
// "Stainless Steel Pipe" scores 2/3.
type TokenMatcher struct {
	mu    sync.RWMutex
	terms []string
	seen  map[string]struct{}
	// tokens[i] caches the token set of terms[i] so Match never re-tokenizes
	// the vocabulary.
	tokens []map[string]struct{}
	index  map[string]map[int]struct{}
}

// NewTokenMatcher builds a matcher from raw terms. Duplicates (exact string
// equality) are dropped keeping first-seen order.
func NewTokenMatcher(rawTerms []string) *TokenMatcher {
	m := &TokenMatcher{
		seen:  make(map[string]struct{}),
		index: make(map[string]map[int]struct{}),
	}
	m.appendLocked(rawTerms)
	return m
}

// Append adds terms not already present, extending the index under each new
// term's tokens. Appending an already-present term is a silent skip; empty
// input is a no-op. The index is only ever added to, never removed from.
func (m *TokenMatcher) Append(newTerms []string) {
	if len(newTerms) == 0 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.appendLocked(newTerms)
}

func (m *TokenMatcher) appendLocked(newTerms []string) {
	for _, term := range newTerms {
		if _, ok := m.seen[term]; ok {
			continue
		}
		position := len(m.terms)
		tokens := Tokenize(term)
		m.terms = append(m.terms, term)
		m.tokens = append(m.tokens, tokens)
		m.seen[term] = struct{}{}
		for token := range tokens {
			positions, ok := m.index[token]
			if !ok {
				positions = make(map[int]struct{})
				m.index[token] = positions
			}
			positions[position] = struct{}{}
		}
	}
}

// Terms returns a copy of the deduplicated vocabulary in insertion order.
func (m *TokenMatcher) Terms() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, len(m.terms))
	copy(out, m.terms)
	return out
}

// Len returns the number of unique terms.
func (m *TokenMatcher) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.terms)
}

// Match scores the vocabulary against the union of tokens over all query
// elements. Candidates sharing no token with the query are excluded, not
// scored zero. Results are sorted descending by score; ties keep candidate
// iteration order, which is not a total order.
func (m *TokenMatcher) Match(queries ...string) []core.CandidateScore {
	queryTokens := TokenizeAll(queries)
	if len(queryTokens) == 0 {
		return nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	// Candidate set: union of index postings over every query token.
	candidates := make(map[int]struct{})
	for token := range queryTokens {
		for position := range m.index[token] {
			candidates[position] = struct{}{}
		}
	}
	if len(candidates) == 0 {
		return nil
	}

	results := make([]core.CandidateScore, 0, len(candidates))
	for position := range candidates {
		termTokens := m.tokens[position]
		shared := 0
		for token := range termTokens {
			if _, ok := queryTokens[token]; ok {
				shared++
			}
		}
		if shared == 0 {
			continue
		}
		results = append(results, core.CandidateScore{
			Term:  m.terms[position],
			Score: float64(shared) / float64(len(termTokens)),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	return results
}
