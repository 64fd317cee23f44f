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

package session

import (
	"sync"
	"time"

	"github.com/poiesic/termnorm/match"
)

// Session holds the matcher state for one caller. The term log keeps every
// term ever submitted, duplicates included, so counts over the full history
// stay reportable; the matcher itself deduplicates.
type Session struct {
	id      string
	mu      sync.Mutex
	matcher *match.TokenMatcher
	termLog []string

	lastAccess time.Time
}

func newSession(id string) *Session {
	return &Session{
		id:      id,
		matcher: match.NewTokenMatcher(nil),
	}
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// AddTerms appends terms to the session's term log and vocabulary.
// Returns the number of terms that were new to the matcher.
func (s *Session) AddTerms(terms []string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	before := s.matcher.Len()
	s.termLog = append(s.termLog, terms...)
	s.matcher.Append(terms)
	return s.matcher.Len() - before
}

// Matcher returns the session's token matcher. The matcher is internally
// synchronized, so holding the session lock is not required to use it.
func (s *Session) Matcher() *match.TokenMatcher {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.matcher
}

// TermLogLen returns the total number of terms ever submitted, duplicates
// included.
func (s *Session) TermLogLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.termLog)
}

// UniqueTerms returns the size of the deduplicated vocabulary.
func (s *Session) UniqueTerms() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.matcher.Len()
}

// reset discards the vocabulary and term log, keeping the identity.
func (s *Session) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.matcher = match.NewTokenMatcher(nil)
	s.termLog = nil
}

// touch records an access for idle-eviction bookkeeping. Callers hold the
// registry lock.
func (s *Session) touch(now time.Time) {
	s.lastAccess = now
}
