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
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/termnorm/core"
)

func TestRegistryGetOrCreate(t *testing.T) {
	r := NewRegistry()

	s1 := r.GetOrCreate("alpha")
	require.NotNil(t, s1)
	assert.Equal(t, "alpha", s1.ID())

	s2 := r.GetOrCreate("alpha")
	assert.Same(t, s1, s2)
	assert.Equal(t, 1, r.Len())
}

func TestRegistryGetMissing(t *testing.T) {
	r := NewRegistry()

	_, err := r.Get("ghost")
	assert.ErrorIs(t, err, core.ErrNoSession)
}

func TestSessionTermAccounting(t *testing.T) {
	r := NewRegistry()
	s := r.GetOrCreate("alpha")

	added := s.AddTerms([]string{"Steel Pipe", "Copper Pipe", "Steel Pipe"})
	assert.Equal(t, 2, added)
	assert.Equal(t, 3, s.TermLogLen())
	assert.Equal(t, 2, s.UniqueTerms())

	// Duplicates of earlier submissions still land in the log
	added = s.AddTerms([]string{"Copper Pipe"})
	assert.Equal(t, 0, added)
	assert.Equal(t, 4, s.TermLogLen())
	assert.Equal(t, 2, s.UniqueTerms())
}

func TestFreshSessionMatcherUsable(t *testing.T) {
	r := NewRegistry()
	s := r.GetOrCreate("alpha")

	// A brand-new session starts with an empty but working matcher.
	m := s.Matcher()
	require.NotNil(t, m)
	assert.Equal(t, 0, m.Len())
	assert.Empty(t, m.Match("steel pipe"))

	s.AddTerms([]string{"Stainless Steel Pipe"})
	scores := s.Matcher().Match("steel pipe")
	require.Len(t, scores, 1)
	assert.Equal(t, "Stainless Steel Pipe", scores[0].Term)

	// Reset hands back an empty matcher again, not a stale one.
	s.reset()
	assert.Equal(t, 0, s.Matcher().Len())
	assert.Empty(t, s.Matcher().Match("steel pipe"))
}

func TestRegistryReset(t *testing.T) {
	r := NewRegistry()
	s := r.GetOrCreate("alpha")
	s.AddTerms([]string{"Steel Pipe"})

	reset := r.Reset("alpha")
	assert.Same(t, s, reset)
	assert.Equal(t, 0, reset.UniqueTerms())
	assert.Equal(t, 0, reset.TermLogLen())

	// Reset on a missing ID creates the session
	fresh := r.Reset("beta")
	assert.NotNil(t, fresh)
	assert.Equal(t, 2, r.Len())
}

func TestRegistryCapacityEviction(t *testing.T) {
	r := NewRegistry(WithMaxSessions(3))

	for i := 0; i < 3; i++ {
		r.GetOrCreate(fmt.Sprintf("s%d", i))
	}
	// s0 is the oldest; creating a fourth evicts it
	r.GetOrCreate("s3")

	assert.Equal(t, 3, r.Len())
	_, err := r.Get("s0")
	assert.ErrorIs(t, err, core.ErrNoSession)

	_, err = r.Get("s3")
	assert.NoError(t, err)
}

func TestRegistryRecentUseSurvivesEviction(t *testing.T) {
	r := NewRegistry(WithMaxSessions(2))

	r.GetOrCreate("old")
	r.GetOrCreate("mid")

	// Touch "old" so "mid" becomes the eviction candidate
	_, err := r.Get("old")
	require.NoError(t, err)

	r.GetOrCreate("new")

	_, err = r.Get("old")
	assert.NoError(t, err)
	_, err = r.Get("mid")
	assert.ErrorIs(t, err, core.ErrNoSession)
}

func TestRegistryIdleTTL(t *testing.T) {
	now := time.Now()
	var mu sync.Mutex
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}
	advance := func(d time.Duration) {
		mu.Lock()
		defer mu.Unlock()
		now = now.Add(d)
	}

	r := NewRegistry(WithIdleTTL(30*time.Minute), WithClock(clock))
	r.GetOrCreate("alpha")

	advance(10 * time.Minute)
	_, err := r.Get("alpha")
	assert.NoError(t, err)

	advance(31 * time.Minute)
	_, err = r.Get("alpha")
	assert.ErrorIs(t, err, core.ErrNoSession)
	assert.Equal(t, 0, r.Len())
}

func TestRegistryConcurrentAccess(t *testing.T) {
	r := NewRegistry()
	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				s := r.GetOrCreate(fmt.Sprintf("s%d", n%4))
				s.AddTerms([]string{fmt.Sprintf("term %d-%d", n, j)})
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 4, r.Len())
}
