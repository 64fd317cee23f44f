package match

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTokenMatcher_Dedup(t *testing.T) {
	// Case-sensitive exact dedup keeps the first-seen casing.
	m := NewTokenMatcher([]string{
		"Stainless Steel Pipe",
		"stainless steel pipe",
		"Carbon Fiber",
		"Stainless Steel Pipe",
	})

	terms := m.Terms()
	require.Len(t, terms, 3)
	assert.Equal(t, []string{"Stainless Steel Pipe", "stainless steel pipe", "Carbon Fiber"}, terms)
}

func TestTokenMatcher_IndexCompleteness(t *testing.T) {
	// Every token of every term must map back to that term.
	terms := []string{"Stainless Steel Pipe", "Carbon Fiber", "Copper Wire 12AWG"}
	m := NewTokenMatcher(terms)

	for _, term := range terms {
		for token := range Tokenize(term) {
			results := m.Match(token)
			found := false
			for _, r := range results {
				if r.Term == term {
					found = true
				}
			}
			assert.True(t, found, "token %q should reach term %q", token, term)
		}
	}
}

func TestTokenMatcher_Append(t *testing.T) {
	t.Run("append extends vocabulary", func(t *testing.T) {
		m := NewTokenMatcher([]string{"Carbon Fiber"})
		m.Append([]string{"Copper Wire"})
		assert.Equal(t, 2, m.Len())
		results := m.Match("copper")
		require.Len(t, results, 1)
		assert.Equal(t, "Copper Wire", results[0].Term)
	})

	t.Run("idempotent", func(t *testing.T) {
		m := NewTokenMatcher([]string{"Carbon Fiber"})
		m.Append([]string{"Copper Wire"})
		before := m.Len()
		m.Append([]string{"Copper Wire"})
		m.Append([]string{"Copper Wire"})
		assert.Equal(t, before, m.Len(), "appending a present term is a no-op")
	})

	t.Run("empty input is a no-op", func(t *testing.T) {
		m := NewTokenMatcher([]string{"Carbon Fiber"})
		m.Append(nil)
		m.Append([]string{})
		assert.Equal(t, 1, m.Len())
	})
}

func TestTokenMatcher_Match(t *testing.T) {
	m := NewTokenMatcher([]string{
		"Stainless Steel Pipe",
		"Carbon Fiber",
		"Steel Rod",
	})

	t.Run("term-normalized score", func(t *testing.T) {
		// Both query tokens hit the 3-token term: 2/3, not 1.0.
		results := m.Match("steel pipe")
		require.NotEmpty(t, results)
		assert.Equal(t, "Stainless Steel Pipe", results[0].Term)
		assert.InDelta(t, 2.0/3.0, results[0].Score, 1e-9)
	})

	t.Run("full coverage scores 1", func(t *testing.T) {
		results := m.Match("a carbon fiber composite")
		require.NotEmpty(t, results)
		assert.Equal(t, "Carbon Fiber", results[0].Term)
		assert.InDelta(t, 1.0, results[0].Score, 1e-9)
	})

	t.Run("soundness", func(t *testing.T) {
		vocabulary := map[string]bool{}
		for _, term := range m.Terms() {
			vocabulary[term] = true
		}
		results := m.Match("steel carbon widget")
		for _, r := range results {
			assert.Greater(t, r.Score, 0.0)
			assert.True(t, vocabulary[r.Term], "result %q must be a vocabulary term", r.Term)
			// At least one shared token.
			shared := false
			for token := range Tokenize(r.Term) {
				if _, ok := Tokenize("steel carbon widget")[token]; ok {
					shared = true
				}
			}
			assert.True(t, shared)
		}
	})

	t.Run("zero-overlap terms excluded", func(t *testing.T) {
		results := m.Match("titanium bolt")
		assert.Empty(t, results)
	})

	t.Run("empty query", func(t *testing.T) {
		assert.Empty(t, m.Match(""))
		assert.Empty(t, m.Match())
		assert.Empty(t, m.Match("???"))
	})

	t.Run("descending order", func(t *testing.T) {
		results := m.Match("stainless steel rod pipe")
		for i := 1; i < len(results); i++ {
			assert.GreaterOrEqual(t, results[i-1].Score, results[i].Score)
		}
	})

	t.Run("multi-element query unions tokens", func(t *testing.T) {
		joined := m.Match("steel", "pipe")
		single := m.Match("steel pipe")
		assert.ElementsMatch(t, single, joined)
	})
}

func TestTokenMatcher_ConcurrentAppendAndMatch(t *testing.T) {
	m := NewTokenMatcher([]string{"seed term"})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				m.Append([]string{fmt.Sprintf("term %d %d", n, j)})
			}
		}(i)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				m.Match("term seed")
			}
		}()
	}
	wg.Wait()

	// 8 writers * 50 unique terms + the seed.
	assert.Equal(t, 401, m.Len())
}
