package mock

import (
	"context"
	"strings"

	"github.com/poiesic/termnorm/core"
)

// MockProfiler is a test double for ai.Profiler.
// It allows custom behavior injection via function fields.
type MockProfiler struct {
	// ExtractProfileFunc is called by ExtractProfile if set.
	// If nil, uses default word-based profile construction.
	ExtractProfileFunc func(ctx context.Context, query string, pages []core.ScrapedPage) (core.EntityProfile, error)

	callCount int
}

// NewMockProfiler creates a mock profiler with default behavior.
// Note: Returns concrete type to allow test assertions on call counts.
func NewMockProfiler() *MockProfiler {
	return &MockProfiler{}
}

// ExtractProfile builds a simple deterministic profile from the query words.
// Default behavior: first word becomes the core concept, all words become
// classification aliases.
func (m *MockProfiler) ExtractProfile(ctx context.Context, query string, pages []core.ScrapedPage) (core.EntityProfile, error) {
	m.callCount++

	if m.ExtractProfileFunc != nil {
		return m.ExtractProfileFunc(ctx, query, pages)
	}

	words := strings.Fields(strings.ToLower(query))
	coreConcept := ""
	if len(words) > 0 {
		coreConcept = words[0]
	}

	aliases := make([]string, len(words))
	copy(aliases, words)

	sources := make([]string, 0, len(pages))
	for _, page := range pages {
		sources = append(sources, page.URL)
	}

	return core.EntityProfile{
		"entity_name":            query,
		"core_concept":           coreConcept,
		"classification_aliases": aliases,
		core.MetadataKey: map[string]any{
			"schema_version": "mock",
			"source_count":   len(pages),
			"sources":        sources,
		},
	}, nil
}

// CallCount returns the number of times ExtractProfile was called.
func (m *MockProfiler) CallCount() int {
	return m.callCount
}

// Reset clears the call count and custom functions.
func (m *MockProfiler) Reset() {
	m.callCount = 0
	m.ExtractProfileFunc = nil
}
