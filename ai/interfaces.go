package ai

import (
	"context"

	"github.com/poiesic/termnorm/core"
)

// Profiler converts raw research text plus the query into a structured
// entity profile. Implementations must be thread-safe for concurrent use.
type Profiler interface {
	// ExtractProfile analyzes the query and its scraped sources and returns
	// a structured entity profile conforming to the configured schema
	// version. When pages is empty the profiler proceeds on model knowledge
	// alone, building a keyword fallback context from the query.
	// The returned profile carries a _metadata block with source provenance.
	// Returns an error only after the provider retry policy is exhausted.
	ExtractProfile(ctx context.Context, query string, pages []core.ScrapedPage) (core.EntityProfile, error)
}

// Ranker orders lexically matched candidates by relevance to an entity
// profile. Implementations must be thread-safe for concurrent use.
type Ranker interface {
	// RankCandidates asks the model to rank the candidates against the
	// profile, exact-spec matches outranking semantic closeness. The
	// emitted candidate strings may be paraphrased; callers are expected to
	// run the corrector over the result.
	// Returns an error only after the provider retry policy is exhausted.
	RankCandidates(ctx context.Context, query string, profile core.EntityProfile, candidates []core.CandidateScore) (*core.RankingResult, error)
}

// Provider aggregates AI services for convenient initialization and lifecycle
// management. A provider creates and manages Profiler and Ranker instances,
// ensuring they share configuration and resources appropriately.
type Provider interface {
	// Profiler returns the entity-profile extraction service.
	// The returned Profiler is safe for concurrent use.
	Profiler() Profiler

	// Ranker returns the candidate ranking service.
	// The returned Ranker is safe for concurrent use.
	Ranker() Ranker

	// Name identifies the backing provider for response metadata.
	Name() string

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}
