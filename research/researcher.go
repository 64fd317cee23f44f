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


package research

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/poiesic/termnorm/core"
)

// FallbackMethod marks a research result with no grounded sources; the
// profiler must proceed on LLM knowledge only.
const FallbackMethod = "LLM knowledge only"

// enrichmentSuffix is appended for the enriched retry of each cascade stage.
const enrichmentSuffix = " material properties"

const defaultScrapePoolSize = 4

// Researcher runs the search-engine cascade and scrapes the winning result
// set. It never hard-fails: when every engine comes up empty the result is a
// fallback marker plus the full search log.
type Researcher struct {
	engines    []Engine
	scraper    *scraper
	maxResults int
	logger     *slog.Logger
}

// Option configures a Researcher.
type Option func(*config)

type config struct {
	braveAPIKey    string
	searxInstances []string
	engines        []Engine
	httpClient     *http.Client
	poolSize       int
	contentLimit   int
	maxResults     int
	logger         *slog.Logger
}

// WithBraveAPIKey enables the Brave Search API as the first cascade stage.
// Without a key the cascade starts at SearXNG.
func WithBraveAPIKey(key string) Option {
	return func(c *config) { c.braveAPIKey = key }
}

// WithSearxInstances overrides the SearXNG instance list.
func WithSearxInstances(instances []string) Option {
	return func(c *config) { c.searxInstances = instances }
}

// WithEngines replaces the whole cascade. Intended for tests and special
// deployments; engines are tried strictly in the given order.
func WithEngines(engines ...Engine) Option {
	return func(c *config) { c.engines = engines }
}

// WithHTTPClient sets the client used for searches and scrapes.
// Default has a 10 second timeout so one slow page cannot stall the pipeline.
func WithHTTPClient(client *http.Client) Option {
	return func(c *config) { c.httpClient = client }
}

// WithPoolSize sets the scrape worker pool size. Default is 4.
func WithPoolSize(size int) Option {
	return func(c *config) {
		if size >= 1 {
			c.poolSize = size
		}
	}
}

// WithContentLimit truncates each kept page to this many characters.
func WithContentLimit(limit int) Option {
	return func(c *config) { c.contentLimit = limit }
}

// WithMaxResults caps the URL count requested from each engine.
func WithMaxResults(max int) Option {
	return func(c *config) {
		if max >= 1 {
			c.maxResults = max
		}
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewResearcher creates a researcher with the standard cascade:
// Brave (when a key is configured) → SearXNG → DuckDuckGo → Bing.
func NewResearcher(opts ...Option) (*Researcher, error) {
	cfg := &config{
		searxInstances: DefaultSearxInstances,
		httpClient:     &http.Client{Timeout: 10 * time.Second},
		poolSize:       defaultScrapePoolSize,
		contentLimit:   4000,
		maxResults:     20,
		logger:         slog.Default().With("component", "researcher"),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	engines := cfg.engines
	if engines == nil {
		if cfg.braveAPIKey != "" {
			engines = append(engines, &BraveEngine{APIKey: cfg.braveAPIKey, Client: cfg.httpClient})
		}
		engines = append(engines,
			&SearxEngine{Instances: cfg.searxInstances, Client: cfg.httpClient},
			&DuckDuckGoEngine{Client: cfg.httpClient},
			&BingEngine{Client: cfg.httpClient},
		)
	}

	pool, err := ants.NewPool(cfg.poolSize)
	if err != nil {
		return nil, err
	}

	return &Researcher{
		engines:    engines,
		maxResults: cfg.maxResults,
		logger:     cfg.logger,
		scraper: &scraper{
			client:       cfg.httpClient,
			pool:         pool,
			contentLimit: cfg.contentLimit,
			logger:       cfg.logger,
		},
	}, nil
}

// Close releases the scrape worker pool.
func (r *Researcher) Close() {
	r.scraper.pool.Release()
}

// SearchAndScrape researches a query: the engine cascade finds candidate
// URLs, then up to maxSites of them are scraped concurrently. Every attempt
// leaves a trace line in SearchLog. The returned error is non-nil only for
// context cancellation; search and scrape failures degrade, they do not
// propagate.
func (r *Researcher) SearchAndScrape(ctx context.Context, query string, maxSites int) (*core.ResearchResult, error) {
	result := &core.ResearchResult{}

	urls, method := r.cascade(ctx, query, result)
	if ctx.Err() != nil {
		return result, ctx.Err()
	}

	if len(urls) == 0 {
		result.SearchMethod = FallbackMethod
		result.Fallback = true
		result.SearchLog = append(result.SearchLog,
			fmt.Sprintf("all %d search stages empty, falling back to LLM knowledge only", len(r.engines)))
		r.logger.Warn("web search failed for query, proceeding ungrounded", "query", query)
		return result, nil
	}

	result.SearchMethod = method
	result.SearchLog = append(result.SearchLog,
		fmt.Sprintf("scraping up to %d of %d urls via %s", maxSites, len(urls), method))

	pages, failed := r.scraper.scrapeBatch(ctx, urls, maxSites)
	result.Pages = pages
	result.FailedURLs = failed
	if ctx.Err() != nil {
		return result, ctx.Err()
	}

	result.SearchLog = append(result.SearchLog,
		fmt.Sprintf("scraped %d pages, %d failures", len(pages), len(failed)))
	return result, nil
}

// cascade tries each engine in order, stopping at the first non-empty URL
// list. An engine that answers empty (no error) gets one enriched retry
// before the cascade moves on; an engine that errors falls through
// immediately.
func (r *Researcher) cascade(ctx context.Context, query string, result *core.ResearchResult) ([]string, string) {
	for _, engine := range r.engines {
		if ctx.Err() != nil {
			return nil, ""
		}

		urls, err := r.attempt(ctx, engine, query, result)
		if err != nil {
			continue
		}
		if len(urls) > 0 {
			return urls, engine.Name()
		}

		enriched := query + enrichmentSuffix
		urls, err = r.attempt(ctx, engine, enriched, result)
		if err == nil && len(urls) > 0 {
			return urls, engine.Name() + " (enriched)"
		}
	}
	return nil, ""
}

func (r *Researcher) attempt(ctx context.Context, engine Engine, query string, result *core.ResearchResult) ([]string, error) {
	urls, err := engine.Search(ctx, query, r.maxResults)
	if err != nil {
		result.SearchLog = append(result.SearchLog,
			fmt.Sprintf("%s: query %q failed: %v", engine.Name(), query, err))
		r.logger.Debug("search stage failed", "engine", engine.Name(), "err", err)
		return nil, err
	}
	result.SearchLog = append(result.SearchLog,
		fmt.Sprintf("%s: query %q returned %d urls", engine.Name(), query, len(urls)))
	return urls, nil
}
