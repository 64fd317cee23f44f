package research

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeEngine is a scripted cascade stage for fault-injection tests.
type fakeEngine struct {
	name    string
	urls    []string
	err     error
	calls   int
	queries []string
}

func (f *fakeEngine) Name() string { return f.name }

func (f *fakeEngine) Search(ctx context.Context, query string, maxResults int) ([]string, error) {
	f.calls++
	f.queries = append(f.queries, query)
	if f.err != nil {
		return nil, f.err
	}
	return f.urls, nil
}

func newTestResearcher(t *testing.T, engines ...Engine) *Researcher {
	t.Helper()
	r, err := NewResearcher(
		WithEngines(engines...),
		WithHTTPClient(&http.Client{Timeout: 2 * time.Second}),
	)
	require.NoError(t, err)
	t.Cleanup(r.Close)
	return r
}

// pageServer serves a scrapable HTML page of the given body length.
func pageServer(t *testing.T, bodyChars int) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "<html><head><title>Test Page</title></head><body><p>%s</p></body></html>",
			strings.Repeat("spec word ", bodyChars/10))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestSearchAndScrape_CascadeOrdering(t *testing.T) {
	// Brave fails, SearXNG answers: DuckDuckGo and Bing must never be called.
	server := pageServer(t, 1000)

	brave := &fakeEngine{name: "Brave Search API", err: errors.New("HTTP 429: Too Many Requests")}
	searx := &fakeEngine{name: "SearXNG meta-search", urls: []string{server.URL}}
	ddg := &fakeEngine{name: "DuckDuckGo HTML"}
	bing := &fakeEngine{name: "Bing HTML"}

	r := newTestResearcher(t, brave, searx, ddg, bing)

	result, err := r.SearchAndScrape(context.Background(), "stainless steel pipe", 3)
	require.NoError(t, err)

	assert.Equal(t, "SearXNG meta-search", result.SearchMethod)
	assert.Equal(t, 1, brave.calls, "failed engine gets no enriched retry")
	assert.Equal(t, 1, searx.calls)
	assert.Zero(t, ddg.calls, "cascade must stop at first success")
	assert.Zero(t, bing.calls)
	assert.False(t, result.Fallback)
	require.Len(t, result.Pages, 1)
	assert.Equal(t, "Test Page", result.Pages[0].Title)
}

func TestSearchAndScrape_EnrichedRetryOnEmpty(t *testing.T) {
	server := pageServer(t, 1000)

	// First stage answers empty twice; second stage only answers the
	// enriched variant.
	empty := &fakeEngine{name: "SearXNG meta-search"}
	late := &fakeEngine{name: "DuckDuckGo HTML"}
	lateStub := &enrichedOnlyEngine{inner: late, urls: []string{server.URL}}

	r := newTestResearcher(t, empty, lateStub)

	result, err := r.SearchAndScrape(context.Background(), "carbon fiber", 2)
	require.NoError(t, err)

	assert.Equal(t, 2, empty.calls, "empty stage gets exactly one enriched retry")
	assert.Contains(t, empty.queries[1], enrichmentSuffix)
	assert.Equal(t, "DuckDuckGo HTML (enriched)", result.SearchMethod)
}

// enrichedOnlyEngine returns URLs only for enriched queries.
type enrichedOnlyEngine struct {
	inner *fakeEngine
	urls  []string
}

func (e *enrichedOnlyEngine) Name() string { return e.inner.name }

func (e *enrichedOnlyEngine) Search(ctx context.Context, query string, maxResults int) ([]string, error) {
	e.inner.calls++
	e.inner.queries = append(e.inner.queries, query)
	if strings.Contains(query, enrichmentSuffix) {
		return e.urls, nil
	}
	return nil, nil
}

func TestSearchAndScrape_TotalMissFallsBack(t *testing.T) {
	a := &fakeEngine{name: "SearXNG meta-search"}
	b := &fakeEngine{name: "Bing HTML", err: errors.New("connection refused")}

	r := newTestResearcher(t, a, b)

	result, err := r.SearchAndScrape(context.Background(), "unobtainium widget", 3)
	require.NoError(t, err, "a total search miss is not an error")

	assert.True(t, result.Fallback)
	assert.Equal(t, FallbackMethod, result.SearchMethod)
	assert.Empty(t, result.Pages)
	assert.NotEmpty(t, result.SearchLog, "search log must survive for diagnostics")
	// Every attempt left a trace line plus the fallback marker.
	assert.GreaterOrEqual(t, len(result.SearchLog), 4)
}

func TestSearchAndScrape_SearchLogRecordsEveryAttempt(t *testing.T) {
	server := pageServer(t, 1000)
	failing := &fakeEngine{name: "Brave Search API", err: errors.New("HTTP 429")}
	winning := &fakeEngine{name: "SearXNG meta-search", urls: []string{server.URL}}

	r := newTestResearcher(t, failing, winning)

	result, err := r.SearchAndScrape(context.Background(), "copper wire", 1)
	require.NoError(t, err)

	joined := strings.Join(result.SearchLog, "\n")
	assert.Contains(t, joined, "Brave Search API")
	assert.Contains(t, joined, "SearXNG meta-search")
	assert.Contains(t, joined, "failed")
}

func TestSearchAndScrape_ContextCanceled(t *testing.T) {
	engine := &fakeEngine{name: "SearXNG meta-search", urls: []string{"http://example.invalid"}}
	r := newTestResearcher(t, engine)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := r.SearchAndScrape(ctx, "query", 3)
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, result, "partial results survive cancellation")
}

func TestSearchAndScrape_FailedURLsBounded(t *testing.T) {
	// All URLs fail to scrape; the diagnostic sample stays bounded.
	dead := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	}))
	defer dead.Close()

	urls := make([]string, 30)
	for i := range urls {
		urls[i] = fmt.Sprintf("%s/page/%d", dead.URL, i)
	}
	engine := &fakeEngine{name: "SearXNG meta-search", urls: urls}
	r := newTestResearcher(t, engine)

	result, err := r.SearchAndScrape(context.Background(), "query", 3)
	require.NoError(t, err)
	assert.Empty(t, result.Pages)
	assert.LessOrEqual(t, len(result.FailedURLs), failedURLSample)
	assert.NotEmpty(t, result.FailedURLs)
}
