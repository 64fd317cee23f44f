package research

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseResultLinks_DuckDuckGo(t *testing.T) {
	page := `<html><body>
<div class="result results_links">
  <a class="result__a" href="//duckduckgo.com/l/?uddg=https%3A%2F%2Fexample.com%2Fsteel&rut=abc">Steel guide</a>
  <a class="result__snippet" href="https://example.com/steel">snippet</a>
</div>
<div class="result results_links">
  <a class="result__a" href="https://example.org/pipes">Pipes</a>
</div>
<a href="https://ads.example.com/x">ad link without class</a>
</body></html>`

	urls := parseResultLinks(page, 10, "result__a", decodeDuckDuckGoRedirect)
	require.Len(t, urls, 2)
	assert.Equal(t, "https://example.com/steel", urls[0], "redirect must be unwrapped")
	assert.Equal(t, "https://example.org/pipes", urls[1])
}

func TestParseResultLinks_MaxResults(t *testing.T) {
	var sb []byte
	for i := 0; i < 10; i++ {
		sb = append(sb, []byte(fmt.Sprintf(
			`<a class="result__a" href="https://example.com/%d">r</a>`, i))...)
	}
	urls := parseResultLinks("<html><body>"+string(sb)+"</body></html>", 3, "result__a", nil)
	assert.Len(t, urls, 3)
}

func TestParseBingLinks(t *testing.T) {
	page := `<html><body><ol>
<li class="b_algo"><h2><a href="https://example.com/a">A</a></h2></li>
<li class="b_algo"><h2><a href="https://example.com/b">B</a></h2></li>
<li class="b_ad"><h2><a href="https://ads.example.com/c">Ad</a></h2></li>
</ol></body></html>`

	urls := parseBingLinks(page, 10)
	assert.Equal(t, []string{"https://example.com/a", "https://example.com/b"}, urls)
}

func TestDecodeDuckDuckGoRedirect(t *testing.T) {
	t.Run("unwraps redirect", func(t *testing.T) {
		raw := "//duckduckgo.com/l/?uddg=https%3A%2F%2Fexample.com%2Fpage&rut=xyz"
		assert.Equal(t, "https://example.com/page", decodeDuckDuckGoRedirect(raw))
	})

	t.Run("plain url untouched", func(t *testing.T) {
		assert.Equal(t, "https://example.com", decodeDuckDuckGoRedirect("https://example.com"))
	})
}

func TestBraveEngine_Search(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("X-Subscription-Token"))
		fmt.Fprint(w, `{"web":{"results":[{"url":"https://example.com/1"},{"url":"https://example.com/2"}]}}`)
	}))
	defer server.Close()

	// Point the engine at the test server by rewriting the request host.
	client := &http.Client{
		Timeout: 2 * time.Second,
		Transport: rewriteTransport{target: server.URL},
	}
	engine := &BraveEngine{APIKey: "test-key", Client: client}

	urls, err := engine.Search(context.Background(), "steel", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://example.com/1", "https://example.com/2"}, urls)
}

func TestSearxEngine_FirstNonEmptyInstanceWins(t *testing.T) {
	emptyInstance := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"results":[]}`)
	}))
	defer emptyInstance.Close()

	fullInstance := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"results":[{"url":"https://example.com/hit"}]}`)
	}))
	defer fullInstance.Close()

	engine := &SearxEngine{
		Instances: []string{emptyInstance.URL, fullInstance.URL},
		Client:    &http.Client{Timeout: 2 * time.Second},
	}

	urls, err := engine.Search(context.Background(), "steel", 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://example.com/hit"}, urls)
}

func TestSearxEngine_AllInstancesFail(t *testing.T) {
	dead := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer dead.Close()

	engine := &SearxEngine{
		Instances: []string{dead.URL},
		Client:    &http.Client{Timeout: 2 * time.Second},
	}

	_, err := engine.Search(context.Background(), "steel", 5)
	assert.Error(t, err)
}

// rewriteTransport sends every request to the test server regardless of host.
type rewriteTransport struct {
	target string
}

func (t rewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	redirected := *req
	redirected.URL.Scheme = "http"
	redirected.URL.Host = t.target[len("http://"):]
	return http.DefaultTransport.RoundTrip(&redirected)
}
