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
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// Engine is one search backend in the cascade. Search returns result URLs in
// engine ranking order; an empty slice with a nil error means the engine
// answered but found nothing.
type Engine interface {
	Name() string
	Search(ctx context.Context, query string, maxResults int) ([]string, error)
}

const searchUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

func getWithBrowserHeaders(ctx context.Context, client *http.Client, rawURL string, extra map[string]string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", searchUserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")
	for key, value := range extra {
		req.Header.Set(key, value)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}

	return io.ReadAll(io.LimitReader(resp.Body, 2<<20)) // 2MB limit
}

// BraveEngine queries the Brave Search API. Requires an API key; a 429 or any
// other failure is reported to the cascade, which falls through to the next
// engine.
type BraveEngine struct {
	APIKey string
	Client *http.Client
}

func (e *BraveEngine) Name() string { return "Brave Search API" }

func (e *BraveEngine) Search(ctx context.Context, query string, maxResults int) ([]string, error) {
	searchURL := fmt.Sprintf("https://api.search.brave.com/res/v1/web/search?q=%s&count=%d",
		url.QueryEscape(query), maxResults)

	body, err := getWithBrowserHeaders(ctx, e.Client, searchURL, map[string]string{
		"X-Subscription-Token": e.APIKey,
		"Accept":               "application/json",
	})
	if err != nil {
		return nil, err
	}

	var payload struct {
		Web struct {
			Results []struct {
				URL string `json:"url"`
			} `json:"results"`
		} `json:"web"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("brave response parse: %w", err)
	}

	urls := make([]string, 0, len(payload.Web.Results))
	for _, result := range payload.Web.Results {
		if result.URL != "" {
			urls = append(urls, result.URL)
		}
	}
	return urls, nil
}

// SearxEngine queries SearXNG meta-search instances in order, returning the
// first instance's non-empty result list. Instance errors are collected; an
// error is returned only when every instance failed.
type SearxEngine struct {
	Instances []string
	Client    *http.Client
}

// DefaultSearxInstances are public SearXNG deployments tried in order.
var DefaultSearxInstances = []string{
	"https://searx.be",
	"https://search.brave4u.com",
	"https://priv.au",
}

func (e *SearxEngine) Name() string { return "SearXNG meta-search" }

func (e *SearxEngine) Search(ctx context.Context, query string, maxResults int) ([]string, error) {
	var lastErr error
	for _, instance := range e.Instances {
		searchURL := fmt.Sprintf("%s/search?q=%s&format=json",
			strings.TrimSuffix(instance, "/"), url.QueryEscape(query))

		body, err := getWithBrowserHeaders(ctx, e.Client, searchURL, map[string]string{
			"Accept": "application/json",
		})
		if err != nil {
			lastErr = fmt.Errorf("%s: %w", instance, err)
			continue
		}

		var payload struct {
			Results []struct {
				URL string `json:"url"`
			} `json:"results"`
		}
		if err := json.Unmarshal(body, &payload); err != nil {
			lastErr = fmt.Errorf("%s: parse: %w", instance, err)
			continue
		}

		urls := make([]string, 0, len(payload.Results))
		for _, result := range payload.Results {
			if result.URL != "" {
				urls = append(urls, result.URL)
			}
			if len(urls) >= maxResults {
				break
			}
		}
		if len(urls) > 0 {
			return urls, nil
		}
	}
	return nil, lastErr
}

// DuckDuckGoEngine scrapes the DuckDuckGo HTML interface. No API key needed.
type DuckDuckGoEngine struct {
	Client *http.Client
}

func (e *DuckDuckGoEngine) Name() string { return "DuckDuckGo HTML" }

func (e *DuckDuckGoEngine) Search(ctx context.Context, query string, maxResults int) ([]string, error) {
	searchURL := fmt.Sprintf("https://html.duckduckgo.com/html/?q=%s", url.QueryEscape(query))
	body, err := getWithBrowserHeaders(ctx, e.Client, searchURL, nil)
	if err != nil {
		return nil, err
	}
	return parseResultLinks(string(body), maxResults, "result__a", decodeDuckDuckGoRedirect), nil
}

// decodeDuckDuckGoRedirect unwraps DuckDuckGo's uddg redirect URLs.
func decodeDuckDuckGoRedirect(raw string) string {
	for _, prefix := range []string{"//duckduckgo.com/l/?uddg=", "https://duckduckgo.com/l/?uddg="} {
		if strings.HasPrefix(raw, prefix) {
			decoded, err := url.QueryUnescape(strings.TrimPrefix(raw, prefix))
			if err != nil {
				return raw
			}
			if idx := strings.Index(decoded, "&"); idx > 0 {
				decoded = decoded[:idx]
			}
			return decoded
		}
	}
	return raw
}

// BingEngine scrapes the Bing HTML interface. Last stage of the cascade.
type BingEngine struct {
	Client *http.Client
}

func (e *BingEngine) Name() string { return "Bing HTML" }

func (e *BingEngine) Search(ctx context.Context, query string, maxResults int) ([]string, error) {
	searchURL := fmt.Sprintf("https://www.bing.com/search?q=%s", url.QueryEscape(query))
	body, err := getWithBrowserHeaders(ctx, e.Client, searchURL, nil)
	if err != nil {
		return nil, err
	}
	return parseBingLinks(string(body), maxResults), nil
}

// parseResultLinks walks the result HTML collecting hrefs from anchors whose
// class contains the given marker.
func parseResultLinks(htmlContent string, maxResults int, classMarker string, decode func(string) string) []string {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return nil
	}

	var urls []string
	seen := make(map[string]struct{})

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if len(urls) >= maxResults {
			return
		}
		if n.Type == html.ElementNode && n.Data == "a" {
			var href, class string
			for _, attr := range n.Attr {
				switch attr.Key {
				case "href":
					href = attr.Val
				case "class":
					class = attr.Val
				}
			}
			if strings.Contains(class, classMarker) && href != "" {
				if decode != nil {
					href = decode(href)
				}
				if strings.HasPrefix(href, "http") {
					if _, dup := seen[href]; !dup {
						seen[href] = struct{}{}
						urls = append(urls, href)
					}
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return urls
}

// parseBingLinks extracts organic result links: anchors inside h2 headings of
// li.b_algo blocks.
func parseBingLinks(htmlContent string, maxResults int) []string {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return nil
	}

	var urls []string
	seen := make(map[string]struct{})

	var inResult func(*html.Node) bool
	inResult = func(n *html.Node) bool {
		if n == nil {
			return false
		}
		if n.Type == html.ElementNode && n.Data == "li" {
			for _, attr := range n.Attr {
				if attr.Key == "class" && strings.Contains(attr.Val, "b_algo") {
					return true
				}
			}
		}
		return inResult(n.Parent)
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if len(urls) >= maxResults {
			return
		}
		if n.Type == html.ElementNode && n.Data == "a" && n.Parent != nil && n.Parent.Data == "h2" && inResult(n) {
			for _, attr := range n.Attr {
				if attr.Key == "href" && strings.HasPrefix(attr.Val, "http") {
					if _, dup := seen[attr.Val]; !dup {
						seen[attr.Val] = struct{}{}
						urls = append(urls, attr.Val)
					}
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return urls
}
