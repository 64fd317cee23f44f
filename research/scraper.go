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
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"regexp"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/panjf2000/ants/v2"
	"golang.org/x/net/html"

	"github.com/poiesic/termnorm/core"
)

const (
	// Pages with visible text below/above these bounds are too thin or too
	// bloated to feed the profiler.
	minPageChars = 200
	maxPageChars = 10000

	// failedURLSample bounds the diagnostic list of failed URLs.
	failedURLSample = 10
)

// skippableExtensions are fetched-content types we never scrape.
var skippableExtensions = map[string]struct{}{
	".pdf": {}, ".doc": {}, ".docx": {}, ".ppt": {}, ".pptx": {},
	".xls": {}, ".xlsx": {}, ".zip": {}, ".gz": {}, ".tar": {},
	".jpg": {}, ".jpeg": {}, ".png": {}, ".gif": {}, ".svg": {},
	".mp3": {}, ".mp4": {}, ".avi": {}, ".exe": {},
}

// skippableDomains host academic papers behind paywalls or heavy PDF viewers;
// scraping them wastes the budget.
var skippableDomains = []string{
	"arxiv.org", "researchgate.net", "sciencedirect.com",
	"springer.com", "jstor.org", "ieeexplore.ieee.org",
	"dl.acm.org", "onlinelibrary.wiley.com",
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// scraper fetches pages concurrently through a bounded worker pool and
// extracts their visible text. Individual failures are recorded, never
// propagated.
type scraper struct {
	client       *http.Client
	pool         *ants.Pool
	contentLimit int
	logger       *slog.Logger
}

// scrapeBatch fetches pages until maxSites successes are collected. If the
// first batch (up to 2*maxSites URLs) produces zero successes and more URLs
// remain, the remainder is tried once as a backup batch.
func (s *scraper) scrapeBatch(ctx context.Context, urls []string, maxSites int) ([]core.ScrapedPage, []string) {
	if maxSites <= 0 || len(urls) == 0 {
		return nil, nil
	}

	firstBatch := urls
	var backupBatch []string
	if len(urls) > 2*maxSites {
		firstBatch = urls[:2*maxSites]
		backupBatch = urls[2*maxSites:]
	}

	pages, failed := s.scrapeURLs(ctx, firstBatch, maxSites)
	if len(pages) == 0 && len(backupBatch) > 0 {
		s.logger.Debug("first scrape batch empty, trying backup batch", "urls", len(backupBatch))
		var backupFailed []string
		pages, backupFailed = s.scrapeURLs(ctx, backupBatch, maxSites)
		failed = append(failed, backupFailed...)
	}

	if len(failed) > failedURLSample {
		failed = failed[:failedURLSample]
	}
	return pages, failed
}

func (s *scraper) scrapeURLs(ctx context.Context, urls []string, maxSites int) ([]core.ScrapedPage, []string) {
	var (
		mu     sync.Mutex
		pages  []core.ScrapedPage
		failed []string
		wg     sync.WaitGroup
	)

	for _, rawURL := range urls {
		if s.skipURL(rawURL) {
			s.logger.Debug("skipping non-scrapable url", "url", rawURL)
			continue
		}

		rawURL := rawURL
		wg.Add(1)
		submitErr := s.pool.Submit(func() {
			defer wg.Done()

			// Enough pages collected; don't spend a fetch.
			mu.Lock()
			done := len(pages) >= maxSites
			mu.Unlock()
			if done || ctx.Err() != nil {
				return
			}

			page := s.scrapeOne(ctx, rawURL)

			mu.Lock()
			defer mu.Unlock()
			if page == nil {
				failed = append(failed, rawURL)
				return
			}
			if len(pages) < maxSites {
				pages = append(pages, *page)
			}
		})
		if submitErr != nil {
			wg.Done()
			s.logger.Warn("scrape pool rejected task", "url", rawURL, "err", submitErr)
		}
	}
	wg.Wait()

	return pages, failed
}

// scrapeOne fetches and extracts a single page. Any failure (timeout,
// non-200, parse error, out-of-bounds content) yields nil.
func (s *scraper) scrapeOne(ctx context.Context, rawURL string) *core.ScrapedPage {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil
	}
	req.Header.Set("User-Agent", searchUserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.Debug("scrape fetch failed", "url", rawURL, "err", err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		s.logger.Debug("scrape non-200", "url", rawURL, "status", resp.StatusCode)
		return nil
	}
	contentType := resp.Header.Get("Content-Type")
	if contentType != "" && !strings.Contains(contentType, "html") && !strings.Contains(contentType, "text/plain") {
		return nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 2<<20))
	if err != nil {
		return nil
	}

	title, text := extractVisibleText(string(body))
	if len(text) < minPageChars || len(text) > maxPageChars {
		s.logger.Debug("scrape content out of bounds", "url", rawURL, "chars", len(text))
		return nil
	}
	if s.contentLimit > 0 && len(text) > s.contentLimit {
		text = truncateAtRuneBoundary(text, s.contentLimit)
	}
	if title == "" {
		title = rawURL
	}

	return &core.ScrapedPage{Title: title, Content: text, URL: rawURL}
}

// skipURL reports whether the URL points at a known non-HTML payload or an
// academic-paper domain.
func (s *scraper) skipURL(rawURL string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return true
	}
	ext := strings.ToLower(path.Ext(parsed.Path))
	if _, skip := skippableExtensions[ext]; skip {
		return true
	}
	host := strings.ToLower(parsed.Hostname())
	for _, domain := range skippableDomains {
		if host == domain || strings.HasSuffix(host, "."+domain) {
			return true
		}
	}
	return false
}

// droppedElements never contribute visible text.
var droppedElements = map[string]struct{}{
	"script": {}, "style": {}, "nav": {}, "header": {}, "footer": {},
	"noscript": {}, "iframe": {}, "svg": {}, "form": {},
}

// extractVisibleText parses HTML and returns the document title plus its
// visible text with whitespace collapsed.
func extractVisibleText(htmlContent string) (title, text string) {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return "", ""
	}

	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if _, drop := droppedElements[n.Data]; drop {
				return
			}
			if n.Data == "title" && title == "" && n.FirstChild != nil {
				title = strings.TrimSpace(n.FirstChild.Data)
				return
			}
		}
		if n.Type == html.TextNode {
			trimmed := strings.TrimSpace(n.Data)
			if trimmed != "" {
				sb.WriteString(trimmed)
				sb.WriteString(" ")
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return title, strings.TrimSpace(whitespaceRun.ReplaceAllString(sb.String(), " "))
}

// truncateAtRuneBoundary cuts s to at most limit bytes without splitting a
// multi-byte rune at the cut point.
func truncateAtRuneBoundary(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	for limit > 0 && !utf8.RuneStart(s[limit]) {
		limit--
	}
	return s[:limit]
}
