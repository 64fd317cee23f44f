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

package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/poiesic/termnorm/ai"
	"github.com/poiesic/termnorm/core"
	"github.com/poiesic/termnorm/retry"
)

// Profiler implements ai.Profiler using OpenAI-compatible chat APIs.
type Profiler struct {
	client          llms.Model
	schemaVersion   string
	promptDir       string
	rawContentLimit int
	retry           retry.Policy
	logger          *slog.Logger
}

// newProfiler is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newProfiler(config *ai.Config) (*Profiler, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	// Use "none" as token for local OpenAI-compatible services that don't
	// require authentication
	client, err := openai.New(
		openai.WithBaseURL(config.Host),
		openai.WithToken(config.Token),
		openai.WithModel(config.Model),
	)
	if err != nil {
		return nil, err
	}

	return &Profiler{
		client:          client,
		schemaVersion:   config.SchemaVersion,
		promptDir:       config.PromptDir,
		rawContentLimit: config.RawContentLimit,
		retry:           config.Retry,
		logger:          slog.Default().With("component", "openai-profiler"),
	}, nil
}

// NewProfiler creates a new entity profiler using the provided configuration.
//
// Returns ai.Profiler interface to enforce abstraction.
func NewProfiler(config *ai.Config) (ai.Profiler, error) {
	return newProfiler(config)
}

// ExtractProfile analyzes the query and its scraped sources and returns a
// structured entity profile. When no pages are available the model works
// from its own knowledge, prompted with a keyword fallback context.
func (p *Profiler) ExtractProfile(ctx context.Context, query string, pages []core.ScrapedPage) (core.EntityProfile, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, core.ErrEmptyQuery
	}

	start := time.Now()
	userPrompt, sources := p.buildResearchText(query, pages)
	systemPrompt := buildProfileSystemPrompt(p.promptDir, p.schemaVersion)

	content := []llms.MessageContent{
		{
			Role: llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{
				llms.TextPart(systemPrompt),
			},
		},
		{
			Role: llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{
				llms.TextPart(userPrompt),
			},
		},
	}

	var profile core.EntityProfile
	err := p.retry.Do(ctx, func(ctx context.Context) error {
		response, err := p.client.GenerateContent(ctx, content, llms.WithTemperature(0.0), llms.WithJSONMode())
		if err != nil {
			return err
		}
		if len(response.Choices) < 1 {
			return fmt.Errorf("no choices returned from model")
		}

		raw := cleanResponse(response.Choices[0].Content)
		var parsed map[string]any
		if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
			p.logger.Debug("failed to parse profile JSON", "err", err)
			return fmt.Errorf("parse profile: %w", err)
		}
		profile = core.EntityProfile(parsed)
		return nil
	})
	if err != nil {
		p.logger.Error("profile extraction failed", "query", query, "err", err)
		return nil, fmt.Errorf("%w: %s", core.ErrProviderUnavailable, err)
	}

	if concept, ok := profile["core_concept"].(string); ok {
		profile["core_concept"] = normalizeCoreConcept(concept)
	}

	profile[core.MetadataKey] = map[string]any{
		"schema_version": p.resolvedVersion(),
		"source_count":   len(pages),
		"sources":        sources,
		"elapsed_ms":     time.Since(start).Milliseconds(),
	}

	p.logger.Debug("extracted profile",
		"query", query,
		"sources", len(pages),
		"fields", len(profile))
	return profile, nil
}

// buildResearchText assembles the user prompt from the query and scraped
// pages, capped at the configured content limit. With no pages it falls back
// to a keyword line so the model still has a framing to work from.
func (p *Profiler) buildResearchText(query string, pages []core.ScrapedPage) (string, []string) {
	var b strings.Builder
	b.WriteString("Research about: ")
	b.WriteString(query)
	b.WriteString("\n\n")

	if len(pages) == 0 {
		b.WriteString("No research sources were available. Profile the query from your own knowledge.\n")
		b.WriteString("Keywords: ")
		b.WriteString(strings.Join(strings.Fields(strings.ToLower(query)), ", "))
		b.WriteString("\n")
		return b.String(), nil
	}

	sources := make([]string, 0, len(pages))
	remaining := p.rawContentLimit
	for i, page := range pages {
		if remaining <= 0 {
			break
		}
		sources = append(sources, page.URL)

		excerpt := page.Content
		if len(excerpt) > remaining {
			excerpt = truncateAtRuneBoundary(excerpt, remaining)
		}
		remaining -= len(excerpt)

		fmt.Fprintf(&b, "Source %d (%s):\n%s\n\n", i+1, page.Title, excerpt)
	}
	return b.String(), sources
}

func (p *Profiler) resolvedVersion() string {
	if p.schemaVersion == "" || p.schemaVersion == "latest" {
		return ai.LatestSchemaVersion
	}
	return p.schemaVersion
}
