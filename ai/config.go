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


package ai

import (
	"errors"
	"strings"
	"time"

	"github.com/poiesic/termnorm/retry"
)

// Config holds configuration for AI service providers.
type Config struct {
	// Host is the base URL for the OpenAI-compatible chat API.
	// Example: "http://localhost:11434/v1" for a local server
	Host string

	// Model is the chat model identifier used for profiling and ranking.
	// Example: "qwen2.5:3b", "gpt-4o-mini"
	Model string

	// Token is the API token. Local OpenAI-compatible services that don't
	// require authentication accept any non-empty value.
	Token string

	// SchemaVersion selects the entity-profile schema family version.
	// "latest" resolves to the newest embedded version. Default: "latest"
	SchemaVersion string

	// PromptDir optionally points at a directory of prompt template
	// overrides (profile_<version>.txt). When unset or unreadable, the
	// embedded templates are used.
	PromptDir string

	// RawContentLimit caps the combined research text handed to the
	// profiler, in characters. Default: 12000
	RawContentLimit int

	// MaxRankCandidates caps how many token-matched candidates are embedded
	// in the ranking prompt. Default: 20
	MaxRankCandidates int

	// Retry is the transient-failure policy applied to every provider call.
	// Defaults to 3 attempts with 1s/2s/4s backoff and a 60s per-attempt
	// timeout.
	Retry retry.Policy
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithHost sets the chat service host URL.
func WithHost(host string) ConfigOption {
	return func(c *Config) {
		c.Host = host
	}
}

// WithModel sets the chat model identifier.
func WithModel(model string) ConfigOption {
	return func(c *Config) {
		c.Model = model
	}
}

// WithToken sets the API token.
func WithToken(token string) ConfigOption {
	return func(c *Config) {
		c.Token = token
	}
}

// WithSchemaVersion selects the profile schema version.
func WithSchemaVersion(version string) ConfigOption {
	return func(c *Config) {
		c.SchemaVersion = version
	}
}

// WithPromptDir sets the prompt template override directory.
func WithPromptDir(dir string) ConfigOption {
	return func(c *Config) {
		c.PromptDir = dir
	}
}

// WithRawContentLimit caps the combined research text size in characters.
func WithRawContentLimit(limit int) ConfigOption {
	return func(c *Config) {
		c.RawContentLimit = limit
	}
}

// WithRetryPolicy overrides the provider-call retry policy.
func WithRetryPolicy(policy retry.Policy) ConfigOption {
	return func(c *Config) {
		c.Retry = policy
	}
}

// DefaultConfig returns a Config with sensible defaults for local
// OpenAI-compatible services.
func DefaultConfig() *Config {
	return &Config{
		Host:              "http://localhost:11434/v1",
		Model:             "qwen2.5:3b",
		Token:             "none",
		SchemaVersion:     "latest",
		RawContentLimit:   12000,
		MaxRankCandidates: 20,
		Retry: retry.Policy{
			MaxAttempts:    3,
			BaseDelay:      time.Second,
			AttemptTimeout: 60 * time.Second,
		},
	}
}

// NewConfig creates a Config with the default values and applies the provided
// options. This is the recommended way to create a Config with custom
// settings.
//
// Example:
//
//	cfg := ai.NewConfig(
//	    ai.WithHost("http://localhost:11434/v1"),
//	    ai.WithModel("gpt-4o-mini"),
//	)
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Normalize ensures the configuration is in a canonical form.
// It automatically adds the /v1 suffix to the host if missing, which is
// required by most OpenAI-compatible APIs (Ollama, LocalAI, vLLM, etc).
func (c *Config) Normalize() {
	if c.Host != "" && !strings.HasSuffix(c.Host, "/v1") {
		c.Host = strings.TrimSuffix(c.Host, "/")
		c.Host = c.Host + "/v1"
	}
	if c.SchemaVersion == "" {
		c.SchemaVersion = "latest"
	}
	if c.Token == "" {
		c.Token = "none"
	}
}

// Validate checks that the configuration is valid and complete.
// It automatically normalizes the configuration before validation.
func (c *Config) Validate() error {
	c.Normalize()

	if c.Host == "" {
		return errors.New("ai config: Host is required")
	}
	if c.Model == "" {
		return errors.New("ai config: Model is required")
	}
	if c.RawContentLimit <= 0 {
		return errors.New("ai config: RawContentLimit must be positive")
	}
	if c.MaxRankCandidates <= 0 {
		return errors.New("ai config: MaxRankCandidates must be positive")
	}
	if c.Retry.MaxAttempts <= 0 {
		return errors.New("ai config: Retry.MaxAttempts must be positive")
	}
	return nil
}
