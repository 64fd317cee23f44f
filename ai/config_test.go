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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/poiesic/termnorm/retry"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "http://localhost:11434/v1", cfg.Host)
	assert.Equal(t, "qwen2.5:3b", cfg.Model)
	assert.Equal(t, "latest", cfg.SchemaVersion)
	assert.Equal(t, 12000, cfg.RawContentLimit)
	assert.Equal(t, 20, cfg.MaxRankCandidates)
	assert.Equal(t, 3, cfg.Retry.MaxAttempts)
	assert.Equal(t, time.Second, cfg.Retry.BaseDelay)
	assert.Equal(t, 60*time.Second, cfg.Retry.AttemptTimeout)
}

func TestNewConfig(t *testing.T) {
	t.Run("with no options", func(t *testing.T) {
		cfg := NewConfig()

		assert.NotNil(t, cfg)
		// Should have default values
		assert.Equal(t, "http://localhost:11434/v1", cfg.Host)
		assert.Equal(t, "latest", cfg.SchemaVersion)
	})

	t.Run("with custom host", func(t *testing.T) {
		cfg := NewConfig(WithHost("http://custom:8080/v1"))

		assert.Equal(t, "http://custom:8080/v1", cfg.Host)
	})

	t.Run("with custom model", func(t *testing.T) {
		cfg := NewConfig(WithModel("gpt-4o-mini"))

		assert.Equal(t, "gpt-4o-mini", cfg.Model)
	})

	t.Run("with schema version", func(t *testing.T) {
		cfg := NewConfig(WithSchemaVersion("v1"))

		assert.Equal(t, "v1", cfg.SchemaVersion)
	})

	t.Run("with retry policy", func(t *testing.T) {
		cfg := NewConfig(WithRetryPolicy(retry.Policy{
			MaxAttempts: 5,
			BaseDelay:   100 * time.Millisecond,
		}))

		assert.Equal(t, 5, cfg.Retry.MaxAttempts)
		assert.Equal(t, 100*time.Millisecond, cfg.Retry.BaseDelay)
	})

	t.Run("with multiple options", func(t *testing.T) {
		cfg := NewConfig(
			WithHost("http://custom:8080/v1"),
			WithModel("custom-model"),
			WithPromptDir("/tmp/prompts"),
			WithRawContentLimit(4000),
		)

		assert.Equal(t, "http://custom:8080/v1", cfg.Host)
		assert.Equal(t, "custom-model", cfg.Model)
		assert.Equal(t, "/tmp/prompts", cfg.PromptDir)
		assert.Equal(t, 4000, cfg.RawContentLimit)
	})
}

func TestConfigNormalize(t *testing.T) {
	tests := []struct {
		name     string
		host     string
		expected string
	}{
		{
			name:     "already has /v1",
			host:     "http://localhost:11434/v1",
			expected: "http://localhost:11434/v1",
		},
		{
			name:     "missing /v1",
			host:     "http://localhost:11434",
			expected: "http://localhost:11434/v1",
		},
		{
			name:     "trailing slash",
			host:     "http://localhost:11434/",
			expected: "http://localhost:11434/v1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Host = tt.host
			cfg.Normalize()

			assert.Equal(t, tt.expected, cfg.Host)
		})
	}

	t.Run("fills empty schema version and token", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.SchemaVersion = ""
		cfg.Token = ""
		cfg.Normalize()

		assert.Equal(t, "latest", cfg.SchemaVersion)
		assert.Equal(t, "none", cfg.Token)
	})
}

func TestConfigValidate(t *testing.T) {
	t.Run("valid default config", func(t *testing.T) {
		cfg := DefaultConfig()
		assert.NoError(t, cfg.Validate())
	})

	t.Run("missing host", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Host = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("missing model", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Model = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("non-positive content limit", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.RawContentLimit = 0
		assert.Error(t, cfg.Validate())
	})

	t.Run("non-positive retry attempts", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Retry.MaxAttempts = 0
		assert.Error(t, cfg.Validate())
	})
}
