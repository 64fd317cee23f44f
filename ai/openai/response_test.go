package openai

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/termnorm/ai"
	"github.com/poiesic/termnorm/core"
)

func TestCleanResponse(t *testing.T) {
	t.Run("plain JSON passes through", func(t *testing.T) {
		in := `{"entity_name": "steel pipe"}`
		var out map[string]any
		require.NoError(t, json.Unmarshal([]byte(cleanResponse(in)), &out))
		assert.Equal(t, "steel pipe", out["entity_name"])
	})

	t.Run("strips markdown fences", func(t *testing.T) {
		in := "```json\n{\"core_concept\": \"cutting\"}\n```"
		var out map[string]any
		require.NoError(t, json.Unmarshal([]byte(cleanResponse(in)), &out))
		assert.Equal(t, "cutting", out["core_concept"])
	})

	t.Run("discards chatter around the object", func(t *testing.T) {
		in := "Here is the profile you asked for:\n{\"entity_name\": \"pipe\"}\nHope this helps!"
		var out map[string]any
		require.NoError(t, json.Unmarshal([]byte(cleanResponse(in)), &out))
		assert.Equal(t, "pipe", out["entity_name"])
	})

	t.Run("repairs missing opening quote on keys", func(t *testing.T) {
		in := `{"entity_name": "pipe", core_concept": "cutting"}`
		var out map[string]any
		require.NoError(t, json.Unmarshal([]byte(cleanResponse(in)), &out))
		assert.Equal(t, "cutting", out["core_concept"])
	})

	t.Run("removes trailing commas", func(t *testing.T) {
		in := `{"aliases": ["a", "b",], "entity_name": "pipe",}`
		var out map[string]any
		require.NoError(t, json.Unmarshal([]byte(cleanResponse(in)), &out))
		assert.Equal(t, "pipe", out["entity_name"])
	})
}

func TestStripTrailingCommas(t *testing.T) {
	t.Run("leaves commas inside strings alone", func(t *testing.T) {
		in := `{"note": "a, b,]", "x": 1}`
		assert.Equal(t, in, stripTrailingCommas(in))
	})
}

func TestNormalizeCoreConcept(t *testing.T) {
	assert.Equal(t, "cutting", normalizeCoreConcept("Cutting"))
	assert.Equal(t, "cutting", normalizeCoreConcept("Laser Cutting"))
	assert.Equal(t, "welding", normalizeCoreConcept("  welding!  "))
	assert.Equal(t, "", normalizeCoreConcept("  "))
}

func TestBuildResearchTextRuneSafeTruncation(t *testing.T) {
	p := &Profiler{rawContentLimit: 10}
	text, sources := p.buildResearchText("stahlrohre", []core.ScrapedPage{
		{Title: "Rohre", URL: "http://a.example", Content: strings.Repeat("ü", 20)},
	})

	// The excerpt must back off to a rune boundary, never emit a split byte
	assert.True(t, utf8.ValidString(text))
	assert.Len(t, sources, 1)
}

func TestProfilePromptResolution(t *testing.T) {
	t.Run("latest resolves to newest embedded version", func(t *testing.T) {
		assert.Equal(t, embeddedProfilePrompts[ai.LatestSchemaVersion], profilePrompt("", "latest"))
	})

	t.Run("unknown version falls back to latest", func(t *testing.T) {
		assert.Equal(t, embeddedProfilePrompts[ai.LatestSchemaVersion], profilePrompt("", "v99"))
	})

	t.Run("directory override wins", func(t *testing.T) {
		dir := t.TempDir()
		custom := "Custom template %s"
		require.NoError(t, os.WriteFile(filepath.Join(dir, "profile_v1.txt"), []byte(custom), 0o644))

		assert.Equal(t, custom, profilePrompt(dir, "v1"))
	})

	t.Run("empty override file is ignored", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "profile_v1.txt"), []byte("  \n"), 0o644))

		assert.Equal(t, embeddedProfilePrompts["v1"], profilePrompt(dir, "v1"))
	})
}

func TestBuildProfileSystemPrompt(t *testing.T) {
	prompt := buildProfileSystemPrompt("", "latest")

	assert.Contains(t, prompt, "entity_name")
	assert.Contains(t, prompt, "core_concept")
	assert.Contains(t, prompt, "classification_aliases")
	assert.NotContains(t, prompt, "%s")
}

func TestFormatCandidates(t *testing.T) {
	out := formatCandidates([]core.CandidateScore{
		{Term: "Stainless Steel Pipe", Score: 0.667},
		{Term: "Copper Pipe", Score: 0.5},
	})

	assert.Contains(t, out, `1. "Stainless Steel Pipe" (token match 0.667)`)
	assert.Contains(t, out, `2. "Copper Pipe" (token match 0.500)`)
}

func TestRankerEmptyCandidates(t *testing.T) {
	r := &Ranker{}

	result, err := r.RankCandidates(context.Background(), "steel pipe", core.EntityProfile{}, nil)
	require.NoError(t, err)
	assert.Empty(t, result.RankedCandidates)
	assert.False(t, strings.Contains(result.RankingExplanation, "error"))
}
