package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIDFromContent(t *testing.T) {
	t.Run("deterministic", func(t *testing.T) {
		a := IDFromContent("stainless steel pipe")
		b := IDFromContent("stainless steel pipe")
		assert.Equal(t, a, b)
	})

	t.Run("distinct content distinct ids", func(t *testing.T) {
		a := IDFromContent("stainless steel pipe")
		b := IDFromContent("carbon fiber")
		assert.NotEqual(t, a, b)
	})

	t.Run("empty content has an id", func(t *testing.T) {
		assert.NotZero(t, IDFromContent(""))
	})
}

func TestFlattenProfile(t *testing.T) {
	t.Run("nil profile", func(t *testing.T) {
		assert.Nil(t, FlattenProfile(nil))
	})

	t.Run("collects strings and string arrays", func(t *testing.T) {
		profile := EntityProfile{
			"entity_name":  "Stainless Steel Pipe",
			"core_concept": "piping",
			"classification_aliases": []any{
				"stainless tube", "inox pipe",
			},
			"distinguishing_features": []string{"corrosion resistant"},
		}
		terms := FlattenProfile(profile)
		assert.ElementsMatch(t, []string{
			"Stainless Steel Pipe", "piping",
			"stainless tube", "inox pipe",
			"corrosion resistant",
		}, terms)
	})

	t.Run("metadata excluded", func(t *testing.T) {
		profile := EntityProfile{
			"entity_name": "Copper Wire",
			MetadataKey: map[string]any{
				"source_count": 3,
				"sources":      []any{"https://example.com"},
			},
		}
		terms := FlattenProfile(profile)
		assert.Equal(t, []string{"Copper Wire"}, terms)
	})

	t.Run("blank values dropped", func(t *testing.T) {
		profile := EntityProfile{
			"entity_name": "  ",
			"aliases":     []any{"", "  ", "valid"},
		}
		assert.Equal(t, []string{"valid"}, FlattenProfile(profile))
	})

	t.Run("non-string values ignored", func(t *testing.T) {
		profile := EntityProfile{
			"confidence": 0.9,
			"count":      3,
			"name":       "thing",
		}
		assert.Equal(t, []string{"thing"}, FlattenProfile(profile))
	})

	t.Run("deterministic order", func(t *testing.T) {
		profile := EntityProfile{
			"b_field": "beta",
			"a_field": "alpha",
		}
		assert.Equal(t, []string{"alpha", "beta"}, FlattenProfile(profile))
	})
}

func TestBlendRelevance(t *testing.T) {
	assert.InDelta(t, 3.4, BlendRelevance(4, 2), 1e-9)
	assert.InDelta(t, 0.0, BlendRelevance(0, 0), 1e-9)
	assert.InDelta(t, 1.0, BlendRelevance(1, 1), 1e-9)
}

func TestUTCDay(t *testing.T) {
	// 23:30 in UTC-5 is already the next day in UTC.
	loc := time.FixedZone("UTC-5", -5*3600)
	ts := time.Date(2025, 3, 9, 23, 30, 0, 0, loc)
	assert.Equal(t, "2025-03-10", UTCDay(ts))
}
