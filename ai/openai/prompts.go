package openai

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/poiesic/termnorm/ai"
)

const profileResponseSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "entity_name": {"type": "string"},
    "core_concept": {"type": "string", "pattern": "^[a-z]+$"},
    "entity_type": {"type": "string"},
    "distinguishing_features": {"type": "array", "items": {"type": "string"}},
    "technical_specifications": {"type": "array", "items": {"type": "string"}},
    "classification_aliases": {"type": "array", "items": {"type": "string"}},
    "material_composition": {"type": "array", "items": {"type": "string"}},
    "common_applications": {"type": "array", "items": {"type": "string"}},
    "industry_terminology": {"type": "array", "items": {"type": "string"}}
  },
  "required": ["entity_name", "core_concept", "classification_aliases"],
  "additionalProperties": false
}`

const profilePromptV1 = `Extract a structured entity profile for the query below from the research text and return it as JSON.

Output ONLY valid JSON which complies with the schema given below. Do not include any preamble, explanation,
greeting, or acknowledgment. Start your response directly with the opening brace { and end with the closing
brace }. Your output must exactly follow this schema:

%s

Rules:
- entity_name is the canonical name of what the query describes.
- core_concept must be a SINGLE lowercase word capturing the NATURE of the query (the action or process
  word), not its material or object. For "laser cutting of steel sheets" the core concept is "cutting",
  not "steel".
- Every array field must include both US and GB spelling variants of each term, adjacent to each other
  (e.g. "galvanized", "galvanised").
- classification_aliases must span from the most precise professional term to the most generic, in that
  order.
- Include only information supported by the research text. Do not hallucinate specifications.
- The JSON must parse without errors; no trailing commas, no extra keys, and no extraneous text outside
  the object.
`

const profilePromptV2 = profilePromptV1 + `- technical_specifications must quote exact figures (percentages, grades, dimensions) verbatim from the
  research text, one specification per array entry.
- industry_terminology lists terms a procurement professional would search by.
`

const rankingResponseSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "ranked_candidates": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "rank": {"type": "integer", "minimum": 1},
          "candidate": {"type": "string"},
          "core_concept_score": {"type": "number", "minimum": 0, "maximum": 1},
          "spec_score": {"type": "number", "minimum": 0, "maximum": 1},
          "key_match_factors": {"type": "array", "items": {"type": "string"}},
          "spec_gaps": {"type": "array", "items": {"type": "string"}}
        },
        "required": ["rank", "candidate", "core_concept_score", "spec_score", "key_match_factors"],
        "additionalProperties": false
      }
    },
    "ranking_explanation": {"type": "string"}
  },
  "required": ["ranked_candidates", "ranking_explanation"],
  "additionalProperties": false
}`

const rankingPromptTemplate = `You are ranking vocabulary candidates against a researched entity profile.

First, identify every EXPLICIT technical specification in the profile and query (exact percentages,
material grades, dimensions, types). Then rank the candidates: a candidate matching an explicit
specification exactly ALWAYS outranks one that is merely semantically close. Only after exact-spec
priority is settled, order by semantic closeness to the core concept.

Output ONLY valid JSON which complies with the schema given below. Do not include any preamble or
explanation outside the JSON object. Your output must exactly follow this schema:

%s

Rules:
- candidate must be copied character-for-character from the candidate list.
- core_concept_score measures how well the candidate matches the profile's core concept, 0 to 1.
- spec_score measures explicit-specification agreement, 0 to 1; use 0 when the candidate names no
  specification at all.
- key_match_factors names the concrete evidence behind the scores.
- spec_gaps names specifications from the profile that the candidate fails to satisfy.
- Rank every candidate given, rank 1 being the best match.

Query: %s

Entity profile:
%s

Candidates (with lexical token-match scores for context):
%s`

// embeddedProfilePrompts maps schema versions to prompt templates.
var embeddedProfilePrompts = map[string]string{
	"v1": profilePromptV1,
	"v2": profilePromptV2,
}

// profilePrompt resolves the prompt template for a schema version. A version
// is looked up first in the override directory (profile_<version>.txt), then
// in the embedded registry; unknown versions fall back to the latest embedded
// template so the profiler always has equivalent instructions to work with.
func profilePrompt(promptDir, version string) string {
	if version == "" || version == "latest" {
		version = ai.LatestSchemaVersion
	}

	if promptDir != "" {
		data, err := os.ReadFile(filepath.Join(promptDir, "profile_"+version+".txt"))
		if err == nil && len(strings.TrimSpace(string(data))) > 0 {
			return string(data)
		}
	}

	if tmpl, ok := embeddedProfilePrompts[version]; ok {
		return tmpl
	}
	return embeddedProfilePrompts[ai.LatestSchemaVersion]
}

// buildProfileSystemPrompt fills the profile template with the response schema.
func buildProfileSystemPrompt(promptDir, version string) string {
	return fmt.Sprintf(profilePrompt(promptDir, version), profileResponseSchema)
}

// buildRankingPrompt assembles the full ranking prompt.
func buildRankingPrompt(query, profileJSON, candidateList string) string {
	return fmt.Sprintf(rankingPromptTemplate, rankingResponseSchema, query, profileJSON, candidateList)
}
