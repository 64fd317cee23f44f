package ai

// ProfileFields lists the canonical entity-profile array fields across schema
// versions. Profilers populate the subset their schema version defines; the
// pipeline flattens whichever are present into search terms.
var ProfileFields = []string{
	"entity_name",
	"core_concept",
	"entity_type",
	"distinguishing_features",
	"technical_specifications",
	"classification_aliases",
	"material_composition",
	"common_applications",
	"industry_terminology",
}

// LatestSchemaVersion is the profile schema version used when the caller
// asks for "latest".
const LatestSchemaVersion = "v2"
