package domain

import "time"

// =============================================================================
// Metadata
// =============================================================================

// Metadata field names as they appear in metadata.json.
const (
	FieldItemDisplayName = "itemDisplayName"
	FieldDescription     = "description"
	FieldSummary         = "summary"
	FieldAuthorHandle    = "githubUsername"
	FieldDateUpdated     = "dateUpdated"
)

// MetadataField describes one property of the closed metadata schema.
type MetadataField struct {
	Name      string
	MinLength int
}

// MetadataSchema lists every allowed metadata property in report order.
// All properties are required and must be strings.
var MetadataSchema = []MetadataField{
	{Name: FieldItemDisplayName, MinLength: 10},
	{Name: FieldDescription, MinLength: 10},
	{Name: FieldSummary, MinLength: 10},
	{Name: FieldAuthorHandle, MinLength: 2},
	{Name: FieldDateUpdated, MinLength: 10},
}

// Metadata is a validated metadata.json document.
type Metadata struct {
	ItemDisplayName string    `json:"itemDisplayName"`
	Description     string    `json:"description"`
	Summary         string    `json:"summary"`
	AuthorHandle    string    `json:"githubUsername"`
	DateUpdated     time.Time `json:"-"`
}
