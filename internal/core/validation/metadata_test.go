package validation

import (
	"testing"
	"time"

	"github.com/artpar/templatecheck/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validMetadata = `{
  "itemDisplayName": "Simple Linux VM",
  "description": "Deploys a simple Linux virtual machine",
  "summary": "A single Ubuntu VM with a public IP",
  "githubUsername": "octocat",
  "dateUpdated": "2016-03-21"
}`

// =============================================================================
// ValidateMetadata Tests
// =============================================================================

func TestValidateMetadata_Valid(t *testing.T) {
	md, err := ValidateMetadata("a/metadata.json", []byte(validMetadata))
	require.NoError(t, err)

	assert.Equal(t, "Simple Linux VM", md.ItemDisplayName)
	assert.Equal(t, "octocat", md.AuthorHandle)
	assert.Equal(t, time.Date(2016, 3, 21, 0, 0, 0, 0, time.UTC), md.DateUpdated)
}

func TestValidateMetadata_ListsEveryMissingField(t *testing.T) {
	_, err := ValidateMetadata("a/metadata.json", []byte(`{"itemDisplayName": "Simple Linux VM"}`))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrSchema)

	var schemaErr *SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, []string{"description", "summary", "githubUsername", "dateUpdated"}, schemaErr.Fields())

	msg := err.Error()
	for _, f := range []string{"description", "summary", "githubUsername", "dateUpdated"} {
		assert.Contains(t, msg, "a/metadata.json - "+f+": is required")
	}
}

func TestValidateMetadata_AllFieldsMissing(t *testing.T) {
	_, err := ValidateMetadata("a/metadata.json", []byte(`{}`))

	var schemaErr *SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Len(t, schemaErr.Violations, len(domain.MetadataSchema))
}

func TestValidateMetadata_TooShortAndUnknown(t *testing.T) {
	data := `{
	  "itemDisplayName": "short",
	  "description": "Deploys a simple Linux virtual machine",
	  "summary": "A single Ubuntu VM with a public IP",
	  "githubUsername": "o",
	  "dateUpdated": "2016-03-21",
	  "githubUserName": "octocat",
	  "extra": true
	}`
	_, err := ValidateMetadata("a/metadata.json", []byte(data))

	var schemaErr *SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, []FieldViolation{
		{Field: "itemDisplayName", Reason: "must be at least 10 characters long (got 5)"},
		{Field: "githubUsername", Reason: "must be at least 2 characters long (got 1)"},
		{Field: "extra", Reason: "is not an allowed field"},
		{Field: "githubUserName", Reason: "is not an allowed field"},
	}, schemaErr.Violations)
}

func TestValidateMetadata_WrongType(t *testing.T) {
	data := `{
	  "itemDisplayName": 12345678901,
	  "description": "Deploys a simple Linux virtual machine",
	  "summary": "A single Ubuntu VM with a public IP",
	  "githubUsername": "octocat",
	  "dateUpdated": "2016-03-21"
	}`
	_, err := ValidateMetadata("a/metadata.json", []byte(data))

	var schemaErr *SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, []FieldViolation{{Field: "itemDisplayName", Reason: "must be a string"}}, schemaErr.Violations)
}

func TestValidateMetadata_InvalidDate(t *testing.T) {
	data := `{
	  "itemDisplayName": "Simple Linux VM",
	  "description": "Deploys a simple Linux virtual machine",
	  "summary": "A single Ubuntu VM with a public IP",
	  "githubUsername": "octocat",
	  "dateUpdated": "2016-13-45xx"
	}`
	_, err := ValidateMetadata("a/metadata.json", []byte(data))
	require.Error(t, err)

	assert.ErrorIs(t, err, domain.ErrDate)
	assert.NotErrorIs(t, err, domain.ErrSchema)
	assert.Contains(t, err.Error(), "a/metadata.json")
	assert.Contains(t, err.Error(), "YYYY-MM-DD")
}

func TestValidateMetadata_ParseErrorNamesFile(t *testing.T) {
	_, err := ValidateMetadata("a/metadata.json", []byte(`{"itemDisplayName": `))
	assert.ErrorIs(t, err, domain.ErrParse)
	assert.Contains(t, err.Error(), "a/metadata.json")
}

// =============================================================================
// ParseDate Tests
// =============================================================================

func TestParseDate(t *testing.T) {
	cases := []struct {
		input string
		ok    bool
	}{
		{"2016-03-21", true},
		{"2016-03-21T10:00:00Z", true},
		{"2016-03-21T10:00:00", true},
		{"03/21/2016", true},
		{"2016-02-30", false},
		{"yesterday!", false},
		{"", false},
	}
	for _, c := range cases {
		_, ok := ParseDate(c.input)
		assert.Equal(t, c.ok, ok, c.input)
	}
}
