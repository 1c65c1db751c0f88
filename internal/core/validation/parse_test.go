package validation

import (
	"encoding/json"
	"testing"

	"github.com/artpar/templatecheck/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// ParseDocument Tests
// =============================================================================

func TestParseDocument_Object(t *testing.T) {
	doc, err := ParseDocument("a/azuredeploy.json", []byte("  \n{\"a\": 1, \"b\": {\"c\": \"d\"}}\n\n"))
	require.NoError(t, err)

	assert.Equal(t, json.Number("1"), doc["a"])
	assert.Equal(t, map[string]any{"c": "d"}, doc["b"])
}

func TestParseDocument_SyntaxErrorIsActionable(t *testing.T) {
	_, err := ParseDocument("a/metadata.json", []byte("{\n  \"a\": 1,\n  \"b\" 2\n}"))
	require.Error(t, err)

	assert.ErrorIs(t, err, domain.ErrParse)
	assert.Contains(t, err.Error(), "a/metadata.json is not valid JSON")
	assert.Contains(t, err.Error(), FormatterURL)
	assert.Contains(t, err.Error(), "line 3")
}

func TestParseDocument_Empty(t *testing.T) {
	_, err := ParseDocument("a/metadata.json", []byte("   "))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrParse)
	assert.Contains(t, err.Error(), "document is empty")
}

func TestParseDocument_Truncated(t *testing.T) {
	_, err := ParseDocument("a/metadata.json", []byte(`{"a": [1, 2`))
	assert.ErrorIs(t, err, domain.ErrParse)
}

func TestParseDocument_TrailingData(t *testing.T) {
	_, err := ParseDocument("a/metadata.json", []byte(`{"a": 1} {"b": 2}`))
	assert.ErrorIs(t, err, domain.ErrParse)
}

func TestParseDocument_RejectsNonObject(t *testing.T) {
	_, err := ParseDocument("a/metadata.json", []byte(`[1, 2]`))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrParse)
	assert.Contains(t, err.Error(), "must be an object")
}

func TestPosition(t *testing.T) {
	data := []byte("ab\ncd\nef")
	line, col := position(data, 4)
	assert.Equal(t, 2, line)
	assert.Equal(t, 2, col)

	line, col = position(data, 100)
	assert.Equal(t, 3, line)
	assert.Equal(t, 3, col)
}
