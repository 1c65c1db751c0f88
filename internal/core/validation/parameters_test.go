package validation

import (
	"testing"

	"github.com/artpar/templatecheck/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, data string) map[string]any {
	t.Helper()
	doc, err := ParseDocument("a/azuredeploy.json", []byte(data))
	require.NoError(t, err)
	return doc
}

// =============================================================================
// CheckParameters Tests
// =============================================================================

func TestCheckParameters_AllDescribed(t *testing.T) {
	doc := mustParse(t, `{
	  "parameters": {
	    "adminUsername": {"type": "string", "metadata": {"description": "Admin user"}},
	    "vmSize": {"type": "string", "metadata": {"description": "VM size"}}
	  }
	}`)
	assert.NoError(t, CheckParameters("a/azuredeploy.json", doc))
}

func TestCheckParameters_NoParametersIsFine(t *testing.T) {
	doc := mustParse(t, `{"parameters": {}}`)
	assert.NoError(t, CheckParameters("a/azuredeploy.json", doc))
}

func TestCheckParameters_MissingParametersField(t *testing.T) {
	err := CheckParameters("a/azuredeploy.json", mustParse(t, `{"resources": []}`))
	require.Error(t, err)

	assert.ErrorIs(t, err, domain.ErrStructure)
	assert.Contains(t, err.Error(), "a/azuredeploy.json")
	assert.Contains(t, err.Error(), "'.parameters'")
}

func TestCheckParameters_ParametersNotObject(t *testing.T) {
	err := CheckParameters("a/azuredeploy.json", mustParse(t, `{"parameters": [1]}`))
	assert.ErrorIs(t, err, domain.ErrStructure)
}

func TestCheckParameters_NamesMissingMetadata(t *testing.T) {
	doc := mustParse(t, `{
	  "parameters": {
	    "adminUsername": {"type": "string"},
	    "vmSize": {"type": "string", "metadata": {"description": "VM size"}}
	  }
	}`)
	err := CheckParameters("a/azuredeploy.json", doc)

	var structErr *StructureError
	require.ErrorAs(t, err, &structErr)
	assert.Equal(t, []ParameterProblem{{Parameter: "adminUsername", Missing: "metadata"}}, structErr.Problems)
	assert.Contains(t, err.Error(), ".parameters.adminUsername is missing its metadata field")
}

func TestCheckParameters_NamesMissingDescription(t *testing.T) {
	doc := mustParse(t, `{
	  "parameters": {
	    "dnsLabel": {"type": "string", "metadata": {}},
	    "vmSize": {"type": "string", "metadata": {"description": "   "}},
	    "location": {"type": "string", "metadata": {"description": "Region"}}
	  }
	}`)
	err := CheckParameters("a/azuredeploy.json", doc)

	var structErr *StructureError
	require.ErrorAs(t, err, &structErr)
	assert.Equal(t, []string{"dnsLabel", "vmSize"}, structErr.Parameters())
	assert.Contains(t, err.Error(), ".parameters.dnsLabel.metadata.description is missing")
	assert.Contains(t, err.Error(), ".parameters.vmSize.metadata.description is missing")
}

func TestCheckParameters_NonObjectEntry(t *testing.T) {
	err := CheckParameters("a/azuredeploy.json", mustParse(t, `{"parameters": {"x": "string"}}`))

	var structErr *StructureError
	require.ErrorAs(t, err, &structErr)
	assert.Equal(t, []string{"x"}, structErr.Parameters())
}
