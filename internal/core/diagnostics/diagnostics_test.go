package diagnostics

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/artpar/templatecheck/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManualCommands(t *testing.T) {
	b := domain.NewBundle("101-vm")
	cmds := ManualCommands(b)

	require.Len(t, cmds, 2)
	tmpl := filepath.Join("101-vm", "azuredeploy.json")
	params := filepath.Join("101-vm", "azuredeploy.parameters.json")
	assert.Equal(t, "azure group template validate --resource-group (your_group_name) --template-file "+tmpl+" --parameters-file "+params, cmds[0])
	assert.Equal(t, "azure group deployment create --resource-group (your_group_name) --template-file "+tmpl+" --parameters-file "+params, cmds[1])
}

func TestCompose_RemoteFailureIncludesVerbatimPayload(t *testing.T) {
	b := domain.NewBundle("101-vm")
	err := domain.NewBundleError("Deploy", b.TemplatePath, "deployment did not succeed", domain.ErrDeploymentFailed)
	err.Body = `{"result":"Deployment Failed","error":"quota exceeded"}`

	msg := Compose(b, err)

	assert.Contains(t, msg, "Template Validation Failed")
	assert.Contains(t, msg, "azure group template validate")
	assert.Contains(t, msg, "azure group deployment create")
	assert.Contains(t, msg, `Server Error: {"result":"Deployment Failed","error":"quota exceeded"}`)
}

func TestCompose_LocalFailure(t *testing.T) {
	b := domain.NewBundle("101-vm")
	msg := Compose(b, errors.New("101-vm/metadata.json - summary: is required"))

	assert.Contains(t, msg, "Error: 101-vm/metadata.json - summary: is required")
	assert.NotContains(t, msg, "Server Error")
}
