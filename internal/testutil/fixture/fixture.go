// Package fixture writes template bundles to disk for tests.
package fixture

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/artpar/templatecheck/internal/core/domain"
)

const (
	// Template has one described parameter.
	Template = `{
  "$schema": "https://schema.management.azure.com/schemas/2015-01-01/deploymentTemplate.json#",
  "contentVersion": "1.0.0.0",
  "parameters": {
    "adminUsername": {
      "type": "string",
      "metadata": {"description": "User name for the virtual machine"}
    }
  },
  "resources": []
}`

	// UndescribedTemplate lacks a description on adminPassword.
	UndescribedTemplate = `{
  "parameters": {
    "adminUsername": {"type": "string", "metadata": {"description": "User name"}},
    "adminPassword": {"type": "securestring", "metadata": {}}
  },
  "resources": []
}`

	// Parameters matches Template.
	Parameters = `{
  "$schema": "https://schema.management.azure.com/schemas/2015-01-01/deploymentParameters.json#",
  "contentVersion": "1.0.0.0",
  "parameters": {
    "adminUsername": {"value": "azureuser"}
  }
}`

	// Metadata is schema-valid.
	Metadata = `{
  "itemDisplayName": "Simple Linux VM",
  "description": "Deploys a simple Linux virtual machine",
  "summary": "A single Ubuntu VM with a public IP",
  "githubUsername": "octocat",
  "dateUpdated": "2016-03-21"
}`
)

// Files overrides bundle file content. An empty field uses the default;
// Omit lists file names that must not be written at all.
type Files struct {
	Template   string
	Parameters string
	Metadata   string
	Omit       []string
	Skip       bool
}

// Write creates root/name with the given files and returns its Bundle.
func Write(t *testing.T, root, name string, files Files) domain.Bundle {
	t.Helper()

	dir := filepath.Join(root, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("create bundle dir: %v", err)
	}

	content := map[string]string{
		domain.TemplateFile:   orDefault(files.Template, Template),
		domain.ParametersFile: orDefault(files.Parameters, Parameters),
		domain.MetadataFile:   orDefault(files.Metadata, Metadata),
	}
	for _, name := range files.Omit {
		delete(content, name)
	}
	if files.Skip {
		content[domain.SkipMarker] = ""
	}

	for name, data := range content {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(data), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return domain.NewBundle(dir)
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
