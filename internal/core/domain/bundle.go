// Package domain contains the core types of the template harness.
// This is part of the Functional Core - all functions are pure with no I/O.
package domain

import (
	"path/filepath"
)

// =============================================================================
// Bundle Layout
// =============================================================================

const (
	// TemplateFile is the deployment template inside a bundle directory.
	TemplateFile = "azuredeploy.json"
	// ParametersFile holds the parameter values for the template.
	ParametersFile = "azuredeploy.parameters.json"
	// MetadataFile describes the bundle for the gallery.
	MetadataFile = "metadata.json"
	// SkipMarker excludes a directory from every run when present.
	SkipMarker = ".ci_skip"
)

// ExcludedDirs are directory names never treated as bundles.
var ExcludedDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
}

// =============================================================================
// Bundle
// =============================================================================

// Bundle is one template directory with its three constituent files.
// A Bundle is identified by Dir and never mutated after discovery.
type Bundle struct {
	Dir            string `json:"dir" yaml:"dir"`
	TemplatePath   string `json:"template_path" yaml:"template_path"`
	ParametersPath string `json:"parameters_path" yaml:"parameters_path"`
	MetadataPath   string `json:"metadata_path" yaml:"metadata_path"`
}

// NewBundle builds the fixed file paths for a bundle directory.
// The files are not checked for existence.
func NewBundle(dir string) Bundle {
	return Bundle{
		Dir:            dir,
		TemplatePath:   filepath.Join(dir, TemplateFile),
		ParametersPath: filepath.Join(dir, ParametersFile),
		MetadataPath:   filepath.Join(dir, MetadataFile),
	}
}

// Paths returns the template, parameters and metadata paths in that order.
func (b Bundle) Paths() []string {
	return []string{b.TemplatePath, b.ParametersPath, b.MetadataPath}
}

// TestGroup is a batch of bundles executed concurrently.
// Group boundaries only bound concurrency; they carry no other meaning.
type TestGroup []Bundle
