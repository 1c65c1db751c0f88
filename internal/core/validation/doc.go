// Package validation provides pure checks for template bundle documents.
//
// This package contains the functional core logic for the local half of
// bundle validation. All functions take file content as bytes and never
// perform I/O; the path argument is only used to label error messages so a
// failure can be traced back to its bundle in a batch run.
//
// # Functions
//
//   - ParseDocument: Parse a JSON object with an actionable syntax error
//   - ValidateMetadata: Check metadata.json against the closed schema
//   - CheckParameters: Require a description on every template parameter
//
// # Usage
//
//	doc, err := validation.ParseDocument(path, data)
//	if err != nil {
//	    // errors.Is(err, domain.ErrParse)
//	}
//	if err := validation.CheckParameters(path, doc); err != nil {
//	    // errors.Is(err, domain.ErrStructure)
//	}
package validation
