// Package diagnostics composes the failure messages shown for a bundle.
// This is part of the Functional Core - all functions are pure with no I/O.
package diagnostics

import (
	"fmt"
	"strings"

	"github.com/artpar/templatecheck/internal/core/domain"
)

// ResourceGroupPlaceholder stands in for the author's own resource group.
const ResourceGroupPlaceholder = "(your_group_name)"

// ManualCommands returns the CLI commands an author can run to reproduce
// the remote validation and deployment of b by hand.
func ManualCommands(b domain.Bundle) []string {
	files := fmt.Sprintf("--template-file %s --parameters-file %s", b.TemplatePath, b.ParametersPath)
	return []string{
		fmt.Sprintf("azure group template validate --resource-group %s %s", ResourceGroupPlaceholder, files),
		fmt.Sprintf("azure group deployment create --resource-group %s %s", ResourceGroupPlaceholder, files),
	}
}

// Compose builds the human readable failure message for b.
// Remote failures carry the server payload verbatim; local failures carry
// the checker's own message.
func Compose(b domain.Bundle, err error) string {
	var sb strings.Builder
	sb.WriteString("Template Validation Failed. Try deploying your template with the commands:\n")
	for _, cmd := range ManualCommands(b) {
		sb.WriteString(cmd)
		sb.WriteString("\n")
	}

	if body, ok := domain.RemoteBody(err); ok && body != "" {
		sb.WriteString("\nServer Error: ")
		sb.WriteString(body)
		sb.WriteString("\n")
		sb.WriteString("Cause: ")
		sb.WriteString(err.Error())
		return sb.String()
	}

	sb.WriteString("\nError: ")
	sb.WriteString(err.Error())
	return sb.String()
}
