package validation

import (
	"fmt"
	"strings"

	"github.com/artpar/templatecheck/internal/core/domain"
)

// =============================================================================
// Schema Errors
// =============================================================================

// FieldViolation is a single metadata schema failure.
type FieldViolation struct {
	Field  string
	Reason string
}

// SchemaError lists every schema violation found in one metadata file.
type SchemaError struct {
	Path       string
	Violations []FieldViolation
}

func (e *SchemaError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s - metadata does not match schema (%d problem(s))", e.Path, len(e.Violations))
	for _, v := range e.Violations {
		fmt.Fprintf(&sb, "\n%s - %s: %s", e.Path, v.Field, v.Reason)
	}
	return sb.String()
}

func (e *SchemaError) Unwrap() error {
	return domain.ErrSchema
}

// Fields returns the violated field names in report order.
func (e *SchemaError) Fields() []string {
	out := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		out = append(out, v.Field)
	}
	return out
}

// =============================================================================
// Structure Errors
// =============================================================================

// ParameterProblem names a template parameter and the sub-field it lacks.
type ParameterProblem struct {
	Parameter string
	Missing   string // "metadata" or "metadata.description"
}

// StructureError reports template parameters without descriptions.
type StructureError struct {
	Path     string
	Message  string
	Problems []ParameterProblem
}

func (e *StructureError) Error() string {
	if len(e.Problems) == 0 {
		return fmt.Sprintf("%s - %s", e.Path, e.Message)
	}
	lines := make([]string, 0, len(e.Problems))
	for _, p := range e.Problems {
		if p.Missing == "metadata" {
			lines = append(lines, fmt.Sprintf("%s - Template object .parameters.%s is missing its metadata field", e.Path, p.Parameter))
		} else {
			lines = append(lines, fmt.Sprintf("%s - Template object .parameters.%s.metadata.description is missing", e.Path, p.Parameter))
		}
	}
	return strings.Join(lines, "\n")
}

func (e *StructureError) Unwrap() error {
	return domain.ErrStructure
}

// Parameters returns the offending parameter keys.
func (e *StructureError) Parameters() []string {
	out := make([]string, 0, len(e.Problems))
	for _, p := range e.Problems {
		out = append(out, p.Parameter)
	}
	return out
}
