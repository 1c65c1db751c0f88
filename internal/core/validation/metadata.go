package validation

import (
	"fmt"
	"slices"
	"time"
	"unicode/utf8"

	"github.com/artpar/templatecheck/internal/core/domain"
)

// dateLayouts are the accepted dateUpdated formats, most specific last.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02T15:04:05",
	time.RFC3339,
	time.RFC3339Nano,
	"01/02/2006",
}

// ValidateMetadata parses and checks a metadata.json document.
// Schema violations are collected in full before returning; the date is
// only checked once the schema holds.
func ValidateMetadata(path string, data []byte) (*domain.Metadata, error) {
	doc, err := ParseDocument(path, data)
	if err != nil {
		return nil, err
	}

	if violations := checkSchema(doc); len(violations) > 0 {
		return nil, &SchemaError{Path: path, Violations: violations}
	}

	raw := doc[domain.FieldDateUpdated].(string)
	date, ok := ParseDate(raw)
	if !ok {
		return nil, domain.NewBundleError("ValidateMetadata", path,
			fmt.Sprintf("dateUpdated field should be a valid date in the format YYYY-MM-DD (got %q)", raw),
			domain.ErrDate)
	}

	return &domain.Metadata{
		ItemDisplayName: doc[domain.FieldItemDisplayName].(string),
		Description:     doc[domain.FieldDescription].(string),
		Summary:         doc[domain.FieldSummary].(string),
		AuthorHandle:    doc[domain.FieldAuthorHandle].(string),
		DateUpdated:     date,
	}, nil
}

// checkSchema returns every violation of the closed metadata schema.
func checkSchema(doc map[string]any) []FieldViolation {
	var violations []FieldViolation
	known := make(map[string]bool, len(domain.MetadataSchema))

	for _, f := range domain.MetadataSchema {
		known[f.Name] = true
		v, ok := doc[f.Name]
		if !ok {
			violations = append(violations, FieldViolation{Field: f.Name, Reason: "is required"})
			continue
		}
		s, ok := v.(string)
		if !ok {
			violations = append(violations, FieldViolation{Field: f.Name, Reason: "must be a string"})
			continue
		}
		if n := utf8.RuneCountInString(s); n < f.MinLength {
			violations = append(violations, FieldViolation{
				Field:  f.Name,
				Reason: fmt.Sprintf("must be at least %d characters long (got %d)", f.MinLength, n),
			})
		}
	}

	var unknown []string
	for k := range doc {
		if !known[k] {
			unknown = append(unknown, k)
		}
	}
	slices.Sort(unknown)
	for _, k := range unknown {
		violations = append(violations, FieldViolation{Field: k, Reason: "is not an allowed field"})
	}
	return violations
}

// ParseDate parses a calendar date in any accepted layout.
func ParseDate(s string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
