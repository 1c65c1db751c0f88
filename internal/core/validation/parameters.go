package validation

import (
	"slices"
	"strings"
)

// CheckParameters requires every template parameter to carry a non-empty
// metadata.description. The remote validator accepts templates without
// descriptions, so this runs locally before any network call.
func CheckParameters(path string, template map[string]any) error {
	raw, ok := template["parameters"]
	if !ok {
		return &StructureError{Path: path, Message: "Expected a '.parameters' field within the deployment template"}
	}
	params, ok := raw.(map[string]any)
	if !ok {
		return &StructureError{Path: path, Message: "Template field '.parameters' must be an object"}
	}

	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	var problems []ParameterProblem
	for _, k := range keys {
		entry, _ := params[k].(map[string]any)
		meta, ok := entry["metadata"].(map[string]any)
		if !ok {
			problems = append(problems, ParameterProblem{Parameter: k, Missing: "metadata"})
			continue
		}
		desc, _ := meta["description"].(string)
		if strings.TrimSpace(desc) == "" {
			problems = append(problems, ParameterProblem{Parameter: k, Missing: "metadata.description"})
		}
	}

	if len(problems) > 0 {
		return &StructureError{Path: path, Problems: problems}
	}
	return nil
}
