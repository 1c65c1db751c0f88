package bundle

import (
	"github.com/artpar/templatecheck/internal/core/domain"
)

// DefaultGroupSize bounds simultaneous deployments when nothing is configured.
const DefaultGroupSize = 2

// Group partitions bundles into consecutive groups of size.
// Bundle i lands in group i/size; only the last group may be partial.
func Group(bundles []domain.Bundle, size int) ([]domain.TestGroup, error) {
	if size < 1 {
		return nil, domain.NewConfigError("group_size", "must be at least 1")
	}

	groups := make([]domain.TestGroup, 0, (len(bundles)+size-1)/size)
	for i, b := range bundles {
		idx := i / size
		if idx == len(groups) {
			groups = append(groups, make(domain.TestGroup, 0, size))
		}
		groups[idx] = append(groups[idx], b)
	}
	return groups, nil
}
