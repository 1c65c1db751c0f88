package bundle

import (
	"iter"
	"path/filepath"

	"github.com/artpar/templatecheck/internal/core/domain"
)

// =============================================================================
// Change Set
// =============================================================================

// ChangeSet is the set of files version control reports as added, modified
// or deleted. A nil *ChangeSet means every bundle is selected.
type ChangeSet struct {
	paths map[string]struct{}
}

// NewChangeSet joins each repository-relative path onto base.
// Paths that sit directly in the repository root are dropped, so a change
// to a top-level file never selects a bundle.
func NewChangeSet(base string, paths []string) *ChangeSet {
	cs := &ChangeSet{paths: make(map[string]struct{}, len(paths))}
	for _, p := range paths {
		p = filepath.Clean(p)
		if p == "." || filepath.Dir(p) == "." {
			continue
		}
		cs.paths[filepath.Join(base, p)] = struct{}{}
	}
	return cs
}

// Contains reports whether path was changed.
func (c *ChangeSet) Contains(path string) bool {
	if c == nil {
		return false
	}
	_, ok := c.paths[filepath.Clean(path)]
	return ok
}

// Len returns the number of tracked paths.
func (c *ChangeSet) Len() int {
	if c == nil {
		return 0
	}
	return len(c.paths)
}

// Touches reports whether any constituent file of b was changed.
func (c *ChangeSet) Touches(b domain.Bundle) bool {
	for _, p := range b.Paths() {
		if c.Contains(p) {
			return true
		}
	}
	return false
}

// =============================================================================
// Filter
// =============================================================================

// Filter yields the bundles touched by changes, in input order.
// With a nil change set the input is returned unchanged.
func Filter(bundles iter.Seq[domain.Bundle], changes *ChangeSet) iter.Seq[domain.Bundle] {
	if changes == nil {
		return bundles
	}
	return func(yield func(domain.Bundle) bool) {
		for b := range bundles {
			if !changes.Touches(b) {
				continue
			}
			if !yield(b) {
				return
			}
		}
	}
}
