package bundle

import (
	"slices"
	"testing"

	"github.com/artpar/templatecheck/internal/core/domain"
	"github.com/stretchr/testify/assert"
)

func bundlesFor(dirs ...string) []domain.Bundle {
	out := make([]domain.Bundle, 0, len(dirs))
	for _, d := range dirs {
		out = append(out, domain.NewBundle(d))
	}
	return out
}

func dirsOf(bundles []domain.Bundle) []string {
	out := make([]string, 0, len(bundles))
	for _, b := range bundles {
		out = append(out, b.Dir)
	}
	return out
}

// =============================================================================
// Filter Tests
// =============================================================================

func TestFilter_NilChangeSetReturnsEverything(t *testing.T) {
	all := bundlesFor("A", "B", "C")

	got := slices.Collect(Filter(slices.Values(all), nil))
	assert.Equal(t, all, got)
}

func TestFilter_KeepsBundlesWithAnyChangedFile(t *testing.T) {
	all := bundlesFor("A", "B", "C")
	changes := NewChangeSet(".", []string{"A/azuredeploy.json", "C/metadata.json"})

	got := slices.Collect(Filter(slices.Values(all), changes))
	assert.Equal(t, []string{"A", "C"}, dirsOf(got))
}

func TestFilter_ParametersChangeSelectsBundle(t *testing.T) {
	all := bundlesFor("A", "B")
	changes := NewChangeSet(".", []string{"B/azuredeploy.parameters.json"})

	got := slices.Collect(Filter(slices.Values(all), changes))
	assert.Equal(t, []string{"B"}, dirsOf(got))
}

func TestFilter_UnrelatedFileInBundleDirIsIgnored(t *testing.T) {
	all := bundlesFor("A")
	changes := NewChangeSet(".", []string{"A/README.md"})

	got := slices.Collect(Filter(slices.Values(all), changes))
	assert.Empty(t, got)
}

func TestFilter_EmptyChangeSetSelectsNothing(t *testing.T) {
	all := bundlesFor("A", "B")

	got := slices.Collect(Filter(slices.Values(all), NewChangeSet(".", nil)))
	assert.Empty(t, got)
}

func TestFilter_IsRestartable(t *testing.T) {
	all := bundlesFor("A", "B", "C")
	seq := Filter(slices.Values(all), NewChangeSet(".", []string{"B/metadata.json"}))

	assert.Equal(t, []string{"B"}, dirsOf(slices.Collect(seq)))
	assert.Equal(t, []string{"B"}, dirsOf(slices.Collect(seq)))
}

// =============================================================================
// ChangeSet Tests
// =============================================================================

func TestNewChangeSet_DropsRootLevelPaths(t *testing.T) {
	cs := NewChangeSet(".", []string{"README.md", ".travis.yml", ".", "A/metadata.json"})

	assert.Equal(t, 1, cs.Len())
	assert.True(t, cs.Contains("A/metadata.json"))
	assert.False(t, cs.Contains("README.md"))
}

func TestNewChangeSet_JoinsBase(t *testing.T) {
	cs := NewChangeSet("/repo", []string{"A/./azuredeploy.json"})

	assert.True(t, cs.Contains("/repo/A/azuredeploy.json"))
	assert.True(t, cs.Touches(domain.NewBundle("/repo/A")))
	assert.False(t, cs.Touches(domain.NewBundle("/repo/B")))
}

func TestChangeSet_NilIsEmpty(t *testing.T) {
	var cs *ChangeSet
	assert.Equal(t, 0, cs.Len())
	assert.False(t, cs.Contains("A/metadata.json"))
}
