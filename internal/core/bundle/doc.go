// Package bundle selects and batches template bundles for a run.
//
// This package is part of the Functional Core: it never touches the
// filesystem or the network. Discovery lives in the locator package; this
// package decides which of the discovered bundles run and in which batches.
//
// # Functions
//
//   - NewChangeSet: Normalize version-control paths into a lookup set
//   - Filter: Keep bundles with at least one changed constituent file
//   - Group: Partition bundles into fixed-size concurrency groups
//
// # Usage
//
//	changes := bundle.NewChangeSet(repoDir, changedPaths)
//	selected := slices.Collect(bundle.Filter(slices.Values(all), changes))
//	groups, err := bundle.Group(selected, cfg.GroupSize)
package bundle
