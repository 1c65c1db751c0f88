// Package locator discovers template bundles on disk.
package locator

import (
	"fmt"
	"io/fs"
	"iter"
	"os"
	"path/filepath"

	"github.com/artpar/templatecheck/internal/core/domain"
)

// Locate yields a Bundle for every immediate subdirectory of root that is
// not excluded by name and holds no skip marker. The directory is re-read
// on every iteration. A failure to read root is yielded once as an error.
func Locate(root string) iter.Seq2[domain.Bundle, error] {
	return func(yield func(domain.Bundle, error) bool) {
		entries, err := os.ReadDir(root)
		if err != nil {
			yield(domain.Bundle{}, fmt.Errorf("read bundle root %s: %w", root, err))
			return
		}

		for _, entry := range entries {
			dir := filepath.Join(root, entry.Name())
			if !isDir(dir, entry) || domain.ExcludedDirs[entry.Name()] || skipped(dir) {
				continue
			}
			if !yield(domain.NewBundle(dir), nil) {
				return
			}
		}
	}
}

// Collect drains Locate, stopping at the first error.
func Collect(root string) ([]domain.Bundle, error) {
	var out []domain.Bundle
	for b, err := range Locate(root) {
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

// isDir follows symlinks so a linked bundle directory is still found.
func isDir(path string, entry fs.DirEntry) bool {
	if entry.IsDir() {
		return true
	}
	if entry.Type()&fs.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func skipped(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, domain.SkipMarker))
	return err == nil
}
