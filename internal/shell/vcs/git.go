// Package vcs reports which files version control considers changed.
package vcs

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"slices"
	"strings"
)

// CommandRunner runs git with args in dir and returns stdout.
type CommandRunner func(ctx context.Context, dir string, args ...string) ([]byte, error)

// Git lists changed paths in a working tree.
type Git struct {
	Dir     string
	BaseRef string // when set, commits in BaseRef...HEAD also count as changed
	run     CommandRunner
}

// NewGit creates a Git source for dir.
func NewGit(dir, baseRef string) *Git {
	return &Git{Dir: dir, BaseRef: baseRef, run: execGit}
}

// TopLevel returns the working tree's top directory. ChangedPaths are
// relative to it wherever inside the tree Dir points.
func (g *Git) TopLevel(ctx context.Context) (string, error) {
	out, err := g.run(ctx, g.Dir, "rev-parse", "--show-toplevel")
	if err != nil {
		return "", fmt.Errorf("git rev-parse: %w", err)
	}
	top := strings.TrimSpace(string(out))
	if top == "" {
		return "", fmt.Errorf("git rev-parse: empty top level for %s", g.Dir)
	}
	return top, nil
}

// ChangedPaths returns paths relative to TopLevel reported as added,
// modified, deleted or renamed. Renames contribute both names.
func (g *Git) ChangedPaths(ctx context.Context) ([]string, error) {
	out, err := g.run(ctx, g.Dir, "status", "--porcelain=v1", "-z", "--untracked-files=all")
	if err != nil {
		return nil, fmt.Errorf("git status: %w", err)
	}
	paths := parsePorcelain(out)

	if g.BaseRef != "" {
		diff, err := g.run(ctx, g.Dir, "diff", "--name-only", "-z", g.BaseRef+"...HEAD")
		if err != nil {
			return nil, fmt.Errorf("git diff %s: %w", g.BaseRef, err)
		}
		paths = append(paths, splitNUL(diff)...)
	}

	slices.Sort(paths)
	return slices.Compact(paths), nil
}

// parsePorcelain reads `git status --porcelain=v1 -z` output.
// A rename or copy entry is followed by an extra NUL-terminated source path.
func parsePorcelain(out []byte) []string {
	fields := splitNUL(out)
	var paths []string
	for i := 0; i < len(fields); i++ {
		entry := fields[i]
		if len(entry) < 4 {
			continue
		}
		status, path := entry[:2], entry[3:]
		paths = append(paths, path)
		if strings.ContainsAny(status, "RC") && i+1 < len(fields) {
			i++
			paths = append(paths, fields[i])
		}
	}
	return paths
}

func splitNUL(out []byte) []string {
	var fields []string
	for _, f := range bytes.Split(out, []byte{0}) {
		if len(f) > 0 {
			fields = append(fields, string(f))
		}
	}
	return fields
}

func execGit(ctx context.Context, dir string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%w: %s", err, msg)
		}
		return nil, err
	}
	return out, nil
}
