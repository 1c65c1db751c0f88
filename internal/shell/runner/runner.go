// Package runner drives template bundles through local checks, remote
// validation and deployment, and aggregates the outcome of a run.
package runner

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/artpar/templatecheck/internal/core/bundle"
	"github.com/artpar/templatecheck/internal/core/diagnostics"
	"github.com/artpar/templatecheck/internal/core/domain"
	"github.com/artpar/templatecheck/internal/shell/bundlefs"
	"github.com/artpar/templatecheck/internal/shell/locator"
	"github.com/artpar/templatecheck/internal/shell/remote"
)

// Remote is the two-phase template service.
type Remote interface {
	Validate(ctx context.Context, b domain.Bundle) (*remote.ValidationResult, error)
	Deploy(ctx context.Context, b domain.Bundle) (*remote.DeploymentResult, error)
}

// ChangeSource lists paths changed in this run, relative to TopLevel.
type ChangeSource interface {
	TopLevel(ctx context.Context) (string, error)
	ChangedPaths(ctx context.Context) ([]string, error)
}

// Options configures a run.
type Options struct {
	Root         string // directory whose subdirectories are bundles
	GroupSize    int    // bundles in flight at once
	OnlyChanged  bool   // restrict the run to bundles touched by ChangeSource
	ValidateOnly bool   // stop after a successful validate
}

// Runner executes harness runs.
type Runner struct {
	opts    Options
	client  Remote
	changes ChangeSource
	logger  *slog.Logger
}

// New creates a Runner. changes may be nil unless opts.OnlyChanged is set.
// client may be nil for a Runner that only plans.
func New(opts Options, client Remote, changes ChangeSource, logger *slog.Logger) (*Runner, error) {
	if opts.GroupSize < 1 {
		return nil, domain.NewConfigError("run.group_size", fmt.Sprintf("must be at least 1 (got %d)", opts.GroupSize))
	}
	if opts.OnlyChanged && changes == nil {
		return nil, domain.NewConfigError("run.only_changed", "requires a change source")
	}
	if opts.Root == "" {
		opts.Root = "."
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		opts:    opts,
		client:  client,
		changes: changes,
		logger:  logger.With("component", "runner"),
	}, nil
}

// =============================================================================
// Planning
// =============================================================================

// Plan discovers, filters and groups the bundles of a run without making
// any remote call.
func (r *Runner) Plan(ctx context.Context) ([]domain.TestGroup, error) {
	root, err := filepath.Abs(r.opts.Root)
	if err != nil {
		return nil, fmt.Errorf("resolve root: %w", err)
	}

	bundles, err := locator.Collect(root)
	if err != nil {
		return nil, err
	}
	r.logger.Debug("located bundles", "root", root, "count", len(bundles))

	if r.opts.OnlyChanged {
		paths, err := r.changes.ChangedPaths(ctx)
		if err != nil {
			return nil, fmt.Errorf("list changed paths: %w", err)
		}
		base, err := r.changeBase(ctx, root)
		if err != nil {
			return nil, err
		}
		changes := bundle.NewChangeSet(base, paths)
		located := len(bundles)
		bundles = slices.Collect(bundle.Filter(slices.Values(bundles), changes))
		r.logger.Debug("filtered to changed bundles", "base", base, "changed_paths", changes.Len(), "count", len(bundles))
		if len(bundles) == 0 && located > 0 {
			r.logger.Warn("no changed bundles selected",
				"located", located,
				"changed_paths", len(paths),
				"base", base,
			)
		}
	}

	return bundle.Group(bundles, r.opts.GroupSize)
}

// changeBase returns the change source's top level expressed under root's
// spelling, so joined change paths compare equal to bundle paths even when
// either side goes through a symlink.
func (r *Runner) changeBase(ctx context.Context, root string) (string, error) {
	top, err := r.changes.TopLevel(ctx)
	if err != nil {
		return "", fmt.Errorf("resolve repository top level: %w", err)
	}
	rel, err := filepath.Rel(realPath(root), realPath(top))
	if err != nil {
		return "", fmt.Errorf("relate %s to %s: %w", root, top, err)
	}
	return filepath.Join(root, rel), nil
}

func realPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		p = abs
	}
	if resolved, err := filepath.EvalSymlinks(p); err == nil {
		return resolved
	}
	return p
}

// =============================================================================
// Execution
// =============================================================================

// Run executes every planned bundle and returns the report. Bundle failures
// are recorded in the report; an error is returned only when the run could
// not be planned.
func (r *Runner) Run(ctx context.Context) (*domain.RunReport, error) {
	if r.client == nil {
		return nil, domain.NewConfigError("remote", "a remote client is required to run")
	}
	groups, err := r.Plan(ctx)
	if err != nil {
		return nil, err
	}

	report := domain.NewRunReport(r.opts.Root, r.opts.GroupSize, r.opts.OnlyChanged, r.opts.ValidateOnly)
	r.logger.Info("starting run", "run_id", report.ID, "groups", len(groups))

	var mu sync.Mutex
	record := func(res domain.BundleResult) {
		mu.Lock()
		defer mu.Unlock()
		report.Results = append(report.Results, res)
	}

	for i, group := range groups {
		r.logger.Info("running parallel template validations",
			"group", i+1,
			"of", len(groups),
			"size", len(group),
		)
		r.runGroup(ctx, group, record)
	}

	report.FinishedAt = time.Now().UTC()
	r.logger.Info("run finished",
		"run_id", report.ID,
		"bundles", len(report.Results),
		"failed", len(report.Failures()),
		"duration", report.Duration(),
	)
	return report, nil
}

// runGroup starts every bundle of the group together and waits for all of
// them. A group holds at most GroupSize bundles, which bounds concurrency.
func (r *Runner) runGroup(ctx context.Context, group domain.TestGroup, record func(domain.BundleResult)) {
	var wg sync.WaitGroup

	for _, b := range group {
		wg.Add(1)
		go func(b domain.Bundle) {
			defer wg.Done()
			record(r.runBundle(ctx, b))
		}(b)
	}

	wg.Wait()
}

// runBundle never returns an error: every failure becomes a failed result.
func (r *Runner) runBundle(ctx context.Context, b domain.Bundle) domain.BundleResult {
	start := time.Now()
	run := &bundleRun{
		bundle: b,
		state:  domain.StatePending,
		logger: r.logger.With("bundle", b.Dir),
	}

	err := run.execute(ctx, r.client, r.opts.ValidateOnly)

	res := domain.BundleResult{
		Bundle:   b,
		State:    run.state,
		Passed:   err == nil,
		Duration: time.Since(start),
	}
	if err != nil {
		res.Err = err
		res.Message = diagnostics.Compose(b, err)
		run.logger.Error("bundle failed", "state", run.state, "error", err)
	} else {
		run.logger.Info("bundle passed", "state", run.state, "duration", res.Duration)
	}
	return res
}

// =============================================================================
// Bundle Run
// =============================================================================

// bundleRun walks one bundle through the state machine.
type bundleRun struct {
	bundle domain.Bundle
	state  domain.BundleState
	logger *slog.Logger
}

func (br *bundleRun) moveTo(to domain.BundleState) error {
	if err := domain.ValidateTransition(br.state, to); err != nil {
		return fmt.Errorf("%s -> %s: %w", br.state, to, err)
	}
	br.logger.Debug("state change", "from", br.state, "to", to)
	br.state = to
	return nil
}

func (br *bundleRun) execute(ctx context.Context, client Remote, validateOnly bool) error {
	if err := br.moveTo(domain.StateValidating); err != nil {
		return err
	}
	if err := br.validate(ctx, client); err != nil {
		_ = br.moveTo(domain.StateFailed)
		return err
	}
	if err := br.moveTo(domain.StateValidated); err != nil {
		return err
	}
	if validateOnly {
		return nil
	}

	if err := br.moveTo(domain.StateDeploying); err != nil {
		return err
	}
	if _, err := client.Deploy(ctx, br.bundle); err != nil {
		_ = br.moveTo(domain.StateDeployFailed)
		return err
	}
	return br.moveTo(domain.StateDeployed)
}

// validate runs the local checks and then the remote validate call.
func (br *bundleRun) validate(ctx context.Context, client Remote) error {
	if err := bundlefs.CheckFiles(br.bundle); err != nil {
		return err
	}
	if _, err := bundlefs.ValidateMetadataFile(br.bundle.MetadataPath); err != nil {
		return err
	}
	br.logger.Debug("metadata valid, validating template remotely")
	_, err := client.Validate(ctx, br.bundle)
	return err
}
