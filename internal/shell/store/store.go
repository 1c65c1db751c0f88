package store

import (
	"context"
	"time"

	"github.com/artpar/templatecheck/internal/core/domain"
)

// =============================================================================
// Store Interface
// =============================================================================

// Store persists finished runs and their per-bundle results.
type Store interface {
	RecordRun(ctx context.Context, report *domain.RunReport) error
	ListRuns(ctx context.Context, limit int) ([]RunSummary, error)
	GetRun(ctx context.Context, id string) (*domain.RunReport, error)
	GetRunResults(ctx context.Context, runID string) ([]domain.BundleResult, error)
	Close() error
}

// DefaultListLimit is used when ListRuns is given a non-positive limit.
const DefaultListLimit = 20

// MaxListLimit caps ListRuns.
const MaxListLimit = 500

// RunSummary is one row of the run history.
type RunSummary struct {
	ID           string    `json:"id" yaml:"id"`
	Root         string    `json:"root" yaml:"root"`
	GroupSize    int       `json:"group_size" yaml:"group_size"`
	OnlyChanged  bool      `json:"only_changed" yaml:"only_changed"`
	ValidateOnly bool      `json:"validate_only" yaml:"validate_only"`
	StartedAt    time.Time `json:"started_at" yaml:"started_at"`
	FinishedAt   time.Time `json:"finished_at" yaml:"finished_at"`
	Total        int       `json:"total" yaml:"total"`
	Passed       int       `json:"passed" yaml:"passed"`
	Failed       int       `json:"failed" yaml:"failed"`
}

// Duration returns the wall time of the run.
func (r RunSummary) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	if limit > MaxListLimit {
		return MaxListLimit
	}
	return limit
}
