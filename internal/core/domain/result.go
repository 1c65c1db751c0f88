package domain

import (
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// Bundle Result
// =============================================================================

// BundleResult is the outcome of running one bundle through the harness.
type BundleResult struct {
	Bundle   Bundle        `json:"bundle" yaml:"bundle"`
	State    BundleState   `json:"state" yaml:"state"`
	Passed   bool          `json:"passed" yaml:"passed"`
	Message  string        `json:"message,omitempty" yaml:"message,omitempty"`
	Duration time.Duration `json:"duration" yaml:"duration"`
	Err      error         `json:"-" yaml:"-"`
}

// =============================================================================
// Run Report
// =============================================================================

// RunReport aggregates the results of one harness run.
type RunReport struct {
	ID           string         `json:"id" yaml:"id"`
	Root         string         `json:"root" yaml:"root"`
	GroupSize    int            `json:"group_size" yaml:"group_size"`
	OnlyChanged  bool           `json:"only_changed" yaml:"only_changed"`
	ValidateOnly bool           `json:"validate_only" yaml:"validate_only"`
	StartedAt    time.Time      `json:"started_at" yaml:"started_at"`
	FinishedAt   time.Time      `json:"finished_at" yaml:"finished_at"`
	Results      []BundleResult `json:"results" yaml:"results"`
}

// NewRunReport creates a report with a fresh ID and start time.
func NewRunReport(root string, groupSize int, onlyChanged, validateOnly bool) *RunReport {
	return &RunReport{
		ID:           uuid.New().String(),
		Root:         root,
		GroupSize:    groupSize,
		OnlyChanged:  onlyChanged,
		ValidateOnly: validateOnly,
		StartedAt:    time.Now().UTC(),
	}
}

// Passed reports whether every bundle passed. An empty run passes.
func (r *RunReport) Passed() bool {
	for _, res := range r.Results {
		if !res.Passed {
			return false
		}
	}
	return true
}

// Failures returns the failed results in recorded order.
func (r *RunReport) Failures() []BundleResult {
	var failed []BundleResult
	for _, res := range r.Results {
		if !res.Passed {
			failed = append(failed, res)
		}
	}
	return failed
}

// Duration returns the wall time of the run.
func (r *RunReport) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
