package domain

import "errors"

// ErrInvalidTransition is returned for a state change the protocol forbids.
var ErrInvalidTransition = errors.New("invalid state transition")

// =============================================================================
// Bundle State
// =============================================================================

// BundleState tracks a bundle through the validate-then-deploy protocol.
type BundleState string

const (
	StatePending      BundleState = "pending"
	StateValidating   BundleState = "validating"
	StateValidated    BundleState = "validated"
	StateDeploying    BundleState = "deploying"
	StateDeployed     BundleState = "deployed"
	StateFailed       BundleState = "failed"
	StateDeployFailed BundleState = "deploy_failed"
)

// validTransitions defines the allowed state transitions.
var validTransitions = map[BundleState][]BundleState{
	StatePending:    {StateValidating},
	StateValidating: {StateValidated, StateFailed},
	StateValidated:  {StateDeploying},
	StateDeploying:  {StateDeployed, StateDeployFailed},
}

// ValidateTransition checks if a state transition is allowed.
func ValidateTransition(from, to BundleState) error {
	for _, s := range validTransitions[from] {
		if s == to {
			return nil
		}
	}
	return ErrInvalidTransition
}

// IsTerminal reports whether no further transition is possible.
// StateValidated is terminal only when deployment is skipped.
func (s BundleState) IsTerminal() bool {
	switch s {
	case StateDeployed, StateFailed, StateDeployFailed:
		return true
	}
	return false
}
