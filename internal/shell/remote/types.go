package remote

import (
	"github.com/artpar/templatecheck/internal/core/domain"
	"github.com/artpar/templatecheck/internal/core/validation"
	"github.com/artpar/templatecheck/internal/shell/bundlefs"
)

// =============================================================================
// Wire Types
// =============================================================================

// DeploySuccess is the result string the service sends for a good deployment.
const DeploySuccess = "Deployment Successful"

// Request is the body of both /validate and /deploy.
type Request struct {
	Template   map[string]any `json:"template"`
	Parameters map[string]any `json:"parameters"`
}

// ValidationResult is a successful /validate response.
type ValidationResult struct {
	StatusCode int
	Body       string
}

// DeploymentResult is a successful /deploy response.
type DeploymentResult struct {
	StatusCode int
	Result     string
	Body       string
}

// deploymentBody holds the only /deploy response field the client reads.
type deploymentBody struct {
	Result string `json:"result"`
}

// PrepareRequest reads and parses the template and parameters of b and
// runs the local parameter description check. It has no side effects and
// is repeated before each remote call.
func PrepareRequest(b domain.Bundle) (*Request, error) {
	template, err := bundlefs.ReadDocument("PrepareRequest", b.TemplatePath)
	if err != nil {
		return nil, err
	}
	params, err := bundlefs.ReadDocument("PrepareRequest", b.ParametersPath)
	if err != nil {
		return nil, err
	}
	if err := validation.CheckParameters(b.TemplatePath, template); err != nil {
		return nil, err
	}
	return &Request{Template: template, Parameters: params}, nil
}
