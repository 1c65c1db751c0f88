// Package remote provides a client for the template validation service.
// A bundle is first validated and, only on success, deployed.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/artpar/templatecheck/internal/core/domain"
)

// Client performs validate and deploy calls against the remote service.
type Client struct {
	validateURL   string
	deployURL     string
	timeout       time.Duration
	deployTimeout time.Duration
	heartbeat     time.Duration
	httpClient    *http.Client
	logger        *slog.Logger
}

// Config holds remote client configuration.
type Config struct {
	ValidateURL       string        // Base URL of the validation host, e.g. "http://localhost:3000"
	DeployURL         string        // Base URL of the deploy host; defaults to ValidateURL
	Timeout           time.Duration // Per /validate call
	DeployTimeout     time.Duration // Per /deploy call
	HeartbeatInterval time.Duration // Log cadence while a deploy is in flight
}

// DefaultConfig returns default remote client configuration.
func DefaultConfig() Config {
	return Config{
		Timeout:           30 * time.Second,
		DeployTimeout:     time.Hour,
		HeartbeatInterval: 30 * time.Second,
	}
}

// NewClient creates a new remote client.
func NewClient(cfg Config, logger *slog.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.ValidateURL) == "" {
		return nil, domain.NewConfigError("remote.validate_url", "is required")
	}
	if cfg.DeployURL == "" {
		cfg.DeployURL = cfg.ValidateURL
	}
	defaults := DefaultConfig()
	if cfg.Timeout == 0 {
		cfg.Timeout = defaults.Timeout
	}
	if cfg.DeployTimeout == 0 {
		cfg.DeployTimeout = defaults.DeployTimeout
	}
	if cfg.HeartbeatInterval == 0 {
		cfg.HeartbeatInterval = defaults.HeartbeatInterval
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		validateURL:   strings.TrimRight(cfg.ValidateURL, "/"),
		deployURL:     strings.TrimRight(cfg.DeployURL, "/"),
		timeout:       cfg.Timeout,
		deployTimeout: cfg.DeployTimeout,
		heartbeat:     cfg.HeartbeatInterval,
		httpClient:    &http.Client{}, // deadlines come from the per-call context
		logger:        logger.With("component", "remote_client"),
	}, nil
}

// =============================================================================
// Validate
// =============================================================================

// Validate submits b to POST /validate. Only HTTP 200 counts as success;
// anything else is domain.ErrValidationRejected carrying the body verbatim.
func (c *Client) Validate(ctx context.Context, b domain.Bundle) (*ValidationResult, error) {
	body, err := PrepareRequest(b)
	if err != nil {
		return nil, err
	}

	status, respBody, err := c.post(ctx, c.validateURL+"/validate", body, c.timeout)
	if err != nil {
		return nil, &domain.BundleError{
			Op:      "Validate",
			Path:    b.TemplatePath,
			Message: fmt.Sprintf("validation request failed: %v", err),
			Err:     domain.ErrValidationRejected,
		}
	}

	if status != http.StatusOK {
		return nil, &domain.BundleError{
			Op:      "Validate",
			Path:    b.TemplatePath,
			Message: fmt.Sprintf("validation rejected with status %d", status),
			Body:    respBody,
			Err:     domain.ErrValidationRejected,
		}
	}

	c.logger.Debug("template validated", "bundle", b.Dir)
	return &ValidationResult{StatusCode: status, Body: respBody}, nil
}

// =============================================================================
// Deploy
// =============================================================================

// Deploy submits b to POST /deploy and waits up to the deploy timeout.
// Success requires HTTP 202 and a result of DeploySuccess.
func (c *Client) Deploy(ctx context.Context, b domain.Bundle) (*DeploymentResult, error) {
	body, err := PrepareRequest(b)
	if err != nil {
		return nil, err
	}

	stop := c.startHeartbeat(b)
	defer stop()

	c.logger.Debug("making deploy request", "bundle", b.Dir)
	status, respBody, err := c.post(ctx, c.deployURL+"/deploy", body, c.deployTimeout)
	if err != nil {
		return nil, &domain.BundleError{
			Op:      "Deploy",
			Path:    b.TemplatePath,
			Message: fmt.Sprintf("deployment request failed: %v", err),
			Err:     domain.ErrDeploymentFailed,
		}
	}
	c.logger.Debug("deploy response", "bundle", b.Dir, "status", status)

	if status != http.StatusAccepted {
		return nil, &domain.BundleError{
			Op:      "Deploy",
			Path:    b.TemplatePath,
			Message: fmt.Sprintf("deployment returned status %d", status),
			Body:    respBody,
			Err:     domain.ErrDeploymentFailed,
		}
	}

	var parsed deploymentBody
	if err := json.Unmarshal([]byte(respBody), &parsed); err != nil || parsed.Result != DeploySuccess {
		return nil, &domain.BundleError{
			Op:      "Deploy",
			Path:    b.TemplatePath,
			Message: fmt.Sprintf("deployment did not report %q", DeploySuccess),
			Body:    respBody,
			Err:     domain.ErrDeploymentFailed,
		}
	}

	return &DeploymentResult{StatusCode: status, Result: parsed.Result, Body: respBody}, nil
}

// startHeartbeat logs periodically until the returned stop func is called.
// stop blocks until the heartbeat goroutine has exited.
func (c *Client) startHeartbeat(b domain.Bundle) (stop func()) {
	done := make(chan struct{})
	var wg sync.WaitGroup
	started := time.Now()

	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(c.heartbeat)
		defer ticker.Stop()

		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				c.logger.Info("deployment still running",
					"bundle", b.Dir,
					"elapsed", time.Since(started).Round(time.Second),
				)
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			close(done)
			wg.Wait()
		})
	}
}

// =============================================================================
// Helper Methods
// =============================================================================

func (c *Client) post(ctx context.Context, url string, payload *Request, timeout time.Duration) (int, string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return 0, "", fmt.Errorf("marshal request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return 0, "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, "", fmt.Errorf("read response: %w", err)
	}
	return resp.StatusCode, string(respBody), nil
}
