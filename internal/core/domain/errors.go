package domain

import (
	"errors"
	"fmt"
)

// =============================================================================
// Error Kinds
// =============================================================================

var (
	ErrIO                 = errors.New("file could not be read")
	ErrParse              = errors.New("malformed JSON document")
	ErrSchema             = errors.New("metadata does not match schema")
	ErrDate               = errors.New("invalid date")
	ErrStructure          = errors.New("template structure is incomplete")
	ErrValidationRejected = errors.New("template validation rejected")
	ErrDeploymentFailed   = errors.New("template deployment failed")
	ErrMissingFile        = errors.New("expected file is missing")
	ErrConfig             = errors.New("invalid configuration")
)

// BundleError wraps an error kind with the file and operation that produced it.
// Body holds the verbatim remote response for remote failures.
type BundleError struct {
	Op      string // e.g. "ValidateMetadata", "Deploy"
	Path    string
	Message string
	Body    string
	Err     error
}

func (e *BundleError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Path != "" {
		return fmt.Sprintf("%s - %s", e.Path, msg)
	}
	return msg
}

func (e *BundleError) Unwrap() error {
	return e.Err
}

// NewBundleError creates a new BundleError.
func NewBundleError(op, path, message string, kind error) *BundleError {
	return &BundleError{
		Op:      op,
		Path:    path,
		Message: message,
		Err:     kind,
	}
}

// ConfigError reports an invalid configuration value.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ConfigError) Unwrap() error {
	return ErrConfig
}

// NewConfigError creates a new ConfigError.
func NewConfigError(field, message string) *ConfigError {
	return &ConfigError{Field: field, Message: message}
}

// RemoteBody returns the verbatim server payload carried by err, if any.
func RemoteBody(err error) (string, bool) {
	var be *BundleError
	if errors.As(err, &be) && (errors.Is(be, ErrValidationRejected) || errors.Is(be, ErrDeploymentFailed)) {
		return be.Body, true
	}
	return "", false
}
