// Package bundlefs reads bundle files from disk and hands their content to
// the pure validation core.
package bundlefs

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/artpar/templatecheck/internal/core/domain"
	"github.com/artpar/templatecheck/internal/core/validation"
)

// CheckFiles verifies that all three bundle files exist.
// Every absent file is named in the returned error.
func CheckFiles(b domain.Bundle) error {
	var errs []error
	for _, p := range b.Paths() {
		if _, err := os.Stat(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				errs = append(errs, domain.NewBundleError("CheckFiles", p,
					fmt.Sprintf("Expected %s to be in the correct place", p), domain.ErrMissingFile))
				continue
			}
			errs = append(errs, domain.NewBundleError("CheckFiles", p, err.Error(), domain.ErrIO))
		}
	}
	return errors.Join(errs...)
}

// ReadFile reads path, classifying failures as domain.ErrIO.
func ReadFile(op, path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &domain.BundleError{Op: op, Path: path, Message: fmt.Sprintf("cannot read file: %v", err), Err: domain.ErrIO}
	}
	return data, nil
}

// ReadDocument reads and parses a JSON object file.
func ReadDocument(op, path string) (map[string]any, error) {
	data, err := ReadFile(op, path)
	if err != nil {
		return nil, err
	}
	return validation.ParseDocument(path, data)
}

// ValidateMetadataFile reads and validates a bundle's metadata.json.
func ValidateMetadataFile(path string) (*domain.Metadata, error) {
	data, err := ReadFile("ValidateMetadata", path)
	if err != nil {
		return nil, err
	}
	return validation.ValidateMetadata(path, data)
}
