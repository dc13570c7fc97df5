package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Not found errors
	ErrNotFound         = errors.New("resource not found")
	ErrProjectNotFound  = fmt.Errorf("%w: project", ErrNotFound)
	ErrScreenNotFound   = fmt.Errorf("%w: screen", ErrNotFound)
	ErrTestCaseNotFound = fmt.Errorf("%w: test case", ErrNotFound)

	// Validation errors
	ErrInvalidName   = errors.New("invalid name")
	ErrInvalidTarget = errors.New("invalid import target")

	// Workbook errors
	ErrFileFormat      = errors.New("workbook cannot be opened")
	ErrEmptyExtraction = errors.New("no scenarios found in workbook")
)

// Error constructors with context
func NewNotFoundError(resource string, id int64) error {
	return fmt.Errorf("%w: %s with id %d", ErrNotFound, resource, id)
}

func NewNameError(field string, reason string) error {
	return fmt.Errorf("%w: %s %s", ErrInvalidName, field, reason)
}

func NewFileFormatError(path string, cause error) error {
	if cause == nil {
		return fmt.Errorf("%w: %s", ErrFileFormat, path)
	}
	return fmt.Errorf("%w: %s: %v", ErrFileFormat, path, cause)
}

// Error checking helpers
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidName) || errors.Is(err, ErrInvalidTarget)
}

func IsFileFormatError(err error) bool {
	return errors.Is(err, ErrFileFormat)
}
