package core

import (
	"errors"
	"fmt"
)

// errEmptyDistribution is the cause attached when a backend returns no
// probabilities at all.
var errEmptyDistribution = errors.New("empty probability distribution")

// ValidationError signals malformed or out-of-bounds input. It is
// caller-correctable and must never be masked as a PredictionError.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// NewValidationError creates a validation error with the given reason
func NewValidationError(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// IsValidationError reports whether err is (or wraps) a ValidationError
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// PredictionError signals a failure during vectorization or classification
// that is not attributable to the input itself. The original cause is kept
// for logging; callers should surface it as a generic failure.
type PredictionError struct {
	Stage string
	Cause error
}

func (e *PredictionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("prediction failed during %s: %v", e.Stage, e.Cause)
	}
	return fmt.Sprintf("prediction failed during %s", e.Stage)
}

func (e *PredictionError) Unwrap() error {
	return e.Cause
}

// IsPredictionError reports whether err is (or wraps) a PredictionError
func IsPredictionError(err error) bool {
	var pe *PredictionError
	return errors.As(err, &pe)
}

// ModelLoadError signals that a model or vectorizer artifact is missing,
// corrupted, or deserialized to an empty object. The registry cannot serve
// predictions until it is resolved.
type ModelLoadError struct {
	Path  string
	Cause error
}

func (e *ModelLoadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("failed to load model artifact %s: %v", e.Path, e.Cause)
	}
	return fmt.Sprintf("failed to load model artifact %s", e.Path)
}

func (e *ModelLoadError) Unwrap() error {
	return e.Cause
}

// IsModelLoadError reports whether err is (or wraps) a ModelLoadError
func IsModelLoadError(err error) bool {
	var me *ModelLoadError
	return errors.As(err, &me)
}
