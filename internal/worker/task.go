package worker

import (
	"context"
	"errors"
)

// Task is periodic maintenance work, such as sweeping expired sessions.
type Task interface {
	// Name identifies the task in logs and metrics.
	Name() string

	// Run performs one pass. Returning a PermanentError stops the task from
	// being scheduled again.
	Run(ctx context.Context) error
}

// PermanentError wraps an error to indicate the task cannot succeed on a
// later run, e.g. the backing table does not exist.
type PermanentError struct {
	Err error
}

// Error implements the error interface.
func (e *PermanentError) Error() string {
	return e.Err.Error()
}

// Unwrap allows errors.Is and errors.As to work with PermanentError.
func (e *PermanentError) Unwrap() error {
	return e.Err
}

// NewPermanentError creates a new PermanentError that wraps the given error.
func NewPermanentError(err error) error {
	return &PermanentError{Err: err}
}

// IsPermanent checks if an error is a PermanentError.
func IsPermanent(err error) bool {
	var permErr *PermanentError
	return errors.As(err, &permErr)
}
