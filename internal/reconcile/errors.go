package reconcile

import (
	"errors"
	"fmt"
)

var (
	// ErrDirectoryUnavailable is returned by a Directory on transport or
	// auth failures.
	ErrDirectoryUnavailable = errors.New("command directory unavailable")
	// ErrValidationRejected is returned when the platform rejects a
	// command's shape.
	ErrValidationRejected = errors.New("command rejected by platform validation")
	// ErrNotFound is returned when the command ID no longer exists remotely.
	ErrNotFound = errors.New("command not found")
	// ErrDirectoryFetchFailed matches the error returned by Reconcile when
	// the remote directory could not be listed.
	ErrDirectoryFetchFailed = errors.New("directory fetch failed")
	// ErrDirectoryPanicked is recorded when a Directory call panics.
	ErrDirectoryPanicked = errors.New("command directory call panicked")
)

// FetchError aborts a pass before any command is processed.
type FetchError struct {
	Scope string
	Err   error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("list commands in scope %s: %v", e.Scope, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrDirectoryFetchFailed) hold for every FetchError.
func (e *FetchError) Is(target error) bool {
	return target == ErrDirectoryFetchFailed
}

// OperationError records a failed remote call for one command.
type OperationError struct {
	Name   string
	Action Action
	Err    error
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("%s command %q: %v", e.Action, e.Name, e.Err)
}

func (e *OperationError) Unwrap() error {
	return e.Err
}

// IsValidationRejected reports whether err carries a platform validation
// rejection.
func IsValidationRejected(err error) bool {
	return errors.Is(err, ErrValidationRejected)
}
