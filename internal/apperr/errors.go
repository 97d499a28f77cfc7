// Package apperr defines the sentinel error classes shared across layers.
package apperr

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("conflict")
	ErrAlreadyExists = errors.New("already exists")

	// ErrMalformedInput marks recoverable parse failures: the offending
	// item is skipped and logged, never aborting a batch.
	ErrMalformedInput = errors.New("malformed input")

	// ErrUnresolvedTarget marks a relationship reference whose target
	// contact could not be found.
	ErrUnresolvedTarget = errors.New("unresolved target")
)
