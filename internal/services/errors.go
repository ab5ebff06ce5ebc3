package services

import "errors"

// Sentinel errors the handler layer maps onto HTTP statuses. Services wrap
// these with fmt.Errorf("...: %w", ...) so the detail survives while
// errors.Is still matches.
var (
	// ErrMissingParameter marks a request that lacks a required field.
	ErrMissingParameter = errors.New("missing required parameter")

	// ErrNotFound marks a lookup for a job or candidate that does not exist.
	ErrNotFound = errors.New("record not found")
)
