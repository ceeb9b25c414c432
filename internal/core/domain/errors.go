package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidVertexType indicates a string that names no vertex kind.
	ErrInvalidVertexType = errors.New("invalid vertex type")

	// Remote Errors.

	// ErrDisabled indicates a resource is switched off upstream,
	// e.g. issues disabled on a repository.
	ErrDisabled = errors.New("disabled upstream")

	// ErrForbidden indicates the endpoint requires privileges the token does not hold.
	ErrForbidden = errors.New("forbidden")

	// ErrRateLimited indicates the API rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")

	// Storage Errors.

	// ErrStoreClosed indicates the graph store has been shut down.
	ErrStoreClosed = errors.New("store closed")

	// ErrUnsupportedEngine indicates an unknown database engine.
	ErrUnsupportedEngine = errors.New("unsupported database engine")

	// Configuration Errors.

	// ErrConfigMissing indicates a required configuration value is absent.
	// This is the only configuration fault that prevents a harvest.
	ErrConfigMissing = errors.New("required configuration missing")
)

// IsAbsent reports whether err is the signal a remote collaborator uses for data
// that is not there, as opposed to a hard fault: not found, disabled upstream, or
// forbidden (a 403 for a resource the token may not read counts as absent).
func IsAbsent(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrDisabled) || errors.Is(err, ErrForbidden)
}
