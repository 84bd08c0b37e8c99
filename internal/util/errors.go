package util

import "errors"

// Sentinel errors for common failure modes
var (
	// ErrCorrupt indicates a project document could not be decompressed or parsed
	ErrCorrupt = errors.New("corrupt project file")

	// ErrNotFound indicates a required file or record was not found
	ErrNotFound = errors.New("not found")

	// ErrPermission indicates a permission error
	ErrPermission = errors.New("permission denied")

	// ErrInvalidConfig indicates invalid configuration
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrStoreBusy indicates another stage holds the store lock
	ErrStoreBusy = errors.New("store is busy")

	// ErrInvariant indicates a stored row violates an invariant the pipeline
	// guarantees. It is a programming error, never a user-facing condition.
	ErrInvariant = errors.New("invariant violation")
)
