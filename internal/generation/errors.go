package generation

import (
	"context"
	"errors"
)

// Common errors returned by generation drivers. Drivers wrap the underlying
// cause with one of these so the worker can classify it.
var (
	// ErrNavigationTimeout is returned when the upstream page did not load in time.
	ErrNavigationTimeout = errors.New("navigation timeout")

	// ErrSelectorTimeout is returned when an expected UI element never appeared,
	// most often because the upstream markup changed.
	ErrSelectorTimeout = errors.New("selector timeout")

	// ErrExtractionFailure is returned when no qualifying result image was found.
	ErrExtractionFailure = errors.New("no result images extracted")

	// ErrTransportFailure is returned when validating the result URLs failed
	// at the network level.
	ErrTransportFailure = errors.New("result url validation failed")

	// ErrInvalidConfig is returned when the driver configuration is invalid.
	ErrInvalidConfig = errors.New("invalid generator configuration")
)

// IsRetryable reports whether another attempt could succeed after err.
// Cancellation and configuration errors are final; everything else is treated
// as an upstream hiccup.
func IsRetryable(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, context.Canceled):
		return false
	case errors.Is(err, ErrInvalidConfig):
		return false
	default:
		return true
	}
}
