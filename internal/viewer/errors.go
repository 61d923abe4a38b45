package viewer

import "errors"

// Sentinel errors for the viewer.
var (
	// ErrDisposed is returned by operations on a disposed viewer.
	ErrDisposed = errors.New("viewer is disposed")

	// ErrModelPanic is the failure recorded on a request whose model
	// capability panicked.
	ErrModelPanic = errors.New("model capability panicked")

	// ErrNoItem is returned when no widget item shows a path.
	ErrNoItem = errors.New("no item for path")
)
