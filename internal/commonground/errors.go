package commonground

import "errors"

var (
	// ErrResourceUnavailable indicates a microservice call failed or timed out.
	// The wrapping error names the descriptor or URL that was requested.
	ErrResourceUnavailable = errors.New("commonground: resource unavailable")

	// ErrUnknownComponent is returned when a descriptor names a component
	// without a configured base URL.
	ErrUnknownComponent = errors.New("commonground: unknown component")

	// ErrInvalidResponse indicates the service answered with a body that is
	// not the expected JSON resource or collection envelope.
	ErrInvalidResponse = errors.New("commonground: invalid response")
)
