package weather

import "errors"

var (
	// ErrInvalidInput is returned when a request carries no usable waypoints.
	ErrInvalidInput = errors.New("invalid_input")

	// ErrUpstream is returned when the upstream call fails as a whole.
	ErrUpstream = errors.New("upstream_error")
)
