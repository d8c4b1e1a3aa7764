package configuration

import "errors"

var (
	// ErrInvalidValue is returned for configuration values that do not parse.
	ErrInvalidValue = errors.New("invalid configuration value")

	// ErrInvalidGeometry is returned for volume shapes that cannot exist.
	ErrInvalidGeometry = errors.New("invalid volume geometry")
)
