package bitmap

import "errors"

var (
	// ErrNoSpace is returned when every sector is allocated.
	ErrNoSpace = errors.New("no free sectors")

	// ErrConsistencyViolation is the panic value (wrapped) for double claims,
	// double releases and out-of-range sectors. It signals caller misuse and is
	// not recoverable.
	ErrConsistencyViolation = errors.New("bitmap consistency violation")
)
