package disk

import "errors"

var (
	// ErrBadBuffer is returned when a transfer buffer is not exactly
	// [SectorSize] bytes long.
	ErrBadBuffer = errors.New("buffer is not one sector long")

	// ErrOutOfRange is returned for a sector index beyond the device.
	ErrOutOfRange = errors.New("sector out of range")

	// ErrInvalidGeometry is returned when a device would have no sectors.
	ErrInvalidGeometry = errors.New("invalid device geometry")

	// ErrImageSize is returned when an image file is not a whole number of
	// sectors long.
	ErrImageSize = errors.New("image size is not a multiple of the sector size")

	// ErrImageLocked is returned when another process holds the image lock.
	ErrImageLocked = errors.New("image is locked by another process")
)
