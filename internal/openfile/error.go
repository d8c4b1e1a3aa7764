package openfile

import "errors"

var (
	// ErrNegativeOffset is returned for offsets below zero.
	ErrNegativeOffset = errors.New("negative offset")

	// ErrBeyondEnd is returned for writes starting past the end of the file.
	// Files never grow after creation.
	ErrBeyondEnd = errors.New("offset beyond end of file")

	// ErrInvalidWhence is returned by Seek for an unknown whence.
	ErrInvalidWhence = errors.New("invalid whence")
)
