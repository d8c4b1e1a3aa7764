package directory

import "errors"

var (
	// ErrNotFound is returned when no in-use entry carries the name.
	ErrNotFound = errors.New("name not found")

	// ErrAlreadyExists is returned when adding a name that is in use.
	ErrAlreadyExists = errors.New("name already exists")

	// ErrDirectoryFull is returned when every entry is in use.
	ErrDirectoryFull = errors.New("directory is full")

	// ErrNameTooLong is returned for names over [NameMaxLen] bytes.
	ErrNameTooLong = errors.New("name too long")

	// ErrInvalidName is returned for empty names or names holding a '/'.
	ErrInvalidName = errors.New("invalid name")

	// ErrCorrupt is returned when directory content does not decode.
	ErrCorrupt = errors.New("corrupt directory")

	// ErrTooDeep is returned when a traversal exceeds [MaxDepth].
	ErrTooDeep = errors.New("directory tree too deep")
)
