package filesys

import (
	"errors"
	"fmt"

	"github.com/desertwitch/nachosfs/internal/bitmap"
	"github.com/desertwitch/nachosfs/internal/directory"
	"github.com/desertwitch/nachosfs/internal/header"
)

var (
	// ErrNoSpace is returned when the volume runs out of free sectors.
	ErrNoSpace = header.ErrNoSpace

	// ErrAlreadyExists is returned when creating a name that is taken.
	ErrAlreadyExists = directory.ErrAlreadyExists

	// ErrNotFound is returned for missing path components and unknown
	// open-file ids.
	ErrNotFound = directory.ErrNotFound

	// ErrDirectoryFull is returned when the parent directory has no free slot.
	ErrDirectoryFull = directory.ErrDirectoryFull

	// ErrConsistencyViolation is the (wrapped) panic value of a double claim
	// or double release of a sector.
	ErrConsistencyViolation = bitmap.ErrConsistencyViolation

	// ErrFileTooLarge is returned for sizes beyond [header.MaxFileSize].
	ErrFileTooLarge = header.ErrFileTooLarge

	// ErrInvalidSize is returned for negative sizes.
	ErrInvalidSize = header.ErrInvalidSize

	// ErrMalformed is returned for paths that cannot be parsed.
	ErrMalformed = errors.New("malformed path")

	// ErrNotDirectory is returned when an intermediate path component is a
	// plain file. It matches [ErrNotFound].
	ErrNotDirectory = fmt.Errorf("%w: not a directory", ErrNotFound)

	// ErrNotEmpty is returned when removing a directory that still has
	// entries without recursion.
	ErrNotEmpty = errors.New("directory not empty")

	// ErrTableFull is returned when every open-file slot is taken.
	ErrTableFull = errors.New("open-file table is full")

	// ErrNotFormatted is returned when mounting a device without a volume.
	ErrNotFormatted = errors.New("device holds no volume")

	// ErrInvalidGeometry is returned for non-positive table sizes.
	ErrInvalidGeometry = errors.New("invalid volume geometry")
)
