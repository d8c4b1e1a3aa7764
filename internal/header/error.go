package header

import "errors"

var (
	// ErrNoSpace is returned when the allocator runs out of sectors. Sectors
	// claimed before the failure stay claimed.
	ErrNoSpace = errors.New("not enough free sectors")

	// ErrInvalidSize is returned for negative file lengths.
	ErrInvalidSize = errors.New("invalid file size < 0")

	// ErrFileTooLarge is returned for lengths beyond [MaxFileSize].
	ErrFileTooLarge = errors.New("file size exceeds the largest tier")

	// ErrLogicalOutOfRange is returned for a logical block beyond the file.
	ErrLogicalOutOfRange = errors.New("logical block out of range")

	// ErrCorrupt is returned when a loaded header is not self-consistent.
	ErrCorrupt = errors.New("corrupt file header")
)
