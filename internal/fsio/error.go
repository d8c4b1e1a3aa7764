package fsio

import "errors"

var (
	// ErrHashMismatch is an error that occurs when the digest of the written
	// copy differs from the digest of the source, usually pointing at device
	// issues.
	ErrHashMismatch = errors.New("hash mismatch")

	// ErrRenameExists is an error that occurs when the intermediate file is to
	// be renamed to its final filename, but that filename already exists.
	ErrRenameExists = errors.New("rename destination already exists")

	// ErrNotRegular is an error that occurs when the host source is not a
	// regular file.
	ErrNotRegular = errors.New("host source is not a regular file")
)
