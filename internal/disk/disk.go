// Package disk implements the synchronous sector-addressed block store that
// the file system is layered on.
package disk

import (
	"fmt"
)

const (
	// SectorSize is the number of bytes in one sector.
	SectorSize = 128

	// PointerSize is the on-disk size of one [Sector] index.
	PointerSize = 4

	// PointersPerSector is the number of [Sector] indexes an index sector holds.
	PointersPerSector = SectorSize / PointerSize
)

// Sector is the index of a sector on a [Device].
type Sector uint32

// Device is a synchronous block store. Transfers are always exactly one
// sector of [SectorSize] bytes and return only once the transfer completed.
type Device interface {
	ReadSector(sector Sector, buf []byte) error
	WriteSector(sector Sector, buf []byte) error
	NumSectors() int
}

func checkTransfer(sector Sector, buf []byte, numSectors int) error {
	if len(buf) != SectorSize {
		return fmt.Errorf("%w: %d bytes", ErrBadBuffer, len(buf))
	}

	if int64(sector) >= int64(numSectors) {
		return fmt.Errorf("%w: sector %d of %d", ErrOutOfRange, sector, numSectors)
	}

	return nil
}
