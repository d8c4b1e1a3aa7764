package disk

import (
	"fmt"
)

// MemoryDisk is a [Device] backed by a byte slice.
type MemoryDisk struct {
	data []byte
}

// NewMemoryDisk returns a zeroed [MemoryDisk] of numSectors sectors.
func NewMemoryDisk(numSectors int) (*MemoryDisk, error) {
	if numSectors <= 0 {
		return nil, fmt.Errorf("(disk-mem) %w: %d sectors", ErrInvalidGeometry, numSectors)
	}

	return &MemoryDisk{data: make([]byte, numSectors*SectorSize)}, nil
}

func (d *MemoryDisk) ReadSector(sector Sector, buf []byte) error {
	if err := checkTransfer(sector, buf, d.NumSectors()); err != nil {
		return fmt.Errorf("(disk-mem-read) %w", err)
	}

	off := int(sector) * SectorSize
	copy(buf, d.data[off:off+SectorSize])

	return nil
}

func (d *MemoryDisk) WriteSector(sector Sector, buf []byte) error {
	if err := checkTransfer(sector, buf, d.NumSectors()); err != nil {
		return fmt.Errorf("(disk-mem-write) %w", err)
	}

	off := int(sector) * SectorSize
	copy(d.data[off:off+SectorSize], buf)

	return nil
}

func (d *MemoryDisk) NumSectors() int {
	return len(d.data) / SectorSize
}

// Bytes exposes the raw device contents.
func (d *MemoryDisk) Bytes() []byte {
	return d.data
}
