// Package header implements the file location index: the one-sector record
// holding a file's length and the roots of its tier-shaped sector index.
package header

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/desertwitch/nachosfs/internal/disk"
)

// Allocator hands out and takes back sectors. It is satisfied by the
// free-space bitmap.
type Allocator interface {
	AllocateOne() (disk.Sector, error)
	Release(sector disk.Sector)
}

type indexTable [fanout]disk.Sector

// Header is the in-memory form of a file header. Besides the scalars and
// roots stored in the header sector it owns every index table of its tier,
// so a loaded header maps each logical block without touching the disk.
type Header struct {
	numBytes   uint32
	numSectors uint32

	direct [NumDirect]disk.Sector
	single disk.Sector
	double disk.Sector
	triple [NumTriple]disk.Sector

	// TierSingle: the data pointers stored in the single root.
	singleData *indexTable

	// TierDouble: the leaf table sectors stored in the double root, and the
	// data pointers stored in each leaf table.
	doubleL1   *indexTable
	doubleData *[fanout]indexTable

	// TierTriple: per root, the second-level table sectors, the leaf table
	// sectors, and the data pointers stored in each leaf table.
	tripleL1   *[NumTriple]indexTable
	tripleL2   *[NumTriple][fanout]indexTable
	tripleData *[NumTriple][fanout][fanout]indexTable
}

// Length returns the file length in bytes.
func (h *Header) Length() int {
	return int(h.numBytes)
}

// SectorCount returns the number of data sectors.
func (h *Header) SectorCount() int {
	return int(h.numSectors)
}

// Tier returns the addressing tier of the file.
func (h *Header) Tier() Tier {
	return SizeToTier(int(h.numSectors))
}

// reset sizes the header for byteLength bytes and gives it fresh,
// tier-shaped index tables.
func (h *Header) reset(byteLength int) {
	*h = Header{
		numBytes:   uint32(byteLength), //nolint:gosec
		numSectors: uint32(SectorsFor(byteLength)), //nolint:gosec
	}

	switch h.Tier() {
	case TierSingle:
		h.singleData = new(indexTable)
	case TierDouble:
		h.doubleL1 = new(indexTable)
		h.doubleData = new([fanout]indexTable)
	case TierTriple:
		h.tripleL1 = new([NumTriple]indexTable)
		h.tripleL2 = new([NumTriple][fanout]indexTable)
		h.tripleData = new([NumTriple][fanout][fanout]indexTable)
	case TierInvalid, TierDirect:
	}
}

// AllocateStructure initializes the header for a new file of byteLength bytes
// and claims the sectors of its index structure. With reserveHeaderSector the
// header's own sector is claimed first and returned, otherwise the returned
// sector is zero and the caller owns a fixed header sector.
//
// On [ErrNoSpace] the sectors claimed so far stay claimed; releasing them is
// up to the caller.
func (h *Header) AllocateStructure(alloc Allocator, byteLength int, reserveHeaderSector bool) (disk.Sector, error) {
	if byteLength < 0 {
		return 0, fmt.Errorf("(hdr-alloc-struct) %w: %d", ErrInvalidSize, byteLength)
	}

	if byteLength > MaxFileSize {
		return 0, fmt.Errorf("(hdr-alloc-struct) %w: %d", ErrFileTooLarge, byteLength)
	}

	h.reset(byteLength)

	var hdrSector disk.Sector
	if reserveHeaderSector {
		s, err := claim(alloc)
		if err != nil {
			return 0, fmt.Errorf("(hdr-alloc-struct) header sector: %w", err)
		}
		hdrSector = s
	}

	if err := h.allocateIndex(alloc); err != nil {
		return 0, fmt.Errorf("(hdr-alloc-struct) %s index: %w", h.Tier(), err)
	}

	slog.Debug("Allocated file structure",
		"size", byteLength,
		"sectors", h.numSectors,
		"tier", h.Tier().String(),
		"structural", StructuralCount(h.Tier()),
	)

	return hdrSector, nil
}

// allocateIndex claims index sectors top-down: each table sector is claimed
// before the tables it points to.
func (h *Header) allocateIndex(alloc Allocator) error {
	var err error

	switch h.Tier() {
	case TierSingle:
		if h.single, err = claim(alloc); err != nil {
			return err
		}

	case TierDouble:
		if h.double, err = claim(alloc); err != nil {
			return err
		}
		for i := range fanout {
			if h.doubleL1[i], err = claim(alloc); err != nil {
				return err
			}
		}

	case TierTriple:
		for i := range NumTriple {
			if h.triple[i], err = claim(alloc); err != nil {
				return err
			}
			for j := range fanout {
				if h.tripleL1[i][j], err = claim(alloc); err != nil {
					return err
				}
				for k := range fanout {
					if h.tripleL2[i][j][k], err = claim(alloc); err != nil {
						return err
					}
				}
			}
		}

	case TierInvalid, TierDirect:
	}

	return nil
}

// AllocateData claims one data sector per logical block, in logical order.
// AllocateStructure must have run first. There is no internal rollback.
func (h *Header) AllocateData(alloc Allocator) error {
	for i := range int(h.numSectors) {
		s, err := claim(alloc)
		if err != nil {
			return fmt.Errorf("(hdr-alloc-data) block %d of %d: %w", i, h.numSectors, err)
		}
		*h.slot(i) = s
	}

	return nil
}

// Deallocate releases the data sectors of the file.
func (h *Header) Deallocate(alloc Allocator) {
	for i := range int(h.numSectors) {
		alloc.Release(*h.slot(i))
	}
}

// DeallocateStructure releases the index sectors and then the header sector.
// It must run after [Header.Deallocate], while the tables are still loaded.
func (h *Header) DeallocateStructure(alloc Allocator, hdrSector disk.Sector) {
	switch h.Tier() {
	case TierSingle:
		alloc.Release(h.single)

	case TierDouble:
		for i := range fanout {
			alloc.Release(h.doubleL1[i])
		}
		alloc.Release(h.double)

	case TierTriple:
		for i := range NumTriple {
			for j := range fanout {
				for k := range fanout {
					alloc.Release(h.tripleL2[i][j][k])
				}
				alloc.Release(h.tripleL1[i][j])
			}
			alloc.Release(h.triple[i])
		}

	case TierInvalid, TierDirect:
	}

	alloc.Release(hdrSector)
}

// LogicalToSector returns the physical sector of logical block i.
func (h *Header) LogicalToSector(i int) (disk.Sector, error) {
	if i < 0 || i >= int(h.numSectors) {
		return 0, fmt.Errorf("(hdr-logical) %w: %d of %d", ErrLogicalOutOfRange, i, h.numSectors)
	}

	return *h.slot(i), nil
}

// ByteToSector returns the physical sector holding the byte at offset.
func (h *Header) ByteToSector(offset int) (disk.Sector, error) {
	if offset < 0 {
		return 0, fmt.Errorf("(hdr-byte) %w: offset %d", ErrLogicalOutOfRange, offset)
	}

	return h.LogicalToSector(offset / disk.SectorSize)
}

// DataSectors lists the data sectors in logical order.
func (h *Header) DataSectors() []disk.Sector {
	sectors := make([]disk.Sector, 0, h.numSectors)
	for i := range int(h.numSectors) {
		sectors = append(sectors, *h.slot(i))
	}

	return sectors
}

// StructuralSectors lists the index sectors in allocation order.
func (h *Header) StructuralSectors() []disk.Sector {
	sectors := make([]disk.Sector, 0, StructuralCount(h.Tier()))

	switch h.Tier() {
	case TierSingle:
		sectors = append(sectors, h.single)

	case TierDouble:
		sectors = append(sectors, h.double)
		sectors = append(sectors, h.doubleL1[:]...)

	case TierTriple:
		for i := range NumTriple {
			sectors = append(sectors, h.triple[i])
			for j := range fanout {
				sectors = append(sectors, h.tripleL1[i][j])
				sectors = append(sectors, h.tripleL2[i][j][:]...)
			}
		}

	case TierInvalid, TierDirect:
	}

	return sectors
}

// Claimed lists every index and data sector of the file, excluding the
// header sector.
func (h *Header) Claimed() []disk.Sector {
	return append(h.StructuralSectors(), h.DataSectors()...)
}

// slot locates the pointer of logical block i inside the tier's tables. The
// decode is at most three divisions.
func (h *Header) slot(i int) *disk.Sector {
	switch h.Tier() {
	case TierSingle:
		return &h.singleData[i]

	case TierDouble:
		return &h.doubleData[i/fanout][i%fanout]

	case TierTriple:
		root := i / (fanout * fanout * fanout)
		mid := (i / (fanout * fanout)) % fanout
		low := (i / fanout) % fanout

		return &h.tripleData[root][mid][low][i%fanout]

	case TierInvalid, TierDirect:
	}

	return &h.direct[i]
}

func claim(alloc Allocator) (disk.Sector, error) {
	s, err := alloc.AllocateOne()
	if err != nil {
		if errors.Is(err, ErrNoSpace) {
			return 0, err
		}

		return 0, fmt.Errorf("%w: %w", ErrNoSpace, err)
	}

	return s, nil
}
