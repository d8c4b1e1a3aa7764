// Package bitmap implements the persistent free-space bitmap, one bit per
// device sector.
package bitmap

import (
	"errors"
	"fmt"
	"io"
	"math/bits"

	"github.com/desertwitch/nachosfs/internal/disk"
)

const bitsPerByte = 8

// Bitmap tracks sector allocation. A set bit marks an allocated sector.
type Bitmap struct {
	bytes   []byte
	numBits int
}

// New returns a [Bitmap] of numBits clear bits.
func New(numBits int) *Bitmap {
	return &Bitmap{
		bytes:   make([]byte, FileSize(numBits)),
		numBits: numBits,
	}
}

// FileSize is the number of bytes a bitmap of numBits occupies on disk.
func FileSize(numBits int) int {
	return (numBits + bitsPerByte - 1) / bitsPerByte
}

// Len returns the number of tracked sectors.
func (bm *Bitmap) Len() int {
	return bm.numBits
}

// AllocateOne claims the lowest-numbered free sector.
func (bm *Bitmap) AllocateOne() (disk.Sector, error) {
	for i, b := range bm.bytes {
		if b == 0xFF {
			continue
		}

		which := i*bitsPerByte + bits.TrailingZeros8(^b)
		if which >= bm.numBits {
			break
		}

		bm.bytes[i] |= 1 << (which % bitsPerByte)

		return disk.Sector(which), nil
	}

	return 0, ErrNoSpace
}

// Mark claims a specific sector. Claiming an allocated sector is a
// consistency violation and panics.
func (bm *Bitmap) Mark(sector disk.Sector) {
	bm.check(sector)

	if bm.Test(sector) {
		panic(fmt.Errorf("(bitmap-mark) %w: sector %d already allocated", ErrConsistencyViolation, sector))
	}

	bm.bytes[sector/bitsPerByte] |= 1 << (sector % bitsPerByte)
}

// Release frees an allocated sector. Releasing a free sector is a
// consistency violation and panics.
func (bm *Bitmap) Release(sector disk.Sector) {
	bm.check(sector)

	if !bm.Test(sector) {
		panic(fmt.Errorf("(bitmap-release) %w: sector %d is not allocated", ErrConsistencyViolation, sector))
	}

	bm.bytes[sector/bitsPerByte] &^= 1 << (sector % bitsPerByte)
}

// Test reports whether a sector is allocated.
func (bm *Bitmap) Test(sector disk.Sector) bool {
	bm.check(sector)

	return bm.bytes[sector/bitsPerByte]&(1<<(sector%bitsPerByte)) != 0
}

// CountFree returns the number of free sectors.
func (bm *Bitmap) CountFree() int {
	used := 0
	for _, b := range bm.bytes {
		used += bits.OnesCount8(b)
	}

	return bm.numBits - used
}

// Allocated lists every allocated sector in ascending order.
func (bm *Bitmap) Allocated() []disk.Sector {
	sectors := []disk.Sector{}

	for i := range bm.numBits {
		if bm.bytes[i/bitsPerByte]&(1<<(i%bitsPerByte)) != 0 {
			sectors = append(sectors, disk.Sector(i))
		}
	}

	return sectors
}

// FetchFrom loads the bitmap from the start of its backing file.
func (bm *Bitmap) FetchFrom(r io.ReaderAt) error {
	n, err := r.ReadAt(bm.bytes, 0)
	if err != nil && !(errors.Is(err, io.EOF) && n == len(bm.bytes)) {
		return fmt.Errorf("(bitmap-fetch) %w", err)
	}

	return nil
}

// WriteBack stores the bitmap at the start of its backing file.
func (bm *Bitmap) WriteBack(w io.WriterAt) error {
	if _, err := w.WriteAt(bm.bytes, 0); err != nil {
		return fmt.Errorf("(bitmap-writeback) %w", err)
	}

	return nil
}

func (bm *Bitmap) check(sector disk.Sector) {
	if int64(sector) >= int64(bm.numBits) {
		panic(fmt.Errorf("(bitmap) %w: sector %d of %d", ErrConsistencyViolation, sector, bm.numBits))
	}
}
