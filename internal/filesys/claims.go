package filesys

import (
	"slices"

	"github.com/desertwitch/nachosfs/internal/bitmap"
	"github.com/desertwitch/nachosfs/internal/disk"
)

// claimRecorder is a [header.Allocator] that remembers what it handed out,
// so that a failed creation can give every sector back.
type claimRecorder struct {
	bm      *bitmap.Bitmap
	claimed []disk.Sector
}

func (c *claimRecorder) AllocateOne() (disk.Sector, error) {
	s, err := c.bm.AllocateOne()
	if err != nil {
		return 0, err
	}

	c.claimed = append(c.claimed, s)

	return s, nil
}

func (c *claimRecorder) Release(sector disk.Sector) {
	c.bm.Release(sector)

	if i := slices.Index(c.claimed, sector); i >= 0 {
		c.claimed = slices.Delete(c.claimed, i, i+1)
	}
}

// rollback releases every recorded sector, newest first.
func (c *claimRecorder) rollback() int {
	n := len(c.claimed)

	for _, s := range slices.Backward(c.claimed) {
		c.bm.Release(s)
	}
	c.claimed = nil

	return n
}
