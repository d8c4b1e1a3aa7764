package disk

import (
	"sync/atomic"
)

// Counter is a [Device] decorator that counts completed transfers.
type Counter struct {
	Device

	reads  atomic.Uint64
	writes atomic.Uint64
}

// Stats is a snapshot of a [Counter].
type Stats struct {
	Reads        uint64
	Writes       uint64
	BytesRead    uint64
	BytesWritten uint64
}

func NewCounter(dev Device) *Counter {
	return &Counter{Device: dev}
}

func (c *Counter) ReadSector(sector Sector, buf []byte) error {
	if err := c.Device.ReadSector(sector, buf); err != nil {
		return err //nolint:wrapcheck
	}
	c.reads.Add(1)

	return nil
}

func (c *Counter) WriteSector(sector Sector, buf []byte) error {
	if err := c.Device.WriteSector(sector, buf); err != nil {
		return err //nolint:wrapcheck
	}
	c.writes.Add(1)

	return nil
}

// Stats returns the transfers counted so far.
func (c *Counter) Stats() Stats {
	reads := c.reads.Load()
	writes := c.writes.Load()

	return Stats{
		Reads:        reads,
		Writes:       writes,
		BytesRead:    reads * SectorSize,
		BytesWritten: writes * SectorSize,
	}
}

// Reset zeroes the counters.
func (c *Counter) Reset() {
	c.reads.Store(0)
	c.writes.Store(0)
}
