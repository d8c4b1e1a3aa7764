package header

import (
	"fmt"
	"io"
	"strings"

	"github.com/desertwitch/nachosfs/internal/disk"
)

const (
	printableLow  = 0x20
	printableHigh = 0x7E
)

// Print writes a human-readable dump of the header: its length, tier, data
// sector numbers and the file contents. Printable bytes are written as-is,
// all others as \<hex>.
func (h *Header) Print(w io.Writer, dev disk.Device) error {
	var sb strings.Builder

	fmt.Fprintf(&sb, "FileHeader contents. File size: %d. Tier: %s. File blocks:\n", h.numBytes, h.Tier())

	for _, s := range h.DataSectors() {
		fmt.Fprintf(&sb, "%d ", s)
	}
	sb.WriteString("\nFile contents:\n")

	buf := make([]byte, disk.SectorSize)
	remaining := int(h.numBytes)

	for i, s := range h.DataSectors() {
		if err := dev.ReadSector(s, buf); err != nil {
			return fmt.Errorf("(hdr-print) block %d: %w", i, err)
		}

		n := min(remaining, disk.SectorSize)
		for _, c := range buf[:n] {
			if c >= printableLow && c <= printableHigh {
				sb.WriteByte(c)
			} else {
				fmt.Fprintf(&sb, "\\%x", c)
			}
		}
		sb.WriteByte('\n')

		remaining -= n
	}

	if _, err := io.WriteString(w, sb.String()); err != nil {
		return fmt.Errorf("(hdr-print) %w", err)
	}

	return nil
}
