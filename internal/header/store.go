package header

import (
	"encoding/binary"
	"fmt"

	"github.com/desertwitch/nachosfs/internal/disk"
)

// Header sector layout, little-endian 32-bit words:
// byteLength, sectorCount, direct[9], single, double, triple[16].
const (
	wordSize    = 4
	offBytes    = 0
	offSectors  = offBytes + wordSize
	offDirect   = offSectors + wordSize
	offSingle   = offDirect + NumDirect*wordSize
	offDouble   = offSingle + wordSize
	offTriple   = offDouble + wordSize
	encodedSize = offTriple + NumTriple*wordSize
)

var _ = [disk.SectorSize - encodedSize]struct{}{} // header must fit one sector

// Store writes the index tables bottom-up and then the header sector, so a
// table is always on disk before anything points at it.
func (h *Header) Store(dev disk.Device, sector disk.Sector) error {
	if err := h.storeIndex(dev); err != nil {
		return fmt.Errorf("(hdr-store) %s index: %w", h.Tier(), err)
	}

	buf := make([]byte, disk.SectorSize)
	h.encode(buf)

	if err := dev.WriteSector(sector, buf); err != nil {
		return fmt.Errorf("(hdr-store) header sector %d: %w", sector, err)
	}

	return nil
}

func (h *Header) storeIndex(dev disk.Device) error {
	switch h.Tier() {
	case TierSingle:
		return writeTable(dev, h.single, h.singleData)

	case TierDouble:
		for i := range fanout {
			if err := writeTable(dev, h.doubleL1[i], &h.doubleData[i]); err != nil {
				return err
			}
		}

		return writeTable(dev, h.double, h.doubleL1)

	case TierTriple:
		for i := range NumTriple {
			for j := range fanout {
				for k := range fanout {
					if err := writeTable(dev, h.tripleL2[i][j][k], &h.tripleData[i][j][k]); err != nil {
						return err
					}
				}
				if err := writeTable(dev, h.tripleL1[i][j], &h.tripleL2[i][j]); err != nil {
					return err
				}
			}
			if err := writeTable(dev, h.triple[i], &h.tripleL1[i]); err != nil {
				return err
			}
		}

	case TierInvalid, TierDirect:
	}

	return nil
}

// Load reads the header sector and then every index table of its tier.
func (h *Header) Load(dev disk.Device, sector disk.Sector) error {
	buf := make([]byte, disk.SectorSize)

	if err := dev.ReadSector(sector, buf); err != nil {
		return fmt.Errorf("(hdr-load) header sector %d: %w", sector, err)
	}

	numBytes := binary.LittleEndian.Uint32(buf[offBytes:])
	numSectors := binary.LittleEndian.Uint32(buf[offSectors:])

	if numBytes > MaxFileSize || int(numSectors) != SectorsFor(int(numBytes)) {
		return fmt.Errorf("(hdr-load) %w: sector %d holds %d bytes in %d sectors", ErrCorrupt, sector, numBytes, numSectors)
	}

	h.reset(int(numBytes))
	h.decode(buf)

	if err := h.loadIndex(dev); err != nil {
		return fmt.Errorf("(hdr-load) %s index: %w", h.Tier(), err)
	}

	return nil
}

func (h *Header) loadIndex(dev disk.Device) error {
	switch h.Tier() {
	case TierSingle:
		return readTable(dev, h.single, h.singleData)

	case TierDouble:
		if err := readTable(dev, h.double, h.doubleL1); err != nil {
			return err
		}
		for i := range fanout {
			if err := readTable(dev, h.doubleL1[i], &h.doubleData[i]); err != nil {
				return err
			}
		}

	case TierTriple:
		for i := range NumTriple {
			if err := readTable(dev, h.triple[i], &h.tripleL1[i]); err != nil {
				return err
			}
			for j := range fanout {
				if err := readTable(dev, h.tripleL1[i][j], &h.tripleL2[i][j]); err != nil {
					return err
				}
				for k := range fanout {
					if err := readTable(dev, h.tripleL2[i][j][k], &h.tripleData[i][j][k]); err != nil {
						return err
					}
				}
			}
		}

	case TierInvalid, TierDirect:
	}

	return nil
}

func (h *Header) encode(buf []byte) {
	clear(buf)

	binary.LittleEndian.PutUint32(buf[offBytes:], h.numBytes)
	binary.LittleEndian.PutUint32(buf[offSectors:], h.numSectors)

	for i, s := range h.direct {
		binary.LittleEndian.PutUint32(buf[offDirect+i*wordSize:], uint32(s))
	}

	binary.LittleEndian.PutUint32(buf[offSingle:], uint32(h.single))
	binary.LittleEndian.PutUint32(buf[offDouble:], uint32(h.double))

	for i, s := range h.triple {
		binary.LittleEndian.PutUint32(buf[offTriple+i*wordSize:], uint32(s))
	}
}

func (h *Header) decode(buf []byte) {
	for i := range h.direct {
		h.direct[i] = disk.Sector(binary.LittleEndian.Uint32(buf[offDirect+i*wordSize:]))
	}

	h.single = disk.Sector(binary.LittleEndian.Uint32(buf[offSingle:]))
	h.double = disk.Sector(binary.LittleEndian.Uint32(buf[offDouble:]))

	for i := range h.triple {
		h.triple[i] = disk.Sector(binary.LittleEndian.Uint32(buf[offTriple+i*wordSize:]))
	}
}

func writeTable(dev disk.Device, sector disk.Sector, table *indexTable) error {
	buf := make([]byte, disk.SectorSize)
	for i, s := range table {
		binary.LittleEndian.PutUint32(buf[i*wordSize:], uint32(s))
	}

	if err := dev.WriteSector(sector, buf); err != nil {
		return fmt.Errorf("index sector %d: %w", sector, err)
	}

	return nil
}

func readTable(dev disk.Device, sector disk.Sector, table *indexTable) error {
	buf := make([]byte, disk.SectorSize)

	if err := dev.ReadSector(sector, buf); err != nil {
		return fmt.Errorf("index sector %d: %w", sector, err)
	}

	for i := range table {
		table[i] = disk.Sector(binary.LittleEndian.Uint32(buf[i*wordSize:]))
	}

	return nil
}
