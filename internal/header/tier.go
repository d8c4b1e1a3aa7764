package header

import (
	"github.com/desertwitch/nachosfs/internal/disk"
)

// Tier is the addressing scheme of a file. It is chosen once from the file's
// sector count and applies to every logical block of the file.
type Tier int

const (
	TierInvalid Tier = iota
	TierDirect
	TierSingle
	TierDouble
	TierTriple
)

const (
	// NumDirect is the number of inline data pointers of a [TierDirect] file.
	NumDirect = 9

	// NumTriple is the number of triple-indirect roots of a [TierTriple] file.
	NumTriple = 16

	fanout = disk.PointersPerSector

	MaxDirectSectors = NumDirect
	MaxSingleSectors = fanout
	MaxDoubleSectors = fanout * fanout
	MaxTripleSectors = NumTriple * fanout * fanout * fanout

	// MaxFileSize is the largest file length in bytes (64 MiB).
	MaxFileSize = MaxTripleSectors * disk.SectorSize
)

func (t Tier) String() string {
	switch t {
	case TierDirect:
		return "direct"
	case TierSingle:
		return "single-indirect"
	case TierDouble:
		return "double-indirect"
	case TierTriple:
		return "triple-indirect"
	case TierInvalid:
		return "invalid"
	default:
		return "invalid"
	}
}

// SizeToTier maps a data sector count onto its [Tier]. Empty files are
// [TierDirect]; counts beyond [MaxTripleSectors] are [TierInvalid].
func SizeToTier(sectorCount int) Tier {
	switch {
	case sectorCount < 0:
		return TierInvalid
	case sectorCount <= MaxDirectSectors:
		return TierDirect
	case sectorCount <= MaxSingleSectors:
		return TierSingle
	case sectorCount <= MaxDoubleSectors:
		return TierDouble
	case sectorCount <= MaxTripleSectors:
		return TierTriple
	default:
		return TierInvalid
	}
}

// StructuralCount is the number of index sectors a file of the given tier
// owns, not counting its header sector.
func StructuralCount(t Tier) int {
	switch t {
	case TierSingle:
		return 1
	case TierDouble:
		return 1 + fanout
	case TierTriple:
		return NumTriple * (1 + fanout + fanout*fanout)
	case TierInvalid, TierDirect:
		return 0
	default:
		return 0
	}
}

// SectorsFor returns the number of data sectors needed for byteLength bytes.
func SectorsFor(byteLength int) int {
	return (byteLength + disk.SectorSize - 1) / disk.SectorSize
}
