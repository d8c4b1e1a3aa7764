// Package filesys implements the file system manager: it formats and mounts
// volumes, resolves paths and composes the bitmap, file headers and
// directories into create, open, remove and list operations.
package filesys

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/desertwitch/nachosfs/internal/bitmap"
	"github.com/desertwitch/nachosfs/internal/directory"
	"github.com/desertwitch/nachosfs/internal/disk"
	"github.com/desertwitch/nachosfs/internal/header"
	"github.com/desertwitch/nachosfs/internal/openfile"
)

const (
	// FreeMapSector holds the header of the free-space bitmap file.
	FreeMapSector disk.Sector = 0

	// RootSector holds the header of the root directory file.
	RootSector disk.Sector = 1

	// MaxPathLen is the longest accepted path in bytes.
	MaxPathLen = 255

	// MaxPathDepth is the largest number of names in a path.
	MaxPathDepth = 9

	DefaultNumDirEntries = 64
	DefaultMaxOpenFiles  = 20
)

// Geometry sizes the tables of a volume. The sector count is a property of
// the device.
type Geometry struct {
	NumDirEntries int
	MaxOpenFiles  int
}

// DefaultGeometry returns the stock table sizes.
func DefaultGeometry() Geometry {
	return Geometry{
		NumDirEntries: DefaultNumDirEntries,
		MaxOpenFiles:  DefaultMaxOpenFiles,
	}
}

func (g Geometry) validate() error {
	if g.NumDirEntries <= 0 || g.MaxOpenFiles <= 0 {
		return fmt.Errorf("%w: %d entries, %d open files", ErrInvalidGeometry, g.NumDirEntries, g.MaxOpenFiles)
	}

	if directory.FileSize(g.NumDirEntries) > header.MaxFileSize {
		return fmt.Errorf("%w: %d entries exceed the largest file", ErrInvalidGeometry, g.NumDirEntries)
	}

	return nil
}

// Manager is a mounted volume. It holds the bitmap and root directory files
// open for its lifetime; every other structure is loaded per call. A Manager
// is not safe for concurrent use.
type Manager struct {
	dev      disk.Device
	geometry Geometry

	freeMapFile *openfile.Handle
	rootFile    *openfile.Handle

	openFiles []*openfile.Handle
}

func newManager(dev disk.Device, geometry Geometry, freeMapFile, rootFile *openfile.Handle) *Manager {
	return &Manager{
		dev:         dev,
		geometry:    geometry,
		freeMapFile: freeMapFile,
		rootFile:    rootFile,
		openFiles:   make([]*openfile.Handle, geometry.MaxOpenFiles),
	}
}

// Format writes an empty volume onto dev: a bitmap with sectors 0 and 1
// claimed plus the sectors of the bitmap and root directory files, and an
// empty root directory.
func Format(dev disk.Device, geometry Geometry) (*Manager, error) {
	if err := geometry.validate(); err != nil {
		return nil, fmt.Errorf("(fs-format) %w", err)
	}

	bm := bitmap.New(dev.NumSectors())
	bm.Mark(FreeMapSector)
	bm.Mark(RootSector)

	mapHdr := &header.Header{}
	if err := allocateFile(mapHdr, bm, bitmap.FileSize(dev.NumSectors())); err != nil {
		return nil, fmt.Errorf("(fs-format) bitmap file: %w", err)
	}

	dirHdr := &header.Header{}
	if err := allocateFile(dirHdr, bm, directory.FileSize(geometry.NumDirEntries)); err != nil {
		return nil, fmt.Errorf("(fs-format) root directory file: %w", err)
	}

	if err := mapHdr.Store(dev, FreeMapSector); err != nil {
		return nil, fmt.Errorf("(fs-format) bitmap header: %w", err)
	}

	if err := dirHdr.Store(dev, RootSector); err != nil {
		return nil, fmt.Errorf("(fs-format) root directory header: %w", err)
	}

	m := newManager(dev, geometry,
		openfile.New(dev, mapHdr, FreeMapSector),
		openfile.New(dev, dirHdr, RootSector),
	)

	if err := bm.WriteBack(m.freeMapFile); err != nil {
		return nil, fmt.Errorf("(fs-format) bitmap: %w", err)
	}

	if err := directory.New(geometry.NumDirEntries).WriteBack(m.rootFile); err != nil {
		return nil, fmt.Errorf("(fs-format) root directory: %w", err)
	}

	slog.Info("Formatted volume",
		"sectors", dev.NumSectors(),
		"free", bm.CountFree(),
		"entries", geometry.NumDirEntries,
	)

	return m, nil
}

// Mount opens the volume on a formatted device. The directory size of new
// directories follows the root directory on disk.
func Mount(dev disk.Device, geometry Geometry) (*Manager, error) {
	if err := geometry.validate(); err != nil {
		return nil, fmt.Errorf("(fs-mount) %w", err)
	}

	freeMapFile, err := openfile.Open(dev, FreeMapSector)
	if err != nil {
		return nil, fmt.Errorf("(fs-mount) %w: bitmap header: %w", ErrNotFormatted, err)
	}

	if freeMapFile.Length() != int64(bitmap.FileSize(dev.NumSectors())) {
		return nil, fmt.Errorf("(fs-mount) %w: bitmap file is %d bytes for %d sectors",
			ErrNotFormatted, freeMapFile.Length(), dev.NumSectors())
	}

	rootFile, err := openfile.Open(dev, RootSector)
	if err != nil {
		return nil, fmt.Errorf("(fs-mount) %w: root header: %w", ErrNotFormatted, err)
	}

	if rootFile.Length() == 0 || rootFile.Length()%directory.EntrySize != 0 {
		return nil, fmt.Errorf("(fs-mount) %w: root directory is %d bytes", ErrNotFormatted, rootFile.Length())
	}

	if entries := int(rootFile.Length() / directory.EntrySize); entries != geometry.NumDirEntries {
		slog.Warn("Directory size on disk differs from configuration (using disk)",
			"disk", entries,
			"config", geometry.NumDirEntries,
		)
		geometry.NumDirEntries = entries
	}

	m := newManager(dev, geometry, freeMapFile, rootFile)

	slog.Info("Mounted volume",
		"sectors", dev.NumSectors(),
		"entries", geometry.NumDirEntries,
	)

	return m, nil
}

// Geometry returns the table sizes in effect.
func (m *Manager) Geometry() Geometry {
	return m.geometry
}

// NumSectors returns the size of the volume in sectors.
func (m *Manager) NumSectors() int {
	return m.dev.NumSectors()
}

// CountFree returns the number of unallocated sectors.
func (m *Manager) CountFree() (int, error) {
	bm, err := m.loadBitmap()
	if err != nil {
		return 0, fmt.Errorf("(fs-countfree) %w", err)
	}

	return bm.CountFree(), nil
}

func (m *Manager) loadBitmap() (*bitmap.Bitmap, error) {
	bm := bitmap.New(m.dev.NumSectors())

	if err := bm.FetchFrom(m.freeMapFile); err != nil {
		return nil, fmt.Errorf("bitmap: %w", err)
	}

	return bm, nil
}

func (m *Manager) loadDirectory(sector disk.Sector) (*directory.Directory, *openfile.Handle, error) {
	if sector != RootSector {
		return directory.Open(m.dev, sector)
	}

	d := directory.New(int(m.rootFile.Length() / directory.EntrySize))
	if err := d.FetchFrom(m.rootFile); err != nil {
		return nil, nil, fmt.Errorf("root directory: %w", err)
	}

	return d, m.rootFile, nil
}

func allocateFile(hdr *header.Header, alloc header.Allocator, size int) error {
	if _, err := hdr.AllocateStructure(alloc, size, false); err != nil {
		return err
	}

	return hdr.AllocateData(alloc)
}

func isNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
