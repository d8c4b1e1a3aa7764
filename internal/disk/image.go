package disk

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"golang.org/x/sys/unix"
)

// ImageDisk is a [Device] backed by a disk image on the host file system.
// The image is held under an exclusive advisory lock for as long as it is
// open, which serializes independent processes working on the same image.
type ImageDisk struct {
	file       *os.File
	numSectors int
}

// CreateImage creates (or truncates) an image of numSectors zeroed sectors and
// opens it.
func CreateImage(path string, numSectors int) (*ImageDisk, error) {
	if numSectors <= 0 {
		return nil, fmt.Errorf("(disk-image-create) %w: %d sectors", ErrInvalidGeometry, numSectors)
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644) //nolint:mnd
	if err != nil {
		return nil, fmt.Errorf("(disk-image-create) failed to open: %w", err)
	}

	if err := lockImage(f); err != nil {
		f.Close()

		return nil, fmt.Errorf("(disk-image-create) %w", err)
	}

	if err := f.Truncate(0); err != nil {
		f.Close()

		return nil, fmt.Errorf("(disk-image-create) failed to truncate: %w", err)
	}

	if err := f.Truncate(int64(numSectors) * SectorSize); err != nil {
		f.Close()

		return nil, fmt.Errorf("(disk-image-create) failed to size: %w", err)
	}

	slog.Debug("Created disk image",
		"path", path,
		"sectors", numSectors,
	)

	return &ImageDisk{file: f, numSectors: numSectors}, nil
}

// OpenImage opens an existing image. Its size determines the sector count.
func OpenImage(path string) (*ImageDisk, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("(disk-image-open) failed to open: %w", err)
	}

	if err := lockImage(f); err != nil {
		f.Close()

		return nil, fmt.Errorf("(disk-image-open) %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()

		return nil, fmt.Errorf("(disk-image-open) failed to stat: %w", err)
	}

	if info.Size() == 0 || info.Size()%SectorSize != 0 {
		f.Close()

		return nil, fmt.Errorf("(disk-image-open) %w: %d bytes", ErrImageSize, info.Size())
	}

	return &ImageDisk{file: f, numSectors: int(info.Size() / SectorSize)}, nil
}

func lockImage(f *os.File) error {
	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		if errors.Is(err, unix.EWOULDBLOCK) {
			return ErrImageLocked
		}

		return fmt.Errorf("failed to lock: %w", err)
	}

	return nil
}

func (d *ImageDisk) ReadSector(sector Sector, buf []byte) error {
	if err := checkTransfer(sector, buf, d.numSectors); err != nil {
		return fmt.Errorf("(disk-image-read) %w", err)
	}

	if _, err := d.file.ReadAt(buf, int64(sector)*SectorSize); err != nil {
		return fmt.Errorf("(disk-image-read) sector %d: %w", sector, err)
	}

	return nil
}

func (d *ImageDisk) WriteSector(sector Sector, buf []byte) error {
	if err := checkTransfer(sector, buf, d.numSectors); err != nil {
		return fmt.Errorf("(disk-image-write) %w", err)
	}

	if _, err := d.file.WriteAt(buf, int64(sector)*SectorSize); err != nil {
		return fmt.Errorf("(disk-image-write) sector %d: %w", sector, err)
	}

	return nil
}

func (d *ImageDisk) NumSectors() int {
	return d.numSectors
}

// Close flushes the image to stable storage and releases the lock.
func (d *ImageDisk) Close() error {
	if err := unix.Fsync(int(d.file.Fd())); err != nil {
		d.file.Close()

		return fmt.Errorf("(disk-image-close) failed to sync: %w", err)
	}

	if err := d.file.Close(); err != nil {
		return fmt.Errorf("(disk-image-close) %w", err)
	}

	return nil
}
