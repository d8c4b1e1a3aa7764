// Package openfile implements the transient handle through which a file's
// bytes are read and written.
package openfile

import (
	"fmt"
	"io"

	"github.com/desertwitch/nachosfs/internal/disk"
	"github.com/desertwitch/nachosfs/internal/header"
)

// Handle is an open file: a loaded [header.Header] plus a cursor. Transfers
// are clamped to the file length, files never grow. A Handle is not safe for
// concurrent use.
type Handle struct {
	dev    disk.Device
	hdr    *header.Header
	sector disk.Sector
	pos    int64
}

// New wraps an already loaded header stored at sector.
func New(dev disk.Device, hdr *header.Header, sector disk.Sector) *Handle {
	return &Handle{
		dev:    dev,
		hdr:    hdr,
		sector: sector,
	}
}

// Open loads the header stored at sector.
func Open(dev disk.Device, sector disk.Sector) (*Handle, error) {
	hdr := &header.Header{}

	if err := hdr.Load(dev, sector); err != nil {
		return nil, fmt.Errorf("(openfile-open) %w", err)
	}

	return New(dev, hdr, sector), nil
}

// Length returns the file length in bytes.
func (f *Handle) Length() int64 {
	return int64(f.hdr.Length())
}

// Header returns the loaded file header.
func (f *Handle) Header() *header.Header {
	return f.hdr
}

// Sector returns the header sector of the file.
func (f *Handle) Sector() disk.Sector {
	return f.sector
}

// ReadAt implements [io.ReaderAt]. Reads past the end of the file are cut
// short and return [io.EOF].
func (f *Handle) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, fmt.Errorf("(openfile-readat) %w: %d", ErrNegativeOffset, off)
	}

	if off >= f.Length() {
		return 0, io.EOF
	}

	n := int(min(int64(len(p)), f.Length()-off))

	if err := f.transfer(p[:n], off, false); err != nil {
		return 0, fmt.Errorf("(openfile-readat) %w", err)
	}

	if n < len(p) {
		return n, io.EOF
	}

	return n, nil
}

// WriteAt implements [io.WriterAt]. Writes reaching past the end of the file
// are cut short and return [io.ErrShortWrite].
func (f *Handle) WriteAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, fmt.Errorf("(openfile-writeat) %w: %d", ErrNegativeOffset, off)
	}

	if off > f.Length() || (off == f.Length() && len(p) > 0) {
		return 0, fmt.Errorf("(openfile-writeat) %w: %d of %d", ErrBeyondEnd, off, f.Length())
	}

	n := int(min(int64(len(p)), f.Length()-off))

	if err := f.transfer(p[:n], off, true); err != nil {
		return 0, fmt.Errorf("(openfile-writeat) %w", err)
	}

	if n < len(p) {
		return n, io.ErrShortWrite
	}

	return n, nil
}

// Read implements [io.Reader] from the cursor.
func (f *Handle) Read(p []byte) (int, error) {
	n, err := f.ReadAt(p, f.pos)
	f.pos += int64(n)

	return n, err
}

// Write implements [io.Writer] at the cursor.
func (f *Handle) Write(p []byte) (int, error) {
	n, err := f.WriteAt(p, f.pos)
	f.pos += int64(n)

	return n, err
}

// Seek implements [io.Seeker]. The cursor may not go below zero but may be
// placed past the end of the file.
func (f *Handle) Seek(offset int64, whence int) (int64, error) {
	var abs int64

	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = f.pos + offset
	case io.SeekEnd:
		abs = f.Length() + offset
	default:
		return f.pos, fmt.Errorf("(openfile-seek) %w: %d", ErrInvalidWhence, whence)
	}

	if abs < 0 {
		return f.pos, fmt.Errorf("(openfile-seek) %w: %d", ErrNegativeOffset, abs)
	}

	f.pos = abs

	return abs, nil
}

// transfer moves p to or from the file at off, which must lie within the
// file. Partial sectors are read, patched and written back.
func (f *Handle) transfer(p []byte, off int64, write bool) error {
	buf := make([]byte, disk.SectorSize)

	for done := 0; done < len(p); {
		pos := int(off) + done
		within := pos % disk.SectorSize
		chunk := min(disk.SectorSize-within, len(p)-done)

		sector, err := f.hdr.ByteToSector(pos)
		if err != nil {
			return err
		}

		if !write || chunk < disk.SectorSize {
			if err := f.dev.ReadSector(sector, buf); err != nil {
				return err
			}
		}

		if !write {
			copy(p[done:done+chunk], buf[within:])
		} else {
			copy(buf[within:], p[done:done+chunk])
			if err := f.dev.WriteSector(sector, buf); err != nil {
				return err
			}
		}

		done += chunk
	}

	return nil
}
