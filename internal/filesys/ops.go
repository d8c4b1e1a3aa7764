package filesys

import (
	"fmt"
	"log/slog"

	"github.com/desertwitch/nachosfs/internal/directory"
	"github.com/desertwitch/nachosfs/internal/header"
	"github.com/desertwitch/nachosfs/internal/openfile"
)

// Create makes a new file of size bytes, or an empty directory, at path.
// Directories are always sized to hold the volume's number of entries.
//
// If anything fails before the first write, every sector claimed for the new
// file is released again and the volume is left untouched.
func (m *Manager) Create(path string, size int, kind directory.Kind) error {
	parentSector, leaf, err := m.ResolvePath(path)
	if err != nil {
		return fmt.Errorf("(fs-create) %w", err)
	}

	if leaf == "" {
		return fmt.Errorf("(fs-create) %w: %q", ErrAlreadyExists, path)
	}

	if kind == directory.KindDirectory {
		size = directory.FileSize(m.geometry.NumDirEntries)
	}

	parent, parentFile, err := m.loadDirectory(parentSector)
	if err != nil {
		return fmt.Errorf("(fs-create) parent of %q: %w", path, err)
	}

	if _, err := parent.Find(leaf); !isNotFound(err) {
		return fmt.Errorf("(fs-create) %w: %q", ErrAlreadyExists, path)
	}

	bm, err := m.loadBitmap()
	if err != nil {
		return fmt.Errorf("(fs-create) %w", err)
	}

	rec := &claimRecorder{bm: bm}
	hdr := &header.Header{}

	hdrSector, err := hdr.AllocateStructure(rec, size, true)
	if err == nil {
		err = parent.Add(leaf, hdrSector, kind)
	}
	if err == nil {
		err = hdr.AllocateData(rec)
	}
	if err != nil {
		released := rec.rollback()
		slog.Warn("Failed to create file (released claimed sectors)",
			"path", path,
			"size", size,
			"released", released,
			"err", err,
		)

		return fmt.Errorf("(fs-create) %q: %w", path, err)
	}

	if kind == directory.KindDirectory {
		if err := directory.New(m.geometry.NumDirEntries).WriteBack(openfile.New(m.dev, hdr, hdrSector)); err != nil {
			return fmt.Errorf("(fs-create) %q: directory content: %w", path, err)
		}
	}

	if err := hdr.Store(m.dev, hdrSector); err != nil {
		return fmt.Errorf("(fs-create) %q: %w", path, err)
	}

	if err := parent.WriteBack(parentFile); err != nil {
		return fmt.Errorf("(fs-create) %q: parent directory: %w", path, err)
	}

	if err := bm.WriteBack(m.freeMapFile); err != nil {
		return fmt.Errorf("(fs-create) %q: %w", path, err)
	}

	slog.Debug("Created file",
		"path", path,
		"kind", kind.String(),
		"size", size,
		"tier", hdr.Tier().String(),
		"sector", hdrSector,
	)

	return nil
}

// Open returns a handle on the file or directory at path. A path ending in
// "/" opens the directory it names.
func (m *Manager) Open(path string) (*openfile.Handle, error) {
	parentSector, leaf, err := m.ResolvePath(path)
	if err != nil {
		return nil, fmt.Errorf("(fs-open) %w", err)
	}

	sector := parentSector

	if leaf != "" {
		parent, _, err := m.loadDirectory(parentSector)
		if err != nil {
			return nil, fmt.Errorf("(fs-open) parent of %q: %w", path, err)
		}

		if sector, err = parent.Find(leaf); err != nil {
			return nil, fmt.Errorf("(fs-open) %w", err)
		}
	}

	f, err := openfile.Open(m.dev, sector)
	if err != nil {
		return nil, fmt.Errorf("(fs-open) %q: %w", path, err)
	}

	return f, nil
}

// Remove deletes the file or empty directory at path: its data, index and
// header sectors go back to the bitmap and its entry leaves the parent.
func (m *Manager) Remove(path string) error {
	parentSector, leaf, err := m.ResolvePath(path)
	if err != nil {
		return fmt.Errorf("(fs-remove) %w", err)
	}

	if leaf == "" {
		return fmt.Errorf("(fs-remove) %w: %q names a directory, not an entry", ErrMalformed, path)
	}

	parent, parentFile, err := m.loadDirectory(parentSector)
	if err != nil {
		return fmt.Errorf("(fs-remove) parent of %q: %w", path, err)
	}

	e, err := parent.Lookup(leaf)
	if err != nil {
		return fmt.Errorf("(fs-remove) %w", err)
	}

	if e.Kind == directory.KindDirectory {
		d, _, err := directory.Open(m.dev, e.Sector)
		if err != nil {
			return fmt.Errorf("(fs-remove) %q: %w", path, err)
		}

		if !d.Empty() {
			return fmt.Errorf("(fs-remove) %w: %q", ErrNotEmpty, path)
		}
	}

	return m.removeEntry(path, parent, parentFile, e)
}

// RecursiveRemove deletes path and everything below it. For "/" or a path
// ending in "/" only the contents of the named directory are removed.
func (m *Manager) RecursiveRemove(path string) error {
	parentSector, leaf, err := m.ResolvePath(path)
	if err != nil {
		return fmt.Errorf("(fs-rremove) %w", err)
	}

	parent, parentFile, err := m.loadDirectory(parentSector)
	if err != nil {
		return fmt.Errorf("(fs-rremove) %q: %w", path, err)
	}

	if leaf != "" {
		e, err := parent.Lookup(leaf)
		if err != nil {
			return fmt.Errorf("(fs-rremove) %w", err)
		}

		return m.removeEntry(path, parent, parentFile, e)
	}

	bm, err := m.loadBitmap()
	if err != nil {
		return fmt.Errorf("(fs-rremove) %w", err)
	}

	if err := parent.RecursiveRemove(m.dev, bm); err != nil {
		return fmt.Errorf("(fs-rremove) %q: %w", path, err)
	}

	if err := bm.WriteBack(m.freeMapFile); err != nil {
		return fmt.Errorf("(fs-rremove) %q: %w", path, err)
	}

	if err := parent.WriteBack(parentFile); err != nil {
		return fmt.Errorf("(fs-rremove) %q: %w", path, err)
	}

	slog.Debug("Emptied directory", "path", path)

	return nil
}

// removeEntry releases e with everything below it, then writes the bitmap
// followed by the parent directory.
func (m *Manager) removeEntry(path string, parent *directory.Directory, parentFile *openfile.Handle, e directory.Entry) error {
	bm, err := m.loadBitmap()
	if err != nil {
		return fmt.Errorf("(fs-remove) %w", err)
	}

	if err := directory.ReleaseEntry(m.dev, bm, e, 0); err != nil {
		return fmt.Errorf("(fs-remove) %q: %w", path, err)
	}

	if err := parent.Remove(e.Name); err != nil {
		return fmt.Errorf("(fs-remove) %w", err)
	}

	if err := bm.WriteBack(m.freeMapFile); err != nil {
		return fmt.Errorf("(fs-remove) %q: %w", path, err)
	}

	if err := parent.WriteBack(parentFile); err != nil {
		return fmt.Errorf("(fs-remove) %q: parent directory: %w", path, err)
	}

	slog.Debug("Removed file",
		"path", path,
		"kind", e.Kind.String(),
		"sector", e.Sector,
	)

	return nil
}
