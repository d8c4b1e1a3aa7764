package filesys

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/desertwitch/nachosfs/internal/openfile"
)

// OpenReturnID opens path into the first free slot of the open-file table
// and returns the slot number.
func (m *Manager) OpenReturnID(path string) (int, error) {
	slot := -1
	for i, f := range m.openFiles {
		if f == nil {
			slot = i

			break
		}
	}

	if slot < 0 {
		return -1, fmt.Errorf("(fs-openid) %w: %d files open", ErrTableFull, len(m.openFiles))
	}

	f, err := m.Open(path)
	if err != nil {
		return -1, fmt.Errorf("(fs-openid) %w", err)
	}

	m.openFiles[slot] = f

	slog.Debug("Opened file", "path", path, "id", slot)

	return slot, nil
}

// Close frees the open-file slot id.
func (m *Manager) Close(id int) error {
	if _, err := m.handle(id); err != nil {
		return fmt.Errorf("(fs-close) %w", err)
	}

	m.openFiles[id] = nil

	return nil
}

// Read reads from the cursor of open file id.
func (m *Manager) Read(id int, buf []byte) (int, error) {
	f, err := m.handle(id)
	if err != nil {
		return 0, fmt.Errorf("(fs-read) %w", err)
	}

	n, err := f.Read(buf)
	if err != nil && err != io.EOF { //nolint:errorlint
		return n, fmt.Errorf("(fs-read) id %d: %w", id, err)
	}

	return n, err
}

// Write writes at the cursor of open file id. Files do not grow, so a write
// reaching past the end is cut short.
func (m *Manager) Write(id int, buf []byte) (int, error) {
	f, err := m.handle(id)
	if err != nil {
		return 0, fmt.Errorf("(fs-write) %w", err)
	}

	n, err := f.Write(buf)
	if err != nil {
		return n, fmt.Errorf("(fs-write) id %d: %w", id, err)
	}

	return n, nil
}

// Seek moves the cursor of open file id to the absolute position pos.
func (m *Manager) Seek(id int, pos int64) (int64, error) {
	f, err := m.handle(id)
	if err != nil {
		return 0, fmt.Errorf("(fs-seek) %w", err)
	}

	abs, err := f.Seek(pos, io.SeekStart)
	if err != nil {
		return abs, fmt.Errorf("(fs-seek) id %d: %w", id, err)
	}

	return abs, nil
}

func (m *Manager) handle(id int) (*openfile.Handle, error) {
	if id < 0 || id >= len(m.openFiles) || m.openFiles[id] == nil {
		return nil, fmt.Errorf("%w: open file id %d", ErrNotFound, id)
	}

	return m.openFiles[id], nil
}
