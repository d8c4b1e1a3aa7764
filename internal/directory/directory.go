// Package directory implements the fixed-capacity table mapping names onto
// file header sectors. A directory is stored as the content of an ordinary
// file.
package directory

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/desertwitch/nachosfs/internal/disk"
	"github.com/desertwitch/nachosfs/internal/openfile"
)

const (
	// NameMaxLen is the longest file name in bytes.
	NameMaxLen = 9

	// EntrySize is the encoded size of one [Entry].
	EntrySize = 16

	// MaxDepth bounds recursive traversals below a directory.
	MaxDepth = 16

	offInUse  = 0
	offName   = 1
	offKind   = offName + NameMaxLen + 1
	offSector = offKind + 1
)

// Kind tells files and directories apart.
type Kind uint8

const (
	KindFile Kind = iota
	KindDirectory
)

func (k Kind) String() string {
	if k == KindDirectory {
		return "dir"
	}

	return "file"
}

// Entry is one slot of a directory.
type Entry struct {
	InUse  bool
	Name   string
	Kind   Kind
	Sector disk.Sector
}

// Directory is the in-memory table of a directory file.
type Directory struct {
	entries []Entry
}

// New returns an empty directory of size entries.
func New(size int) *Directory {
	return &Directory{
		entries: make([]Entry, size),
	}
}

// FileSize is the byte length of a directory file of size entries.
func FileSize(size int) int {
	return size * EntrySize
}

// Open loads the directory whose file header lives at sector. The returned
// handle can be used to write the directory back.
func Open(dev disk.Device, sector disk.Sector) (*Directory, *openfile.Handle, error) {
	f, err := openfile.Open(dev, sector)
	if err != nil {
		return nil, nil, fmt.Errorf("(dir-open) sector %d: %w", sector, err)
	}

	if f.Length()%EntrySize != 0 {
		return nil, nil, fmt.Errorf("(dir-open) %w: sector %d has length %d", ErrCorrupt, sector, f.Length())
	}

	d := New(int(f.Length() / EntrySize))
	if err := d.FetchFrom(f); err != nil {
		return nil, nil, fmt.Errorf("(dir-open) sector %d: %w", sector, err)
	}

	return d, f, nil
}

// Size returns the number of entries, used or not.
func (d *Directory) Size() int {
	return len(d.entries)
}

// FetchFrom reads the table from the start of r.
func (d *Directory) FetchFrom(r io.ReaderAt) error {
	buf := make([]byte, FileSize(len(d.entries)))

	n, err := r.ReadAt(buf, 0)
	if err != nil && (!errors.Is(err, io.EOF) || n < len(buf)) {
		return fmt.Errorf("(dir-fetch) %w", err)
	}

	for i := range d.entries {
		e, err := decodeEntry(buf[i*EntrySize : (i+1)*EntrySize])
		if err != nil {
			return fmt.Errorf("(dir-fetch) entry %d: %w", i, err)
		}
		d.entries[i] = e
	}

	return nil
}

// WriteBack writes the table to the start of w.
func (d *Directory) WriteBack(w io.WriterAt) error {
	buf := make([]byte, FileSize(len(d.entries)))

	for i, e := range d.entries {
		encodeEntry(buf[i*EntrySize:(i+1)*EntrySize], e)
	}

	if _, err := w.WriteAt(buf, 0); err != nil {
		return fmt.Errorf("(dir-writeback) %w", err)
	}

	return nil
}

// Find returns the header sector of name.
func (d *Directory) Find(name string) (disk.Sector, error) {
	e, err := d.Lookup(name)
	if err != nil {
		return 0, err
	}

	return e.Sector, nil
}

// Lookup returns the in-use entry carrying name.
func (d *Directory) Lookup(name string) (Entry, error) {
	if i := d.index(name); i >= 0 {
		return d.entries[i], nil
	}

	return Entry{}, fmt.Errorf("(dir-lookup) %w: %q", ErrNotFound, name)
}

// IsDirectory reports whether name is a directory.
func (d *Directory) IsDirectory(name string) (bool, error) {
	e, err := d.Lookup(name)
	if err != nil {
		return false, err
	}

	return e.Kind == KindDirectory, nil
}

// Add claims the first free slot for name.
func (d *Directory) Add(name string, sector disk.Sector, kind Kind) error {
	if err := ValidateName(name); err != nil {
		return fmt.Errorf("(dir-add) %w", err)
	}

	if d.index(name) >= 0 {
		return fmt.Errorf("(dir-add) %w: %q", ErrAlreadyExists, name)
	}

	for i := range d.entries {
		if !d.entries[i].InUse {
			d.entries[i] = Entry{InUse: true, Name: name, Kind: kind, Sector: sector}

			return nil
		}
	}

	return fmt.Errorf("(dir-add) %w: %d entries", ErrDirectoryFull, len(d.entries))
}

// Remove frees the slot of name. The file it points to is left alone.
func (d *Directory) Remove(name string) error {
	i := d.index(name)
	if i < 0 {
		return fmt.Errorf("(dir-remove) %w: %q", ErrNotFound, name)
	}

	d.entries[i].InUse = false

	return nil
}

// List returns the in-use entries in slot order.
func (d *Directory) List() []Entry {
	var used []Entry

	for _, e := range d.entries {
		if e.InUse {
			used = append(used, e)
		}
	}

	return used
}

// Empty reports whether no entry is in use.
func (d *Directory) Empty() bool {
	for _, e := range d.entries {
		if e.InUse {
			return false
		}
	}

	return true
}

// ValidateName checks a single path component.
func ValidateName(name string) error {
	if name == "" || strings.ContainsAny(name, "/\x00") {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}

	if len(name) > NameMaxLen {
		return fmt.Errorf("%w: %q", ErrNameTooLong, name)
	}

	return nil
}

func (d *Directory) index(name string) int {
	for i, e := range d.entries {
		if e.InUse && e.Name == name {
			return i
		}
	}

	return -1
}

func encodeEntry(buf []byte, e Entry) {
	clear(buf)

	if e.InUse {
		buf[offInUse] = 1
	}
	copy(buf[offName:offName+NameMaxLen], e.Name)
	buf[offKind] = byte(e.Kind)
	binary.LittleEndian.PutUint32(buf[offSector:], uint32(e.Sector))
}

func decodeEntry(buf []byte) (Entry, error) {
	if buf[offInUse] > 1 || buf[offKind] > byte(KindDirectory) {
		return Entry{}, ErrCorrupt
	}

	name := buf[offName : offName+NameMaxLen+1]
	if i := strings.IndexByte(string(name), 0); i >= 0 {
		name = name[:i]
	}

	return Entry{
		InUse:  buf[offInUse] == 1,
		Name:   string(name),
		Kind:   Kind(buf[offKind]),
		Sector: disk.Sector(binary.LittleEndian.Uint32(buf[offSector:])),
	}, nil
}
