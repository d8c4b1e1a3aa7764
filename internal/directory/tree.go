package directory

import (
	"fmt"
	"io"
	"log/slog"
	"path"
	"slices"

	"github.com/desertwitch/nachosfs/internal/disk"
	"github.com/desertwitch/nachosfs/internal/header"
	"github.com/desertwitch/nachosfs/internal/openfile"
)

// Listing is one line of a recursive listing. Path is relative to the
// listed directory.
type Listing struct {
	Name   string
	Path   string
	Depth  int
	Kind   Kind
	Sector disk.Sector
}

// RecursiveList walks the tree below the directory depth-first, each
// directory followed by its contents.
func (d *Directory) RecursiveList(dev disk.Device) ([]Listing, error) {
	var out []Listing

	stack := make([]Listing, 0, len(d.entries))
	stack = pushChildren(stack, d.List(), "", 0)

	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		out = append(out, cur)

		if cur.Kind != KindDirectory {
			continue
		}

		if cur.Depth+1 >= MaxDepth {
			return nil, fmt.Errorf("(dir-rlist) %w: %q", ErrTooDeep, cur.Path)
		}

		child, _, err := Open(dev, cur.Sector)
		if err != nil {
			return nil, fmt.Errorf("(dir-rlist) %q: %w", cur.Path, err)
		}

		stack = pushChildren(stack, child.List(), cur.Path, cur.Depth+1)
	}

	return out, nil
}

// pushChildren pushes entries in reverse so they pop in slot order.
func pushChildren(stack []Listing, entries []Entry, parent string, depth int) []Listing {
	for _, e := range slices.Backward(entries) {
		stack = append(stack, Listing{
			Name:   e.Name,
			Path:   path.Join(parent, e.Name),
			Depth:  depth,
			Kind:   e.Kind,
			Sector: e.Sector,
		})
	}

	return stack
}

// RecursiveRemove releases every file and subdirectory below the directory
// into alloc and clears their entries. Children are released before the
// directory holding them. The directory's own sectors and its entry in its
// parent are left to the caller, as is writing back the directory and alloc.
func (d *Directory) RecursiveRemove(dev disk.Device, alloc header.Allocator) error {
	return d.removeChildren(dev, alloc, 0)
}

func (d *Directory) removeChildren(dev disk.Device, alloc header.Allocator, depth int) error {
	if depth >= MaxDepth {
		return fmt.Errorf("(dir-rremove) %w", ErrTooDeep)
	}

	for i := range d.entries {
		e := d.entries[i]
		if !e.InUse {
			continue
		}

		if err := ReleaseEntry(dev, alloc, e, depth+1); err != nil {
			return fmt.Errorf("(dir-rremove) %q: %w", e.Name, err)
		}

		d.entries[i].InUse = false
	}

	return nil
}

// ReleaseEntry returns every sector owned by e to alloc: for a directory its
// whole subtree first, then the data, index and header sectors of e itself.
// depth is the level of e below the directory the walk started from.
func ReleaseEntry(dev disk.Device, alloc header.Allocator, e Entry, depth int) error {
	f, err := openfile.Open(dev, e.Sector)
	if err != nil {
		return err
	}

	if e.Kind == KindDirectory {
		child := New(int(f.Length() / EntrySize))
		if err := child.FetchFrom(f); err != nil {
			return err
		}

		if err := child.removeChildren(dev, alloc, depth); err != nil {
			return err
		}
	}

	hdr := f.Header()
	hdr.Deallocate(alloc)
	hdr.DeallocateStructure(alloc, e.Sector)

	slog.Debug("Released file sectors",
		"name", e.Name,
		"kind", e.Kind.String(),
		"sector", e.Sector,
		"size", hdr.Length(),
	)

	return nil
}

// Print writes every in-use entry followed by a dump of its file.
func (d *Directory) Print(w io.Writer, dev disk.Device) error {
	if _, err := fmt.Fprintln(w, "Directory contents:"); err != nil {
		return fmt.Errorf("(dir-print) %w", err)
	}

	for _, e := range d.List() {
		if _, err := fmt.Fprintf(w, "Name: %s, Kind: %s, Sector: %d\n", e.Name, e.Kind, e.Sector); err != nil {
			return fmt.Errorf("(dir-print) %w", err)
		}

		hdr := &header.Header{}
		if err := hdr.Load(dev, e.Sector); err != nil {
			return fmt.Errorf("(dir-print) %q: %w", e.Name, err)
		}

		if err := hdr.Print(w, dev); err != nil {
			return fmt.Errorf("(dir-print) %q: %w", e.Name, err)
		}
	}

	_, err := fmt.Fprintln(w)

	return err
}
