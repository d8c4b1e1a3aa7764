package filesys

import (
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/desertwitch/nachosfs/internal/directory"
	"github.com/desertwitch/nachosfs/internal/disk"
	"github.com/desertwitch/nachosfs/internal/header"
)

const listIndent = 3

// Listing resolves path and returns its directory contents, one level or the
// whole subtree. A file resolves to a single line of its own.
func (m *Manager) Listing(p string, recursive bool) ([]directory.Listing, error) {
	parentSector, leaf, err := m.ResolvePath(p)
	if err != nil {
		return nil, fmt.Errorf("(fs-listing) %w", err)
	}

	dirSector := parentSector

	if leaf != "" {
		parent, _, err := m.loadDirectory(parentSector)
		if err != nil {
			return nil, fmt.Errorf("(fs-listing) %q: %w", p, err)
		}

		e, err := parent.Lookup(leaf)
		if err != nil {
			return nil, fmt.Errorf("(fs-listing) %w", err)
		}

		if e.Kind != directory.KindDirectory {
			return []directory.Listing{{Name: e.Name, Path: e.Name, Kind: e.Kind, Sector: e.Sector}}, nil
		}

		dirSector = e.Sector
	}

	d, _, err := m.loadDirectory(dirSector)
	if err != nil {
		return nil, fmt.Errorf("(fs-listing) %q: %w", p, err)
	}

	if recursive {
		out, err := d.RecursiveList(m.dev)
		if err != nil {
			return nil, fmt.Errorf("(fs-listing) %q: %w", p, err)
		}

		return out, nil
	}

	entries := d.List()
	out := make([]directory.Listing, 0, len(entries))

	for _, e := range entries {
		out = append(out, directory.Listing{Name: e.Name, Path: e.Name, Kind: e.Kind, Sector: e.Sector})
	}

	return out, nil
}

// List writes the names below path to w, one per line, indented by three
// spaces per level when recursive.
func (m *Manager) List(w io.Writer, p string, recursive bool) error {
	out, err := m.Listing(p, recursive)
	if err != nil {
		return err
	}

	var sb strings.Builder
	for _, l := range out {
		sb.WriteString(strings.Repeat(" ", listIndent*l.Depth))
		sb.WriteString(l.Name)
		sb.WriteByte('\n')
	}

	if _, err := io.WriteString(w, sb.String()); err != nil {
		return fmt.Errorf("(fs-list) %w", err)
	}

	return nil
}

// Print writes a debug dump of the volume: both well-known headers, the
// allocated sectors and the root directory with its files.
func (m *Manager) Print(w io.Writer) error {
	bm, err := m.loadBitmap()
	if err != nil {
		return fmt.Errorf("(fs-print) %w", err)
	}

	root, _, err := m.loadDirectory(RootSector)
	if err != nil {
		return fmt.Errorf("(fs-print) %w", err)
	}

	fmt.Fprintln(w, "Bit map file header:")
	if err := m.freeMapFile.Header().Print(w, m.dev); err != nil {
		return fmt.Errorf("(fs-print) %w", err)
	}

	fmt.Fprintln(w, "Directory file header:")
	if err := m.rootFile.Header().Print(w, m.dev); err != nil {
		return fmt.Errorf("(fs-print) %w", err)
	}

	var sb strings.Builder
	sb.WriteString("Bitmap set:\n")
	for _, s := range bm.Allocated() {
		fmt.Fprintf(&sb, "%d, ", s)
	}
	sb.WriteString("\n")

	if _, err := io.WriteString(w, sb.String()); err != nil {
		return fmt.Errorf("(fs-print) %w", err)
	}

	if err := root.Print(w, m.dev); err != nil {
		return fmt.Errorf("(fs-print) %w", err)
	}

	return nil
}

// Report is a structured summary of a volume.
type Report struct {
	TotalSectors int          `yaml:"total_sectors"`
	SectorSize   int          `yaml:"sector_size"`
	FreeSectors  int          `yaml:"free_sectors"`
	DirEntries   int          `yaml:"dir_entries"`
	Files        []FileReport `yaml:"files"`
}

// FileReport describes one file or directory of a [Report].
type FileReport struct {
	Path              string `yaml:"path"`
	Kind              string `yaml:"kind"`
	Size              int    `yaml:"size"`
	Tier              string `yaml:"tier"`
	HeaderSector      uint32 `yaml:"header_sector"`
	DataSectors       int    `yaml:"data_sectors"`
	StructuralSectors int    `yaml:"structural_sectors"`
}

// Inspect walks the whole tree and reports every file with its tier and
// sector usage.
func (m *Manager) Inspect() (*Report, error) {
	free, err := m.CountFree()
	if err != nil {
		return nil, fmt.Errorf("(fs-inspect) %w", err)
	}

	tree, err := m.Listing("/", true)
	if err != nil {
		return nil, fmt.Errorf("(fs-inspect) %w", err)
	}

	r := &Report{
		TotalSectors: m.dev.NumSectors(),
		SectorSize:   disk.SectorSize,
		FreeSectors:  free,
		DirEntries:   m.geometry.NumDirEntries,
		Files:        make([]FileReport, 0, len(tree)),
	}

	for _, l := range tree {
		hdr := &header.Header{}
		if err := hdr.Load(m.dev, l.Sector); err != nil {
			return nil, fmt.Errorf("(fs-inspect) %q: %w", l.Path, err)
		}

		r.Files = append(r.Files, FileReport{
			Path:              path.Join("/", l.Path),
			Kind:              l.Kind.String(),
			Size:              hdr.Length(),
			Tier:              hdr.Tier().String(),
			HeaderSector:      uint32(l.Sector),
			DataSectors:       hdr.SectorCount(),
			StructuralSectors: len(hdr.StructuralSectors()),
		})
	}

	return r, nil
}
