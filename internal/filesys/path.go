package filesys

import (
	"fmt"
	"strings"

	"github.com/desertwitch/nachosfs/internal/directory"
	"github.com/desertwitch/nachosfs/internal/disk"
)

// ResolvePath walks an absolute path down to the directory holding its last
// name. It returns that directory's header sector and the last name. An
// empty leaf ("/" or a trailing "/") names the returned directory itself.
func (m *Manager) ResolvePath(path string) (disk.Sector, string, error) {
	names, leaf, err := splitPath(path)
	if err != nil {
		return 0, "", fmt.Errorf("(fs-resolve) %w", err)
	}

	cur := RootSector

	for i, name := range names {
		d, _, err := m.loadDirectory(cur)
		if err != nil {
			return 0, "", fmt.Errorf("(fs-resolve) %q: %w", path, err)
		}

		e, err := d.Lookup(name)
		if err != nil {
			return 0, "", fmt.Errorf("(fs-resolve) %q: %w", path, err)
		}

		if e.Kind != directory.KindDirectory {
			return 0, "", fmt.Errorf("(fs-resolve) %w: %q", ErrNotDirectory, "/"+strings.Join(names[:i+1], "/"))
		}

		cur = e.Sector
	}

	return cur, leaf, nil
}

// splitPath parses an absolute path into its intermediate names and leaf.
func splitPath(path string) ([]string, string, error) {
	if !strings.HasPrefix(path, "/") {
		return nil, "", fmt.Errorf("%w: %q is not absolute", ErrMalformed, path)
	}

	if len(path) > MaxPathLen {
		return nil, "", fmt.Errorf("%w: %d bytes exceed %d", ErrMalformed, len(path), MaxPathLen)
	}

	parts := strings.Split(path[1:], "/")
	names, leaf := parts[:len(parts)-1], parts[len(parts)-1]

	depth := len(names)
	if leaf != "" {
		depth++
	}

	if depth > MaxPathDepth {
		return nil, "", fmt.Errorf("%w: %d names exceed %d", ErrMalformed, depth, MaxPathDepth)
	}

	for _, name := range names {
		if err := directory.ValidateName(name); err != nil {
			return nil, "", fmt.Errorf("%w: %w", ErrMalformed, err)
		}
	}

	if leaf != "" {
		if err := directory.ValidateName(leaf); err != nil {
			return nil, "", fmt.Errorf("%w: %w", ErrMalformed, err)
		}
	}

	return names, leaf, nil
}
