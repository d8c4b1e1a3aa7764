package filesys

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/desertwitch/nachosfs/internal/directory"
	"github.com/desertwitch/nachosfs/internal/disk"
	"github.com/desertwitch/nachosfs/internal/disk/mocks"
	"github.com/desertwitch/nachosfs/internal/header"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testSectors = 32768

func newTestManager(t *testing.T, numSectors int, geometry Geometry) (*disk.MemoryDisk, *Manager) {
	t.Helper()

	dev, err := disk.NewMemoryDisk(numSectors)
	require.NoError(t, err)

	m, err := Format(dev, geometry)
	require.NoError(t, err)

	return dev, m
}

func countFree(t *testing.T, m *Manager) int {
	t.Helper()

	free, err := m.CountFree()
	require.NoError(t, err)

	return free
}

func TestFormat_Success(t *testing.T) {
	t.Parallel()

	_, m := newTestManager(t, testSectors, DefaultGeometry())

	// sectors 0 and 1, a 32-sector single-indirect bitmap file, an 8-sector
	// root directory
	assert.Equal(t, testSectors-2-33-8, countFree(t, m))

	out, err := m.Listing("/", true)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestFormat_Fail(t *testing.T) {
	t.Parallel()

	dev, err := disk.NewMemoryDisk(8)
	require.NoError(t, err)

	_, err = Format(dev, DefaultGeometry())
	require.ErrorIs(t, err, ErrNoSpace)

	_, err = Format(dev, Geometry{NumDirEntries: 0, MaxOpenFiles: 1})
	require.ErrorIs(t, err, ErrInvalidGeometry)
}

func TestFormat_Fail_DeviceError(t *testing.T) {
	t.Parallel()

	devErr := errors.New("write fault")

	dev := mocks.NewDevice(t)
	dev.On("NumSectors").Return(1024)
	dev.On("WriteSector", mock.Anything, mock.Anything).Return(devErr)

	_, err := Format(dev, DefaultGeometry())
	require.ErrorIs(t, err, devErr)
}

func TestMount(t *testing.T) {
	t.Parallel()

	dev, m := newTestManager(t, testSectors, DefaultGeometry())
	require.NoError(t, m.Create("/keep", 300, directory.KindFile))
	free := countFree(t, m)

	mounted, err := Mount(dev, Geometry{NumDirEntries: 10, MaxOpenFiles: 4})
	require.NoError(t, err)

	assert.Equal(t, DefaultNumDirEntries, mounted.Geometry().NumDirEntries, "directory size follows the disk")
	assert.Equal(t, free, countFree(t, mounted))

	f, err := mounted.Open("/keep")
	require.NoError(t, err)
	assert.Equal(t, int64(300), f.Length())
}

func TestMount_Fail_NotFormatted(t *testing.T) {
	t.Parallel()

	dev, err := disk.NewMemoryDisk(1024)
	require.NoError(t, err)

	_, err = Mount(dev, DefaultGeometry())
	require.ErrorIs(t, err, ErrNotFormatted)
}

func TestResolvePath(t *testing.T) {
	t.Parallel()

	_, m := newTestManager(t, testSectors, DefaultGeometry())
	require.NoError(t, m.Create("/dir", 0, directory.KindDirectory))
	require.NoError(t, m.Create("/dir/f", 10, directory.KindFile))

	dirFile, err := m.Open("/dir/")
	require.NoError(t, err)
	dirSector := dirFile.Sector()

	tests := []struct {
		path       string
		wantSector disk.Sector
		wantLeaf   string
	}{
		{"/", RootSector, ""},
		{"/a.txt", RootSector, "a.txt"},
		{"/dir", RootSector, "dir"},
		{"/dir/", dirSector, ""},
		{"/dir/new", dirSector, "new"},
	}

	for _, tt := range tests {
		sector, leaf, err := m.ResolvePath(tt.path)
		require.NoError(t, err, tt.path)
		assert.Equal(t, tt.wantSector, sector, tt.path)
		assert.Equal(t, tt.wantLeaf, leaf, tt.path)
	}
}

func TestResolvePath_Fail(t *testing.T) {
	t.Parallel()

	_, m := newTestManager(t, testSectors, DefaultGeometry())
	require.NoError(t, m.Create("/file", 10, directory.KindFile))

	tests := []struct {
		name    string
		path    string
		wantErr error
	}{
		{"Relative", "a/b", ErrMalformed},
		{"Empty", "", ErrMalformed},
		{"NameTooLong", "/abcdefghij", ErrMalformed},
		{"EmptyComponent", "//a", ErrMalformed},
		{"PathTooLong", "/" + strings.Repeat("a/", 128), ErrMalformed},
		{"TooDeep", strings.Repeat("/a", MaxPathDepth+1), ErrMalformed},
		{"MissingComponent", "/nope/x", ErrNotFound},
		{"FileComponent", "/file/x", ErrNotDirectory},
	}

	for _, tt := range tests {
		_, _, err := m.ResolvePath(tt.path)
		require.ErrorIs(t, err, tt.wantErr, tt.name)
	}

	_, _, err := m.ResolvePath("/file/x")
	require.ErrorIs(t, err, ErrNotFound, "not a directory is a kind of not found")
}

func TestScenarioA_CreateWriteRead(t *testing.T) {
	t.Parallel()

	_, m := newTestManager(t, testSectors, DefaultGeometry())

	require.NoError(t, m.Create("/a.txt", 500, directory.KindFile))

	f, err := m.Open("/a.txt")
	require.NoError(t, err)
	assert.Equal(t, int64(500), f.Length())

	data := bytes.Repeat([]byte("0123456789"), 50)
	n, err := f.WriteAt(data, 0)
	require.NoError(t, err)
	assert.Equal(t, 500, n)

	again, err := m.Open("/a.txt")
	require.NoError(t, err)

	got := make([]byte, 500)
	n, err = again.ReadAt(got, 0)
	require.NoError(t, err)
	assert.Equal(t, 500, n)
	assert.Equal(t, data, got)
}

func TestScenarioB_DirectoryTree(t *testing.T) {
	t.Parallel()

	_, m := newTestManager(t, testSectors, DefaultGeometry())
	before := countFree(t, m)

	require.NoError(t, m.Create("/dir", 0, directory.KindDirectory))
	require.NoError(t, m.Create("/dir/b.txt", 5000, directory.KindFile))

	f, err := m.Open("/dir/b.txt")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, f.Header().Tier(), header.TierSingle)

	var out bytes.Buffer
	require.NoError(t, m.List(&out, "/dir", false))
	assert.Equal(t, "b.txt\n", out.String())

	require.NoError(t, m.RecursiveRemove("/dir"))
	assert.Equal(t, before, countFree(t, m))

	_, err = m.Open("/dir")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestScenarioC_TripleIndirect(t *testing.T) {
	t.Parallel()

	_, m := newTestManager(t, testSectors, DefaultGeometry())
	before := countFree(t, m)

	require.NoError(t, m.Create("/big", 200000, directory.KindFile))

	f, err := m.Open("/big")
	require.NoError(t, err)

	hdr := f.Header()
	assert.Equal(t, header.TierTriple, hdr.Tier())
	assert.GreaterOrEqual(t, len(hdr.StructuralSectors()), 16)

	claimed := before - countFree(t, m)
	assert.Equal(t, 1+len(hdr.StructuralSectors())+hdr.SectorCount(), claimed)

	data := make([]byte, 200000)
	for i := range data {
		data[i] = byte(i * 7)
	}
	_, err = f.WriteAt(data, 0)
	require.NoError(t, err)

	got := make([]byte, len(data))
	_, err = f.ReadAt(got, 0)
	require.NoError(t, err)
	assert.Equal(t, data, got)

	require.NoError(t, m.Remove("/big"))
	assert.Equal(t, before, countFree(t, m))
}

func TestCreate_Fail_NoSpace_Unchanged(t *testing.T) {
	t.Parallel()

	_, m := newTestManager(t, 256, DefaultGeometry())
	before := countFree(t, m)

	tests := []struct {
		name string
		size int
	}{
		{"Structure", 200000},
		{"Data", 240 * disk.SectorSize},
	}

	for _, tt := range tests {
		err := m.Create("/f", tt.size, directory.KindFile)
		require.ErrorIs(t, err, ErrNoSpace, tt.name)
		assert.Equal(t, before, countFree(t, m), tt.name)

		_, err = m.Open("/f")
		require.ErrorIs(t, err, ErrNotFound, tt.name)
	}
}

func TestCreate_Fail(t *testing.T) {
	t.Parallel()

	_, m := newTestManager(t, testSectors, Geometry{NumDirEntries: 2, MaxOpenFiles: 1})
	require.NoError(t, m.Create("/a", 10, directory.KindFile))

	before := countFree(t, m)

	require.ErrorIs(t, m.Create("/a", 10, directory.KindFile), ErrAlreadyExists)
	require.ErrorIs(t, m.Create("/", 0, directory.KindDirectory), ErrAlreadyExists)
	require.ErrorIs(t, m.Create("/x/y", 10, directory.KindFile), ErrNotFound)
	require.ErrorIs(t, m.Create("/b", -1, directory.KindFile), ErrInvalidSize)
	require.ErrorIs(t, m.Create("/b", header.MaxFileSize+1, directory.KindFile), ErrFileTooLarge)

	require.NoError(t, m.Create("/b", 10, directory.KindFile))
	before -= 2

	err := m.Create("/c", 10, directory.KindFile)
	require.ErrorIs(t, err, ErrDirectoryFull)
	assert.Equal(t, before, countFree(t, m))
}

func TestRemove(t *testing.T) {
	t.Parallel()

	_, m := newTestManager(t, testSectors, DefaultGeometry())
	before := countFree(t, m)

	require.NoError(t, m.Create("/d", 0, directory.KindDirectory))
	require.NoError(t, m.Create("/d/f", 3000, directory.KindFile))

	require.ErrorIs(t, m.Remove("/d"), ErrNotEmpty)
	require.ErrorIs(t, m.Remove("/d/"), ErrMalformed)
	require.ErrorIs(t, m.Remove("/d/nope"), ErrNotFound)

	require.NoError(t, m.Remove("/d/f"))
	require.NoError(t, m.Remove("/d"))
	assert.Equal(t, before, countFree(t, m))

	require.NoError(t, m.Create("/d", 0, directory.KindDirectory), "name is reusable")
}

func TestRecursiveRemove_Root(t *testing.T) {
	t.Parallel()

	_, m := newTestManager(t, testSectors, DefaultGeometry())
	before := countFree(t, m)

	require.NoError(t, m.Create("/a", 0, directory.KindDirectory))
	require.NoError(t, m.Create("/a/b", 0, directory.KindDirectory))
	require.NoError(t, m.Create("/a/b/c", 1500, directory.KindFile))
	require.NoError(t, m.Create("/z", 40000, directory.KindFile))

	require.NoError(t, m.RecursiveRemove("/"))

	assert.Equal(t, before, countFree(t, m))

	out, err := m.Listing("/", true)
	require.NoError(t, err)
	assert.Empty(t, out)

	_, err = m.Open("/")
	require.NoError(t, err, "root survives")
}

func TestList_Recursive(t *testing.T) {
	t.Parallel()

	_, m := newTestManager(t, testSectors, DefaultGeometry())

	require.NoError(t, m.Create("/a", 0, directory.KindDirectory))
	require.NoError(t, m.Create("/a/b", 0, directory.KindDirectory))
	require.NoError(t, m.Create("/a/b/c", 1, directory.KindFile))
	require.NoError(t, m.Create("/z", 1, directory.KindFile))

	var out bytes.Buffer
	require.NoError(t, m.List(&out, "/", true))
	assert.Equal(t, "a\n   b\n      c\nz\n", out.String())

	out.Reset()
	require.NoError(t, m.List(&out, "/a/b/c", false))
	assert.Equal(t, "c\n", out.String(), "a file lists itself")
}

func TestOpenFileTable(t *testing.T) {
	t.Parallel()

	_, m := newTestManager(t, testSectors, Geometry{NumDirEntries: 8, MaxOpenFiles: 2})
	require.NoError(t, m.Create("/f", 20, directory.KindFile))

	id0, err := m.OpenReturnID("/f")
	require.NoError(t, err)
	assert.Equal(t, 0, id0)

	id1, err := m.OpenReturnID("/f")
	require.NoError(t, err)
	assert.Equal(t, 1, id1)

	_, err = m.OpenReturnID("/f")
	require.ErrorIs(t, err, ErrTableFull)

	n, err := m.Write(id0, []byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	buf := make([]byte, 5)
	n, err = m.Read(id1, buf)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(buf[:n]))

	_, err = m.Seek(id1, 18)
	require.NoError(t, err)
	n, err = m.Read(id1, buf)
	require.ErrorIs(t, err, io.EOF)
	assert.Equal(t, 2, n)

	require.NoError(t, m.Close(id0))
	require.ErrorIs(t, m.Close(id0), ErrNotFound)

	_, err = m.Read(7, buf)
	require.ErrorIs(t, err, ErrNotFound)

	id, err := m.OpenReturnID("/f")
	require.NoError(t, err)
	assert.Equal(t, 0, id, "freed slot is reused")

	_, err = m.OpenReturnID("/missing")
	require.ErrorIs(t, err, ErrTableFull)
}

func TestOpenReturnID_Fail_NotFound(t *testing.T) {
	t.Parallel()

	_, m := newTestManager(t, testSectors, DefaultGeometry())

	_, err := m.OpenReturnID("/missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestInspect(t *testing.T) {
	t.Parallel()

	_, m := newTestManager(t, testSectors, DefaultGeometry())
	require.NoError(t, m.Create("/d", 0, directory.KindDirectory))
	require.NoError(t, m.Create("/d/f", 5000, directory.KindFile))

	r, err := m.Inspect()
	require.NoError(t, err)

	assert.Equal(t, testSectors, r.TotalSectors)
	assert.Equal(t, countFree(t, m), r.FreeSectors)
	require.Len(t, r.Files, 2)

	assert.Equal(t, "/d", r.Files[0].Path)
	assert.Equal(t, "dir", r.Files[0].Kind)
	assert.Equal(t, "/d/f", r.Files[1].Path)
	assert.Equal(t, 5000, r.Files[1].Size)
	assert.Equal(t, header.TierDouble.String(), r.Files[1].Tier)
	assert.Equal(t, 40, r.Files[1].DataSectors)
	assert.Equal(t, 33, r.Files[1].StructuralSectors)
}

func TestPrint(t *testing.T) {
	t.Parallel()

	_, m := newTestManager(t, 1024, DefaultGeometry())
	require.NoError(t, m.Create("/hi", 2, directory.KindFile))

	f, err := m.Open("/hi")
	require.NoError(t, err)
	_, err = f.WriteAt([]byte("ok"), 0)
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, m.Print(&out))

	s := out.String()
	assert.Contains(t, s, "Bit map file header:")
	assert.Contains(t, s, "Directory file header:")
	assert.Contains(t, s, "Name: hi, Kind: file")
	assert.Contains(t, s, "ok\n")
}
