package openfile

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/desertwitch/nachosfs/internal/bitmap"
	"github.com/desertwitch/nachosfs/internal/disk"
	"github.com/desertwitch/nachosfs/internal/disk/mocks"
	"github.com/desertwitch/nachosfs/internal/header"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestFile(t *testing.T, length int) (*disk.MemoryDisk, *Handle) {
	t.Helper()

	dev, err := disk.NewMemoryDisk(4096)
	require.NoError(t, err)

	bm := bitmap.New(dev.NumSectors())

	hdr := &header.Header{}
	sector, err := hdr.AllocateStructure(bm, length, true)
	require.NoError(t, err)
	require.NoError(t, hdr.AllocateData(bm))
	require.NoError(t, hdr.Store(dev, sector))

	f, err := Open(dev, sector)
	require.NoError(t, err)

	return dev, f
}

func pattern(n int) []byte {
	p := make([]byte, n)
	for i := range p {
		p[i] = byte(i % 251)
	}

	return p
}

func TestReadWriteAt_Success(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		length int
		off    int64
		size   int
	}{
		{"WholeDirect", 1000, 0, 1000},
		{"UnalignedSingle", 3000, 77, 2500},
		{"WithinOneSector", 3000, 130, 10},
		{"DoubleTail", 100000, 99000, 1000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, f := newTestFile(t, tt.length)
			data := pattern(tt.size)

			n, err := f.WriteAt(data, tt.off)
			require.NoError(t, err)
			assert.Equal(t, tt.size, n)

			got := make([]byte, tt.size)
			n, err = f.ReadAt(got, tt.off)
			require.NoError(t, err)
			assert.Equal(t, tt.size, n)
			assert.Equal(t, data, got)
		})
	}
}

func TestWriteAt_PreservesNeighbours(t *testing.T) {
	t.Parallel()

	_, f := newTestFile(t, 512)

	_, err := f.WriteAt(bytes.Repeat([]byte{'a'}, 512), 0)
	require.NoError(t, err)

	_, err = f.WriteAt([]byte("xyz"), 126)
	require.NoError(t, err)

	got := make([]byte, 512)
	_, err = f.ReadAt(got, 0)
	require.NoError(t, err)

	want := bytes.Repeat([]byte{'a'}, 512)
	copy(want[126:], "xyz")
	assert.Equal(t, want, got)
}

func TestReadAt_ClampedAtEnd(t *testing.T) {
	t.Parallel()

	_, f := newTestFile(t, 200)

	buf := make([]byte, 100)
	n, err := f.ReadAt(buf, 150)
	require.ErrorIs(t, err, io.EOF)
	assert.Equal(t, 50, n)

	n, err = f.ReadAt(buf, 200)
	require.ErrorIs(t, err, io.EOF)
	assert.Equal(t, 0, n)

	_, err = f.ReadAt(buf, -1)
	require.ErrorIs(t, err, ErrNegativeOffset)
}

func TestWriteAt_NoGrowth(t *testing.T) {
	t.Parallel()

	_, f := newTestFile(t, 200)

	n, err := f.WriteAt(make([]byte, 100), 150)
	require.ErrorIs(t, err, io.ErrShortWrite)
	assert.Equal(t, 50, n)

	_, err = f.WriteAt([]byte{1}, 200)
	require.ErrorIs(t, err, ErrBeyondEnd)

	assert.Equal(t, int64(200), f.Length())
}

func TestReadWrite_Cursor(t *testing.T) {
	t.Parallel()

	_, f := newTestFile(t, 300)

	_, err := f.Write([]byte("hello "))
	require.NoError(t, err)
	_, err = f.Write([]byte("world"))
	require.NoError(t, err)

	pos, err := f.Seek(0, io.SeekStart)
	require.NoError(t, err)
	assert.Equal(t, int64(0), pos)

	got := make([]byte, 11)
	_, err = io.ReadFull(f, got)
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(got))

	pos, err = f.Seek(-10, io.SeekEnd)
	require.NoError(t, err)
	assert.Equal(t, int64(290), pos)

	rest, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Len(t, rest, 10)

	_, err = f.Seek(-1, io.SeekStart)
	require.ErrorIs(t, err, ErrNegativeOffset)

	_, err = f.Seek(0, 42)
	require.ErrorIs(t, err, ErrInvalidWhence)
}

func TestHandle_Persistence(t *testing.T) {
	t.Parallel()

	dev, f := newTestFile(t, 5000)
	data := pattern(5000)

	_, err := f.WriteAt(data, 0)
	require.NoError(t, err)

	reopened, err := Open(dev, f.Sector())
	require.NoError(t, err)

	got := make([]byte, 5000)
	_, err = reopened.ReadAt(got, 0)
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestReadAt_Fail_DeviceError(t *testing.T) {
	t.Parallel()

	_, f := newTestFile(t, 300)

	devErr := errors.New("media error")
	dev := mocks.NewDevice(t)
	dev.On("ReadSector", mock.Anything, mock.Anything).Return(devErr).Once()

	broken := New(dev, f.Header(), f.Sector())

	_, err := broken.ReadAt(make([]byte, 10), 0)
	require.ErrorIs(t, err, devErr)
}
