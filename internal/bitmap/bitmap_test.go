package bitmap

import (
	"bytes"
	"io"
	"testing"

	"github.com/desertwitch/nachosfs/internal/disk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memFile is a minimal in-memory io.ReaderAt/io.WriterAt.
type memFile struct {
	data []byte
}

func (f *memFile) ReadAt(p []byte, off int64) (int, error) {
	if off >= int64(len(f.data)) {
		return 0, io.EOF
	}
	n := copy(p, f.data[off:])
	if n < len(p) {
		return n, io.EOF
	}

	return n, nil
}

func (f *memFile) WriteAt(p []byte, off int64) (int, error) {
	return copy(f.data[off:], p), nil
}

func TestAllocateOne_FirstFit(t *testing.T) {
	t.Parallel()

	bm := New(64)

	for want := range 10 {
		got, err := bm.AllocateOne()
		require.NoError(t, err)
		assert.Equal(t, disk.Sector(want), got)
	}

	bm.Release(3)

	got, err := bm.AllocateOne()
	require.NoError(t, err)
	assert.Equal(t, disk.Sector(3), got, "released sector must be reused first")
}

func TestAllocateOne_Unique(t *testing.T) {
	t.Parallel()

	bm := New(100)
	seen := make(map[disk.Sector]bool)

	for range 100 {
		s, err := bm.AllocateOne()
		require.NoError(t, err)
		assert.False(t, seen[s], "sector %d handed out twice", s)
		seen[s] = true
	}

	_, err := bm.AllocateOne()
	require.ErrorIs(t, err, ErrNoSpace)
}

func TestAllocateOne_Fail_PartialByteTail(t *testing.T) {
	t.Parallel()

	bm := New(11)
	for range 11 {
		_, err := bm.AllocateOne()
		require.NoError(t, err)
	}

	_, err := bm.AllocateOne()
	require.ErrorIs(t, err, ErrNoSpace, "padding bits of the last byte are not sectors")
}

func TestCountFree(t *testing.T) {
	t.Parallel()

	bm := New(256)
	initial := bm.CountFree()
	assert.Equal(t, 256, initial)

	for k := 1; k <= 40; k++ {
		_, err := bm.AllocateOne()
		require.NoError(t, err)
		assert.Equal(t, initial-k, bm.CountFree())
	}
}

func TestMarkAndTest(t *testing.T) {
	t.Parallel()

	bm := New(32)
	bm.Mark(0)
	bm.Mark(31)

	assert.True(t, bm.Test(0))
	assert.True(t, bm.Test(31))
	assert.False(t, bm.Test(1))

	got, err := bm.AllocateOne()
	require.NoError(t, err)
	assert.Equal(t, disk.Sector(1), got)

	assert.Equal(t, []disk.Sector{0, 1, 31}, bm.Allocated())
}

func TestConsistencyViolations_Panic(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		fn   func(bm *Bitmap)
	}{
		{"Fail_ReleaseClear", func(bm *Bitmap) { bm.Release(5) }},
		{"Fail_DoubleMark", func(bm *Bitmap) { bm.Mark(2); bm.Mark(2) }},
		{"Fail_DoubleRelease", func(bm *Bitmap) { bm.Mark(2); bm.Release(2); bm.Release(2) }},
		{"Fail_OutOfRange", func(bm *Bitmap) { bm.Test(16) }},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			bm := New(16)

			defer func() {
				r := recover()
				require.NotNil(t, r, "expected a panic")
				err, ok := r.(error)
				require.True(t, ok)
				require.ErrorIs(t, err, ErrConsistencyViolation)
			}()

			tc.fn(bm)
		})
	}
}

func TestPersistence_RoundTrip(t *testing.T) {
	t.Parallel()

	bm := New(40)
	for _, s := range []disk.Sector{0, 1, 7, 8, 39} {
		bm.Mark(s)
	}

	f := &memFile{data: make([]byte, FileSize(40))}
	require.NoError(t, bm.WriteBack(f))

	// Bit i lives at byte i/8 under mask 1<<(i%8).
	assert.Equal(t, []byte{0x83, 0x01, 0x00, 0x00, 0x80}, f.data)

	loaded := New(40)
	require.NoError(t, loaded.FetchFrom(f))
	assert.Equal(t, bm.Allocated(), loaded.Allocated())
	assert.Equal(t, bm.CountFree(), loaded.CountFree())
}

func TestFetchFrom_Fail_ShortFile(t *testing.T) {
	t.Parallel()

	bm := New(64)
	f := &memFile{data: bytes.Repeat([]byte{0xFF}, 2)}

	require.ErrorIs(t, bm.FetchFrom(f), io.EOF)
}
