package configuration

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGeneric struct {
	envMap map[string]string
	err    error
}

func (f *fakeGeneric) Read(_ ...string) (map[string]string, error) {
	return f.envMap, f.err
}

type fakeEnv struct {
	apply func(cfg *Config)
	err   error
}

func (f *fakeEnv) Process(_ string, spec any) error {
	if f.apply != nil {
		f.apply(spec.(*Config)) //nolint:forcetypeassert
	}

	return f.err
}

func TestLoad_Defaults(t *testing.T) {
	t.Parallel()

	h := NewHandler(&fakeGeneric{}, &fakeEnv{})

	cfg, err := h.Load()
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, 524288, cfg.TotalSectors)
	assert.Equal(t, 64, cfg.NumDirEntries)
	assert.Equal(t, 20, cfg.MaxOpenFiles)
}

func TestLoad_FileThenEnv(t *testing.T) {
	t.Parallel()

	h := NewHandler(
		&fakeGeneric{envMap: map[string]string{
			KeyTotalSectors: "4096",
			KeyDirEntries:   "16",
			KeyImage:        "/tmp/vol.img",
			KeyLogLevel:     "debug",
		}},
		&fakeEnv{apply: func(cfg *Config) { cfg.NumDirEntries = 32 }},
	)

	cfg, err := h.Load("nachosfs.env")
	require.NoError(t, err)

	assert.Equal(t, 4096, cfg.TotalSectors)
	assert.Equal(t, 32, cfg.NumDirEntries, "environment wins over the file")
	assert.Equal(t, "/tmp/vol.img", cfg.Image)
	assert.Equal(t, 20, cfg.MaxOpenFiles)

	level, err := cfg.SlogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)

	geo := cfg.FSGeometry()
	assert.Equal(t, 32, geo.NumDirEntries)
	assert.Equal(t, 20, geo.MaxOpenFiles)
}

func TestLoad_Fail(t *testing.T) {
	t.Parallel()

	readErr := errors.New("read failure")
	envErr := errors.New("env failure")

	tests := []struct {
		name    string
		generic *fakeGeneric
		env     *fakeEnv
		wantErr error
	}{
		{"ReadError", &fakeGeneric{err: readErr}, &fakeEnv{}, readErr},
		{"EnvError", &fakeGeneric{}, &fakeEnv{err: envErr}, envErr},
		{"NotANumber", &fakeGeneric{envMap: map[string]string{KeyMaxOpenFiles: "many"}}, &fakeEnv{}, ErrInvalidValue},
		{"Negative", &fakeGeneric{envMap: map[string]string{KeyTotalSectors: "-8"}}, &fakeEnv{}, ErrInvalidValue},
		{"NotMultipleOf8", &fakeGeneric{envMap: map[string]string{KeyTotalSectors: "1001"}}, &fakeEnv{}, ErrInvalidGeometry},
		{"TooSmall", &fakeGeneric{envMap: map[string]string{KeyTotalSectors: "8"}}, &fakeEnv{}, ErrInvalidGeometry},
		{"ZeroEntries", &fakeGeneric{envMap: map[string]string{KeyDirEntries: "0"}}, &fakeEnv{}, ErrInvalidGeometry},
		{"BadLevel", &fakeGeneric{envMap: map[string]string{KeyLogLevel: "loud"}}, &fakeEnv{}, ErrInvalidValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := NewHandler(tt.generic, tt.env).Load("x.env")
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestMinSectors(t *testing.T) {
	t.Parallel()

	// 512-sector double-indirect bitmap file (+33), 8-sector root directory
	assert.Equal(t, 2+512+33+8, Default().MinSectors())

	g := Geometry{TotalSectors: 256, NumDirEntries: 8, MaxOpenFiles: 1}
	assert.Equal(t, 2+1+1, g.MinSectors())
}

func TestLoad_RealProviders(t *testing.T) {
	file := filepath.Join(t.TempDir(), "nachosfs.env")
	require.NoError(t, os.WriteFile(file, []byte("NACHOSFS_TOTAL_SECTORS=2048\nNACHOSFS_IMAGE=disk.img\n"), 0o600))

	t.Setenv(KeyMaxOpenFiles, "5")
	t.Setenv(KeyImage, "override.img")

	cfg, err := NewHandler(&GodotenvProvider{}, &EnvconfigProvider{}).Load(file)
	require.NoError(t, err)

	assert.Equal(t, 2048, cfg.TotalSectors)
	assert.Equal(t, 5, cfg.MaxOpenFiles)
	assert.Equal(t, "override.img", cfg.Image)
	assert.Equal(t, 64, cfg.NumDirEntries)
}
