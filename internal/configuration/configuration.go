// Package configuration loads the volume geometry and runtime settings:
// defaults, then an optional env-style file, then the environment.
package configuration

import (
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/desertwitch/nachosfs/internal/bitmap"
	"github.com/desertwitch/nachosfs/internal/directory"
	"github.com/desertwitch/nachosfs/internal/filesys"
	"github.com/desertwitch/nachosfs/internal/header"
)

const (
	// EnvPrefix prefixes every configuration key.
	EnvPrefix = "NACHOSFS"

	KeyImage        = EnvPrefix + "_IMAGE"
	KeyTotalSectors = EnvPrefix + "_TOTAL_SECTORS"
	KeyDirEntries   = EnvPrefix + "_DIR_ENTRIES"
	KeyMaxOpenFiles = EnvPrefix + "_MAX_OPEN_FILES"
	KeyLogLevel     = EnvPrefix + "_LOG_LEVEL"

	DefaultImage        = "nachosfs.img"
	DefaultTotalSectors = 32 * 16384
	DefaultLogLevel     = "info"
)

// Geometry is the shape of a volume.
type Geometry struct {
	TotalSectors  int `envconfig:"TOTAL_SECTORS"  yaml:"total_sectors"`
	NumDirEntries int `envconfig:"DIR_ENTRIES"    yaml:"dir_entries"`
	MaxOpenFiles  int `envconfig:"MAX_OPEN_FILES" yaml:"max_open_files"`
}

// Config is the principal structure holding the application configuration.
type Config struct {
	Geometry

	Image    string `envconfig:"IMAGE"     yaml:"image"`
	LogLevel string `envconfig:"LOG_LEVEL" yaml:"log_level"`
}

// Default returns a pointer to a new [Config] holding the stock values.
func Default() *Config {
	return &Config{
		Geometry: Geometry{
			TotalSectors:  DefaultTotalSectors,
			NumDirEntries: filesys.DefaultNumDirEntries,
			MaxOpenFiles:  filesys.DefaultMaxOpenFiles,
		},
		Image:    DefaultImage,
		LogLevel: DefaultLogLevel,
	}
}

type genericConfigProvider interface {
	Read(filenames ...string) (envMap map[string]string, err error)
}

type envProvider interface {
	Process(prefix string, spec any) error
}

type Handler struct {
	GenericHandler genericConfigProvider
	EnvHandler     envProvider
}

func NewHandler(genericHandler genericConfigProvider, envHandler envProvider) *Handler {
	return &Handler{
		GenericHandler: genericHandler,
		EnvHandler:     envHandler,
	}
}

// Load builds the configuration from the defaults, the given configuration
// files and the environment, in that order of increasing precedence.
func (c *Handler) Load(filenames ...string) (*Config, error) {
	cfg := Default()

	if len(filenames) > 0 {
		envMap, err := c.ReadGeneric(filenames...)
		if err != nil {
			return nil, fmt.Errorf("(config-load) %w", err)
		}

		if err := c.apply(cfg, envMap); err != nil {
			return nil, fmt.Errorf("(config-load) %w", err)
		}
	}

	if err := c.EnvHandler.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("(config-load) %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("(config-load) %w", err)
	}

	slog.Debug("Loaded configuration",
		"image", cfg.Image,
		"sectors", cfg.TotalSectors,
		"entries", cfg.NumDirEntries,
		"openFiles", cfg.MaxOpenFiles,
		"files", filenames,
	)

	return cfg, nil
}

func (c *Handler) apply(cfg *Config, envMap map[string]string) error {
	if v := c.MapKeyToString(envMap, KeyImage); v != "" {
		cfg.Image = v
	}

	if v := c.MapKeyToString(envMap, KeyLogLevel); v != "" {
		cfg.LogLevel = v
	}

	ints := []struct {
		key string
		dst *int
	}{
		{KeyTotalSectors, &cfg.TotalSectors},
		{KeyDirEntries, &cfg.NumDirEntries},
		{KeyMaxOpenFiles, &cfg.MaxOpenFiles},
	}

	for _, e := range ints {
		if _, exists := envMap[e.key]; !exists {
			continue
		}

		v := c.MapKeyToInt(envMap, e.key)
		if v < 0 {
			return fmt.Errorf("%w: %s=%q", ErrInvalidValue, e.key, envMap[e.key])
		}
		*e.dst = v
	}

	return nil
}

func (c *Handler) ReadGeneric(filenames ...string) (map[string]string, error) {
	return c.GenericHandler.Read(filenames...)
}

func (c *Handler) MapKeyToString(envMap map[string]string, key string) string {
	if value, exists := envMap[key]; exists {
		return value
	}

	return ""
}

func (c *Handler) MapKeyToInt(envMap map[string]string, key string) int {
	value := c.MapKeyToString(envMap, key)
	if value == "" {
		return -1
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		return -1
	}

	return intValue
}

// Validate rejects geometries no volume can be formatted with.
func (cfg *Config) Validate() error {
	if cfg.Image == "" {
		return fmt.Errorf("%w: empty image path", ErrInvalidValue)
	}

	if cfg.TotalSectors <= 0 || cfg.TotalSectors%8 != 0 || cfg.TotalSectors > math.MaxUint32 {
		return fmt.Errorf("%w: %s=%d (positive multiple of 8 required)", ErrInvalidGeometry, KeyTotalSectors, cfg.TotalSectors)
	}

	if cfg.NumDirEntries <= 0 {
		return fmt.Errorf("%w: %s=%d", ErrInvalidGeometry, KeyDirEntries, cfg.NumDirEntries)
	}

	if cfg.MaxOpenFiles <= 0 {
		return fmt.Errorf("%w: %s=%d", ErrInvalidGeometry, KeyMaxOpenFiles, cfg.MaxOpenFiles)
	}

	if dirBytes := directory.FileSize(cfg.NumDirEntries); dirBytes > header.MaxFileSize {
		return fmt.Errorf("%w: %s=%d", ErrInvalidGeometry, KeyDirEntries, cfg.NumDirEntries)
	}

	if need := cfg.MinSectors(); cfg.TotalSectors < need {
		return fmt.Errorf("%w: %d sectors cannot hold the volume metadata (%d needed)", ErrInvalidGeometry, cfg.TotalSectors, need)
	}

	if _, err := cfg.SlogLevel(); err != nil {
		return err
	}

	return nil
}

// MinSectors is the number of sectors an empty volume of this geometry
// occupies.
func (g Geometry) MinSectors() int {
	fileSectors := func(size int) int {
		n := header.SectorsFor(size)

		return n + header.StructuralCount(header.SizeToTier(n))
	}

	return 2 + fileSectors(bitmap.FileSize(g.TotalSectors)) + fileSectors(directory.FileSize(g.NumDirEntries)) //nolint:mnd
}

// FSGeometry returns the table sizes used by the file system manager.
func (g Geometry) FSGeometry() filesys.Geometry {
	return filesys.Geometry{
		NumDirEntries: g.NumDirEntries,
		MaxOpenFiles:  g.MaxOpenFiles,
	}
}

// SlogLevel parses the configured log level.
func (cfg *Config) SlogLevel() (slog.Level, error) {
	var level slog.Level

	if err := level.UnmarshalText([]byte(strings.ToUpper(cfg.LogLevel))); err != nil {
		return slog.LevelInfo, fmt.Errorf("%w: %s=%q", ErrInvalidValue, KeyLogLevel, cfg.LogLevel)
	}

	return level, nil
}
