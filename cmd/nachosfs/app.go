package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"

	"github.com/desertwitch/nachosfs/internal/configuration"
	"github.com/desertwitch/nachosfs/internal/disk"
	"github.com/desertwitch/nachosfs/internal/filesys"
	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v2"
)

// App holds the state shared by all commands of one invocation.
type App struct {
	slogManager *SlogManager
	out         io.Writer

	cfg         *configuration.Config
	cpuProfiler *CPUProfiler
}

func NewApp(slogManager *SlogManager, out io.Writer) *App {
	return &App{
		slogManager: slogManager,
		out:         out,
	}
}

// CLI returns the command-line definition of the application.
func (app *App) CLI() *cli.App {
	return &cli.App{
		Name:    "nachosfs",
		Usage:   "manage nachosfs volume images",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "image",
				Aliases: []string{"i"},
				Usage:   "path of the volume image (overrides " + configuration.KeyImage + ")",
			},
			&cli.StringSliceFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "env-style configuration file, may be repeated",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "log at debug level",
			},
			&cli.StringFlag{
				Name:  "cpuprofile",
				Usage: "write cpu profile to file",
			},
			&cli.StringFlag{
				Name:  "memprofile",
				Usage: "write allocation profile to file",
			},
		},
		Before:   app.before,
		After:    app.after,
		Commands: app.commands(),
	}
}

func (app *App) before(c *cli.Context) error {
	cfgHandler := configuration.NewHandler(&configuration.GodotenvProvider{}, &configuration.EnvconfigProvider{})

	cfg, err := cfgHandler.Load(c.StringSlice("config")...)
	if err != nil {
		return fmt.Errorf("(app-config) %w", err)
	}

	if c.IsSet("image") {
		cfg.Image = c.String("image")
	}

	level, err := cfg.SlogLevel()
	if err != nil {
		return fmt.Errorf("(app-config) %w", err)
	}

	if c.Bool("debug") {
		level = slog.LevelDebug
	}
	logLevel.Set(level)

	app.cfg = cfg
	app.cpuProfiler = NewCPUProfiler(c.String("cpuprofile"))

	return nil
}

func (app *App) after(c *cli.Context) error {
	app.cpuProfiler.Stop()
	writeAllocProfile(c.String("memprofile"))

	return nil
}

// withVolume mounts the configured image for the duration of fn.
func (app *App) withVolume(fn func(vol *filesys.Manager, c *cli.Context) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		img, err := disk.OpenImage(app.cfg.Image)
		if err != nil {
			return fmt.Errorf("(app-mount) %w", err)
		}
		defer func() {
			if err := img.Close(); err != nil {
				slog.Error("Failed to close image.", "path", app.cfg.Image, "err", err)
			}
		}()

		counter := disk.NewCounter(img)

		vol, err := filesys.Mount(counter, app.cfg.FSGeometry())
		if err != nil {
			return fmt.Errorf("(app-mount) %s: %w", app.cfg.Image, err)
		}

		err = fn(vol, c)

		stats := counter.Stats()
		slog.Debug("Device transfers",
			"reads", stats.Reads,
			"writes", stats.Writes,
			"read", humanize.Bytes(stats.BytesRead),
			"written", humanize.Bytes(stats.BytesWritten),
		)

		return err
	}
}

func (app *App) format(c *cli.Context) error {
	if _, err := os.Stat(app.cfg.Image); err == nil && !c.Bool("force") {
		return fmt.Errorf("(app-format) %w: %s", ErrImageExists, app.cfg.Image)
	} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("(app-format) %w", err)
	}

	cfg := *app.cfg
	if c.IsSet("sectors") {
		cfg.TotalSectors = c.Int("sectors")
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("(app-format) %w", err)
	}

	img, err := disk.CreateImage(cfg.Image, cfg.TotalSectors)
	if err != nil {
		return fmt.Errorf("(app-format) %w", err)
	}
	defer img.Close()

	vol, err := filesys.Format(img, cfg.FSGeometry())
	if err != nil {
		return fmt.Errorf("(app-format) %w", err)
	}

	free, err := vol.CountFree()
	if err != nil {
		return fmt.Errorf("(app-format) %w", err)
	}

	fmt.Fprintf(app.out, "Formatted %s: %s, %s free\n",
		cfg.Image,
		humanize.Bytes(uint64(cfg.TotalSectors)*disk.SectorSize), //nolint:gosec
		humanize.Bytes(uint64(free)*disk.SectorSize),    //nolint:gosec
	)

	return nil
}
