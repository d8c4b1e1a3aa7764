package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/desertwitch/nachosfs/internal/directory"
	"github.com/desertwitch/nachosfs/internal/disk"
	"github.com/desertwitch/nachosfs/internal/filesys"
	"github.com/desertwitch/nachosfs/internal/fsio"
	"github.com/desertwitch/nachosfs/internal/syscalls"
	"github.com/desertwitch/nachosfs/internal/ui"
	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v2"
)

func (app *App) commands() []*cli.Command {
	return []*cli.Command{
		{
			Name:   "format",
			Usage:  "create the image and lay down an empty volume",
			Action: app.format,
			Flags: []cli.Flag{
				&cli.BoolFlag{Name: "force", Aliases: []string{"f"}, Usage: "overwrite an existing image"},
				&cli.IntFlag{Name: "sectors", Aliases: []string{"n"}, Usage: "number of sectors (overrides NACHOSFS_TOTAL_SECTORS)"},
			},
		},
		{
			Name:      "create",
			Usage:     "create a zero-filled file of fixed size",
			ArgsUsage: "PATH",
			Action:    app.withVolume(app.create),
			Flags: []cli.Flag{
				&cli.IntFlag{Name: "size", Aliases: []string{"s"}, Usage: "file size in bytes", Required: true},
			},
		},
		{
			Name:      "mkdir",
			Usage:     "create a directory",
			ArgsUsage: "PATH",
			Action:    app.withVolume(app.mkdir),
		},
		{
			Name:      "rm",
			Usage:     "remove a file or an empty directory",
			ArgsUsage: "PATH",
			Action:    app.withVolume(app.remove),
			Flags: []cli.Flag{
				&cli.BoolFlag{Name: "recursive", Aliases: []string{"r"}, Usage: "remove directories and their contents"},
			},
		},
		{
			Name:      "ls",
			Usage:     "list a directory",
			ArgsUsage: "[PATH]",
			Action:    app.withVolume(app.list),
			Flags: []cli.Flag{
				&cli.BoolFlag{Name: "recursive", Aliases: []string{"r"}, Usage: "list subdirectories"},
			},
		},
		{
			Name:      "cat",
			Usage:     "print the contents of a file",
			ArgsUsage: "PATH",
			Action:    app.withVolume(app.cat),
		},
		{
			Name:      "write",
			Usage:     "overwrite bytes inside a file",
			ArgsUsage: "PATH TEXT",
			Action:    app.withVolume(app.write),
			Flags: []cli.Flag{
				&cli.IntFlag{Name: "offset", Aliases: []string{"o"}, Usage: "byte offset to write at"},
			},
		},
		{
			Name:      "put",
			Usage:     "copy a host file into the volume",
			ArgsUsage: "HOSTPATH PATH",
			Action:    app.withVolume(app.put),
		},
		{
			Name:      "get",
			Usage:     "copy a file out of the volume",
			ArgsUsage: "PATH HOSTPATH",
			Action:    app.withVolume(app.get),
		},
		{
			Name:   "print",
			Usage:  "dump the volume metadata",
			Action: app.withVolume(app.print),
		},
		{
			Name:   "inspect",
			Usage:  "report every file with its tier and sector usage",
			Action: app.withVolume(app.inspect),
			Flags: []cli.Flag{
				&cli.BoolFlag{Name: "yaml", Usage: "emit the report as YAML"},
			},
		},
		{
			Name:   "df",
			Usage:  "show free space",
			Action: app.withVolume(app.df),
		},
		{
			Name:   "browse",
			Usage:  "browse the volume interactively",
			Action: app.withVolume(app.browse),
		},
	}
}

func args(c *cli.Context, n int) ([]string, error) {
	if c.Args().Len() != n {
		return nil, fmt.Errorf("%w: %s wants %d, got %d", ErrUsage, c.Command.Name, n, c.Args().Len())
	}

	return c.Args().Slice(), nil
}

func (app *App) create(vol *filesys.Manager, c *cli.Context) error {
	a, err := args(c, 1)
	if err != nil {
		return err
	}

	if err := vol.Create(a[0], c.Int("size"), directory.KindFile); err != nil {
		return fmt.Errorf("(app-create) %w", err)
	}

	return nil
}

func (app *App) mkdir(vol *filesys.Manager, c *cli.Context) error {
	a, err := args(c, 1)
	if err != nil {
		return err
	}

	if err := vol.Create(a[0], directory.FileSize(vol.Geometry().NumDirEntries), directory.KindDirectory); err != nil {
		return fmt.Errorf("(app-mkdir) %w", err)
	}

	return nil
}

func (app *App) remove(vol *filesys.Manager, c *cli.Context) error {
	a, err := args(c, 1)
	if err != nil {
		return err
	}

	if c.Bool("recursive") {
		err = vol.RecursiveRemove(a[0])
	} else {
		err = vol.Remove(a[0])
	}

	if err != nil {
		return fmt.Errorf("(app-rm) %w", err)
	}

	return nil
}

func (app *App) list(vol *filesys.Manager, c *cli.Context) error {
	p := "/"
	if c.Args().Len() > 1 {
		return fmt.Errorf("%w: ls wants at most 1, got %d", ErrUsage, c.Args().Len())
	} else if c.Args().Len() == 1 {
		p = c.Args().First()
	}

	if err := vol.List(app.out, p, c.Bool("recursive")); err != nil {
		return fmt.Errorf("(app-ls) %w", err)
	}

	return nil
}

func (app *App) cat(vol *filesys.Manager, c *cli.Context) error {
	a, err := args(c, 1)
	if err != nil {
		return err
	}

	id, err := vol.OpenReturnID(a[0])
	if err != nil {
		return fmt.Errorf("(app-cat) %w", err)
	}
	defer vol.Close(id) //nolint:errcheck

	buf := make([]byte, 16*disk.SectorSize) //nolint:mnd
	for {
		n, err := vol.Read(id, buf)
		if n > 0 {
			if _, werr := app.out.Write(buf[:n]); werr != nil {
				return fmt.Errorf("(app-cat) %w", werr)
			}
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("(app-cat) %w", err)
		}
		if n == 0 {
			return nil
		}
	}
}

func (app *App) write(vol *filesys.Manager, c *cli.Context) error {
	a, err := args(c, 2) //nolint:mnd
	if err != nil {
		return err
	}

	id, err := vol.OpenReturnID(a[0])
	if err != nil {
		return fmt.Errorf("(app-write) %w", err)
	}
	defer vol.Close(id) //nolint:errcheck

	if _, err := vol.Seek(id, int64(c.Int("offset"))); err != nil {
		return fmt.Errorf("(app-write) %w", err)
	}

	n, err := vol.Write(id, []byte(a[1]))
	if err != nil {
		return fmt.Errorf("(app-write) %d of %d bytes: %w", n, len(a[1]), err)
	}

	return nil
}

func (app *App) put(vol *filesys.Manager, c *cli.Context) error {
	a, err := args(c, 2) //nolint:mnd
	if err != nil {
		return err
	}

	n, err := fsio.NewHandler(vol, syscalls.RealOS{}).CopyIn(c.Context, a[0], a[1])
	if err != nil {
		return fmt.Errorf("(app-put) %w", err)
	}

	slog.Info("Copied into volume", "src", a[0], "dst", a[1], "size", humanize.Bytes(uint64(n))) //nolint:gosec

	return nil
}

func (app *App) get(vol *filesys.Manager, c *cli.Context) error {
	a, err := args(c, 2) //nolint:mnd
	if err != nil {
		return err
	}

	n, err := fsio.NewHandler(vol, syscalls.RealOS{}).CopyOut(c.Context, a[0], a[1])
	if err != nil {
		return fmt.Errorf("(app-get) %w", err)
	}

	slog.Info("Copied out of volume", "src", a[0], "dst", a[1], "size", humanize.Bytes(uint64(n))) //nolint:gosec

	return nil
}

func (app *App) print(vol *filesys.Manager, _ *cli.Context) error {
	if err := vol.Print(app.out); err != nil {
		return fmt.Errorf("(app-print) %w", err)
	}

	return nil
}

func (app *App) inspect(vol *filesys.Manager, c *cli.Context) error {
	report, err := vol.Inspect()
	if err != nil {
		return fmt.Errorf("(app-inspect) %w", err)
	}

	if c.Bool("yaml") {
		out, err := yaml.Marshal(report)
		if err != nil {
			return fmt.Errorf("(app-inspect) %w", err)
		}
		_, err = app.out.Write(out)

		return err
	}

	fmt.Fprintf(app.out, "%-32s %-4s %10s %-8s %8s %6s %6s\n", "PATH", "KIND", "SIZE", "TIER", "HEADER", "DATA", "INDEX")
	for _, f := range report.Files {
		fmt.Fprintf(app.out, "%-32s %-4s %10d %-8s %8d %6d %6d\n",
			f.Path, f.Kind, f.Size, f.Tier, f.HeaderSector, f.DataSectors, f.StructuralSectors)
	}

	return nil
}

func (app *App) df(vol *filesys.Manager, _ *cli.Context) error {
	free, err := vol.CountFree()
	if err != nil {
		return fmt.Errorf("(app-df) %w", err)
	}

	total := vol.NumSectors()
	used := total - free

	fmt.Fprintf(app.out, "Sectors: %d total, %d used, %d free\n", total, used, free)
	fmt.Fprintf(app.out, "Bytes:   %s total, %s used, %s free\n",
		humanize.Bytes(uint64(total)*disk.SectorSize), //nolint:gosec
		humanize.Bytes(uint64(used)*disk.SectorSize),  //nolint:gosec
		humanize.Bytes(uint64(free)*disk.SectorSize),  //nolint:gosec
	)

	return nil
}

// browse moves logging into the UI for as long as it runs.
func (app *App) browse(vol *filesys.Manager, c *cli.Context) error {
	ctx, cancel := context.WithCancel(c.Context)
	defer cancel()

	browser := ui.NewHandler(ctx, cancel, vol)

	app.slogManager.AddHandler(uiHandler, newTintHandler(browser.LogWriter))
	app.slogManager.RemoveHandler(terminalHandler)
	defer func() {
		app.slogManager.AddHandler(terminalHandler, newTintHandler(os.Stderr))
		app.slogManager.RemoveHandler(uiHandler)
	}()

	if err := browser.Launch(); err != nil {
		return fmt.Errorf("(app-browse) %w", err)
	}

	return nil
}
