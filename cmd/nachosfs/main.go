// Command nachosfs creates, inspects and edits nachosfs volume images.
package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/lmittmann/tint"
)

const (
	stackTraceBufMax = 1 << 24

	terminalHandler = "terminal"
	uiHandler       = "ui"
)

//nolint:gochecknoglobals
var (
	ExitCode = 0
	Version  string

	logLevel = new(slog.LevelVar)
)

func newTintHandler(w io.Writer) slog.Handler {
	return tint.NewHandler(w, &tint.Options{
		Level:      logLevel,
		TimeFormat: time.Kitchen,
	})
}

func setupLogging(manager *SlogManager) {
	manager.AddHandler(terminalHandler, newTintHandler(os.Stderr))
	slog.SetDefault(slog.New(manager))
}

func setupSignalHandlers(cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	go func() {
		<-sigChan
		cancel()
	}()

	sigChan2 := make(chan os.Signal, 1)
	signal.Notify(sigChan2, syscall.SIGUSR1)
	go func() {
		for range sigChan2 {
			buf := make([]byte, stackTraceBufMax)
			stacklen := runtime.Stack(buf, true)
			os.Stderr.Write(buf[:stacklen]) //nolint:errcheck
		}
	}()
}

func main() {
	defer func() {
		os.Exit(ExitCode)
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	slogManager := NewSlogManager()
	setupLogging(slogManager)
	setupSignalHandlers(cancel)

	app := NewApp(slogManager, os.Stdout)

	if err := app.CLI().RunContext(ctx, os.Args); err != nil {
		slog.Error("Command failed.", "err", err)
		ExitCode = 1
	}
}
