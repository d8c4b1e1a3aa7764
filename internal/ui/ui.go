// Package ui implements an interactive volume browser using [tea].
package ui

import (
	"context"
	"fmt"
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertwitch/nachosfs/internal/directory"
)

type volumeProvider interface {
	Listing(path string, recursive bool) ([]directory.Listing, error)
	CountFree() (int, error)
	NumSectors() int
}

// Handler is the principal implementation of a user interface [Handler].
type Handler struct {
	program *tea.Program

	LogWriter *TeaLogWriter

	Ready  atomic.Bool
	Failed atomic.Bool
}

// NewHandler returns a pointer to a new user interface [Handler] browsing
// volume.
func NewHandler(ctx context.Context, cancel context.CancelFunc, volume volumeProvider) *Handler {
	handler := &Handler{}

	model := NewTeaModel(handler, volume, cancel)
	handler.program = tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	handler.LogWriter = NewTeaLogWriter(handler.program)

	return handler
}

// Launch runs the [tea.Program] until the user quits.
func (uiHandler *Handler) Launch() error {
	defer uiHandler.LogWriter.Stop()

	if _, err := uiHandler.program.Run(); err != nil {
		uiHandler.Failed.Store(true)

		return fmt.Errorf("(ui) %w", err)
	}

	return nil
}
