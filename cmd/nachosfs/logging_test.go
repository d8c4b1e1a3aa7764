package main

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSlogManager_FanOut_Success(t *testing.T) {
	t.Parallel()

	var a, b bytes.Buffer

	m := NewSlogManager()
	m.AddHandler("a", slog.NewTextHandler(&a, nil))
	m.AddHandler("b", slog.NewTextHandler(&b, &slog.HandlerOptions{Level: slog.LevelWarn}))

	logger := slog.New(m)
	logger.Info("hello", "path", "/x")

	require.Contains(t, a.String(), "msg=hello")
	require.Contains(t, a.String(), "path=/x")
	require.Empty(t, b.String())

	logger.Warn("careful")
	require.Contains(t, b.String(), "msg=careful")
}

func TestSlogManager_SwapHandler_Success(t *testing.T) {
	t.Parallel()

	var terminal, ui bytes.Buffer

	m := NewSlogManager()
	m.AddHandler(terminalHandler, slog.NewTextHandler(&terminal, nil))

	m.AddHandler(uiHandler, slog.NewTextHandler(&ui, nil))
	m.RemoveHandler(terminalHandler)

	slog.New(m).Info("moved")
	require.Contains(t, ui.String(), "msg=moved")
	require.Empty(t, terminal.String())
}

func TestSlogManager_Enabled_NoHandlers(t *testing.T) {
	t.Parallel()

	m := NewSlogManager()
	require.False(t, m.Enabled(t.Context(), slog.LevelError))
}
