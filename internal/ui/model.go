package ui

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/desertwitch/nachosfs/internal/directory"
	"github.com/desertwitch/nachosfs/internal/disk"
	"github.com/dustin/go-humanize"
)

const maxLogLines = 100

//nolint:gochecknoglobals
var (
	// titleStyle defines the style for a panel's title.
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	// borderStyle defines the style for a panel's borders.
	borderStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#7D56F4"))

	// infoStyle defines the style for a panel's text.
	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA"))

	// cursorStyle highlights the selected entry.
	cursorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7D56F4"))

	// helpStyle defines the style for the help panel's text.
	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262")).
			Padding(0, 1)
)

// DirectoryMsg is a [tea.Msg] carrying a freshly loaded directory.
type DirectoryMsg struct {
	path    string
	entries []directory.Listing
	free    int
	err     error
}

// TeaModel is the principal [tea.Model] for the volume browser.
type TeaModel struct {
	width  int
	height int

	cancel context.CancelFunc

	uiHandler *Handler
	volume    volumeProvider

	fullWidthWithBorders int

	cwd     string
	entries []directory.Listing
	cursor  int
	free    int
	err     error

	logsViewport viewport.Model
	logs         []string

	ready bool
}

// NewTeaModel returns an initial new [TeaModel] positioned at the root.
//
//nolint:mnd
func NewTeaModel(uiHandler *Handler, volume volumeProvider, cancel context.CancelFunc) TeaModel {
	return TeaModel{
		uiHandler:    uiHandler,
		volume:       volume,
		cwd:          "/",
		logsViewport: viewport.New(80, 10),
		logs:         make([]string, 0, maxLogLines),
		cancel:       cancel,
	}
}

// Init initializes the model within a [tea.Program].
func (m TeaModel) Init() tea.Cmd {
	return tea.Batch(
		tea.EnterAltScreen,
		loadDirectory(m.volume, m.cwd),
	)
}

// loadDirectory produces a [tea.Cmd] which lists dir and counts the free
// sectors, returning both as a [DirectoryMsg].
func loadDirectory(volume volumeProvider, dir string) tea.Cmd {
	return func() tea.Msg {
		msg := DirectoryMsg{path: dir}

		msg.entries, msg.err = volume.Listing(dirPath(dir), false)
		if msg.err == nil {
			msg.free, msg.err = volume.CountFree()
		}

		return msg
	}
}

// dirPath turns a directory into the form that resolves to the directory
// itself.
func dirPath(dir string) string {
	if strings.HasSuffix(dir, "/") {
		return dir
	}

	return dir + "/"
}

// Update is the principal message handling method of the model.
//
//nolint:mnd,ireturn
func (m TeaModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.cancel()

			return m, tea.Quit
		case "q":
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.entries)-1 {
				m.cursor++
			}
		case "enter":
			if m.cursor < len(m.entries) && m.entries[m.cursor].Kind == directory.KindDirectory {
				cmds = append(cmds, loadDirectory(m.volume, path.Join(m.cwd, m.entries[m.cursor].Name)))
			}
		case "backspace":
			if m.cwd != "/" {
				cmds = append(cmds, loadDirectory(m.volume, path.Dir(m.cwd)))
			}
		case "r":
			cmds = append(cmds, loadDirectory(m.volume, m.cwd))
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		m.fullWidthWithBorders = m.width - 2

		// The listing takes about 60% of the height.
		upperHeight := m.height * 3 / 5
		lowerHeight := m.height - upperHeight

		m.logsViewport.Width = m.fullWidthWithBorders
		m.logsViewport.Height = max(lowerHeight-4, 1)
		m.refreshLogs()

		if !m.ready {
			m.ready = true
			m.uiHandler.Ready.Store(true)
		}

	case DirectoryMsg:
		m.err = msg.err
		if msg.err == nil {
			if msg.path != m.cwd {
				m.cursor = 0
			}
			m.cwd = msg.path
			m.entries = msg.entries
			m.free = msg.free
			m.cursor = min(m.cursor, max(len(m.entries)-1, 0))
		}

	case LogMsg:
		if len(m.logs) >= maxLogLines {
			m.logs = m.logs[1:]
		}
		m.logs = append(m.logs, string(msg))
		m.refreshLogs()
	}

	m.logsViewport, cmd = m.logsViewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

func (m *TeaModel) refreshLogs() {
	if len(m.logs) == 0 {
		return
	}

	logs := lipgloss.NewStyle().
		Width(m.logsViewport.Width).
		Render(strings.TrimSuffix(strings.Join(m.logs, ""), "\n"))

	m.logsViewport.SetContent(logs)
	m.logsViewport.GotoBottom()
}

// View is the principal rendering function of the model.
func (m TeaModel) View() string {
	if !m.ready {
		return "Loading the volume..."
	}

	var list strings.Builder
	for i, e := range m.entries {
		name := e.Name
		if e.Kind == directory.KindDirectory {
			name += "/"
		}

		line := fmt.Sprintf("  %-12s %-4s sector %d", name, e.Kind, e.Sector)
		if i == m.cursor {
			line = cursorStyle.Render("> " + line[2:])
		}
		list.WriteString(line + "\n")
	}

	if len(m.entries) == 0 {
		list.WriteString("  (empty)\n")
	}

	if m.err != nil {
		list.WriteString("\nError: " + m.err.Error() + "\n")
	}

	total := m.volume.NumSectors()
	footer := fmt.Sprintf("Free: %s of %s (%d/%d sectors)",
		humanize.Bytes(uint64(m.free)*disk.SectorSize), //nolint:gosec
		humanize.Bytes(uint64(total)*disk.SectorSize),  //nolint:gosec
		m.free, total,
	)

	listSection := borderStyle.
		Width(m.fullWidthWithBorders).
		Render(
			lipgloss.JoinVertical(
				lipgloss.Left,
				titleStyle.Width(m.fullWidthWithBorders).Render("Volume: "+m.cwd),
				infoStyle.Width(m.fullWidthWithBorders).Render(strings.TrimSuffix(list.String(), "\n")),
				"",
				infoStyle.Width(m.fullWidthWithBorders).Render(footer),
			),
		)

	logsSection := borderStyle.
		Width(m.fullWidthWithBorders).
		Render(
			lipgloss.JoinVertical(
				lipgloss.Left,
				titleStyle.Width(m.fullWidthWithBorders).Render("Log"),
				lipgloss.NewStyle().Width(m.fullWidthWithBorders).Render(m.logsViewport.View()),
			),
		)

	helpSection := helpStyle.
		Width(m.fullWidthWithBorders).
		Render("up/down: select • enter: open • backspace: parent • r: refresh • q: quit")

	return lipgloss.JoinVertical(
		lipgloss.Left,
		listSection,
		logsSection,
		helpSection,
	)
}
