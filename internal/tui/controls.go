package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fakeyudi/clicktrail/internal/control"
	"github.com/fakeyudi/clicktrail/internal/report"
)

// Lifecycle is the capture lifecycle driven by the controls.
type Lifecycle interface {
	Start(ctx context.Context) error
	Stop()
	Export(ctx context.Context, format string) (string, error)
	Status() control.Status
}

type keyMap struct {
	Start  key.Binding
	Stop   key.Binding
	Export key.Binding
	Quit   key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Start, k.Stop, k.Export, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

func newKeyMap() keyMap {
	return keyMap{
		Start:  key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "start")),
		Stop:   key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "stop")),
		Export: key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "export")),
		Quit:   key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

var (
	armedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	idleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("245"))
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

const refreshInterval = 250 * time.Millisecond

type (
	tickMsg     struct{}
	startedMsg  struct{ err error }
	exportedMsg struct {
		path string
		err  error
	}
)

// Controls is the interactive recording front end.
type Controls struct {
	lc        Lifecycle
	format    string
	url       string
	keys      keyMap
	help      help.Model
	status    control.Status
	exporting bool
	message   string
	failed    bool
	width     int
}

// NewControls returns controls for lc exporting in format.
func NewControls(lc Lifecycle, url, format string) Controls {
	return Controls{
		lc:     lc,
		url:    url,
		format: format,
		keys:   newKeyMap(),
		help:   help.New(),
		status: lc.Status(),
	}
}

func tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(time.Time) tea.Msg { return tickMsg{} })
}

func (m Controls) Init() tea.Cmd { return tick() }

func (m Controls) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit

		case key.Matches(msg, m.keys.Start):
			lc := m.lc
			return m, func() tea.Msg { return startedMsg{err: lc.Start(context.Background())} }

		case key.Matches(msg, m.keys.Stop):
			if !m.status.Armed {
				return m, nil
			}
			m.lc.Stop()
			m.status = m.lc.Status()
			m.setMessage("capture stopped", false)
			return m, nil

		case key.Matches(msg, m.keys.Export):
			if !m.status.Exportable || m.exporting {
				return m, nil
			}
			m.exporting = true
			m.setMessage("exporting…", false)
			lc, format := m.lc, m.format
			return m, func() tea.Msg {
				path, err := lc.Export(context.Background(), format)
				return exportedMsg{path: path, err: err}
			}
		}

	case startedMsg:
		m.status = m.lc.Status()
		if msg.err != nil {
			m.setMessage(msg.err.Error(), true)
		} else {
			m.setMessage("capture started", false)
		}
		return m, nil

	case exportedMsg:
		m.exporting = false
		m.status = m.lc.Status()
		switch {
		case errors.Is(msg.err, report.ErrNothingToExport):
			m.setMessage("nothing to export", false)
		case msg.err != nil:
			m.setMessage(msg.err.Error(), true)
		default:
			m.setMessage("report written to "+msg.path, false)
		}
		return m, nil

	case tickMsg:
		m.status = m.lc.Status()
		return m, tick()

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
	}
	return m, nil
}

func (m *Controls) setMessage(s string, failed bool) {
	m.message, m.failed = s, failed
}

func (m Controls) View() string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render("  clicktrail  "+m.url) + "\n\n")

	state := idleStyle.Render("● idle")
	if m.status.Armed {
		state = armedStyle.Render("● recording")
	}
	row(&sb, "State:", state)
	if m.status.SessionID != "" {
		row(&sb, "Session:", m.status.SessionID)
		row(&sb, "Start Path:", m.status.StartPath)
	}
	row(&sb, "Entries:", fmt.Sprintf("%d", m.status.Entries))
	if m.status.Pending > 0 {
		row(&sb, "Pending:", fmt.Sprintf("%d", m.status.Pending))
	}
	if m.status.LastExport != "" {
		row(&sb, "Last Export:", m.status.LastExport)
	}

	if m.message != "" {
		style := okStyle
		if m.failed {
			style = errStyle
		}
		sb.WriteString("\n  " + style.Render(m.message) + "\n")
	}

	keys := m.keys
	keys.Stop.SetEnabled(m.status.Armed)
	keys.Export.SetEnabled(m.status.Exportable && !m.exporting)
	sb.WriteString("\n  " + m.help.View(keys) + "\n")
	return sb.String()
}

// RunControls starts the recording controls and blocks until the user quits.
func RunControls(lc Lifecycle, url, format string) error {
	p := tea.NewProgram(NewControls(lc, url, format), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
