// Package tui provides Bubble Tea front ends for recording sessions and
// for paging through exported reports.
package tui

import (
	"bytes"
	"fmt"
	"image/png"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fakeyudi/clicktrail/internal/report"
	"github.com/fakeyudi/clicktrail/internal/session"
)

// ── Styles ────────────

var (
	// Title bar at the very top
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("62")).
			Padding(0, 2)

	// Active page marker: bright
	activeTabStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	// Page position: muted
	inactiveTabStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("245")).
				Background(lipgloss.Color("235")).
				Padding(0, 1)

	// Section heading inside a page
	sectionHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86"))

	// Key=value label
	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("33")).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	timeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("178"))

	kindStyles = map[session.EventKind]lipgloss.Style{
		session.KindClick:       lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Bold(true),
		session.KindDoubleClick: lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true),
		session.KindContextMenu: lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true),
		session.KindDragOver:    lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true),
	}

	statusBarStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("245")).
			Padding(0, 1)
)

// ── Model ────────────────────

// Viewer pages through an exported report: a summary page followed by one
// page per entry.
type Viewer struct {
	report   *report.Report
	filename string
	page     int // 0 is the summary
	viewport viewport.Model
	width    int
	height   int
	ready    bool
}

// NewViewer creates a viewer for rep read from filename.
func NewViewer(rep *report.Report, filename string) Viewer {
	return Viewer{
		report:   rep,
		filename: filepath.Base(filename),
	}
}

func (m Viewer) pageCount() int { return len(m.report.Entries) + 1 }

// ── Bubble Tea interface ───────────────

func (m Viewer) Init() tea.Cmd { return nil }

func (m Viewer) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "tab", "l", "right", "n":
			m.setPage(m.page + 1)
			return m, nil
		case "shift+tab", "h", "left", "p":
			m.setPage(m.page - 1)
			return m, nil
		case "g", "home":
			m.setPage(0)
			return m, nil
		case "G", "end":
			m.setPage(m.pageCount() - 1)
			return m, nil
		}
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.initViewport()
		return m, nil
	}
	return m, nil
}

func (m Viewer) View() string {
	if !m.ready {
		return "Loading…"
	}

	// ── Row 1: title bar ──────────────────────────────────────────────────────
	title := titleStyle.Width(m.width).Render("  clicktrail  " + m.filename)

	// ── Row 2: page position ──────────────────────────────────────────────────
	name := "Summary"
	if m.page > 0 {
		name = fmt.Sprintf("Entry %d", m.page)
	}
	pos := lipgloss.NewStyle().
		Background(lipgloss.Color("235")).
		Width(m.width).
		Render(lipgloss.JoinHorizontal(lipgloss.Top,
			activeTabStyle.Render(" "+name+" "),
			inactiveTabStyle.Render(fmt.Sprintf(" %d/%d ", m.page+1, m.pageCount())),
		))

	// ── Row 3…N-1: scrollable content ────────────────────────────────────────
	content := m.viewport.View()

	// ── Row N: status / hint bar ──────────────────────────────────────────────
	hint := "  ←/→ page  ↑/↓ scroll  g/G first/last  q quit"
	pct := fmt.Sprintf("%3.0f%%", m.viewport.ScrollPercent()*100)
	pad := m.width - lipgloss.Width(hint) - len(pct) - 2
	if pad < 1 {
		pad = 1
	}
	statusBar := statusBarStyle.Width(m.width).Render(
		hint + strings.Repeat(" ", pad) + pct,
	)

	return lipgloss.JoinVertical(lipgloss.Left, title, pos, content, statusBar)
}

// ── Viewport management ───────────────────────────────────────────────────────

func (m *Viewer) initViewport() {
	// title(1) + position(1) + statusBar(1) = 3 fixed rows
	vpHeight := m.height - 3
	if vpHeight < 1 {
		vpHeight = 1
	}
	m.viewport = viewport.New(m.width, vpHeight)
	m.viewport.SetContent(m.renderPage(m.page))
}

func (m *Viewer) setPage(p int) {
	if p < 0 || p >= m.pageCount() {
		return
	}
	m.page = p
	m.viewport.SetContent(m.renderPage(p))
	m.viewport.GotoTop()
}

// ── Page renderers ─────────────────────────────────────────────────────────────

func (m *Viewer) renderPage(p int) string {
	if p == 0 {
		return m.renderSummary()
	}
	return renderEntry(p, m.report.Entries[p-1])
}

func heading(s string) string {
	return "\n" + sectionHeader.Render("  "+s) + "\n\n"
}

func row(sb *strings.Builder, label, value string) {
	sb.WriteString(labelStyle.Render(fmt.Sprintf("  %-14s", label)) + "  " + value + "\n")
}

func (m *Viewer) renderSummary() string {
	s := m.report.Session
	var sb strings.Builder
	sb.WriteString(heading("Session Summary"))

	row(&sb, "Session:", s.ID)
	row(&sb, "Start Path:", s.StartPath)
	row(&sb, "Started:", s.StartedAt.Format("2006-01-02 15:04:05 MST"))
	if s.StoppedAt != nil {
		row(&sb, "Stopped:", s.StoppedAt.Format("2006-01-02 15:04:05 MST"))
		row(&sb, "Duration:", s.StoppedAt.Sub(s.StartedAt).Round(time.Second).String())
	}
	row(&sb, "Recorded:", fmt.Sprintf("%d", m.report.Recorded))
	row(&sb, "In Report:", fmt.Sprintf("%d", len(m.report.Entries)))

	sb.WriteString(heading("Timeline"))
	if len(m.report.Entries) == 0 {
		sb.WriteString(dimStyle.Render("  (none)") + "\n")
		return sb.String()
	}
	for i, e := range m.report.Entries {
		ts := timeStyle.Render(e.CapturedAt.Format("15:04:05"))
		badge := kindBadge(e.EventKind)
		sb.WriteString(fmt.Sprintf("  %3d.  %s  %s  %s  %s\n", i+1, ts, badge, e.PagePath, dimStyle.Render(e.Label)))
	}
	return sb.String()
}

func renderEntry(n int, e session.Entry) string {
	var sb strings.Builder
	sb.WriteString(heading(fmt.Sprintf("Entry %d  %s", n, kindBadge(e.EventKind))))

	row(&sb, "Captured:", timeStyle.Render(e.CapturedAt.Format("2006-01-02 15:04:05")))
	row(&sb, "Page Path:", e.PagePath)
	row(&sb, "Event Type:", string(e.EventKind))
	row(&sb, "Screenshot:", describeImage(e.Image))

	sb.WriteString(heading("Element Info"))
	sb.WriteString(indent(strings.TrimRight(e.ElementDescription, "\n"), "    ") + "\n")

	sb.WriteString(heading("Label"))
	sb.WriteString(indent(e.Label, "    ") + "\n")

	sb.WriteString(heading("Content"))
	sb.WriteString(indent(e.Content, "    ") + "\n")
	return sb.String()
}

func kindBadge(k session.EventKind) string {
	style, ok := kindStyles[k]
	if !ok {
		style = dimStyle
	}
	return style.Render("[" + k.Label() + "]")
}

// describeImage summarizes a screenshot since terminals cannot show it.
func describeImage(data []byte) string {
	if len(data) == 0 {
		return dimStyle.Render("(none)")
	}
	size := fmt.Sprintf("%.1f KB", float64(len(data))/1024)
	cfg, err := png.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return size + dimStyle.Render(" (not a PNG)")
	}
	return fmt.Sprintf("%s PNG %dx%d", size, cfg.Width, cfg.Height)
}

func indent(s, prefix string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		if l != "" {
			lines[i] = prefix + l
		}
	}
	return strings.Join(lines, "\n")
}

// RunViewer starts the viewer for the given report.
func RunViewer(rep *report.Report, filename string) error {
	p := tea.NewProgram(NewViewer(rep, filename), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
