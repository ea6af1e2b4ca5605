// Package console is the interactive admin console: one tab per backend
// collection, each a list view rendered as a terminal table.
package console

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/focitech/focitech/cli/tui/components"
	"github.com/focitech/focitech/cli/tui/models"
	"github.com/focitech/focitech/cli/tui/styles"
	"github.com/focitech/focitech/engine/api"
	"github.com/focitech/focitech/engine/export"
	"github.com/focitech/focitech/engine/fetch"
	"github.com/focitech/focitech/pkg/logger"
)

// chrome is the tab bar, status line and footer around the active table.
const chrome = 5

type Option func(*Model)

// WithExportDir sets where CSV exports are written. Defaults to the working
// directory.
func WithExportDir(dir string) Option {
	return func(m *Model) { m.exportDir = dir }
}

func WithClock(now func() time.Time) Option {
	return func(m *Model) { m.now = now }
}

type Model struct {
	models.BaseModel
	client *api.Client
	latest *fetch.Latest
	user   string
	panes  []pane
	active int
	help   components.KeyboardShortcuts

	detail  *components.OpenMsg
	confirm *components.DeleteMsg
	status  string
	failed  bool

	exportDir string
	now       func() time.Time
}

func New(ctx context.Context, client *api.Client, user string, opts ...Option) (*Model, error) {
	panes, err := defaultPanes()
	if err != nil {
		return nil, err
	}
	m := &Model{
		BaseModel: models.NewBaseModel(ctx),
		client:    client,
		latest:    fetch.NewLatest(),
		user:      user,
		panes:     panes,
		help:      components.NewKeyboardShortcuts(),
		exportDir: ".",
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

func (m *Model) Init() tea.Cmd {
	cmds := make([]tea.Cmd, len(m.panes))
	for i, p := range m.panes {
		cmds[i] = p.load(m.Context(), m.client, m.latest)
	}
	return tea.Batch(cmds...)
}

// Close cancels any fetch still in flight.
func (m *Model) Close() {
	m.latest.CancelAll()
}

func (m *Model) current() pane {
	return m.panes[m.active]
}

func (m *Model) pane(name string) pane {
	for _, p := range m.panes {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

func (m *Model) setStatus(msg string, failed bool) {
	m.status = msg
	m.failed = failed
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if cmd := m.BaseModel.Update(msg); cmd != nil {
		return m, cmd
	}
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.help.SetSize(msg.Width, msg.Height)
		for _, p := range m.panes {
			p.SetSize(msg.Width, max(1, msg.Height-chrome))
		}
		return m, nil
	case loadedMsg:
		if p := m.pane(msg.table); p != nil {
			p.loaded(msg)
		}
		if msg.err != nil {
			logger.FromContext(m.Context()).Warn("Failed to load table", "table", msg.table, "error", msg.err)
			m.setStatus(fmt.Sprintf("%s: %s", msg.table, api.UserMessage(msg.err)), true)
		}
		return m, nil
	case deletedMsg:
		return m, m.handleDeleted(msg)
	case components.RefreshMsg:
		if p := m.pane(msg.Table); p != nil {
			return m, p.load(m.Context(), m.client, m.latest)
		}
		return m, nil
	case components.DeleteMsg:
		m.confirm = &msg
		m.setStatus(fmt.Sprintf("Delete %d %s row(s)? (y/n)", len(msg.IDs), strings.ToLower(msg.Table)), false)
		return m, nil
	case components.OpenMsg:
		m.detail = &msg
		return m, nil
	case components.ExportMsg:
		m.handleExport(msg)
		return m, nil
	case tea.KeyMsg:
		return m, m.handleKey(msg)
	}
	return m, m.current().Update(msg)
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case m.help.Visible:
		return m.help.Update(msg)
	case m.detail != nil:
		switch msg.String() {
		case "esc", "enter", "q":
			m.detail = nil
		}
		return nil
	case m.confirm != nil:
		return m.handleConfirm(msg)
	case m.current().Searching():
		return m.current().Update(msg)
	}
	switch msg.String() {
	case "q":
		m.Quit()
		return tea.Quit
	case "?":
		m.help.Toggle()
		return nil
	case "tab":
		m.active = (m.active + 1) % len(m.panes)
		return nil
	case "shift+tab":
		m.active = (m.active + len(m.panes) - 1) % len(m.panes)
		return nil
	}
	return m.current().Update(msg)
}

func (m *Model) handleConfirm(msg tea.KeyMsg) tea.Cmd {
	req := m.confirm
	switch msg.String() {
	case "y", "Y":
		m.confirm = nil
		p := m.pane(req.Table)
		if p == nil {
			return nil
		}
		m.setStatus(fmt.Sprintf("Deleting %d row(s)…", len(req.IDs)), false)
		return p.remove(m.Context(), m.client, req.IDs)
	case "n", "N", "esc", "q":
		m.confirm = nil
		m.setStatus("Delete cancelled.", false)
	}
	return nil
}

func (m *Model) handleDeleted(msg deletedMsg) tea.Cmd {
	p := m.pane(msg.table)
	if msg.err != nil {
		logger.FromContext(m.Context()).Error("Failed to delete rows", "table", msg.table, "deleted", msg.deleted, "error", msg.err)
		m.setStatus(fmt.Sprintf("Deleted %d, then failed: %s", msg.deleted, api.UserMessage(msg.err)), true)
	} else {
		m.setStatus(fmt.Sprintf("Deleted %d %s row(s).", msg.deleted, strings.ToLower(msg.table)), false)
	}
	if p == nil {
		return nil
	}
	p.SetLoading(true)
	return p.load(m.Context(), m.client, m.latest)
}

func (m *Model) handleExport(msg components.ExportMsg) {
	name := export.CSV.Filename(strings.ToLower(msg.Table.Title), m.now())
	path := filepath.Join(m.exportDir, name)
	if err := writeExport(path, msg.Table); err != nil {
		logger.FromContext(m.Context()).Error("Failed to export table", "path", path, "error", err)
		m.setStatus("Export failed: "+err.Error(), true)
		return
	}
	m.setStatus(fmt.Sprintf("Exported %d row(s) to %s", len(msg.Table.Rows), path), false)
}

func writeExport(path string, t *export.Table) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := export.Write(f, export.CSV, t); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func (m *Model) View() string {
	if m.IsQuitting() {
		return ""
	}
	if !m.IsReady() {
		return "Starting console…"
	}
	if m.help.Visible {
		return m.help.View()
	}
	if m.detail != nil {
		return m.renderDetail()
	}
	sections := []string{
		m.renderTabs(),
		m.current().View(),
		m.renderStatus(),
		styles.HelpStyle.Render("tab switch • / search • 1-9 sort • space select • d delete • x export • ? help • q quit"),
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m *Model) renderTabs() string {
	tabs := make([]string, len(m.panes))
	for i, p := range m.panes {
		if i == m.active {
			tabs[i] = styles.ActiveTabStyle.Render(p.Name())
		} else {
			tabs[i] = styles.TabStyle.Render(p.Name())
		}
	}
	bar := lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
	if m.user != "" {
		bar += "  " + styles.HelpStyle.Render(m.user)
	}
	return bar
}

func (m *Model) renderStatus() string {
	if m.status == "" {
		return ""
	}
	if m.failed {
		return styles.ErrorStyle.Render(m.status)
	}
	if m.confirm != nil {
		return styles.WarningStyle.Render(m.status)
	}
	return styles.SuccessStyle.Render(m.status)
}

func (m *Model) renderDetail() string {
	var b strings.Builder
	b.WriteString(styles.RenderTitle(fmt.Sprintf("%s #%s", m.detail.Table, m.detail.ID)) + "\n\n")
	for _, f := range m.detail.Fields {
		b.WriteString(styles.HelpKeyStyle.Render(f[0]) + "  " + f[1] + "\n")
	}
	b.WriteString("\n" + styles.HelpStyle.Render("Press ESC to close"))
	width, height := m.Size()
	dialog := styles.DialogStyle.Render(b.String())
	if width == 0 {
		return dialog
	}
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, dialog)
}
