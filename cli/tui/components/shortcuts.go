package components

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/focitech/focitech/cli/tui/styles"
)

const escKey = "esc"

// ShortcutCategory groups related key bindings on the help card.
type ShortcutCategory struct {
	Name      string
	Shortcuts [][2]string
}

// KeyboardShortcuts is the help overlay toggled with ?.
type KeyboardShortcuts struct {
	Width      int
	Height     int
	Visible    bool
	Categories []ShortcutCategory
}

func NewKeyboardShortcuts() KeyboardShortcuts {
	return KeyboardShortcuts{
		Categories: []ShortcutCategory{
			generalShortcuts(),
			tableShortcuts(),
			selectionShortcuts(),
		},
	}
}

func generalShortcuts() ShortcutCategory {
	return ShortcutCategory{
		Name: "General",
		Shortcuts: [][2]string{
			{"q", "quit"},
			{"ctrl+c", "force quit"},
			{"?", "toggle help"},
			{"tab", "next screen"},
			{"shift+tab", "previous screen"},
			{escKey, "close / clear search"},
		},
	}
}

func tableShortcuts() ShortcutCategory {
	return ShortcutCategory{
		Name: "Table",
		Shortcuts: [][2]string{
			{"↑/k ↓/j", "move cursor"},
			{"/", "search"},
			{"1-9", "sort by column"},
			{"n/→", "next page"},
			{"p/←", "previous page"},
			{"home/end", "first / last page"},
			{"r", "refresh"},
			{"x", "export CSV"},
		},
	}
}

func selectionShortcuts() ShortcutCategory {
	return ShortcutCategory{
		Name: "Rows",
		Shortcuts: [][2]string{
			{"enter", "open row"},
			{"space", "select row"},
			{"a", "select page"},
			{"c", "clear selection"},
			{"d", "delete"},
		},
	}
}

func (k *KeyboardShortcuts) SetSize(width, height int) *KeyboardShortcuts {
	k.Width = width
	k.Height = height
	return k
}

func (k *KeyboardShortcuts) Show() {
	k.Visible = true
}

func (k *KeyboardShortcuts) Hide() {
	k.Visible = false
}

func (k *KeyboardShortcuts) Toggle() {
	k.Visible = !k.Visible
}

// Update resizes the card and closes it on esc, q or ?.
func (k *KeyboardShortcuts) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		k.SetSize(msg.Width, msg.Height)
	case tea.KeyMsg:
		if !k.Visible {
			return nil
		}
		switch msg.String() {
		case escKey, "q", "?":
			k.Hide()
		}
	}
	return nil
}

func (k *KeyboardShortcuts) View() string {
	if !k.Visible {
		return ""
	}
	content := styles.RenderTitle("Keyboard Shortcuts") + "\n\n"
	content += k.renderCategories()
	content += "\n" + styles.HelpStyle.Render("Press ESC or ? to close")
	dialog := styles.DialogStyle.
		Width(max(20, k.Width-4)).
		Render(content)
	return lipgloss.Place(k.Width, k.Height, lipgloss.Center, lipgloss.Center, dialog)
}

func (k *KeyboardShortcuts) renderCategories() string {
	if k.Width <= 60 {
		parts := make([]string, len(k.Categories))
		for i, category := range k.Categories {
			parts[i] = renderCategory(category)
		}
		return strings.Join(parts, "\n")
	}
	columns := make([]string, len(k.Categories))
	for i, category := range k.Categories {
		columns[i] = lipgloss.NewStyle().PaddingRight(4).Render(renderCategory(category))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, columns...)
}

func renderCategory(category ShortcutCategory) string {
	var b strings.Builder
	b.WriteString(styles.HelpDescStyle.Render(category.Name) + "\n")
	for _, shortcut := range category.Shortcuts {
		b.WriteString("  " + styles.HelpKeyStyle.Render(shortcut[0]) + " " + styles.HelpDescStyle.Render(shortcut[1]) + "\n")
	}
	return b.String()
}
