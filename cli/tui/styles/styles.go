package styles

import "github.com/charmbracelet/lipgloss"

// Palette
var (
	Primary   = lipgloss.AdaptiveColor{Light: "#1D4ED8", Dark: "#60A5FA"}
	Highlight = lipgloss.AdaptiveColor{Light: "#0F172A", Dark: "#F8FAFC"}
	Surface   = lipgloss.AdaptiveColor{Light: "#E2E8F0", Dark: "#1E293B"}
	Border    = lipgloss.AdaptiveColor{Light: "#CBD5E1", Dark: "#334155"}
	Muted     = lipgloss.AdaptiveColor{Light: "#64748B", Dark: "#94A3B8"}
	Success   = lipgloss.AdaptiveColor{Light: "#15803D", Dark: "#4ADE80"}
	Warning   = lipgloss.AdaptiveColor{Light: "#B45309", Dark: "#FBBF24"}
	Danger    = lipgloss.AdaptiveColor{Light: "#B91C1C", Dark: "#F87171"}
)

var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(Primary)

	InfoStyle    = lipgloss.NewStyle().Foreground(Primary)
	WarningStyle = lipgloss.NewStyle().Foreground(Warning)
	ErrorStyle   = lipgloss.NewStyle().Foreground(Danger).Bold(true)
	SuccessStyle = lipgloss.NewStyle().Foreground(Success)
	HelpStyle    = lipgloss.NewStyle().Foreground(Muted)

	HelpKeyStyle  = lipgloss.NewStyle().Foreground(Primary).Bold(true)
	HelpDescStyle = lipgloss.NewStyle().Foreground(Muted)

	PaginationStyle = lipgloss.NewStyle().
			Foreground(Muted).
			PaddingTop(1)

	DialogStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Border).
			Padding(1, 2)

	TabStyle = lipgloss.NewStyle().
			Padding(0, 2).
			Foreground(Muted)

	ActiveTabStyle = TabStyle.
			Foreground(Highlight).
			Background(Surface).
			Bold(true)
)

// RenderTitle renders a heading.
func RenderTitle(title string) string {
	return TitleStyle.Render(title)
}
