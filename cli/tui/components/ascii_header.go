package components

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/common-nighthawk/go-figure"
	"github.com/focitech/focitech/cli/tui/styles"
)

// RenderASCIIHeader renders the product name as a banner.
func RenderASCIIHeader(width int) string {
	logo := figure.NewFigure("FOCITECH", "standard", true)
	return lipgloss.NewStyle().
		Foreground(styles.Primary).
		Bold(true).
		Width(width).
		Render(logo.String())
}
